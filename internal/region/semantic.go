package region

import (
	"regexp"

	"rholsp/internal/ir"
)

// compileChannelPattern matches the canonical Rholang system-channel
// name used to invoke an embedded-language compiler directly, e.g.
// `rho:metta:compile`.
var compileChannelPattern = regexp.MustCompile(`^rho:([A-Za-z0-9_]+):compile$`)

// SemanticAnalysisDetector implements the semantic detector (spec 4.6,
// priority 50): a Send whose channel is a quoted string literal naming
// a "...:compile" system channel, carrying a string-literal argument,
// statically implies that argument is source for the named language.
type SemanticAnalysisDetector struct{}

func (d *SemanticAnalysisDetector) Name() string          { return "semantic_analysis" }
func (d *SemanticAnalysisDetector) Priority() int         { return 50 }
func (d *SemanticAnalysisDetector) CanRunInParallel() bool { return true }

func (d *SemanticAnalysisDetector) Detect(doc *ir.DocumentIR) []Region {
	var out []Region
	ir.Walk(doc.Root, func(n *ir.Node) bool {
		if n.Kind != ir.KindSend && n.Kind != ir.KindSendSync {
			return true
		}
		if len(n.Children) < 2 {
			return true
		}
		lang, ok := compiledLanguage(n.Children[0])
		if !ok {
			return true
		}
		for _, arg := range n.Children[1:] {
			if arg.Kind != ir.KindStringLiteral {
				continue
			}
			out = append(out, Region{
				Range:    interiorRange(arg),
				Language: lang,
				Source:   SourceSemanticAnalysis,
				Literal:  arg,
			})
		}
		return true
	})
	return out
}

// compiledLanguage extracts the language name from a channel node if it
// is a quoted "rho:<lang>:compile" string literal.
func compiledLanguage(channel *ir.Node) (string, bool) {
	lit := channel
	if channel.Kind == ir.KindQuote && len(channel.Children) == 1 {
		lit = channel.Children[0]
	}
	if lit.Kind != ir.KindStringLiteral {
		return "", false
	}
	m := compileChannelPattern.FindStringSubmatch(unquote(lit.Name))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// unquote strips a single pair of surrounding double quotes, if present,
// from raw literal text.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
