package region

import (
	"regexp"

	"rholsp/internal/ir"
)

// compilerURIPattern matches a system-URI suffix naming an embedded
// compiler channel, e.g. "rho:lang:mettaCompiler" or "mettaCompiler".
var compilerURIPattern = regexp.MustCompile(`(?:^|:)([A-Za-z0-9_]+)Compiler$`)

// ChannelFlowDetector implements the channel-flow analyzer (spec 4.6,
// priority 25): finds a channel name declared with a system-URI
// annotation naming an embedded-language compiler
// (`new c(\`rho:lang:mettaCompiler\`) in {...}`), then follows any Send
// to that same channel name elsewhere in the document, treating a
// string-literal argument as a region of the named language. The flow
// is deliberately shallow — one hop, same document, by name only —
// matching the "bounded symbolic flow" the spec calls for rather than a
// full points-to analysis.
type ChannelFlowDetector struct{}

func (d *ChannelFlowDetector) Name() string           { return "channel_flow" }
func (d *ChannelFlowDetector) Priority() int          { return 25 }
func (d *ChannelFlowDetector) CanRunInParallel() bool { return false }

func (d *ChannelFlowDetector) Detect(doc *ir.DocumentIR) []Region {
	compilers := compilerChannels(doc.Root)
	if len(compilers) == 0 {
		return nil
	}

	var out []Region
	ir.Walk(doc.Root, func(n *ir.Node) bool {
		if n.Kind != ir.KindSend && n.Kind != ir.KindSendSync {
			return true
		}
		if len(n.Children) < 2 || n.Children[0].Kind != ir.KindVar {
			return true
		}
		lang, ok := compilers[n.Children[0].Name]
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
				Source:   SourceChannelFlow,
				Literal:  arg,
			})
		}
		return true
	})
	return out
}

// compilerChannels collects every `new` declaration whose URI-suffix
// metadata names a "<lang>Compiler" system channel.
func compilerChannels(root *ir.Node) map[string]string {
	out := make(map[string]string)
	ir.Walk(root, func(n *ir.Node) bool {
		if n.Kind != ir.KindNewDecl {
			return true
		}
		suffix, ok := ir.MetaURISuffix(n)
		if !ok {
			return true
		}
		if lang, ok := compilerURILanguage(suffix); ok {
			out[n.Name] = lang
		}
		return true
	})
	return out
}

func compilerURILanguage(uriSuffix string) (string, bool) {
	m := compilerURIPattern.FindStringSubmatch(uriSuffix)
	if m == nil {
		return "", false
	}
	return m[1], true
}
