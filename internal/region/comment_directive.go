package region

import "rholsp/internal/ir"

// CommentDirectiveDetector implements the directive-parser detector
// (spec 4.6, priority 100): a string literal immediately preceded by a
// comment that parses as a language directive is marked as a region of
// that language. Directives are explicit, so this detector always wins
// ties during deduplication.
type CommentDirectiveDetector struct{}

func (d *CommentDirectiveDetector) Name() string           { return "comment_directive" }
func (d *CommentDirectiveDetector) Priority() int           { return 100 }
func (d *CommentDirectiveDetector) CanRunInParallel() bool  { return true }

func (d *CommentDirectiveDetector) Detect(doc *ir.DocumentIR) []Region {
	var out []Region
	for _, lit := range stringLiterals(doc) {
		directive := doc.DirectiveBefore(lit.Base.Abs.Start)
		if directive == nil {
			continue
		}
		out = append(out, Region{
			Range:    interiorRange(lit),
			Language: directive.Language,
			Source:   SourceCommentDirective,
			Literal:  lit,
		})
	}
	return out
}
