// Package region implements the embedded-region detection pipeline
// (spec section 4.6): three detectors running in priority order over a
// document's string literals, producing the set of byte ranges whose
// content is source text in some other embedded language.
package region

import (
	"sort"

	"rholsp/internal/ir"
)

// Source identifies which detector produced a Region.
type Source string

const (
	SourceCommentDirective Source = "comment_directive"
	SourceSemanticAnalysis Source = "semantic_analysis"
	SourceChannelFlow      Source = "channel_flow"
)

// Region is one detected embedded-language span, always the interior of
// a string literal (excluding its quote bytes).
type Region struct {
	Range    ir.Range
	Language string
	Source   Source
	Literal  *ir.Node
}

// Detector finds regions within one document.
type Detector interface {
	// Name identifies the detector for logging/diagnostics.
	Name() string
	// Priority orders detector output before deduplication; higher runs
	// (and therefore wins ties) first.
	Priority() int
	// CanRunInParallel reports whether this detector may be evaluated
	// concurrently with other parallel-capable detectors over the same
	// document. Registry.DetectAll does not consult it: every detector
	// runs sequentially, in priority order.
	CanRunInParallel() bool
	// Detect scans doc for embedded regions.
	Detect(doc *ir.DocumentIR) []Region
}

// Registry holds the ordered set of registered detectors.
type Registry struct {
	detectors []Detector
}

// NewRegistry returns a registry pre-populated with the three built-in
// detectors, in the priority order the spec assigns them.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Register(&CommentDirectiveDetector{})
	r.Register(&SemanticAnalysisDetector{})
	r.Register(&ChannelFlowDetector{})
	return r
}

// Register adds a detector, keeping the registry sorted by descending
// priority.
func (r *Registry) Register(d Detector) {
	r.detectors = append(r.detectors, d)
	sort.SliceStable(r.detectors, func(i, j int) bool {
		return r.detectors[i].Priority() > r.detectors[j].Priority()
	})
}

// DetectAll runs every registered detector over doc, one after another
// in descending priority order (CanRunInParallel is not consulted and
// no detector runs concurrently with another), then deduplicates by
// arrival order, dropping any
// region whose byte range overlaps an already-accepted one. Since
// detectors already run in priority order, "arrival order" and
// "priority order" coincide; explicit directives therefore always beat
// automatic inference for an overlapping span.
func (r *Registry) DetectAll(doc *ir.DocumentIR) []Region {
	var all []Region
	for _, d := range r.detectors {
		all = append(all, d.Detect(doc)...)
	}
	return Deduplicate(all)
}

// Deduplicate keeps regions in arrival order, dropping any whose byte
// range overlaps one already accepted.
func Deduplicate(regions []Region) []Region {
	var kept []Region
	for _, r := range regions {
		overlaps := false
		for _, k := range kept {
			if rangesOverlap(r.Range, k.Range) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, r)
		}
	}
	return kept
}

func rangesOverlap(a, b ir.Range) bool {
	return a.Start.Byte < b.End.Byte && b.Start.Byte < a.End.Byte
}

// stringLiterals walks doc's IR collecting every string-literal node
// (Rholang StringLiteral or MeTTa String), across both languages since
// a detector is not told which language it is scanning.
func stringLiterals(doc *ir.DocumentIR) []*ir.Node {
	var out []*ir.Node
	ir.Walk(doc.Root, func(n *ir.Node) bool {
		if n.Kind == ir.KindStringLiteral || n.Kind == ir.KindMettaString {
			out = append(out, n)
		}
		return true
	})
	return out
}

// interiorRange strips a string literal's surrounding quote bytes,
// assuming a single leading and trailing quote byte (the common case;
// literals without recognizable quoting are returned unchanged).
func interiorRange(n *ir.Node) ir.Range {
	start, end := n.Base.Abs.Start, n.Base.Abs.End
	if end.Byte-start.Byte < 2 {
		return n.Base.Abs
	}
	return ir.Range{
		Start: ir.Position{Line: start.Line, Column: start.Column + 1, Byte: start.Byte + 1},
		End:   ir.Position{Line: end.Line, Column: end.Column - 1, Byte: end.Byte - 1},
	}
}
