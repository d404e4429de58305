package virtual

import "rholsp/internal/ir"

// PositionMap answers bidirectional position queries between a
// ConcatenationChain's virtual document and its parent document.
// Multi-line literal parts are excluded entirely: a literal whose
// parent range spans more than one source line cannot be mapped
// byte-for-byte without also reasoning about line/column renumbering
// across the virtual document, which spec 4.7 puts out of scope — any
// query landing inside one returns false.
type PositionMap struct {
	chain *ConcatenationChain
}

// NewPositionMap builds the position map for chain.
func NewPositionMap(chain *ConcatenationChain) *PositionMap {
	return &PositionMap{chain: chain}
}

// VirtualToParent maps a byte offset in the virtual document back to a
// position in the parent document. Returns false when offset lies
// within a part whose parent range is multi-line, or outside the
// virtual text (single-line literals always succeed; holes never appear
// in the virtual text at all, so an in-range offset can never land "in"
// one).
func (m *PositionMap) VirtualToParent(offset int) (ir.Position, bool) {
	for _, p := range m.chain.Parts {
		if p.Kind != PartLiteral {
			continue
		}
		if offset < p.VirtualStart || offset >= p.VirtualStart+len(p.Text) {
			continue
		}
		parentRange := literalParentRange(p)
		if parentRange.Start.Line != parentRange.End.Line {
			return ir.Position{}, false
		}
		residual := offset - p.VirtualStart
		return ir.Position{
			Line:   parentRange.Start.Line,
			Column: parentRange.Start.Column + residual,
			Byte:   parentRange.Start.Byte + residual,
		}, true
	}
	return ir.Position{}, false
}

// ParentToVirtual maps a parent-document byte offset into the virtual
// document. Returns false when pos falls inside a hole, inside a
// multi-line literal, or outside every part.
func (m *PositionMap) ParentToVirtual(pos ir.Position) (int, bool) {
	for _, p := range m.chain.Parts {
		if p.Kind == PartHole {
			r := p.Node.Base.Abs
			if rangeContainsByte(r, pos.Byte) {
				return 0, false
			}
			continue
		}
		parentRange := literalParentRange(p)
		if !rangeContainsByte(parentRange, pos.Byte) {
			continue
		}
		if parentRange.Start.Line != parentRange.End.Line {
			return 0, false
		}
		residual := pos.Byte - parentRange.Start.Byte
		return p.VirtualStart + residual, true
	}
	return 0, false
}

func rangeContainsByte(r ir.Range, b int) bool {
	return b >= r.Start.Byte && b < r.End.Byte
}
