// Package virtual implements holed virtual documents (spec section 4.7):
// flattening a `++`-concatenation expression into literal/hole parts,
// synthesizing the virtual document text from the literal parts, and
// mapping positions bidirectionally between the virtual document and
// its parent.
package virtual

import "rholsp/internal/ir"

// PartKind distinguishes a concatenation part.
type PartKind int

const (
	PartLiteral PartKind = iota
	PartHole
)

// Part is one segment of a flattened concatenation chain.
type Part struct {
	Kind PartKind
	Node *ir.Node
	// Text is the literal's interior text (quotes stripped), set only
	// when Kind == PartLiteral.
	Text string
	// VirtualStart is this part's offset within the synthesized virtual
	// document text; meaningless for holes.
	VirtualStart int
}

// ConcatenationChain is a flattened `++` BinOp tree: left-to-right
// literal and hole parts, plus the synthesized virtual text.
type ConcatenationChain struct {
	Parts       []Part
	VirtualText string
}

// concatOperator is the Rholang string-concatenation operator text this
// package recognizes when flattening a BinOp tree.
const concatOperator = "++"

// BuildChain flattens root (expected to be a `++`-chained BinOp tree, or
// a single literal/other node) into a ConcatenationChain in left-to-
// right order.
func BuildChain(root *ir.Node) *ConcatenationChain {
	var leaves []*ir.Node
	flatten(root, &leaves)

	chain := &ConcatenationChain{}
	var text []byte
	for _, leaf := range leaves {
		if leaf.Kind == ir.KindStringLiteral {
			interior := stripQuotes(leaf.Name)
			chain.Parts = append(chain.Parts, Part{
				Kind:         PartLiteral,
				Node:         leaf,
				Text:         interior,
				VirtualStart: len(text),
			})
			text = append(text, interior...)
			continue
		}
		chain.Parts = append(chain.Parts, Part{Kind: PartHole, Node: leaf})
	}
	chain.VirtualText = string(text)
	return chain
}

// flatten walks a left-associated `++` BinOp tree in-order, appending
// every non-`++` leaf to leaves.
func flatten(n *ir.Node, leaves *[]*ir.Node) {
	if n == nil {
		return
	}
	if n.Kind == ir.KindBinOp && n.Name == concatOperator && len(n.Children) == 2 {
		flatten(n.Children[0], leaves)
		flatten(n.Children[1], leaves)
		return
	}
	*leaves = append(*leaves, n)
}

func stripQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// literalParentRange returns the parent-document byte range the literal
// part's interior occupies (its node's range minus the surrounding
// quote bytes), mirroring region.interiorRange's convention.
func literalParentRange(p Part) ir.Range {
	start, end := p.Node.Base.Abs.Start, p.Node.Base.Abs.End
	if end.Byte-start.Byte < 2 {
		return p.Node.Base.Abs
	}
	return ir.Range{
		Start: ir.Position{Line: start.Line, Column: start.Column + 1, Byte: start.Byte + 1},
		End:   ir.Position{Line: end.Line, Column: end.Column - 1, Byte: end.Byte - 1},
	}
}
