// Package parser lowers a Tree-Sitter CST into the persistent IR defined
// in internal/ir. The CST itself — a Rholang or MeTTa grammar compiled
// into github.com/smacker/go-tree-sitter — is an external collaborator:
// this package depends only on the generic *sitter.Node surface the
// teacher's multi-language wrapper already walks (Type, ChildByFieldName,
// Content, StartPoint/EndPoint), never on a specific vendored grammar.
package parser

import (
	sitter "github.com/smacker/go-tree-sitter"

	"rholsp/internal/ir"
)

// posOf converts a Tree-Sitter point (0-based row, 0-based byte column)
// plus an absolute byte offset into an ir.Position.
func posOf(p sitter.Point, byteOffset uint32) ir.Position {
	return ir.Position{Line: int(p.Row), Column: int(p.Column), Byte: int(byteOffset)}
}

func startPos(n *sitter.Node) ir.Position { return posOf(n.StartPoint(), n.StartByte()) }
func endPos(n *sitter.Node) ir.Position   { return posOf(n.EndPoint(), n.EndByte()) }

func nodeText(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return n.Content(src)
}

// namedChildren returns n's named children (Tree-Sitter distinguishes
// named nodes from anonymous punctuation/keyword tokens; the lowerer
// only ever descends into named nodes).
func namedChildren(n *sitter.Node) []*sitter.Node {
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}

// childrenExcept returns n's named children in order, skipping any that
// equal one of exclude. Used where a grammar field (e.g. "proc", "body")
// picks one child out of an otherwise-repeated field (e.g. "decls",
// "receipts") that go-tree-sitter's field API cannot enumerate directly.
func childrenExcept(n *sitter.Node, exclude ...*sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, c := range namedChildren(n) {
		skip := false
		for _, e := range exclude {
			if e != nil && c.StartByte() == e.StartByte() && c.EndByte() == e.EndByte() {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, c)
		}
	}
	return out
}
