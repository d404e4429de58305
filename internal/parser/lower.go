package parser

import (
	sitter "github.com/smacker/go-tree-sitter"

	"rholsp/internal/ir"
)

// rholangKinds maps Tree-Sitter node type names to ir.Kind for the
// Rholang grammar fragment this core supports. Node types the grammar
// emits for punctuation/keywords never appear here because the lowerer
// only visits named children.
var rholangKinds = map[string]ir.Kind{
	"nil":           ir.KindNil,
	"var":           ir.KindVar,
	"quote":         ir.KindQuote,
	"eval":          ir.KindEval,
	"bool_literal":  ir.KindBoolLiteral,
	"long_literal":  ir.KindLongLiteral,
	"string_literal": ir.KindStringLiteral,
	"uri_literal":   ir.KindUriLiteral,
	"wildcard":      ir.KindWildcard,
	"simple_type":   ir.KindSimpleType,
	"tuple":         ir.KindTuple,
	"list":          ir.KindList,
	"set":           ir.KindSet,
	"map":           ir.KindMap,
	"pathmap":       ir.KindPathmap,
	"par":           ir.KindPar,
	"send":          ir.KindSend,
	"send_sync":     ir.KindSendSync,
	"new":           ir.KindNew,
	"if_else":       ir.KindIfElse,
	"let":           ir.KindLet,
	"contract":      ir.KindContract,
	"input":         ir.KindInput,
	"linear_bind":   ir.KindLinearBind,
	"repeated_bind": ir.KindRepeatedBind,
	"peek_bind":     ir.KindPeekBind,
	"map_pair":      ir.KindMapPair,
	"match":         ir.KindMatch,
	"match_case":    ir.KindMatchCase,
	"choice":        ir.KindChoice,
	"choice_branch": ir.KindChoiceBranch,
	"block":         ir.KindBlock,
	"bundle":        ir.KindBundle,
	"bin_op":        ir.KindBinOp,
	"unary_op":      ir.KindUnaryOp,
	"method":        ir.KindMethod,
	"disjunction":   ir.KindDisjunction,
	"conjunction":   ir.KindConjunction,
	"negation":      ir.KindNegation,
	"parenthesized": ir.KindParenthesized,
}

// cursor tracks the "previous end" position used to compute each node's
// delta, scoped to one sibling list (a fresh cursor is created for every
// parent's children, seeded at the parent's own start).
type cursor struct{ prevEnd ir.Position }

func (c *cursor) advance(start, end ir.Position) ir.Delta {
	d := ir.DeltaBetween(c.prevEnd, start)
	c.prevEnd = end
	return d
}

// Lowerer converts a Tree-Sitter tree into a DocumentIR, diverting
// comments to the side channel and collecting language directives are
// left to the caller (region detection), not resolved here.
type Lowerer struct {
	src      []byte
	comments []ir.Comment
}

// LowerRholang lowers a parsed Rholang tree into a DocumentIR.
func LowerRholang(tree *sitter.Tree, src []byte) *ir.DocumentIR {
	l := &Lowerer{src: src}
	root := tree.RootNode()
	base := startPos(root)
	cur := &cursor{prevEnd: base}
	irRoot := l.lowerRholangNode(root, cur)
	return ir.NewDocumentIR(ir.LangRholang, irRoot, l.comments)
}

func (l *Lowerer) collectComment(n *sitter.Node) {
	r := ir.Range{Start: startPos(n), End: endPos(n)}
	l.comments = append(l.comments, ir.NewComment(r, nodeText(n, l.src)))
}

// lowerRholangNode lowers one CST node. Syntax errors (Tree-Sitter marks
// these with IsError()/IsMissing()) become Error nodes wrapping whatever
// children were recovered, so the rest of the tree stays usable.
func (l *Lowerer) lowerRholangNode(n *sitter.Node, cur *cursor) *ir.Node {
	if n == nil {
		return nil
	}
	typ := n.Type()
	start, end := startPos(n), endPos(n)
	delta := cur.advance(start, end)
	base := ir.NodeBase{Abs: ir.Range{Start: start, End: end}, Delta: delta}

	if typ == "comment" {
		l.collectComment(n)
		return nil
	}

	if n.IsError() || n.IsMissing() {
		childCur := &cursor{prevEnd: start}
		children := l.lowerChildren(namedChildren(n), childCur)
		return &ir.Node{Kind: ir.KindError, Base: base, Children: children}
	}

	kind, known := rholangKinds[typ]
	if !known {
		// Unrecognized construct from a grammar shape we don't model
		// explicitly: still walk its named children generically so
		// nested semantic nodes (e.g. a contract nested under a
		// top-level source_file wrapper) remain reachable.
		childCur := &cursor{prevEnd: start}
		children := l.lowerChildren(namedChildren(n), childCur)
		return &ir.Node{Kind: ir.KindError, Base: base, Children: children, Name: typ}
	}

	node := &ir.Node{Kind: kind, Base: base}
	childCur := &cursor{prevEnd: start}

	switch kind {
	case ir.KindVar, ir.KindBoolLiteral, ir.KindLongLiteral, ir.KindStringLiteral, ir.KindUriLiteral, ir.KindSimpleType:
		node.Name = nodeText(n, l.src)
		return node

	case ir.KindPar:
		left := n.ChildByFieldName("left")
		right := n.ChildByFieldName("right")
		var procs []*ir.Node
		procs = appendFlattenedPar(procs, l.lowerRholangNode(left, childCur))
		procs = appendFlattenedPar(procs, l.lowerRholangNode(right, childCur))
		if len(procs) == 0 {
			// grammar without explicit left/right fields: fall back to
			// named children in source order.
			procs = l.lowerChildren(namedChildren(n), childCur)
		}
		node.Children = procs
		return node

	case ir.KindSend:
		channel := n.ChildByFieldName("channel")
		if channel != nil {
			node.Children = append(node.Children, l.lowerRholangNode(channel, childCur))
		}
		for _, in := range childrenExcept(n, channel) {
			node.Children = append(node.Children, l.lowerRholangNode(in, childCur))
		}
		node.Name = sendKindFromNode(n, l.src)
		return node

	case ir.KindSendSync:
		channel := n.ChildByFieldName("channel")
		cont := n.ChildByFieldName("cont")
		if channel != nil {
			node.Children = append(node.Children, l.lowerRholangNode(channel, childCur))
		}
		for _, in := range childrenExcept(n, channel, cont) {
			node.Children = append(node.Children, l.lowerRholangNode(in, childCur))
		}
		if cont != nil {
			node.Children = append(node.Children, l.lowerRholangNode(cont, childCur))
		}
		return node

	case ir.KindNew:
		proc := n.ChildByFieldName("proc")
		for _, d := range childrenExcept(n, proc) {
			node.Children = append(node.Children, l.lowerNewDecl(d, childCur))
		}
		if proc != nil {
			node.Children = append(node.Children, l.lowerRholangNode(proc, childCur))
		}
		return node

	case ir.KindIfElse:
		node.Children = l.lowerFields(n, childCur, "cond", "then", "else")
		return node

	case ir.KindLet:
		proc := n.ChildByFieldName("proc")
		for _, d := range childrenExcept(n, proc) {
			node.Children = append(node.Children, l.lowerRholangNode(d, childCur))
		}
		if proc != nil {
			node.Children = append(node.Children, l.lowerRholangNode(proc, childCur))
		}
		return node

	case ir.KindContract:
		node.Name = nodeText(n.ChildByFieldName("name"), l.src)
		node.Children = l.lowerFields(n, childCur, "formals", "proc")
		if rem := n.ChildByFieldName("remainder"); rem != nil {
			node.Remainder = markRemainder(l.lowerRholangNode(rem, childCur))
		}
		return node

	case ir.KindInput:
		proc := n.ChildByFieldName("proc")
		for _, r := range childrenExcept(n, proc) {
			node.Children = append(node.Children, l.lowerRholangNode(r, childCur))
		}
		if proc != nil {
			node.Children = append(node.Children, l.lowerRholangNode(proc, childCur))
		}
		return node

	case ir.KindLinearBind, ir.KindRepeatedBind, ir.KindPeekBind:
		source := n.ChildByFieldName("source")
		remainder := n.ChildByFieldName("remainder")
		for _, name := range childrenExcept(n, source, remainder) {
			node.Children = append(node.Children, l.lowerRholangNode(name, childCur))
		}
		if source != nil {
			node.Children = append(node.Children, l.lowerRholangNode(source, childCur))
		}
		if remainder != nil {
			node.Remainder = markRemainder(l.lowerRholangNode(remainder, childCur))
		}
		return node

	case ir.KindList, ir.KindSet, ir.KindPathmap:
		remainder := n.ChildByFieldName("remainder")
		for _, e := range childrenExcept(n, remainder) {
			node.Children = append(node.Children, l.lowerRholangNode(e, childCur))
		}
		if remainder != nil {
			node.Remainder = markRemainder(l.lowerRholangNode(remainder, childCur))
		}
		return node

	case ir.KindMap:
		remainder := n.ChildByFieldName("remainder")
		for _, p := range childrenExcept(n, remainder) {
			node.Children = append(node.Children, l.lowerRholangNode(p, childCur))
		}
		if remainder != nil {
			node.Remainder = markRemainder(l.lowerRholangNode(remainder, childCur))
		}
		return node

	case ir.KindMapPair:
		node.Children = l.lowerFields(n, childCur, "key", "value")
		return node

	case ir.KindMatch:
		expr := n.ChildByFieldName("expression")
		if expr != nil {
			node.Children = append(node.Children, l.lowerRholangNode(expr, childCur))
		}
		for _, c := range childrenExcept(n, expr) {
			node.Children = append(node.Children, l.lowerRholangNode(c, childCur))
		}
		return node

	case ir.KindMatchCase:
		node.Children = l.lowerFields(n, childCur, "pattern", "body")
		return node

	case ir.KindChoice:
		for _, b := range namedChildren(n) {
			node.Children = append(node.Children, l.lowerRholangNode(b, childCur))
		}
		return node

	case ir.KindChoiceBranch:
		body := n.ChildByFieldName("body")
		for _, bind := range childrenExcept(n, body) {
			node.Children = append(node.Children, l.lowerRholangNode(bind, childCur))
		}
		if body != nil {
			node.Children = append(node.Children, l.lowerRholangNode(body, childCur))
		}
		return node

	case ir.KindBlock:
		node.Children = l.lowerFields(n, childCur, "proc")
		return node

	case ir.KindBundle:
		node.Name = bundleKindFromNode(n, l.src)
		node.Children = l.lowerFields(n, childCur, "proc")
		return node

	case ir.KindBinOp:
		node.Name = nodeText(n.ChildByFieldName("operator"), l.src)
		node.Children = l.lowerFields(n, childCur, "left", "right")
		return node

	case ir.KindUnaryOp:
		node.Name = nodeText(n.ChildByFieldName("operator"), l.src)
		node.Children = l.lowerFields(n, childCur, "operand")
		return node

	case ir.KindMethod:
		node.Name = nodeText(n.ChildByFieldName("name"), l.src)
		node.Children = l.lowerFields(n, childCur, "receiver", "args")
		return node

	case ir.KindDisjunction, ir.KindConjunction:
		node.Children = l.lowerFields(n, childCur, "left", "right")
		return node

	case ir.KindNegation, ir.KindParenthesized, ir.KindEval, ir.KindQuote, ir.KindWildcard, ir.KindNil:
		node.Children = l.lowerChildren(namedChildren(n), childCur)
		return node

	default:
		node.Children = l.lowerChildren(namedChildren(n), childCur)
		return node
	}
}

// lowerFields lowers n's named fields in the given order, skipping any
// absent field, and returns them as node.Children.
func (l *Lowerer) lowerFields(n *sitter.Node, cur *cursor, fields ...string) []*ir.Node {
	var out []*ir.Node
	for _, f := range fields {
		if child := n.ChildByFieldName(f); child != nil {
			if lowered := l.lowerRholangNode(child, cur); lowered != nil {
				out = append(out, lowered)
			}
		}
	}
	return out
}

func (l *Lowerer) lowerChildren(children []*sitter.Node, cur *cursor) []*ir.Node {
	var out []*ir.Node
	for _, c := range children {
		if lowered := l.lowerRholangNode(c, cur); lowered != nil {
			out = append(out, lowered)
		}
	}
	return out
}

// lowerNewDecl lowers one `x` or `x(`uri`)` binder inside a New, capturing
// the optional URI suffix in metadata per the spec's scoping rule.
func (l *Lowerer) lowerNewDecl(n *sitter.Node, cur *cursor) *ir.Node {
	node := l.lowerRholangNode(n, cur)
	if node == nil {
		return nil
	}
	if uriNode := n.ChildByFieldName("uri"); uriNode != nil {
		node = node.Clone()
		node.SetMeta(ir.MetaKeyURISuffix, nodeText(uriNode, l.src))
	}
	return node
}

// markRemainder clones node (if non-nil) and marks it with
// ir.MetaKeyRemainder, so the symbol-table builder can distinguish a
// "...rest" binder from an ordinary name without re-deriving it from
// tree shape.
func markRemainder(node *ir.Node) *ir.Node {
	if node == nil {
		return nil
	}
	node = node.Clone()
	node.SetMeta(ir.MetaKeyRemainder, true)
	return node
}

// appendFlattenedPar implements the n-ary Par reconstruction policy:
// when a side of a binary `|` is itself a Par, its processes splice in
// rather than nesting, preserving source order.
func appendFlattenedPar(procs []*ir.Node, side *ir.Node) []*ir.Node {
	if side == nil {
		return procs
	}
	if side.Kind == ir.KindPar {
		return append(procs, side.Children...)
	}
	return append(procs, side)
}

func sendKindFromNode(n *sitter.Node, src []byte) string {
	if k := n.ChildByFieldName("kind"); k != nil {
		return nodeText(k, src)
	}
	return "!"
}

func bundleKindFromNode(n *sitter.Node, src []byte) string {
	if k := n.ChildByFieldName("kind"); k != nil {
		return nodeText(k, src)
	}
	return "bundle"
}
