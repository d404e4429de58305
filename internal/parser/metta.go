package parser

import "rholsp/internal/ir"

// LowerMetta parses MeTTa source directly into IR (MeTTa has no
// Tree-Sitter grammar in this core; its concrete syntax — parenthesized
// s-expressions — is simple enough to tokenize and parse by hand,
// grounded on the same recursive-descent shape a hand-written parser
// for this language family takes).
func LowerMetta(src []byte) *ir.DocumentIR {
	p := &mettaParser{lex: newMettaLexer(src)}
	p.advance()

	var top []*ir.Node
	cur := &cursor{}
	for p.tok.kind != tokEOF {
		n := p.parseTop(cur)
		if n != nil {
			top = append(top, n)
		}
	}

	var root *ir.Node
	if len(top) == 1 {
		root = top[0]
	} else {
		end := ir.Position{}
		if len(top) > 0 {
			end = top[len(top)-1].Base.Abs.End
		}
		root = &ir.Node{
			Kind:     ir.KindBlock,
			Base:     ir.NodeBase{Abs: ir.Range{End: end}},
			Children: top,
		}
	}
	return ir.NewDocumentIR(ir.LangMetta, root, p.comments)
}

type mettaParser struct {
	lex      *mettaLexer
	tok      mettaToken
	comments []ir.Comment
}

func (p *mettaParser) advance() {
	for {
		p.tok = p.lex.Next()
		if p.tok.kind == tokComment {
			p.comments = append(p.comments, ir.NewComment(ir.Range{Start: p.tok.start, End: p.tok.end}, p.tok.text))
			continue
		}
		return
	}
}

// parseTop parses one top-level form. A leading `!` eval prefix is
// handled by parseExpr, which accepts it at any nesting depth.
func (p *mettaParser) parseTop(cur *cursor) *ir.Node {
	return p.parseExpr(cur)
}

func (p *mettaParser) parseExpr(cur *cursor) *ir.Node {
	switch p.tok.kind {
	case tokBang:
		start := p.tok.start
		p.advance()
		inner := p.parseExpr(&cursor{prevEnd: start})
		end := start
		if inner != nil {
			end = inner.Base.Abs.End
		}
		delta := cur.advance(start, end)
		return &ir.Node{
			Kind:     ir.KindMettaEval,
			Base:     ir.NodeBase{Abs: ir.Range{Start: start, End: end}, Delta: delta},
			Children: []*ir.Node{inner},
		}
	case tokLParen:
		return p.parseSExpr(cur)
	case tokVarRegular:
		return p.leafVar(cur, ir.KindMettaVarRegular)
	case tokVarGrounded:
		return p.leafVar(cur, ir.KindMettaVarGrounded)
	case tokVarQuoted:
		return p.leafVar(cur, ir.KindMettaVarQuoted)
	case tokInt:
		return p.leaf(cur, ir.KindMettaInt)
	case tokFloat:
		return p.leaf(cur, ir.KindMettaFloat)
	case tokString:
		return p.leaf(cur, ir.KindMettaString)
	case tokAtom:
		if p.tok.text == "True" || p.tok.text == "False" {
			return p.leaf(cur, ir.KindMettaBool)
		}
		return p.leaf(cur, ir.KindMettaAtom)
	default:
		// malformed input (stray `)` or EOF where an expr was expected)
		start := p.tok.start
		delta := cur.advance(start, start)
		p.advance()
		return &ir.Node{Kind: ir.KindMettaError, Base: ir.NodeBase{Abs: ir.Range{Start: start, End: start}, Delta: delta}}
	}
}

func (p *mettaParser) leaf(cur *cursor, kind ir.Kind) *ir.Node {
	start, end, text := p.tok.start, p.tok.end, p.tok.text
	delta := cur.advance(start, end)
	p.advance()
	return &ir.Node{Kind: kind, Name: text, Base: ir.NodeBase{Abs: ir.Range{Start: start, End: end}, Delta: delta}}
}

func (p *mettaParser) leafVar(cur *cursor, kind ir.Kind) *ir.Node {
	return p.leaf(cur, kind)
}

// parseSExpr parses a parenthesized form and, based on its head atom,
// specializes the generic s-expression into Definition, TypeAnnotation,
// Match (including the grounded-query shape), Let, Lambda, or If.
func (p *mettaParser) parseSExpr(cur *cursor) *ir.Node {
	start := p.tok.start
	p.advance() // consume '('

	innerCur := &cursor{prevEnd: start}
	var elems []*ir.Node
	for p.tok.kind != tokRParen && p.tok.kind != tokEOF {
		elems = append(elems, p.parseExpr(innerCur))
	}
	end := p.tok.end
	if p.tok.kind == tokRParen {
		p.advance()
	}

	delta := cur.advance(start, end)
	base := ir.NodeBase{Abs: ir.Range{Start: start, End: end}, Delta: delta}

	if len(elems) == 0 {
		return &ir.Node{Kind: ir.KindMettaNil, Base: base}
	}

	head := elems[0]
	if head.Kind == ir.KindMettaAtom {
		// Specialized forms drop the head atom from Children, so the first
		// kept child's predecessor becomes the form's own start.
		rebase := func() {
			if len(elems) > 1 && elems[1] != nil {
				elems[1].Base.Delta = ir.DeltaBetween(start, elems[1].Base.Abs.Start)
			}
		}
		switch head.Name {
		case "=":
			if len(elems) >= 3 {
				rebase()
				return &ir.Node{Kind: ir.KindMettaDefinition, Base: base, Children: []*ir.Node{elems[1], elems[2]}}
			}
		case ":":
			if len(elems) >= 3 {
				rebase()
				return &ir.Node{Kind: ir.KindMettaTypeAnnotation, Base: base, Children: []*ir.Node{elems[1], elems[2]}}
			}
		case "match":
			rebase()
			return parseMatch(base, elems)
		case "let":
			if len(elems) >= 3 {
				rebase()
				return &ir.Node{Kind: ir.KindMettaLet, Base: base, Children: elems[1:]}
			}
		case "lambda", "λ":
			if len(elems) >= 3 {
				rebase()
				return &ir.Node{Kind: ir.KindMettaLambda, Base: base, Children: elems[1:]}
			}
		case "if":
			if len(elems) >= 3 {
				rebase()
				return &ir.Node{Kind: ir.KindMettaIf, Base: base, Children: elems[1:]}
			}
		}
	}
	return &ir.Node{Kind: ir.KindMettaSExpr, Base: base, Children: elems}
}

// parseMatch distinguishes the grounded-query form
// `(match & space pattern return)` — whose pattern variables are
// references, not bindings — from the ordinary
// `(match scrutinee (pat body)*)` form.
func parseMatch(base ir.NodeBase, elems []*ir.Node) *ir.Node {
	if len(elems) >= 5 && isAmpersandSentinel(elems[1]) {
		return &ir.Node{Kind: ir.KindMettaGroundedQuery, Base: base, Children: elems[1:]}
	}
	return &ir.Node{Kind: ir.KindMettaMatch, Base: base, Children: elems[1:]}
}

func isAmpersandSentinel(n *ir.Node) bool {
	return n.Kind == ir.KindMettaVarGrounded && n.Name == ""
}
