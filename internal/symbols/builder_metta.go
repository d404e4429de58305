package symbols

import "rholsp/internal/ir"

// MettaDefinitionSite is a `(= pattern body)` form discovered while
// building a MeTTa document's symbol table, destined for the pattern
// index (internal/pattern).
type MettaDefinitionSite struct {
	HeadName string
	Arity    int
	Pattern  *ir.Node
	Body     *ir.Node
	Location ir.Position
}

// MettaBuildResult bundles BuildMetta's output.
type MettaBuildResult struct {
	Table       *Table
	Index       *InvertedIndex
	Definitions []MettaDefinitionSite
}

// BuildMetta walks a lowered MeTTa IR tree, introducing a scope at every
// Let and Lambda (the two MeTTa forms that bind Regular ($x) variables),
// resolving references lexically first; names that fail lexical
// resolution are left for the pattern-aware and global-atom fallback
// stages the resolver chain runs at query time (internal/pattern,
// internal/index) rather than here.
func BuildMetta(root *ir.Node, uri string) *MettaBuildResult {
	table, rootScope := NewTable()
	b := &mettaBuilder{table: table, index: NewInvertedIndex(), uri: uri}
	b.walk(root, rootScope)
	return &MettaBuildResult{Table: table, Index: b.index, Definitions: b.defs}
}

type mettaBuilder struct {
	table *Table
	index *InvertedIndex
	uri   string
	defs  []MettaDefinitionSite
}

func (b *mettaBuilder) walk(n *ir.Node, scopeID int) {
	if n == nil {
		return
	}

	switch n.Kind {
	case ir.KindMettaVarRegular:
		if sym, ok := b.table.Resolve(scopeID, n.Name); ok {
			b.index.AddUsage(sym.DeclPosition, n.Base.Abs.Start)
		}
		return

	case ir.KindMettaDefinition:
		if len(n.Children) != 2 {
			return
		}
		pattern, body := n.Children[0], n.Children[1]
		head, arity := headAndArity(pattern)
		if head != "" {
			b.defs = append(b.defs, MettaDefinitionSite{
				HeadName: head,
				Arity:    arity,
				Pattern:  pattern,
				Body:     body,
				Location: n.Base.Abs.Start,
			})
		}
		b.walk(pattern, scopeID)
		b.walk(body, scopeID)
		return

	case ir.KindMettaLet:
		childScope := b.table.NewScope(scopeID)
		n.SetMeta(ir.MetaKeyScopeID, childScope)
		n.SetMeta(ir.MetaKeySymbolTable, b.table)
		// (let pattern value body): pattern binds, value is evaluated
		// in the outer scope, body in the inner one.
		if len(n.Children) >= 3 {
			b.bindPatternVars(n.Children[0], childScope)
			b.walk(n.Children[1], scopeID)
			b.walk(n.Children[2], childScope)
			return
		}
		for _, c := range n.Children {
			b.walk(c, childScope)
		}
		return

	case ir.KindMettaLambda:
		childScope := b.table.NewScope(scopeID)
		n.SetMeta(ir.MetaKeyScopeID, childScope)
		n.SetMeta(ir.MetaKeySymbolTable, b.table)
		if len(n.Children) > 0 {
			b.bindPatternVars(n.Children[0], childScope)
		}
		for _, c := range n.Children[1:] {
			b.walk(c, childScope)
		}
		return

	case ir.KindMettaGroundedQuery:
		// `(match & space pattern return)`: pattern variables are
		// references, never bindings, per spec 4.2.
		for _, c := range n.Children {
			b.walk(c, scopeID)
		}
		return

	default:
		for _, c := range n.Children {
			b.walk(c, scopeID)
		}
		return
	}
}

func (b *mettaBuilder) bindPatternVars(pattern *ir.Node, scopeID int) {
	if pattern == nil {
		return
	}
	if pattern.Kind == ir.KindMettaVarRegular {
		b.table.Bind(scopeID, &Symbol{
			Name:         pattern.Name,
			Kind:         KindVariable,
			DeclURI:      b.uri,
			DeclPosition: pattern.Base.Abs.Start,
		})
		return
	}
	for _, c := range pattern.Children {
		b.bindPatternVars(c, scopeID)
	}
}

// headAndArity extracts a definition's head atom name and arity: for
// `(f a b)` the head is "f" with arity 2; a bare atom head has arity 0.
func headAndArity(pattern *ir.Node) (string, int) {
	if pattern == nil {
		return "", 0
	}
	if pattern.Kind == ir.KindMettaAtom {
		return pattern.Name, 0
	}
	if pattern.Kind == ir.KindMettaSExpr && len(pattern.Children) > 0 && pattern.Children[0].Kind == ir.KindMettaAtom {
		return pattern.Children[0].Name, len(pattern.Children) - 1
	}
	return "", 0
}
