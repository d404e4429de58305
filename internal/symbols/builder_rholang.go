package symbols

import "rholsp/internal/ir"

// ContractDecl is a contract declaration site discovered while building
// a document's symbol table, destined for the workspace-wide global
// contract store.
type ContractDecl struct {
	Name     string
	Position ir.Position
}

// ContractRef is an unresolved invocation-position name, a candidate
// contract reference destined for the global contract store.
type ContractRef struct {
	Name     string
	Position ir.Position
}

// BuildResult bundles everything BuildRholang produces for one document.
type BuildResult struct {
	Table     *Table
	Index     *InvertedIndex
	Contracts []ContractDecl
	RefCandidates []ContractRef
}

// BuildRholang walks a lowered Rholang IR tree, attaching scope_id /
// symbol_table metadata to scope-introducing nodes (Contract, New, Let,
// Input, Match-case, Choice-branch) and resolving Var references
// lexically. A Var that fails lexical resolution while sitting in an
// invocation position (the channel of a Send, or an Eval target) is
// reported as a ContractRef candidate for the caller to reconcile
// against the global contract store; other unresolved names are simply
// left unresolved per invariant 3.
func BuildRholang(root *ir.Node, uri string) *BuildResult {
	table, rootScope := NewTable()
	b := &rholangBuilder{
		table:  table,
		index:  NewInvertedIndex(),
		uri:    uri,
	}
	b.walk(root, rootScope, false)
	return &BuildResult{
		Table:         table,
		Index:         b.index,
		Contracts:     b.contracts,
		RefCandidates: b.refs,
	}
}

type rholangBuilder struct {
	table     *Table
	index     *InvertedIndex
	uri       string
	contracts []ContractDecl
	refs      []ContractRef
}

// walk descends through n with scopeID as the current lexical scope.
// invocationPos is true when n sits in a position whose head identifier,
// if unresolved, is a plausible contract reference (the channel of a
// Send, or the operand of an Eval).
func (b *rholangBuilder) walk(n *ir.Node, scopeID int, invocationPos bool) {
	if n == nil {
		return
	}

	switch n.Kind {
	case ir.KindVar:
		if sym, ok := b.table.Resolve(scopeID, n.Name); ok {
			b.index.AddUsage(sym.DeclPosition, n.Base.Abs.Start)
			return
		}
		if invocationPos {
			b.refs = append(b.refs, ContractRef{Name: n.Name, Position: n.Base.Abs.Start})
		}
		return

	case ir.KindContract:
		declPos := n.Base.Abs.Start
		b.contracts = append(b.contracts, ContractDecl{Name: n.Name, Position: declPos})
		contractSym := &Symbol{Name: n.Name, Kind: KindContract, DeclURI: b.uri, DeclPosition: declPos}
		b.table.Bind(scopeID, contractSym)

		childScope := b.table.NewScope(scopeID)
		n.SetMeta(ir.MetaKeyScopeID, childScope)
		n.SetMeta(ir.MetaKeySymbolTable, b.table)
		for _, formal := range formalsOf(n) {
			b.bindPatternNames(formal, childScope, KindParameter)
		}
		if n.Remainder != nil {
			b.bindPatternNames(n.Remainder, childScope, KindParameter)
		}
		b.walkChildren(n, childScope, false)
		return

	case ir.KindNew:
		childScope := b.table.NewScope(scopeID)
		n.SetMeta(ir.MetaKeyScopeID, childScope)
		n.SetMeta(ir.MetaKeySymbolTable, b.table)
		var body *ir.Node
		for _, c := range n.Children {
			if c.Kind == ir.KindNewDecl || c.Kind == ir.KindVar {
				sym := &Symbol{Name: c.Name, Kind: KindVariable, DeclURI: b.uri, DeclPosition: c.Base.Abs.Start}
				if suffix, ok := ir.MetaURISuffix(c); ok {
					sym.Documentation = suffix
				}
				b.table.Bind(childScope, sym)
			} else {
				body = c
			}
		}
		if body != nil {
			b.walk(body, childScope, false)
		}
		return

	case ir.KindLet:
		childScope := b.table.NewScope(scopeID)
		n.SetMeta(ir.MetaKeyScopeID, childScope)
		n.SetMeta(ir.MetaKeySymbolTable, b.table)
		var body *ir.Node
		for _, c := range n.Children {
			if isLastProcLike(n, c) {
				body = c
				continue
			}
			b.bindPatternNames(c, childScope, KindVariable)
		}
		if body != nil {
			b.walk(body, childScope, false)
		}
		return

	case ir.KindInput:
		childScope := b.table.NewScope(scopeID)
		n.SetMeta(ir.MetaKeyScopeID, childScope)
		n.SetMeta(ir.MetaKeySymbolTable, b.table)
		var body *ir.Node
		for _, c := range n.Children {
			if c.Kind == ir.KindLinearBind || c.Kind == ir.KindRepeatedBind || c.Kind == ir.KindPeekBind {
				b.walkBind(c, childScope)
			} else {
				body = c
			}
		}
		if body != nil {
			b.walk(body, childScope, false)
		}
		return

	case ir.KindMatch:
		if len(n.Children) > 0 {
			b.walk(n.Children[0], scopeID, false)
		}
		for _, c := range n.Children[1:] {
			b.walkMatchCase(c, scopeID)
		}
		return

	case ir.KindChoice:
		for _, branch := range n.Children {
			b.walkChoiceBranch(branch, scopeID)
		}
		return

	case ir.KindSend:
		if len(n.Children) > 0 {
			b.walk(n.Children[0], scopeID, true) // channel: invocation position
		}
		for _, c := range n.Children[1:] {
			b.walk(c, scopeID, false)
		}
		return

	case ir.KindEval:
		for _, c := range n.Children {
			b.walk(c, scopeID, true)
		}
		return

	case ir.KindQuote:
		for _, c := range n.Children {
			b.walk(c, scopeID, false)
		}
		return

	default:
		b.walkChildren(n, scopeID, false)
		return
	}
}

func (b *rholangBuilder) walkChildren(n *ir.Node, scopeID int, invocationPos bool) {
	for _, c := range n.Children {
		b.walk(c, scopeID, invocationPos)
	}
	if n.Remainder != nil {
		b.walk(n.Remainder, scopeID, invocationPos)
	}
}

func (b *rholangBuilder) walkBind(bind *ir.Node, scopeID int) {
	if bind == nil {
		return
	}
	if len(bind.Children) > 1 {
		for _, name := range bind.Children[:len(bind.Children)-1] {
			b.bindPatternNames(name, scopeID, KindVariable)
		}
		b.walk(bind.Children[len(bind.Children)-1], scopeID, false) // source
	}
	if bind.Remainder != nil {
		b.bindPatternNames(bind.Remainder, scopeID, KindVariable)
	}
}

func (b *rholangBuilder) walkMatchCase(matchCase *ir.Node, parentScope int) {
	childScope := b.table.NewScope(parentScope)
	matchCase.SetMeta(ir.MetaKeyScopeID, childScope)
	matchCase.SetMeta(ir.MetaKeySymbolTable, b.table)
	if len(matchCase.Children) > 0 {
		b.bindPatternNames(matchCase.Children[0], childScope, KindVariable)
	}
	if len(matchCase.Children) > 1 {
		b.walk(matchCase.Children[1], childScope, false)
	}
}

func (b *rholangBuilder) walkChoiceBranch(branch *ir.Node, parentScope int) {
	childScope := b.table.NewScope(parentScope)
	branch.SetMeta(ir.MetaKeyScopeID, childScope)
	branch.SetMeta(ir.MetaKeySymbolTable, b.table)
	if len(branch.Children) == 0 {
		return
	}
	for _, bind := range branch.Children[:len(branch.Children)-1] {
		b.walkBind(bind, childScope)
	}
	b.walk(branch.Children[len(branch.Children)-1], childScope, false)
}

// bindPatternNames walks a pattern node (quoted patterns are
// transparent for binding purposes) and binds every Var it finds.
func (b *rholangBuilder) bindPatternNames(pattern *ir.Node, scopeID int, kind Kind) {
	if pattern == nil {
		return
	}
	if pattern.Kind == ir.KindQuote {
		for _, c := range pattern.Children {
			b.bindPatternNames(c, scopeID, kind)
		}
		return
	}
	if pattern.Kind == ir.KindVar {
		sym := &Symbol{Name: pattern.Name, Kind: kind, DeclURI: b.uri, DeclPosition: pattern.Base.Abs.Start}
		if ir.MetaIsRemainder(pattern) {
			sym.IsRemainder = true
		}
		b.table.Bind(scopeID, sym)
		return
	}
	for _, c := range pattern.Children {
		b.bindPatternNames(c, scopeID, kind)
	}
}

func formalsOf(contract *ir.Node) []*ir.Node {
	if len(contract.Children) == 0 {
		return nil
	}
	formals := contract.Children[0]
	if formals == nil {
		return nil
	}
	return formals.Children
}

// isLastProcLike distinguishes the trailing body process of a Let from
// its preceding decl patterns: the lowerer always appends proc last.
func isLastProcLike(letNode, candidate *ir.Node) bool {
	return len(letNode.Children) > 0 && letNode.Children[len(letNode.Children)-1] == candidate
}
