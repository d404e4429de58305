package workspace

import (
	"fmt"

	"rholsp/internal/completion"
	"rholsp/internal/index"
	"rholsp/internal/ir"
	"rholsp/internal/lsp"
	"rholsp/internal/symbols"
)

// tableResolver implements lsp.SymbolResolver over one document's
// symbols.Table/InvertedIndex. ScopeIDFor re-walks root on each call
// since ir.Node carries no parent pointer (structural sharing would
// make a parent pointer unsound across clones); document sizes this
// server targets make that walk cheap relative to a network round trip.
type tableResolver struct {
	root  *ir.Node
	table *symbols.Table
	index *symbols.InvertedIndex
}

func (r *tableResolver) ResolveAt(node *ir.Node, scopeID int) (*symbols.Symbol, bool) {
	if node == nil || node.Name == "" {
		return nil, false
	}
	return r.table.Resolve(scopeID, node.Name)
}

func (r *tableResolver) ScopeIDFor(node *ir.Node) int {
	result := r.table.RootID
	var walk func(n *ir.Node, scopeID int) bool
	walk = func(n *ir.Node, scopeID int) bool {
		if n == nil {
			return false
		}
		cur := scopeID
		if id, ok := ir.MetaScopeID(n); ok {
			cur = id
		}
		if n == node {
			result = cur
			return true
		}
		for _, c := range n.Children {
			if walk(c, cur) {
				return true
			}
		}
		if n.Remainder != nil {
			return walk(n.Remainder, cur)
		}
		return false
	}
	walk(r.root, r.table.RootID)
	return result
}

func (r *tableResolver) Table() *symbols.Table                 { return r.table }
func (r *tableResolver) InvertedIndex() *symbols.InvertedIndex { return r.index }

// basicHover renders a minimal markdown hover card from a resolved
// symbol: name, kind, and any attached documentation.
type basicHover struct{}

func (basicHover) Hover(node *ir.Node, sym *symbols.Symbol) (lsp.MarkupContent, bool) {
	if sym == nil {
		return lsp.MarkupContent{}, false
	}
	value := fmt.Sprintf("**%s** _(%s)_", sym.Name, sym.Kind)
	if sym.Documentation != "" {
		value += "\n\n" + sym.Documentation
	}
	return lsp.MarkupContent{Kind: "markdown", Value: value}, true
}

// basicDocs exposes a symbol's attached Documentation field verbatim.
type basicDocs struct{}

func (basicDocs) Documentation(sym *symbols.Symbol) string {
	if sym == nil {
		return ""
	}
	return sym.Documentation
}

// basicCompletion bridges a resolved node to a completion.Context via
// completion.DetectContextWithParent. A quote-contract context (spec
// 4.4, `@"prefix"`) is resolved in-repo against the global contract
// index; every other context is handed to the external ranking
// Dictionary (nil-safe: no dictionary means no candidates, not a panic).
type basicCompletion struct {
	root      *ir.Node
	contracts *index.Store
	dict      completion.Dictionary
}

func (c *basicCompletion) Complete(node *ir.Node, scopeID int) []lsp.CompletionItem {
	parent, _ := enclosingParent(c.root, node)
	ctx := completion.DetectContextWithParent(node, parent, scopeID)

	if ctx.Kind == completion.ContextQuoteContract {
		if c.contracts == nil {
			return nil
		}
		names := c.contracts.PrefixSearch(ctx.Partial)
		items := make([]lsp.CompletionItem, 0, len(names))
		for _, name := range names {
			items = append(items, lsp.CompletionItem{Label: name, InsertText: name})
		}
		return items
	}

	if c.dict == nil {
		return nil
	}
	candidates := c.dict.Complete(ctx)
	items := make([]lsp.CompletionItem, 0, len(candidates))
	for _, cand := range candidates {
		items = append(items, lsp.CompletionItem{
			Label:      cand.Label,
			Detail:     cand.Detail,
			InsertText: cand.InsertText,
			SortText:   cand.SortText,
		})
	}
	return items
}

// enclosingParent walks root looking for target and returns its
// immediate parent, the same linear-scan tradeoff tableResolver.ScopeIDFor
// above makes: ir.Node carries no parent pointer, and document sizes
// this server targets make the walk cheap relative to a completion
// round trip.
func enclosingParent(root, target *ir.Node) (*ir.Node, bool) {
	if root == nil || target == nil {
		return nil, false
	}
	var found *ir.Node
	var ok bool
	var walk func(n *ir.Node) bool
	walk = func(n *ir.Node) bool {
		for _, c := range n.Children {
			if c == target {
				found, ok = n, true
				return true
			}
			if walk(c) {
				return true
			}
		}
		if n.Remainder != nil {
			if n.Remainder == target {
				found, ok = n, true
				return true
			}
			return walk(n.Remainder)
		}
		return false
	}
	walk(root)
	return found, ok
}
