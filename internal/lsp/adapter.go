package lsp

import (
	"rholsp/internal/ir"
	"rholsp/internal/symbols"
)

// SymbolResolver answers "what does this node mean" questions a
// language adapter must supply for goto-definition/hover/rename to stay
// language-neutral (spec 4.8).
type SymbolResolver interface {
	// ResolveAt resolves the symbol bound at node, if node is itself a
	// reference or declaration of one the adapter's Table knows about.
	ResolveAt(node *ir.Node, scopeID int) (*symbols.Symbol, bool)
	// ScopeIDFor returns the nearest enclosing scope id for node.
	ScopeIDFor(node *ir.Node) int
	// Table returns the document's scope/symbol table.
	Table() *symbols.Table
	// InvertedIndex returns the document's declaration->usages index.
	InvertedIndex() *symbols.InvertedIndex
}

// HoverProvider renders hover content for a resolved node.
type HoverProvider interface {
	Hover(node *ir.Node, sym *symbols.Symbol) (MarkupContent, bool)
}

// CompletionProvider supplies completion items for a detected context.
// Concrete ranking lives in an external completion.Dictionary; the
// adapter just bridges node -> candidate list.
type CompletionProvider interface {
	Complete(node *ir.Node, scopeID int) []CompletionItem
}

// DocumentationProvider supplies prose documentation for a symbol
// (spec 4.2's DOC COMMENT attachment and MeTTa definition Documentation
// field), used by hover and signature-style requests.
type DocumentationProvider interface {
	Documentation(sym *symbols.Symbol) string
}

// FormattingProvider is optional: a language adapter that can format
// implements it; absence simply means textDocument/formatting isn't
// advertised for that language.
type FormattingProvider interface {
	Format(doc *ir.DocumentIR, text string) ([]TextEdit, error)
}

// LanguageAdapter bundles every per-language collaborator the generic
// LSP feature implementations in features.go operate through. A
// concrete adapter is constructed per open document (or virtual
// document) by the workspace manager once parsing/symbol-building has
// run.
type LanguageAdapter struct {
	URI        string
	Doc        *ir.DocumentIR
	Resolver   SymbolResolver
	Hover      HoverProvider
	Completion CompletionProvider
	Docs       DocumentationProvider
	Formatting FormattingProvider // nil if unsupported
}

// DocumentSymbolKind maps a symbols.Kind / declaring ir.Kind pair to the
// LSP SymbolKind generic documentSymbol/workspace-symbol projection uses
// (spec 4.8): Contract->FUNCTION, Variable/Parameter->VARIABLE,
// New/Let/For/Match/Choice (scope-introducing forms) -> NAMESPACE.
func DocumentSymbolKind(k symbols.Kind) SymbolKind {
	switch k {
	case symbols.KindContract:
		return SymbolKindFunction
	case symbols.KindVariable, symbols.KindParameter:
		return SymbolKindVariable
	default:
		return SymbolKindNamespace
	}
}
