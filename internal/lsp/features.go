package lsp

import (
	"sort"
	"strings"

	"rholsp/internal/index"
	"rholsp/internal/ir"
	"rholsp/internal/symbols"
)

// nodeAt resolves the adapter and the innermost IR node at a wire
// position, retrying one byte to the left when the cursor sits at the
// right edge of an identifier (spec 4.8's goto-definition edge case: a
// cursor placed immediately after a name, rather than inside it, should
// still resolve that name).
func nodeAt(ws Workspace, uri string, pos Position) (*LanguageAdapter, *ir.Node, ir.Position, bool) {
	adapter, ok := ws.Adapter(uri)
	if !ok {
		return nil, nil, ir.Position{}, false
	}
	r, ok := ws.Rope(uri)
	if !ok {
		return nil, nil, ir.Position{}, false
	}
	irPos := toIRPosition(r, pos)

	node := ir.FindNodeAtPosition(adapter.Doc.Root, irPos)
	if node != nil && isNameNode(node) {
		return adapter, node, irPos, true
	}
	if irPos.Byte > 0 {
		retryPos := irPos
		retryPos.Byte--
		retryPos.Column--
		if retryNode := ir.FindNodeAtPosition(adapter.Doc.Root, retryPos); retryNode != nil && isNameNode(retryNode) {
			return adapter, retryNode, retryPos, true
		}
	}
	return adapter, node, irPos, node != nil
}

func isNameNode(n *ir.Node) bool {
	switch n.Kind {
	case ir.KindVar, ir.KindContract, ir.KindNewDecl, ir.KindWildcard,
		ir.KindMettaVarRegular, ir.KindMettaAtom:
		return true
	default:
		return false
	}
}

// Definition implements textDocument/definition (spec 4.8): resolve the
// node at pos through the adapter's SymbolResolver first; fall back to
// the global contract store for a name that only resolves workspace-
// wide (a contract declared in another file).
func Definition(ws Workspace, uri string, pos Position) []Location {
	adapter, node, irPos, ok := nodeAt(ws, uri, pos)
	if !ok {
		return nil
	}

	scopeID := adapter.Resolver.ScopeIDFor(node)
	if sym, ok := adapter.Resolver.ResolveAt(node, scopeID); ok {
		return []Location{symbolDeclLocation(ws, uri, sym)}
	}

	name := nodeName(node, irPos)
	if name == "" {
		return nil
	}
	if decl, def, ok := ws.Contracts().GetDefinitions(name); ok {
		target := decl
		if def != nil {
			target = def
		}
		return []Location{{URI: target.URI, Range: locationRange(ws, target)}}
	}
	return nil
}

func symbolDeclLocation(ws Workspace, fallbackURI string, sym *symbols.Symbol) Location {
	declURI := sym.DeclURI
	if declURI == "" {
		declURI = fallbackURI
	}
	pos := sym.DeclPosition
	if sym.DefPosition != nil {
		pos = *sym.DefPosition
	}
	return Location{URI: declURI, Range: pointRange(ws, declURI, pos)}
}

func pointRange(ws Workspace, uri string, pos ir.Position) Range {
	r, ok := ws.Rope(uri)
	if !ok {
		return Range{}
	}
	wp := toWirePosition(r, pos)
	return Range{Start: wp, End: wp}
}

func locationRange(ws Workspace, loc *index.Location) Range {
	return pointRange(ws, loc.URI, loc.Position)
}

func nodeName(n *ir.Node, pos ir.Position) string {
	if n == nil {
		return ""
	}
	if n.Name != "" {
		return n.Name
	}
	return ""
}

// References implements textDocument/references (spec 4.8): the union
// of the document-local inverted index, the global contract store's
// reference set, and references from transitively dependent files
// reached via the dependency graph.
func References(ws Workspace, uri string, pos Position, includeDeclaration bool) []Location {
	adapter, node, irPos, ok := nodeAt(ws, uri, pos)
	if !ok {
		return nil
	}
	scopeID := adapter.Resolver.ScopeIDFor(node)

	var out []Location
	seen := make(map[Location]struct{})
	add := func(loc Location) {
		if _, dup := seen[loc]; dup {
			return
		}
		seen[loc] = struct{}{}
		out = append(out, loc)
	}

	if sym, ok := adapter.Resolver.ResolveAt(node, scopeID); ok {
		if includeDeclaration {
			add(symbolDeclLocation(ws, uri, sym))
		}
		for _, usagePos := range adapter.Resolver.InvertedIndex().UsagesOf(sym.DeclPosition) {
			add(Location{URI: uri, Range: pointRange(ws, uri, usagePos)})
		}
	}

	name := nodeName(node, irPos)
	if name != "" {
		if includeDeclaration {
			if decl, _, ok := ws.Contracts().GetDefinitions(name); ok {
				add(Location{URI: decl.URI, Range: pointRange(ws, decl.URI, decl.Position)})
			}
		}
		for _, ref := range ws.Contracts().GetReferences(name) {
			add(Location{URI: ref.URI, Range: pointRange(ws, ref.URI, ref.Position)})
		}
		for _, dependent := range ws.DepGraph().AffectedByChange(uri) {
			for _, ref := range ws.Contracts().GetReferences(name) {
				if ref.URI == dependent {
					add(Location{URI: ref.URI, Range: pointRange(ws, ref.URI, ref.Position)})
				}
			}
		}
	}

	return out
}

// Rename implements textDocument/rename (spec 4.8): reuses References'
// union (always including the declaration), deduplicated by range, and
// packages the result as a single WorkspaceEdit.
func Rename(ws Workspace, uri string, pos Position, newName string) *WorkspaceEdit {
	locs := References(ws, uri, pos, true)
	if len(locs) == 0 {
		return nil
	}
	edit := &WorkspaceEdit{Changes: make(map[string][]TextEdit)}
	seenRange := make(map[string]map[Range]struct{})
	for _, loc := range locs {
		if seenRange[loc.URI] == nil {
			seenRange[loc.URI] = make(map[Range]struct{})
		}
		if _, dup := seenRange[loc.URI][loc.Range]; dup {
			continue
		}
		seenRange[loc.URI][loc.Range] = struct{}{}
		edit.Changes[loc.URI] = append(edit.Changes[loc.URI], TextEdit{Range: loc.Range, NewText: newName})
	}
	return edit
}

// Hover implements textDocument/hover (spec 4.8), dispatching by the
// resolved node's semantic category to the adapter's HoverProvider.
func Hover(ws Workspace, uri string, pos Position) *Hover {
	adapter, node, _, ok := nodeAt(ws, uri, pos)
	if !ok || adapter.Hover == nil {
		return nil
	}
	scopeID := adapter.Resolver.ScopeIDFor(node)
	sym, _ := adapter.Resolver.ResolveAt(node, scopeID)
	content, ok := adapter.Hover.Hover(node, sym)
	if !ok {
		return nil
	}
	r, ropeOK := ws.Rope(uri)
	var rng *Range
	if ropeOK {
		wr := toWireRange(r, node.Base.Abs)
		rng = &wr
	}
	return &Hover{Contents: content, Range: rng}
}

// DocumentSymbols implements textDocument/documentSymbol (spec 4.8): one
// DocumentSymbol per symbol in the table, projected to the SymbolKind
// mapping in adapter.go (Contract->FUNCTION, Variable/Parameter->
// VARIABLE) and sorted by name. The list is flat: symbols are not nested
// under their scopes, and scope-introducing nodes (New, Let, For, Match,
// Choice) get no entry of their own.
func DocumentSymbols(ws Workspace, uri string) []DocumentSymbol {
	adapter, ok := ws.Adapter(uri)
	if !ok {
		return nil
	}
	r, _ := ws.Rope(uri)
	var out []DocumentSymbol
	for _, sym := range adapter.Resolver.Table().AllSymbols() {
		rng := Range{}
		if r != nil {
			rng = rangeAroundPoint(r, sym.DeclPosition)
		}
		out = append(out, DocumentSymbol{
			Name:           sym.Name,
			Kind:           DocumentSymbolKind(sym.Kind),
			Range:          rng,
			SelectionRange: rng,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func rangeAroundPoint(r interface {
	ByteColumnToUTF16Column(line, byteColumn int) int
}, pos ir.Position) Range {
	start := Position{Line: pos.Line, Character: r.ByteColumnToUTF16Column(pos.Line, pos.Column)}
	return Range{Start: start, End: start}
}

// WorkspaceSymbols implements workspace/symbol (spec 4.8): contracts
// only, flat, filtered by a case-insensitive substring match against
// query (empty query returns every contract).
func WorkspaceSymbols(ws Workspace, query string) []SymbolInformation {
	query = strings.ToLower(query)
	var out []SymbolInformation
	for _, name := range ws.Contracts().Names() {
		if query != "" && !strings.Contains(strings.ToLower(name), query) {
			continue
		}
		decl, _, ok := ws.Contracts().GetDefinitions(name)
		if !ok {
			continue
		}
		out = append(out, SymbolInformation{
			Name: name,
			Kind: SymbolKindFunction,
			Location: Location{
				URI:   decl.URI,
				Range: pointRange(ws, decl.URI, decl.Position),
			},
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DocumentHighlight implements textDocument/documentHighlight (spec
// 4.8): the declaration plus every usage of the symbol at pos, scoped
// to this one document (unlike References, which spans the workspace).
func DocumentHighlight(ws Workspace, uri string, pos Position) []Range {
	adapter, node, _, ok := nodeAt(ws, uri, pos)
	if !ok {
		return nil
	}
	scopeID := adapter.Resolver.ScopeIDFor(node)
	sym, ok := adapter.Resolver.ResolveAt(node, scopeID)
	if !ok {
		return nil
	}
	r, ropeOK := ws.Rope(uri)
	if !ropeOK {
		return nil
	}
	out := []Range{toWireRange(r, ir.Range{Start: sym.DeclPosition, End: sym.DeclPosition})}
	for _, usagePos := range adapter.Resolver.InvertedIndex().UsagesOf(sym.DeclPosition) {
		wp := toWirePosition(r, usagePos)
		out = append(out, Range{Start: wp, End: wp})
	}
	return out
}

// Completion implements textDocument/completion's context-detection
// half (spec 4.8/2): resolving the node at pos and delegating to the
// adapter's CompletionProvider, which in turn consults the external
// ranking Dictionary. Ranking/filtering itself is out of scope here.
func Completion(ws Workspace, uri string, pos Position) []CompletionItem {
	adapter, node, _, ok := nodeAt(ws, uri, pos)
	if !ok || adapter.Completion == nil {
		return nil
	}
	scopeID := adapter.Resolver.ScopeIDFor(node)
	return adapter.Completion.Complete(node, scopeID)
}
