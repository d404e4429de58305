package lsp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"rholsp/internal/depgraph"
	"rholsp/internal/index"
	"rholsp/internal/ir"
	"rholsp/internal/pattern"
	"rholsp/internal/rope"
	"rholsp/internal/symbols"
	"rholsp/internal/virtual"
)

type fakeResolver struct {
	table *symbols.Table
	index *symbols.InvertedIndex
	sym   *symbols.Symbol
}

func (f *fakeResolver) ResolveAt(node *ir.Node, scopeID int) (*symbols.Symbol, bool) {
	if node != nil && node.Kind == ir.KindVar {
		return f.sym, true
	}
	return nil, false
}
func (f *fakeResolver) ScopeIDFor(node *ir.Node) int               { return 0 }
func (f *fakeResolver) Table() *symbols.Table                      { return f.table }
func (f *fakeResolver) InvertedIndex() *symbols.InvertedIndex      { return f.index }

type fakeHover struct{}

func (fakeHover) Hover(node *ir.Node, sym *symbols.Symbol) (MarkupContent, bool) {
	if sym == nil {
		return MarkupContent{}, false
	}
	return MarkupContent{Kind: "markdown", Value: "doc: " + sym.Name}, true
}

type fakeCompletion struct{}

func (fakeCompletion) Complete(node *ir.Node, scopeID int) []CompletionItem {
	return []CompletionItem{{Label: "foo"}}
}

type fakeWorkspace struct {
	adapters  map[string]*LanguageAdapter
	ropes     map[string]rope.Provider
	contracts *index.Store
	patterns  *pattern.Index
	depgraph  *depgraph.Graph
	virtual   *virtual.Registry
}

func (w *fakeWorkspace) Adapter(uri string) (*LanguageAdapter, bool) {
	a, ok := w.adapters[uri]
	return a, ok
}
func (w *fakeWorkspace) Rope(uri string) (rope.Provider, bool) {
	r, ok := w.ropes[uri]
	return r, ok
}
func (w *fakeWorkspace) Contracts() *index.Store      { return w.contracts }
func (w *fakeWorkspace) Patterns() *pattern.Index      { return w.patterns }
func (w *fakeWorkspace) DepGraph() *depgraph.Graph     { return w.depgraph }
func (w *fakeWorkspace) Virtual() *virtual.Registry    { return w.virtual }
func (w *fakeWorkspace) OpenURIs() []string {
	out := make([]string, 0, len(w.adapters))
	for uri := range w.adapters {
		out = append(out, uri)
	}
	return out
}

// buildFixture assembles a tiny one-document fixture: "foo foo" where
// the first "foo" is a Contract declaration and the second is a Var
// reference to it.
func buildFixture(t *testing.T) (*fakeWorkspace, string) {
	t.Helper()
	const uri = "file:///fixture.rho"
	text := "foo foo"
	r := rope.NewSimpleRope(text)

	declStart, declEnd := r.PositionAt(0), r.PositionAt(3)
	varStart, varEnd := r.PositionAt(4), r.PositionAt(7)

	declNode := &ir.Node{Kind: ir.KindContract, Name: "foo", Base: ir.NodeBase{Abs: ir.Range{Start: declStart, End: declEnd}}}
	varNode := &ir.Node{Kind: ir.KindVar, Name: "foo", Base: ir.NodeBase{Abs: ir.Range{Start: varStart, End: varEnd}}}
	root := &ir.Node{Kind: ir.KindBlock, Children: []*ir.Node{declNode, varNode}, Base: ir.NodeBase{Abs: ir.Range{Start: declStart, End: varEnd}}}

	doc := ir.NewDocumentIR(ir.LangRholang, root, nil)

	table, rootScope := symbols.NewTable()
	sym := &symbols.Symbol{Name: "foo", Kind: symbols.KindContract, DeclURI: uri, DeclPosition: declStart}
	table.Bind(rootScope, sym)
	invIdx := symbols.NewInvertedIndex()
	invIdx.AddUsage(declStart, varStart)

	adapter := &LanguageAdapter{
		URI:        uri,
		Doc:        doc,
		Resolver:   &fakeResolver{table: table, index: invIdx, sym: sym},
		Hover:      fakeHover{},
		Completion: fakeCompletion{},
	}

	contracts := index.NewStore()
	require.NoError(t, contracts.InsertDeclaration("foo", index.Location{URI: uri, Position: declStart}))

	ws := &fakeWorkspace{
		adapters:  map[string]*LanguageAdapter{uri: adapter},
		ropes:     map[string]rope.Provider{uri: r},
		contracts: contracts,
		patterns:  pattern.NewIndex(),
		depgraph:  depgraph.NewGraph(),
		virtual:   virtual.NewRegistry(),
	}
	return ws, uri
}

func wirePosAtByte(r rope.Provider, byteOff int) Position {
	p := r.PositionAt(byteOff)
	return Position{Line: p.Line, Character: r.ByteColumnToUTF16Column(p.Line, p.Column)}
}

func TestDefinitionResolvesVarToContractDecl(t *testing.T) {
	ws, uri := buildFixture(t)
	r, _ := ws.Rope(uri)
	pos := wirePosAtByte(r, 5) // inside second "foo"

	locs := Definition(ws, uri, pos)
	require.Len(t, locs, 1)
	require.Equal(t, uri, locs[0].URI)
	require.Equal(t, 0, locs[0].Range.Start.Character)
}

func TestReferencesIncludesDeclarationAndUsage(t *testing.T) {
	ws, uri := buildFixture(t)
	r, _ := ws.Rope(uri)
	pos := wirePosAtByte(r, 5)

	locs := References(ws, uri, pos, true)
	require.Len(t, locs, 2)
}

func TestReferencesExcludesDeclarationWhenNotRequested(t *testing.T) {
	ws, uri := buildFixture(t)
	r, _ := ws.Rope(uri)
	pos := wirePosAtByte(r, 5)

	locs := References(ws, uri, pos, false)
	require.Len(t, locs, 1)
}

func TestRenameProducesSingleWorkspaceEditWithBothRanges(t *testing.T) {
	ws, uri := buildFixture(t)
	r, _ := ws.Rope(uri)
	pos := wirePosAtByte(r, 5)

	edit := Rename(ws, uri, pos, "bar")
	require.NotNil(t, edit)
	require.Len(t, edit.Changes[uri], 2)
	for _, e := range edit.Changes[uri] {
		require.Equal(t, "bar", e.NewText)
	}
}

func TestHoverReturnsSymbolDocumentation(t *testing.T) {
	ws, uri := buildFixture(t)
	r, _ := ws.Rope(uri)
	pos := wirePosAtByte(r, 5)

	h := Hover(ws, uri, pos)
	require.NotNil(t, h)
	require.Equal(t, "doc: foo", h.Contents.Value)
}

func TestDocumentSymbolsReturnsContractAsFunction(t *testing.T) {
	ws, uri := buildFixture(t)
	syms := DocumentSymbols(ws, uri)
	require.Len(t, syms, 1)
	require.Equal(t, "foo", syms[0].Name)
	require.Equal(t, SymbolKindFunction, syms[0].Kind)
}

func TestWorkspaceSymbolsFiltersBySubstring(t *testing.T) {
	ws, uri := buildFixture(t)
	_ = uri
	require.Len(t, WorkspaceSymbols(ws, "fo"), 1)
	require.Len(t, WorkspaceSymbols(ws, "zzz"), 0)
}

func TestDocumentHighlightReturnsDeclarationAndUsage(t *testing.T) {
	ws, uri := buildFixture(t)
	r, _ := ws.Rope(uri)
	pos := wirePosAtByte(r, 5)

	ranges := DocumentHighlight(ws, uri, pos)
	require.Len(t, ranges, 2)
}

func TestCompletionDelegatesToAdapter(t *testing.T) {
	ws, uri := buildFixture(t)
	r, _ := ws.Rope(uri)
	pos := wirePosAtByte(r, 5)

	items := Completion(ws, uri, pos)
	require.Len(t, items, 1)
	require.Equal(t, "foo", items[0].Label)
}
