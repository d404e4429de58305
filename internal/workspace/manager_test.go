package workspace

import (
	"errors"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/require"

	"rholsp/internal/config"
	"rholsp/internal/ir"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	opts := config.DefaultOptions(t.TempDir())
	return NewManager(opts, nil, nil)
}

func TestOpenDocumentMettaPublishesPatternDefinition(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.OpenDocument("file:///a.metta", ir.LangMetta, "(= (double $x) (+ $x $x))"))

	defs := m.Patterns().LookupByNameArity("double", 1)
	require.Len(t, defs, 1)
	require.Equal(t, "file:///a.metta", defs[0].URI)
}

func TestOpenDocumentMettaBuildsAdapter(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.OpenDocument("file:///a.metta", ir.LangMetta, "(= (double $x) (+ $x $x))"))

	adapter, ok := m.Adapter("file:///a.metta")
	require.True(t, ok)
	require.Equal(t, "file:///a.metta", adapter.URI)

	_, ok = m.Rope("file:///a.metta")
	require.True(t, ok)
}

func TestOpenDocumentRholangWithoutCSTProviderErrors(t *testing.T) {
	m := newTestManager(t)
	err := m.OpenDocument("file:///a.rho", ir.LangRholang, "Nil")
	require.Error(t, err)
}

type erroringCSTProvider struct{}

func (erroringCSTProvider) Parse(src []byte) (*sitter.Tree, error) {
	return nil, errors.New("grammar not available in this environment")
}

func TestOpenDocumentRholangPropagatesParseError(t *testing.T) {
	opts := config.DefaultOptions(t.TempDir())
	m := NewManager(opts, erroringCSTProvider{}, nil)
	err := m.OpenDocument("file:///a.rho", ir.LangRholang, "Nil")
	require.Error(t, err)
}

func TestCloseDocumentRemovesPatternsAndAdapter(t *testing.T) {
	m := newTestManager(t)
	uri := "file:///a.metta"
	require.NoError(t, m.OpenDocument(uri, ir.LangMetta, "(= (double $x) (+ $x $x))"))
	require.Len(t, m.Patterns().LookupByNameArity("double", 1), 1)

	m.CloseDocument(uri)

	require.Empty(t, m.Patterns().LookupByNameArity("double", 1))
	_, ok := m.Adapter(uri)
	require.False(t, ok)
}

func TestReopenDocumentReplacesPriorPatterns(t *testing.T) {
	m := newTestManager(t)
	uri := "file:///a.metta"
	require.NoError(t, m.OpenDocument(uri, ir.LangMetta, "(= (double $x) (+ $x $x))"))
	require.NoError(t, m.OpenDocument(uri, ir.LangMetta, "(= (triple $x) (+ $x (+ $x $x)))"))

	require.Empty(t, m.Patterns().LookupByNameArity("double", 1))
	require.Len(t, m.Patterns().LookupByNameArity("triple", 1), 1)
}

func TestSetDependenciesReturnsAffectedDependents(t *testing.T) {
	m := newTestManager(t)
	m.DepGraph().AddEdge("file:///b.metta", "file:///a.metta")

	affected := m.SetDependencies("file:///a.metta", nil)
	require.Contains(t, affected, "file:///b.metta")
}

func TestOpenURIsListsOpenDocuments(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.OpenDocument("file:///a.metta", ir.LangMetta, "(= (double $x) (+ $x $x))"))
	require.Contains(t, m.OpenURIs(), "file:///a.metta")
}

func strLitNode(text string, start, end int) *ir.Node {
	return &ir.Node{
		Kind: ir.KindStringLiteral,
		Name: text,
		Base: ir.NodeBase{Abs: ir.Range{Start: ir.Position{Byte: start}, End: ir.Position{Byte: end}}},
	}
}

// TestIndexEmbeddedRegionsFansOutBounded exercises the bounded
// errgroup/semaphore fan-out over multiple embedded regions in one
// document, confirming every region still gets indexed independently
// of the others despite running concurrently.
func TestIndexEmbeddedRegionsFansOutBounded(t *testing.T) {
	m := newTestManager(t)

	lit1 := strLitNode(`"(= (double $x) (+ $x $x))"`, 10, 38)
	comment1 := ir.NewComment(ir.Range{Start: ir.Position{Byte: 0}, End: ir.Position{Byte: 9}}, "// @metta")
	lit2 := strLitNode(`"(= (triple $x) (+ $x (+ $x $x)))"`, 50, 85)
	comment2 := ir.NewComment(ir.Range{Start: ir.Position{Byte: 40}, End: ir.Position{Byte: 49}}, "// @metta")
	root := &ir.Node{Kind: ir.KindPar, Children: []*ir.Node{lit1, lit2}}
	doc := ir.NewDocumentIR(ir.LangRholang, root, []ir.Comment{comment1, comment2})

	m.indexEmbeddedRegions("file:///a.rho", doc)

	require.Len(t, m.Patterns().LookupByNameArity("double", 1), 1)
	require.Len(t, m.Patterns().LookupByNameArity("triple", 1), 1)
}
