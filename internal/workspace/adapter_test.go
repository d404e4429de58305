package workspace

import (
	"testing"

	"github.com/stretchr/testify/require"

	"rholsp/internal/index"
	"rholsp/internal/ir"
)

func TestEnclosingParentFindsImmediateParent(t *testing.T) {
	lit := &ir.Node{Kind: ir.KindStringLiteral, Name: `"foo"`}
	quote := &ir.Node{Kind: ir.KindQuote, Children: []*ir.Node{lit}}
	root := &ir.Node{Kind: ir.KindPar, Children: []*ir.Node{quote}}

	parent, ok := enclosingParent(root, lit)
	require.True(t, ok)
	require.Same(t, quote, parent)
}

func TestEnclosingParentMissingNodeReturnsFalse(t *testing.T) {
	root := &ir.Node{Kind: ir.KindNil}
	_, ok := enclosingParent(root, &ir.Node{Kind: ir.KindStringLiteral})
	require.False(t, ok)
}

func TestBasicCompletionQuoteContractQueriesContractIndex(t *testing.T) {
	lit := &ir.Node{Kind: ir.KindStringLiteral, Name: `"reg`}
	quote := &ir.Node{Kind: ir.KindQuote, Children: []*ir.Node{lit}}
	root := &ir.Node{Kind: ir.KindPar, Children: []*ir.Node{quote}}

	store := index.NewStore()
	require.NoError(t, store.InsertDeclaration("registry", index.Location{URI: "a.rho"}))
	require.NoError(t, store.InsertDeclaration("registryAdmin", index.Location{URI: "a.rho"}))
	require.NoError(t, store.InsertDeclaration("unrelated", index.Location{URI: "a.rho"}))

	c := &basicCompletion{root: root, contracts: store}
	items := c.Complete(lit, 0)

	require.Len(t, items, 2)
	require.Equal(t, "registry", items[0].Label)
	require.Equal(t, "registryAdmin", items[1].Label)
}

func TestBasicCompletionNilDictionaryReturnsNil(t *testing.T) {
	lit := &ir.Node{Kind: ir.KindStringLiteral, Name: `"foo"`}
	root := &ir.Node{Kind: ir.KindPar, Children: []*ir.Node{lit}}

	c := &basicCompletion{root: root}
	require.Nil(t, c.Complete(lit, 0))
}
