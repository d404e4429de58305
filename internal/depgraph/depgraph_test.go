package depgraph

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddEdgeIsBidirectional(t *testing.T) {
	g := NewGraph()
	g.AddEdge("b.rho", "a.rho")

	require.Equal(t, []string{"a.rho"}, g.DependenciesOf("b.rho"))
	require.Equal(t, []string{"b.rho"}, g.DependentsOf("a.rho"))
}

func TestRemoveEdge(t *testing.T) {
	g := NewGraph()
	g.AddEdge("b.rho", "a.rho")
	g.RemoveEdge("b.rho", "a.rho")

	require.Empty(t, g.DependenciesOf("b.rho"))
	require.Empty(t, g.DependentsOf("a.rho"))
}

func TestSetDependenciesPrunesStaleEdges(t *testing.T) {
	g := NewGraph()
	g.AddEdge("b.rho", "a.rho")
	g.AddEdge("b.rho", "c.rho")

	g.SetDependencies("b.rho", []string{"c.rho", "d.rho"})

	deps := g.DependenciesOf("b.rho")
	sort.Strings(deps)
	require.Equal(t, []string{"c.rho", "d.rho"}, deps)
	require.Empty(t, g.DependentsOf("a.rho"))
}

func TestAffectedByChangeTransitive(t *testing.T) {
	g := NewGraph()
	// c.rho depends on b.rho, which depends on a.rho.
	g.AddEdge("b.rho", "a.rho")
	g.AddEdge("c.rho", "b.rho")

	affected := g.AffectedByChange("a.rho")
	sort.Strings(affected)
	require.Equal(t, []string{"b.rho", "c.rho"}, affected)
}

func TestAffectedByChangeNoDependents(t *testing.T) {
	g := NewGraph()
	g.AddEdge("b.rho", "a.rho")

	require.Empty(t, g.AffectedByChange("b.rho"))
}

func TestRemoveURIDropsBothDirections(t *testing.T) {
	g := NewGraph()
	g.AddEdge("b.rho", "a.rho")
	g.AddEdge("c.rho", "b.rho")

	g.RemoveURI("b.rho")

	require.Empty(t, g.DependentsOf("a.rho"))
	require.Empty(t, g.DependenciesOf("c.rho"))
}
