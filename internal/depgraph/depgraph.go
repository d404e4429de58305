// Package depgraph implements the bidirectional cross-file dependency
// graph (spec sections 3/4.9): an edge from URI A to URI B records that
// A references a contract declared in B, so a change to B's
// declarations requires reindexing A. Two sharded maps of sets (forward
// and reverse) let edge insertion and reverse-BFS both proceed without
// a whole-graph lock.
package depgraph

import (
	"hash/fnv"
	"sync"
)

const numShards = 64

type edgeSet struct {
	mu    sync.RWMutex
	edges map[string]map[string]struct{}
}

// Graph is the workspace dependency graph.
type Graph struct {
	forward [numShards]*edgeSet // uri -> set of uris it depends on
	reverse [numShards]*edgeSet // uri -> set of uris that depend on it
}

// NewGraph returns an empty dependency graph.
func NewGraph() *Graph {
	g := &Graph{}
	for i := 0; i < numShards; i++ {
		g.forward[i] = &edgeSet{edges: make(map[string]map[string]struct{})}
		g.reverse[i] = &edgeSet{edges: make(map[string]map[string]struct{})}
	}
	return g
}

func shardIndex(uri string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(uri))
	return h.Sum32() % numShards
}

func (g *Graph) shard(set [numShards]*edgeSet, uri string) *edgeSet {
	return set[shardIndex(uri)]
}

// AddEdge records that fromURI depends on toURI (fromURI references a
// contract declared in toURI). Idempotent.
func (g *Graph) AddEdge(fromURI, toURI string) {
	fwd := g.shard(g.forward, fromURI)
	fwd.mu.Lock()
	if fwd.edges[fromURI] == nil {
		fwd.edges[fromURI] = make(map[string]struct{})
	}
	fwd.edges[fromURI][toURI] = struct{}{}
	fwd.mu.Unlock()

	rev := g.shard(g.reverse, toURI)
	rev.mu.Lock()
	if rev.edges[toURI] == nil {
		rev.edges[toURI] = make(map[string]struct{})
	}
	rev.edges[toURI][fromURI] = struct{}{}
	rev.mu.Unlock()
}

// RemoveEdge drops a previously recorded dependency.
func (g *Graph) RemoveEdge(fromURI, toURI string) {
	fwd := g.shard(g.forward, fromURI)
	fwd.mu.Lock()
	if set, ok := fwd.edges[fromURI]; ok {
		delete(set, toURI)
		if len(set) == 0 {
			delete(fwd.edges, fromURI)
		}
	}
	fwd.mu.Unlock()

	rev := g.shard(g.reverse, toURI)
	rev.mu.Lock()
	if set, ok := rev.edges[toURI]; ok {
		delete(set, fromURI)
		if len(set) == 0 {
			delete(rev.edges, toURI)
		}
	}
	rev.mu.Unlock()
}

// SetDependencies replaces fromURI's full set of outgoing dependencies
// with toURIs in one step — the shape step 6 of the incremental
// pipeline needs ("no edge changes for pure-local edits; add/remove
// edges when a contract name is added/removed").
func (g *Graph) SetDependencies(fromURI string, toURIs []string) {
	desired := make(map[string]struct{}, len(toURIs))
	for _, u := range toURIs {
		desired[u] = struct{}{}
	}

	for _, existing := range g.DependenciesOf(fromURI) {
		if _, keep := desired[existing]; !keep {
			g.RemoveEdge(fromURI, existing)
		}
	}
	for u := range desired {
		g.AddEdge(fromURI, u)
	}
}

// DependenciesOf returns every URI that fromURI directly depends on.
func (g *Graph) DependenciesOf(fromURI string) []string {
	fwd := g.shard(g.forward, fromURI)
	fwd.mu.RLock()
	defer fwd.mu.RUnlock()
	out := make([]string, 0, len(fwd.edges[fromURI]))
	for u := range fwd.edges[fromURI] {
		out = append(out, u)
	}
	return out
}

// DependentsOf returns every URI that directly depends on toURI.
func (g *Graph) DependentsOf(toURI string) []string {
	rev := g.shard(g.reverse, toURI)
	rev.mu.RLock()
	defer rev.mu.RUnlock()
	out := make([]string, 0, len(rev.edges[toURI]))
	for u := range rev.edges[toURI] {
		out = append(out, u)
	}
	return out
}

// RemoveURI drops every edge touching uri, in either direction —
// invoked when a document closes or is deleted.
func (g *Graph) RemoveURI(uri string) {
	for _, dep := range g.DependenciesOf(uri) {
		g.RemoveEdge(uri, dep)
	}
	for _, dependent := range g.DependentsOf(uri) {
		g.RemoveEdge(dependent, uri)
	}
}

// AffectedByChange returns every URI reachable from changedURI by
// following reverse edges (BFS): changedURI itself is excluded, every
// direct and transitive dependent is included exactly once. This is
// the set scheduled for reindexing after a change (spec 4.9 step 7).
func (g *Graph) AffectedByChange(changedURI string) []string {
	visited := map[string]struct{}{changedURI: {}}
	queue := []string{changedURI}
	var affected []string

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, dependent := range g.DependentsOf(cur) {
			if _, seen := visited[dependent]; seen {
				continue
			}
			visited[dependent] = struct{}{}
			affected = append(affected, dependent)
			queue = append(queue, dependent)
		}
	}
	return affected
}
