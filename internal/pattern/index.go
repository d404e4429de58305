package pattern

import (
	"sync"

	"rholsp/internal/ir"
)

// Definition is one indexed MeTTa `(= pattern body)` site.
type Definition struct {
	URI      string
	HeadName string
	Arity    int
	Pattern  *ir.Node
	Body     *ir.Node
	Location ir.Position
	// Canonical is empty when the pattern's head could only be
	// determined through string concatenation (an embedded region
	// whose head text isn't statically known) — see the concatenated
	// parameter of FromDefinitionSite. Such definitions
	// are indexed by (HeadName, Arity) only.
	Canonical string
}

type nameArity struct {
	name  string
	arity int
}

// Index is the workspace-wide MeTTa pattern index.
type Index struct {
	mu          sync.RWMutex
	byCanonical map[string][]*Definition
	byNameArity map[nameArity][]*Definition
	byURI       map[string][]*Definition
}

// NewIndex returns an empty pattern index.
func NewIndex() *Index {
	return &Index{
		byCanonical: make(map[string][]*Definition),
		byNameArity: make(map[nameArity][]*Definition),
		byURI:       make(map[string][]*Definition),
	}
}

// Insert indexes def. Pass an empty def.Canonical for a concatenated
// definition whose pattern head is not statically known; it is then
// reachable only through LookupByNameArity.
func (idx *Index) Insert(def *Definition) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if def.Canonical != "" {
		idx.byCanonical[def.Canonical] = append(idx.byCanonical[def.Canonical], def)
	}
	key := nameArity{def.HeadName, def.Arity}
	idx.byNameArity[key] = append(idx.byNameArity[key], def)
	idx.byURI[def.URI] = append(idx.byURI[def.URI], def)
}

// LookupExact returns every definition whose canonical form exactly
// matches canonical.
func (idx *Index) LookupExact(canonical string) []*Definition {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return append([]*Definition(nil), idx.byCanonical[canonical]...)
}

// LookupByNameArity returns every definition matching (headName, arity),
// the structural fallback used both for concatenated definitions and as
// a widening of an exact-match miss.
func (idx *Index) LookupByNameArity(headName string, arity int) []*Definition {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return append([]*Definition(nil), idx.byNameArity[nameArity{headName, arity}]...)
}

// LookupCallSite resolves a call site by head name and argument count:
// first an exact canonical match, then (if empty) the (name, arity)
// structural fallback, matching spec 4.5's two-stage lookup.
func (idx *Index) LookupCallSite(headName string, arity int) []*Definition {
	if exact := idx.LookupExact(CallSiteKey(headName, arity)); len(exact) > 0 {
		return exact
	}
	return idx.LookupByNameArity(headName, arity)
}

// RemoveURI drops every definition indexed from uri, across all three
// maps. Invoked at the start of a per-URI re-index.
func (idx *Index) RemoveURI(uri string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	stale := idx.byURI[uri]
	delete(idx.byURI, uri)
	if len(stale) == 0 {
		return
	}
	staleSet := make(map[*Definition]struct{}, len(stale))
	for _, d := range stale {
		staleSet[d] = struct{}{}
	}
	for k, defs := range idx.byCanonical {
		idx.byCanonical[k] = filterOut(defs, staleSet)
	}
	for k, defs := range idx.byNameArity {
		idx.byNameArity[k] = filterOut(defs, staleSet)
	}
}

func filterOut(defs []*Definition, stale map[*Definition]struct{}) []*Definition {
	kept := defs[:0:0]
	for _, d := range defs {
		if _, drop := stale[d]; !drop {
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}
