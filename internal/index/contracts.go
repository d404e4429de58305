// Package index implements the workspace-wide global contract store
// (spec section 4.3): a sharded, lock-free-between-shards associative
// map keyed by contract name, holding one declaration, at most one
// distinct definition, and a deduplicated reference set per name.
package index

import (
	"errors"
	"hash/fnv"
	"sort"
	"strings"
	"sync"

	"rholsp/internal/ir"
)

// ErrConflictingDeclaration is returned when a second, differently
// located declaration is inserted for a name already declared elsewhere.
var ErrConflictingDeclaration = errors.New("index: conflicting contract declaration")

// Location pins a symbol occurrence to a document and position.
type Location struct {
	URI      string
	Position ir.Position
}

const numShards = 64

type entry struct {
	mu          sync.RWMutex
	declaration *Location
	definition  *Location
	references  map[Location]struct{}
}

type shard struct {
	mu   sync.RWMutex
	data map[string]*entry
}

// Store is the global contract index. Any number of readers and writers
// may operate concurrently; mutation is serialized only per contract
// name (via its entry's own mutex), never across the whole store.
type Store struct {
	shards [numShards]*shard
}

// NewStore returns an empty Store.
func NewStore() *Store {
	s := &Store{}
	for i := range s.shards {
		s.shards[i] = &shard{data: make(map[string]*entry)}
	}
	return s
}

func (s *Store) shardFor(name string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return s.shards[h.Sum32()%numShards]
}

// entryFor returns the entry for name, creating it if absent.
func (s *Store) entryFor(name string) *entry {
	sh := s.shardFor(name)
	sh.mu.RLock()
	if e, ok := sh.data[name]; ok {
		sh.mu.RUnlock()
		return e
	}
	sh.mu.RUnlock()

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if e, ok := sh.data[name]; ok {
		return e
	}
	e := &entry{references: make(map[Location]struct{})}
	sh.data[name] = e
	return e
}

// lookup returns the entry for name without creating one.
func (s *Store) lookup(name string) (*entry, bool) {
	sh := s.shardFor(name)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, ok := sh.data[name]
	return e, ok
}

// InsertDeclaration records loc as the declaration for name. Succeeds
// (no-op) if the name is undeclared or already declared at the same
// location; fails with ErrConflictingDeclaration on a conflicting
// second declaration at a different location. The first declaration is
// kept; the *caller* decides whether to surface a diagnostic.
func (s *Store) InsertDeclaration(name string, loc Location) error {
	e := s.entryFor(name)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.declaration == nil {
		e.declaration = &loc
		return nil
	}
	if *e.declaration == loc {
		return nil
	}
	return ErrConflictingDeclaration
}

// SetDefinition records loc as the definition for name, only if it
// differs from the declaration location.
func (s *Store) SetDefinition(name string, loc Location) {
	e := s.entryFor(name)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.declaration != nil && *e.declaration == loc {
		return
	}
	e.definition = &loc
}

// AddReference idempotently records loc as a usage of name.
func (s *Store) AddReference(name string, loc Location) {
	e := s.entryFor(name)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.references[loc] = struct{}{}
}

// GetDefinitions returns the declaration location and, if present, the
// definition location for name.
func (s *Store) GetDefinitions(name string) (decl *Location, def *Location, ok bool) {
	e, found := s.lookup(name)
	if !found {
		return nil, nil, false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.declaration == nil {
		return nil, nil, false
	}
	return e.declaration, e.definition, true
}

// GetReferences returns every reference location recorded for name, in
// no particular order.
func (s *Store) GetReferences(name string) []Location {
	e, found := s.lookup(name)
	if !found {
		return nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Location, 0, len(e.references))
	for loc := range e.references {
		out = append(out, loc)
	}
	return out
}

// GetReferencesAt reverse-looks-up every name whose declaration or
// definition sits at (uri, pos), returning all of that name's
// references. Scans every shard, since no forward index from location
// to name is maintained.
func (s *Store) GetReferencesAt(uri string, pos ir.Position) []Location {
	target := Location{URI: uri, Position: pos}
	var out []Location
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, e := range sh.data {
			e.mu.RLock()
			matches := (e.declaration != nil && *e.declaration == target) ||
				(e.definition != nil && *e.definition == target)
			if matches {
				for loc := range e.references {
					out = append(out, loc)
				}
			}
			e.mu.RUnlock()
		}
		sh.mu.RUnlock()
	}
	return out
}

// RemoveContractsFromURI drops every declaration and every definition
// located in uri, whichever name it belongs to. Invoked at the start of
// a per-URI re-index; re-entrant.
func (s *Store) RemoveContractsFromURI(uri string) {
	for _, sh := range s.shards {
		sh.mu.RLock()
		entries := make([]*entry, 0, len(sh.data))
		for _, e := range sh.data {
			entries = append(entries, e)
		}
		sh.mu.RUnlock()

		for _, e := range entries {
			e.mu.Lock()
			if e.declaration != nil && e.declaration.URI == uri {
				e.declaration = nil
			}
			if e.definition != nil && e.definition.URI == uri {
				e.definition = nil
			}
			e.mu.Unlock()
		}
	}
}

// RemoveReferencesFromURI drops every reference recorded against uri,
// across all contract names. Invoked at the start of a per-URI
// re-index, independently of RemoveContractsFromURI.
func (s *Store) RemoveReferencesFromURI(uri string) {
	for _, sh := range s.shards {
		sh.mu.RLock()
		entries := make([]*entry, 0, len(sh.data))
		for _, e := range sh.data {
			entries = append(entries, e)
		}
		sh.mu.RUnlock()

		for _, e := range entries {
			e.mu.Lock()
			for loc := range e.references {
				if loc.URI == uri {
					delete(e.references, loc)
				}
			}
			e.mu.Unlock()
		}
	}
}

// PrefixSearch returns every known contract name beginning with prefix,
// sorted shortest-first (spec 4.4's "shorter name is the stronger
// candidate" rule for `@"prefix"` completion), ties broken
// lexicographically. An empty prefix matches every name.
func (s *Store) PrefixSearch(prefix string) []string {
	var out []string
	for _, sh := range s.shards {
		sh.mu.RLock()
		for name := range sh.data {
			if strings.HasPrefix(name, prefix) {
				out = append(out, name)
			}
		}
		sh.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) < len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}

// Names returns every contract name currently known to the store
// (declared, defined, or only referenced), for workspace/symbol.
func (s *Store) Names() []string {
	var out []string
	for _, sh := range s.shards {
		sh.mu.RLock()
		for name := range sh.data {
			out = append(out, name)
		}
		sh.mu.RUnlock()
	}
	return out
}
