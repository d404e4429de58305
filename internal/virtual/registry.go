package virtual

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"rholsp/internal/ir"
	"rholsp/internal/region"
)

// Document is one registered virtual document: synthesized text for an
// embedded region, addressable by a parent-URI-derived fragment.
type Document struct {
	// URI is the parent document's URI with a "#lang:index" fragment,
	// e.g. "file:///a.rho#metta:0", giving each embedded region in a
	// document a stable, orderable identity across re-indexes.
	URI      string
	ParentURI string
	Language string
	Text     string
	Chain    *ConcatenationChain
	Map      *PositionMap
	// ID is a random opaque identifier that RegisterRegion assigns to
	// every document; unlike URI it differs on each registration.
	ID uuid.UUID
}

// Registry owns every virtual document currently known for a workspace,
// keyed by parent URI.
type Registry struct {
	mu   sync.RWMutex
	byParent map[string][]*Document
	byURI    map[string]*Document
}

// NewRegistry returns an empty virtual document registry.
func NewRegistry() *Registry {
	return &Registry{
		byParent: make(map[string][]*Document),
		byURI:    make(map[string]*Document),
	}
}

// RegisterRegion builds and registers a virtual document for one
// detected region within parentURI, at position index among that
// document's regions (used to build the "#lang:index" fragment).
func (r *Registry) RegisterRegion(parentURI string, index int, reg region.Region, concatRoot *ir.Node) *Document {
	var chain *ConcatenationChain
	if concatRoot != nil {
		chain = BuildChain(concatRoot)
	} else {
		chain = &ConcatenationChain{
			Parts:       []Part{{Kind: PartLiteral, Node: reg.Literal, Text: literalInterior(reg), VirtualStart: 0}},
			VirtualText: literalInterior(reg),
		}
	}

	doc := &Document{
		URI:       fmt.Sprintf("%s#%s:%d", parentURI, reg.Language, index),
		ParentURI: parentURI,
		Language:  reg.Language,
		Text:      chain.VirtualText,
		Chain:     chain,
		Map:       NewPositionMap(chain),
		ID:        uuid.New(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byParent[parentURI] = append(r.byParent[parentURI], doc)
	r.byURI[doc.URI] = doc
	return doc
}

func literalInterior(reg region.Region) string {
	if reg.Literal == nil {
		return ""
	}
	return stripQuotes(reg.Literal.Name)
}

// Get returns the virtual document registered under uri.
func (r *Registry) Get(uri string) (*Document, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byURI[uri]
	return d, ok
}

// ForParent returns every virtual document registered for parentURI, in
// registration order.
func (r *Registry) ForParent(parentURI string) []*Document {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Document(nil), r.byParent[parentURI]...)
}

// RemoveParent drops every virtual document registered for parentURI,
// invoked at the start of a per-URI re-index so stale embedded regions
// from a previous parse don't linger.
func (r *Registry) RemoveParent(parentURI string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.byParent[parentURI] {
		delete(r.byURI, d.URI)
	}
	delete(r.byParent, parentURI)
}
