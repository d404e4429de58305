package lsp

import (
	"rholsp/internal/depgraph"
	"rholsp/internal/index"
	"rholsp/internal/pattern"
	"rholsp/internal/rope"
	"rholsp/internal/virtual"
)

// Workspace is the seam the generic feature implementations in
// features.go and the unified dispatcher in dispatch.go depend on.
// internal/workspace.Manager is the concrete implementation; tests
// supply a fake.
type Workspace interface {
	// Adapter returns the LanguageAdapter for an already-indexed parent
	// or virtual document URI.
	Adapter(uri string) (*LanguageAdapter, bool)
	// Rope returns the text storage for uri, needed for wire<->byte
	// position conversion.
	Rope(uri string) (rope.Provider, bool)
	// Contracts is the global contract index (spec 4.3).
	Contracts() *index.Store
	// Patterns is the MeTTa pattern index (spec 4.5).
	Patterns() *pattern.Index
	// DepGraph is the cross-file dependency graph (spec 4.9).
	DepGraph() *depgraph.Graph
	// Virtual is the embedded-region virtual document registry (spec 4.7).
	Virtual() *virtual.Registry
	// OpenURIs returns every currently indexed document URI.
	OpenURIs() []string
}
