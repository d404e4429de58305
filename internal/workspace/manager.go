// Package workspace wires together every per-document pipeline stage
// (parse, symbol-build, global-index publication, embedded-region
// detection, virtual-document registration) behind the lsp.Workspace
// seam, generalized from the teacher's internal/world/lsp.Manager
// single-mutex "index then serve" shape into a workspace that re-indexes
// per document as edits arrive rather than once at startup.
package workspace

import (
	"context"
	"fmt"
	"sync"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"rholsp/internal/completion"
	"rholsp/internal/config"
	"rholsp/internal/depgraph"
	"rholsp/internal/index"
	"rholsp/internal/ir"
	"rholsp/internal/logging"
	"rholsp/internal/lsp"
	"rholsp/internal/parser"
	"rholsp/internal/pattern"
	"rholsp/internal/region"
	"rholsp/internal/rope"
	"rholsp/internal/symbols"
	"rholsp/internal/virtual"
	"rholsp/internal/warmstart"
)

// CSTProvider produces a Rholang Tree-Sitter tree for source text. The
// real Rholang grammar is an external collaborator (SPEC_FULL.md/
// DESIGN.md: no grammar is vendored), so the workspace depends on this
// seam rather than a concrete *sitter.Language binding.
type CSTProvider interface {
	Parse(src []byte) (*sitter.Tree, error)
}

// Document is one open (or dependency-closure-pulled-in) document's
// full pipeline state.
type Document struct {
	URI      string
	Language ir.Language
	Text     string
	Rope     *rope.SimpleRope
	DocIR    *ir.DocumentIR
	Table    *symbols.Table
	Index    *symbols.InvertedIndex
	Adapter  *lsp.LanguageAdapter
}

// Manager is the concrete lsp.Workspace implementation.
type Manager struct {
	mu        sync.RWMutex
	documents map[string]*Document

	contracts  *index.Store
	patterns   *pattern.Index
	depgraph   *depgraph.Graph
	virtualReg *virtual.Registry
	regions    *region.Registry
	warm       *warmstart.Tracker

	rholangParser CSTProvider
	dict          completion.Dictionary
	opts          config.Options
}

// NewManager builds an empty Manager. rholangParser may be nil, in
// which case OpenDocument rejects Rholang documents until one is
// configured (MeTTa documents never need it: internal/parser's MeTTa
// lowerer is self-contained). dict may be nil, in which case completion
// requests resolve a Context but return no ranked candidates.
func NewManager(opts config.Options, rholangParser CSTProvider, dict completion.Dictionary) *Manager {
	return &Manager{
		documents:     make(map[string]*Document),
		contracts:     index.NewStore(),
		patterns:      pattern.NewIndex(),
		depgraph:      depgraph.NewGraph(),
		virtualReg:    virtual.NewRegistry(),
		regions:       region.NewRegistry(),
		warm:          warmstart.Load(opts.CacheDir),
		rholangParser: rholangParser,
		dict:          dict,
		opts:          opts,
	}
}

// OpenDocument parses, symbol-builds, and indexes text under uri,
// replacing any prior state for that URI.
func (m *Manager) OpenDocument(uri string, language ir.Language, text string) error {
	doc, err := m.lower(language, text)
	if err != nil {
		return err
	}
	m.index(uri, language, text, doc)
	return nil
}

func (m *Manager) lower(language ir.Language, text string) (*ir.DocumentIR, error) {
	switch language {
	case ir.LangMetta:
		return parser.LowerMetta([]byte(text)), nil
	case ir.LangRholang:
		if m.rholangParser == nil {
			return nil, fmt.Errorf("workspace: no Rholang CST provider configured")
		}
		tree, err := m.rholangParser.Parse([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("workspace: parse Rholang source: %w", err)
		}
		return parser.LowerRholang(tree, []byte(text)), nil
	default:
		return nil, fmt.Errorf("workspace: unknown language %q", language)
	}
}

// index runs the full per-document pipeline and publishes results into
// the shared indexes, replacing whatever was previously published for
// uri.
func (m *Manager) index(uri string, language ir.Language, text string, doc *ir.DocumentIR) {
	log := logging.Get(logging.CategoryIndex)

	m.contracts.RemoveContractsFromURI(uri)
	m.contracts.RemoveReferencesFromURI(uri)
	m.patterns.RemoveURI(uri)
	m.virtualReg.RemoveParent(uri)

	r := rope.NewSimpleRope(text)
	resolver := &tableResolver{root: doc.Root}

	var adapter *lsp.LanguageAdapter
	switch language {
	case ir.LangRholang:
		result := symbols.BuildRholang(doc.Root, uri)
		resolver.table = result.Table
		resolver.index = result.Index

		for _, decl := range result.Contracts {
			if err := m.contracts.InsertDeclaration(decl.Name, index.Location{URI: uri, Position: decl.Position}); err != nil {
				log.Warn("index: %s: %v", decl.Name, err)
			}
		}
		for _, ref := range result.RefCandidates {
			m.contracts.AddReference(ref.Name, index.Location{URI: uri, Position: ref.Position})
		}
		adapter = m.buildAdapter(uri, doc, resolver)

	case ir.LangMetta:
		result := symbols.BuildMetta(doc.Root, uri)
		resolver.table = result.Table
		resolver.index = result.Index

		for _, def := range result.Definitions {
			m.patterns.Insert(pattern.FromDefinitionSite(uri, def, false))
		}
		adapter = m.buildAdapter(uri, doc, resolver)
	}

	m.mu.Lock()
	m.documents[uri] = &Document{
		URI: uri, Language: language, Text: text, Rope: r, DocIR: doc,
		Table: resolver.table, Index: resolver.index, Adapter: adapter,
	}
	m.mu.Unlock()

	m.indexEmbeddedRegions(uri, doc)
}

// maxConcurrentRegionIndex bounds how many embedded regions are
// lowered and indexed at once: a document embedding dozens of quoted
// string literals must not spin up dozens of concurrent parses.
const maxConcurrentRegionIndex = 4

// indexEmbeddedRegions runs the region-detection pipeline over doc and
// registers + indexes a virtual document for every detected region,
// recursively running the same lower/index pipeline on each region's
// embedded text in its own language. Regions are independent of each
// other (distinct virtual URIs, distinct entries in m.contracts/
// m.patterns/m.virtualReg, all of which serialize only per-key), so
// they fan out across a bounded worker pool rather than running
// strictly sequentially.
func (m *Manager) indexEmbeddedRegions(parentURI string, doc *ir.DocumentIR) {
	regions := m.regions.DetectAll(doc)
	if len(regions) == 0 {
		return
	}

	sem := semaphore.NewWeighted(maxConcurrentRegionIndex)
	g, ctx := errgroup.WithContext(context.Background())

	for i, reg := range regions {
		i, reg := i, reg
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)

			concatRoot := findConcatAncestor(doc.Root, reg.Literal)
			vdoc := m.virtualReg.RegisterRegion(parentURI, i, reg, concatRoot)

			lang := ir.LangMetta
			if reg.Language == string(ir.LangRholang) {
				lang = ir.LangRholang
			}
			vir, err := m.lower(lang, vdoc.Text)
			if err != nil {
				logging.Get(logging.CategoryRegion).Warn("virtual doc %s: %v", vdoc.URI, err)
				return nil
			}
			m.index(vdoc.URI, lang, vdoc.Text, vir)
			return nil
		})
	}

	_ = g.Wait()
}

// findConcatAncestor walks root looking for literal and returns the
// outermost `++` BinOp node that has literal as a descendant leaf, or
// nil if literal stands alone (not part of a concatenation chain).
func findConcatAncestor(root, literal *ir.Node) *ir.Node {
	if root == nil || literal == nil {
		return nil
	}
	var outermostConcat *ir.Node
	var walk func(n *ir.Node, enclosing *ir.Node) bool
	walk = func(n *ir.Node, enclosing *ir.Node) bool {
		if n == nil {
			return false
		}
		next := enclosing
		if n.Kind == ir.KindBinOp && n.Name == "++" {
			if enclosing == nil {
				next = n
			}
		} else if n.Kind != ir.KindParenthesized {
			next = nil
		}
		if n == literal {
			outermostConcat = enclosing
			return true
		}
		for _, c := range n.Children {
			if walk(c, next) {
				return true
			}
		}
		return false
	}
	walk(root, nil)
	return outermostConcat
}

func (m *Manager) buildAdapter(uri string, doc *ir.DocumentIR, resolver *tableResolver) *lsp.LanguageAdapter {
	return &lsp.LanguageAdapter{
		URI:        uri,
		Doc:        doc,
		Resolver:   resolver,
		Hover:      basicHover{},
		Completion: &basicCompletion{root: doc.Root, contracts: m.contracts, dict: m.dict},
		Docs:       basicDocs{},
	}
}

// CloseDocument drops uri's published state from every index.
func (m *Manager) CloseDocument(uri string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.documents, uri)
	m.contracts.RemoveContractsFromURI(uri)
	m.contracts.RemoveReferencesFromURI(uri)
	m.patterns.RemoveURI(uri)
	m.virtualReg.RemoveParent(uri)
	m.depgraph.RemoveURI(uri)
}

// SetDependencies records uri's dependency edges, diffing against the
// prior set, and returns the URIs that must be scheduled for
// re-indexing as a result of uri's own change (spec 4.9).
func (m *Manager) SetDependencies(uri string, dependsOn []string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.depgraph.SetDependencies(uri, dependsOn)
	return m.depgraph.AffectedByChange(uri)
}

// Persist flushes the warm-start file-timestamp cache to disk.
func (m *Manager) Persist() error {
	return m.warm.Save()
}

// ShouldReindex reports whether uri's on-disk mtime is newer than what
// was recorded at the last successful index, per the warm-start tracker.
func (m *Manager) ShouldReindex(uri string, mtime time.Time) bool {
	return m.warm.ShouldReindex(uri, mtime)
}

// MarkIndexed records that uri was successfully indexed as of mtime.
func (m *Manager) MarkIndexed(uri string, mtime time.Time) {
	m.warm.MarkIndexed(uri, mtime)
}

// lsp.Workspace implementation.

func (m *Manager) Adapter(uri string) (*lsp.LanguageAdapter, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.documents[uri]
	if !ok {
		return nil, false
	}
	return d.Adapter, d.Adapter != nil
}

func (m *Manager) Rope(uri string) (rope.Provider, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.documents[uri]
	if !ok {
		return nil, false
	}
	return d.Rope, true
}

func (m *Manager) Contracts() *index.Store   { return m.contracts }
func (m *Manager) Patterns() *pattern.Index  { return m.patterns }
func (m *Manager) DepGraph() *depgraph.Graph { return m.depgraph }
func (m *Manager) Virtual() *virtual.Registry { return m.virtualReg }

func (m *Manager) OpenURIs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.documents))
	for uri := range m.documents {
		out = append(out, uri)
	}
	return out
}
