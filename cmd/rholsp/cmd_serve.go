package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"rholsp/internal/config"
	"rholsp/internal/ir"
	"rholsp/internal/lsp"
	"rholsp/internal/logging"
	"rholsp/internal/workspace"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the LSP server on stdin/stdout",
	Long: `Starts the Language Server Protocol server, communicating via
JSON-RPC over stdin/stdout, for editor integration (VSCode, Neovim,
etc.):

{
  "rholang": {
    "server": { "command": "rholsp", "args": ["serve"] }
  }
}`,
	RunE: runServe,
}

// languageFromURI classifies a document by LSP languageId, falling back
// to file extension when the client omits or misreports it.
func languageFromURI(uri, languageID string) (ir.Language, bool) {
	switch languageID {
	case "rholang":
		return ir.LangRholang, true
	case "metta":
		return ir.LangMetta, true
	}
	switch strings.ToLower(filepath.Ext(strings.TrimPrefix(uri, "file://"))) {
	case ".rho":
		return ir.LangRholang, true
	case ".metta":
		return ir.LangMetta, true
	}
	return "", false
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logging.Get(logging.CategoryServer)
	opts := config.DefaultOptions(cacheDir)

	// No Rholang Tree-Sitter grammar is vendored (SPEC_FULL.md/DESIGN.md):
	// the manager is constructed without a CSTProvider, so MeTTa documents
	// are fully served while Rholang documents report a diagnostic until a
	// grammar binding is wired in by the embedding application.
	mgr := workspace.NewManager(opts, nil, nil)

	srv := lsp.NewServer()
	registerHandlers(srv, mgr, &opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("received shutdown signal, stopping LSP server")
		cancel()
	}()

	log.Info("rholsp server ready, listening on stdin/stdout")
	if err := srv.Serve(ctx, os.Stdin, os.Stdout); err != nil {
		if err == context.Canceled {
			log.Info("LSP server stopped gracefully")
			return nil
		}
		log.Error("LSP server error: %v", err)
		return fmt.Errorf("LSP server error: %w", err)
	}
	return nil
}

func registerHandlers(srv *lsp.Server, mgr *workspace.Manager, opts *config.Options) {
	srv.Handle("initialize", func(ctx context.Context, params json.RawMessage) (interface{}, *lsp.ResponseError) {
		var p lsp.InitializeParams
		if len(params) > 0 {
			if err := json.Unmarshal(params, &p); err != nil {
				return nil, &lsp.ResponseError{Code: lsp.ErrInvalidParams, Message: err.Error()}
			}
		}
		parsed, err := config.Parse(p.InitializationOptions, *opts)
		if err == nil {
			*opts = parsed
		}
		return lsp.InitializeResult{Capabilities: lsp.ServerCapabilities{
			TextDocumentSync:          lsp.TextDocumentSyncFull,
			HoverProvider:             true,
			DefinitionProvider:        true,
			ReferencesProvider:        true,
			RenameProvider:            true,
			DocumentSymbolProvider:    true,
			WorkspaceSymbolProvider:   true,
			DocumentHighlightProvider: true,
			CompletionProvider:        &lsp.CompletionOptions{TriggerCharacters: []string{".", "$", "("}},
		}}, nil
	})

	srv.Handle("shutdown", func(ctx context.Context, params json.RawMessage) (interface{}, *lsp.ResponseError) {
		return nil, nil
	})

	srv.HandleNotification("exit", func(ctx context.Context, params json.RawMessage) {
		_ = mgr.Persist()
		os.Exit(0)
	})

	srv.HandleNotification("textDocument/didOpen", func(ctx context.Context, params json.RawMessage) {
		var p lsp.DidOpenTextDocumentParams
		if err := json.Unmarshal(params, &p); err != nil {
			return
		}
		lang, ok := languageFromURI(p.TextDocument.URI, p.TextDocument.LanguageID)
		if !ok {
			return
		}
		openAndPublish(srv, mgr, p.TextDocument.URI, lang, p.TextDocument.Text)
	})

	srv.HandleNotification("textDocument/didChange", func(ctx context.Context, params json.RawMessage) {
		var p lsp.DidChangeTextDocumentParams
		if err := json.Unmarshal(params, &p); err != nil || len(p.ContentChanges) == 0 {
			return
		}
		adapter, ok := mgr.Adapter(p.TextDocument.URI)
		lang := ir.LangMetta
		if ok && adapter.Doc != nil {
			lang = adapter.Doc.Language
		}
		text := p.ContentChanges[len(p.ContentChanges)-1].Text
		openAndPublish(srv, mgr, p.TextDocument.URI, lang, text)
	})

	srv.HandleNotification("textDocument/didClose", func(ctx context.Context, params json.RawMessage) {
		var p lsp.DidCloseTextDocumentParams
		if err := json.Unmarshal(params, &p); err != nil {
			return
		}
		mgr.CloseDocument(p.TextDocument.URI)
	})

	srv.Handle("textDocument/definition", func(ctx context.Context, params json.RawMessage) (interface{}, *lsp.ResponseError) {
		var p lsp.TextDocumentPositionParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &lsp.ResponseError{Code: lsp.ErrInvalidParams, Message: err.Error()}
		}
		return lsp.Definition(mgr, p.TextDocument.URI, p.Position), nil
	})

	srv.Handle("textDocument/references", func(ctx context.Context, params json.RawMessage) (interface{}, *lsp.ResponseError) {
		var p lsp.ReferenceParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &lsp.ResponseError{Code: lsp.ErrInvalidParams, Message: err.Error()}
		}
		return lsp.References(mgr, p.TextDocument.URI, p.Position, p.Context.IncludeDeclaration), nil
	})

	srv.Handle("textDocument/rename", func(ctx context.Context, params json.RawMessage) (interface{}, *lsp.ResponseError) {
		var p lsp.RenameParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &lsp.ResponseError{Code: lsp.ErrInvalidParams, Message: err.Error()}
		}
		return lsp.Rename(mgr, p.TextDocument.URI, p.Position, p.NewName), nil
	})

	srv.Handle("textDocument/hover", func(ctx context.Context, params json.RawMessage) (interface{}, *lsp.ResponseError) {
		var p lsp.TextDocumentPositionParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &lsp.ResponseError{Code: lsp.ErrInvalidParams, Message: err.Error()}
		}
		return lsp.Hover(mgr, p.TextDocument.URI, p.Position), nil
	})

	srv.Handle("textDocument/documentSymbol", func(ctx context.Context, params json.RawMessage) (interface{}, *lsp.ResponseError) {
		var p struct {
			TextDocument lsp.TextDocumentIdentifier `json:"textDocument"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &lsp.ResponseError{Code: lsp.ErrInvalidParams, Message: err.Error()}
		}
		return lsp.DocumentSymbols(mgr, p.TextDocument.URI), nil
	})

	srv.Handle("workspace/symbol", func(ctx context.Context, params json.RawMessage) (interface{}, *lsp.ResponseError) {
		var p struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &lsp.ResponseError{Code: lsp.ErrInvalidParams, Message: err.Error()}
		}
		return lsp.WorkspaceSymbols(mgr, p.Query), nil
	})

	srv.Handle("textDocument/documentHighlight", func(ctx context.Context, params json.RawMessage) (interface{}, *lsp.ResponseError) {
		var p lsp.TextDocumentPositionParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &lsp.ResponseError{Code: lsp.ErrInvalidParams, Message: err.Error()}
		}
		return lsp.DocumentHighlight(mgr, p.TextDocument.URI, p.Position), nil
	})

	srv.Handle("textDocument/completion", func(ctx context.Context, params json.RawMessage) (interface{}, *lsp.ResponseError) {
		var p lsp.TextDocumentPositionParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &lsp.ResponseError{Code: lsp.ErrInvalidParams, Message: err.Error()}
		}
		return lsp.Completion(mgr, p.TextDocument.URI, p.Position), nil
	})
}

// openAndPublish runs the indexing pipeline for uri and publishes
// resulting parse-error diagnostics (spec 7: ParseError -> diagnostics
// with ranges, never an LSP error response).
func openAndPublish(srv *lsp.Server, mgr *workspace.Manager, uri string, lang ir.Language, text string) {
	log := logging.Get(logging.CategoryServer)
	diags := []lsp.Diagnostic{}
	if err := mgr.OpenDocument(uri, lang, text); err != nil {
		log.Warn("open %s: %v", uri, err)
		diags = append(diags, lsp.Diagnostic{
			Range:    lsp.Range{},
			Severity: 1,
			Message:  err.Error(),
			Source:   "rholsp",
		})
	} else if adapter, ok := mgr.Adapter(uri); ok {
		diags = collectErrorDiagnostics(mgr, uri, adapter)
	}
	if err := srv.Notify("textDocument/publishDiagnostics", lsp.PublishDiagnosticsParams{URI: uri, Diagnostics: diags}); err != nil {
		log.Warn("publish diagnostics for %s: %v", uri, err)
	}
}

// collectErrorDiagnostics walks adapter's IR for ir.KindError nodes
// (spec 7: syntax errors are embedded as Error nodes rather than
// failing the lower pass outright) and converts each to a Diagnostic.
// Error nodes carrying a Name are grammar constructs the lowerer does
// not model, not syntax errors, and are skipped.
func collectErrorDiagnostics(mgr *workspace.Manager, uri string, adapter *lsp.LanguageAdapter) []lsp.Diagnostic {
	r, ok := mgr.Rope(uri)
	if !ok || adapter.Doc == nil || adapter.Doc.Root == nil {
		return []lsp.Diagnostic{}
	}
	diags := []lsp.Diagnostic{}
	ir.Walk(adapter.Doc.Root, func(n *ir.Node) bool {
		if n.Kind == ir.KindError && n.Name == "" {
			diags = append(diags, lsp.Diagnostic{
				Range:    lsp.WireRange(r, n.Base.Abs),
				Severity: 1,
				Message:  "syntax error",
				Source:   "rholsp",
			})
		}
		return true
	})
	return diags
}
