// Package lsp implements the language-neutral LSP surface (spec
// sections 4.8 and 6): JSON-RPC transport, request dispatch unified
// across parent and virtual documents, and the generic goto-
// definition/references/rename/hover/documentSymbol/workspace-symbol/
// documentHighlight features that operate solely through a
// LanguageAdapter plus ir.FindNodeAtPosition.
package lsp

import "encoding/json"

// Request is an incoming JSON-RPC request or notification (ID is nil
// for a notification).
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is an outgoing JSON-RPC response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *ResponseError  `json:"error,omitempty"`
}

// ResponseError is a JSON-RPC error object.
type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Standard JSON-RPC / LSP error codes used by this server.
const (
	ErrParse          = -32700
	ErrInvalidRequest = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternal       = -32603
)

// Position is the LSP wire position: zero-based line and UTF-16
// code-unit character offset.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a half-open LSP wire range.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Location pins a Range to a document URI.
type Location struct {
	URI   string `json:"uri"`
	Range Range  `json:"range"`
}

// TextDocumentIdentifier names a document by URI.
type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

// TextDocumentPositionParams is the common (uri, position) request
// shape shared by definition/hover/references/etc.
type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

// ReferenceContext carries the includeDeclaration flag for
// textDocument/references.
type ReferenceContext struct {
	IncludeDeclaration bool `json:"includeDeclaration"`
}

// ReferenceParams is textDocument/references' request shape.
type ReferenceParams struct {
	TextDocumentPositionParams
	Context ReferenceContext `json:"context"`
}

// RenameParams is textDocument/rename's request shape.
type RenameParams struct {
	TextDocumentPositionParams
	NewName string `json:"newName"`
}

// WorkspaceEdit groups per-URI text edits for a rename response.
type WorkspaceEdit struct {
	Changes map[string][]TextEdit `json:"changes"`
}

// TextEdit replaces Range's content with NewText.
type TextEdit struct {
	Range   Range  `json:"range"`
	NewText string `json:"newText"`
}

// Hover is the response to textDocument/hover.
type Hover struct {
	Contents MarkupContent `json:"contents"`
	Range    *Range        `json:"range,omitempty"`
}

// MarkupContent is markdown hover/documentation content.
type MarkupContent struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// SymbolKind mirrors the LSP SymbolKind enum values this server emits.
type SymbolKind int

const (
	SymbolKindNamespace SymbolKind = 3
	SymbolKindFunction  SymbolKind = 12
	SymbolKindVariable  SymbolKind = 13
)

// DocumentSymbol is one node of documentSymbol's hierarchical result.
type DocumentSymbol struct {
	Name           string           `json:"name"`
	Kind           SymbolKind       `json:"kind"`
	Range          Range            `json:"range"`
	SelectionRange Range            `json:"selectionRange"`
	Children       []DocumentSymbol `json:"children,omitempty"`
}

// SymbolInformation is one entry of workspace/symbol's flat result.
type SymbolInformation struct {
	Name     string     `json:"name"`
	Kind     SymbolKind `json:"kind"`
	Location Location   `json:"location"`
}

// CompletionItem is one entry of textDocument/completion's result.
type CompletionItem struct {
	Label      string `json:"label"`
	Detail     string `json:"detail,omitempty"`
	InsertText string `json:"insertText,omitempty"`
	SortText   string `json:"sortText,omitempty"`
}

// Diagnostic is one entry of textDocument/publishDiagnostics.
type Diagnostic struct {
	Range    Range  `json:"range"`
	Severity int    `json:"severity"`
	Message  string `json:"message"`
	Source   string `json:"source"`
}

// PublishDiagnosticsParams is the notification payload for one URI's
// diagnostics at a given document version.
type PublishDiagnosticsParams struct {
	URI         string       `json:"uri"`
	Version     int          `json:"version,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// TextDocumentItem is the full text of a document as sent by didOpen.
type TextDocumentItem struct {
	URI        string `json:"uri"`
	LanguageID string `json:"languageId"`
	Version    int    `json:"version"`
	Text       string `json:"text"`
}

// DidOpenTextDocumentParams is textDocument/didOpen's notification payload.
type DidOpenTextDocumentParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

// VersionedTextDocumentIdentifier names a document at a specific version.
type VersionedTextDocumentIdentifier struct {
	URI     string `json:"uri"`
	Version int    `json:"version"`
}

// TextDocumentContentChangeEvent is one full-document replacement (this
// server requests full sync only, per SPEC_FULL.md/DESIGN.md: no
// incremental-range patching).
type TextDocumentContentChangeEvent struct {
	Text string `json:"text"`
}

// DidChangeTextDocumentParams is textDocument/didChange's notification
// payload under full-document sync.
type DidChangeTextDocumentParams struct {
	TextDocument   VersionedTextDocumentIdentifier   `json:"textDocument"`
	ContentChanges []TextDocumentContentChangeEvent `json:"contentChanges"`
}

// DidCloseTextDocumentParams is textDocument/didClose's notification payload.
type DidCloseTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// InitializeParams is the client's initialize request payload; only the
// fields this server consults are modeled.
type InitializeParams struct {
	RootURI               string          `json:"rootUri"`
	InitializationOptions json.RawMessage `json:"initializationOptions"`
}

// TextDocumentSyncKind mirrors the LSP enum; this server uses Full (1).
type TextDocumentSyncKind int

const TextDocumentSyncFull TextDocumentSyncKind = 1

// ServerCapabilities advertises the subset of LSP features this server
// implements.
type ServerCapabilities struct {
	TextDocumentSync   TextDocumentSyncKind `json:"textDocumentSync"`
	HoverProvider      bool                 `json:"hoverProvider"`
	DefinitionProvider bool                 `json:"definitionProvider"`
	ReferencesProvider bool                 `json:"referencesProvider"`
	RenameProvider     bool                 `json:"renameProvider"`
	DocumentSymbolProvider  bool `json:"documentSymbolProvider"`
	WorkspaceSymbolProvider bool `json:"workspaceSymbolProvider"`
	DocumentHighlightProvider bool `json:"documentHighlightProvider"`
	CompletionProvider *CompletionOptions `json:"completionProvider,omitempty"`
}

// CompletionOptions advertises completion trigger characters.
type CompletionOptions struct {
	TriggerCharacters []string `json:"triggerCharacters,omitempty"`
}

// InitializeResult is the response to the initialize request.
type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
}
