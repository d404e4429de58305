// Package completion defines the glue surface this core needs from an
// external completion dictionary (spec 4.8/2: fuzzy-matching and
// ranking are out of scope, delegated to an external trie) plus the
// one piece of completion logic that belongs here: producing a
// completion *context* at a cursor position, and the static builtin-
// method table used for TypeMethod{type_name} contexts.
package completion

import (
	"strings"

	"rholsp/internal/ir"
)

// ContextKind classifies what kind of completion is appropriate at a
// cursor position (spec 4.8).
type ContextKind int

const (
	ContextUnknown ContextKind = iota
	ContextLexicalScope
	ContextTypeMethod
	ContextPattern
	ContextStringLiteral
	ContextQuotedMap
	ContextQuotedList
	ContextQuotedTuple
	ContextQuotedSet
	ContextExpression
	// ContextQuoteContract is a string literal quoted as a name
	// (`@"prefix"`), the position spec 4.4 requires be resolved against
	// the global contract index rather than offered as free text.
	ContextQuoteContract
)

// Context is the output of completion-context detection: everything a
// ranking dictionary needs, without this package doing any ranking
// itself.
type Context struct {
	Kind     ContextKind
	ScopeID  int
	TypeName string
	Node     *ir.Node
	// Partial is the already-typed prefix at the cursor, when
	// applicable (e.g. a partial map key or quoted-string prefix).
	Partial string
}

// Dictionary is the external completion collaborator's interface: given
// a Context, it returns ranked candidate labels. Filtering, fuzzy
// matching, distance/scope-depth/reference-frequency ranking all live
// on the other side of this interface.
type Dictionary interface {
	Complete(ctx Context) []Candidate
}

// Candidate is one completion suggestion.
type Candidate struct {
	Label         string
	Detail        string
	InsertText    string
	SortText      string
}

// builtinMethods is the static method table for TypeMethod completion
// contexts: literal values of known IR kinds expose a fixed set of
// builtin methods regardless of program text, so no index lookup is
// needed to offer them.
var builtinMethods = map[ir.Kind][]string{
	ir.KindStringLiteral: {"length", "slice", "toByteArray", "matches"},
	ir.KindLongLiteral:   {"toString"},
	ir.KindList:          {"length", "nth", "slice", "toSet", "toByteArray"},
	ir.KindSet:           {"length", "contains", "union", "toList"},
	ir.KindTuple:         {"length", "nth"},
	ir.KindMap:           {"length", "get", "keys", "values", "contains"},
}

// MethodsFor returns the builtin method names exposed by kind, or nil
// if kind has none.
func MethodsFor(kind ir.Kind) []string {
	return builtinMethods[kind]
}

// DetectContext inspects the node at the cursor (already found via
// ir.FindNodeAtPosition by the caller) and classifies it into a
// completion Context. Scope-aware contexts read scope_id metadata off
// the nearest scope-introducing ancestor, which the caller supplies
// since IR nodes don't carry parent pointers.
func DetectContext(node *ir.Node, nearestScopeID int) Context {
	if node == nil {
		return Context{Kind: ContextUnknown}
	}
	switch node.Kind {
	case ir.KindStringLiteral, ir.KindMettaString:
		return Context{Kind: ContextStringLiteral, Node: node, ScopeID: nearestScopeID}
	case ir.KindMap:
		return Context{Kind: ContextQuotedMap, Node: node, ScopeID: nearestScopeID}
	case ir.KindList:
		return Context{Kind: ContextQuotedList, Node: node, ScopeID: nearestScopeID}
	case ir.KindTuple:
		return Context{Kind: ContextQuotedTuple, Node: node, ScopeID: nearestScopeID}
	case ir.KindSet:
		return Context{Kind: ContextQuotedSet, Node: node, ScopeID: nearestScopeID}
	case ir.KindMethod:
		if len(node.Children) > 0 {
			return Context{Kind: ContextTypeMethod, Node: node, ScopeID: nearestScopeID}
		}
		return Context{Kind: ContextExpression, Node: node, ScopeID: nearestScopeID}
	case ir.KindVar, ir.KindWildcard:
		return Context{Kind: ContextPattern, Node: node, ScopeID: nearestScopeID}
	default:
		return Context{Kind: ContextLexicalScope, Node: node, ScopeID: nearestScopeID}
	}
}

// DetectContextWithParent is DetectContext extended with node's
// immediate parent, letting the caller recognize the `@"prefix"`
// quote-contract position (a string literal that is the sole child of
// a Quote) that DetectContext's node-only signature can't see, since
// IR nodes carry no parent pointer. parent may be nil (node is root or
// has no tracked parent); callers fall back to DetectContext then.
func DetectContextWithParent(node, parent *ir.Node, nearestScopeID int) Context {
	if node != nil && node.Kind == ir.KindStringLiteral &&
		parent != nil && parent.Kind == ir.KindQuote && len(parent.Children) == 1 {
		return Context{
			Kind:    ContextQuoteContract,
			Node:    node,
			ScopeID: nearestScopeID,
			Partial: stringLiteralPartial(node.Name),
		}
	}
	return DetectContext(node, nearestScopeID)
}

// stringLiteralPartial strips the surrounding quotes off a string
// literal's raw source text, tolerating an unterminated trailing quote
// (the literal is still being typed while completion fires).
func stringLiteralPartial(raw string) string {
	raw = strings.TrimPrefix(raw, `"`)
	raw = strings.TrimSuffix(raw, `"`)
	return raw
}
