package ir

// Well-known metadata keys attached by the symbol-table builder onto
// scope-introducing nodes and by the lowerer onto declaration sites.
const (
	MetaKeyScopeID     = "scope_id"
	MetaKeySymbolName  = "symbol_name"
	MetaKeySymbolTable = "symbol_table"
	MetaKeyRemainder   = "remainder" // marks a binder as "...rest"
	MetaKeyURISuffix   = "uri_suffix" // New decl's optional `x(`uri`)` suffix
)

// MetaScopeID returns the scope_id attached to a scope-introducing node.
func MetaScopeID(n *Node) (int, bool) {
	v, ok := n.GetMeta(MetaKeyScopeID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int)
	return id, ok
}

// MetaSymbolName returns the symbol_name metadata value, if set.
func MetaSymbolName(n *Node) (string, bool) {
	v, ok := n.GetMeta(MetaKeySymbolName)
	if !ok {
		return "", false
	}
	name, ok := v.(string)
	return name, ok
}

// MetaIsRemainder reports whether n is marked as a "...rest" binder.
func MetaIsRemainder(n *Node) bool {
	v, ok := n.GetMeta(MetaKeyRemainder)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// MetaURISuffix returns the optional URI suffix captured on a New decl.
func MetaURISuffix(n *Node) (string, bool) {
	v, ok := n.GetMeta(MetaKeyURISuffix)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
