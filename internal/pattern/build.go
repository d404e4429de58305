package pattern

import "rholsp/internal/symbols"

// FromDefinitionSite converts a symbol-table-builder definition site
// into an indexable Definition, canonicalizing its pattern. Pass
// concatenated=true when the definition's head came from an embedded
// region whose text was assembled by string concatenation rather than
// read statically off the pattern node — such sites get no canonical
// key and fall back to (name, arity) matching only.
func FromDefinitionSite(uri string, site symbols.MettaDefinitionSite, concatenated bool) *Definition {
	def := &Definition{
		URI:      uri,
		HeadName: site.HeadName,
		Arity:    site.Arity,
		Pattern:  site.Pattern,
		Body:     site.Body,
		Location: site.Location,
	}
	if !concatenated {
		def.Canonical = Canonicalize(site.Pattern)
	}
	return def
}
