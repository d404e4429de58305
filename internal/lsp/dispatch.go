package lsp

import "strings"

// Resolve implements the unified request-dispatch rule (spec 4.8): a
// request against a URI that already names a virtual document (carries
// a "#lang:index" fragment) is handled by that virtual document
// directly; otherwise, if the position falls inside a region with a
// registered virtual document, the request is redirected to that
// virtual document with the position translated into its own
// coordinates; otherwise the request is handled by the parent-language
// adapter as-is.
func Resolve(ws Workspace, uri string, pos Position) (targetURI string, targetPos Position) {
	if strings.Contains(uri, "#") {
		if _, ok := ws.Virtual().Get(uri); ok {
			return uri, pos
		}
	}

	parentRope, ok := ws.Rope(uri)
	if !ok {
		return uri, pos
	}
	irPos := toIRPosition(parentRope, pos)

	for _, d := range ws.Virtual().ForParent(uri) {
		voff, ok := d.Map.ParentToVirtual(irPos)
		if !ok {
			continue
		}
		vRope, ok := ws.Rope(d.URI)
		if !ok {
			continue
		}
		vPos := vRope.PositionAt(voff)
		return d.URI, toWirePosition(vRope, vPos)
	}

	return uri, pos
}
