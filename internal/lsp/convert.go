package lsp

import (
	"rholsp/internal/ir"
	"rholsp/internal/rope"
)

// toIRPosition converts a wire Position (UTF-16 column) to an ir.Position
// (byte column) using r for this line's UTF-16<->byte conversion.
func toIRPosition(r rope.Provider, p Position) ir.Position {
	byteCol := r.UTF16ColumnToByteColumn(p.Line, p.Character)
	byteOff := r.ByteAt(p.Line, byteCol)
	return ir.Position{Line: p.Line, Column: byteCol, Byte: byteOff}
}

// toWirePosition is the inverse conversion, used when emitting a
// Location/Range back to the client.
func toWirePosition(r rope.Provider, p ir.Position) Position {
	return Position{Line: p.Line, Character: r.ByteColumnToUTF16Column(p.Line, p.Column)}
}

// toWireRange converts an ir.Range to a wire Range.
func toWireRange(r rope.Provider, rg ir.Range) Range {
	return Range{Start: toWirePosition(r, rg.Start), End: toWirePosition(r, rg.End)}
}

// WireRange is the exported form of toWireRange, for callers outside
// this package (e.g. cmd/rholsp's diagnostic publication) that need to
// convert an ir.Range found outside the generic feature functions.
func WireRange(r rope.Provider, rg ir.Range) Range {
	return toWireRange(r, rg)
}
