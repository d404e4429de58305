// Package rope defines the glue interface this core expects from its
// document-text storage collaborator (spec section 2's "Document text
// storage (a rope container with char/byte/line indices)" — explicitly
// out of scope as an external collaborator). Provider is the seam the
// rest of this module programs against; SimpleRope is a minimal,
// correct-but-unoptimized implementation used by tests and by the
// workspace manager until a dedicated rope library is wired in.
package rope

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"rholsp/internal/ir"
)

// decodeRune reads one UTF-8 rune from the front of b, defaulting to a
// single invalid byte on malformed input so callers always make
// progress.
func decodeRune(b []byte) (rune, int) {
	r, size := utf8.DecodeRune(b)
	if r == utf8.RuneError && size <= 1 {
		return utf8.RuneError, 1
	}
	return r, size
}

// utf16Units reports how many UTF-16 code units r encodes as: 1 for any
// code point in the Basic Multilingual Plane, 2 for an astral-plane
// code point requiring a surrogate pair.
func utf16Units(r rune) int {
	if r <= 0xFFFF {
		return 1
	}
	return len(utf16.Encode([]rune{r}))
}

// Edit is a single text replacement expressed in byte offsets of the
// rope's state *before* the edit is applied.
type Edit struct {
	StartByte int
	EndByte   int
	NewText   string
}

// Provider is the rope interface the workspace manager and incremental
// pipeline depend on.
type Provider interface {
	// Text returns the full current document text.
	Text() string
	// Apply applies edit, returning the byte delta (len(NewText) -
	// (EndByte - StartByte)) for downstream position adjustment.
	Apply(edit Edit) int
	// PositionAt converts a byte offset to a line/column position.
	PositionAt(byteOffset int) ir.Position
	// ByteAt converts a line/column position to a byte offset.
	ByteAt(line, column int) int
	// Len returns the current byte length.
	Len() int
	// UTF16ColumnToByteColumn converts an LSP position's UTF-16 code-unit
	// column on the given line to this rope's byte column, the
	// conversion every incoming LSP position needs before it can index
	// into IR byte offsets.
	UTF16ColumnToByteColumn(line, utf16Column int) int
	// ByteColumnToUTF16Column is the inverse, needed when emitting LSP
	// positions back to the client.
	ByteColumnToUTF16Column(line, byteColumn int) int
}

// SimpleRope is a byte-slice-backed Provider: O(n) edits, adequate for
// the document sizes this server targets and for exercising Provider's
// contract in tests without an external dependency.
type SimpleRope struct {
	text []byte
	// lineStarts[i] is the byte offset where line i (0-indexed) begins.
	lineStarts []int
}

// NewSimpleRope builds a SimpleRope over the given initial text.
func NewSimpleRope(text string) *SimpleRope {
	r := &SimpleRope{text: []byte(text)}
	r.reindex()
	return r
}

func (r *SimpleRope) reindex() {
	r.lineStarts = []int{0}
	for i, b := range r.text {
		if b == '\n' {
			r.lineStarts = append(r.lineStarts, i+1)
		}
	}
}

func (r *SimpleRope) Text() string { return string(r.text) }

func (r *SimpleRope) Len() int { return len(r.text) }

func (r *SimpleRope) Apply(edit Edit) int {
	before := r.text[:edit.StartByte]
	after := r.text[edit.EndByte:]
	newText := []byte(edit.NewText)

	replaced := make([]byte, 0, len(before)+len(newText)+len(after))
	replaced = append(replaced, before...)
	replaced = append(replaced, newText...)
	replaced = append(replaced, after...)
	r.text = replaced
	r.reindex()

	return len(newText) - (edit.EndByte - edit.StartByte)
}

func (r *SimpleRope) PositionAt(byteOffset int) ir.Position {
	line := 0
	for i := len(r.lineStarts) - 1; i >= 0; i-- {
		if r.lineStarts[i] <= byteOffset {
			line = i
			break
		}
	}
	column := byteOffset - r.lineStarts[line]
	return ir.Position{Line: line, Column: column, Byte: byteOffset}
}

func (r *SimpleRope) ByteAt(line, column int) int {
	if line < 0 {
		line = 0
	}
	if line >= len(r.lineStarts) {
		return len(r.text)
	}
	return r.lineStarts[line] + column
}

// LineCount returns the number of lines in the current text (counting a
// trailing partial line without a terminating newline).
func (r *SimpleRope) LineCount() int {
	return strings.Count(string(r.text), "\n") + 1
}

func (r *SimpleRope) lineBytes(line int) []byte {
	if line < 0 || line >= len(r.lineStarts) {
		return nil
	}
	start := r.lineStarts[line]
	end := len(r.text)
	if line+1 < len(r.lineStarts) {
		end = r.lineStarts[line+1] - 1 // exclude the newline
		if end < start {
			end = start
		}
	}
	return r.text[start:end]
}

// UTF16ColumnToByteColumn walks line's bytes as UTF-8, accumulating
// UTF-16 code units per rune, until utf16Column is reached.
func (r *SimpleRope) UTF16ColumnToByteColumn(line, utf16Column int) int {
	lb := r.lineBytes(line)
	byteCol, unitsSeen := 0, 0
	for byteCol < len(lb) && unitsSeen < utf16Column {
		ru, size := decodeRune(lb[byteCol:])
		byteCol += size
		unitsSeen += utf16Units(ru)
	}
	return byteCol
}

// ByteColumnToUTF16Column is the inverse of UTF16ColumnToByteColumn.
func (r *SimpleRope) ByteColumnToUTF16Column(line, byteColumn int) int {
	lb := r.lineBytes(line)
	if byteColumn > len(lb) {
		byteColumn = len(lb)
	}
	byteCol, units := 0, 0
	for byteCol < byteColumn {
		ru, size := decodeRune(lb[byteCol:])
		byteCol += size
		units += utf16Units(ru)
	}
	return units
}
