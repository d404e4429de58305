package symbols

import "rholsp/internal/ir"

// InvertedIndex maps a declaration position (within one document) to the
// ordered list of usage positions resolved to it. Built alongside the
// Table during a single-threaded indexing pass; read concurrently once
// published.
type InvertedIndex struct {
	usages map[ir.Position][]ir.Position
}

// NewInvertedIndex returns an empty index.
func NewInvertedIndex() *InvertedIndex {
	return &InvertedIndex{usages: make(map[ir.Position][]ir.Position)}
}

// AddUsage records usagePos as a reference to the symbol declared at
// declPos.
func (idx *InvertedIndex) AddUsage(declPos, usagePos ir.Position) {
	idx.usages[declPos] = append(idx.usages[declPos], usagePos)
}

// UsagesOf returns the usage positions recorded against declPos.
func (idx *InvertedIndex) UsagesOf(declPos ir.Position) []ir.Position {
	return idx.usages[declPos]
}
