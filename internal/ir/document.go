package ir

import "sort"

// Language identifies which grammar a DocumentIR's root was lowered from.
type Language string

const (
	LangRholang Language = "rholang"
	LangMetta   Language = "metta"
)

// DocumentIR pairs a lowered root node with its comment channel, sorted
// by absolute byte offset at construction time.
type DocumentIR struct {
	Language Language
	Root     *Node
	Comments []Comment
}

// NewDocumentIR sorts comments by byte offset and returns the paired IR.
func NewDocumentIR(lang Language, root *Node, comments []Comment) *DocumentIR {
	sorted := append([]Comment(nil), comments...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Range.Start.Byte < sorted[j].Range.Start.Byte
	})
	return &DocumentIR{Language: lang, Root: root, Comments: sorted}
}

// CommentsBefore returns comments whose end byte is at or before pos,
// in ascending order, via binary search over the sorted slice.
func (d *DocumentIR) CommentsBefore(pos Position) []Comment {
	idx := sort.Search(len(d.Comments), func(i int) bool {
		return d.Comments[i].Range.End.Byte > pos.Byte
	})
	return d.Comments[:idx]
}

// DirectiveBefore returns the language directive, if any, from the
// nearest comment preceding litStart that is eligible per
// PrecedesStringLiteral.
func (d *DocumentIR) DirectiveBefore(litStart Position) *LanguageDirective {
	before := d.CommentsBefore(litStart)
	for i := len(before) - 1; i >= 0; i-- {
		c := before[i]
		if !PrecedesStringLiteral(c, litStart) {
			continue
		}
		if c.Directive != nil {
			return c.Directive
		}
		return nil
	}
	return nil
}
