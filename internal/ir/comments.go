package ir

import "strings"

// Comment is a side-channel token never attached as a child of a semantic
// node. Comments are collected during lowering and kept sorted by
// absolute byte offset on the DocumentIR.
type Comment struct {
	Range      Range
	Text       string // raw comment text, including leading // or /* */
	IsDocComment bool
	Directive  *LanguageDirective // parsed @metta / @language:X, if present
}

// LanguageDirective is a parsed embedded-language directive found inside
// a comment, e.g. `@metta` or `@language: metta`.
type LanguageDirective struct {
	Language string
}

// NewComment classifies text (doc-comment detection) and attempts to
// parse a language directive from it.
func NewComment(r Range, text string) Comment {
	c := Comment{
		Range:        r,
		Text:         text,
		IsDocComment: isDocComment(text),
	}
	c.Directive = parseDirective(text)
	return c
}

func isDocComment(text string) bool {
	trimmed := strings.TrimLeft(text, " \t")
	return strings.HasPrefix(trimmed, "///") || strings.HasPrefix(trimmed, "/**")
}

// parseDirective recognizes `@metta`, `@language:metta`, `@language: meta`
// (alias for metta) inside line or block comments, whitespace-agnostic.
func parseDirective(text string) *LanguageDirective {
	body := strings.TrimLeft(text, "/*! \t")
	body = strings.TrimRight(body, "*/ \t")
	body = strings.TrimSpace(body)
	if !strings.HasPrefix(body, "@") {
		return nil
	}
	body = strings.TrimPrefix(body, "@")
	body = strings.TrimSpace(body)

	if body == "metta" {
		return &LanguageDirective{Language: "metta"}
	}

	const prefix = "language"
	if !strings.HasPrefix(body, prefix) {
		return nil
	}
	rest := strings.TrimPrefix(body, prefix)
	rest = strings.TrimSpace(rest)
	rest = strings.TrimPrefix(rest, ":")
	lang := strings.TrimSpace(rest)
	switch lang {
	case "metta", "meta":
		return &LanguageDirective{Language: "metta"}
	case "":
		return nil
	default:
		return &LanguageDirective{Language: lang}
	}
}

// DocCommentGroup is a run of consecutive doc comments separated by at
// most one blank line, attached to the next declaration when the
// group's end is within one line of the declaration's start.
type DocCommentGroup struct {
	Comments []Comment
}

// GroupDocComments scans sorted comments and returns contiguous
// doc-comment runs, each eligible for attachment to a following
// declaration per the ≤1-blank-line rule.
func GroupDocComments(comments []Comment) []DocCommentGroup {
	var groups []DocCommentGroup
	var current []Comment
	flush := func() {
		if len(current) > 0 {
			groups = append(groups, DocCommentGroup{Comments: append([]Comment(nil), current...)})
			current = nil
		}
	}
	prevEndLine := -1
	for _, c := range comments {
		if !c.IsDocComment {
			flush()
			prevEndLine = -1
			continue
		}
		if len(current) > 0 && c.Range.Start.Line-prevEndLine > 2 {
			// more than one blank line since the previous doc comment
			flush()
		}
		current = append(current, c)
		prevEndLine = c.Range.End.Line
	}
	flush()
	return groups
}

// AttachesTo reports whether group's last comment ends within one line
// of declStart, the attachment rule used by the lowerer.
func (g DocCommentGroup) AttachesTo(declStart Position) bool {
	if len(g.Comments) == 0 {
		return false
	}
	last := g.Comments[len(g.Comments)-1]
	return declStart.Line-last.Range.End.Line <= 1
}

// PrecedesStringLiteral reports whether comment c is positioned such
// that it can carry a language directive for the string literal
// starting at litStart: same line before, or the immediately preceding
// line.
func PrecedesStringLiteral(c Comment, litStart Position) bool {
	if c.Range.End.Byte > litStart.Byte {
		return false
	}
	lineDelta := litStart.Line - c.Range.End.Line
	return lineDelta == 0 || lineDelta == 1
}
