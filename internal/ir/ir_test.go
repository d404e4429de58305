package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func leaf(kind Kind, start, end Position, delta Delta) *Node {
	return &Node{Kind: kind, Base: NodeBase{Abs: Range{Start: start, End: end}, Delta: delta}}
}

func TestPositionAddRoundTrip(t *testing.T) {
	from := Position{Line: 2, Column: 4, Byte: 40}
	to := Position{Line: 2, Column: 14, Byte: 50}
	d := DeltaBetween(from, to)
	require.Equal(t, to, from.Add(d))
}

func TestPositionAddAcrossLines(t *testing.T) {
	from := Position{Line: 1, Column: 10, Byte: 20}
	to := Position{Line: 3, Column: 2, Byte: 35}
	d := DeltaBetween(from, to)
	require.Equal(t, to, from.Add(d))
}

func TestFindNodeAtPosition(t *testing.T) {
	child := leaf(KindVar, Position{Byte: 5}, Position{Byte: 10}, Delta{Bytes: 5})
	root := &Node{
		Kind:     KindPar,
		Base:     NodeBase{Abs: Range{Start: Position{Byte: 0}, End: Position{Byte: 20}}},
		Children: []*Node{child},
	}

	found := FindNodeAtPosition(root, Position{Byte: 7})
	require.Same(t, child, found)

	found = FindNodeAtPosition(root, Position{Byte: 15})
	require.Same(t, root, found)

	require.Nil(t, FindNodeAtPosition(root, Position{Byte: 100}))
}

func TestRangeContains(t *testing.T) {
	r := Range{Start: Position{Byte: 10}, End: Position{Byte: 20}}
	require.True(t, r.Contains(Position{Byte: 10}))
	require.True(t, r.Contains(Position{Byte: 19}))
	require.False(t, r.Contains(Position{Byte: 20}))
	require.Equal(t, 10, r.Len())
}

func TestMetadataRoundTrip(t *testing.T) {
	n := &Node{Kind: KindContract}
	n.SetMeta(MetaKeyScopeID, 3)
	n.SetMeta(MetaKeySymbolName, "myContract")

	id, ok := MetaScopeID(n)
	require.True(t, ok)
	require.Equal(t, 3, id)

	name, ok := MetaSymbolName(n)
	require.True(t, ok)
	require.Equal(t, "myContract", name)
}

func TestCloneIsolatesMetadata(t *testing.T) {
	n := &Node{Kind: KindVar}
	n.SetMeta("a", 1)
	clone := n.Clone()
	clone.SetMeta("b", 2)

	_, onOriginal := n.GetMeta("b")
	require.False(t, onOriginal)
	_, onClone := clone.GetMeta("a")
	require.True(t, onClone)
}

func TestParseDirective(t *testing.T) {
	cases := []struct {
		text string
		want string
		ok   bool
	}{
		{"// @metta", "metta", true},
		{"// @language:metta", "metta", true},
		{"// @language: meta", "metta", true},
		{"/** @language : metta */", "metta", true},
		{"// not a directive", "", false},
	}
	for _, tc := range cases {
		d := parseDirective(tc.text)
		if !tc.ok {
			require.Nil(t, d, tc.text)
			continue
		}
		require.NotNil(t, d, tc.text)
		require.Equal(t, tc.want, d.Language, tc.text)
	}
}

func TestGroupDocCommentsAttachment(t *testing.T) {
	comments := []Comment{
		NewComment(Range{Start: Position{Line: 0, Byte: 0}, End: Position{Line: 0, Byte: 10}}, "/// first"),
		NewComment(Range{Start: Position{Line: 1, Byte: 11}, End: Position{Line: 1, Byte: 21}}, "/// second"),
	}
	groups := GroupDocComments(comments)
	require.Len(t, groups, 1)
	require.True(t, groups[0].AttachesTo(Position{Line: 2, Byte: 22}))
	require.False(t, groups[0].AttachesTo(Position{Line: 10, Byte: 100}))
}

func TestDocumentIRDirectiveBefore(t *testing.T) {
	comment := NewComment(Range{Start: Position{Line: 0, Byte: 0}, End: Position{Line: 0, Byte: 9}}, "// @metta")
	doc := NewDocumentIR(LangRholang, &Node{Kind: KindBlock}, []Comment{comment})

	directive := doc.DirectiveBefore(Position{Line: 1, Byte: 20})
	require.NotNil(t, directive)
	require.Equal(t, "metta", directive.Language)
}
