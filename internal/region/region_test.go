package region

import (
	"testing"

	"github.com/stretchr/testify/require"

	"rholsp/internal/ir"
)

func strLit(text string, start, end int) *ir.Node {
	return &ir.Node{
		Kind: ir.KindStringLiteral,
		Name: text,
		Base: ir.NodeBase{Abs: ir.Range{Start: ir.Position{Byte: start}, End: ir.Position{Byte: end}}},
	}
}

func TestCommentDirectiveDetectorMatchesPrecedingDirective(t *testing.T) {
	lit := strLit(`"(+ 1 2)"`, 20, 29)
	comment := ir.NewComment(ir.Range{Start: ir.Position{Byte: 0}, End: ir.Position{Byte: 12}}, "// @metta")
	doc := ir.NewDocumentIR(ir.LangRholang, lit, []ir.Comment{comment})

	regions := (&CommentDirectiveDetector{}).Detect(doc)
	require.Len(t, regions, 1)
	require.Equal(t, "metta", regions[0].Language)
	require.Equal(t, SourceCommentDirective, regions[0].Source)
}

func TestSemanticAnalysisDetectorMatchesCompileChannel(t *testing.T) {
	channel := &ir.Node{Kind: ir.KindQuote, Children: []*ir.Node{strLit(`"rho:metta:compile"`, 0, 20)}}
	arg := strLit(`"(+ 1 2)"`, 21, 30)
	send := &ir.Node{Kind: ir.KindSend, Children: []*ir.Node{channel, arg}}
	doc := ir.NewDocumentIR(ir.LangRholang, send, nil)

	regions := (&SemanticAnalysisDetector{}).Detect(doc)
	require.Len(t, regions, 1)
	require.Equal(t, "metta", regions[0].Language)
	require.Equal(t, SourceSemanticAnalysis, regions[0].Source)
}

func TestChannelFlowDetectorFollowsCompilerVariable(t *testing.T) {
	decl := &ir.Node{Kind: ir.KindNewDecl, Name: "mc"}
	decl.SetMeta(ir.MetaKeyURISuffix, "rho:lang:mettaCompiler")
	channelVar := &ir.Node{Kind: ir.KindVar, Name: "mc"}
	arg := strLit(`"(+ 1 2)"`, 40, 49)
	send := &ir.Node{Kind: ir.KindSend, Children: []*ir.Node{channelVar, arg}}
	root := &ir.Node{Kind: ir.KindNew, Children: []*ir.Node{decl, send}}
	doc := ir.NewDocumentIR(ir.LangRholang, root, nil)

	regions := (&ChannelFlowDetector{}).Detect(doc)
	require.Len(t, regions, 1)
	require.Equal(t, "metta", regions[0].Language)
	require.Equal(t, SourceChannelFlow, regions[0].Source)
}

func TestDeduplicateDropsOverlappingLowerPriorityRegion(t *testing.T) {
	high := Region{Range: ir.Range{Start: ir.Position{Byte: 10}, End: ir.Position{Byte: 20}}, Source: SourceCommentDirective}
	low := Region{Range: ir.Range{Start: ir.Position{Byte: 12}, End: ir.Position{Byte: 18}}, Source: SourceSemanticAnalysis}

	kept := Deduplicate([]Region{high, low})
	require.Len(t, kept, 1)
	require.Equal(t, SourceCommentDirective, kept[0].Source)
}

func TestDeduplicateKeepsNonOverlappingRegions(t *testing.T) {
	a := Region{Range: ir.Range{Start: ir.Position{Byte: 0}, End: ir.Position{Byte: 5}}}
	b := Region{Range: ir.Range{Start: ir.Position{Byte: 10}, End: ir.Position{Byte: 15}}}

	kept := Deduplicate([]Region{a, b})
	require.Len(t, kept, 2)
}

func TestRegistryDetectAllOrdersByPriority(t *testing.T) {
	r := NewRegistry()
	require.Equal(t, "comment_directive", r.detectors[0].Name())
	require.Equal(t, "semantic_analysis", r.detectors[1].Name())
	require.Equal(t, "channel_flow", r.detectors[2].Name())
}
