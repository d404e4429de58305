package pattern

import (
	"testing"

	"github.com/stretchr/testify/require"

	"rholsp/internal/ir"
)

func sexpr(kind ir.Kind, children ...*ir.Node) *ir.Node {
	return &ir.Node{Kind: kind, Children: children}
}

func atom(name string) *ir.Node  { return &ir.Node{Kind: ir.KindMettaAtom, Name: name} }
func mvar(name string) *ir.Node  { return &ir.Node{Kind: ir.KindMettaVarRegular, Name: name} }
func lit(n int) *ir.Node         { return &ir.Node{Kind: ir.KindMettaInt, Name: itoa(n)} }

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := ""
	for n > 0 {
		digits = string(rune('0'+n%10)) + digits
		n /= 10
	}
	return digits
}

func TestCanonicalizeNormalizesVariableNames(t *testing.T) {
	patternA := sexpr(ir.KindMettaSExpr, atom("f"), mvar("x"), mvar("y"))
	patternB := sexpr(ir.KindMettaSExpr, atom("f"), mvar("a"), mvar("b"))
	require.Equal(t, Canonicalize(patternA), Canonicalize(patternB))
}

func TestCanonicalizePreservesRepeatedVariableStructure(t *testing.T) {
	repeated := sexpr(ir.KindMettaSExpr, atom("f"), mvar("x"), mvar("x"))
	distinct := sexpr(ir.KindMettaSExpr, atom("f"), mvar("x"), mvar("y"))
	require.NotEqual(t, Canonicalize(repeated), Canonicalize(distinct))
}

func TestCallSiteKeyMatchesDefinitionCanonical(t *testing.T) {
	pattern := sexpr(ir.KindMettaSExpr, atom("f"), mvar("x"), mvar("y"))
	require.Equal(t, Canonicalize(pattern), CallSiteKey("f", 2))
}

func TestCallSiteKeyDoesNotMatchDifferentArity(t *testing.T) {
	pattern := sexpr(ir.KindMettaSExpr, atom("f"), mvar("x"))
	require.NotEqual(t, Canonicalize(pattern), CallSiteKey("f", 2))
}

func TestIndexLookupCallSiteExactThenFallback(t *testing.T) {
	idx := NewIndex()
	pattern := sexpr(ir.KindMettaSExpr, atom("f"), mvar("x"), mvar("y"))
	def := &Definition{URI: "a.metta", HeadName: "f", Arity: 2, Pattern: pattern, Canonical: Canonicalize(pattern)}
	idx.Insert(def)

	exact := idx.LookupCallSite("f", 2)
	require.Len(t, exact, 1)

	fallback := idx.LookupCallSite("f", 3)
	require.Empty(t, fallback)
}

func TestIndexConcatenatedDefinitionMatchesByNameArityOnly(t *testing.T) {
	idx := NewIndex()
	def := &Definition{URI: "a.metta", HeadName: "compiled", Arity: 1}
	idx.Insert(def)

	require.Empty(t, idx.LookupExact(CallSiteKey("compiled", 1)))
	require.Len(t, idx.LookupByNameArity("compiled", 1), 1)
}

func TestIndexRemoveURIPrunesAllMaps(t *testing.T) {
	idx := NewIndex()
	pattern := sexpr(ir.KindMettaSExpr, atom("f"), mvar("x"))
	def := &Definition{URI: "a.metta", HeadName: "f", Arity: 1, Pattern: pattern, Canonical: Canonicalize(pattern)}
	idx.Insert(def)

	idx.RemoveURI("a.metta")

	require.Empty(t, idx.LookupExact(def.Canonical))
	require.Empty(t, idx.LookupByNameArity("f", 1))
}

func TestLiteralAndNilCanonicalForm(t *testing.T) {
	require.Equal(t, "42", Canonicalize(lit(42)))
	require.Equal(t, "()", Canonicalize(&ir.Node{Kind: ir.KindMettaNil}))
}
