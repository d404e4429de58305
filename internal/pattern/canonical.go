// Package pattern implements the MeTTa pattern index (spec section 4.5):
// definitions are canonicalized to a MORK-byte form keyed for exact
// lookup, with a (head, arity) secondary index as a structural
// fallback. Canonicalization and matching are entirely self-contained —
// no general Datalog/logic-programming engine is involved, since the
// index only ever needs shape/exact-text matching, never inference.
package pattern

import (
	"fmt"
	"strconv"
	"strings"

	"rholsp/internal/ir"
)

// Canonicalize produces the MORK-byte canonical form of a MeTTa pattern
// or call-site expression: atoms and literals canonicalize to their own
// text, nested s-expressions to "(e1 e2 ...)", and every variable
// (regardless of its source name — $x, &y, 'z) canonicalizes to a
// position-numbered placeholder "$1", "$2", ... assigned in order of
// first occurrence within this call. Two occurrences of the same
// source variable canonicalize to the same placeholder, so repeated-
// variable structure ("(f $x $x)") survives; the specific chosen name
// does not, which is what lets a call site's synthesized placeholder
// arguments exact-match a stored definition's named pattern variables.
func Canonicalize(n *ir.Node) string {
	c := &canonicalizer{placeholders: make(map[string]string)}
	var b strings.Builder
	c.write(&b, n)
	return b.String()
}

type canonicalizer struct {
	placeholders map[string]string
	next         int
}

func (c *canonicalizer) placeholderFor(n *ir.Node) string {
	// Key variables by identity when unnamed (synthetic call-site
	// placeholders all share Name == ""), else by declared name so
	// repeated uses of the same pattern variable collapse together.
	key := n.Name
	if key == "" {
		key = syntheticKey(n)
	}
	if ph, ok := c.placeholders[key]; ok {
		return ph
	}
	c.next++
	ph := "$" + strconv.Itoa(c.next)
	c.placeholders[key] = ph
	return ph
}

// syntheticKey gives every unnamed placeholder node (as synthesized by
// CallSiteKey) its own identity, so distinct call-site arguments never
// collapse onto the same placeholder merely for lacking a name.
func syntheticKey(n *ir.Node) string {
	return fmt.Sprintf("@%p", n)
}

func (c *canonicalizer) write(b *strings.Builder, n *ir.Node) {
	if n == nil {
		b.WriteString("()")
		return
	}
	switch n.Kind {
	case ir.KindMettaVarRegular, ir.KindMettaVarGrounded, ir.KindMettaVarQuoted:
		b.WriteString(c.placeholderFor(n))
	case ir.KindMettaNil:
		b.WriteString("()")
	case ir.KindMettaAtom, ir.KindMettaBool, ir.KindMettaInt, ir.KindMettaFloat, ir.KindMettaString:
		b.WriteString(n.Name)
	case ir.KindMettaSExpr, ir.KindMettaDefinition, ir.KindMettaTypeAnnotation, ir.KindMettaMatch,
		ir.KindMettaGroundedQuery, ir.KindMettaLet, ir.KindMettaLambda, ir.KindMettaIf:
		b.WriteByte('(')
		for i, child := range n.Children {
			if i > 0 {
				b.WriteByte(' ')
			}
			c.write(b, child)
		}
		b.WriteByte(')')
	default:
		b.WriteString(n.Name)
	}
}

// CallSiteKey builds the canonical form for a call site with head atom
// headName and arity args, by synthesizing one placeholder argument per
// position and canonicalizing the resulting s-expression — the query
// analogue of canonicalizing a stored definition's pattern.
func CallSiteKey(headName string, arity int) string {
	children := make([]*ir.Node, 0, arity+1)
	children = append(children, &ir.Node{Kind: ir.KindMettaAtom, Name: headName})
	for i := 0; i < arity; i++ {
		children = append(children, &ir.Node{Kind: ir.KindMettaVarRegular})
	}
	return Canonicalize(&ir.Node{Kind: ir.KindMettaSExpr, Children: children})
}
