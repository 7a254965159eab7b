package ir

import (
	"fmt"
	"sort"
	"strings"

	"mbarw/internal/errors"
)

// Key returns a canonical string key for e: two expressions are considered
// structurally equal under commutative/associative reordering iff their
// Keys are equal. This is the replacement for the original source's
// process-wide hash/eq patching (spec §9 design note): ordinary map/set
// containers keyed by Key() give multiset comparison for free.
func Key(e Expr) string {
	var b strings.Builder
	writeKey(&b, e)
	return b.String()
}

func writeKey(b *strings.Builder, e Expr) {
	switch n := e.(type) {
	case *Num:
		fmt.Fprintf(b, "N%d:%s", n.Width, n.Value.String())
	case *Var:
		b.WriteByte('V')
		b.WriteString(n.Name)
	case *BinOp:
		if narOp, ok := NAryOpFor(n.Op); ok {
			leaves := flattenAssoc(narOp, n)
			writeSortedLeaves(b, narOp, leaves)
			return
		}
		l, r := Key(n.Left), Key(n.Right)
		fmt.Fprintf(b, "B%d(%s,%s)", n.Op, l, r)
	case *UnaryOp:
		fmt.Fprintf(b, "U%d(%s)", n.Op, Key(n.Operand))
	case *NAry:
		leaves := flattenAssoc(n.Op, n)
		writeSortedLeaves(b, n.Op, leaves)
	case *Call:
		keys := make([]string, len(n.Args))
		for i, a := range n.Args {
			keys[i] = Key(a)
		}
		fmt.Fprintf(b, "C%s(%s)", n.Name, strings.Join(keys, ","))
	default:
		errors.Assertionf("ir.Key", e.Kind())
	}
}

// flattenAssoc gathers every leaf of the maximal chain of NAryOpKind op
// rooted at e, descending through nested BinOp/NAry nodes of the same
// operator. This lets Key() compare two trees that denote the same
// associative chain but happen to be nested differently (e.g. a left-spine
// BinOp chain vs. its leveled NAry form) as equal, which is what spec's
// "leveling round-trip... under commutative structural equality" property
// requires.
func flattenAssoc(op NAryOpKind, e Expr) []Expr {
	switch n := e.(type) {
	case *BinOp:
		if o, ok := NAryOpFor(n.Op); ok && o == op {
			return append(flattenAssoc(op, n.Left), flattenAssoc(op, n.Right)...)
		}
	case *NAry:
		if n.Op == op {
			var leaves []Expr
			for _, c := range n.Children {
				leaves = append(leaves, flattenAssoc(op, c)...)
			}
			return leaves
		}
	}
	return []Expr{e}
}

func writeSortedLeaves(b *strings.Builder, op NAryOpKind, leaves []Expr) {
	keys := make([]string, len(leaves))
	for i, l := range leaves {
		keys[i] = Key(l)
	}
	sort.Strings(keys)
	fmt.Fprintf(b, "A%d[%s]", op, strings.Join(keys, ","))
}

// Equal reports whether a and b denote the same tree up to commutative
// reordering of Add/Mul/And/Or/Xor operands (both BinOp and NAry forms) and
// modular equality of Num literals at each node's own width.
func Equal(a, b Expr) bool {
	return Key(a) == Key(b)
}

// ModEqual reports whether two Num values are congruent modulo 2^width,
// independent of the width each literal happens to carry.
func ModEqual(a, b *Num, width int) bool {
	return Mod(a.Value, width).Cmp(Mod(b.Value, width)) == 0
}
