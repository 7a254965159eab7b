package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyCommutativeReordering(t *testing.T) {
	a := &BinOp{Op: Add, Left: &Var{Name: "x"}, Right: &Var{Name: "y"}}
	b := &BinOp{Op: Add, Left: &Var{Name: "y"}, Right: &Var{Name: "x"}}
	require.True(t, Equal(a, b), "x+y and y+x should be Key-equal")
}

func TestKeyDistinguishesNonCommutative(t *testing.T) {
	a := &BinOp{Op: Sub, Left: &Var{Name: "x"}, Right: &Var{Name: "y"}}
	b := &BinOp{Op: Sub, Left: &Var{Name: "y"}, Right: &Var{Name: "x"}}
	require.False(t, Equal(a, b), "x-y and y-x must not be Key-equal")
}

func TestKeyFlattensNestedAssociativeChains(t *testing.T) {
	// (x + y) + z, leveled NAry form, and a right-leaning BinOp chain all
	// denote the same 3-operand sum.
	left := &BinOp{Op: Add, Left: &BinOp{Op: Add, Left: &Var{Name: "x"}, Right: &Var{Name: "y"}}, Right: &Var{Name: "z"}}
	nary := &NAry{Op: NAdd, Children: []Expr{&Var{Name: "z"}, &Var{Name: "x"}, &Var{Name: "y"}}}
	right := &BinOp{Op: Add, Left: &Var{Name: "x"}, Right: &BinOp{Op: Add, Left: &Var{Name: "y"}, Right: &Var{Name: "z"}}}

	require.True(t, Equal(left, nary))
	require.True(t, Equal(nary, right))
}

func TestNumNormalizesModulo(t *testing.T) {
	n := NewNumInt64(-1, 8)
	require.Equal(t, "255", n.Value.String())
}

func TestInferWidthPicksSmallestBucket(t *testing.T) {
	require.Equal(t, 8, InferWidth(NewNumInt64(200, 64)))
	require.Equal(t, 16, InferWidth(NewNumInt64(1000, 64)))
	require.Equal(t, DefaultWidth, InferWidth(&Var{Name: "x"}))
}

func TestIsWildcardName(t *testing.T) {
	require.True(t, IsWildcardName("A"))
	require.True(t, IsWildcardName("WILD"))
	require.False(t, IsWildcardName(""))
	require.False(t, IsWildcardName("a"))
	require.False(t, IsWildcardName("Ab"))
}

func TestCloneProducesIndependentTree(t *testing.T) {
	orig := &BinOp{Op: Add, Left: &Var{Name: "x"}, Right: NewNumInt64(5, 8)}
	cloned := Clone(orig).(*BinOp)

	require.True(t, Equal(orig, cloned))
	// Mutating the clone's subtree must not affect the original.
	cloned.Left.(*Var).Name = "y"
	require.Equal(t, "x", orig.Left.(*Var).Name)
}

func TestVarsAndWildcards(t *testing.T) {
	e := &BinOp{Op: Add, Left: &Var{Name: "A"}, Right: &BinOp{Op: Mul, Left: &Var{Name: "x"}, Right: &Var{Name: "B"}}}
	vars := Vars(e)
	require.Len(t, vars, 3)
	require.True(t, vars["A"] && vars["x"] && vars["B"])

	wild := Wildcards(e)
	require.Len(t, wild, 2)
	require.True(t, wild["A"] && wild["B"])
}

func TestIsConstExpr(t *testing.T) {
	require.True(t, IsConstExpr(&BinOp{Op: Add, Left: NewNumInt64(1, 8), Right: NewNumInt64(2, 8)}))
	require.False(t, IsConstExpr(&BinOp{Op: Add, Left: NewNumInt64(1, 8), Right: &Var{Name: "x"}}))
}

func TestRewidthNormalizesEveryLiteral(t *testing.T) {
	e := &BinOp{Op: Add, Left: NewNumInt64(300, 64), Right: &Var{Name: "x"}}
	r := Rewidth(e, 8).(*BinOp)
	require.Equal(t, 8, r.Left.(*Num).Width)
	require.Equal(t, "44", r.Left.(*Num).Value.String()) // 300 mod 256
}
