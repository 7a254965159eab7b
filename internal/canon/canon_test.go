package canon

import (
	"testing"

	"github.com/stretchr/testify/require"

	"mbarw/internal/ir"
)

func TestShiftToMultRewritesConstantShift(t *testing.T) {
	e := &ir.BinOp{Op: ir.Shl, Left: &ir.Var{Name: "x"}, Right: ir.NewNumInt64(3, 8)}
	got := Canonicalize(e, 8, Options{}).(*ir.BinOp)
	require.Equal(t, ir.Mul, got.Op)
	require.Equal(t, "8", got.Right.(*ir.Num).Value.String())
}

func TestShiftToMultLeavesVariableShiftAlone(t *testing.T) {
	e := &ir.BinOp{Op: ir.Shl, Left: &ir.Var{Name: "x"}, Right: &ir.Var{Name: "n"}}
	got := Canonicalize(e, 8, Options{}).(*ir.BinOp)
	require.Equal(t, ir.Shl, got.Op)
}

func TestSubToMultRewritesSubtraction(t *testing.T) {
	e := &ir.BinOp{Op: ir.Sub, Left: &ir.Var{Name: "a"}, Right: &ir.Var{Name: "b"}}
	got := Canonicalize(e, 8, Options{}).(*ir.BinOp)
	require.Equal(t, ir.Add, got.Op)
	neg := got.Right.(*ir.BinOp)
	require.Equal(t, ir.Mul, neg.Op)
	require.Equal(t, "255", neg.Left.(*ir.Num).Value.String()) // -1 mod 256
}

func TestNotToInvOnlyWhenEnabled(t *testing.T) {
	e := &ir.UnaryOp{Op: ir.Not, Operand: &ir.Var{Name: "x"}}

	untouched := Canonicalize(e, 8, Options{NotToInv: false})
	_, stillNot := untouched.(*ir.UnaryOp)
	require.True(t, stillNot)

	rewritten := Canonicalize(e, 8, Options{NotToInv: true}).(*ir.BinOp)
	require.Equal(t, ir.Add, rewritten.Op)
	require.Equal(t, ir.Neg, rewritten.Left.(*ir.UnaryOp).Op)
}

func TestRemoveRedundantMask(t *testing.T) {
	allOnes := ir.NewNumInt64(255, 8)
	e := &ir.BinOp{Op: ir.And, Left: &ir.Var{Name: "x"}, Right: allOnes}
	got := Canonicalize(e, 8, Options{})
	v, ok := got.(*ir.Var)
	require.True(t, ok)
	require.Equal(t, "x", v.Name)
}
