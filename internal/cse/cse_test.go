package cse

import (
	"testing"

	"github.com/stretchr/testify/require"

	"mbarw/internal/ir"
)

func TestExtractLeavesNonRepeatedExprAlone(t *testing.T) {
	e := &ir.BinOp{Op: ir.Add, Left: &ir.Var{Name: "x"}, Right: &ir.Var{Name: "y"}}
	p := Extract(e)
	require.Empty(t, p.Statements)
	require.True(t, ir.Equal(e, p.Final))
}

func TestExtractHoistsSingleRepeatedSubtree(t *testing.T) {
	and := func() ir.Expr {
		return &ir.BinOp{Op: ir.And, Left: &ir.Var{Name: "x"}, Right: &ir.Var{Name: "y"}}
	}
	e := &ir.BinOp{Op: ir.Add, Left: and(), Right: and()}
	p := Extract(e)

	require.Len(t, p.Statements, 1)
	require.Equal(t, "t0", p.Statements[0].Name)
	bound, ok := p.Statements[0].Value.(*ir.BinOp)
	require.True(t, ok)
	require.Equal(t, ir.And, bound.Op)

	final := p.Final.(*ir.BinOp)
	require.Equal(t, "t0", final.Left.(*ir.Var).Name)
	require.Equal(t, "t0", final.Right.(*ir.Var).Name)
}

func TestExtractOrdersInnermostRepeatsFirst(t *testing.T) {
	and := func() ir.Expr {
		return &ir.BinOp{Op: ir.And, Left: &ir.Var{Name: "x"}, Right: &ir.Var{Name: "y"}}
	}
	outer := func() ir.Expr {
		return &ir.BinOp{Op: ir.Add, Left: and(), Right: and()}
	}
	e := &ir.BinOp{Op: ir.Mul, Left: outer(), Right: outer()}
	p := Extract(e)

	require.Len(t, p.Statements, 2)
	require.Equal(t, "t0", p.Statements[0].Name)
	require.Equal(t, ir.And, p.Statements[0].Value.(*ir.BinOp).Op)
	require.Equal(t, "t1", p.Statements[1].Name)
	require.Equal(t, ir.Add, p.Statements[1].Value.(*ir.BinOp).Op)

	final := p.Final.(*ir.BinOp)
	require.Equal(t, ir.Mul, final.Op)
	require.Equal(t, "t1", final.Left.(*ir.Var).Name)
	require.Equal(t, "t1", final.Right.(*ir.Var).Name)
}

func TestExtractDoesNotHoistLeaves(t *testing.T) {
	e := &ir.BinOp{Op: ir.Add, Left: &ir.Var{Name: "x"}, Right: &ir.Var{Name: "x"}}
	p := Extract(e)
	require.Empty(t, p.Statements)
	final := p.Final.(*ir.BinOp)
	require.Equal(t, "x", final.Left.(*ir.Var).Name)
	require.Equal(t, "x", final.Right.(*ir.Var).Name)
}
