package fold

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"mbarw/internal/ir"
)

func TestFoldBinOpConstant(t *testing.T) {
	e := &ir.BinOp{Op: ir.Add, Left: ir.NewNumInt64(1, 8), Right: ir.NewNumInt64(2, 8)}
	got := Fold(e, 8).(*ir.Num)
	require.Equal(t, "3", got.Value.String())
}

func TestFoldWrapsModulo(t *testing.T) {
	e := &ir.BinOp{Op: ir.Add, Left: ir.NewNumInt64(250, 8), Right: ir.NewNumInt64(10, 8)}
	got := Fold(e, 8).(*ir.Num)
	require.Equal(t, "4", got.Value.String()) // 260 mod 256
}

func TestFoldLeavesVariablesAlone(t *testing.T) {
	e := &ir.BinOp{Op: ir.Add, Left: &ir.Var{Name: "x"}, Right: ir.NewNumInt64(2, 8)}
	got := Fold(e, 8).(*ir.BinOp)
	require.Equal(t, "x", got.Left.(*ir.Var).Name)
	require.Equal(t, "2", got.Right.(*ir.Num).Value.String())
}

func TestFoldNAryCombinesLiteralsOnly(t *testing.T) {
	e := &ir.NAry{Op: ir.NAdd, Children: []ir.Expr{
		&ir.Var{Name: "x"}, ir.NewNumInt64(2, 8), ir.NewNumInt64(3, 8),
	}}
	got := Fold(e, 8).(*ir.NAry)
	require.Len(t, got.Children, 2)
	var foundVar, foundLit bool
	for _, c := range got.Children {
		if v, ok := c.(*ir.Var); ok && v.Name == "x" {
			foundVar = true
		}
		if n, ok := c.(*ir.Num); ok && n.Value.String() == "5" {
			foundLit = true
		}
	}
	require.True(t, foundVar)
	require.True(t, foundLit)
}

func TestFoldKnownRotationCall(t *testing.T) {
	e := &ir.Call{Name: "rol", Args: []ir.Expr{ir.NewNumInt64(1, 8), ir.NewNumInt64(1, 8)}}
	got := Fold(e, 8).(*ir.Num)
	require.Equal(t, big.NewInt(2).String(), got.Value.String())
}

func TestEvalUnboundedPrecision(t *testing.T) {
	e := &ir.BinOp{Op: ir.Mul, Left: ir.NewNumInt64(1000000, 64), Right: ir.NewNumInt64(1000000, 64)}
	got := Eval(e)
	require.Equal(t, "1000000000000", got.String())
}
