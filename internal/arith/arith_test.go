package arith

import (
	"testing"

	"github.com/stretchr/testify/require"

	"mbarw/internal/ir"
)

func TestSimplifyCollectsRepeatedVariable(t *testing.T) {
	// x + x -> 2*x
	e := &ir.BinOp{Op: ir.Add, Left: &ir.Var{Name: "x"}, Right: &ir.Var{Name: "x"}}
	got := Simplify(e, 8).(*ir.BinOp)
	require.Equal(t, ir.Mul, got.Op)
	coef := got.Left.(*ir.Num)
	require.Equal(t, "2", coef.Value.String())
	require.Equal(t, "x", got.Right.(*ir.Var).Name)
}

func TestSimplifyCancelsOppositeTerms(t *testing.T) {
	// x + (-1 * x) -> 0
	e := &ir.BinOp{Op: ir.Add,
		Left:  &ir.Var{Name: "x"},
		Right: &ir.BinOp{Op: ir.Mul, Left: ir.NewNumInt64(-1, 8), Right: &ir.Var{Name: "x"}},
	}
	got := Simplify(e, 8).(*ir.Num)
	require.Equal(t, "0", got.Value.String())
}

func TestSimplifyNeverDistributesThroughBitwiseTerm(t *testing.T) {
	// 2*(x & y) must stay a product of a literal and an opaque And subtree,
	// never expanding the And.
	and := &ir.BinOp{Op: ir.And, Left: &ir.Var{Name: "x"}, Right: &ir.Var{Name: "y"}}
	e := &ir.BinOp{Op: ir.Mul, Left: ir.NewNumInt64(2, 8), Right: and}
	got := Simplify(e, 8)

	bin, ok := got.(*ir.BinOp)
	require.True(t, ok)
	require.Equal(t, ir.Mul, bin.Op)

	var andSide ir.Expr
	if _, isNum := bin.Left.(*ir.Num); isNum {
		andSide = bin.Right
	} else {
		andSide = bin.Left
	}
	restored, ok := andSide.(*ir.BinOp)
	require.True(t, ok)
	require.Equal(t, ir.And, restored.Op)
}

func TestSimplifyReducesCoefficientModulo(t *testing.T) {
	// 200*x + 100*x = 300*x, reduced mod 256 to 44*x.
	e := &ir.BinOp{Op: ir.Add,
		Left:  &ir.BinOp{Op: ir.Mul, Left: ir.NewNumInt64(200, 8), Right: &ir.Var{Name: "x"}},
		Right: &ir.BinOp{Op: ir.Mul, Left: ir.NewNumInt64(100, 8), Right: &ir.Var{Name: "x"}},
	}
	got := Simplify(e, 8).(*ir.BinOp)
	require.Equal(t, "44", got.Left.(*ir.Num).Value.String())
}
