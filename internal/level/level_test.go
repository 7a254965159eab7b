package level

import (
	"testing"

	"github.com/stretchr/testify/require"

	"mbarw/internal/ir"
)

func TestLevelFlattensMaximalChain(t *testing.T) {
	e := &ir.BinOp{Op: ir.Add,
		Left:  &ir.BinOp{Op: ir.Add, Left: &ir.Var{Name: "x"}, Right: &ir.Var{Name: "y"}},
		Right: &ir.Var{Name: "z"},
	}
	got := Level(e, nil).(*ir.NAry)
	require.Equal(t, ir.NAdd, got.Op)
	require.Len(t, got.Children, 3)
}

func TestLevelWithFilterIgnoresOtherOperators(t *testing.T) {
	addOp := ir.Add
	e := &ir.BinOp{Op: ir.Mul, Left: &ir.Var{Name: "x"}, Right: &ir.Var{Name: "y"}}
	got := Level(e, &addOp)
	_, isBinOp := got.(*ir.BinOp)
	require.True(t, isBinOp, "Mul should stay a BinOp when filtering on Add")
}

func TestLevelDoesNotNestSameOperator(t *testing.T) {
	inner := &ir.NAry{Op: ir.NAdd, Children: []ir.Expr{&ir.Var{Name: "a"}, &ir.Var{Name: "b"}}}
	e := &ir.BinOp{Op: ir.Add, Left: inner, Right: &ir.Var{Name: "c"}}
	got := Level(e, nil).(*ir.NAry)
	require.Len(t, got.Children, 3)
	for _, c := range got.Children {
		if n, ok := c.(*ir.NAry); ok {
			require.NotEqual(t, ir.NAdd, n.Op, "no child may itself be an NAdd when the parent already is")
		}
	}
}

func TestUnlevelIsLevelsInverseUnderEquality(t *testing.T) {
	e := &ir.BinOp{Op: ir.Add,
		Left:  &ir.Var{Name: "x"},
		Right: &ir.BinOp{Op: ir.Add, Left: &ir.Var{Name: "y"}, Right: &ir.Var{Name: "z"}},
	}
	leveled := Level(e, nil)
	roundTripped := Unlevel(leveled)
	require.True(t, ir.Equal(e, roundTripped))
}
