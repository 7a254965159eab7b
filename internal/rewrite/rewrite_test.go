package rewrite

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"mbarw/internal/ir"
	"mbarw/internal/smt"
)

// nilSolver proves nothing: CheckEquivalent always answers false and
// SolveWildcard never finds a value. Every match these tests expect is
// purely syntactic, so a real z3 binary is unnecessary.
type nilSolver struct{}

var _ smt.Solver = nilSolver{}

func (nilSolver) CheckEquivalent(ctx context.Context, a, b ir.Expr, vars []string, width int) (bool, error) {
	return false, nil
}

func (nilSolver) SolveWildcard(ctx context.Context, target *big.Int, pattern ir.Expr, wildcard string, width int) (*big.Int, bool, error) {
	return nil, false, nil
}

func TestApplyOnceRewritesInteriorNode(t *testing.T) {
	// rule: A + A => 2*A
	rule := Rule{
		Name:    "double",
		Pattern: &ir.BinOp{Op: ir.Add, Left: &ir.Var{Name: "A"}, Right: &ir.Var{Name: "A"}},
		Replacement: &ir.BinOp{Op: ir.Mul, Left: ir.NewNumInt64(2, 8), Right: &ir.Var{Name: "A"}},
	}
	e := &ir.BinOp{Op: ir.Add, Left: &ir.Var{Name: "x"}, Right: &ir.Var{Name: "x"}}

	got, applied := ApplyOnce(e, []Rule{rule}, 8, nilSolver{}, context.Background())
	require.True(t, applied)
	bin := got.(*ir.BinOp)
	require.Equal(t, ir.Mul, bin.Op)
	require.Equal(t, "x", bin.Right.(*ir.Var).Name)
}

func TestApplyOnceAppliesBottomUpBeforeParent(t *testing.T) {
	// rule applies to the child (x+x), parent (and) is left untouched by the
	// single rule since it never matches And nodes.
	rule := Rule{
		Name:    "double",
		Pattern: &ir.BinOp{Op: ir.Add, Left: &ir.Var{Name: "A"}, Right: &ir.Var{Name: "A"}},
		Replacement: &ir.BinOp{Op: ir.Mul, Left: ir.NewNumInt64(2, 8), Right: &ir.Var{Name: "A"}},
	}
	e := &ir.BinOp{Op: ir.And,
		Left:  &ir.BinOp{Op: ir.Add, Left: &ir.Var{Name: "x"}, Right: &ir.Var{Name: "x"}},
		Right: &ir.Var{Name: "y"},
	}
	got, applied := ApplyOnce(e, []Rule{rule}, 8, nilSolver{}, context.Background())
	require.True(t, applied)
	bin := got.(*ir.BinOp)
	require.Equal(t, ir.And, bin.Op)
	inner := bin.Left.(*ir.BinOp)
	require.Equal(t, ir.Mul, inner.Op)
}

func TestApplyOnceLeavesUnmatchedTreeAlone(t *testing.T) {
	rule := Rule{
		Name:    "double",
		Pattern: &ir.BinOp{Op: ir.Add, Left: &ir.Var{Name: "A"}, Right: &ir.Var{Name: "A"}},
		Replacement: &ir.BinOp{Op: ir.Mul, Left: ir.NewNumInt64(2, 8), Right: &ir.Var{Name: "A"}},
	}
	e := &ir.BinOp{Op: ir.Add, Left: &ir.Var{Name: "x"}, Right: &ir.Var{Name: "y"}}
	got, applied := ApplyOnce(e, []Rule{rule}, 8, nilSolver{}, context.Background())
	require.False(t, applied)
	require.True(t, ir.Equal(e, got))
}

func TestApplyOnceNAryAssocSubset(t *testing.T) {
	// rule: A + A => 2*A, applied against one pair among three NAry children.
	rule := Rule{
		Name:    "double",
		Pattern: &ir.NAry{Op: ir.NAdd, Children: []ir.Expr{&ir.Var{Name: "A"}, &ir.Var{Name: "A"}}},
		Replacement: &ir.BinOp{Op: ir.Mul, Left: ir.NewNumInt64(2, 8), Right: &ir.Var{Name: "A"}},
	}
	e := &ir.NAry{Op: ir.NAdd, Children: []ir.Expr{
		&ir.Var{Name: "x"}, &ir.Var{Name: "x"}, &ir.Var{Name: "y"},
	}}
	got, applied := ApplyOnce(e, []Rule{rule}, 8, nilSolver{}, context.Background())
	require.True(t, applied)
	nary := got.(*ir.NAry)
	require.Len(t, nary.Children, 2)
}

func TestApplyOnceOnlyFirstMatchingRuleWins(t *testing.T) {
	first := Rule{
		Name:    "first",
		Pattern: &ir.BinOp{Op: ir.Add, Left: &ir.Var{Name: "A"}, Right: &ir.Var{Name: "A"}},
		Replacement: ir.NewNumInt64(1, 8),
	}
	second := Rule{
		Name:    "second",
		Pattern: &ir.BinOp{Op: ir.Add, Left: &ir.Var{Name: "A"}, Right: &ir.Var{Name: "A"}},
		Replacement: ir.NewNumInt64(2, 8),
	}
	e := &ir.BinOp{Op: ir.Add, Left: &ir.Var{Name: "x"}, Right: &ir.Var{Name: "x"}}
	got, applied := ApplyOnce(e, []Rule{first, second}, 8, nilSolver{}, context.Background())
	require.True(t, applied)
	require.Equal(t, "1", got.(*ir.Num).Value.String())
}
