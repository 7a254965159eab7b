package printer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"mbarw/internal/ir"
	"mbarw/internal/parser"
)

func TestPrintBasicBinOp(t *testing.T) {
	e := &ir.BinOp{Op: ir.Add, Left: &ir.Var{Name: "x"}, Right: &ir.Var{Name: "y"}}
	require.Equal(t, "x + y", Print(e))
}

func TestPrintParenthesizesLowerPrecedenceChild(t *testing.T) {
	// (x + y) * z must keep its parens: without them it would reparse as
	// x + (y * z).
	e := &ir.BinOp{Op: ir.Mul,
		Left:  &ir.BinOp{Op: ir.Add, Left: &ir.Var{Name: "x"}, Right: &ir.Var{Name: "y"}},
		Right: &ir.Var{Name: "z"},
	}
	require.Equal(t, "(x + y) * z", Print(e))
}

func TestPrintParenthesizesRightOperandAtEqualPrecedence(t *testing.T) {
	// x - (y - z) must keep parens: left-associativity means the unparenthesized
	// form means (x - y) - z instead.
	e := &ir.BinOp{Op: ir.Sub,
		Left:  &ir.Var{Name: "x"},
		Right: &ir.BinOp{Op: ir.Sub, Left: &ir.Var{Name: "y"}, Right: &ir.Var{Name: "z"}},
	}
	require.Equal(t, "x - (y - z)", Print(e))
}

func TestPrintUnaryBindsTighterThanBinary(t *testing.T) {
	e := &ir.UnaryOp{Op: ir.Not, Operand: &ir.Var{Name: "x"}}
	top := &ir.BinOp{Op: ir.And, Left: e, Right: &ir.Var{Name: "y"}}
	require.Equal(t, "~x & y", Print(top))
}

func TestPrintNAryJoinsWithOperatorSymbol(t *testing.T) {
	e := &ir.NAry{Op: ir.NAdd, Children: []ir.Expr{&ir.Var{Name: "a"}, &ir.Var{Name: "b"}, &ir.Var{Name: "c"}}}
	require.Equal(t, "a + b + c", Print(e))
}

func TestPrintCall(t *testing.T) {
	e := &ir.Call{Name: "rol", Args: []ir.Expr{&ir.Var{Name: "x"}, ir.NewNumInt64(3, 8)}}
	require.Equal(t, "rol(x, 3)", Print(e))
}

func TestPrintRoundTripsThroughParser(t *testing.T) {
	exprs := []string{
		"x + y * z",
		"(x + y) * z",
		"x - (y - z)",
		"~x & y",
		"x ^ y | z",
		"rol(x, 3)",
	}
	for _, src := range exprs {
		e, err := parser.ParseExpr(src, 8)
		require.NoError(t, err)
		printed := Print(e)
		reparsed, err := parser.ParseExpr(printed, 8)
		require.NoError(t, err)
		require.True(t, ir.Equal(e, reparsed), "round trip mismatch for %q -> %q", src, printed)
	}
}

func TestLenMatchesPrintedStringLength(t *testing.T) {
	e := &ir.BinOp{Op: ir.Add, Left: &ir.Var{Name: "x"}, Right: &ir.Var{Name: "y"}}
	require.Equal(t, len("x + y"), Len(e))
}
