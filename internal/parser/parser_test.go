package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"mbarw/internal/ir"
)

func TestParseExprRespectsPrecedence(t *testing.T) {
	// x | y ^ z & w should parse as x | (y ^ (z & w)).
	e, err := ParseExpr("x | y ^ z & w", 8)
	require.NoError(t, err)
	top := e.(*ir.BinOp)
	require.Equal(t, ir.Or, top.Op)
	require.Equal(t, "x", top.Left.(*ir.Var).Name)
	xorNode := top.Right.(*ir.BinOp)
	require.Equal(t, ir.Xor, xorNode.Op)
	andNode := xorNode.Right.(*ir.BinOp)
	require.Equal(t, ir.And, andNode.Op)
}

func TestParseExprMultiplyBindsTighterThanAdd(t *testing.T) {
	e, err := ParseExpr("a + b * c", 8)
	require.NoError(t, err)
	top := e.(*ir.BinOp)
	require.Equal(t, ir.Add, top.Op)
	mul := top.Right.(*ir.BinOp)
	require.Equal(t, ir.Mul, mul.Op)
}

func TestParseExprParenthesesOverridePrecedence(t *testing.T) {
	e, err := ParseExpr("(a + b) * c", 8)
	require.NoError(t, err)
	top := e.(*ir.BinOp)
	require.Equal(t, ir.Mul, top.Op)
	add := top.Left.(*ir.BinOp)
	require.Equal(t, ir.Add, add.Op)
}

func TestParseExprUnaryPrefixes(t *testing.T) {
	e, err := ParseExpr("~-x", 8)
	require.NoError(t, err)
	not := e.(*ir.UnaryOp)
	require.Equal(t, ir.Not, not.Op)
	neg := not.Operand.(*ir.UnaryOp)
	require.Equal(t, ir.Neg, neg.Op)
}

func TestParseExprCallWithArgs(t *testing.T) {
	e, err := ParseExpr("rol(x, 3)", 8)
	require.NoError(t, err)
	call := e.(*ir.Call)
	require.Equal(t, "rol", call.Name)
	require.Len(t, call.Args, 2)
}

func TestParseExprHexLiteral(t *testing.T) {
	e, err := ParseExpr("0xff", 8)
	require.NoError(t, err)
	num := e.(*ir.Num)
	require.Equal(t, "255", num.Value.String())
}

func TestParseExprTrailingTokenIsAnError(t *testing.T) {
	_, err := ParseExpr("x + y )", 8)
	require.Error(t, err)
}

func TestParseExprRejectsInvalidSyntax(t *testing.T) {
	_, err := ParseExpr("x + ", 8)
	require.Error(t, err)
}

func TestParseProgramParsesStatementsThenFinal(t *testing.T) {
	prog, err := ParseProgram("t0 = x + y; t1 = t0 * 2; t1 ^ t0", 8)
	require.NoError(t, err)
	require.Len(t, prog.Statements, 2)
	require.Equal(t, "t0", prog.Statements[0].Name)
	require.Equal(t, "t1", prog.Statements[1].Name)
	final := prog.Final.(*ir.BinOp)
	require.Equal(t, ir.Xor, final.Op)
}

func TestParseProgramRequiresFinalExpression(t *testing.T) {
	_, err := ParseProgram("t0 = x + y;", 8)
	require.Error(t, err)
}

func TestParseProgramSingleBareExpression(t *testing.T) {
	prog, err := ParseProgram("a + b", 8)
	require.NoError(t, err)
	require.Empty(t, prog.Statements)
	require.NotNil(t, prog.Final)
}
