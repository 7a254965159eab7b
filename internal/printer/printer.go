// Package printer renders IR expressions back to the surface syntax
// internal/parser accepts, parenthesizing only where operator precedence
// would otherwise change meaning. Used both for the driver's anti-growth
// guard (spec §4.7, "strictly increase the printed length") and for
// reporting simplified results at the CLI boundary.
package printer

import (
	"strings"

	"mbarw/internal/errors"
	"mbarw/internal/ir"
)

// precedence mirrors internal/parser's binaryPrecedence table; unary ops
// bind tighter than every binary operator.
func precedence(op ir.BinOpKind) int {
	switch op {
	case ir.Or:
		return 1
	case ir.Xor:
		return 2
	case ir.And:
		return 3
	case ir.Shl, ir.Shr:
		return 4
	case ir.Add, ir.Sub:
		return 5
	case ir.Mul:
		return 6
	default:
		errors.Assertionf("printer.precedence", "BinOpKind")
		return 0
	}
}

const unaryPrecedence = 7

func naryPrecedence(op ir.NAryOpKind) int {
	return precedence(op.BinOp())
}

// Print renders e as a single-line expression string.
func Print(e ir.Expr) string {
	var b strings.Builder
	write(&b, e, 0)
	return b.String()
}

func write(b *strings.Builder, e ir.Expr, parentPrec int) {
	switch n := e.(type) {
	case *ir.Num:
		b.WriteString(n.Value.String())
	case *ir.Var:
		b.WriteString(n.Name)
	case *ir.UnaryOp:
		var sym string
		switch n.Op {
		case ir.Neg:
			sym = "-"
		case ir.Not:
			sym = "~"
		default:
			errors.Assertionf("printer.write", "UnaryOpKind")
		}
		needParens := parentPrec > unaryPrecedence
		if needParens {
			b.WriteByte('(')
		}
		b.WriteString(sym)
		write(b, n.Operand, unaryPrecedence)
		if needParens {
			b.WriteByte(')')
		}
	case *ir.BinOp:
		prec := precedence(n.Op)
		needParens := prec < parentPrec
		if needParens {
			b.WriteByte('(')
		}
		write(b, n.Left, prec)
		b.WriteString(binOpSymbol(n.Op))
		// The right operand of a left-associative operator needs
		// parenthesization at equal precedence to round-trip correctly;
		// requesting prec+1 on the right forces that.
		write(b, n.Right, prec+1)
		if needParens {
			b.WriteByte(')')
		}
	case *ir.NAry:
		prec := naryPrecedence(n.Op)
		needParens := prec < parentPrec
		if needParens {
			b.WriteByte('(')
		}
		sym := binOpSymbol(n.Op.BinOp())
		for i, c := range n.Children {
			if i > 0 {
				b.WriteString(sym)
			}
			write(b, c, prec+1)
		}
		if needParens {
			b.WriteByte(')')
		}
	case *ir.Call:
		b.WriteString(n.Name)
		b.WriteByte('(')
		for i, a := range n.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			write(b, a, 0)
		}
		b.WriteByte(')')
	default:
		errors.Assertionf("printer.write", e.Kind())
	}
}

func binOpSymbol(op ir.BinOpKind) string {
	switch op {
	case ir.Add:
		return " + "
	case ir.Sub:
		return " - "
	case ir.Mul:
		return " * "
	case ir.And:
		return " & "
	case ir.Or:
		return " | "
	case ir.Xor:
		return " ^ "
	case ir.Shl:
		return " << "
	case ir.Shr:
		return " >> "
	default:
		errors.Assertionf("printer.binOpSymbol", "BinOpKind")
		return ""
	}
}

// Len returns the length of e's printed form, used by the driver's
// anti-growth guard without building an intermediate string elsewhere.
func Len(e ir.Expr) int {
	return len(Print(e))
}
