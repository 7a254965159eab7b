package ir

import "mbarw/internal/errors"

// Rewidth rewrites every Num literal in e to width, reducing its value
// modulo 2^width. internal/simplify's driver calls it at the end of every
// pass to reduce all literals to the working width.
func Rewidth(e Expr, width int) Expr {
	switch n := e.(type) {
	case *Num:
		return NewNum(n.Value, width)
	case *Var:
		return n
	case *BinOp:
		return &BinOp{Op: n.Op, Left: Rewidth(n.Left, width), Right: Rewidth(n.Right, width)}
	case *UnaryOp:
		return &UnaryOp{Op: n.Op, Operand: Rewidth(n.Operand, width)}
	case *NAry:
		children := make([]Expr, len(n.Children))
		for i, c := range n.Children {
			children[i] = Rewidth(c, width)
		}
		return &NAry{Op: n.Op, Children: children}
	case *Call:
		args := make([]Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = Rewidth(a, width)
		}
		return &Call{Name: n.Name, Args: args}
	default:
		errors.Assertionf("ir.Rewidth", e.Kind())
		return nil
	}
}
