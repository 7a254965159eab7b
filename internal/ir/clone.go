package ir

import (
	"math/big"

	"mbarw/internal/errors"
)

// Clone returns a deep copy of e. Every pass in this engine treats trees as
// immutable values from the caller's perspective (spec §3 "Lifecycle"); internal
// mutation during a pass is always performed on freshly cloned nodes.
func Clone(e Expr) Expr {
	switch n := e.(type) {
	case *Num:
		return &Num{Value: new(big.Int).Set(n.Value), Width: n.Width}
	case *Var:
		return &Var{Name: n.Name}
	case *BinOp:
		return &BinOp{Op: n.Op, Left: Clone(n.Left), Right: Clone(n.Right)}
	case *UnaryOp:
		return &UnaryOp{Op: n.Op, Operand: Clone(n.Operand)}
	case *NAry:
		children := make([]Expr, len(n.Children))
		for i, c := range n.Children {
			children[i] = Clone(c)
		}
		return &NAry{Op: n.Op, Children: children}
	case *Call:
		args := make([]Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = Clone(a)
		}
		return &Call{Name: n.Name, Args: args}
	default:
		errors.Assertionf("ir.Clone", e.Kind())
		return nil
	}
}
