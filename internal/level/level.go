// Package level implements the N-ary leveling/unleveling transform of spec
// §4.2: turning maximal chains of one associative+commutative operator into
// a single NAry node, and back.
package level

import (
	"mbarw/internal/errors"
	"mbarw/internal/ir"
)

// Level rewrites every maximal chain of a leveled operator into an NAry
// node. If filter is non-nil, only that operator is leveled; otherwise
// every associative+commutative operator is.
func Level(e ir.Expr, filter *ir.BinOpKind) ir.Expr {
	switch n := e.(type) {
	case *ir.Num, *ir.Var:
		return e
	case *ir.BinOp:
		left := Level(n.Left, filter)
		right := Level(n.Right, filter)
		if narOp, ok := ir.NAryOpFor(n.Op); ok && (filter == nil || *filter == n.Op) {
			children := append(flattenLeveled(narOp, left), flattenLeveled(narOp, right)...)
			return &ir.NAry{Op: narOp, Children: children}
		}
		return &ir.BinOp{Op: n.Op, Left: left, Right: right}
	case *ir.UnaryOp:
		return &ir.UnaryOp{Op: n.Op, Operand: Level(n.Operand, filter)}
	case *ir.NAry:
		// Already leveled; re-level children (they may contain un-leveled
		// sub-chains if this NAry was built by a pass other than Level) and
		// re-flatten against our own operator.
		var children []ir.Expr
		for _, c := range n.Children {
			children = append(children, flattenLeveled(n.Op, Level(c, filter))...)
		}
		return &ir.NAry{Op: n.Op, Children: children}
	case *ir.Call:
		args := make([]ir.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = Level(a, filter)
		}
		return &ir.Call{Name: n.Name, Args: args}
	default:
		errors.Assertionf("level.Level", e.Kind())
		return nil
	}
}

// flattenLeveled returns e's children if e is already an NAry of op,
// otherwise the single-element slice [e]. Used to splice an already-leveled
// subtree into its parent's child list instead of nesting (spec invariant:
// "NAry nodes never contain a direct child whose top operator equals the
// parent's").
func flattenLeveled(op ir.NAryOpKind, e ir.Expr) []ir.Expr {
	if n, ok := e.(*ir.NAry); ok && n.Op == op {
		return n.Children
	}
	return []ir.Expr{e}
}

// Unlevel is the inverse of Level: it rebuilds a left-spine BinOp chain from
// every NAry node in e.
func Unlevel(e ir.Expr) ir.Expr {
	switch n := e.(type) {
	case *ir.Num, *ir.Var:
		return e
	case *ir.BinOp:
		return &ir.BinOp{Op: n.Op, Left: Unlevel(n.Left), Right: Unlevel(n.Right)}
	case *ir.UnaryOp:
		return &ir.UnaryOp{Op: n.Op, Operand: Unlevel(n.Operand)}
	case *ir.NAry:
		children := make([]ir.Expr, len(n.Children))
		for i, c := range n.Children {
			children[i] = Unlevel(c)
		}
		op := n.Op.BinOp()
		chain := children[0]
		for _, c := range children[1:] {
			chain = &ir.BinOp{Op: op, Left: chain, Right: c}
		}
		return chain
	case *ir.Call:
		args := make([]ir.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = Unlevel(a)
		}
		return &ir.Call{Name: n.Name, Args: args}
	default:
		errors.Assertionf("level.Unlevel", e.Kind())
		return nil
	}
}
