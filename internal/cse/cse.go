// Package cse implements the optional CSE preprocessor of spec §4.8: it
// turns a monolithic expression into a sequence of let-bindings, hoisting
// each repeated interior subtree into its own temporary exactly once.
// Grounded on the shape of the original source's tools/cse.py (count uses,
// then forward-substitute single-use temporaries back in) adapted to this
// engine's IR instead of operating on Python ast nodes.
package cse

import (
	"fmt"

	"mbarw/internal/errors"
	"mbarw/internal/ir"
)

// Statement is one `name = expr` binding produced by Extract.
type Statement struct {
	Name  string
	Value ir.Expr
}

// Program is a CSE'd expression: zero or more bindings followed by the
// (possibly rewritten) final expression.
type Program struct {
	Statements []Statement
	Final      ir.Expr
}

// Extract counts every interior (non-leaf) subtree's occurrences by
// structural key and hoists each subtree used more than once into a
// temporary `tN`, innermost repeats first so a temporary's own definition
// never itself contains another temporary reference for a subtree that
// hasn't been bound yet.
func Extract(e ir.Expr) *Program {
	counts := map[string]int{}
	var count func(ir.Expr)
	count = func(e ir.Expr) {
		if isLeaf(e) {
			return
		}
		counts[ir.Key(e)]++
		for _, c := range children(e) {
			count(c)
		}
	}
	count(e)

	bound := map[string]string{} // key -> temp name
	var stmts []Statement
	next := 0

	var rewrite func(ir.Expr) ir.Expr
	rewrite = func(e ir.Expr) ir.Expr {
		if isLeaf(e) {
			return e
		}
		rewritten := rebuild(e, rewrite)
		key := ir.Key(e)
		if counts[key] > 1 {
			if name, ok := bound[key]; ok {
				return &ir.Var{Name: name}
			}
			name := fmt.Sprintf("t%d", next)
			next++
			bound[key] = name
			stmts = append(stmts, Statement{Name: name, Value: rewritten})
			return &ir.Var{Name: name}
		}
		return rewritten
	}

	final := rewrite(e)
	return &Program{Statements: stmts, Final: final}
}

func isLeaf(e ir.Expr) bool {
	switch e.(type) {
	case *ir.Num, *ir.Var:
		return true
	default:
		return false
	}
}

func children(e ir.Expr) []ir.Expr {
	switch n := e.(type) {
	case *ir.BinOp:
		return []ir.Expr{n.Left, n.Right}
	case *ir.UnaryOp:
		return []ir.Expr{n.Operand}
	case *ir.NAry:
		return n.Children
	case *ir.Call:
		return n.Args
	default:
		errors.Assertionf("cse.children", e.Kind())
		return nil
	}
}

// rebuild reconstructs e with each child replaced by rewrite(child).
func rebuild(e ir.Expr, rewrite func(ir.Expr) ir.Expr) ir.Expr {
	switch n := e.(type) {
	case *ir.BinOp:
		return &ir.BinOp{Op: n.Op, Left: rewrite(n.Left), Right: rewrite(n.Right)}
	case *ir.UnaryOp:
		return &ir.UnaryOp{Op: n.Op, Operand: rewrite(n.Operand)}
	case *ir.NAry:
		children := make([]ir.Expr, len(n.Children))
		for i, c := range n.Children {
			children[i] = rewrite(c)
		}
		return &ir.NAry{Op: n.Op, Children: children}
	case *ir.Call:
		args := make([]ir.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = rewrite(a)
		}
		return &ir.Call{Name: n.Name, Args: args}
	default:
		errors.Assertionf("cse.rebuild", e.Kind())
		return nil
	}
}
