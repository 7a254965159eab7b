package ir

import "mbarw/internal/errors"

// Vars returns the set of every identifier (Var.Name) occurring in e,
// wildcards included. Mirrors the teacher-independent GetVariables visitor
// from the original source.
func Vars(e Expr) map[string]bool {
	result := map[string]bool{}
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case *Num:
		case *Var:
			result[n.Name] = true
		case *BinOp:
			walk(n.Left)
			walk(n.Right)
		case *UnaryOp:
			walk(n.Operand)
		case *NAry:
			for _, c := range n.Children {
				walk(c)
			}
		case *Call:
			for _, a := range n.Args {
				walk(a)
			}
		default:
			errors.Assertionf("ir.Vars", e.Kind())
		}
	}
	walk(e)
	return result
}

// Wildcards returns the subset of Vars(e) whose names are wildcards.
func Wildcards(e Expr) map[string]bool {
	result := map[string]bool{}
	for name := range Vars(e) {
		if IsWildcardName(name) {
			result[name] = true
		}
	}
	return result
}

// IsConstExpr reports whether e is a closed constant expression: built only
// from Num nodes under BinOp/UnaryOp/NAry. A Call is never constant here
// even with constant arguments (folding calls is fold.Fold's job, which
// knows which Call names are foldable).
func IsConstExpr(e Expr) bool {
	switch n := e.(type) {
	case *Num:
		return true
	case *Var:
		return false
	case *BinOp:
		return IsConstExpr(n.Left) && IsConstExpr(n.Right)
	case *UnaryOp:
		return IsConstExpr(n.Operand)
	case *NAry:
		for _, c := range n.Children {
			if !IsConstExpr(c) {
				return false
			}
		}
		return true
	case *Call:
		return false
	default:
		errors.Assertionf("ir.IsConstExpr", e.Kind())
		return false
	}
}
