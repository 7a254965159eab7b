// Package canon implements the canonicalizer transforms of spec §4.1: shape
// rewrites that erase syntactic variants the matcher should not have to
// enumerate. Each transform is shape-only; no modular reduction happens here
// beyond normalizing newly introduced literals.
package canon

import (
	"math/big"

	"mbarw/internal/errors"
	"mbarw/internal/ir"
)

// Options controls which optional canonicalization steps run. NotToInv is
// false in the zero Options, but spec's driver (internal/simplify) always
// enables it before matching, and rules.Load enables it for rule patterns,
// resolving the "sometimes applied" ambiguity flagged in spec §9.
type Options struct {
	// NotToInv rewrites ~x to (-x) + (-1). Off in the zero value; with it
	// off, ~ is left in place.
	NotToInv bool
}

// Canonicalize runs every step of spec §4.1 once, in the fixed order the
// spec specifies: Shift->Mult, Sub->Mult, optional Invert->Neg-1,
// Remove-redundant-mask.
func Canonicalize(e ir.Expr, width int, opts Options) ir.Expr {
	e = shiftToMult(e, width)
	e = subToMult(e, width)
	if opts.NotToInv {
		e = notToInv(e, width)
	}
	e = removeRedundantMask(e, width)
	return e
}

// shiftToMult rewrites `x << Num(k)`, 0 <= k < width, into `x * Num(2^k)`.
// Shifts by a non-constant amount are left untouched.
func shiftToMult(e ir.Expr, width int) ir.Expr {
	switch n := e.(type) {
	case *ir.Num, *ir.Var:
		return e
	case *ir.BinOp:
		left := shiftToMult(n.Left, width)
		right := shiftToMult(n.Right, width)
		if n.Op == ir.Shl {
			if k, ok := right.(*ir.Num); ok && k.Value.Sign() >= 0 && k.Value.Cmp(big.NewInt(int64(width))) < 0 {
				pow := new(big.Int).Lsh(big.NewInt(1), uint(k.Value.Int64()))
				return &ir.BinOp{Op: ir.Mul, Left: left, Right: ir.NewNum(pow, width)}
			}
		}
		return &ir.BinOp{Op: n.Op, Left: left, Right: right}
	case *ir.UnaryOp:
		return &ir.UnaryOp{Op: n.Op, Operand: shiftToMult(n.Operand, width)}
	case *ir.NAry:
		children := make([]ir.Expr, len(n.Children))
		for i, c := range n.Children {
			children[i] = shiftToMult(c, width)
		}
		return &ir.NAry{Op: n.Op, Children: children}
	case *ir.Call:
		args := make([]ir.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = shiftToMult(a, width)
		}
		return &ir.Call{Name: n.Name, Args: args}
	default:
		errors.Assertionf("canon.shiftToMult", e.Kind())
		return nil
	}
}

// subToMult rewrites `a - b` into `a + (Num(-1) * b)`, and unary minus `-x`
// into `Num(-1) * x`. A nested constant multiplication may absorb the -1
// factor; asttools.SubToMult leaves that to constant folding instead of
// doing it inline, and so do we.
func subToMult(e ir.Expr, width int) ir.Expr {
	switch n := e.(type) {
	case *ir.Num, *ir.Var:
		return e
	case *ir.BinOp:
		left := subToMult(n.Left, width)
		right := subToMult(n.Right, width)
		if n.Op == ir.Sub {
			negRight := &ir.BinOp{Op: ir.Mul, Left: ir.NewNumInt64(-1, width), Right: right}
			return &ir.BinOp{Op: ir.Add, Left: left, Right: negRight}
		}
		return &ir.BinOp{Op: n.Op, Left: left, Right: right}
	case *ir.UnaryOp:
		operand := subToMult(n.Operand, width)
		if n.Op == ir.Neg {
			return &ir.BinOp{Op: ir.Mul, Left: ir.NewNumInt64(-1, width), Right: operand}
		}
		return &ir.UnaryOp{Op: n.Op, Operand: operand}
	case *ir.NAry:
		children := make([]ir.Expr, len(n.Children))
		for i, c := range n.Children {
			children[i] = subToMult(c, width)
		}
		return &ir.NAry{Op: n.Op, Children: children}
	case *ir.Call:
		args := make([]ir.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = subToMult(a, width)
		}
		return &ir.Call{Name: n.Name, Args: args}
	default:
		errors.Assertionf("canon.subToMult", e.Kind())
		return nil
	}
}

// notToInv rewrites `~x` into `(-x) + (-1)` (spec §4.1 step 3). Applied only
// when opts.NotToInv is set.
func notToInv(e ir.Expr, width int) ir.Expr {
	switch n := e.(type) {
	case *ir.Num, *ir.Var:
		return e
	case *ir.BinOp:
		return &ir.BinOp{Op: n.Op, Left: notToInv(n.Left, width), Right: notToInv(n.Right, width)}
	case *ir.UnaryOp:
		operand := notToInv(n.Operand, width)
		if n.Op == ir.Not {
			return &ir.BinOp{
				Op:    ir.Add,
				Left:  &ir.UnaryOp{Op: ir.Neg, Operand: operand},
				Right: ir.NewNumInt64(-1, width),
			}
		}
		return &ir.UnaryOp{Op: n.Op, Operand: operand}
	case *ir.NAry:
		children := make([]ir.Expr, len(n.Children))
		for i, c := range n.Children {
			children[i] = notToInv(c, width)
		}
		return &ir.NAry{Op: n.Op, Children: children}
	case *ir.Call:
		args := make([]ir.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = notToInv(a, width)
		}
		return &ir.Call{Name: n.Name, Args: args}
	default:
		errors.Assertionf("canon.notToInv", e.Kind())
		return nil
	}
}

// removeRedundantMask rewrites `x & Num(2^width-1)` (either operand order)
// to `x`, recursively on both sides (spec §4.1 step 4).
func removeRedundantMask(e ir.Expr, width int) ir.Expr {
	allOnes := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(width)), big.NewInt(1))
	switch n := e.(type) {
	case *ir.Num, *ir.Var:
		return e
	case *ir.BinOp:
		left := removeRedundantMask(n.Left, width)
		right := removeRedundantMask(n.Right, width)
		if n.Op == ir.And {
			if num, ok := right.(*ir.Num); ok && num.Value.Cmp(allOnes) == 0 {
				return left
			}
			if num, ok := left.(*ir.Num); ok && num.Value.Cmp(allOnes) == 0 {
				return right
			}
		}
		return &ir.BinOp{Op: n.Op, Left: left, Right: right}
	case *ir.UnaryOp:
		return &ir.UnaryOp{Op: n.Op, Operand: removeRedundantMask(n.Operand, width)}
	case *ir.NAry:
		children := make([]ir.Expr, len(n.Children))
		for i, c := range n.Children {
			children[i] = removeRedundantMask(c, width)
		}
		return &ir.NAry{Op: n.Op, Children: children}
	case *ir.Call:
		args := make([]ir.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = removeRedundantMask(a, width)
		}
		return &ir.Call{Name: n.Name, Args: args}
	default:
		errors.Assertionf("canon.removeRedundantMask", e.Kind())
		return nil
	}
}
