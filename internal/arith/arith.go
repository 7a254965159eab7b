// Package arith implements the arithmetic simplifier of spec §4.4: it
// reduces the +,*,unary- skeleton of an expression to a canonical
// sum-of-products form modulo 2^n, treating bitwise subtrees as opaque
// uninterpreted terms that must never be distributed through. This replaces
// the original source's approach of renaming bitwise operators to sympy
// Function symbols (arithm_simpl.py) with a small self-contained polynomial
// normal form, since no sympy equivalent exists in the module's dependency
// stack.
package arith

import (
	"math/big"
	"sort"
	"strings"

	"mbarw/internal/errors"
	"mbarw/internal/ir"
)

// Simplify freezes e's bitwise subtrees, expands and collects the remaining
// arithmetic skeleton into a sum of monomials with coefficients reduced
// modulo 2^width, then unfreezes the result.
func Simplify(e ir.Expr, width int) ir.Expr {
	frozen := freeze(e)
	p := toPoly(frozen)
	return unfreeze(fromPoly(p, width))
}

// frozen function names standing in for the bitwise operators while the
// arithmetic core runs. Fixed per operator kind (not per occurrence), so two
// structurally identical bitwise subtrees collect into the same monomial
// factor, matching the original's mxor/mor/mand/mnot/mrshift/mlshift scheme.
const (
	mandName    = "__mand"
	morName     = "__mor"
	mxorName    = "__mxor"
	mnotName    = "__mnot"
	mlshiftName = "__mlshift"
	mrshiftName = "__mrshift"
)

func freeze(e ir.Expr) ir.Expr {
	switch n := e.(type) {
	case *ir.Num, *ir.Var:
		return e
	case *ir.BinOp:
		switch n.Op {
		case ir.Add, ir.Sub, ir.Mul:
			return &ir.BinOp{Op: n.Op, Left: freeze(n.Left), Right: freeze(n.Right)}
		case ir.And:
			return &ir.Call{Name: mandName, Args: []ir.Expr{freeze(n.Left), freeze(n.Right)}}
		case ir.Or:
			return &ir.Call{Name: morName, Args: []ir.Expr{freeze(n.Left), freeze(n.Right)}}
		case ir.Xor:
			return &ir.Call{Name: mxorName, Args: []ir.Expr{freeze(n.Left), freeze(n.Right)}}
		case ir.Shl:
			return &ir.Call{Name: mlshiftName, Args: []ir.Expr{freeze(n.Left), freeze(n.Right)}}
		case ir.Shr:
			return &ir.Call{Name: mrshiftName, Args: []ir.Expr{freeze(n.Left), freeze(n.Right)}}
		default:
			errors.Assertionf("arith.freeze", "BinOpKind")
			return nil
		}
	case *ir.UnaryOp:
		switch n.Op {
		case ir.Neg:
			return &ir.UnaryOp{Op: ir.Neg, Operand: freeze(n.Operand)}
		case ir.Not:
			return &ir.Call{Name: mnotName, Args: []ir.Expr{freeze(n.Operand)}}
		default:
			errors.Assertionf("arith.freeze", "UnaryOpKind")
			return nil
		}
	case *ir.NAry:
		switch n.Op {
		case ir.NAdd, ir.NMul:
			children := make([]ir.Expr, len(n.Children))
			for i, c := range n.Children {
				children[i] = freeze(c)
			}
			return &ir.NAry{Op: n.Op, Children: children}
		case ir.NAnd:
			return &ir.Call{Name: mandName, Args: freezeAll(n.Children)}
		case ir.NOr:
			return &ir.Call{Name: morName, Args: freezeAll(n.Children)}
		case ir.NXor:
			return &ir.Call{Name: mxorName, Args: freezeAll(n.Children)}
		default:
			errors.Assertionf("arith.freeze", "NAryOpKind")
			return nil
		}
	case *ir.Call:
		return &ir.Call{Name: n.Name, Args: freezeAll(n.Args)}
	default:
		errors.Assertionf("arith.freeze", e.Kind())
		return nil
	}
}

func freezeAll(es []ir.Expr) []ir.Expr {
	out := make([]ir.Expr, len(es))
	for i, e := range es {
		out[i] = freeze(e)
	}
	return out
}

// unfreeze restores every opaque frozen-bitwise Call produced by freeze back
// into its original operator form. A Call whose name is not one of the six
// frozen names is a genuine opaque call (e.g. a rotation helper) and is left
// untouched aside from unfreezing its arguments.
func unfreeze(e ir.Expr) ir.Expr {
	switch n := e.(type) {
	case *ir.Num, *ir.Var:
		return e
	case *ir.BinOp:
		return &ir.BinOp{Op: n.Op, Left: unfreeze(n.Left), Right: unfreeze(n.Right)}
	case *ir.UnaryOp:
		return &ir.UnaryOp{Op: n.Op, Operand: unfreeze(n.Operand)}
	case *ir.NAry:
		children := make([]ir.Expr, len(n.Children))
		for i, c := range n.Children {
			children[i] = unfreeze(c)
		}
		return &ir.NAry{Op: n.Op, Children: children}
	case *ir.Call:
		args := make([]ir.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = unfreeze(a)
		}
		switch n.Name {
		case mandName:
			return unfreezeAssoc(ir.And, args)
		case morName:
			return unfreezeAssoc(ir.Or, args)
		case mxorName:
			return unfreezeAssoc(ir.Xor, args)
		case mnotName:
			return &ir.UnaryOp{Op: ir.Not, Operand: args[0]}
		case mlshiftName:
			return &ir.BinOp{Op: ir.Shl, Left: args[0], Right: args[1]}
		case mrshiftName:
			return &ir.BinOp{Op: ir.Shr, Left: args[0], Right: args[1]}
		default:
			return &ir.Call{Name: n.Name, Args: args}
		}
	default:
		errors.Assertionf("arith.unfreeze", e.Kind())
		return nil
	}
}

func unfreezeAssoc(op ir.BinOpKind, args []ir.Expr) ir.Expr {
	if len(args) == 1 {
		return args[0]
	}
	chain := args[0]
	for _, a := range args[1:] {
		chain = &ir.BinOp{Op: op, Left: chain, Right: a}
	}
	return chain
}

// term is one monomial: a coefficient times a multiset of opaque factors
// (Vars or opaque Calls, including frozen-bitwise ones).
type term struct {
	factors []ir.Expr
	coeff   *big.Int
}

// poly maps a monomial's canonical key to its accumulated term.
type poly map[string]*term

func newPoly() poly {
	return poly{}
}

func monomialKey(factors []ir.Expr) string {
	keys := make([]string, len(factors))
	for i, f := range factors {
		keys[i] = ir.Key(f)
	}
	sort.Strings(keys)
	return strings.Join(keys, "*")
}

func (p poly) add(factors []ir.Expr, coeff *big.Int) {
	key := monomialKey(factors)
	if t, ok := p[key]; ok {
		t.coeff.Add(t.coeff, coeff)
		return
	}
	p[key] = &term{factors: factors, coeff: new(big.Int).Set(coeff)}
}

func polyAdd(a, b poly) poly {
	r := newPoly()
	for _, t := range a {
		r.add(t.factors, t.coeff)
	}
	for _, t := range b {
		r.add(t.factors, t.coeff)
	}
	return r
}

func polyNeg(a poly) poly {
	r := newPoly()
	for _, t := range a {
		r.add(t.factors, new(big.Int).Neg(t.coeff))
	}
	return r
}

func polyMul(a, b poly) poly {
	r := newPoly()
	for _, ta := range a {
		for _, tb := range b {
			factors := make([]ir.Expr, 0, len(ta.factors)+len(tb.factors))
			factors = append(factors, ta.factors...)
			factors = append(factors, tb.factors...)
			coeff := new(big.Int).Mul(ta.coeff, tb.coeff)
			r.add(factors, coeff)
		}
	}
	return r
}

func polyOne() poly {
	r := newPoly()
	r.add(nil, big.NewInt(1))
	return r
}

func toPoly(e ir.Expr) poly {
	switch n := e.(type) {
	case *ir.Num:
		r := newPoly()
		r.add(nil, n.Value)
		return r
	case *ir.Var:
		r := newPoly()
		r.add([]ir.Expr{n}, big.NewInt(1))
		return r
	case *ir.BinOp:
		switch n.Op {
		case ir.Add:
			return polyAdd(toPoly(n.Left), toPoly(n.Right))
		case ir.Sub:
			return polyAdd(toPoly(n.Left), polyNeg(toPoly(n.Right)))
		case ir.Mul:
			return polyMul(toPoly(n.Left), toPoly(n.Right))
		default:
			errors.Assertionf("arith.toPoly", "BinOpKind")
			return nil
		}
	case *ir.UnaryOp:
		if n.Op == ir.Neg {
			return polyNeg(toPoly(n.Operand))
		}
		errors.Assertionf("arith.toPoly", "UnaryOpKind")
		return nil
	case *ir.NAry:
		switch n.Op {
		case ir.NAdd:
			acc := newPoly()
			for _, c := range n.Children {
				acc = polyAdd(acc, toPoly(c))
			}
			return acc
		case ir.NMul:
			acc := polyOne()
			for _, c := range n.Children {
				acc = polyMul(acc, toPoly(c))
			}
			return acc
		default:
			errors.Assertionf("arith.toPoly", "NAryOpKind")
			return nil
		}
	case *ir.Call:
		r := newPoly()
		r.add([]ir.Expr{n}, big.NewInt(1))
		return r
	default:
		errors.Assertionf("arith.toPoly", e.Kind())
		return nil
	}
}

// fromPoly rebuilds a BinOp-chain expression from p, dropping zero-coefficient
// monomials and reducing every surviving coefficient modulo 2^width.
func fromPoly(p poly, width int) ir.Expr {
	type entry struct {
		key  string
		t    *term
		coef *big.Int
	}
	var entries []entry
	for key, t := range p {
		coef := ir.Mod(t.coeff, width)
		if coef.Sign() == 0 {
			continue
		}
		entries = append(entries, entry{key: key, t: t, coef: coef})
	}
	if len(entries) == 0 {
		return ir.NewNumInt64(0, width)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	termExpr := func(en entry) ir.Expr {
		factors := append([]ir.Expr{}, en.t.factors...)
		sort.Slice(factors, func(i, j int) bool { return ir.Key(factors[i]) < ir.Key(factors[j]) })
		if len(factors) == 0 {
			return ir.NewNum(en.coef, width)
		}
		product := factors[0]
		for _, f := range factors[1:] {
			product = &ir.BinOp{Op: ir.Mul, Left: product, Right: f}
		}
		if en.coef.Cmp(big.NewInt(1)) == 0 {
			return product
		}
		return &ir.BinOp{Op: ir.Mul, Left: ir.NewNum(en.coef, width), Right: product}
	}

	sum := termExpr(entries[0])
	for _, en := range entries[1:] {
		sum = &ir.BinOp{Op: ir.Add, Left: sum, Right: termExpr(en)}
	}
	return sum
}
