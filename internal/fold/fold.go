// Package fold implements constant folding (spec §4.3) and the rotation
// helper evaluation of spec §4.10. It replaces the original source's
// runtime ast.compile/eval step (spec §9 design note) with a direct
// interpreter over Num trees using width-n modular arithmetic.
package fold

import (
	"math/big"

	"mbarw/internal/errors"
	"mbarw/internal/ir"
)

// Fold walks e bottom-up and replaces every closed constant subtree (Num-only
// BinOp/UnaryOp, or an NAry node with >= 2 literal children) with its
// evaluated value, reduced modulo 2^width. Known rotation calls
// (rol/ror with two constant args) are folded too (spec §4.10); other Call
// nodes are left untouched (opaque to this pass).
func Fold(e ir.Expr, width int) ir.Expr {
	switch n := e.(type) {
	case *ir.Num:
		return ir.NewNum(n.Value, width)
	case *ir.Var:
		return n
	case *ir.BinOp:
		left := Fold(n.Left, width)
		right := Fold(n.Right, width)
		if ir.IsConstExpr(left) && ir.IsConstExpr(right) {
			return ir.NewNum(Eval(&ir.BinOp{Op: n.Op, Left: left, Right: right}), width)
		}
		return &ir.BinOp{Op: n.Op, Left: left, Right: right}
	case *ir.UnaryOp:
		operand := Fold(n.Operand, width)
		if ir.IsConstExpr(operand) {
			return ir.NewNum(Eval(&ir.UnaryOp{Op: n.Op, Operand: operand}), width)
		}
		return &ir.UnaryOp{Op: n.Op, Operand: operand}
	case *ir.NAry:
		children := make([]ir.Expr, len(n.Children))
		for i, c := range n.Children {
			children[i] = Fold(c, width)
		}
		return foldNAry(n.Op, children, width)
	case *ir.Call:
		args := make([]ir.Expr, len(n.Args))
		allConst := true
		for i, a := range n.Args {
			args[i] = Fold(a, width)
			allConst = allConst && ir.IsConstExpr(args[i])
		}
		if allConst {
			if v, ok := foldKnownCall(n.Name, args, width); ok {
				return ir.NewNum(v, width)
			}
		}
		return &ir.Call{Name: n.Name, Args: args}
	default:
		errors.Assertionf("fold.Fold", e.Kind())
		return nil
	}
}

// foldNAry folds together every literal child of a leveled node, preserving
// the rest, per spec §4.3: "an NAry node whose op is in {+,*,&,|,^}
// containing >= 2 literal children: fold those into one new literal child".
func foldNAry(op ir.NAryOpKind, children []ir.Expr, width int) ir.Expr {
	var literals []*ir.Num
	var rest []ir.Expr
	for _, c := range children {
		if num, ok := c.(*ir.Num); ok {
			literals = append(literals, num)
		} else {
			rest = append(rest, c)
		}
	}
	if len(literals) < 2 {
		return &ir.NAry{Op: op, Children: children}
	}
	acc := new(big.Int).Set(literals[0].Value)
	for _, lit := range literals[1:] {
		acc = applyNAry(op, acc, lit.Value)
	}
	folded := ir.NewNum(acc, width)
	rest = append(rest, folded)
	if len(rest) == 1 {
		return rest[0]
	}
	return &ir.NAry{Op: op, Children: rest}
}

func applyNAry(op ir.NAryOpKind, a, b *big.Int) *big.Int {
	r := new(big.Int)
	switch op {
	case ir.NAdd:
		r.Add(a, b)
	case ir.NMul:
		r.Mul(a, b)
	case ir.NAnd:
		r.And(a, b)
	case ir.NOr:
		r.Or(a, b)
	case ir.NXor:
		r.Xor(a, b)
	default:
		errors.Assertionf("fold.applyNAry", "NAryOpKind")
	}
	return r
}

// Eval evaluates a closed constant expression exactly (unbounded precision);
// callers are responsible for reducing the result modulo 2^width afterward.
// Panics (via errors.Assertionf) if e is not a constant expression.
func Eval(e ir.Expr) *big.Int {
	switch n := e.(type) {
	case *ir.Num:
		return new(big.Int).Set(n.Value)
	case *ir.BinOp:
		l, r := Eval(n.Left), Eval(n.Right)
		res := new(big.Int)
		switch n.Op {
		case ir.Add:
			res.Add(l, r)
		case ir.Sub:
			res.Sub(l, r)
		case ir.Mul:
			res.Mul(l, r)
		case ir.And:
			res.And(l, r)
		case ir.Or:
			res.Or(l, r)
		case ir.Xor:
			res.Xor(l, r)
		case ir.Shl:
			res.Lsh(l, uint(r.Int64()))
		case ir.Shr:
			res.Rsh(l, uint(r.Int64()))
		default:
			errors.Assertionf("fold.Eval", "BinOpKind")
		}
		return res
	case *ir.UnaryOp:
		v := Eval(n.Operand)
		res := new(big.Int)
		switch n.Op {
		case ir.Neg:
			res.Neg(v)
		case ir.Not:
			res.Not(v)
		default:
			errors.Assertionf("fold.Eval", "UnaryOpKind")
		}
		return res
	case *ir.NAry:
		acc := Eval(n.Children[0])
		for _, c := range n.Children[1:] {
			acc = applyNAry(n.Op, acc, Eval(c))
		}
		return acc
	default:
		errors.Assertionf("fold.Eval", e.Kind())
		return nil
	}
}

// foldKnownCall evaluates the rotation helpers named in spec §4.10. maxbits
// is the current working width; rbits is reduced modulo maxbits as the
// original sspam_rol/sspam_ror do.
func foldKnownCall(name string, args []ir.Expr, width int) (*big.Int, bool) {
	if len(args) != 2 {
		return nil, false
	}
	val := Eval(args[0])
	rbits := Eval(args[1])
	maxbits := big.NewInt(int64(width))
	rb := new(big.Int).Mod(rbits, maxbits)
	switch name {
	case "rol":
		return rotate(val, rb.Uint64(), width, true), true
	case "ror":
		return rotate(val, rb.Uint64(), width, false), true
	default:
		return nil, false
	}
}

// rotate implements sspam_rol/sspam_ror's formula directly (operator_evaluation.py).
func rotate(val *big.Int, rbits uint64, maxbits int, left bool) *big.Int {
	mask := new(big.Int).Sub(modulus2(maxbits), big.NewInt(1))
	v := new(big.Int).And(val, mask)
	if left {
		upper := new(big.Int).And(new(big.Int).Lsh(v, uint(rbits)), mask)
		lower := new(big.Int).Rsh(v, uint(uint64(maxbits)-rbits%uint64(maxbits)))
		return new(big.Int).Or(upper, lower)
	}
	lower := new(big.Int).Rsh(v, uint(rbits%uint64(maxbits)))
	upper := new(big.Int).And(new(big.Int).Lsh(v, uint(uint64(maxbits)-rbits%uint64(maxbits))), mask)
	return new(big.Int).Or(upper, lower)
}

func modulus2(width int) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(width))
}
