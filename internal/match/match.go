// Package match implements the pattern matcher of spec §4.5: structural
// matching of a pattern (an IR expression whose upper-case Vars are
// wildcards) against a target, modulo commutative/associative reordering,
// with an SMT bit-vector fallback for shape mismatches syntactic matching
// cannot resolve. Grounded on the original source's
// pattern_matcher.PatternMatcher, replacing its ast-hash-patched wildcard
// dict with an explicit, snapshot/restore-able Bindings map.
package match

import (
	"context"
	"math/big"

	"mbarw/internal/errors"
	"mbarw/internal/ir"
	"mbarw/internal/smt"
)

// Bindings maps a wildcard name to the subtree it is bound to.
type Bindings map[string]ir.Expr

// Clone returns an independent copy of b, used to snapshot state before a
// speculative match attempt so a failed attempt never leaks partial
// assignments into the caller's binding (spec §4.5's "snapshotting the
// binding so failed attempts do not leak partial assignments").
func (b Bindings) Clone() Bindings {
	out := make(Bindings, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Matcher holds the per-call state of one top-level match invocation: the
// working width, an SMT solver for the fallback paths, and the root target
// of the current Match call. The root is recorded only; no dead-binding
// list is kept, so retries at the root are not pruned.
type Matcher struct {
	Width  int
	Solver smt.Solver
	// Ctx bounds SMT calls; New substitutes context.Background() when it
	// is given a nil context.
	Ctx context.Context

	root ir.Expr
}

// New creates a Matcher for one top-level Match call.
func New(width int, solver smt.Solver, ctx context.Context) *Matcher {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Matcher{Width: width, Solver: solver, Ctx: ctx}
}

// Match attempts to match pattern against target, returning the resulting
// bindings on success.
func (m *Matcher) Match(target, pattern ir.Expr) (Bindings, bool) {
	m.root = target
	b := Bindings{}
	if m.match(target, pattern, b) {
		return b, true
	}
	return nil, false
}

func (m *Matcher) match(target, pattern ir.Expr, b Bindings) bool {
	if v, ok := pattern.(*ir.Var); ok && ir.IsWildcardName(v.Name) {
		return m.matchWildcard(target, v.Name, b)
	}

	switch p := pattern.(type) {
	case *ir.Num:
		if t, ok := target.(*ir.Num); ok {
			return ir.ModEqual(t, p, m.Width)
		}
		return m.checkPattern(target, pattern, b)
	case *ir.Var:
		if t, ok := target.(*ir.Var); ok {
			return t.Name == p.Name
		}
		return m.checkPattern(target, pattern, b)
	case *ir.UnaryOp:
		t, ok := target.(*ir.UnaryOp)
		if !ok || t.Op != p.Op {
			return m.checkPattern(target, pattern, b)
		}
		return m.match(t.Operand, p.Operand, b)
	case *ir.BinOp:
		t, ok := target.(*ir.BinOp)
		if !ok || t.Op != p.Op {
			return m.checkPattern(target, pattern, b)
		}
		return m.matchBinOp(t, p, b)
	case *ir.NAry:
		t, ok := target.(*ir.NAry)
		if !ok || t.Op != p.Op || len(t.Children) != len(p.Children) {
			return m.checkPattern(target, pattern, b)
		}
		return m.matchNAry(t, p, b)
	case *ir.Call:
		t, ok := target.(*ir.Call)
		if !ok || t.Name != p.Name || len(t.Args) != len(p.Args) {
			return m.checkPattern(target, pattern, b)
		}
		for i := range p.Args {
			if !m.match(t.Args[i], p.Args[i], b) {
				return false
			}
		}
		return true
	default:
		errors.Assertionf("match.match", pattern.Kind())
		return false
	}
}

func (m *Matcher) matchWildcard(target ir.Expr, name string, b Bindings) bool {
	existing, bound := b[name]
	if !bound {
		b[name] = target
		return true
	}
	if ir.Equal(existing, target) {
		return true
	}
	ok, _ := m.Solver.CheckEquivalent(m.Ctx, existing, target, varsOf(existing, target), m.Width)
	return ok
}

// matchBinOp matches a non-commutative BinOp operand by operand. For a
// commutative BinOp it tries the straight pairing (L,L),(R,R) and then the
// swapped pairing (L,R),(R,L), restoring the binding snapshot after each
// failed attempt. Every node tries both pairings; nothing is pruned at the
// root.
func (m *Matcher) matchBinOp(t, p *ir.BinOp, b Bindings) bool {
	if !p.Op.Commutative() {
		return m.match(t.Left, p.Left, b) && m.match(t.Right, p.Right, b)
	}

	snapshot := b.Clone()
	if m.match(t.Left, p.Left, b) && m.match(t.Right, p.Right, b) {
		return true
	}
	restore(b, snapshot)

	if m.match(t.Right, p.Left, b) && m.match(t.Left, p.Right, b) {
		return true
	}
	for k := range b {
		if _, ok := snapshot[k]; !ok {
			delete(b, k)
		}
	}
	for k, v := range snapshot {
		b[k] = v
	}
	return false
}

func (m *Matcher) matchNAry(t, p *ir.NAry, b Bindings) bool {
	n := len(p.Children)
	snapshot := b.Clone()
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	ok := permute(perm, func(order []int) bool {
		restore(b, snapshot)
		for i, idx := range order {
			if !m.match(t.Children[idx], p.Children[i], b) {
				return false
			}
		}
		return true
	})
	if !ok {
		restore(b, snapshot)
	}
	return ok
}

func restore(b, snapshot Bindings) {
	for k := range b {
		if _, ok := snapshot[k]; !ok {
			delete(b, k)
		}
	}
	for k, v := range snapshot {
		b[k] = v
	}
}

// permute calls try with every permutation of perm in place, stopping and
// returning true at the first permutation try accepts.
func permute(perm []int, try func([]int) bool) bool {
	var rec func(k int) bool
	rec = func(k int) bool {
		if k == len(perm) {
			return try(perm)
		}
		for i := k; i < len(perm); i++ {
			perm[k], perm[i] = perm[i], perm[k]
			if rec(k + 1) {
				return true
			}
			perm[k], perm[i] = perm[i], perm[k]
		}
		return false
	}
	return rec(0)
}

func varsOf(es ...ir.Expr) []string {
	set := map[string]bool{}
	for _, e := range es {
		for v := range ir.Vars(e) {
			set[v] = true
		}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	return out
}

// checkPattern handles the "P and T disagree in kind or operator" cases of
// spec §4.5, applying the targeted reductions in the spec's fixed order.
func (m *Matcher) checkPattern(target, pattern ir.Expr, b Bindings) bool {
	if ir.IsConstExpr(pattern) {
		if _, ok := target.(*ir.Num); ok {
			folded := foldConst(pattern, m.Width)
			return m.match(target, folded, b)
		}
	}

	if tnum, ok := target.(*ir.Num); ok {
		return m.getModel(tnum, pattern, b)
	}

	if u, ok := pattern.(*ir.UnaryOp); ok && u.Op == ir.Not {
		if w, ok := u.Operand.(*ir.Var); ok && ir.IsWildcardName(w.Name) {
			return m.matchNotWildcard(target, w.Name, b)
		}
		return m.smtFallback(target, pattern, b)
	}

	if binop, ok := pattern.(*ir.BinOp); ok && binop.Op == ir.Mul {
		if negW, ok := negOneTimesWildcard(binop); ok {
			return m.matchNegWildcard(target, negW, b)
		}
		if operand, ok := twoTimesSomething(binop); ok {
			return m.matchDoubled(target, operand, b)
		}
	}

	return m.smtFallback(target, pattern, b)
}

func foldConst(e ir.Expr, width int) ir.Expr {
	var eval func(ir.Expr) *big.Int
	eval = func(e ir.Expr) *big.Int {
		switch n := e.(type) {
		case *ir.Num:
			return n.Value
		case *ir.BinOp:
			l, r := eval(n.Left), eval(n.Right)
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
			}
			return res
		case *ir.UnaryOp:
			v := eval(n.Operand)
			res := new(big.Int)
			if n.Op == ir.Neg {
				res.Neg(v)
			} else {
				res.Not(v)
			}
			return res
		case *ir.NAry:
			acc := eval(n.Children[0])
			for _, c := range n.Children[1:] {
				switch n.Op {
				case ir.NAdd:
					acc = new(big.Int).Add(acc, eval(c))
				case ir.NMul:
					acc = new(big.Int).Mul(acc, eval(c))
				case ir.NAnd:
					acc = new(big.Int).And(acc, eval(c))
				case ir.NOr:
					acc = new(big.Int).Or(acc, eval(c))
				case ir.NXor:
					acc = new(big.Int).Xor(acc, eval(c))
				}
			}
			return acc
		default:
			return big.NewInt(0)
		}
	}
	return ir.NewNum(eval(e), width)
}

// getModel mirrors PatternMatcher.get_model: target is a literal and the
// pattern mentions exactly one wildcard name, bound or not. If that wildcard
// is already bound to a literal, the substituted pattern is folded and
// compared; otherwise the solver is asked for a value. A pattern that
// mentions a second wildcard fails here even when the others are bound.
func (m *Matcher) getModel(target *ir.Num, pattern ir.Expr, b Bindings) bool {
	if target.Value.Sign() == 0 {
		return false
	}
	wilds := ir.Wildcards(pattern)
	if len(wilds) != 1 {
		return false
	}
	var name string
	for w := range wilds {
		name = w
	}
	if existing, bound := b[name]; bound {
		num, ok := existing.(*ir.Num)
		if !ok {
			return false
		}
		substituted := Substitute(pattern, Bindings{name: num})
		folded := foldConst(substituted, m.Width)
		return ir.ModEqual(target, folded.(*ir.Num), m.Width)
	}
	val, ok, err := m.Solver.SolveWildcard(m.Ctx, target.Value, pattern, name, m.Width)
	if err != nil || !ok {
		return false
	}
	b[name] = ir.NewNum(val, m.Width)
	return true
}

func (m *Matcher) matchNotWildcard(target ir.Expr, name string, b Bindings) bool {
	if t, ok := target.(*ir.Num); ok {
		notVal := new(big.Int).Not(t.Value)
		if existing, bound := b[name]; bound {
			return m.match(existing, ir.NewNum(notVal, m.Width), b)
		}
		b[name] = ir.NewNum(notVal, m.Width)
		return true
	}
	if _, bound := b[name]; !bound {
		b[name] = &ir.UnaryOp{Op: ir.Not, Operand: target}
		return true
	}
	return m.smtFallback(target, &ir.UnaryOp{Op: ir.Not, Operand: &ir.Var{Name: name}}, b)
}

func negOneTimesWildcard(b *ir.BinOp) (string, bool) {
	if num, ok := b.Left.(*ir.Num); ok && num.Value.Cmp(big.NewInt(-1)) == 0 {
		if w, ok := b.Right.(*ir.Var); ok && ir.IsWildcardName(w.Name) {
			return w.Name, true
		}
	}
	if num, ok := b.Right.(*ir.Num); ok && num.Value.Cmp(big.NewInt(-1)) == 0 {
		if w, ok := b.Left.(*ir.Var); ok && ir.IsWildcardName(w.Name) {
			return w.Name, true
		}
	}
	return "", false
}

func (m *Matcher) matchNegWildcard(target ir.Expr, name string, b Bindings) bool {
	if t, ok := target.(*ir.Num); ok {
		negVal := new(big.Int).Neg(t.Value)
		if existing, bound := b[name]; bound {
			return m.match(existing, ir.NewNum(negVal, m.Width), b)
		}
		b[name] = ir.NewNum(negVal, m.Width)
		return true
	}
	if _, bound := b[name]; !bound {
		b[name] = &ir.BinOp{Op: ir.Mul, Left: ir.NewNumInt64(-1, m.Width), Right: target}
		return true
	}
	return false
}

func twoTimesSomething(b *ir.BinOp) (ir.Expr, bool) {
	if num, ok := b.Left.(*ir.Num); ok && num.Value.Cmp(big.NewInt(2)) == 0 {
		return b.Right, true
	}
	if num, ok := b.Right.(*ir.Num); ok && num.Value.Cmp(big.NewInt(2)) == 0 {
		return b.Left, true
	}
	return nil, false
}

func (m *Matcher) matchDoubled(target, operand ir.Expr, b Bindings) bool {
	if t, ok := target.(*ir.Num); ok {
		if w, ok := operand.(*ir.Var); ok && ir.IsWildcardName(w.Name) {
			if existing, bound := b[w.Name]; bound {
				num, ok := existing.(*ir.Num)
				if !ok {
					return false
				}
				doubled := ir.Mod(new(big.Int).Mul(num.Value, big.NewInt(2)), m.Width)
				return doubled.Cmp(ir.Mod(t.Value, m.Width)) == 0
			}
			if new(big.Int).Mod(t.Value, big.NewInt(2)).Sign() == 0 {
				b[w.Name] = ir.NewNum(new(big.Int).Div(t.Value, big.NewInt(2)), m.Width)
				return true
			}
			return false
		}
	}
	for w := range ir.Wildcards(operand) {
		if _, bound := b[w]; !bound {
			return false
		}
	}
	return m.smtFallback(target, &ir.BinOp{Op: ir.Mul, Left: ir.NewNumInt64(2, m.Width), Right: operand}, b)
}

func (m *Matcher) smtFallback(target, pattern ir.Expr, b Bindings) bool {
	substituted := Substitute(pattern, b)
	if len(ir.Wildcards(substituted)) > 0 {
		return false
	}
	if n, ok := target.(*ir.Num); ok && n.Value.Sign() == 0 {
		return false
	}
	ok, _ := m.Solver.CheckEquivalent(m.Ctx, target, substituted, varsOf(target, substituted), m.Width)
	return ok
}

// Substitute replaces every wildcard Var in e with its binding in b, leaving
// unbound wildcards as-is.
func Substitute(e ir.Expr, b Bindings) ir.Expr {
	switch n := e.(type) {
	case *ir.Num:
		return n
	case *ir.Var:
		if ir.IsWildcardName(n.Name) {
			if v, ok := b[n.Name]; ok {
				return v
			}
		}
		return n
	case *ir.BinOp:
		return &ir.BinOp{Op: n.Op, Left: Substitute(n.Left, b), Right: Substitute(n.Right, b)}
	case *ir.UnaryOp:
		return &ir.UnaryOp{Op: n.Op, Operand: Substitute(n.Operand, b)}
	case *ir.NAry:
		children := make([]ir.Expr, len(n.Children))
		for i, c := range n.Children {
			children[i] = Substitute(c, b)
		}
		return &ir.NAry{Op: n.Op, Children: children}
	case *ir.Call:
		args := make([]ir.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = Substitute(a, b)
		}
		return &ir.Call{Name: n.Name, Args: args}
	default:
		errors.Assertionf("match.substitute", e.Kind())
		return nil
	}
}
