// Package rewrite implements the pattern replacer of spec §4.6: given a
// matched pattern P, a replacement template R, and a target T, it descends T
// bottom-up applying at most one rule per node per pass, including the
// n-to-m associative substitution for NAry nodes. Grounded on the original
// source's PatternReplacement.visit_BinOp/visit_BoolOp.
package rewrite

import (
	"context"

	"mbarw/internal/errors"
	"mbarw/internal/ir"
	"mbarw/internal/match"
	"mbarw/internal/smt"
)

// Rule is one (pattern, replacement) pair, both already parsed to IR and
// canonicalised/leveled the way internal/rules prepares them.
type Rule struct {
	Name        string
	Pattern     ir.Expr
	Replacement ir.Expr
}

// ApplyOnce walks e bottom-up and applies the first rule (in list order)
// that matches at each node, returning the rewritten tree and whether any
// rule fired anywhere in the tree.
func ApplyOnce(e ir.Expr, rules []Rule, width int, solver smt.Solver, ctx context.Context) (ir.Expr, bool) {
	switch n := e.(type) {
	case *ir.Num, *ir.Var:
		return e, false
	case *ir.UnaryOp:
		operand, changed := ApplyOnce(n.Operand, rules, width, solver, ctx)
		node := ir.Expr(&ir.UnaryOp{Op: n.Op, Operand: operand})
		if applied, ok := tryRules(node, rules, width, solver, ctx); ok {
			return applied, true
		}
		return node, changed
	case *ir.BinOp:
		left, lc := ApplyOnce(n.Left, rules, width, solver, ctx)
		right, rc := ApplyOnce(n.Right, rules, width, solver, ctx)
		node := ir.Expr(&ir.BinOp{Op: n.Op, Left: left, Right: right})
		if applied, ok := tryRules(node, rules, width, solver, ctx); ok {
			return applied, true
		}
		if binOpSubset, ok := tryAssocSubsets(node, rules, width, solver, ctx); ok {
			return binOpSubset, true
		}
		return node, lc || rc
	case *ir.NAry:
		children := make([]ir.Expr, len(n.Children))
		changed := false
		for i, c := range n.Children {
			var cc bool
			children[i], cc = ApplyOnce(c, rules, width, solver, ctx)
			changed = changed || cc
		}
		node := ir.Expr(&ir.NAry{Op: n.Op, Children: children})
		if applied, ok := tryRules(node, rules, width, solver, ctx); ok {
			return applied, true
		}
		if applied, ok := tryAssocSubsets(node, rules, width, solver, ctx); ok {
			return applied, true
		}
		return node, changed
	case *ir.Call:
		args := make([]ir.Expr, len(n.Args))
		changed := false
		for i, a := range n.Args {
			var ac bool
			args[i], ac = ApplyOnce(a, rules, width, solver, ctx)
			changed = changed || ac
		}
		return &ir.Call{Name: n.Name, Args: args}, changed
	default:
		errors.Assertionf("rewrite.ApplyOnce", e.Kind())
		return nil, false
	}
}

// tryRules attempts a direct (whole-node) match of node against every rule
// in order, substituting the winning rule's binding into its replacement.
func tryRules(node ir.Expr, rules []Rule, width int, solver smt.Solver, ctx context.Context) (ir.Expr, bool) {
	if !isInterior(node) {
		return nil, false
	}
	for _, rule := range rules {
		m := match.New(width, solver, ctx)
		if b, ok := m.Match(node, rule.Pattern); ok {
			return match.Substitute(rule.Replacement, b), true
		}
	}
	return nil, false
}

func isInterior(e ir.Expr) bool {
	switch e.(type) {
	case *ir.BinOp, *ir.NAry:
		return true
	default:
		return false
	}
}

// tryAssocSubsets implements the n-to-m associative rule application: when
// node is an NAry and a rule's pattern is an NAry of the same op with k
// children, k < len(node.Children), every k-subset of node's children is
// tried as a temporary NAry against the pattern. A node that is not an NAry
// returns false, and a rule whose pattern is a BinOp is skipped, so no
// 2-subset is ever matched against a BinOp pattern.
func tryAssocSubsets(node ir.Expr, rules []Rule, width int, solver smt.Solver, ctx context.Context) (ir.Expr, bool) {
	nary, ok := node.(*ir.NAry)
	if !ok {
		return nil, false
	}
	for _, rule := range rules {
		pat, ok := rule.Pattern.(*ir.NAry)
		if !ok || pat.Op != nary.Op || len(pat.Children) >= len(nary.Children) {
			continue
		}
		k := len(pat.Children)
		indices := make([]int, len(nary.Children))
		for i := range indices {
			indices[i] = i
		}
		for _, subset := range combinations(indices, k) {
			temp := &ir.NAry{Op: nary.Op, Children: selectIndices(nary.Children, subset)}
			m := match.New(width, solver, ctx)
			b, ok := m.Match(temp, rule.Pattern)
			if !ok {
				continue
			}
			replaced := match.Substitute(rule.Replacement, b)
			rest := excludeIndices(nary.Children, subset)
			newChildren := append([]ir.Expr{replaced}, rest...)
			if len(newChildren) == 1 {
				return newChildren[0], true
			}
			return &ir.NAry{Op: nary.Op, Children: newChildren}, true
		}
	}
	return nil, false
}

func selectIndices(es []ir.Expr, idx []int) []ir.Expr {
	out := make([]ir.Expr, len(idx))
	for i, j := range idx {
		out[i] = es[j]
	}
	return out
}

func excludeIndices(es []ir.Expr, idx []int) []ir.Expr {
	excl := map[int]bool{}
	for _, i := range idx {
		excl[i] = true
	}
	var out []ir.Expr
	for i, e := range es {
		if !excl[i] {
			out = append(out, e)
		}
	}
	return out
}

// combinations returns every k-length subset of items, as index slices into
// items, in lexicographic order -- equivalent to Python's
// itertools.combinations used by the original source.
func combinations(items []int, k int) [][]int {
	var result [][]int
	n := len(items)
	if k > n || k <= 0 {
		return result
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		combo := make([]int, k)
		for i, j := range idx {
			combo[i] = items[j]
		}
		result = append(result, combo)

		i := k - 1
		for i >= 0 && idx[i] == i+n-k {
			i--
		}
		if i < 0 {
			break
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
	return result
}
