// Package simplify implements the driver of spec §4.7: it walks a program of
// `name = expr` statements followed by a final expression, simplifying each
// right-hand side to a fixed point under the rule library and an
// anti-growth guard, threading a substitution context across statements.
// Grounded on simplifier.py's Simplifier.visit_Assign/visit_Expr/simplify.
package simplify

import (
	"context"

	"mbarw/internal/arith"
	"mbarw/internal/canon"
	"mbarw/internal/fold"
	"mbarw/internal/ir"
	"mbarw/internal/level"
	"mbarw/internal/parser"
	"mbarw/internal/printer"
	"mbarw/internal/rewrite"
	"mbarw/internal/smt"
)

// Context is Γ: the driver's statement-to-simplified-value substitution
// map, owned exclusively by one Driver run.
type Context map[string]ir.Expr

// Driver runs the fixed-point simplification loop over one program at one
// working width, with one rule library and one SMT solver shared read-only
// across every rewrite.
type Driver struct {
	Width  int
	Rules  []rewrite.Rule
	Solver smt.Solver
	// MaxIterations bounds the per-statement fixed-point loop as a
	// defensive backstop; the driver is expected to converge well before
	// this (spec §4.7's termination argument), but malformed rule sets
	// should not be able to hang the engine.
	MaxIterations int
}

// New returns a Driver with the spec's default iteration backstop.
func New(width int, rules []rewrite.Rule, solver smt.Solver) *Driver {
	return &Driver{Width: width, Rules: rules, Solver: solver, MaxIterations: 64}
}

// Run simplifies every statement of prog in order, returning the final Γ and
// the simplified value of the trailing expression.
func (d *Driver) Run(ctx context.Context, prog *parser.Program) (Context, ir.Expr) {
	gamma := Context{}
	for _, stmt := range prog.Statements {
		value := Substitute(stmt.Value, gamma)
		simplified := d.simplifyToFixpoint(ctx, value)
		gamma[stmt.Name] = simplified
	}
	final := Substitute(prog.Final, gamma)
	return gamma, d.simplifyToFixpoint(ctx, final)
}

// SimplifyExpr simplifies a single expression with no statement context.
func (d *Driver) SimplifyExpr(ctx context.Context, e ir.Expr) ir.Expr {
	return d.simplifyToFixpoint(ctx, e)
}

// simplifyToFixpoint repeats step() until the result is structurally equal
// to its predecessor (under leveling) or one more pass would strictly
// lengthen the printed form, per spec §4.7 step 3.
func (d *Driver) simplifyToFixpoint(ctx context.Context, e ir.Expr) ir.Expr {
	current := e
	for i := 0; i < d.MaxIterations; i++ {
		next := d.step(ctx, current)
		if levelEqual(current, next) {
			return next
		}
		if printer.Len(next) > printer.Len(current) {
			return current
		}
		current = next
	}
	return current
}

// step is one pass of spec §4.7 step 2: canonicalise and level on +, apply
// every rule once, level on ^ and constant-fold and unlevel, run the
// arithmetic simplifier, reduce literals modulo 2^n.
func (d *Driver) step(ctx context.Context, e ir.Expr) ir.Expr {
	addOp := ir.Add
	xorOp := ir.Xor

	e = canon.Canonicalize(e, d.Width, canon.Options{NotToInv: true})
	e = level.Level(e, &addOp)

	e, _ = rewrite.ApplyOnce(e, d.Rules, d.Width, d.Solver, ctx)

	e = level.Level(e, &xorOp)
	e = fold.Fold(e, d.Width)
	e = level.Unlevel(e)

	e = arith.Simplify(e, d.Width)
	e = ir.Rewidth(e, d.Width)
	return e
}

// levelEqual compares a and b under leveling on every associative op, the
// "structurally equal under leveling" check spec §4.7 step 3 requires.
func levelEqual(a, b ir.Expr) bool {
	return ir.Equal(level.Level(a, nil), level.Level(b, nil))
}

// Substitute inlines every Γ-bound variable occurring in e, per spec §4.7
// step 1 ("substitute Γ into the right-hand side").
func Substitute(e ir.Expr, gamma Context) ir.Expr {
	return substituteVars(e, gamma)
}

func substituteVars(e ir.Expr, gamma Context) ir.Expr {
	switch n := e.(type) {
	case *ir.Num:
		return n
	case *ir.Var:
		if v, ok := gamma[n.Name]; ok {
			return v
		}
		return n
	case *ir.BinOp:
		return &ir.BinOp{Op: n.Op, Left: substituteVars(n.Left, gamma), Right: substituteVars(n.Right, gamma)}
	case *ir.UnaryOp:
		return &ir.UnaryOp{Op: n.Op, Operand: substituteVars(n.Operand, gamma)}
	case *ir.NAry:
		children := make([]ir.Expr, len(n.Children))
		for i, c := range n.Children {
			children[i] = substituteVars(c, gamma)
		}
		return &ir.NAry{Op: n.Op, Children: children}
	case *ir.Call:
		args := make([]ir.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = substituteVars(a, gamma)
		}
		return &ir.Call{Name: n.Name, Args: args}
	default:
		return e
	}
}
