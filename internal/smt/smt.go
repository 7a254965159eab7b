// Package smt implements the bounded bit-vector solver fallback used by the
// pattern matcher (spec §4.5, §5). No Go SMT binding exists anywhere in the
// module's dependency stack, so this package shells out to a real z3 binary
// over SMT-LIB2, synchronously, bounded by the caller's context -- exactly
// the "SMT subprocess call is synchronous" collaboration spec §5 describes.
package smt

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"os/exec"
	"regexp"
	"sort"
	"strings"
	"time"

	"mbarw/internal/errors"
	"mbarw/internal/ir"
)

// Solver is the interface the matcher depends on; Z3Solver is the only
// production implementation, but tests substitute a stub.
type Solver interface {
	// CheckEquivalent reports whether a and b denote the same bit-vector
	// function over vars, modulo 2^width, by asking whether (a != b) is
	// unsatisfiable.
	CheckEquivalent(ctx context.Context, a, b ir.Expr, vars []string, width int) (bool, error)

	// SolveWildcard looks for a single assignment to wildcard that makes
	// pattern (which mentions only that one free wildcard) equal to target.
	// It returns ok=false, without error, when no such assignment exists.
	SolveWildcard(ctx context.Context, target *big.Int, pattern ir.Expr, wildcard string, width int) (value *big.Int, ok bool, err error)
}

// Z3Solver drives the z3 CLI in one-shot mode (z3 -in, an SMT-LIB2 script
// on stdin) per query.
type Z3Solver struct {
	// Path to the z3 executable; defaults to "z3" (resolved via PATH) when empty.
	Path string
	// Timeout bounds each individual z3 invocation, in addition to ctx.
	Timeout time.Duration
}

func (z *Z3Solver) binary() string {
	if z.Path != "" {
		return z.Path
	}
	return "z3"
}

func (z *Z3Solver) run(ctx context.Context, script string) (string, error) {
	if z.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, z.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, z.binary(), "-in")
	cmd.Stdin = strings.NewReader(script)
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return "", errors.NewSolverTimeoutError(fmt.Sprintf("%s exceeded %s", z.binary(), z.Timeout))
	}
	if err != nil {
		if _, ok := err.(*exec.Error); ok {
			return "", errors.NewSolverUnavailableError(err)
		}
		return "", errors.NewSolverUnavailableError(fmt.Errorf("%s: %s", err, errBuf.String()))
	}
	return out.String(), nil
}

func (z *Z3Solver) CheckEquivalent(ctx context.Context, a, b ir.Expr, vars []string, width int) (bool, error) {
	var buf strings.Builder
	writeFunctionPreamble(&buf, callSignatures(a, b), width)
	sorted := append([]string{}, vars...)
	sort.Strings(sorted)
	for _, v := range sorted {
		fmt.Fprintf(&buf, "(declare-const %s (_ BitVec %d))\n", smtIdent(v), width)
	}
	fmt.Fprintf(&buf, "(assert (not (= %s %s)))\n", toSMT(a, width), toSMT(b, width))
	buf.WriteString("(check-sat)\n")
	out, err := z.run(ctx, buf.String())
	if err != nil {
		return false, err
	}
	switch firstToken(out) {
	case "unsat":
		return true, nil
	case "sat", "unknown":
		return false, nil
	default:
		return false, errors.NewSolverUnavailableError(fmt.Errorf("unexpected z3 output: %q", out))
	}
}

var modelLiteral = regexp.MustCompile(`#x[0-9a-fA-F]+|#b[01]+|\(_ bv(\d+) \d+\)`)

func (z *Z3Solver) SolveWildcard(ctx context.Context, target *big.Int, pattern ir.Expr, wildcard string, width int) (*big.Int, bool, error) {
	var buf strings.Builder
	writeFunctionPreamble(&buf, callSignatures(pattern), width)
	for v := range ir.Vars(pattern) {
		if v == wildcard {
			continue
		}
		fmt.Fprintf(&buf, "(declare-const %s (_ BitVec %d))\n", smtIdent(v), width)
	}
	fmt.Fprintf(&buf, "(declare-const %s (_ BitVec %d))\n", smtIdent(wildcard), width)
	fmt.Fprintf(&buf, "(assert (= (_ bv%s %d) %s))\n", ir.Mod(target, width).String(), width, toSMT(pattern, width))
	buf.WriteString("(check-sat)\n")
	fmt.Fprintf(&buf, "(get-value (%s))\n", smtIdent(wildcard))
	out, err := z.run(ctx, buf.String())
	if err != nil {
		return nil, false, err
	}
	if firstToken(out) != "sat" {
		return nil, false, nil
	}
	m := modelLiteral.FindString(out)
	if m == "" {
		return nil, false, nil
	}
	val, ok := parseBVLiteral(m)
	if !ok {
		return nil, false, nil
	}
	return val, true, nil
}

func firstToken(out string) string {
	return strings.TrimSpace(strings.SplitN(strings.TrimSpace(out), "\n", 2)[0])
}

func parseBVLiteral(lit string) (*big.Int, bool) {
	v := new(big.Int)
	switch {
	case strings.HasPrefix(lit, "#x"):
		_, ok := v.SetString(lit[2:], 16)
		return v, ok
	case strings.HasPrefix(lit, "#b"):
		_, ok := v.SetString(lit[2:], 2)
		return v, ok
	case strings.HasPrefix(lit, "(_ bv"):
		fields := strings.Fields(lit)
		if len(fields) < 2 {
			return nil, false
		}
		_, ok := v.SetString(strings.TrimPrefix(fields[1], "bv"), 10)
		return v, ok
	default:
		return nil, false
	}
}

// smtIdent maps an IR identifier to a safe SMT-LIB2 symbol. Wildcard and
// variable names in this language are already plain identifiers, so this is
// the identity in practice; it exists as the single choke point should that
// change.
func smtIdent(name string) string {
	return name
}

// callSignatures collects every Call name reachable from es, recording its
// arity so writeFunctionPreamble can declare it before it is ever applied:
// toSMT otherwise emits a bare application of a symbol z3 has never heard of.
func callSignatures(es ...ir.Expr) map[string]int {
	sigs := map[string]int{}
	var walk func(ir.Expr)
	walk = func(e ir.Expr) {
		switch n := e.(type) {
		case *ir.Call:
			sigs[n.Name] = len(n.Args)
			for _, a := range n.Args {
				walk(a)
			}
		case *ir.BinOp:
			walk(n.Left)
			walk(n.Right)
		case *ir.UnaryOp:
			walk(n.Operand)
		case *ir.NAry:
			for _, c := range n.Children {
				walk(c)
			}
		}
	}
	for _, e := range es {
		walk(e)
	}
	return sigs
}

// writeFunctionPreamble declares, ahead of any assertion that applies them,
// every Call name found by callSignatures: rol/ror get a real define-fun with
// the barrel-shift formula of rotate() in internal/fold, so the solver can actually reason
// about them instead of treating a rotation as an arbitrary unknown function;
// anything else falls back to an uninterpreted declare-fun, matching the
// "opaque to this pass" treatment fold.Fold already gives unknown calls.
func writeFunctionPreamble(buf *strings.Builder, sigs map[string]int, width int) {
	names := make([]string, 0, len(sigs))
	for name := range sigs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		switch name {
		case "rol":
			writeRotateDef(buf, "rol", width, true)
		case "ror":
			writeRotateDef(buf, "ror", width, false)
		default:
			arity := sigs[name]
			params := make([]string, arity)
			for i := range params {
				params[i] = fmt.Sprintf("(_ BitVec %d)", width)
			}
			fmt.Fprintf(buf, "(declare-fun %s (%s) (_ BitVec %d))\n", name, strings.Join(params, " "), width)
		}
	}
}

// writeRotateDef defines a variable-distance rotate exactly as rotate() in
// internal/fold computes it: reduce the distance modulo width, then OR a
// shift with the complementary shift the other direction.
func writeRotateDef(buf *strings.Builder, name string, width int, left bool) {
	shiftOp, backOp := "bvshl", "bvlshr"
	if !left {
		shiftOp, backOp = "bvlshr", "bvshl"
	}
	fmt.Fprintf(buf, "(define-fun %s ((x (_ BitVec %d)) (r (_ BitVec %d))) (_ BitVec %d) "+
		"(let ((rm (bvurem r (_ bv%d %d)))) (bvor (%s x rm) (%s x (bvsub (_ bv%d %d) rm)))))\n",
		name, width, width, width, width, width, shiftOp, backOp, width, width)
}

// toSMT renders e as an SMT-LIB2 bit-vector term of the given width.
func toSMT(e ir.Expr, width int) string {
	switch n := e.(type) {
	case *ir.Num:
		return fmt.Sprintf("(_ bv%s %d)", ir.Mod(n.Value, width).String(), width)
	case *ir.Var:
		return smtIdent(n.Name)
	case *ir.BinOp:
		l, r := toSMT(n.Left, width), toSMT(n.Right, width)
		switch n.Op {
		case ir.Add:
			return fmt.Sprintf("(bvadd %s %s)", l, r)
		case ir.Sub:
			return fmt.Sprintf("(bvsub %s %s)", l, r)
		case ir.Mul:
			return fmt.Sprintf("(bvmul %s %s)", l, r)
		case ir.And:
			return fmt.Sprintf("(bvand %s %s)", l, r)
		case ir.Or:
			return fmt.Sprintf("(bvor %s %s)", l, r)
		case ir.Xor:
			return fmt.Sprintf("(bvxor %s %s)", l, r)
		case ir.Shl:
			return fmt.Sprintf("(bvshl %s %s)", l, r)
		case ir.Shr:
			return fmt.Sprintf("(bvlshr %s %s)", l, r)
		default:
			errors.Assertionf("smt.toSMT", "BinOpKind")
			return ""
		}
	case *ir.UnaryOp:
		operand := toSMT(n.Operand, width)
		switch n.Op {
		case ir.Neg:
			return fmt.Sprintf("(bvneg %s)", operand)
		case ir.Not:
			return fmt.Sprintf("(bvnot %s)", operand)
		default:
			errors.Assertionf("smt.toSMT", "UnaryOpKind")
			return ""
		}
	case *ir.NAry:
		name := nAryName(n.Op)
		chain := toSMT(n.Children[0], width)
		for _, c := range n.Children[1:] {
			chain = fmt.Sprintf("(%s %s %s)", name, chain, toSMT(c, width))
		}
		return chain
	case *ir.Call:
		// Applied by name: writeFunctionPreamble has already defined rol/ror
		// and declared every other call name as an uninterpreted function.
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = toSMT(a, width)
		}
		return fmt.Sprintf("(%s %s)", n.Name, strings.Join(args, " "))
	default:
		errors.Assertionf("smt.toSMT", e.Kind())
		return ""
	}
}

func nAryName(op ir.NAryOpKind) string {
	switch op {
	case ir.NAdd:
		return "bvadd"
	case ir.NMul:
		return "bvmul"
	case ir.NAnd:
		return "bvand"
	case ir.NOr:
		return "bvor"
	case ir.NXor:
		return "bvxor"
	default:
		errors.Assertionf("smt.nAryName", "NAryOpKind")
		return ""
	}
}
