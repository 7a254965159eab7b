// Package main implements the mba-simplify command line tool: it reads one
// expression (or a short assignment program) and prints its simplified
// form. Grounded on the teacher's cmd/kanso-cli/main.go: read a literal or a
// path, color-coded error reporting, a plain success line on stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"mbarw/internal/errors"
	"mbarw/internal/ir"
	"mbarw/internal/parser"
	"mbarw/internal/printer"
	"mbarw/internal/rewrite"
	"mbarw/internal/rules"
	"mbarw/internal/simplify"
	"mbarw/internal/smt"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("mba-simplify", flag.ContinueOnError)
	var (
		nbits          = fs.Int("n", 0, "bit width (>= 1); inferred from literals when omitted")
		rulePaths      multiFlag
		noDefaultRules = fs.Bool("no-default-rules", false, "skip the built-in rule library")
		smtTimeout     = fs.Duration("smt-timeout", 5*time.Second, "wall-clock bound on each SMT query")
		logLevel       = fs.String("log-level", "warn", "driver progress verbosity: silent, warn, info, debug")
	)
	fs.Var(&rulePaths, "rules", "path to an additional rule-library file (repeatable)")
	fs.IntVar(nbits, "nbits", 0, "alias of -n")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fmt.Println("Usage: mba-simplify [flags] <expr | path/to/file>")
		fs.PrintDefaults()
		return 2
	}

	source, err := readExprArg(fs.Arg(0))
	if err != nil {
		color.Red("failed to read input: %s", err)
		return 1
	}

	width := *nbits
	if width == 0 {
		probe, perr := parser.ParseProgram(source, 0)
		if perr != nil {
			reportError(source, perr)
			return 1
		}
		width = ir.InferWidth(probe.Final)
		for _, s := range probe.Statements {
			if w := ir.InferWidth(s.Value); w > width {
				width = w
			}
		}
	}

	prog, err := parser.ParseProgram(source, width)
	if err != nil {
		reportError(source, err)
		return 1
	}

	ruleSet, err := loadRules(rulePaths, *noDefaultRules, width)
	if err != nil {
		color.Red("failed to load rule library: %s", err)
		return 1
	}

	solver := &smt.Z3Solver{Timeout: *smtTimeout}
	driver := simplify.New(width, ruleSet, solver)
	logf := newLogger(*logLevel)

	logf("info", "simplifying %d statement(s) at width %d", len(prog.Statements), width)
	gamma, final := driver.Run(context.Background(), prog)
	for _, stmt := range prog.Statements {
		logf("debug", "%s = %s", stmt.Name, printer.Print(gamma[stmt.Name]))
	}

	fmt.Println(printer.Print(final))
	color.Green("simplified %s successfully", fs.Arg(0))
	return 0
}

// readExprArg treats arg as a path when it names a readable file, and as a
// literal expression otherwise, mirroring the teacher's "read file or
// literal" CLI convention.
func readExprArg(arg string) (string, error) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		data, err := os.ReadFile(arg)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return arg, nil
}

func loadRules(paths []string, noDefault bool, width int) ([]rewrite.Rule, error) {
	var out []rewrite.Rule
	if !noDefault {
		defaults, err := rules.Default(width)
		if err != nil {
			return nil, err
		}
		out = append(out, defaults...)
	}
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		text, err := rules.ParseLibrary(string(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		loaded, err := rules.Load(text, width)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		out = append(out, loaded...)
	}
	return out, nil
}

// reportError prints a caret-style diagnostic for parse errors, mirroring
// the teacher's reportParseError, adapted from participle.Error's Position
// to this engine's own errors.ParseError.
func reportError(src string, err error) {
	pe, ok := err.(*errors.ParseError)
	if !ok {
		color.Red("error: %s", err)
		return
	}

	lines := strings.Split(src, "\n")
	if pe.Line <= 0 || pe.Line > len(lines) {
		color.Red("syntax error: %s", pe)
		return
	}

	line := lines[pe.Line-1]
	caret := strings.Repeat(" ", max(0, pe.Column-1)) + "^"

	color.Red("syntax error at line %d, column %d:", pe.Line, pe.Column)
	fmt.Println(line)
	color.HiRed(caret)
	fmt.Printf("-> %s\n", pe.Message)
}

func newLogger(level string) func(at, format string, args ...any) {
	rank := map[string]int{"silent": 0, "warn": 1, "info": 2, "debug": 3}
	threshold, ok := rank[level]
	if !ok {
		threshold = rank["warn"]
	}
	return func(at, format string, args ...any) {
		if rank[at] > threshold {
			return
		}
		fmt.Fprintf(os.Stderr, "["+at+"] "+format+"\n", args...)
	}
}

// multiFlag collects repeated -rules flags into a slice.
type multiFlag []string

func (m *multiFlag) String() string     { return strings.Join(*m, ",") }
func (m *multiFlag) Set(v string) error { *m = append(*m, v); return nil }
