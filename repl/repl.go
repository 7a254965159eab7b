// Package repl is an interactive, one-expression-at-a-time driver: each
// line typed at the prompt is parsed, simplified, and echoed back
// simplified. Grounded on the teacher's repl/repl.go shape (buffered-scanner
// read loop, ">> " prompt), rewired against this module's own parser and
// simplify packages in place of the non-existent kanso-lang import the
// teacher's file carried.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"mbarw/internal/ir"
	"mbarw/internal/parser"
	"mbarw/internal/printer"
	"mbarw/internal/rewrite"
	"mbarw/internal/rules"
	"mbarw/internal/simplify"
	"mbarw/internal/smt"
)

const PROMPT = ">> "

// Start runs the read-simplify-print loop against in, writing prompts and
// results to out, until in is exhausted. Each line is its own self-contained
// program: its width is inferred fresh and its Γ does not carry across
// lines.
func Start(in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	solver := &smt.Z3Solver{}

	for {
		fmt.Fprint(out, PROMPT)
		if !scanner.Scan() {
			return
		}

		line := scanner.Text()
		if line == "" {
			continue
		}

		width, ruleSet, err := prepare(line)
		if err != nil {
			fmt.Fprintf(out, "error: %s\n", err)
			continue
		}

		prog, err := parser.ParseProgram(line, width)
		if err != nil {
			fmt.Fprintf(out, "parse error: %s\n", err)
			continue
		}

		driver := simplify.New(width, ruleSet, solver)
		_, final := driver.Run(context.Background(), prog)
		fmt.Fprintln(out, printer.Print(final))
	}
}

// prepare infers the working width for one line and loads the default rule
// library at that width.
func prepare(line string) (int, []rewrite.Rule, error) {
	probe, err := parser.ParseProgram(line, 0)
	if err != nil {
		return 0, nil, err
	}
	width := ir.InferWidth(probe.Final)
	for _, s := range probe.Statements {
		if w := ir.InferWidth(s.Value); w > width {
			width = w
		}
	}
	ruleSet, err := rules.Default(width)
	if err != nil {
		return 0, nil, err
	}
	return width, ruleSet, nil
}
