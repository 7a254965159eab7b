// Package rules owns the MBA identity rule library: the ~20 default
// (pattern, replacement) pairs and the loader for caller-supplied text
// files, both prepared the way internal/simplify's driver expects
// (pattern canonicalised and leveled on +, replacement left as parsed).
// Grounded on the original source's default_rules list and
// Simplifier.__init__ (simplifier.py).
package rules

import (
	"bufio"
	"fmt"
	"strings"

	"mbarw/internal/canon"
	"mbarw/internal/ir"
	"mbarw/internal/level"
	"mbarw/internal/parser"
	"mbarw/internal/rewrite"
)

// TextRule is one raw (pattern, replacement) pair before parsing.
type TextRule struct {
	name, pattern, replacement string
}

// defaultText is the engine's built-in rule list, in the exact order the
// original source ships (order matters: the driver applies rules in list
// order, and re-ordering this list changes which fixed point some inputs
// reach). The comment on rule 21 matches the original's own warning about
// its position in the list.
var defaultText = []TextRule{
	{"xor-or-to-sub", "(A ^ ~B) + 2*(A | B)", "A + B - 1"},
	{"or-andnot-to-var", "(A | B) - (A & ~B)", "B"},
	{"neg-xor-or", "- (A ^ ~B) - 2*(A | B)", "-A - B + 1"},
	{"nor-to-or", "A + B + 1 + (~A | ~B)", "(A | B)"},
	{"sub-andnot2-to-xor", "A - B + (~(2*A) & 2*B)", "A ^ B"},
	{"neg-andnot2-to-xor", "- A -(~(2*A) & 2*B)", "- (A ^ B) - B"},
	{"negb-andnot2-to-xor", "-B + (~(2*A) & 2*B)", "(A ^ B) - A"},
	{"negb-andnot-to-xor", "-B + 2*(~A & B)", "(A ^ B) - A"},
	{"sub-andnot-to-xor", "A - B + 2*(~A & B)", "(A ^ B)"},
	{"and-or-to-sum", "(A & B) + (A | B)", "A + B"},
	{"xor-and2-to-sum", "(A ^ B) + 2*(A & B)", "A + B"},
	{"sum-and2-to-xor", "A + B - 2*(A & B)", "(A ^ B)"},
	{"neg-sum-or2-to-xor", "- A - B + 2*(A | B)", "(A ^ B)"},
	{"sum-or-to-and", "A + B - (A | B)", "A & B"},
	{"and-nandor-to-inc", "(A & B) - (~A | B)", "A + 1"},
	{"or-and-to-xor", "(A | B) - (A & B)", "A ^ B"},
	{"negb-not2and2-to-xor", "-B + (2*(~A) & 2*B)", "(A ^ B) - A"},
	{"negb-and2-to-xor", "-2*(~A & B) + B", "- (A ^ B) + A"},
	{"sum-nandnor-to-dec", "A + B + (~A & ~B)", "(A & B) - 1"},
	{"sum-nor2-to-xor", "A + B + 2*(~A | ~B)", "(A ^ B) - 2"},
	// kept second to last, ahead of xor127-to-not: moving it earlier
	// changes which fixed point some inputs reach.
	{"mask-and2-redundant", "((2*A + 1) & 2*B)", "(2*A & 2*B)"},
	{"xor127-to-not", "2*(A ^ 127)", "2*(~A)"},
}

// Load prepares one set of rewrite.Rule from raw text, parsing both sides
// and running the pattern through the same preparation the driver applies
// to rule patterns: canonicalise, then level on +.
func Load(rs []TextRule, width int) ([]rewrite.Rule, error) {
	out := make([]rewrite.Rule, 0, len(rs))
	for _, r := range rs {
		pat, err := parser.ParseExpr(r.pattern, width)
		if err != nil {
			return nil, fmt.Errorf("rule %q: pattern: %w", r.name, err)
		}
		rep, err := parser.ParseExpr(r.replacement, width)
		if err != nil {
			return nil, fmt.Errorf("rule %q: replacement: %w", r.name, err)
		}
		pat = canon.Canonicalize(pat, width, canon.Options{NotToInv: true})
		addOp := ir.Add
		pat = level.Level(pat, &addOp)
		out = append(out, rewrite.Rule{Name: r.name, Pattern: pat, Replacement: rep})
	}
	return out, nil
}

// Default returns the built-in rule library prepared at width.
func Default(width int) ([]rewrite.Rule, error) {
	return Load(defaultText, width)
}

// ParseLibrary reads a rule-library text file: one rule per non-blank,
// non-comment ('#') line, pattern and replacement separated by "=>".
func ParseLibrary(source string) ([]TextRule, error) {
	var out []TextRule
	scanner := bufio.NewScanner(strings.NewReader(source))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=>", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: expected \"pattern => replacement\"", lineNo)
		}
		out = append(out, TextRule{
			name:        fmt.Sprintf("custom-%d", lineNo),
			pattern:     strings.TrimSpace(parts[0]),
			replacement: strings.TrimSpace(parts[1]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
