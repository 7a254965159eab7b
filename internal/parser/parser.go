// Package parser turns expression and rule-library surface syntax into this
// engine's IR. Grounded on the teacher's internal/parser package: a
// participle/v2 stateful lexer feeding a hand-written recursive-descent/Pratt
// parser over a flat []Token slice, adapted from kanso's statement/type
// grammar down to this engine's much smaller expression grammar.
package parser

import (
	"fmt"
	"math/big"

	"mbarw/internal/errors"
	"mbarw/internal/ir"
)

// provisionalWidth is the width literals are built at when the caller has
// not yet settled on a working width; it is wide enough that no literal
// this engine is expected to see overflows it, so ir.InferWidth can later
// read back each literal's true magnitude; callers then parse the source
// again at the inferred width.
const provisionalWidth = 64

// Parser holds one parse's token stream and cursor, mirroring the teacher's
// Parser struct shape (tokens, current, filename, errors).
type Parser struct {
	tokens   []Token
	current  int
	filename string
	width    int
	errs     []error
}

// New tokenizes source and returns a Parser ready to parse one expression or
// one program from it. width, if > 0, is used verbatim for every literal;
// otherwise literals are built at provisionalWidth for later inference.
func New(filename, source string, width int) (*Parser, error) {
	tokens, err := tokenize(filename, source)
	if err != nil {
		return nil, errors.NewParseError(0, 0, "lexing failed: %s", err)
	}
	return &Parser{tokens: tokens, filename: filename, width: width}, nil
}

func (p *Parser) numWidth() int {
	if p.width > 0 {
		return p.width
	}
	return provisionalWidth
}

// ParseExpr parses source as a single expression (used for rule patterns,
// replacement templates, and single-expression CLI input).
func ParseExpr(source string, width int) (ir.Expr, error) {
	p, err := New("<expr>", source, width)
	if err != nil {
		return nil, err
	}
	p.skipSemis()
	e := p.parsePrattExpr(0)
	p.skipSemis()
	if !p.isAtEnd() {
		return nil, errors.NewParseError(p.peek().Line, p.peek().Column, "unexpected trailing token %q", p.peek().Lexeme)
	}
	if len(p.errs) > 0 {
		return nil, p.errs[0]
	}
	return e, nil
}

// Statement is one `name = expr` line of a driver program.
type Statement struct {
	Name  string
	Value ir.Expr
}

// Program is a parsed `x1 = e1; ...; final_expr` driver input.
type Program struct {
	Statements []Statement
	Final      ir.Expr
}

// ParseProgram parses source as a sequence of assignment statements
// terminated by a final bare expression, per spec §4.7's program shape.
func ParseProgram(source string, width int) (*Program, error) {
	p, err := New("<program>", source, width)
	if err != nil {
		return nil, err
	}
	prog := &Program{}
	p.skipSemis()
	for !p.isAtEnd() {
		if p.check(IDENTIFIER) && p.peekAt(1).Type == ASSIGN {
			name := p.advance().Lexeme
			p.advance() // '='
			value := p.parsePrattExpr(0)
			prog.Statements = append(prog.Statements, Statement{Name: name, Value: value})
		} else {
			prog.Final = p.parsePrattExpr(0)
		}
		p.skipSemis()
	}
	if len(p.errs) > 0 {
		return nil, p.errs[0]
	}
	if prog.Final == nil {
		return nil, errors.NewParseError(0, 0, "program has no final expression")
	}
	return prog, nil
}

func (p *Parser) skipSemis() {
	for p.check(SEMI) {
		p.advance()
	}
}

func (p *Parser) advance() Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) check(tt TokenType) bool {
	if p.isAtEnd() {
		return tt == EOF
	}
	return p.peek().Type == tt
}

func (p *Parser) match(types ...TokenType) bool {
	for _, tt := range types {
		if p.check(tt) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) consume(tt TokenType, message string) Token {
	if p.check(tt) {
		return p.advance()
	}
	p.errorAtCurrent(message)
	return Token{Type: ILLEGAL}
}

func (p *Parser) peek() Token {
	return p.tokens[p.current]
}

func (p *Parser) peekAt(offset int) Token {
	idx := p.current + offset
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[idx]
}

func (p *Parser) previous() Token {
	return p.tokens[p.current-1]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == EOF
}

func (p *Parser) errorAtCurrent(message string) {
	tok := p.peek()
	p.errs = append(p.errs, errors.NewParseError(tok.Line, tok.Column, "%s (got %q)", message, tok.Lexeme))
}

func parseLiteral(lexeme string) (*big.Int, error) {
	v := new(big.Int)
	if len(lexeme) > 2 && (lexeme[:2] == "0x" || lexeme[:2] == "0X") {
		_, ok := v.SetString(lexeme[2:], 16)
		if !ok {
			return nil, fmt.Errorf("invalid hex literal %q", lexeme)
		}
		return v, nil
	}
	_, ok := v.SetString(lexeme, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer literal %q", lexeme)
	}
	return v, nil
}
