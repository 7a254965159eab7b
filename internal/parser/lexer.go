package parser

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// exprLexer tokenizes the flat expression surface syntax patterns, target
// expressions, and driver programs are all written in. Grounded on the
// teacher's grammar.KansoLexer: a participle stateful lexer with one state,
// rules tried in order, matching the same library and the same "rules in a
// slice, longest operators first" idiom.
var exprLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `#[^\n]*`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Number", `0[xX][0-9a-fA-F]+|[0-9]+`, nil},
		{"ShiftOp", `<<|>>`, nil},
		{"Op", `[-+*&|^~=(),;]`, nil},
		{"Newline", `\n`, nil},
		{"Whitespace", `[ \t\r]+`, nil},
	},
})

// tokenize runs the stateful lexer over source and converts its token
// stream into the flat []Token slice the parser consumes, eliding whitespace
// and comments the way the teacher's parser.go elides "Whitespace" at the
// participle.Build call.
func tokenize(filename, source string) ([]Token, error) {
	lex, err := exprLexer.Lex(filename, strings.NewReader(source))
	if err != nil {
		return nil, err
	}
	tokens, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, err
	}

	var out []Token
	for _, t := range tokens {
		switch t.Type {
		case exprLexer.Symbols()["Whitespace"], exprLexer.Symbols()["Comment"]:
			continue
		case lexer.EOF:
			out = append(out, Token{Type: EOF, Lexeme: "", Position: int(t.Pos.Offset), Line: t.Pos.Line, Column: t.Pos.Column})
			continue
		}
		tt, ok := classify(t.Type, t.Value)
		if !ok {
			continue
		}
		out = append(out, Token{Type: tt, Lexeme: t.Value, Position: int(t.Pos.Offset), Line: t.Pos.Line, Column: t.Pos.Column})
	}
	if len(out) == 0 || out[len(out)-1].Type != EOF {
		out = append(out, Token{Type: EOF})
	}
	return out, nil
}

func classify(symType lexer.TokenType, value string) (TokenType, bool) {
	switch symType {
	case exprLexer.Symbols()["Ident"]:
		return IDENTIFIER, true
	case exprLexer.Symbols()["Number"]:
		return NUMBER, true
	case exprLexer.Symbols()["Newline"]:
		return SEMI, true
	case exprLexer.Symbols()["ShiftOp"]:
		if value == "<<" {
			return SHL, true
		}
		return SHR, true
	case exprLexer.Symbols()["Op"]:
		switch value {
		case "+":
			return PLUS, true
		case "-":
			return MINUS, true
		case "*":
			return STAR, true
		case "&":
			return AMP, true
		case "|":
			return PIPE, true
		case "^":
			return CARET, true
		case "~":
			return TILDE, true
		case "=":
			return ASSIGN, true
		case "(":
			return LPAREN, true
		case ")":
			return RPAREN, true
		case ",":
			return COMMA, true
		case ";":
			return SEMI, true
		}
	}
	return ILLEGAL, false
}
