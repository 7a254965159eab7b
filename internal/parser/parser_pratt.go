package parser

import "mbarw/internal/ir"

// binaryPrecedence mirrors the teacher's parser_pratt.go precedence table,
// re-tuned to this grammar's bitwise/arithmetic operator set (lowest to
// highest binds loosest to tightest): | then ^ then & then shifts then
// +/- then *, matching C-family convention for the same operator symbols.
var binaryPrecedence = map[TokenType]int{
	PIPE:  1,
	CARET: 2,
	AMP:   3,
	SHL:   4,
	SHR:   4,
	PLUS:  5,
	MINUS: 5,
	STAR:  6,
}

var binaryOp = map[TokenType]ir.BinOpKind{
	PIPE:  ir.Or,
	CARET: ir.Xor,
	AMP:   ir.And,
	SHL:   ir.Shl,
	SHR:   ir.Shr,
	PLUS:  ir.Add,
	MINUS: ir.Sub,
	STAR:  ir.Mul,
}

func (p *Parser) parsePrattExpr(minPrec int) ir.Expr {
	expr := p.parsePrefixExpr()

	for {
		tok := p.peek()
		prec, ok := binaryPrecedence[tok.Type]
		if !ok || prec < minPrec {
			break
		}
		p.advance()
		right := p.parsePrattExpr(prec + 1)
		expr = &ir.BinOp{Op: binaryOp[tok.Type], Left: expr, Right: right}
	}

	return expr
}

func (p *Parser) parsePrefixExpr() ir.Expr {
	if p.match(MINUS) {
		return &ir.UnaryOp{Op: ir.Neg, Operand: p.parsePrefixExpr()}
	}
	if p.match(TILDE) {
		return &ir.UnaryOp{Op: ir.Not, Operand: p.parsePrefixExpr()}
	}
	return p.parsePrimaryExpr()
}

func (p *Parser) parsePrimaryExpr() ir.Expr {
	if p.match(NUMBER) {
		tok := p.previous()
		v, err := parseLiteral(tok.Lexeme)
		if err != nil {
			p.errorAtCurrent(err.Error())
			return ir.NewNumInt64(0, p.numWidth())
		}
		return ir.NewNum(v, p.numWidth())
	}

	if p.match(IDENTIFIER) {
		name := p.previous().Lexeme
		if p.check(LPAREN) {
			p.advance()
			args := p.parseExprList()
			p.consume(RPAREN, "expected ')' after call arguments")
			return &ir.Call{Name: name, Args: args}
		}
		return &ir.Var{Name: name}
	}

	if p.match(LPAREN) {
		inner := p.parsePrattExpr(0)
		p.consume(RPAREN, "expected ')'")
		return inner
	}

	p.errorAtCurrent("unexpected token in expression")
	p.advance()
	return ir.NewNumInt64(0, p.numWidth())
}

func (p *Parser) parseExprList() []ir.Expr {
	var args []ir.Expr
	if p.check(RPAREN) {
		return args
	}
	for {
		args = append(args, p.parsePrattExpr(0))
		if !p.match(COMMA) {
			break
		}
	}
	return args
}
