package formula

import (
	"fmt"
	"strconv"
)

// Precedence levels for operators
const (
	_ int = iota
	LOWEST
	SUM     // + -
	PRODUCT // * / %
	POWER   // ^ and **
	PREFIX  // -x
	CALL    // fn(x)
	MEMBER  // Math.pow
)

// precedences maps tokens to their precedence
var precedences = map[TokenType]int{
	PLUS:     SUM,
	MINUS:    SUM,
	ASTERISK: PRODUCT,
	SLASH:    PRODUCT,
	PERCENT:  PRODUCT,
	CARET:    POWER,
	LPAREN:   CALL,
	DOT:      MEMBER,
}

// Parser parses a single formula expression
type Parser struct {
	l *Lexer

	errors []string

	curToken  Token
	peekToken Token

	prefixParseFns map[TokenType]prefixParseFn
	infixParseFns  map[TokenType]infixParseFn
}

type (
	prefixParseFn func() Expression
	infixParseFn  func(Expression) Expression
)

// NewParser creates a parser over the given lexer
func NewParser(l *Lexer) *Parser {
	p := &Parser{l: l}

	p.prefixParseFns = make(map[TokenType]prefixParseFn)
	p.registerPrefix(IDENT, p.parseIdentifier)
	p.registerPrefix(NUMBER, p.parseNumberLiteral)
	p.registerPrefix(MINUS, p.parsePrefixExpression)
	p.registerPrefix(PLUS, p.parsePrefixExpression)
	p.registerPrefix(LPAREN, p.parseGroupedExpression)

	p.infixParseFns = make(map[TokenType]infixParseFn)
	p.registerInfix(PLUS, p.parseInfixExpression)
	p.registerInfix(MINUS, p.parseInfixExpression)
	p.registerInfix(ASTERISK, p.parseInfixExpression)
	p.registerInfix(SLASH, p.parseInfixExpression)
	p.registerInfix(PERCENT, p.parseInfixExpression)
	p.registerInfix(CARET, p.parseInfixExpression)
	p.registerInfix(LPAREN, p.parseCallExpression)
	p.registerInfix(DOT, p.parseMemberExpression)

	// Read two tokens so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

func (p *Parser) registerPrefix(tokenType TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

// Errors returns the parse errors collected so far
func (p *Parser) Errors() []string {
	return p.errors
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

// ParseExpression parses the whole input as a single expression.
// Trailing tokens after a complete expression are an error.
func (p *Parser) ParseExpression() Expression {
	expr := p.parseExpression(LOWEST)
	if p.peekToken.Type != EOF {
		p.errors = append(p.errors, fmt.Sprintf("unexpected token %s", p.peekToken))
	}
	return expr
}

func (p *Parser) parseExpression(precedence int) Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.errors = append(p.errors, fmt.Sprintf("unexpected token %s", p.curToken))
		return nil
	}
	left := prefix()

	for p.peekToken.Type != EOF && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
	}

	return left
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) parseIdentifier() Expression {
	return &Identifier{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseNumberLiteral() Expression {
	lit := &NumberLiteral{Token: p.curToken}

	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.errors = append(p.errors, fmt.Sprintf("could not parse %q as a number", p.curToken.Literal))
		return nil
	}

	lit.Value = value
	return lit
}

func (p *Parser) parsePrefixExpression() Expression {
	expr := &PrefixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
	}

	p.nextToken()
	expr.Right = p.parseExpression(PREFIX)
	if expr.Right == nil {
		return nil
	}

	return expr
}

func (p *Parser) parseInfixExpression(left Expression) Expression {
	if left == nil {
		return nil
	}

	expr := &InfixExpression{
		Token:    p.curToken,
		Left:     left,
		Operator: p.curToken.Literal,
	}

	precedence := p.curPrecedence()
	if expr.Token.Type == CARET {
		// Exponentiation is right-associative
		precedence--
	}

	p.nextToken()
	expr.Right = p.parseExpression(precedence)
	if expr.Right == nil {
		return nil
	}

	return expr
}

func (p *Parser) parseGroupedExpression() Expression {
	p.nextToken()

	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil
	}

	if !p.expectPeek(RPAREN) {
		return nil
	}

	return expr
}

func (p *Parser) parseMemberExpression(object Expression) Expression {
	ident, ok := object.(*Identifier)
	if !ok {
		p.errors = append(p.errors, fmt.Sprintf("member access requires a namespace, got %s", p.curToken))
		return nil
	}

	dot := p.curToken
	if !p.expectPeek(IDENT) {
		return nil
	}

	return &MemberExpression{Token: dot, Object: ident, Property: p.curToken.Literal}
}

func (p *Parser) parseCallExpression(function Expression) Expression {
	switch function.(type) {
	case *Identifier, *MemberExpression:
		// Only bare helper names and namespace members are callable
	default:
		p.errors = append(p.errors, fmt.Sprintf("cannot call %s", p.curToken))
		return nil
	}

	expr := &CallExpression{Token: p.curToken, Function: function}
	expr.Arguments = p.parseCallArguments()
	if expr.Arguments == nil {
		return nil
	}

	return expr
}

func (p *Parser) parseCallArguments() []Expression {
	args := []Expression{}

	if p.peekToken.Type == RPAREN {
		p.nextToken()
		return args
	}

	p.nextToken()
	arg := p.parseExpression(LOWEST)
	if arg == nil {
		return nil
	}
	args = append(args, arg)

	for p.peekToken.Type == COMMA {
		p.nextToken()
		p.nextToken()
		arg = p.parseExpression(LOWEST)
		if arg == nil {
			return nil
		}
		args = append(args, arg)
	}

	if !p.expectPeek(RPAREN) {
		return nil
	}

	return args
}

func (p *Parser) expectPeek(t TokenType) bool {
	if p.peekToken.Type == t {
		p.nextToken()
		return true
	}
	p.errors = append(p.errors, fmt.Sprintf("unexpected token %s", p.peekToken))
	return false
}
