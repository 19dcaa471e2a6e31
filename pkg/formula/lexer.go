package formula

import "fmt"

// TokenType represents different types of tokens
type TokenType int

const (
	// Special tokens
	ILLEGAL TokenType = iota
	EOF

	// Identifiers and literals
	IDENT  // principal, rate, pow, Math
	NUMBER // 1343, 3.14159, .5

	// Operators
	PLUS     // +
	MINUS    // -
	ASTERISK // *
	SLASH    // /
	PERCENT  // %
	CARET    // ^ (also **)

	// Delimiters
	LPAREN // (
	RPAREN // )
	COMMA  // ,
	DOT    // .
)

// Token represents a lexed token with its position in the source expression
type Token struct {
	Type    TokenType
	Literal string
	Column  int // 1-based offset into the expression
}

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("%q at column %d", t.Literal, t.Column)
}

// Lexer tokenizes a formula expression
type Lexer struct {
	input   string
	pos     int  // current position (points to ch)
	readPos int  // next reading position
	ch      byte // current char under examination
}

// NewLexer creates a lexer for the given expression
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// NextToken returns the next token in the expression
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	col := l.pos + 1

	var tok Token
	switch l.ch {
	case 0:
		tok = Token{Type: EOF, Literal: "", Column: col}
	case '+':
		tok = Token{Type: PLUS, Literal: "+", Column: col}
	case '-':
		tok = Token{Type: MINUS, Literal: "-", Column: col}
	case '*':
		if l.peekChar() == '*' {
			l.readChar()
			tok = Token{Type: CARET, Literal: "**", Column: col}
		} else {
			tok = Token{Type: ASTERISK, Literal: "*", Column: col}
		}
	case '/':
		tok = Token{Type: SLASH, Literal: "/", Column: col}
	case '%':
		tok = Token{Type: PERCENT, Literal: "%", Column: col}
	case '^':
		tok = Token{Type: CARET, Literal: "^", Column: col}
	case '(':
		tok = Token{Type: LPAREN, Literal: "(", Column: col}
	case ')':
		tok = Token{Type: RPAREN, Literal: ")", Column: col}
	case ',':
		tok = Token{Type: COMMA, Literal: ",", Column: col}
	case '.':
		// A leading dot can start a number (.5) or act as member access
		if isDigit(l.peekChar()) {
			return l.readNumber()
		}
		tok = Token{Type: DOT, Literal: ".", Column: col}
	default:
		if isLetter(l.ch) {
			return l.readIdentifier()
		}
		if isDigit(l.ch) {
			return l.readNumber()
		}
		tok = Token{Type: ILLEGAL, Literal: string(l.ch), Column: col}
	}

	l.readChar()
	return tok
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *Lexer) readIdentifier() Token {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return Token{Type: IDENT, Literal: l.input[start:l.pos], Column: start + 1}
}

func (l *Lexer) readNumber() Token {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	// Exponent part: 1e9, 2.5e-3
	if l.ch == 'e' || l.ch == 'E' {
		peek := l.peekChar()
		if isDigit(peek) || peek == '+' || peek == '-' {
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	return Token{Type: NUMBER, Literal: l.input[start:l.pos], Column: start + 1}
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
