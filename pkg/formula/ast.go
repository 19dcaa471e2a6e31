package formula

import (
	"bytes"
	"strconv"
	"strings"
)

// Expression represents any node in a parsed formula
type Expression interface {
	String() string
	expressionNode()
}

// NumberLiteral represents numeric literals like 12 or 3.14
type NumberLiteral struct {
	Token Token
	Value float64
}

func (nl *NumberLiteral) expressionNode() {}
func (nl *NumberLiteral) String() string {
	return strconv.FormatFloat(nl.Value, 'g', -1, 64)
}

// Identifier represents a named value like 'principal' or 'rate'
type Identifier struct {
	Token Token
	Value string
}

func (i *Identifier) expressionNode() {}
func (i *Identifier) String() string  { return i.Value }

// PrefixExpression represents unary expressions like '-x'
type PrefixExpression struct {
	Token    Token
	Operator string
	Right    Expression
}

func (pe *PrefixExpression) expressionNode() {}
func (pe *PrefixExpression) String() string {
	return "(" + pe.Operator + pe.Right.String() + ")"
}

// InfixExpression represents binary expressions like 'a * b'
type InfixExpression struct {
	Token    Token
	Left     Expression
	Operator string
	Right    Expression
}

func (ie *InfixExpression) expressionNode() {}
func (ie *InfixExpression) String() string {
	return "(" + ie.Left.String() + " " + ie.Operator + " " + ie.Right.String() + ")"
}

// MemberExpression represents namespace access like 'Math.PI' or 'Math.pow'
type MemberExpression struct {
	Token    Token // the DOT token
	Object   *Identifier
	Property string
}

func (me *MemberExpression) expressionNode() {}
func (me *MemberExpression) String() string {
	return me.Object.String() + "." + me.Property
}

// CallExpression represents helper calls like 'pow(base, 2)'
type CallExpression struct {
	Token     Token // the LPAREN token
	Function  Expression
	Arguments []Expression
}

func (ce *CallExpression) expressionNode() {}
func (ce *CallExpression) String() string {
	var out bytes.Buffer

	args := make([]string, 0, len(ce.Arguments))
	for _, a := range ce.Arguments {
		args = append(args, a.String())
	}

	out.WriteString(ce.Function.String())
	out.WriteString("(")
	out.WriteString(strings.Join(args, ", "))
	out.WriteString(")")

	return out.String()
}
