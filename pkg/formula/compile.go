// Package formula compiles declarative formula strings into pure numeric
// functions. The evaluator is deliberately tiny: arithmetic, parentheses,
// named values, and an allow-listed helper table. It never panics and never
// returns an error: every failure mode evaluates to NaN so one author's
// broken formula cannot take down a whole page render.
package formula

import (
	"math"
	"strings"
)

// helperFn is a numeric helper callable from formulas.
// Returns NaN on arity or domain errors.
type helperFn func(args []float64) float64

// helpers is the fixed allow-list of callable functions. Formulas have no
// access to anything outside this table.
var helpers = map[string]helperFn{
	"pow": func(args []float64) float64 {
		if len(args) != 2 {
			return math.NaN()
		}
		return math.Pow(args[0], args[1])
	},
	"min": func(args []float64) float64 {
		if len(args) == 0 {
			return math.NaN()
		}
		result := args[0]
		for _, a := range args[1:] {
			result = math.Min(result, a)
		}
		return result
	},
	"max": func(args []float64) float64 {
		if len(args) == 0 {
			return math.NaN()
		}
		result := args[0]
		for _, a := range args[1:] {
			result = math.Max(result, a)
		}
		return result
	},
	"abs":   unary(math.Abs),
	"sqrt":  unary(math.Sqrt),
	"log":   unary(math.Log),
	"exp":   unary(math.Exp),
	"floor": unary(math.Floor),
	"ceil":  unary(math.Ceil),
	"round": unary(math.Round),
}

// mathConstants backs the Math namespace escape hatch (Math.PI etc.)
var mathConstants = map[string]float64{
	"PI": math.Pi,
	"E":  math.E,
}

func unary(fn func(float64) float64) helperFn {
	return func(args []float64) float64 {
		if len(args) != 1 {
			return math.NaN()
		}
		return fn(args[0])
	}
}

// Compiled is a formula parsed once and evaluated many times with different
// bindings. The zero value is not useful; construct with Compile.
type Compiled struct {
	source string
	names  map[string]bool
	tree   Expression
	failed bool
}

// Compile parses an expression over the declared names. Parsing happens once
// here; a syntactically broken expression yields a Compiled whose Eval always
// returns NaN rather than an error.
func Compile(expression string, names []string) *Compiled {
	c := &Compiled{
		source: expression,
		names:  make(map[string]bool, len(names)),
	}
	for _, name := range names {
		c.names[name] = true
	}

	if strings.TrimSpace(expression) == "" {
		c.failed = true
		return c
	}

	p := NewParser(NewLexer(expression))
	tree := p.ParseExpression()
	if tree == nil || len(p.Errors()) > 0 {
		c.failed = true
		return c
	}

	c.tree = tree
	return c
}

// Source returns the original expression text.
func (c *Compiled) Source() string { return c.source }

// Eval evaluates the compiled formula against the given bindings. Declared
// names missing from bindings evaluate to NaN, as do unknown identifiers,
// helper misuse, and any non-finite result.
func (c *Compiled) Eval(bindings map[string]float64) float64 {
	if c.failed || c.tree == nil {
		return math.NaN()
	}

	result := c.eval(c.tree, bindings)
	if math.IsInf(result, 0) {
		return math.NaN()
	}
	return result
}

func (c *Compiled) eval(node Expression, bindings map[string]float64) float64 {
	switch n := node.(type) {
	case *NumberLiteral:
		return n.Value

	case *Identifier:
		// A declared name shadows the helper namespace, mirroring how the
		// form field ids bind before helpers.
		if c.names[n.Value] {
			if v, ok := bindings[n.Value]; ok {
				return v
			}
			return math.NaN()
		}
		if v, ok := bindings[n.Value]; ok {
			return v
		}
		return math.NaN()

	case *PrefixExpression:
		right := c.eval(n.Right, bindings)
		switch n.Operator {
		case "-":
			return -right
		case "+":
			return right
		}
		return math.NaN()

	case *InfixExpression:
		left := c.eval(n.Left, bindings)
		right := c.eval(n.Right, bindings)
		switch n.Operator {
		case "+":
			return left + right
		case "-":
			return left - right
		case "*":
			return left * right
		case "/":
			return left / right
		case "%":
			return math.Mod(left, right)
		case "^", "**":
			return math.Pow(left, right)
		}
		return math.NaN()

	case *MemberExpression:
		if !isMathNamespace(n.Object.Value) {
			return math.NaN()
		}
		if v, ok := mathConstants[n.Property]; ok {
			return v
		}
		return math.NaN()

	case *CallExpression:
		fn := c.resolveHelper(n.Function)
		if fn == nil {
			return math.NaN()
		}
		args := make([]float64, 0, len(n.Arguments))
		for _, arg := range n.Arguments {
			args = append(args, c.eval(arg, bindings))
		}
		return fn(args)
	}

	return math.NaN()
}

// resolveHelper maps a call target to a helper function. Both bare names
// (pow, sqrt) and Math-namespace members (Math.pow) resolve against the same
// allow-list. Declared names shadow bare helper names.
func (c *Compiled) resolveHelper(fn Expression) helperFn {
	switch f := fn.(type) {
	case *Identifier:
		if c.names[f.Value] {
			return nil
		}
		return helpers[f.Value]
	case *MemberExpression:
		if !isMathNamespace(f.Object.Value) {
			return nil
		}
		return helpers[strings.ToLower(f.Property)]
	}
	return nil
}

func isMathNamespace(name string) bool {
	return name == "Math" || name == "math"
}
