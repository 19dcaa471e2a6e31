package formula

import (
	"math"
	"testing"
)

func evalExpr(t *testing.T, expression string, names []string, bindings map[string]float64) float64 {
	t.Helper()
	return Compile(expression, names).Eval(bindings)
}

func expectValue(t *testing.T, expression string, bindings map[string]float64, expected float64) {
	t.Helper()

	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}

	got := evalExpr(t, expression, names, bindings)
	if math.Abs(got-expected) > 1e-9 {
		t.Errorf("For input '%s': expected %v, got %v", expression, expected, got)
	}
}

func expectNaN(t *testing.T, expression string, bindings map[string]float64) {
	t.Helper()

	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}

	got := evalExpr(t, expression, names, bindings)
	if !math.IsNaN(got) {
		t.Errorf("For input '%s': expected NaN, got %v", expression, got)
	}
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{`1 + 2`, 3},
		{`2 - 5`, -3},
		{`3 * 4`, 12},
		{`10 / 4`, 2.5},
		{`10 % 3`, 1},
		{`2 ^ 10`, 1024},
		{`2 ** 10`, 1024},
		{`-4`, -4},
		{`--4`, 4},
		{`+4`, 4},
		{`1 + 2 * 3`, 7},
		{`(1 + 2) * 3`, 9},
		{`2 * 3 ^ 2`, 18},
		{`2 ^ 3 ^ 2`, 512}, // right-associative
		{`-2 ^ 2`, 4},      // unary binds tighter than ^
		{`1.5 + .5`, 2},
		{`1e3 + 2.5e-1`, 1000.25},
	}

	for _, tt := range tests {
		expectValue(t, tt.input, nil, tt.expected)
	}
}

func TestBindings(t *testing.T) {
	bindings := map[string]float64{"principal": 2, "rate": 3}

	tests := []struct {
		input    string
		expected float64
	}{
		{`principal * rate * rate`, 18},
		{`principal + rate`, 5},
		{`(principal + rate) / 2`, 2.5},
	}

	for _, tt := range tests {
		expectValue(t, tt.input, bindings, tt.expected)
	}
}

func TestHelpers(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{`pow(2, 8)`, 256},
		{`min(3, 1, 2)`, 1},
		{`max(3, 1, 2)`, 3},
		{`abs(-5)`, 5},
		{`sqrt(16)`, 4},
		{`log(1)`, 0},
		{`exp(0)`, 1},
		{`floor(2.7)`, 2},
		{`ceil(2.1)`, 3},
		{`round(2.5)`, 3},
	}

	for _, tt := range tests {
		expectValue(t, tt.input, nil, tt.expected)
	}
}

func TestMathNamespace(t *testing.T) {
	expectValue(t, `Math.pow(2, 3)`, nil, 8)
	expectValue(t, `math.sqrt(9)`, nil, 3)
	expectValue(t, `Math.floor(9.9)`, nil, 9)
	expectValue(t, `Math.round(x * 10) / 10`, map[string]float64{"x": 1.26}, 1.3)
	expectValue(t, `Math.PI`, nil, math.Pi)
	expectValue(t, `Math.E`, nil, math.E)

	// Unknown namespaces and members degrade to NaN
	expectNaN(t, `Math.unknown(1)`, nil)
	expectNaN(t, `Other.pow(2, 3)`, nil)
}

// The evaluator is a total function: any broken expression returns NaN and
// never panics.
func TestBrokenExpressionsReturnNaN(t *testing.T) {
	broken := []string{
		``,
		`   `,
		`1 +`,
		`* 3`,
		`(1 + 2`,
		`1 + 2)`,
		`pow(1,`,
		`1 2`,
		`foo bar`,
		`1 + $`,
		`"text"`,
		`pow)(`,
		`2(3)`,
	}

	for _, input := range broken {
		expectNaN(t, input, nil)
	}
}

func TestNumericDegradation(t *testing.T) {
	// Missing binding
	expectNaN(t, `present + missing`, map[string]float64{"present": 1})

	// Division anomalies normalize to NaN, not infinity
	expectNaN(t, `1 / 0`, nil)
	expectNaN(t, `-1 / 0`, nil)

	// Domain errors
	expectNaN(t, `sqrt(-1)`, nil)
	expectNaN(t, `log(-1)`, nil)

	// Helper arity errors
	expectNaN(t, `pow(2)`, nil)
	expectNaN(t, `sqrt(1, 2)`, nil)
	expectNaN(t, `min()`, nil)
}

// A declared name shadows a same-named helper, matching how form field ids
// bind before the helper table.
func TestDeclaredNameShadowsHelper(t *testing.T) {
	got := Compile(`pow * 2`, []string{"pow"}).Eval(map[string]float64{"pow": 5})
	if got != 10 {
		t.Errorf("expected 10, got %v", got)
	}

	// Declared but unbound: NaN, even though a helper has that name
	got = Compile(`min + 1`, []string{"min"}).Eval(map[string]float64{})
	if !math.IsNaN(got) {
		t.Errorf("expected NaN for unbound declared name, got %v", got)
	}

	// Calling a shadowed helper is NaN
	got = Compile(`pow(2, 3)`, []string{"pow"}).Eval(map[string]float64{"pow": 5})
	if !math.IsNaN(got) {
		t.Errorf("expected NaN for shadowed helper call, got %v", got)
	}
}

func TestCompileOnceEvalMany(t *testing.T) {
	compiled := Compile(`base * height / 2`, []string{"base", "height"})

	tests := []struct {
		base, height, expected float64
	}{
		{3, 4, 6},
		{10, 10, 50},
		{0, 100, 0},
	}

	for _, tt := range tests {
		got := compiled.Eval(map[string]float64{"base": tt.base, "height": tt.height})
		if got != tt.expected {
			t.Errorf("base=%v height=%v: expected %v, got %v", tt.base, tt.height, got, tt.expected)
		}
	}
}
