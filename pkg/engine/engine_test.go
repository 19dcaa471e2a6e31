package engine

import (
	"math"
	"testing"

	"github.com/rywalsh/sliderule/pkg/calcconfig"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEvaluateFormula(t *testing.T) {
	logic := &calcconfig.FormulaLogic{
		Outputs: []*calcconfig.FormulaOutput{
			{ID: "interest", Label: "Interest", Expression: "principal * rate * rate"},
			{ID: "total", Label: "Total", Expression: "principal + principal * rate", Unit: "USD"},
		},
	}

	outputs := EvaluateFormula(logic, []string{"principal", "rate"}, map[string]float64{
		"principal": 200,
		"rate":      0.3,
	})

	if len(outputs) != 2 {
		t.Fatalf("expected 2 outputs, got %d", len(outputs))
	}
	if !approxEqual(outputs[0].Value, 18) {
		t.Errorf("interest: got %v, want 18", outputs[0].Value)
	}
	if !approxEqual(outputs[1].Value, 260) {
		t.Errorf("total: got %v, want 260", outputs[1].Value)
	}
	if outputs[1].Unit != "USD" {
		t.Errorf("unit: got %q", outputs[1].Unit)
	}
}

func TestEvaluateFormulaMissingInput(t *testing.T) {
	logic := &calcconfig.FormulaLogic{
		Outputs: []*calcconfig.FormulaOutput{
			{ID: "x", Label: "X", Expression: "a + b"},
		},
	}

	outputs := EvaluateFormula(logic, []string{"a", "b"}, map[string]float64{"a": 1})
	if !math.IsNaN(outputs[0].Value) {
		t.Errorf("missing input should yield NaN, got %v", outputs[0].Value)
	}
}

func TestCompileOutputsReuse(t *testing.T) {
	logic := &calcconfig.FormulaLogic{
		Outputs: []*calcconfig.FormulaOutput{
			{ID: "double", Label: "Double", Expression: "n * 2"},
		},
	}

	compiled := CompileOutputs(logic, []string{"n"})
	if len(compiled) != 1 {
		t.Fatalf("expected 1 compiled output, got %d", len(compiled))
	}

	for n, want := range map[float64]float64{1: 2, 5: 10, -3: -6} {
		if got := compiled[0].Eval(map[string]float64{"n": n}); !approxEqual(got, want) {
			t.Errorf("n=%v: got %v, want %v", n, got, want)
		}
	}
}

func TestCompileOutputsNilLogic(t *testing.T) {
	if got := CompileOutputs(nil, nil); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func method(t *testing.T, raw string) *calcconfig.AdvancedMethod {
	t.Helper()
	config, errs := calcconfig.Validate(raw, "test")
	if len(errs) > 0 {
		t.Fatalf("config errors: %v", errs)
	}
	logic, ok := config.Logic.(*calcconfig.AdvancedLogic)
	if !ok {
		t.Fatalf("expected advanced logic, got %T", config.Logic)
	}
	return logic.Method(logic.DefaultMethod)
}

func TestEvaluateMethod(t *testing.T) {
	m := method(t, `{
		"logic": {
			"type": "advanced",
			"methods": {
				"mifflin": {
					"formula": "bmr",
					"variables": {
						"base": "10 * weight + 6.25 * height",
						"bmr": {
							"expression": "base - 5 * age + 5",
							"dependencies": ["base"],
							"display": true
						}
					}
				}
			}
		},
		"form": {"fields": [
			{"id": "weight", "label": "Weight", "type": "number"},
			{"id": "height", "label": "Height", "type": "number"},
			{"id": "age", "label": "Age", "type": "number"}
		]}
	}`)

	result := EvaluateMethod(m, map[string]float64{"weight": 70, "height": 175, "age": 30})

	if !approxEqual(result.Variables["base"], 1793.75) {
		t.Errorf("base: got %v", result.Variables["base"])
	}
	if !approxEqual(result.Variables["bmr"], 1648.75) {
		t.Errorf("bmr: got %v", result.Variables["bmr"])
	}

	if len(result.Outputs) == 0 {
		t.Fatal("expected outputs")
	}
	if !approxEqual(result.Outputs[0].Value, 1648.75) {
		t.Errorf("output value: got %v", result.Outputs[0].Value)
	}
}

func TestEvaluateMethodDependencyChain(t *testing.T) {
	// c depends on b depends on a; only a is derivable from inputs directly.
	m := method(t, `{
		"logic": {
			"type": "advanced",
			"methods": {
				"chain": {
					"formula": "c",
					"variables": {
						"a": "x * 2",
						"b": {"expression": "a + 1", "dependencies": ["a"]},
						"c": {"expression": "b * b", "dependencies": ["b"]}
					}
				}
			}
		},
		"form": {"fields": [{"id": "x", "label": "X", "type": "number"}]}
	}`)

	result := EvaluateMethod(m, map[string]float64{"x": 3})

	if !approxEqual(result.Variables["c"], 49) {
		t.Errorf("c: got %v, want 49", result.Variables["c"])
	}
}

func TestEvaluateMethodCycleYieldsNaN(t *testing.T) {
	m := method(t, `{
		"logic": {
			"type": "advanced",
			"methods": {
				"loop": {
					"variables": {
						"a": {"expression": "b + 1", "dependencies": ["b"], "display": true},
						"b": {"expression": "a + 1", "dependencies": ["a"]}
					}
				}
			}
		},
		"form": {"fields": [{"id": "x", "label": "X", "type": "number"}]}
	}`)

	result := EvaluateMethod(m, map[string]float64{"x": 1})

	if !math.IsNaN(result.Variables["a"]) {
		t.Errorf("cyclic a: got %v, want NaN", result.Variables["a"])
	}
	if !math.IsNaN(result.Outputs[0].Value) {
		t.Errorf("output of cyclic variable: got %v, want NaN", result.Outputs[0].Value)
	}
}

func TestEvaluateMethodInputShadowing(t *testing.T) {
	// A computed variable with the same name as an input wins inside later
	// expressions.
	m := method(t, `{
		"logic": {
			"type": "advanced",
			"methods": {
				"shadow": {
					"formula": "result",
					"variables": {
						"adjusted": "x + 10",
						"result": {"expression": "adjusted * 2", "dependencies": ["adjusted"]}
					}
				}
			}
		},
		"form": {"fields": [
			{"id": "x", "label": "X", "type": "number"},
			{"id": "adjusted", "label": "Adjusted", "type": "number"}
		]}
	}`)

	// The raw "adjusted" input is 100, but the computed variable of the same
	// name takes precedence inside later expressions.
	result := EvaluateMethod(m, map[string]float64{"x": 5, "adjusted": 100})
	if !approxEqual(result.Variables["result"], 30) {
		t.Errorf("result: got %v, want 30", result.Variables["result"])
	}
}

func TestEvaluateMethodOutputFallsBackToInput(t *testing.T) {
	m := method(t, `{
		"logic": {
			"type": "advanced",
			"methods": {
				"echo": {
					"variables": {"doubled": {"expression": "x * 2", "display": true}},
					"outputs": [
						{"id": "raw", "label": "Raw", "variable": "x"},
						{"id": "doubled_out", "label": "Doubled", "variable": "doubled"},
						{"id": "missing", "label": "Missing", "variable": "nope"}
					]
				}
			}
		},
		"form": {"fields": [{"id": "x", "label": "X", "type": "number"}]}
	}`)

	result := EvaluateMethod(m, map[string]float64{"x": 7})

	if !approxEqual(result.Outputs[0].Value, 7) {
		t.Errorf("input fallback: got %v, want 7", result.Outputs[0].Value)
	}
	if !approxEqual(result.Outputs[1].Value, 14) {
		t.Errorf("variable output: got %v, want 14", result.Outputs[1].Value)
	}
	if !math.IsNaN(result.Outputs[2].Value) {
		t.Errorf("unknown variable: got %v, want NaN", result.Outputs[2].Value)
	}
}

func TestEvaluateMethodBrokenExpression(t *testing.T) {
	m := method(t, `{
		"logic": {
			"type": "advanced",
			"methods": {
				"broken": {
					"variables": {
						"bad": {"expression": "x +* 2", "display": true},
						"good": {"expression": "x + 2", "display": true}
					}
				}
			}
		},
		"form": {"fields": [{"id": "x", "label": "X", "type": "number"}]}
	}`)

	result := EvaluateMethod(m, map[string]float64{"x": 1})

	if !math.IsNaN(result.Variables["bad"]) {
		t.Errorf("broken expression: got %v, want NaN", result.Variables["bad"])
	}
	if !approxEqual(result.Variables["good"], 3) {
		t.Errorf("sibling variable unaffected: got %v, want 3", result.Variables["good"])
	}
}
