// Package engine turns validated calculator logic into numbers. It bridges
// the config schema and the formula compiler: formula logic compiles to a
// set of independent outputs, advanced logic resolves a per-method variable
// dependency graph. Evaluation is total: missing inputs, broken expressions,
// and dependency cycles all surface as NaN values, never as errors.
package engine

import (
	"math"

	"github.com/rywalsh/sliderule/pkg/calcconfig"
	"github.com/rywalsh/sliderule/pkg/formula"
)

// OutputValue is one computed result slot ready for display.
type OutputValue struct {
	ID     string
	Label  string
	Value  float64
	Unit   string
	Format string
}

// CompiledOutput pairs a formula-logic output with its compiled expression.
type CompiledOutput struct {
	Output  *calcconfig.FormulaOutput
	program *formula.Compiled
}

// Eval computes the output's value for the given input bindings.
func (c *CompiledOutput) Eval(inputs map[string]float64) float64 {
	return c.program.Eval(inputs)
}

// CompileOutputs compiles every output expression of a formula logic block
// once, over the form's field ids. The result can be evaluated repeatedly
// with different input values.
func CompileOutputs(logic *calcconfig.FormulaLogic, fieldIDs []string) []*CompiledOutput {
	if logic == nil {
		return nil
	}

	compiled := make([]*CompiledOutput, 0, len(logic.Outputs))
	for _, output := range logic.Outputs {
		compiled = append(compiled, &CompiledOutput{
			Output:  output,
			program: formula.Compile(output.Expression, fieldIDs),
		})
	}
	return compiled
}

// EvaluateFormula compiles and evaluates formula logic in one step.
func EvaluateFormula(logic *calcconfig.FormulaLogic, fieldIDs []string, inputs map[string]float64) []OutputValue {
	compiled := CompileOutputs(logic, fieldIDs)

	outputs := make([]OutputValue, 0, len(compiled))
	for _, c := range compiled {
		outputs = append(outputs, OutputValue{
			ID:     c.Output.ID,
			Label:  c.Output.Label,
			Value:  c.Eval(inputs),
			Unit:   c.Output.Unit,
			Format: c.Output.Format,
		})
	}
	return outputs
}

// MethodResult holds every resolved variable of a method plus its outputs.
type MethodResult struct {
	Variables map[string]float64
	Outputs   []OutputValue
}

// EvaluateMethod resolves all variables of an advanced method against the
// given numeric inputs and reads the method's outputs. Variables resolve
// lazily with memoization; declared dependencies are computed before the
// referencing expression runs. A variable that participates in a dependency
// cycle resolves to NaN instead of recursing forever.
func EvaluateMethod(method *calcconfig.AdvancedMethod, inputs map[string]float64) *MethodResult {
	r := &methodResolver{
		method:    method,
		inputs:    inputs,
		resolved:  make(map[string]float64),
		resolving: make(map[string]bool),
	}

	for _, variableID := range method.VariableIDs() {
		r.resolve(variableID)
	}

	outputs := make([]OutputValue, 0, len(method.Outputs))
	for _, output := range method.Outputs {
		value, ok := r.resolved[output.Variable]
		if !ok {
			value, ok = inputs[output.Variable]
		}
		if !ok {
			value = math.NaN()
		}

		outputs = append(outputs, OutputValue{
			ID:     output.ID,
			Label:  output.Label,
			Value:  value,
			Unit:   output.Unit,
			Format: output.Format,
		})
	}

	return &MethodResult{Variables: r.resolved, Outputs: outputs}
}

type methodResolver struct {
	method    *calcconfig.AdvancedMethod
	inputs    map[string]float64
	resolved  map[string]float64
	resolving map[string]bool
}

func (r *methodResolver) resolve(variableID string) float64 {
	if value, ok := r.resolved[variableID]; ok {
		return value
	}

	variable := r.method.Variables[variableID]
	if variable == nil {
		return math.NaN()
	}

	// Cycle guard: a variable already on the resolution stack evaluates to
	// NaN in the frame that re-entered it.
	if r.resolving[variableID] {
		return math.NaN()
	}
	r.resolving[variableID] = true
	defer delete(r.resolving, variableID)

	bindings := make(map[string]float64, len(r.inputs)+len(r.resolved)+len(variable.Dependencies))
	for id, value := range r.inputs {
		bindings[id] = value
	}
	for id, value := range r.resolved {
		bindings[id] = value
	}
	for _, dependency := range variable.Dependencies {
		if _, ok := bindings[dependency]; !ok {
			bindings[dependency] = r.resolve(dependency)
		}
	}

	names := make([]string, 0, len(bindings))
	for id := range bindings {
		names = append(names, id)
	}

	value := formula.Compile(variable.Expression, names).Eval(bindings)
	r.resolved[variableID] = value
	return value
}
