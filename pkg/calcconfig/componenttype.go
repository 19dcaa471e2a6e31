package calcconfig

import (
	"fmt"
	"strings"
)

// ComponentType selects which calculator widget a page renders.
type ComponentType string

const (
	ComponentConverter    ComponentType = "converter"
	ComponentSimpleCalc   ComponentType = "simple_calc"
	ComponentAdvancedCalc ComponentType = "advanced_calc"
)

// NormalizeComponentType maps raw component_type values, including the
// short spellings, to a canonical ComponentType. Blank input yields ""
// without error so callers can fall back to inference.
func NormalizeComponentType(input string) (ComponentType, error) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", nil
	}

	switch normalized {
	case "converter", "conversion":
		return ComponentConverter, nil
	case "simple_calc", "simple":
		return ComponentSimpleCalc, nil
	case "advanced_calc", "advanced":
		return ComponentAdvancedCalc, nil
	}

	return "", fmt.Errorf("unsupported component_type value %q", input)
}

// InferComponentType derives the component type from a config's logic kind.
// Returns "" when the config has no logic or an unrecognized kind.
func InferComponentType(config *CalculatorConfig) ComponentType {
	if config == nil || config.Logic == nil {
		return ""
	}

	switch config.Logic.Kind() {
	case "conversion":
		return ComponentConverter
	case "formula":
		return ComponentSimpleCalc
	case "advanced":
		return ComponentAdvancedCalc
	}

	return ""
}
