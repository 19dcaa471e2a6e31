// Package units provides the static unit registry and the conversion
// resolver behind every converter page: unit lookup by id or alias,
// slug-based unit-pair extraction, and affine to/from-base conversions.
package units

import (
	"math"
	"regexp"
	"strings"
)

// Kind identifies a unit family. Units of different kinds are never
// interconvertible.
type Kind string

const (
	Length      Kind = "length"
	Weight      Kind = "weight"
	Temperature Kind = "temperature"
	Volume      Kind = "volume"
	Area        Kind = "area"
)

// UnitDefinition describes a single unit: identity, display strings, the
// family it belongs to, and the affine transforms to and from the family's
// base unit. ToBase may include an additive offset (temperature); everything
// else is pure scaling.
type UnitDefinition struct {
	ID            string
	Label         string
	Symbol        string
	Kind          Kind
	ToBase        func(value float64) float64
	FromBase      func(value float64) float64
	DecimalPlaces int
}

// ConversionContext pairs two units of the same kind for a converter page.
// Ephemeral: recomputed per render, never cached.
type ConversionContext struct {
	From *UnitDefinition
	To   *UnitDefinition
	Kind Kind
}

// Direction selects which way a conversion runs.
type Direction string

const (
	Forward Direction = "forward"
	Reverse Direction = "reverse"
)

func scaled(factor float64) (func(float64) float64, func(float64) float64) {
	toBase := func(v float64) float64 { return v * factor }
	fromBase := func(v float64) float64 { return v / factor }
	return toBase, fromBase
}

func identity(v float64) float64 { return v }

func unit(id, label, symbol string, kind Kind, factor float64, decimals int) *UnitDefinition {
	toBase, fromBase := scaled(factor)
	return &UnitDefinition{
		ID:            id,
		Label:         label,
		Symbol:        symbol,
		Kind:          kind,
		ToBase:        toBase,
		FromBase:      fromBase,
		DecimalPlaces: decimals,
	}
}

// registry maps unit ids to definitions. Base units: meter, kilogram, kelvin,
// liter, square meter.
var registry = map[string]*UnitDefinition{
	// Length (base: meter)
	"meter":      unit("meter", "Meter", "m", Length, 1, 4),
	"kilometer":  unit("kilometer", "Kilometer", "km", Length, 1000, 4),
	"foot":       unit("foot", "Foot", "ft", Length, 0.3048, 4),
	"inch":       unit("inch", "Inch", "in", Length, 0.0254, 4),
	"centimeter": unit("centimeter", "Centimeter", "cm", Length, 0.01, 4),
	"millimeter": unit("millimeter", "Millimeter", "mm", Length, 0.001, 4),
	"yard":       unit("yard", "Yard", "yd", Length, 0.9144, 4),
	"mile":       unit("mile", "Mile", "mi", Length, 1609.344, 4),

	// Weight (base: kilogram)
	"gram":     unit("gram", "Gram", "g", Weight, 0.001, 4),
	"kilogram": unit("kilogram", "Kilogram", "kg", Weight, 1, 4),
	"pound":    unit("pound", "Pound", "lb", Weight, 0.45359237, 4),
	"ounce":    unit("ounce", "Ounce", "oz", Weight, 0.0283495231, 4),
	"stone":    unit("stone", "Stone", "st", Weight, 6.35029318, 4),

	// Volume (base: liter)
	"liter":      unit("liter", "Liter", "L", Volume, 1, 4),
	"milliliter": unit("milliliter", "Milliliter", "mL", Volume, 0.001, 4),
	"gallon":     unit("gallon", "US Gallon", "gal", Volume, 3.785411784, 4),
	"quart":      unit("quart", "US Quart", "qt", Volume, 0.946352946, 4),

	// Temperature (base: kelvin). The only affine (offset) transforms.
	"celsius": {
		ID: "celsius", Label: "Celsius", Symbol: "°C", Kind: Temperature,
		ToBase:        func(v float64) float64 { return v + 273.15 },
		FromBase:      func(v float64) float64 { return v - 273.15 },
		DecimalPlaces: 2,
	},
	"fahrenheit": {
		ID: "fahrenheit", Label: "Fahrenheit", Symbol: "°F", Kind: Temperature,
		ToBase:        func(v float64) float64 { return (v-32)*5/9 + 273.15 },
		FromBase:      func(v float64) float64 { return (v-273.15)*9/5 + 32 },
		DecimalPlaces: 2,
	},
	"kelvin": {
		ID: "kelvin", Label: "Kelvin", Symbol: "K", Kind: Temperature,
		ToBase: identity, FromBase: identity,
		DecimalPlaces: 2,
	},

	// Area (base: square meter)
	"square_meter": unit("square_meter", "Square Meter", "m²", Area, 1, 4),
	"square_foot":  unit("square_foot", "Square Foot", "ft²", Area, 0.09290304, 4),
	"acre":         unit("acre", "Acre", "ac", Area, 4046.8564224, 4),
	"hectare":      unit("hectare", "Hectare", "ha", Area, 10000, 4),
}

// aliasToUnitID maps normalized alias spellings (including plural and UK
// forms and common misspellings) to canonical unit ids.
var aliasToUnitID = map[string]string{
	"meter": "meter", "meters": "meter", "metre": "meter", "metres": "meter", "m": "meter",
	"kilometre": "kilometer", "kilometres": "kilometer", "kilometer": "kilometer", "kilometers": "kilometer", "km": "kilometer",
	"foot": "foot", "feet": "foot", "ft": "foot",
	"inch": "inch", "inches": "inch", "in": "inch",
	"centimeter": "centimeter", "centimeters": "centimeter", "centimetre": "centimeter", "centimetres": "centimeter", "cm": "centimeter",
	"millimeter": "millimeter", "millimeters": "millimeter", "millimetre": "millimeter", "millimetres": "millimeter", "mm": "millimeter",
	"yard": "yard", "yards": "yard", "yd": "yard",
	"mile": "mile", "miles": "mile", "mi": "mile",
	"gram": "gram", "grams": "gram", "g": "gram",
	"kilogram": "kilogram", "kilograms": "kilogram", "kilogramme": "kilogram", "kilogrammes": "kilogram", "kg": "kilogram",
	"pound": "pound", "pounds": "pound", "lb": "pound", "lbs": "pound",
	"ounce": "ounce", "ounces": "ounce", "oz": "ounce",
	"stone": "stone", "stones": "stone",
	"liter": "liter", "liters": "liter", "litre": "liter", "litres": "liter", "l": "liter",
	"milliliter": "milliliter", "milliliters": "milliliter", "millilitre": "milliliter", "millilitres": "milliliter", "ml": "milliliter",
	"gallon": "gallon", "gallons": "gallon", "gal": "gallon",
	"quart": "quart", "quarts": "quart", "qt": "quart",
	"celsius": "celsius", "degrees celsius": "celsius", "celcius": "celsius", "degrees celcius": "celsius",
	"fahrenheit": "fahrenheit", "degrees fahrenheit": "fahrenheit",
	"kelvin": "kelvin", "kelvins": "kelvin",
	"squaremeter": "square_meter", "squaremeters": "square_meter", "sqm": "square_meter",
	"square metre": "square_meter", "square meter": "square_meter", "square meters": "square_meter", "square metres": "square_meter",
	"squarefoot": "square_foot", "squarefeet": "square_foot",
	"square foot": "square_foot", "square feet": "square_foot", "sqft": "square_foot",
	"acre": "acre", "acres": "acre",
	"hectare": "hectare", "hectares": "hectare", "ha": "hectare",
}

var slugSuffixes = []string{"-converter", "-calculator", "-conversion"}

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// GetUnitByID returns the unit with the exact given id, or nil.
func GetUnitByID(id string) *UnitDefinition {
	return registry[id]
}

// ResolveUnit resolves a free-form token (alias, symbol, plural, slug
// fragment) to a unit definition, or nil. Matching is case, whitespace, and
// punctuation insensitive; "square meter" and "squaremeter" both resolve.
func ResolveUnit(token string) *UnitDefinition {
	normalized := normalizeToken(token)
	if id, ok := aliasToUnitID[normalized]; ok {
		return registry[id]
	}

	collapsed := strings.ReplaceAll(normalized, " ", "")
	if id, ok := aliasToUnitID[collapsed]; ok {
		return registry[id]
	}

	return nil
}

func normalizeToken(token string) string {
	lowered := strings.ToLower(token)
	return strings.TrimSpace(nonAlphanumeric.ReplaceAllString(lowered, " "))
}

// ParseConversionFromSlug extracts a conversion context from slugs like
// "meters-to-feet-converter". Returns nil when either unit fails to resolve
// or the resolved units belong to different kinds.
func ParseConversionFromSlug(slug string) *ConversionContext {
	fromToken, toToken, ok := extractUnitTokens(slug)
	if !ok {
		return nil
	}

	from := ResolveUnit(fromToken)
	to := ResolveUnit(toToken)
	if from == nil || to == nil {
		return nil
	}
	if from.Kind != to.Kind {
		return nil
	}

	return &ConversionContext{From: from, To: to, Kind: from.Kind}
}

// extractUnitTokens strips a recognized trailing suffix and splits on the
// first "-to-", so ambiguous slugs like "feet-to-meters-to-inches" take the
// first "-to-" as the split point.
func extractUnitTokens(slug string) (from, to string, ok bool) {
	sanitized := slug
	for _, suffix := range slugSuffixes {
		sanitized = strings.TrimSuffix(sanitized, suffix)
	}

	idx := strings.Index(sanitized, "-to-")
	if idx <= 0 {
		return "", "", false
	}

	from = sanitized[:idx]
	to = sanitized[idx+len("-to-"):]
	if to == "" {
		return "", "", false
	}

	return from, to, true
}

// ContextFromIDs builds a conversion context from explicit unit ids, as
// supplied by conversion logic config. Returns nil on unknown units or a
// kind mismatch.
func ContextFromIDs(fromID, toID string) *ConversionContext {
	from := GetUnitByID(fromID)
	to := GetUnitByID(toID)
	if from == nil || to == nil || from.Kind != to.Kind {
		return nil
	}
	return &ConversionContext{From: from, To: to, Kind: from.Kind}
}

// ConvertValue converts a value through the context's base unit. NaN input
// propagates to NaN output; conversion never fails.
func ConvertValue(value float64, direction Direction, ctx *ConversionContext) float64 {
	if math.IsNaN(value) {
		return math.NaN()
	}

	if direction == Forward {
		return ctx.To.FromBase(ctx.From.ToBase(value))
	}

	return ctx.From.FromBase(ctx.To.ToBase(value))
}

// TableRow is one line of a quick-reference conversion table.
type TableRow struct {
	Input  float64
	Output float64
}

// BuildConversionTable maps ConvertValue over a seed list. Seeds differ by
// direction so the table shows sensible magnitudes either way.
func BuildConversionTable(seeds []float64, ctx *ConversionContext, direction Direction) []TableRow {
	rows := make([]TableRow, 0, len(seeds))
	for _, seed := range seeds {
		rows = append(rows, TableRow{Input: seed, Output: ConvertValue(seed, direction, ctx)})
	}
	return rows
}
