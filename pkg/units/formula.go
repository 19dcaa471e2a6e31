package units

import (
	"fmt"
	"math"
	"strings"
)

// Epsilons for snapping derived coefficients to zero, so floating-point
// noise never leaks into displayed formulas.
const (
	slopeEpsilon     = 1e-12
	interceptEpsilon = 1e-9
)

// LinearCoefficients describe a forward conversion as to = from*Slope + Intercept.
type LinearCoefficients struct {
	Slope     float64
	Intercept float64
}

// DeriveLinearCoefficients recovers the affine transform of a conversion by
// probing it at 0 and 1: intercept = f(0), slope = f(1) - f(0).
func DeriveLinearCoefficients(ctx *ConversionContext) LinearCoefficients {
	forwardZero := ConvertValue(0, Forward, ctx)
	forwardOne := ConvertValue(1, Forward, ctx)

	slope := forwardOne - forwardZero
	intercept := forwardZero

	if math.Abs(slope) < slopeEpsilon {
		slope = 0
	}
	if math.Abs(intercept) < interceptEpsilon {
		intercept = 0
	}

	return LinearCoefficients{Slope: slope, Intercept: intercept}
}

// coefficient formats slope/intercept magnitudes for prose (up to 8 digits).
func coefficient(value float64) string {
	return FormatNumber(value, 8)
}

// FormulaText returns the symbolic forward formula for a conversion, e.g.
// "ft = (m × 3.2808399)" or "°F = (°C × 1.8) + 32".
func FormulaText(ctx *ConversionContext) string {
	coeffs := DeriveLinearCoefficients(ctx)
	slopeText := coefficient(coeffs.Slope)

	if coeffs.Intercept == 0 {
		return fmt.Sprintf("%s = (%s × %s)", ctx.To.Symbol, ctx.From.Symbol, slopeText)
	}

	operator := "+"
	if coeffs.Intercept < 0 {
		operator = "-"
	}

	return fmt.Sprintf("%s = (%s × %s) %s %s",
		ctx.To.Symbol, ctx.From.Symbol, slopeText, operator, coefficient(math.Abs(coeffs.Intercept)))
}

// FormulaExplanation returns a plain-English description of the forward
// conversion.
func FormulaExplanation(ctx *ConversionContext) string {
	coeffs := DeriveLinearCoefficients(ctx)
	slopeText := coefficient(coeffs.Slope)

	if coeffs.Intercept == 0 {
		return fmt.Sprintf("Multiply your value in %s by %s to obtain the equivalent in %s.",
			strings.ToLower(ctx.From.Label), slopeText, strings.ToLower(ctx.To.Label))
	}

	verb := "add"
	if coeffs.Intercept < 0 {
		verb = "subtract"
	}

	return fmt.Sprintf("Multiply your %s value by %s, then %s %s to reach %s.",
		strings.ToLower(ctx.From.Label), slopeText, verb,
		coefficient(math.Abs(coeffs.Intercept)), strings.ToLower(ctx.To.Label))
}

// ReverseFormulaExplanation describes how to undo the conversion: divide by
// the slope, or subtract the intercept first when one is present.
func ReverseFormulaExplanation(ctx *ConversionContext) string {
	coeffs := DeriveLinearCoefficients(ctx)

	if coeffs.Intercept == 0 {
		inverse := coefficient(1 / coeffs.Slope)
		return fmt.Sprintf("Yes. Hit the swap button in the converter to reverse the calculation or multiply your %s value by %s to switch back.",
			strings.ToLower(ctx.To.Label), inverse)
	}

	verb := "subtract"
	if coeffs.Intercept < 0 {
		verb = "add"
	}

	return fmt.Sprintf("Yes. Swap the converter direction or %s %s from your %s value, then divide the result by %s.",
		verb, coefficient(math.Abs(coeffs.Intercept)),
		strings.ToLower(ctx.To.Label), coefficient(coeffs.Slope))
}

// FAQ is one generated question/answer pair for a conversion page.
type FAQ struct {
	Question string
	Answer   string
}

// ConversionFAQ generates the stock FAQ entries for a conversion page:
// the exact formula, the reverse conversion, and an accuracy note.
func ConversionFAQ(ctx *ConversionContext) []FAQ {
	return []FAQ{
		{
			Question: fmt.Sprintf("What is the exact formula for %s to %s?",
				strings.ToLower(ctx.From.Label), strings.ToLower(ctx.To.Label)),
			Answer: FormulaExplanation(ctx),
		},
		{
			Question: fmt.Sprintf("Can I convert %s back to %s?",
				strings.ToLower(ctx.To.Label), strings.ToLower(ctx.From.Label)),
			Answer: ReverseFormulaExplanation(ctx),
		},
		{
			Question: "How accurate is this converter?",
			Answer: "We anchor every conversion to internationally recognized base units. " +
				"The calculator rounds to sensible decimals for readability, but core math runs at double precision.",
		},
	}
}
