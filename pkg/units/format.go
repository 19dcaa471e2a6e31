package units

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Placeholder shown wherever a numeric result is unavailable.
const Placeholder = "—"

var displayPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatNumber renders a value for display with en-US digit grouping and at
// most the given number of fraction digits (trailing zeros trimmed).
// Non-finite values render as the placeholder em-dash.
func FormatNumber(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Placeholder
	}
	return displayPrinter.Sprintf("%v", number.Decimal(value, number.MaxFractionDigits(decimals)))
}

// FormatUnitValue renders a value with the unit's preferred decimal places
// and its symbol, e.g. "3.2808 ft".
func FormatUnitValue(value float64, u *UnitDefinition) string {
	return FormatNumber(value, u.DecimalPlaces) + " " + u.Symbol
}
