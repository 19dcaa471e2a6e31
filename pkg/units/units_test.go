package units

import (
	"math"
	"testing"
)

func approxEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func TestGetUnitByID(t *testing.T) {
	u := GetUnitByID("meter")
	if u == nil {
		t.Fatal("expected meter to exist")
	}
	if u.Symbol != "m" || u.Kind != Length {
		t.Errorf("unexpected meter definition: %+v", u)
	}

	if GetUnitByID("cubit") != nil {
		t.Error("expected nil for unknown unit id")
	}
}

func TestResolveUnit(t *testing.T) {
	tests := []struct {
		token    string
		expected string // unit id, "" for no match
	}{
		{"meters", "meter"},
		{"Metre", "meter"},
		{"KM", "kilometer"},
		{"feet", "foot"},
		{"lbs", "pound"},
		{"degrees celsius", "celsius"},
		{"Degrees  Celcius", "celsius"}, // misspelling, extra whitespace
		{"square meter", "square_meter"},
		{"squaremeter", "square_meter"},
		{"square_metres", "square_meter"},
		{"sq-ft", "square_foot"},
		{"furlong", ""},
		{"", ""},
	}

	for _, tt := range tests {
		u := ResolveUnit(tt.token)
		if tt.expected == "" {
			if u != nil {
				t.Errorf("ResolveUnit(%q): expected no match, got %s", tt.token, u.ID)
			}
			continue
		}
		if u == nil {
			t.Errorf("ResolveUnit(%q): expected %s, got nil", tt.token, tt.expected)
			continue
		}
		if u.ID != tt.expected {
			t.Errorf("ResolveUnit(%q): expected %s, got %s", tt.token, tt.expected, u.ID)
		}
	}
}

func TestParseConversionFromSlug(t *testing.T) {
	tests := []struct {
		slug     string
		from, to string // expected unit ids, "" for nil context
	}{
		{"meters-to-feet-converter", "meter", "foot"},
		{"celsius-to-fahrenheit-converter", "celsius", "fahrenheit"},
		{"kg-to-lbs-calculator", "kilogram", "pound"},
		{"square-meters-to-square-feet-conversion", "square_meter", "square_foot"},
		{"liters-to-gallons", "liter", "gallon"},
		// Ambiguous slug splits on the first "-to-"
		{"feet-to-meters-to-inches", "", ""},
		// Kind mismatch
		{"meters-to-kilograms-converter", "", ""},
		// Unresolvable tokens
		{"widgets-to-gadgets-converter", "", ""},
		{"no-separator-here", "", ""},
		{"", "", ""},
	}

	for _, tt := range tests {
		ctx := ParseConversionFromSlug(tt.slug)
		if tt.from == "" {
			if ctx != nil {
				t.Errorf("ParseConversionFromSlug(%q): expected nil, got %s→%s", tt.slug, ctx.From.ID, ctx.To.ID)
			}
			continue
		}
		if ctx == nil {
			t.Errorf("ParseConversionFromSlug(%q): expected %s→%s, got nil", tt.slug, tt.from, tt.to)
			continue
		}
		if ctx.From.ID != tt.from || ctx.To.ID != tt.to {
			t.Errorf("ParseConversionFromSlug(%q): expected %s→%s, got %s→%s",
				tt.slug, tt.from, tt.to, ctx.From.ID, ctx.To.ID)
		}
		if ctx.Kind != ctx.From.Kind {
			t.Errorf("ParseConversionFromSlug(%q): context kind %s does not match from unit", tt.slug, ctx.Kind)
		}
	}
}

func TestContextFromIDs(t *testing.T) {
	ctx := ContextFromIDs("meter", "foot")
	if ctx == nil || ctx.From.ID != "meter" || ctx.To.ID != "foot" {
		t.Fatalf("expected meter→foot context, got %+v", ctx)
	}

	if ContextFromIDs("meter", "kilogram") != nil {
		t.Error("expected nil context for mismatched kinds")
	}
	if ContextFromIDs("meter", "cubit") != nil {
		t.Error("expected nil context for unknown unit")
	}
}

func TestConvertValue(t *testing.T) {
	metersToFeet := ParseConversionFromSlug("meters-to-feet-converter")
	if metersToFeet == nil {
		t.Fatal("could not build meters→feet context")
	}

	got := ConvertValue(1, Forward, metersToFeet)
	if !approxEqual(got, 3.280839895, 1e-9) {
		t.Errorf("1 meter: expected 3.280839895 ft, got %v", got)
	}

	celsiusToFahrenheit := ParseConversionFromSlug("celsius-to-fahrenheit-converter")
	if celsiusToFahrenheit == nil {
		t.Fatal("could not build celsius→fahrenheit context")
	}

	if got := ConvertValue(0, Forward, celsiusToFahrenheit); !approxEqual(got, 32, 1e-9) {
		t.Errorf("0°C: expected 32°F, got %v", got)
	}
	if got := ConvertValue(100, Forward, celsiusToFahrenheit); !approxEqual(got, 212, 1e-9) {
		t.Errorf("100°C: expected 212°F, got %v", got)
	}
	if got := ConvertValue(32, Reverse, celsiusToFahrenheit); !approxEqual(got, 0, 1e-9) {
		t.Errorf("32°F reversed: expected 0°C, got %v", got)
	}

	if got := ConvertValue(math.NaN(), Forward, metersToFeet); !math.IsNaN(got) {
		t.Errorf("NaN input: expected NaN, got %v", got)
	}
}

// Round-trip identity: fromBase(toBase(v)) ≈ v for every registered unit.
func TestRoundTripIdentity(t *testing.T) {
	values := []float64{-40, -1, 0, 0.5, 1, 37, 1000}

	for id, u := range registry {
		for _, v := range values {
			got := u.FromBase(u.ToBase(v))
			if !approxEqual(got, v, 1e-9) {
				t.Errorf("%s: round trip of %v gave %v", id, v, got)
			}
		}
	}
}

// Conversion symmetry: forward then reverse restores the input for every
// same-kind unit pair.
func TestConversionSymmetry(t *testing.T) {
	for fromID, from := range registry {
		for toID, to := range registry {
			if from.Kind != to.Kind {
				continue
			}
			ctx := &ConversionContext{From: from, To: to, Kind: from.Kind}
			for _, v := range []float64{0, 1, 2.5, 100} {
				forward := ConvertValue(v, Forward, ctx)
				back := ConvertValue(forward, Reverse, ctx)
				if !approxEqual(back, v, 1e-9) {
					t.Errorf("%s→%s: %v converted forward then reverse gave %v", fromID, toID, v, back)
				}
			}
		}
	}
}

func TestBuildConversionTable(t *testing.T) {
	ctx := ParseConversionFromSlug("meters-to-feet-converter")
	seeds := []float64{1, 5, 10, 25, 50, 100}

	rows := BuildConversionTable(seeds, ctx, Forward)
	if len(rows) != len(seeds) {
		t.Fatalf("expected %d rows, got %d", len(seeds), len(rows))
	}

	for i, row := range rows {
		if row.Input != seeds[i] {
			t.Errorf("row %d: expected input %v, got %v", i, seeds[i], row.Input)
		}
		expected := ConvertValue(seeds[i], Forward, ctx)
		if !approxEqual(row.Output, expected, 1e-9) {
			t.Errorf("row %d: expected output %v, got %v", i, expected, row.Output)
		}
	}
}
