package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func noEnv(string) string { return "" }

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr, noEnv)
	return stdout.String(), stderr.String(), err
}

func writeTestCatalog(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	csv := `slug,category,title,config_json
/conversions/feet-to-meters-converter,Conversions,Feet to Meters,"{""logic"":{""type"":""conversion"",""fromUnitId"":""foot"",""toUnitId"":""meter""},""form"":{""fields"":[{""id"":""value"",""label"":""Feet"",""type"":""number""}]}}"
/finance/simple-interest-calculator,Finance,Simple Interest,
/health/bmr-calculator,Health,BMR Calculator,
`
	if err := os.WriteFile(filepath.Join(dir, "calc.csv"), []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	configsDir := filepath.Join(dir, "configs")
	if err := os.MkdirAll(configsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	bmrConfig := `{
		"logic": {
			"type": "advanced",
			"default_method": "mifflin",
			"methods": {
				"mifflin": {
					"label": "Mifflin-St Jeor",
					"formula": "bmr",
					"variables": {
						"bmr": {
							"expression": "10 * weight + 6.25 * height - 5 * age + 5",
							"label": "BMR",
							"unit": "kcal/day"
						}
					}
				}
			}
		},
		"form": {
			"fields": [
				{"id": "weight", "label": "Weight", "type": "number"},
				{"id": "height", "label": "Height", "type": "number"},
				{"id": "age", "label": "Age", "type": "number"}
			]
		}
	}`
	if err := os.WriteFile(filepath.Join(configsDir, "bmr-calculator.json"), []byte(bmrConfig), 0o644); err != nil {
		t.Fatal(err)
	}

	yaml := "content:\n  data_file: ./calc.csv\n  configs_dir: ./configs\n"
	configPath := filepath.Join(dir, "sliderule.yaml")
	if err := os.WriteFile(configPath, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	return configPath
}

func TestRunVersion(t *testing.T) {
	stdout, _, err := runCLI(t, "-version")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(stdout, "sliderule version") {
		t.Errorf("got %q", stdout)
	}
}

func TestRunHelp(t *testing.T) {
	stdout, _, err := runCLI(t, "-help")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for _, command := range []string{"validate", "convert", "table", "eval", "search", "watch"} {
		if !strings.Contains(stdout, command) {
			t.Errorf("usage missing %q", command)
		}
	}
}

func TestRunNoCommand(t *testing.T) {
	_, _, err := runCLI(t)
	if err == nil || !strings.Contains(err.Error(), "no command") {
		t.Errorf("got %v", err)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	configPath := writeTestCatalog(t)
	_, _, err := runCLI(t, "-config", configPath, "frobnicate")
	if err == nil || !strings.Contains(err.Error(), `unknown command "frobnicate"`) {
		t.Errorf("got %v", err)
	}
}

func TestRunConvert(t *testing.T) {
	stdout, _, err := runCLI(t, "convert", "feet-to-meters", "12")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(stdout, "12 ft = 3.6576 m") {
		t.Errorf("got %q", stdout)
	}
	// The formula line follows the result.
	if !strings.Contains(stdout, "0.3048") {
		t.Errorf("expected formula text, got %q", stdout)
	}
}

func TestRunConvertUnknownSlug(t *testing.T) {
	_, _, err := runCLI(t, "convert", "feet-to-hours", "12")
	if err == nil || !strings.Contains(err.Error(), "unknown conversion") {
		t.Errorf("got %v", err)
	}
}

func TestRunConvertBadValue(t *testing.T) {
	_, _, err := runCLI(t, "convert", "feet-to-meters", "twelve")
	if err == nil || !strings.Contains(err.Error(), "invalid value") {
		t.Errorf("got %v", err)
	}
}

func TestRunEval(t *testing.T) {
	stdout, _, err := runCLI(t, "eval", "principal * rate", "principal=200", "rate=0.3")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if strings.TrimSpace(stdout) != "60" {
		t.Errorf("got %q", stdout)
	}
}

func TestRunEvalNaN(t *testing.T) {
	stdout, _, err := runCLI(t, "eval", "a / b", "a=1", "b=0")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if strings.TrimSpace(stdout) != "NaN" {
		t.Errorf("division by zero should print NaN, got %q", stdout)
	}
}

func TestRunEvalBadBinding(t *testing.T) {
	_, _, err := runCLI(t, "eval", "a + 1", "a")
	if err == nil || !strings.Contains(err.Error(), "invalid binding") {
		t.Errorf("got %v", err)
	}
}

func TestRunTable(t *testing.T) {
	configPath := writeTestCatalog(t)
	stdout, _, err := runCLI(t, "-config", configPath, "table", "feet-to-meters")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	// Default seeds: 1, 2, 5, 10, 20, 50, 100.
	if len(lines) != 7 {
		t.Fatalf("got %d rows: %q", len(lines), stdout)
	}
	if !strings.Contains(lines[0], "1 ft") || !strings.Contains(lines[0], "0.3048 m") {
		t.Errorf("first row: got %q", lines[0])
	}
}

func TestRunValidateCatalog(t *testing.T) {
	configPath := writeTestCatalog(t)
	stdout, _, err := runCLI(t, "-config", configPath, "validate")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(stdout, "3 calculators ok (2 with configs)") {
		t.Errorf("got %q", stdout)
	}
}

func TestRunValidateSingleFile(t *testing.T) {
	configPath := writeTestCatalog(t)
	dir := t.TempDir()

	good := filepath.Join(dir, "good.json")
	if err := os.WriteFile(good, []byte(`{"logic":{"type":"conversion","fromUnitId":"foot","toUnitId":"meter"},"form":{"fields":[{"id":"value","label":"Feet","type":"number"}]}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	stdout, _, err := runCLI(t, "-config", configPath, "validate", good)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(stdout, "ok") {
		t.Errorf("got %q", stdout)
	}

	bad := filepath.Join(dir, "bad.json")
	badJSON := `{"foo": 1, "form": {"fields": [{"id": "x", "type": "number"}, {"id": "y", "label": "Y", "type": "number"}]}}`
	if err := os.WriteFile(bad, []byte(badJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	stdout, _, err = runCLI(t, "-config", configPath, "validate", bad)
	if err == nil || !strings.Contains(err.Error(), "2 validation error(s)") {
		t.Fatalf("got %v", err)
	}
	if !strings.Contains(stdout, `"foo"`) || !strings.Contains(stdout, "label") {
		t.Errorf("got %q", stdout)
	}
}

func TestRunCalcConversion(t *testing.T) {
	configPath := writeTestCatalog(t)
	stdout, _, err := runCLI(t, "-config", configPath, "calc", "/conversions/feet-to-meters-converter", "value=12")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(stdout, "12 ft = 3.6576 m") {
		t.Errorf("got %q", stdout)
	}
}

func TestRunCalcAdvanced(t *testing.T) {
	configPath := writeTestCatalog(t)
	stdout, _, err := runCLI(t, "-config", configPath, "calc", "/health/bmr-calculator",
		"weight=80", "height=180", "age=30")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	// 10*80 + 6.25*180 - 5*30 + 5
	if !strings.Contains(stdout, "BMR: 1780 kcal/day") {
		t.Errorf("got %q", stdout)
	}
}

func TestRunCalcMissingInput(t *testing.T) {
	configPath := writeTestCatalog(t)
	stdout, _, err := runCLI(t, "-config", configPath, "calc", "/health/bmr-calculator", "weight=80")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(stdout, "BMR: NaN") {
		t.Errorf("missing inputs should yield NaN, got %q", stdout)
	}
}

func TestRunCalcUnknownPath(t *testing.T) {
	configPath := writeTestCatalog(t)
	_, _, err := runCLI(t, "-config", configPath, "calc", "/nope/missing-calculator")
	if err == nil || !strings.Contains(err.Error(), "no calculator at") {
		t.Errorf("got %v", err)
	}
}

func TestRunCalcUnknownMethod(t *testing.T) {
	configPath := writeTestCatalog(t)
	_, _, err := runCLI(t, "-config", configPath, "calc", "/health/bmr-calculator", "method=katch")
	if err == nil || !strings.Contains(err.Error(), `no method "katch"`) {
		t.Errorf("got %v", err)
	}
}

func TestRunSearch(t *testing.T) {
	configPath := writeTestCatalog(t)

	stdout, _, err := runCLI(t, "-config", configPath, "search", "interest")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(stdout, "/finance/simple-interest-calculator") {
		t.Errorf("got %q", stdout)
	}

	stdout, _, err = runCLI(t, "-config", configPath, "search", "zebra")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(stdout, "no results") {
		t.Errorf("got %q", stdout)
	}
}
