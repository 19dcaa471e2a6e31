// Package calcconfig defines the calculator configuration schema and the
// validator that turns untrusted JSON (often AI-generated) into a typed
// config. Validation accumulates every problem it finds instead of stopping
// at the first, so an author can fix a whole config in one round-trip.
package calcconfig

import (
	"encoding/json"
	"sort"
	"strings"
)

// CalculatorConfig is the validated, typed representation of a calculator's
// behavior. A nil section means the raw config omitted it.
type CalculatorConfig struct {
	Version     string         `json:"version,omitempty"`
	Metadata    *Metadata      `json:"metadata,omitempty"`
	Form        *FormConfig    `json:"form,omitempty"`
	Logic       LogicConfig    `json:"logic,omitempty"`
	PageContent *PageContent   `json:"pageContent,omitempty"`
	Schema      *SchemaConfig  `json:"schema,omitempty"`
	Links       *LinkConfig    `json:"links,omitempty"`
}

// Metadata carries the page title and description overrides.
type Metadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// FormConfig describes the input form: top-level fields, conditional
// sections, and declared result outputs.
type FormConfig struct {
	Fields   []*FormField `json:"fields"`
	Sections []*Section   `json:"sections"`
	Result   *FormResult  `json:"result,omitempty"`
}

// FormField is one input control.
type FormField struct {
	ID           string         `json:"id"`
	Label        string         `json:"label"`
	Type         string         `json:"type"`
	Required     bool           `json:"required"`
	Placeholder  string         `json:"placeholder,omitempty"`
	HelpText     string         `json:"helpText,omitempty"`
	DefaultValue string         `json:"default,omitempty"`
	Min          *float64       `json:"min,omitempty"`
	Max          *float64       `json:"max,omitempty"`
	Step         *float64       `json:"step,omitempty"`
	Options      []*FieldOption `json:"options,omitempty"`
}

// FieldOption is one entry of a select field.
type FieldOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Section is a labeled, optionally conditionally-visible group of fields.
type Section struct {
	ID          string       `json:"id"`
	Label       string       `json:"label"`
	Description string       `json:"description,omitempty"`
	ShowWhen    *ShowWhen    `json:"showWhen,omitempty"`
	Fields      []*FormField `json:"fields"`
}

// ShowWhen gates a section's visibility on another field's value.
type ShowWhen struct {
	Field  string   `json:"field"`
	Equals string   `json:"equals,omitempty"`
	In     []string `json:"in,omitempty"`
}

// FormResult declares the outputs the form renders.
type FormResult struct {
	Outputs []*FormOutput `json:"outputs"`
}

// FormOutput is one declared result slot.
type FormOutput struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Unit   string `json:"unit,omitempty"`
	Format string `json:"format,omitempty"`
}

// LogicConfig is the tagged union of calculator logic kinds. Consumption
// sites type-switch over the concrete variants.
type LogicConfig interface {
	// Kind returns the canonical logic discriminator.
	Kind() string
}

// ConversionLogic delegates numeric work to the unit registry.
type ConversionLogic struct {
	FromUnitID string
	ToUnitID   string
}

func (c *ConversionLogic) Kind() string { return "conversion" }

// MarshalJSON emits the canonical input shape with its discriminator.
func (c *ConversionLogic) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"type":       "conversion",
		"fromUnitId": c.FromUnitID,
		"toUnitId":   c.ToUnitID,
	})
}

// FormulaLogic evaluates independent expressions over form-field values.
type FormulaLogic struct {
	Outputs []*FormulaOutput
}

func (f *FormulaLogic) Kind() string { return "formula" }

func (f *FormulaLogic) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    string           `json:"type"`
		Outputs []*FormulaOutput `json:"outputs"`
	}{Type: "formula", Outputs: f.Outputs})
}

// FormulaOutput is one independent expression with display hints.
type FormulaOutput struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Expression string `json:"expression"`
	Unit       string `json:"unit,omitempty"`
	Format     string `json:"format,omitempty"`
}

// AdvancedLogic offers multiple alternative calculation methods, each with
// its own variable dependency graph.
type AdvancedLogic struct {
	DefaultMethod string
	Methods       []*AdvancedMethod
}

func (a *AdvancedLogic) Kind() string { return "advanced" }

func (a *AdvancedLogic) MarshalJSON() ([]byte, error) {
	methods := make(map[string]*AdvancedMethod, len(a.Methods))
	for _, m := range a.Methods {
		methods[m.ID] = m
	}
	return json.Marshal(struct {
		Type          string                     `json:"type"`
		DefaultMethod string                     `json:"defaultMethod"`
		Methods       map[string]*AdvancedMethod `json:"methods"`
	}{Type: "advanced", DefaultMethod: a.DefaultMethod, Methods: methods})
}

// Method returns the method with the given id, or nil.
func (a *AdvancedLogic) Method(id string) *AdvancedMethod {
	for _, m := range a.Methods {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// AdvancedMethod is one named computation path. The method id is the key of
// the methods object in the raw config, so it is not re-serialized inside
// the method body.
type AdvancedMethod struct {
	ID          string                       `json:"-"`
	Label       string                       `json:"label"`
	Description string                       `json:"description,omitempty"`
	Formula     string                       `json:"formula,omitempty"`
	Variables   map[string]*AdvancedVariable `json:"variables"`
	Outputs     []*AdvancedOutput            `json:"outputs"`
}

// VariableIDs returns the method's variable ids in deterministic order.
func (m *AdvancedMethod) VariableIDs() []string {
	ids := make([]string, 0, len(m.Variables))
	for id := range m.Variables {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AdvancedVariable is one node of a method's dependency graph.
type AdvancedVariable struct {
	Expression   string   `json:"expression"`
	Dependencies []string `json:"dependencies,omitempty"`
	Label        string   `json:"label,omitempty"`
	Unit         string   `json:"unit,omitempty"`
	Format       string   `json:"format,omitempty"`
	Display      bool     `json:"display,omitempty"`
}

// AdvancedOutput reads a resolved variable into a display slot.
type AdvancedOutput struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Variable string `json:"variable"`
	Unit     string `json:"unit,omitempty"`
	Format   string `json:"format,omitempty"`
}

// GenericLogic is an opaque passthrough for logic kinds the engine does not
// natively render.
type GenericLogic struct {
	Type string
	Data map[string]any
}

func (g *GenericLogic) Kind() string { return g.Type }

func (g *GenericLogic) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(g.Data)+1)
	for k, v := range g.Data {
		out[k] = v
	}
	out["type"] = g.Type
	return json.Marshal(out)
}

// PageContent holds the editorial prose blocks. All text is plain text or
// Markdown; the validator rejects anything containing raw markup.
type PageContent struct {
	Introduction []string        `json:"introduction,omitempty"`
	Methodology  []string        `json:"methodology,omitempty"`
	Examples     []string        `json:"examples,omitempty"`
	FAQs         []*FAQEntry     `json:"faqs,omitempty"`
	Citations    []*Citation     `json:"citations,omitempty"`
	Glossary     []*GlossaryItem `json:"glossary,omitempty"`
	Summary      []string        `json:"summary,omitempty"`
}

// FAQEntry is one question/answer pair.
type FAQEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Citation is one external reference.
type Citation struct {
	URL   string `json:"url"`
	Label string `json:"label,omitempty"`
	Text  string `json:"text,omitempty"`
}

// GlossaryItem is one term/definition pair.
type GlossaryItem struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// SchemaConfig carries extra structured-data type hints.
type SchemaConfig struct {
	AdditionalTypes []string `json:"additionalTypes,omitempty"`
}

// LinkConfig holds related-page links.
type LinkConfig struct {
	Internal []string        `json:"internal,omitempty"`
	External []*ExternalLink `json:"external,omitempty"`
}

// ExternalLink is one outbound link with optional rel attributes.
type ExternalLink struct {
	URL   string   `json:"url"`
	Label string   `json:"label,omitempty"`
	Rel   []string `json:"rel,omitempty"`
}

// FieldIDs collects field ids across top-level fields and all section
// fields, deduplicated in first-seen order. A duplicate id silently reuses
// the earlier slot (last definition wins at render time).
func (c *CalculatorConfig) FieldIDs() []string {
	if c.Form == nil {
		return nil
	}

	seen := make(map[string]bool)
	ids := []string{}

	add := func(fields []*FormField) {
		for _, f := range fields {
			if !seen[f.ID] {
				seen[f.ID] = true
				ids = append(ids, f.ID)
			}
		}
	}

	add(c.Form.Fields)
	for _, section := range c.Form.Sections {
		add(section.Fields)
	}

	return ids
}

// FieldByID returns the last-defined field with the given id, searching
// top-level fields and all section fields.
func (c *CalculatorConfig) FieldByID(id string) *FormField {
	if c.Form == nil {
		return nil
	}

	var found *FormField
	for _, f := range c.Form.Fields {
		if f.ID == id {
			found = f
		}
	}
	for _, section := range c.Form.Sections {
		for _, f := range section.Fields {
			if f.ID == id {
				found = f
			}
		}
	}
	return found
}

// startCaseFromID turns ids like "monthly_payment" or "monthlyPayment" into
// display labels like "Monthly Payment".
func startCaseFromID(input string) string {
	if input == "" {
		return ""
	}

	var b strings.Builder
	prev := byte(0)
	for i := 0; i < len(input); i++ {
		ch := input[i]
		switch {
		case ch == '_' || ch == '-' || ch == ' ':
			if prev != ' ' && b.Len() > 0 {
				b.WriteByte(' ')
				prev = ' '
			}
		case ch >= 'A' && ch <= 'Z' && prev >= 'a' && prev <= 'z':
			b.WriteByte(' ')
			b.WriteByte(ch)
			prev = ch
		default:
			b.WriteByte(ch)
			prev = ch
		}
	}

	words := strings.Fields(b.String())
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
