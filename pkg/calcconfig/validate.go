package calcconfig

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var allowedTopLevelKeys = map[string]bool{
	"version":          true,
	"metadata":         true,
	"form":             true,
	"logic":            true,
	"calculator_logic": true,
	"pageContent":      true,
	"page_content":     true,
	"schema":           true,
	"links":            true,
	"seo_links":        true,
}

var allowedPageContentKeys = map[string]bool{
	"introduction": true,
	"methodology":  true,
	"examples":     true,
	"faqs":         true,
	"citations":    true,
	"glossary":     true,
	"summary":      true,
}

// Parse is the strict variant of Validate. It returns a single error joining
// all accumulated problems when the config is invalid.
func Parse(raw, context string) (*CalculatorConfig, error) {
	config, errs := Validate(raw, context)
	if len(errs) > 0 || config == nil {
		return nil, fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return config, nil
}

// Validate parses raw config JSON and checks every section, accumulating
// all problems found rather than stopping at the first. The context string
// prefixes each error so callers can attribute problems to a source row or
// file. When any error is recorded the returned config is nil.
func Validate(raw, context string) (*CalculatorConfig, []string) {
	v := &validator{context: context}

	if strings.TrimSpace(raw) == "" {
		return nil, []string{context + ": config_json cannot be empty"}
	}

	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, []string{fmt.Sprintf("%s: config_json is not valid JSON (%v)", context, err)}
	}

	record, ok := parsed.(map[string]any)
	if !ok {
		return nil, []string{context + ": config_json must be a JSON object"}
	}

	var unsupported []string
	for key := range record {
		if !allowedTopLevelKeys[key] {
			unsupported = append(unsupported, strconv.Quote(key))
		}
	}
	if len(unsupported) > 0 {
		sort.Strings(unsupported)
		v.errorf("unsupported top-level keys: %s", strings.Join(unsupported, ", "))
	}

	config := &CalculatorConfig{
		Version:     v.parseVersion(record["version"]),
		Metadata:    v.parseMetadata(record["metadata"]),
		Logic:       v.parseLogic(record),
		Form:        v.parseForm(record["form"]),
		PageContent: v.parsePageContent(record),
		Schema:      v.parseSchema(record["schema"]),
		Links:       v.parseLinks(record),
	}

	if len(v.errors) > 0 {
		return nil, v.errors
	}
	return config, nil
}

// validator accumulates errors while walking the raw config.
type validator struct {
	context string
	errors  []string
}

func (v *validator) errorf(format string, args ...any) {
	v.errors = append(v.errors, v.context+": "+fmt.Sprintf(format, args...))
}

// pushf records an error with an explicit path prefix instead of the
// validator context.
func (v *validator) pushf(path, format string, args ...any) {
	v.errors = append(v.errors, path+" "+fmt.Sprintf(format, args...))
}

func (v *validator) assertNoHTML(value, fieldPath string) {
	if strings.Contains(value, "<") || strings.Contains(value, ">") {
		v.errors = append(v.errors, fieldPath+" must not include HTML tags. Use plain text or Markdown.")
	}
}

func (v *validator) parseVersion(version any) string {
	switch value := version.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		v.errorf("version must be a string or number")
		return ""
	}
}

func (v *validator) parseMetadata(metadata any) *Metadata {
	if metadata == nil {
		return nil
	}

	record, ok := metadata.(map[string]any)
	if !ok {
		v.errorf("metadata must be an object")
		return nil
	}

	result := &Metadata{}

	if title, present := record["title"]; present {
		if s, ok := title.(string); ok {
			v.assertNoHTML(s, v.context+": metadata.title")
			result.Title = strings.TrimSpace(s)
		} else {
			v.errorf("metadata.title must be a string")
		}
	}

	if description, present := record["description"]; present {
		if s, ok := description.(string); ok {
			v.assertNoHTML(s, v.context+": metadata.description")
			result.Description = strings.TrimSpace(s)
		} else {
			v.errorf("metadata.description must be a string")
		}
	}

	return result
}

func (v *validator) parseLogic(parsed map[string]any) LogicConfig {
	candidate := firstPresent(parsed, "logic", "calculator_logic")
	if candidate == nil {
		return nil
	}

	record, ok := candidate.(map[string]any)
	if !ok {
		v.errorf("logic must be an object")
		return nil
	}

	logicType := ""
	if rawType, ok := record["type"].(string); ok && strings.TrimSpace(rawType) != "" {
		logicType = strings.ToLower(strings.TrimSpace(rawType))
	} else if _, hasFrom := record["fromUnitId"]; hasFrom {
		if _, hasTo := record["toUnitId"]; hasTo {
			logicType = "conversion"
		}
	}

	if logicType == "advanced_calc" {
		logicType = "advanced"
	}

	if logicType == "" {
		v.errorf("logic.type is required")
		return nil
	}

	switch logicType {
	case "conversion", "converter":
		return v.parseConversionLogic(record)
	case "formula":
		return v.parseFormulaLogic(record)
	case "advanced", "multi_method":
		return v.parseAdvancedLogic(record)
	}

	data := make(map[string]any, len(record))
	for key, value := range record {
		data[key] = value
	}
	return &GenericLogic{Type: logicType, Data: data}
}

func (v *validator) parseConversionLogic(record map[string]any) LogicConfig {
	fromUnitID := getString(record, "fromUnitId")
	toUnitID := getString(record, "toUnitId")

	if fromUnitID == "" || toUnitID == "" {
		v.errorf("conversion logic requires fromUnitId and toUnitId")
		return nil
	}

	return &ConversionLogic{FromUnitID: fromUnitID, ToUnitID: toUnitID}
}

func (v *validator) parseFormulaLogic(record map[string]any) LogicConfig {
	outputsCandidate, ok := record["outputs"].([]any)
	if !ok || len(outputsCandidate) == 0 {
		v.errorf("formula logic requires an outputs array")
		return nil
	}

	var outputs []*FormulaOutput
	for index, item := range outputsCandidate {
		entry, ok := item.(map[string]any)
		if !ok {
			v.errorf("formula logic outputs[%d] must be an object", index)
			continue
		}

		id := getString(entry, "id")
		label := getString(entry, "label")
		expression := getString(entry, "expression")

		if id == "" || label == "" || expression == "" {
			v.errorf("formula logic outputs[%d] requires id, label, and expression", index)
			continue
		}

		v.assertNoHTML(label, fmt.Sprintf("%s: formula logic outputs[%d].label", v.context, index))
		outputs = append(outputs, &FormulaOutput{
			ID:         id,
			Label:      label,
			Expression: expression,
			Unit:       getOptionalString(entry, "unit"),
			Format:     getOptionalString(entry, "format"),
		})
	}

	if len(outputs) == 0 {
		v.errorf("formula logic must define at least one valid output")
		return nil
	}

	return &FormulaLogic{Outputs: outputs}
}

func (v *validator) parseAdvancedLogic(record map[string]any) LogicConfig {
	methodsCandidate, ok := record["methods"].(map[string]any)
	if !ok {
		v.errorf("advanced logic requires a methods object")
		return nil
	}

	var methods []*AdvancedMethod
	for _, methodID := range sortedKeys(methodsCandidate) {
		method := v.parseAdvancedMethod(methodID, methodsCandidate[methodID])
		if method != nil {
			methods = append(methods, method)
		}
	}

	if len(methods) == 0 {
		v.errorf("advanced logic must define at least one valid method")
		return nil
	}

	defaultMethod := getOptionalString(record, "defaultMethod")
	if defaultMethod == "" {
		defaultMethod = getOptionalString(record, "default_method")
	}
	if defaultMethod == "" {
		defaultMethod = methods[0].ID
	}

	matched := false
	for _, method := range methods {
		if method.ID == defaultMethod {
			matched = true
			break
		}
	}
	if !matched {
		v.errorf("advanced logic defaultMethod %q does not match any method id", defaultMethod)
		defaultMethod = methods[0].ID
	}

	return &AdvancedLogic{DefaultMethod: defaultMethod, Methods: methods}
}

func (v *validator) parseAdvancedMethod(methodID string, candidate any) *AdvancedMethod {
	record, ok := candidate.(map[string]any)
	if !ok {
		v.errorf("logic.methods[%q] must be an object", methodID)
		return nil
	}

	label := getOptionalString(record, "label")
	if label == "" {
		label = startCaseFromID(methodID)
	}
	description := getOptionalString(record, "description")
	formulaVar := getOptionalString(record, "formula")

	variablesCandidate, ok := record["variables"].(map[string]any)
	if !ok || len(variablesCandidate) == 0 {
		v.errorf("logic.methods[%q].variables must be an object", methodID)
		return nil
	}

	variables := make(map[string]*AdvancedVariable)
	for _, variableID := range sortedKeys(variablesCandidate) {
		variable := v.parseAdvancedVariable(methodID, variableID, variablesCandidate[variableID])
		if variable != nil {
			variables[variableID] = variable
		}
	}

	if len(variables) == 0 {
		v.errorf("logic.methods[%q] must define at least one variable", methodID)
		return nil
	}

	var outputs []*AdvancedOutput
	if outputsCandidate, ok := record["outputs"].([]any); ok {
		for index, item := range outputsCandidate {
			entry, ok := item.(map[string]any)
			if !ok {
				v.errorf("logic.methods[%q].outputs[%d] must be an object", methodID, index)
				continue
			}

			outputID := getString(entry, "id")
			outputLabel := getString(entry, "label")
			if outputLabel == "" {
				outputLabel = startCaseFromID(outputID)
			}
			variableRef := getString(entry, "variable")
			if variableRef == "" {
				variableRef = getString(entry, "value")
			}

			if outputID == "" || variableRef == "" {
				v.errorf("logic.methods[%q].outputs[%d] requires id and variable", methodID, index)
				continue
			}

			outputs = append(outputs, &AdvancedOutput{
				ID:       outputID,
				Label:    outputLabel,
				Variable: variableRef,
				Unit:     getOptionalString(entry, "unit"),
				Format:   getOptionalString(entry, "format"),
			})
		}
	}

	// A method with no explicit outputs still exposes its formula variable
	// and any display-flagged or labeled variables.
	if len(outputs) == 0 {
		if formulaVar != "" && variables[formulaVar] != nil {
			outputs = append(outputs, &AdvancedOutput{
				ID:       methodID + "_" + formulaVar,
				Label:    startCaseFromID(formulaVar),
				Variable: formulaVar,
			})
		}

		for _, variableID := range sortedKeysOf(variables) {
			variable := variables[variableID]
			if variable.Display || variable.Label != "" {
				label := variable.Label
				if label == "" {
					label = startCaseFromID(variableID)
				}
				outputs = append(outputs, &AdvancedOutput{
					ID:       methodID + "_" + variableID,
					Label:    label,
					Variable: variableID,
					Unit:     variable.Unit,
					Format:   variable.Format,
				})
			}
		}
	}

	if len(outputs) == 0 {
		v.errorf("logic.methods[%q] must expose at least one output (via outputs array or formula/display flags)", methodID)
		return nil
	}

	return &AdvancedMethod{
		ID:          methodID,
		Label:       label,
		Description: description,
		Formula:     formulaVar,
		Variables:   variables,
		Outputs:     outputs,
	}
}

func (v *validator) parseAdvancedVariable(methodID, variableID string, candidate any) *AdvancedVariable {
	// A bare string is shorthand for {"expression": ...}.
	if expression, ok := candidate.(string); ok {
		return &AdvancedVariable{Expression: expression}
	}

	record, ok := candidate.(map[string]any)
	if !ok {
		v.errorf("logic.methods[%q].variables[%q] must be an object or expression string", methodID, variableID)
		return nil
	}

	expression, _ := record["expression"].(string)
	if expression == "" {
		v.errorf("logic.methods[%q].variables[%q] requires an expression", methodID, variableID)
		return nil
	}

	variable := &AdvancedVariable{
		Expression: expression,
		Label:      getOptionalString(record, "label"),
		Unit:       getOptionalString(record, "unit"),
		Format:     getOptionalString(record, "format"),
	}

	if display, ok := record["display"].(bool); ok {
		variable.Display = display
	}

	if deps, ok := record["dependencies"].([]any); ok {
		for depIndex, item := range deps {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				variable.Dependencies = append(variable.Dependencies, strings.TrimSpace(s))
			} else {
				v.errorf("logic.methods[%q].variables[%q].dependencies[%d] must be a string", methodID, variableID, depIndex)
			}
		}
	}

	return variable
}

func (v *validator) parseForm(candidate any) *FormConfig {
	if candidate == nil {
		return nil
	}

	record, ok := candidate.(map[string]any)
	if !ok {
		v.errorf("form must be an object")
		return nil
	}

	fields := []*FormField{}
	if rawFields, present := record["fields"]; present {
		if items, ok := rawFields.([]any); ok {
			for index, item := range items {
				field := v.parseFormField(item, fmt.Sprintf("%s: form.fields[%d]", v.context, index))
				if field != nil {
					fields = append(fields, field)
				}
			}
		} else {
			v.errorf("form.fields must be an array")
		}
	}

	sections := []*Section{}
	if rawSections, present := record["sections"]; present {
		if items, ok := rawSections.([]any); ok {
			for index, item := range items {
				section := v.parseFormSection(item, fmt.Sprintf("%s: form.sections[%d]", v.context, index))
				if section != nil {
					sections = append(sections, section)
				}
			}
		} else {
			v.errorf("form.sections must be an array")
		}
	}

	if len(fields) == 0 && len(sections) == 0 {
		v.errorf("form must define at least one field or section")
	}

	form := &FormConfig{Fields: fields, Sections: sections}

	if rawResult, present := record["result"]; present && rawResult != nil {
		resultRecord, ok := rawResult.(map[string]any)
		if !ok {
			v.errorf("form.result must be an object")
			return form
		}
		items, ok := resultRecord["outputs"].([]any)
		if !ok {
			v.errorf("form.result.outputs must be an array")
			return form
		}

		outputs := []*FormOutput{}
		for index, item := range items {
			entry, ok := item.(map[string]any)
			if !ok {
				v.errorf("form.result.outputs[%d] must be an object", index)
				continue
			}

			id := getString(entry, "id")
			label := getString(entry, "label")
			if id == "" || label == "" {
				v.errorf("form.result.outputs[%d] requires id and label", index)
				continue
			}

			v.assertNoHTML(label, fmt.Sprintf("%s: form.result.outputs[%d].label", v.context, index))
			outputs = append(outputs, &FormOutput{
				ID:     id,
				Label:  label,
				Unit:   getOptionalString(entry, "unit"),
				Format: getOptionalString(entry, "format"),
			})
		}
		form.Result = &FormResult{Outputs: outputs}
	}

	return form
}

func (v *validator) parseFormField(candidate any, path string) *FormField {
	record, ok := candidate.(map[string]any)
	if !ok {
		v.pushf(path, "must be an object")
		return nil
	}

	id := getString(record, "id")
	label := getString(record, "label")
	fieldType := getString(record, "type")

	if id == "" || label == "" || fieldType == "" {
		v.pushf(path, "requires id, label, and type")
		return nil
	}

	v.assertNoHTML(label, path+".label")

	field := &FormField{
		ID:       id,
		Label:    label,
		Type:     fieldType,
		Required: true,
	}
	if required, present := record["required"]; present {
		field.Required = truthy(required)
	}

	if placeholder := getOptionalString(record, "placeholder"); placeholder != "" {
		v.assertNoHTML(placeholder, path+".placeholder")
		field.Placeholder = placeholder
	}

	helpText := getOptionalString(record, "helpText")
	if helpText == "" {
		helpText = getOptionalString(record, "help_text")
	}
	if helpText != "" {
		v.assertNoHTML(helpText, path+".help_text")
		field.HelpText = helpText
	}

	if value, present := record["default"]; present {
		if s, ok := stringOrNumber(value); ok {
			field.DefaultValue = s
		} else {
			v.pushf(path+".default", "must be a string or number")
		}
	} else if value, present := record["default_value"]; present {
		if s, ok := stringOrNumber(value); ok {
			field.DefaultValue = s
		} else {
			v.pushf(path+".default_value", "must be a string or number")
		}
	}

	field.Min = v.parseNumberProperty(record, "min", path)
	field.Max = v.parseNumberProperty(record, "max", path)
	field.Step = v.parseNumberProperty(record, "step", path)

	if rawOptions, present := record["options"]; present {
		items, ok := rawOptions.([]any)
		if !ok {
			v.pushf(path+".options", "must be an array")
			return field
		}
		field.Options = []*FieldOption{}
		for index, item := range items {
			entry, ok := item.(map[string]any)
			if !ok {
				v.pushf(fmt.Sprintf("%s.options[%d]", path, index), "must be an object")
				continue
			}

			optionLabel := getString(entry, "label")
			optionValue := getString(entry, "value")
			if optionLabel == "" || optionValue == "" {
				v.pushf(fmt.Sprintf("%s.options[%d]", path, index), "requires label and value")
				continue
			}

			v.assertNoHTML(optionLabel, fmt.Sprintf("%s.options[%d].label", path, index))
			field.Options = append(field.Options, &FieldOption{Label: optionLabel, Value: optionValue})
		}
	}

	return field
}

func (v *validator) parseNumberProperty(record map[string]any, key, path string) *float64 {
	value, present := record[key]
	if !present {
		return nil
	}
	number, ok := value.(float64)
	if !ok {
		v.pushf(path+"."+key, "must be a number")
		return nil
	}
	return &number
}

func (v *validator) parseFormSection(candidate any, path string) *Section {
	record, ok := candidate.(map[string]any)
	if !ok {
		v.pushf(path, "must be an object")
		return nil
	}

	sectionID := getString(record, "id")
	if sectionID == "" {
		sectionID = "section_" + path
	}

	label := getOptionalString(record, "label")
	if label == "" {
		label = startCaseFromID(sectionID)
	}
	if label == "" {
		v.pushf(path, "requires a label")
		return nil
	}

	v.assertNoHTML(label, path+".label")

	description := getOptionalString(record, "description")
	if description != "" {
		v.assertNoHTML(description, path+".description")
	}

	showWhenCandidate := record["showWhen"]
	if showWhenCandidate == nil {
		showWhenCandidate = record["show_when"]
	}
	showWhen := v.parseShowWhen(showWhenCandidate, path+".showWhen")

	fields := []*FormField{}
	items, ok := record["fields"].([]any)
	if !ok || len(items) == 0 {
		v.pushf(path+".fields", "must be a non-empty array")
	} else {
		for index, item := range items {
			field := v.parseFormField(item, fmt.Sprintf("%s.fields[%d]", path, index))
			if field != nil {
				fields = append(fields, field)
			}
		}
	}

	return &Section{
		ID:          sectionID,
		Label:       label,
		Description: description,
		ShowWhen:    showWhen,
		Fields:      fields,
	}
}

func (v *validator) parseShowWhen(candidate any, path string) *ShowWhen {
	if candidate == nil {
		return nil
	}

	record, ok := candidate.(map[string]any)
	if !ok {
		v.pushf(path, "must be an object")
		return nil
	}

	field := getString(record, "field")
	if field == "" {
		v.pushf(path+".field", "is required")
		return nil
	}

	showWhen := &ShowWhen{
		Field:  field,
		Equals: getOptionalString(record, "equals"),
	}

	if rawIn, present := record["in"]; present {
		items, ok := rawIn.([]any)
		if !ok {
			v.pushf(path+".in", "must be an array of strings")
			return showWhen
		}
		showWhen.In = []string{}
		for index, item := range items {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				showWhen.In = append(showWhen.In, strings.TrimSpace(s))
			} else {
				v.pushf(fmt.Sprintf("%s.in[%d]", path, index), "must be a string")
			}
		}
	}

	return showWhen
}

func (v *validator) parsePageContent(parsed map[string]any) *PageContent {
	candidate := firstPresent(parsed, "pageContent", "page_content")
	if candidate == nil {
		return nil
	}

	record, ok := candidate.(map[string]any)
	if !ok {
		v.errorf("page_content must be an object")
		return nil
	}

	var invalid []string
	for key := range record {
		if !allowedPageContentKeys[key] {
			invalid = append(invalid, strconv.Quote(key))
		}
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		v.errorf("unsupported page_content keys: %s", strings.Join(invalid, ", "))
	}

	return &PageContent{
		Introduction: v.coerceStringArray(record["introduction"], v.context+": page_content.introduction"),
		Methodology:  v.coerceStringArray(record["methodology"], v.context+": page_content.methodology"),
		Examples:     v.coerceStringArray(record["examples"], v.context+": page_content.examples"),
		Summary:      v.coerceStringArray(record["summary"], v.context+": page_content.summary"),
		FAQs:         v.parseFAQs(record["faqs"]),
		Citations:    v.parseCitations(record["citations"]),
		Glossary:     v.parseGlossary(record["glossary"]),
	}
}

func (v *validator) parseFAQs(candidate any) []*FAQEntry {
	if candidate == nil {
		return nil
	}

	items, ok := candidate.([]any)
	if !ok {
		v.errorf("page_content.faqs must be an array")
		return nil
	}

	var faqs []*FAQEntry
	for index, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			v.errorf("page_content.faqs[%d] must be an object", index)
			continue
		}

		question := getString(entry, "question")
		answer := getString(entry, "answer")
		if question == "" || answer == "" {
			v.errorf("page_content.faqs[%d] requires question and answer", index)
			continue
		}

		v.assertNoHTML(question, fmt.Sprintf("%s: page_content.faqs[%d].question", v.context, index))
		v.assertNoHTML(answer, fmt.Sprintf("%s: page_content.faqs[%d].answer", v.context, index))
		faqs = append(faqs, &FAQEntry{Question: question, Answer: answer})
	}

	return faqs
}

func (v *validator) parseCitations(candidate any) []*Citation {
	if candidate == nil {
		return nil
	}

	items, ok := candidate.([]any)
	if !ok {
		v.errorf("page_content.citations must be an array")
		return nil
	}

	var citations []*Citation
	for index, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			v.errorf("page_content.citations[%d] must be an object", index)
			continue
		}

		url := getString(entry, "url")
		if url == "" {
			v.errorf("page_content.citations[%d] requires url", index)
			continue
		}

		label := getOptionalString(entry, "label")
		text := getOptionalString(entry, "text")

		if label != "" {
			v.assertNoHTML(label, fmt.Sprintf("%s: page_content.citations[%d].label", v.context, index))
		}
		if text != "" {
			v.assertNoHTML(text, fmt.Sprintf("%s: page_content.citations[%d].text", v.context, index))
		}

		citations = append(citations, &Citation{URL: url, Label: label, Text: text})
	}

	return citations
}

func (v *validator) parseGlossary(candidate any) []*GlossaryItem {
	if candidate == nil {
		return nil
	}

	items, ok := candidate.([]any)
	if !ok {
		v.errorf("page_content.glossary must be an array")
		return nil
	}

	var glossary []*GlossaryItem
	for index, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			v.errorf("page_content.glossary[%d] must be an object", index)
			continue
		}

		term := getString(entry, "term")
		definition := getString(entry, "definition")
		if term == "" || definition == "" {
			v.errorf("page_content.glossary[%d] requires term and definition", index)
			continue
		}

		v.assertNoHTML(term, fmt.Sprintf("%s: page_content.glossary[%d].term", v.context, index))
		v.assertNoHTML(definition, fmt.Sprintf("%s: page_content.glossary[%d].definition", v.context, index))
		glossary = append(glossary, &GlossaryItem{Term: term, Definition: definition})
	}

	return glossary
}

func (v *validator) parseSchema(candidate any) *SchemaConfig {
	if candidate == nil {
		return nil
	}

	record, ok := candidate.(map[string]any)
	if !ok {
		v.errorf("schema must be an object")
		return nil
	}

	schema := &SchemaConfig{}
	if raw, present := record["additionalTypes"]; present {
		schema.AdditionalTypes = v.coerceStringArray(raw, v.context+": schema.additionalTypes")
	}

	return schema
}

func (v *validator) parseLinks(parsed map[string]any) *LinkConfig {
	candidate := firstPresent(parsed, "links", "seo_links")
	if candidate == nil {
		return nil
	}

	record, ok := candidate.(map[string]any)
	if !ok {
		v.errorf("links must be an object")
		return nil
	}

	links := &LinkConfig{}

	if raw, present := record["internal"]; present {
		links.Internal = v.coerceStringArray(raw, v.context+": links.internal")
	}

	if raw, present := record["external"]; present {
		items, ok := raw.([]any)
		if !ok {
			v.errorf("links.external must be an array")
			return links
		}
		for index, item := range items {
			entry, ok := item.(map[string]any)
			if !ok {
				v.errorf("links.external[%d] must be an object", index)
				continue
			}

			url := getString(entry, "url")
			if url == "" {
				v.errorf("links.external[%d] requires url", index)
				continue
			}

			label := getOptionalString(entry, "label")
			if label != "" {
				v.assertNoHTML(label, fmt.Sprintf("%s: links.external[%d].label", v.context, index))
			}

			link := &ExternalLink{URL: url, Label: label}
			if rawRel, present := entry["rel"]; present {
				switch rel := rawRel.(type) {
				case []any:
					for relIndex, relEntry := range rel {
						if s, ok := relEntry.(string); ok {
							link.Rel = append(link.Rel, strings.TrimSpace(s))
						} else {
							v.errorf("links.external[%d].rel[%d] must be a string", index, relIndex)
						}
					}
				case string:
					for _, token := range strings.Fields(rel) {
						link.Rel = append(link.Rel, token)
					}
				default:
					v.errorf("links.external[%d].rel must be a string or array", index)
				}
			}

			links.External = append(links.External, link)
		}
	}

	return links
}

// coerceStringArray accepts a string, an array of strings, or objects that
// carry a slug/path/href property, and flattens them to trimmed strings.
func (v *validator) coerceStringArray(candidate any, fieldPath string) []string {
	if candidate == nil {
		return nil
	}

	values, ok := candidate.([]any)
	if !ok {
		values = []any{candidate}
	}

	var result []string
	for index, value := range values {
		if s, ok := value.(string); ok {
			v.assertNoHTML(s, fmt.Sprintf("%s[%d]", fieldPath, index))
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				result = append(result, trimmed)
			}
			continue
		}

		if entry, ok := value.(map[string]any); ok {
			slug := getString(entry, "slug")
			if slug == "" {
				slug = getString(entry, "path")
			}
			if slug == "" {
				slug = getString(entry, "href")
			}
			if slug != "" {
				result = append(result, slug)
				continue
			}
		}

		v.pushf(fmt.Sprintf("%s[%d]", fieldPath, index), "must be a string or object with a slug")
	}

	return result
}

// getString returns the trimmed string at key, or "" when absent, not a
// string, or blank.
func getString(source map[string]any, key string) string {
	if s, ok := source[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// getOptionalString accepts strings and finite numbers, trimming strings
// and formatting numbers. Anything else yields "".
func getOptionalString(source map[string]any, key string) string {
	switch value := source[key].(type) {
	case string:
		return strings.TrimSpace(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	}
	return ""
}

func stringOrNumber(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	return "", false
}

// truthy mirrors loose boolean coercion of JSON values: false, 0, "", and
// null are false, everything else is true.
func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	}
	return true
}

func firstPresent(record map[string]any, keys ...string) any {
	for _, key := range keys {
		if value, present := record[key]; present && value != nil {
			return value
		}
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeysOf(m map[string]*AdvancedVariable) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
