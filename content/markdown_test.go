package content

import (
	"strings"
	"testing"

	"github.com/rywalsh/sliderule/pkg/calcconfig"
)

func TestRenderMarkdown(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "paragraph",
			source: "Plain text.",
			want:   "<p>Plain text.</p>",
		},
		{
			name:   "emphasis",
			source: "Use the *metric* system.",
			want:   "<em>metric</em>",
		},
		{
			name:   "gfm table",
			source: "| a | b |\n|---|---|\n| 1 | 2 |",
			want:   "<table>",
		},
		{
			name:   "gfm strikethrough",
			source: "~~old value~~",
			want:   "<del>old value</del>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RenderMarkdown(tt.source)
			if err != nil {
				t.Fatalf("RenderMarkdown failed: %v", err)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("got %q, want substring %q", got, tt.want)
			}
		})
	}
}

func TestRenderPageContent(t *testing.T) {
	page := &calcconfig.PageContent{
		Introduction: []string{"This converter handles **imperial** units."},
		Methodology:  []string{"Multiply by `0.3048`."},
		FAQs: []*calcconfig.FAQEntry{
			{Question: "Is a foot 12 inches?", Answer: "Yes, *exactly* 12."},
		},
		Glossary: []*calcconfig.GlossaryItem{
			{Term: "Meter", Definition: "The SI base unit of length."},
		},
	}

	rendered, err := RenderPageContent(page)
	if err != nil {
		t.Fatalf("RenderPageContent failed: %v", err)
	}

	if len(rendered.Introduction) != 1 || !strings.Contains(rendered.Introduction[0], "<strong>imperial</strong>") {
		t.Errorf("introduction: got %v", rendered.Introduction)
	}
	if len(rendered.Methodology) != 1 || !strings.Contains(rendered.Methodology[0], "<code>0.3048</code>") {
		t.Errorf("methodology: got %v", rendered.Methodology)
	}
	if len(rendered.FAQs) != 1 || !strings.Contains(rendered.FAQs[0].Answer, "<em>exactly</em>") {
		t.Errorf("faqs: got %+v", rendered.FAQs)
	}
	if rendered.FAQs[0].Question != "Is a foot 12 inches?" {
		t.Errorf("faq question should stay plain: got %q", rendered.FAQs[0].Question)
	}
	if len(rendered.Glossary) != 1 || !strings.Contains(rendered.Glossary[0].Definition, "SI base unit") {
		t.Errorf("glossary: got %+v", rendered.Glossary)
	}
}

func TestRenderPageContentNil(t *testing.T) {
	rendered, err := RenderPageContent(nil)
	if err != nil {
		t.Fatalf("RenderPageContent failed: %v", err)
	}
	if rendered == nil {
		t.Fatal("expected empty page, got nil")
	}
	if len(rendered.Introduction) != 0 || len(rendered.FAQs) != 0 {
		t.Errorf("expected empty page, got %+v", rendered)
	}
}
