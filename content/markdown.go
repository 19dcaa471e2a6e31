package content

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/rywalsh/sliderule/pkg/calcconfig"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// RenderMarkdown converts a Markdown string to HTML. The validator has
// already rejected raw HTML in content, so the default safe renderer is
// enough here.
func RenderMarkdown(source string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// RenderedPage holds the HTML rendering of a config's page content. Each
// prose block becomes one HTML fragment.
type RenderedPage struct {
	Introduction []string
	Methodology  []string
	Examples     []string
	Summary      []string
	FAQs         []RenderedFAQ
	Glossary     []RenderedTerm
}

// RenderedFAQ is one question with its rendered answer.
type RenderedFAQ struct {
	Question string
	Answer   string
}

// RenderedTerm is one glossary term with its rendered definition.
type RenderedTerm struct {
	Term       string
	Definition string
}

// RenderPageContent renders every prose block of the page content to HTML.
// A nil page content renders to an empty page.
func RenderPageContent(pc *calcconfig.PageContent) (*RenderedPage, error) {
	page := &RenderedPage{}
	if pc == nil {
		return page, nil
	}

	var err error
	if page.Introduction, err = renderBlocks(pc.Introduction); err != nil {
		return nil, err
	}
	if page.Methodology, err = renderBlocks(pc.Methodology); err != nil {
		return nil, err
	}
	if page.Examples, err = renderBlocks(pc.Examples); err != nil {
		return nil, err
	}
	if page.Summary, err = renderBlocks(pc.Summary); err != nil {
		return nil, err
	}

	for _, faq := range pc.FAQs {
		answer, err := RenderMarkdown(faq.Answer)
		if err != nil {
			return nil, err
		}
		page.FAQs = append(page.FAQs, RenderedFAQ{Question: faq.Question, Answer: answer})
	}

	for _, item := range pc.Glossary {
		definition, err := RenderMarkdown(item.Definition)
		if err != nil {
			return nil, err
		}
		page.Glossary = append(page.Glossary, RenderedTerm{Term: item.Term, Definition: definition})
	}

	return page, nil
}

func renderBlocks(blocks []string) ([]string, error) {
	if len(blocks) == 0 {
		return nil, nil
	}

	rendered := make([]string, 0, len(blocks))
	for _, block := range blocks {
		html, err := RenderMarkdown(block)
		if err != nil {
			return nil, err
		}
		rendered = append(rendered, html)
	}
	return rendered, nil
}
