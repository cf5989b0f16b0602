package parser

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// DefaultOutlineLevel is the deepest heading included when no level is given.
const DefaultOutlineLevel = 3

// Heading is one entry of a document outline.
type Heading struct {
	Level  int    `json:"level"`
	Text   string `json:"text"`
	Anchor string `json:"anchor"`
}

var outlineEngine = goldmark.New(
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// Outline returns the headings of body up to maxLevel in document order.
// Anchors are the ids goldmark assigns, so they match rendered pages.
func Outline(body string, maxLevel int) []Heading {
	if maxLevel <= 0 {
		maxLevel = DefaultOutlineLevel
	}
	src := []byte(body)
	doc := outlineEngine.Parser().Parse(text.NewReader(src))

	headings := []Heading{}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if h.Level <= maxLevel {
			headings = append(headings, Heading{
				Level:  h.Level,
				Text:   inlineText(h, src),
				Anchor: headingID(h),
			})
		}
		return ast.WalkSkipChildren, nil
	})
	return headings
}

// RenderTOC formats headings as a nested Markdown list of anchor links.
func RenderTOC(headings []Heading) string {
	var b strings.Builder
	for _, h := range headings {
		b.WriteString(strings.Repeat("  ", max(h.Level-1, 0)))
		b.WriteString("- [")
		b.WriteString(h.Text)
		b.WriteString("](#")
		b.WriteString(h.Anchor)
		b.WriteString(")\n")
	}
	return b.String()
}

func headingID(h *ast.Heading) string {
	v, ok := h.AttributeString("id")
	if !ok {
		return ""
	}
	switch id := v.(type) {
	case []byte:
		return string(id)
	case string:
		return id
	}
	return ""
}

func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
