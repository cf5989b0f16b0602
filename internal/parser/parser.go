// Package parser reads and writes the front-matter block of Markdown/MDX
// documents and extracts their heading outline.
package parser

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// Document extensions accepted by the content tree.
const (
	ExtMD  = ".md"
	ExtMDX = ".mdx"
)

// FrontMatter holds the metadata fields persisted in a document header.
type FrontMatter struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// Result holds the output of parsing a document file.
type Result struct {
	FrontMatter FrontMatter
	Body        string
}

// Parse splits raw document bytes into front-matter and body. A file
// without a header is all body. Malformed YAML in the header is an error.
func Parse(data []byte) (*Result, error) {
	var fm FrontMatter
	body, err := frontmatter.Parse(bytes.NewReader(data), &fm)
	if err != nil {
		return nil, fmt.Errorf("parse front-matter: %w", err)
	}
	return &Result{FrontMatter: fm, Body: trimBody(string(body))}, nil
}

// trimBody removes the blank separator line after the header and the
// trailing newline Render appends, so Render and Parse round-trip.
func trimBody(body string) string {
	switch {
	case strings.HasPrefix(body, "\r\n"):
		body = body[2:]
	case strings.HasPrefix(body, "\n"):
		body = body[1:]
	}
	return strings.TrimSuffix(body, "\n")
}

// Render serializes fm as a quoted YAML header followed by a blank line,
// body and a trailing newline.
func Render(fm FrontMatter, body string) ([]byte, error) {
	node := &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Value: "title"},
			{Kind: yaml.ScalarNode, Style: yaml.DoubleQuotedStyle, Value: fm.Title},
			{Kind: yaml.ScalarNode, Value: "description"},
			{Kind: yaml.ScalarNode, Style: yaml.DoubleQuotedStyle, Value: fm.Description},
		},
	}
	header, err := yaml.Marshal(node)
	if err != nil {
		return nil, fmt.Errorf("render front-matter: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(len(header) + len(body) + 16)
	buf.WriteString("---\n")
	buf.Write(header)
	buf.WriteString("---\n\n")
	buf.WriteString(body)
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// IsDocumentName reports whether name carries a document extension.
func IsDocumentName(name string) bool {
	ext := path.Ext(name)
	return ext == ExtMD || ext == ExtMDX
}

// TitleFromFilename derives a fallback title by dropping the extension.
func TitleFromFilename(name string) string {
	if IsDocumentName(name) {
		return strings.TrimSuffix(name, path.Ext(name))
	}
	return name
}
