// Package markdown reads descriptive metadata out of markdown documents:
// front matter first, then the document's first heading and paragraph.
package markdown

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/frontmatter"
)

const MimeType = "text/markdown"

// Metadata describes a document.
type Metadata struct {
	Title       string
	Description string
	Tags        []string
}

type Parser struct {
	md goldmark.Markdown
}

func NewParser() *Parser {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			&frontmatter.Extender{},
		),
	)

	return &Parser{
		md: md,
	}
}

// IsMarkdown reports whether a file is markdown by MIME type or extension.
func IsMarkdown(name, mimeType string) bool {
	if strings.HasPrefix(strings.ToLower(mimeType), MimeType) {
		return true
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// Metadata extracts title, description and tags. Front matter keys win; the
// first heading and first paragraph fill in what front matter leaves out.
func (p *Parser) Metadata(source []byte) Metadata {
	context := parser.NewContext()
	doc := p.md.Parser().Parse(text.NewReader(source), parser.WithContext(context))

	meta := p.frontmatter(context)

	m := Metadata{
		Title:       stringValue(meta["title"]),
		Description: stringValue(meta["description"]),
		Tags:        tagsValue(meta["tags"]),
	}

	if m.Title != "" && m.Description != "" {
		return m
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if m.Title == "" {
				m.Title = nodeText(node, source)
			}
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph:
			if m.Description == "" {
				m.Description = nodeText(node, source)
			}
			return ast.WalkSkipChildren, nil
		}
		if m.Title != "" && m.Description != "" {
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})

	return m
}

func (p *Parser) frontmatter(context parser.Context) map[string]any {
	data := frontmatter.Get(context)
	if data == nil {
		return map[string]any{}
	}

	var meta map[string]any
	err := data.Decode(&meta)
	if err != nil || meta == nil {
		return map[string]any{}
	}
	return meta
}

func nodeText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}

// tagsValue accepts a list or a comma separated string.
func tagsValue(v any) []string {
	var raw []string
	switch t := v.(type) {
	case string:
		raw = strings.Split(t, ",")
	case []any:
		for _, item := range t {
			raw = append(raw, stringValue(item))
		}
	case []string:
		raw = t
	}

	tags := []string{}
	for _, tag := range raw {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
