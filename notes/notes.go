// Package notes renders note-card content. Cards hold markdown source (with
// $$...$$ math support); the renderer collaborator consumes the converted
// HTML, and the derived plain text feeds card titles and search.
package notes

import (
	"bytes"
	"fmt"
	"strings"

	treeblood "github.com/wyatt915/goldmark-treeblood"
	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultTitleLength caps derived titles.
const DefaultTitleLength = 80

// Content is the rendered form of one card's markdown source.
type Content struct {
	Markdown  string
	HTML      string
	PlainText string
	Title     string
}

// Converter turns markdown note sources into renderable content.
type Converter struct {
	md goldmark.Markdown
}

// NewConverter builds a converter with math extension enabled, so $$...$$
// blocks in notes come out as MathML.
func NewConverter() *Converter {
	return &Converter{
		md: goldmark.New(
			goldmark.WithExtensions(
				treeblood.MathML(),
			),
		),
	}
}

// ToHTML converts markdown source to HTML.
func (c *Converter) ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

// Render converts markdown source and derives the plain text and title.
func (c *Converter) Render(source string) (Content, error) {
	htmlOut, err := c.ToHTML(source)
	if err != nil {
		return Content{}, err
	}
	plain, err := PlainText(htmlOut)
	if err != nil {
		return Content{}, err
	}
	return Content{
		Markdown:  source,
		HTML:      htmlOut,
		PlainText: plain,
		Title:     DeriveTitle(plain),
	}, nil
}

// PlainText extracts the text content of an HTML fragment, with block
// elements separated by newlines.
func PlainText(source string) (string, error) {
	doc, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	var b strings.Builder
	walkText(doc, &b)
	return strings.TrimSpace(b.String()), nil
}

func walkText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style:
			return
		case atom.P, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
			atom.Li, atom.Br, atom.Div, atom.Blockquote, atom.Pre:
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
				b.WriteString("\n")
			}
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walkText(child, b)
	}
}

// DeriveTitle takes the first non-empty line of the plain text, truncated
// on a rune boundary.
func DeriveTitle(plain string) string {
	for _, line := range strings.Split(plain, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		runes := []rune(line)
		if len(runes) > DefaultTitleLength {
			return string(runes[:DefaultTitleLength-1]) + "…"
		}
		return line
	}
	return ""
}
