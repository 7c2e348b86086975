package content

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Body is the top-level node sequence of a page's rich content. Nodes are
// detached from any parent so they can be moved between bodies freely.
type Body []*html.Node

// Parse reads page markup as a fragment of a <div> container.
func Parse(markup string) (Body, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, fmt.Errorf("parse body: %w", err)
	}
	return Body(nodes), nil
}

// MustParse is Parse for trusted literals such as presets and templates.
func MustParse(markup string) Body {
	b, err := Parse(markup)
	if err != nil {
		panic(err)
	}
	return b
}

func (b Body) Render() string {
	var buf bytes.Buffer
	for _, n := range b {
		if err := html.Render(&buf, n); err != nil {
			// html.Render only fails on writer errors; bytes.Buffer never returns one.
			panic(err)
		}
	}
	return buf.String()
}

// Clone returns a deep copy sharing no nodes with b.
func (b Body) Clone() Body {
	if b == nil {
		return nil
	}
	out := make(Body, len(b))
	for i, n := range b {
		out[i] = CloneNode(n)
	}
	return out
}

// Concat returns a new body holding a followed by c. Neither input is modified.
func Concat(a, c Body) Body {
	out := make(Body, 0, len(a)+len(c))
	out = append(out, a.Clone()...)
	out = append(out, c.Clone()...)
	return out
}

// Text returns the concatenated text content.
func (b Body) Text() string {
	var sb strings.Builder
	for _, n := range b {
		writeText(&sb, n)
	}
	return sb.String()
}

// HasContent reports whether the body holds any visible text or embedded
// media. A body of empty paragraphs and whitespace has no content.
func (b Body) HasContent() bool {
	for _, n := range b {
		if nodeHasContent(n) {
			return true
		}
	}
	return false
}

// Units counts the movable content units: top-level nodes plus list items.
func (b Body) Units() int {
	total := 0
	for _, n := range b {
		total++
		if IsList(n) {
			total += len(ListItems(n))
		}
	}
	return total
}

// CloneNode deep-copies n and its subtree. The copy has no parent or siblings.
func CloneNode(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = append([]html.Attribute(nil), n.Attr...)
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		c.AppendChild(CloneNode(ch))
	}
	return c
}

// ShallowClone copies n's tag and attributes without children.
func ShallowClone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = append([]html.Attribute(nil), n.Attr...)
	}
	return c
}

func writeText(sb *strings.Builder, n *html.Node) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(sb, c)
	}
}

func nodeHasContent(n *html.Node) bool {
	switch n.Type {
	case html.TextNode:
		return strings.TrimSpace(strings.ReplaceAll(n.Data, "\u00a0", " ")) != ""
	case html.ElementNode:
		if isMedia(n) {
			return true
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if nodeHasContent(c) {
			return true
		}
	}
	return false
}

func isMedia(n *html.Node) bool {
	switch n.Data {
	case "img", "table", "hr", "svg", "video", "canvas", "iframe":
		return true
	}
	return false
}
