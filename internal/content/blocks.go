package content

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Kind classifies a top-level node for layout and splitting.
type Kind int

const (
	KindText Kind = iota
	KindParagraph
	KindHeading
	KindList
	KindTable
	KindBreak
	KindRule
	KindMedia
	KindBlock
	KindInline
)

func Classify(n *html.Node) Kind {
	switch n.Type {
	case html.TextNode:
		return KindText
	case html.ElementNode:
	default:
		return KindInline
	}
	switch n.Data {
	case "p", "blockquote", "pre":
		return KindParagraph
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return KindHeading
	case "ul", "ol":
		return KindList
	case "table":
		return KindTable
	case "br":
		return KindBreak
	case "hr":
		return KindRule
	case "img", "svg", "video", "canvas", "iframe":
		return KindMedia
	case "div", "section", "article", "header", "footer", "figure":
		return KindBlock
	}
	return KindInline
}

// HeadingLevel returns 1-6 for heading elements and 0 otherwise.
func HeadingLevel(n *html.Node) int {
	if n.Type != html.ElementNode || len(n.Data) != 2 || n.Data[0] != 'h' {
		return 0
	}
	lvl := int(n.Data[1] - '0')
	if lvl < 1 || lvl > 6 {
		return 0
	}
	return lvl
}

func IsList(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && (n.Data == "ul" || n.Data == "ol")
}

// ListItems returns the <li> children of a list in document order.
func ListItems(n *html.Node) []*html.Node {
	var items []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "li" {
			items = append(items, c)
		}
	}
	return items
}

func IsWhitespace(n *html.Node) bool {
	return n.Type == html.TextNode && strings.TrimSpace(n.Data) == ""
}

// Attr returns the value of the named attribute.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func element(tag string, children ...*html.Node) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atomOf(tag)}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// moveChildren reparents every child of from onto to.
func moveChildren(to, from *html.Node) {
	for c := from.FirstChild; c != nil; {
		next := c.NextSibling
		from.RemoveChild(c)
		to.AppendChild(c)
		c = next
	}
}

func atomOf(tag string) atom.Atom {
	return atom.Lookup([]byte(tag))
}
