package reflow_test

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"proposals/internal/content"
)

// unitMeasurer charges 10 units per top-level block and per list item.
// A data-height attribute overrides the charge for that node.
type unitMeasurer struct{}

func (unitMeasurer) Measure(b content.Body) float64 {
	var total float64
	for _, n := range b {
		total += nodeHeight(n)
	}
	return total
}

func nodeHeight(n *html.Node) float64 {
	if content.IsWhitespace(n) {
		return 0
	}
	if n.Type == html.ElementNode {
		if v, ok := content.Attr(n, "data-height"); ok {
			h, _ := strconv.ParseFloat(v, 64)
			return h
		}
	}
	if content.IsList(n) {
		var total float64
		for _, li := range content.ListItems(n) {
			total += nodeHeight(li)
		}
		return total
	}
	return 10
}

func paragraphs(prefix string, n int) string {
	var sb strings.Builder
	for i := 1; i <= n; i++ {
		sb.WriteString("<p>" + prefix + strconv.Itoa(i) + "</p>")
	}
	return sb.String()
}

func listOf(attrs string, n int) string {
	var sb strings.Builder
	sb.WriteString("<ul" + attrs + ">")
	for i := 1; i <= n; i++ {
		sb.WriteString("<li>" + strconv.Itoa(i) + "</li>")
	}
	sb.WriteString("</ul>")
	return sb.String()
}

// words strips whitespace so texts compare by content and order only.
func words(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func fitsWithin(limit float64) func(content.Body) bool {
	return func(b content.Body) bool {
		return unitMeasurer{}.Measure(b) <= limit
	}
}
