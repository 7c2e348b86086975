package layout

import (
	"math"
	"strconv"
	"strings"
	"sync"

	"codeberg.org/go-pdf/fpdf"
	"github.com/rivo/uniseg"
	"golang.org/x/net/html"

	"proposals/internal/content"
)

// Engine estimates the rendered height of page content synchronously, using
// core PDF font metrics for text width and UAX #14 line breaking.
type Engine struct {
	style Style
	width float64

	mu        sync.Mutex
	pdf       *fpdf.Fpdf
	translate func(string) string
}

// New creates an estimator laying content out in a column of width px.
func New(width float64, style Style) *Engine {
	// Sizes are passed to fpdf as points with a pt unit, so widths come back
	// in the same unit as the font size: px in, px out.
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetFont("Helvetica", "", style.Body.Size)
	return &Engine{
		style:     style,
		width:     width,
		pdf:       pdf,
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

func (e *Engine) Width() float64 { return e.width }

// Measure returns the stacked height of b in px. Whitespace-only text
// contributes nothing and consecutive blocks are separated by the block gap.
func (e *Engine) Measure(b content.Body) float64 {
	return e.stack(b, e.width)
}

// stack places nodes top to bottom. Consecutive text, inline and <br>
// siblings share one anonymous line box, as a browser lays out a bare run
// such as `Hello <b>bold</b> world`.
func (e *Engine) stack(nodes []*html.Node, width float64) float64 {
	var total float64
	placed := false
	place := func(h float64) {
		if h <= 0 {
			return
		}
		if placed {
			total += e.style.BlockGap
		}
		total += h
		placed = true
	}

	var run []*html.Node
	flush := func() {
		if !blankRun(run) {
			place(e.runHeight(run, e.style.Body, width))
		}
		run = run[:0]
	}
	for _, n := range nodes {
		if inFlow(n) {
			run = append(run, n)
			continue
		}
		flush()
		place(e.block(n, width))
	}
	flush()
	return total
}

func inFlow(n *html.Node) bool {
	switch content.Classify(n) {
	case content.KindText, content.KindInline, content.KindBreak:
		return true
	}
	return false
}

// blankRun reports whether run holds nothing but whitespace and comments.
func blankRun(run []*html.Node) bool {
	for _, n := range run {
		switch {
		case n.Type == html.ElementNode:
			return false
		case n.Type == html.TextNode && !content.IsWhitespace(n):
			return false
		}
	}
	return true
}

func (e *Engine) block(n *html.Node, width float64) float64 {
	switch content.Classify(n) {
	case content.KindParagraph:
		return e.inlineHeight(n, e.style.Body, width)
	case content.KindHeading:
		return e.inlineHeight(n, e.style.heading(content.HeadingLevel(n)), width)
	case content.KindList:
		return e.list(n, width)
	case content.KindTable:
		return e.table(n, width)
	case content.KindRule:
		return e.style.RuleHeight
	case content.KindMedia:
		return e.media(n, width)
	case content.KindBlock:
		return e.stack(children(n), width)
	}
	return 0
}

// inlineHeight lays out the inline content of n. An element with no text
// still occupies one line, like an empty paragraph.
func (e *Engine) inlineHeight(n *html.Node, ts TextStyle, width float64) float64 {
	if n.Type == html.TextNode {
		return e.runHeight([]*html.Node{n}, ts, width)
	}
	return e.runHeight(children(n), ts, width)
}

// runHeight lays out nodes as one flow of line boxes; <br> forces a new
// line and nested lists, tables and images stack below the text.
func (e *Engine) runHeight(nodes []*html.Node, ts TextStyle, width float64) float64 {
	var runs []string
	var cur strings.Builder
	var nested float64
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		switch {
		case c.Type == html.TextNode:
			cur.WriteString(c.Data)
		case c.Type == html.ElementNode && c.Data == "br":
			runs = append(runs, cur.String())
			cur.Reset()
		case c.Type == html.ElementNode && (content.IsList(c) || c.Data == "table" || c.Data == "img"):
			nested += e.block(c, width)
		default:
			for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
				walk(ch)
			}
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	// a trailing <br> opens no line of its own
	if strings.TrimSpace(cur.String()) != "" || len(runs) == 0 {
		runs = append(runs, cur.String())
	}
	lines := 0
	for _, r := range runs {
		lines += max(1, e.lines(r, ts, width))
	}
	return float64(lines)*ts.LineHeight + nested
}

func (e *Engine) list(n *html.Node, width float64) float64 {
	items := content.ListItems(n)
	inner := width - e.style.ListIndent
	var total float64
	for i, li := range items {
		if i > 0 {
			total += e.style.ItemGap
		}
		total += e.inlineHeight(li, e.style.Body, inner)
	}
	return total
}

func (e *Engine) table(n *html.Node, width float64) float64 {
	rows := tableRows(n)
	if len(rows) == 0 {
		return 0
	}
	cols := 1
	for _, r := range rows {
		cols = max(cols, len(r))
	}
	cellWidth := width/float64(cols) - 2*e.style.CellPadding
	total := 2 * e.style.TableMargin
	for _, r := range rows {
		var tallest float64
		for _, cell := range r {
			tallest = math.Max(tallest, e.inlineHeight(cell, e.style.Body, cellWidth))
		}
		total += tallest + 2*e.style.CellPadding
	}
	return total
}

func (e *Engine) media(n *html.Node, width float64) float64 {
	if v, ok := content.Attr(n, "height"); ok {
		if h, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64); err == nil && h > 0 {
			if w, ok := content.Attr(n, "width"); ok {
				if wv, err := strconv.ParseFloat(strings.TrimSuffix(w, "px"), 64); err == nil && wv > width {
					return h * width / wv
				}
			}
			return h
		}
	}
	return e.style.ImageHeight
}

// lines counts the line boxes s needs at width. Whitespace collapses as in
// normal CSS flow; a single segment wider than the column wraps by width.
func (e *Engine) lines(s string, ts TextStyle, width float64) int {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return 0
	}
	if width <= 0 {
		return 1
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	style := ""
	if ts.Bold {
		style = "B"
	}
	e.pdf.SetFont("Helvetica", style, ts.Size)

	lines := 1
	var lineWidth float64
	state := -1
	rest := s
	for len(rest) > 0 {
		var seg string
		var mustBreak bool
		seg, rest, mustBreak, state = uniseg.FirstLineSegmentInString(rest, state)
		w := e.pdf.GetStringWidth(e.translate(strings.TrimRight(seg, " ")))
		full := e.pdf.GetStringWidth(e.translate(seg))
		if lineWidth > 0 && lineWidth+w > width {
			lines++
			lineWidth = 0
		}
		if lineWidth == 0 && w > width {
			extra := int(math.Ceil(w/width)) - 1
			lines += extra
			lineWidth = w - float64(extra)*width
		} else {
			lineWidth += full
		}
		if mustBreak && len(rest) > 0 {
			lines++
			lineWidth = 0
		}
	}
	return lines
}

func children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

func tableRows(n *html.Node) [][]*html.Node {
	var rows [][]*html.Node
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.ElementNode && c.Data == "tr" {
			var cells []*html.Node
			for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
				if cell.Type == html.ElementNode && (cell.Data == "td" || cell.Data == "th") {
					cells = append(cells, cell)
				}
			}
			rows = append(rows, cells)
			return
		}
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	return rows
}
