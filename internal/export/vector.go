package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/net/html"

	"proposals/internal/content"
	"proposals/internal/domain"
	"proposals/internal/layout"
)

// Vector draws the settled document with core PDF fonts. It serves headless
// exports where no page images exist. Pages map 1:1 onto PDF pages; the
// reflow engine has already sized each page's content to fit.
func Vector(w io.Writer, pages []domain.Page, geo layout.Geometry, st layout.Style, meta Meta) error {
	if len(pages) == 0 {
		return ErrNoPages
	}
	pdf := newPDF(meta)
	r := &vectorRenderer{
		pdf:   pdf,
		tr:    pdf.UnicodeTranslatorFromDescriptor(""),
		geo:   geo,
		style: st,
		left:  (geo.PaddingX + geo.EditorPadding) * mmPerPx,
		width: geo.ContentWidth() * mmPerPx,
	}
	for i, p := range pages {
		body, err := content.Parse(p.Body)
		if err != nil {
			return fmt.Errorf("page %d: %w", i+1, err)
		}
		pdf.AddPage()
		r.chrome()
		top := geo.PaddingTop
		if p.IsContinuation {
			top = geo.ContinuationPaddingTop
		}
		pdf.SetLeftMargin(r.left)
		pdf.SetRightMargin(r.left)
		pdf.SetXY(r.left, (top+geo.EditorPadding)*mmPerPx)
		r.blocks(body, r.left, r.width)
		if pdf.Err() {
			return fmt.Errorf("page %d: %w", i+1, pdf.Error())
		}
	}
	return pdf.Output(w)
}

type vectorRenderer struct {
	pdf   *fpdf.Fpdf
	tr    func(string) string
	geo   layout.Geometry
	style layout.Style
	left  float64
	width float64
}

// chrome paints the letterhead bar and the footer band.
func (r *vectorRenderer) chrome() {
	r.pdf.SetFillColor(255, 75, 31)
	r.pdf.Rect(0, 0, pageWidthMM, 2, "F")
	r.pdf.SetFillColor(26, 26, 26)
	footer := r.geo.FooterHeight * mmPerPx
	r.pdf.Rect(0, pageHeightMM-footer, pageWidthMM, footer, "F")
	r.pdf.SetTextColor(24, 24, 27)
}

func (r *vectorRenderer) font(ts layout.TextStyle) float64 {
	style := ""
	if ts.Bold {
		style = "B"
	}
	r.pdf.SetFont("Helvetica", style, ts.Size*0.75)
	return ts.LineHeight * mmPerPx
}

func (r *vectorRenderer) gap() {
	r.pdf.Ln(r.style.BlockGap * mmPerPx)
}

func (r *vectorRenderer) blocks(nodes []*html.Node, x, width float64) {
	for _, n := range nodes {
		if content.IsWhitespace(n) {
			continue
		}
		r.pdf.SetX(x)
		switch content.Classify(n) {
		case content.KindHeading:
			lh := r.font(headingStyle(r.style, content.HeadingLevel(n)))
			r.pdf.MultiCell(width, lh, r.tr(inlineText(n)), "", "L", false)
		case content.KindParagraph, content.KindText, content.KindInline:
			lh := r.font(r.style.Body)
			r.pdf.MultiCell(width, lh, r.tr(inlineText(n)), "", "L", false)
		case content.KindList:
			r.list(n, x, width)
		case content.KindTable:
			r.table(n, x, width)
		case content.KindBreak:
			r.pdf.Ln(r.style.Body.LineHeight * mmPerPx)
			continue
		case content.KindRule:
			y := r.pdf.GetY() + r.style.RuleHeight*mmPerPx/2
			r.pdf.SetDrawColor(212, 212, 216)
			r.pdf.Line(x, y, x+width, y)
			r.pdf.Ln(r.style.RuleHeight * mmPerPx)
		case content.KindMedia:
			h := r.style.ImageHeight
			if v, ok := content.Attr(n, "height"); ok {
				if f, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64); err == nil {
					h = f
				}
			}
			r.pdf.SetDrawColor(212, 212, 216)
			r.pdf.Rect(x, r.pdf.GetY(), width, h*mmPerPx, "D")
			r.pdf.Ln(h * mmPerPx)
		case content.KindBlock:
			var children []*html.Node
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				children = append(children, c)
			}
			r.blocks(children, x, width)
			continue
		}
		r.gap()
	}
}

func (r *vectorRenderer) list(n *html.Node, x, width float64) {
	lh := r.font(r.style.Body)
	indent := r.style.ListIndent * mmPerPx
	for i, li := range content.ListItems(n) {
		marker := "•"
		if n.Data == "ol" {
			marker = strconv.Itoa(i+1) + "."
		}
		y := r.pdf.GetY()
		r.pdf.SetXY(x, y)
		r.pdf.CellFormat(indent, lh, r.tr(marker), "", 0, "L", false, 0, "")
		r.pdf.SetXY(x+indent, y)
		r.pdf.MultiCell(width-indent, lh, r.tr(inlineText(li)), "", "L", false)
		r.pdf.Ln(r.style.ItemGap * mmPerPx)
	}
}

func (r *vectorRenderer) table(n *html.Node, x, width float64) {
	rows := tableCells(n)
	if len(rows) == 0 {
		return
	}
	cols := 1
	for _, row := range rows {
		cols = max(cols, len(row))
	}
	pad := r.style.CellPadding * mmPerPx
	colW := width / float64(cols)
	r.pdf.Ln(r.style.TableMargin * mmPerPx)
	r.pdf.SetDrawColor(228, 228, 231)

	for _, row := range rows {
		lh := r.font(r.style.Body)
		lines := 1
		texts := make([]string, len(row))
		for i, cell := range row {
			texts[i] = r.tr(inlineText(cell))
			lines = max(lines, len(r.pdf.SplitText(texts[i], colW-2*pad)))
		}
		rowH := float64(lines)*lh + 2*pad
		y := r.pdf.GetY()
		for i := 0; i < cols; i++ {
			cx := x + float64(i)*colW
			r.pdf.Rect(cx, y, colW, rowH, "D")
			if i < len(texts) {
				r.pdf.SetXY(cx+pad, y+pad)
				r.pdf.MultiCell(colW-2*pad, lh, texts[i], "", "L", false)
			}
		}
		r.pdf.SetXY(x, y+rowH)
	}
	r.pdf.Ln(r.style.TableMargin * mmPerPx)
}

func headingStyle(st layout.Style, level int) layout.TextStyle {
	if level >= 1 && level <= len(st.Headings) {
		return st.Headings[level-1]
	}
	return layout.TextStyle{Size: st.Body.Size, LineHeight: st.Body.LineHeight, Bold: true}
}

// inlineText flattens inline content, collapsing whitespace and turning
// <br> into line breaks.
func inlineText(n *html.Node) string {
	var lines []string
	var cur strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		switch {
		case c.Type == html.TextNode:
			cur.WriteString(c.Data)
			cur.WriteByte(' ')
		case c.Type == html.ElementNode && c.Data == "br":
			lines = append(lines, cur.String())
			cur.Reset()
		default:
			for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
				walk(ch)
			}
		}
	}
	walk(n)
	lines = append(lines, cur.String())
	for i, l := range lines {
		lines[i] = strings.Join(strings.Fields(l), " ")
	}
	return strings.Join(lines, "\n")
}

func tableCells(n *html.Node) [][]*html.Node {
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
