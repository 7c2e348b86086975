package content

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"unicode"

	xhtml "golang.org/x/net/html"
)

var (
	ErrNoPricingTable = errors.New("no pricing table in body")
	ErrRowOutOfRange  = errors.New("pricing row out of range")
)

const pricingClass = "pricing"

type PricingRow struct {
	Service     string `json:"service"`
	Description string `json:"description"`
	Cost        string `json:"cost"`
}

// PricingTable is the services/description/cost table of a table page.
type PricingTable struct {
	Rows []PricingRow `json:"rows"`
}

func (t *PricingTable) AddRow() {
	t.Rows = append(t.Rows, PricingRow{Service: "New Service", Description: "Description", Cost: "0"})
}

func (t *PricingTable) RemoveRow(i int) error {
	if i < 0 || i >= len(t.Rows) {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, i)
	}
	t.Rows = append(t.Rows[:i], t.Rows[i+1:]...)
	return nil
}

// Total sums the leading number of every cost cell; "1000/ Month" counts as 1000.
func (t PricingTable) Total() float64 {
	var sum float64
	for _, r := range t.Rows {
		sum += leadingNumber(r.Cost)
	}
	return sum
}

func (t PricingTable) Render() string {
	var sb strings.Builder
	sb.WriteString(`<table class="` + pricingClass + `" style="width: 100%; border-collapse: collapse; border: 1px solid #d4d4d8;">`)
	sb.WriteString(`<thead><tr><th>Services</th><th>Description</th><th>Cost ( AED )</th></tr></thead><tbody>`)
	for _, r := range t.Rows {
		fmt.Fprintf(&sb, `<tr><td>%s</td><td>%s</td><td>%s</td></tr>`,
			html.EscapeString(r.Service), html.EscapeString(r.Description), html.EscapeString(r.Cost))
	}
	fmt.Fprintf(&sb, `</tbody><tfoot><tr><td colspan="2">Total</td><td>%s</td></tr></tfoot></table>`,
		strconv.FormatFloat(t.Total(), 'f', -1, 64))
	return sb.String()
}

// FindPricing locates the pricing table in b and reads its rows.
func FindPricing(b Body) (PricingTable, int, error) {
	for i, n := range b {
		if n.Type != xhtml.ElementNode || n.Data != "table" {
			continue
		}
		if cls, _ := Attr(n, "class"); !strings.Contains(cls, pricingClass) {
			continue
		}
		return readPricing(n), i, nil
	}
	return PricingTable{}, -1, ErrNoPricingTable
}

// EditPricing applies fn to the pricing table of b and returns the body with
// the table re-rendered in place. The total row is recomputed.
func EditPricing(b Body, fn func(*PricingTable) error) (Body, error) {
	t, idx, err := FindPricing(b)
	if err != nil {
		return nil, err
	}
	if err := fn(&t); err != nil {
		return nil, err
	}
	repl, err := Parse(t.Render())
	if err != nil {
		return nil, err
	}
	out := make(Body, 0, len(b)+len(repl))
	out = append(out, b[:idx].Clone()...)
	out = append(out, repl...)
	out = append(out, b[idx+1:].Clone()...)
	return out, nil
}

func readPricing(table *xhtml.Node) PricingTable {
	var t PricingTable
	var walk func(n *xhtml.Node)
	walk = func(n *xhtml.Node) {
		if n.Type == xhtml.ElementNode {
			switch n.Data {
			case "thead", "tfoot":
				return
			case "tr":
				var cells []string
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.Type == xhtml.ElementNode && (c.Data == "td" || c.Data == "th") {
						cells = append(cells, strings.TrimSpace(Body{c}.Text()))
					}
				}
				for len(cells) < 3 {
					cells = append(cells, "")
				}
				t.Rows = append(t.Rows, PricingRow{Service: cells[0], Description: cells[1], Cost: cells[2]})
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)
	return t
}

func leadingNumber(s string) float64 {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) {
		r := rune(s[end])
		if !unicode.IsDigit(r) && r != '.' && r != ',' {
			break
		}
		end++
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s[:end], ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}
