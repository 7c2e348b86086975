package content

import (
	"fmt"
	"strings"

	"proposals/internal/domain"
)

const cellStyle = `border: 1px solid #e4e4e7; padding: 0.5rem;`

// DefaultBody returns the starter markup for a freshly added page.
func DefaultBody(kind domain.PageKind) string {
	switch kind {
	case domain.PageCover:
		return `<h1>[DIGITAL MARKETING / WEBSITE DEVELOPMENT / SEO] SOLUTIONS</h1>
<p>Proposal prepared for:</p>
<h2>[ Client Name ]</h2>
<p>This proposal outlines the scope, timeline, process and commercial terms for the project.</p>`
	case domain.PageContent:
		return `<h2>Scope of Work</h2>
<p>The purpose of this project is to...</p>
<br/>
<h2>Project Objectives:</h2>
<ul>
<li>Objective one</li>
<li>Objective two</li>
</ul>`
	case domain.PageTable:
		return `<h2>Monthly Package</h2>` + PricingTable{Rows: []PricingRow{
			{Service: "Website Development", Description: "Design and setup of a responsive website", Cost: "999"},
			{Service: "Social Media", Description: "Monthly management and content creation", Cost: "1000/ Month"},
			{Service: "SEO", Description: "Search engine optimization", Cost: "1000/ Month"},
		}}.Render() + `<h3>Payment Terms</h3>
<ul>
<li>50% upon project initiation</li>
<li>25% upon design approval</li>
</ul>`
	case domain.PageAcceptance:
		return `<h2>Acceptance</h2>
<p>If the above proposal meets your approval, please confirm by signing below or replying via email.</p>
<p>This project will strengthen the client's digital presence and serve as a solid foundation for growth.</p>
<p>We look forward to partnering with you on this project.</p>`
	}
	return "<p><br/></p>"
}

// TableMarkup builds an empty bordered rows x cols table followed by an
// empty paragraph so the caret has somewhere to land.
func TableMarkup(rows, cols int) string {
	var sb strings.Builder
	sb.WriteString(`<table style="width: 100%; table-layout: fixed; border-collapse: collapse; border: 1px solid #e4e4e7; margin: 1rem 0;"><tbody>`)
	for r := 0; r < rows; r++ {
		sb.WriteString("<tr>")
		for c := 0; c < cols; c++ {
			sb.WriteString(`<td style="` + cellStyle + `">&nbsp;</td>`)
		}
		sb.WriteString("</tr>")
	}
	sb.WriteString("</tbody></table><p><br/></p>")
	return sb.String()
}

// PlanTableMarkup builds a titled three-column services table. The plan
// letter continues after the last plan already present in b.
func PlanTableMarkup(b Body) string {
	letter := nextPlanLetter(b)
	var sb strings.Builder
	fmt.Fprintf(&sb, `<h3>Plan %c</h3>`, letter)
	sb.WriteString(`<table style="width: 100%; table-layout: fixed; border-collapse: collapse; border: 1px solid #e4e4e7; margin-bottom: 1rem;">`)
	sb.WriteString(`<thead><tr style="background-color: #f3f4f6;">`)
	for _, h := range []string{"Services", "Description", "Cost ( AED )"} {
		sb.WriteString(`<th style="` + cellStyle + ` text-align: left;">` + h + `</th>`)
	}
	sb.WriteString(`</tr></thead><tbody>`)
	for r := 0; r < 3; r++ {
		sb.WriteString("<tr>")
		for c := 0; c < 3; c++ {
			sb.WriteString(`<td style="` + cellStyle + `">&nbsp;</td>`)
		}
		sb.WriteString("</tr>")
	}
	sb.WriteString("</tbody></table><p><br/></p>")
	return sb.String()
}

func nextPlanLetter(b Body) rune {
	next := 'A'
	for _, n := range b {
		if HeadingLevel(n) == 0 {
			continue
		}
		t := strings.TrimSpace(Body{n}.Text())
		if len(t) == 6 && strings.HasPrefix(t, "Plan ") {
			if c := rune(t[5]); c >= next && c < 'Z' {
				next = c + 1
			}
		}
	}
	return next
}
