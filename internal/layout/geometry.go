package layout

// Geometry describes an A4 page canvas in CSS pixels (96 per inch) and the
// chrome around its editable content area.
type Geometry struct {
	PageWidth              float64 `yaml:"pageWidth" json:"pageWidth"`
	PageHeight             float64 `yaml:"pageHeight" json:"pageHeight"`
	FooterHeight           float64 `yaml:"footerHeight" json:"footerHeight"`
	PaddingX               float64 `yaml:"paddingX" json:"paddingX"`
	PaddingTop             float64 `yaml:"paddingTop" json:"paddingTop"`
	ContinuationPaddingTop float64 `yaml:"continuationPaddingTop" json:"continuationPaddingTop"`
	PaddingBottom          float64 `yaml:"paddingBottom" json:"paddingBottom"`
	EditorPadding          float64 `yaml:"editorPadding" json:"editorPadding"`
}

const pxPerMM = 96 / 25.4

// A4 is 210mm x 297mm with a 20mm footer. Regular content pages carry the
// full letterhead; continuation pages use a slimmer header.
func A4() Geometry {
	return Geometry{
		PageWidth:              210 * pxPerMM,
		PageHeight:             297 * pxPerMM,
		FooterHeight:           20 * pxPerMM,
		PaddingX:               48,
		PaddingTop:             128,
		ContinuationPaddingTop: 96,
		PaddingBottom:          128,
		EditorPadding:          16,
	}
}

func (g Geometry) ContentWidth() float64 {
	return g.PageWidth - 2*g.PaddingX - 2*g.EditorPadding
}

// Capacity is the usable content height of a page.
func (g Geometry) Capacity(continuation bool) float64 {
	top := g.PaddingTop
	if continuation {
		top = g.ContinuationPaddingTop
	}
	return g.PageHeight - g.FooterHeight - top - g.PaddingBottom - 2*g.EditorPadding
}
