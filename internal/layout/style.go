package layout

// TextStyle is a font size and line box height, both in px.
type TextStyle struct {
	Size       float64 `yaml:"size" json:"size"`
	LineHeight float64 `yaml:"lineHeight" json:"lineHeight"`
	Bold       bool    `yaml:"bold" json:"bold"`
}

// Style holds the typographic metrics the estimator lays content out with.
// The defaults mirror the editor's stylesheet.
type Style struct {
	Body        TextStyle    `yaml:"body" json:"body"`
	Headings    [3]TextStyle `yaml:"headings" json:"headings"`
	BlockGap    float64      `yaml:"blockGap" json:"blockGap"`
	ListIndent  float64      `yaml:"listIndent" json:"listIndent"`
	ItemGap     float64      `yaml:"itemGap" json:"itemGap"`
	CellPadding float64      `yaml:"cellPadding" json:"cellPadding"`
	TableMargin float64      `yaml:"tableMargin" json:"tableMargin"`
	RuleHeight  float64      `yaml:"ruleHeight" json:"ruleHeight"`
	ImageHeight float64      `yaml:"imageHeight" json:"imageHeight"`
}

func DefaultStyle() Style {
	return Style{
		Body: TextStyle{Size: 16, LineHeight: 26},
		Headings: [3]TextStyle{
			{Size: 30, LineHeight: 36, Bold: true},
			{Size: 20, LineHeight: 28, Bold: true},
			{Size: 18, LineHeight: 28, Bold: true},
		},
		BlockGap:    16,
		ListIndent:  20,
		ItemGap:     4,
		CellPadding: 8,
		TableMargin: 16,
		RuleHeight:  17,
		ImageHeight: 150,
	}
}

func (s Style) heading(level int) TextStyle {
	if level < 1 {
		return s.Body
	}
	if level > len(s.Headings) {
		h := s.Headings[len(s.Headings)-1]
		h.Size = s.Body.Size
		h.LineHeight = s.Body.LineHeight
		return h
	}
	return s.Headings[level-1]
}
