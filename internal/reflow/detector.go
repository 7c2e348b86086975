package reflow

import "proposals/internal/content"

// DefaultTolerance absorbs sub-pixel rounding in measured extents.
const DefaultTolerance = 2.0

// Measurer reports the rendered block extent of a body in layout units.
type Measurer interface {
	Measure(b content.Body) float64
}

type Detector struct {
	Measurer  Measurer
	Tolerance float64
}

func NewDetector(m Measurer, tolerance float64) Detector {
	return Detector{Measurer: m, Tolerance: tolerance}
}

// Overflowing reports whether b is taller than capacity plus tolerance.
func (d Detector) Overflowing(b content.Body, capacity float64) bool {
	return d.Measurer.Measure(b) > capacity+d.Tolerance
}

// Fits returns the predicate the splitter probes candidate bodies with.
func (d Detector) Fits(capacity float64) func(content.Body) bool {
	return func(b content.Body) bool {
		return !d.Overflowing(b, capacity)
	}
}
