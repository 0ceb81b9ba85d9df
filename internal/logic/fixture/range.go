package fixture

import "math"

// Range maps normalized 0..1 positions onto an axis' mechanical travel in
// degrees. Max may be below Min for axes that turn the other way.
type Range struct {
	Min float64 `json:"min_deg"`
	Max float64 `json:"max_deg"`
}

// Angle returns the angle for fraction fr, clamped to 0..1.
func (r Range) Angle(fr float64) float64 {
	fr = math.Min(math.Max(fr, 0), 1)
	return r.Min + fr*(r.Max-r.Min)
}

// Fraction returns where angle sits in the range, clamped to 0..1.
func (r Range) Fraction(angle float64) float64 {
	span := r.Max - r.Min
	if span == 0 {
		return 0
	}
	return math.Min(math.Max((angle-r.Min)/span, 0), 1)
}
