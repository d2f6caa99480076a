package scoring

import (
	"math"
	"sort"
)

// Threshold is one band of a numeric ladder: values at or above Min earn
// Fraction of the question weight.
type Threshold struct {
	Min      float64 `json:"min" yaml:"min"`
	Fraction float64 `json:"fraction" yaml:"fraction"`
}

// Ladder is a step function over descending bands. Thresholds are data so
// each question's ladder can be tested on its own.
type Ladder []Threshold

// NewLadder validates the bands and orders them by descending Min.
func NewLadder(bands []Threshold) (Ladder, error) {
	if len(bands) == 0 {
		return nil, nil
	}
	l := make(Ladder, len(bands))
	copy(l, bands)
	sort.SliceStable(l, func(i, j int) bool { return l[i].Min > l[j].Min })

	for i, t := range l {
		if math.IsNaN(t.Min) || math.IsInf(t.Min, 0) {
			return nil, invalid("ladder", "threshold min must be finite")
		}
		if t.Fraction < 0 || t.Fraction > 1 || math.IsNaN(t.Fraction) {
			return nil, invalid("ladder", "fraction %g for threshold %g is outside [0, 1]", t.Fraction, t.Min)
		}
		if i > 0 && t.Min == l[i-1].Min {
			return nil, invalid("ladder", "duplicate threshold %g", t.Min)
		}
	}
	return l, nil
}

// Fraction returns the fraction of the first band v reaches. Values below
// the lowest band still earn that band's fraction; there is no zero tier
// under the floor.
func (l Ladder) Fraction(v float64) float64 {
	if len(l) == 0 {
		return 0
	}
	i := sort.Search(len(l), func(i int) bool { return v >= l[i].Min })
	if i == len(l) {
		return l[len(l)-1].Fraction
	}
	return l[i].Fraction
}
