package scoring

import "math"

const (
	// TargetWeightTotal is the sum rubric weights are expected to reach.
	TargetWeightTotal = 100.0
	// WeightTolerance absorbs rounding from slider-based weight editors.
	WeightTolerance = 0.05
)

// WeightReport describes how far a rubric's weights are from the target.
type WeightReport struct {
	Total           float64 `json:"total_weight"`
	Target          float64 `json:"target"`
	Deviation       float64 `json:"deviation"`
	WithinTolerance bool    `json:"within_tolerance"`
	CriteriaCount   int     `json:"criteria_count"`
}

// WeightValidator checks rubric weight sums. An out-of-tolerance rubric is a
// warning for the author; scoring keeps working because percentages are
// normalized by the actual maximum, not by the target.
type WeightValidator struct {
	Target    float64
	Tolerance float64
}

// DefaultWeightValidator returns a validator for weights summing to 100 ± 0.05.
func DefaultWeightValidator() WeightValidator {
	return WeightValidator{Target: TargetWeightTotal, Tolerance: WeightTolerance}
}

// Check sums the weights and reports the deviation from the target.
// An empty rubric is never within tolerance.
func (v WeightValidator) Check(criteria []Criterion) WeightReport {
	var total float64
	for _, c := range criteria {
		total += c.Weight
	}
	report := WeightReport{
		Total:         total,
		Target:        v.Target,
		Deviation:     total - v.Target,
		CriteriaCount: len(criteria),
	}
	report.WithinTolerance = len(criteria) > 0 && math.Abs(report.Deviation) < v.Tolerance
	return report
}

// ValidateWeights sums criterion weights and reports whether the total is
// within WeightTolerance of TargetWeightTotal.
func ValidateWeights(criteria []Criterion) (totalWeight float64, withinTolerance bool) {
	r := DefaultWeightValidator().Check(criteria)
	return r.Total, r.WithinTolerance
}
