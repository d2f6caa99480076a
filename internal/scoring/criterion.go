package scoring

import (
	"math"
)

const (
	// DefaultWeight applies when a criterion is authored without a weight.
	DefaultWeight = 1.0
	// DefaultScaleMin applies when a criterion is authored without a lower bound.
	DefaultScaleMin = 1
	// DefaultScaleMax applies when a criterion is authored without an upper bound.
	DefaultScaleMax = 5
)

// CriterionSpec is a criterion as authored. Nil pointers mean the field was
// never set; an explicit zero is kept as zero.
type CriterionSpec struct {
	ID       string   `json:"id" yaml:"id"`
	Label    string   `json:"label" yaml:"label"`
	Section  string   `json:"section,omitempty" yaml:"section"`
	Weight   *float64 `json:"weight,omitempty" yaml:"weight"`
	ScaleMin *int     `json:"scale_min,omitempty" yaml:"scale_min"`
	ScaleMax *int     `json:"scale_max,omitempty" yaml:"scale_max"`
}

// Criterion is a fully resolved rubric criterion. Defaults have already been
// applied, so scoring code never re-checks for missing fields.
type Criterion struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	Section  string  `json:"section,omitempty"`
	Weight   float64 `json:"weight"`
	ScaleMin int     `json:"scale_min"`
	ScaleMax int     `json:"scale_max"`
}

// NewCriterion resolves defaults and validates the structural constraints
// of a single criterion.
func NewCriterion(spec CriterionSpec) (Criterion, error) {
	if spec.ID == "" {
		return Criterion{}, invalid("id", "criterion id is required")
	}

	c := Criterion{
		ID:       spec.ID,
		Label:    spec.Label,
		Section:  spec.Section,
		Weight:   DefaultWeight,
		ScaleMin: DefaultScaleMin,
		ScaleMax: DefaultScaleMax,
	}
	if c.Label == "" {
		c.Label = spec.ID
	}

	if spec.Weight != nil {
		w := *spec.Weight
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return Criterion{}, invalid("weight", "criterion %q weight must be finite", spec.ID)
		}
		if w < 0 {
			return Criterion{}, invalid("weight", "criterion %q has negative weight %g", spec.ID, w)
		}
		c.Weight = w
	}

	if spec.ScaleMax != nil {
		if *spec.ScaleMax <= 0 {
			return Criterion{}, invalid("scale_max", "criterion %q scale_max must be positive, got %d", spec.ID, *spec.ScaleMax)
		}
		c.ScaleMax = *spec.ScaleMax
	}

	if spec.ScaleMin != nil {
		if *spec.ScaleMin < 0 {
			return Criterion{}, invalid("scale_min", "criterion %q scale_min must not be negative, got %d", spec.ID, *spec.ScaleMin)
		}
		c.ScaleMin = *spec.ScaleMin
	}

	if c.ScaleMax < c.ScaleMin {
		return Criterion{}, invalid("scale_max", "criterion %q scale_max %d is below scale_min %d", spec.ID, c.ScaleMax, c.ScaleMin)
	}

	return c, nil
}
