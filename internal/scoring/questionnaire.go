package scoring

func f64(v float64) *float64 { return &v }

// InsuranceCoverageFractions maps coverage brackets to weight fractions.
var InsuranceCoverageFractions = map[string]float64{
	"Under $1M":  0.2,
	"$1M - $2M":  0.4,
	"$2M - $5M":  0.6,
	"$5M - $10M": 0.8,
	"Over $10M":  1.0,
}

// DefaultVendorQuestionnaire is the standard vendor prequalification form.
func DefaultVendorQuestionnaire() []QuestionSpec {
	return []QuestionSpec{
		{
			ID: "years_in_business", Label: "Years in business", Type: "numeric",
			Weight: f64(10), Required: true,
			Validation: &Bounds{Min: f64(0), Max: f64(200)},
			Ladder: []Threshold{
				{Min: 10, Fraction: 1.0},
				{Min: 5, Fraction: 0.7},
				{Min: 2, Fraction: 0.5},
				{Min: 0, Fraction: 0.3},
			},
		},
		{
			ID: "annual_revenue", Label: "Annual revenue (USD)", Type: "numeric",
			Weight: f64(10), Required: true,
			Validation: &Bounds{Min: f64(0)},
			Ladder: []Threshold{
				{Min: 10_000_000, Fraction: 1.0},
				{Min: 5_000_000, Fraction: 0.7},
				{Min: 1_000_000, Fraction: 0.5},
				{Min: 0, Fraction: 0.3},
			},
		},
		{
			ID: "employee_count", Label: "Number of employees", Type: "numeric",
			Weight: f64(5), Required: true,
			Validation: &Bounds{Min: f64(0)},
			Ladder: []Threshold{
				{Min: 100, Fraction: 1.0},
				{Min: 50, Fraction: 0.7},
				{Min: 10, Fraction: 0.5},
				{Min: 0, Fraction: 0.3},
			},
		},
		{
			ID: "insurance_amount", Label: "General liability coverage", Type: "select",
			Weight: f64(10), Required: true,
			Options:         []string{"Under $1M", "$1M - $2M", "$2M - $5M", "$5M - $10M", "Over $10M"},
			OptionFractions: InsuranceCoverageFractions,
		},
		{
			ID: "safety_program", Label: "Documented safety program", Type: "yesno",
			Weight: f64(10), Required: true,
		},
		{
			ID: "litigation_free", Label: "No litigation in the past 5 years", Type: "yesno",
			Weight: f64(5),
		},
		{
			ID: "industries", Label: "Industries served", Type: "multiselect",
			Weight:  f64(5),
			Options: []string{"Construction", "Healthcare", "Education", "Government", "Technology", "Manufacturing"},
		},
		{
			ID: "certifications", Label: "Certifications", Type: "multiselect",
			Weight:  f64(5),
			Options: []string{"ISO 9001", "ISO 27001", "SOC 2", "MBE", "WBE", "DBE"},
		},
		{
			ID: "references", Label: "Client references", Type: "text",
			Weight: f64(5),
		},
		{
			ID: "w9", Label: "W-9 form", Type: "file",
			Weight: f64(5), Required: true,
		},
	}
}
