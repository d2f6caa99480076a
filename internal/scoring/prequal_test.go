package scoring

import (
	"encoding/json"
	"math"
	"testing"
)

func questions(t *testing.T, specs ...QuestionSpec) []Question {
	t.Helper()
	set, err := NewQuestionSet(specs)
	if err != nil {
		t.Fatalf("build question set: %v", err)
	}
	return set.All()
}

func yearsQuestion() QuestionSpec {
	return QuestionSpec{
		ID: "years_in_business", Type: "numeric", Weight: float64Ptr(10), Required: true,
		Ladder: []Threshold{{Min: 10, Fraction: 1}, {Min: 5, Fraction: 0.7}, {Min: 2, Fraction: 0.5}, {Min: 0, Fraction: 0.3}},
	}
}

func insuranceQuestion() QuestionSpec {
	return QuestionSpec{
		ID: "insurance_amount", Type: "select", Weight: float64Ptr(10), Required: true,
		OptionFractions: InsuranceCoverageFractions,
	}
}

func TestScoreResponsesVendorExample(t *testing.T) {
	qs := questions(t, yearsQuestion(), insuranceQuestion())
	per, total := ScoreResponses([]Response{
		{QuestionID: "years_in_business", Value: 12},
		{QuestionID: "insurance_amount", Value: "$2M - $5M"},
	}, qs)

	if per["years_in_business"] != 10 {
		t.Errorf("expected years score 10, got %f", per["years_in_business"])
	}
	if per["insurance_amount"] != 6 {
		t.Errorf("expected insurance score 6, got %f", per["insurance_amount"])
	}
	if total != 80 {
		t.Errorf("expected 80%%, got %f", total)
	}
}

func TestScoreResponsesEmpty(t *testing.T) {
	per, total := ScoreResponses(nil, nil)
	if len(per) != 0 {
		t.Errorf("expected no per-question scores, got %v", per)
	}
	if total != 0 {
		t.Errorf("expected 0%%, got %f", total)
	}
}

func TestScoreResponsesZeroTotalWeight(t *testing.T) {
	qs := questions(t, QuestionSpec{ID: "q", Type: "yesno", Weight: float64Ptr(0)})
	_, total := ScoreResponses([]Response{{QuestionID: "q", Value: true}}, qs)
	if total != 0 {
		t.Errorf("expected 0%% with zero total weight, got %f", total)
	}
}

func TestScoreQuestionRules(t *testing.T) {
	tests := []struct {
		name  string
		spec  QuestionSpec
		value interface{}
		want  float64
	}{
		{"numeric top tier", yearsQuestion(), 10, 10},
		{"numeric string", yearsQuestion(), "6 years", 7},
		{"numeric below floor", yearsQuestion(), -1, 3},
		{"numeric json number", yearsQuestion(), json.Number("3"), 5},
		{"numeric unparseable", yearsQuestion(), "a while", 0},
		{"numeric infinity string", yearsQuestion(), "Infinity", 0},
		{"numeric nan string", yearsQuestion(), "NaN", 0},
		{"numeric overflow string", yearsQuestion(), "1e400", 0},
		{"numeric infinity float", yearsQuestion(), math.Inf(1), 0},
		{"numeric without ladder", QuestionSpec{ID: "n", Type: "numeric", Weight: float64Ptr(4)}, 1, 4},
		{"revenue with currency", QuestionSpec{
			ID: "rev", Type: "numeric", Weight: float64Ptr(10),
			Ladder: []Threshold{{Min: 1_000_000, Fraction: 1}, {Min: 0, Fraction: 0.3}},
		}, "$1,250,000", 10},
		{"yes bool", QuestionSpec{ID: "y", Type: "yesno", Weight: float64Ptr(5)}, true, 5},
		{"yes string", QuestionSpec{ID: "y", Type: "yesno", Weight: float64Ptr(5)}, "Yes", 5},
		{"no bool", QuestionSpec{ID: "y", Type: "yesno", Weight: float64Ptr(5)}, false, 0},
		{"no string", QuestionSpec{ID: "y", Type: "yesno", Weight: float64Ptr(5)}, "no", 0},
		{"select mapped", insuranceQuestion(), "Over $10M", 10},
		{"select unmapped", insuranceQuestion(), "$3", 0},
		{"select presence", QuestionSpec{ID: "s", Type: "select", Weight: float64Ptr(3)}, "anything", 3},
		{"multiselect presence", QuestionSpec{ID: "m", Type: "multiselect", Weight: float64Ptr(5)}, []interface{}{"Healthcare"}, 5},
		{"multiselect best mapped", QuestionSpec{
			ID: "m", Type: "multiselect", Weight: float64Ptr(10),
			OptionFractions: map[string]float64{"ISO 9001": 0.5, "SOC 2": 0.8},
		}, []string{"ISO 9001", "SOC 2", "other"}, 8},
		{"text", QuestionSpec{ID: "t", Type: "text", Weight: float64Ptr(2)}, "Acme Corp, 555-0100", 2},
		{"file", QuestionSpec{ID: "f", Type: "file", Weight: float64Ptr(2)}, "uploads/w9.pdf", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := NewQuestion(tt.spec)
			if err != nil {
				t.Fatalf("build question: %v", err)
			}
			r := ScoreQuestion(q, tt.value)
			if r.Score != tt.want {
				t.Errorf("expected score %v, got %v (%s)", tt.want, r.Score, r.Reason)
			}
			if !r.Answered {
				t.Error("expected answered=true")
			}
			if r.Score < 0 || r.Score > q.Weight {
				t.Errorf("score %v outside [0, %v]", r.Score, q.Weight)
			}
		})
	}
}

func TestUnansweredRequiredIsFlagged(t *testing.T) {
	qs := questions(t,
		yearsQuestion(),
		QuestionSpec{ID: "references", Type: "text", Weight: float64Ptr(5)},
		QuestionSpec{ID: "industries", Type: "multiselect", Weight: float64Ptr(5), Required: true},
	)
	r := EvaluateResponses([]Response{
		{QuestionID: "references", Value: "  "},
		{QuestionID: "industries", Value: []interface{}{}},
	}, qs)

	if r.Complete {
		t.Error("expected incomplete questionnaire")
	}
	if len(r.MissingRequired) != 2 {
		t.Fatalf("expected 2 missing required, got %v", r.MissingRequired)
	}

	for _, d := range r.Details {
		if d.Answered {
			t.Errorf("%s: expected unanswered", d.QuestionID)
		}
		if d.Score != 0 {
			t.Errorf("%s: expected score 0, got %f", d.QuestionID, d.Score)
		}
		if d.QuestionID == "references" && d.MissingRequired {
			t.Error("optional question must not be flagged")
		}
		if d.QuestionID == "years_in_business" && !d.MissingRequired {
			t.Error("required question must be flagged")
		}
	}
}

func TestAnsweredZeroIsNotMissing(t *testing.T) {
	qs := questions(t, QuestionSpec{ID: "safety", Type: "yesno", Required: true})
	r := EvaluateResponses([]Response{{QuestionID: "safety", Value: "no"}}, qs)
	if !r.Complete {
		t.Error("an answered required question scoring 0 is still complete")
	}
	if !r.Details[0].Answered || r.Details[0].MissingRequired {
		t.Errorf("unexpected detail: %+v", r.Details[0])
	}
}

func TestEvaluateResponsesLastAnswerWins(t *testing.T) {
	qs := questions(t, yearsQuestion())
	r := EvaluateResponses([]Response{
		{QuestionID: "years_in_business", Value: 1},
		{QuestionID: "years_in_business", Value: 11},
		{QuestionID: "unknown", Value: 5},
	}, qs)
	if r.PerQuestion["years_in_business"] != 10 {
		t.Errorf("expected latest answer to be scored, got %f", r.PerQuestion["years_in_business"])
	}
	if _, ok := r.PerQuestion["unknown"]; ok {
		t.Error("responses to unknown questions must be ignored")
	}
}

func TestTotalPercentageRoundsHalfUp(t *testing.T) {
	// 1 of 8 = 12.5% -> 13
	qs := questions(t,
		QuestionSpec{ID: "a", Type: "yesno", Weight: float64Ptr(1)},
		QuestionSpec{ID: "b", Type: "yesno", Weight: float64Ptr(7)},
	)
	_, total := ScoreResponses([]Response{{QuestionID: "a", Value: true}}, qs)
	if total != 13 {
		t.Errorf("expected 13, got %f", total)
	}
}

func TestClassifyTier(t *testing.T) {
	tests := []struct {
		pct  float64
		want Tier
	}{
		{100, TierExcellent},
		{80, TierExcellent},
		{79, TierGood},
		{60, TierGood},
		{59, TierFair},
		{40, TierFair},
		{39, TierNeedsImprovement},
		{0, TierNeedsImprovement},
	}
	for _, tt := range tests {
		if got := ClassifyTier(tt.pct); got != tt.want {
			t.Errorf("ClassifyTier(%v) = %s, want %s", tt.pct, got, tt.want)
		}
	}
}

func TestNewQuestionRejects(t *testing.T) {
	tests := []struct {
		name string
		spec QuestionSpec
	}{
		{"unknown type", QuestionSpec{ID: "q", Type: "slider"}},
		{"missing id", QuestionSpec{Type: "text"}},
		{"negative weight", QuestionSpec{ID: "q", Type: "text", Weight: float64Ptr(-2)}},
		{"ladder on select", QuestionSpec{ID: "q", Type: "select", Ladder: []Threshold{{Min: 0, Fraction: 1}}}},
		{"fractions on numeric", QuestionSpec{ID: "q", Type: "numeric", OptionFractions: map[string]float64{"a": 1}}},
		{"fraction above one", QuestionSpec{ID: "q", Type: "select", OptionFractions: map[string]float64{"a": 2}}},
		{"bad ladder", QuestionSpec{ID: "q", Type: "numeric", Ladder: []Threshold{{Min: 0, Fraction: 3}}}},
		{"inverted bounds", QuestionSpec{ID: "q", Type: "numeric", Validation: &Bounds{Min: float64Ptr(5), Max: float64Ptr(1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewQuestion(tt.spec); !IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestNewQuestionSetDuplicate(t *testing.T) {
	_, err := NewQuestionSet([]QuestionSpec{{ID: "a", Type: "text"}, {ID: "a", Type: "yesno"}})
	if !IsValidation(err) {
		t.Errorf("expected duplicate rejection, got %v", err)
	}
}

func TestDefaultVendorQuestionnaire(t *testing.T) {
	set, err := NewQuestionSet(DefaultVendorQuestionnaire())
	if err != nil {
		t.Fatalf("default questionnaire invalid: %v", err)
	}
	if _, ok := set.Get("years_in_business"); !ok {
		t.Error("expected years_in_business in default questionnaire")
	}

	r := EvaluateResponses([]Response{
		{QuestionID: "years_in_business", Value: 15},
		{QuestionID: "annual_revenue", Value: "$12,000,000"},
		{QuestionID: "employee_count", Value: 150},
		{QuestionID: "insurance_amount", Value: "Over $10M"},
		{QuestionID: "safety_program", Value: "yes"},
		{QuestionID: "litigation_free", Value: true},
		{QuestionID: "industries", Value: []string{"Construction"}},
		{QuestionID: "certifications", Value: []string{"ISO 9001"}},
		{QuestionID: "references", Value: "Three references attached"},
		{QuestionID: "w9", Value: "w9.pdf"},
	}, set.All())
	if r.TotalPercentage != 100 || r.Tier != TierExcellent || !r.Complete {
		t.Errorf("expected a perfect, complete, excellent result, got %+v", r)
	}
}

func TestQuestionCheckValue(t *testing.T) {
	spec := yearsQuestion()
	spec.Validation = &Bounds{Min: float64Ptr(0), Max: float64Ptr(200)}
	q, err := NewQuestion(spec)
	if err != nil {
		t.Fatalf("build question: %v", err)
	}

	tests := []struct {
		name  string
		value interface{}
		ok    bool
	}{
		{"in range", 12, true},
		{"in range string", "6 years", true},
		{"lower bound", 0, true},
		{"upper bound", 200.0, true},
		{"unanswered", nil, true},
		{"blank", "  ", true},
		{"below minimum", -1, false},
		{"above maximum", "500 years", false},
		{"infinity", "Infinity", false},
		{"nan", "NaN", false},
		{"overflow", "1e400", false},
		{"not a number", "a while", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := q.CheckValue(tt.value)
			if tt.ok && err != nil {
				t.Errorf("expected %v to pass, got %v", tt.value, err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatalf("expected %v to be rejected", tt.value)
				}
				if !IsValidation(err) {
					t.Errorf("expected a ValidationError, got %T", err)
				}
			}
		})
	}
}

func TestQuestionCheckValueIgnoresOtherTypes(t *testing.T) {
	q, err := NewQuestion(QuestionSpec{ID: "t", Type: "text"})
	if err != nil {
		t.Fatalf("build question: %v", err)
	}
	if err := q.CheckValue("Infinity"); err != nil {
		t.Errorf("text answers are free-form, got %v", err)
	}
}
