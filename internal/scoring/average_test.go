package scoring

import "testing"

func TestAverageScore(t *testing.T) {
	if got := AverageScore(nil); got != 0 {
		t.Errorf("expected 0 for no scores, got %f", got)
	}

	scores := []RawScore{
		{EvaluatorID: "e1", CriterionID: "a", Value: 3},
		{EvaluatorID: "e2", CriterionID: "a", Value: 4},
		{EvaluatorID: "e1", CriterionID: "b", Value: 5},
		{EvaluatorID: "e2", CriterionID: "b", Value: 2},
	}
	if got := AverageScore(scores); got != 3.5 {
		t.Errorf("expected 3.5, got %f", got)
	}
}

func TestAverageScoreDoesNotClamp(t *testing.T) {
	scores := []RawScore{{Value: 6}, {Value: 4}}
	if got := AverageScore(scores); got != 5 {
		t.Errorf("out-of-range values must pass through unchanged, got %f", got)
	}
}
