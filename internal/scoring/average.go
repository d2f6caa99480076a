package scoring

// RawScore is one evaluator's raw score for one criterion of a submission.
type RawScore struct {
	SubmissionID string  `json:"submission_id"`
	EvaluatorID  string  `json:"evaluator_id"`
	CriterionID  string  `json:"criterion_id"`
	Value        float64 `json:"value"`
}

// AverageScore is the plain mean of every raw score, ignoring criterion and
// evaluator. Values are not clamped to the criterion scale.
func AverageScore(scores []RawScore) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s.Value
	}
	return sum / float64(len(scores))
}
