package hermes

import "time"

// SubmissionScoredEvent is published whenever a submission's computed block
// is refreshed.
type SubmissionScoredEvent struct {
	SubmissionID     string    `json:"submission_id"`
	RubricID         string    `json:"rubric_id"`
	VendorID         string    `json:"vendor_id"`
	Revision         int       `json:"revision"`
	TotalScore       float64   `json:"total_score"`
	MaxPossibleScore float64   `json:"max_possible_score"`
	AverageScore     float64   `json:"average_score"`
	ScorePercentage  float64   `json:"score_percentage"`
	ScoredAt         time.Time `json:"scored_at"`
}

type ScoreRecordedEvent struct {
	SubmissionID string  `json:"submission_id"`
	EvaluatorID  string  `json:"evaluator_id"`
	CriterionID  string  `json:"criterion_id"`
	Value        float64 `json:"value"`
	Revision     int     `json:"revision"`
}

type ConsensusUpdatedEvent struct {
	SubmissionID string  `json:"submission_id"`
	CriterionID  string  `json:"criterion_id"`
	ScoreValue   float64 `json:"score_value"`
	ReconciledBy string  `json:"reconciled_by,omitempty"`
	Revision     int     `json:"revision"`
	Removed      bool    `json:"removed,omitempty"`
}

type RubricWeightWarningEvent struct {
	RubricID    string  `json:"rubric_id"`
	TotalWeight float64 `json:"total_weight"`
	Target      float64 `json:"target"`
	Deviation   float64 `json:"deviation"`
}

type PrequalificationScoredEvent struct {
	VendorID        string    `json:"vendor_id"`
	TotalPercentage float64   `json:"total_percentage"`
	Tier            string    `json:"tier"`
	Complete        bool      `json:"complete"`
	MissingRequired []string  `json:"missing_required,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}
