package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type SubmissionStatus string

const (
	SubmissionDraft       SubmissionStatus = "draft"
	SubmissionSubmitted   SubmissionStatus = "submitted"
	SubmissionUnderReview SubmissionStatus = "under_review"
	SubmissionAwarded     SubmissionStatus = "awarded"
	SubmissionRejected    SubmissionStatus = "rejected"
)

type Rubric struct {
	ID          uuid.UUID   `json:"id"`
	RFPID       string      `json:"rfp_id,omitempty"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Criteria    []Criterion `json:"criteria"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Criterion is a stored rubric criterion. Key is the author-facing id that
// scores and consensus records refer to; it is unique within a rubric.
type Criterion struct {
	RubricID uuid.UUID `json:"rubric_id"`
	Key      string    `json:"key"`
	Label    string    `json:"label"`
	Section  string    `json:"section,omitempty"`
	Weight   float64   `json:"weight"`
	ScaleMin int       `json:"scale_min"`
	ScaleMax int       `json:"scale_max"`
	Position int       `json:"position"`
}

type Submission struct {
	ID       uuid.UUID        `json:"id"`
	RubricID uuid.UUID        `json:"rubric_id"`
	VendorID string           `json:"vendor_id"`
	Title    string           `json:"title"`
	Status   SubmissionStatus `json:"status"`

	// Revision is bumped on every raw score or consensus write. Stored
	// aggregates are current when ScoredRevision == Revision.
	Revision       int `json:"revision"`
	ScoredRevision int `json:"scored_revision"`

	Aggregates *SubmissionAggregates `json:"aggregates,omitempty"`
	ScoredAt   *time.Time            `json:"scored_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubmissionAggregates is the persisted copy of the computed score block.
// It is derived data and can always be recomputed.
type SubmissionAggregates struct {
	TotalScore       float64 `json:"total_score"`
	MaxPossibleScore float64 `json:"max_possible_score"`
	AverageScore     float64 `json:"average_score"`
	ScorePercentage  float64 `json:"score_percentage"`
}

type SubmissionFilter struct {
	RubricID *uuid.UUID
	VendorID string
	Status   *SubmissionStatus
	Limit    int
	Offset   int
}

// RawScore is one evaluator's score for one criterion.
type RawScore struct {
	ID           uuid.UUID `json:"id"`
	SubmissionID uuid.UUID `json:"submission_id"`
	EvaluatorID  string    `json:"evaluator_id"`
	CriterionKey string    `json:"criterion_key"`
	Value        float64   `json:"value"`
	Comment      string    `json:"comment,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Consensus is the reconciled score for one criterion of a submission.
// At most one exists per (submission, criterion).
type Consensus struct {
	SubmissionID uuid.UUID `json:"submission_id"`
	CriterionKey string    `json:"criterion_key"`
	ScoreValue   float64   `json:"score_value"`
	ReconciledBy string    `json:"reconciled_by,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type PrequalResponse struct {
	QuestionID string      `json:"question_id"`
	Value      interface{} `json:"value"`
}

type Prequalification struct {
	ID              uuid.UUID          `json:"id"`
	VendorID        string             `json:"vendor_id"`
	Responses       []PrequalResponse  `json:"responses"`
	PerQuestion     map[string]float64 `json:"per_question_scores"`
	MissingRequired []string           `json:"missing_required,omitempty"`
	TotalPercentage float64            `json:"total_percentage"`
	Tier            string             `json:"tier"`
	Complete        bool               `json:"complete"`
	SubmittedAt     time.Time          `json:"submitted_at"`
}

type Store interface {
	// Rubrics
	CreateRubric(ctx context.Context, r *Rubric) error
	GetRubric(ctx context.Context, id uuid.UUID) (*Rubric, error)
	ListCriteria(ctx context.Context, rubricID uuid.UUID) ([]Criterion, error)

	// Submissions
	CreateSubmission(ctx context.Context, s *Submission) error
	GetSubmission(ctx context.Context, id uuid.UUID) (*Submission, error)
	ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]*Submission, error)
	SaveSubmissionScores(ctx context.Context, id uuid.UUID, agg SubmissionAggregates, revision int) (bool, error)
	ListStaleSubmissions(ctx context.Context, limit int) ([]*Submission, error)

	// Raw scores
	RecordScore(ctx context.Context, s *RawScore) (int, error)
	ListScores(ctx context.Context, submissionID uuid.UUID) ([]*RawScore, error)

	// Consensus
	UpsertConsensus(ctx context.Context, c *Consensus) (int, error)
	DeleteConsensus(ctx context.Context, submissionID uuid.UUID, criterionKey string) (int, error)
	ListConsensus(ctx context.Context, submissionID uuid.UUID) ([]*Consensus, error)

	// Prequalification
	SavePrequalification(ctx context.Context, p *Prequalification) error
	GetPrequalification(ctx context.Context, vendorID string) (*Prequalification, error)

	Close() error
}
