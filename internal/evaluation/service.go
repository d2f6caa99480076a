package evaluation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Tally/internal/cache"
	"github.com/MikeSquared-Agency/Tally/internal/config"
	"github.com/MikeSquared-Agency/Tally/internal/hermes"
	"github.com/MikeSquared-Agency/Tally/internal/metrics"
	"github.com/MikeSquared-Agency/Tally/internal/scoring"
	"github.com/MikeSquared-Agency/Tally/internal/store"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalid          = errors.New("invalid input")
	ErrUnknownCriterion = errors.New("criterion is not part of the rubric")
)

// Service computes submission scores and prequalification results on top of
// the store. Computations are pure; the service adds persistence, the score
// memo, events and metrics around them.
type Service struct {
	store     store.Store
	cache     cache.Cache
	hermes    hermes.Client
	validator scoring.WeightValidator
	questions *scoring.QuestionSet
	tiers     scoring.TierBands
	logger    *slog.Logger
}

// New builds a service. A nil cache disables memoization and a nil hermes
// client disables events.
func New(s store.Store, c cache.Cache, h hermes.Client, questions *scoring.QuestionSet, cfg *config.Config, logger *slog.Logger) *Service {
	if c == nil {
		c = cache.NopCache{}
	}
	return &Service{
		store:  s,
		cache:  c,
		hermes: h,
		validator: scoring.WeightValidator{
			Target:    cfg.Scoring.TargetWeightTotal,
			Tolerance: cfg.Scoring.WeightTolerance,
		},
		questions: questions,
		tiers: scoring.TierBands{
			Excellent: cfg.Prequal.Tiers.Excellent,
			Good:      cfg.Prequal.Tiers.Good,
			Fair:      cfg.Prequal.Tiers.Fair,
		},
		logger: logger,
	}
}

// ScoredSubmission is a submission with its computed block flattened in.
type ScoredSubmission struct {
	store.Submission
	scoring.SubmissionScores
}

func (s *Service) publish(subject string, event interface{}) {
	if s.hermes == nil {
		return
	}
	if err := s.hermes.Publish(subject, event); err != nil {
		s.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}

// --- Rubrics ---

type RubricInput struct {
	RFPID       string                  `json:"rfp_id"`
	Name        string                  `json:"name" yaml:"name"`
	Description string                  `json:"description" yaml:"description"`
	Criteria    []scoring.CriterionSpec `json:"criteria" yaml:"criteria"`
}

// ValidateCriteria resolves authored criteria and checks their weights
// without storing anything.
func (s *Service) ValidateCriteria(specs []scoring.CriterionSpec) (*scoring.Registry, scoring.WeightReport, error) {
	start := time.Now()
	defer metrics.ObserveComputation(metrics.KindWeights, start)

	reg, err := scoring.NewRegistry(specs)
	if err != nil {
		return nil, scoring.WeightReport{}, err
	}
	return reg, s.validator.Check(reg.All()), nil
}

// CreateRubric stores a rubric. Weights outside the tolerance are reported
// and announced but do not block creation.
func (s *Service) CreateRubric(ctx context.Context, in RubricInput) (*store.Rubric, scoring.WeightReport, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, scoring.WeightReport{}, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if len(in.Criteria) == 0 {
		return nil, scoring.WeightReport{}, fmt.Errorf("%w: at least one criterion is required", ErrInvalid)
	}
	reg, report, err := s.ValidateCriteria(in.Criteria)
	if err != nil {
		return nil, report, err
	}

	r := &store.Rubric{
		RFPID:       in.RFPID,
		Name:        in.Name,
		Description: in.Description,
		Criteria:    fromScoringCriteria(reg.All()),
	}
	if err := s.store.CreateRubric(ctx, r); err != nil {
		return nil, report, fmt.Errorf("create rubric: %w", err)
	}

	s.warnWeights(r.ID, report)
	s.logger.Info("rubric created", "rubric_id", r.ID, "criteria", len(r.Criteria), "total_weight", report.Total)
	return r, report, nil
}

func (s *Service) GetRubric(ctx context.Context, id uuid.UUID) (*store.Rubric, error) {
	r, err := s.store.GetRubric(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get rubric: %w", err)
	}
	if r == nil {
		return nil, ErrNotFound
	}
	return r, nil
}

// CheckRubric reports how far a stored rubric's weights are from the target.
func (s *Service) CheckRubric(ctx context.Context, rubricID uuid.UUID) (scoring.WeightReport, error) {
	r, err := s.GetRubric(ctx, rubricID)
	if err != nil {
		return scoring.WeightReport{}, err
	}
	start := time.Now()
	report := s.validator.Check(toScoringCriteria(r.Criteria))
	metrics.ObserveComputation(metrics.KindWeights, start)
	s.warnWeights(r.ID, report)
	return report, nil
}

func (s *Service) warnWeights(rubricID uuid.UUID, report scoring.WeightReport) {
	if report.WithinTolerance {
		return
	}
	metrics.RubricWeightWarnings.Inc()
	s.logger.Warn("rubric weights outside tolerance",
		"rubric_id", rubricID,
		"total_weight", report.Total,
		"target", report.Target,
	)
	s.publish(hermes.SubjectRubricWeightWarning(rubricID.String()), hermes.RubricWeightWarningEvent{
		RubricID:    rubricID.String(),
		TotalWeight: report.Total,
		Target:      report.Target,
		Deviation:   report.Deviation,
	})
}

// --- Submissions ---

func (s *Service) CreateSubmission(ctx context.Context, sub *store.Submission) error {
	if strings.TrimSpace(sub.VendorID) == "" {
		return fmt.Errorf("%w: vendor_id is required", ErrInvalid)
	}
	if _, err := s.GetRubric(ctx, sub.RubricID); err != nil {
		return err
	}
	if err := s.store.CreateSubmission(ctx, sub); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	s.logger.Info("submission created", "submission_id", sub.ID, "rubric_id", sub.RubricID, "vendor_id", sub.VendorID)
	return nil
}

func (s *Service) GetSubmission(ctx context.Context, id uuid.UUID) (*ScoredSubmission, error) {
	sub, err := s.getSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	scores, err := s.scoresFor(ctx, sub, false)
	if err != nil {
		return nil, err
	}
	return scored(sub, scores), nil
}

func (s *Service) ListSubmissions(ctx context.Context, filter store.SubmissionFilter) ([]*ScoredSubmission, error) {
	subs, err := s.store.ListSubmissions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	out := make([]*ScoredSubmission, 0, len(subs))
	for _, sub := range subs {
		scores, err := s.scoresFor(ctx, sub, false)
		if err != nil {
			return nil, err
		}
		out = append(out, scored(sub, scores))
	}
	return out, nil
}

// SubmissionScores returns the computed block of a submission, served from
// the memo when the submission has not changed since it was computed.
func (s *Service) SubmissionScores(ctx context.Context, id uuid.UUID) (*scoring.SubmissionScores, error) {
	sub, err := s.getSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	scores, err := s.scoresFor(ctx, sub, false)
	if err != nil {
		return nil, err
	}
	return &scores, nil
}

// Rescore recomputes a submission regardless of the memo. The result is
// persisted and announced only if its revision has not been scored yet.
func (s *Service) Rescore(ctx context.Context, id uuid.UUID) (*scoring.SubmissionScores, error) {
	sub, err := s.getSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn("failed to invalidate score cache", "submission_id", id, "error", err)
	}
	scores, err := s.scoresFor(ctx, sub, true)
	if err != nil {
		return nil, err
	}
	return &scores, nil
}

func (s *Service) ExplainSubmission(ctx context.Context, id uuid.UUID) (*scoring.ConsensusBreakdown, error) {
	sub, err := s.getSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	reg, err := s.registry(ctx, sub.RubricID)
	if err != nil {
		return nil, err
	}
	consensus, err := s.store.ListConsensus(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list consensus: %w", err)
	}

	start := time.Now()
	b := scoring.Explain(toConsensusEntries(consensus), reg.ByID())
	metrics.ObserveComputation(metrics.KindExplain, start)
	return &b, nil
}

// Criterion resolves a criterion of the submission's rubric.
func (s *Service) Criterion(ctx context.Context, submissionID uuid.UUID, criterionID string) (scoring.Criterion, error) {
	sub, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		return scoring.Criterion{}, err
	}
	reg, err := s.registry(ctx, sub.RubricID)
	if err != nil {
		return scoring.Criterion{}, err
	}
	c, ok := reg.Get(criterionID)
	if !ok {
		return scoring.Criterion{}, fmt.Errorf("%w: %s", ErrUnknownCriterion, criterionID)
	}
	return c, nil
}

// RecordScore stores one evaluator's raw score. Range checks against the
// criterion scale are the caller's job.
func (s *Service) RecordScore(ctx context.Context, sc *store.RawScore) (int, error) {
	if _, err := s.Criterion(ctx, sc.SubmissionID, sc.CriterionKey); err != nil {
		return 0, err
	}
	rev, err := s.store.RecordScore(ctx, sc)
	if err != nil {
		return 0, fmt.Errorf("record score: %w", err)
	}
	s.publish(hermes.SubjectScoreRecorded(sc.SubmissionID.String()), hermes.ScoreRecordedEvent{
		SubmissionID: sc.SubmissionID.String(),
		EvaluatorID:  sc.EvaluatorID,
		CriterionID:  sc.CriterionKey,
		Value:        sc.Value,
		Revision:     rev,
	})
	return rev, nil
}

// SetConsensus records the reconciled score for one criterion.
func (s *Service) SetConsensus(ctx context.Context, c *store.Consensus) (int, error) {
	if _, err := s.Criterion(ctx, c.SubmissionID, c.CriterionKey); err != nil {
		return 0, err
	}
	rev, err := s.store.UpsertConsensus(ctx, c)
	if err != nil {
		return 0, fmt.Errorf("upsert consensus: %w", err)
	}
	s.logger.Info("consensus updated",
		"submission_id", c.SubmissionID,
		"criterion", c.CriterionKey,
		"score_value", c.ScoreValue,
		"revision", rev,
	)
	s.publish(hermes.SubjectConsensusUpdated(c.SubmissionID.String()), hermes.ConsensusUpdatedEvent{
		SubmissionID: c.SubmissionID.String(),
		CriterionID:  c.CriterionKey,
		ScoreValue:   c.ScoreValue,
		ReconciledBy: c.ReconciledBy,
		Revision:     rev,
	})
	return rev, nil
}

// ClearConsensus removes a reconciled score. Orphaned entries whose
// criterion left the rubric can be cleared too.
func (s *Service) ClearConsensus(ctx context.Context, submissionID uuid.UUID, criterionID string) (int, error) {
	if _, err := s.getSubmission(ctx, submissionID); err != nil {
		return 0, err
	}
	rev, err := s.store.DeleteConsensus(ctx, submissionID, criterionID)
	if err != nil {
		return 0, fmt.Errorf("delete consensus: %w", err)
	}
	s.publish(hermes.SubjectConsensusUpdated(submissionID.String()), hermes.ConsensusUpdatedEvent{
		SubmissionID: submissionID.String(),
		CriterionID:  criterionID,
		Revision:     rev,
		Removed:      true,
	})
	return rev, nil
}

func (s *Service) getSubmission(ctx context.Context, id uuid.UUID) (*store.Submission, error) {
	sub, err := s.store.GetSubmission(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	if sub == nil {
		return nil, ErrNotFound
	}
	return sub, nil
}

func (s *Service) registry(ctx context.Context, rubricID uuid.UUID) (*scoring.Registry, error) {
	criteria, err := s.store.ListCriteria(ctx, rubricID)
	if err != nil {
		return nil, fmt.Errorf("list criteria: %w", err)
	}
	reg, err := scoring.RegistryOf(toScoringCriteria(criteria))
	if err != nil {
		return nil, fmt.Errorf("rubric %s: %w", rubricID, err)
	}
	return reg, nil
}

// scoresFor returns the computed block for sub at its current revision.
// Fresh results are persisted and announced once per revision.
func (s *Service) scoresFor(ctx context.Context, sub *store.Submission, force bool) (scoring.SubmissionScores, error) {
	if !force {
		cached, ok, err := s.cache.GetScores(ctx, sub.ID, sub.Revision)
		if err != nil {
			s.logger.Warn("score cache lookup failed", "submission_id", sub.ID, "error", err)
		}
		if ok {
			metrics.CacheHit()
			return *cached, nil
		}
		metrics.CacheMiss()
	}

	reg, err := s.registry(ctx, sub.RubricID)
	if err != nil {
		return scoring.SubmissionScores{}, err
	}
	raw, err := s.store.ListScores(ctx, sub.ID)
	if err != nil {
		return scoring.SubmissionScores{}, fmt.Errorf("list scores: %w", err)
	}
	consensus, err := s.store.ListConsensus(ctx, sub.ID)
	if err != nil {
		return scoring.SubmissionScores{}, fmt.Errorf("list consensus: %w", err)
	}

	start := time.Now()
	scores := scoring.ComputeSubmissionScores(toScores(raw), toConsensusEntries(consensus), reg)
	metrics.ObserveComputation(metrics.KindSubmission, start)

	if force || sub.ScoredRevision < sub.Revision {
		s.persist(ctx, sub, scores)
	}
	if err := s.cache.SetScores(ctx, sub.ID, sub.Revision, scores); err != nil {
		s.logger.Warn("score cache store failed", "submission_id", sub.ID, "error", err)
	}
	return scores, nil
}

func (s *Service) persist(ctx context.Context, sub *store.Submission, scores scoring.SubmissionScores) {
	agg := store.SubmissionAggregates{
		TotalScore:       scores.TotalScore,
		MaxPossibleScore: scores.MaxPossibleScore,
		AverageScore:     scores.AverageScore,
		ScorePercentage:  scores.ScorePercentage,
	}
	saved, err := s.store.SaveSubmissionScores(ctx, sub.ID, agg, sub.Revision)
	if err != nil {
		s.logger.Warn("failed to save submission scores", "submission_id", sub.ID, "error", err)
		return
	}
	if !saved {
		// Another caller already scored this revision and announced it.
		return
	}
	now := time.Now().UTC()
	sub.Aggregates = &agg
	sub.ScoredRevision = sub.Revision
	sub.ScoredAt = &now

	s.publish(hermes.SubjectSubmissionScored(sub.ID.String()), hermes.SubmissionScoredEvent{
		SubmissionID:     sub.ID.String(),
		RubricID:         sub.RubricID.String(),
		VendorID:         sub.VendorID,
		Revision:         sub.Revision,
		TotalScore:       scores.TotalScore,
		MaxPossibleScore: scores.MaxPossibleScore,
		AverageScore:     scores.AverageScore,
		ScorePercentage:  scores.ScorePercentage,
		ScoredAt:         now,
	})
}

func scored(sub *store.Submission, scores scoring.SubmissionScores) *ScoredSubmission {
	view := &ScoredSubmission{Submission: *sub, SubmissionScores: scores}
	// The flattened block supersedes the persisted copy.
	view.Aggregates = nil
	return view
}
