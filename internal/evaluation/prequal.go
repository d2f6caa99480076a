package evaluation

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Tally/internal/hermes"
	"github.com/MikeSquared-Agency/Tally/internal/metrics"
	"github.com/MikeSquared-Agency/Tally/internal/scoring"
	"github.com/MikeSquared-Agency/Tally/internal/store"
)

type questionnaireFile struct {
	Questions []scoring.QuestionSpec `yaml:"questions"`
}

// LoadQuestionnaire reads a YAML questionnaire. An empty path selects the
// built-in vendor questionnaire.
func LoadQuestionnaire(path string) (*scoring.QuestionSet, error) {
	if path == "" {
		return scoring.NewQuestionSet(scoring.DefaultVendorQuestionnaire())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questionnaire: %w", err)
	}
	var f questionnaireFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse questionnaire: %w", err)
	}
	if len(f.Questions) == 0 {
		return nil, fmt.Errorf("questionnaire %s has no questions", path)
	}
	qs, err := scoring.NewQuestionSet(f.Questions)
	if err != nil {
		return nil, fmt.Errorf("questionnaire %s: %w", path, err)
	}
	return qs, nil
}

func (s *Service) Questions() []scoring.Question {
	return s.questions.All()
}

// ScorePrequalification scores a vendor's answers against the configured
// questionnaire. Numeric answers outside a question's bounds are rejected.
// Drafts are only scored; final submissions are stored and announced.
func (s *Service) ScorePrequalification(ctx context.Context, vendorID string, responses []scoring.Response, final bool) (scoring.PrequalResult, error) {
	for _, r := range responses {
		q, ok := s.questions.Get(r.QuestionID)
		if !ok {
			continue
		}
		if err := q.CheckValue(r.Value); err != nil {
			return scoring.PrequalResult{}, fmt.Errorf("response %s: %w", r.QuestionID, err)
		}
	}

	start := time.Now()
	result := scoring.EvaluateResponses(responses, s.questions.All())
	result.Tier = s.tiers.Classify(result.TotalPercentage)
	metrics.ObserveComputation(metrics.KindPrequal, start)

	if !final {
		return result, nil
	}
	if strings.TrimSpace(vendorID) == "" {
		return result, fmt.Errorf("%w: vendor id is required", ErrInvalid)
	}

	p := &store.Prequalification{
		VendorID:        vendorID,
		Responses:       fromResponses(responses),
		PerQuestion:     result.PerQuestion,
		MissingRequired: result.MissingRequired,
		TotalPercentage: result.TotalPercentage,
		Tier:            string(result.Tier),
		Complete:        result.Complete,
	}
	if err := s.store.SavePrequalification(ctx, p); err != nil {
		return result, fmt.Errorf("save prequalification: %w", err)
	}

	metrics.PrequalTiers.WithLabelValues(string(result.Tier)).Inc()
	s.logger.Info("prequalification scored",
		"vendor_id", vendorID,
		"total_percentage", result.TotalPercentage,
		"tier", result.Tier,
		"complete", result.Complete,
	)
	s.publish(hermes.SubjectPrequalScored(vendorID), hermes.PrequalificationScoredEvent{
		VendorID:        vendorID,
		TotalPercentage: result.TotalPercentage,
		Tier:            string(result.Tier),
		Complete:        result.Complete,
		MissingRequired: result.MissingRequired,
		Timestamp:       p.SubmittedAt,
	})
	return result, nil
}

func (s *Service) GetPrequalification(ctx context.Context, vendorID string) (*store.Prequalification, error) {
	p, err := s.store.GetPrequalification(ctx, vendorID)
	if err != nil {
		return nil, fmt.Errorf("get prequalification: %w", err)
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}
