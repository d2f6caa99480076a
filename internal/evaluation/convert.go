package evaluation

import (
	"github.com/MikeSquared-Agency/Tally/internal/scoring"
	"github.com/MikeSquared-Agency/Tally/internal/store"
)

func toScoringCriteria(in []store.Criterion) []scoring.Criterion {
	out := make([]scoring.Criterion, 0, len(in))
	for _, c := range in {
		out = append(out, scoring.Criterion{
			ID:       c.Key,
			Label:    c.Label,
			Section:  c.Section,
			Weight:   c.Weight,
			ScaleMin: c.ScaleMin,
			ScaleMax: c.ScaleMax,
		})
	}
	return out
}

func fromScoringCriteria(in []scoring.Criterion) []store.Criterion {
	out := make([]store.Criterion, 0, len(in))
	for i, c := range in {
		out = append(out, store.Criterion{
			Key:      c.ID,
			Label:    c.Label,
			Section:  c.Section,
			Weight:   c.Weight,
			ScaleMin: c.ScaleMin,
			ScaleMax: c.ScaleMax,
			Position: i,
		})
	}
	return out
}

func toScores(in []*store.RawScore) []scoring.RawScore {
	out := make([]scoring.RawScore, 0, len(in))
	for _, s := range in {
		out = append(out, scoring.RawScore{
			SubmissionID: s.SubmissionID.String(),
			EvaluatorID:  s.EvaluatorID,
			CriterionID:  s.CriterionKey,
			Value:        s.Value,
		})
	}
	return out
}

func toConsensusEntries(in []*store.Consensus) []scoring.ConsensusEntry {
	out := make([]scoring.ConsensusEntry, 0, len(in))
	for _, c := range in {
		out = append(out, scoring.ConsensusEntry{
			SubmissionID: c.SubmissionID.String(),
			CriterionID:  c.CriterionKey,
			ScoreValue:   c.ScoreValue,
		})
	}
	return out
}

func fromResponses(in []scoring.Response) []store.PrequalResponse {
	out := make([]store.PrequalResponse, 0, len(in))
	for _, r := range in {
		out = append(out, store.PrequalResponse{QuestionID: r.QuestionID, Value: r.Value})
	}
	return out
}
