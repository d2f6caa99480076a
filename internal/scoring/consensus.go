package scoring

// ConsensusEntry is the reconciled score the evaluators agreed on for one
// criterion of a submission.
type ConsensusEntry struct {
	SubmissionID string  `json:"submission_id"`
	CriterionID  string  `json:"criterion_id"`
	ScoreValue   float64 `json:"score_value"`
}

// Contribution captures one criterion's share of the consensus total.
type Contribution struct {
	CriterionID string  `json:"criterion_id"`
	Label       string  `json:"label"`
	ScoreValue  float64 `json:"score_value"`
	Weight      float64 `json:"weight"`
	ScaleMax    int     `json:"scale_max"`
	Weighted    float64 `json:"weighted"`
	MaxWeighted float64 `json:"max_weighted"`
}

// ConsensusBreakdown is the itemized form of Score.
type ConsensusBreakdown struct {
	TotalScore       float64        `json:"total_score"`
	MaxPossibleScore float64        `json:"max_possible_score"`
	Percentage       float64        `json:"percentage"`
	Contributions    []Contribution `json:"contributions"`
	Skipped          []string       `json:"skipped,omitempty"`
}

// Score computes the weighted consensus total of a submission.
//
//	totalScore       = Σ scoreValue·weight
//	maxPossibleScore = Σ scaleMax·weight
//	percentage       = totalScore / maxPossibleScore · 100
//
// Entries whose criterion is not in criteriaByID are skipped entirely. With
// nothing to score every output is 0.
func Score(consensus []ConsensusEntry, criteriaByID map[string]Criterion) (totalScore, maxPossibleScore, percentage float64) {
	for _, entry := range consensus {
		c, ok := criteriaByID[entry.CriterionID]
		if !ok {
			continue
		}
		totalScore += entry.ScoreValue * c.Weight
		maxPossibleScore += float64(c.ScaleMax) * c.Weight
	}
	return totalScore, maxPossibleScore, percentOf(totalScore, maxPossibleScore)
}

// Explain runs the same computation as Score and keeps the per-criterion
// contributions, in consensus order.
func Explain(consensus []ConsensusEntry, criteriaByID map[string]Criterion) ConsensusBreakdown {
	b := ConsensusBreakdown{Contributions: make([]Contribution, 0, len(consensus))}
	for _, entry := range consensus {
		c, ok := criteriaByID[entry.CriterionID]
		if !ok {
			b.Skipped = append(b.Skipped, entry.CriterionID)
			continue
		}
		contrib := Contribution{
			CriterionID: c.ID,
			Label:       c.Label,
			ScoreValue:  entry.ScoreValue,
			Weight:      c.Weight,
			ScaleMax:    c.ScaleMax,
			Weighted:    entry.ScoreValue * c.Weight,
			MaxWeighted: float64(c.ScaleMax) * c.Weight,
		}
		b.TotalScore += contrib.Weighted
		b.MaxPossibleScore += contrib.MaxWeighted
		b.Contributions = append(b.Contributions, contrib)
	}
	b.Percentage = percentOf(b.TotalScore, b.MaxPossibleScore)
	return b
}

// SubmissionScores is the computed block attached to a submission. The
// average and the percentage are independent figures on different scales.
type SubmissionScores struct {
	TotalScore       float64 `json:"totalScore"`
	MaxPossibleScore float64 `json:"maxPossibleScore"`
	AverageScore     float64 `json:"averageScore"`
	ScorePercentage  float64 `json:"scorePercentage"`
}

// ComputeSubmissionScores derives every aggregate of a submission from its
// raw scores, its consensus and the rubric. A nil registry scores nothing.
func ComputeSubmissionScores(scores []RawScore, consensus []ConsensusEntry, reg *Registry) SubmissionScores {
	var byID map[string]Criterion
	if reg != nil {
		byID = reg.ByID()
	}
	total, maxScore, pct := Score(consensus, byID)
	return SubmissionScores{
		TotalScore:       total,
		MaxPossibleScore: maxScore,
		AverageScore:     AverageScore(scores),
		ScorePercentage:  pct,
	}
}

func percentOf(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole * 100
}
