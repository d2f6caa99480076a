package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// QuestionType selects the scoring rule applied to a response.
type QuestionType string

const (
	QuestionNumeric     QuestionType = "numeric"
	QuestionYesNo       QuestionType = "yesno"
	QuestionSelect      QuestionType = "select"
	QuestionMultiSelect QuestionType = "multiselect"
	QuestionText        QuestionType = "text"
	QuestionFile        QuestionType = "file"
)

// ParseQuestionType maps a stored type name to a QuestionType.
func ParseQuestionType(s string) (QuestionType, error) {
	switch t := QuestionType(strings.ToLower(strings.TrimSpace(s))); t {
	case QuestionNumeric, QuestionYesNo, QuestionSelect, QuestionMultiSelect, QuestionText, QuestionFile:
		return t, nil
	default:
		return "", invalid("type", "unknown question type %q", s)
	}
}

// Bounds are the accepted range of a numeric answer. The scorer does not
// enforce them; callers check answers with Question.CheckValue.
type Bounds struct {
	Min *float64 `json:"min,omitempty" yaml:"min"`
	Max *float64 `json:"max,omitempty" yaml:"max"`
}

// QuestionSpec is a prequalification question as authored.
type QuestionSpec struct {
	ID              string             `json:"id" yaml:"id"`
	Label           string             `json:"label,omitempty" yaml:"label"`
	Type            string             `json:"type" yaml:"type"`
	Weight          *float64           `json:"weight,omitempty" yaml:"weight"`
	Required        bool               `json:"required" yaml:"required"`
	Options         []string           `json:"options,omitempty" yaml:"options"`
	Validation      *Bounds            `json:"validation,omitempty" yaml:"validation"`
	Ladder          []Threshold        `json:"ladder,omitempty" yaml:"ladder"`
	OptionFractions map[string]float64 `json:"option_fractions,omitempty" yaml:"option_fractions"`
}

// Question is a resolved prequalification question.
type Question struct {
	ID              string             `json:"id"`
	Label           string             `json:"label,omitempty"`
	Type            QuestionType       `json:"type"`
	Weight          float64            `json:"weight"`
	Required        bool               `json:"required"`
	Options         []string           `json:"options,omitempty"`
	Validation      *Bounds            `json:"validation,omitempty"`
	Ladder          Ladder             `json:"ladder,omitempty"`
	OptionFractions map[string]float64 `json:"option_fractions,omitempty"`
}

// NewQuestion validates a question definition and resolves its defaults.
func NewQuestion(spec QuestionSpec) (Question, error) {
	if spec.ID == "" {
		return Question{}, invalid("id", "question id is required")
	}
	qt, err := ParseQuestionType(spec.Type)
	if err != nil {
		return Question{}, err
	}

	q := Question{
		ID:         spec.ID,
		Label:      spec.Label,
		Type:       qt,
		Weight:     DefaultWeight,
		Required:   spec.Required,
		Options:    spec.Options,
		Validation: spec.Validation,
	}

	if spec.Weight != nil {
		w := *spec.Weight
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return Question{}, invalid("weight", "question %q weight must be a non-negative number", spec.ID)
		}
		q.Weight = w
	}

	if b := spec.Validation; b != nil && b.Min != nil && b.Max != nil && *b.Min > *b.Max {
		return Question{}, invalid("validation", "question %q min %g exceeds max %g", spec.ID, *b.Min, *b.Max)
	}

	if len(spec.Ladder) > 0 {
		if qt != QuestionNumeric {
			return Question{}, invalid("ladder", "question %q: ladders apply to numeric questions only", spec.ID)
		}
		l, err := NewLadder(spec.Ladder)
		if err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				return Question{}, invalid("ladder", "question %q: %s", spec.ID, ve.Message)
			}
			return Question{}, err
		}
		q.Ladder = l
	}

	if len(spec.OptionFractions) > 0 {
		if qt != QuestionSelect && qt != QuestionMultiSelect {
			return Question{}, invalid("option_fractions", "question %q: option fractions apply to select questions only", spec.ID)
		}
		q.OptionFractions = make(map[string]float64, len(spec.OptionFractions))
		for opt, f := range spec.OptionFractions {
			if f < 0 || f > 1 || math.IsNaN(f) {
				return Question{}, invalid("option_fractions", "question %q option %q fraction %g is outside [0, 1]", spec.ID, opt, f)
			}
			q.OptionFractions[opt] = f
		}
	}

	return q, nil
}

// QuestionSet is an ordered, read-only collection of questions.
type QuestionSet struct {
	questions []Question
	byID      map[string]int
}

// NewQuestionSet validates every spec and rejects duplicate ids.
func NewQuestionSet(specs []QuestionSpec) (*QuestionSet, error) {
	s := &QuestionSet{
		questions: make([]Question, 0, len(specs)),
		byID:      make(map[string]int, len(specs)),
	}
	for _, spec := range specs {
		q, err := NewQuestion(spec)
		if err != nil {
			return nil, err
		}
		if _, dup := s.byID[q.ID]; dup {
			return nil, invalid("id", "duplicate question id %q", q.ID)
		}
		s.byID[q.ID] = len(s.questions)
		s.questions = append(s.questions, q)
	}
	return s, nil
}

func (s *QuestionSet) Get(id string) (Question, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Question{}, false
	}
	return s.questions[i], true
}

// All returns a copy of the questions in order.
func (s *QuestionSet) All() []Question {
	out := make([]Question, len(s.questions))
	copy(out, s.questions)
	return out
}

func (s *QuestionSet) Len() int { return len(s.questions) }

// CheckValue reports whether v is acceptable input for q. Unanswered values
// always pass. Numeric answers must be finite numbers within q.Validation.
func (q Question) CheckValue(v interface{}) error {
	if q.Type != QuestionNumeric || !isAnswered(v) {
		return nil
	}
	n, ok := numericValue(v)
	if !ok {
		return invalid(q.ID, "answer %v is not a finite number", v)
	}
	if b := q.Validation; b != nil {
		if b.Min != nil && n < *b.Min {
			return invalid(q.ID, "answer %g is below the minimum %g", n, *b.Min)
		}
		if b.Max != nil && n > *b.Max {
			return invalid(q.ID, "answer %g is above the maximum %g", n, *b.Max)
		}
	}
	return nil
}

// Response is a vendor's answer to one question. The shape of Value depends
// on the question type: numbers or numeric strings, booleans or "yes"/"no",
// a string choice, or a list of choices.
type Response struct {
	QuestionID string      `json:"question_id"`
	Value      interface{} `json:"value"`
}

// QuestionResult is the scored form of one question.
type QuestionResult struct {
	QuestionID      string       `json:"question_id"`
	Type            QuestionType `json:"type"`
	Weight          float64      `json:"weight"`
	Score           float64      `json:"score"`
	Answered        bool         `json:"answered"`
	Required        bool         `json:"required"`
	MissingRequired bool         `json:"missing_required"`
	Reason          string       `json:"reason"`
}

// PrequalResult is the composite outcome of a questionnaire.
type PrequalResult struct {
	PerQuestion     map[string]float64 `json:"per_question_scores"`
	Details         []QuestionResult   `json:"details"`
	TotalPercentage float64            `json:"total_percentage"`
	Tier            Tier               `json:"tier"`
	MissingRequired []string           `json:"missing_required,omitempty"`
	Complete        bool               `json:"complete"`
}

// ScoreResponses scores each question against its response and returns the
// per-question scores together with the rounded composite percentage.
func ScoreResponses(responses []Response, questions []Question) (perQuestionScores map[string]float64, totalPercentage float64) {
	r := EvaluateResponses(responses, questions)
	return r.PerQuestion, r.TotalPercentage
}

// EvaluateResponses is ScoreResponses with the per-question detail, the
// tier and the list of required questions still unanswered.
//
// When a question has several responses the last one wins. Responses to
// unknown questions are ignored.
func EvaluateResponses(responses []Response, questions []Question) PrequalResult {
	answers := make(map[string]interface{}, len(responses))
	for _, r := range responses {
		answers[r.QuestionID] = r.Value
	}

	result := PrequalResult{
		PerQuestion: make(map[string]float64, len(questions)),
		Details:     make([]QuestionResult, 0, len(questions)),
		Complete:    true,
	}

	var earned, possible float64
	for _, q := range questions {
		qr := ScoreQuestion(q, answers[q.ID])
		result.PerQuestion[q.ID] = qr.Score
		result.Details = append(result.Details, qr)
		if qr.MissingRequired {
			result.MissingRequired = append(result.MissingRequired, q.ID)
			result.Complete = false
		}
		earned += qr.Score
		possible += q.Weight
	}

	result.TotalPercentage = roundHalfUp(percentOf(earned, possible))
	result.Tier = ClassifyTier(result.TotalPercentage)
	return result
}

// ScoreQuestion applies the rule for q's type to a single answer.
// The returned score always lies in [0, q.Weight].
func ScoreQuestion(q Question, value interface{}) QuestionResult {
	qr := QuestionResult{
		QuestionID: q.ID,
		Type:       q.Type,
		Weight:     q.Weight,
		Required:   q.Required,
	}

	if !isAnswered(value) {
		qr.MissingRequired = q.Required
		qr.Reason = "unanswered"
		return qr
	}
	qr.Answered = true

	switch q.Type {
	case QuestionNumeric:
		if len(q.Ladder) == 0 {
			qr.Score = q.Weight
			qr.Reason = "answered"
			return qr
		}
		v, ok := numericValue(value)
		if !ok {
			qr.Reason = "not a number"
			return qr
		}
		qr.Score = q.Weight * q.Ladder.Fraction(v)
		qr.Reason = "ladder"

	case QuestionYesNo:
		if affirmative(value) {
			qr.Score = q.Weight
			qr.Reason = "yes"
		} else {
			qr.Reason = "no"
		}

	case QuestionSelect, QuestionMultiSelect:
		if len(q.OptionFractions) == 0 {
			qr.Score = q.Weight
			qr.Reason = "answered"
			return qr
		}
		best, mapped := 0.0, false
		for _, choice := range choices(value) {
			if f, ok := q.OptionFractions[choice]; ok {
				mapped = true
				if f > best {
					best = f
				}
			}
			if q.Type == QuestionSelect {
				break
			}
		}
		if !mapped {
			qr.Reason = "unmapped option"
			return qr
		}
		qr.Score = q.Weight * best
		qr.Reason = "option"

	default: // text, file
		qr.Score = q.Weight
		qr.Reason = "answered"
	}
	return qr
}

// Tier is the display band of a composite percentage.
type Tier string

const (
	TierExcellent        Tier = "excellent"
	TierGood             Tier = "good"
	TierFair             Tier = "fair"
	TierNeedsImprovement Tier = "needs_improvement"
)

// TierBands holds the lower bound of each band.
type TierBands struct {
	Excellent float64 `yaml:"excellent"`
	Good      float64 `yaml:"good"`
	Fair      float64 `yaml:"fair"`
}

func DefaultTierBands() TierBands {
	return TierBands{Excellent: 80, Good: 60, Fair: 40}
}

// Classify maps a percentage to its band.
func (b TierBands) Classify(pct float64) Tier {
	switch {
	case pct >= b.Excellent:
		return TierExcellent
	case pct >= b.Good:
		return TierGood
	case pct >= b.Fair:
		return TierFair
	default:
		return TierNeedsImprovement
	}
}

// ClassifyTier classifies pct with the default 80/60/40 bands.
func ClassifyTier(pct float64) Tier {
	return DefaultTierBands().Classify(pct)
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

func isAnswered(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case []string:
		return len(t) > 0
	case []interface{}:
		return len(t) > 0
	default:
		return true
	}
}

func affirmative(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "yes", "y", "true":
			return true
		}
		return false
	default:
		n, ok := numericValue(v)
		return ok && n == 1
	}
}

func choices(v interface{}) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []string:
		return t
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprint(item))
			}
		}
		return out
	default:
		return []string{fmt.Sprint(v)}
	}
}

// numericValue accepts Go numbers, json.Number and strings such as
// "$1,250,000" or "12 years". NaN and infinities are not numbers here.
func numericValue(v interface{}) (float64, bool) {
	f, ok := parseNumeric(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseNumeric(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(t)
		s = strings.NewReplacer("$", "", ",", "", "+", "").Replace(s)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
		if fields := strings.Fields(s); len(fields) > 0 {
			if f, err := strconv.ParseFloat(fields[0], 64); err == nil {
				return f, true
			}
		}
		return 0, false
	default:
		return 0, false
	}
}
