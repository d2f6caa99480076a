package api

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/MikeSquared-Agency/Tally/internal/scoring"
)

// schemaError lists every violation found in a request body.
type schemaError struct {
	details []string
}

func (e *schemaError) Error() string {
	return "request validation failed: " + strings.Join(e.details, "; ")
}

func validateBody(schema map[string]interface{}, body []byte) error {
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if !result.Valid() {
		details := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			details[i] = desc.String()
		}
		return &schemaError{details: details}
	}
	return nil
}

func criterionSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []string{"id"},
		"properties": map[string]interface{}{
			"id":        map[string]interface{}{"type": "string", "minLength": 1},
			"label":     map[string]interface{}{"type": "string"},
			"section":   map[string]interface{}{"type": "string"},
			"weight":    map[string]interface{}{"type": "number", "minimum": 0},
			"scale_min": map[string]interface{}{"type": "integer", "minimum": 0},
			"scale_max": map[string]interface{}{"type": "integer", "minimum": 1},
		},
	}
}

// rubricSchema describes a rubric body. The stateless validate endpoint
// accepts criteria without a name.
func rubricSchema(requireName bool) map[string]interface{} {
	required := []string{"criteria"}
	if requireName {
		required = append(required, "name")
	}
	return map[string]interface{}{
		"type":     "object",
		"required": required,
		"properties": map[string]interface{}{
			"name":        map[string]interface{}{"type": "string", "minLength": 1},
			"rfp_id":      map[string]interface{}{"type": "string"},
			"description": map[string]interface{}{"type": "string"},
			"criteria": map[string]interface{}{
				"type":     "array",
				"minItems": 1,
				"items":    criterionSchema(),
			},
		},
	}
}

var submissionSchema = map[string]interface{}{
	"type":     "object",
	"required": []string{"rubric_id", "vendor_id"},
	"properties": map[string]interface{}{
		"rubric_id": map[string]interface{}{"type": "string", "minLength": 1},
		"vendor_id": map[string]interface{}{"type": "string", "minLength": 1},
		"title":     map[string]interface{}{"type": "string"},
		"status": map[string]interface{}{
			"type": "string",
			"enum": []string{"draft", "submitted", "under_review", "awarded", "rejected"},
		},
	},
}

// scoreEnvelopeSchema checks the shape of a raw score before its criterion
// is known.
var scoreEnvelopeSchema = map[string]interface{}{
	"type":     "object",
	"required": []string{"criterion_id", "value"},
	"properties": map[string]interface{}{
		"criterion_id": map[string]interface{}{"type": "string", "minLength": 1},
		"value":        map[string]interface{}{"type": "number"},
		"comment":      map[string]interface{}{"type": "string", "maxLength": 4000},
	},
}

// scoreSchema bounds a raw score by the criterion's scale.
func scoreSchema(c scoring.Criterion) map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []string{"criterion_id", "value"},
		"properties": map[string]interface{}{
			"criterion_id": map[string]interface{}{"type": "string", "enum": []string{c.ID}},
			"value": map[string]interface{}{
				"type":    "number",
				"minimum": c.ScaleMin,
				"maximum": c.ScaleMax,
			},
			"comment": map[string]interface{}{"type": "string", "maxLength": 4000},
		},
	}
}

// consensusSchema bounds a reconciled value by [0, scale max]. Panels may
// reconcile a criterion to zero when it is not met at all.
func consensusSchema(c scoring.Criterion) map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []string{"score_value"},
		"properties": map[string]interface{}{
			"score_value": map[string]interface{}{
				"type":    "number",
				"minimum": 0,
				"maximum": c.ScaleMax,
			},
			"notes": map[string]interface{}{"type": "string", "maxLength": 4000},
		},
	}
}

// numericAnswerPattern admits the string forms the scorer parses, such as
// "12", "$1,250,000" or "6 years", and the empty answer.
const numericAnswerPattern = `^\s*(\$?[0-9][0-9,]*(\.[0-9]+)?(\s+.*)?)?$`

// prequalSchema checks each response against its question. Responses to
// questions outside the questionnaire only need an id.
func prequalSchema(questions []scoring.Question) map[string]interface{} {
	item := map[string]interface{}{
		"type":     "object",
		"required": []string{"question_id"},
		"properties": map[string]interface{}{
			"question_id": map[string]interface{}{"type": "string", "minLength": 1},
		},
	}
	if len(questions) > 0 {
		ids := make([]interface{}, 0, len(questions))
		alternatives := make([]interface{}, 0, len(questions)+1)
		for _, q := range questions {
			ids = append(ids, q.ID)
			alternatives = append(alternatives, map[string]interface{}{
				"properties": map[string]interface{}{
					"question_id": map[string]interface{}{"enum": []interface{}{q.ID}},
					"value":       answerSchema(q),
				},
			})
		}
		alternatives = append(alternatives, map[string]interface{}{
			"properties": map[string]interface{}{
				"question_id": map[string]interface{}{"not": map[string]interface{}{"enum": ids}},
			},
		})
		item["anyOf"] = alternatives
	}

	return map[string]interface{}{
		"type":     "object",
		"required": []string{"responses"},
		"properties": map[string]interface{}{
			"responses": map[string]interface{}{
				"type":  "array",
				"items": item,
			},
		},
	}
}

func answerSchema(q scoring.Question) map[string]interface{} {
	switch q.Type {
	case scoring.QuestionNumeric:
		number := map[string]interface{}{"type": "number"}
		if b := q.Validation; b != nil {
			if b.Min != nil {
				number["minimum"] = *b.Min
			}
			if b.Max != nil {
				number["maximum"] = *b.Max
			}
		}
		return map[string]interface{}{
			"anyOf": []interface{}{
				number,
				map[string]interface{}{"type": "string", "pattern": numericAnswerPattern},
				map[string]interface{}{"type": "null"},
			},
		}
	case scoring.QuestionYesNo:
		return map[string]interface{}{"type": []string{"boolean", "string", "integer", "null"}}
	case scoring.QuestionSelect:
		if len(q.Options) == 0 {
			return map[string]interface{}{"type": []string{"string", "null"}}
		}
		return map[string]interface{}{"enum": optionEnum(q.Options)}
	case scoring.QuestionMultiSelect:
		items := map[string]interface{}{"type": "string"}
		if len(q.Options) > 0 {
			items = map[string]interface{}{"enum": optionEnum(q.Options)}
		}
		return map[string]interface{}{"type": []string{"array", "null"}, "items": items}
	case scoring.QuestionText:
		return map[string]interface{}{"type": []string{"string", "null"}, "maxLength": 4000}
	default:
		return map[string]interface{}{"type": []string{"string", "null"}, "maxLength": 2048}
	}
}

// optionEnum lists the options plus the two unanswered forms.
func optionEnum(options []string) []interface{} {
	out := make([]interface{}, 0, len(options)+2)
	for _, o := range options {
		out = append(out, o)
	}
	return append(out, "", nil)
}
