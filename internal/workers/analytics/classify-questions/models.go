// internal/workers/analytics/classify-questions/models.go
package classifyquestions

import (
	"ai2c-dataviz/internal/analytics/classifier"
	"ai2c-dataviz/internal/models"
)

type Input struct {
	Env         string   `json:"env"`
	SurveyKey   string   `json:"surveyKey"`
	QuestionIDs []string `json:"questionIds,omitempty"`
}

type Output struct {
	RequestID  string             `json:"requestId"`
	Questions  []QuestionType     `json:"questions"`
	EmptyState *models.EmptyState `json:"emptyState,omitempty"`
}

// QuestionType is the resolved visualization of one question. Kind is empty
// when the schema decided.
type QuestionType struct {
	QuestionID string          `json:"questionId"`
	Label      string          `json:"label"`
	Kind       classifier.Kind `json:"kind,omitempty"`
	VizType    models.VizType  `json:"vizType"`
	FromSchema bool            `json:"fromSchema"`
	Responses  int             `json:"responses"`
}

const inputSchema = `{
  "type": "object",
  "required": ["env", "surveyKey"],
  "properties": {
    "env": {"type": "string", "minLength": 1},
    "surveyKey": {"type": "string", "minLength": 1},
    "questionIds": {"type": "array", "items": {"type": "string", "minLength": 1}}
  }
}`
