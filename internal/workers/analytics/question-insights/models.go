// internal/workers/analytics/question-insights/models.go
package questioninsights

import (
	"ai2c-dataviz/internal/analytics/drill"
	"ai2c-dataviz/internal/analytics/insights"
	"ai2c-dataviz/internal/models"
)

type Input struct {
	Env        string           `json:"env"`
	SurveyKey  string           `json:"surveyKey"`
	QuestionID string           `json:"questionId"`
	Segment    insights.Segment `json:"segment"`
	Card       drill.Card       `json:"card"`
	Event      *drill.Event     `json:"event,omitempty"`
}

// Output carries the card state after the event so the caller can send it
// back with the next click.
type Output struct {
	RequestID  string             `json:"requestId"`
	View       insights.View      `json:"view"`
	EmptyState *models.EmptyState `json:"emptyState,omitempty"`
}

const inputSchema = `{
  "type": "object",
  "required": ["env", "surveyKey", "questionId"],
  "properties": {
    "env": {"type": "string", "minLength": 1},
    "surveyKey": {"type": "string", "minLength": 1},
    "questionId": {"type": "string", "minLength": 1},
    "segment": {
      "type": "object",
      "properties": {
        "column": {"type": "string"},
        "values": {"type": "array", "items": {"type": "string"}}
      }
    },
    "card": {
      "type": "object",
      "properties": {
        "drill": {
          "type": "object",
          "properties": {
            "level": {"type": "integer", "minimum": 0, "maximum": 2},
            "sentiment": {"type": ["string", "null"]},
            "category": {"type": ["string", "null"]}
          }
        },
        "filter": {
          "type": "object",
          "properties": {
            "category": {"type": ["string", "null"]},
            "topic": {"type": ["string", "null"]}
          }
        }
      }
    },
    "event": {
      "type": ["object", "null"],
      "required": ["target"],
      "properties": {
        "target": {"type": "string", "enum": ["sentiment", "category", "topic", "clear"]},
        "value": {"type": "string"}
      }
    }
  }
}`
