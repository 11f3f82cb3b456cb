// internal/workers/analytics/aggregate-pivot/models.go
package aggregatepivot

import (
	"time"

	"ai2c-dataviz/internal/analytics/pivot"
	"ai2c-dataviz/internal/models"
)

type Input struct {
	Env       string           `json:"env"`
	SurveyKey string           `json:"surveyKey"`
	Pivot     models.PivotSpec `json:"pivot"`
}

type Output struct {
	RequestID  string             `json:"requestId"`
	Result     *pivot.Result      `json:"result,omitempty"`
	Charts     pivot.Charts       `json:"charts"`
	EmptyState *models.EmptyState `json:"emptyState,omitempty"`
	Question   *QuestionType      `json:"question,omitempty"`
	ComputedAt time.Time          `json:"computedAt"`
}

// QuestionType is the resolved type of the question the pivot was restricted to.
type QuestionType struct {
	QuestionID string         `json:"questionId"`
	VizType    models.VizType `json:"vizType"`
	FromSchema bool           `json:"fromSchema"`
}

const inputSchema = `{
  "type": "object",
  "required": ["env", "surveyKey", "pivot"],
  "properties": {
    "env": {"type": "string", "minLength": 1},
    "surveyKey": {"type": "string", "minLength": 1},
    "pivot": {
      "type": "object",
      "properties": {
        "rowDims": {"type": "array", "items": {"type": "string", "minLength": 1}, "maxItems": 2},
        "colDim": {"type": "string"},
        "metric": {"type": "string"},
        "aggregator": {"type": "string"},
        "questionId": {"type": "string"},
        "useAnswerDimension": {"type": "boolean"},
        "binCount": {"type": "integer"},
        "dateRange": {
          "type": "object",
          "properties": {
            "start": {"type": ["string", "null"], "format": "date-time"},
            "end": {"type": ["string", "null"], "format": "date-time"}
          }
        },
        "dimensionFilter": {
          "type": "object",
          "properties": {
            "column": {"type": "string"},
            "values": {"type": "array", "items": {"type": "string"}}
          }
        }
      }
    }
  }
}`
