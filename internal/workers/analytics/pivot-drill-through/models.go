// internal/workers/analytics/pivot-drill-through/models.go
package pivotdrillthrough

import (
	"ai2c-dataviz/internal/analytics/pivot"
	"ai2c-dataviz/internal/models"
)

type Input struct {
	Env       string           `json:"env"`
	SurveyKey string           `json:"surveyKey"`
	Pivot     models.PivotSpec `json:"pivot"`
	Click     pivot.Click      `json:"click"`
}

type Output struct {
	RequestID  string               `json:"requestId"`
	Records    []pivot.DetailRecord `json:"records"`
	Count      int                  `json:"count"`
	Limit      int                  `json:"limit"`
	EmptyState *models.EmptyState   `json:"emptyState,omitempty"`
}

const inputSchema = `{
  "type": "object",
  "required": ["env", "surveyKey", "pivot", "click"],
  "properties": {
    "env": {"type": "string", "minLength": 1},
    "surveyKey": {"type": "string", "minLength": 1},
    "pivot": {
      "type": "object",
      "properties": {
        "rowDims": {"type": "array", "items": {"type": "string", "minLength": 1}, "minItems": 1, "maxItems": 2},
        "colDim": {"type": "string"},
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
    },
    "click": {
      "type": "object",
      "required": ["x"],
      "properties": {
        "x": {"type": "string"},
        "columnValue": {"type": ["string", "null"]}
      }
    }
  }
}`
