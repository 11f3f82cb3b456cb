// internal/workers/analytics/pivot-dimension-values/models.go
package pivotdimensionvalues

import "ai2c-dataviz/internal/models"

type Input struct {
	Env       string           `json:"env"`
	SurveyKey string           `json:"surveyKey"`
	Pivot     models.PivotSpec `json:"pivot"`

	// Column is the dimension whose values are listed. Empty means the
	// first of the pivot's row and column dimensions.
	Column string `json:"column,omitempty"`
}

type Output struct {
	RequestID     string             `json:"requestId"`
	Column        string             `json:"column"`
	Values        []string           `json:"values"`
	FilterColumns []string           `json:"filterColumns"`
	EmptyState    *models.EmptyState `json:"emptyState,omitempty"`
}

const inputSchema = `{
  "type": "object",
  "required": ["env", "surveyKey", "pivot"],
  "properties": {
    "env": {"type": "string", "minLength": 1},
    "surveyKey": {"type": "string", "minLength": 1},
    "column": {"type": "string"},
    "pivot": {
      "type": "object",
      "properties": {
        "rowDims": {"type": "array", "items": {"type": "string", "minLength": 1}, "maxItems": 2},
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
        }
      }
    }
  }
}`
