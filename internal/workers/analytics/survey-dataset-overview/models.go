// internal/workers/analytics/survey-dataset-overview/models.go
package surveydatasetoverview

import (
	"ai2c-dataviz/internal/analytics/insights"
	"ai2c-dataviz/internal/models"
)

type Input struct {
	Env           string `json:"env"`
	SurveyKey     string `json:"surveyKey"`
	Granularity   string `json:"granularity,omitempty"`
	IncludeSample bool   `json:"includeSample,omitempty"`
	SampleSize    int    `json:"sampleSize,omitempty"`
}

type Output struct {
	RequestID       string                   `json:"requestId"`
	Stats           insights.Stats           `json:"stats"`
	Questions       []insights.Question      `json:"questions"`
	Dimensions      []string                 `json:"dimensions"`
	PivotDimensions []string                 `json:"pivotDimensions"`
	MetricColumns   []string                 `json:"metricColumns"`
	Granularity     insights.Granularity     `json:"granularity"`
	Timeline        []insights.TimelinePoint `json:"timeline"`
	Topics          []insights.Share         `json:"topics"`
	Sample          *insights.Sample         `json:"sample,omitempty"`
	EmptyState      *models.EmptyState       `json:"emptyState,omitempty"`
}

const inputSchema = `{
  "type": "object",
  "required": ["env", "surveyKey"],
  "properties": {
    "env": {"type": "string", "minLength": 1},
    "surveyKey": {"type": "string", "minLength": 1},
    "granularity": {"type": "string", "enum": ["D", "W", "M"]},
    "includeSample": {"type": "boolean"},
    "sampleSize": {"type": "integer", "minimum": 1}
  }
}`
