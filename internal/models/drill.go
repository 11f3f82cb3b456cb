package models

// DrillLevel is the depth of a question card's sentiment drill-down.
type DrillLevel int

const (
	LevelNone      DrillLevel = 0
	LevelSentiment DrillLevel = 1
	LevelCategory  DrillLevel = 2
)

// DrillState is the per-card interaction state. Sentiment is set when Level >= 1,
// Category when Level == 2.
type DrillState struct {
	Level     DrillLevel `json:"level"`
	Sentiment *string    `json:"sentiment"`
	Category  *string    `json:"category"`
}

// CardFilter is the card-local quick filter set by clicking category or topic bars.
// At most one of the two is set.
type CardFilter struct {
	Category *string `json:"category"`
	Topic    *string `json:"topic"`
}
