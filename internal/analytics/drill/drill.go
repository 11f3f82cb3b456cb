// Package drill holds the per-question-card interaction state: the
// sentiment, category, topic drill-down and the card-local quick filter.
package drill

import (
	"strings"

	"ai2c-dataviz/internal/models"
)

// Target is the chart a click event came from.
type Target string

const (
	TargetSentiment Target = "sentiment"
	TargetCategory  Target = "category"
	TargetTopic     Target = "topic"
	TargetClear     Target = "clear"
)

func (t Target) Valid() bool {
	switch t {
	case TargetSentiment, TargetCategory, TargetTopic, TargetClear:
		return true
	}
	return false
}

// Event is a click on a question card. Value is the clicked label and is
// ignored for TargetClear.
type Event struct {
	Target Target `json:"target"`
	Value  string `json:"value,omitempty"`
}

// Card bundles the two pieces of state a question card keeps between clicks.
type Card struct {
	Drill  models.DrillState `json:"drill"`
	Filter models.CardFilter `json:"filter"`
}

// New returns a state at level 0.
func New() models.DrillState {
	return models.DrillState{Level: models.LevelNone}
}

// Clear resets to level 0 from any state.
func Clear() models.DrillState {
	return New()
}

// ClickSentiment toggles the active sentiment: the active one returns to
// level 0, any other moves to level 1 with no category.
func ClickSentiment(s models.DrillState, value string) models.DrillState {
	value = strings.TrimSpace(value)
	if value == "" {
		return s
	}
	if s.Level >= models.LevelSentiment && s.Sentiment != nil && *s.Sentiment == value {
		return New()
	}
	return models.DrillState{Level: models.LevelSentiment, Sentiment: strPtr(value)}
}

// ClickCategory toggles the active category under the current sentiment.
// Categories are only shown once a sentiment is chosen, so a click at
// level 0 changes nothing.
func ClickCategory(s models.DrillState, value string) models.DrillState {
	value = strings.TrimSpace(value)
	if value == "" || s.Level < models.LevelSentiment || s.Sentiment == nil {
		return s
	}
	if s.Level == models.LevelCategory && s.Category != nil && *s.Category == value {
		return models.DrillState{Level: models.LevelSentiment, Sentiment: strPtr(*s.Sentiment)}
	}
	return models.DrillState{
		Level:     models.LevelCategory,
		Sentiment: strPtr(*s.Sentiment),
		Category:  strPtr(value),
	}
}

// ClickTopic never changes the drill state; topics are the last level.
func ClickTopic(s models.DrillState, _ string) models.DrillState {
	return s
}

// Apply routes an event to its transition. Unknown targets leave s as is.
func Apply(s models.DrillState, ev Event) models.DrillState {
	switch ev.Target {
	case TargetSentiment:
		return ClickSentiment(s, ev.Value)
	case TargetCategory:
		return ClickCategory(s, ev.Value)
	case TargetTopic:
		return ClickTopic(s, ev.Value)
	case TargetClear:
		return Clear()
	}
	return s
}

// ToggleCategory sets the category quick filter, or unsets it when value is
// already active. The topic filter is always dropped.
func ToggleCategory(f models.CardFilter, value string) models.CardFilter {
	value = strings.TrimSpace(value)
	if value == "" {
		return f
	}
	if f.Category != nil && *f.Category == value {
		return models.CardFilter{}
	}
	return models.CardFilter{Category: strPtr(value)}
}

// ToggleTopic is ToggleCategory for topics; the category filter is dropped.
func ToggleTopic(f models.CardFilter, value string) models.CardFilter {
	value = strings.TrimSpace(value)
	if value == "" {
		return f
	}
	if f.Topic != nil && *f.Topic == value {
		return models.CardFilter{}
	}
	return models.CardFilter{Topic: strPtr(value)}
}

// ApplyFilter routes an event to the quick filter. Sentiment clicks do not
// touch it.
func ApplyFilter(f models.CardFilter, ev Event) models.CardFilter {
	switch ev.Target {
	case TargetCategory:
		return ToggleCategory(f, ev.Value)
	case TargetTopic:
		return ToggleTopic(f, ev.Value)
	case TargetClear:
		return models.CardFilter{}
	}
	return f
}

// Step applies one click to both the drill state and the quick filter, the
// way a single chart click on a card updates both.
func (c Card) Step(ev Event) Card {
	return Card{Drill: Apply(c.Drill, ev), Filter: ApplyFilter(c.Filter, ev)}
}

// Active reports whether the card shows anything beyond its default view.
func (c Card) Active() bool {
	return c.Drill.Level > models.LevelNone || c.Filter.Category != nil || c.Filter.Topic != nil
}

func strPtr(s string) *string {
	return &s
}
