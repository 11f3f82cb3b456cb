package drill

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ai2c-dataviz/internal/models"
)

func state(level models.DrillLevel, sentiment, category string) models.DrillState {
	s := models.DrillState{Level: level}
	if sentiment != "" {
		s.Sentiment = &sentiment
	}
	if category != "" {
		s.Category = &category
	}
	return s
}

// ==========================
// Drill transitions
// ==========================

func TestApply_TransitionTable(t *testing.T) {
	tests := []struct {
		name  string
		from  models.DrillState
		event Event
		want  models.DrillState
	}{
		{"sentiment from level 0", New(), Event{TargetSentiment, "positivo"}, state(1, "positivo", "")},
		{"same sentiment toggles off", state(1, "positivo", ""), Event{TargetSentiment, "positivo"}, New()},
		{"other sentiment replaces", state(1, "positivo", ""), Event{TargetSentiment, "negativo"}, state(1, "negativo", "")},
		{"sentiment at level 2 clears category", state(2, "positivo", "preço"), Event{TargetSentiment, "neutro"}, state(1, "neutro", "")},
		{"same sentiment at level 2 toggles off", state(2, "positivo", "preço"), Event{TargetSentiment, "positivo"}, New()},
		{"category from level 1", state(1, "positivo", ""), Event{TargetCategory, "preço"}, state(2, "positivo", "preço")},
		{"same category toggles back", state(2, "positivo", "preço"), Event{TargetCategory, "preço"}, state(1, "positivo", "")},
		{"other category replaces", state(2, "positivo", "preço"), Event{TargetCategory, "prazo"}, state(2, "positivo", "prazo")},
		{"category at level 0 ignored", New(), Event{TargetCategory, "preço"}, New()},
		{"topic never moves", state(2, "positivo", "preço"), Event{TargetTopic, "frete"}, state(2, "positivo", "preço")},
		{"clear from level 2", state(2, "positivo", "preço"), Event{Target: TargetClear}, New()},
		{"clear from level 0", New(), Event{Target: TargetClear}, New()},
		{"blank label ignored", state(1, "positivo", ""), Event{TargetSentiment, "  "}, state(1, "positivo", "")},
		{"unknown target ignored", state(1, "positivo", ""), Event{Target: "answers", Value: "x"}, state(1, "positivo", "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Apply(tt.from, tt.event))
		})
	}
}

func TestApply_Sequence(t *testing.T) {
	s := New()
	s = ClickSentiment(s, "A")
	assert.Equal(t, state(1, "A", ""), s)
	s = ClickCategory(s, "B")
	assert.Equal(t, state(2, "A", "B"), s)
	s = ClickCategory(s, "B")
	assert.Equal(t, state(1, "A", ""), s)
	s = ClickSentiment(s, "A")
	assert.Equal(t, New(), s)
}

func TestApply_DoesNotAlias(t *testing.T) {
	from := state(1, "A", "")
	next := ClickCategory(from, "B")
	*next.Sentiment = "changed"
	assert.Equal(t, "A", *from.Sentiment)
}

// ==========================
// Quick filter
// ==========================

func TestApplyFilter(t *testing.T) {
	cat := func(v string) models.CardFilter { return models.CardFilter{Category: &v} }
	top := func(v string) models.CardFilter { return models.CardFilter{Topic: &v} }

	tests := []struct {
		name  string
		from  models.CardFilter
		event Event
		want  models.CardFilter
	}{
		{"set category", models.CardFilter{}, Event{TargetCategory, "preço"}, cat("preço")},
		{"toggle category off", cat("preço"), Event{TargetCategory, "preço"}, models.CardFilter{}},
		{"category replaces topic", top("frete"), Event{TargetCategory, "preço"}, cat("preço")},
		{"topic replaces category", cat("preço"), Event{TargetTopic, "frete"}, top("frete")},
		{"toggle topic off", top("frete"), Event{TargetTopic, "frete"}, models.CardFilter{}},
		{"sentiment leaves filter", cat("preço"), Event{TargetSentiment, "positivo"}, cat("preço")},
		{"clear", top("frete"), Event{Target: TargetClear}, models.CardFilter{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ApplyFilter(tt.from, tt.event))
		})
	}
}

func TestCard_Step(t *testing.T) {
	var c Card
	assert.False(t, c.Active())

	c = c.Step(Event{TargetSentiment, "negativo"})
	c = c.Step(Event{TargetCategory, "atendimento"})
	assert.Equal(t, state(2, "negativo", "atendimento"), c.Drill)
	assert.Equal(t, "atendimento", *c.Filter.Category)
	assert.True(t, c.Active())

	c = c.Step(Event{Target: TargetClear})
	assert.Equal(t, Card{Drill: New()}, c)
	assert.False(t, c.Active())
}

func TestTarget_Valid(t *testing.T) {
	assert.True(t, TargetTopic.Valid())
	assert.False(t, Target("answers").Valid())
}
