// Package workertest holds the fixtures shared by the analytics worker tests.
package workertest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"

	"ai2c-dataviz/internal/models"
)

const (
	Env       = "dev"
	SurveyKey = "survey-001"
)

// Provider is an in-memory dataset.Provider.
type Provider struct {
	mu      sync.Mutex
	tables  map[string]*models.ResponseTable
	schemas map[string]models.Schema

	// Err is returned by Table when set.
	Err error
}

func NewProvider() *Provider {
	return &Provider{
		tables:  map[string]*models.ResponseTable{},
		schemas: map[string]models.Schema{},
	}
}

func key(env, surveyKey string) string { return env + "/" + surveyKey }

// WithTable registers the table for the default env and survey key.
func (p *Provider) WithTable(t *models.ResponseTable) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tables[key(Env, SurveyKey)] = t
	return p
}

// WithSchema registers the schema for the default env and survey key.
func (p *Provider) WithSchema(s models.Schema) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.schemas[key(Env, SurveyKey)] = s
	return p
}

func (p *Provider) Table(_ context.Context, env, surveyKey string) (*models.ResponseTable, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	if t, ok := p.tables[key(env, surveyKey)]; ok {
		return t, nil
	}
	return models.EmptyTable(), nil
}

func (p *Provider) Schema(_ context.Context, env, surveyKey string) models.Schema {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.schemas[key(env, surveyKey)]
}

// Day returns 2024-01-d 10:30 UTC.
func Day(d int) *time.Time {
	t := time.Date(2024, 1, d, 10, 30, 0, 0, time.UTC)
	return &t
}

// Row builds a response row; attrs are extra segmentation columns.
func Row(qid, respondent, answer string, sentiment models.Sentiment, category, topic string, at *time.Time, attrs map[string]string) models.ResponseRow {
	if attrs == nil {
		attrs = map[string]string{}
	}
	return models.ResponseRow{
		QuestionnaireID:     "qn-1",
		SurveyID:            "s-1",
		RespondentID:        respondent,
		QuestionID:          qid,
		QuestionDescription: "Description of " + qid,
		DateOfResponse:      at,
		OrigAnswer:          answer,
		Answer:              answer,
		Category:            category,
		Topic:               topic,
		Sentiment:           sentiment,
		Attributes:          attrs,
	}
}

// SurveyTable is a small survey with one question of each type:
//
//	Q1 single choice (Ótimo:5, Ruim:3, Bom:2), region N/S
//	Q2 multiple choice (a:2, b:2, c:2)
//	Q3 numeric 0-10
//	Q4 open text with sentiment, category and topic
//
// Every row carries a "region" attribute and an "email" column.
func SurveyTable() *models.ResponseTable {
	rows := make([]models.ResponseRow, 0, 32)
	add := func(qid, respondent, answer string, s models.Sentiment, cat, topic string, d int, region string) {
		rows = append(rows, Row(qid, respondent, answer, s, cat, topic, Day(d), map[string]string{
			"region": region,
			"email":  respondent + "@example.com",
		}))
	}

	q1 := []string{"Ótimo", "Ótimo", "Ruim", "Ótimo", "Bom", "Ruim", "Ótimo", "Bom", "Ótimo", "Ruim"}
	for i, a := range q1 {
		region := "N"
		if i%2 == 1 {
			region = "S"
		}
		add("Q1", fmt.Sprintf("r%02d", i), a, models.SentimentPositive, "service", "speed", i+1, region)
	}

	for i, a := range []string{"a;b", "a", "b;c", "c"} {
		add("Q2", fmt.Sprintf("r%02d", i), a, models.SentimentNeutral, "product", "range", i+1, "N")
	}

	for i, a := range []string{"0", "5", "7", "10", "9", "8"} {
		add("Q3", fmt.Sprintf("r%02d", i), a, models.SentimentPositive, "nps", "score", i+1, "S")
	}

	open := []struct {
		answer   string
		s        models.Sentiment
		cat, top string
	}{
		{"atendimento muito demorado na loja", models.SentimentNegative, "service", "wait"},
		{"atendimento excelente e rápido", models.SentimentPositive, "service", "speed"},
		{"preço alto para a qualidade", models.SentimentNegative, "price", "value"},
		{"produto chegou quebrado", models.SentimentNegative, "product", "damage"},
		{"entrega dentro do prazo", models.SentimentNeutral, "delivery", "time"},
	}
	for i, o := range open {
		add("Q4", fmt.Sprintf("r%02d", i), o.answer, o.s, o.cat, o.top, i+1, "N")
	}

	cols := append(append([]string{}, models.RequiredColumns...), models.ColAnswer, "region", "email")
	return &models.ResponseTable{Columns: cols, Rows: rows, Fingerprint: 1}
}

// Job wraps variables in an activated job of taskType.
func Job(key int64, taskType string, variables interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)

	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                      key,
		Type:                     taskType,
		ProcessInstanceKey:       key * 10,
		BpmnProcessId:            "survey-dashboard",
		ProcessDefinitionVersion: 1,
		ProcessDefinitionKey:     1,
		ElementId:                "Activity_" + taskType,
		ElementInstanceKey:       1,
		CustomHeaders:            "{}",
		Worker:                   "test-worker",
		Retries:                  3,
		Variables:                string(variablesJSON),
	}}
}
