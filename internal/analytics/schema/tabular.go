package schema

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"ai2c-dataviz/internal/models"
)

const (
	tabularDelimiter = ';'
	optionDelimiter  = "|"
)

// parseQuestionnaireCSV reads the flat questionnaire export: one row per
// question with question_id, question_description, question_type and
// answer_options (options joined by "|").
func parseQuestionnaireCSV(data []byte) (models.Schema, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\ufeff"))))
	r.Comma = tabularDelimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return models.Schema{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read questionnaire header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range []string{"question_id", "question_type"} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("questionnaire missing column %q", col)
		}
	}

	cell := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	out := make(models.Schema)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read questionnaire row: %w", err)
		}

		qid := cell(rec, "question_id")
		if qid == "" {
			continue
		}
		if _, dup := out[qid]; dup {
			continue
		}

		title := cell(rec, "question_description")
		if title == "" {
			title = qid
		}
		out[qid] = models.QuestionSchemaEntry{
			VizType: tabularVizType(cell(rec, "question_type")),
			Options: splitOptions(cell(rec, "answer_options")),
			Title:   title,
		}
	}
	return out, nil
}

func splitOptions(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, optionDelimiter)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
