// Package dataset loads survey response tables from their sources, enforces
// the required-column contract and keeps loaded tables in the table cache.
package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/xxh3"

	apperrors "ai2c-dataviz/internal/common/errors"
	"ai2c-dataviz/internal/models"
)

// dateLayouts are tried in order for date_of_response.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006 15:04",
	"02/01/2006",
}

// ParseDate returns nil when no layout matches.
func ParseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if models.IsMissing(raw) {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

func parseConfidence(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if models.IsMissing(raw) {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}

// ParseCSV reads a whole analytics cube. source names the origin in errors.
func ParseCSV(data []byte, delimiter rune, source string) (*models.ResponseTable, error) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	r := csv.NewReader(bytes.NewReader(data))
	if delimiter != 0 {
		r.Comma = delimiter
	}
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperrors.NewTableUnparsableError(source, errors.New("no header row"))
	}
	if err != nil {
		return nil, apperrors.NewTableUnparsableError(source, err)
	}
	records, err := r.ReadAll()
	if err != nil {
		return nil, apperrors.NewTableUnparsableError(source, err)
	}
	return FromRecords(header, records)
}

// FromRecords builds a table from a header and its records. Every required
// column must be in the header; short records are padded with blanks.
func FromRecords(header []string, records [][]string) (*models.ResponseTable, error) {
	cols := make([]string, len(header))
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		cols[i] = h
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	missing := make([]string, 0)
	for _, c := range models.RequiredColumns {
		if _, ok := index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewRequiredColumnsMissingError(missing)
	}

	_, hasAnswer := index[models.ColAnswer]
	table := &models.ResponseTable{
		Columns: append([]string(nil), cols...),
		Rows:    make([]models.ResponseRow, 0, len(records)),
	}
	if !hasAnswer {
		table.Columns = append(table.Columns, models.ColAnswer)
	}

	for _, rec := range records {
		cell := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		row := models.ResponseRow{
			QuestionnaireID:     cell(models.ColQuestionnaireID),
			SurveyID:            cell(models.ColSurveyID),
			RespondentID:        cell(models.ColRespondentID),
			QuestionID:          cell(models.ColQuestionID),
			QuestionDescription: cell(models.ColQuestionDescription),
			DateOfResponse:      ParseDate(cell(models.ColDateOfResponse)),
			OrigAnswer:          cell(models.ColOrigAnswer),
			Category:            cell(models.ColCategory),
			Topic:               cell(models.ColTopic),
			Sentiment:           models.NormalizeSentiment(cell(models.ColSentiment)),
			Intention:           cell(models.ColIntention),
			ConfidenceLevel:     parseConfidence(cell(models.ColConfidenceLevel)),
			Attributes:          make(map[string]string),
		}
		if hasAnswer {
			row.Answer = cell(models.ColAnswer)
		} else {
			row.Answer = row.OrigAnswer
		}
		for name, i := range index {
			if isCoreColumn(name) || i >= len(rec) {
				continue
			}
			row.Attributes[name] = strings.TrimSpace(rec[i])
		}
		table.Rows = append(table.Rows, row)
	}

	table.Fingerprint = fingerprint(cols, records)
	return table, nil
}

func isCoreColumn(name string) bool {
	if name == models.ColAnswer {
		return true
	}
	for _, c := range models.RequiredColumns {
		if c == name {
			return true
		}
	}
	return false
}

// fingerprint hashes the header and every cell, with separators so that
// shifting a value between cells changes the hash.
func fingerprint(header []string, records [][]string) uint64 {
	h := xxh3.New()
	for _, c := range header {
		h.WriteString(c)
		h.WriteString("\x1f")
	}
	h.WriteString("\x1e")
	for _, rec := range records {
		for _, v := range rec {
			h.WriteString(v)
			h.WriteString("\x1f")
		}
		h.WriteString("\x1e")
	}
	return h.Sum64()
}
