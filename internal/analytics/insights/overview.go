// Package insights builds the read-only views of a survey dataset: the
// overview numbers, question listing, timelines, distributions and the
// per-question card.
package insights

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"ai2c-dataviz/internal/analytics/classifier"
	"ai2c-dataviz/internal/analytics/guard"
	"ai2c-dataviz/internal/models"
)

// Options are the display caps of every view.
type Options struct {
	HistogramBins int
	TopOptions    int
	TopCategories int
	TopTopics     int
	TopTokens     int
	TopicHead     int
	RawSampleSize int
}

func DefaultOptions() Options {
	return Options{
		HistogramBins: 20,
		TopOptions:    20,
		TopCategories: 60,
		TopTopics:     100,
		TopTokens:     20,
		TopicHead:     50,
		RawSampleSize: 300,
	}
}

// numericColumnShare is the share of rows that must parse as numbers for a
// column to be offered as a pivot metric.
const numericColumnShare = 0.7

const questionLabelMax = 120

// Stats summarizes a table.
type Stats struct {
	TotalResponses    int        `json:"totalResponses"`
	UniqueRespondents int        `json:"uniqueRespondents"`
	UniqueQuestions   int        `json:"uniqueQuestions"`
	Start             *time.Time `json:"start,omitempty"`
	End               *time.Time `json:"end,omitempty"`
}

// DatasetStats counts responses, respondents and questions and finds the
// first and last response date.
func DatasetStats(table *models.ResponseTable) Stats {
	var s Stats
	if table.IsEmpty() {
		return s
	}
	respondents := make(map[string]struct{})
	questions := make(map[string]struct{})
	for i := range table.Rows {
		r := &table.Rows[i]
		s.TotalResponses++
		respondents[r.RespondentID] = struct{}{}
		questions[r.QuestionID] = struct{}{}
		if r.DateOfResponse == nil {
			continue
		}
		if s.Start == nil || r.DateOfResponse.Before(*s.Start) {
			s.Start = r.DateOfResponse
		}
		if s.End == nil || r.DateOfResponse.After(*s.End) {
			s.End = r.DateOfResponse
		}
	}
	s.UniqueRespondents = len(respondents)
	s.UniqueQuestions = len(questions)
	return s
}

// Question is one entry of the question listing.
type Question struct {
	ID          string `json:"questionId"`
	Description string `json:"description"`
	Label       string `json:"label"`
}

var trailingDigits = regexp.MustCompile(`(\d+)$`)

func numericSuffix(id string) float64 {
	m := trailingDigits.FindStringSubmatch(id)
	if m == nil {
		return math.Inf(1)
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return math.Inf(1)
	}
	return n
}

// OrderedQuestions lists each question once, ordered by the number at the end
// of its id (ids without one go last) and then by id.
func OrderedQuestions(table *models.ResponseTable) []Question {
	out := make([]Question, 0)
	if table.IsEmpty() {
		return out
	}
	index := make(map[string]int)
	for i := range table.Rows {
		r := &table.Rows[i]
		desc := strings.TrimSpace(r.QuestionDescription)
		if models.IsMissing(desc) {
			desc = ""
		}
		if at, ok := index[r.QuestionID]; ok {
			if out[at].Description == "" && desc != "" {
				out[at].Description = desc
			}
			continue
		}
		index[r.QuestionID] = len(out)
		out = append(out, Question{ID: r.QuestionID, Description: desc})
	}

	sort.SliceStable(out, func(i, j int) bool {
		si, sj := numericSuffix(out[i].ID), numericSuffix(out[j].ID)
		if si != sj {
			return si < sj
		}
		return out[i].ID < out[j].ID
	})
	for i := range out {
		out[i].Label = questionLabel(out[i])
	}
	return out
}

func questionLabel(q Question) string {
	if q.Description == "" {
		return q.ID
	}
	r := []rune(q.Description)
	if len(r) > questionLabelMax {
		return string(r[:questionLabelMax])
	}
	return q.Description
}

// NumericColumns lists the non-structural, non-PII columns where more than
// 70% of the rows hold a number. These are the pivot metrics besides count.
func NumericColumns(table *models.ResponseTable) []string {
	out := make([]string, 0)
	if table.IsEmpty() {
		return out
	}
	structural := models.StructuralColumns()
	for _, c := range table.Columns {
		if _, skip := structural[c]; skip || guard.IsPII(c) {
			continue
		}
		numeric := 0
		for i := range table.Rows {
			if v, ok := table.Rows[i].Value(c); ok && classifier.IsNumber(v) {
				numeric++
			}
		}
		if float64(numeric)/float64(table.Len()) > numericColumnShare {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// PivotDimensions is the dimension picker: the allowed segmentation columns
// plus sentiment, category and topic, minus any metric column.
func PivotDimensions(allowed, numeric []string) []string {
	skip := make(map[string]struct{}, len(numeric))
	for _, c := range numeric {
		skip[c] = struct{}{}
	}
	seen := make(map[string]struct{})
	out := make([]string, 0, len(allowed)+3)
	for _, c := range append(append([]string(nil), allowed...), models.ColSentiment, models.ColCategory, models.ColTopic) {
		if _, ok := skip[c]; ok {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Sample is a PII-free excerpt of the table.
type Sample struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Total   int        `json:"total"`
}

// RawSample returns up to limit rows without PII-like columns, orig_answer
// or survey_id, with respondent_id as the first column.
func RawSample(table *models.ResponseTable, limit int) Sample {
	s := Sample{Columns: []string{}, Rows: [][]string{}, Total: table.Len()}
	if table.IsEmpty() {
		return s
	}
	hasRespondent := false
	for _, c := range table.Columns {
		switch {
		case c == models.ColOrigAnswer, c == models.ColSurveyID, guard.IsPII(c):
			continue
		case c == models.ColRespondentID:
			hasRespondent = true
			continue
		}
		s.Columns = append(s.Columns, c)
	}
	if hasRespondent {
		s.Columns = append([]string{models.ColRespondentID}, s.Columns...)
	}

	n := table.Len()
	if limit > 0 && limit < n {
		n = limit
	}
	for i := 0; i < n; i++ {
		row := make([]string, len(s.Columns))
		for j, c := range s.Columns {
			row[j], _ = table.Rows[i].Value(c)
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}
