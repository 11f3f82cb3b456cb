package models

import (
	"strconv"
	"strings"
	"time"
)

// Column names of the analytics cube produced by the upstream classification pipeline.
const (
	ColQuestionnaireID     = "questionnaire_id"
	ColSurveyID            = "survey_id"
	ColRespondentID        = "respondent_id"
	ColDateOfResponse      = "date_of_response"
	ColQuestionID          = "question_id"
	ColOrigAnswer          = "orig_answer"
	ColAnswer              = "answer"
	ColCategory            = "category"
	ColTopic               = "topic"
	ColSentiment           = "sentiment"
	ColIntention           = "intention"
	ColConfidenceLevel     = "confidence_level"
	ColQuestionDescription = "question_description"
)

// RequiredColumns must all be present in a source table or the load is rejected.
var RequiredColumns = []string{
	ColQuestionnaireID,
	ColSurveyID,
	ColRespondentID,
	ColDateOfResponse,
	ColQuestionID,
	ColOrigAnswer,
	ColCategory,
	ColTopic,
	ColSentiment,
	ColIntention,
	ColConfidenceLevel,
	ColQuestionDescription,
}

// StructuralColumns are never offered as segmentation dimensions.
func StructuralColumns() map[string]struct{} {
	out := make(map[string]struct{}, len(RequiredColumns)+2)
	for _, c := range RequiredColumns {
		out[c] = struct{}{}
	}
	out[ColAnswer] = struct{}{}
	out[ColOrigAnswer] = struct{}{}
	out[ColRespondentID] = struct{}{}
	return out
}

// Sentiment is the normalized sentiment label; the zero value means null.
type Sentiment string

const (
	SentimentNegative Sentiment = "negativo"
	SentimentNeutral  Sentiment = "neutro"
	SentimentPositive Sentiment = "positivo"
)

// SentimentOrder is the display order used by every sentiment chart.
var SentimentOrder = []Sentiment{SentimentNegative, SentimentNeutral, SentimentPositive}

var sentimentAliases = map[string]Sentiment{
	"pos":      SentimentPositive,
	"positivo": SentimentPositive,
	"positive": SentimentPositive,
	"neg":      SentimentNegative,
	"negativo": SentimentNegative,
	"negative": SentimentNegative,
	"neu":      SentimentNeutral,
	"neutro":   SentimentNeutral,
	"neutral":  SentimentNeutral,
}

// NormalizeSentiment maps the pipeline's sentiment spellings onto the three canonical labels.
// Unknown labels are kept lowercased so they still show up in tallies.
func NormalizeSentiment(raw string) Sentiment {
	v := strings.ToLower(strings.TrimSpace(raw))
	if IsMissing(v) {
		return ""
	}
	if s, ok := sentimentAliases[v]; ok {
		return s
	}
	return Sentiment(v)
}

// IsMissing reports whether a cleaned cell value should be treated as null.
func IsMissing(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "nan", "none", "null":
		return true
	}
	return false
}

// ResponseRow is one (respondent, question) observation.
type ResponseRow struct {
	QuestionnaireID     string
	SurveyID            string
	RespondentID        string
	QuestionID          string
	QuestionDescription string
	DateOfResponse      *time.Time
	OrigAnswer          string
	Answer              string
	Category            string
	Topic               string
	Sentiment           Sentiment
	Intention           string
	ConfidenceLevel     *float64

	// Attributes holds the open set of segmentation columns supplied by the source.
	Attributes map[string]string
}

// Value returns the string form of any column of the row. The second return is
// false when the column does not exist on the row or holds a null. Category,
// topic and segmentation attributes treat blank and "nan"/"none"/"null" as null.
func (r *ResponseRow) Value(column string) (string, bool) {
	switch column {
	case ColQuestionnaireID:
		return r.QuestionnaireID, true
	case ColSurveyID:
		return r.SurveyID, true
	case ColRespondentID:
		return r.RespondentID, true
	case ColQuestionID:
		return r.QuestionID, true
	case ColQuestionDescription:
		return r.QuestionDescription, true
	case ColDateOfResponse:
		if r.DateOfResponse == nil {
			return "", false
		}
		return r.DateOfResponse.Format("2006-01-02 15:04:05"), true
	case ColOrigAnswer:
		return r.OrigAnswer, true
	case ColAnswer:
		return r.Answer, true
	case ColCategory:
		return present(r.Category)
	case ColTopic:
		return present(r.Topic)
	case ColSentiment:
		if r.Sentiment == "" {
			return "", false
		}
		return string(r.Sentiment), true
	case ColIntention:
		return r.Intention, true
	case ColConfidenceLevel:
		if r.ConfidenceLevel == nil {
			return "", false
		}
		return strconv.FormatFloat(*r.ConfidenceLevel, 'f', -1, 64), true
	}
	v, ok := r.Attributes[column]
	if !ok {
		return "", false
	}
	return present(v)
}

// present trims a segmentation value and reports null sentinels as missing.
func present(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if IsMissing(v) {
		return "", false
	}
	return v, true
}

// ResponseTable is immutable once loaded. Rows are shared read-only between requests.
type ResponseTable struct {
	// Columns lists every column of the source in source order, including "answer".
	Columns     []string
	Rows        []ResponseRow
	Fingerprint uint64
}

// EmptyTable is what callers see when a table is not available.
func EmptyTable() *ResponseTable {
	return &ResponseTable{}
}

func (t *ResponseTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

func (t *ResponseTable) IsEmpty() bool {
	return t.Len() == 0
}

// HasColumn reports whether the table carries the named column.
func (t *ResponseTable) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// QuestionRows returns the rows answering a question, in table order.
func (t *ResponseTable) QuestionRows(questionID string) []ResponseRow {
	if t == nil {
		return nil
	}
	out := make([]ResponseRow, 0)
	for _, r := range t.Rows {
		if r.QuestionID == questionID {
			out = append(out, r)
		}
	}
	return out
}

// Answers projects the answer column, keeping nulls as nil.
func Answers(rows []ResponseRow) []*string {
	out := make([]*string, len(rows))
	for i := range rows {
		if IsMissing(rows[i].Answer) {
			continue
		}
		a := rows[i].Answer
		out[i] = &a
	}
	return out
}
