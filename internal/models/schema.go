package models

// VizType is the rendering/aggregation treatment for a question.
type VizType string

const (
	VizNumeric        VizType = "numeric"
	VizSingleChoice   VizType = "single-choice"
	VizMultipleChoice VizType = "multiple-choice"
	VizOpenEnded      VizType = "open-ended"
)

func (v VizType) Valid() bool {
	switch v {
	case VizNumeric, VizSingleChoice, VizMultipleChoice, VizOpenEnded:
		return true
	}
	return false
}

// QuestionSchemaEntry is the authoritative description of one question.
type QuestionSchemaEntry struct {
	VizType VizType  `json:"vizType"`
	Options []string `json:"options,omitempty"`
	Title   string   `json:"title,omitempty"`
}

// Schema maps question_id to its entry. A nil or empty Schema means heuristic-only.
type Schema map[string]QuestionSchemaEntry

// Lookup returns the entry for a question, if the schema declares one.
func (s Schema) Lookup(questionID string) (QuestionSchemaEntry, bool) {
	if s == nil {
		return QuestionSchemaEntry{}, false
	}
	e, ok := s[questionID]
	return e, ok
}
