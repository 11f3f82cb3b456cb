package schema

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"ai2c-dataviz/internal/models"
)

// ratingKeywords force a question to numeric when its title mentions a
// satisfaction or rating scale, whatever type the source declares.
var ratingKeywords = []string{"satisf", "rating", "nota", "avali", "escala", "nps"}

var tabularTypes = map[string]models.VizType{
	"numeric":         models.VizNumeric,
	"number":          models.VizNumeric,
	"rating":          models.VizNumeric,
	"scale":           models.VizNumeric,
	"nps":             models.VizNumeric,
	"single-choice":   models.VizSingleChoice,
	"single":          models.VizSingleChoice,
	"radio":           models.VizSingleChoice,
	"dropdown":        models.VizSingleChoice,
	"categorical":     models.VizSingleChoice,
	"multiple-choice": models.VizMultipleChoice,
	"multiple":        models.VizMultipleChoice,
	"checkbox":        models.VizMultipleChoice,
	"multi":           models.VizMultipleChoice,
}

// tabularVizType maps a question_type cell. Unknown types are open-ended.
func tabularVizType(raw string) models.VizType {
	if v, ok := tabularTypes[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return v
	}
	return models.VizOpenEnded
}

// elementVizType maps a survey-definition element type.
func elementVizType(e surveyElement) models.VizType {
	switch strings.ToLower(e.Type) {
	case "checkbox", "tagbox":
		if e.MaxSelectedChoices != nil && *e.MaxSelectedChoices == 1 {
			return models.VizSingleChoice
		}
		return models.VizMultipleChoice
	case "radiogroup", "dropdown", "boolean", "imagepicker":
		return models.VizSingleChoice
	case "rating", "nps", "slider":
		return models.VizNumeric
	case "text":
		switch strings.ToLower(e.InputType) {
		case "number", "range":
			return models.VizNumeric
		}
	}
	return models.VizOpenEnded
}

// foldAccents lowercases s and strips combining marks, so "Satisfação" and
// "satisfacao" compare equal.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// isRatingTitle reports whether a question title names a rating scale.
func isRatingTitle(title string) bool {
	folded := foldAccents(title)
	for _, kw := range ratingKeywords {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}

// finalize applies the rating-title override to every entry.
func finalize(s models.Schema) models.Schema {
	for qid, e := range s {
		if isRatingTitle(e.Title) {
			e.VizType = models.VizNumeric
			s[qid] = e
		}
	}
	return s
}
