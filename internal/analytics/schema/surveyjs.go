package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"ai2c-dataviz/internal/common/validation"
	"ai2c-dataviz/internal/models"
)

// surveyDocumentSchema is the subset of the survey-definition format the
// resolver relies on.
var surveyDocumentSchema = validation.MustCompileJSON(`{
  "type": "object",
  "required": ["pages"],
  "properties": {
    "pages": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "elements": {"type": "array", "items": {"$ref": "#/definitions/element"}}
        }
      }
    }
  },
  "definitions": {
    "element": {
      "type": "object",
      "required": ["type"],
      "properties": {
        "name": {"type": "string"},
        "type": {"type": "string"},
        "inputType": {"type": "string"},
        "maxSelectedChoices": {"type": "integer"},
        "choices": {"type": "array"},
        "elements": {"type": "array", "items": {"$ref": "#/definitions/element"}}
      }
    }
  }
}`)

type surveyDocument struct {
	Pages []struct {
		Elements []surveyElement `json:"elements"`
	} `json:"pages"`
}

type surveyElement struct {
	Name               string            `json:"name"`
	Type               string            `json:"type"`
	InputType          string            `json:"inputType"`
	Title              json.RawMessage   `json:"title"`
	MaxSelectedChoices *int              `json:"maxSelectedChoices"`
	Choices            []json.RawMessage `json:"choices"`
	Elements           []surveyElement   `json:"elements"`
}

// Display-only elements carry no answers.
var skippedElementTypes = map[string]struct{}{
	"html":       {},
	"image":      {},
	"expression": {},
}

// parseSurveyJSON reads a survey definition (pages → elements → choices).
func parseSurveyJSON(data []byte) (models.Schema, error) {
	res, err := surveyDocumentSchema.ValidateBytes(data)
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		return nil, fmt.Errorf("survey definition rejected: %s", res.Summary())
	}

	var doc surveyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode survey definition: %w", err)
	}

	out := make(models.Schema)
	for _, page := range doc.Pages {
		collectElements(page.Elements, out)
	}
	return out, nil
}

func collectElements(elements []surveyElement, out models.Schema) {
	for _, e := range elements {
		typ := strings.ToLower(e.Type)
		if typ == "panel" || typ == "paneldynamic" {
			collectElements(e.Elements, out)
			continue
		}
		if _, skip := skippedElementTypes[typ]; skip || e.Name == "" {
			continue
		}
		if _, dup := out[e.Name]; dup {
			continue
		}

		title := localizedText(e.Title)
		if title == "" {
			title = e.Name
		}
		options := make([]string, 0, len(e.Choices))
		for _, c := range e.Choices {
			if label := choiceLabel(c); label != "" {
				options = append(options, label)
			}
		}
		out[e.Name] = models.QuestionSchemaEntry{
			VizType: elementVizType(e),
			Options: options,
			Title:   title,
		}
	}
}

// localizedText accepts either a plain string or a locale map, preferring
// the "default" locale and otherwise the first locale in name order.
func localizedText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil || len(m) == 0 {
		return ""
	}
	if v, ok := m["default"]; ok {
		return strings.TrimSpace(v)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.TrimSpace(m[keys[0]])
}

// choiceLabel accepts a bare value or a {value, text} pair.
func choiceLabel(raw json.RawMessage) string {
	if label := scalarText(raw); label != "" {
		return label
	}
	var pair struct {
		Value json.RawMessage `json:"value"`
		Text  json.RawMessage `json:"text"`
	}
	if err := json.Unmarshal(raw, &pair); err != nil {
		return ""
	}
	if text := localizedText(pair.Text); text != "" {
		return text
	}
	return scalarText(pair.Value)
}

func scalarText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b)
	}
	return ""
}
