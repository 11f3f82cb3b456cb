package insights

import (
	"ai2c-dataviz/internal/analytics/classifier"
	"ai2c-dataviz/internal/analytics/drill"
	"ai2c-dataviz/internal/analytics/transform"
	"ai2c-dataviz/internal/models"
)

// Segment restricts a card to rows whose Column value is one of Values.
type Segment struct {
	Column string   `json:"column,omitempty"`
	Values []string `json:"values,omitempty"`
}

func (s Segment) Active() bool {
	return s.Column != "" && len(s.Values) > 0
}

// HistogramBin is one interval of a numeric answer histogram.
type HistogramBin struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// View is everything a question card displays for one state.
type View struct {
	QuestionID string         `json:"questionId"`
	VizType    models.VizType `json:"vizType"`
	FromSchema bool           `json:"fromSchema"`
	Responses  int            `json:"responses"`

	Histogram  []HistogramBin `json:"histogram,omitempty"`
	Options    []Count        `json:"options,omitempty"`
	Sentiments []Count        `json:"sentiments,omitempty"`
	Categories []Count        `json:"categories,omitempty"`
	Topics     []Count        `json:"topics,omitempty"`
	Tokens     []Count        `json:"tokens,omitempty"`

	Card drill.Card `json:"card"`
}

// QuestionView renders a question card. The type is resolved over every
// answer of the question; the segment and then the card's quick filter
// narrow the rows that are counted. Open-ended questions show sentiments,
// then categories for the chosen sentiment, then topics for the chosen
// category.
func QuestionView(table *models.ResponseTable, questionID string, schema models.Schema, seg Segment, card drill.Card, opts Options) View {
	all := table.QuestionRows(questionID)
	res := classifier.Resolve(questionID, models.Answers(all), schema)
	v := View{QuestionID: questionID, VizType: res.VizType, FromSchema: res.FromSchema, Card: card}

	rows := applyCardFilter(applySegment(table, all, seg), card.Filter)
	v.Responses = len(rows)

	switch res.VizType {
	case models.VizNumeric:
		v.Histogram = histogram(rows, opts.HistogramBins)
	case models.VizMultipleChoice:
		tokens := make([]string, 0, len(rows))
		for i := range rows {
			tokens = append(tokens, transform.SplitOptions(rows[i].Answer)...)
		}
		v.Options = tally(tokens, opts.TopOptions)
	case models.VizSingleChoice:
		answers := make([]string, len(rows))
		for i := range rows {
			answers[i] = rows[i].Answer
		}
		v.Options = tally(answers, opts.TopOptions)
	default:
		openEnded(&v, rows, card.Drill, opts)
	}
	return v
}

func openEnded(v *View, rows []models.ResponseRow, st models.DrillState, opts Options) {
	v.Sentiments = SentimentCounts(rows)
	v.Tokens = TopTokens(rows, opts.TopTokens)

	if st.Level < models.LevelSentiment || st.Sentiment == nil {
		return
	}
	inSentiment := make([]models.ResponseRow, 0)
	for i := range rows {
		if string(rows[i].Sentiment) == *st.Sentiment {
			inSentiment = append(inSentiment, rows[i])
		}
	}
	categories := make([]string, len(inSentiment))
	for i := range inSentiment {
		categories[i] = inSentiment[i].Category
	}
	v.Categories = tally(categories, opts.TopCategories)

	if st.Level < models.LevelCategory || st.Category == nil {
		return
	}
	topics := make([]string, 0)
	for i := range inSentiment {
		if inSentiment[i].Category == *st.Category {
			topics = append(topics, inSentiment[i].Topic)
		}
	}
	v.Topics = tally(topics, opts.TopTopics)
}

// applySegment is skipped when the segment column is not in the table.
func applySegment(table *models.ResponseTable, rows []models.ResponseRow, seg Segment) []models.ResponseRow {
	if !seg.Active() || !table.HasColumn(seg.Column) {
		return rows
	}
	allowed := make(map[string]struct{}, len(seg.Values))
	for _, s := range seg.Values {
		allowed[s] = struct{}{}
	}
	out := make([]models.ResponseRow, 0, len(rows))
	for i := range rows {
		val, ok := rows[i].Value(seg.Column)
		if !ok {
			continue
		}
		if _, hit := allowed[val]; hit {
			out = append(out, rows[i])
		}
	}
	return out
}

func applyCardFilter(rows []models.ResponseRow, f models.CardFilter) []models.ResponseRow {
	if f.Category == nil && f.Topic == nil {
		return rows
	}
	out := make([]models.ResponseRow, 0, len(rows))
	for i := range rows {
		if f.Category != nil && rows[i].Category != *f.Category {
			continue
		}
		if f.Topic != nil && rows[i].Topic != *f.Topic {
			continue
		}
		out = append(out, rows[i])
	}
	return out
}

func histogram(rows []models.ResponseRow, bins int) []HistogramBin {
	values := make([]float64, 0, len(rows))
	for i := range rows {
		if f, ok := classifier.ParseNumber(rows[i].Answer); ok {
			values = append(values, f)
		}
	}
	if len(values) == 0 {
		return []HistogramBin{}
	}
	if bins <= 0 {
		bins = DefaultOptions().HistogramBins
	}
	b := transform.NewBins(values, bins)
	labels := b.Labels()
	out := make([]HistogramBin, len(labels))
	for i, l := range labels {
		out[i].Label = l
	}
	for _, f := range values {
		if i, ok := b.Index(f); ok {
			out[i].Count++
		}
	}
	return out
}
