package insights

import (
	"math"
	"sort"
	"strings"

	"ai2c-dataviz/internal/models"
)

// Count is one bar of a distribution.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// tally counts cleaned values, most frequent first. Ties keep first-seen
// order. head <= 0 keeps everything.
func tally(values []string, head int) []Count {
	index := make(map[string]int)
	out := make([]Count, 0)
	for _, v := range values {
		v = strings.TrimSpace(v)
		if models.IsMissing(v) {
			continue
		}
		if at, ok := index[v]; ok {
			out[at].Count++
			continue
		}
		index[v] = len(out)
		out = append(out, Count{Label: v, Count: 1})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if head > 0 && len(out) > head {
		out = out[:head]
	}
	return out
}

// Share is a count with its percentage of the whole.
type Share struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// TopicDistribution is the topic breakdown of rows, in percent of all
// counted topics rounded to one decimal, capped at head topics.
func TopicDistribution(rows []models.ResponseRow, head int) []Share {
	topics := make([]string, len(rows))
	for i := range rows {
		topics[i] = rows[i].Topic
	}
	counts := tally(topics, 0)
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	if total < 1 {
		total = 1
	}
	if head > 0 && len(counts) > head {
		counts = counts[:head]
	}
	out := make([]Share, len(counts))
	for i, c := range counts {
		pct := float64(c.Count) / float64(total) * 100
		out[i] = Share{Label: c.Label, Count: c.Count, Percent: math.Round(pct*10) / 10}
	}
	return out
}

// SentimentCounts counts rows per canonical sentiment, always in display
// order and with zeros for absent labels.
func SentimentCounts(rows []models.ResponseRow) []Count {
	by := make(map[models.Sentiment]int)
	for i := range rows {
		by[rows[i].Sentiment]++
	}
	out := make([]Count, len(models.SentimentOrder))
	for i, s := range models.SentimentOrder {
		out[i] = Count{Label: string(s), Count: by[s]}
	}
	return out
}
