package insights

import (
	"fmt"
	"sort"
	"time"

	"ai2c-dataviz/internal/models"
)

// Granularity is the period length of a sentiment timeline.
type Granularity string

const (
	Daily   Granularity = "D"
	Weekly  Granularity = "W"
	Monthly Granularity = "M"
)

// ParseGranularity accepts D, W or M and falls back to weekly.
func ParseGranularity(s string) Granularity {
	switch Granularity(s) {
	case Daily, Weekly, Monthly:
		return Granularity(s)
	}
	return Weekly
}

// Period formats the period containing t. Weeks run Monday to Sunday and
// print as "start/end".
func (g Granularity) Period(t time.Time) string {
	switch g {
	case Daily:
		return t.Format("2006-01-02")
	case Monthly:
		return t.Format("2006-01")
	}
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	start := day.AddDate(0, 0, -((int(day.Weekday()) + 6) % 7))
	return fmt.Sprintf("%s/%s", start.Format("2006-01-02"), start.AddDate(0, 0, 6).Format("2006-01-02"))
}

// TimelinePoint is the number of responses with one sentiment in one period.
type TimelinePoint struct {
	Period    string `json:"period"`
	Sentiment string `json:"sentiment"`
	Count     int    `json:"count"`
}

// SentimentTimeline counts rows per period and sentiment, sorted by period
// then sentiment. Rows without a date or sentiment are left out.
func SentimentTimeline(rows []models.ResponseRow, g Granularity) []TimelinePoint {
	type key struct{ period, sentiment string }
	counts := make(map[key]int)
	for i := range rows {
		r := &rows[i]
		if r.DateOfResponse == nil || r.Sentiment == "" {
			continue
		}
		counts[key{g.Period(*r.DateOfResponse), string(r.Sentiment)}]++
	}
	out := make([]TimelinePoint, 0, len(counts))
	for k, n := range counts {
		out = append(out, TimelinePoint{Period: k.period, Sentiment: k.sentiment, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Period != out[j].Period {
			return out[i].Period < out[j].Period
		}
		return out[i].Sentiment < out[j].Sentiment
	})
	return out
}
