package pivot

import (
	"sort"

	"ai2c-dataviz/internal/models"
)

// DefaultDetailLimit caps a drill-through listing.
const DefaultDetailLimit = 1000

const detailDateLayout = "02/01/2006 15:04"

// Click is a chart point: the innermost row dimension value and, for
// grouped bars and heatmaps, the column dimension value.
type Click struct {
	X           string  `json:"x"`
	ColumnValue *string `json:"columnValue,omitempty"`
}

// DetailRecord is one response shown for a clicked pivot point.
type DetailRecord struct {
	DateOfResponse string `json:"date_of_response"`
	Category       string `json:"category"`
	Topic          string `json:"topic"`
	Sentiment      string `json:"sentiment"`
	Answer         string `json:"answer"`
}

// DetailRecords lists the frame rows behind a clicked point, oldest first
// with undated rows last, at most limit of them.
func DetailRecords(frame *Frame, spec models.PivotSpec, click Click, limit int) []DetailRecord {
	if limit <= 0 {
		limit = DefaultDetailLimit
	}

	matched := make([]int, 0)
	for i, r := range frame.Rows {
		if len(spec.RowDims) > 0 {
			dim := spec.RowDims[len(spec.RowDims)-1]
			if frame.HasColumn(dim) {
				if v, ok := r.Value(dim); !ok || v != click.X {
					continue
				}
			}
		}
		if spec.ColDim != "" && click.ColumnValue != nil && frame.HasColumn(spec.ColDim) {
			if v, ok := r.Value(spec.ColDim); !ok || v != *click.ColumnValue {
				continue
			}
		}
		matched = append(matched, i)
	}

	sort.SliceStable(matched, func(a, b int) bool {
		ta := frame.Rows[matched[a]].DateOfResponse
		tb := frame.Rows[matched[b]].DateOfResponse
		switch {
		case ta == nil:
			return false
		case tb == nil:
			return true
		default:
			return ta.Before(*tb)
		}
	})

	if len(matched) > limit {
		matched = matched[:limit]
	}
	out := make([]DetailRecord, len(matched))
	for k, i := range matched {
		r := frame.Rows[i]
		rec := DetailRecord{
			Category:  r.Category,
			Topic:     r.Topic,
			Sentiment: string(r.Sentiment),
			Answer:    r.Answer,
		}
		if r.DateOfResponse != nil {
			rec.DateOfResponse = r.DateOfResponse.Format(detailDateLayout)
		}
		out[k] = rec
	}
	return out
}
