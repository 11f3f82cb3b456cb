package pivot

import (
	"sort"
	"strings"

	"ai2c-dataviz/internal/analytics/classifier"
	"ai2c-dataviz/internal/models"
)

// Outcome is either a result with its charts or a user-facing empty state.
type Outcome struct {
	Result *Result
	Charts Charts
	Empty  *models.EmptyState

	// Question is the resolved type of the targeted question, if any.
	Question *classifier.Resolution
}

// Compute runs a whole pivot request against a table.
func Compute(table *models.ResponseTable, spec models.PivotSpec, schema models.Schema) Outcome {
	if table.IsEmpty() {
		return Outcome{Empty: emptyState(MsgNoData)}
	}
	if len(spec.RowDims) == 0 {
		return Outcome{Empty: emptyState(MsgNoRowDimension)}
	}
	frame, empty := Prepare(table, spec, schema, true)
	if empty != nil {
		return Outcome{Empty: empty}
	}
	res, empty := Aggregate(frame, spec)
	if empty != nil {
		return Outcome{Empty: empty, Question: frame.Question}
	}
	if len(res.Rows) == 0 {
		return Outcome{Result: res, Empty: emptyState(MsgNothingAfterFiltering), Question: frame.Question}
	}
	return Outcome{Result: res, Charts: ChartProjection(res), Question: frame.Question}
}

// DrillThrough lists the responses behind a clicked pivot point.
func DrillThrough(table *models.ResponseTable, spec models.PivotSpec, schema models.Schema, click Click, limit int) ([]DetailRecord, *models.EmptyState) {
	frame, empty := Prepare(table, spec, schema, true)
	if empty != nil {
		return nil, empty
	}
	records := DetailRecords(frame, spec, click, limit)
	if len(records) == 0 {
		return records, emptyState(MsgNoRecordsForPoint)
	}
	return records, nil
}

// DimensionValues lists the distinct cleaned values of column after the date
// range, question restriction and derived-dimension computation, sorted.
// The dimension filter itself is not applied.
func DimensionValues(table *models.ResponseTable, spec models.PivotSpec, schema models.Schema, column string) []string {
	out := []string{}
	if column == "" {
		return out
	}
	frame, empty := Prepare(table, spec, schema, false)
	if empty != nil || !frame.HasColumn(column) {
		return out
	}

	seen := make(map[string]struct{})
	for _, r := range frame.Rows {
		v, ok := r.Value(column)
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if models.IsMissing(v) {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
