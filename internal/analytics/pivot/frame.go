// Package pivot computes generic pivot tables over a survey response table,
// with optional use of a question's answers as a dimension.
package pivot

import (
	"ai2c-dataviz/internal/analytics/classifier"
	"ai2c-dataviz/internal/analytics/transform"
	"ai2c-dataviz/internal/models"
)

// Guidance shown instead of a result when the request cannot be answered.
const (
	MsgNoData                = "No data for this survey."
	MsgNoRowDimension        = "Choose at least one row dimension."
	MsgQuestionNoData        = "The selected question has no data in the current period."
	MsgDerivedNotComputed    = "Enable 'use answers as dimension' and select a question."
	MsgDimensionUnavailable  = "A selected dimension is not available for this data."
	MsgMetricUnavailable     = "The selected metric column is not available for this data."
	MsgFilterColumnMissing   = "The filter column is not available for this data."
	MsgNoRecordsForPoint     = "No records for this point."
	MsgNothingAfterFiltering = "No rows match the current filters."
)

func emptyState(msg string) *models.EmptyState {
	return &models.EmptyState{Message: msg}
}

// Frame is the row set a pivot request works on: the table after the date
// range, question restriction, derived-dimension computation and dimension
// filter have been applied.
type Frame struct {
	Rows       []transform.Row
	HasDerived bool

	// Question is set when the request targets a single question.
	Question *classifier.Resolution

	columns map[string]struct{}
}

// HasColumn reports whether column can be used as a dimension, metric or filter.
func (f *Frame) HasColumn(column string) bool {
	if column == models.DerivedAnswerDimension {
		return f.HasDerived
	}
	_, ok := f.columns[column]
	return ok
}

// Prepare narrows the table for spec. The dimension filter is skipped when
// applyFilter is false, which is how filter options are listed.
func Prepare(table *models.ResponseTable, spec models.PivotSpec, schema models.Schema, applyFilter bool) (*Frame, *models.EmptyState) {
	if table.IsEmpty() {
		return nil, emptyState(MsgNoData)
	}

	frame := &Frame{columns: make(map[string]struct{}, len(table.Columns))}
	for _, c := range table.Columns {
		frame.columns[c] = struct{}{}
	}

	inRange := make([]models.ResponseRow, 0, len(table.Rows))
	for i := range table.Rows {
		if spec.DateRange.Contains(table.Rows[i].DateOfResponse) {
			inRange = append(inRange, table.Rows[i])
		}
	}

	if spec.QuestionID == "" {
		frame.Rows = transform.Wrap(inRange)
	} else {
		// The type comes from every answer of the question, not just the period.
		res := classifier.Resolve(spec.QuestionID, models.Answers(table.QuestionRows(spec.QuestionID)), schema)
		frame.Question = &res

		rows := make([]models.ResponseRow, 0)
		for i := range inRange {
			if inRange[i].QuestionID == spec.QuestionID {
				rows = append(rows, inRange[i])
			}
		}
		if len(rows) == 0 {
			return nil, emptyState(MsgQuestionNoData)
		}

		if spec.UseAnswerDim && res.VizType != models.VizOpenEnded {
			frame.Rows = transform.DerivePivotDimension(rows, res.VizType, spec.BinCount)
			frame.HasDerived = true
		} else {
			frame.Rows = transform.Wrap(rows)
		}
	}

	if applyFilter && spec.DimensionFilter.Active() {
		f := spec.DimensionFilter
		if !frame.HasColumn(f.Column) {
			return nil, emptyState(MsgFilterColumnMissing)
		}
		allowed := make(map[string]struct{}, len(f.Values))
		for _, v := range f.Values {
			allowed[v] = struct{}{}
		}
		kept := frame.Rows[:0:0]
		for _, r := range frame.Rows {
			v, ok := r.Value(f.Column)
			if !ok {
				continue
			}
			if _, hit := allowed[v]; hit {
				kept = append(kept, r)
			}
		}
		frame.Rows = kept
	}

	return frame, nil
}

// FilterColumns lists the dimensions a dimension filter can target: the row
// dimensions then the column dimension, without duplicates.
func FilterColumns(rowDims []string, colDim string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(rowDims)+1)
	for _, d := range append(append([]string(nil), rowDims...), colDim) {
		if d == "" {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}
