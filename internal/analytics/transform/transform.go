// Package transform derives the "answer as dimension" column used by the
// pivot: numeric answers are binned, multi-select answers exploded into one
// row per option, and everything else cleaned.
package transform

import (
	"strings"

	"ai2c-dataviz/internal/analytics/classifier"
	"ai2c-dataviz/internal/models"
)

// Row is a source row, optionally carrying the derived answer value.
// The embedded row is shared with the source table and must not be modified.
type Row struct {
	*models.ResponseRow

	// Index is the position of the source row in the input slice.
	Index      int
	Derived    string
	HasDerived bool
}

// Value resolves any column, including the derived answer dimension.
func (r Row) Value(column string) (string, bool) {
	if column == models.DerivedAnswerDimension {
		return r.Derived, r.HasDerived
	}
	return r.ResponseRow.Value(column)
}

// Wrap exposes rows without a derived value.
func Wrap(rows []models.ResponseRow) []Row {
	out := make([]Row, len(rows))
	for i := range rows {
		out[i] = Row{ResponseRow: &rows[i], Index: i}
	}
	return out
}

// DerivePivotDimension computes the derived answer value for every row of a
// single question. Rows that yield no value are dropped; multi-select rows
// yield one output row per option. Every other column is carried through.
func DerivePivotDimension(rows []models.ResponseRow, vizType models.VizType, binCount int) []Row {
	switch vizType {
	case models.VizMultipleChoice:
		return explode(rows)
	case models.VizNumeric:
		return bin(rows, models.NormalizeBinCount(binCount))
	default:
		return clean(rows)
	}
}

// SplitOptions splits a multi-select answer into its non-empty options.
func SplitOptions(answer string) []string {
	if strings.TrimSpace(answer) == "" {
		return nil
	}
	parts := classifier.Delimiters.Split(answer, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if models.IsMissing(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func explode(rows []models.ResponseRow) []Row {
	out := make([]Row, 0, len(rows))
	for i := range rows {
		for _, opt := range SplitOptions(rows[i].Answer) {
			out = append(out, Row{ResponseRow: &rows[i], Index: i, Derived: opt, HasDerived: true})
		}
	}
	return out
}

func clean(rows []models.ResponseRow) []Row {
	out := make([]Row, 0, len(rows))
	for i := range rows {
		v := strings.TrimSpace(rows[i].Answer)
		if models.IsMissing(v) {
			continue
		}
		out = append(out, Row{ResponseRow: &rows[i], Index: i, Derived: v, HasDerived: true})
	}
	return out
}

func bin(rows []models.ResponseRow, binCount int) []Row {
	values := make([]float64, 0, len(rows))
	indices := make([]int, 0, len(rows))
	for i := range rows {
		if f, ok := classifier.ParseNumber(rows[i].Answer); ok {
			values = append(values, f)
			indices = append(indices, i)
		}
	}
	if len(values) == 0 {
		return []Row{}
	}

	bins := NewBins(values, binCount)
	out := make([]Row, 0, len(values))
	for k, f := range values {
		label, ok := bins.Label(f)
		if !ok {
			continue
		}
		i := indices[k]
		out = append(out, Row{ResponseRow: &rows[i], Index: i, Derived: label, HasDerived: true})
	}
	return out
}
