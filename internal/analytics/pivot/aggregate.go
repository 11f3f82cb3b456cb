package pivot

import (
	"math"
	"strings"

	"github.com/montanaflynn/stats"

	"ai2c-dataviz/internal/analytics/classifier"
	"ai2c-dataviz/internal/models"
)

// Result is a pivot table. Without a column dimension there is a single
// value column named after the metric.
type Result struct {
	RowDims    []string          `json:"rowDims"`
	ColDim     string            `json:"colDim,omitempty"`
	Metric     string            `json:"metric"`
	Aggregator models.Aggregator `json:"aggregator"`
	Columns    []string          `json:"columns"`
	Rows       []ResultRow       `json:"rows"`
}

// ResultRow holds one combination of row dimension values and one value per column.
type ResultRow struct {
	Keys   []string  `json:"keys"`
	Values []float64 `json:"values"`
}

// Cell returns the value at the given row keys and column, or 0.
func (r *Result) Cell(keys []string, column string) float64 {
	ci := -1
	for i, c := range r.Columns {
		if c == column {
			ci = i
			break
		}
	}
	if ci < 0 {
		return 0
	}
	want := strings.Join(keys, keySep)
	for _, row := range r.Rows {
		if strings.Join(row.Keys, keySep) == want {
			return row.Values[ci]
		}
	}
	return 0
}

const keySep = "\x1f"

// Aggregate groups the frame by the row dimensions (and column dimension,
// if any) and reduces the metric in every cell. Groups keep first-seen
// order; empty cross cells are 0. Counting always sums ones, whatever
// aggregator was requested.
func Aggregate(frame *Frame, spec models.PivotSpec) (*Result, *models.EmptyState) {
	if len(spec.RowDims) == 0 {
		return nil, emptyState(MsgNoRowDimension)
	}
	if spec.ReferencesDerived() && !frame.HasDerived {
		return nil, emptyState(MsgDerivedNotComputed)
	}
	dims := append([]string(nil), spec.RowDims...)
	if spec.ColDim != "" {
		dims = append(dims, spec.ColDim)
	}
	for _, d := range dims {
		if !frame.HasColumn(d) {
			return nil, emptyState(MsgDimensionUnavailable)
		}
	}
	counting := spec.Metric == "" || spec.Metric == models.CountMetric
	if !counting && !frame.HasColumn(spec.Metric) {
		return nil, emptyState(MsgMetricUnavailable)
	}

	metric := spec.Metric
	if counting {
		metric = models.CountMetric
	}
	agg := spec.EffectiveAggregator()

	var (
		rowIndex = map[string]int{}
		rowKeys  [][]string
		colIndex = map[string]int{}
		colVals  []string
		cells    = map[[2]int][]float64{}
	)

rows:
	for _, r := range frame.Rows {
		keys := make([]string, len(spec.RowDims))
		for i, d := range spec.RowDims {
			v, ok := r.Value(d)
			if !ok {
				continue rows
			}
			keys[i] = v
		}
		col := ""
		if spec.ColDim != "" {
			v, ok := r.Value(spec.ColDim)
			if !ok {
				continue
			}
			col = v
		}

		rk := strings.Join(keys, keySep)
		ri, seen := rowIndex[rk]
		if !seen {
			ri = len(rowKeys)
			rowIndex[rk] = ri
			rowKeys = append(rowKeys, keys)
		}
		ci, seen := colIndex[col]
		if !seen {
			ci = len(colVals)
			colIndex[col] = ci
			colVals = append(colVals, col)
		}

		cell := [2]int{ri, ci}
		if counting {
			cells[cell] = append(cells[cell], 1)
			continue
		}
		if raw, ok := r.Value(spec.Metric); ok {
			if f, ok := classifier.ParseNumber(raw); ok {
				cells[cell] = append(cells[cell], f)
			}
		}
	}

	res := &Result{
		RowDims:    append([]string(nil), spec.RowDims...),
		ColDim:     spec.ColDim,
		Metric:     metric,
		Aggregator: agg,
		Rows:       make([]ResultRow, len(rowKeys)),
	}
	if spec.ColDim != "" {
		res.Columns = append([]string{}, colVals...)
	} else {
		res.Columns = []string{metric}
	}
	width := len(res.Columns)
	for ri, keys := range rowKeys {
		values := make([]float64, width)
		for ci := 0; ci < width && ci < len(colVals); ci++ {
			values[ci] = reduce(agg, cells[[2]int{ri, ci}])
		}
		res.Rows[ri] = ResultRow{Keys: keys, Values: values}
	}
	return res, nil
}

func reduce(agg models.Aggregator, xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	data := stats.Float64Data(xs)
	var (
		v   float64
		err error
	)
	switch agg {
	case models.AggSum:
		v, err = stats.Sum(data)
	case models.AggMedian:
		v, err = stats.Median(data)
	case models.AggMin:
		v, err = stats.Min(data)
	case models.AggMax:
		v, err = stats.Max(data)
	default:
		v, err = stats.Mean(data)
	}
	if err != nil || math.IsNaN(v) {
		return 0
	}
	return v
}
