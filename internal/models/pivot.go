package models

import "time"

const (
	// DerivedAnswerDimension is the sentinel dimension name for the transformed answer column.
	DerivedAnswerDimension = "__pv_answer__"
	// CountMetric counts rows instead of aggregating a numeric column.
	CountMetric = "__count__"
)

// Aggregator names the reduction applied to the metric inside a pivot cell.
type Aggregator string

const (
	AggSum    Aggregator = "sum"
	AggMean   Aggregator = "mean"
	AggMedian Aggregator = "median"
	AggMin    Aggregator = "min"
	AggMax    Aggregator = "max"
)

func (a Aggregator) Valid() bool {
	switch a {
	case AggSum, AggMean, AggMedian, AggMin, AggMax:
		return true
	}
	return false
}

// AllowedBinCounts are the binning resolutions accepted for numeric answers.
var AllowedBinCounts = []int{5, 10, 20}

// DefaultBinCount replaces any bin count outside AllowedBinCounts.
const DefaultBinCount = 10

// NormalizeBinCount coerces a requested bin count into the allowed set.
func NormalizeBinCount(n int) int {
	for _, b := range AllowedBinCounts {
		if n == b {
			return n
		}
	}
	return DefaultBinCount
}

// DateRange is an inclusive range on date_of_response. Nil bounds are open.
type DateRange struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

func (d DateRange) IsZero() bool {
	return d.Start == nil && d.End == nil
}

// Contains reports whether t is inside the range. A null timestamp is only
// inside an unbounded range.
func (d DateRange) Contains(t *time.Time) bool {
	if d.IsZero() {
		return true
	}
	if t == nil {
		return false
	}
	if d.Start != nil && t.Before(*d.Start) {
		return false
	}
	if d.End != nil && t.After(*d.End) {
		return false
	}
	return true
}

// DimensionFilter keeps rows whose string value for Column is in Values.
type DimensionFilter struct {
	Column string   `json:"column"`
	Values []string `json:"values"`
}

func (f DimensionFilter) Active() bool {
	return f.Column != "" && len(f.Values) > 0
}

// PivotSpec is a transient request value object.
type PivotSpec struct {
	RowDims         []string        `json:"rowDims"`
	ColDim          string          `json:"colDim,omitempty"`
	Metric          string          `json:"metric"`
	Aggregator      Aggregator      `json:"aggregator,omitempty"`
	DateRange       DateRange       `json:"dateRange"`
	DimensionFilter DimensionFilter `json:"dimensionFilter"`
	QuestionID      string          `json:"questionId,omitempty"`
	UseAnswerDim    bool            `json:"useAnswerDimension,omitempty"`
	BinCount        int             `json:"binCount,omitempty"`
}

// ReferencesDerived reports whether the derived answer dimension is used as a row or column.
func (s PivotSpec) ReferencesDerived() bool {
	if s.ColDim == DerivedAnswerDimension {
		return true
	}
	for _, d := range s.RowDims {
		if d == DerivedAnswerDimension {
			return true
		}
	}
	return false
}

// EffectiveAggregator is the aggregator actually applied: counting always sums.
func (s PivotSpec) EffectiveAggregator() Aggregator {
	if s.Metric == "" || s.Metric == CountMetric {
		return AggSum
	}
	if !s.Aggregator.Valid() {
		return AggMean
	}
	return s.Aggregator
}

// EmptyState is a recoverable, user-visible explanation returned instead of a result.
type EmptyState struct {
	Message string `json:"message"`
}
