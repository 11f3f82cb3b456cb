package insights

import (
	"ai2c-dataviz/internal/analytics/guard"
	"ai2c-dataviz/internal/analytics/pivot"
	"ai2c-dataviz/internal/models"
)

// PivotFields is what a pivot request on a table may reference.
type PivotFields struct {
	Dimensions []string `json:"dimensions"`
	Metrics    []string `json:"metrics"`
}

// AvailablePivotFields offers the guarded dimensions and the numeric metric
// columns of table. count and the derived answer dimension are always valid
// and are not listed.
func AvailablePivotFields(table *models.ResponseTable, g *guard.Guard) PivotFields {
	numeric := NumericColumns(table)
	return PivotFields{
		Dimensions: PivotDimensions(g.AllowedDimensions(table), numeric),
		Metrics:    numeric,
	}
}

func (f PivotFields) hasDimension(column string) bool {
	if column == models.DerivedAnswerDimension {
		return true
	}
	for _, d := range f.Dimensions {
		if d == column {
			return true
		}
	}
	return false
}

func (f PivotFields) hasMetric(column string) bool {
	if column == "" || column == models.CountMetric {
		return true
	}
	for _, m := range f.Metrics {
		if m == column {
			return true
		}
	}
	return false
}

// HasDimension reports whether column may be used as a row, column or
// filter dimension.
func (f PivotFields) HasDimension(column string) bool {
	return f.hasDimension(column)
}

// Check rejects a spec that names a dimension the guard excluded or a
// metric that is not numeric. Unknown columns get the same message as
// columns the table lacks.
func (f PivotFields) Check(spec models.PivotSpec) *models.EmptyState {
	for _, d := range spec.RowDims {
		if !f.hasDimension(d) {
			return &models.EmptyState{Message: pivot.MsgDimensionUnavailable}
		}
	}
	if spec.ColDim != "" && !f.hasDimension(spec.ColDim) {
		return &models.EmptyState{Message: pivot.MsgDimensionUnavailable}
	}
	if spec.DimensionFilter.Active() && !f.hasDimension(spec.DimensionFilter.Column) {
		return &models.EmptyState{Message: pivot.MsgFilterColumnMissing}
	}
	if !f.hasMetric(spec.Metric) {
		return &models.EmptyState{Message: pivot.MsgMetricUnavailable}
	}
	return nil
}
