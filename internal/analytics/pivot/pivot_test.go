package pivot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai2c-dataviz/internal/models"
)

// ==========================
// Fixtures
// ==========================

func day(d int) *time.Time {
	t := time.Date(2024, 1, d, 10, 30, 0, 0, time.UTC)
	return &t
}

type rowOpt func(*models.ResponseRow)

func region(v string) rowOpt { return func(r *models.ResponseRow) { r.Attributes["region"] = v } }
func on(t *time.Time) rowOpt { return func(r *models.ResponseRow) { r.DateOfResponse = t } }
func sentiment(s models.Sentiment) rowOpt {
	return func(r *models.ResponseRow) { r.Sentiment = s }
}
func confidence(f float64) rowOpt {
	return func(r *models.ResponseRow) { r.ConfidenceLevel = &f }
}
func category(c string) rowOpt { return func(r *models.ResponseRow) { r.Category = c } }

func resp(qid, answer string, opts ...rowOpt) models.ResponseRow {
	r := models.ResponseRow{
		QuestionID:     qid,
		Answer:         answer,
		OrigAnswer:     answer,
		DateOfResponse: day(1),
		Attributes:     map[string]string{},
	}
	for _, o := range opts {
		o(&r)
	}
	return r
}

func newTable(rows ...models.ResponseRow) *models.ResponseTable {
	cols := append(append([]string{}, models.RequiredColumns...), models.ColAnswer, "region")
	return &models.ResponseTable{Columns: cols, Rows: rows}
}

func answersTable(qid string, answers ...string) *models.ResponseTable {
	rows := make([]models.ResponseRow, len(answers))
	for i, a := range answers {
		rows[i] = resp(qid, a)
	}
	return newTable(rows...)
}

func countByAnswer(qid string) models.PivotSpec {
	return models.PivotSpec{
		RowDims:      []string{models.DerivedAnswerDimension},
		Metric:       models.CountMetric,
		QuestionID:   qid,
		UseAnswerDim: true,
	}
}

func tally(res *Result) map[string]float64 {
	out := map[string]float64{}
	for _, r := range res.Rows {
		out[r.Keys[len(r.Keys)-1]] += r.Values[0]
	}
	return out
}

// ==========================
// End to end
// ==========================

func TestCompute_SingleChoiceAnswerCounts(t *testing.T) {
	table := answersTable("Q1", "Ótimo", "Ótimo", "Ruim", "Ótimo", "Bom", "Ruim", "Ótimo", "Bom", "Ótimo", "Ruim")
	spec := countByAnswer("Q1")
	spec.Aggregator = models.AggMax

	out := Compute(table, spec, nil)

	require.Nil(t, out.Empty)
	require.NotNil(t, out.Question)
	assert.Equal(t, models.VizSingleChoice, out.Question.VizType)
	assert.Equal(t, []string{models.CountMetric}, out.Result.Columns)
	assert.Equal(t, models.AggSum, out.Result.Aggregator)
	require.Len(t, out.Result.Rows, 3)
	assert.Equal(t, ResultRow{Keys: []string{"Ótimo"}, Values: []float64{5}}, out.Result.Rows[0])
	assert.Equal(t, ResultRow{Keys: []string{"Ruim"}, Values: []float64{3}}, out.Result.Rows[1])
	assert.Equal(t, ResultRow{Keys: []string{"Bom"}, Values: []float64{2}}, out.Result.Rows[2])
}

func TestCompute_MultipleChoiceExplodedCounts(t *testing.T) {
	table := answersTable("Q2", "a;b", "a", "b;c", "c")

	out := Compute(table, countByAnswer("Q2"), nil)

	require.Nil(t, out.Empty)
	assert.Equal(t, map[string]float64{"a": 2, "b": 2, "c": 2}, tally(out.Result))
}

// ==========================
// Aggregation
// ==========================

func TestCompute_CountIgnoresAggregator(t *testing.T) {
	table := newTable(
		resp("Q1", "x", region("N")),
		resp("Q1", "y", region("N")),
		resp("Q2", "z", region("S")),
		resp("Q2", "w", region("N")),
	)
	for _, agg := range []models.Aggregator{"", models.AggSum, models.AggMean, models.AggMedian, models.AggMin, models.AggMax, "bogus"} {
		t.Run(string(agg), func(t *testing.T) {
			out := Compute(table, models.PivotSpec{RowDims: []string{"region"}, Metric: models.CountMetric, Aggregator: agg}, nil)
			require.Nil(t, out.Empty)
			assert.Equal(t, map[string]float64{"N": 3, "S": 1}, tally(out.Result))
		})
	}
}

func TestCompute_NumericMetric(t *testing.T) {
	table := newTable(
		resp("Q1", "a", region("N"), confidence(1)),
		resp("Q1", "a", region("N"), confidence(2)),
		resp("Q1", "a", region("N"), confidence(3)),
		resp("Q1", "a", region("S"), confidence(4)),
		resp("Q1", "a", region("S")),
		resp("Q1", "a", region("W")),
	)
	tests := []struct {
		agg  models.Aggregator
		n, s float64
	}{
		{models.AggSum, 6, 4},
		{models.AggMean, 2, 4},
		{models.AggMedian, 2, 4},
		{models.AggMin, 1, 4},
		{models.AggMax, 3, 4},
		{"bogus", 2, 4},
	}
	for _, tt := range tests {
		t.Run(string(tt.agg), func(t *testing.T) {
			spec := models.PivotSpec{RowDims: []string{"region"}, Metric: models.ColConfidenceLevel, Aggregator: tt.agg}
			out := Compute(table, spec, nil)
			require.Nil(t, out.Empty)
			got := tally(out.Result)
			assert.InDelta(t, tt.n, got["N"], 1e-9)
			assert.InDelta(t, tt.s, got["S"], 1e-9)
			assert.Equal(t, 0.0, got["W"], "group without metric values is filled with 0")
		})
	}
}

func TestCompute_CrossTabAndCharts(t *testing.T) {
	table := newTable(
		resp("Q1", "a", region("N"), sentiment(models.SentimentPositive)),
		resp("Q1", "a", region("N"), sentiment(models.SentimentPositive)),
		resp("Q1", "a", region("N"), sentiment(models.SentimentNegative)),
		resp("Q1", "a", region("S"), sentiment(models.SentimentNegative)),
		resp("Q1", "a", region("S")),
	)
	spec := models.PivotSpec{RowDims: []string{"region"}, ColDim: models.ColSentiment, Metric: models.CountMetric}

	out := Compute(table, spec, nil)

	require.Nil(t, out.Empty)
	assert.Equal(t, []string{"positivo", "negativo"}, out.Result.Columns)
	assert.Equal(t, 2.0, out.Result.Cell([]string{"N"}, "positivo"))
	assert.Equal(t, 0.0, out.Result.Cell([]string{"S"}, "positivo"))
	assert.Equal(t, 1.0, out.Result.Cell([]string{"S"}, "negativo"))

	require.NotNil(t, out.Charts.Bars)
	assert.True(t, out.Charts.Bars.Grouped)
	assert.Equal(t, []string{"N", "S"}, out.Charts.Bars.Categories)
	assert.Equal(t, []BarSeries{
		{Name: "positivo", Values: []float64{2, 0}},
		{Name: "negativo", Values: []float64{1, 1}},
	}, out.Charts.Bars.Series)

	require.NotNil(t, out.Charts.Heatmap)
	assert.Equal(t, []string{"N", "S"}, out.Charts.Heatmap.Y)
	assert.Equal(t, []string{"positivo", "negativo"}, out.Charts.Heatmap.X)
	assert.Equal(t, [][]float64{{2, 1}, {0, 1}}, out.Charts.Heatmap.Z)
}

func TestCompute_TwoRowDimensions(t *testing.T) {
	table := newTable(
		resp("Q1", "a", region("N"), sentiment(models.SentimentPositive)),
		resp("Q1", "a", region("N"), sentiment(models.SentimentPositive)),
		resp("Q1", "a", region("N"), sentiment(models.SentimentNegative)),
		resp("Q1", "a", region("S"), sentiment(models.SentimentNegative)),
	)
	spec := models.PivotSpec{RowDims: []string{models.ColSentiment, "region"}, Metric: models.CountMetric}

	out := Compute(table, spec, nil)

	require.Nil(t, out.Empty)
	require.Len(t, out.Result.Rows, 3)
	assert.Nil(t, out.Charts.Heatmap)
	require.NotNil(t, out.Charts.Bars)
	assert.False(t, out.Charts.Bars.Grouped)
	assert.Equal(t, "region", out.Charts.Bars.XDim)
	assert.Equal(t, []string{"N", "S"}, out.Charts.Bars.Categories)
	assert.Equal(t, []float64{3, 1}, out.Charts.Bars.Series[0].Values)
}

// ==========================
// Empty states
// ==========================

func TestCompute_EmptyStates(t *testing.T) {
	table := newTable(
		resp("Q1", "a", region("N"), on(day(2))),
		resp("Q1", "b", region("S"), on(day(3))),
	)
	openSchema := models.Schema{"Q1": {VizType: models.VizOpenEnded}}

	tests := []struct {
		name   string
		table  *models.ResponseTable
		spec   models.PivotSpec
		schema models.Schema
		want   string
	}{
		{
			name:  "empty table",
			table: models.EmptyTable(),
			spec:  models.PivotSpec{RowDims: []string{"region"}},
			want:  MsgNoData,
		},
		{
			name:  "no row dimension",
			table: table,
			spec:  models.PivotSpec{Metric: models.CountMetric},
			want:  MsgNoRowDimension,
		},
		{
			name:  "derived not requested",
			table: table,
			spec:  models.PivotSpec{RowDims: []string{models.DerivedAnswerDimension}, QuestionID: "Q1"},
			want:  MsgDerivedNotComputed,
		},
		{
			name:   "derived suppressed for open ended",
			table:  table,
			spec:   models.PivotSpec{RowDims: []string{"region"}, ColDim: models.DerivedAnswerDimension, QuestionID: "Q1", UseAnswerDim: true},
			schema: openSchema,
			want:   MsgDerivedNotComputed,
		},
		{
			name:  "question outside period",
			table: table,
			spec: models.PivotSpec{
				RowDims:    []string{"region"},
				QuestionID: "Q1",
				DateRange:  models.DateRange{Start: day(10), End: day(20)},
			},
			want: MsgQuestionNoData,
		},
		{
			name:  "unknown dimension",
			table: table,
			spec:  models.PivotSpec{RowDims: []string{"store"}},
			want:  MsgDimensionUnavailable,
		},
		{
			name:  "unknown metric",
			table: table,
			spec:  models.PivotSpec{RowDims: []string{"region"}, Metric: "revenue"},
			want:  MsgMetricUnavailable,
		},
		{
			name:  "filter on missing column",
			table: table,
			spec: models.PivotSpec{
				RowDims:         []string{"region"},
				DimensionFilter: models.DimensionFilter{Column: "store", Values: []string{"x"}},
			},
			want: MsgFilterColumnMissing,
		},
		{
			name:  "filter leaves nothing",
			table: table,
			spec: models.PivotSpec{
				RowDims:         []string{"region"},
				DimensionFilter: models.DimensionFilter{Column: "region", Values: []string{"E"}},
			},
			want: MsgNothingAfterFiltering,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Compute(tt.table, tt.spec, tt.schema)
			require.NotNil(t, out.Empty)
			assert.Equal(t, tt.want, out.Empty.Message)
			assert.Nil(t, out.Charts.Bars)
		})
	}
}

// ==========================
// Filtering
// ==========================

func TestCompute_DateRangeInclusive(t *testing.T) {
	table := newTable(
		resp("Q1", "a", region("N"), on(day(1))),
		resp("Q1", "a", region("N"), on(day(5))),
		resp("Q1", "a", region("N"), on(day(9))),
		resp("Q1", "a", region("N"), on(nil)),
	)
	spec := models.PivotSpec{
		RowDims:   []string{"region"},
		Metric:    models.CountMetric,
		DateRange: models.DateRange{Start: day(1), End: day(5)},
	}

	out := Compute(table, spec, nil)
	require.Nil(t, out.Empty)
	assert.Equal(t, map[string]float64{"N": 2}, tally(out.Result))

	spec.DateRange = models.DateRange{}
	out = Compute(table, spec, nil)
	assert.Equal(t, map[string]float64{"N": 4}, tally(out.Result))
}

func TestCompute_FilterOnDerivedTokens(t *testing.T) {
	table := answersTable("Q2", "a;b", "a", "b;c", "c")
	spec := countByAnswer("Q2")
	spec.DimensionFilter = models.DimensionFilter{Column: models.DerivedAnswerDimension, Values: []string{"a", "c"}}

	out := Compute(table, spec, nil)

	require.Nil(t, out.Empty)
	assert.Equal(t, map[string]float64{"a": 2, "c": 2}, tally(out.Result))
}

func TestCompute_SchemaDecidesDerivedShape(t *testing.T) {
	table := answersTable("Q3", "1", "2", "3", "4", "5")
	schema := models.Schema{"Q3": {VizType: models.VizSingleChoice}}

	out := Compute(table, countByAnswer("Q3"), schema)
	require.Nil(t, out.Empty)
	assert.Len(t, out.Result.Rows, 5)
	assert.Equal(t, "1", out.Result.Rows[0].Keys[0])

	spec := countByAnswer("Q3")
	spec.BinCount = 5
	binned := Compute(table, spec, nil)
	require.Nil(t, binned.Empty)
	assert.Equal(t, "(0.996, 1.8]", binned.Result.Rows[0].Keys[0])
}

// ==========================
// Drill-through and filter options
// ==========================

func TestDrillThrough(t *testing.T) {
	table := newTable(
		resp("Q1", "late", region("N"), sentiment(models.SentimentPositive), on(day(5)), category("c1")),
		resp("Q1", "undated", region("N"), sentiment(models.SentimentPositive), on(nil)),
		resp("Q1", "early", region("N"), sentiment(models.SentimentPositive), on(day(3))),
		resp("Q1", "other", region("N"), sentiment(models.SentimentNegative), on(day(1))),
		resp("Q1", "south", region("S"), sentiment(models.SentimentPositive), on(day(1))),
	)
	spec := models.PivotSpec{RowDims: []string{"region"}, ColDim: models.ColSentiment, Metric: models.CountMetric}
	pos := "positivo"

	records, empty := DrillThrough(table, spec, nil, Click{X: "N", ColumnValue: &pos}, 0)

	require.Nil(t, empty)
	require.Len(t, records, 3)
	assert.Equal(t, "early", records[0].Answer)
	assert.Equal(t, "03/01/2024 10:30", records[0].DateOfResponse)
	assert.Equal(t, "late", records[1].Answer)
	assert.Equal(t, "c1", records[1].Category)
	assert.Equal(t, "undated", records[2].Answer)
	assert.Equal(t, "", records[2].DateOfResponse)
	assert.Equal(t, "positivo", records[2].Sentiment)

	limited, _ := DrillThrough(table, spec, nil, Click{X: "N"}, 2)
	assert.Len(t, limited, 2)

	_, empty = DrillThrough(table, spec, nil, Click{X: "E"}, 0)
	require.NotNil(t, empty)
	assert.Equal(t, MsgNoRecordsForPoint, empty.Message)
}

func TestDimensionValues(t *testing.T) {
	table := newTable(
		resp("Q2", "b;a", region("S ")),
		resp("Q2", "c", region("N")),
		resp("Q2", "a", region("nan")),
		resp("Q9", "z", region("W"), on(day(20))),
	)

	assert.Equal(t, []string{"N", "S", "W"}, DimensionValues(table, models.PivotSpec{}, nil, "region"))

	spec := countByAnswer("Q2")
	spec.DimensionFilter = models.DimensionFilter{Column: models.DerivedAnswerDimension, Values: []string{"a"}}
	assert.Equal(t, []string{"a", "b", "c"}, DimensionValues(table, spec, nil, models.DerivedAnswerDimension))

	assert.Empty(t, DimensionValues(table, models.PivotSpec{}, nil, models.DerivedAnswerDimension))
	assert.Empty(t, DimensionValues(table, models.PivotSpec{}, nil, "store"))
	assert.Empty(t, DimensionValues(models.EmptyTable(), models.PivotSpec{}, nil, "region"))
	assert.NotNil(t, DimensionValues(table, models.PivotSpec{}, nil, ""))
}

func TestCompute_MissingSegmentValuesAreNotGroups(t *testing.T) {
	table := newTable(
		resp("Q1", "x", region("SP"), category("a")),
		resp("Q1", "x", region(""), category("")),
		resp("Q1", "x", region("RJ "), category(" NULL")),
		resp("Q1", "x", region("nan"), category("a")),
	)

	byRegion := Compute(table, models.PivotSpec{RowDims: []string{"region"}, Metric: models.CountMetric}, nil)
	require.Nil(t, byRegion.Empty)
	assert.Equal(t, map[string]float64{"SP": 1, "RJ": 1}, tally(byRegion.Result))

	byCategory := Compute(table, models.PivotSpec{RowDims: []string{models.ColCategory}, Metric: models.CountMetric}, nil)
	require.Nil(t, byCategory.Empty)
	assert.Equal(t, map[string]float64{"a": 2}, tally(byCategory.Result))
}

func TestDimensionValues_RoundTripThroughFilter(t *testing.T) {
	table := newTable(
		resp("Q1", "x", region("SP")),
		resp("Q1", "y", region(" RJ ")),
		resp("Q1", "z", region("none")),
	)

	values := DimensionValues(table, models.PivotSpec{}, nil, "region")
	require.Equal(t, []string{"RJ", "SP"}, values)

	for _, v := range values {
		t.Run(v, func(t *testing.T) {
			spec := models.PivotSpec{
				RowDims:         []string{"region"},
				Metric:          models.CountMetric,
				DimensionFilter: models.DimensionFilter{Column: "region", Values: []string{v}},
			}
			out := Compute(table, spec, nil)
			require.Nil(t, out.Empty)
			assert.Equal(t, map[string]float64{v: 1}, tally(out.Result))
		})
	}
}

func TestFilterColumns(t *testing.T) {
	assert.Equal(t, []string{"region", "sentiment"}, FilterColumns([]string{"region", "sentiment"}, "region"))
	assert.Equal(t, []string{"region", models.DerivedAnswerDimension}, FilterColumns([]string{"region"}, models.DerivedAnswerDimension))
	assert.Empty(t, FilterColumns(nil, ""))
}
