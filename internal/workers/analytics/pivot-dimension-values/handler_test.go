package pivotdimensionvalues

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai2c-dataviz/internal/analytics/pivot"
	apperrors "ai2c-dataviz/internal/common/errors"
	"ai2c-dataviz/internal/common/logger"
	"ai2c-dataviz/internal/models"
	"ai2c-dataviz/internal/workers/analytics/workertest"
)

func createTestHandler(t *testing.T, p *workertest.Provider) *Handler {
	return NewHandler(LoadConfig(), p, logger.NewTestLogger(t))
}

// ==========================
// Execute
// ==========================

func TestExecute(t *testing.T) {
	tests := []struct {
		name        string
		spec        models.PivotSpec
		column      string
		wantColumn  string
		wantValues  []string
		wantMessage string
	}{
		{
			name:       "defaults to first row dimension",
			spec:       models.PivotSpec{RowDims: []string{"region"}, ColDim: models.ColSentiment},
			wantColumn: "region",
			wantValues: []string{"N", "S"},
		},
		{
			name:       "explicit column",
			spec:       models.PivotSpec{RowDims: []string{"region"}, ColDim: models.ColSentiment},
			column:     models.ColSentiment,
			wantColumn: models.ColSentiment,
			wantValues: []string{"negativo", "neutro", "positivo"},
		},
		{
			name: "exploded answers of a multiple choice question",
			spec: models.PivotSpec{
				RowDims:      []string{models.DerivedAnswerDimension},
				QuestionID:   "Q2",
				UseAnswerDim: true,
			},
			wantColumn: models.DerivedAnswerDimension,
			wantValues: []string{"a", "b", "c"},
		},
		{
			name: "date range narrows the options",
			spec: models.PivotSpec{
				RowDims:    []string{models.DerivedAnswerDimension},
				QuestionID: "Q1", UseAnswerDim: true,
				DateRange: models.DateRange{End: workertest.Day(3)},
			},
			wantColumn: models.DerivedAnswerDimension,
			wantValues: []string{"Ruim", "Ótimo"},
		},
		{
			name: "filter is ignored",
			spec: models.PivotSpec{
				RowDims:         []string{"region"},
				DimensionFilter: models.DimensionFilter{Column: "region", Values: []string{"N"}},
			},
			wantColumn: "region",
			wantValues: []string{"N", "S"},
		},
		{
			name:        "pii column",
			spec:        models.PivotSpec{RowDims: []string{"region"}},
			column:      "email",
			wantColumn:  "email",
			wantValues:  []string{},
			wantMessage: pivot.MsgDimensionUnavailable,
		},
		{
			name:        "no dimension",
			spec:        models.PivotSpec{},
			wantValues:  []string{},
			wantMessage: pivot.MsgNoRowDimension,
		},
	}

	h := createTestHandler(t, workertest.NewProvider().WithTable(workertest.SurveyTable()))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := h.Execute(context.Background(), &Input{
				Env: workertest.Env, SurveyKey: workertest.SurveyKey, Pivot: tt.spec, Column: tt.column,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantColumn, out.Column)
			assert.Equal(t, tt.wantValues, out.Values)
			if tt.wantMessage == "" {
				assert.Nil(t, out.EmptyState)
			} else {
				require.NotNil(t, out.EmptyState)
				assert.Equal(t, tt.wantMessage, out.EmptyState.Message)
			}
		})
	}
}

func TestExecute_FilterColumns(t *testing.T) {
	h := createTestHandler(t, workertest.NewProvider().WithTable(workertest.SurveyTable()))

	out, err := h.Execute(context.Background(), &Input{
		Env: workertest.Env, SurveyKey: workertest.SurveyKey,
		Pivot: models.PivotSpec{RowDims: []string{"region", models.ColCategory}, ColDim: "region"},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"region", models.ColCategory}, out.FilterColumns)
}

func TestExecute_EmptyTable(t *testing.T) {
	h := createTestHandler(t, workertest.NewProvider())

	out, err := h.Execute(context.Background(), &Input{
		Env: "dev", SurveyKey: "missing", Pivot: models.PivotSpec{RowDims: []string{"region"}},
	})

	require.NoError(t, err)
	require.NotNil(t, out.EmptyState)
	assert.Equal(t, pivot.MsgNoData, out.EmptyState.Message)
}

func TestExecute_LoadFailure(t *testing.T) {
	p := workertest.NewProvider()
	p.Err = apperrors.NewRequiredColumnsMissingError([]string{"sentiment"})
	h := createTestHandler(t, p)

	_, err := h.Execute(context.Background(), &Input{Env: "dev", SurveyKey: "x"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDimensionValuesFailed))
}
