package pivotdrillthrough

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

// ==========================
// Test Helper Functions
// ==========================

func createTestHandler(t *testing.T, p *workertest.Provider, limit int) *Handler {
	cfg := LoadConfig()
	if limit > 0 {
		cfg.DetailRowLimit = limit
	}
	return NewHandler(cfg, p, nil, logger.NewTestLogger(t))
}

func strPtr(s string) *string { return &s }

func answers(records []pivot.DetailRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Answer
	}
	return out
}

// ==========================
// Execute
// ==========================

func TestExecute_RowDimensionClick(t *testing.T) {
	h := createTestHandler(t, workertest.NewProvider().WithTable(workertest.SurveyTable()), 0)

	out, err := h.Execute(context.Background(), &Input{
		Env:       workertest.Env,
		SurveyKey: workertest.SurveyKey,
		Pivot:     models.PivotSpec{RowDims: []string{"region"}, QuestionID: "Q1"},
		Click:     pivot.Click{X: "S"},
	})

	require.NoError(t, err)
	assert.Nil(t, out.EmptyState)
	assert.Equal(t, 5, out.Count)
	assert.Equal(t, pivot.DefaultDetailLimit, out.Limit)
	assert.Equal(t, "02/01/2024 10:30", out.Records[0].DateOfResponse)
	assert.Equal(t, []string{"Ótimo", "Ótimo", "Ruim", "Bom", "Ruim"}, answers(out.Records))
}

func TestExecute_CrossTabClickRespectsLimit(t *testing.T) {
	h := createTestHandler(t, workertest.NewProvider().WithTable(workertest.SurveyTable()), 1)

	out, err := h.Execute(context.Background(), &Input{
		Env:       workertest.Env,
		SurveyKey: workertest.SurveyKey,
		Pivot: models.PivotSpec{
			RowDims:      []string{models.DerivedAnswerDimension},
			ColDim:       "region",
			QuestionID:   "Q1",
			UseAnswerDim: true,
		},
		Click: pivot.Click{X: "Ruim", ColumnValue: strPtr("S")},
	})

	require.NoError(t, err)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "06/01/2024 10:30", out.Records[0].DateOfResponse)
	assert.Equal(t, "Ruim", out.Records[0].Answer)
}

func TestExecute_EmptyStates(t *testing.T) {
	tests := []struct {
		name  string
		spec  models.PivotSpec
		click pivot.Click
		want  string
	}{
		{"no match", models.PivotSpec{RowDims: []string{"region"}}, pivot.Click{X: "W"}, pivot.MsgNoRecordsForPoint},
		{"pii dimension", models.PivotSpec{RowDims: []string{"email"}}, pivot.Click{X: "r01@example.com"}, pivot.MsgDimensionUnavailable},
		{"question without data", models.PivotSpec{RowDims: []string{"region"}, QuestionID: "Q9"}, pivot.Click{X: "N"}, pivot.MsgQuestionNoData},
	}

	h := createTestHandler(t, workertest.NewProvider().WithTable(workertest.SurveyTable()), 0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := h.Execute(context.Background(), &Input{
				Env: workertest.Env, SurveyKey: workertest.SurveyKey, Pivot: tt.spec, Click: tt.click,
			})
			require.NoError(t, err)
			require.NotNil(t, out.EmptyState)
			assert.Equal(t, tt.want, out.EmptyState.Message)
			assert.NotNil(t, out.Records)
			assert.Equal(t, 0, out.Count)
		})
	}
}

func TestExecute_LoadFailure(t *testing.T) {
	p := workertest.NewProvider()
	p.Err = apperrors.NewTableUnparsableError("bucket/key", errors.New("bad quote"))
	h := createTestHandler(t, p, 0)

	_, err := h.Execute(context.Background(), &Input{Env: "dev", SurveyKey: "x", Click: pivot.Click{X: "a"}})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDrillThroughFailed)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeTableUnparsable))
}

// ==========================
// Input validation
// ==========================

func TestInputValidation(t *testing.T) {
	valid := map[string]interface{}{
		"env": "dev", "surveyKey": "s1",
		"pivot": map[string]interface{}{"rowDims": []string{"region"}},
		"click": map[string]interface{}{"x": "N", "columnValue": "positivo"},
	}
	var in Input
	require.NoError(t, inputValidator.Decode([]byte(workertest.Job(1, TaskType, valid).Variables), &in))
	assert.Equal(t, "N", in.Click.X)
	require.NotNil(t, in.Click.ColumnValue)
	assert.Equal(t, "positivo", *in.Click.ColumnValue)

	noClick := map[string]interface{}{
		"env": "dev", "surveyKey": "s1",
		"pivot": map[string]interface{}{"rowDims": []string{"region"}},
	}
	err := inputValidator.Decode([]byte(workertest.Job(2, TaskType, noClick).Variables), &in)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))

	noRows := map[string]interface{}{
		"env": "dev", "surveyKey": "s1",
		"pivot": map[string]interface{}{"rowDims": []string{}},
		"click": map[string]interface{}{"x": "N"},
	}
	err = inputValidator.Decode([]byte(workertest.Job(3, TaskType, noRows).Variables), &in)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
}
