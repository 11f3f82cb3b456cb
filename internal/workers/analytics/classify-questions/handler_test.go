package classifyquestions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai2c-dataviz/internal/analytics/classifier"
	"ai2c-dataviz/internal/analytics/pivot"
	apperrors "ai2c-dataviz/internal/common/errors"
	"ai2c-dataviz/internal/common/logger"
	"ai2c-dataviz/internal/models"
	"ai2c-dataviz/internal/workers/analytics/workertest"
)

func createTestHandler(t *testing.T, p *workertest.Provider) *Handler {
	return NewHandler(LoadConfig(), p, logger.NewTestLogger(t))
}

func byID(questions []QuestionType) map[string]QuestionType {
	out := make(map[string]QuestionType, len(questions))
	for _, q := range questions {
		out[q.QuestionID] = q
	}
	return out
}

// ==========================
// Execute
// ==========================

func TestExecute_AllQuestions(t *testing.T) {
	h := createTestHandler(t, workertest.NewProvider().WithTable(workertest.SurveyTable()))

	out, err := h.Execute(context.Background(), &Input{Env: workertest.Env, SurveyKey: workertest.SurveyKey})

	require.NoError(t, err)
	require.Nil(t, out.EmptyState)
	require.Len(t, out.Questions, 4)

	ids := make([]string, len(out.Questions))
	for i, q := range out.Questions {
		ids[i] = q.QuestionID
	}
	assert.Equal(t, []string{"Q1", "Q2", "Q3", "Q4"}, ids)

	tests := []struct {
		id        string
		kind      classifier.Kind
		viz       models.VizType
		responses int
	}{
		{"Q1", classifier.KindCategorical, models.VizSingleChoice, 10},
		{"Q2", classifier.KindMultiple, models.VizMultipleChoice, 4},
		{"Q3", classifier.KindNumeric, models.VizNumeric, 6},
		// five distinct answers is still a small sample
		{"Q4", classifier.KindCategorical, models.VizSingleChoice, 5},
	}
	got := byID(out.Questions)
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			q := got[tt.id]
			assert.Equal(t, tt.kind, q.Kind)
			assert.Equal(t, tt.viz, q.VizType)
			assert.False(t, q.FromSchema)
			assert.Equal(t, tt.responses, q.Responses)
			assert.Equal(t, "Description of "+tt.id, q.Label)
		})
	}
}

func TestExecute_SchemaWins(t *testing.T) {
	p := workertest.NewProvider().
		WithTable(workertest.SurveyTable()).
		WithSchema(models.Schema{"Q4": {VizType: models.VizOpenEnded}})
	h := createTestHandler(t, p)

	out, err := h.Execute(context.Background(), &Input{
		Env: workertest.Env, SurveyKey: workertest.SurveyKey, QuestionIDs: []string{"Q4", "Q1"},
	})

	require.NoError(t, err)
	require.Len(t, out.Questions, 2)
	assert.Equal(t, "Q4", out.Questions[0].QuestionID)
	assert.Equal(t, models.VizOpenEnded, out.Questions[0].VizType)
	assert.True(t, out.Questions[0].FromSchema)
	assert.Empty(t, out.Questions[0].Kind)
	assert.Equal(t, models.VizSingleChoice, out.Questions[1].VizType)
	assert.False(t, out.Questions[1].FromSchema)
}

func TestExecute_UnknownQuestion(t *testing.T) {
	h := createTestHandler(t, workertest.NewProvider().WithTable(workertest.SurveyTable()))

	out, err := h.Execute(context.Background(), &Input{
		Env: workertest.Env, SurveyKey: workertest.SurveyKey, QuestionIDs: []string{"Q99"},
	})

	require.NoError(t, err)
	require.Len(t, out.Questions, 1)
	q := out.Questions[0]
	assert.Equal(t, "Q99", q.Label)
	assert.Equal(t, classifier.KindEmpty, q.Kind)
	assert.Equal(t, models.VizOpenEnded, q.VizType)
	assert.Equal(t, 0, q.Responses)
}

func TestExecute_EmptyTable(t *testing.T) {
	h := createTestHandler(t, workertest.NewProvider())

	out, err := h.Execute(context.Background(), &Input{Env: "dev", SurveyKey: "missing"})

	require.NoError(t, err)
	require.NotNil(t, out.EmptyState)
	assert.Equal(t, pivot.MsgNoData, out.EmptyState.Message)
	assert.Empty(t, out.Questions)
}

func TestExecute_LoadFailure(t *testing.T) {
	p := workertest.NewProvider()
	p.Err = apperrors.NewRequiredColumnsMissingError([]string{"answer"})
	h := createTestHandler(t, p)

	_, err := h.Execute(context.Background(), &Input{Env: "dev", SurveyKey: "x"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrClassificationFailed)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRequiredColumnsMissing))
}

func TestExecute_Cancelled(t *testing.T) {
	h := createTestHandler(t, workertest.NewProvider().WithTable(workertest.SurveyTable()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Execute(ctx, &Input{Env: workertest.Env, SurveyKey: workertest.SurveyKey})

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeTimeout))
}

// ==========================
// Input validation
// ==========================

func TestInputValidation(t *testing.T) {
	var in Input
	job := workertest.Job(1, TaskType, map[string]interface{}{
		"env": "dev", "surveyKey": "s1", "questionIds": []string{"Q1"},
	})
	require.NoError(t, inputValidator.Decode([]byte(job.Variables), &in))
	assert.Equal(t, []string{"Q1"}, in.QuestionIDs)

	job = workertest.Job(2, TaskType, map[string]interface{}{"env": "dev", "questionIds": []string{""}})
	err := inputValidator.Decode([]byte(job.Variables), &in)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
}
