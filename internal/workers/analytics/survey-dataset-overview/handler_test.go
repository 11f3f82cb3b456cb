package surveydatasetoverview

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai2c-dataviz/internal/analytics/insights"
	"ai2c-dataviz/internal/analytics/pivot"
	apperrors "ai2c-dataviz/internal/common/errors"
	"ai2c-dataviz/internal/common/logger"
	"ai2c-dataviz/internal/models"
	"ai2c-dataviz/internal/workers/analytics/workertest"
)

func createTestHandler(t *testing.T, p *workertest.Provider) *Handler {
	return NewHandler(LoadConfig(), p, nil, logger.NewTestLogger(t))
}

// ==========================
// Execute
// ==========================

func TestExecute_Overview(t *testing.T) {
	h := createTestHandler(t, workertest.NewProvider().WithTable(workertest.SurveyTable()))

	out, err := h.Execute(context.Background(), &Input{Env: workertest.Env, SurveyKey: workertest.SurveyKey})

	require.NoError(t, err)
	require.Nil(t, out.EmptyState)
	assert.NotEmpty(t, out.RequestID)

	assert.Equal(t, 25, out.Stats.TotalResponses)
	assert.Equal(t, 10, out.Stats.UniqueRespondents)
	assert.Equal(t, 4, out.Stats.UniqueQuestions)
	require.NotNil(t, out.Stats.Start)
	require.NotNil(t, out.Stats.End)
	assert.True(t, out.Stats.Start.Equal(*workertest.Day(1)))
	assert.True(t, out.Stats.End.Equal(*workertest.Day(10)))

	require.Len(t, out.Questions, 4)
	assert.Equal(t, "Q1", out.Questions[0].ID)
	assert.Equal(t, "Description of Q1", out.Questions[0].Label)

	assert.Equal(t, []string{"region"}, out.Dimensions)
	assert.Equal(t, []string{models.ColCategory, "region", models.ColSentiment, models.ColTopic}, out.PivotDimensions)
	assert.Empty(t, out.MetricColumns)
	assert.Nil(t, out.Sample)
}

func TestExecute_WeeklyTimeline(t *testing.T) {
	h := createTestHandler(t, workertest.NewProvider().WithTable(workertest.SurveyTable()))

	out, err := h.Execute(context.Background(), &Input{Env: workertest.Env, SurveyKey: workertest.SurveyKey})

	require.NoError(t, err)
	assert.Equal(t, insights.Weekly, out.Granularity)
	assert.Equal(t, []insights.TimelinePoint{
		{Period: "2024-01-01/2024-01-07", Sentiment: "negativo", Count: 3},
		{Period: "2024-01-01/2024-01-07", Sentiment: "neutro", Count: 5},
		{Period: "2024-01-01/2024-01-07", Sentiment: "positivo", Count: 14},
		{Period: "2024-01-08/2024-01-14", Sentiment: "positivo", Count: 3},
	}, out.Timeline)
}

func TestExecute_Granularity(t *testing.T) {
	tests := []struct {
		in         string
		want       insights.Granularity
		wantPoints int
	}{
		{"D", insights.Daily, 0},
		{"M", insights.Monthly, 3},
		{"", insights.Weekly, 4},
	}

	h := createTestHandler(t, workertest.NewProvider().WithTable(workertest.SurveyTable()))
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			out, err := h.Execute(context.Background(), &Input{
				Env: workertest.Env, SurveyKey: workertest.SurveyKey, Granularity: tt.in,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Granularity)
			if tt.wantPoints > 0 {
				assert.Len(t, out.Timeline, tt.wantPoints)
			}
			total := 0
			for _, p := range out.Timeline {
				total += p.Count
			}
			assert.Equal(t, 25, total)
		})
	}
}

func TestExecute_TopicDistribution(t *testing.T) {
	h := createTestHandler(t, workertest.NewProvider().WithTable(workertest.SurveyTable()))

	out, err := h.Execute(context.Background(), &Input{Env: workertest.Env, SurveyKey: workertest.SurveyKey})

	require.NoError(t, err)
	require.NotEmpty(t, out.Topics)
	assert.Equal(t, insights.Share{Label: "speed", Count: 11, Percent: 44}, out.Topics[0])
	assert.Equal(t, insights.Share{Label: "score", Count: 6, Percent: 24}, out.Topics[1])
}

func TestExecute_Sample(t *testing.T) {
	h := createTestHandler(t, workertest.NewProvider().WithTable(workertest.SurveyTable()))

	out, err := h.Execute(context.Background(), &Input{
		Env: workertest.Env, SurveyKey: workertest.SurveyKey, IncludeSample: true, SampleSize: 2,
	})

	require.NoError(t, err)
	require.NotNil(t, out.Sample)
	assert.Equal(t, 25, out.Sample.Total)
	assert.Len(t, out.Sample.Rows, 2)
	assert.Equal(t, models.ColRespondentID, out.Sample.Columns[0])
	assert.NotContains(t, out.Sample.Columns, "email")
	assert.NotContains(t, out.Sample.Columns, models.ColOrigAnswer)
	assert.Equal(t, "r00", out.Sample.Rows[0][0])
}

func TestExecute_EmptyTable(t *testing.T) {
	h := createTestHandler(t, workertest.NewProvider())

	out, err := h.Execute(context.Background(), &Input{Env: "dev", SurveyKey: "missing", IncludeSample: true})

	require.NoError(t, err)
	require.NotNil(t, out.EmptyState)
	assert.Equal(t, pivot.MsgNoData, out.EmptyState.Message)
	assert.Empty(t, out.Questions)
	assert.Nil(t, out.Sample)
}

func TestExecute_LoadFailure(t *testing.T) {
	p := workertest.NewProvider()
	p.Err = apperrors.NewTableUnparsableError("ai2c-genai-dev/x", errors.New("bare quote"))
	h := createTestHandler(t, p)

	_, err := h.Execute(context.Background(), &Input{Env: "dev", SurveyKey: "x"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOverviewFailed)
}

// ==========================
// Input validation
// ==========================

func TestInputValidation(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]interface{}
		wantErr bool
	}{
		{"minimal", map[string]interface{}{"env": "dev", "surveyKey": "s1"}, false},
		{"monthly with sample", map[string]interface{}{"env": "dev", "surveyKey": "s1", "granularity": "M", "includeSample": true, "sampleSize": 10}, false},
		{"unknown granularity", map[string]interface{}{"env": "dev", "surveyKey": "s1", "granularity": "Y"}, true},
		{"zero sample size", map[string]interface{}{"env": "dev", "surveyKey": "s1", "sampleSize": 0}, true},
		{"missing env", map[string]interface{}{"surveyKey": "s1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in Input
			err := inputValidator.Decode([]byte(workertest.Job(1, TaskType, tt.vars).Variables), &in)
			if tt.wantErr {
				assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "s1", in.SurveyKey)
		})
	}
}
