// internal/workers/analytics/survey-dataset-overview/handler.go
package surveydatasetoverview

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"ai2c-dataviz/internal/analytics/dataset"
	"ai2c-dataviz/internal/analytics/guard"
	"ai2c-dataviz/internal/analytics/insights"
	"ai2c-dataviz/internal/analytics/pivot"
	apperrors "ai2c-dataviz/internal/common/errors"
	"ai2c-dataviz/internal/common/logger"
	"ai2c-dataviz/internal/common/metrics"
	"ai2c-dataviz/internal/common/observability"
	"ai2c-dataviz/internal/common/validation"
	"ai2c-dataviz/internal/models"
)

const (
	TaskType = "survey-dataset-overview"
)

var (
	ErrOverviewFailed = errors.New("OVERVIEW_FAILED")
)

var inputValidator = validation.MustCompileJSON(inputSchema)

type Handler struct {
	config *Config
	data   dataset.Provider
	guard  *guard.Guard
	obs    *observability.Observability
	errs   *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, data dataset.Provider, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		data:   data,
		guard:  guard.New(config.Guard),
		obs:    obs,
		errs:   apperrors.NewErrorHandler(log),
		logger: log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := inputValidator.Decode([]byte(job.Variables), &input); err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

// Execute summarizes a survey table for the dashboard header and pickers.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()

	table, err := h.data.Table(ctx, input.Env, input.SurveyKey)
	if err != nil {
		h.obs.RecordOperation(ctx, TaskType, "error", time.Since(start))
		return nil, fmt.Errorf("%w: %w", ErrOverviewFailed, err)
	}

	output := &Output{
		RequestID:       uuid.New().String(),
		Questions:       []insights.Question{},
		Dimensions:      []string{},
		PivotDimensions: []string{},
		MetricColumns:   []string{},
		Granularity:     insights.ParseGranularity(input.Granularity),
		Timeline:        []insights.TimelinePoint{},
		Topics:          []insights.Share{},
	}

	if table.IsEmpty() {
		output.EmptyState = &models.EmptyState{Message: pivot.MsgNoData}
		h.obs.RecordOperation(ctx, TaskType, "empty_state", time.Since(start))
		return output, nil
	}

	fields := insights.AvailablePivotFields(table, h.guard)
	output.Stats = insights.DatasetStats(table)
	output.Questions = insights.OrderedQuestions(table)
	output.Dimensions = h.guard.AllowedDimensions(table)
	output.PivotDimensions = fields.Dimensions
	output.MetricColumns = fields.Metrics
	output.Timeline = insights.SentimentTimeline(table.Rows, output.Granularity)
	output.Topics = insights.TopicDistribution(table.Rows, h.config.Options.TopicHead)

	if input.IncludeSample {
		size := input.SampleSize
		if size <= 0 {
			size = h.config.Options.RawSampleSize
		}
		sample := insights.RawSample(table, size)
		output.Sample = &sample
	}

	h.obs.RecordOperation(ctx, TaskType, "ok", time.Since(start))
	h.logger.Info("overview built", map[string]interface{}{
		"requestId": output.RequestID,
		"env":       input.Env,
		"surveyKey": input.SurveyKey,
		"responses": output.Stats.TotalResponses,
		"questions": len(output.Questions),
	})
	return output, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	code := apperrors.ErrCodeInternal
	if stdErr, ok := apperrors.AsStandardError(err); ok {
		code = stdErr.Code
	}
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(code)).Inc()
	h.errs.HandleJobError(ctx, client, job, err)
}
