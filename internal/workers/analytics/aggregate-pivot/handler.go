// internal/workers/analytics/aggregate-pivot/handler.go
package aggregatepivot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

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
	TaskType = "aggregate-pivot"
)

var (
	ErrPivotFailed = errors.New("PIVOT_FAILED")
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

// Execute computes the pivot table and its chart projections. Requests the
// engine cannot answer come back as an EmptyState, not an error.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "pivot.compute",
		attribute.String("env", input.Env),
		attribute.String("surveyKey", input.SurveyKey),
		attribute.StringSlice("rowDims", input.Pivot.RowDims),
		attribute.String("colDim", input.Pivot.ColDim),
	)
	defer span.End()

	table, err := h.data.Table(ctx, input.Env, input.SurveyKey)
	if err != nil {
		span.RecordError(err)
		h.obs.RecordOperation(ctx, TaskType, "error", time.Since(start))
		return nil, fmt.Errorf("%w: %w", ErrPivotFailed, err)
	}

	spec := input.Pivot
	if spec.Metric == "" {
		spec.Metric = models.CountMetric
	}

	output := &Output{
		RequestID:  uuid.New().String(),
		ComputedAt: time.Now().UTC(),
	}

	if !table.IsEmpty() {
		if empty := insights.AvailablePivotFields(table, h.guard).Check(spec); empty != nil {
			output.EmptyState = empty
			h.finish(ctx, input, output, start)
			return output, nil
		}
	}

	out := pivot.Compute(table, spec, h.data.Schema(ctx, input.Env, input.SurveyKey))
	output.Result = out.Result
	output.Charts = out.Charts
	output.EmptyState = out.Empty
	if out.Question != nil {
		output.Question = &QuestionType{
			QuestionID: spec.QuestionID,
			VizType:    out.Question.VizType,
			FromSchema: out.Question.FromSchema,
		}
	}

	h.finish(ctx, input, output, start)
	return output, nil
}

func (h *Handler) finish(ctx context.Context, input *Input, output *Output, start time.Time) {
	outcome := "ok"
	if output.EmptyState != nil {
		outcome = "empty_state"
	}
	metrics.PivotRequests.WithLabelValues(outcome).Inc()
	h.obs.RecordOperation(ctx, TaskType, outcome, time.Since(start))

	fields := map[string]interface{}{
		"requestId": output.RequestID,
		"env":       input.Env,
		"surveyKey": input.SurveyKey,
		"outcome":   outcome,
	}
	if output.Result != nil {
		fields["rows"] = len(output.Result.Rows)
	}
	if output.EmptyState != nil {
		fields["message"] = output.EmptyState.Message
	}
	h.logger.Info("pivot computed", fields)
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
