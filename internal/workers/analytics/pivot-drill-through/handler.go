// internal/workers/analytics/pivot-drill-through/handler.go
package pivotdrillthrough

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
)

const (
	TaskType = "pivot-drill-through"
)

var (
	ErrDrillThroughFailed = errors.New("DRILL_THROUGH_FAILED")
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

// Execute lists the responses behind a clicked chart point, oldest first,
// capped at the configured row limit.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()

	table, err := h.data.Table(ctx, input.Env, input.SurveyKey)
	if err != nil {
		h.obs.RecordOperation(ctx, TaskType, "error", time.Since(start))
		return nil, fmt.Errorf("%w: %w", ErrDrillThroughFailed, err)
	}

	output := &Output{
		RequestID: uuid.New().String(),
		Records:   []pivot.DetailRecord{},
		Limit:     h.config.DetailRowLimit,
	}

	if !table.IsEmpty() {
		output.EmptyState = insights.AvailablePivotFields(table, h.guard).Check(input.Pivot)
	}
	if output.EmptyState == nil {
		records, empty := pivot.DrillThrough(table, input.Pivot,
			h.data.Schema(ctx, input.Env, input.SurveyKey), input.Click, h.config.DetailRowLimit)
		if records != nil {
			output.Records = records
		}
		output.EmptyState = empty
	}
	output.Count = len(output.Records)

	status := "ok"
	if output.EmptyState != nil {
		status = "empty_state"
	}
	h.obs.RecordOperation(ctx, TaskType, status, time.Since(start))

	h.logger.Info("drill-through listed", map[string]interface{}{
		"requestId": output.RequestID,
		"env":       input.Env,
		"surveyKey": input.SurveyKey,
		"x":         input.Click.X,
		"records":   output.Count,
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
