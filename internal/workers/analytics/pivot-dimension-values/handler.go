// internal/workers/analytics/pivot-dimension-values/handler.go
package pivotdimensionvalues

import (
	"context"
	"errors"
	"fmt"

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
	"ai2c-dataviz/internal/common/validation"
	"ai2c-dataviz/internal/models"
)

const (
	TaskType = "pivot-dimension-values"
)

var (
	ErrDimensionValuesFailed = errors.New("DIMENSION_VALUES_FAILED")
)

var inputValidator = validation.MustCompileJSON(inputSchema)

type Handler struct {
	config *Config
	data   dataset.Provider
	guard  *guard.Guard
	errs   *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, data dataset.Provider, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		data:   data,
		guard:  guard.New(config.Guard),
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

// Execute lists the options of the dimension filter. The filter itself is
// not applied, so the list does not shrink as values are picked.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	table, err := h.data.Table(ctx, input.Env, input.SurveyKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDimensionValuesFailed, err)
	}

	spec := input.Pivot
	spec.DimensionFilter = models.DimensionFilter{}

	output := &Output{
		RequestID:     uuid.New().String(),
		Column:        input.Column,
		Values:        []string{},
		FilterColumns: pivot.FilterColumns(spec.RowDims, spec.ColDim),
	}
	if output.Column == "" && len(output.FilterColumns) > 0 {
		output.Column = output.FilterColumns[0]
	}

	switch {
	case table.IsEmpty():
		output.EmptyState = &models.EmptyState{Message: pivot.MsgNoData}
	case output.Column == "":
		output.EmptyState = &models.EmptyState{Message: pivot.MsgNoRowDimension}
	case !insights.AvailablePivotFields(table, h.guard).HasDimension(output.Column):
		output.EmptyState = &models.EmptyState{Message: pivot.MsgDimensionUnavailable}
	default:
		output.Values = pivot.DimensionValues(table, spec, h.data.Schema(ctx, input.Env, input.SurveyKey), output.Column)
	}

	h.logger.Debug("dimension values listed", map[string]interface{}{
		"requestId": output.RequestID,
		"column":    output.Column,
		"values":    len(output.Values),
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
