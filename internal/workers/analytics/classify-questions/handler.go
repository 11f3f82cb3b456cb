// internal/workers/analytics/classify-questions/handler.go
package classifyquestions

import (
	"context"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ai2c-dataviz/internal/analytics/classifier"
	"ai2c-dataviz/internal/analytics/dataset"
	"ai2c-dataviz/internal/analytics/insights"
	"ai2c-dataviz/internal/analytics/pivot"
	apperrors "ai2c-dataviz/internal/common/errors"
	"ai2c-dataviz/internal/common/logger"
	"ai2c-dataviz/internal/common/metrics"
	"ai2c-dataviz/internal/common/validation"
	"ai2c-dataviz/internal/models"
)

const (
	TaskType = "classify-questions"
)

var (
	ErrClassificationFailed = errors.New("CLASSIFICATION_FAILED")
)

var inputValidator = validation.MustCompileJSON(inputSchema)

type Handler struct {
	config *Config
	data   dataset.Provider
	errs   *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, data dataset.Provider, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		data:   data,
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

// Execute resolves the visualization type of the requested questions, or of
// every question in the table when none are named. A type declared by the
// schema wins over the answer heuristic.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	table, err := h.data.Table(ctx, input.Env, input.SurveyKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClassificationFailed, err)
	}

	output := &Output{
		RequestID: uuid.New().String(),
		Questions: []QuestionType{},
	}
	if table.IsEmpty() {
		output.EmptyState = &models.EmptyState{Message: pivot.MsgNoData}
		return output, nil
	}

	listing := insights.OrderedQuestions(table)
	labels := make(map[string]string, len(listing))
	for _, q := range listing {
		labels[q.ID] = q.Label
	}

	ids := input.QuestionIDs
	if len(ids) == 0 {
		ids = make([]string, len(listing))
		for i, q := range listing {
			ids[i] = q.ID
		}
	}

	schema := h.data.Schema(ctx, input.Env, input.SurveyKey)
	output.Questions = make([]QuestionType, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	if h.config.Concurrency > 0 {
		g.SetLimit(h.config.Concurrency)
	}
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows := table.QuestionRows(id)
			res := classifier.Resolve(id, models.Answers(rows), schema)
			label := labels[id]
			if label == "" {
				label = id
			}
			output.Questions[i] = QuestionType{
				QuestionID: id,
				Label:      label,
				Kind:       res.Kind,
				VizType:    res.VizType,
				FromSchema: res.FromSchema,
				Responses:  len(rows),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClassificationFailed, apperrors.NewTimeoutError(TaskType, err))
	}

	fromSchema := 0
	for _, q := range output.Questions {
		source := "heuristic"
		if q.FromSchema {
			source = "schema"
			fromSchema++
		}
		metrics.Classifications.WithLabelValues(string(q.VizType), source).Inc()
	}

	h.logger.Info("questions classified", map[string]interface{}{
		"requestId":  output.RequestID,
		"env":        input.Env,
		"surveyKey":  input.SurveyKey,
		"questions":  len(output.Questions),
		"fromSchema": fromSchema,
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
