// internal/workers/restaurant-search/record-search/handler.go
package recordsearch

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"dinediscover/internal/common/database"
	apperrors "dinediscover/internal/common/errors"
	"dinediscover/internal/common/metrics"
	"dinediscover/internal/common/observability"
	"dinediscover/internal/models"
	"dinediscover/pkg/registry"
)

const (
	TaskType = registry.TaskRecordSearch
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Execer is satisfied by database.PostgresClient.
type Execer interface {
	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

var _ Execer = (*database.PostgresClient)(nil)

type Handler struct {
	config     *Config
	db         Execer
	logger     Logger
	errHandler *apperrors.ErrorHandler
	now        func() time.Time
}

// NewHandler accepts a nil db; searches are then not recorded.
func NewHandler(config *Config, db Execer, log Logger) *Handler {
	l := log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		db:         db,
		logger:     l,
		errHandler: apperrors.NewErrorHandler(l),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(client, job, apperrors.NewInvalidRequestError(err.Error()))
		return
	}

	output, err := h.execute(ctx, &input)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	if err != nil {
		h.fail(client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (out *Output, err error) {
	if h.db == nil {
		return &Output{Recorded: false}, nil
	}

	ctx, span := observability.StartSpan(ctx, TaskType)
	defer func() { observability.EndSpan(span, err) }()

	entry := h.buildEntry(input)
	params, err := json.Marshal(entry.Params)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	if _, err := h.db.Exec(ctx, insertSearchLog,
		entry.ID,
		entry.Message,
		string(params),
		entry.ResultCount,
		string(entry.Status),
		entry.ErrorCode,
		entry.DurationMs,
		entry.CreatedAt,
	); err != nil {
		return nil, apperrors.NewSearchLogFailedError(err)
	}

	h.logger.Info("search recorded", map[string]interface{}{
		"id":     entry.ID,
		"status": entry.Status,
	})
	return &Output{Recorded: true, ID: entry.ID}, nil
}

func (h *Handler) buildEntry(input *Input) models.SearchLog {
	status := input.Status
	if status != models.SearchStatusFailed {
		status = models.SearchStatusSucceeded
	}

	message := []rune(input.Message)
	if h.config.MaxMessageLength > 0 && len(message) > h.config.MaxMessageLength {
		message = message[:h.config.MaxMessageLength]
	}

	return models.SearchLog{
		ID:          uuid.Must(uuid.NewV7()).String(),
		Message:     string(message),
		Params:      input.Params,
		ResultCount: input.ResultCount,
		Status:      status,
		ErrorCode:   input.ErrorCode,
		DurationMs:  input.DurationMs,
		CreatedAt:   h.now(),
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	code := string(apperrors.ErrCodeInternal)
	if stdErr, ok := apperrors.AsStandardError(err); ok {
		code = string(stdErr.Code)
	}
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
	h.errHandler.HandleJobError(context.Background(), client, job, err)
}
