// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"

	"dinediscover/internal/common/observability"
)

// JobHandler completes or fails the job itself; see errors.ErrorHandler.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

type WorkerOptions struct {
	MaxJobsActive int
	Timeout       time.Duration
	// Observability is optional.
	Observability *observability.Observability
}

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   *zap.Logger
	taskType string
}

// NewWorker opens a job worker for taskType. The zbc client is shared and owned by the caller.
func NewWorker(client zbc.Client, taskType string, opts WorkerOptions, handler JobHandler, logger *zap.Logger) *CamundaWorker {
	log := logger.With(zap.String("taskType", taskType))

	step := client.NewJobWorker().
		JobType(taskType).
		Handler(func(jc worker.JobClient, job entities.Job) {
			start := time.Now()
			status := "handled"
			defer func() {
				if r := recover(); r != nil {
					status = "panicked"
					log.Error("handler panicked", zap.Any("panic", r), zap.Int64("jobKey", job.Key))
				}
				opts.Observability.RecordJobProcessed(context.Background(), taskType, status)
				opts.Observability.RecordJobDuration(context.Background(), taskType, time.Since(start), status)
			}()
			handler.Handle(jc, job)
		}).
		MaxJobsActive(opts.MaxJobsActive)
	if opts.Timeout > 0 {
		step = step.Timeout(opts.Timeout)
	}

	return &CamundaWorker{
		worker:   step.Open(),
		logger:   log,
		taskType: taskType,
	}
}

func (w *CamundaWorker) TaskType() string { return w.taskType }

func (w *CamundaWorker) Start() {
	w.logger.Info("worker started")
}

// Stop closes the job stream and waits for in-flight handlers or ctx, whichever comes first.
func (w *CamundaWorker) Stop(ctx context.Context) {
	w.logger.Info("stopping worker")
	done := make(chan struct{})
	go func() {
		w.worker.Close()
		w.worker.AwaitClose()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("worker stop timed out")
	}
}
