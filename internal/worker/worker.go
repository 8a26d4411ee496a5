package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dataqueue/dataqueue/internal/dto"
	"github.com/dataqueue/dataqueue/internal/job"
	"github.com/dataqueue/dataqueue/internal/telemetry"
)

// Worker polls the engine for batches of due jobs, runs them through the
// handler registry, and reports the outcome. Claim exclusivity lives in the
// store, so any number of workers can poll the same queue.
type Worker struct {
	ID           string
	service      job.JobServiceInterface
	handlers     Registry
	batchSize    int
	pollInterval time.Duration
	maxInterval  time.Duration
	quit         chan struct{}
}

func NewWorker(id string, service job.JobServiceInterface, handlers Registry, batchSize int, pollInterval, maxInterval time.Duration) *Worker {
	return &Worker{
		ID:           id,
		service:      service,
		handlers:     handlers,
		batchSize:    batchSize,
		pollInterval: pollInterval,
		maxInterval:  maxInterval,
		quit:         make(chan struct{}),
	}
}

func (w *Worker) Start(ctx context.Context) {
	go func() {
		currentDelay := w.pollInterval

		for {
			n := w.pullAndProcess(ctx)

			if n > 0 {
				currentDelay = w.pollInterval
			} else {
				currentDelay = min(currentDelay*2, w.maxInterval)
			}

			select {
			case <-time.After(currentDelay):
			case <-w.quit:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (w *Worker) pullAndProcess(ctx context.Context) int {
	jobs, err := w.service.GetNextBatch(ctx, w.ID, w.batchSize)
	if err != nil {
		log.Printf("[worker %s] claim failed: %v", w.ID, err)
		return 0
	}

	for i := range jobs {
		telemetry.JobsClaimed.Inc()
		w.process(ctx, &jobs[i])
	}
	return len(jobs)
}

func (w *Worker) process(ctx context.Context, j *dto.JobResponseDTO) {
	handler, ok := w.handlers[j.JobType]
	if !ok {
		w.fail(ctx, j.ID, fmt.Sprintf("no handler registered for job type %q", j.JobType))
		return
	}

	if err := handler(ctx, j.Payload); err != nil {
		w.fail(ctx, j.ID, err.Error())
		return
	}

	if err := w.service.CompleteJob(ctx, j.ID); err != nil {
		log.Printf("[worker %s] complete job %d: %v", w.ID, j.ID, err)
		return
	}
	telemetry.JobsCompleted.Inc()
}

func (w *Worker) fail(ctx context.Context, id uint, msg string) {
	if err := w.service.FailJob(ctx, id, msg); err != nil {
		log.Printf("[worker %s] fail job %d: %v", w.ID, id, err)
		return
	}
	telemetry.JobsFailed.Inc()
}

func (w *Worker) Stop() { close(w.quit) }
