package pool

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dataqueue/dataqueue/internal/config"
	"github.com/dataqueue/dataqueue/internal/job"
	"github.com/dataqueue/dataqueue/internal/telemetry"
	"github.com/dataqueue/dataqueue/internal/worker"
	"github.com/google/uuid"
)

// WorkerPool runs a set of polling workers plus a janitor that periodically
// reclaims stuck jobs and prunes old completed ones.
type WorkerPool struct {
	workers []*worker.Worker
	service job.JobServiceInterface
	cfg     *config.QueueConfig
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewWorkerPool(service job.JobServiceInterface, handlers worker.Registry, cfg *config.QueueConfig) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	p := &WorkerPool{service: service, cfg: cfg, ctx: ctx, cancel: cancel}

	for i := 0; i < cfg.MaxWorkers; i++ {
		id := fmt.Sprintf("worker-%s", uuid.NewString())
		p.workers = append(p.workers, worker.NewWorker(
			id, service, handlers, cfg.BatchSize, cfg.PollInterval, cfg.MaxPollInterval,
		))
	}
	return p
}

func (p *WorkerPool) Start() {
	for _, w := range p.workers {
		w.Start(p.ctx)
	}

	p.wg.Add(1)
	go p.janitor()
}

// janitor restores liveness: stale processing locks go back to pending, and
// completed jobs past the retention window are deleted.
func (p *WorkerPool) janitor() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.cfg.JanitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			reclaimed, err := p.service.ReclaimStuckJobs(p.ctx, p.cfg.ReclaimThreshold)
			if err != nil {
				log.Printf("[janitor] reclaim failed: %v", err)
			} else if reclaimed > 0 {
				log.Printf("[janitor] reclaimed %d stuck jobs", reclaimed)
				telemetry.JobsReclaimed.Add(float64(reclaimed))
			}

			deleted, err := p.service.CleanupOldJobs(p.ctx, p.cfg.RetentionDays)
			if err != nil {
				log.Printf("[janitor] cleanup failed: %v", err)
			} else if deleted > 0 {
				log.Printf("[janitor] deleted %d old completed jobs", deleted)
				telemetry.JobsCleaned.Add(float64(deleted))
			}
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *WorkerPool) Stop() {
	p.cancel()
	for _, w := range p.workers {
		w.Stop()
	}
	p.wg.Wait()
}
