package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dataqueue/dataqueue/internal/clock"
	"github.com/dataqueue/dataqueue/internal/config"
	"github.com/dataqueue/dataqueue/internal/job"
	"github.com/dataqueue/dataqueue/internal/models"
	"github.com/dataqueue/dataqueue/internal/pool"
	"github.com/dataqueue/dataqueue/internal/storage/postgres"
	"github.com/dataqueue/dataqueue/internal/worker"
)

func main() {
	log.Println("Starting dataqueue workers...")

	ctx := context.Background()
	dbCfg, err := postgres.LoadConfigFromEnv(ctx)
	if err != nil {
		log.Fatal("Failed to load db config:", err)
	}

	queueCfg, err := config.LoadQueueConfigFromEnv(ctx)
	if err != nil {
		log.Fatal("Failed to load queue config:", err)
	}

	db, err := postgres.ConnectDB(ctx, dbCfg)
	if err != nil {
		log.Fatal("Connection failed:", err)
	}

	if err := postgres.MigrateModels(db, &models.Job{}, &models.JobEvent{}); err != nil {
		log.Fatal("Migration failed:", err)
	}

	repo := postgres.NewJobRepository(db)
	events := postgres.NewJobEventRepository(db)
	service := job.NewJobService(repo, events, clock.System(), nil)

	workerPool := pool.NewWorkerPool(service, worker.DefaultRegistry(), queueCfg)

	workerPool.Start()
	log.Printf("Worker pool active with %d workers. Press Ctrl+C to stop.", queueCfg.MaxWorkers)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	workerPool.Stop()
	log.Println("Shutdown complete.")
}
