package main

import (
	"context"
	"log"
	"os"

	"github.com/dataqueue/dataqueue/internal/clock"
	"github.com/dataqueue/dataqueue/internal/job"
	"github.com/dataqueue/dataqueue/internal/models"
	"github.com/dataqueue/dataqueue/internal/storage/postgres"
	"github.com/dataqueue/dataqueue/internal/telemetry"
	"github.com/dataqueue/dataqueue/middleware"
	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("Starting dataqueue API...")

	ctx := context.Background()
	cfg, err := postgres.LoadConfigFromEnv(ctx)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	db, err := postgres.ConnectDB(ctx, cfg)
	if err != nil {
		log.Fatal("Connection failed:", err)
	}

	if err := postgres.MigrateModels(db, &models.Job{}, &models.JobEvent{}); err != nil {
		log.Fatal("Migration failed:", err)
	}

	repo := postgres.NewJobRepository(db)
	events := postgres.NewJobEventRepository(db)
	service := job.NewJobService(repo, events, clock.System(), nil)
	handler := job.NewJobHandler(service)

	r := gin.Default()
	r.Use(middleware.ErrorHandler())

	r.POST("/jobs", handler.Create)
	r.GET("/jobs", handler.List)
	r.GET("/jobs/:id", handler.Get)
	r.GET("/jobs/:id/events", handler.Events)
	r.POST("/jobs/next-batch", handler.NextBatch)
	r.POST("/jobs/:id/complete", handler.Complete)
	r.POST("/jobs/:id/fail", handler.Fail)
	r.POST("/jobs/:id/retry", handler.Retry)
	r.POST("/jobs/:id/cancel", handler.Cancel)
	r.POST("/jobs/cancel-upcoming", handler.CancelUpcoming)
	r.POST("/maintenance/reclaim", handler.Reclaim)
	r.POST("/maintenance/cleanup", handler.Cleanup)
	r.GET("/metrics", gin.WrapH(telemetry.Handler()))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("API listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Server failed:", err)
	}
}
