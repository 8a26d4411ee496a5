package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dataqueue/dataqueue/internal/config"
	"github.com/dataqueue/dataqueue/internal/job"
	"github.com/dataqueue/dataqueue/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type JobEventRepository struct {
	db *gorm.DB
}

func NewJobEventRepository(db *gorm.DB) *JobEventRepository {
	return &JobEventRepository{db: db}
}

var _ job.JobEventRepoInterface = (*JobEventRepository)(nil)

// Append records one lifecycle event. Events are never updated or deleted by
// the engine; retention of old events is an operator concern.
func (r *JobEventRepository) Append(ctx context.Context, jobID uint, eventType config.JobEventType, metadata datatypes.JSON, now time.Time) error {
	event := models.JobEvent{
		JobID:     jobID,
		EventType: string(eventType),
		Metadata:  metadata,
		CreatedAt: now,
	}
	if err := r.db.WithContext(ctx).Create(&event).Error; err != nil {
		return fmt.Errorf("append job event: %w", err)
	}
	return nil
}

// ListByJob returns a job's events oldest first. Id breaks ties between
// events recorded at the same instant.
func (r *JobEventRepository) ListByJob(ctx context.Context, jobID uint) ([]models.JobEvent, error) {
	var events []models.JobEvent
	if err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at ASC, id ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list job events: %w", err)
	}
	return events, nil
}
