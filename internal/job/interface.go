package job

import (
	"context"
	"time"

	"github.com/dataqueue/dataqueue/internal/config"
	"github.com/dataqueue/dataqueue/internal/dto"
	"github.com/dataqueue/dataqueue/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

// JobRepoInterface is the durable-store contract the lifecycle engine runs
// against. Every method is a single atomic operation with respect to
// concurrent callers; Claim additionally guarantees that two racing callers
// never receive overlapping rows.
type JobRepoInterface interface {
	Create(ctx context.Context, j *models.Job) error
	Get(ctx context.Context, id uint) (*models.Job, error)
	ListByStatus(ctx context.Context, status config.JobStatus) ([]models.Job, error)
	ListAll(ctx context.Context, limit, offset int) ([]models.Job, error)
	Claim(ctx context.Context, workerID string, limit int, now time.Time) ([]models.Job, error)
	MarkCompleted(ctx context.Context, id uint, now time.Time) (bool, error)
	MarkFailed(ctx context.Context, id uint, message string, now time.Time, nextAttemptAt *time.Time) (bool, error)
	MarkRetried(ctx context.Context, id uint, now time.Time) (bool, error)
	MarkCancelled(ctx context.Context, id uint, now time.Time) (bool, error)
	CancelAllPending(ctx context.Context, now time.Time) ([]uint, error)
	ReclaimStuck(ctx context.Context, lockedBefore, now time.Time) (int64, error)
	DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// JobEventRepoInterface is the append-only audit log contract.
type JobEventRepoInterface interface {
	Append(ctx context.Context, jobID uint, eventType config.JobEventType, metadata datatypes.JSON, now time.Time) error
	ListByJob(ctx context.Context, jobID uint) ([]models.JobEvent, error)
}

// JobServiceInterface is the public surface of the job lifecycle engine.
type JobServiceInterface interface {
	AddJob(ctx context.Context, req *dto.JobCreateDTO) (uint, error)
	GetJob(ctx context.Context, id uint) (*dto.JobResponseDTO, error)
	GetJobsByStatus(ctx context.Context, status config.JobStatus) ([]dto.JobResponseDTO, error)
	GetAllJobs(ctx context.Context, limit, offset int) ([]dto.JobResponseDTO, error)
	GetNextBatch(ctx context.Context, workerID string, maxCount int) ([]dto.JobResponseDTO, error)
	CompleteJob(ctx context.Context, id uint) error
	FailJob(ctx context.Context, id uint, errMsg string) error
	RetryJob(ctx context.Context, id uint) error
	CancelJob(ctx context.Context, id uint) error
	CancelAllUpcomingJobs(ctx context.Context) (int64, error)
	ReclaimStuckJobs(ctx context.Context, threshold time.Duration) (int64, error)
	CleanupOldJobs(ctx context.Context, olderThanDays int) (int64, error)
	GetJobEvents(ctx context.Context, id uint) ([]dto.JobEventDTO, error)
}

// JobHandlerInterface defines the HTTP handlers over the engine.
type JobHandlerInterface interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	List(c *gin.Context)
	Events(c *gin.Context)
	NextBatch(c *gin.Context)
	Complete(c *gin.Context)
	Fail(c *gin.Context)
	Retry(c *gin.Context)
	Cancel(c *gin.Context)
	CancelUpcoming(c *gin.Context)
	Reclaim(c *gin.Context)
	Cleanup(c *gin.Context)
}
