package job

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/dataqueue/dataqueue/common"
	"github.com/dataqueue/dataqueue/internal/clock"
	"github.com/dataqueue/dataqueue/internal/config"
	"github.com/dataqueue/dataqueue/internal/dto"
	"github.com/dataqueue/dataqueue/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JobService is the job lifecycle engine. It owns every state-transition
// rule and emits one audit event per transition; all exclusivity under
// concurrency is delegated to the repository's atomic operations.
type JobService struct {
	repo    JobRepoInterface
	events  JobEventRepoInterface
	clk     clock.Clock
	backoff BackoffStrategy
}

// NewJobService builds the engine. A nil backoff selects the default
// exponential strategy.
func NewJobService(repo JobRepoInterface, events JobEventRepoInterface, clk clock.Clock, backoff BackoffStrategy) *JobService {
	if clk == nil {
		clk = clock.System()
	}
	if backoff == nil {
		backoff = DefaultBackoff()
	}
	return &JobService{repo: repo, events: events, clk: clk, backoff: backoff}
}

var _ JobServiceInterface = (*JobService)(nil)

// AddJob inserts a new pending job and records the added event. RunAt
// defaults to the current instant when the caller does not schedule it.
// The payload must be well-formed JSON (the column type requires it) but its
// shape is never inspected.
func (s *JobService) AddJob(ctx context.Context, req *dto.JobCreateDTO) (uint, error) {
	if err := ctx.Err(); err != nil {
		return 0, common.Errf(http.StatusRequestTimeout, "request canceled or timed out")
	}

	if !json.Valid(req.Payload) {
		return 0, common.Errf(http.StatusBadRequest, "payload must be valid JSON")
	}
	if req.JobType == "" {
		return 0, common.Errf(http.StatusBadRequest, "job_type is required")
	}

	now := s.clk.Now()
	runAt := now
	if req.RunAt != nil {
		runAt = req.RunAt.UTC()
	}

	j := models.Job{
		JobType:   req.JobType,
		Payload:   datatypes.JSON(req.Payload),
		Status:    string(config.JobStatusPending),
		RunAt:     runAt,
		Attempts:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, &j); err != nil {
		return 0, storeError(err, "failed to add job")
	}

	if err := s.events.Append(ctx, j.ID, config.JobEventAdded, nil, now); err != nil {
		return 0, storeError(err, "failed to record added event")
	}

	return j.ID, nil
}

// GetJob returns a job by id, or (nil, nil) when no such job exists.
// A missing job is a normal outcome, not a failure.
func (s *JobService) GetJob(ctx context.Context, id uint) (*dto.JobResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	j, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storeError(err, "failed to get job")
	}

	resp, err := toJobResponse(j)
	if err != nil {
		return nil, storeError(err, "failed to decode job")
	}
	return resp, nil
}

// GetJobsByStatus returns every job in the given status.
func (s *JobService) GetJobsByStatus(ctx context.Context, status config.JobStatus) ([]dto.JobResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	if !slices.Contains(config.AllowedStatuses, status) {
		return nil, common.NewAPIError(
			http.StatusBadRequest,
			"invalid status",
			map[string]any{
				"provided": status,
				"allowed":  config.AllowedStatuses,
			},
		)
	}

	jobs, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, storeError(err, "failed to list jobs")
	}
	return toJobResponses(jobs)
}

// GetAllJobs returns jobs regardless of status, ordered by id. limit <= 0
// means unbounded; (limit, offset) and (limit, offset+limit) pages are
// disjoint.
func (s *JobService) GetAllJobs(ctx context.Context, limit, offset int) ([]dto.JobResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	jobs, err := s.repo.ListAll(ctx, limit, offset)
	if err != nil {
		return nil, storeError(err, "failed to list jobs")
	}
	return toJobResponses(jobs)
}

// GetNextBatch atomically claims up to maxCount due jobs for workerID and
// returns them already transitioned to processing. Concurrent callers never
// receive overlapping jobs. One processing event is recorded per claim.
func (s *JobService) GetNextBatch(ctx context.Context, workerID string, maxCount int) ([]dto.JobResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request timed out")
	}
	if workerID == "" {
		return nil, common.Errf(http.StatusBadRequest, "worker id is required")
	}
	if maxCount < 1 {
		return nil, nil
	}

	now := s.clk.Now()
	claimed, err := s.repo.Claim(ctx, workerID, maxCount, now)
	if err != nil {
		return nil, storeError(err, "failed to claim jobs")
	}

	for _, j := range claimed {
		meta, _ := json.Marshal(map[string]string{"worker_id": workerID})
		if err := s.events.Append(ctx, j.ID, config.JobEventProcessing, meta, now); err != nil {
			return nil, storeError(err, "failed to record processing event")
		}
	}

	return toJobResponses(claimed)
}

// CompleteJob transitions a job to completed and releases its lock.
// Idempotent: completing an already completed or cancelled job changes
// nothing and records no event.
func (s *JobService) CompleteJob(ctx context.Context, id uint) error {
	if err := ctx.Err(); err != nil {
		return common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	now := s.clk.Now()
	applied, err := s.repo.MarkCompleted(ctx, id, now)
	if err != nil {
		return storeError(err, "failed to complete job")
	}
	if !applied {
		return nil
	}

	return s.appendEvent(ctx, id, config.JobEventCompleted, nil, now)
}

// FailJob records a failure with the caller-supplied message. The message is
// stored verbatim in the error history along with a timestamp, the job moves
// to failed, and the retry gate is armed by the backoff strategy. Failing a
// nonexistent job is a no-op.
func (s *JobService) FailJob(ctx context.Context, id uint, errMsg string) error {
	if err := ctx.Err(); err != nil {
		return common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	now := s.clk.Now()
	j, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return storeError(err, "failed to load job")
	}

	nextAttempt := now.Add(s.backoff.Delay(j.Attempts))
	applied, err := s.repo.MarkFailed(ctx, id, errMsg, now, &nextAttempt)
	if err != nil {
		return storeError(err, "failed to fail job")
	}
	if !applied {
		return nil
	}

	meta, _ := json.Marshal(map[string]string{"message": errMsg})
	return s.appendEvent(ctx, id, config.JobEventFailed, meta, now)
}

// RetryJob moves a failed job back to pending. It becomes claimable again
// once run_at and the retry gate have both passed. Retrying a job that is
// not failed is a no-op.
func (s *JobService) RetryJob(ctx context.Context, id uint) error {
	if err := ctx.Err(); err != nil {
		return common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	now := s.clk.Now()
	applied, err := s.repo.MarkRetried(ctx, id, now)
	if err != nil {
		return storeError(err, "failed to retry job")
	}
	if !applied {
		return nil
	}

	return s.appendEvent(ctx, id, config.JobEventRetried, nil, now)
}

// CancelJob cancels a pending or failed job. Completed and cancelled jobs
// are terminal for cancellation: nothing changes and no event is recorded.
// Cancellation is advisory for processing jobs — it does not interrupt a
// worker that already holds the claim.
func (s *JobService) CancelJob(ctx context.Context, id uint) error {
	if err := ctx.Err(); err != nil {
		return common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	now := s.clk.Now()
	applied, err := s.repo.MarkCancelled(ctx, id, now)
	if err != nil {
		return storeError(err, "failed to cancel job")
	}
	if !applied {
		return nil
	}

	return s.appendEvent(ctx, id, config.JobEventCancelled, nil, now)
}

// CancelAllUpcomingJobs cancels every currently pending job regardless of
// run_at and returns how many were cancelled. Failed jobs awaiting retry are
// deliberately left alone.
func (s *JobService) CancelAllUpcomingJobs(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	now := s.clk.Now()
	ids, err := s.repo.CancelAllPending(ctx, now)
	if err != nil {
		return 0, storeError(err, "failed to cancel upcoming jobs")
	}

	for _, id := range ids {
		if err := s.appendEvent(ctx, id, config.JobEventCancelled, nil, now); err != nil {
			return int64(len(ids)), err
		}
	}

	return int64(len(ids)), nil
}

// ReclaimStuckJobs reverts processing jobs whose lock is older than the
// threshold back to pending, restoring liveness after a worker crash.
// Attempts and error history are preserved; no lifecycle event is recorded
// since reclamation is a maintenance action, not a job outcome.
func (s *JobService) ReclaimStuckJobs(ctx context.Context, threshold time.Duration) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	now := s.clk.Now()
	reclaimed, err := s.repo.ReclaimStuck(ctx, now.Add(-threshold), now)
	if err != nil {
		return 0, storeError(err, "failed to reclaim stuck jobs")
	}
	return reclaimed, nil
}

// CleanupOldJobs permanently deletes completed jobs whose last update is
// older than the given number of days and returns the count. Audit events
// outlive the job rows.
func (s *JobService) CleanupOldJobs(ctx context.Context, olderThanDays int) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	cutoff := s.clk.Now().AddDate(0, 0, -olderThanDays)
	deleted, err := s.repo.DeleteCompletedBefore(ctx, cutoff)
	if err != nil {
		return 0, storeError(err, "failed to clean up old jobs")
	}
	return deleted, nil
}

// GetJobEvents returns a job's audit trail, oldest first. Events survive job
// deletion, so this works for cleaned-up jobs too.
func (s *JobService) GetJobEvents(ctx context.Context, id uint) ([]dto.JobEventDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	events, err := s.events.ListByJob(ctx, id)
	if err != nil {
		return nil, storeError(err, "failed to list job events")
	}

	dtos := make([]dto.JobEventDTO, len(events))
	for i, e := range events {
		dtos[i] = dto.JobEventDTO{
			ID:        e.ID,
			JobID:     e.JobID,
			EventType: e.EventType,
			Metadata:  json.RawMessage(e.Metadata),
			CreatedAt: e.CreatedAt,
		}
	}
	return dtos, nil
}

func (s *JobService) appendEvent(ctx context.Context, id uint, eventType config.JobEventType, metadata datatypes.JSON, now time.Time) error {
	if err := s.events.Append(ctx, id, eventType, metadata, now); err != nil {
		return storeError(err, "failed to record job event")
	}
	return nil
}

// storeError maps context expiry to a timeout error and everything else to
// an internal failure carrying the cause.
func storeError(err error, msg string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return common.Errf(http.StatusRequestTimeout, "request timed out")
	}
	return common.Errf(http.StatusInternalServerError, "%s: %v", msg, err)
}

func toJobResponse(j *models.Job) (*dto.JobResponseDTO, error) {
	entries, err := j.ErrorEntries()
	if err != nil {
		return nil, err
	}

	var history []dto.ErrorEntryDTO
	for _, e := range entries {
		history = append(history, dto.ErrorEntryDTO{Message: e.Message, Timestamp: e.Timestamp})
	}

	return &dto.JobResponseDTO{
		ID:              j.ID,
		JobType:         j.JobType,
		Payload:         json.RawMessage(j.Payload),
		Status:          j.Status,
		RunAt:           j.RunAt,
		Attempts:        j.Attempts,
		NextAttemptAt:   j.NextAttemptAt,
		LockedAt:        j.LockedAt,
		LockedBy:        j.LockedBy,
		StartedAt:       j.StartedAt,
		CompletedAt:     j.CompletedAt,
		LastFailedAt:    j.LastFailedAt,
		LastRetriedAt:   j.LastRetriedAt,
		LastCancelledAt: j.LastCancelledAt,
		ErrorHistory:    history,
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
	}, nil
}

func toJobResponses(jobs []models.Job) ([]dto.JobResponseDTO, error) {
	dtos := make([]dto.JobResponseDTO, len(jobs))
	for i := range jobs {
		resp, err := toJobResponse(&jobs[i])
		if err != nil {
			return nil, storeError(err, "failed to decode job")
		}
		dtos[i] = *resp
	}
	return dtos, nil
}
