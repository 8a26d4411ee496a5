package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dataqueue/dataqueue/internal/config"
	"github.com/dataqueue/dataqueue/internal/job"
	"github.com/dataqueue/dataqueue/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

var _ job.JobRepoInterface = (*JobRepository)(nil)

// Create inserts a new job row. The caller is expected to have populated
// status, run_at and the bookkeeping timestamps.
func (r *JobRepository) Create(ctx context.Context, j *models.Job) error {
	if err := r.db.WithContext(ctx).Create(j).Error; err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

// Get retrieves a single job by id. A missing row is reported as
// gorm.ErrRecordNotFound wrapped in the returned error.
func (r *JobRepository) Get(ctx context.Context, id uint) (*models.Job, error) {
	var j models.Job
	if err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("job not found: %w", err)
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &j, nil
}

// ListByStatus returns every job with the given status.
func (r *JobRepository) ListByStatus(ctx context.Context, status config.JobStatus) ([]models.Job, error) {
	var jobs []models.Job
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("id ASC").
		Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("list jobs by status: %w", err)
	}
	return jobs, nil
}

// ListAll returns jobs regardless of status, ordered by id so pages built
// from (limit, offset) are disjoint. limit <= 0 means no limit.
func (r *JobRepository) ListAll(ctx context.Context, limit, offset int) ([]models.Job, error) {
	q := r.db.WithContext(ctx).Model(&models.Job{}).Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	var jobs []models.Job
	if err := q.Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("list all jobs: %w", err)
	}
	return jobs, nil
}

// Claim atomically selects up to limit claimable jobs and marks them as
// processing on behalf of workerID. Claimable means pending, run_at due, and
// past the retry gate. On Postgres eligible rows are taken with
// FOR UPDATE SKIP LOCKED so concurrent claimers never receive overlapping
// rows; on other dialects the guarded per-row update inside the transaction
// provides the same no-overlap property.
func (r *JobRepository) Claim(ctx context.Context, workerID string, limit int, now time.Time) ([]models.Job, error) {
	var claimed []models.Job
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.Job{}).
			Where("status = ?", config.JobStatusPending).
			Where("run_at <= ?", now).
			Where("(next_attempt_at IS NULL OR next_attempt_at <= ?)", now).
			Order("run_at ASC").
			Limit(limit)
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}

		var candidates []models.Job
		if err := q.Find(&candidates).Error; err != nil {
			return fmt.Errorf("select claimable jobs: %w", err)
		}

		for i := range candidates {
			j := &candidates[i]

			updates := map[string]any{
				"status":     config.JobStatusProcessing,
				"locked_at":  now,
				"locked_by":  workerID,
				"attempts":   gorm.Expr("attempts + 1"),
				"updated_at": now,
			}
			if j.StartedAt == nil {
				updates["started_at"] = now
			}
			// A second or later pickup is a retry.
			if j.Attempts+1 > 1 {
				updates["last_retried_at"] = now
			}

			res := tx.Model(&models.Job{}).
				Where("id = ? AND status = ?", j.ID, config.JobStatusPending).
				Updates(updates)
			if res.Error != nil {
				return fmt.Errorf("claim job %d: %w", j.ID, res.Error)
			}
			if res.RowsAffected == 0 {
				// Lost the row to a concurrent claimer; skip, never block.
				continue
			}

			lockedAt := now
			lockedBy := workerID
			j.Status = string(config.JobStatusProcessing)
			j.LockedAt = &lockedAt
			j.LockedBy = &lockedBy
			j.Attempts++
			j.UpdatedAt = now
			if j.StartedAt == nil {
				startedAt := now
				j.StartedAt = &startedAt
			}
			if j.Attempts > 1 {
				retriedAt := now
				j.LastRetriedAt = &retriedAt
			}
			claimed = append(claimed, *j)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// MarkCompleted transitions a job to completed and releases its lock.
// Completed and cancelled jobs are left untouched; the boolean reports
// whether the transition applied.
func (r *JobRepository) MarkCompleted(ctx context.Context, id uint, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND status NOT IN ?", id, []config.JobStatus{config.JobStatusCompleted, config.JobStatusCancelled}).
		Updates(map[string]any{
			"status":       config.JobStatusCompleted,
			"completed_at": now,
			"locked_at":    nil,
			"locked_by":    nil,
			"updated_at":   now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("mark completed: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// MarkFailed records a failure: appends {message, timestamp} to the error
// history, sets status failed, stamps last_failed_at, releases the lock and
// arms the retry gate. The read-modify-write of the history runs in one
// transaction with the row locked on Postgres, so concurrent failures
// serialize and the history preserves call order.
func (r *JobRepository) MarkFailed(ctx context.Context, id uint, message string, now time.Time, nextAttemptAt *time.Time) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.Job{})
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var j models.Job
		if err := q.First(&j, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("load job for failure: %w", err)
		}

		entries, err := j.ErrorEntries()
		if err != nil {
			return fmt.Errorf("decode error history: %w", err)
		}
		entries = append(entries, models.ErrorEntry{
			Message:   message,
			Timestamp: now.Format(time.RFC3339Nano),
		})
		history, err := json.Marshal(entries)
		if err != nil {
			return fmt.Errorf("encode error history: %w", err)
		}

		res := tx.Model(&models.Job{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"status":          config.JobStatusFailed,
				"error_history":   history,
				"last_failed_at":  now,
				"next_attempt_at": nextAttemptAt,
				"locked_at":       nil,
				"locked_by":       nil,
				"updated_at":      now,
			})
		if res.Error != nil {
			return fmt.Errorf("mark failed: %w", res.Error)
		}
		applied = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// MarkRetried moves a failed job back to pending and releases any stale
// lock. The retry gate (next_attempt_at) is preserved: the job becomes
// claimable once the gate passes. Jobs in any other status are untouched.
func (r *JobRepository) MarkRetried(ctx context.Context, id uint, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND status = ?", id, config.JobStatusFailed).
		Updates(map[string]any{
			"status":     config.JobStatusPending,
			"locked_at":  nil,
			"locked_by":  nil,
			"updated_at": now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("mark retried: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// MarkCancelled cancels a job that has not yet run to completion. Only
// pending and failed jobs are cancellable; everything else is a no-op.
func (r *JobRepository) MarkCancelled(ctx context.Context, id uint, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND status IN ?", id, []config.JobStatus{config.JobStatusPending, config.JobStatusFailed}).
		Updates(map[string]any{
			"status":            config.JobStatusCancelled,
			"last_cancelled_at": now,
			"locked_at":         nil,
			"locked_by":         nil,
			"updated_at":        now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("mark cancelled: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// CancelAllPending cancels every currently pending job and returns the ids
// that were cancelled, so the caller can record one event per job. Runs in a
// single transaction so a racing claimer either sees the job pending or
// cancelled, never half of each.
func (r *JobRepository) CancelAllPending(ctx context.Context, now time.Time) ([]uint, error) {
	var cancelled []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.Job{}).
			Where("status = ?", config.JobStatusPending).
			Order("id ASC")
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}

		var ids []uint
		if err := q.Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("select pending jobs: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}

		res := tx.Model(&models.Job{}).
			Where("id IN ? AND status = ?", ids, config.JobStatusPending).
			Updates(map[string]any{
				"status":            config.JobStatusCancelled,
				"last_cancelled_at": now,
				"locked_at":         nil,
				"locked_by":         nil,
				"updated_at":        now,
			})
		if res.Error != nil {
			return fmt.Errorf("cancel pending jobs: %w", res.Error)
		}
		cancelled = ids
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// ReclaimStuck reverts processing jobs whose lock predates lockedBefore back
// to pending, releasing the lease left behind by a crashed or stalled
// worker. Attempts and error history are untouched.
func (r *JobRepository) ReclaimStuck(ctx context.Context, lockedBefore, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("status = ? AND locked_at IS NOT NULL AND locked_at < ?", config.JobStatusProcessing, lockedBefore).
		Updates(map[string]any{
			"status":     config.JobStatusPending,
			"locked_at":  nil,
			"locked_by":  nil,
			"updated_at": now,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("reclaim stuck jobs: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteCompletedBefore permanently removes completed jobs last touched
// before the cutoff. Audit events are deliberately left in place.
func (r *JobRepository) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", config.JobStatusCompleted, cutoff).
		Delete(&models.Job{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete old jobs: %w", res.Error)
	}
	return res.RowsAffected, nil
}
