package mocks

import (
	"context"
	"time"

	"github.com/dataqueue/dataqueue/internal/config"
	"github.com/dataqueue/dataqueue/internal/models"
	"github.com/stretchr/testify/mock"
	"gorm.io/datatypes"
)

type JobRepoMock struct {
	mock.Mock
}

func (m *JobRepoMock) Create(ctx context.Context, j *models.Job) error {
	args := m.Called(ctx, j)
	return args.Error(0)
}

func (m *JobRepoMock) Get(ctx context.Context, id uint) (*models.Job, error) {
	args := m.Called(ctx, id)

	j, _ := args.Get(0).(*models.Job)
	return j, args.Error(1)
}

func (m *JobRepoMock) ListByStatus(ctx context.Context, status config.JobStatus) ([]models.Job, error) {
	args := m.Called(ctx, status)

	jobs, _ := args.Get(0).([]models.Job)
	return jobs, args.Error(1)
}

func (m *JobRepoMock) ListAll(ctx context.Context, limit, offset int) ([]models.Job, error) {
	args := m.Called(ctx, limit, offset)

	jobs, _ := args.Get(0).([]models.Job)
	return jobs, args.Error(1)
}

func (m *JobRepoMock) Claim(ctx context.Context, workerID string, limit int, now time.Time) ([]models.Job, error) {
	args := m.Called(ctx, workerID, limit, now)

	jobs, _ := args.Get(0).([]models.Job)
	return jobs, args.Error(1)
}

func (m *JobRepoMock) MarkCompleted(ctx context.Context, id uint, now time.Time) (bool, error) {
	args := m.Called(ctx, id, now)
	return args.Bool(0), args.Error(1)
}

func (m *JobRepoMock) MarkFailed(ctx context.Context, id uint, message string, now time.Time, nextAttemptAt *time.Time) (bool, error) {
	args := m.Called(ctx, id, message, now, nextAttemptAt)
	return args.Bool(0), args.Error(1)
}

func (m *JobRepoMock) MarkRetried(ctx context.Context, id uint, now time.Time) (bool, error) {
	args := m.Called(ctx, id, now)
	return args.Bool(0), args.Error(1)
}

func (m *JobRepoMock) MarkCancelled(ctx context.Context, id uint, now time.Time) (bool, error) {
	args := m.Called(ctx, id, now)
	return args.Bool(0), args.Error(1)
}

func (m *JobRepoMock) CancelAllPending(ctx context.Context, now time.Time) ([]uint, error) {
	args := m.Called(ctx, now)

	ids, _ := args.Get(0).([]uint)
	return ids, args.Error(1)
}

func (m *JobRepoMock) ReclaimStuck(ctx context.Context, lockedBefore, now time.Time) (int64, error) {
	args := m.Called(ctx, lockedBefore, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *JobRepoMock) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type JobEventRepoMock struct {
	mock.Mock
}

func (m *JobEventRepoMock) Append(ctx context.Context, jobID uint, eventType config.JobEventType, metadata datatypes.JSON, now time.Time) error {
	args := m.Called(ctx, jobID, eventType, metadata, now)
	return args.Error(0)
}

func (m *JobEventRepoMock) ListByJob(ctx context.Context, jobID uint) ([]models.JobEvent, error) {
	args := m.Called(ctx, jobID)

	events, _ := args.Get(0).([]models.JobEvent)
	return events, args.Error(1)
}
