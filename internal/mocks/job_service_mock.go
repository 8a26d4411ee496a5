package mocks

import (
	"context"
	"time"

	"github.com/dataqueue/dataqueue/internal/config"
	"github.com/dataqueue/dataqueue/internal/dto"
	"github.com/stretchr/testify/mock"
)

type JobServiceMock struct {
	mock.Mock
}

func (m *JobServiceMock) AddJob(ctx context.Context, req *dto.JobCreateDTO) (uint, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(uint), args.Error(1)
}

func (m *JobServiceMock) GetJob(ctx context.Context, id uint) (*dto.JobResponseDTO, error) {
	args := m.Called(ctx, id)

	resp, _ := args.Get(0).(*dto.JobResponseDTO)
	return resp, args.Error(1)
}

func (m *JobServiceMock) GetJobsByStatus(ctx context.Context, status config.JobStatus) ([]dto.JobResponseDTO, error) {
	args := m.Called(ctx, status)

	jobs, _ := args.Get(0).([]dto.JobResponseDTO)
	return jobs, args.Error(1)
}

func (m *JobServiceMock) GetAllJobs(ctx context.Context, limit, offset int) ([]dto.JobResponseDTO, error) {
	args := m.Called(ctx, limit, offset)

	jobs, _ := args.Get(0).([]dto.JobResponseDTO)
	return jobs, args.Error(1)
}

func (m *JobServiceMock) GetNextBatch(ctx context.Context, workerID string, maxCount int) ([]dto.JobResponseDTO, error) {
	args := m.Called(ctx, workerID, maxCount)

	jobs, _ := args.Get(0).([]dto.JobResponseDTO)
	return jobs, args.Error(1)
}

func (m *JobServiceMock) CompleteJob(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *JobServiceMock) FailJob(ctx context.Context, id uint, errMsg string) error {
	args := m.Called(ctx, id, errMsg)
	return args.Error(0)
}

func (m *JobServiceMock) RetryJob(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *JobServiceMock) CancelJob(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *JobServiceMock) CancelAllUpcomingJobs(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *JobServiceMock) ReclaimStuckJobs(ctx context.Context, threshold time.Duration) (int64, error) {
	args := m.Called(ctx, threshold)
	return args.Get(0).(int64), args.Error(1)
}

func (m *JobServiceMock) CleanupOldJobs(ctx context.Context, olderThanDays int) (int64, error) {
	args := m.Called(ctx, olderThanDays)
	return args.Get(0).(int64), args.Error(1)
}

func (m *JobServiceMock) GetJobEvents(ctx context.Context, id uint) ([]dto.JobEventDTO, error) {
	args := m.Called(ctx, id)

	events, _ := args.Get(0).([]dto.JobEventDTO)
	return events, args.Error(1)
}
