package dto

import (
	"encoding/json"
	"time"
)

// JobCreateDTO is the enqueue request. RunAt is optional; when omitted the
// job is runnable immediately. The payload is opaque to the queue.
type JobCreateDTO struct {
	JobType string          `json:"job_type" validate:"required"`
	Payload json.RawMessage `json:"payload" validate:"required"`
	RunAt   *time.Time      `json:"run_at,omitempty"`
}

type ErrorEntryDTO struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type JobResponseDTO struct {
	ID              uint            `json:"id"`
	JobType         string          `json:"job_type"`
	Payload         json.RawMessage `json:"payload"`
	Status          string          `json:"status"`
	RunAt           time.Time       `json:"run_at"`
	Attempts        int             `json:"attempts"`
	NextAttemptAt   *time.Time      `json:"next_attempt_at,omitempty"`
	LockedAt        *time.Time      `json:"locked_at,omitempty"`
	LockedBy        *string         `json:"locked_by,omitempty"`
	StartedAt       *time.Time      `json:"started_at,omitempty"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	LastFailedAt    *time.Time      `json:"last_failed_at,omitempty"`
	LastRetriedAt   *time.Time      `json:"last_retried_at,omitempty"`
	LastCancelledAt *time.Time      `json:"last_cancelled_at,omitempty"`
	ErrorHistory    []ErrorEntryDTO `json:"error_history,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type JobEventDTO struct {
	ID        uint            `json:"id"`
	JobID     uint            `json:"job_id"`
	EventType string          `json:"event_type"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
