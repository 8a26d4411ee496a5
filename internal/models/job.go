package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Job is one row in the job_queue table. The payload is opaque JSON: the
// queue stores and returns it verbatim and never inspects it.
type Job struct {
	ID              uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	JobType         string         `gorm:"type:varchar(255);not null;index" json:"job_type"`
	Payload         datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	Status          string         `gorm:"type:varchar(50);not null;default:'pending';index" json:"status"`
	RunAt           time.Time      `gorm:"not null;index" json:"run_at"`
	Attempts        int            `gorm:"default:0;not null" json:"attempts"`
	NextAttemptAt   *time.Time     `json:"next_attempt_at,omitempty"`
	LockedAt        *time.Time     `json:"locked_at,omitempty"`
	LockedBy        *string        `gorm:"type:varchar(255)" json:"locked_by,omitempty"`
	StartedAt       *time.Time     `json:"started_at,omitempty"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	LastFailedAt    *time.Time     `json:"last_failed_at,omitempty"`
	LastRetriedAt   *time.Time     `json:"last_retried_at,omitempty"`
	LastCancelledAt *time.Time     `json:"last_cancelled_at,omitempty"`
	ErrorHistory    datatypes.JSON `gorm:"type:jsonb" json:"error_history,omitempty"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Job) TableName() string { return "job_queue" }

// ErrorEntry is one element of a job's error history. Timestamp is kept as
// an RFC 3339 string so the history round-trips unchanged through the JSON
// column on every dialect.
type ErrorEntry struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// ErrorEntries decodes the error_history column. An empty column decodes to
// an empty slice, never an error.
func (j *Job) ErrorEntries() ([]ErrorEntry, error) {
	if len(j.ErrorHistory) == 0 {
		return nil, nil
	}
	var entries []ErrorEntry
	if err := json.Unmarshal(j.ErrorHistory, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
