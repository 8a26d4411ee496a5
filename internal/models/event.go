package models

import (
	"time"

	"gorm.io/datatypes"
)

// JobEvent is one row in the append-only job_events audit table. JobID is a
// weak reference: the event outlives the job row so the audit trail survives
// retention cleanup.
type JobEvent struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	JobID     uint           `gorm:"not null;index" json:"job_id"`
	EventType string         `gorm:"type:varchar(50);not null" json:"event_type"`
	Metadata  datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (JobEvent) TableName() string { return "job_events" }
