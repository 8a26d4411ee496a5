package config

type JobStatus string

// Job lifecycle statuses. No other value is ever written to the status column.
var (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// AllowedStatuses is the full status set, used to validate filter params.
var AllowedStatuses = []JobStatus{
	JobStatusPending,
	JobStatusProcessing,
	JobStatusCompleted,
	JobStatusFailed,
	JobStatusCancelled,
}

type JobEventType string

// Audit event types, one per lifecycle transition.
var (
	JobEventAdded      JobEventType = "added"
	JobEventProcessing JobEventType = "processing"
	JobEventCompleted  JobEventType = "completed"
	JobEventFailed     JobEventType = "failed"
	JobEventRetried    JobEventType = "retried"
	JobEventCancelled  JobEventType = "cancelled"
)
