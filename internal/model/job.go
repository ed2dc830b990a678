package model

import "time"

// JobStatus is the lifecycle state of a queued job.
type JobStatus string

// Completed jobs are deleted rather than archived, so there is no
// terminal success status.
const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobDead       JobStatus = "dead"
)

// Job is a durable queue entry. Payload is JSON, decoded by the handler
// registered for Type. Delivery is at-least-once: a job whose handler
// fails is rescheduled with backoff until MaxAttempts is exhausted.
type Job struct {
	ID          int64     `gorm:"primaryKey"`
	Type        string    `gorm:"size:64;not null;index"`
	Payload     []byte    `gorm:"not null"`
	Status      JobStatus `gorm:"size:16;not null;index:idx_jobs_claim"`
	Attempts    int       `gorm:"not null"`
	MaxAttempts int       `gorm:"not null"`
	RunAt       time.Time `gorm:"not null;index:idx_jobs_claim"`
	LastError   string    `gorm:"size:1024"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}
