package domain

import (
	"context"
	"time"
)

// BatchStatus enumerates the lifecycle states a batch job can be observed in.
// Transitions are driven entirely by the generation backend; this service
// only reports what it sees at poll time.
type BatchStatus string

const (
	BatchStatusSubmitted  BatchStatus = "submitted"
	BatchStatusInProgress BatchStatus = "in_progress"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
	BatchStatusExpired    BatchStatus = "expired"
)

// MapBackendStatus folds the backend's finer-grained batch states into the
// ones callers poll against.
func MapBackendStatus(s string) BatchStatus {
	switch s {
	case "validating", "queued", "submitted":
		return BatchStatusSubmitted
	case "in_progress", "finalizing":
		return BatchStatusInProgress
	case "completed":
		return BatchStatusCompleted
	case "expired":
		return BatchStatusExpired
	default:
		return BatchStatusFailed
	}
}

// BatchJob is the registry record kept for a submitted batch. The backend
// remains the source of truth for status; this record only supports listing
// jobs a process has submitted.
type BatchJob struct {
	ID          string
	AspectRatio AspectRatio
	ItemCount   int
	CreatedAt   time.Time
}

// BatchJobRegistry persists submitted batch jobs. Implementations must never
// block a submission result: a registry write failure is logged and dropped.
type BatchJobRegistry interface {
	Record(ctx context.Context, job BatchJob) error
	List(ctx context.Context, limit int) ([]BatchJob, error)
}
