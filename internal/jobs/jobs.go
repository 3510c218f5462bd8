// Package jobs reads and updates job records owned by an external producer.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/abdul-hamid-achik/mediaswap/internal/db"
)

var ErrNotFound = errors.New("job not found")

type Status = db.JobStatus

const (
	StatusPending    = db.JobStatusPending
	StatusProcessing = db.JobStatusProcessing
	StatusCompleted  = db.JobStatusCompleted
	StatusFailed     = db.JobStatusFailed
)

type Job struct {
	ID             string
	SourceAssetID  string
	TargetAssetID  string
	Status         Status
	ResultAssetID  string
	PreviewAssetID string
	ErrorMessage   string
	UpdatedAt      time.Time
}

// Store is the job record adapter used by the pipeline.
type Store interface {
	Get(ctx context.Context, id string) (*Job, error)
	MarkProcessing(ctx context.Context, id string) error
	// Complete records a result. previewID may be empty.
	Complete(ctx context.Context, id, resultID, previewID string) error
	// Fail records a failure and leaves the result fields untouched.
	Fail(ctx context.Context, id, message string) error
}
