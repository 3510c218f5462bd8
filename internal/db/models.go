package db

import (
	"github.com/jackc/pgx/v5/pgtype"
)

const DefaultJobsTable = "jobs"

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

type Job struct {
	ID             string             `json:"id"`
	SourceAssetID  pgtype.Text        `json:"source_asset_id"`
	TargetAssetID  pgtype.Text        `json:"target_asset_id"`
	Status         JobStatus          `json:"status"`
	ResultAssetID  pgtype.Text        `json:"result_asset_id"`
	PreviewAssetID pgtype.Text        `json:"preview_asset_id"`
	ErrorMessage   pgtype.Text        `json:"error_message"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
	UpdatedAt      pgtype.Timestamptz `json:"updated_at"`
}
