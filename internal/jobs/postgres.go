package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/mediaswap/internal/db"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

var _ Store = (*PostgresStore)(nil)

type PostgresStore struct {
	queries *db.Queries
}

func NewPostgresStore(queries *db.Queries) *PostgresStore {
	return &PostgresStore{queries: queries}
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Job, error) {
	row, err := s.queries.GetJob(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get job %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return fromRow(row), nil
}

// Create inserts a pending job. The service never creates jobs itself; this
// is used by operator tooling.
func (s *PostgresStore) Create(ctx context.Context, id, sourceID, targetID string) error {
	err := s.queries.CreateJob(ctx, db.CreateJobParams{
		ID:            id,
		SourceAssetID: text(sourceID),
		TargetAssetID: text(targetID),
	})
	if err != nil {
		return fmt.Errorf("create job %s: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) MarkProcessing(ctx context.Context, id string) error {
	n, err := s.queries.MarkJobProcessing(ctx, id)
	return checkUpdate("mark processing", id, n, err)
}

func (s *PostgresStore) Complete(ctx context.Context, id, resultID, previewID string) error {
	n, err := s.queries.MarkJobCompleted(ctx, db.MarkJobCompletedParams{
		ID:             id,
		ResultAssetID:  text(resultID),
		PreviewAssetID: text(previewID),
	})
	return checkUpdate("mark completed", id, n, err)
}

func (s *PostgresStore) Fail(ctx context.Context, id, message string) error {
	n, err := s.queries.MarkJobFailed(ctx, db.MarkJobFailedParams{
		ID:           id,
		ErrorMessage: text(message),
	})
	return checkUpdate("mark failed", id, n, err)
}

func checkUpdate(op, id string, rows int64, err error) error {
	if err != nil {
		return fmt.Errorf("%s %s: %w", op, id, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s %s: %w", op, id, ErrNotFound)
	}
	return nil
}

func text(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func fromRow(row db.Job) *Job {
	j := &Job{
		ID:             row.ID,
		SourceAssetID:  row.SourceAssetID.String,
		TargetAssetID:  row.TargetAssetID.String,
		Status:         row.Status,
		ResultAssetID:  row.ResultAssetID.String,
		PreviewAssetID: row.PreviewAssetID.String,
		ErrorMessage:   row.ErrorMessage.String,
	}
	if row.UpdatedAt.Valid {
		j.UpdatedAt = row.UpdatedAt.Time
	}
	return j
}
