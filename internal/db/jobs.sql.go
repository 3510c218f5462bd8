package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type CreateJobParams struct {
	ID            string
	SourceAssetID pgtype.Text
	TargetAssetID pgtype.Text
}

func (q *Queries) CreateJob(ctx context.Context, arg CreateJobParams) error {
	_, err := q.db.Exec(ctx, q.queries.create, arg.ID, arg.SourceAssetID, arg.TargetAssetID)
	return err
}

func (q *Queries) GetJob(ctx context.Context, id string) (Job, error) {
	row := q.db.QueryRow(ctx, q.queries.get, id)
	var i Job
	err := row.Scan(
		&i.ID,
		&i.SourceAssetID,
		&i.TargetAssetID,
		&i.Status,
		&i.ResultAssetID,
		&i.PreviewAssetID,
		&i.ErrorMessage,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

// MarkJobProcessing returns the number of rows updated.
func (q *Queries) MarkJobProcessing(ctx context.Context, id string) (int64, error) {
	result, err := q.db.Exec(ctx, q.queries.processing, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

type MarkJobCompletedParams struct {
	ID             string
	ResultAssetID  pgtype.Text
	PreviewAssetID pgtype.Text
}

func (q *Queries) MarkJobCompleted(ctx context.Context, arg MarkJobCompletedParams) (int64, error) {
	result, err := q.db.Exec(ctx, q.queries.completed, arg.ID, arg.ResultAssetID, arg.PreviewAssetID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

type MarkJobFailedParams struct {
	ID           string
	ErrorMessage pgtype.Text
}

func (q *Queries) MarkJobFailed(ctx context.Context, arg MarkJobFailedParams) (int64, error) {
	result, err := q.db.Exec(ctx, q.queries.failed, arg.ID, arg.ErrorMessage)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
