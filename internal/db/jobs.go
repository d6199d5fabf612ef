package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const jobColumns = `id, channel_name, video_title, video_id, email, status, progress,
	phase, error_message, created_at, updated_at, completed_at`

// CreateJob inserts a new job in the queued state and returns it.
func (db *DB) CreateJob(ctx context.Context, channelName, videoTitle string, email *string) (*Job, error) {
	id := uuid.New()
	row := db.pool.QueryRow(ctx,
		`INSERT INTO jobs (id, channel_name, video_title, email, status, progress)
		 VALUES ($1, $2, $3, $4, 'queued', 0)
		 RETURNING `+jobColumns,
		id, channelName, videoTitle, email,
	)
	job, err := scanJob(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return job, nil
}

// GetJob retrieves a job by ID. Returns nil when the job does not exist.
func (db *DB) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	job, err := scanJob(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// UpdateJobStatus applies one state transition as a single atomic update so a
// concurrent status reader never observes a torn write (e.g. a new status with
// a stale progress value). Nil fields are left untouched. Terminal transitions
// also stamp completed_at.
func (db *DB) UpdateJobStatus(ctx context.Context, id uuid.UUID, status JobStatus, progress *int, phase *string, errMsg *string) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE jobs SET
			status = $2,
			progress = COALESCE($3, progress),
			phase = COALESCE($4, phase),
			error_message = COALESCE($5, error_message),
			updated_at = NOW(),
			completed_at = CASE WHEN $2 IN ('completed', 'failed') THEN NOW() ELSE completed_at END
		 WHERE id = $1`,
		id, status, progress, phase, errMsg,
	)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job not found: %s", id)
	}
	return nil
}

// SetJobVideoID records the resolved video id on the job as soon as it is
// known, so a partially failed job can still be inspected and re-queried.
func (db *DB) SetJobVideoID(ctx context.Context, id uuid.UUID, videoID string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE jobs SET video_id = $2, updated_at = NOW() WHERE id = $1`,
		id, videoID,
	)
	if err != nil {
		return fmt.Errorf("failed to set job video id: %w", err)
	}
	return nil
}

// ListJobs retrieves recent jobs, newest first.
func (db *DB) ListJobs(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

func scanJob(row pgx.Row) (*Job, error) {
	var job Job
	err := row.Scan(
		&job.ID, &job.ChannelName, &job.VideoTitle, &job.VideoID, &job.Email,
		&job.Status, &job.Progress, &job.Phase, &job.ErrorMessage,
		&job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &job, nil
}
