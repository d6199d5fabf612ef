package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/blog-agent/internal/types"
)

// CreatePost persists the finished article produced by a job. Each job owns at
// most one post; a duplicate insert for the same job is a caller bug and
// surfaces as a constraint violation.
func (db *DB) CreatePost(ctx context.Context, jobID uuid.UUID, title, content string, metadata types.BlogMetadata) (*BlogPost, error) {
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal post metadata: %w", err)
	}

	post := &BlogPost{
		ID:       uuid.New(),
		JobID:    jobID,
		Title:    title,
		Content:  content,
		Metadata: metadata,
	}
	err = db.pool.QueryRow(ctx,
		`INSERT INTO blog_posts (id, job_id, title, content, video_metadata)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		post.ID, post.JobID, post.Title, post.Content, metaJSON,
	).Scan(&post.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create blog post: %w", err)
	}
	return post, nil
}

// GetPost retrieves a blog post by ID. Returns nil when not found.
func (db *DB) GetPost(ctx context.Context, id uuid.UUID) (*BlogPost, error) {
	return db.getPost(ctx,
		`SELECT id, job_id, title, content, video_metadata, created_at
		 FROM blog_posts WHERE id = $1`, id)
}

// GetPostByJob retrieves the blog post owned by a job. Returns nil when the
// job has not produced one.
func (db *DB) GetPostByJob(ctx context.Context, jobID uuid.UUID) (*BlogPost, error) {
	return db.getPost(ctx,
		`SELECT id, job_id, title, content, video_metadata, created_at
		 FROM blog_posts WHERE job_id = $1`, jobID)
}

func (db *DB) getPost(ctx context.Context, query string, arg any) (*BlogPost, error) {
	var post BlogPost
	var metaJSON []byte
	err := db.pool.QueryRow(ctx, query, arg).Scan(
		&post.ID, &post.JobID, &post.Title, &post.Content, &metaJSON, &post.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get blog post: %w", err)
	}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &post.Metadata); err != nil {
			return nil, fmt.Errorf("failed to parse post metadata: %w", err)
		}
	}
	return &post, nil
}
