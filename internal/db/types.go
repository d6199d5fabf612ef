package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/blog-agent/internal/types"
)

// JobStatus is the lifecycle state of a generation job.
type JobStatus string

// Job lifecycle states. Completed and failed are terminal.
const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether no further transitions are permitted from s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job is the tracked unit of work from submission to terminal outcome.
type Job struct {
	ID           uuid.UUID  `json:"id"`
	ChannelName  string     `json:"channel_name"`
	VideoTitle   string     `json:"video_title"`
	VideoID      *string    `json:"video_id,omitempty"`
	Email        *string    `json:"email,omitempty"`
	Status       JobStatus  `json:"status"`
	Progress     int        `json:"progress"`
	Phase        *string    `json:"phase,omitempty"`
	ErrorMessage *string    `json:"error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// BlogPost is the finished generated article, tied 1:1 to a completed job.
type BlogPost struct {
	ID        uuid.UUID          `json:"id"`
	JobID     uuid.UUID          `json:"job_id"`
	Title     string             `json:"title"`
	Content   string             `json:"content"`
	Metadata  types.BlogMetadata `json:"video_metadata"`
	CreatedAt time.Time          `json:"created_at"`
}

// Chunk is one bounded slice of post text stored with its embedding vector.
type Chunk struct {
	ID         uuid.UUID `json:"id"`
	PostID     uuid.UUID `json:"post_id"`
	ChunkText  string    `json:"chunk_text"`
	ChunkIndex int       `json:"chunk_index"`
	Embedding  []float32 `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// ChunkMatch is one similarity search result.
type ChunkMatch struct {
	PostID     uuid.UUID `json:"post_id"`
	PostTitle  string    `json:"post_title"`
	ChunkText  string    `json:"chunk_text"`
	ChunkIndex int       `json:"chunk_index"`
	Score      float64   `json:"similarity_score"`
}
