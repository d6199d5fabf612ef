package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
)

// CreateChunk stores one chunk of post text with its embedding vector.
// Chunk indices for a post must be contiguous from 0; the unique constraint on
// (post_id, chunk_index) rejects duplicates.
func (db *DB) CreateChunk(ctx context.Context, postID uuid.UUID, chunkText string, chunkIndex int, embedding []float32) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO chunks (id, post_id, chunk_text, chunk_index, embedding)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), postID, chunkText, chunkIndex, pgvector.NewVector(embedding),
	)
	if err != nil {
		return fmt.Errorf("failed to create chunk %d: %w", chunkIndex, err)
	}
	return nil
}

// ListChunksByPost retrieves all chunks for a post in chunk-index order.
func (db *DB) ListChunksByPost(ctx context.Context, postID uuid.UUID) ([]Chunk, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, post_id, chunk_text, chunk_index, embedding, created_at
		 FROM chunks WHERE post_id = $1 ORDER BY chunk_index`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		var vec pgvector.Vector
		if err := rows.Scan(&c.ID, &c.PostID, &c.ChunkText, &c.ChunkIndex, &vec, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		c.Embedding = vec.Slice()
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// CountChunksByPost returns the number of chunks indexed for a post.
func (db *DB) CountChunksByPost(ctx context.Context, postID uuid.UUID) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM chunks WHERE post_id = $1`, postID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

// SearchChunks ranks all stored chunks by cosine distance to the query vector
// and returns the top results with their source post titles. Score is
// 1 - distance, so an identical chunk scores about 1.
func (db *DB) SearchChunks(ctx context.Context, queryVector []float32, limit int) ([]ChunkMatch, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := db.pool.Query(ctx,
		`SELECT c.post_id, p.title, c.chunk_text, c.chunk_index,
		        1 - (c.embedding <=> $1) AS score
		 FROM chunks c
		 JOIN blog_posts p ON p.id = c.post_id
		 ORDER BY c.embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(queryVector), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	defer rows.Close()

	var matches []ChunkMatch
	for rows.Next() {
		var m ChunkMatch
		if err := rows.Scan(&m.PostID, &m.PostTitle, &m.ChunkText, &m.ChunkIndex, &m.Score); err != nil {
			return nil, fmt.Errorf("failed to scan chunk match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
