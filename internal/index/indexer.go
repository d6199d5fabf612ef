package index

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/jonathan/blog-agent/internal/llm"
)

// IndexingError reports a failure while chunking or embedding a post.
// Indexing failures leave the post itself intact; only its search index
// is missing or partial.
type IndexingError struct {
	PostID  uuid.UUID
	Message string
	Cause   error
}

func (e *IndexingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("indexing post %s: %s: %v", e.PostID, e.Message, e.Cause)
	}
	return fmt.Sprintf("indexing post %s: %s", e.PostID, e.Message)
}

func (e *IndexingError) Unwrap() error {
	return e.Cause
}

// ChunkStore persists a single chunk with its embedding vector.
type ChunkStore interface {
	CreateChunk(ctx context.Context, postID uuid.UUID, text string, index int, embedding []float32) error
}

// Indexer chunks post content, embeds each chunk, and writes the results
// to the chunk store in order.
type Indexer struct {
	embedder llm.Embedder
	store    ChunkStore
	splitter *Splitter
}

// New builds an indexer using the given embedder and store. chunkSize and
// chunkOverlap follow the splitter's defaults when non-positive.
func New(embedder llm.Embedder, store ChunkStore, chunkSize, chunkOverlap int) *Indexer {
	return &Indexer{
		embedder: embedder,
		store:    store,
		splitter: NewSplitter(chunkSize, chunkOverlap),
	}
}

// IndexPost splits content into chunks, embeds them in one batch, and
// stores each chunk under its sequential index. It returns the number of
// chunks written. A mid-write failure leaves the earlier chunks in place;
// callers decide whether a partial index is acceptable.
func (ix *Indexer) IndexPost(ctx context.Context, postID uuid.UUID, content string) (int, error) {
	chunks := ix.splitter.Split(content)
	if len(chunks) == 0 {
		log.Printf("[INDEX] post %s produced no chunks, skipping", postID)
		return 0, nil
	}

	vectors, err := ix.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return 0, &IndexingError{PostID: postID, Message: "embedding chunks", Cause: err}
	}
	if len(vectors) != len(chunks) {
		return 0, &IndexingError{
			PostID:  postID,
			Message: fmt.Sprintf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks)),
		}
	}

	for i, chunk := range chunks {
		if err := ix.store.CreateChunk(ctx, postID, chunk, i, vectors[i]); err != nil {
			return i, &IndexingError{
				PostID:  postID,
				Message: fmt.Sprintf("storing chunk %d of %d", i, len(chunks)),
				Cause:   err,
			}
		}
	}

	log.Printf("[INDEX] post %s indexed into %d chunks", postID, len(chunks))
	return len(chunks), nil
}
