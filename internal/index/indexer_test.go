package index

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hashEmbedder returns a deterministic 4-dimensional vector per text.
type hashEmbedder struct {
	fail      bool
	truncated bool
	calls     int
}

func (e *hashEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *hashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.fail {
		return nil, errors.New("quota exceeded")
	}
	vecs := make([][]float32, 0, len(texts))
	for _, t := range texts {
		var sum float32
		for _, r := range t {
			sum += float32(r)
		}
		vecs = append(vecs, []float32{sum, float32(len(t)), 1, 0})
	}
	if e.truncated && len(vecs) > 0 {
		vecs = vecs[:len(vecs)-1]
	}
	return vecs, nil
}

func (e *hashEmbedder) Dimensions() int { return 4 }

type storedChunk struct {
	text      string
	index     int
	embedding []float32
}

type memChunkStore struct {
	chunks []storedChunk
	failAt int // fail when storing this index; -1 disables
}

func newMemChunkStore() *memChunkStore {
	return &memChunkStore{failAt: -1}
}

func (s *memChunkStore) CreateChunk(ctx context.Context, postID uuid.UUID, text string, index int, embedding []float32) error {
	if s.failAt == index {
		return errors.New("connection reset")
	}
	s.chunks = append(s.chunks, storedChunk{text: text, index: index, embedding: embedding})
	return nil
}

func longContent() string {
	paras := []string{
		"Go's concurrency model is built around goroutines and channels, which make it straightforward to express pipelines.",
		"Embeddings map text into a vector space where semantic similarity becomes geometric proximity.",
		"Postgres with the pgvector extension can store those vectors and rank rows by cosine distance directly in SQL.",
		"Chunking long documents before embedding keeps each vector focused on a single idea.",
	}
	return strings.Join(paras, "\n\n")
}

func TestIndexPostStoresContiguousChunks(t *testing.T) {
	store := newMemChunkStore()
	ix := New(&hashEmbedder{}, store, 120, 20)
	postID := uuid.New()

	count, err := ix.IndexPost(context.Background(), postID, longContent())
	require.NoError(t, err)
	require.Greater(t, count, 1)
	require.Len(t, store.chunks, count)

	for i, c := range store.chunks {
		assert.Equal(t, i, c.index)
		assert.NotEmpty(t, c.text)
		assert.Len(t, c.embedding, 4)
	}
}

func TestIndexPostEmbedsInOneBatch(t *testing.T) {
	emb := &hashEmbedder{}
	ix := New(emb, newMemChunkStore(), 120, 20)

	_, err := ix.IndexPost(context.Background(), uuid.New(), longContent())
	require.NoError(t, err)
	assert.Equal(t, 1, emb.calls)
}

func TestIndexPostEmptyContent(t *testing.T) {
	emb := &hashEmbedder{}
	store := newMemChunkStore()
	ix := New(emb, store, 120, 20)

	count, err := ix.IndexPost(context.Background(), uuid.New(), "  \n\n ")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, emb.calls)
	assert.Empty(t, store.chunks)
}

func TestIndexPostEmbeddingFailure(t *testing.T) {
	store := newMemChunkStore()
	ix := New(&hashEmbedder{fail: true}, store, 120, 20)
	postID := uuid.New()

	count, err := ix.IndexPost(context.Background(), postID, longContent())
	require.Error(t, err)
	assert.Zero(t, count)
	assert.Empty(t, store.chunks, "no chunks should be stored when embedding fails")

	var ixErr *IndexingError
	require.ErrorAs(t, err, &ixErr)
	assert.Equal(t, postID, ixErr.PostID)
	assert.Contains(t, ixErr.Error(), "quota exceeded")
}

func TestIndexPostVectorCountMismatch(t *testing.T) {
	ix := New(&hashEmbedder{truncated: true}, newMemChunkStore(), 120, 20)

	_, err := ix.IndexPost(context.Background(), uuid.New(), longContent())
	var ixErr *IndexingError
	require.ErrorAs(t, err, &ixErr)
	assert.Contains(t, ixErr.Message, "vectors")
}

func TestIndexPostStoreFailureMidway(t *testing.T) {
	store := newMemChunkStore()
	store.failAt = 1
	ix := New(&hashEmbedder{}, store, 120, 20)

	count, err := ix.IndexPost(context.Background(), uuid.New(), longContent())
	require.Error(t, err)
	assert.Equal(t, 1, count, "count reflects chunks written before the failure")
	require.Len(t, store.chunks, 1)
	assert.Equal(t, 0, store.chunks[0].index)
}
