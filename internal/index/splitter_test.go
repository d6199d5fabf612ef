package index

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wordText(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "word%04d ", i)
	}
	return strings.TrimSpace(b.String())
}

func TestSplitShortText(t *testing.T) {
	s := NewSplitter(1000, 200)

	chunks := s.Split("A short paragraph that fits in one chunk.")
	require.Len(t, chunks, 1)
	assert.Equal(t, "A short paragraph that fits in one chunk.", chunks[0])
}

func TestSplitEmptyText(t *testing.T) {
	s := NewSplitter(1000, 200)

	assert.Empty(t, s.Split(""))
	assert.Empty(t, s.Split("   \n\n  "))
}

func TestSplitRespectsChunkSize(t *testing.T) {
	s := NewSplitter(100, 20)

	chunks := s.Split(wordText(200))
	require.NotEmpty(t, chunks)
	for i, c := range chunks {
		assert.LessOrEqual(t, len(c), 100, "chunk %d exceeds chunk size", i)
		assert.NotEmpty(t, strings.TrimSpace(c), "chunk %d is blank", i)
	}
}

func TestSplitCoversAllContent(t *testing.T) {
	s := NewSplitter(100, 20)

	text := wordText(150)
	joined := strings.Join(s.Split(text), " ")
	for i := 0; i < 150; i++ {
		assert.Contains(t, joined, fmt.Sprintf("word%04d", i))
	}
}

func TestSplitOverlapsNeighbors(t *testing.T) {
	s := NewSplitter(100, 20)

	chunks := s.Split(wordText(200))
	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		firstWord := strings.Fields(chunks[i])[0]
		assert.Contains(t, chunks[i-1], firstWord,
			"chunk %d should begin inside the tail of chunk %d", i, i-1)
	}
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	s := NewSplitter(100, 20)

	para1 := "First paragraph about one topic with enough words to matter."
	para2 := "Second paragraph about another topic entirely, also long enough."
	chunks := s.Split(para1 + "\n\n" + para2)

	require.Len(t, chunks, 2)
	assert.Equal(t, para1, chunks[0])
	assert.Equal(t, para2, chunks[1])
}

func TestSplitRecursesIntoOversizedParagraph(t *testing.T) {
	s := NewSplitter(100, 20)

	// One paragraph far over the chunk size, no newlines inside.
	chunks := s.Split(wordText(60))
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 100)
	}
}

func TestSplitHandlesTextWithoutSeparators(t *testing.T) {
	s := NewSplitter(50, 10)

	chunks := s.Split(strings.Repeat("x", 160))
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 50)
	}
	// Hard cuts step by size minus overlap, so consecutive windows share text.
	assert.Equal(t, chunks[0][40:], chunks[1][:10])
}

func TestNewSplitterSanitizesArguments(t *testing.T) {
	s := NewSplitter(0, -5)
	assert.Equal(t, DefaultChunkSize, s.ChunkSize)
	assert.Equal(t, DefaultChunkOverlap, s.ChunkOverlap)

	s = NewSplitter(500, 500)
	assert.Equal(t, 500, s.ChunkSize)
	assert.Less(t, s.ChunkOverlap, s.ChunkSize)
}
