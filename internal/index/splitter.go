// Package index splits article text into overlapping chunks and stores
// them with their embedding vectors for similarity search.
package index

import "strings"

// Default chunking parameters. Chunks of about a thousand characters with a
// couple hundred characters of overlap keep enough surrounding context for
// embeddings to stay meaningful at retrieval time.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// defaultSeparators are tried in order. The splitter prefers breaking at
// paragraph boundaries, then lines, then sentences, then words, and only
// cuts mid-word as a last resort.
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter breaks text into chunks no longer than ChunkSize characters,
// carrying ChunkOverlap trailing characters into the next chunk.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int

	separators []string
}

// NewSplitter returns a splitter with the given size and overlap. Values
// that don't make sense (non-positive size, overlap >= size) fall back to
// the defaults.
func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = DefaultChunkOverlap
		if chunkOverlap >= chunkSize {
			chunkOverlap = chunkSize / 5
		}
	}
	return &Splitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		separators:   defaultSeparators,
	}
}

// Split breaks text into chunks. Chunks are trimmed of surrounding
// whitespace and empty chunks are dropped. Every chunk is at most
// ChunkSize characters long.
func (s *Splitter) Split(text string) []string {
	return s.split(text, s.separators)
}

func (s *Splitter) split(text string, seps []string) []string {
	if len(text) <= s.ChunkSize {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}

	sep, rest := pickSeparator(text, seps)
	if sep == "" {
		return s.hardCut(text)
	}
	return s.merge(strings.SplitAfter(text, sep), rest)
}

// pickSeparator returns the first separator that actually occurs in the
// text, plus the finer-grained separators that remain after it.
func pickSeparator(text string, seps []string) (string, []string) {
	for i, sep := range seps {
		if sep == "" {
			return "", nil
		}
		if strings.Contains(text, sep) {
			return sep, seps[i+1:]
		}
	}
	return "", nil
}

// hardCut slices text into fixed-size windows when no separator applies,
// stepping by ChunkSize minus ChunkOverlap so neighbors still overlap.
func (s *Splitter) hardCut(text string) []string {
	step := s.ChunkSize - s.ChunkOverlap
	if step <= 0 {
		step = s.ChunkSize
	}
	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + s.ChunkSize
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end == len(text) {
			break
		}
	}
	return chunks
}

// merge greedily packs separator-delimited pieces into chunks. When a
// chunk fills up, the trailing pieces that fit inside ChunkOverlap are
// carried into the next chunk. A piece that is itself longer than
// ChunkSize is re-split with the remaining finer separators.
func (s *Splitter) merge(pieces []string, rest []string) []string {
	var chunks []string
	var current []string
	currentLen := 0

	flush := func() {
		if c := strings.TrimSpace(strings.Join(current, "")); c != "" {
			chunks = append(chunks, c)
		}
	}

	for _, piece := range pieces {
		if piece == "" {
			continue
		}
		if len(piece) > s.ChunkSize {
			flush()
			current, currentLen = nil, 0
			chunks = append(chunks, s.split(piece, rest)...)
			continue
		}
		if currentLen > 0 && currentLen+len(piece) > s.ChunkSize {
			flush()
			// Keep only a ChunkOverlap-sized tail, and make room for the
			// incoming piece.
			for currentLen > s.ChunkOverlap ||
				(currentLen > 0 && currentLen+len(piece) > s.ChunkSize) {
				currentLen -= len(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		currentLen += len(piece)
	}
	flush()
	return chunks
}
