// Package pipeline implements the multi-stage blog synthesis pipeline: key
// point extraction, outlining, section drafting, and final assembly/polish.
package pipeline

import (
	"context"

	"github.com/jonathan/blog-agent/internal/llm"
	"github.com/jonathan/blog-agent/internal/types"
)

// Defaults bounding prompt sizes and per-run generation cost.
const (
	// DefaultMaxSections caps how many outline headings are drafted.
	DefaultMaxSections = 6
	// DefaultTranscriptLimit bounds the transcript prefix sent for key point
	// extraction.
	DefaultTranscriptLimit = 15000
	// DefaultSectionContextLimit bounds the transcript prefix sent as context
	// for each section draft.
	DefaultSectionContextLimit = 10000
	// DefaultSectionConcurrency bounds parallel section generation calls.
	DefaultSectionConcurrency = 3
)

// stage is one transformation step over the generation context. Stages report
// failure through the context's Err field rather than an error return, so the
// graph can short-circuit uniformly.
type stage struct {
	name string
	run  func(ctx context.Context, bc types.BlogContext) types.BlogContext
}

// Pipeline runs the fixed stage sequence for one blog generation. A Pipeline
// holds no per-run state and is safe to reuse across jobs.
type Pipeline struct {
	client llm.Client

	MaxSections         int
	TranscriptLimit     int
	SectionContextLimit int
	SectionConcurrency  int
}

// New creates a pipeline over the given LLM client with default limits.
func New(client llm.Client) *Pipeline {
	return &Pipeline{
		client:              client,
		MaxSections:         DefaultMaxSections,
		TranscriptLimit:     DefaultTranscriptLimit,
		SectionContextLimit: DefaultSectionContextLimit,
		SectionConcurrency:  DefaultSectionConcurrency,
	}
}

// Run executes the stage sequence: extract key points -> generate outline ->
// write sections -> assemble and polish. Execution halts at the first stage
// that records an error; the partially filled context is returned with Err
// set. A successful run returns a context with FinalBlog populated and Err
// empty; the two outcomes are mutually exclusive.
func (p *Pipeline) Run(ctx context.Context, bc types.BlogContext) types.BlogContext {
	stages := []stage{
		{name: "extract_key_points", run: p.ExtractKeyPoints},
		{name: "generate_outline", run: p.GenerateOutline},
		{name: "write_sections", run: p.WriteSections},
		{name: "assemble_polish", run: p.AssemblePolish},
	}

	for _, s := range stages {
		bc = s.run(ctx, bc)
		if bc.Failed() {
			return bc
		}
	}
	return bc
}
