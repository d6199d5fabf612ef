// Package worker runs one submitted job end to end: resolve the video,
// fetch its transcript, generate the article, persist it, index it, and
// notify the requester.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/jonathan/blog-agent/internal/db"
	"github.com/jonathan/blog-agent/internal/jobs"
	"github.com/jonathan/blog-agent/internal/types"
)

// Progress checkpoints reported while a job runs. The gaps leave room for
// the long phases without the bar ever appearing to move backwards.
const (
	progressSearching  = 0
	progressTranscript = 15
	progressMetadata   = 30
	progressGenerating = 45
	progressSaving     = 60
	progressIndexing   = 80
	progressNotifying  = 90
)

// VideoProvider resolves videos and fetches their transcripts and metadata.
type VideoProvider interface {
	Search(ctx context.Context, channelName, videoTitle string) (*types.VideoResult, error)
	Metadata(ctx context.Context, videoID string) (*types.VideoMetadata, error)
	Transcript(ctx context.Context, videoID string) (string, error)
}

// Generator runs the multi-stage article pipeline.
type Generator interface {
	Run(ctx context.Context, bc types.BlogContext) types.BlogContext
}

// PostStore persists finished articles.
type PostStore interface {
	CreatePost(ctx context.Context, jobID uuid.UUID, title, content string, metadata types.BlogMetadata) (*db.BlogPost, error)
}

// Indexer chunks and embeds a stored post for similarity search.
type Indexer interface {
	IndexPost(ctx context.Context, postID uuid.UUID, content string) (int, error)
}

// Mailer delivers the finished article to the requester.
type Mailer interface {
	SendPost(ctx context.Context, to, title, content string) error
}

// Executor drives a single job through all its phases. Indexing and email
// delivery are best-effort: their failures are logged but do not fail a
// job whose article is already saved.
type Executor struct {
	videos    VideoProvider
	generator Generator
	posts     PostStore
	indexer   Indexer
	mailer    Mailer
}

// NewExecutor wires an executor. indexer and mailer may be nil to disable
// those phases.
func NewExecutor(videos VideoProvider, generator Generator, posts PostStore, indexer Indexer, mailer Mailer) *Executor {
	return &Executor{
		videos:    videos,
		generator: generator,
		posts:     posts,
		indexer:   indexer,
		mailer:    mailer,
	}
}

// Run executes the job tracked by tracker. It always leaves the job in a
// terminal state: completed once the article is saved, failed otherwise.
// A panic anywhere in the run is recovered and recorded as a failure.
func (e *Executor) Run(ctx context.Context, tracker *jobs.Tracker, job *db.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[WORKER] job %s panicked: %v", job.ID, r)
			if failErr := tracker.Fail(ctx, fmt.Sprintf("internal error: %v", r)); failErr != nil {
				log.Printf("[WORKER] job %s could not record panic: %v", job.ID, failErr)
			}
			err = fmt.Errorf("job %s panicked: %v", job.ID, r)
		}
	}()

	if err := tracker.Start(ctx); err != nil {
		return fmt.Errorf("failed to start job %s: %w", job.ID, err)
	}
	log.Printf("[WORKER] job %s started: channel=%q title=%q", job.ID, job.ChannelName, job.VideoTitle)

	e.report(ctx, tracker, job, progressSearching, "Searching for video...")
	video, err := e.videos.Search(ctx, job.ChannelName, job.VideoTitle)
	if err != nil {
		cause := fmt.Sprintf("Could not find video '%s' on channel '%s'", job.VideoTitle, job.ChannelName)
		return e.fail(ctx, tracker, job, cause, err)
	}
	if trackErr := tracker.SetVideoID(ctx, video.VideoID); trackErr != nil {
		log.Printf("[WORKER] job %s could not record video id: %v", job.ID, trackErr)
	}

	e.report(ctx, tracker, job, progressTranscript, "Fetching transcript...")
	transcript, err := e.videos.Transcript(ctx, video.VideoID)
	if err != nil {
		cause := fmt.Sprintf("Could not fetch transcript for video %s", video.VideoID)
		return e.fail(ctx, tracker, job, cause, err)
	}

	e.report(ctx, tracker, job, progressMetadata, "Extracting metadata...")
	meta := e.metadataOrFallback(ctx, job, video)

	e.report(ctx, tracker, job, progressGenerating, "Generating blog post...")
	bc := e.generator.Run(ctx, types.BlogContext{
		VideoID:          video.VideoID,
		VideoTitle:       meta.Title,
		VideoDescription: meta.Description,
		ChannelTitle:     meta.ChannelTitle,
		Transcript:       transcript,
	})
	if bc.Failed() {
		return e.fail(ctx, tracker, job, bc.Err, errors.New(bc.Err))
	}

	e.report(ctx, tracker, job, progressSaving, "Saving blog post...")
	post, err := e.posts.CreatePost(ctx, job.ID, meta.Title, bc.FinalBlog, types.BlogMetadata{
		VideoID:      video.VideoID,
		VideoTitle:   meta.Title,
		ChannelTitle: meta.ChannelTitle,
		KeyPoints:    bc.KeyPoints,
		SectionCount: len(bc.Sections),
	})
	if err != nil {
		return e.fail(ctx, tracker, job, fmt.Sprintf("Could not save blog post: %v", err), err)
	}

	e.report(ctx, tracker, job, progressIndexing, "Generating embeddings...")
	if e.indexer != nil {
		if n, err := e.indexer.IndexPost(ctx, post.ID, post.Content); err != nil {
			log.Printf("[WORKER] job %s indexing failed (post saved, search degraded): %v", job.ID, err)
		} else {
			log.Printf("[WORKER] job %s indexed %d chunks", job.ID, n)
		}
	}

	if e.mailer != nil && job.Email != nil && *job.Email != "" {
		e.report(ctx, tracker, job, progressNotifying, "Sending email...")
		if err := e.mailer.SendPost(ctx, *job.Email, post.Title, post.Content); err != nil {
			log.Printf("[WORKER] job %s email delivery failed: %v", job.ID, err)
		}
	}

	e.report(ctx, tracker, job, 100, "Completed!")
	if err := tracker.Complete(ctx); err != nil {
		return fmt.Errorf("failed to complete job %s: %w", job.ID, err)
	}
	log.Printf("[WORKER] job %s completed: post %s", job.ID, post.ID)
	return nil
}

// metadataOrFallback enriches the job with full video metadata, falling
// back to what the search result already carried when the fetch fails.
func (e *Executor) metadataOrFallback(ctx context.Context, job *db.Job, video *types.VideoResult) *types.VideoMetadata {
	meta, err := e.videos.Metadata(ctx, video.VideoID)
	if err != nil {
		log.Printf("[WORKER] job %s metadata fetch failed, using search result: %v", job.ID, err)
		return &types.VideoMetadata{
			Title:        video.Title,
			Description:  video.Description,
			ChannelTitle: video.ChannelTitle,
			PublishedAt:  video.PublishedAt,
			Thumbnail:    video.Thumbnail,
		}
	}
	return meta
}

func (e *Executor) report(ctx context.Context, tracker *jobs.Tracker, job *db.Job, progress int, phase string) {
	if err := tracker.Progress(ctx, progress, phase); err != nil {
		log.Printf("[WORKER] job %s progress update to %d (%s) failed: %v", job.ID, progress, phase, err)
	}
}

func (e *Executor) fail(ctx context.Context, tracker *jobs.Tracker, job *db.Job, cause string, err error) error {
	log.Printf("[WORKER] job %s failed: %s: %v", job.ID, cause, err)
	if failErr := tracker.Fail(ctx, cause); failErr != nil {
		log.Printf("[WORKER] job %s could not record failure: %v", job.ID, failErr)
	}
	return fmt.Errorf("%s: %w", cause, err)
}
