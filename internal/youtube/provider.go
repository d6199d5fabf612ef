package youtube

import (
	"context"
	"log"

	"github.com/jonathan/blog-agent/internal/types"
)

// Provider bundles video resolution, metadata, and transcripts behind one
// surface for the worker.
type Provider struct {
	client      *Client
	transcripts *TranscriptFetcher
}

// NewProvider creates a provider from an API client and transcript fetcher.
func NewProvider(client *Client, transcripts *TranscriptFetcher) *Provider {
	return &Provider{client: client, transcripts: transcripts}
}

// Search resolves a channel/title pair to a single video. A title that is
// itself a video URL or bare video id skips the search and is looked up
// directly.
func (p *Provider) Search(ctx context.Context, channelName, videoTitle string) (*types.VideoResult, error) {
	if id := ExtractVideoID(videoTitle); id != "" {
		meta, err := p.client.GetMetadata(ctx, id)
		if err == nil {
			return &types.VideoResult{
				VideoID:      id,
				Title:        meta.Title,
				Description:  meta.Description,
				ChannelTitle: meta.ChannelTitle,
				Thumbnail:    meta.Thumbnail,
				PublishedAt:  meta.PublishedAt,
			}, nil
		}
		// An 11-character title can look like a bare id without being one;
		// fall back to a normal search when the lookup finds nothing.
		log.Printf("[YOUTUBE] direct lookup of %q failed, searching instead: %v", id, err)
	}
	return p.client.Search(ctx, channelName, videoTitle)
}

// Metadata fetches full metadata for a video id.
func (p *Provider) Metadata(ctx context.Context, videoID string) (*types.VideoMetadata, error) {
	return p.client.GetMetadata(ctx, videoID)
}

// Transcript fetches the transcript text for a video id.
func (p *Provider) Transcript(ctx context.Context, videoID string) (string, error) {
	return p.transcripts.Fetch(ctx, videoID)
}
