// Package youtube resolves channel/title references to concrete videos and
// retrieves their transcripts and metadata.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/jonathan/blog-agent/internal/types"
)

// maxSearchResults bounds how many candidate videos one search inspects.
const maxSearchResults = 10

// Client wraps the Data API v3 service.
type Client struct {
	service    *yt.Service
	maxRetries int
}

// New creates a Data API client authenticated with an API key.
func New(ctx context.Context, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("youtube api key is required")
	}
	svc, err := yt.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube service: %w", err)
	}
	return &Client{service: svc, maxRetries: 2}, nil
}

// Search resolves a channel name plus video title to a single video. It
// finds the channel first, searches for the title within that channel, and
// picks the first result whose title contains the query. When no title
// matches, the top-ranked result is used anyway since the API's own
// relevance ordering is usually right.
func (c *Client) Search(ctx context.Context, channelName, videoTitle string) (*types.VideoResult, error) {
	channelID, err := c.findChannel(ctx, channelName)
	if err != nil {
		return nil, err
	}

	var resp *yt.SearchListResponse
	err = c.withRetry(ctx, "search.videos", func() error {
		var err error
		resp, err = c.service.Search.List([]string{"snippet"}).
			ChannelId(channelID).
			Q(videoTitle).
			Type("video").
			MaxResults(maxSearchResults).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, &APIError{Operation: "search videos", Cause: err}
	}
	if len(resp.Items) == 0 {
		return nil, &VideoNotFoundError{Channel: channelName, Title: videoTitle}
	}

	item := pickBestMatch(resp.Items, videoTitle)
	return searchItemToResult(item), nil
}

// GetMetadata fetches full metadata for a known video id.
func (c *Client) GetMetadata(ctx context.Context, videoID string) (*types.VideoMetadata, error) {
	var resp *yt.VideoListResponse
	err := c.withRetry(ctx, "videos.list", func() error {
		var err error
		resp, err = c.service.Videos.List([]string{"snippet", "contentDetails", "statistics"}).
			Id(videoID).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, &APIError{Operation: "videos.list", Cause: err}
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("video %s not found", videoID)
	}

	v := resp.Items[0]
	meta := &types.VideoMetadata{
		Title:        html.UnescapeString(v.Snippet.Title),
		Description:  v.Snippet.Description,
		ChannelTitle: v.Snippet.ChannelTitle,
		PublishedAt:  v.Snippet.PublishedAt,
		Tags:         v.Snippet.Tags,
	}
	if v.Snippet.Thumbnails != nil && v.Snippet.Thumbnails.High != nil {
		meta.Thumbnail = v.Snippet.Thumbnails.High.Url
	}
	if v.ContentDetails != nil {
		meta.Duration = v.ContentDetails.Duration
	}
	if v.Statistics != nil {
		meta.ViewCount = v.Statistics.ViewCount
	}
	return meta, nil
}

// findChannel resolves a channel name to its channel id via a channel-type
// search, taking the top result.
func (c *Client) findChannel(ctx context.Context, channelName string) (string, error) {
	var resp *yt.SearchListResponse
	err := c.withRetry(ctx, "search.channels", func() error {
		var err error
		resp, err = c.service.Search.List([]string{"snippet"}).
			Q(channelName).
			Type("channel").
			MaxResults(1).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return "", &APIError{Operation: "search channels", Cause: err}
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return "", &ChannelNotFoundError{Channel: channelName}
	}
	return resp.Items[0].Snippet.ChannelId, nil
}

// pickBestMatch prefers a result whose title contains the query, falling
// back to the first (most relevant) result.
func pickBestMatch(items []*yt.SearchResult, videoTitle string) *yt.SearchResult {
	want := strings.ToLower(videoTitle)
	for _, item := range items {
		if item.Snippet == nil {
			continue
		}
		got := strings.ToLower(html.UnescapeString(item.Snippet.Title))
		if strings.Contains(got, want) || strings.Contains(want, got) {
			return item
		}
	}
	return items[0]
}

func searchItemToResult(item *yt.SearchResult) *types.VideoResult {
	result := &types.VideoResult{
		VideoID:      item.Id.VideoId,
		Title:        html.UnescapeString(item.Snippet.Title),
		Description:  item.Snippet.Description,
		ChannelTitle: item.Snippet.ChannelTitle,
		PublishedAt:  item.Snippet.PublishedAt,
	}
	if item.Snippet.Thumbnails != nil && item.Snippet.Thumbnails.High != nil {
		result.Thumbnail = item.Snippet.Thumbnails.High.Url
	}
	return result
}

// withRetry runs fn, retrying quota and server errors with exponential
// backoff. Context cancellation stops the retries immediately.
func (c *Client) withRetry(ctx context.Context, op string, fn func() error) error {
	backoff := time.Second
	var err error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			log.Printf("[YOUTUBE] %s attempt %d/%d after error: %v", op, attempt+1, c.maxRetries+1, err)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
			if backoff > 10*time.Second {
				backoff = 10 * time.Second
			}
		}
		if err = fn(); err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
	}
	return err
}

func isRetryable(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 429, 500, 502, 503:
			return true
		}
	}
	return false
}
