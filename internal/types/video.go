package types

// VideoResult is the outcome of resolving a channel/title reference against the
// video platform: the best-effort single video selected for the job.
type VideoResult struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ChannelTitle string `json:"channel_title"`
	Thumbnail    string `json:"thumbnail,omitempty"`
	PublishedAt  string `json:"published_at,omitempty"`
}

// VideoMetadata is the richer metadata available once a video id is known.
// It is enrichment only; the executor falls back to the search result when a
// metadata fetch fails.
type VideoMetadata struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	ChannelTitle string   `json:"channel_title"`
	PublishedAt  string   `json:"published_at,omitempty"`
	Thumbnail    string   `json:"thumbnail,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	ViewCount    uint64   `json:"view_count,omitempty"`
	Duration     string   `json:"duration,omitempty"`
}
