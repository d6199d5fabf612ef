// Package types defines the shared domain types passed between pipeline stages,
// the worker, and the HTTP layer.
package types

// Section is one drafted section of a blog post: the outline heading it was
// written for and the generated body text.
type Section struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// BlogContext is the accumulated state of one blog generation run. Each
// pipeline stage receives a context value and returns an updated copy; the
// value is owned by a single run and discarded afterwards.
//
// Err carries stage failures as data. A stage that fails sets Err and returns;
// the graph short-circuits on the first non-empty Err.
type BlogContext struct {
	VideoID          string    `json:"video_id"`
	VideoTitle       string    `json:"video_title"`
	VideoDescription string    `json:"video_description"`
	ChannelTitle     string    `json:"channel_title"`
	Transcript       string    `json:"transcript"`
	KeyPoints        []string  `json:"key_points"`
	Outline          string    `json:"outline"`
	Sections         []Section `json:"sections"`
	FinalBlog        string    `json:"final_blog"`
	Err              string    `json:"error,omitempty"`
}

// Failed reports whether a stage has recorded an error on this context.
func (c BlogContext) Failed() bool {
	return c.Err != ""
}

// BlogMetadata is the structured metadata persisted alongside a generated post.
type BlogMetadata struct {
	VideoID      string   `json:"video_id"`
	VideoTitle   string   `json:"video_title"`
	ChannelTitle string   `json:"channel_title"`
	KeyPoints    []string `json:"key_points"`
	SectionCount int      `json:"sections_count"`
}
