package youtube

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"log"
	"strings"
	"time"

	"github.com/jonathan/blog-agent/internal/fetch"
)

// playerResponseMarker anchors the JSON blob the watch page embeds with the
// caption track list.
const playerResponseMarker = "ytInitialPlayerResponse"

// TranscriptFetcher retrieves video transcripts by scraping the watch page
// for caption tracks and downloading the timedtext document they point at.
type TranscriptFetcher struct {
	opts           *fetch.Options
	baseURL        string
	language       string
	browserTimeout time.Duration
	useBrowser     bool
}

// NewTranscriptFetcher returns a fetcher preferring English captions.
func NewTranscriptFetcher() *TranscriptFetcher {
	opts := fetch.DefaultOptions()
	opts.Headers = map[string]string{
		"Accept-Language": "en-US,en;q=0.9",
		// Pre-accepted consent keeps EU region requests off the consent
		// interstitial, which has no player response in it.
		"Cookie": "CONSENT=YES+1",
	}
	return &TranscriptFetcher{
		opts:     opts,
		baseURL:  "https://www.youtube.com",
		language: "en",
	}
}

// WithBrowserFallback enables headless-browser rendering when the static
// watch page comes back without a player response.
func (f *TranscriptFetcher) WithBrowserFallback(timeout time.Duration) *TranscriptFetcher {
	f.useBrowser = true
	f.browserTimeout = timeout
	return f
}

// Fetch returns the full transcript text for a video, joining all caption
// segments with spaces. Manually written captions are preferred over
// auto-generated ones, and the configured language over others.
func (f *TranscriptFetcher) Fetch(ctx context.Context, videoID string) (string, error) {
	pageHTML, err := f.watchPage(ctx, videoID)
	if err != nil {
		return "", err
	}

	tracks, err := f.captionTracks(pageHTML)
	if err != nil {
		return "", &TranscriptError{VideoID: videoID, Message: "parsing caption tracks", Cause: err}
	}
	if len(tracks) == 0 {
		return "", &TranscriptError{VideoID: videoID, Message: "no caption tracks available"}
	}

	track := pickTrack(tracks, f.language)
	log.Printf("[TRANSCRIPT] video %s using track lang=%s kind=%s", videoID, track.LanguageCode, track.Kind)

	transcript, err := f.timedText(ctx, track.BaseURL)
	if err != nil {
		return "", &TranscriptError{VideoID: videoID, Message: "downloading timedtext", Cause: err}
	}
	if transcript == "" {
		return "", &TranscriptError{VideoID: videoID, Message: "empty transcript"}
	}
	return transcript, nil
}

// watchPage fetches the video watch page, falling back to a headless
// browser when the static document lacks the player response.
func (f *TranscriptFetcher) watchPage(ctx context.Context, videoID string) (string, error) {
	url := fmt.Sprintf("%s/watch?v=%s", f.baseURL, videoID)

	result, err := fetch.URL(ctx, url, f.opts)
	if err != nil {
		return "", &TranscriptError{VideoID: videoID, Message: "fetching watch page", Cause: err}
	}

	if fetch.ShouldUseBrowser(result.Body, playerResponseMarker) && f.useBrowser {
		log.Printf("[TRANSCRIPT] static page for %s missing player response, rendering in browser", videoID)
		rendered, err := fetch.WithBrowser(ctx, url, f.browserTimeout, false)
		if err != nil {
			return "", &TranscriptError{VideoID: videoID, Message: "browser fallback failed", Cause: err}
		}
		return rendered, nil
	}
	return result.Body, nil
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	// Kind is "asr" for auto-generated tracks, empty for manual ones.
	Kind string `json:"kind"`
}

type playerResponse struct {
	Captions struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

// captionTracks digs the caption track list out of the watch page HTML.
func (f *TranscriptFetcher) captionTracks(pageHTML string) ([]captionTrack, error) {
	script, err := fetch.FindInlineScript(pageHTML, playerResponseMarker)
	if err != nil {
		return nil, err
	}
	if script == "" {
		return nil, fmt.Errorf("player response not found in page")
	}

	idx := strings.Index(script, playerResponseMarker)
	brace := strings.IndexByte(script[idx:], '{')
	if brace < 0 {
		return nil, fmt.Errorf("player response has no JSON payload")
	}

	// Decode exactly one JSON value; the script continues after the blob.
	var pr playerResponse
	dec := json.NewDecoder(strings.NewReader(script[idx+brace:]))
	if err := dec.Decode(&pr); err != nil {
		return nil, fmt.Errorf("failed to decode player response: %w", err)
	}
	return pr.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks, nil
}

// pickTrack prefers a manual track in the wanted language, then an
// auto-generated one in that language, then any manual track, then
// whatever is first.
func pickTrack(tracks []captionTrack, language string) captionTrack {
	var langAuto, anyManual *captionTrack
	for i := range tracks {
		t := &tracks[i]
		inLang := strings.HasPrefix(t.LanguageCode, language)
		switch {
		case inLang && t.Kind != "asr":
			return *t
		case inLang && langAuto == nil:
			langAuto = t
		case t.Kind != "asr" && anyManual == nil:
			anyManual = t
		}
	}
	if langAuto != nil {
		return *langAuto
	}
	if anyManual != nil {
		return *anyManual
	}
	return tracks[0]
}

type timedText struct {
	Texts []struct {
		Body string `xml:",chardata"`
	} `xml:"text"`
}

// timedText downloads a caption track and joins its segments into one
// string. Segment text arrives double-escaped, so entities are unescaped
// once more after XML decoding.
func (f *TranscriptFetcher) timedText(ctx context.Context, trackURL string) (string, error) {
	result, err := fetch.URL(ctx, trackURL, f.opts)
	if err != nil {
		return "", err
	}

	var doc timedText
	if err := xml.Unmarshal([]byte(result.Body), &doc); err != nil {
		return "", fmt.Errorf("failed to parse timedtext: %w", err)
	}

	parts := make([]string, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		text := strings.TrimSpace(html.UnescapeString(t.Body))
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}
