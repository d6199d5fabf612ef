package youtube

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const timedTextXML = `<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.0" dur="2.5">Welcome back to the channel.</text>
  <text start="2.5" dur="3.0">Today we&amp;#39;re talking about Go.</text>
  <text start="5.5" dur="2.0"> </text>
  <text start="7.5" dur="4.0">Let&amp;#39;s dive in.</text>
</transcript>`

// watchPageFor builds a watch page whose player response advertises the
// given caption tracks.
func watchPageFor(tracksJSON string) string {
	return fmt.Sprintf(`<html><head>
<script>var ytInitialPlayerResponse = {"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":%s}},"videoDetails":{"videoId":"x"}};var other = 1;</script>
</head><body></body></html>`, tracksJSON)
}

func newTranscriptServer(t *testing.T, tracksJSON func(base string) string) (*httptest.Server, *TranscriptFetcher) {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(watchPageFor(tracksJSON(srv.URL))))
	})
	mux.HandleFunc("/timedtext", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(timedTextXML))
	})

	f := NewTranscriptFetcher()
	f.baseURL = srv.URL
	return srv, f
}

func TestFetchTranscript(t *testing.T) {
	_, f := newTranscriptServer(t, func(base string) string {
		return fmt.Sprintf(`[{"baseUrl":"%s/timedtext","languageCode":"en","kind":""}]`, base)
	})

	transcript, err := f.Fetch(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t,
		"Welcome back to the channel. Today we're talking about Go. Let's dive in.",
		transcript)
}

func TestFetchTranscriptNoCaptions(t *testing.T) {
	_, f := newTranscriptServer(t, func(string) string { return `[]` })

	_, err := f.Fetch(context.Background(), "dQw4w9WgXcQ")
	var trErr *TranscriptError
	require.ErrorAs(t, err, &trErr)
	assert.Equal(t, "dQw4w9WgXcQ", trErr.VideoID)
	assert.Contains(t, trErr.Error(), "no caption tracks")
}

func TestFetchTranscriptNoPlayerResponse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>consent required</body></html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewTranscriptFetcher()
	f.baseURL = srv.URL

	_, err := f.Fetch(context.Background(), "dQw4w9WgXcQ")
	var trErr *TranscriptError
	require.ErrorAs(t, err, &trErr)
	assert.Contains(t, trErr.Error(), "player response")
}

func TestPickTrack(t *testing.T) {
	manualEN := captionTrack{BaseURL: "m-en", LanguageCode: "en", Kind: ""}
	autoEN := captionTrack{BaseURL: "a-en", LanguageCode: "en", Kind: "asr"}
	manualDE := captionTrack{BaseURL: "m-de", LanguageCode: "de", Kind: ""}
	autoFR := captionTrack{BaseURL: "a-fr", LanguageCode: "fr", Kind: "asr"}

	tests := []struct {
		name   string
		tracks []captionTrack
		want   string
	}{
		{"manual english wins", []captionTrack{autoFR, autoEN, manualEN}, "m-en"},
		{"auto english over manual other", []captionTrack{manualDE, autoEN}, "a-en"},
		{"manual other over auto other", []captionTrack{autoFR, manualDE}, "m-de"},
		{"regional english counts", []captionTrack{autoFR, {BaseURL: "m-engb", LanguageCode: "en-GB"}}, "m-engb"},
		{"last resort first track", []captionTrack{autoFR}, "a-fr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pickTrack(tt.tracks, "en").BaseURL)
		})
	}
}

func TestCaptionTracksParsesRealisticScript(t *testing.T) {
	f := NewTranscriptFetcher()
	page := watchPageFor(`[{"baseUrl":"https://example.com/tt?v=1","languageCode":"en","kind":"asr"},{"baseUrl":"https://example.com/tt?v=2","languageCode":"es"}]`)

	tracks, err := f.captionTracks(page)
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "asr", tracks[0].Kind)
	assert.Equal(t, "es", tracks[1].LanguageCode)
}
