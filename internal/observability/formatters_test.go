package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/blog-agent/internal/types"
)

func TestPrintVideo(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintVideo(&types.VideoResult{
		VideoID:      "dQw4w9WgXcQ",
		Title:        "A Video",
		ChannelTitle: "A Channel",
	})

	out := buf.String()
	assert.Contains(t, out, "RESOLVED VIDEO")
	assert.Contains(t, out, "dQw4w9WgXcQ")
	assert.Contains(t, out, "A Channel")
}

func TestPrintVideoNil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintVideo(nil)
	assert.Empty(t, buf.String())
}

func TestPrintKeyPointsCapsList(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	points := []string{"one", "two", "three", "four", "five", "six", "seven"}
	p.PrintKeyPoints(points)

	out := buf.String()
	assert.Contains(t, out, "• one")
	assert.Contains(t, out, "and 2 more")
	assert.NotContains(t, out, "• six")
}

func TestPrintSections(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintSections([]types.Section{
		{Heading: "Intro", Body: "hello"},
		{Heading: "Details", Body: strings.Repeat("x", 100)},
	})

	out := buf.String()
	assert.Contains(t, out, "#1  Intro (5 chars)")
	assert.Contains(t, out, "#2  Details (100 chars)")
}

func TestPrintBlogStats(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintBlogStats(&types.BlogContext{
		KeyPoints: []string{"a", "b"},
		Sections:  []types.Section{{Heading: "H", Body: "B"}},
		FinalBlog: "one two three",
	})

	out := buf.String()
	assert.Contains(t, out, "Key points:  2")
	assert.Contains(t, out, "Words:       3")
}

func TestPrintBlogStatsEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintBlogStats(&types.BlogContext{})
	assert.Empty(t, buf.String())
}

func TestLongLinesAreTruncated(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintKeyPoints([]string{strings.Repeat("w", 200)})

	for _, line := range strings.Split(buf.String(), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), boxWidth+2)
	}
}
