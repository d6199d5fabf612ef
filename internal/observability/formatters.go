// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/blog-agent/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintVideo outputs a summary of the resolved video.
func (p *Printer) PrintVideo(video *types.VideoResult) {
	if video == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Video ID: %s\n", video.VideoID))
	sb.WriteString(fmt.Sprintf("Title:    %s\n", video.Title))
	sb.WriteString(fmt.Sprintf("Channel:  %s", video.ChannelTitle))
	if video.PublishedAt != "" {
		sb.WriteString(fmt.Sprintf("\nDate:     %s", video.PublishedAt))
	}

	p.printBox("RESOLVED VIDEO", sb.String())
}

// PrintKeyPoints outputs the extracted key points, capped at a handful.
func (p *Printer) PrintKeyPoints(keyPoints []string) {
	if len(keyPoints) == 0 {
		return
	}

	var sb strings.Builder
	count := min(len(keyPoints), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("• %s\n", keyPoints[i]))
	}
	if len(keyPoints) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(keyPoints)-maxItemsToShow))
	}

	p.printBox("KEY POINTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSections outputs the drafted section headings with their sizes.
func (p *Printer) PrintSections(sections []types.Section) {
	if len(sections) == 0 {
		return
	}

	var sb strings.Builder
	for i, s := range sections {
		sb.WriteString(fmt.Sprintf("#%d  %s (%d chars)\n", i+1, s.Heading, len(s.Body)))
	}

	p.printBox("DRAFTED SECTIONS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintBlogStats outputs summary statistics for the finished article.
func (p *Printer) PrintBlogStats(bc *types.BlogContext) {
	if bc == nil || bc.FinalBlog == "" {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Key points:  %d\n", len(bc.KeyPoints)))
	sb.WriteString(fmt.Sprintf("Sections:    %d\n", len(bc.Sections)))
	sb.WriteString(fmt.Sprintf("Words:       %d\n", len(strings.Fields(bc.FinalBlog))))
	sb.WriteString(fmt.Sprintf("Characters:  %d", len(bc.FinalBlog)))

	p.printBox("BLOG POST", sb.String())
}
