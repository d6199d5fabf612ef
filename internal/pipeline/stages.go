package pipeline

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/blog-agent/internal/llm"
	"github.com/jonathan/blog-agent/internal/prompts"
	"github.com/jonathan/blog-agent/internal/types"
)

const promptFile = "blog.json"

// ExtractKeyPoints asks the model for the most important points in the
// transcript and parses them from the numbered/dashed list it returns.
func (p *Pipeline) ExtractKeyPoints(ctx context.Context, bc types.BlogContext) types.BlogContext {
	template := prompts.MustGet(promptFile, "extract-key-points")
	prompt := prompts.Format(template, map[string]string{
		"Title":       bc.VideoTitle,
		"Channel":     bc.ChannelTitle,
		"Description": bc.VideoDescription,
		"Transcript":  truncate(bc.Transcript, p.TranscriptLimit),
	})

	text, err := p.client.GenerateContent(ctx, prompt, llm.TierLite)
	if err != nil {
		bc.Err = fmt.Sprintf("Key points extraction failed: %v", err)
		return bc
	}

	bc.KeyPoints = ParseKeyPoints(text)
	if len(bc.KeyPoints) == 0 {
		bc.Err = "Key points extraction failed: no list items in model output"
		return bc
	}
	return bc
}

// GenerateOutline produces a markdown outline from the key points.
func (p *Pipeline) GenerateOutline(ctx context.Context, bc types.BlogContext) types.BlogContext {
	template := prompts.MustGet(promptFile, "generate-outline")
	prompt := prompts.Format(template, map[string]string{
		"Title":     bc.VideoTitle,
		"Channel":   bc.ChannelTitle,
		"KeyPoints": strings.Join(bc.KeyPoints, "\n"),
	})

	outline, err := p.client.GenerateContent(ctx, prompt, llm.TierStandard)
	if err != nil {
		bc.Err = fmt.Sprintf("Outline generation failed: %v", err)
		return bc
	}

	bc.Outline = outline
	return bc
}

// WriteSections drafts one section per outline heading, preserving outline
// order. Headings beyond the section cap are dropped to bound cost. Drafting
// calls run concurrently but results are assembled by outline position.
func (p *Pipeline) WriteSections(ctx context.Context, bc types.BlogContext) types.BlogContext {
	headings := ParseOutlineHeadings(bc.Outline)
	if len(headings) == 0 {
		bc.Err = "Section writing failed: outline contains no headings"
		return bc
	}
	if len(headings) > p.MaxSections {
		headings = headings[:p.MaxSections]
	}

	template := prompts.MustGet(promptFile, "write-section")
	sectionContext := truncate(bc.Transcript, p.SectionContextLimit)
	keyPoints := strings.Join(bc.KeyPoints, "\n")

	sections := make([]types.Section, len(headings))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.SectionConcurrency)

	for i, heading := range headings {
		g.Go(func() error {
			prompt := prompts.Format(template, map[string]string{
				"SectionTitle": heading,
				"Context":      sectionContext,
				"KeyPoints":    keyPoints,
			})
			body, err := p.client.GenerateContent(gCtx, prompt, llm.TierStandard)
			if err != nil {
				return fmt.Errorf("section %q: %w", heading, err)
			}
			sections[i] = types.Section{Heading: heading, Body: body}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		bc.Err = fmt.Sprintf("Section writing failed: %v", err)
		return bc
	}

	bc.Sections = sections
	return bc
}

// AssemblePolish concatenates the drafted sections into a full draft and asks
// the model for one final editorial pass.
func (p *Pipeline) AssemblePolish(ctx context.Context, bc types.BlogContext) types.BlogContext {
	var draft strings.Builder
	for i, section := range bc.Sections {
		if i > 0 {
			draft.WriteString("\n")
		}
		draft.WriteString(fmt.Sprintf("## %s\n\n%s\n", section.Heading, section.Body))
	}

	template := prompts.MustGet(promptFile, "assemble-polish")
	prompt := prompts.Format(template, map[string]string{
		"Title": bc.VideoTitle,
		"Draft": draft.String(),
	})

	finalBlog, err := p.client.GenerateContent(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		bc.Err = fmt.Sprintf("Assembly/polish failed: %v", err)
		return bc
	}

	finalBlog = llm.CleanCodeFence(finalBlog)
	if strings.TrimSpace(finalBlog) == "" {
		bc.Err = "Assembly/polish failed: empty document from model"
		return bc
	}

	bc.FinalBlog = finalBlog
	return bc
}

// ParseKeyPoints extracts list items from generated text: lines that start
// with a digit or a dash marker.
func ParseKeyPoints(text string) []string {
	var points []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		first := line[0]
		if (first >= '0' && first <= '9') || strings.HasPrefix(line, "-") {
			points = append(points, line)
		}
	}
	return points
}

// ParseOutlineHeadings extracts section headings from a markdown outline:
// lines starting with a depth>=2 heading marker, with the markers stripped.
func ParseOutlineHeadings(outline string) []string {
	var headings []string
	for _, line := range strings.Split(outline, "\n") {
		if !strings.HasPrefix(line, "##") {
			continue
		}
		heading := strings.TrimSpace(strings.TrimLeft(line, "# "))
		if heading != "" {
			headings = append(headings, heading)
		}
	}
	return headings
}

func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit]
}
