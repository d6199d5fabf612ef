package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanCodeFence(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "No fence",
			input:    "# My Blog Post\n\nSome content here.",
			expected: "# My Blog Post\n\nSome content here.",
		},
		{
			name:     "Markdown fence with language",
			input:    "```markdown\n# Title\n\nBody text.\n```",
			expected: "# Title\n\nBody text.",
		},
		{
			name:     "Generic fence",
			input:    "```\n# Title\n```",
			expected: "# Title",
		},
		{
			name:     "Surrounding whitespace",
			input:    "  \n```md\ncontent\n```\n  ",
			expected: "content",
		},
		{
			name:     "Fence marker only at start",
			input:    "```markdown\n## Heading\nNo closing fence",
			expected: "## Heading\nNo closing fence",
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanCodeFence(tt.input))
		})
	}
}
