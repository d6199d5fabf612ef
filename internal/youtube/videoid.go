package youtube

import "regexp"

// A video id is exactly 11 characters from the URL-safe base64 alphabet.
var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// urlPatterns match the id capture group in the common watch URL shapes.
var urlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:v=|/v/)([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`/embed/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`/shorts/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`/live/([A-Za-z0-9_-]{11})`),
}

// ExtractVideoID pulls the 11-character video id out of a watch URL, short
// URL, embed URL, or a bare id. It returns "" when nothing matches.
func ExtractVideoID(input string) string {
	if videoIDPattern.MatchString(input) {
		return input
	}
	for _, p := range urlPatterns {
		if m := p.FindStringSubmatch(input); m != nil {
			return m[1]
		}
	}
	return ""
}
