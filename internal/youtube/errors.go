package youtube

import "fmt"

// ChannelNotFoundError indicates no channel matched the requested name.
type ChannelNotFoundError struct {
	Channel string
}

func (e *ChannelNotFoundError) Error() string {
	return fmt.Sprintf("channel '%s' not found", e.Channel)
}

// VideoNotFoundError indicates no video could be resolved for a
// channel/title pair.
type VideoNotFoundError struct {
	Channel string
	Title   string
}

func (e *VideoNotFoundError) Error() string {
	return fmt.Sprintf("could not find video '%s' on channel '%s'", e.Title, e.Channel)
}

// TranscriptError indicates a transcript could not be retrieved for a video.
type TranscriptError struct {
	VideoID string
	Message string
	Cause   error
}

func (e *TranscriptError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transcript for video %s: %s: %v", e.VideoID, e.Message, e.Cause)
	}
	return fmt.Sprintf("transcript for video %s: %s", e.VideoID, e.Message)
}

func (e *TranscriptError) Unwrap() error {
	return e.Cause
}

// APIError wraps a Data API failure with the operation that triggered it.
type APIError struct {
	Operation string
	Cause     error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("youtube api %s: %v", e.Operation, e.Cause)
}

func (e *APIError) Unwrap() error {
	return e.Cause
}
