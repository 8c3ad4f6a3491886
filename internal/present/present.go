package present

import (
	"errors"
	"strings"

	"linkgist/internal/domain"
)

const (
	SuccessMessage        = "English summary generated successfully!"
	MissingInputMessage   = "Please provide both the API key and a URL."
	InvalidURLMessage     = "Please enter a valid URL. It can be a YouTube or website URL."
	UnsupportedURLMessage = "Please provide a direct YouTube video link (not Shorts, search, or playlist)."
	NoTranscriptMessage   = "No transcript found. The video may not have captions or might be restricted."

	redacted = "[redacted]"
)

// View is what a surface shows the user after a run.
type View struct {
	OK        bool
	Message   string
	Summary   string
	Kind      string
	Documents int
	Chunks    int
	Language  string
	Cached    bool
}

// Present maps a pipeline outcome to a user facing view. Any of secrets found
// in error details is masked.
func Present(result domain.Result, err error, secrets ...string) View {
	if err == nil {
		return View{
			OK:        true,
			Message:   SuccessMessage,
			Summary:   result.Summary,
			Kind:      result.Kind.String(),
			Documents: result.Documents,
			Chunks:    result.Chunks,
			Language:  result.Language,
			Cached:    result.Cached,
		}
	}

	return View{
		Message: failureMessage(result.Kind, err, secrets),
		Kind:    result.Kind.String(),
	}
}

func failureMessage(kind domain.SourceKind, err error, secrets []string) string {
	detail := redact(err.Error(), secrets)

	switch {
	case errors.Is(err, domain.ErrInput):
		if errors.Is(err, domain.ErrInvalidURL) {
			return InvalidURLMessage
		}
		return MissingInputMessage
	case errors.Is(err, domain.ErrUnsupportedURL):
		return UnsupportedURLMessage
	case errors.Is(err, domain.ErrNoTranscript):
		return NoTranscriptMessage
	case errors.Is(err, domain.ErrLoad):
		if kind == domain.SourceYouTubeVideo {
			return "Failed to load YouTube content. Error: " + detail
		}
		return "Failed to load website content. Error: " + detail
	case errors.Is(err, domain.ErrSummarization):
		return "Failed to generate the summary. Error: " + detail
	default:
		return "Unexpected error: " + detail
	}
}

func redact(s string, secrets []string) string {
	for _, secret := range secrets {
		secret = strings.TrimSpace(secret)
		if secret == "" {
			continue
		}
		s = strings.ReplaceAll(s, secret, redacted)
	}

	return s
}
