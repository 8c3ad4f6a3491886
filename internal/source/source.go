package source

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"linkgist/internal/domain"

	"mvdan.cc/xurls/v2"
)

const (
	youtubeWatchMarker = "youtube.com/watch?v="
	youtubeShortMarker = "youtu.be/"
	youtubeHostMarker  = "youtube.com"
)

var (
	videoIDRe = regexp.MustCompile(`^[\w-]+$`)

	httpURLRe = sync.OnceValues(func() (*regexp.Regexp, error) {
		return xurls.StrictMatchingScheme(`https?://`)
	})
)

// ValidateInput trims both fields and checks them before anything touches
// the network.
func ValidateInput(req domain.Request) (domain.Request, error) {
	normalized := domain.Request{
		Credential: strings.TrimSpace(req.Credential),
		URL:        strings.TrimSpace(req.URL),
	}

	if normalized.Credential == "" || normalized.URL == "" {
		return domain.Request{}, fmt.Errorf("%w: %w", domain.ErrInput, domain.ErrMissingInput)
	}

	if !IsValidURL(normalized.URL) {
		return domain.Request{}, fmt.Errorf("%w: %w (URL = %s)", domain.ErrInput, domain.ErrInvalidURL, normalized.URL)
	}

	return normalized, nil
}

// IsValidURL reports whether raw is an absolute http(s) URL that the strict
// xurls matcher recognizes in full.
func IsValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	if u.Hostname() == "" {
		return false
	}

	re, err := httpURLRe()
	if err != nil {
		return false
	}

	return re.FindString(raw) == raw
}

// FindURL returns the first http(s) URL in free text.
func FindURL(text string) (string, bool) {
	re, err := httpURLRe()
	if err != nil {
		return "", false
	}

	found := strings.TrimSpace(re.FindString(text))
	if found == "" {
		return "", false
	}

	return found, true
}

// Classify is substring based on purpose: any URL containing "youtube.com"
// is treated as YouTube even when the host is something else.
func Classify(raw string) domain.SourceKind {
	switch {
	case strings.Contains(raw, youtubeWatchMarker), strings.Contains(raw, youtubeShortMarker):
		return domain.SourceYouTubeVideo
	case strings.Contains(raw, youtubeHostMarker):
		return domain.SourceYouTubeOther
	default:
		return domain.SourceGeneric
	}
}

// VideoID extracts the video id from a URL classified as a YouTube video.
func VideoID(raw string) (string, bool) {
	var id string

	if _, rest, ok := strings.Cut(raw, youtubeShortMarker); ok {
		id = cutAtAny(rest, "?#&/")
	} else if _, rest, ok := strings.Cut(raw, youtubeWatchMarker); ok {
		id = cutAtAny(rest, "&#")

		if u, err := url.Parse(raw); err == nil {
			if v := strings.TrimSpace(u.Query().Get("v")); v != "" {
				id = v
			}
		}
	}

	id = strings.TrimSpace(id)
	if !videoIDRe.MatchString(id) {
		return "", false
	}

	return id, true
}

func cutAtAny(s string, chars string) string {
	if i := strings.IndexAny(s, chars); i >= 0 {
		return s[:i]
	}

	return s
}
