package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"linkgist/internal/domain"
	"linkgist/internal/source"
)

// DefaultWatchURL is the page that embeds the player response with caption
// track locations.
const DefaultWatchURL = "https://www.youtube.com/watch"

const playerResponseMarker = "ytInitialPlayerResponse = "

var preferredCaptionLanguages = []string{"en"}

type playerResponse struct {
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	VideoDetails *struct {
		Title string `json:"title"`
	} `json:"videoDetails"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	// Kind is "asr" for auto-generated tracks.
	Kind string `json:"kind"`
}

// timedText covers both the legacy <transcript><text> layout and the
// srv3 <timedtext><body><p><s> layout.
type timedText struct {
	Lines []struct {
		Text string `xml:",chardata"`
	} `xml:"text"`
	Body struct {
		Paragraphs []struct {
			Text     string `xml:",chardata"`
			Segments []struct {
				Text string `xml:",chardata"`
			} `xml:"s"`
		} `xml:"p"`
	} `xml:"body"`
}

// VideoLoader retrieves the caption transcript of a YouTube video.
type VideoLoader struct {
	client   *http.Client
	watchURL string
	detector LanguageDetector
	log      *slog.Logger
}

func NewVideoLoader(
	client *http.Client,
	watchURL string,
	detector LanguageDetector,
	log *slog.Logger,
) *VideoLoader {
	if watchURL == "" {
		watchURL = DefaultWatchURL
	}

	return &VideoLoader{
		client:   client,
		watchURL: watchURL,
		detector: detector,
		log:      log,
	}
}

func (l *VideoLoader) Load(ctx context.Context, rawURL string) ([]domain.Document, error) {
	videoID, ok := source.VideoID(rawURL)
	if !ok {
		return nil, fmt.Errorf("%w: extract video ID (URL = %s)", domain.ErrLoad, rawURL)
	}

	player, err := l.fetchPlayerResponse(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch player response: %w", domain.ErrLoad, err)
	}

	if player.Captions == nil {
		reason := "video has no captions"
		if player.PlayabilityStatus != nil && player.PlayabilityStatus.Reason != "" {
			reason = player.PlayabilityStatus.Reason
		}

		return nil, fmt.Errorf("%w: %s (videoID = %s)", domain.ErrNoTranscript, reason, videoID)
	}

	tracks := player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	track, ok := pickTrack(tracks, preferredCaptionLanguages)
	if !ok {
		return nil, fmt.Errorf("%w: caption tracks are restricted (videoID = %s, tracks = %d)",
			domain.ErrNoTranscript, videoID, len(tracks))
	}

	text, err := l.fetchTimedText(ctx, track.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch timed text: %w", domain.ErrLoad, err)
	}

	if text == "" {
		return nil, fmt.Errorf("%w: transcript is empty (videoID = %s)", domain.ErrNoTranscript, videoID)
	}

	title := ""
	if player.VideoDetails != nil {
		title = strings.TrimSpace(player.VideoDetails.Title)
	}

	l.log.DebugContext(ctx, "Transcript is loaded",
		"videoID", videoID,
		"captionLanguage", track.LanguageCode,
		"captionKind", track.Kind,
		"textLen", len(text))

	docs := []domain.Document{{
		Text:      text,
		SourceURL: rawURL,
		Title:     title,
	}}
	tagLanguage(docs, l.detector)

	return docs, nil
}

func (l *VideoLoader) fetchPlayerResponse(ctx context.Context, videoID string) (playerResponse, error) {
	watchURL, err := url.Parse(l.watchURL)
	if err != nil {
		return playerResponse{}, fmt.Errorf("parse watch URL: %w", err)
	}

	query := watchURL.Query()
	query.Set("v", videoID)
	query.Set("hl", "en")
	watchURL.RawQuery = query.Encode()

	resp, err := get(ctx, l.client, watchURL.String(), map[string]string{
		"User-Agent":      BrowserUserAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
		// Skips the EU consent interstitial.
		"Cookie": "CONSENT=YES+1; SOCS=CAI",
	}, l.log)
	if err != nil {
		return playerResponse{}, err
	}

	idx := bytes.Index(resp.body, []byte(playerResponseMarker))
	if idx < 0 {
		return playerResponse{}, errors.New("player response not found in watch page")
	}

	raw := extractJSONObject(resp.body[idx+len(playerResponseMarker):])
	if raw == nil {
		return playerResponse{}, errors.New("player response is truncated")
	}

	var player playerResponse
	if err = json.Unmarshal(raw, &player); err != nil {
		return playerResponse{}, fmt.Errorf("decode player response: %w", err)
	}

	return player, nil
}

func (l *VideoLoader) fetchTimedText(ctx context.Context, baseURL string) (string, error) {
	resp, err := get(ctx, l.client, baseURL, map[string]string{
		"User-Agent": BrowserUserAgent,
	}, l.log)
	if err != nil {
		return "", err
	}

	var tt timedText
	if err = xml.Unmarshal(resp.body, &tt); err != nil {
		return "", fmt.Errorf("parse timed text: %w", err)
	}

	var sb strings.Builder
	appendLine := func(line string) {
		// Captions arrive double escaped, e.g. "&amp;#39;".
		line = strings.Join(strings.Fields(html.UnescapeString(line)), " ")
		if line == "" {
			return
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(line)
	}

	for _, line := range tt.Lines {
		appendLine(line.Text)
	}

	for _, p := range tt.Body.Paragraphs {
		if len(p.Segments) == 0 {
			appendLine(p.Text)
			continue
		}

		var words []string
		for _, s := range p.Segments {
			words = append(words, s.Text)
		}
		appendLine(strings.Join(words, ""))
	}

	return sb.String(), nil
}

// needsPoToken reports whether a caption track can only be fetched by a
// real browser session.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// pickTrack prefers manual tracks in the preferred languages, then
// auto-generated ones, then any manual track, then anything usable.
func pickTrack(tracks []captionTrack, langs []string) (captionTrack, bool) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if t.BaseURL != "" && !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}

	if len(usable) == 0 {
		return captionTrack{}, false
	}

	matchesLang := func(t captionTrack) bool {
		for _, lang := range langs {
			if t.LanguageCode == lang || strings.HasPrefix(t.LanguageCode, lang+"-") {
				return true
			}
		}
		return false
	}

	for _, t := range usable {
		if matchesLang(t) && t.Kind != "asr" {
			return t, true
		}
	}

	for _, t := range usable {
		if matchesLang(t) {
			return t, true
		}
	}

	for _, t := range usable {
		if t.Kind != "asr" {
			return t, true
		}
	}

	return usable[0], true
}

// extractJSONObject returns the balanced JSON object at the start of b.
func extractJSONObject(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}

	depth := 0
	inString := false
	escaped := false

	for i, c := range b {
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}

	return nil
}
