package loader

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"linkgist/internal/domain"
)

const (
	// BrowserUserAgent identifies requests as a desktop Chrome so that sites
	// serving bots a different page return their regular HTML.
	BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36"

	maxBodyBytes = 10 << 20
)

var (
	errBodyTooLarge = errors.New("response body is too large")

	spacesRe = regexp.MustCompile(`[ \t\f\v\r\x{00a0}]+`)
)

// Loader turns a URL into one or more documents.
type Loader interface {
	Load(ctx context.Context, rawURL string) ([]domain.Document, error)
}

// NewHTTPClient builds the client used for content retrieval. With
// insecureSkipVerify the client accepts any certificate, which some sites
// with broken TLS setups need.
func NewHTTPClient(timeout time.Duration, insecureSkipVerify bool) *http.Client {
	transport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return &http.Client{Timeout: timeout}
	}

	transport = transport.Clone()
	if insecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // Opt-in compatibility mode.
		}
	}

	return &http.Client{Timeout: timeout, Transport: transport}
}

type response struct {
	body        []byte
	contentType string
	finalURL    string
}

func get(
	ctx context.Context,
	client *http.Client,
	rawURL string,
	headers map[string]string,
	log *slog.Logger,
) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return response{}, fmt.Errorf("create request: %w", err)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req) //nolint:gosec // URL is user supplied by design.
	if err != nil {
		return response{}, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"url", rawURL)
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return response{}, fmt.Errorf("do request: unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return response{}, fmt.Errorf("read body: %w", err)
	}

	// A truncated page would be summarized as if it were complete.
	if len(body) > maxBodyBytes {
		return response{}, fmt.Errorf("read body: %w (limit = %d bytes)", errBodyTooLarge, maxBodyBytes)
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return response{
		body:        body,
		contentType: resp.Header.Get("Content-Type"),
		finalURL:    finalURL,
	}, nil
}

// normalizeText collapses runs of spaces inside lines and drops blank lines.
func normalizeText(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]

	for _, line := range lines {
		line = strings.TrimSpace(spacesRe.ReplaceAllString(line, " "))
		if line != "" {
			kept = append(kept, line)
		}
	}

	return strings.Join(kept, "\n")
}

func tagLanguage(docs []domain.Document, detector LanguageDetector) {
	if detector == nil {
		return
	}

	for i := range docs {
		docs[i].Language = detector.Detect(docs[i].Text)
	}
}
