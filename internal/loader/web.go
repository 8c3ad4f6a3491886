package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"linkgist/internal/domain"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html/charset"
)

const maxFeedItems = 20

var boilerplateSelectors = strings.Join([]string{
	"script", "style", "noscript", "iframe", "svg", "template",
	"header", "footer", "nav", "aside", "form",
	"[role=navigation]", "[role=banner]", "[role=contentinfo]",
}, ", ")

// WebLoader fetches arbitrary pages and extracts their readable text.
type WebLoader struct {
	client   *http.Client
	detector LanguageDetector
	// telegramBaseURL hosts the channel previews that t.me links are
	// rewritten to.
	telegramBaseURL string
	log             *slog.Logger
}

func NewWebLoader(client *http.Client, detector LanguageDetector, log *slog.Logger) *WebLoader {
	return &WebLoader{
		client:          client,
		detector:        detector,
		telegramBaseURL: DefaultTelegramBaseURL,
		log:             log,
	}
}

func (l *WebLoader) Load(ctx context.Context, rawURL string) ([]domain.Document, error) {
	fetchURL := rawURL

	slug, isChannel := telegramChannelSlug(rawURL)
	if isChannel {
		fetchURL = telegramPreviewURL(l.telegramBaseURL, slug)
	}

	resp, err := get(ctx, l.client, fetchURL, map[string]string{
		"User-Agent":      BrowserUserAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
	}, l.log)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch page: %w", domain.ErrLoad, err)
	}

	body, err := toUTF8(resp.body, resp.contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: decode body: %w", domain.ErrLoad, err)
	}

	var docs []domain.Document

	if isChannel {
		docs, err = channelDocuments(body)
		if err != nil {
			l.log.WarnContext(ctx, "Failed to parse channel preview, falling back to HTML extraction",
				"error", err,
				"url", rawURL)
		}
	}

	if len(docs) == 0 {
		docs, err = l.extract(ctx, rawURL, resp.finalURL, resp.contentType, body)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrLoad, err)
		}
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no text content extracted (URL = %s)", domain.ErrLoad, rawURL)
	}

	tagLanguage(docs, l.detector)

	return docs, nil
}

func (l *WebLoader) extract(
	ctx context.Context,
	rawURL string,
	finalURL string,
	contentType string,
	body []byte,
) ([]domain.Document, error) {
	if gofeed.DetectFeedType(bytes.NewReader(body)) != gofeed.FeedTypeUnknown {
		docs, err := feedDocuments(rawURL, body)
		if err == nil {
			l.log.DebugContext(ctx, "Feed is parsed",
				"url", rawURL,
				"documents", len(docs))

			return docs, nil
		}

		l.log.WarnContext(ctx, "Failed to parse feed, falling back to HTML extraction",
			"error", err,
			"url", rawURL)
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "text/plain" {
		text := normalizeText(string(body))
		if text == "" {
			return nil, nil
		}

		return []domain.Document{{Text: text, SourceURL: rawURL}}, nil
	}

	pageURL, err := url.Parse(finalURL)
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}

	doc, err := l.htmlDocument(ctx, pageURL, body)
	if err != nil {
		return nil, err
	}

	if doc.Text == "" {
		return nil, nil
	}

	doc.SourceURL = rawURL

	return []domain.Document{doc}, nil
}

func (l *WebLoader) htmlDocument(
	ctx context.Context,
	pageURL *url.URL,
	body []byte,
) (domain.Document, error) {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err == nil {
		if text := articleText(article); text != "" {
			return domain.Document{
				Text:  text,
				Title: strings.TrimSpace(article.Title),
			}, nil
		}

		l.log.DebugContext(ctx, "Readability returned no text, falling back to goquery",
			"url", pageURL.String())
	} else {
		l.log.DebugContext(ctx, "Readability failed, falling back to goquery",
			"error", err,
			"url", pageURL.String())
	}

	title, text, err := visibleText(bytes.NewReader(body))
	if err != nil {
		return domain.Document{}, fmt.Errorf("extract visible text: %w", err)
	}

	return domain.Document{Text: text, Title: title}, nil
}

func articleText(article readability.Article) string {
	if md, err := htmltomarkdown.ConvertString(article.Content); err == nil {
		if text := strings.TrimSpace(md); text != "" {
			return text
		}
	}

	return normalizeText(article.TextContent)
}

func visibleText(r io.Reader) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", "", fmt.Errorf("create document from reader: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("meta[property='og:title']").AttrOr("content", ""))
	}

	doc.Find(boilerplateSelectors).Remove()

	content := doc.Find("article, main").First()
	if content.Length() == 0 {
		content = doc.Find("body")
	}

	content.Find("br").Each(func(_ int, br *goquery.Selection) {
		br.ReplaceWithHtml("\n")
	})
	content.Find("p, div, li, h1, h2, h3, h4, h5, h6, tr, pre, blockquote").Each(
		func(_ int, s *goquery.Selection) {
			s.AppendHtml("\n")
		},
	)

	return title, normalizeText(content.Text()), nil
}

func feedDocuments(feedURL string, body []byte) ([]domain.Document, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	var docs []domain.Document
	for _, item := range feed.Items {
		if len(docs) == maxFeedItems {
			break
		}

		if item == nil {
			continue
		}

		doc, ok := feedItemDocument(feedURL, item)
		if !ok {
			continue
		}

		docs = append(docs, doc)
	}

	if len(docs) == 0 {
		return nil, errors.New("feed has no items with text")
	}

	return docs, nil
}

func feedItemDocument(feedURL string, item *gofeed.Item) (domain.Document, bool) {
	raw := item.Content
	if strings.TrimSpace(raw) == "" {
		raw = item.Description
	}

	body := ""
	if strings.TrimSpace(raw) != "" {
		if _, text, err := visibleText(strings.NewReader(raw)); err == nil {
			body = text
		}
	}

	title := strings.TrimSpace(item.Title)

	var b strings.Builder
	if title != "" {
		b.WriteString(title)
	}
	if body != "" {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(body)
	}

	if b.Len() == 0 {
		return domain.Document{}, false
	}

	sourceURL := strings.TrimSpace(item.Link)
	if sourceURL == "" {
		sourceURL = feedURL
	}

	return domain.Document{
		Text:      b.String(),
		SourceURL: sourceURL,
		Title:     title,
	}, true
}

// toUTF8 converts only when the server declares a charset or the body is not
// valid UTF-8; charset sniffing looks at the first kilobyte only.
func toUTF8(body []byte, contentType string) ([]byte, error) {
	_, params, err := mime.ParseMediaType(contentType)
	declared := err == nil && params["charset"] != ""
	if !declared && utf8.Valid(body) {
		return body, nil
	}

	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, err
	}

	return io.ReadAll(r)
}
