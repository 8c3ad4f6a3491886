package loader

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"linkgist/internal/domain"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTelegramBaseURL serves the public web preview of channels.
const DefaultTelegramBaseURL = "https://t.me"

var (
	telegramHosts  = []string{"t.me", "telegram.me"}
	telegramSlugRe = regexp.MustCompile(`^\w{5,32}$`)
)

// telegramChannelSlug recognizes t.me/<channel> and t.me/s/<channel> links.
// Links to a single post (t.me/<channel>/<id>) are left to regular HTML
// extraction.
func telegramChannelSlug(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")

	known := false
	for _, h := range telegramHosts {
		if host == h {
			known = true
			break
		}
	}
	if !known {
		return "", false
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")

	var slug string

	switch {
	case len(parts) == 2 && parts[0] == "s":
		slug = parts[1]
	case len(parts) == 1:
		slug = parts[0]
	default:
		return "", false
	}

	if !telegramSlugRe.MatchString(slug) {
		return "", false
	}

	return slug, true
}

func telegramPreviewURL(baseURL string, slug string) string {
	return strings.TrimRight(baseURL, "/") + "/s/" + slug
}

// channelDocuments turns a channel preview page into one document per post,
// keeping the most recent maxFeedItems.
func channelDocuments(body []byte) ([]domain.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create document from reader: %w", err)
	}

	title := strings.TrimSpace(doc.Find("meta[property='og:title']").AttrOr("content", ""))
	if title == "" {
		title = strings.TrimSpace(doc.Find(".tgme_channel_info_header_title").Text())
	}

	var docs []domain.Document

	doc.Find("a.tgme_widget_message_date").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return
		}

		text := postText(s.ParentsFiltered(".tgme_widget_message").First())
		if text == "" {
			return
		}

		docs = append(docs, domain.Document{
			Text:      text,
			SourceURL: canonicalPostURL(href),
			Title:     title,
		})
	})

	// Posts are listed oldest first.
	if len(docs) > maxFeedItems {
		docs = docs[len(docs)-maxFeedItems:]
	}

	return docs, nil
}

func postText(message *goquery.Selection) string {
	var b strings.Builder

	message.Find(".tgme_widget_message_text, .tgme_widget_message_caption").Each(
		func(_ int, inner *goquery.Selection) {
			inner.Find("br").Each(func(_ int, br *goquery.Selection) {
				br.ReplaceWithHtml("\n")
			})

			fragment := normalizeText(inner.Text())
			if fragment == "" {
				return
			}
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(fragment)
		},
	)

	return b.String()
}

func canonicalPostURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.RawQuery = ""
	u.Fragment = ""

	return u.String()
}
