package bot

import (
	"context"
	"fmt"
	"strings"

	"linkgist/internal/domain"
	"linkgist/internal/markdown"
	"linkgist/internal/present"
	"linkgist/internal/source"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const noLinkText = "✖️ Send me a YouTube video or website link\\."

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	if message.Chat == nil {
		return nil
	}

	text := strings.TrimSpace(message.Text)
	if text == "" {
		text = strings.TrimSpace(message.Caption)
	}

	switch {
	case strings.HasPrefix(text, "/start"), strings.HasPrefix(text, "/help"):
		return b.handleStartCommand(message.Chat.ID)
	default:
		return b.handleLink(ctx, text, message.Chat.ID)
	}
}

func (b *Bot) handleLink(ctx context.Context, text string, chatID int64) error {
	rawURL, ok := source.FindURL(text)
	if !ok {
		return b.sendMessage(chatID, noLinkText)
	}

	stopTyping := b.keepTyping(ctx, chatID)
	result, runErr := b.runner.Run(ctx, domain.Request{
		Credential: b.credential,
		URL:        rawURL,
	})
	stopTyping()

	view := present.Present(result, runErr, b.credential)

	if err := b.sendMessage(chatID, formatView(view)); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	return nil
}

func formatView(view present.View) string {
	if !view.OK {
		return "❌ " + markdown.EscapeV2(view.Message)
	}

	var sb strings.Builder
	sb.WriteString("✅ *")
	sb.WriteString(markdown.EscapeV2(view.Message))
	sb.WriteString("*\n\n")
	sb.WriteString(markdown.EscapeV2(view.Summary))

	var meta []string
	if view.Language != "" {
		meta = append(meta, "source language: "+view.Language)
	}
	if view.Documents > 1 {
		meta = append(meta, fmt.Sprintf("%d items", view.Documents))
	}
	if view.Cached {
		meta = append(meta, "cached")
	}

	if len(meta) > 0 {
		sb.WriteString("\n\n_")
		sb.WriteString(markdown.EscapeV2(strings.Join(meta, " · ")))
		sb.WriteString("_")
	}

	return sb.String()
}
