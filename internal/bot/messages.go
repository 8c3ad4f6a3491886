package bot

import (
	"errors"
	"fmt"
	"strings"

	"linkgist/internal/markdown"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sendMessage sends MarkdownV2 text, split into as many messages as the
// Telegram length limit requires.
func (b *Bot) sendMessage(chatID int64, text string) error {
	normalizedText := strings.ToValidUTF8(text, "?")
	if normalizedText != text {
		b.log.Warn("Message text had invalid UTF-8 and was normalized",
			"chatID", chatID,
			"originalLen", len(text),
			"normalizedLen", len(normalizedText))
	}

	var errs []error

	for i, part := range markdown.Split(normalizedText, markdown.MaxMessageLength) {
		message := tgbotapi.NewMessage(chatID, part)

		// See https://core.telegram.org/bots/api#markdownv2-style.
		message.ParseMode = tgbotapi.ModeMarkdownV2

		message.DisableWebPagePreview = true

		if _, err := b.sender.Send(message); err != nil {
			errs = append(errs, fmt.Errorf("send part %d: %w", i+1, err))
		}
	}

	return errors.Join(errs...)
}
