package bot

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// DefaultTypingInterval refreshes the chat action before Telegram drops it
// after five seconds.
const DefaultTypingInterval = 4 * time.Second

// keepTyping shows the typing action in chatID until the returned function
// is called. Once it returns no further action is sent, so the indicator
// never outlives the reply.
func (b *Bot) keepTyping(ctx context.Context, chatID int64) func() {
	ctx, cancel := context.WithCancel(ctx)

	interval := b.typingInterval
	if interval <= 0 {
		interval = DefaultTypingInterval
	}

	b.sendTyping(ctx, chatID)

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				b.sendTyping(ctx, chatID)
			}
		}
	}()

	return func() {
		cancel()
		wg.Wait()
	}
}

func (b *Bot) sendTyping(ctx context.Context, chatID int64) {
	if ctx.Err() != nil {
		return
	}

	if _, err := b.sender.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		b.log.WarnContext(ctx, "Failed to send chat action",
			"error", err,
			"chatID", chatID)
	}
}
