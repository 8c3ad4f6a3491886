package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"linkgist/internal/domain"
	"linkgist/internal/present"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const operatorKey = "gsk_operator_key"

type fakeSender struct {
	mu       sync.Mutex
	messages []tgbotapi.MessageConfig
	actions  int
	sendErr  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.messages = append(f.messages, m)
	}

	return tgbotapi.Message{}, f.sendErr
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := c.(tgbotapi.ChatActionConfig); ok {
		f.actions++
	}

	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) actionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.actions
}

func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	texts := make([]string, 0, len(f.messages))
	for _, m := range f.messages {
		texts = append(texts, m.Text)
	}

	return texts
}

type stubRunner struct {
	mu     sync.Mutex
	reqs   []domain.Request
	result domain.Result
	err    error
}

func (r *stubRunner) Run(_ context.Context, req domain.Request) (domain.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reqs = append(r.reqs, req)

	return r.result, r.err
}

func newTestBot(runner *stubRunner) (*Bot, *fakeSender) {
	sender := &fakeSender{}

	return &Bot{
		sender:     sender,
		runner:     runner,
		credential: operatorKey,
		log:        slog.Default(),
	}, sender
}

func textMessage(text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: 7},
		Chat:      &tgbotapi.Chat{ID: 7, Type: "private"},
		Text:      text,
	}
}

func TestHandleMessageStart(t *testing.T) {
	runner := &stubRunner{}
	b, sender := newTestBot(runner)

	if err := b.handleMessage(context.Background(), textMessage("/start")); err != nil {
		t.Fatalf("handleMessage returned error: %v", err)
	}

	texts := sender.texts()
	if len(texts) != 1 || texts[0] != welcomeText {
		t.Fatalf("expected welcome text, got %q", texts)
	}

	if len(runner.reqs) != 0 {
		t.Fatalf("expected no summarization for /start")
	}
}

func TestHandleMessageWithoutLink(t *testing.T) {
	runner := &stubRunner{}
	b, sender := newTestBot(runner)

	if err := b.handleMessage(context.Background(), textMessage("hello there")); err != nil {
		t.Fatalf("handleMessage returned error: %v", err)
	}

	if texts := sender.texts(); len(texts) != 1 || texts[0] != noLinkText {
		t.Fatalf("expected no-link reply, got %q", texts)
	}

	if len(runner.reqs) != 0 {
		t.Fatalf("expected runner not to be called")
	}
}

func TestHandleMessageSummarizesLink(t *testing.T) {
	runner := &stubRunner{result: domain.Result{
		Summary:  "Trains are back. Tickets cost 50-100 EUR!",
		Kind:     domain.SourceGeneric,
		Language: "French",
	}}
	b, sender := newTestBot(runner)

	msg := textMessage("look at this https://example.fr/article please")
	if err := b.handleMessage(context.Background(), msg); err != nil {
		t.Fatalf("handleMessage returned error: %v", err)
	}

	if len(runner.reqs) != 1 {
		t.Fatalf("expected one run, got %d", len(runner.reqs))
	}

	req := runner.reqs[0]
	if req.URL != "https://example.fr/article" || req.Credential != operatorKey {
		t.Fatalf("unexpected request: URL=%q", req.URL)
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()

	if len(sender.messages) != 1 {
		t.Fatalf("expected one reply, got %d", len(sender.messages))
	}

	reply := sender.messages[0]
	if reply.ParseMode != tgbotapi.ModeMarkdownV2 || reply.ChatID != 7 {
		t.Fatalf("unexpected reply config: %+v", reply)
	}

	if !strings.Contains(reply.Text, `Trains are back\. Tickets cost 50\-100 EUR\!`) {
		t.Fatalf("expected escaped summary, got %q", reply.Text)
	}

	if !strings.Contains(reply.Text, "source language: French") {
		t.Fatalf("expected language note, got %q", reply.Text)
	}
}

func TestHandleMessageRedactsCredentialInFailures(t *testing.T) {
	runner := &stubRunner{
		result: domain.Result{Kind: domain.SourceGeneric},
		err:    fmt.Errorf("%w: key %s is invalid", domain.ErrSummarization, operatorKey),
	}
	b, sender := newTestBot(runner)

	if err := b.handleMessage(context.Background(), textMessage("https://example.com")); err != nil {
		t.Fatalf("handleMessage returned error: %v", err)
	}

	texts := sender.texts()
	if len(texts) != 1 {
		t.Fatalf("expected one reply, got %d", len(texts))
	}

	if strings.Contains(texts[0], operatorKey) {
		t.Fatalf("credential leaked into reply: %q", texts[0])
	}

	if !strings.HasPrefix(texts[0], "❌ Failed to generate the summary") {
		t.Fatalf("unexpected reply: %q", texts[0])
	}
}

func TestHandleMessageSplitsLongSummaries(t *testing.T) {
	runner := &stubRunner{result: domain.Result{Summary: strings.Repeat("word ", 2000)}}
	b, sender := newTestBot(runner)

	if err := b.handleMessage(context.Background(), textMessage("https://example.com")); err != nil {
		t.Fatalf("handleMessage returned error: %v", err)
	}

	if texts := sender.texts(); len(texts) < 3 {
		t.Fatalf("expected summary to be split into several messages, got %d", len(texts))
	}
}

func TestHandleMessageReportsSendFailures(t *testing.T) {
	b, sender := newTestBot(&stubRunner{})
	sender.sendErr = errors.New("chat not found")

	if err := b.handleMessage(context.Background(), textMessage("no link")); err == nil {
		t.Fatalf("expected send error")
	}
}

func TestKeepTypingRefreshesUntilStopped(t *testing.T) {
	b, sender := newTestBot(&stubRunner{})
	b.typingInterval = 10 * time.Millisecond

	stop := b.keepTyping(context.Background(), 7)
	time.Sleep(55 * time.Millisecond)
	stop()

	sent := sender.actionCount()
	if sent < 2 {
		t.Fatalf("expected typing to be refreshed, got %d actions", sent)
	}

	time.Sleep(30 * time.Millisecond)

	if after := sender.actionCount(); after != sent {
		t.Fatalf("expected no actions after stop, got %d more", after-sent)
	}
}

func TestHandleMessageShowsTypingWhileSummarizing(t *testing.T) {
	b, sender := newTestBot(&stubRunner{result: domain.Result{Summary: "Done."}})

	if err := b.handleMessage(context.Background(), textMessage("https://example.com")); err != nil {
		t.Fatalf("handleMessage returned error: %v", err)
	}

	if sender.actionCount() != 1 {
		t.Fatalf("expected one typing action, got %d", sender.actionCount())
	}
}

func TestFormatView(t *testing.T) {
	got := formatView(present.View{
		OK:        true,
		Message:   present.SuccessMessage,
		Summary:   "Done.",
		Documents: 3,
		Cached:    true,
	})

	want := "✅ *English summary generated successfully\\!*\n\nDone\\.\n\n_3 items · cached_"
	if got != want {
		t.Fatalf("formatView mismatch:\n got %q\nwant %q", got, want)
	}
}

func TestUserAllowed(t *testing.T) {
	b := &Bot{}
	if !b.userAllowed(1) {
		t.Fatalf("expected everyone to be allowed without a list")
	}

	b.allowedUsers = []int64{1, 2}
	if !b.userAllowed(2) || b.userAllowed(3) {
		t.Fatalf("unexpected allow-list behavior")
	}
}

func TestUpdateBackoffSeconds(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{3, 6},
		{40, 60},
		{60, 60},
	}

	for _, tt := range tests {
		if got := updateBackoffSeconds(tt.in); got != tt.want {
			t.Fatalf("updateBackoffSeconds(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
