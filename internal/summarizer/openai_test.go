package summarizer_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"linkgist/internal/summarizer"
)

type chatServer struct {
	calls    atomic.Int32
	status   int
	response string
	lastBody map[string]any
	lastAuth string
}

func newChatServer(t *testing.T, status int, response string) (*chatServer, *httptest.Server) {
	t.Helper()

	cs := &chatServer{status: status, response: response}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs.calls.Add(1)

		if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}

		cs.lastAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&cs.lastBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(cs.status)
		_, _ = w.Write([]byte(cs.response))
	}))
	t.Cleanup(srv.Close)

	return cs, srv
}

func completion(content, finishReason string) string {
	raw, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": finishReason,
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})

	return string(raw)
}

func TestOpenAICompleterComplete(t *testing.T) {
	cs, srv := newChatServer(t, http.StatusOK, completion("  A short summary.  ", "stop"))

	completer := summarizer.NewOpenAICompleter("secret-key", summarizer.OpenAIOptions{
		BaseURL: srv.URL,
		Model:   "test-model",
		Timeout: 5 * time.Second,
	})

	got, err := completer.Complete(context.Background(), "Summarize this")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}

	if got != "A short summary." {
		t.Fatalf("unexpected completion: %q", got)
	}

	if cs.lastAuth != "Bearer secret-key" {
		t.Fatalf("unexpected authorization header: %q", cs.lastAuth)
	}

	if cs.lastBody["model"] != "test-model" {
		t.Fatalf("unexpected model: %v", cs.lastBody["model"])
	}

	if temperature, ok := cs.lastBody["temperature"].(float64); !ok || temperature != 0 {
		t.Fatalf("expected temperature 0, got %v", cs.lastBody["temperature"])
	}

	messages, ok := cs.lastBody["messages"].([]any)
	if !ok || len(messages) != 1 {
		t.Fatalf("expected a single message, got %v", cs.lastBody["messages"])
	}
}

func TestOpenAICompleterErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		response string
		wantErr  string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"Invalid API Key"}}`, "do request"},
		{"truncated", http.StatusOK, completion("partial", "length"), "incomplete"},
		{"empty content", http.StatusOK, completion("   ", "stop"), "missing"},
		{"no choices", http.StatusOK, `{"id":"x","object":"chat.completion","choices":[]}`, "no choices"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs, srv := newChatServer(t, tt.status, tt.response)

			completer := summarizer.NewOpenAICompleter("secret-key", summarizer.OpenAIOptions{BaseURL: srv.URL})

			_, err := completer.Complete(context.Background(), "prompt")
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}

			if calls := cs.calls.Load(); calls != 1 {
				t.Fatalf("expected exactly one request without retries, got %d", calls)
			}
		})
	}
}
