package markdown_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"linkgist/internal/markdown"
)

func TestEscapeV2(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"Hello. World!", `Hello\. World\!`},
		{"a_b*c[d](e)", `a\_b\*c\[d\]\(e\)`},
		{`back\slash`, `back\\slash`},
		{"café — naïve 日本", "café — naïve 日本"},
		{"1+1=2 > 1-1", `1\+1\=2 \> 1\-1`},
	}

	for _, tt := range tests {
		if got := markdown.EscapeV2(tt.in); got != tt.want {
			t.Fatalf("EscapeV2(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitKeepsShortText(t *testing.T) {
	parts := markdown.Split("short", 10)
	if len(parts) != 1 || parts[0] != "short" {
		t.Fatalf("unexpected parts: %q", parts)
	}

	if parts := markdown.Split("", 10); len(parts) != 0 {
		t.Fatalf("expected no parts, got %q", parts)
	}
}

func TestSplitPrefersLineBreaks(t *testing.T) {
	text := "first line here\nsecond line here\nthird"

	parts := markdown.Split(text, 20)
	want := []string{"first line here", "second line here", "third"}

	if strings.Join(parts, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected parts: %q", parts)
	}
}

func TestSplitRespectsLimitInRunes(t *testing.T) {
	text := strings.Repeat("日本語", 100)

	parts := markdown.Split(text, 64)
	if strings.Join(parts, "") != text {
		t.Fatalf("split lost content")
	}

	for i, part := range parts {
		if n := utf8.RuneCountInString(part); n > 64 {
			t.Fatalf("part %d has %d runes", i, n)
		}
	}
}

func TestSplitDoesNotBreakEscapes(t *testing.T) {
	text := markdown.EscapeV2(strings.Repeat("a.", 20))

	for _, part := range markdown.Split(text, 7) {
		if strings.HasSuffix(part, `\`) {
			t.Fatalf("part ends with a dangling escape: %q", part)
		}
	}
}
