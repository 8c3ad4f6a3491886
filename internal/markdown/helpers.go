package markdown

import (
	"strings"
	"unicode/utf8"
)

// Taken from https://core.telegram.org/bots/api#markdownv2-style.
const mdV2SpecialChars = `._[](){}#|!+-=*~>` + "`" + `\`

// MaxMessageLength is the Telegram limit for a single text message.
const MaxMessageLength = 4096

//nolint:gochecknoglobals // Lookup table meant to be immutable.
var mdV2Lookup = func() [256]bool {
	var m [256]bool
	for i := range len(mdV2SpecialChars) {
		m[mdV2SpecialChars[i]] = true
	}
	return m
}()

func EscapeV2(input string) string {
	charsToEscape := 0

	for i := range len(input) {
		if mdV2Lookup[input[i]] {
			charsToEscape++
		}
	}

	if charsToEscape == 0 {
		return input
	}

	var b strings.Builder
	b.Grow(len(input) + charsToEscape)

	for i := range len(input) {
		c := input[i]
		if mdV2Lookup[c] {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}

	return b.String()
}

// Split cuts already escaped MarkdownV2 text into messages of at most limit
// runes. It prefers line breaks and never separates an escape from the
// character it escapes.
func Split(text string, limit int) []string {
	if limit <= 1 {
		limit = MaxMessageLength
	}

	var parts []string

	for utf8.RuneCountInString(text) > limit {
		cut := byteOffset(text, limit)

		if nl := strings.LastIndexByte(text[:cut], '\n'); nl > cut/2 {
			cut = nl + 1
		} else if endsWithOpenEscape(text[:cut]) {
			cut--
		}

		if part := strings.TrimRight(text[:cut], "\n"); part != "" {
			parts = append(parts, part)
		}
		text = strings.TrimLeft(text[cut:], "\n")
	}

	if text != "" {
		parts = append(parts, text)
	}

	return parts
}

func byteOffset(s string, runes int) int {
	n := 0
	for i := range s {
		if n == runes {
			return i
		}
		n++
	}

	return len(s)
}

// endsWithOpenEscape reports whether s ends with an odd run of backslashes.
func endsWithOpenEscape(s string) bool {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		n++
	}

	return n%2 == 1
}
