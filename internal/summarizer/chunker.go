package summarizer

import (
	"strings"
	"unicode/utf8"
)

// An empty separator means splitting between runes.
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// splitter cuts text into chunks of at most size runes, preferring the
// coarsest separator that occurs in the text. Consecutive chunks share up to
// overlap runes of context.
type splitter struct {
	size       int
	overlap    int
	separators []string
}

func newSplitter(size, overlap int) splitter {
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	return splitter{
		size:       size,
		overlap:    overlap,
		separators: defaultSeparators,
	}
}

func (s splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if runeLen(text) <= s.size {
		return []string{text}
	}

	return s.split(text, s.separators)
}

func (s splitter) split(text string, separators []string) []string {
	sep := ""
	var rest []string
	for i, candidate := range separators {
		if candidate == "" || strings.Contains(text, candidate) {
			sep = candidate
			rest = separators[i+1:]
			break
		}
	}

	if sep == "" {
		return s.hardSplit(text)
	}

	var (
		chunks []string
		fitted []string
	)

	for _, piece := range strings.SplitAfter(text, sep) {
		if piece == "" {
			continue
		}

		if runeLen(piece) <= s.size {
			fitted = append(fitted, piece)
			continue
		}

		if len(fitted) > 0 {
			chunks = append(chunks, s.merge(fitted)...)
			fitted = nil
		}

		chunks = append(chunks, s.split(piece, rest)...)
	}

	if len(fitted) > 0 {
		chunks = append(chunks, s.merge(fitted)...)
	}

	return chunks
}

// merge packs pieces that each fit into as few chunks as possible, carrying
// trailing pieces of the previous chunk over as overlap.
func (s splitter) merge(pieces []string) []string {
	var (
		chunks  []string
		current []string
		total   int
	)

	emit := func() {
		if chunk := strings.TrimSpace(strings.Join(current, "")); chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	for _, piece := range pieces {
		n := runeLen(piece)

		if total+n > s.size && len(current) > 0 {
			emit()

			for len(current) > 0 && (total > s.overlap || total+n > s.size) {
				total -= runeLen(current[0])
				current = current[1:]
			}
		}

		current = append(current, piece)
		total += n
	}

	if len(current) > 0 {
		emit()
	}

	return chunks
}

func (s splitter) hardSplit(text string) []string {
	runes := []rune(text)
	step := s.size - s.overlap

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := min(start+s.size, len(runes))

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end == len(runes) {
			break
		}
	}

	return chunks
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
