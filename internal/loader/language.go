package loader

import (
	"github.com/pemistahl/lingua-go"
)

const languageSampleRunes = 2000

// LanguageDetector names the dominant language of a text, or returns an
// empty string when unsure.
type LanguageDetector interface {
	Detect(text string) string
}

type LinguaDetector struct {
	detector lingua.LanguageDetector
}

// NewLinguaDetector restricts detection to widely used languages, which
// keeps the loaded models small.
func NewLinguaDetector() *LinguaDetector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(
			lingua.English,
			lingua.French,
			lingua.German,
			lingua.Spanish,
			lingua.Portuguese,
			lingua.Italian,
			lingua.Dutch,
			lingua.Polish,
			lingua.Russian,
			lingua.Ukrainian,
			lingua.Turkish,
			lingua.Arabic,
			lingua.Hindi,
			lingua.Chinese,
			lingua.Japanese,
			lingua.Korean,
		).
		Build()

	return &LinguaDetector{detector: detector}
}

func (d *LinguaDetector) Detect(text string) string {
	runes := []rune(text)
	if len(runes) > languageSampleRunes {
		runes = runes[:languageSampleRunes]
	}

	language, ok := d.detector.DetectLanguageOf(string(runes))
	if !ok {
		return ""
	}

	return language.String()
}
