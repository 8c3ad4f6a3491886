package summarizer

import (
	"strings"
)

const (
	mapPromptTemplate = `You will be given text in any language.
First, translate it into English.
Then, write a concise English summary of the following content:
{text}
`

	combinePromptTemplate = `You will be given multiple English summaries.
Combine them into a single cohesive English summary in under 300 words:
{text}
`

	partialSeparator = "\n\n"
)

func mapPrompt(chunk string) string {
	return strings.Replace(mapPromptTemplate, "{text}", chunk, 1)
}

func combinePrompt(partials []string) string {
	return strings.Replace(combinePromptTemplate, "{text}", strings.Join(partials, partialSeparator), 1)
}
