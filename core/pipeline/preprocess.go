package pipeline

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/dancancer/chargraph/model"
)

const (
	terminators = "。！？；"
	openQuotes  = "“「『"
	closeQuotes = "”」』"
)

var (
	blankRun   = regexp.MustCompile(`[ \t]+`)
	newlineRun = regexp.MustCompile(`\n{3,}`)
)

// Preprocess cleans the text and splits it into sentences.
// Sentence offsets refer to the returned cleaned text.
func Preprocess(text string) (string, []model.Sentence) {
	cleaned := CleanText(text)
	return cleaned, SplitSentences(cleaned)
}

// CleanText unifies line endings, collapses blanks and trims the text
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = blankRun.ReplaceAllString(text, " ")
	text = newlineRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// SplitSentences splits after every sentence terminator outside of quotes.
// Start and End are rune offsets into text, surrounding whitespace excluded.
func SplitSentences(text string) []model.Sentence {
	runes := []rune(text)
	sentences := []model.Sentence{}

	start := 0
	depth := 0
	inASCII := false
	for i, r := range runes {
		switch {
		case r == '\n':
			depth = 0
			inASCII = false
		case r == '"':
			inASCII = !inASCII
		case strings.ContainsRune(openQuotes, r):
			depth++
		case strings.ContainsRune(closeQuotes, r):
			if depth > 0 {
				depth--
			}
		}

		if depth == 0 && !inASCII && strings.ContainsRune(terminators, r) {
			sentences = appendSentence(sentences, runes, start, i+1)
			start = i + 1
		}
	}
	if start < len(runes) {
		sentences = appendSentence(sentences, runes, start, len(runes))
	}

	return sentences
}

func appendSentence(sentences []model.Sentence, runes []rune, start, end int) []model.Sentence {
	for start < end && unicode.IsSpace(runes[start]) {
		start++
	}
	for end > start && unicode.IsSpace(runes[end-1]) {
		end--
	}
	if start == end {
		return sentences
	}

	return append(sentences, model.Sentence{
		Index: len(sentences),
		Text:  string(runes[start:end]),
		Start: start,
		End:   end,
	})
}
