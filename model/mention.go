package model

// MentionSource tells which extractor produced a mention
type MentionSource string

const (
	MentionSourceDetector MentionSource = "detector"
	MentionSourceRule     MentionSource = "rule"
)

// Mention is a text span believed to reference a character.
// Start and End are rune offsets relative to the sentence, End exclusive.
type Mention struct {
	Text          string        `json:"text"`
	Start         int           `json:"start"`
	End           int           `json:"end"`
	SentenceIndex int           `json:"sentence_index"`
	Source        MentionSource `json:"source,omitempty"`
}

// Sentence is one segment of the cleaned input text.
// Start and End are rune offsets into the cleaned text.
type Sentence struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// SentenceTexts returns the plain text of each sentence in order
func SentenceTexts(sentences []Sentence) []string {
	texts := make([]string, len(sentences))
	for i, s := range sentences {
		texts[i] = s.Text
	}
	return texts
}
