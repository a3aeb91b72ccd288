package mention

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dancancer/chargraph/helper"
	"github.com/dancancer/chargraph/model"
)

const hanzi = `[一-龥]`

// Extractor finds rule based character mentions: affixed names, diminutives
// and descriptive epithets.
type Extractor struct {
	prefix     *regexp.Regexp
	honorific  *regexp.Regexp
	diminutive *regexp.Regexp
	bodyPart   *regexp.Regexp
	clothing   *regexp.Regexp
	gendered   *regexp.Regexp
	occupation *regexp.Regexp

	bodyPartStopwords []string
	genderedStopwords []string
}

// NewExtractor compiles the patterns for the configured lexicons
func NewExtractor(cfg model.Config) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, helper.NewError("mention extractor config", err)
	}
	lex := cfg.Lexicon

	e := &Extractor{
		prefix:            regexp.MustCompile(fmt.Sprintf(`(%s)(%s{1,3})`, alternation(lex.Prefixes, false), hanzi)),
		honorific:         regexp.MustCompile(fmt.Sprintf(`(%s{1,3})(%s)`, hanzi, alternation(lex.Honorifics, false))),
		diminutive:        regexp.MustCompile(fmt.Sprintf(`(%s{1,2})(%s)`, hanzi, alternation(lex.DiminutiveSuffixes, false))),
		bodyPart:          regexp.MustCompile(fmt.Sprintf(`(%s{2,4})(头|面|脸)`, hanzi)),
		gendered:          regexp.MustCompile(fmt.Sprintf(`(%s{2,4})(男[人子]?|女[人子]?|[男女]的?)`, hanzi)),
		bodyPartStopwords: lex.BodyPartStopwords,
		genderedStopwords: lex.GenderedStopwords,
	}
	if len(lex.ClothingColors) > 0 {
		e.clothing = regexp.MustCompile(fmt.Sprintf(`(%s)(色)?(大褂|衣[人男女子]|裙[女子]|袍[人男]|服[男女])`, alternation(lex.ClothingColors, false)))
	}
	if len(lex.OccupationNouns) > 0 {
		e.occupation = regexp.MustCompile(alternation(lex.OccupationNouns, true))
	}

	return e, nil
}

// alternation joins quoted words with "|", longest first if requested
func alternation(words []string, longestFirst bool) string {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		if w != "" {
			quoted = append(quoted, regexp.QuoteMeta(w))
		}
	}
	if longestFirst {
		sort.SliceStable(quoted, func(i, j int) bool {
			return len([]rune(quoted[i])) > len([]rune(quoted[j]))
		})
	}
	return strings.Join(quoted, "|")
}

// Extract scans every sentence and returns mentions in sentence order.
// Within a sentence, prefix forms come first, then honorific, diminutive and
// descriptive forms.
func (e *Extractor) Extract(sentences []model.Sentence) []model.Mention {
	var mentions []model.Mention
	for _, s := range sentences {
		mentions = append(mentions, e.ExtractSentence(s.Text, s.Index)...)
	}
	return mentions
}

// ExtractSentence scans a single sentence
func (e *Extractor) ExtractSentence(text string, sentenceIndex int) []model.Mention {
	if text == "" {
		return nil
	}
	offsets := newRuneOffsets(text)

	var mentions []model.Mention
	add := func(start, end int) {
		mentions = append(mentions, model.Mention{
			Text:          text[start:end],
			Start:         offsets.at(start),
			End:           offsets.at(end),
			SentenceIndex: sentenceIndex,
			Source:        model.MentionSourceRule,
		})
	}

	for _, re := range []*regexp.Regexp{e.prefix, e.honorific, e.diminutive} {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			add(loc[0], loc[1])
		}
	}

	for _, loc := range e.bodyPart.FindAllStringIndex(text, -1) {
		if !endsWithAny(text[loc[0]:loc[1]], e.bodyPartStopwords) {
			add(loc[0], loc[1])
		}
	}

	if e.clothing != nil {
		for _, loc := range e.clothing.FindAllStringIndex(text, -1) {
			add(loc[0], loc[1])
		}
	}

	for _, loc := range e.gendered.FindAllStringSubmatchIndex(text, -1) {
		if !startsWithAny(text[loc[2]:loc[3]], e.genderedStopwords) {
			add(loc[0], loc[1])
		}
	}

	if e.occupation != nil {
		for _, loc := range e.occupation.FindAllStringIndex(text, -1) {
			add(loc[0], loc[1])
		}
	}

	return mentions
}

func endsWithAny(s string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if suffix != "" && strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

func startsWithAny(s string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if prefix != "" && strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

// runeOffsets converts byte offsets of a string into rune offsets
type runeOffsets []int

func newRuneOffsets(text string) runeOffsets {
	offsets := make(runeOffsets, len(text)+1)
	n := 0
	for i := range text {
		offsets[i] = n
		n++
	}
	offsets[len(text)] = n
	return offsets
}

func (r runeOffsets) at(byteOffset int) int {
	return r[byteOffset]
}
