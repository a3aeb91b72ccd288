package dialogue

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dancancer/chargraph/core/matcher"
	"github.com/dancancer/chargraph/helper"
	"github.com/dancancer/chargraph/model"
)

const (
	openQuote  = `["“「『]`
	closeQuote = `["”」』]`
	quoteBody  = `([^"“”「」『』]+)`
)

// speakerPattern is one quote layout with the capture groups holding quote and speaker
type speakerPattern struct {
	re      *regexp.Regexp
	quote   int
	speaker int
}

// Attributor assigns quoted lines to speakers using three fixed layouts:
//
//	"...", NAME said      quote then speaker then trigger verb
//	NAME said: "..."      speaker then trigger verb then colon and quote
//	"..." —— NAME         quote then em dash and speaker
type Attributor struct {
	patterns []speakerPattern
}

// NewAttributor compiles the layouts for the configured trigger verbs
func NewAttributor(cfg model.Config) (*Attributor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, helper.NewError("dialogue config", err)
	}

	triggers := make([]string, 0, len(cfg.Lexicon.DialogueTriggers))
	for _, t := range cfg.Lexicon.DialogueTriggers {
		triggers = append(triggers, regexp.QuoteMeta(t))
	}
	sort.SliceStable(triggers, func(i, j int) bool {
		return len([]rune(triggers[i])) > len([]rune(triggers[j]))
	})
	trigger := "(" + strings.Join(triggers, "|") + ")"

	return &Attributor{
		patterns: []speakerPattern{
			{
				re:      regexp.MustCompile(fmt.Sprintf(`%s%s%s[，,]?\s*(.{0,15}?)%s`, openQuote, quoteBody, closeQuote, trigger)),
				quote:   1,
				speaker: 2,
			},
			{
				re:      regexp.MustCompile(fmt.Sprintf(`(.{1,15}?)%s[：:]%s%s%s`, trigger, openQuote, quoteBody, closeQuote)),
				quote:   3,
				speaker: 1,
			},
			{
				re:      regexp.MustCompile(fmt.Sprintf(`%s%s%s[，,]?\s*——\s*(.{1,15}?)(?:[，,。！？\s]|$)`, openQuote, quoteBody, closeQuote)),
				quote:   1,
				speaker: 2,
			},
		},
	}, nil
}

// Attribute tries the layouts in order on every sentence. The first layout
// whose speaker span contains a known alias wins. QuoteCount of the matching
// characters is set from the attributions.
func (a *Attributor) Attribute(sentences []model.Sentence, characters []*model.Character, names *matcher.Matcher) []model.DialogueAttribution {
	var attributions []model.DialogueAttribution
	counts := make(map[string]int)

	for _, s := range sentences {
		attribution, ok := a.attributeSentence(s, names)
		if !ok {
			continue
		}
		attributions = append(attributions, attribution)
		counts[attribution.Speaker]++
	}

	for _, c := range characters {
		c.QuoteCount = counts[c.CanonicalName]
	}

	return attributions
}

func (a *Attributor) attributeSentence(s model.Sentence, names *matcher.Matcher) (model.DialogueAttribution, bool) {
	for i, p := range a.patterns {
		match := p.re.FindStringSubmatch(s.Text)
		if match == nil {
			continue
		}
		speaker, ok := resolveSpeaker(strings.TrimSpace(match[p.speaker]), names)
		if !ok {
			continue
		}
		return model.DialogueAttribution{
			SentenceIndex: s.Index,
			Quote:         match[p.quote],
			Speaker:       speaker,
			Pattern:       i + 1,
		}, true
	}
	return model.DialogueAttribution{}, false
}

// resolveSpeaker returns the canonical name of the longest alias inside span
func resolveSpeaker(span string, names *matcher.Matcher) (string, bool) {
	best := matcher.Hit{}
	for _, hit := range names.FindAll(span) {
		if hit.End-hit.Start > best.End-best.Start {
			best = hit
		}
	}
	return best.Canonical, best.Canonical != ""
}
