package filter

import (
	"regexp"
	"sort"
	"strings"

	"github.com/dancancer/chargraph/helper"
	"github.com/dancancer/chargraph/model"
)

// Filter removes known false positives from a character list and ranks the rest
type Filter struct {
	myth           map[string]bool
	examples       map[string]bool
	closedWords    map[string]bool
	bodyPart       *regexp.Regexp
	demonstratives []string
}

// NewFilter builds the denylists of the configured lexicon
func NewFilter(cfg model.Config) (*Filter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, helper.NewError("filter config", err)
	}
	lex := cfg.Lexicon

	closed := setOf(lex.TimeWords)
	for _, words := range [][]string{lex.LocationWords, lex.NumberWords} {
		for _, w := range words {
			closed[w] = true
		}
	}

	f := &Filter{
		myth:           setOf(lex.MythNames),
		examples:       setOf(lex.ExampleNames),
		closedWords:    closed,
		demonstratives: lex.Demonstratives,
	}

	if len(lex.BodyPartWords) > 0 {
		parts := make([]string, len(lex.BodyPartWords))
		for i, p := range lex.BodyPartWords {
			parts[i] = regexp.QuoteMeta(p)
		}
		f.bodyPart = regexp.MustCompile(`^.+的(?:` + strings.Join(parts, "|") + `)`)
	}

	return f, nil
}

// Apply runs the filters, sorts by mention count descending and truncates to
// maxCharacters when it is positive. The input slice is not modified.
//
// Demonstrative duplicates are judged against the names left by the denylists,
// before the mention minimum, so raising minMentions never keeps more characters.
func (f *Filter) Apply(characters []*model.Character, minMentions, maxCharacters int) []*model.Character {
	kept := make([]*model.Character, 0, len(characters))
	for _, c := range characters {
		if f.denied(c) {
			continue
		}
		kept = append(kept, c)
	}

	kept = f.dropDemonstratives(kept)

	frequent := kept[:0]
	for _, c := range kept {
		if c.MentionCount >= minMentions {
			frequent = append(frequent, c)
		}
	}
	kept = frequent

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].MentionCount > kept[j].MentionCount
	})
	if maxCharacters > 0 && len(kept) > maxCharacters {
		kept = kept[:maxCharacters]
	}

	return kept
}

func (f *Filter) denied(c *model.Character) bool {
	name := c.CanonicalName
	switch {
	case f.myth[name]:
		return true
	case f.examples[name] && c.MentionCount <= 2:
		return true
	case f.closedWords[name]:
		return true
	case f.bodyPart != nil && f.bodyPart.MatchString(name):
		return true
	}
	return false
}

// dropDemonstratives removes "that X" style names when X itself survived
func (f *Filter) dropDemonstratives(characters []*model.Character) []*model.Character {
	names := make(map[string]bool, len(characters))
	for _, c := range characters {
		names[c.CanonicalName] = true
	}

	kept := characters[:0:0]
	for _, c := range characters {
		if f.qualifiesExisting(c.CanonicalName, names) {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

func (f *Filter) qualifiesExisting(name string, names map[string]bool) bool {
	for _, prefix := range f.demonstratives {
		if prefix == "" || !strings.HasPrefix(name, prefix) {
			continue
		}
		if rest := strings.TrimPrefix(name, prefix); rest != "" && names[rest] {
			return true
		}
	}
	return false
}

func setOf(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
