package matcher

import (
	"sort"
	"unicode/utf8"

	"github.com/coregx/ahocorasick"
	"github.com/dancancer/chargraph/helper"
	"github.com/dancancer/chargraph/model"
)

// Hit is one occurrence of a surface form. Start and End are byte offsets.
type Hit struct {
	Form      string
	Canonical string
	Start     int
	End       int
}

// RuneStart converts the byte start of the hit into a rune offset within text
func (h Hit) RuneStart(text string) int {
	return utf8.RuneCountInString(text[:h.Start])
}

// Matcher finds every surface form of a fixed vocabulary in one pass over the text
type Matcher struct {
	ac        *ahocorasick.Automaton
	forms     []string
	canonical []string
}

// New builds a matcher over all surface forms of an alias map
func New(aliasMap model.AliasMap) (*Matcher, error) {
	forms := aliasMap.Forms()
	canonical := make([]string, len(forms))
	for i, form := range forms {
		canonical[i] = aliasMap[form]
	}
	return build(forms, canonical)
}

// NewLexicon builds a matcher over plain words, each word its own canonical form
func NewLexicon(words []string) (*Matcher, error) {
	seen := make(map[string]bool, len(words))
	forms := make([]string, 0, len(words))
	for _, w := range words {
		if !seen[w] {
			seen[w] = true
			forms = append(forms, w)
		}
	}
	return build(forms, forms)
}

func build(forms []string, canonical []string) (*Matcher, error) {
	m := &Matcher{}
	for i, form := range forms {
		if form == "" {
			continue
		}
		m.forms = append(m.forms, form)
		m.canonical = append(m.canonical, canonical[i])
	}
	if len(m.forms) == 0 {
		return m, nil
	}

	automaton, err := ahocorasick.NewBuilder().
		AddStrings(m.forms).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, helper.NewError("build automaton", err)
	}
	m.ac = automaton

	return m, nil
}

// FindAll returns every occurrence of every form, overlapping ones included,
// ordered by start offset and then by length, longest first.
func (m *Matcher) FindAll(text string) []Hit {
	if m.ac == nil || text == "" {
		return nil
	}

	matches := m.ac.FindAllOverlapping([]byte(text))
	hits := make([]Hit, 0, len(matches))
	for _, match := range matches {
		if match.PatternID < 0 || match.PatternID >= len(m.forms) || match.Start >= match.End || match.End > len(text) {
			continue
		}
		hits = append(hits, Hit{
			Form:      m.forms[match.PatternID],
			Canonical: m.canonical[match.PatternID],
			Start:     match.Start,
			End:       match.End,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Start != hits[j].Start {
			return hits[i].Start < hits[j].Start
		}
		return hits[i].End > hits[j].End
	})
	return hits
}

// Leftmost returns non-overlapping hits, preferring the longest form at each position
func (m *Matcher) Leftmost(text string) []Hit {
	var out []Hit
	next := 0
	for _, hit := range m.FindAll(text) {
		if hit.Start < next {
			continue
		}
		out = append(out, hit)
		next = hit.End
	}
	return out
}

// Present returns the canonical names occurring in text, in order of first occurrence
func (m *Matcher) Present(text string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, hit := range m.FindAll(text) {
		if !seen[hit.Canonical] {
			seen[hit.Canonical] = true
			names = append(names, hit.Canonical)
		}
	}
	return names
}

// Latest returns the canonical names occurring in text, ordered by their last occurrence
func (m *Matcher) Latest(text string) []string {
	last := make(map[string]int)
	var names []string
	for _, hit := range m.FindAll(text) {
		if _, ok := last[hit.Canonical]; !ok {
			names = append(names, hit.Canonical)
		}
		last[hit.Canonical] = hit.End
	}
	sort.SliceStable(names, func(i, j int) bool {
		return last[names[i]] < last[names[j]]
	})
	return names
}

// Len returns the number of forms in the vocabulary
func (m *Matcher) Len() int {
	return len(m.forms)
}
