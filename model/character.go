package model

import "sort"

// Gender is the gender hint inferred for a character or carried by a pronoun
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = "unknown"
)

// Character is a final, canonical character identity
type Character struct {
	ID                    string   `json:"id"`
	CanonicalName         string   `json:"canonical_name"`
	Aliases               []string `json:"aliases"`
	MentionCount          int      `json:"mention_count"`
	FirstAppearanceOffset int      `json:"first_appearance_offset"`
	Gender                Gender   `json:"gender"`
	QuoteCount            int      `json:"quote_count"`
}

// Names returns the canonical name followed by all aliases
func (c *Character) Names() []string {
	names := make([]string, 0, len(c.Aliases)+1)
	names = append(names, c.CanonicalName)
	return append(names, c.Aliases...)
}

// AliasMap maps every surface form, canonical names included, to its canonical name
type AliasMap map[string]string

// Forms returns all surface forms, longest first and then lexicographically.
// Matching against forms in this order prefers the most specific alias.
func (m AliasMap) Forms() []string {
	forms := make([]string, 0, len(m))
	for form := range m {
		forms = append(forms, form)
	}
	sort.Slice(forms, func(i, j int) bool {
		li, lj := len([]rune(forms[i])), len([]rune(forms[j]))
		if li != lj {
			return li > lj
		}
		return forms[i] < forms[j]
	})
	return forms
}

// Restrict returns a copy containing only the entries of the given characters
func (m AliasMap) Restrict(characters []*Character) AliasMap {
	restricted := make(AliasMap)
	for _, c := range characters {
		for _, name := range c.Names() {
			if canonical, ok := m[name]; ok {
				restricted[name] = canonical
			}
		}
	}
	return restricted
}
