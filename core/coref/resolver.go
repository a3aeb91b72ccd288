package coref

import (
	"github.com/dancancer/chargraph/core/matcher"
	"github.com/dancancer/chargraph/helper"
	"github.com/dancancer/chargraph/model"
)

// Result holds the resolved pronouns of a run
type Result struct {
	// Resolution keeps one entry per sentence, the last resolved pronoun wins
	Resolution model.PronounResolution
	// Links keeps every resolved pronoun in reading order
	Links []model.PronounLink
}

// Resolver links pronouns to the most recently mentioned compatible character
type Resolver struct {
	pronouns    *matcher.Matcher
	genders     map[string]model.Gender
	maxDistance int
}

// NewResolver creates a resolver for the configured pronoun lexicon
func NewResolver(cfg model.Config) (*Resolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, helper.NewError("coreference config", err)
	}

	words := make([]string, 0, len(cfg.Lexicon.Pronouns))
	genders := make(map[string]model.Gender, len(cfg.Lexicon.Pronouns))
	for _, p := range cfg.Lexicon.Pronouns {
		if _, ok := genders[p.Pronoun]; ok {
			continue
		}
		words = append(words, p.Pronoun)
		genders[p.Pronoun] = p.Gender
	}

	pronouns, err := matcher.NewLexicon(words)
	if err != nil {
		return nil, helper.NewError("pronoun matcher", err)
	}

	return &Resolver{
		pronouns:    pronouns,
		genders:     genders,
		maxDistance: cfg.MaxCoreferenceDistance,
	}, nil
}

// Resolve walks the sentences once, left to right. names matches the alias
// table of the given characters.
func (r *Resolver) Resolve(sentences []model.Sentence, characters []*model.Character, names *matcher.Matcher) Result {
	result := Result{Resolution: make(model.PronounResolution)}

	genders := make(map[string]model.Gender, len(characters))
	for _, c := range characters {
		genders[c.CanonicalName] = c.Gender
	}

	var recent []string
	for _, s := range sentences {
		for _, name := range names.Latest(s.Text) {
			recent = moveToFront(recent, name)
		}
		if len(recent) > r.maxDistance {
			recent = recent[:r.maxDistance]
		}

		for _, hit := range r.pronouns.Leftmost(s.Text) {
			candidate, ok := pick(recent, r.genders[hit.Form], genders)
			if !ok {
				continue
			}
			result.Resolution[s.Index] = candidate
			result.Links = append(result.Links, model.PronounLink{
				SentenceIndex: s.Index,
				Pronoun:       hit.Form,
				Offset:        hit.RuneStart(s.Text),
				Character:     candidate,
			})
		}
	}

	return result
}

// pick returns the first candidate matching the pronoun gender, any candidate for unknown
func pick(recent []string, want model.Gender, genders map[string]model.Gender) (string, bool) {
	for _, name := range recent {
		if want == model.GenderUnknown || genders[name] == want {
			return name, true
		}
	}
	return "", false
}

func moveToFront(list []string, name string) []string {
	out := make([]string, 0, len(list)+1)
	out = append(out, name)
	for _, n := range list {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}
