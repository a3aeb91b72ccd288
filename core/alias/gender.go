package alias

import (
	"strings"

	"github.com/dancancer/chargraph/model"
)

// GenderInferencer assigns a gender hint from indicator substrings in a character's names
type GenderInferencer struct {
	male   []string
	female []string
}

// NewGenderInferencer creates an inferencer from the configured indicator lexicons
func NewGenderInferencer(cfg model.Config) *GenderInferencer {
	return &GenderInferencer{
		male:   cfg.Lexicon.MaleIndicators,
		female: cfg.Lexicon.FemaleIndicators,
	}
}

// Infer counts, per name, every indicator the name contains.
// The side with the strictly higher count wins, a tie is unknown.
func (g *GenderInferencer) Infer(canonical string, aliases []string) model.Gender {
	male, female := 0, 0
	seen := make(map[string]bool, len(aliases)+1)
	for _, name := range append([]string{canonical}, aliases...) {
		if seen[name] {
			continue
		}
		seen[name] = true
		male += countContained(name, g.male)
		female += countContained(name, g.female)
	}

	switch {
	case male > female:
		return model.GenderMale
	case female > male:
		return model.GenderFemale
	default:
		return model.GenderUnknown
	}
}

func countContained(name string, indicators []string) int {
	n := 0
	for _, indicator := range indicators {
		if strings.Contains(name, indicator) {
			n++
		}
	}
	return n
}
