package alias

import (
	"regexp"
	"strings"

	"github.com/dancancer/chargraph/helper"
	"github.com/dancancer/chargraph/model"
)

var separatorPattern = regexp.MustCompile(`[\s·•.,，。？！、]+`)

// Normalizer reduces a surface form to its core key by stripping known affixes
type Normalizer struct {
	prefixes    []string
	honorifics  []string
	diminutives []string
}

// NewNormalizer creates a normalizer from the configured affix lexicons
func NewNormalizer(cfg model.Config) (*Normalizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, helper.NewError("normalizer config", err)
	}
	return &Normalizer{
		prefixes:    cfg.Lexicon.Prefixes,
		honorifics:  cfg.Lexicon.Honorifics,
		diminutives: cfg.Lexicon.DiminutiveSuffixes,
	}, nil
}

// Normalize returns the core key of text.
// A pass strips separators, then one prefix, one honorific and one diminutive
// particle. Passes repeat until the key is stable.
func (n *Normalizer) Normalize(text string) string {
	key := separatorPattern.ReplaceAllString(text, "")
	for {
		next := n.strip(key)
		if next == key {
			return key
		}
		key = next
	}
}

func (n *Normalizer) strip(key string) string {
	key = trimFirstPrefix(key, n.prefixes)
	key = trimFirstSuffix(key, n.honorifics)
	return trimFirstSuffix(key, n.diminutives)
}

// trimFirstPrefix removes the first listed prefix that leaves a non-empty remainder
func trimFirstPrefix(s string, prefixes []string) string {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) && len(s) > len(p) {
			return s[len(p):]
		}
	}
	return s
}

// trimFirstSuffix removes the first listed suffix that leaves a non-empty remainder
func trimFirstSuffix(s string, suffixes []string) string {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) && len(s) > len(suffix) {
			return s[:len(s)-len(suffix)]
		}
	}
	return s
}
