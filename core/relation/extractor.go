package relation

import (
	"sort"

	"github.com/dancancer/chargraph/core/matcher"
	"github.com/dancancer/chargraph/helper"
	"github.com/dancancer/chargraph/model"
)

// Extractor counts co-occurrence of characters within sentences and within
// a window of following sentences.
type Extractor struct {
	maxDistance int
	minWeight   int
}

// NewExtractor creates an extractor with the configured window and weight floor
func NewExtractor(cfg model.Config) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, helper.NewError("relation config", err)
	}
	return &Extractor{
		maxDistance: cfg.MaxContextDistance,
		minWeight:   cfg.MinRelationWeight,
	}, nil
}

// Extract returns the undirected relations, heaviest first. Pairs with equal
// weight keep the order in which they were first seen.
func (e *Extractor) Extract(sentences []model.Sentence, names *matcher.Matcher) []model.Relation {
	present := make([][]string, len(sentences))
	for i, s := range sentences {
		present[i] = names.Present(s.Text)
	}

	weights := make(map[model.RelationKey]int)
	var order []model.RelationKey
	add := func(a, b string) {
		key := model.NewRelationKey(a, b)
		if _, ok := weights[key]; !ok {
			order = append(order, key)
		}
		weights[key]++
	}

	for i, current := range present {
		for j, a := range current {
			for _, b := range current[j+1:] {
				add(a, b)
			}
		}

		for offset := 1; offset <= e.maxDistance && i+offset < len(present); offset++ {
			for _, a := range current {
				for _, b := range present[i+offset] {
					if a != b {
						add(a, b)
					}
				}
			}
		}
	}

	relations := make([]model.Relation, 0, len(order))
	for _, key := range order {
		if weights[key] < e.minWeight {
			continue
		}
		relations = append(relations, model.Relation{
			MemberA: key.A,
			MemberB: key.B,
			Kind:    model.RelationKindCoOccurrence,
			Weight:  weights[key],
		})
	}

	sort.SliceStable(relations, func(i, j int) bool {
		return relations[i].Weight > relations[j].Weight
	})

	return relations
}

// Prune keeps the relations whose members are both among the given characters
func Prune(relations []model.Relation, characters []*model.Character) []model.Relation {
	keep := make(map[string]bool, len(characters))
	for _, c := range characters {
		keep[c.CanonicalName] = true
	}

	pruned := make([]model.Relation, 0, len(relations))
	for _, r := range relations {
		if keep[r.MemberA] && keep[r.MemberB] {
			pruned = append(pruned, r)
		}
	}
	return pruned
}
