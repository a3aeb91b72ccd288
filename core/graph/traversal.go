package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/dancancer/chargraph/model"
)

// RelationSource defines the lookups a traversal needs
type RelationSource interface {
	GetCharacter(ctx context.Context, name string) (*model.Character, error)
	GetRelationsOf(ctx context.Context, name string) ([]model.Relation, error)
}

// TraversalResult contains a character and its distance from the source
type TraversalResult struct {
	Character *model.Character
	Distance  int
	Weight    int      // Weight of the relation that reached this character, 0 for the source
	Path      []string // Canonical names from source to this character
}

// Neighbor is a directly related character
type Neighbor struct {
	Character *model.Character
	Weight    int
}

// BFS performs breadth-first search from a source character, following
// relations of at least minWeight
func BFS(ctx context.Context, src RelationSource, source string, maxHops int, minWeight int) ([]*TraversalResult, error) {
	sourceCharacter, err := src.GetCharacter(ctx, source)
	if err != nil {
		return nil, err
	}

	// The source may be given by alias
	start := sourceCharacter.CanonicalName
	visited := map[string]bool{start: true}
	queue := []TraversalResult{{
		Character: sourceCharacter,
		Distance:  0,
		Path:      []string{start},
	}}

	var results []*TraversalResult
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		results = append(results, &current)

		if current.Distance >= maxHops {
			continue
		}

		name := current.Character.CanonicalName
		relations, err := src.GetRelationsOf(ctx, name)
		if err != nil {
			return nil, err
		}

		for _, r := range relations {
			if r.Weight < minWeight {
				continue
			}
			target := r.Other(name)
			if target == "" || visited[target] {
				continue
			}

			targetCharacter, err := src.GetCharacter(ctx, target)
			if err != nil {
				continue // Filtered out of the run
			}
			visited[target] = true

			path := make([]string, len(current.Path), len(current.Path)+1)
			copy(path, current.Path)

			queue = append(queue, TraversalResult{
				Character: targetCharacter,
				Distance:  current.Distance + 1,
				Weight:    r.Weight,
				Path:      append(path, target),
			})
		}
	}

	return results, nil
}

// DFS performs depth-first search from a source character
func DFS(ctx context.Context, src RelationSource, source string, maxHops int, minWeight int) ([]*TraversalResult, error) {
	sourceCharacter, err := src.GetCharacter(ctx, source)
	if err != nil {
		return nil, err
	}

	var results []*TraversalResult
	dfsRecursive(ctx, src, sourceCharacter, 0, 0, maxHops, minWeight, []string{sourceCharacter.CanonicalName}, map[string]bool{}, &results)

	return results, nil
}

func dfsRecursive(
	ctx context.Context,
	src RelationSource,
	current *model.Character,
	distance int,
	weight int,
	maxHops int,
	minWeight int,
	path []string,
	visited map[string]bool,
	results *[]*TraversalResult,
) {
	name := current.CanonicalName
	visited[name] = true

	pathCopy := make([]string, len(path))
	copy(pathCopy, path)
	*results = append(*results, &TraversalResult{
		Character: current,
		Distance:  distance,
		Weight:    weight,
		Path:      pathCopy,
	})

	if distance >= maxHops {
		return
	}

	relations, err := src.GetRelationsOf(ctx, name)
	if err != nil {
		return
	}

	for _, r := range relations {
		if r.Weight < minWeight {
			continue
		}
		target := r.Other(name)
		if target == "" || visited[target] {
			continue
		}

		targetCharacter, err := src.GetCharacter(ctx, target)
		if err != nil {
			continue
		}

		dfsRecursive(ctx, src, targetCharacter, distance+1, r.Weight, maxHops, minWeight, append(path, target), visited, results)
	}
}

// Neighbors returns the directly related characters, heaviest relation first
func Neighbors(ctx context.Context, src RelationSource, name string, minWeight int) ([]Neighbor, error) {
	results, err := BFS(ctx, src, name, 1, minWeight)
	if err != nil {
		return nil, err
	}

	// Skip the source itself (first result)
	neighbors := make([]Neighbor, 0, len(results)-1)
	for _, r := range results[1:] {
		neighbors = append(neighbors, Neighbor{Character: r.Character, Weight: r.Weight})
	}
	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Weight > neighbors[j].Weight
	})

	return neighbors, nil
}

// Graph is an in-memory RelationSource over the output of one run
type Graph struct {
	characters map[string]*model.Character
	adjacency  map[string][]model.Relation
}

// NewGraph indexes characters by every name and relations by member
func NewGraph(characters []*model.Character, relations []model.Relation) *Graph {
	g := &Graph{
		characters: make(map[string]*model.Character, len(characters)),
		adjacency:  make(map[string][]model.Relation),
	}
	for _, c := range characters {
		for _, name := range c.Names() {
			if _, taken := g.characters[name]; !taken {
				g.characters[name] = c
			}
		}
		g.characters[c.CanonicalName] = c
	}
	for _, r := range relations {
		g.adjacency[r.MemberA] = append(g.adjacency[r.MemberA], r)
		g.adjacency[r.MemberB] = append(g.adjacency[r.MemberB], r)
	}
	return g
}

// NewResultGraph builds the graph of a recognition result
func NewResultGraph(result *model.RecognitionResult) *Graph {
	return NewGraph(result.Characters, result.Relations)
}

// GetCharacter returns the character with the given name or alias
func (g *Graph) GetCharacter(ctx context.Context, name string) (*model.Character, error) {
	c, ok := g.characters[name]
	if !ok {
		return nil, fmt.Errorf("character %q not found", name)
	}
	return c, nil
}

// GetRelationsOf returns the relations a character takes part in
func (g *Graph) GetRelationsOf(ctx context.Context, name string) ([]model.Relation, error) {
	return g.adjacency[name], nil
}
