package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/dancancer/chargraph/core/graph"
	"github.com/dancancer/chargraph/model"
	"github.com/google/uuid"
)

// ProfileIndex finds stored characters by profile embedding
type ProfileIndex interface {
	SelectCharactersBySimilarity(embedding []float32, limit int, threshold float64, excludeRunRID *uuid.UUID) ([]*model.CharacterRecord, error)
}

// GraphSource opens the relation graph of a stored run
type GraphSource func(runRID uuid.UUID) (graph.RelationSource, error)

// Engine provides profile retrieval and relation expansion over stored runs
type Engine struct {
	profiles ProfileIndex
	graphs   GraphSource
}

// NewEngine creates a new retrieval engine
func NewEngine(profiles ProfileIndex, graphs GraphSource) *Engine {
	return &Engine{
		profiles: profiles,
		graphs:   graphs,
	}
}

// VectorRetrieve performs pure profile similarity search
func (e *Engine) VectorRetrieve(ctx context.Context, embedding []float32, config *model.QueryConfig) ([]*model.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, err := e.profiles.SelectCharactersBySimilarity(embedding, config.TopK, config.SimilarityThreshold, config.ExcludeRunRID)
	if err != nil {
		return nil, err
	}

	results := make([]*model.SearchResult, len(records))
	for i, record := range records {
		results[i] = &model.SearchResult{
			Record:          record,
			Score:           record.Similarity,
			SimilarityScore: record.Similarity,
			GraphDistance:   0,
			RetrievalMethod: model.StrategyVector,
		}
	}

	return results, nil
}

// Expand walks the relations of the run a hit belongs to, starting at the hit
func (e *Engine) Expand(ctx context.Context, hit *model.CharacterRecord, config *model.QueryConfig) ([]*graph.TraversalResult, error) {
	if e.graphs == nil {
		return nil, fmt.Errorf("no graph source configured")
	}

	src, err := e.graphs(hit.RunRID)
	if err != nil {
		return nil, err
	}
	return graph.BFS(ctx, src, hit.Character.CanonicalName, config.MaxHops, config.MinWeight)
}

// Retrieve runs the strategy named by config
func (e *Engine) Retrieve(ctx context.Context, embedding []float32, config *model.QueryConfig) ([]*model.SearchResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	strategy, err := NewStrategy(e, config.Strategy)
	if err != nil {
		return nil, err
	}
	return strategy.Retrieve(ctx, embedding, config)
}

// resultKey identifies a character across runs
func resultKey(runRID uuid.UUID, name string) string {
	return runRID.String() + "/" + name
}

// neighborResult builds a result for a character reached from a vector hit
func neighborResult(hit *model.SearchResult, t *graph.TraversalResult, score float64, method string) *model.SearchResult {
	return &model.SearchResult{
		Record: &model.CharacterRecord{
			RunID:     hit.Record.RunID,
			RunRID:    hit.Record.RunRID,
			Character: *t.Character,
		},
		Score:           score,
		SimilarityScore: 0,
		GraphDistance:   t.Distance,
		Via:             hit.Record.Character.CanonicalName,
		RetrievalMethod: method,
	}
}

// sortResults orders by score, then by key for stable output
func sortResults(resultMap map[string]*model.SearchResult) []*model.SearchResult {
	results := make([]*model.SearchResult, 0, len(resultMap))
	for _, result := range resultMap {
		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return resultKey(results[i].Record.RunRID, results[i].Record.Character.CanonicalName) <
			resultKey(results[j].Record.RunRID, results[j].Record.Character.CanonicalName)
	})

	return results
}
