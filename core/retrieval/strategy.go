package retrieval

import (
	"context"
	"fmt"

	"github.com/dancancer/chargraph/model"
)

// Strategy defines a retrieval strategy
type Strategy interface {
	Retrieve(ctx context.Context, embedding []float32, config *model.QueryConfig) ([]*model.SearchResult, error)
}

// NewStrategy returns the strategy with the given name
func NewStrategy(engine *Engine, name string) (Strategy, error) {
	switch name {
	case model.StrategyVector:
		return NewVectorOnlyStrategy(engine), nil
	case model.StrategyMultiHop:
		return NewMultiHopStrategy(engine), nil
	case model.StrategyHybrid:
		return NewHybridStrategy(engine), nil
	}
	return nil, fmt.Errorf("unknown strategy %q", name)
}

// VectorOnlyStrategy performs pure profile similarity search
type VectorOnlyStrategy struct {
	engine *Engine
}

// NewVectorOnlyStrategy creates a new vector-only strategy
func NewVectorOnlyStrategy(engine *Engine) *VectorOnlyStrategy {
	return &VectorOnlyStrategy{engine: engine}
}

// Retrieve performs vector-only retrieval
func (s *VectorOnlyStrategy) Retrieve(ctx context.Context, embedding []float32, config *model.QueryConfig) ([]*model.SearchResult, error) {
	return s.engine.VectorRetrieve(ctx, embedding, config)
}

// MultiHopStrategy adds the characters related to the top vector hits
type MultiHopStrategy struct {
	engine *Engine
}

// NewMultiHopStrategy creates a new multi-hop strategy
func NewMultiHopStrategy(engine *Engine) *MultiHopStrategy {
	return &MultiHopStrategy{
		engine: engine,
	}
}

// Retrieve performs multi-hop retrieval. Related characters inherit the
// score of their hit, damped by GraphWeight and distance.
func (s *MultiHopStrategy) Retrieve(ctx context.Context, embedding []float32, config *model.QueryConfig) ([]*model.SearchResult, error) {
	vectorResults, err := s.engine.VectorRetrieve(ctx, embedding, config)
	if err != nil {
		return nil, err
	}

	resultMap := make(map[string]*model.SearchResult)
	for _, result := range vectorResults {
		resultMap[resultKey(result.Record.RunRID, result.Record.Character.CanonicalName)] = result
	}

	for _, result := range vectorResults {
		traversalResults, err := s.engine.Expand(ctx, result.Record, config)
		if err != nil {
			continue
		}

		for _, tResult := range traversalResults {
			// Skip the hit itself
			if tResult.Distance == 0 {
				continue
			}

			key := resultKey(result.Record.RunRID, tResult.Character.CanonicalName)
			if _, exists := resultMap[key]; !exists {
				score := result.Score * config.GraphWeight / float64(tResult.Distance+1)
				resultMap[key] = neighborResult(result, tResult, score, model.StrategyMultiHop)
			}
		}
	}

	return sortResults(resultMap), nil
}

// HybridStrategy combines profile similarity and relation distance with configurable weights
type HybridStrategy struct {
	engine *Engine
}

// NewHybridStrategy creates a new hybrid strategy
func NewHybridStrategy(engine *Engine) *HybridStrategy {
	return &HybridStrategy{
		engine: engine,
	}
}

// Retrieve performs hybrid retrieval with weighted combination.
// A character close to several hits accumulates their graph scores.
func (s *HybridStrategy) Retrieve(ctx context.Context, embedding []float32, config *model.QueryConfig) ([]*model.SearchResult, error) {
	vectorResults, err := s.engine.VectorRetrieve(ctx, embedding, config)
	if err != nil {
		return nil, err
	}

	resultMap := make(map[string]*model.SearchResult)
	for _, vResult := range vectorResults {
		key := resultKey(vResult.Record.RunRID, vResult.Record.Character.CanonicalName)
		vectorScore := vResult.SimilarityScore * config.VectorWeight

		// A hit may already have been reached from an earlier hit
		if existing, exists := resultMap[key]; exists {
			existing.Record = vResult.Record
			existing.SimilarityScore = vResult.SimilarityScore
			existing.Score += vectorScore
			existing.GraphDistance = 0
			existing.Via = ""
		} else {
			resultMap[key] = &model.SearchResult{
				Record:          vResult.Record,
				Score:           vectorScore,
				SimilarityScore: vResult.SimilarityScore,
				GraphDistance:   0,
				RetrievalMethod: model.StrategyHybrid,
			}
		}

		if config.MaxHops == 0 {
			continue
		}

		traversalResults, err := s.engine.Expand(ctx, vResult.Record, config)
		if err != nil {
			continue
		}

		for _, tResult := range traversalResults {
			if tResult.Distance == 0 {
				continue
			}

			graphScore := config.GraphWeight / float64(tResult.Distance)
			tKey := resultKey(vResult.Record.RunRID, tResult.Character.CanonicalName)
			if existing, exists := resultMap[tKey]; exists {
				existing.Score += graphScore
			} else {
				resultMap[tKey] = neighborResult(vResult, tResult, graphScore, model.StrategyHybrid)
			}
		}
	}

	results := sortResults(resultMap)

	// Limit to top-k
	if len(results) > config.TopK {
		results = results[:config.TopK]
	}

	return results, nil
}
