package model

import (
	"fmt"

	"github.com/google/uuid"
)

// Retrieval strategies
const (
	StrategyVector   = "vector"
	StrategyMultiHop = "multi_hop"
	StrategyHybrid   = "hybrid"
)

// QueryConfig represents configuration for a character search
type QueryConfig struct {
	Strategy string `json:"strategy"`

	// Vector search parameters
	TopK                int     `json:"top_k"`
	SimilarityThreshold float64 `json:"similarity_threshold,omitempty"`

	// Run filtering
	ExcludeRunRID *uuid.UUID `json:"exclude_run_rid,omitempty"`

	// Graph traversal parameters
	MaxHops   int `json:"max_hops,omitempty"`
	MinWeight int `json:"min_weight,omitempty"`

	// Ranking parameters
	VectorWeight float64 `json:"vector_weight"` // Weight for similarity score
	GraphWeight  float64 `json:"graph_weight"`  // Weight for graph distance
}

// DefaultQueryConfig returns a sensible default configuration
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		Strategy:            StrategyHybrid,
		TopK:                5,
		SimilarityThreshold: 0.7,
		MaxHops:             1,
		MinWeight:           1,
		VectorWeight:        0.7,
		GraphWeight:         0.3,
	}
}

// Validate checks the limits of a query
func (c QueryConfig) Validate() error {
	switch c.Strategy {
	case StrategyVector, StrategyMultiHop, StrategyHybrid:
	default:
		return fmt.Errorf("unknown strategy %q", c.Strategy)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.TopK)
	}
	if c.MaxHops < 0 {
		return fmt.Errorf("max_hops must not be negative, got %d", c.MaxHops)
	}
	return nil
}

// SearchResult represents a stored character found by a search
type SearchResult struct {
	Record          *CharacterRecord `json:"record"`
	Score           float64          `json:"score"`            // Combined score from ranking
	SimilarityScore float64          `json:"similarity_score"` // Cosine similarity of the profile
	GraphDistance   int              `json:"graph_distance"`   // Hops from the nearest vector hit
	Via             string           `json:"via,omitempty"`    // Canonical name of that vector hit
	RetrievalMethod string           `json:"retrieval_method"`
}
