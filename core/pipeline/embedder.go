package pipeline

import (
	"fmt"

	"github.com/dancancer/chargraph/helper"
	"github.com/dancancer/chargraph/model"
	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
)

type embeddingModel struct {
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline
}

// Embedder produces sentence embeddings with a hugot feature extraction model.
// The model is downloaded and loaded on first use.
type Embedder struct {
	loader    *Loader[*embeddingModel]
	batchSize int
}

// NewEmbedder creates an embedder for cfg.EmbeddingModel. Nothing is loaded yet.
func NewEmbedder(cfg model.Config) *Embedder {
	modelDir := cfg.ModelDir
	modelName := cfg.EmbeddingModel

	return &Embedder{
		batchSize: cfg.EmbeddingBatchSize,
		loader: NewLoader(func() (*embeddingModel, error) {
			modelPath, err := helper.PrepareModel(modelDir, modelName, "")
			if err != nil {
				return nil, err
			}

			session, err := hugot.NewGoSession()
			if err != nil {
				return nil, fmt.Errorf("failed to create hugot session: %w", err)
			}

			config := hugot.FeatureExtractionConfig{
				ModelPath: modelPath,
				Name:      "chargraph-embedder",
			}
			featurePipeline, err := hugot.NewPipeline(session, config)
			if err != nil {
				if destroyErr := session.Destroy(); destroyErr != nil {
					return nil, fmt.Errorf("failed to create feature extraction pipeline: %w (cleanup error: %v)", err, destroyErr)
				}
				return nil, fmt.Errorf("failed to create feature extraction pipeline: %w", err)
			}

			return &embeddingModel{session: session, pipeline: featurePipeline}, nil
		}),
	}
}

// Embed returns one vector per text, running the model in batches
func (e *Embedder) Embed(texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	m, err := e.loader.Get()
	if err != nil {
		return nil, helper.NewError("load embedding model", err)
	}

	batchSize := e.batchSize
	if batchSize <= 0 {
		batchSize = len(texts)
	}

	embeddings := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))
		result, err := m.pipeline.RunPipeline(texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to generate embeddings: %w", err)
		}
		embeddings = append(embeddings, result.Embeddings...)
	}

	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d embeddings for %d texts", len(embeddings), len(texts))
	}

	return embeddings, nil
}

// Close releases the hugot session if the model was loaded
func (e *Embedder) Close() error {
	m, ok := e.loader.Loaded()
	if !ok {
		return nil
	}
	return m.session.Destroy()
}

// DefaultEmbedder returns the batched embed function of a new Embedder
func DefaultEmbedder(cfg model.Config) EmbedFunc {
	return NewEmbedder(cfg).Embed
}
