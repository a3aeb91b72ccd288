package pipeline

import (
	"math"
	"testing"

	"github.com/dancancer/chargraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedderWithoutModel(t *testing.T) {
	t.Run("Empty input does not load the model", func(t *testing.T) {
		cfg := model.DefaultConfig()
		cfg.ModelDir = t.TempDir()
		embedder := NewEmbedder(cfg)

		embeddings, err := embedder.Embed(nil)

		require.NoError(t, err)
		assert.Empty(t, embeddings)
		_, loaded := embedder.loader.Loaded()
		assert.False(t, loaded)
	})

	t.Run("Close before first use is a no-op", func(t *testing.T) {
		embedder := NewEmbedder(model.DefaultConfig())

		assert.NoError(t, embedder.Close())
	})
}

func TestDefaultEmbedder(t *testing.T) {
	// These tests download the embedding model on first run
	t.Run("One vector per text across batches", func(t *testing.T) {
		if testing.Short() {
			t.Skip("Skipping DefaultEmbedder test in short mode (requires model download)")
		}

		cfg := model.DefaultConfig()
		cfg.EmbeddingBatchSize = 2
		embedder := NewEmbedder(cfg)
		defer func() { assert.NoError(t, embedder.Close()) }()

		texts := []string{"王强走了进来。", "张叔笑着说道。", "天色渐晚。", "林姑娘问道。", "李明坐下了。"}
		embeddings, err := embedder.Embed(texts)

		require.NoError(t, err)
		require.Len(t, embeddings, len(texts))
		for _, e := range embeddings {
			assert.Equal(t, len(embeddings[0]), len(e), "All embeddings should have the same dimension")
		}
	})

	t.Run("Same text produces same embedding", func(t *testing.T) {
		if testing.Short() {
			t.Skip("Skipping DefaultEmbedder test in short mode (requires model download)")
		}

		embed := DefaultEmbedder(model.DefaultConfig())

		first, err := embed([]string{"王强笑着说道。"})
		require.NoError(t, err)
		second, err := embed([]string{"王强笑着说道。"})
		require.NoError(t, err)

		require.Len(t, first, 1)
		require.Len(t, second, 1)
		for i := range first[0] {
			assert.InDelta(t, first[0][i], second[0][i], 0.0001, "Same text should produce same embedding")
		}
	})

	t.Run("Similar texts have similar embeddings", func(t *testing.T) {
		if testing.Short() {
			t.Skip("Skipping DefaultEmbedder test in short mode (requires model download)")
		}

		embed := DefaultEmbedder(model.DefaultConfig())

		embeddings, err := embed([]string{"小狗很开心。", "小狗非常高兴。", "量子物理很复杂。"})
		require.NoError(t, err)
		require.Len(t, embeddings, 3)

		assert.Greater(t, cosine(embeddings[0], embeddings[1]), cosine(embeddings[0], embeddings[2]),
			"Semantically similar texts should have higher similarity")
	})
}

func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
