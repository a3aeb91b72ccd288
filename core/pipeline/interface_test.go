package pipeline

import (
	"errors"
	"testing"

	"github.com/dancancer/chargraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock EmbedFunc for testing
func mockEmbedFunc(texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = []float32{0.1, 0.2, 0.3, 0.4}
	}
	return embeddings, nil
}

// Mock MentionDetectFunc for testing
func mockDetectFunc(sentences []model.Sentence) ([]model.Mention, error) {
	if len(sentences) == 0 {
		return nil, errors.New("no sentences")
	}
	return []model.Mention{{Text: "王强", Start: 0, End: 2, Source: model.MentionSourceDetector}}, nil
}

func TestNewPipeline(t *testing.T) {
	t.Run("Create new pipeline", func(t *testing.T) {
		pipeline := NewPipeline(mockDetectFunc, mockEmbedFunc)

		require.NotNil(t, pipeline)
		assert.NotNil(t, pipeline.Detector)
		assert.NotNil(t, pipeline.Embedder)
	})

	t.Run("Create pipeline without collaborators", func(t *testing.T) {
		pipeline := NewPipeline(nil, nil)

		require.NotNil(t, pipeline)
		assert.Nil(t, pipeline.Detector)
		assert.Nil(t, pipeline.Embedder)
	})

	t.Run("Set collaborators", func(t *testing.T) {
		pipeline := NewPipeline(nil, nil)
		pipeline.SetDetector(mockDetectFunc)
		pipeline.SetEmbedder(mockEmbedFunc)

		embeddings, err := pipeline.Embedder([]string{"a", "b"})
		require.NoError(t, err)
		assert.Len(t, embeddings, 2)

		mentions, err := pipeline.Detector(sentencesOf("王强来了。"))
		require.NoError(t, err)
		assert.Len(t, mentions, 1)
	})
}

func TestObservers(t *testing.T) {
	t.Run("Fan out in order and skip nil observers", func(t *testing.T) {
		var events []string
		record := func(prefix string) Observer {
			return ObserverFunc(func(stage string, payload model.Metadata) {
				events = append(events, prefix+stage)
			})
		}

		observers := Observers{record("a:"), nil, record("b:")}
		observers.OnStage(StageMerge, model.Metadata{"characters": 3})

		assert.Equal(t, []string{"a:merge", "b:merge"}, events)
	})

	t.Run("Observer func receives the payload", func(t *testing.T) {
		var got model.Metadata
		observer := ObserverFunc(func(stage string, payload model.Metadata) {
			got = payload
		})

		observer.OnStage(StageRelations, model.Metadata{"relations": 2})

		count, ok := got.Int("relations")
		require.True(t, ok)
		assert.Equal(t, 2, count)
	})
}
