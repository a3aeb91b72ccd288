package alias

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringSimilarity(t *testing.T) {
	t.Run("Identical names score one", func(t *testing.T) {
		assert.Equal(t, 1.0, StringSimilarity("王强", "王强"))
	})

	t.Run("Containment scores by length difference", func(t *testing.T) {
		assert.InDelta(t, 0.95, StringSimilarity("王强", "王强生"), 1e-9)
		assert.InDelta(t, 0.90, StringSimilarity("芙", "雅芙儿"), 1e-9)
	})

	t.Run("Other pairs use the matching ratio over runes", func(t *testing.T) {
		assert.InDelta(t, 0.5, StringSimilarity("雅芙", "芙儿"), 1e-9)
		assert.InDelta(t, 0.0, StringSimilarity("张三", "李四"), 1e-9)
	})

	t.Run("Similarity is symmetric", func(t *testing.T) {
		assert.Equal(t, StringSimilarity("林黛玉", "黛玉妹"), StringSimilarity("黛玉妹", "林黛玉"))
	})

	t.Run("Empty names score zero", func(t *testing.T) {
		assert.Equal(t, 0.0, StringSimilarity("", "王强"))
	})
}

func TestCosineSimilarity(t *testing.T) {
	t.Run("Parallel vectors score one", func(t *testing.T) {
		assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2}, []float32{2, 4}), 1e-6)
	})

	t.Run("Orthogonal vectors score zero", func(t *testing.T) {
		assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	})

	t.Run("Mismatched or zero vectors score zero", func(t *testing.T) {
		assert.Equal(t, 0.0, CosineSimilarity([]float32{1}, []float32{1, 0}))
		assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 0}))
	})
}
