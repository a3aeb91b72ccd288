package helper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareModel(t *testing.T) {
	t.Run("Return existing model path when model exists", func(t *testing.T) {
		modelDir := t.TempDir()
		expectedPath := filepath.Join(modelDir, "shibing624_text2vec-base-chinese")
		require.NoError(t, os.MkdirAll(expectedPath, 0750))

		path, err := PrepareModel(modelDir, "shibing624/text2vec-base-chinese", "onnx/model.onnx")

		assert.NoError(t, err, "Expected PrepareModel to not return an error for existing model")
		assert.Equal(t, expectedPath, path, "Expected path to use sanitized name")
	})

	t.Run("Handle model name without slash", func(t *testing.T) {
		modelDir := t.TempDir()
		expectedPath := filepath.Join(modelDir, "simple-model")
		require.NoError(t, os.MkdirAll(expectedPath, 0750))

		path, err := PrepareModel(modelDir, "simple-model", "")

		assert.NoError(t, err)
		assert.Equal(t, expectedPath, path, "Expected path to use model name directly")
	})

	t.Run("Empty model name is rejected", func(t *testing.T) {
		_, err := PrepareModel(t.TempDir(), "", "")

		assert.Error(t, err)
	})

	t.Run("Download model when it doesn't exist", func(t *testing.T) {
		if testing.Short() {
			t.Skip("Skipping model download in short mode")
		}

		path, err := PrepareModel(t.TempDir(), "KnightsAnalytics/all-MiniLM-L6-v2", "")

		// Network access is not guaranteed
		if err != nil {
			assert.Contains(t, err.Error(), "failed to", "Expected error to be about download failure")
		} else {
			assert.DirExists(t, path, "Expected model directory to exist")
		}
	})
}
