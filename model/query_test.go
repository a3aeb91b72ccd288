package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryConfigValidate(t *testing.T) {
	t.Run("Default query config is valid", func(t *testing.T) {
		assert.NoError(t, DefaultQueryConfig().Validate())
	})

	t.Run("Unknown strategy is rejected", func(t *testing.T) {
		config := DefaultQueryConfig()
		config.Strategy = "contextual"
		assert.ErrorContains(t, config.Validate(), "unknown strategy")
	})

	t.Run("Top k must be positive", func(t *testing.T) {
		config := DefaultQueryConfig()
		config.TopK = 0
		assert.Error(t, config.Validate())
	})

	t.Run("Negative hops are rejected", func(t *testing.T) {
		config := DefaultQueryConfig()
		config.MaxHops = -1
		assert.Error(t, config.Validate())
	})
}
