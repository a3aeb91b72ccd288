package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dancancer/chargraph/helper"
)

// Profile embedding index types
const (
	IndexHNSW    = "hnsw"
	IndexIVFFlat = "ivfflat"
)

const indexTimeout = 60 * time.Second

// ChangeIndexType rebuilds the profile embedding index as HNSW or IVFFlat.
// IVFFlat derives its lists from the rows present, so switch after bulk loading.
//
// Parameters, all optional:
//   - hnsw: "m" (default 16), "ef_construction" (default 64)
//   - ivfflat: "lists" (default 100)
func (h *CharactersDBHandler) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	statement, err := indexStatement(indexType, params)
	if err != nil {
		return helper.NewError("change index type", err)
	}

	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err = h.db.Instance.ExecContext(ctx, `DROP INDEX IF EXISTS idx_characters_embedding;`)
	if err != nil {
		return helper.NewError("drop index", err)
	}

	_, err = h.db.Instance.ExecContext(ctx, statement)
	if err != nil {
		return helper.NewError("create index", err)
	}

	h.db.Logger.Info("Rebuilt character embedding index", slog.String("type", indexType), slog.Any("params", params))

	return nil
}

// indexStatement builds the CREATE INDEX statement for an index type
func indexStatement(indexType string, params map[string]interface{}) (string, error) {
	switch indexType {
	case IndexHNSW:
		m, err := intParam(params, "m", 16)
		if err != nil {
			return "", err
		}
		efConstruction, err := intParam(params, "ef_construction", 64)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(
			`CREATE INDEX idx_characters_embedding ON characters USING hnsw (embedding vector_cosine_ops) WITH (m = %d, ef_construction = %d);`,
			m, efConstruction,
		), nil

	case IndexIVFFlat:
		lists, err := intParam(params, "lists", 100)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(
			`CREATE INDEX idx_characters_embedding ON characters USING ivfflat (embedding vector_cosine_ops) WITH (lists = %d);`,
			lists,
		), nil
	}

	return "", fmt.Errorf("unsupported index type: %s (use '%s' or '%s')", indexType, IndexHNSW, IndexIVFFlat)
}

// intParam reads a positive integer parameter. JSON and YAML decode numbers as
// float64, so whole floats are accepted too.
func intParam(params map[string]interface{}, key string, fallback int) (int, error) {
	raw, ok := params[key]
	if !ok {
		return fallback, nil
	}

	var value int
	switch v := raw.(type) {
	case int:
		value = v
	case int64:
		value = int(v)
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%s must be a whole number, got %v", key, v)
		}
		value = int(v)
	default:
		return 0, fmt.Errorf("%s must be a number, got %T", key, raw)
	}

	if value <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, value)
	}
	return value, nil
}
