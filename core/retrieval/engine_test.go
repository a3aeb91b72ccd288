package retrieval

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/dancancer/chargraph/core/graph"
	"github.com/dancancer/chargraph/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	runA = uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	runB = uuid.MustParse("00000000-0000-0000-0000-00000000000b")
)

// staticIndex returns fixed records, filtered and ordered like the database does
type staticIndex struct {
	records []*model.CharacterRecord
	err     error
}

func (s staticIndex) SelectCharactersBySimilarity(embedding []float32, limit int, threshold float64, excludeRunRID *uuid.UUID) ([]*model.CharacterRecord, error) {
	if s.err != nil {
		return nil, s.err
	}

	var out []*model.CharacterRecord
	for _, r := range s.records {
		if r.Similarity < threshold {
			continue
		}
		if excludeRunRID != nil && r.RunRID == *excludeRunRID {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func record(run uuid.UUID, name string, similarity float64) *model.CharacterRecord {
	return &model.CharacterRecord{RunRID: run, Character: model.Character{CanonicalName: name}, Similarity: similarity}
}

func relation(a, b string, weight int) model.Relation {
	key := model.NewRelationKey(a, b)
	return model.Relation{MemberA: key.A, MemberB: key.B, Kind: model.RelationKindCoOccurrence, Weight: weight}
}

// testGraphs holds run A with 王强 - 李娜 - 张三 and run B with an isolated 林平
func testGraphs(runRID uuid.UUID) (graph.RelationSource, error) {
	switch runRID {
	case runA:
		return graph.NewGraph(
			[]*model.Character{{CanonicalName: "王强"}, {CanonicalName: "李娜"}, {CanonicalName: "张三"}},
			[]model.Relation{relation("王强", "李娜", 3), relation("李娜", "张三", 1)},
		), nil
	case runB:
		return graph.NewGraph([]*model.Character{{CanonicalName: "林平"}}, nil), nil
	}
	return nil, errors.New("run not found")
}

func testEngine() *Engine {
	index := staticIndex{records: []*model.CharacterRecord{
		record(runA, "王强", 0.9),
		record(runB, "林平", 0.8),
		record(runA, "张三", 0.75),
		record(runB, "路人", 0.5),
	}}
	return NewEngine(index, testGraphs)
}

func names(results []*model.SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Record.Character.CanonicalName
	}
	return out
}

func TestVectorRetrieve(t *testing.T) {
	engine := testEngine()

	t.Run("Hits above the threshold in similarity order", func(t *testing.T) {
		config := model.DefaultQueryConfig()

		results, err := engine.VectorRetrieve(context.Background(), []float32{1}, &config)

		require.NoError(t, err)
		assert.Equal(t, []string{"王强", "林平", "张三"}, names(results))
		assert.Equal(t, model.StrategyVector, results[0].RetrievalMethod)
		assert.Equal(t, 0.9, results[0].Score)
	})

	t.Run("Excluded run is skipped", func(t *testing.T) {
		config := model.DefaultQueryConfig()
		config.ExcludeRunRID = &runA

		results, err := engine.VectorRetrieve(context.Background(), []float32{1}, &config)

		require.NoError(t, err)
		assert.Equal(t, []string{"林平"}, names(results))
	})

	t.Run("Index errors are returned", func(t *testing.T) {
		failing := NewEngine(staticIndex{err: errors.New("connection refused")}, testGraphs)
		config := model.DefaultQueryConfig()

		_, err := failing.VectorRetrieve(context.Background(), []float32{1}, &config)
		assert.Error(t, err)
	})

	t.Run("Canceled context stops retrieval", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		config := model.DefaultQueryConfig()

		_, err := engine.VectorRetrieve(ctx, []float32{1}, &config)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestExpand(t *testing.T) {
	t.Run("Expand walks the run of the hit", func(t *testing.T) {
		config := model.DefaultQueryConfig()
		config.MaxHops = 2

		results, err := testEngine().Expand(context.Background(), record(runA, "王强", 0.9), &config)

		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "张三", results[2].Character.CanonicalName)
		assert.Equal(t, 2, results[2].Distance)
	})

	t.Run("Expand without graph source fails", func(t *testing.T) {
		config := model.DefaultQueryConfig()

		_, err := NewEngine(staticIndex{}, nil).Expand(context.Background(), record(runA, "王强", 0.9), &config)
		assert.Error(t, err)
	})
}

func TestRetrieve(t *testing.T) {
	t.Run("Retrieve dispatches by strategy", func(t *testing.T) {
		config := model.DefaultQueryConfig()
		config.Strategy = model.StrategyVector

		results, err := testEngine().Retrieve(context.Background(), []float32{1}, &config)

		require.NoError(t, err)
		assert.Equal(t, []string{"王强", "林平", "张三"}, names(results))
	})

	t.Run("Invalid config is rejected", func(t *testing.T) {
		config := model.DefaultQueryConfig()
		config.Strategy = "contextual"

		_, err := testEngine().Retrieve(context.Background(), []float32{1}, &config)
		assert.Error(t, err)
	})
}
