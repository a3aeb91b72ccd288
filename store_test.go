package chargraph

import (
	"context"
	"testing"

	"github.com/dancancer/chargraph/core/pipeline"
	"github.com/dancancer/chargraph/helper"
	"github.com/dancancer/chargraph/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initStoringRecognizer(t *testing.T, embedder pipeline.EmbedFunc) *Recognizer {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")

	r := newTestRecognizer(t, WithPipeline(pipeline.NewPipeline(namesDetector("王强", "李娜"), embedder)))
	err = r.ConnectDatabase(dbConfig)
	require.NoError(t, err, "Expected ConnectDatabase to not return an error")

	return r
}

func TestConnectDatabase(t *testing.T) {
	t.Run("Handlers are initialized", func(t *testing.T) {
		r := initStoringRecognizer(t, nil)
		assert.NotNil(t, r.DB)
		assert.NotNil(t, r.Runs)
		assert.NotNil(t, r.Characters)
		assert.NotNil(t, r.Relations)
	})

	t.Run("Database methods fail when not connected", func(t *testing.T) {
		r := newTestRecognizer(t)

		_, err := r.Store("未连接", &model.RecognitionResult{})
		assert.ErrorContains(t, err, "database not connected")
		_, err = r.LoadResult(uuid.New())
		assert.Error(t, err)
		_, err = r.FindCharacter(uuid.New(), "王强")
		assert.Error(t, err)
		_, err = r.Explore(context.Background(), uuid.New(), "王强", 1, 1)
		assert.Error(t, err)
		_, err = r.SearchCharacters(context.Background(), "客栈", model.DefaultQueryConfig())
		assert.Error(t, err)
		assert.Error(t, r.ChangeIndexType(context.Background(), "hnsw", nil))
	})
}

func TestStore(t *testing.T) {
	r := initStoringRecognizer(t, orthogonalEmbedder(4))

	opts := model.DefaultRecognitionOptions()
	opts.EmbedProfiles = true
	result, err := r.Recognize(innText, opts)
	require.NoError(t, err)

	run, err := r.Store("客栈", result)
	require.NoError(t, err, "Expected Store to not return an error")
	t.Cleanup(func() { r.Runs.DeleteRun(run.RID) })

	t.Run("Run keeps the result identity and statistics", func(t *testing.T) {
		assert.Equal(t, result.RunID, run.RID)
		assert.Equal(t, "客栈", run.Title)
		assert.Equal(t, result.Statistics.SentenceCount, run.SentenceCount)
		assert.Equal(t, model.MergeStrategySemantic, run.MergeStrategy)
	})

	t.Run("Load rebuilds characters and relations", func(t *testing.T) {
		loaded, err := r.LoadResult(run.RID)
		require.NoError(t, err)

		require.Len(t, loaded.Characters, 2)
		assert.Equal(t, "王强", loaded.Characters[0].CanonicalName)
		assert.Equal(t, 1, loaded.Characters[0].QuoteCount)
		assert.Equal(t, result.Relations, loaded.Relations)
		assert.Equal(t, result.AliasMap, loaded.AliasMap)
		assert.Len(t, loaded.Profiles["王强"], 4)
		assert.Equal(t, result.Statistics.TotalMentions, loaded.Statistics.TotalMentions)
	})

	t.Run("Find character by name", func(t *testing.T) {
		record, err := r.FindCharacter(run.RID, "李娜")
		require.NoError(t, err)
		assert.Equal(t, "李娜", record.Character.CanonicalName)
	})

	t.Run("Explore stored relations", func(t *testing.T) {
		results, err := r.Explore(context.Background(), run.RID, "王强", 2, 1)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "李娜", results[1].Character.CanonicalName)
		assert.Equal(t, 3, results[1].Weight)
	})

	t.Run("Nil result is rejected", func(t *testing.T) {
		_, err := r.Store("空", nil)
		assert.Error(t, err)
	})
}

func TestSimilarCharacters(t *testing.T) {
	r := initStoringRecognizer(t, orthogonalEmbedder(4))

	opts := model.DefaultRecognitionOptions()
	opts.EmbedProfiles = true

	first, err := r.Recognize(innText, opts)
	require.NoError(t, err)
	firstRun, err := r.Store("第一回", first)
	require.NoError(t, err)
	t.Cleanup(func() { r.Runs.DeleteRun(firstRun.RID) })

	second, err := r.Recognize(innText, opts)
	require.NoError(t, err)
	secondRun, err := r.Store("第二回", second)
	require.NoError(t, err)
	t.Cleanup(func() { r.Runs.DeleteRun(secondRun.RID) })

	t.Run("Same character is found in the other run", func(t *testing.T) {
		records, err := r.SimilarCharacters(firstRun.RID, "王强", 5, 0.9)
		require.NoError(t, err)
		require.NotEmpty(t, records)
		assert.Equal(t, secondRun.RID, records[0].RunRID)
		assert.Equal(t, "王强", records[0].Character.CanonicalName)
		for _, record := range records {
			assert.NotEqual(t, firstRun.RID, record.RunRID, "Expected the own run to be excluded")
		}
	})

	t.Run("Change index after loading", func(t *testing.T) {
		err := r.ChangeIndexType(context.Background(), "ivfflat", map[string]interface{}{"lists": 1})
		assert.NoError(t, err)
		err = r.ChangeIndexType(context.Background(), "hnsw", map[string]interface{}{})
		assert.NoError(t, err)
	})
}

func TestSearchCharacters(t *testing.T) {
	r := initStoringRecognizer(t, orthogonalEmbedder(4))

	opts := model.DefaultRecognitionOptions()
	opts.EmbedProfiles = true
	result, err := r.Recognize(innText, opts)
	require.NoError(t, err)
	run, err := r.Store("搜索", result)
	require.NoError(t, err)
	t.Cleanup(func() { r.Runs.DeleteRun(run.RID) })

	t.Run("Vector search finds the matching profile", func(t *testing.T) {
		config := model.DefaultQueryConfig()
		config.Strategy = model.StrategyVector
		config.SimilarityThreshold = 0.9

		results, err := r.SearchCharacters(context.Background(), "走进客栈的人", config)

		require.NoError(t, err)
		require.NotEmpty(t, results)
		for _, res := range results {
			assert.Equal(t, "王强", res.Record.Character.CanonicalName)
			assert.InDelta(t, 1.0, res.SimilarityScore, 1e-6)
		}
	})

	t.Run("Hybrid search adds related characters", func(t *testing.T) {
		config := model.DefaultQueryConfig()
		config.SimilarityThreshold = 0.9
		config.TopK = 50

		results, err := r.SearchCharacters(context.Background(), "走进客栈的人", config)

		require.NoError(t, err)
		found := false
		for _, res := range results {
			if res.Record.RunRID == run.RID && res.Record.Character.CanonicalName == "李娜" {
				found = true
				assert.Equal(t, 1, res.GraphDistance)
				assert.Equal(t, "王强", res.Via)
			}
		}
		assert.True(t, found, "Expected 李娜 to be reached from 王强")
	})

	t.Run("Search without embedder fails", func(t *testing.T) {
		r.SetPipeline(nil)
		t.Cleanup(func() { r.SetPipeline(pipeline.NewPipeline(nil, orthogonalEmbedder(4))) })

		_, err := r.SearchCharacters(context.Background(), "客栈", model.DefaultQueryConfig())
		assert.ErrorContains(t, err, "no embedder")
	})
}
