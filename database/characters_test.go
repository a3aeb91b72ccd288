package database

import (
	"testing"

	"github.com/dancancer/chargraph/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharactersNewCharactersDBHandler(t *testing.T) {
	database := initDB(t)

	_, err := NewRunsDBHandler(database, true)
	require.NoError(t, err, "Expected NewRunsDBHandler to not return an error")

	t.Run("Valid call NewCharactersDBHandler", func(t *testing.T) {
		charactersDbHandler, err := NewCharactersDBHandler(database, testEmbeddingDim, true)
		assert.NoError(t, err, "Expected NewCharactersDBHandler to not return an error")
		require.NotNil(t, charactersDbHandler, "Expected NewCharactersDBHandler to return a non-nil instance")
		assert.Equal(t, testEmbeddingDim, charactersDbHandler.embeddingDim)
	})

	t.Run("Invalid call NewCharactersDBHandler with nil database", func(t *testing.T) {
		_, err := NewCharactersDBHandler(nil, testEmbeddingDim, false)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "database connection is nil")
	})

	t.Run("Invalid call NewCharactersDBHandler with zero dimension", func(t *testing.T) {
		_, err := NewCharactersDBHandler(database, 0, false)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "embedding dimension must be positive")
	})
}

func TestCharactersInsert(t *testing.T) {
	h := initHandlers(t)
	run := insertTestRun(t, h, "人物插入")

	t.Run("Insert character with embedding", func(t *testing.T) {
		record := &model.CharacterRecord{
			RunID: run.ID,
			Character: model.Character{
				ID:                    "c000",
				CanonicalName:         "王强",
				Aliases:               []string{"小王", "王老师"},
				Gender:                model.GenderMale,
				MentionCount:          7,
				QuoteCount:            2,
				FirstAppearanceOffset: 5,
			},
			Embedding: []float32{0.1, 0.2, 0.3, 0.4},
		}

		err := h.characters.InsertCharacter(record)
		require.NoError(t, err, "Expected InsertCharacter to not return an error")
		assert.NotEmpty(t, record.ID)
		assert.Equal(t, run.RID, record.RunRID)
		assert.Equal(t, []string{"小王", "王老师"}, record.Character.Aliases)
		assert.Equal(t, model.GenderMale, record.Character.Gender)
		assert.Equal(t, 5, record.Character.FirstAppearanceOffset)
		assert.InDeltaSlice(t, []float32{0.1, 0.2, 0.3, 0.4}, record.Embedding, 1e-6)
	})

	t.Run("Insert character without embedding", func(t *testing.T) {
		record := &model.CharacterRecord{
			RunID:     run.ID,
			Character: model.Character{ID: "c001", CanonicalName: "李娜", Gender: model.GenderFemale, MentionCount: 3},
		}

		err := h.characters.InsertCharacter(record)
		require.NoError(t, err)
		assert.Empty(t, record.Embedding, "Expected no embedding to be stored")
		assert.Equal(t, []string{}, record.Character.Aliases)
	})

	t.Run("Insert character with wrong embedding dimension", func(t *testing.T) {
		record := &model.CharacterRecord{
			RunID:     run.ID,
			Character: model.Character{ID: "c002", CanonicalName: "赵六"},
			Embedding: []float32{1, 2},
		}

		err := h.characters.InsertCharacter(record)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "expected 4 dimensions")
	})

	t.Run("Insert duplicate canonical name in the same run", func(t *testing.T) {
		record := &model.CharacterRecord{
			RunID:     run.ID,
			Character: model.Character{ID: "c003", CanonicalName: "王强"},
		}

		err := h.characters.InsertCharacter(record)
		assert.Error(t, err, "Expected unique constraint violation")
	})
}

func TestCharactersSelect(t *testing.T) {
	h := initHandlers(t)
	run := insertTestRun(t, h, "人物查询")

	for _, c := range []model.Character{
		{ID: "c000", CanonicalName: "张叔", Aliases: []string{"老张", "张"}, Gender: model.GenderMale, MentionCount: 4},
		{ID: "c001", CanonicalName: "王强", Aliases: []string{"小王"}, Gender: model.GenderMale, MentionCount: 9},
	} {
		require.NoError(t, h.characters.InsertCharacter(&model.CharacterRecord{RunID: run.ID, Character: c}))
	}

	t.Run("Select by run orders by mentions", func(t *testing.T) {
		records, err := h.characters.SelectCharactersByRun(run.RID)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "王强", records[0].Character.CanonicalName)
		assert.Equal(t, "张叔", records[1].Character.CanonicalName)
	})

	t.Run("Select by alias", func(t *testing.T) {
		record, err := h.characters.SelectCharacterByAlias(run.RID, "老张")
		require.NoError(t, err)
		assert.Equal(t, "张叔", record.Character.CanonicalName)
	})

	t.Run("Select by canonical name", func(t *testing.T) {
		record, err := h.characters.SelectCharacterByAlias(run.RID, "王强")
		require.NoError(t, err)
		assert.Equal(t, "c001", record.Character.ID)
	})

	t.Run("Select by unknown alias returns error", func(t *testing.T) {
		_, err := h.characters.SelectCharacterByAlias(run.RID, "陌生人")
		assert.Error(t, err)
	})

	t.Run("Select by alias of another run returns error", func(t *testing.T) {
		_, err := h.characters.SelectCharacterByAlias(uuid.New(), "老张")
		assert.Error(t, err)
	})
}

func TestCharactersSimilarity(t *testing.T) {
	h := initHandlers(t)
	first := insertTestRun(t, h, "相似一")
	second := insertTestRun(t, h, "相似二")

	insert := func(runID int, cid, name string, embedding []float32) *model.CharacterRecord {
		record := &model.CharacterRecord{
			RunID:     runID,
			Character: model.Character{ID: cid, CanonicalName: name},
			Embedding: embedding,
		}
		require.NoError(t, h.characters.InsertCharacter(record))
		return record
	}
	insert(first.ID, "c000", "萧炎", []float32{1, 0, 0, 0})
	insert(first.ID, "c001", "药老", []float32{0, 1, 0, 0})
	insert(second.ID, "c000", "萧炎", []float32{0.9, 0.1, 0, 0})

	t.Run("Most similar character comes first", func(t *testing.T) {
		records, err := h.characters.SelectCharactersBySimilarity([]float32{1, 0, 0, 0}, 5, 0.5, nil)
		require.NoError(t, err)
		require.Len(t, records, 2, "Expected the orthogonal character to be below threshold")
		assert.Equal(t, first.RID, records[0].RunRID)
		assert.InDelta(t, 1.0, records[0].Similarity, 1e-6)
		assert.Equal(t, second.RID, records[1].RunRID)
		assert.Greater(t, records[1].Similarity, 0.9)
	})

	t.Run("Excluded run is skipped", func(t *testing.T) {
		records, err := h.characters.SelectCharactersBySimilarity([]float32{1, 0, 0, 0}, 5, 0.5, &first.RID)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, second.RID, records[0].RunRID)
	})

	t.Run("Wrong dimension returns error", func(t *testing.T) {
		_, err := h.characters.SelectCharactersBySimilarity([]float32{1, 0}, 5, 0.5, nil)
		assert.Error(t, err)
	})
}

func TestCharactersUpdateAndDelete(t *testing.T) {
	h := initHandlers(t)
	run := insertTestRun(t, h, "人物更新")

	record := &model.CharacterRecord{
		RunID:     run.ID,
		Character: model.Character{ID: "c000", CanonicalName: "林动"},
	}
	require.NoError(t, h.characters.InsertCharacter(record))

	t.Run("Update embedding", func(t *testing.T) {
		err := h.characters.UpdateCharacterEmbedding(record.ID, []float32{0, 0, 1, 0})
		require.NoError(t, err)

		updated, err := h.characters.SelectCharacterByAlias(run.RID, "林动")
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float32{0, 0, 1, 0}, updated.Embedding, 1e-6)
	})

	t.Run("Delete character", func(t *testing.T) {
		err := h.characters.DeleteCharacter(record.ID)
		require.NoError(t, err)

		_, err = h.characters.SelectCharacterByAlias(run.RID, "林动")
		assert.Error(t, err)
	})
}
