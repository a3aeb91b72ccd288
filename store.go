package chargraph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dancancer/chargraph/core/graph"
	"github.com/dancancer/chargraph/core/retrieval"
	"github.com/dancancer/chargraph/database"
	"github.com/dancancer/chargraph/helper"
	"github.com/dancancer/chargraph/model"
	loadSql "github.com/dancancer/chargraph/sql"
	"github.com/google/uuid"
)

// ConnectDatabase opens the database and initializes all handlers.
// The profile embedding column is sized by the configured EmbeddingDim.
func (r *Recognizer) ConnectDatabase(config *helper.DatabaseConfiguration) error {
	db := helper.NewDatabase("chargraph", config, r.log)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return helper.NewError("initialize database extensions", err)
	}

	// Runs first, characters and relations reference them.
	// force=false to not reload if functions already exist
	runs, err := database.NewRunsDBHandler(db, false)
	if err != nil {
		return helper.NewError("create runs handler", err)
	}

	characters, err := database.NewCharactersDBHandler(db, r.cfg.EmbeddingDim, false)
	if err != nil {
		return helper.NewError("create characters handler", err)
	}

	relations, err := database.NewRelationsDBHandler(db, false)
	if err != nil {
		return helper.NewError("create relations handler", err)
	}

	r.DB = db
	r.Runs = runs
	r.Characters = characters
	r.Relations = relations

	return nil
}

func (r *Recognizer) requireDatabase(op string) error {
	if r.Runs == nil || r.Characters == nil || r.Relations == nil {
		return helper.NewError(op, fmt.Errorf("database not connected, use ConnectDatabase() first"))
	}
	return nil
}

// Store persists a recognition result as a run with its characters and relations.
// Profiles are stored as character embeddings when present.
// On failure the partially written run is removed again.
func (r *Recognizer) Store(title string, result *model.RecognitionResult) (*model.Run, error) {
	if err := r.requireDatabase("store result"); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, helper.NewError("store result", fmt.Errorf("result is nil"))
	}

	run := model.NewRun(title, result)
	if err := r.Runs.InsertRun(run); err != nil {
		return nil, helper.NewError("insert run", err)
	}

	err := r.storeContent(run, result)
	if err != nil {
		if deleteErr := r.Runs.DeleteRun(run.RID); deleteErr != nil {
			r.log.Error("Failed to remove partial run", slog.String("run_id", run.RID.String()), slog.String("error", deleteErr.Error()))
		}
		return nil, err
	}

	r.log.Info("Stored run",
		slog.String("run_id", run.RID.String()),
		slog.String("title", title),
		slog.Int("characters", len(result.Characters)),
		slog.Int("relations", len(result.Relations)),
	)

	return run, nil
}

func (r *Recognizer) storeContent(run *model.Run, result *model.RecognitionResult) error {
	for i, c := range result.Characters {
		record := &model.CharacterRecord{
			RunID:     run.ID,
			Character: *c,
			Embedding: result.Profiles[c.CanonicalName],
		}
		if err := r.Characters.InsertCharacter(record); err != nil {
			return helper.NewError(fmt.Sprintf("insert character %d", i), err)
		}
	}

	for i, rel := range result.Relations {
		record := &model.RelationRecord{
			RunID:    run.ID,
			Relation: rel,
		}
		if err := r.Relations.InsertRelation(record); err != nil {
			return helper.NewError(fmt.Sprintf("insert relation %d", i), err)
		}
	}

	return nil
}

// LoadResult rebuilds the characters, alias map and relations of a stored run.
// Pronoun and dialogue annotations are not persisted.
func (r *Recognizer) LoadResult(runRID uuid.UUID) (*model.RecognitionResult, error) {
	if err := r.requireDatabase("load result"); err != nil {
		return nil, err
	}

	run, err := r.Runs.SelectRun(runRID)
	if err != nil {
		return nil, helper.NewError("select run", err)
	}

	characterRecords, err := r.Characters.SelectCharactersByRun(runRID)
	if err != nil {
		return nil, helper.NewError("select characters", err)
	}

	relationRecords, err := r.Relations.SelectRelationsByRun(runRID, 0)
	if err != nil {
		return nil, helper.NewError("select relations", err)
	}

	result := &model.RecognitionResult{
		RunID:      run.RID,
		Characters: make([]*model.Character, 0, len(characterRecords)),
		AliasMap:   model.AliasMap{},
		Relations:  make([]model.Relation, 0, len(relationRecords)),
		Pronouns:   model.PronounResolution{},
		Profiles:   map[string][]float32{},
	}
	for _, record := range characterRecords {
		character := record.Character
		result.Characters = append(result.Characters, &character)
		for _, name := range character.Names() {
			result.AliasMap[name] = character.CanonicalName
		}
		if len(record.Embedding) > 0 {
			result.Profiles[character.CanonicalName] = record.Embedding
		}
	}
	for _, record := range relationRecords {
		result.Relations = append(result.Relations, record.Relation)
	}

	stats := run.Statistics
	result.Statistics = model.Statistics{
		TotalCharacters: len(result.Characters),
		TextLength:      run.TextLength,
		SentenceCount:   run.SentenceCount,
		MergeStrategy:   run.MergeStrategy,
	}
	result.Statistics.TotalMentions, _ = stats.Int("total_mentions")
	result.Statistics.TotalDialogues, _ = stats.Int("total_dialogues")
	result.Statistics.ResolvedPronouns, _ = stats.Int("resolved_pronouns")

	return result, nil
}

// FindCharacter looks up a character of a stored run by any of its names
func (r *Recognizer) FindCharacter(runRID uuid.UUID, name string) (*model.CharacterRecord, error) {
	if err := r.requireDatabase("find character"); err != nil {
		return nil, err
	}
	return r.Characters.SelectCharacterByAlias(runRID, name)
}

// SimilarCharacters finds characters of other runs whose profile is close to
// the profile of the named character
func (r *Recognizer) SimilarCharacters(runRID uuid.UUID, name string, limit int, threshold float64) ([]*model.CharacterRecord, error) {
	if err := r.requireDatabase("similar characters"); err != nil {
		return nil, err
	}

	record, err := r.Characters.SelectCharacterByAlias(runRID, name)
	if err != nil {
		return nil, helper.NewError("select character", err)
	}
	if len(record.Embedding) == 0 {
		return nil, helper.NewError("similar characters", fmt.Errorf("character %q has no profile embedding", record.Character.CanonicalName))
	}

	return r.Characters.SelectCharactersBySimilarity(record.Embedding, limit, threshold, &runRID)
}

// Explore performs a breadth-first traversal over the relations of a stored run
func (r *Recognizer) Explore(ctx context.Context, runRID uuid.UUID, name string, maxHops int, minWeight int) ([]*graph.TraversalResult, error) {
	if err := r.requireDatabase("explore"); err != nil {
		return nil, err
	}

	runGraph, err := database.NewRunGraph(runRID, r.Characters, r.Relations)
	if err != nil {
		return nil, err
	}
	return graph.BFS(ctx, runGraph, name, maxHops, minWeight)
}

// ExploreResult performs a breadth-first traversal over an in-memory result
func (r *Recognizer) ExploreResult(ctx context.Context, result *model.RecognitionResult, name string, maxHops int, minWeight int) ([]*graph.TraversalResult, error) {
	return graph.BFS(ctx, graph.NewResultGraph(result), name, maxHops, minWeight)
}

// SearchCharacters embeds query and searches the stored character profiles.
// Depending on the strategy, characters related to the hits are added.
func (r *Recognizer) SearchCharacters(ctx context.Context, query string, config model.QueryConfig) ([]*model.SearchResult, error) {
	if err := r.requireDatabase("search characters"); err != nil {
		return nil, err
	}
	if r.Pipeline == nil || r.Pipeline.Embedder == nil {
		return nil, helper.NewError("search characters", fmt.Errorf("no embedder configured, use UseDefaultPipeline() first"))
	}

	vectors, err := r.Pipeline.Embedder([]string{query})
	if err != nil {
		return nil, helper.NewError("embed query", err)
	}
	if len(vectors) != 1 {
		return nil, helper.NewError("embed query", fmt.Errorf("expected 1 embedding, got %d", len(vectors)))
	}

	engine := retrieval.NewEngine(r.Characters, func(runRID uuid.UUID) (graph.RelationSource, error) {
		return database.NewRunGraph(runRID, r.Characters, r.Relations)
	})
	results, err := engine.Retrieve(ctx, vectors[0], &config)
	if err != nil {
		return nil, helper.NewError("retrieve characters", err)
	}

	r.log.Debug("Searched characters",
		slog.String("strategy", config.Strategy),
		slog.Int("results", len(results)),
	)

	return results, nil
}

// ChangeIndexType changes the profile embedding index between HNSW and IVFFlat
func (r *Recognizer) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	if err := r.requireDatabase("change index type"); err != nil {
		return err
	}
	return r.Characters.ChangeIndexType(ctx, indexType, params)
}
