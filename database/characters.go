package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dancancer/chargraph/helper"
	"github.com/dancancer/chargraph/model"
	"github.com/dancancer/chargraph/sql"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// CharactersDBHandlerFunctions defines the interface for Characters database operations.
type CharactersDBHandlerFunctions interface {
	InsertCharacter(record *model.CharacterRecord) error
	SelectCharactersByRun(runRID uuid.UUID) ([]*model.CharacterRecord, error)
	SelectCharacterByAlias(runRID uuid.UUID, alias string) (*model.CharacterRecord, error)
	SelectCharactersBySimilarity(embedding []float32, limit int, threshold float64, excludeRunRID *uuid.UUID) ([]*model.CharacterRecord, error)
	UpdateCharacterEmbedding(id int, embedding []float32) error
	DeleteCharacter(id int) error
}

// CharactersDBHandler handles character-related database operations
type CharactersDBHandler struct {
	db           *helper.Database
	embeddingDim int
}

// NewCharactersDBHandler creates a new characters database handler.
// The runs table has to exist before, characters reference their run.
// If force is true, it will reload the SQL functions even if they already exist.
func NewCharactersDBHandler(db *helper.Database, embeddingDim int, force bool) (*CharactersDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if embeddingDim <= 0 {
		return nil, helper.NewError("embedding dimension validation", fmt.Errorf("embedding dimension must be positive, got %d", embeddingDim))
	}

	charactersDbHandler := &CharactersDBHandler{
		db:           db,
		embeddingDim: embeddingDim,
	}

	err := sql.LoadCharactersSql(charactersDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load characters sql", err)
	}

	err = charactersDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized CharactersDBHandler")

	return charactersDbHandler, nil
}

// CreateTable creates the 'characters' table with an embedding column of the given dimension.
// If the table already exists, it does not create it again.
func (h *CharactersDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_characters($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing characters table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table characters")

	return nil
}

// InsertCharacter inserts a character of a run. RunID has to be set.
func (h *CharactersDBHandler) InsertCharacter(record *model.CharacterRecord) error {
	embedding, err := h.embeddingParam(record.Embedding)
	if err != nil {
		return helper.NewError("embedding", err)
	}

	c := record.Character
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_character($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		record.RunID,
		c.ID,
		c.CanonicalName,
		pq.Array(c.Aliases),
		string(c.Gender),
		c.MentionCount,
		c.QuoteCount,
		c.FirstAppearanceOffset,
		embedding,
	)

	err = scanCharacter(row, record)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectCharactersByRun retrieves all characters of a run, most mentioned first
func (h *CharactersDBHandler) SelectCharactersByRun(runRID uuid.UUID) ([]*model.CharacterRecord, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_characters_by_run($1)`,
		runRID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var records []*model.CharacterRecord
	for rows.Next() {
		record := &model.CharacterRecord{}
		err := scanCharacter(rows, record)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		records = append(records, record)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return records, nil
}

// SelectCharacterByAlias retrieves the character of a run that carries the given
// surface form, either as canonical name or as alias
func (h *CharactersDBHandler) SelectCharacterByAlias(runRID uuid.UUID, alias string) (*model.CharacterRecord, error) {
	record := &model.CharacterRecord{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_character_by_alias($1, $2)`,
		runRID,
		alias,
	)

	err := scanCharacter(row, record)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return record, nil
}

// SelectCharactersBySimilarity finds characters with a similar profile embedding.
// Characters of excludeRunRID are skipped when it is set.
func (h *CharactersDBHandler) SelectCharactersBySimilarity(embedding []float32, limit int, threshold float64, excludeRunRID *uuid.UUID) ([]*model.CharacterRecord, error) {
	if len(embedding) != h.embeddingDim {
		return nil, helper.NewError("embedding", fmt.Errorf("expected %d dimensions, got %d", h.embeddingDim, len(embedding)))
	}
	embeddingVector := pgvector.NewVector(embedding)

	var excludeParam interface{}
	if excludeRunRID != nil {
		excludeParam = *excludeRunRID
	}

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_characters_by_similarity($1, $2, $3, $4)`,
		embeddingVector,
		limit,
		threshold,
		excludeParam,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var records []*model.CharacterRecord
	for rows.Next() {
		record := &model.CharacterRecord{}
		err := scanCharacter(rows, record, &record.Similarity)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		records = append(records, record)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return records, nil
}

// UpdateCharacterEmbedding sets the profile embedding of a character
func (h *CharactersDBHandler) UpdateCharacterEmbedding(id int, embedding []float32) error {
	embeddingParam, err := h.embeddingParam(embedding)
	if err != nil {
		return helper.NewError("embedding", err)
	}

	_, err = h.db.Instance.Exec(
		`SELECT update_character_embedding($1, $2)`,
		id,
		embeddingParam,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// DeleteCharacter deletes a character by ID
func (h *CharactersDBHandler) DeleteCharacter(id int) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_character($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// embeddingParam returns NULL for a missing embedding
func (h *CharactersDBHandler) embeddingParam(embedding []float32) (interface{}, error) {
	if len(embedding) == 0 {
		return nil, nil
	}
	if len(embedding) != h.embeddingDim {
		return nil, fmt.Errorf("expected %d dimensions, got %d", h.embeddingDim, len(embedding))
	}
	return pgvector.NewVector(embedding), nil
}

func scanCharacter(row scanner, record *model.CharacterRecord, extra ...interface{}) error {
	var aliases []string
	var gender string
	dest := []interface{}{
		&record.ID,
		&record.RunID,
		&record.RunRID,
		&record.Character.ID,
		&record.Character.CanonicalName,
		pq.Array(&aliases),
		&gender,
		&record.Character.MentionCount,
		&record.Character.QuoteCount,
		&record.Character.FirstAppearanceOffset,
		pq.Array(&record.Embedding),
		&record.CreatedAt,
	}

	err := row.Scan(append(dest, extra...)...)
	if err != nil {
		return err
	}

	if aliases == nil {
		aliases = []string{}
	}
	record.Character.Aliases = aliases
	record.Character.Gender = model.Gender(gender)
	return nil
}
