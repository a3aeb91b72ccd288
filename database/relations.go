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
)

// RelationsDBHandlerFunctions defines the interface for Relations database operations.
type RelationsDBHandlerFunctions interface {
	InsertRelation(record *model.RelationRecord) error
	SelectRelationsByRun(runRID uuid.UUID, minWeight int) ([]*model.RelationRecord, error)
	SelectRelationsOfCharacter(runRID uuid.UUID, name string) ([]*model.RelationRecord, error)
	DeleteRelation(id int) error
}

// RelationsDBHandler handles relation-related database operations
type RelationsDBHandler struct {
	db *helper.Database
}

// NewRelationsDBHandler creates a new relations database handler.
// The runs table has to exist before, relations reference their run.
// If force is true, it will reload the SQL functions even if they already exist.
func NewRelationsDBHandler(db *helper.Database, force bool) (*RelationsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	relationsDbHandler := &RelationsDBHandler{
		db: db,
	}

	err := sql.LoadRelationsSql(relationsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load relations sql", err)
	}

	err = relationsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized RelationsDBHandler")

	return relationsDbHandler, nil
}

// CreateTable creates the 'relations' table in the database.
// If the table already exists, it does not create it again.
func (h *RelationsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_relations();`)
	if err != nil {
		log.Panicf("error initializing relations table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table relations")

	return nil
}

// InsertRelation inserts a relation of a run.
// Inserting the same pair and kind again adds to the stored weight.
func (h *RelationsDBHandler) InsertRelation(record *model.RelationRecord) error {
	kind := record.Relation.Kind
	if kind == "" {
		kind = model.RelationKindCoOccurrence
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_relation($1, $2, $3, $4, $5)`,
		record.RunID,
		record.Relation.MemberA,
		record.Relation.MemberB,
		string(kind),
		record.Relation.Weight,
	)

	err := scanRelation(row, record)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectRelationsByRun retrieves the relations of a run with at least minWeight, heaviest first
func (h *RelationsDBHandler) SelectRelationsByRun(runRID uuid.UUID, minWeight int) ([]*model.RelationRecord, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_relations_by_run($1, $2)`,
		runRID,
		minWeight,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var records []*model.RelationRecord
	for rows.Next() {
		record := &model.RelationRecord{}
		err := scanRelation(rows, record)
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

// SelectRelationsOfCharacter retrieves the relations of a run that involve name
func (h *RelationsDBHandler) SelectRelationsOfCharacter(runRID uuid.UUID, name string) ([]*model.RelationRecord, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_relations_of_character($1, $2)`,
		runRID,
		name,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var records []*model.RelationRecord
	for rows.Next() {
		record := &model.RelationRecord{}
		err := scanRelation(rows, record)
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

// DeleteRelation deletes a relation by ID
func (h *RelationsDBHandler) DeleteRelation(id int) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_relation($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

func scanRelation(row scanner, record *model.RelationRecord) error {
	var kind string
	err := row.Scan(
		&record.ID,
		&record.RunID,
		&record.Relation.MemberA,
		&record.Relation.MemberB,
		&kind,
		&record.Relation.Weight,
		&record.CreatedAt,
	)
	record.Relation.Kind = model.RelationKind(kind)
	return err
}
