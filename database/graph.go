package database

import (
	"context"
	"fmt"

	"github.com/dancancer/chargraph/helper"
	"github.com/dancancer/chargraph/model"
	"github.com/google/uuid"
)

// RunGraph reads the relation graph of one stored run.
// It satisfies graph.RelationSource, so traversals run directly against the database.
type RunGraph struct {
	RunRID     uuid.UUID
	Characters *CharactersDBHandler
	Relations  *RelationsDBHandler
}

// NewRunGraph creates a relation source for the given run
func NewRunGraph(runRID uuid.UUID, characters *CharactersDBHandler, relations *RelationsDBHandler) (*RunGraph, error) {
	if characters == nil || relations == nil {
		return nil, helper.NewError("run graph", fmt.Errorf("characters and relations handlers are required"))
	}
	return &RunGraph{RunRID: runRID, Characters: characters, Relations: relations}, nil
}

// GetCharacter returns the character with the given name or alias
func (g *RunGraph) GetCharacter(ctx context.Context, name string) (*model.Character, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	record, err := g.Characters.SelectCharacterByAlias(g.RunRID, name)
	if err != nil {
		return nil, helper.NewError("get character", err)
	}
	character := record.Character
	return &character, nil
}

// GetRelationsOf returns the relations involving the canonical name
func (g *RunGraph) GetRelationsOf(ctx context.Context, name string) ([]model.Relation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := g.Relations.SelectRelationsOfCharacter(g.RunRID, name)
	if err != nil {
		return nil, helper.NewError("get relations", err)
	}
	relations := make([]model.Relation, 0, len(records))
	for _, record := range records {
		relations = append(relations, record.Relation)
	}
	return relations, nil
}
