package database

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/dancancer/chargraph/helper"
	"github.com/dancancer/chargraph/model"
	loadSql "github.com/dancancer/chargraph/sql"
	"github.com/stretchr/testify/require"
)

var dbPort string

func TestMain(m *testing.M) {
	teardown, port, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}
	dbPort = port

	code := m.Run()

	if err := teardown(context.Background()); err != nil {
		log.Printf("error tearing down postgres container: %v", err)
	}
	os.Exit(code)
}

func initDB(t *testing.T) *helper.Database {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")
	database := helper.NewTestDatabase(dbConfig)

	err = loadSql.Init(database.Instance)
	require.NoError(t, err)

	return database
}

const testEmbeddingDim = 4

type testHandlers struct {
	runs       *RunsDBHandler
	characters *CharactersDBHandler
	relations  *RelationsDBHandler
}

func initHandlers(t *testing.T) testHandlers {
	database := initDB(t)

	runs, err := NewRunsDBHandler(database, true)
	require.NoError(t, err, "Expected NewRunsDBHandler to not return an error")
	characters, err := NewCharactersDBHandler(database, testEmbeddingDim, true)
	require.NoError(t, err, "Expected NewCharactersDBHandler to not return an error")
	relations, err := NewRelationsDBHandler(database, true)
	require.NoError(t, err, "Expected NewRelationsDBHandler to not return an error")

	return testHandlers{runs: runs, characters: characters, relations: relations}
}

func insertTestRun(t *testing.T, h testHandlers, title string) *model.Run {
	run := &model.Run{
		Title:         title,
		TextLength:    120,
		SentenceCount: 6,
		MergeStrategy: model.MergeStrategyString,
		Statistics:    model.Metadata{"total_characters": 2},
	}
	require.NoError(t, h.runs.InsertRun(run))
	t.Cleanup(func() { h.runs.DeleteRun(run.RID) })
	return run
}
