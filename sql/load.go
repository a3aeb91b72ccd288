package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed runs.sql
var runsSQL string

//go:embed characters.sql
var charactersSQL string

//go:embed relations.sql
var relationsSQL string

// Function lists for verification
var RunsFunctions = []string{
	"init_runs",
	"insert_run",
	"select_run",
	"select_all_runs",
	"search_runs",
	"delete_run",
}

var CharactersFunctions = []string{
	"init_characters",
	"insert_character",
	"select_characters_by_run",
	"select_character_by_alias",
	"select_characters_by_similarity",
	"update_character_embedding",
	"delete_character",
}

var RelationsFunctions = []string{
	"init_relations",
	"insert_relation",
	"select_relations_by_run",
	"select_relations_of_character",
	"delete_relation",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadRunsSql loads run-related SQL functions
func LoadRunsSql(db *sql.DB, force bool) error {
	return loadFunctions(db, "runs", runsSQL, RunsFunctions, force)
}

// LoadCharactersSql loads character-related SQL functions
func LoadCharactersSql(db *sql.DB, force bool) error {
	return loadFunctions(db, "characters", charactersSQL, CharactersFunctions, force)
}

// LoadRelationsSql loads relation-related SQL functions
func LoadRelationsSql(db *sql.DB, force bool) error {
	return loadFunctions(db, "relations", relationsSQL, RelationsFunctions, force)
}

// LoadAllSql loads all SQL functions
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadRunsSql(db, force); err != nil {
		return err
	}

	if err := LoadCharactersSql(db, force); err != nil {
		return err
	}

	if err := LoadRelationsSql(db, force); err != nil {
		return err
	}

	return nil
}

// loadFunctions executes a SQL bundle unless all of its functions already
// exist, then verifies that they do
func loadFunctions(db *sql.DB, name string, bundle string, functions []string, force bool) error {
	if !force {
		exist, err := checkFunctions(db, functions)
		if err != nil {
			return fmt.Errorf("error checking existing %s functions: %w", name, err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(bundle)
	if err != nil {
		return fmt.Errorf("error executing %s SQL: %w", name, err)
	}

	exist, err := checkFunctions(db, functions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Printf("SQL %s functions loaded successfully", name)
	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
