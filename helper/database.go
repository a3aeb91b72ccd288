package helper

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
)

// DatabaseConfiguration holds the PostgreSQL connection settings
type DatabaseConfiguration struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	Schema   string
	SSLMode  string
}

// NewDatabaseConfiguration reads the connection settings from the environment.
// A .env file in the working directory is loaded first if present.
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	if err := LoadEnv(); err != nil {
		return nil, NewError("load env", err)
	}

	config := &DatabaseConfiguration{
		Host:     GetEnvString("CHARGRAPH_DB_HOST", "localhost"),
		Port:     GetEnvString("CHARGRAPH_DB_PORT", "5432"),
		Database: os.Getenv("CHARGRAPH_DB_DATABASE"),
		Username: os.Getenv("CHARGRAPH_DB_USERNAME"),
		Password: os.Getenv("CHARGRAPH_DB_PASSWORD"),
		Schema:   GetEnvString("CHARGRAPH_DB_SCHEMA", "public"),
		SSLMode:  GetEnvString("CHARGRAPH_DB_SSLMODE", "disable"),
	}

	if config.Database == "" || config.Username == "" {
		return nil, NewError("database configuration", fmt.Errorf("CHARGRAPH_DB_DATABASE and CHARGRAPH_DB_USERNAME must be set"))
	}

	return config, nil
}

// ConnectionString returns the lib/pq connection URL
func (c *DatabaseConfiguration) ConnectionString() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Username, c.Password),
		Host:   c.Host + ":" + c.Port,
		Path:   c.Database,
	}
	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	if c.Schema != "" {
		q.Set("search_path", c.Schema)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Database bundles a connection pool with the logger of its owner
type Database struct {
	Name     string
	Instance *sql.DB
	Logger   *slog.Logger
}

// NewDatabase connects to PostgreSQL and verifies the connection.
// It panics if the database cannot be reached.
func NewDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) *Database {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := connect(config)
	if err != nil {
		log.Panicf("error connecting to database %s: %v", name, err)
	}

	logger.Info("Connected to database", slog.String("name", name), slog.String("host", config.Host), slog.String("database", config.Database))

	return &Database{
		Name:     name,
		Instance: db,
		Logger:   logger,
	}
}

// NewTestDatabase connects with a logger that only reports errors
func NewTestDatabase(config *DatabaseConfiguration) *Database {
	return NewDatabase("test", config, NewLogger(os.Stdout, slog.LevelError))
}

// Close closes the connection pool
func (d *Database) Close() error {
	if d == nil || d.Instance == nil {
		return nil
	}
	return d.Instance.Close()
}

func connect(config *DatabaseConfiguration) (*sql.DB, error) {
	db, err := sql.Open("postgres", config.ConnectionString())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// SetTestDatabaseConfigEnvs points the database configuration at a test container
func SetTestDatabaseConfigEnvs(t *testing.T, port string) {
	t.Setenv("CHARGRAPH_DB_HOST", "localhost")
	t.Setenv("CHARGRAPH_DB_PORT", port)
	t.Setenv("CHARGRAPH_DB_DATABASE", testDatabase)
	t.Setenv("CHARGRAPH_DB_USERNAME", testUsername)
	t.Setenv("CHARGRAPH_DB_PASSWORD", testPassword)
	t.Setenv("CHARGRAPH_DB_SCHEMA", "public")
	t.Setenv("CHARGRAPH_DB_SSLMODE", "disable")
}
