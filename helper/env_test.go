package helper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvGetters(t *testing.T) {
	t.Run("Unset variables return fallback", func(t *testing.T) {
		t.Setenv("CHARGRAPH_TEST_UNSET", "")

		assert.Equal(t, "fallback", GetEnvString("CHARGRAPH_TEST_UNSET", "fallback"))
		i, err := GetEnvInt("CHARGRAPH_TEST_UNSET", 3)
		require.NoError(t, err)
		assert.Equal(t, 3, i)
	})

	t.Run("Set variables are parsed", func(t *testing.T) {
		t.Setenv("CHARGRAPH_TEST_INT", "12")
		t.Setenv("CHARGRAPH_TEST_FLOAT", "0.85")

		i, err := GetEnvInt("CHARGRAPH_TEST_INT", 0)
		require.NoError(t, err)
		f, err := GetEnvFloat("CHARGRAPH_TEST_FLOAT", 0)
		require.NoError(t, err)

		assert.Equal(t, 12, i)
		assert.Equal(t, 0.85, f)
	})

	t.Run("Malformed numbers return error", func(t *testing.T) {
		t.Setenv("CHARGRAPH_TEST_INT", "twelve")

		_, err := GetEnvInt("CHARGRAPH_TEST_INT", 0)
		assert.Error(t, err)
	})
}

func TestLoadEnv(t *testing.T) {
	t.Run("Missing file is not an error", func(t *testing.T) {
		assert.NoError(t, LoadEnv(filepath.Join(t.TempDir(), "missing.env")))
	})

	t.Run("Existing file is loaded", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test.env")
		require.NoError(t, os.WriteFile(path, []byte("CHARGRAPH_TEST_DOTENV=loaded\n"), 0600))
		t.Setenv("CHARGRAPH_TEST_DOTENV", "")
		require.NoError(t, os.Unsetenv("CHARGRAPH_TEST_DOTENV"))

		require.NoError(t, LoadEnv(path))
		assert.Equal(t, "loaded", os.Getenv("CHARGRAPH_TEST_DOTENV"))
	})
}

func TestDatabaseConfiguration(t *testing.T) {
	t.Run("Reads settings from environment", func(t *testing.T) {
		SetTestDatabaseConfigEnvs(t, "55432")

		config, err := NewDatabaseConfiguration()
		require.NoError(t, err)

		assert.Equal(t, "55432", config.Port)
		assert.Equal(t, testDatabase, config.Database)
		assert.Contains(t, config.ConnectionString(), "sslmode=disable")
		assert.Contains(t, config.ConnectionString(), "localhost:55432/database")
	})

	t.Run("Missing database name is rejected", func(t *testing.T) {
		SetTestDatabaseConfigEnvs(t, "55432")
		t.Setenv("CHARGRAPH_DB_DATABASE", "")

		_, err := NewDatabaseConfiguration()
		assert.Error(t, err)
	})
}
