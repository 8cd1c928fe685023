package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DATABASE", "sqcbdb")
	t.Setenv("DB_APP_USER", "sqcb")
	t.Setenv("DB_APP_PASSWORD", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "mysql", cfg.DBType)
	assert.Equal(t, "local", cfg.StorageType)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.Equal(t, "*", cfg.CORSOrigins)
	assert.True(t, cfg.DBAutoMigrate)

	// User pool inherits app credentials
	assert.Equal(t, "sqcb", cfg.DBUser)
	assert.Equal(t, "secret", cfg.DBPassword)
}

func TestLoadRequiresDatabase(t *testing.T) {
	t.Setenv("DB_DATABASE", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DATABASE")
}

func TestLoadSQLiteNeedsNoUser(t *testing.T) {
	t.Setenv("DB_TYPE", "SQLite")
	t.Setenv("DB_DATABASE", "file::memory:")
	t.Setenv("DB_APP_USER", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBType)
}

func TestValidateStorage(t *testing.T) {
	cfg := &Config{DBType: "sqlite", DBDatabase: "x.db", StorageType: "s3", BcryptCost: 10}
	require.Error(t, cfg.Validate())

	cfg.S3Bucket = "quality-files"
	require.NoError(t, cfg.Validate())

	cfg.StorageType = "ftp"
	require.Error(t, cfg.Validate())
}

func TestInvalidIntFallsBack(t *testing.T) {
	t.Setenv("DB_APP_CONNECTION_LIMIT", "many")
	assert.Equal(t, 10, getEnvAsInt("DB_APP_CONNECTION_LIMIT", 10))
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SQCB_TEST_ENV_VALUE=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("SQCB_TEST_ENV_VALUE") })

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("SQCB_TEST_ENV_VALUE"))

	require.NoError(t, LoadEnvFile(""))
	require.Error(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}
