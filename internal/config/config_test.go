package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/openforest/stemsync/internal/blob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) *Config {
	return &Config{
		DataDir: t.TempDir(),
		Ledger:  LedgerConfig{URL: "https://ledger.example.org"},
		S3: blob.S3Config{
			BucketName: "stems",
			Region:     "eu-central-1",
		},
		SyncInterval: 15 * time.Minute,
	}
}

func TestValidate(t *testing.T) {
	cfg := validConfig(t)
	require.NoError(t, cfg.Validate())

	cfg = validConfig(t)
	cfg.DataDir = ""
	require.Error(t, cfg.Validate())

	cfg = validConfig(t)
	cfg.Ledger.URL = ""
	require.Error(t, cfg.Validate())

	cfg = validConfig(t)
	cfg.S3.BucketName = ""
	require.Error(t, cfg.Validate())

	// region can be omitted only with a custom endpoint
	cfg = validConfig(t)
	cfg.S3.Region = ""
	require.Error(t, cfg.Validate())
	cfg.S3.Endpoint = "http://localhost:9000"
	require.NoError(t, cfg.Validate())
}

func TestDerivedPaths(t *testing.T) {
	cfg := validConfig(t)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, filepath.Join(cfg.DataDir, "stemsync.db"), cfg.StorePath())
	assert.Equal(t, filepath.Join(cfg.DataDir, "stemsync.lock"), cfg.LockPath())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := validConfig(t)
	cfg.Ledger.APIKey = "secret"
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.DataDir, got.DataDir)
	assert.Equal(t, cfg.Ledger, got.Ledger)
	assert.Equal(t, cfg.S3, got.S3)
	assert.Equal(t, cfg.SyncInterval, got.SyncInterval)
	assert.Equal(t, path, got.Path)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
