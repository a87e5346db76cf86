package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/openforest/stemsync/internal/blob"
	"github.com/openforest/stemsync/internal/utils"
)

var (
	home, _           = os.UserHomeDir()
	DefaultConfigPath = filepath.Join(home, ".stemsync", "config.json")
	DefaultDataDir    = filepath.Join(home, ".stemsync")
	DefaultLogFile    = filepath.Join(home, ".stemsync", "logs", "stemsync.log")
)

const (
	storeFileName = "stemsync.db"
	lockFileName  = "stemsync.lock"
)

// LedgerConfig points at the stems ledger API.
type LedgerConfig struct {
	URL    string `json:"url" mapstructure:"url"`
	APIKey string `json:"api_key,omitempty" mapstructure:"api_key"`
}

type Config struct {
	DataDir      string        `json:"data_dir" mapstructure:"data_dir"`
	Ledger       LedgerConfig  `json:"ledger" mapstructure:"ledger"`
	S3           blob.S3Config `json:"s3" mapstructure:"s3"`
	SyncInterval time.Duration `json:"sync_interval" mapstructure:"sync_interval"`
	Path         string        `json:"-" mapstructure:"-"`
}

func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("config: data dir required")
	}
	dataDir, err := utils.ResolvePath(c.DataDir)
	if err != nil {
		return fmt.Errorf("config: resolve data dir: %w", err)
	}
	c.DataDir = dataDir

	if c.Ledger.URL == "" {
		return errors.New("config: ledger url required")
	}
	if c.S3.BucketName == "" {
		return errors.New("config: s3 bucket required")
	}
	if c.S3.Region == "" && c.S3.Endpoint == "" {
		return errors.New("config: s3 region or endpoint required")
	}
	return nil
}

// StorePath is the SQLite database holding queue, device id and cached
// remote total.
func (c *Config) StorePath() string {
	return filepath.Join(c.DataDir, storeFileName)
}

// LockPath is the flock file that keeps the data dir single-daemon.
func (c *Config) LockPath() string {
	return filepath.Join(c.DataDir, lockFileName)
}

func (c *Config) Save(path string) error {
	if err := utils.EnsureParent(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.Path = path
	return &cfg, nil
}
