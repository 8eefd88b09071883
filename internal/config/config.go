package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// CurrentSchemaVersion is the current config schema version.
const CurrentSchemaVersion = 1

// Environment variable names for config overrides.
// Priority: Environment > Config File > Default
const (
	EnvLogStoreDir      = "VRCALBUMS_LOG_STORE_DIR"
	EnvPhotoDirs        = "VRCALBUMS_PHOTO_DIRS"
	EnvBackupDir        = "VRCALBUMS_BACKUP_DIR"
	EnvRotationBytes    = "VRCALBUMS_ROTATION_BYTES"
	EnvVRChatLogDir     = "VRCALBUMS_VRCHAT_LOG_DIR"
	EnvLookupBaseURL    = "VRCALBUMS_LOOKUP_BASE_URL"
	EnvLookupTimeoutSec = "VRCALBUMS_LOOKUP_TIMEOUT_SEC"
)

// DefaultRotationBytes is the log store rotation threshold.
const DefaultRotationBytes int64 = 10 * 1024 * 1024

// Config holds non-sensitive application configuration.
type Config struct {
	SchemaVersion    int      `json:"schema_version"`
	LogStoreDir      string   `json:"log_store_dir"`
	PhotoDirs        []string `json:"photo_dirs"`
	BackupDir        string   `json:"backup_dir"`
	RotationBytes    int64    `json:"rotation_bytes"`
	VRChatLogDir     string   `json:"vrchat_log_dir"`
	LookupBaseURL    string   `json:"lookup_base_url"`
	LookupTimeoutSec int      `json:"lookup_timeout_sec"`
}

// DefaultConfig returns a Config with sensible defaults.
// Empty directory fields resolve against the data dir at load time.
func DefaultConfig() Config {
	return Config{
		SchemaVersion:    CurrentSchemaVersion,
		LogStoreDir:      "", // <data dir>/logStore
		PhotoDirs:        []string{},
		BackupDir:        "", // <data dir>/backups
		RotationBytes:    DefaultRotationBytes,
		VRChatLogDir:     "", // auto-detect
		LookupBaseURL:    "https://api.vrchat.cloud/api/1",
		LookupTimeoutSec: 15,
	}
}

// LoadConfig reads config from disk. If the file doesn't exist or is corrupt,
// it returns DefaultConfig with a warning logged (non-fatal).
func LoadConfig() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), err
	}

	return LoadConfigFrom(path)
}

// LoadConfigFrom reads config from the specified path.
func LoadConfigFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// File doesn't exist, use defaults (not an error)
			return cfg, nil
		}
		log.Printf("Warning: failed to read config file: %v, using defaults", err)
		return cfg, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&cfg); err != nil {
		log.Printf("Warning: config file is corrupt: %v, using defaults", err)
		return DefaultConfig(), nil
	}

	if cfg.SchemaVersion != CurrentSchemaVersion {
		log.Printf("Warning: config schema version mismatch (got %d, expected %d), using defaults",
			cfg.SchemaVersion, CurrentSchemaVersion)
		return DefaultConfig(), nil
	}

	return normalizeConfig(cfg), nil
}

// normalizeConfig validates and normalizes config values.
func normalizeConfig(cfg Config) Config {
	defaults := DefaultConfig()

	cfg.SchemaVersion = CurrentSchemaVersion

	if cfg.RotationBytes <= 0 {
		cfg.RotationBytes = defaults.RotationBytes
	}
	if cfg.LookupBaseURL == "" {
		cfg.LookupBaseURL = defaults.LookupBaseURL
	}
	if cfg.LookupTimeoutSec <= 0 {
		cfg.LookupTimeoutSec = defaults.LookupTimeoutSec
	}
	if cfg.PhotoDirs == nil {
		cfg.PhotoDirs = []string{}
	}

	return cfg
}

// SaveConfig writes config to disk atomically.
func SaveConfig(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	return SaveConfigTo(cfg, path)
}

// SaveConfigTo writes config to the specified path atomically.
func SaveConfigTo(cfg Config, path string) error {
	cfg.SchemaVersion = CurrentSchemaVersion

	return writeJSONAtomic(path, cfg)
}

// ApplyEnvOverrides applies environment variable overrides to the config.
// Environment variables take highest priority over config file values.
func ApplyEnvOverrides(cfg Config) Config {
	if v := os.Getenv(EnvLogStoreDir); v != "" {
		cfg.LogStoreDir = v
	}

	// Photo dirs use the platform path-list separator.
	if v := os.Getenv(EnvPhotoDirs); v != "" {
		var dirs []string
		for _, d := range filepath.SplitList(v) {
			if d = strings.TrimSpace(d); d != "" {
				dirs = append(dirs, d)
			}
		}
		if len(dirs) > 0 {
			cfg.PhotoDirs = dirs
		}
	}

	if v := os.Getenv(EnvBackupDir); v != "" {
		cfg.BackupDir = v
	}

	if v := os.Getenv(EnvRotationBytes); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.RotationBytes = n
		}
	}

	if v := os.Getenv(EnvVRChatLogDir); v != "" {
		cfg.VRChatLogDir = v
	}

	if v := os.Getenv(EnvLookupBaseURL); v != "" {
		cfg.LookupBaseURL = v
	}

	if v := os.Getenv(EnvLookupTimeoutSec); v != "" {
		if sec, err := strconv.Atoi(v); err == nil && sec > 0 {
			cfg.LookupTimeoutSec = sec
		}
	}

	return cfg
}

// ResolveLogStoreDir returns the configured log store dir, falling back
// to <data dir>/logStore.
func (c Config) ResolveLogStoreDir() (string, error) {
	if c.LogStoreDir != "" {
		return c.LogStoreDir, nil
	}
	return LogStoreDirPath()
}

// ResolveBackupDir returns the configured backup dir, falling back to
// <data dir>/backups.
func (c Config) ResolveBackupDir() (string, error) {
	if c.BackupDir != "" {
		return c.BackupDir, nil
	}
	return BackupDirPath()
}
