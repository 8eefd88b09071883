package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigFrom_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfigFrom(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}

	want := DefaultConfig()
	if cfg.RotationBytes != want.RotationBytes {
		t.Errorf("RotationBytes = %d, want %d", cfg.RotationBytes, want.RotationBytes)
	}
	if cfg.LookupBaseURL != want.LookupBaseURL {
		t.Errorf("LookupBaseURL = %q, want %q", cfg.LookupBaseURL, want.LookupBaseURL)
	}
}

func TestLoadConfigFrom_CorruptFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if cfg.RotationBytes != DefaultRotationBytes {
		t.Errorf("RotationBytes = %d, want default", cfg.RotationBytes)
	}
}

func TestLoadConfigFrom_SchemaMismatchUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"schema_version": 99, "rotation_bytes": 1}`), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if cfg.RotationBytes != DefaultRotationBytes {
		t.Errorf("RotationBytes = %d, want default after schema mismatch", cfg.RotationBytes)
	}
}

func TestSaveAndLoadConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := DefaultConfig()
	cfg.LogStoreDir = "/data/logStore"
	cfg.PhotoDirs = []string{"/photos/a", "/photos/b"}
	cfg.RotationBytes = 2048

	if err := SaveConfigTo(cfg, path); err != nil {
		t.Fatalf("SaveConfigTo: %v", err)
	}

	got, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if got.LogStoreDir != cfg.LogStoreDir {
		t.Errorf("LogStoreDir = %q, want %q", got.LogStoreDir, cfg.LogStoreDir)
	}
	if len(got.PhotoDirs) != 2 {
		t.Errorf("PhotoDirs = %v", got.PhotoDirs)
	}
	if got.RotationBytes != 2048 {
		t.Errorf("RotationBytes = %d, want 2048", got.RotationBytes)
	}
}

func TestNormalizeConfig_RejectsInvalidValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RotationBytes = -1
	cfg.LookupTimeoutSec = 0
	cfg.PhotoDirs = nil

	got := normalizeConfig(cfg)
	if got.RotationBytes != DefaultRotationBytes {
		t.Errorf("RotationBytes = %d, want default", got.RotationBytes)
	}
	if got.LookupTimeoutSec != DefaultConfig().LookupTimeoutSec {
		t.Errorf("LookupTimeoutSec = %d, want default", got.LookupTimeoutSec)
	}
	if got.PhotoDirs == nil {
		t.Error("PhotoDirs should be normalized to an empty slice")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogStoreDir, "/env/logStore")
	t.Setenv(EnvRotationBytes, "4096")
	t.Setenv(EnvPhotoDirs, strings.Join([]string{"/env/p1", "/env/p2"}, string(os.PathListSeparator)))
	t.Setenv(EnvLookupTimeoutSec, "30")

	cfg := ApplyEnvOverrides(DefaultConfig())
	if cfg.LogStoreDir != "/env/logStore" {
		t.Errorf("LogStoreDir = %q", cfg.LogStoreDir)
	}
	if cfg.RotationBytes != 4096 {
		t.Errorf("RotationBytes = %d, want 4096", cfg.RotationBytes)
	}
	if len(cfg.PhotoDirs) != 2 || cfg.PhotoDirs[1] != "/env/p2" {
		t.Errorf("PhotoDirs = %v", cfg.PhotoDirs)
	}
	if cfg.LookupTimeoutSec != 30 {
		t.Errorf("LookupTimeoutSec = %d, want 30", cfg.LookupTimeoutSec)
	}
}

func TestApplyEnvOverrides_InvalidValuesIgnored(t *testing.T) {
	t.Setenv(EnvRotationBytes, "not-a-number")
	t.Setenv(EnvLookupTimeoutSec, "-5")

	cfg := ApplyEnvOverrides(DefaultConfig())
	if cfg.RotationBytes != DefaultRotationBytes {
		t.Errorf("RotationBytes = %d, want default", cfg.RotationBytes)
	}
	if cfg.LookupTimeoutSec != DefaultConfig().LookupTimeoutSec {
		t.Errorf("LookupTimeoutSec = %d, want default", cfg.LookupTimeoutSec)
	}
}

func TestSecret_Masking(t *testing.T) {
	s := Secret("auth-token-value")

	if got := fmt.Sprintf("%s", s); got != "[REDACTED]" {
		t.Errorf("%%s = %q, want [REDACTED]", got)
	}
	if got := fmt.Sprintf("%v", s); got != "[REDACTED]" {
		t.Errorf("%%v = %q, want [REDACTED]", got)
	}
	if got := fmt.Sprintf("%#v", s); got != "[REDACTED]" {
		t.Errorf("%%#v = %q, want [REDACTED]", got)
	}
	if s.Value() != "auth-token-value" {
		t.Errorf("Value() = %q", s.Value())
	}
}

func TestLoadSecretsFrom_Statuses(t *testing.T) {
	dir := t.TempDir()

	// Missing file: safe to create.
	_, status, err := LoadSecretsFrom(filepath.Join(dir, "secrets.json"))
	if err != nil || status != SecretsMissing {
		t.Errorf("missing file: status=%v err=%v, want SecretsMissing", status, err)
	}

	// Corrupt file: fallback, not safe to overwrite.
	corrupt := filepath.Join(dir, "corrupt.json")
	if err := os.WriteFile(corrupt, []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, status, err = LoadSecretsFrom(corrupt)
	if err == nil || status != SecretsFallback {
		t.Errorf("corrupt file: status=%v err=%v, want SecretsFallback with error", status, err)
	}

	// Valid file round-trips.
	valid := filepath.Join(dir, "valid.json")
	sec := DefaultSecrets()
	sec.VRChatAuthCookie = "cookie-value"
	if err := SaveSecretsTo(sec, valid); err != nil {
		t.Fatal(err)
	}
	got, status, err := LoadSecretsFrom(valid)
	if err != nil || status != SecretsLoaded {
		t.Fatalf("valid file: status=%v err=%v", status, err)
	}
	if got.VRChatAuthCookie.Value() != "cookie-value" {
		t.Errorf("VRChatAuthCookie = %q", got.VRChatAuthCookie.Value())
	}
}
