package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgallion1/blackout/internal/policy"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "BLACKOUT_API_KEY", "MAX_UPLOAD_BYTES", "MAX_SESSIONS", "SESSION_TTL", "HISTORY_LIMIT", "SANITIZE_HTML", "BATCH_CONCURRENCY", "STATS_WINDOW", "RANDOM_SEED", "BLACKOUT_SETTINGS_FILE", "DEFAULT_MODE", "DEFAULT_INTENSITY"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8091" || cfg.MaxSessions != 1000 || cfg.SessionTTL != time.Hour || cfg.HistoryLimit != 50 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if !cfg.SanitizeHTML || cfg.RandomSeed != 0 || cfg.BatchConcurrency != 4 || cfg.StatsWindow != time.Hour {
		t.Errorf("unexpected ingest defaults %+v", cfg)
	}
	if cfg.Defaults != policy.DefaultSettings() {
		t.Errorf("unexpected redaction defaults %+v", cfg.Defaults)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected missing API key to fail validation")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BLACKOUT_API_KEY", "k")
	t.Setenv("HISTORY_LIMIT", "-4")
	t.Setenv("SESSION_TTL", "5m")
	t.Setenv("RANDOM_SEED", "42")
	t.Setenv("DEFAULT_MODE", "random")
	t.Setenv("DEFAULT_INTENSITY", "0.8")
	t.Setenv("BLACKOUT_SETTINGS_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HistoryLimit != 50 {
		t.Errorf("expected non-positive limit reset to 50, got %d", cfg.HistoryLimit)
	}
	if cfg.SessionTTL != 5*time.Minute || cfg.RandomSeed != 42 {
		t.Errorf("unexpected overrides %+v", cfg)
	}
	if cfg.Defaults.Mode != policy.ModeRandom || cfg.Defaults.Intensity != 0.8 {
		t.Errorf("unexpected redaction defaults %+v", cfg.Defaults)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestLoadSettingsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	data := "mode: privacy\nintensity: 0.3\nkeep_numbers: true\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("BLACKOUT_SETTINGS_FILE", path)
	t.Setenv("DEFAULT_MODE", "")
	t.Setenv("DEFAULT_INTENSITY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := policy.Preset(policy.ModePrivacy)
	want.Intensity = 0.3
	want.KeepNumbers = true
	if cfg.Defaults != want {
		t.Errorf("expected %+v, got %+v", want, cfg.Defaults)
	}
}

func TestParseSettings_Permissive(t *testing.T) {
	s, err := ParseSettings([]byte("mode: sonnet\nintensity: 7\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Mode != policy.ModePoetry || s.Intensity != policy.DefaultIntensity {
		t.Errorf("expected defaults substituted, got %+v", s)
	}
	if _, err := ParseSettings([]byte("mode: [")); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestLoad_MissingSettingsFile(t *testing.T) {
	t.Setenv("BLACKOUT_SETTINGS_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Error("expected error for missing settings file")
	}
}
