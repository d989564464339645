package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dgallion1/blackout/internal/policy"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Upload limits
	MaxUploadBytes int64

	// Sessions
	MaxSessions  int
	SessionTTL   time.Duration
	HistoryLimit int

	// Ingest
	SanitizeHTML     bool
	BatchConcurrency int

	// PDF
	PDFFallbackPdftotext bool

	// Rolling window for command latency stats.
	StatsWindow time.Duration

	// Randomness. Zero seeds each session from the clock.
	RandomSeed uint64

	// Defaults applied to autoRedact fields a request leaves out.
	SettingsFile string
	Defaults     policy.Settings
}

func Load() (Config, error) {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		APIKey: os.Getenv("BLACKOUT_API_KEY"),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 10485760), // 10MB

		MaxSessions:  envInt("MAX_SESSIONS", 1000),
		SessionTTL:   envDuration("SESSION_TTL", 1*time.Hour),
		HistoryLimit: envInt("HISTORY_LIMIT", 50),

		SanitizeHTML:     envBool("SANITIZE_HTML", true),
		BatchConcurrency: envInt("BATCH_CONCURRENCY", 4),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		StatsWindow: envDuration("STATS_WINDOW", 1*time.Hour),

		RandomSeed: envUint64("RANDOM_SEED", 0),

		SettingsFile: os.Getenv("BLACKOUT_SETTINGS_FILE"),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10485760
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 1000
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 1 * time.Hour
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 50
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = 4
	}

	cfg.Defaults = policy.DefaultSettings()
	if cfg.SettingsFile != "" {
		s, err := LoadSettingsFile(cfg.SettingsFile)
		if err != nil {
			return cfg, err
		}
		cfg.Defaults = s
	}
	if m := os.Getenv("DEFAULT_MODE"); m != "" {
		cfg.Defaults.Mode = policy.Mode(m)
	}
	cfg.Defaults.Intensity = envFloat("DEFAULT_INTENSITY", cfg.Defaults.Intensity)
	cfg.Defaults = cfg.Defaults.Normalize()

	return cfg, nil
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("BLACKOUT_API_KEY is required")
	}
	return nil
}

// LoadSettingsFile reads redaction defaults from YAML. Keys left out of the
// file keep the preset of the file's mode (poetry when no mode is given).
func LoadSettingsFile(path string) (policy.Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return policy.Settings{}, fmt.Errorf("read settings file: %w", err)
	}
	return ParseSettings(data)
}

// ParseSettings decodes YAML settings over the preset for their mode.
func ParseSettings(data []byte) (policy.Settings, error) {
	var probe struct {
		Mode policy.Mode `yaml:"mode"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return policy.Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	s := policy.Preset(probe.Mode)
	if err := yaml.Unmarshal(data, &s); err != nil {
		return policy.Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	return s.Normalize(), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envUint64(key string, fallback uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
