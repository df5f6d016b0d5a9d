package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

const (
	StorageMemory    = "memory"
	StorageSQLite    = "sqlite"
	StorageFirestore = "firestore"
)

type Config struct {
	Mode Mode

	Port     string
	LogLevel string

	GCPProjectID string
	GCPLocation  string
	GeminiAPIKey string
	ModelName    string
	ImageModel   string

	StorageBackend string // "memory", "sqlite" or "firestore"
	DBPath         string
	UseMockLLM     bool // true = use mock even on GCP

	// WorkspaceFile is the YAML seed for the company, roster and projects.
	// Empty means the built-in demo workspace.
	WorkspaceFile string

	// HistoryLimit caps how many trailing messages each model call receives.
	HistoryLimit int
	// ReplyPacing is the pause before a non-instant persona answers in a brainstorm round.
	ReplyPacing time.Duration
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

func getIntEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getDurationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// Load reads all env vars and builds the config
func Load() (*Config, error) {
	modeStr := getEnv("STAFFDESK_MODE", "local")
	var mode Mode
	switch modeStr {
	case "gcp":
		mode = ModeGCP
	default:
		mode = ModeLocal
	}

	historyLimit, err := getIntEnv("STAFFDESK_HISTORY_LIMIT", 40)
	if err != nil {
		return nil, err
	}
	pacing, err := getDurationEnv("STAFFDESK_REPLY_PACING", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Mode: mode,

		Port:     getEnv("STAFFDESK_PORT", "8080"),
		LogLevel: getEnv("STAFFDESK_LOG_LEVEL", "info"),

		GCPProjectID: getEnv("STAFFDESK_GCP_PROJECT", ""),
		GCPLocation:  getEnv("STAFFDESK_GCP_LOCATION", "us-central1"),
		GeminiAPIKey: getEnv("STAFFDESK_GEMINI_API_KEY", ""),
		ModelName:    getEnv("STAFFDESK_MODEL_NAME", "gemini-2.5-flash"),
		ImageModel:   getEnv("STAFFDESK_IMAGE_MODEL", "imagen-3.0-generate-002"),

		StorageBackend: strings.ToLower(getEnv("STAFFDESK_STORAGE_BACKEND", StorageMemory)),
		DBPath:         getEnv("STAFFDESK_DB_PATH", "staffdesk.db"),
		UseMockLLM:     getBoolEnv("STAFFDESK_USE_MOCK_LLM", mode == ModeLocal),

		WorkspaceFile: getEnv("STAFFDESK_WORKSPACE_FILE", ""),

		HistoryLimit: historyLimit,
		ReplyPacing:  pacing,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks combinations Load cannot default away.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageMemory, StorageSQLite, StorageFirestore:
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}

	if c.StorageBackend == StorageFirestore && c.GCPProjectID == "" {
		return fmt.Errorf("STAFFDESK_GCP_PROJECT must be set for firestore storage")
	}
	if c.StorageBackend == StorageSQLite && c.DBPath == "" {
		return fmt.Errorf("STAFFDESK_DB_PATH must be set for sqlite storage")
	}

	// Minimal validation in GCP mode
	if c.Mode == ModeGCP && c.GCPProjectID == "" {
		return fmt.Errorf("STAFFDESK_GCP_PROJECT must be set in gcp mode")
	}
	if !c.UseMockLLM && c.GeminiAPIKey == "" && c.GCPProjectID == "" {
		return fmt.Errorf("a real model needs STAFFDESK_GEMINI_API_KEY or STAFFDESK_GCP_PROJECT")
	}

	if c.HistoryLimit < 0 {
		return fmt.Errorf("STAFFDESK_HISTORY_LIMIT must not be negative")
	}
	if c.ReplyPacing < 0 {
		return fmt.Errorf("STAFFDESK_REPLY_PACING must not be negative")
	}
	return nil
}
