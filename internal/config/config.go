package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Auth
	DocqueryAPIKey string

	// Claude (primary answer provider)
	AnthropicAPIKey string
	AnthropicModel  string

	// Gemini (opt-in backup provider)
	GeminiAPIKey string
	GeminiModel  string

	// Conversation storage
	HistoryDir string

	// Upload limits
	MaxUploadBytes int64

	// Context assembly
	MaxContextChars int
	HistoryDepth    int

	// Document state
	DocTTL time.Duration

	// Provider latency stats
	StatsWindow time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	// Missing .env is fine; real env vars always win.
	_ = godotenv.Load()

	cfg := Config{
		Port: envOr("PORT", "8091"),

		DocqueryAPIKey: os.Getenv("DOCQUERY_API_KEY"),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  envOr("GEMINI_MODEL", "gemini-1.5-flash"),

		HistoryDir: envOr("HISTORY_DIR", "./data/history"),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		MaxContextChars: envInt("MAX_CONTEXT_CHARS", 5000),
		HistoryDepth:    envInt("HISTORY_DEPTH", 3),

		DocTTL: envDuration("DOC_TTL", 24*time.Hour),

		StatsWindow: envDuration("STATS_WINDOW", 10*time.Minute),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.MaxContextChars <= 0 {
		cfg.MaxContextChars = 5000
	}
	if cfg.HistoryDepth <= 0 {
		cfg.HistoryDepth = 3
	}
	if cfg.DocTTL <= 0 {
		cfg.DocTTL = 24 * time.Hour
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 10 * time.Minute
	}

	return cfg
}

func (c Config) Validate() error {
	if c.DocqueryAPIKey == "" {
		return fmt.Errorf("DOCQUERY_API_KEY is required")
	}
	if c.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	return nil
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
