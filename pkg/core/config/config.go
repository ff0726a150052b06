// Package config assembles runtime configuration from the environment.
// A .env file is honored when present (godotenv), matching deployment
// conventions for local runs.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// ConfigError indicates a missing or invalid startup setting. The process
// should fail fast on it.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Config is the full runtime configuration.
type Config struct {
	// SEC EDGAR requires a real "identifier email" User-Agent.
	EdgarUserAgent string

	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	// Empty key disables the LLM fallback; scans still run rule-based.
	GeminiAPIKey string
	GeminiModel  string

	OFACCacheDir string
	ReviewDBPath string

	ListenAddr string
}

// placeholderAgents are the strings people paste without editing.
var placeholderAgents = []string{
	"your name",
	"example@example.com",
	"contact@example.com",
	"changeme",
}

// Load reads the environment (and .env if present) and validates the
// settings the pipeline cannot run without.
func Load() (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		EdgarUserAgent: os.Getenv("SEC_EDGAR_USER_AGENT"),
		Neo4jURI:       os.Getenv("NEO4J_URI"),
		Neo4jUser:      getenvDefault("NEO4J_USER", "neo4j"),
		Neo4jPassword:  os.Getenv("NEO4J_PASSWORD"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    getenvDefault("GEMINI_MODEL", "gemini-2.0-flash-exp"),
		OFACCacheDir:   getenvDefault("OFAC_CACHE_DIR", "data/ofac_cache"),
		ReviewDBPath:   getenvDefault("REVIEW_DB_PATH", "data/review_queue.db"),
		ListenAddr:     getenvDefault("LISTEN_ADDR", ":8080"),
	}

	if err := ValidateUserAgent(cfg.EdgarUserAgent); err != nil {
		return nil, err
	}
	if cfg.Neo4jURI == "" {
		return nil, &ConfigError{Field: "NEO4J_URI", Reason: "not set"}
	}

	return cfg, nil
}

// ValidateUserAgent enforces SEC's identifier-email convention.
func ValidateUserAgent(ua string) error {
	ua = strings.TrimSpace(ua)
	if ua == "" {
		return &ConfigError{Field: "SEC_EDGAR_USER_AGENT", Reason: "not set; SEC requires an identifier-email User-Agent"}
	}
	if !strings.Contains(ua, "@") {
		return &ConfigError{Field: "SEC_EDGAR_USER_AGENT", Reason: "must include a contact email"}
	}
	lower := strings.ToLower(ua)
	for _, p := range placeholderAgents {
		if strings.Contains(lower, p) {
			return &ConfigError{Field: "SEC_EDGAR_USER_AGENT", Reason: "placeholder value; set a real identifier"}
		}
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
