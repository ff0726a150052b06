package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUserAgent(t *testing.T) {
	assert.NoError(t, ValidateUserAgent("Example Research admin@research.example"))

	cases := []struct {
		ua     string
		reason string
	}{
		{"", "not set"},
		{"   ", "not set"},
		{"Example Research", "contact email"},
		{"Your Name example@example.com", "placeholder"},
		{"Research Desk contact@example.com", "placeholder"},
		{"changeme admin@corp.example", "placeholder"},
	}
	for _, tc := range cases {
		err := ValidateUserAgent(tc.ua)
		require.Error(t, err, "ua %q", tc.ua)

		var cerr *ConfigError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, "SEC_EDGAR_USER_AGENT", cerr.Field)
		assert.Contains(t, cerr.Error(), tc.reason)
	}
}

func TestLoadFailsFast(t *testing.T) {
	t.Setenv("SEC_EDGAR_USER_AGENT", "")
	t.Setenv("NEO4J_URI", "")

	_, err := Load()
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "SEC_EDGAR_USER_AGENT", cerr.Field)

	t.Setenv("SEC_EDGAR_USER_AGENT", "Example Research admin@research.example")
	_, err = Load()
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "NEO4J_URI", cerr.Field)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SEC_EDGAR_USER_AGENT", "Example Research admin@research.example")
	t.Setenv("NEO4J_URI", "neo4j://localhost:7687")
	t.Setenv("NEO4J_USER", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GEMINI_MODEL", "")
	t.Setenv("OFAC_CACHE_DIR", "")
	t.Setenv("REVIEW_DB_PATH", "")
	t.Setenv("LISTEN_ADDR", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "neo4j", cfg.Neo4jUser)
	assert.Equal(t, "gemini-2.0-flash-exp", cfg.GeminiModel)
	assert.Equal(t, "data/ofac_cache", cfg.OFACCacheDir)
	assert.Equal(t, "data/review_queue.db", cfg.ReviewDBPath)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Empty(t, cfg.GeminiAPIKey)
}
