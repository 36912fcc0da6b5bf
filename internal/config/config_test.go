package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "test-token")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "test-token", cfg.DiscordToken)
	assert.Equal(t, 5, cfg.MaxFastResults)
	assert.Equal(t, 100, cfg.MaxQueryLength)
	assert.Equal(t, 1000, cfg.CacheMaxEntries)
	assert.Equal(t, 30*time.Minute, cfg.CacheDefaultTTL)
	assert.Equal(t, time.Hour, cfg.CacheDirectURLTTL)
	assert.Equal(t, 15*time.Minute, cfg.CacheFallbackTTL)
	assert.Equal(t, 8*time.Second, cfg.ResolverTimeout)
	assert.Equal(t, 10*time.Minute, cfg.ResolverQuotaCooldown)
	assert.True(t, cfg.PreprocessingEnabled)
}

func TestNewOverrides(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "tok")
	t.Setenv("CACHE_DEFAULT_TTL", "45m")
	t.Setenv("MAX_FAST_RESULTS", "8")
	t.Setenv("FILLER_WORDS", "remix,cover")
	t.Setenv("PREPROCESSING_ENABLED", "false")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 45*time.Minute, cfg.CacheDefaultTTL)
	assert.Equal(t, 8, cfg.MaxFastResults)
	assert.Equal(t, []string{"remix", "cover"}, cfg.FillerWords)
	assert.False(t, cfg.PreprocessingEnabled)
}
