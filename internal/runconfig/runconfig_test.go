package runconfig

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()
	assert.Equal(t, "./kirk-crawl-output", cfg.OutputDir)
	assert.Equal(t, "./kirk-crawl-cache", cfg.CacheDir)
	assert.True(t, cfg.Headless)
	assert.Equal(t, 30_000, cfg.TimeoutMS)
	assert.Equal(t, "en-US", cfg.Locale)
}

func TestFromEnv_OverridesFromEnvironment(t *testing.T) {
	t.Setenv("KIRK_CRAWL_OUTPUT_DIR", "/tmp/out")
	t.Setenv("KIRK_CRAWL_HEADLESS", "false")
	t.Setenv("KIRK_CRAWL_TIMEOUT_MS", "5000")

	cfg := FromEnv()
	assert.Equal(t, "/tmp/out", cfg.OutputDir)
	assert.False(t, cfg.Headless)
	assert.Equal(t, 5000, cfg.TimeoutMS)
}

func TestFromEnv_InvalidIntFallsBackToDefault(t *testing.T) {
	t.Setenv("KIRK_CRAWL_TIMEOUT_MS", "not-a-number")
	cfg := FromEnv()
	assert.Equal(t, 30_000, cfg.TimeoutMS)
}

func TestFromEnv_InvalidBoolFallsBackToDefault(t *testing.T) {
	t.Setenv("KIRK_CRAWL_HEADLESS", "not-a-bool")
	cfg := FromEnv()
	assert.True(t, cfg.Headless)
}

func TestConfig_Timeout(t *testing.T) {
	cfg := Config{TimeoutMS: 2500}
	assert.Equal(t, 2500*time.Millisecond, cfg.Timeout())
}
