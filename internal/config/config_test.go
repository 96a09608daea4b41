package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, "@ClipsCloud", cfg.ChannelID)
	assert.Equal(t, 50, cfg.DailyVideoLimit)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, 5*time.Minute, cfg.DeleteDelay)
	assert.Equal(t, 5*time.Minute, cfg.ProofTimeout)
	assert.Equal(t, 15*time.Minute, cfg.ExportInterval)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DAILY_VIDEO_LIMIT", "20")
	t.Setenv("BATCH_SIZE", "5")
	t.Setenv("DELETE_DELAY", "1m")
	t.Setenv("ADMIN_IDS", "123, 456,bogus,789")
	t.Setenv("ADMIN_GROUP_ID", "-4602723399")

	cfg := LoadConfig()

	assert.Equal(t, 20, cfg.DailyVideoLimit)
	assert.Equal(t, 5, cfg.BatchSize)
	assert.Equal(t, time.Minute, cfg.DeleteDelay)
	assert.Equal(t, []int64{123, 456, 789}, cfg.AdminIDs)
	assert.Equal(t, int64(-4602723399), cfg.GroupID)
}

func TestIsAdmin(t *testing.T) {
	cfg := &Config{AdminIDs: []int64{123, 456}}

	assert.True(t, cfg.IsAdmin(123))
	assert.False(t, cfg.IsAdmin(789))
}

func TestGetEnvIntInvalidFallsBack(t *testing.T) {
	t.Setenv("DAILY_VIDEO_LIMIT", "not-a-number")

	cfg := LoadConfig()
	assert.Equal(t, 50, cfg.DailyVideoLimit)
}
