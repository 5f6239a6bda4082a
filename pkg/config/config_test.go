package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "training_scheduler", cfg.Database.Name)
	assert.Equal(t, 30*time.Minute, cfg.Scheduler.ProposalTTL)
	assert.Equal(t, 3, cfg.Scheduler.GapFillPasses)
	assert.Equal(t, "./exports", cfg.Exports.Dir)
	assert.Equal(t, 720*time.Hour, cfg.Exports.Retention)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SCHEDULER_PROPOSAL_TTL", "10m")
	t.Setenv("SCHEDULER_GAP_FILL_PASSES", "5")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example , https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10*time.Minute, cfg.Scheduler.ProposalTTL)
	assert.Equal(t, 5, cfg.Scheduler.GapFillPasses)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}
