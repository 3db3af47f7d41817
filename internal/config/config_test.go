package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENGAGEMENT_TICK_SECONDS", "")
	t.Setenv("SNAPSHOT_ILLUSTRATION", "")

	cfg := Load()

	assert.Equal(t, 30*time.Second, cfg.Engagement.Tick)
	assert.Equal(t, 15, cfg.Engagement.AlignmentAt)
	assert.True(t, cfg.Snapshot.Illustration)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENGAGEMENT_KICKOFF_SECONDS", "5")
	t.Setenv("ENGAGEMENT_NUDGE_EVERY", "4")
	t.Setenv("SNAPSHOT_ILLUSTRATION", "false")
	t.Setenv("LLM_PROVIDER", "mock")

	cfg := Load()

	assert.Equal(t, 5*time.Second, cfg.Engagement.KickoffAfter)
	assert.Equal(t, 4, cfg.Engagement.NudgeEvery)
	assert.False(t, cfg.Snapshot.Illustration)
	assert.Equal(t, "mock", cfg.Ai.LLMProvider)
}
