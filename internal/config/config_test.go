package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfigDefaults(t *testing.T) {
	conf, err := GetConfig()
	require.NoError(t, err)

	assert.Equal(t, 12, conf.EngineConfig.MaxStageVisits)
	assert.Equal(t, 12, conf.CaptchaConfig.MaxAttempts)
	assert.Equal(t, []int{180, 165, 150}, conf.CaptchaConfig.Thresholds)
	assert.Equal(t, []string{"hcaptcha", "frame=challenge"}, conf.CaptchaConfig.FramePattern)
	assert.Equal(t, 2, conf.CaptchaConfig.DefaultTarget)
	assert.Equal(t, 5*time.Second, conf.BrowserConfig.ActionTimeout)
}

func TestGetConfigOverrides(t *testing.T) {
	t.Setenv("ENGINE_MAX_STAGE_VISITS", "4")
	t.Setenv("CAPTCHA_THRESHOLDS", "200,120")
	t.Setenv("BATCH_CONCURRENCY", "8")

	conf, err := GetConfig()
	require.NoError(t, err)

	assert.Equal(t, 4, conf.EngineConfig.MaxStageVisits)
	assert.Equal(t, []int{200, 120}, conf.CaptchaConfig.Thresholds)
	assert.Equal(t, 8, conf.BatchConfig.Concurrency)
}
