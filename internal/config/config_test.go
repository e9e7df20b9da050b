// internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "sitelens", cfg.Logger.ServiceName)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.Browser.Headless)
	assert.EqualValues(t, 1920, cfg.Browser.ViewportWidth)
	assert.EqualValues(t, 1080, cfg.Browser.ViewportHeight)
	assert.Equal(t, 30*time.Second, cfg.Network.NavigationTimeout)
	assert.Equal(t, 10*time.Second, cfg.Network.ReadinessTimeout)
	assert.Equal(t, 4000, cfg.LLM.TextBudget)
}

func TestNewDefaultConfig_PassesValidation(t *testing.T) {
	require.NoError(t, NewDefaultConfig().Validate())
}

func TestNewConfigFromViper_Overrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("server.port", 9090)
	v.Set("browser.concurrency", 2)
	v.Set("network.navigation_timeout", "45s")

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.EqualValues(t, 2, cfg.Browser.Concurrency)
	assert.Equal(t, 45*time.Second, cfg.Network.NavigationTimeout)
}

func TestNewConfigFromViper_APIKeyFromEnv(t *testing.T) {
	t.Setenv("SITELENS_OPENAI_API_KEY", "sk-test-token")

	v := viper.New()
	SetDefaults(v)

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "sk-test-token", cfg.LLM.APIKey)
}

func TestNewConfigFromViper_PortFromEnv(t *testing.T) {
	t.Setenv("PORT", "8081")

	v := viper.New()
	SetDefaults(v)

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 8081, cfg.Server.Port)
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"bad concurrency", func(c *Config) { c.Browser.Concurrency = 0 }, "browser.concurrency"},
		{"bad viewport", func(c *Config) { c.Browser.ViewportWidth = -1 }, "viewport"},
		{"bad nav timeout", func(c *Config) { c.Network.NavigationTimeout = 0 }, "navigation_timeout"},
		{"bad readiness timeout", func(c *Config) { c.Network.ReadinessTimeout = 0 }, "readiness_timeout"},
		{"bad text budget", func(c *Config) { c.LLM.TextBudget = 0 }, "text_budget"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
