package config_test

import (
	"testing"
	"time"

	"github.com/dom/trivia-night/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 25, cfg.StoreMaxRetries)
	assert.True(t, cfg.ServerTimers())
	assert.Equal(t, 2*time.Second, cfg.ExpiryDedupWindow)
	assert.True(t, cfg.MetricsEnabled)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("TIMER_AUTHORITY", "organizer")
	t.Setenv("RATE_LIMIT_PER_SECOND", "2.5")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("STORE_MAX_RETRIES", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173, https://quiz.example.com,")
	t.Setenv("PUBLIC_URL", "https://quiz.example.com/")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.False(t, cfg.ServerTimers())
	assert.Equal(t, 2.5, cfg.RateLimitPerSecond)
	assert.False(t, cfg.MetricsEnabled)
	assert.Equal(t, 25, cfg.StoreMaxRetries)
	assert.Equal(t, []string{"http://localhost:5173", "https://quiz.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, "https://quiz.example.com", cfg.PublicURL)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing secret", env: map[string]string{"JWT_SECRET": ""}},
		{name: "unknown authority", env: map[string]string{"JWT_SECRET": "s", "TIMER_AUTHORITY": "players"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}
