package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, EnvDevelopment, cfg.Env)
	require.Equal(t, "Submitted", cfg.Cases.InitialStatus)
	require.Equal(t, "Closed", cfg.Cases.TerminalStatus)
	require.Equal(t, 5*time.Second, cfg.Cases.TxTimeout)
	require.Equal(t, NotificationDriverQueue, cfg.Notifications.Driver)
	require.Equal(t, "notifications:intents", cfg.Notifications.RedisList)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CASE_INITIAL_STATUS", " Received ")
	t.Setenv("CASE_TX_TIMEOUT", "750ms")
	t.Setenv("NOTIFICATION_DRIVER", "REDIS")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("REQUEST_LINK_BASE_URL", "https://portal.example/request-page/")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "Received", cfg.Cases.InitialStatus)
	require.Equal(t, 750*time.Millisecond, cfg.Cases.TxTimeout)
	require.Equal(t, NotificationDriverRedis, cfg.Notifications.Driver)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	require.Equal(t, "https://portal.example/request-page", cfg.RequestLinks.BaseURL)
}

func TestParseDurationFallback(t *testing.T) {
	require.Equal(t, time.Minute, parseDuration("", time.Minute))
	require.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	require.Equal(t, 2*time.Hour, parseDuration("2h", time.Minute))
}
