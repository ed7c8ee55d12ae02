package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresAuthOutsideDemoMode(t *testing.T) {
	t.Setenv("DEMO_MODE", "false")
	t.Setenv("HOUSEHOLD_PASSWORD_HASH", "")
	t.Setenv("SESSION_SIGNING_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HOUSEHOLD_PASSWORD_HASH")
}

func TestLoadDemoModeDefaults(t *testing.T) {
	t.Setenv("DEMO_MODE", "true")
	t.Setenv("HOUSEHOLD_PASSWORD_HASH", "")
	t.Setenv("SESSION_SIGNING_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Server.DemoMode)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)
	assert.False(t, cfg.Gemini.AIEnabled())
}

func TestDSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5432, User: "casa", Password: "pw", Database: "ledger", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=casa password=pw dbname=ledger sslmode=disable", db.DSN())
}

func TestCORSOriginsList(t *testing.T) {
	t.Setenv("DEMO_MODE", "true")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}
