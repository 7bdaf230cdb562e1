package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	origHome := xdg.DataHome
	xdg.DataHome = t.TempDir()
	defer func() { xdg.DataHome = origHome }()

	t.Setenv("COLLAB_DB_PATH", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(xdg.DataHome, "collabevents", "events.db"), cfg.DBPath)
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr)
	assert.Equal(t, "collabevents", cfg.TokenIssuer)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 720*time.Hour, cfg.NotificationRetention)
	assert.Equal(t, "@hourly", cfg.PurgeSchedule)
	assert.False(t, cfg.RollbackConflictCheck)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("COLLAB_DB_PATH", "/tmp/x.db")
	t.Setenv("COLLAB_ADDR", ":9000")
	t.Setenv("COLLAB_TOKEN_TTL", "1h")
	t.Setenv("COLLAB_ROLLBACK_CONFLICT_CHECK", "true")
	t.Setenv("COLLAB_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.RollbackConflictCheck)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoad_DotenvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("COLLAB_ADDR=:7000\nCOLLAB_TOKEN_SECRET=from-file\n"), 0o600))

	t.Setenv("COLLAB_DB_PATH", filepath.Join(dir, "events.db"))
	t.Setenv("COLLAB_ADDR", ":9000")
	// Registered for cleanup so the value loaded from the file is removed.
	t.Setenv("COLLAB_TOKEN_SECRET", "")
	require.NoError(t, os.Unsetenv("COLLAB_TOKEN_SECRET"))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "from-file", cfg.TokenSecret)
	assert.NoError(t, cfg.RequireSecret())
}

func TestLoad_MissingDotenv(t *testing.T) {
	t.Setenv("COLLAB_DB_PATH", "/tmp/x.db")

	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("COLLAB_DB_PATH", "/tmp/x.db")

	t.Run("duration", func(t *testing.T) {
		t.Setenv("COLLAB_TOKEN_TTL", "soon")
		_, err := Load("")
		assert.Error(t, err)
	})

	t.Run("negative retention", func(t *testing.T) {
		t.Setenv("COLLAB_NOTIFICATION_RETENTION", "-1h")
		_, err := Load("")
		assert.Error(t, err)
	})
}

func TestRequireSecret(t *testing.T) {
	assert.Error(t, Config{}.RequireSecret())
	assert.NoError(t, Config{TokenSecret: "s"}.RequireSecret())
}
