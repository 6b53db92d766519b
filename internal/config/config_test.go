package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_FillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
version = 1

[scraping]
post_analytics_limit = 2
settle_timeout = "3s"

[database]
dsn = "/tmp/x.db"
`), 0600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Scraping.PostAnalyticsLimit)
	assert.Equal(t, 3*time.Second, cfg.Scraping.SettleTimeout.Duration)
	assert.Equal(t, 15, cfg.Scraping.PostLimit, "unset fields keep defaults")
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/x.db", cfg.Database.DSN)
}

func TestSaveFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.User.Email = "me@example.com"
	cfg.Scraping.PageTimeout = Duration{45 * time.Second}

	require.NoError(t, cfg.SaveFile(path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", loaded.User.Email)
	assert.Equal(t, 45*time.Second, loaded.Scraping.PageTimeout.Duration)
}

func TestApplyEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DATABASE_URL=postgres://u:p@localhost/li\n"), 0600))

	t.Setenv("DATABASE_URL", "")
	require.NoError(t, os.Unsetenv("DATABASE_URL"))
	t.Setenv("LISYNC_DATABASE_DRIVER", "")
	t.Setenv("LISYNC_HEADLESS", "false")
	t.Setenv("LISYNC_SESSION_PATH", "/tmp/session.json")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(envFile))

	assert.Equal(t, "postgres://u:p@localhost/li", cfg.Database.DSN)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.False(t, cfg.Scraping.Headless)
	assert.Equal(t, "/tmp/session.json", cfg.Session.Path)
}

func TestApplyEnv_MissingFileIgnored(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.ApplyEnv(filepath.Join(t.TempDir(), "nope.env")))
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Session.Path = "/tmp/s.json"
	cfg.Database.DSN = ":memory:"
	require.NoError(t, cfg.Validate())

	cfg.Database.Driver = "mysql"
	assert.Error(t, cfg.Validate())
}

func TestValidate_Notify(t *testing.T) {
	cfg := Default()
	cfg.Session.Path = "/tmp/s.json"
	cfg.Database.DSN = ":memory:"
	cfg.Notify.Enabled = true
	assert.Error(t, cfg.Validate())

	cfg.Notify.SMTPHost = "smtp.example.com"
	cfg.Notify.ToAddr = "me@example.com"
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv_SMTPPassword(t *testing.T) {
	t.Setenv("LISYNC_SMTP_PASS", "hunter2")
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(filepath.Join(t.TempDir(), "nope.env")))
	assert.Equal(t, "hunter2", cfg.Notify.SMTPPass)
	assert.Equal(t, 587, cfg.Notify.SMTPPort)
}

func TestValidate_PostAnalyticsCap(t *testing.T) {
	cfg := Default()
	cfg.Session.Path = "/tmp/s.json"
	cfg.Database.DSN = ":memory:"

	cfg.Scraping.PostAnalyticsLimit = MaxPostAnalytics
	assert.NoError(t, cfg.Validate())

	cfg.Scraping.PostAnalyticsLimit = MaxPostAnalytics + 2
	assert.ErrorContains(t, cfg.Validate(), "at most 5")
}
