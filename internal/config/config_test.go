package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "retrueque.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `[database]
url = "postgres://localhost/retrueque_test"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "./public", cfg.Server.WebDir)
	assert.Equal(t, time.Second, cfg.Chat.PollInterval)
	assert.Equal(t, 60, cfg.Chat.SendRatePerMinute)
	assert.Equal(t, "postgres://localhost/retrueque_test", cfg.Database.URL)
}

func TestLoadConfigFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `[server]
port = 8080

[chat]
poll_interval = "250ms"
send_rate_per_minute = 10
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Chat.PollInterval)
	assert.Equal(t, 10, cfg.Chat.SendRatePerMinute)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `[server]
port = 8080
`)
	t.Setenv("RETRUEQUE_SERVER_PORT", "9090")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestInitConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retrueque.toml")
	require.NoError(t, InitConfig(path))

	// A second init must not clobber the file
	assert.Error(t, InitConfig(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.NotEmpty(t, cfg.Database.URL)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.Server.Port = 3000
		cfg.Chat.PollInterval = time.Second
		cfg.Chat.SendRatePerMinute = 60
		return cfg
	}

	require.NoError(t, Validate(valid()))

	cfg := valid()
	cfg.Server.Port = 0
	assert.Error(t, Validate(cfg))

	cfg = valid()
	cfg.Server.Port = 70000
	assert.Error(t, Validate(cfg))

	cfg = valid()
	cfg.Chat.PollInterval = 0
	assert.Error(t, Validate(cfg))

	cfg = valid()
	cfg.Chat.SendRatePerMinute = -1
	assert.Error(t, Validate(cfg))
}
