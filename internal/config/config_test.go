package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func validConfig() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Game: GameConfig{
			MinPlayers:      3,
			MaxPlayers:      16,
			RoundsLimit:     5,
			RoundDuration:   8 * time.Minute,
			ReconnectGrace:  time.Minute,
			TimerTick:       time.Second,
			SweepInterval:   10 * time.Minute,
			RoomIdleTimeout: time.Hour,
			PacksDir:        "content/packs",
		},
	}
}

func TestValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestServerAddr(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	err := os.WriteFile(path, []byte(`
server:
  host: 127.0.0.1
  port: 9090
logging:
  level: debug
  format: console
game:
  min_players: 4
  max_players: 10
  round_duration: 5m
  reconnect_grace: 30s
`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 4, cfg.Game.MinPlayers)
	assert.Equal(t, 10, cfg.Game.MaxPlayers)
	assert.Equal(t, 5*time.Minute, cfg.Game.RoundDuration)
	assert.Equal(t, 30*time.Second, cfg.Game.ReconnectGrace)

	// Untouched keys keep their defaults.
	assert.Equal(t, 5, cfg.Game.RoundsLimit)
	assert.Equal(t, time.Second, cfg.Game.TimerTick)
	assert.Equal(t, "content/packs", cfg.Game.PacksDir)
}

func TestLoadInvalidPath(t *testing.T) {
	_, err := Load("/nonexistent/path.yaml")
	assert.Error(t, err)
}

func TestValidateServerPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Server.Port = 65536
	assert.Error(t, cfg.Validate())
}

func TestValidateLoggingLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := validConfig()
		cfg.Logging.Level = level
		assert.NoError(t, cfg.Validate(), "level %q should be valid", level)
	}
	cfg := validConfig()
	cfg.Logging.Level = "trace"
	assert.Error(t, cfg.Validate())
}

func TestValidateLoggingFormat(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		cfg := validConfig()
		cfg.Logging.Format = format
		assert.NoError(t, cfg.Validate(), "format %q should be valid", format)
	}
	cfg := validConfig()
	cfg.Logging.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestValidateGamePlayerBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Game.MinPlayers = 2
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Game.MaxPlayers = cfg.Game.MinPlayers - 1
	assert.Error(t, cfg.Validate())
}

func TestValidateGameDurations(t *testing.T) {
	cfg := validConfig()
	cfg.Game.RoundDuration = 0
	assert.NoError(t, cfg.Validate(), "zero round duration means untimed rounds")

	cfg = validConfig()
	cfg.Game.RoundDuration = -time.Minute
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Game.ReconnectGrace = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Game.TimerTick = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Game.SweepInterval = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Game.RoomIdleTimeout = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateGamePacksDir(t *testing.T) {
	cfg := validConfig()
	cfg.Game.PacksDir = ""
	assert.Error(t, cfg.Validate())
}

func TestValidatePlayerRanges(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cfg := validConfig()
		cfg.Game.MinPlayers = rapid.IntRange(3, 32).Draw(rt, "min")
		cfg.Game.MaxPlayers = rapid.IntRange(cfg.Game.MinPlayers, 64).Draw(rt, "max")
		assert.NoError(rt, cfg.Validate())
	})
}
