// Package config provides Viper-based configuration loading for the Spyfall
// server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds the WebSocket listener settings.
type ServerConfig struct {
	// Host is the bind address for the HTTP/WebSocket listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the listener.
	Port int `mapstructure:"port"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// GameConfig holds the room engine tunables.
type GameConfig struct {
	// MinPlayers is the roster size required to start a round.
	MinPlayers int `mapstructure:"min_players"`
	// MaxPlayers is the roster capacity of a room.
	MaxPlayers int `mapstructure:"max_players"`
	// RoundsLimit is the advertised number of rounds per game.
	RoundsLimit int `mapstructure:"rounds_limit"`
	// RoundDuration is the default round length; 0 = untimed.
	RoundDuration time.Duration `mapstructure:"round_duration"`
	// ReconnectGrace is how long a disconnected player may reattach
	// before being evicted from their room.
	ReconnectGrace time.Duration `mapstructure:"reconnect_grace"`
	// TimerTick is the cadence of round-timer expiry checks.
	TimerTick time.Duration `mapstructure:"timer_tick"`
	// SweepInterval is the cadence of idle-room sweeps.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	// RoomIdleTimeout is the inactivity threshold past which a room is
	// reaped regardless of roster size.
	RoomIdleTimeout time.Duration `mapstructure:"room_idle_timeout"`
	// PacksDir is the directory of location pack YAML files.
	PacksDir string `mapstructure:"packs_dir"`
}

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Game    GameConfig    `mapstructure:"game"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error
// describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateServer(c.Server); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGame(c.Game); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", s.Port)
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateGame(g GameConfig) error {
	var errs []string
	if g.MinPlayers < 3 {
		errs = append(errs, fmt.Sprintf("game.min_players must be >= 3, got %d", g.MinPlayers))
	}
	if g.MaxPlayers < g.MinPlayers {
		errs = append(errs, fmt.Sprintf("game.max_players must be >= game.min_players, got %d", g.MaxPlayers))
	}
	if g.RoundsLimit < 1 {
		errs = append(errs, fmt.Sprintf("game.rounds_limit must be >= 1, got %d", g.RoundsLimit))
	}
	if g.RoundDuration < 0 {
		errs = append(errs, "game.round_duration must not be negative")
	}
	if g.ReconnectGrace <= 0 {
		errs = append(errs, "game.reconnect_grace must be > 0")
	}
	if g.TimerTick <= 0 {
		errs = append(errs, "game.timer_tick must be > 0")
	}
	if g.SweepInterval <= 0 {
		errs = append(errs, "game.sweep_interval must be > 0")
	}
	if g.RoomIdleTimeout <= 0 {
		errs = append(errs, "game.room_idle_timeout must be > 0")
	}
	if g.PacksDir == "" {
		errs = append(errs, "game.packs_dir must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment
// variable overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with SPYFALL_ prefix
	v.SetEnvPrefix("SPYFALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("game.min_players", 3)
	v.SetDefault("game.max_players", 16)
	v.SetDefault("game.rounds_limit", 5)
	v.SetDefault("game.round_duration", "8m")
	v.SetDefault("game.reconnect_grace", "60s")
	v.SetDefault("game.timer_tick", "1s")
	v.SetDefault("game.sweep_interval", "10m")
	v.SetDefault("game.room_idle_timeout", "1h")
	v.SetDefault("game.packs_dir", "content/packs")
}
