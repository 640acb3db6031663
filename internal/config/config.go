package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the editor's settings.
type Config struct {
	Device            string
	LogFile           string
	LogLevel          string
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	Burst             int
	LEDDebounce       time.Duration
	LivePoll          time.Duration
	NavGrace          time.Duration
}

const (
	defaultConfigPath        = "~/.config/footctl/config.toml"
	defaultLogFile           = "~/.local/state/footctl/footctl.log"
	defaultDevice            = "192.168.4.1"
	defaultLogLevel          = "info"
	defaultRequestTimeout    = 5 * time.Second
	defaultRequestsPerSecond = 8
	defaultBurst             = 4
	defaultLEDDebounce       = 250 * time.Millisecond
	defaultLivePoll          = 450 * time.Millisecond
	defaultNavGrace          = 800 * time.Millisecond
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Device:            defaultDevice,
		LogFile:           mustExpand(defaultLogFile),
		LogLevel:          defaultLogLevel,
		RequestTimeout:    defaultRequestTimeout,
		RequestsPerSecond: defaultRequestsPerSecond,
		Burst:             defaultBurst,
		LEDDebounce:       defaultLEDDebounce,
		LivePoll:          defaultLivePoll,
		NavGrace:          defaultNavGrace,
	}
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		Device            string  `toml:"device"`
		LogFile           string  `toml:"log_file"`
		LogLevel          string  `toml:"log_level"`
		RequestTimeoutMs  int     `toml:"request_timeout_ms"`
		RequestsPerSecond float64 `toml:"requests_per_second"`
		Burst             int     `toml:"burst"`
		LEDDebounceMs     int     `toml:"led_debounce_ms"`
		LivePollMs        int     `toml:"live_poll_ms"`
		NavGraceMs        int     `toml:"nav_grace_ms"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.Device); v != "" {
		cfg.Device = v
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.ToLower(strings.TrimSpace(raw.LogLevel)); v != "" {
		switch v {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = v
		default:
			return Config{}, fmt.Errorf("parse config: log_level %q must be debug, info, warn or error", raw.LogLevel)
		}
	}
	if raw.RequestsPerSecond > 0 {
		cfg.RequestsPerSecond = raw.RequestsPerSecond
	}
	if raw.Burst > 0 {
		cfg.Burst = raw.Burst
	}
	cfg.RequestTimeout = millis(raw.RequestTimeoutMs, cfg.RequestTimeout)
	cfg.LEDDebounce = millis(raw.LEDDebounceMs, cfg.LEDDebounce)
	cfg.LivePoll = millis(raw.LivePollMs, cfg.LivePoll)
	cfg.NavGrace = millis(raw.NavGraceMs, cfg.NavGrace)

	return cfg, nil
}

func millis(v int, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return time.Duration(v) * time.Millisecond
}

// LogDir returns the directory holding the log file.
func (c Config) LogDir() string {
	if strings.TrimSpace(c.LogFile) == "" {
		return filepath.Dir(mustExpand(defaultLogFile))
	}
	return filepath.Dir(c.LogFile)
}

// ExpandPath resolves ~ and makes path absolute.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
