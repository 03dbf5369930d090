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

// Config holds tagdeck's runtime settings.
type Config struct {
	APIURL         string
	RequestTimeout time.Duration
	OutputDir      string
	LogFile        string
	LogLevel       string
	LogFormat      string
	// ServeBind is the artifact link listener address. Empty disables it.
	ServeBind string
}

const (
	defaultConfigPath     = "~/.config/tagdeck/config.toml"
	defaultAPIURL         = "http://127.0.0.1:8000"
	defaultRequestTimeout = 5 * time.Minute
	defaultOutputDir      = "~/Music/tagdeck"
	defaultLogFile        = "~/.local/share/tagdeck/tagdeck.log"
	defaultLogLevel       = "info"
	defaultLogFormat      = "console"
	defaultServeBind      = "127.0.0.1:0"

	serveDisabled = "off"
)

// DefaultPath returns the config file used when none is given.
func DefaultPath() string {
	return defaultConfigPath
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:         defaultAPIURL,
		RequestTimeout: defaultRequestTimeout,
		OutputDir:      mustExpand(defaultOutputDir),
		LogFile:        mustExpand(defaultLogFile),
		LogLevel:       defaultLogLevel,
		LogFormat:      defaultLogFormat,
		ServeBind:      defaultServeBind,
	}
}

// Load locates and parses the tagdeck config, falling back to defaults when missing.
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
		APIURL         string `toml:"api_url"`
		RequestTimeout string `toml:"request_timeout"`
		OutputDir      string `toml:"output_dir"`
		LogFile        string `toml:"log_file"`
		LogLevel       string `toml:"log_level"`
		LogFormat      string `toml:"log_format"`
		ServeBind      string `toml:"serve_bind"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(raw.RequestTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse config: request_timeout: %w", err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("parse config: request_timeout must be positive, got %s", v)
		}
		cfg.RequestTimeout = d
	}
	if v := strings.TrimSpace(raw.OutputDir); v != "" {
		cfg.OutputDir = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.LogFormat); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
	switch v := strings.TrimSpace(raw.ServeBind); {
	case strings.EqualFold(v, serveDisabled):
		cfg.ServeBind = ""
	case v != "":
		cfg.ServeBind = v
	}

	return cfg, nil
}

// ServeEnabled reports whether artifact links should be served.
func (c Config) ServeEnabled() bool {
	return strings.TrimSpace(c.ServeBind) != ""
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

// ExpandPath resolves a leading ~ and makes path absolute.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
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
