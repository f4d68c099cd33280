// Package config loads and persists wikictl's configuration: the API base
// URL and bearer token, plus the locations of the local mirror file and
// the debug log.
//
// Values come from ~/.config/wikictl/config.json and can be overridden
// with WIKICTL_BASE_URL / WIKICTL_TOKEN environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config is the loaded tool configuration.
type Config struct {
	BaseURL string `json:"base_url,omitempty"`
	Token   string `json:"token,omitempty"`
}

// Dir returns the wikictl configuration directory, creating nothing.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "wikictl")
}

// File returns the config file path.
func File() string {
	return filepath.Join(Dir(), "config.json")
}

// CacheFile returns the local mirror file path. WIKICTL_CACHE_FILE
// overrides it, which the tests rely on to keep cache I/O out of the
// user's home directory.
func CacheFile() string {
	if p := os.Getenv("WIKICTL_CACHE_FILE"); p != "" {
		return p
	}
	return filepath.Join(Dir(), "cache.json")
}

// LogFile returns the debug log path.
func LogFile() string {
	return filepath.Join(Dir(), "wikictl.log")
}

// Load reads the config file (a missing file is an empty config) and
// applies environment overrides.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(File())
	v.SetConfigType("json")
	v.SetEnvPrefix("wikictl")
	v.AutomaticEnv()
	v.BindEnv("base_url")
	v.BindEnv("token")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			// A corrupt config file should not brick the tool; the env
			// overrides may still carry everything needed.
			if _, ok := err.(viper.ConfigParseError); !ok {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	return &Config{
		BaseURL: v.GetString("base_url"),
		Token:   v.GetString("token"),
	}, nil
}

// Save merges non-empty fields into the existing config and writes it
// back with user-only permissions.
func Save(baseURL, token string) error {
	cfg, err := Load()
	if err != nil {
		cfg = &Config{}
	}
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if token != "" {
		cfg.Token = token
	}

	if err := os.MkdirAll(Dir(), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(File(), append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// APIBase normalizes the configured base URL so it always ends in /api,
// which the endpoints expect but users routinely omit.
func (c *Config) APIBase() string {
	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		return ""
	}
	if !strings.HasSuffix(base, "/api") {
		base += "/api"
	}
	return base
}

// Credentials returns the API base and token, or an error naming the
// missing piece and how to set it.
func (c *Config) Credentials() (base, token string, err error) {
	base = c.APIBase()
	if base == "" {
		return "", "", errors.New("missing base URL. Run: wikictl auth set --base-url <URL>")
	}
	if c.Token == "" {
		return "", "", errors.New("missing token. Run: wikictl auth set --token <JWT>")
	}
	return base, c.Token, nil
}

// DebugLogger returns the logger components should write diagnostics to.
// Without --debug everything is discarded; with it, output goes to a
// size-rotated log file so verbose fetch traces never flood the terminal.
func DebugLogger(debug bool) *log.Logger {
	if !debug {
		return log.New(io.Discard, "", 0)
	}
	return log.New(&lumberjack.Logger{
		Filename:   LogFile(),
		MaxSize:    5, // megabytes
		MaxBackups: 2,
	}, "[wikictl] ", log.LstdFlags)
}
