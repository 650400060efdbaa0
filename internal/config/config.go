// Package config loads vidtutor settings from a YAML file, the environment
// and a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/abhisek/vidtutor/internal/llm"
	"github.com/abhisek/vidtutor/internal/tutor"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Session ownership modes for the HTTP server.
const (
	SessionModeClient = "client" // client sends the full state every turn
	SessionModeServer = "server" // state is loaded from the session store
)

// Config is the top-level structure of config.yaml.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Store  StoreConfig  `yaml:"store"`
	LLM    llm.Config   `yaml:"llm"`
	Tutor  tutor.Config `yaml:"tutor"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	SessionMode     string        `yaml:"session_mode"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	RateLimit       float64       `yaml:"rate_limit"` // requests per second per client, 0 disables
	RateBurst       int           `yaml:"rate_burst"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig mirrors logger.Options.
type LogConfig struct {
	Mode             string `yaml:"mode"` // "dev" | "prod"
	Level            string `yaml:"level"`
	DisableRedaction bool   `yaml:"disable_redaction"`
	HashSalt         string `yaml:"hash_salt"`
}

// StoreConfig locates the SQLite database. An empty path means the
// default data directory.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			SessionMode:     SessionModeClient,
			AllowedOrigins:  []string{"*"},
			RateLimit:       5,
			RateBurst:       10,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Mode:  "dev",
			Level: "info",
		},
		LLM:   llm.DefaultConfig(),
		Tutor: tutor.DefaultConfig(),
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/vidtutor/config.yaml, falling back
// to ~/.config.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "vidtutor", "config.yaml")
}

// Load reads the config file at path over the defaults, then applies
// environment overrides. An empty path reads DefaultPath, which may be
// absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	ApplyEnv(cfg)
	return cfg, nil
}

// LoadDotEnv loads variables from .env files into the process environment
// without overriding variables that are already set. Missing files are
// ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("loading env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides cfg with VIDTUTOR_* environment variables.
func ApplyEnv(cfg *Config) {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString(&cfg.Server.Addr, "VIDTUTOR_ADDR")
	setString(&cfg.Server.SessionMode, "VIDTUTOR_SESSION_MODE")
	if v := os.Getenv("VIDTUTOR_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("VIDTUTOR_RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			cfg.Server.RateLimit = f
		}
	}

	setString(&cfg.Log.Mode, "VIDTUTOR_LOG_MODE")
	setString(&cfg.Log.Level, "VIDTUTOR_LOG_LEVEL")
	setString(&cfg.Log.HashSalt, "VIDTUTOR_LOG_HASH_SALT")

	setString(&cfg.Store.Path, "VIDTUTOR_DB")

	if v := os.Getenv("VIDTUTOR_STRUCTURED_EVALUATION"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tutor.StructuredEvaluation = b
		}
	}

	llm.ApplyEnv(&cfg.LLM)
}

// Validate checks the settings that have a fixed set of values.
func (c *Config) Validate() error {
	switch c.Server.SessionMode {
	case SessionModeClient, SessionModeServer:
	default:
		return fmt.Errorf("server.session_mode must be %q or %q, got %q",
			SessionModeClient, SessionModeServer, c.Server.SessionMode)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative")
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		return fmt.Errorf("server.rate_burst must be at least 1 when rate limiting is on")
	}
	switch c.Log.Mode {
	case "dev", "prod":
	default:
		return fmt.Errorf("log.mode must be \"dev\" or \"prod\", got %q", c.Log.Mode)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
