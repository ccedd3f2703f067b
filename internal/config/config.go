package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultModel       = "gpt-4o"
	DefaultMaxTokens   = 4096
	DefaultTemperature = 0.7
	DefaultHost        = "0.0.0.0"
	DefaultPort        = 8000
	DefaultOrigins     = "http://localhost:3000"
	DefaultPruneMaxAge = "24h"

	DefaultRetryMaxAttempts = 3
	DefaultRetryInitialWait = "2s"
	DefaultRetryMaxWait     = "10s"
)

type Config struct {
	Agent     AgentConfig    `json:"agent"`
	OpenAI    ProviderConfig `json:"openai"`
	Anthropic ProviderConfig `json:"anthropic"`
	Server    ServerConfig   `json:"server"`
	Store     StoreConfig    `json:"store"`
	Retry     RetryConfig    `json:"retry"`
	Janitor   JanitorConfig  `json:"janitor"`
}

type AgentConfig struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"maxTokens"`
	Temperature float64 `json:"temperature"`
}

type ProviderConfig struct {
	APIKey  string `json:"apiKey"`
	BaseURL string `json:"baseUrl,omitempty"`
}

type ServerConfig struct {
	Host           string   `json:"host"`
	Port           int      `json:"port"`
	AllowedOrigins []string `json:"allowedOrigins"`
}

type StoreConfig struct {
	DBPath string `json:"dbPath,omitempty"`
}

// RetryConfig bounds the upstream retry loop. Disabled means one attempt
// per request with no waits.
type RetryConfig struct {
	Enabled     bool   `json:"enabled"`
	MaxAttempts int    `json:"maxAttempts,omitempty"`
	InitialWait string `json:"initialWait,omitempty"`
	MaxWait     string `json:"maxWait,omitempty"`
}

type JanitorConfig struct {
	Enabled     bool   `json:"enabled"`
	PruneMaxAge string `json:"pruneMaxAge,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Agent: AgentConfig{
			Model:       DefaultModel,
			MaxTokens:   DefaultMaxTokens,
			Temperature: DefaultTemperature,
		},
		Server: ServerConfig{
			Host:           DefaultHost,
			Port:           DefaultPort,
			AllowedOrigins: []string{DefaultOrigins},
		},
		Store: StoreConfig{
			DBPath: filepath.Join(ConfigDir(), "canvas.db"),
		},
		Retry: RetryConfig{
			Enabled:     true,
			MaxAttempts: DefaultRetryMaxAttempts,
			InitialWait: DefaultRetryInitialWait,
			MaxWait:     DefaultRetryMaxWait,
		},
		Janitor: JanitorConfig{
			Enabled:     true,
			PruneMaxAge: DefaultPruneMaxAge,
		},
	}
}

func ConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".canvasd")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

func LoadConfig() (*Config, error) {
	// A local .env is developer convenience; missing is the normal case.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.OpenAI.APIKey = key
	}
	if url := os.Getenv("OPENAI_BASE_URL"); url != "" {
		cfg.OpenAI.BaseURL = url
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		cfg.Anthropic.APIKey = key
	}
	if url := os.Getenv("ANTHROPIC_BASE_URL"); url != "" {
		cfg.Anthropic.BaseURL = url
	}
	if model := os.Getenv("CANVASD_MODEL"); model != "" {
		cfg.Agent.Model = model
	}
	if host := os.Getenv("CANVASD_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("CANVASD_PORT"); port != "" {
		if parsed, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = parsed
		}
	}
	if origins := os.Getenv("CANVASD_ALLOWED_ORIGINS"); origins != "" {
		var parsed []string
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				parsed = append(parsed, o)
			}
		}
		if len(parsed) > 0 {
			cfg.Server.AllowedOrigins = parsed
		}
	}
	if dbPath := os.Getenv("CANVASD_DB_PATH"); dbPath != "" {
		cfg.Store.DBPath = dbPath
	}
	if maxTokens := os.Getenv("CANVASD_MAX_TOKENS"); maxTokens != "" {
		if parsed, err := strconv.Atoi(maxTokens); err == nil {
			cfg.Agent.MaxTokens = parsed
		}
	}
	if enabled := os.Getenv("CANVASD_RETRY_ENABLED"); enabled != "" {
		if parsed, err := strconv.ParseBool(enabled); err == nil {
			cfg.Retry.Enabled = parsed
		}
	}
	if attempts := os.Getenv("CANVASD_RETRY_MAX_ATTEMPTS"); attempts != "" {
		if parsed, err := strconv.Atoi(attempts); err == nil {
			cfg.Retry.MaxAttempts = parsed
		}
	}
	if enabled := os.Getenv("CANVASD_JANITOR_ENABLED"); enabled != "" {
		if parsed, err := strconv.ParseBool(enabled); err == nil {
			cfg.Janitor.Enabled = parsed
		}
	}

	if cfg.Agent.Model == "" {
		cfg.Agent.Model = DefaultModel
	}
	if cfg.Agent.MaxTokens <= 0 {
		cfg.Agent.MaxTokens = DefaultMaxTokens
	}
	if cfg.Store.DBPath == "" {
		cfg.Store.DBPath = DefaultConfig().Store.DBPath
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{DefaultOrigins}
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = DefaultRetryMaxAttempts
	}
	if cfg.Retry.InitialWait == "" {
		cfg.Retry.InitialWait = DefaultRetryInitialWait
	}
	if cfg.Retry.MaxWait == "" {
		cfg.Retry.MaxWait = DefaultRetryMaxWait
	}
	if cfg.Janitor.PruneMaxAge == "" {
		cfg.Janitor.PruneMaxAge = DefaultPruneMaxAge
	}

	return cfg, nil
}

func SaveConfig(cfg *Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(ConfigPath(), data, 0644)
}
