package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_BASE_URL", "")
	t.Setenv("ANTHROPIC_BASE_URL", "")
	return tmpDir
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}
	if cfg.Agent.Model != DefaultModel {
		t.Errorf("model = %q, want %q", cfg.Agent.Model, DefaultModel)
	}
	if cfg.Agent.MaxTokens != DefaultMaxTokens {
		t.Errorf("maxTokens = %d, want %d", cfg.Agent.MaxTokens, DefaultMaxTokens)
	}
	if cfg.Server.Host != DefaultHost {
		t.Errorf("host = %q, want %q", cfg.Server.Host, DefaultHost)
	}
	if cfg.Server.Port != DefaultPort {
		t.Errorf("port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != DefaultOrigins {
		t.Errorf("allowedOrigins = %v", cfg.Server.AllowedOrigins)
	}
	if !cfg.Janitor.Enabled {
		t.Error("janitor should be enabled by default")
	}
	if !cfg.Retry.Enabled {
		t.Error("retry should be enabled by default")
	}
	if cfg.Retry.MaxAttempts != DefaultRetryMaxAttempts {
		t.Errorf("retry maxAttempts = %d, want %d", cfg.Retry.MaxAttempts, DefaultRetryMaxAttempts)
	}
	if cfg.Retry.InitialWait != DefaultRetryInitialWait || cfg.Retry.MaxWait != DefaultRetryMaxWait {
		t.Errorf("retry waits = %q/%q", cfg.Retry.InitialWait, cfg.Retry.MaxWait)
	}
	if cfg.Store.DBPath == "" {
		t.Error("dbPath should not be empty")
	}
}

func TestLoadConfig_NoFile(t *testing.T) {
	isolateHome(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Agent.Model != DefaultModel {
		t.Errorf("expected default model %q, got %q", DefaultModel, cfg.Agent.Model)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	tmpDir := isolateHome(t)

	cfgDir := filepath.Join(tmpDir, ".canvasd")
	os.MkdirAll(cfgDir, 0755)

	testCfg := map[string]any{
		"agent": map[string]any{
			"model":     "gpt-4-turbo",
			"maxTokens": 2048,
		},
		"openai": map[string]any{
			"apiKey": "sk-test-key",
		},
	}
	data, _ := json.MarshalIndent(testCfg, "", "  ")
	os.WriteFile(filepath.Join(cfgDir, "config.json"), data, 0644)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Agent.Model != "gpt-4-turbo" {
		t.Errorf("model = %q, want gpt-4-turbo", cfg.Agent.Model)
	}
	if cfg.Agent.MaxTokens != 2048 {
		t.Errorf("maxTokens = %d, want 2048", cfg.Agent.MaxTokens)
	}
	if cfg.OpenAI.APIKey != "sk-test-key" {
		t.Errorf("apiKey = %q, want sk-test-key", cfg.OpenAI.APIKey)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	isolateHome(t)

	t.Setenv("OPENAI_API_KEY", "openai-key")
	t.Setenv("ANTHROPIC_API_KEY", "anthropic-key")
	t.Setenv("CANVASD_MODEL", "gpt-4o-mini")
	t.Setenv("CANVASD_PORT", "9090")
	t.Setenv("CANVASD_ALLOWED_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("CANVASD_RETRY_ENABLED", "false")
	t.Setenv("CANVASD_RETRY_MAX_ATTEMPTS", "5")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.OpenAI.APIKey != "openai-key" {
		t.Errorf("openai apiKey = %q", cfg.OpenAI.APIKey)
	}
	if cfg.Anthropic.APIKey != "anthropic-key" {
		t.Errorf("anthropic apiKey = %q", cfg.Anthropic.APIKey)
	}
	if cfg.Agent.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", cfg.Agent.Model)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	want := []string{"http://a.example", "http://b.example"}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[0] != want[0] || cfg.Server.AllowedOrigins[1] != want[1] {
		t.Errorf("allowedOrigins = %v, want %v", cfg.Server.AllowedOrigins, want)
	}
	if cfg.Retry.Enabled {
		t.Error("retry should be disabled via env")
	}
	if cfg.Retry.MaxAttempts != 5 {
		t.Errorf("retry maxAttempts = %d, want 5", cfg.Retry.MaxAttempts)
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	tmpDir := isolateHome(t)

	cfgDir := filepath.Join(tmpDir, ".canvasd")
	os.MkdirAll(cfgDir, 0755)
	data, _ := json.Marshal(map[string]any{
		"openai": map[string]any{"apiKey": "file-key"},
	})
	os.WriteFile(filepath.Join(cfgDir, "config.json"), data, 0644)

	t.Setenv("OPENAI_API_KEY", "env-wins")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.OpenAI.APIKey != "env-wins" {
		t.Errorf("apiKey = %q, want env-wins", cfg.OpenAI.APIKey)
	}
}

func TestLoadConfig_BaseURLEnv(t *testing.T) {
	isolateHome(t)

	t.Setenv("OPENAI_BASE_URL", "http://localhost:8080/v1")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.OpenAI.BaseURL != "http://localhost:8080/v1" {
		t.Errorf("baseURL = %q", cfg.OpenAI.BaseURL)
	}
}

func TestSaveConfig(t *testing.T) {
	tmpDir := isolateHome(t)

	cfg := DefaultConfig()
	cfg.OpenAI.APIKey = "test-key"

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, ".canvasd", "config.json"))
	if err != nil {
		t.Fatalf("read saved config: %v", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("unmarshal saved config: %v", err)
	}
	if loaded.OpenAI.APIKey != "test-key" {
		t.Errorf("saved apiKey = %q, want test-key", loaded.OpenAI.APIKey)
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	tmpDir := isolateHome(t)

	cfgDir := filepath.Join(tmpDir, ".canvasd")
	os.MkdirAll(cfgDir, 0755)
	os.WriteFile(filepath.Join(cfgDir, "config.json"), []byte("invalid json"), 0644)

	_, err := LoadConfig()
	if err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestLoadConfig_EmptyFieldsGetDefaults(t *testing.T) {
	tmpDir := isolateHome(t)

	cfgDir := filepath.Join(tmpDir, ".canvasd")
	os.MkdirAll(cfgDir, 0755)
	data, _ := json.Marshal(map[string]any{
		"agent": map[string]any{"model": ""},
		"store": map[string]any{"dbPath": ""},
	})
	os.WriteFile(filepath.Join(cfgDir, "config.json"), data, 0644)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Agent.Model != DefaultModel {
		t.Errorf("model = %q, want default", cfg.Agent.Model)
	}
	if cfg.Store.DBPath == "" {
		t.Error("dbPath should fall back to default")
	}
	if cfg.Janitor.PruneMaxAge != DefaultPruneMaxAge {
		t.Errorf("pruneMaxAge = %q, want default", cfg.Janitor.PruneMaxAge)
	}
}
