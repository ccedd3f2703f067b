package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/drawspace-ai/canvasd/internal/agent"
	"github.com/drawspace-ai/canvasd/internal/canvas"
	"github.com/drawspace-ai/canvasd/internal/config"
	"github.com/drawspace-ai/canvasd/internal/janitor"
	"github.com/drawspace-ai/canvasd/internal/live"
	"github.com/drawspace-ai/canvasd/internal/llm"
	"github.com/drawspace-ai/canvasd/internal/server"
	"github.com/drawspace-ai/canvasd/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "canvasd",
	Short: "canvasd - AI design agent for the collaborative canvas",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server (chat endpoints + live websocket)",
	RunE:  runServe,
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the canvas tool definitions",
	RunE:  runTools,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show canvasd status",
	RunE:  runStatus,
}

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize config",
	RunE:  runOnboard,
}

func init() {
	rootCmd.AddCommand(serveCmd, toolsCmd, statusCmd, onboardCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildClients(cfg *config.Config) (map[llm.Provider]llm.Client, error) {
	clients := make(map[llm.Provider]llm.Client)
	if cfg.OpenAI.APIKey != "" {
		clients[llm.ProviderOpenAI] = llm.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL)
	}
	if cfg.Anthropic.APIKey != "" {
		clients[llm.ProviderAnthropic] = llm.NewAnthropicClient(cfg.Anthropic.APIKey, cfg.Anthropic.BaseURL)
	}
	if len(clients) == 0 {
		return nil, fmt.Errorf("no API key set. Run 'canvasd onboard' or set OPENAI_API_KEY / ANTHROPIC_API_KEY")
	}
	return clients, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	clients, err := buildClients(cfg)
	if err != nil {
		return err
	}

	registry := canvas.DefaultRegistry()
	if err := registry.Validate(); err != nil {
		return fmt.Errorf("tool registry: %w", err)
	}

	st, err := store.NewSQLiteStore(cfg.Store.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if _, err := llm.ResolveModel(cfg.Agent.Model); err != nil {
		return fmt.Errorf("configured model: %w", err)
	}

	hub := live.NewHub()
	exec := agent.NewExecutor(registry, st, hub)
	svc := agent.NewService(clients, registry, exec, retryPolicy(cfg.Retry),
		cfg.Agent.Model, cfg.Agent.Temperature, int64(cfg.Agent.MaxTokens))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Janitor.Enabled {
		maxAge, err := time.ParseDuration(cfg.Janitor.PruneMaxAge)
		if err != nil {
			return fmt.Errorf("parse pruneMaxAge: %w", err)
		}
		j := janitor.New(hub, maxAge)
		if err := j.Start(ctx); err != nil {
			return fmt.Errorf("start janitor: %w", err)
		}
	}

	srv := server.New(cfg.Server, svc, st, hub)
	return srv.Run(ctx)
}

// retryPolicy maps the retry section onto the policy. Disabled collapses to
// a single attempt; malformed waits keep the defaults.
func retryPolicy(cfg config.RetryConfig) llm.RetryPolicy {
	p := llm.DefaultRetryPolicy()
	if !cfg.Enabled {
		p.MaxAttempts = 1
		return p
	}
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	if d, err := time.ParseDuration(cfg.InitialWait); err == nil && d > 0 {
		p.InitialInterval = d
	}
	if d, err := time.ParseDuration(cfg.MaxWait); err == nil && d > 0 {
		p.MaxInterval = d
	}
	return p
}

func runTools(cmd *cobra.Command, args []string) error {
	registry := canvas.DefaultRegistry()
	if err := registry.Validate(); err != nil {
		return fmt.Errorf("tool registry: %w", err)
	}

	type toolOut struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Parameters  map[string]any `json:"parameters"`
	}
	out := make([]toolOut, 0, len(registry.List()))
	for _, d := range registry.List() {
		out = append(out, toolOut{Name: d.Name, Description: d.Description, Parameters: d.Schema()})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Config: error (%v)\n", err)
		return nil
	}

	fmt.Printf("Config: %s\n", config.ConfigPath())
	fmt.Printf("Model: %s\n", cfg.Agent.Model)
	fmt.Printf("Store: %s\n", cfg.Store.DBPath)
	fmt.Printf("Listen: %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("Origins: %v\n", cfg.Server.AllowedOrigins)
	printKey("OpenAI", cfg.OpenAI.APIKey)
	printKey("Anthropic", cfg.Anthropic.APIKey)
	fmt.Printf("Supported models: %v\n", llm.SupportedModels())
	return nil
}

func printKey(name, key string) {
	switch {
	case key == "":
		fmt.Printf("%s API Key: not set\n", name)
	case len(key) > 8:
		fmt.Printf("%s API Key: %s...%s\n", name, key[:4], key[len(key)-4:])
	default:
		fmt.Printf("%s API Key: set\n", name)
	}
}

func runOnboard(cmd *cobra.Command, args []string) error {
	cfgDir := config.ConfigDir()
	cfgPath := config.ConfigPath()

	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := config.SaveConfig(config.DefaultConfig()); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("Created config: %s\n", cfgPath)
	} else {
		fmt.Printf("Config already exists: %s\n", cfgPath)
	}

	fmt.Println("\nNext steps:")
	fmt.Printf("  1. Edit %s to set your API keys\n", cfgPath)
	fmt.Println("  2. Or set OPENAI_API_KEY / ANTHROPIC_API_KEY environment variables")
	fmt.Println("  3. Run 'canvasd serve' to start the server")
	return nil
}
