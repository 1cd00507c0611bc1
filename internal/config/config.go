package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	DefaultModel             = "claude-sonnet-4-5-20250929"
	DefaultMaxTokens         = 8192
	DefaultMaxToolIterations = 20

	DefaultMakePrefix     = "make"
	DefaultMondayPrefix   = "monday"
	DefaultMondayEndpoint = "https://mcp.monday.com/sse"
)

type Config struct {
	Agent     AgentConfig     `json:"agent"`
	Provider  ProviderConfig  `json:"provider"`
	Providers ProvidersConfig `json:"providers"`
	Channels  ChannelsConfig  `json:"channels"`
}

type AgentConfig struct {
	Workspace         string `json:"workspace"`
	Model             string `json:"model"`
	MaxTokens         int    `json:"maxTokens"`
	MaxToolIterations int    `json:"maxToolIterations"`
}

// ProviderConfig selects the LLM backend for the agent runtime.
type ProviderConfig struct {
	Type    string `json:"type,omitempty"` // "anthropic" (default) or "openai"
	APIKey  string `json:"apiKey"`
	BaseURL string `json:"baseUrl,omitempty"`
}

// ProvidersConfig holds the remote tool providers the agent can call.
type ProvidersConfig struct {
	Make   ToolProviderConfig `json:"make"`
	Monday ToolProviderConfig `json:"monday"`
}

// ToolProviderConfig describes one manifest-plus-call endpoint. An empty
// endpoint disables the provider. Token, when set, is sent as a bearer
// Authorization header on every request to that provider.
type ToolProviderConfig struct {
	Endpoint string `json:"endpoint"`
	Prefix   string `json:"prefix"`
	Token    string `json:"token,omitempty"`
}

type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
}

type TelegramConfig struct {
	Enabled   bool     `json:"enabled"`
	Token     string   `json:"token"`
	AllowFrom []string `json:"allowFrom"`
	Proxy     string   `json:"proxy,omitempty"`
}

func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Agent: AgentConfig{
			Workspace:         filepath.Join(home, ".boardclaw", "workspace"),
			Model:             DefaultModel,
			MaxTokens:         DefaultMaxTokens,
			MaxToolIterations: DefaultMaxToolIterations,
		},
		Provider: ProviderConfig{},
		Providers: ProvidersConfig{
			Make: ToolProviderConfig{
				Prefix: DefaultMakePrefix,
			},
			Monday: ToolProviderConfig{
				Endpoint: DefaultMondayEndpoint,
				Prefix:   DefaultMondayPrefix,
			},
		},
		Channels: ChannelsConfig{},
	}
}

func ConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".boardclaw")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// CronStorePath is the job store shared by the gateway scheduler and the
// 'boardclaw cron' management commands.
func CronStorePath() string {
	return filepath.Join(ConfigDir(), "data", "cron", "jobs.json")
}

func LoadConfig() (*Config, error) {
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
	if key := os.Getenv("BOARDCLAW_API_KEY"); key != "" {
		cfg.Provider.APIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = key
		if cfg.Provider.Type == "" {
			cfg.Provider.Type = "openai"
		}
	}
	if url := os.Getenv("BOARDCLAW_BASE_URL"); url != "" {
		cfg.Provider.BaseURL = url
	}
	if token := os.Getenv("MONDAY_API_TOKEN"); token != "" {
		cfg.Providers.Monday.Token = token
	}
	if url := os.Getenv("BOARDCLAW_MONDAY_ENDPOINT"); url != "" {
		cfg.Providers.Monday.Endpoint = url
	}
	if url := os.Getenv("BOARDCLAW_MAKE_ENDPOINT"); url != "" {
		cfg.Providers.Make.Endpoint = url
	}
	if token := os.Getenv("BOARDCLAW_TELEGRAM_TOKEN"); token != "" {
		cfg.Channels.Telegram.Token = token
	}

	if cfg.Agent.Workspace == "" {
		cfg.Agent.Workspace = DefaultConfig().Agent.Workspace
	}
	if cfg.Providers.Make.Prefix == "" {
		cfg.Providers.Make.Prefix = DefaultMakePrefix
	}
	if cfg.Providers.Monday.Prefix == "" {
		cfg.Providers.Monday.Prefix = DefaultMondayPrefix
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

// AuthHeaders builds the header map for a tool provider. A provider without a
// token gets an empty map; calls proceed unauthenticated and any rejection
// surfaces as a per-turn error.
func (p ToolProviderConfig) AuthHeaders() map[string]string {
	headers := map[string]string{}
	if p.Token != "" {
		headers["Authorization"] = "Bearer " + p.Token
	}
	return headers
}
