package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cexll/agentsdk-go/pkg/api"
	"github.com/cexll/agentsdk-go/pkg/model"
	"github.com/cexll/agentsdk-go/pkg/tool"
	"github.com/stellarlinkco/boardclaw/internal/config"
	"github.com/stellarlinkco/boardclaw/internal/mcp"
)

// DefaultInstruction is the system prompt used when the workspace carries no
// AGENTS.md of its own.
const DefaultInstruction = "You are a helpful assistant that can automate Monday.com boards " +
	"by invoking Make.com scenarios and Monday.com native actions. " +
	"Keep answers brief."

// Runtime is the slice of the agentsdk runtime the rest of the process uses;
// mockable in tests.
type Runtime interface {
	Run(ctx context.Context, req api.Request) (*api.Response, error)
	Close()
}

type runtimeAdapter struct {
	rt *api.Runtime
}

func (r *runtimeAdapter) Run(ctx context.Context, req api.Request) (*api.Response, error) {
	return r.rt.Run(ctx, req)
}

func (r *runtimeAdapter) Close() {
	r.rt.Close()
}

// Factory creates a Runtime; injectable so tests can avoid the real SDK.
type Factory func(cfg *config.Config, tools []tool.Tool, sysPrompt string) (Runtime, error)

// New creates the default agentsdk-go runtime with the discovered remote
// tools registered. Built-in local tools stay disabled: the agent's only
// capabilities are the provider stubs.
func New(cfg *config.Config, tools []tool.Tool, sysPrompt string) (Runtime, error) {
	if cfg.Provider.APIKey == "" {
		return nil, fmt.Errorf("API key not set. Run 'boardclaw onboard' or set BOARDCLAW_API_KEY / ANTHROPIC_API_KEY")
	}

	var provider api.ModelFactory
	switch cfg.Provider.Type {
	case "openai":
		provider = &model.OpenAIProvider{
			APIKey:    cfg.Provider.APIKey,
			BaseURL:   cfg.Provider.BaseURL,
			ModelName: cfg.Agent.Model,
			MaxTokens: cfg.Agent.MaxTokens,
		}
	default: // "anthropic" or empty
		provider = &model.AnthropicProvider{
			APIKey:    cfg.Provider.APIKey,
			BaseURL:   cfg.Provider.BaseURL,
			ModelName: cfg.Agent.Model,
			MaxTokens: cfg.Agent.MaxTokens,
		}
	}

	rt, err := api.New(context.Background(), api.Options{
		ProjectRoot:         cfg.Agent.Workspace,
		ModelFactory:        provider,
		SystemPrompt:        sysPrompt,
		MaxIterations:       cfg.Agent.MaxToolIterations,
		EnabledBuiltinTools: []string{},
		CustomTools:         tools,
	})
	if err != nil {
		return nil, fmt.Errorf("create runtime: %w", err)
	}
	return &runtimeAdapter{rt: rt}, nil
}

// Bindings maps the configured tool providers to discovery bindings.
// Providers without an endpoint are left out.
func Bindings(cfg *config.Config) []mcp.Binding {
	var bindings []mcp.Binding
	if cfg.Providers.Make.Endpoint != "" {
		bindings = append(bindings, mcp.Binding{
			Endpoint: cfg.Providers.Make.Endpoint,
			Prefix:   cfg.Providers.Make.Prefix,
			Headers:  cfg.Providers.Make.AuthHeaders(),
		})
	}
	if cfg.Providers.Monday.Endpoint != "" {
		bindings = append(bindings, mcp.Binding{
			Endpoint: cfg.Providers.Monday.Endpoint,
			Prefix:   cfg.Providers.Monday.Prefix,
			Headers:  cfg.Providers.Monday.AuthHeaders(),
		})
	}
	return bindings
}

// BuildSystemPrompt prefers the workspace AGENTS.md and falls back to the
// built-in instruction.
func BuildSystemPrompt(workspace string) string {
	if data, err := os.ReadFile(filepath.Join(workspace, "AGENTS.md")); err == nil {
		if prompt := strings.TrimSpace(string(data)); prompt != "" {
			return prompt
		}
	}
	return DefaultInstruction
}
