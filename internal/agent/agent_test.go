package agent

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stellarlinkco/boardclaw/internal/config"
)

func TestNew_NoAPIKey(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Provider.APIKey = ""

	_, err := New(cfg, nil, DefaultInstruction)
	if err == nil {
		t.Fatal("expected error without API key")
	}
	if !strings.Contains(err.Error(), "API key") {
		t.Errorf("error = %v, want API key hint", err)
	}
}

func TestBindings_BothProviders(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Providers.Make.Endpoint = "https://make.example.com/mcp-gw"
	cfg.Providers.Monday.Token = "tok"

	bindings := Bindings(cfg)
	if len(bindings) != 2 {
		t.Fatalf("bindings = %d, want 2", len(bindings))
	}
	if bindings[0].Prefix != "make" {
		t.Errorf("prefix[0] = %q, want make", bindings[0].Prefix)
	}
	if bindings[1].Prefix != "monday" {
		t.Errorf("prefix[1] = %q, want monday", bindings[1].Prefix)
	}
	if bindings[1].Headers["Authorization"] != "Bearer tok" {
		t.Errorf("monday auth = %q", bindings[1].Headers["Authorization"])
	}
	if len(bindings[0].Headers) != 0 {
		t.Errorf("make binding should have no auth headers, got %v", bindings[0].Headers)
	}
}

func TestBindings_MakeDisabledWithoutEndpoint(t *testing.T) {
	cfg := config.DefaultConfig()

	bindings := Bindings(cfg)
	if len(bindings) != 1 {
		t.Fatalf("bindings = %d, want 1 (monday only)", len(bindings))
	}
	if bindings[0].Prefix != "monday" {
		t.Errorf("prefix = %q, want monday", bindings[0].Prefix)
	}
}

func TestBindings_MondayWithoutToken(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Providers.Monday.Token = ""

	bindings := Bindings(cfg)
	if len(bindings) != 1 {
		t.Fatalf("bindings = %d, want 1", len(bindings))
	}
	// No token means unauthenticated calls, not a skipped provider.
	if len(bindings[0].Headers) != 0 {
		t.Errorf("headers = %v, want empty", bindings[0].Headers)
	}
}

func TestBuildSystemPrompt_Default(t *testing.T) {
	prompt := BuildSystemPrompt(t.TempDir())
	if prompt != DefaultInstruction {
		t.Errorf("prompt = %q, want default instruction", prompt)
	}
}

func TestBuildSystemPrompt_WorkspaceOverride(t *testing.T) {
	ws := t.TempDir()
	if err := os.WriteFile(filepath.Join(ws, "AGENTS.md"), []byte("# Boardclaw\nDo board things."), 0644); err != nil {
		t.Fatalf("write AGENTS.md: %v", err)
	}

	prompt := BuildSystemPrompt(ws)
	if !strings.Contains(prompt, "Do board things.") {
		t.Errorf("prompt = %q, want workspace content", prompt)
	}
}

func TestBuildSystemPrompt_EmptyFileFallsBack(t *testing.T) {
	ws := t.TempDir()
	if err := os.WriteFile(filepath.Join(ws, "AGENTS.md"), []byte("  \n"), 0644); err != nil {
		t.Fatalf("write AGENTS.md: %v", err)
	}

	if got := BuildSystemPrompt(ws); got != DefaultInstruction {
		t.Errorf("prompt = %q, want default instruction", got)
	}
}
