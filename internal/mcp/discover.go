package mcp

import (
	"context"
	"fmt"
	"log"

	"github.com/cexll/agentsdk-go/pkg/tool"
)

// Binding groups one provider's tools under a namespaced prefix. Constructed
// once at startup, never mutated.
type Binding struct {
	Endpoint string
	Prefix   string
	Headers  map[string]string
}

func (b Binding) validate() error {
	if b.Endpoint == "" {
		return fmt.Errorf("binding %q: endpoint is required", b.Prefix)
	}
	if b.Prefix == "" {
		return fmt.Errorf("binding for %s: prefix is required", b.Endpoint)
	}
	return nil
}

// Discover fetches the provider manifest and wraps every entry as a callable
// tool stub named "{prefix}_{name}". Discovery failure is recovered here: it
// logs a warning and yields zero tools so one unreachable provider never takes
// down the others. An empty manifest is a valid outcome, not a failure.
func Discover(ctx context.Context, b Binding) []tool.Tool {
	if err := b.validate(); err != nil {
		log.Printf("[mcp] discover skipped: %v", err)
		return nil
	}

	client := NewClient(b.Endpoint, b.Headers)
	manifest, err := client.Manifest(ctx)
	if err != nil {
		log.Printf("[mcp] discover %s warning: %v", b.Endpoint, err)
		return nil
	}

	tools := make([]tool.Tool, 0, len(manifest.Tools))
	for _, desc := range manifest.Tools {
		if desc.Name == "" {
			log.Printf("[mcp] discover %s: skipping unnamed tool", b.Endpoint)
			continue
		}
		tools = append(tools, newRemoteTool(client, b.Prefix, desc))
	}
	log.Printf("[mcp] discovered %d tools from %s (prefix %s)", len(tools), b.Endpoint, b.Prefix)
	return tools
}

// DiscoverAll runs discovery for every binding in order and concatenates the
// stubs. Bindings with an empty endpoint are skipped silently so optional
// providers can stay unconfigured.
func DiscoverAll(ctx context.Context, bindings []Binding) []tool.Tool {
	var all []tool.Tool
	for _, b := range bindings {
		if b.Endpoint == "" {
			continue
		}
		all = append(all, Discover(ctx, b)...)
	}
	return all
}
