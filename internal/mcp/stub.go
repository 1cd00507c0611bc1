package mcp

import (
	"context"
	"errors"

	"github.com/cexll/agentsdk-go/pkg/tool"
)

// remoteTool proxies one remote tool as an agentsdk tool.Tool. The registered
// name carries the provider prefix; the wire payload always uses the original
// manifest name.
type remoteTool struct {
	client      *Client
	remoteName  string
	name        string
	description string
	schema      *tool.JSONSchema
}

func newRemoteTool(client *Client, prefix string, desc ToolDescriptor) *remoteTool {
	return &remoteTool{
		client:      client,
		remoteName:  desc.Name,
		name:        prefix + "_" + desc.Name,
		description: desc.Description,
		schema:      convertSchema(desc.InputSchema),
	}
}

func (t *remoteTool) Name() string { return t.name }

func (t *remoteTool) Description() string { return t.description }

func (t *remoteTool) Schema() *tool.JSONSchema { return t.schema }

// Execute forwards the call to the remote provider and returns the response
// body untouched. Transport errors and non-2xx statuses surface to the runtime.
func (t *remoteTool) Execute(ctx context.Context, params map[string]interface{}) (*tool.ToolResult, error) {
	if ctx == nil {
		return nil, errors.New("context is nil")
	}
	body, err := t.client.Call(ctx, t.remoteName, params)
	if err != nil {
		return nil, err
	}
	return &tool.ToolResult{
		Success: true,
		Output:  body,
	}, nil
}

// convertSchema maps a manifest inputSchema object onto the subset of JSON
// Schema the runtime validates against. Unknown keys are dropped.
func convertSchema(raw map[string]any) *tool.JSONSchema {
	s := &tool.JSONSchema{Type: "object"}
	if len(raw) == 0 {
		return s
	}
	if t, ok := raw["type"].(string); ok && t != "" {
		s.Type = t
	}
	if props, ok := raw["properties"].(map[string]any); ok {
		s.Properties = props
	}
	if req, ok := raw["required"].([]any); ok {
		for _, r := range req {
			if name, ok := r.(string); ok {
				s.Required = append(s.Required, name)
			}
		}
	}
	if pattern, ok := raw["pattern"].(string); ok {
		s.Pattern = pattern
	}
	if items, ok := raw["items"].(map[string]any); ok {
		s.Items = convertSchema(items)
	}
	return s
}
