package mcp

// ToolDescriptor is one entry from a provider's tool manifest.
type ToolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// Manifest is the set of tools a provider advertises as callable.
type Manifest struct {
	Tools []ToolDescriptor `json:"tools"`
}
