package tools

import (
	"context"
	"fmt"
	"sort"

	"github.com/goccy/go-json"
	mcp "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/skytask-mcp/skytask/cmd/skytask-mcp/schemas"
)

// ToolHandler produces the response envelope for one tool call. Handlers
// never return a raw Go error; failures travel inside the envelope so the
// caller always receives a classified code.
type ToolHandler = func(ctx context.Context, req mcp.CallToolRequest) schemas.ToolResponse

// ToolDefinition contains tool metadata and handler.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  []mcp.ToolOption
	Handler     ToolHandler
}

// Registry manages tool registration and discovery. It is constructed
// explicitly and handed to whatever dispatches calls; there is no
// process-wide registry.
type Registry struct {
	tools map[string]*ToolDefinition
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*ToolDefinition),
	}
}

// Register adds a tool to the registry.
func (r *Registry) Register(def *ToolDefinition) error {
	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("tool already registered: %s", def.Name)
	}
	r.tools[def.Name] = def
	return nil
}

// RegisterWithServer registers all tools with an MCP server. Each envelope
// handler is adapted onto the transport here, so serialization happens in
// exactly one place.
func (r *Registry) RegisterWithServer(server *mcpserver.MCPServer) {
	for _, def := range r.tools {
		opts := append([]mcp.ToolOption{
			mcp.WithDescription(def.Description),
		}, def.Parameters...)

		tool := mcp.NewTool(def.Name, opts...)
		server.AddTool(tool, adapt(def.Handler))
	}
}

// adapt wraps an envelope handler into the MCP transport signature.
func adapt(handler ToolHandler) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		payload, err := json.Marshal(handler(ctx, req))
		if err != nil {
			return mcp.NewToolResultText(`{"success":false,"error":{"code":"INTERNAL_ERROR","message":"failed to serialize response"}}`), nil
		}
		return mcp.NewToolResultText(string(payload)), nil
	}
}

// Get retrieves a tool definition by name.
func (r *Registry) Get(name string) (*ToolDefinition, bool) {
	def, exists := r.tools[name]
	return def, exists
}

// List returns all registered tool names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
