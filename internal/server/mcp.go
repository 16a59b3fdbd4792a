package server

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/njchilds90/calcsteps"
)

const (
	serverName    = "calcsteps"
	serverVersion = "1.0.0"
)

// NewMCPServer registers every calcsteps tool on an MCP server.
func NewMCPServer(calc *calcsteps.Calculator) *server.MCPServer {
	s := server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(true))
	for _, t := range calcsteps.Tools() {
		s.AddTool(mcpTool(t), toolHandler(calc, t.Name))
	}
	return s
}

// mcpTool converts a tool schema to the mcp-go representation. Points
// accept a number or a string, so untyped properties are declared as
// strings and decoded by the tool itself.
func mcpTool(t calcsteps.Tool) mcp.Tool {
	required := map[string]bool{}
	for _, r := range t.InputSchema.Required {
		required[r] = true
	}
	opts := []mcp.ToolOption{mcp.WithDescription(t.Description)}
	for name, p := range t.InputSchema.Properties {
		var popts []mcp.PropertyOption
		if p.Description != "" {
			popts = append(popts, mcp.Description(p.Description))
		}
		if required[name] {
			popts = append(popts, mcp.Required())
		}
		if len(p.Enum) > 0 {
			popts = append(popts, mcp.Enum(p.Enum...))
		}
		switch p.Type {
		case "integer", "number":
			opts = append(opts, mcp.WithNumber(name, popts...))
		case "object":
			opts = append(opts, mcp.WithObject(name, popts...))
		default:
			opts = append(opts, mcp.WithString(name, popts...))
		}
	}
	return mcp.NewTool(t.Name, opts...)
}

func toolHandler(calc *calcsteps.Calculator, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		resp := calc.HandleToolCall(ctx, calcsteps.ToolRequest{Tool: name, Params: req.GetArguments()})
		body, err := json.Marshal(resp)
		if err != nil {
			return mcp.NewToolResultError("encode result: " + err.Error()), nil
		}
		if resp.Error != "" {
			return mcp.NewToolResultError(string(body)), nil
		}
		return mcp.NewToolResultText(string(body)), nil
	}
}

// ServeStdio runs the MCP server on stdin and stdout until EOF.
func ServeStdio(calc *calcsteps.Calculator) error {
	return server.ServeStdio(NewMCPServer(calc))
}
