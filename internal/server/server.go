// Package server exposes the tool catalog over the Model Context Protocol
// on stdin/stdout.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"taskbridge/internal/tools"
)

// CallFunc runs one tool and returns its rendered payload.
type CallFunc func(ctx context.Context, name string, args json.RawMessage) (payload []byte, isError bool)

// New builds an MCP server that declares every tool in registry and routes
// calls to call.
func New(name, version string, registry *tools.Registry, call CallFunc) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer(name, version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)
	for _, t := range registry.All() {
		s.AddTool(Declare(t), handler(t.Name(), call))
	}
	return s
}

// Declare converts a tool's parameters into an MCP tool definition.
func Declare(t tools.Tool) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(t.Description())}
	for _, p := range t.Params() {
		opts = append(opts, property(p))
	}
	return mcp.NewTool(t.Name(), opts...)
}

func property(p tools.Param) mcp.ToolOption {
	props := []mcp.PropertyOption{mcp.Description(p.Description)}
	if p.Required {
		props = append(props, mcp.Required())
	}

	switch p.Type {
	case tools.TypeInteger:
		return mcp.WithNumber(p.Name, props...)
	case tools.TypeBoolean:
		return mcp.WithBoolean(p.Name, props...)
	case tools.TypeArray:
		items := map[string]any{"type": "string"}
		if len(p.Enum) > 0 {
			items["enum"] = p.Enum
		}
		return mcp.WithArray(p.Name, append(props, mcp.Items(items))...)
	default:
		if len(p.Enum) > 0 {
			props = append(props, mcp.Enum(p.Enum...))
		}
		return mcp.WithString(p.Name, props...)
	}
}

func handler(name string, call CallFunc) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(request.Params.Arguments)
		if err != nil {
			return nil, fmt.Errorf("failed to encode arguments: %w", err)
		}
		payload, isError := call(ctx, name, args)
		if isError {
			return mcp.NewToolResultError(string(payload)), nil
		}
		return mcp.NewToolResultText(string(payload)), nil
	}
}

// ServeStdio serves s on in/out until ctx is cancelled or in is closed.
// Transport errors are logged through logger.
func ServeStdio(ctx context.Context, s *mcpserver.MCPServer, in io.Reader, out io.Writer, logger *slog.Logger) error {
	stdio := mcpserver.NewStdioServer(s)
	stdio.SetErrorLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError))
	logger.Info("serving tools over stdio")
	if err := stdio.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
