// Package mcpserver exposes the CI tool catalog over the Model Context
// Protocol. Tool calls are forwarded to a dispatch.Dispatcher.
package mcpserver

import (
	"context"
	"errors"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wilhg/mcp-ci/pkg/dispatch"
	"github.com/wilhg/mcp-ci/pkg/tool"
)

// Name is the implementation name announced during initialization.
const Name = "mcp-ci-github"

// Version is announced during initialization. Overridden at link time.
var Version = "1.0.0"

const (
	methodListTools = "tools/list"
	methodCallTool  = "tools/call"
)

// Server wraps an SDK server bound to one Dispatcher.
type Server struct {
	srv        *mcp.Server
	dispatcher *dispatch.Dispatcher
	registry   *tool.Registry
	tools      []*mcp.Tool
	logger     *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger handed to the SDK. It must not write to stdout.
func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.logger = l } }

// New registers every catalog tool with an SDK server.
func New(d *dispatch.Dispatcher, opts ...Option) (*Server, error) {
	if d == nil {
		return nil, errors.New("mcpserver: dispatcher is required")
	}
	s := &Server{dispatcher: d, registry: d.Registry(), logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.srv = mcp.NewServer(&mcp.Implementation{Name: Name, Version: Version}, &mcp.ServerOptions{
		Logger:   s.logger,
		HasTools: true,
	})

	for _, def := range s.registry.List() {
		t := toMCPTool(def)
		s.tools = append(s.tools, t)
		name := def.Name
		s.srv.AddTool(t, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return toCallToolResult(s.dispatcher.InvokeRaw(ctx, name, req.Params.Arguments)), nil
		})
	}
	s.srv.AddReceivingMiddleware(s.catalogMiddleware)
	return s, nil
}

// catalogMiddleware answers tools/list in declaration order (the SDK sorts
// by name) and turns calls to unknown tools into an error result instead
// of a JSON-RPC error.
func (s *Server) catalogMiddleware(next mcp.MethodHandler) mcp.MethodHandler {
	return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
		switch method {
		case methodListTools:
			return &mcp.ListToolsResult{Tools: s.tools}, nil
		case methodCallTool:
			if call, ok := req.(*mcp.CallToolRequest); ok && call.Params != nil {
				if _, known := s.registry.Lookup(call.Params.Name); !known {
					return toCallToolResult(s.dispatcher.InvokeRaw(ctx, call.Params.Name, call.Params.Arguments)), nil
				}
			}
		}
		return next(ctx, method, req)
	}
}

// Serve runs the server over stdin/stdout until the client disconnects
// or ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	return s.srv.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves a single session over t and returns without waiting.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.srv.Connect(ctx, t, nil)
}

func toMCPTool(def tool.Definition) *mcp.Tool {
	t := &mcp.Tool{
		Name:        def.Name,
		Description: def.Description,
		InputSchema: def.InputSchema(),
	}
	if def.ReadOnly {
		t.Annotations = &mcp.ToolAnnotations{ReadOnlyHint: true, IdempotentHint: true, OpenWorldHint: boolPtr(true)}
	} else {
		t.Annotations = &mcp.ToolAnnotations{DestructiveHint: boolPtr(def.Name == tool.Cancel), OpenWorldHint: boolPtr(true)}
	}
	return t
}

func toCallToolResult(r dispatch.Result) *mcp.CallToolResult {
	content := make([]mcp.Content, 0, len(r.Content))
	for _, c := range r.Content {
		content = append(content, &mcp.TextContent{Text: c.Text})
	}
	return &mcp.CallToolResult{Content: content, IsError: r.IsError}
}

func boolPtr(b bool) *bool { return &b }
