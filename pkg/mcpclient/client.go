// Package mcpclient is a thin client for CI tool servers speaking MCP.
package mcpclient

import (
	"context"
	"encoding/json"
	"errors"
	"os/exec"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Client defines the MCP client capabilities the CLI needs.
type Client interface {
	ListTools(ctx context.Context) ([]ToolDescriptor, error)
	CallTool(ctx context.Context, name string, args map[string]any) (CallResult, error)
	Close() error
}

// ToolDescriptor is a subset of the MCP tool schema.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// CallResult is the text and error flag of a tool result.
type CallResult struct {
	Text    string
	IsError bool
}

// Implementation identifies this client during initialization.
var Implementation = &mcp.Implementation{Name: "mcp-ci-client", Version: "1.0.0"}

type sdkClient struct {
	session *mcp.ClientSession
}

// Connect performs the MCP handshake over t.
func Connect(ctx context.Context, t mcp.Transport) (Client, error) {
	session, err := mcp.NewClient(Implementation, nil).Connect(ctx, t, nil)
	if err != nil {
		return nil, err
	}
	return &sdkClient{session: session}, nil
}

// Spawn starts cmd as an MCP server on its stdin/stdout and connects to it.
func Spawn(ctx context.Context, cmd *exec.Cmd) (Client, error) {
	if cmd == nil {
		return nil, errors.New("mcpclient: command is required")
	}
	return Connect(ctx, &mcp.CommandTransport{Command: cmd})
}

func (c *sdkClient) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	res, err := c.session.ListTools(ctx, nil)
	if err != nil {
		return nil, err
	}
	out := make([]ToolDescriptor, 0, len(res.Tools))
	for _, t := range res.Tools {
		schema, err := json.Marshal(t.InputSchema)
		if err != nil {
			return nil, err
		}
		out = append(out, ToolDescriptor{Name: t.Name, Description: t.Description, InputSchema: schema})
	}
	return out, nil
}

func (c *sdkClient) CallTool(ctx context.Context, name string, args map[string]any) (CallResult, error) {
	params := &mcp.CallToolParams{Name: name}
	if args != nil {
		params.Arguments = args
	}
	res, err := c.session.CallTool(ctx, params)
	if err != nil {
		return CallResult{}, err
	}
	out := CallResult{IsError: res.IsError}
	for _, content := range res.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			out.Text += text.Text
		}
	}
	return out, nil
}

func (c *sdkClient) Close() error { return c.session.Close() }
