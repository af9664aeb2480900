package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/wilhg/mcp-ci/pkg/mcpclient"
	"github.com/wilhg/mcp-ci/pkg/tool"
)

func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Print the tool catalog as JSON",
		Long: "Print the tool catalog as JSON. By default the catalog is read locally and\n" +
			"no token is needed; --remote asks a spawned server over MCP instead.",
		Args: cobra.NoArgs,
		RunE: runTools,
	}
	cmd.Flags().Bool("remote", false, "List tools through a spawned MCP server")
	return cmd
}

func runTools(cmd *cobra.Command, _ []string) error {
	remote, _ := cmd.Flags().GetBool("remote")
	var tools []mcpclient.ToolDescriptor
	if remote {
		client, err := dialServer(cmd.Context(), cmd)
		if err != nil {
			return exitError(1, "connect: %v", err)
		}
		defer client.Close()
		tools, err = client.ListTools(cmd.Context())
		if err != nil {
			return exitError(1, "list tools: %v", err)
		}
	} else {
		for _, def := range tool.NewCIRegistry().List() {
			schema, err := def.SchemaJSON()
			if err != nil {
				return err
			}
			tools = append(tools, mcpclient.ToolDescriptor{Name: def.Name, Description: def.Description, InputSchema: schema})
		}
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(tools)
}

// forwardedFlags are passed on to a spawned server.
var forwardedFlags = map[string]bool{
	"config": true, "log-level": true, "log-format": true,
	"owner": true, "repo": true, "workflow": true, "ref": true,
	"timeout": true, "strict": true,
}

// dialServer spawns this binary in serve mode and connects to it over
// stdio. The child inherits the environment, so GITHUB_TOKEN reaches it
// without appearing on a command line.
var dialServer = func(ctx context.Context, cmd *cobra.Command) (mcpclient.Client, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate executable: %w", err)
	}
	args := []string{"serve"}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if forwardedFlags[f.Name] {
			args = append(args, "--"+f.Name+"="+f.Value.String())
		}
	})
	child := exec.Command(exe, args...)
	child.Stderr = cmd.ErrOrStderr()
	return mcpclient.Spawn(ctx, child)
}
