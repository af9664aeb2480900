package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newCallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "call <tool> [json-args]",
		Short: "Call one tool through a spawned MCP server and print its text",
		Long: "Call one tool through a spawned MCP server and print the result text.\n" +
			"The exit status is 1 when the tool reports an error.",
		Example: `  mcp-ci call ci/runs '{"per_page":5,"status":"completed"}'
  mcp-ci call ci/cancel '{"run_id":123456789}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runCall,
	}
}

func runCall(cmd *cobra.Command, args []string) error {
	var toolArgs map[string]any
	if len(args) == 2 {
		if err := json.Unmarshal([]byte(args[1]), &toolArgs); err != nil {
			return exitError(2, "arguments must be a JSON object: %v", err)
		}
	}

	client, err := dialServer(cmd.Context(), cmd)
	if err != nil {
		return exitError(1, "connect: %v", err)
	}
	defer client.Close()

	res, err := client.CallTool(cmd.Context(), args[0], toolArgs)
	if err != nil {
		return exitError(1, "call %s: %v", args[0], err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Text)
	if res.IsError {
		return &ExitError{Code: 1}
	}
	return nil
}
