package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wilhg/mcp-ci/pkg/config"
	"github.com/wilhg/mcp-ci/pkg/mcpserver"
)

// Set via ldflags at build time.
var version = "1.0.0"

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		if msg := err.Error(); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	mcpserver.Version = version
	root := &cobra.Command{
		Use:   "mcp-ci",
		Short: "GitHub Actions tools over the Model Context Protocol",
		Long: "mcp-ci serves four GitHub Actions tools (ci/dispatch, ci/runs, ci/run, ci/cancel)\n" +
			"to MCP clients over stdio. Without a subcommand it runs the server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runServe,
	}
	pf := root.PersistentFlags()
	pf.String("config", "", "Path to a YAML settings file")
	pf.String("log-level", "info", "Log level: debug | info | warn | error")
	pf.String("log-format", "text", "Log format on stderr: text | json")
	pf.String("owner", "", "Repository owner (overrides GITHUB_OWNER)")
	pf.String("repo", "", "Repository name (overrides GITHUB_REPO)")
	pf.String("workflow", "", "Default workflow file (overrides GITHUB_WORKFLOW)")
	pf.String("ref", "", "Default git ref (overrides GITHUB_REF)")
	pf.Duration("timeout", 0, "Per-call GitHub API timeout (overrides MCP_CI_TIMEOUT)")
	pf.Bool("strict", false, "Validate tool arguments against their schemas (overrides MCP_CI_STRICT_ARGS)")

	root.Version = version
	root.SetVersionTemplate(fmt.Sprintf("mcp-ci version %s\n", version))

	root.AddCommand(newServeCmd())
	root.AddCommand(newToolsCmd())
	root.AddCommand(newCallCmd())
	root.AddCommand(newAuditCmd())
	return root
}

// loadSettings reads the config file and environment, then applies any
// flags set on the command line. It does not validate.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	path, _ := cmd.Flags().GetString("config")
	s, err := config.Load(os.Getenv, path)
	if err != nil {
		return config.Settings{}, err
	}
	flags := cmd.Flags()
	for name, dst := range map[string]*string{
		"owner":    &s.Owner,
		"repo":     &s.Repo,
		"workflow": &s.DefaultWorkflow,
		"ref":      &s.DefaultRef,
	} {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	if flags.Changed("timeout") {
		s.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("strict") {
		s.StrictArgs, _ = flags.GetBool("strict")
	}
	return s, nil
}

// newLogger builds the process logger. It always writes to w (stderr in
// production): stdout carries the protocol.
func newLogger(cmd *cobra.Command, w io.Writer) (*slog.Logger, error) {
	levelName, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")

	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		return nil, exitError(2, "invalid --log-level %q", levelName)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, exitError(2, "invalid --log-format %q (want text or json)", format)
	}
}
