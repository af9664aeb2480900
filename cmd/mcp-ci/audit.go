package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/wilhg/mcp-ci/pkg/store/sqlstore"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List recent tool invocations from the audit journal",
		Args:  cobra.NoArgs,
		RunE:  runAudit,
	}
	cmd.Flags().String("dsn", "", "Journal DSN (default: MCP_CI_AUDIT_DSN)")
	cmd.Flags().Int("limit", 20, "Maximum number of entries")
	cmd.Flags().Bool("json", false, "Print entries as JSON")
	return cmd
}

type auditEntry struct {
	RequestID  string          `json:"request_id"`
	Tool       string          `json:"tool"`
	Arguments  json.RawMessage `json:"arguments"`
	IsError    bool            `json:"is_error"`
	Result     string          `json:"result"`
	DurationMS int64           `json:"duration_ms"`
	CreatedAt  time.Time       `json:"created_at"`
}

func runAudit(cmd *cobra.Command, _ []string) error {
	dsn, _ := cmd.Flags().GetString("dsn")
	if dsn == "" {
		settings, err := loadSettings(cmd)
		if err != nil {
			return exitError(1, "config: %v", err)
		}
		dsn = settings.AuditDSN
	}
	if dsn == "" {
		return exitError(2, "no audit journal configured: set MCP_CI_AUDIT_DSN or pass --dsn")
	}
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	st, err := sqlstore.Open(cmd.Context(), dsn)
	if err != nil {
		return exitError(1, "open journal: %v", err)
	}
	defer st.Close()
	if err := st.Migrate(cmd.Context()); err != nil {
		return exitError(1, "open journal: %v", err)
	}
	records, err := st.List(cmd.Context(), limit)
	if err != nil {
		return exitError(1, "list journal: %v", err)
	}

	if asJSON {
		entries := make([]auditEntry, 0, len(records))
		for _, r := range records {
			entries = append(entries, auditEntry{
				RequestID:  r.RequestID,
				Tool:       r.Tool,
				Arguments:  r.Arguments,
				IsError:    r.IsError,
				Result:     r.Result,
				DurationMS: r.Duration.Milliseconds(),
				CreatedAt:  r.CreatedAt.UTC(),
			})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tREQUEST ID\tTOOL\tERROR\tDURATION\tARGUMENTS")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\t%s\n",
			r.CreatedAt.UTC().Format(time.RFC3339), r.RequestID, r.Tool, r.IsError, r.Duration, r.Arguments)
	}
	return w.Flush()
}
