package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/bishwajitSingh123/lead-agent/config"
	"github.com/bishwajitSingh123/lead-agent/pkg/lead"
	"github.com/bishwajitSingh123/lead-agent/pkg/logging"
	"github.com/bishwajitSingh123/lead-agent/pkg/review"
)

// StateCommandDeps holds the dependencies for state commands.
type StateCommandDeps struct {
	LoadConfig func() (*config.Config, error)
	NewStore   func(*config.Config, logging.Logger) review.Store
}

// DefaultStateDeps returns the default dependencies for production use.
func DefaultStateDeps() *StateCommandDeps {
	return &StateCommandDeps{
		LoadConfig: config.LoadConfig,
		NewStore: func(cfg *config.Config, log logging.Logger) review.Store {
			return newStore(cfg, log)
		},
	}
}

// State command flags.
var (
	stateOutput string
	stateStatus string
)

// NewStateCommand creates the 'state' command with its subcommands.
func NewStateCommand(deps *StateCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultStateDeps()
	}

	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect the review state table",
		Long: `Inspect the review state table.

The state table records the last committed status of every reviewed lead.
It is the audit trail the run command resumes from.

Examples:
  lead-agent state list
  lead-agent state list --status approved
  lead-agent state show L-1001`,
	}

	cmd.PersistentFlags().StringVarP(&stateOutput, "output", "o", "", "Output format (text, json, yaml)")

	cmd.AddCommand(newStateListCommand(deps))
	cmd.AddCommand(newStateShowCommand(deps))

	return cmd
}

// loadStateContext loads config and the state table for a state subcommand.
func loadStateContext(deps *StateCommandDeps) (*config.Config, map[string]lead.State, error) {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}
	if stateOutput != "" {
		cfg.OutputFormat = config.OutputFormat(stateOutput)
	}
	st := deps.NewStore(cfg, newLogger(cfg))
	states, err := st.LoadStates()
	if err != nil {
		return nil, nil, err
	}
	return cfg, states, nil
}

// newStateListCommand creates the 'state list' subcommand.
func newStateListCommand(deps *StateCommandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List review state rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, states, err := loadStateContext(deps)
			if err != nil {
				return err
			}

			var filter lead.Status
			if stateStatus != "" {
				filter, err = lead.ParseStatus(stateStatus)
				if err != nil {
					return fmt.Errorf("invalid --status %q", stateStatus)
				}
			}

			rows := make([]lead.State, 0, len(states))
			for _, st := range states {
				if filter != "" && st.Status != filter {
					continue
				}
				rows = append(rows, st)
			}
			sort.Slice(rows, func(i, j int) bool { return rows[i].LeadID < rows[j].LeadID })

			return writeOutput(cmd.OutOrStdout(), cfg.OutputFormat, rows, func() error {
				out := cmd.OutOrStdout()
				if len(rows) == 0 {
					fmt.Fprintln(out, "No state rows found.")
					return nil
				}
				fmt.Fprintf(out, "%-10s %-12s %-6s %-20s %s\n", "LEAD", "STATUS", "TAG", "UPDATED", "REASON")
				for _, st := range rows {
					fmt.Fprintf(out, "%-10s %-12s %-6s %-20s %s\n",
						st.LeadID, st.Status, st.ClassificationTag,
						formatUpdated(st.UpdatedAt), truncate(st.DecisionReason, 40))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&stateStatus, "status", "", "Filter by status (pending, classified, approved, sent, rejected, skipped)")
	return cmd
}

// newStateShowCommand creates the 'state show' subcommand.
func newStateShowCommand(deps *StateCommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "show <lead-id>",
		Short: "Show one state row in full, including the draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, states, err := loadStateContext(deps)
			if err != nil {
				return err
			}

			st, ok := states[args[0]]
			if !ok {
				return fmt.Errorf("no state for lead %q", args[0])
			}

			return writeOutput(cmd.OutOrStdout(), cfg.OutputFormat, st, func() error {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Lead:    %s\n", st.LeadID)
				fmt.Fprintf(out, "Status:  %s\n", st.Status)
				fmt.Fprintf(out, "Tag:     %s\n", st.ClassificationTag)
				fmt.Fprintf(out, "Updated: %s\n", formatUpdated(st.UpdatedAt))
				if st.DecisionReason != "" {
					fmt.Fprintf(out, "Reason:  %s\n", st.DecisionReason)
				}
				if st.DraftText != "" {
					fmt.Fprintln(out, "Draft:")
					fmt.Fprintln(out, st.DraftText)
				}
				return nil
			})
		},
	}
}

// formatUpdated renders the updated_at column, blank for the zero time.
func formatUpdated(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
