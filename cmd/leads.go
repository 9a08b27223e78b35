package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bishwajitSingh123/lead-agent/config"
	"github.com/bishwajitSingh123/lead-agent/pkg/lead"
	"github.com/bishwajitSingh123/lead-agent/pkg/logging"
	"github.com/bishwajitSingh123/lead-agent/pkg/review"
)

// LeadsCommandDeps holds the dependencies for leads commands.
type LeadsCommandDeps struct {
	LoadConfig func() (*config.Config, error)
	NewStore   func(*config.Config, logging.Logger) review.Store
}

// DefaultLeadsDeps returns the default dependencies for production use.
func DefaultLeadsDeps() *LeadsCommandDeps {
	return &LeadsCommandDeps{
		LoadConfig: config.LoadConfig,
		NewStore: func(cfg *config.Config, log logging.Logger) review.Store {
			return newStore(cfg, log)
		},
	}
}

// Leads command flags.
var leadsOutput string

// NewLeadsCommand creates the 'leads' command with its subcommands.
func NewLeadsCommand(deps *LeadsCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultLeadsDeps()
	}

	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Inspect the incoming leads file",
		Long: `Inspect the incoming leads file.

Examples:
  lead-agent leads list
  lead-agent leads list --output json
  lead-agent leads show L-1001`,
	}

	cmd.PersistentFlags().StringVarP(&leadsOutput, "output", "o", "", "Output format (text, json, yaml)")

	cmd.AddCommand(newLeadsListCommand(deps))
	cmd.AddCommand(newLeadsShowCommand(deps))

	return cmd
}

// loadLeadsContext loads config and the lead list for a leads subcommand.
func loadLeadsContext(deps *LeadsCommandDeps) (*config.Config, []lead.Lead, error) {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}
	if leadsOutput != "" {
		cfg.OutputFormat = config.OutputFormat(leadsOutput)
	}
	st := deps.NewStore(cfg, newLogger(cfg))
	leads, err := st.LoadLeads()
	if err != nil {
		return nil, nil, err
	}
	return cfg, leads, nil
}

// newLeadsListCommand creates the 'leads list' subcommand.
func newLeadsListCommand(deps *LeadsCommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all leads in the leads file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, leads, err := loadLeadsContext(deps)
			if err != nil {
				return err
			}

			return writeOutput(cmd.OutOrStdout(), cfg.OutputFormat, leads, func() error {
				out := cmd.OutOrStdout()
				if len(leads) == 0 {
					fmt.Fprintln(out, "No leads found.")
					return nil
				}
				fmt.Fprintf(out, "%-10s %-24s %-28s %s\n", "ID", "NAME", "EMAIL", "MESSAGE")
				for _, l := range leads {
					fmt.Fprintf(out, "%-10s %-24s %-28s %s\n",
						l.ID, truncate(l.Name, 24), truncate(l.Email, 28), truncate(l.Message, 40))
				}
				return nil
			})
		},
	}
}

// newLeadsShowCommand creates the 'leads show' subcommand.
func newLeadsShowCommand(deps *LeadsCommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "show <lead-id>",
		Short: "Show one lead in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, leads, err := loadLeadsContext(deps)
			if err != nil {
				return err
			}

			for _, l := range leads {
				if l.ID != args[0] {
					continue
				}
				return writeOutput(cmd.OutOrStdout(), cfg.OutputFormat, l, func() error {
					out := cmd.OutOrStdout()
					fmt.Fprintf(out, "ID:       %s\n", l.ID)
					fmt.Fprintf(out, "Name:     %s\n", l.Name)
					fmt.Fprintf(out, "Email:    %s\n", l.Email)
					fmt.Fprintf(out, "Source:   %s\n", l.Source)
					if l.ReceivedAt != "" {
						fmt.Fprintf(out, "Received: %s\n", l.ReceivedAt)
					}
					fmt.Fprintf(out, "Message:  %s\n", l.Message)
					return nil
				})
			}
			return fmt.Errorf("lead %q not found", args[0])
		},
	}
}
