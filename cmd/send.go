package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bishwajitSingh123/lead-agent/config"
	"github.com/bishwajitSingh123/lead-agent/credentials"
	"github.com/bishwajitSingh123/lead-agent/pkg/lead"
	"github.com/bishwajitSingh123/lead-agent/pkg/logging"
	"github.com/bishwajitSingh123/lead-agent/pkg/mail"
	"github.com/bishwajitSingh123/lead-agent/pkg/review"
)

// SendCommandDeps holds the dependencies for the send command.
type SendCommandDeps struct {
	LoadConfig  func() (*config.Config, error)
	Secrets     SecretStore
	NewStore    func(*config.Config, logging.Logger) review.Store
	NewDispatch func(cfg *config.Config, password string) mail.Dispatcher
	Now         func() time.Time
}

// DefaultSendDeps returns the default dependencies for production use.
func DefaultSendDeps() *SendCommandDeps {
	return &SendCommandDeps{
		LoadConfig: config.LoadConfig,
		Secrets:    credentials.NewStore(),
		NewStore: func(cfg *config.Config, log logging.Logger) review.Store {
			return newStore(cfg, log)
		},
		NewDispatch: func(cfg *config.Config, password string) mail.Dispatcher {
			return mail.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, password, cfg.SMTP.FromAddress())
		},
		Now: time.Now,
	}
}

// NewSendCommand creates the 'send' command: deliver a previously approved
// draft, typically after an earlier send attempt failed.
func NewSendCommand(deps *SendCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultSendDeps()
	}

	return &cobra.Command{
		Use:   "send <lead-id>",
		Short: "Deliver an approved draft",
		Long: `Deliver the approved draft for one lead.

The lead must already be approved (for example after a send failure during a
run). On success the lead becomes sent; on failure it stays approved with
the failure recorded, so the command can simply be retried.

Examples:
  lead-agent send L-1001`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			if !cfg.SMTP.IsConfigured() {
				return fmt.Errorf("smtp relay not configured, set smtp.host in config")
			}

			log := newLogger(cfg)
			st := deps.NewStore(cfg, log)

			leads, err := st.LoadLeads()
			if err != nil {
				return err
			}
			states, err := st.LoadStates()
			if err != nil {
				return err
			}

			leadID := args[0]
			var target *lead.Lead
			for i := range leads {
				if leads[i].ID == leadID {
					target = &leads[i]
					break
				}
			}
			if target == nil {
				return fmt.Errorf("lead %q not found", leadID)
			}

			row, ok := states[leadID]
			if !ok {
				return fmt.Errorf("lead %q has no review state, run 'lead-agent run' first", leadID)
			}
			if row.Status != lead.StatusApproved {
				return fmt.Errorf("lead %q is %s, only approved drafts can be sent", leadID, row.Status)
			}

			password, err := deps.Secrets.GetOptional(credentials.SecretSMTPPassword)
			if err != nil {
				return err
			}
			dispatcher := deps.NewDispatch(cfg, password)

			subject, body := mail.ParseDraft(row.DraftText)
			if err := dispatcher.Send(target.Email, subject, body); err != nil {
				row.DecisionReason = fmt.Sprintf("delivery failed: %v", err)
				row.UpdatedAt = deps.Now().UTC()
				if serr := st.SaveState(row); serr != nil {
					return serr
				}
				return fmt.Errorf("delivery failed, lead stays approved: %w", err)
			}

			sent, err := row.Transition(lead.StatusSent, deps.Now())
			if err != nil {
				return err
			}
			sent.DecisionReason = ""
			if err := st.SaveState(sent); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Sent follow-up for lead %s to %s\n", leadID, target.Email)
			return nil
		},
	}
}
