package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bishwajitSingh123/lead-agent/config"
	"github.com/bishwajitSingh123/lead-agent/credentials"
	"github.com/bishwajitSingh123/lead-agent/pkg/classify"
	"github.com/bishwajitSingh123/lead-agent/pkg/logging"
	"github.com/bishwajitSingh123/lead-agent/pkg/mail"
	"github.com/bishwajitSingh123/lead-agent/pkg/review"
)

// RunCommandDeps holds the dependencies for the run command.
type RunCommandDeps struct {
	LoadConfig  func() (*config.Config, error)
	Secrets     SecretStore
	NewStore    func(*config.Config, logging.Logger) review.Store
	NewClassify func(classify.Config, logging.Logger) classify.Classifier
	NewDispatch func(cfg *config.Config, password string) mail.Dispatcher
}

// DefaultRunDeps returns the default dependencies for production use.
func DefaultRunDeps() *RunCommandDeps {
	return &RunCommandDeps{
		LoadConfig: config.LoadConfig,
		Secrets:    credentials.NewStore(),
		NewStore: func(cfg *config.Config, log logging.Logger) review.Store {
			return newStore(cfg, log)
		},
		NewClassify: func(c classify.Config, log logging.Logger) classify.Classifier {
			return classify.NewLLMClassifier(c, log)
		},
		NewDispatch: func(cfg *config.Config, password string) mail.Dispatcher {
			return mail.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, password, cfg.SMTP.FromAddress())
		},
	}
}

// Run command flags.
var (
	runLeadsFile string
	runStateFile string
	runDryRun    bool
	runAuto      bool
	runAutoSend  bool
)

// NewRunCommand creates the 'run' command: one review pass over every
// unresolved lead.
func NewRunCommand(deps *RunCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultRunDeps()
	}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Review unresolved leads: classify, draft, and decide",
		Long: `Run one review pass over the leads file.

Each lead without a terminal state is classified, a follow-up email is
drafted, and the draft is presented for a decision: approve, send, edit,
reject, or skip. Every decision is saved to the state file immediately, so
an interrupted run resumes where it left off without repeating sends or
approvals.

Examples:
  # Interactive review of all unresolved leads
  lead-agent run

  # See which leads a run would pick up, without classifying anything
  lead-agent run --dry-run

  # Non-interactive: approve every draft, send none
  lead-agent run --auto

  # Non-interactive: also send drafts meeting the configured threshold
  lead-agent run --auto --auto-send`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			if runLeadsFile != "" {
				cfg.Data.LeadsFile = runLeadsFile
			}
			if runStateFile != "" {
				cfg.Data.StateFile = runStateFile
			}

			log := newLogger(cfg)
			st := deps.NewStore(cfg, log)

			if runDryRun {
				return runDryPass(cmd, cfg, st, log)
			}

			apiKey, err := deps.Secrets.GetOptional(credentials.SecretAPIKey)
			if err != nil {
				return err
			}
			classifier := deps.NewClassify(cfg.ClassifyConfig(apiKey), log)

			var dispatcher mail.Dispatcher
			if cfg.SMTP.IsConfigured() {
				password, err := deps.Secrets.GetOptional(credentials.SecretSMTPPassword)
				if err != nil {
					return err
				}
				dispatcher = deps.NewDispatch(cfg, password)
			} else {
				dispatcher = mail.NewUnconfiguredDispatcher()
			}

			var prompter review.Prompter
			if runAuto {
				sendEnabled := cfg.Auto.SendEnabled || runAutoSend
				prompter = review.NewAutoPrompter(sendEnabled, cfg.Auto.Threshold, cfg.Auto.BatchLimit, log)
			} else {
				prompter = review.NewConsolePrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			}

			controller := review.NewController(st, classifier, dispatcher, prompter, log)
			runner := review.NewRunner(st, controller, log)

			summary, err := runner.Run(cmd.Context())
			printSummary(cmd, summary)
			return err
		},
	}

	cmd.Flags().StringVar(&runLeadsFile, "leads", "", "Leads CSV file (overrides config)")
	cmd.Flags().StringVar(&runStateFile, "state", "", "State CSV file (overrides config)")
	cmd.Flags().BoolVar(&runDryRun, "dry-run", false, "List leads a run would review, without classifying or prompting")
	cmd.Flags().BoolVar(&runAuto, "auto", false, "Review without prompting: approve drafts automatically")
	cmd.Flags().BoolVar(&runAutoSend, "auto-send", false, "With --auto, also send drafts meeting the threshold")

	return cmd
}

// runDryPass prints the leads a real run would pick up.
func runDryPass(cmd *cobra.Command, cfg *config.Config, st review.Store, log logging.Logger) error {
	runner := review.NewRunner(st, review.NewController(st, nil, nil, nil, log), log)
	pending, err := runner.Pending()
	if err != nil {
		return err
	}

	return writeOutput(cmd.OutOrStdout(), cfg.OutputFormat, pending, func() error {
		if len(pending) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No leads awaiting review.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d lead(s) awaiting review:\n", len(pending))
		for _, l := range pending {
			fmt.Fprintf(cmd.OutOrStdout(), "  %-10s %-24s %s\n", l.ID, l.Name, truncate(l.Message, 48))
		}
		return nil
	})
}

// printSummary writes the end-of-run counters.
func printSummary(cmd *cobra.Command, s review.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Run complete: %d lead(s), %d reviewed\n", s.Total, s.Reviewed)
	fmt.Fprintf(out, "  approved: %d  sent: %d  rejected: %d  skipped: %d  deferred: %d  failed: %d\n",
		s.Approved, s.Sent, s.Rejected, s.Skipped, s.Deferred, s.Failed)
}
