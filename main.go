// Package main provides the lead-agent CLI entry point.
// lead-agent reviews incoming sales leads: it classifies each lead, drafts a
// follow-up email, and records every decision in an append-safe state table.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bishwajitSingh123/lead-agent/cmd"
	"github.com/bishwajitSingh123/lead-agent/pkg/buildinfo"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "lead-agent",
	Short: "Sales lead follow-up assistant",
	Long: `lead-agent drafts and tracks follow-up emails for incoming sales leads.

Leads are read from a CSV file. Each unresolved lead is classified (Hot,
Warm, Cold), a follow-up email is drafted, and the draft is presented for
review. Every decision is committed to a state file immediately, so an
interrupted session resumes exactly where it stopped: sent and rejected
leads are never touched again, skipped leads are offered on the next run.

WORKFLOW:
  lead-agent init             First-time setup
  lead-agent auth set llm     Store the completion-API key
  lead-agent run              Review unresolved leads
  lead-agent state list       Audit past decisions
  lead-agent send <lead-id>   Retry delivery of an approved draft

DISCOVERY:
  lead-agent <command> --help   Subcommands, flags, and examples`,
	SilenceUsage: true,
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "lead-agent "+buildinfo.String())
	},
}

func init() {
	rootCmd.AddCommand(cmd.NewRunCommand(nil))
	rootCmd.AddCommand(cmd.NewLeadsCommand(nil))
	rootCmd.AddCommand(cmd.NewStateCommand(nil))
	rootCmd.AddCommand(cmd.NewSendCommand(nil))
	rootCmd.AddCommand(cmd.NewInitCommand())
	rootCmd.AddCommand(cmd.NewAuthCommand(nil))
	rootCmd.AddCommand(versionCmd)
}

func main() {
	// Load .env if present; secrets and paths may come from it in dev.
	_ = godotenv.Load()

	// Set up signal handling for graceful shutdown. The first interrupt
	// cancels the run context so the current lead's last committed state
	// stays the durable truth; a second interrupt kills the process.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, finishing the current write...")
		cancel()
		<-sigChan
		os.Exit(1)
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
