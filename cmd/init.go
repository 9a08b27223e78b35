package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bishwajitSingh123/lead-agent/config"
)

// Init command flags.
var initYes bool

// sampleLeads seeds a fresh leads file so a first run has something to show.
const sampleLeads = `lead_id,name,email,message,source,received_at
L-1001,Ada Lovelace,ada@example.com,"Hi, we're evaluating tools for our sales team and would love a demo.",website,2025-01-06T09:15:00Z
L-1002,Grace Hopper,grace@example.com,"What does pricing look like for a 50-seat deployment?",referral,2025-01-06T10:42:00Z
L-1003,Alan Turing,alan@example.com,"thanks",website,2025-01-06T11:03:00Z
`

// NewInitCommand creates the 'init' command.
func NewInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize lead-agent configuration and data files",
		Long: `Initialize lead-agent for first-time use.

This command will:
1. Prompt for the leads file, state file, and SMTP relay (or accept
   defaults with --yes)
2. Create ~/.lead-agent/config.yaml
3. Create the leads file with sample leads if it does not exist
4. Create the drafts directory

Existing files are never overwritten. Store secrets afterwards with
'lead-agent auth set llm' and 'lead-agent auth set smtp'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd)
		},
	}

	cmd.Flags().BoolVarP(&initYes, "yes", "y", false, "Accept all defaults without prompting")
	return cmd
}

func runInit(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	in := bufio.NewReader(cmd.InOrStdin())

	cfg := config.DefaultConfig()

	// Preserve settings from an existing config.
	if existing, err := config.LoadConfig(); err == nil {
		cfg = existing
	}

	if !initYes {
		cfg.Data.LeadsFile = promptWithDefault(in, out, "Leads CSV file", cfg.Data.LeadsFile)
		cfg.Data.StateFile = promptWithDefault(in, out, "State CSV file", cfg.Data.StateFile)
		cfg.Data.DraftsDir = promptWithDefault(in, out, "Drafts directory", cfg.Data.DraftsDir)
		cfg.SMTP.Host = promptWithDefault(in, out, "SMTP host (empty to skip sending)", cfg.SMTP.Host)
		if cfg.SMTP.Host != "" {
			cfg.SMTP.Username = promptWithDefault(in, out, "SMTP username", cfg.SMTP.Username)
			cfg.SMTP.From = promptWithDefault(in, out, "From address", cfg.SMTP.FromAddress())
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := config.SaveConfig(cfg); err != nil {
		return err
	}
	configPath, _ := config.ConfigPath()
	fmt.Fprintf(out, "Wrote %s\n", configPath)

	// Seed the leads file once. The state file is created by the first run.
	if _, err := os.Stat(cfg.Data.LeadsFile); os.IsNotExist(err) {
		if err := os.WriteFile(cfg.Data.LeadsFile, []byte(sampleLeads), 0644); err != nil {
			return fmt.Errorf("creating leads file: %w", err)
		}
		fmt.Fprintf(out, "Created %s with sample leads\n", cfg.Data.LeadsFile)
	} else {
		fmt.Fprintf(out, "Keeping existing %s\n", cfg.Data.LeadsFile)
	}

	if cfg.Data.DraftsDir != "" {
		if err := os.MkdirAll(cfg.Data.DraftsDir, 0755); err != nil {
			return fmt.Errorf("creating drafts directory: %w", err)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  lead-agent auth set llm     Store the completion-API key")
	if cfg.SMTP.IsConfigured() {
		fmt.Fprintln(out, "  lead-agent auth set smtp    Store the SMTP password")
	}
	fmt.Fprintln(out, "  lead-agent run              Review incoming leads")
	return nil
}

// promptWithDefault prompts the user for input with a default value.
func promptWithDefault(in *bufio.Reader, out io.Writer, prompt, defaultValue string) string {
	if defaultValue != "" {
		fmt.Fprintf(out, "%s [%s]: ", prompt, defaultValue)
	} else {
		fmt.Fprintf(out, "%s: ", prompt)
	}

	input, err := in.ReadString('\n')
	if err != nil {
		return defaultValue
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return defaultValue
	}
	return input
}
