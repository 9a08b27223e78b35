package cmd

import (
	"bufio"
	"fmt"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bishwajitSingh123/lead-agent/credentials"
)

// AuthCommandDeps holds the dependencies for auth commands.
type AuthCommandDeps struct {
	Secrets SecretStore
}

// DefaultAuthDeps returns the default dependencies for production use.
func DefaultAuthDeps() *AuthCommandDeps {
	return &AuthCommandDeps{
		Secrets: credentials.NewStore(),
	}
}

// NewAuthCommand creates the 'auth' command with its subcommands.
func NewAuthCommand(deps *AuthCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultAuthDeps()
	}

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored secrets",
		Long: `Manage the secrets lead-agent needs.

Secrets are stored in the system keyring (macOS Keychain, Windows
Credential Manager, Linux Secret Service). In CI, set LEADAGENT_API_KEY
and LEADAGENT_SMTP_PASSWORD instead.

Examples:
  lead-agent auth set llm
  lead-agent auth set smtp
  lead-agent auth delete llm`,
	}

	cmd.AddCommand(newAuthSetCommand(deps))
	cmd.AddCommand(newAuthDeleteCommand(deps))
	return cmd
}

// secretForTarget maps the CLI target name to a stored secret name.
func secretForTarget(target string) (name, label string, err error) {
	switch target {
	case "llm":
		return credentials.SecretAPIKey, "completion-API key", nil
	case "smtp":
		return credentials.SecretSMTPPassword, "SMTP password", nil
	default:
		return "", "", fmt.Errorf("unknown target %q (must be llm or smtp)", target)
	}
}

// newAuthSetCommand creates the 'auth set' subcommand.
func newAuthSetCommand(deps *AuthCommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "set <llm|smtp>",
		Short: "Store a secret in the system keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, label, err := secretForTarget(args[0])
			if err != nil {
				return err
			}

			secret, err := readSecret(cmd, fmt.Sprintf("Enter %s: ", label))
			if err != nil {
				return err
			}
			if err := deps.Secrets.Set(name, secret); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s.\n", label)
			return nil
		},
	}
}

// newAuthDeleteCommand creates the 'auth delete' subcommand.
func newAuthDeleteCommand(deps *AuthCommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <llm|smtp>",
		Short: "Remove a secret from the system keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, label, err := secretForTarget(args[0])
			if err != nil {
				return err
			}
			if err := deps.Secrets.Delete(name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s.\n", label)
			return nil
		},
	}
}

// readSecret reads a secret without echo when stdin is a terminal, and as a
// plain line otherwise (pipes, tests).
func readSecret(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)

	if term.IsTerminal(int(syscall.Stdin)) {
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("reading secret: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return strings.TrimSpace(line), nil
}
