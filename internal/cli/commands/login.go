package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/farahmhedhbi/fleet-management-sub000/internal/cli/userconfig"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with the fleet API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set FLEETCTL_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set FLEETCTL_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(cmd *cobra.Command, email, password string) error {
	out := cmd.OutOrStdout()

	// Check for environment variables (useful for CI/CD)
	email = valueOr(email, "FLEETCTL_EMAIL")
	password = valueOr(password, "FLEETCTL_PASSWORD")

	if email == "" {
		if cfg, err := userconfig.Load(); err == nil {
			email = cfg.Email
		}
	}
	if email == "" {
		return fmt.Errorf("email is required (use --email flag or FLEETCTL_EMAIL env var)")
	}

	password, err := readSecret(out, password, "Password", "--password flag or FLEETCTL_PASSWORD env var")
	if err != nil {
		return err
	}

	sess, err := openSession()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Logging in to %s...\n", sess.apiURL)

	result := sess.provider.Login(cmd.Context(), email, password)
	if !result.Success {
		return fmt.Errorf("login failed: %w", errors.New(result.Message))
	}

	if err := userconfig.SetEmail(email); err != nil {
		sess.log.Warn().Err(err).Msg("Failed to remember email")
	}

	fmt.Fprintln(out, "✓ Login successful!")
	printUser(out, sess.provider.Snapshot().User)

	return nil
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession()
			if err != nil {
				return err
			}

			wasSignedIn := sess.provider.IsAuthenticated()
			sess.provider.Logout()

			if wasSignedIn {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Logged out of %s\n", sess.apiURL)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
			}
			return nil
		},
	}
}
