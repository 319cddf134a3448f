package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// NewForgotPasswordCmd creates the forgot-password command
func NewForgotPasswordCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Request a password reset link by email",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession()
			if err != nil {
				return err
			}

			result := sess.provider.ForgotPassword(cmd.Context(), email)
			if !result.Success {
				return errors.New(result.Message)
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address of the account")
	cmd.MarkFlagRequired("email")

	return cmd
}

// NewResetPasswordCmd creates the reset-password command
func NewResetPasswordCmd() *cobra.Command {
	var token, password string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password with the token from a reset email",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			password, err := readSecret(out, password, "New password", "--password flag")
			if err != nil {
				return err
			}

			sess, err := openSession()
			if err != nil {
				return err
			}

			result := sess.provider.ResetPassword(cmd.Context(), token, password)
			if !result.Success {
				return fmt.Errorf("password reset failed: %w", errors.New(result.Message))
			}

			fmt.Fprintf(out, "✓ %s\n", result.Message)
			fmt.Fprintln(out, "Run 'fleetctl login' with your new password")
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Reset token from the email link")
	cmd.Flags().StringVar(&password, "password", "", "New password (will prompt if not provided)")
	cmd.MarkFlagRequired("token")

	return cmd
}

// NewChangePasswordCmd creates the change-password command
func NewChangePasswordCmd() *cobra.Command {
	var oldPassword, newPassword string

	cmd := &cobra.Command{
		Use:   "change-password",
		Short: "Change the password of the signed-in user",
		Long: `Change the password of the signed-in user.

On success the stored session is removed; log in again with the new password.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			sess, err := openSession()
			if err != nil {
				return err
			}
			if err := sess.requireLogin(); err != nil {
				return err
			}

			oldPassword, err := readSecret(out, oldPassword, "Current password", "--old-password flag")
			if err != nil {
				return err
			}
			newPassword, err := readSecret(out, newPassword, "New password", "--new-password flag")
			if err != nil {
				return err
			}

			result := sess.provider.ChangePassword(cmd.Context(), oldPassword, newPassword)
			if !result.Success {
				return fmt.Errorf("password change failed: %w", errors.New(result.Message))
			}

			fmt.Fprintf(out, "✓ %s\n", result.Message)
			fmt.Fprintln(out, "You have been logged out. Run 'fleetctl login' with your new password")
			return nil
		},
	}

	cmd.Flags().StringVar(&oldPassword, "old-password", "", "Current password (will prompt if not provided)")
	cmd.Flags().StringVar(&newPassword, "new-password", "", "New password (will prompt if not provided)")

	return cmd
}
