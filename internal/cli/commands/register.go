package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/farahmhedhbi/fleet-management-sub000/internal/authsvc"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/session"
)

// NewRegisterCmd creates the register command
func NewRegisterCmd() *cobra.Command {
	var req authsvc.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Example: `  fleetctl register --first-name Ada --last-name Lovelace --email ada@fleet.com --role owner
  fleetctl register --first-name Sam --last-name Road --email sam@fleet.com --role driver --license DL-1234`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd, req)
		},
	}

	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password (will prompt if not provided)")
	cmd.Flags().StringVar(&req.Role, "role", "", "Role: driver, owner or admin")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&req.LicenseNumber, "license", "", "Driving license number (required for drivers)")

	for _, name := range []string{"first-name", "last-name", "email", "role"} {
		cmd.MarkFlagRequired(name)
	}

	return cmd
}

func runRegister(cmd *cobra.Command, req authsvc.RegisterRequest) error {
	out := cmd.OutOrStdout()

	role, err := session.ParseRole(req.Role)
	if err != nil {
		return fmt.Errorf("invalid role %q: must be driver, owner or admin", req.Role)
	}
	if role == session.RoleDriver && req.LicenseNumber == "" {
		return fmt.Errorf("--license is required for drivers")
	}
	req.Role = role.Short()

	req.Password, err = readSecret(out, req.Password, "Password", "--password flag")
	if err != nil {
		return err
	}

	sess, err := openSession()
	if err != nil {
		return err
	}

	result := sess.provider.Register(cmd.Context(), req)
	if !result.Success {
		return fmt.Errorf("registration failed: %w", errors.New(result.Message))
	}

	fmt.Fprintln(out, "✓ Account created, you are now logged in")
	printUser(out, sess.provider.Snapshot().User)
	return nil
}
