package commands

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/farahmhedhbi/fleet-management-sub000/internal/api"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/authsvc"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/session"
)

// profile is the subset of GET /api/auth/me that whoami prints
type profile struct {
	ID            int64      `json:"id"`
	Email         string     `json:"email"`
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	Role          string     `json:"role"`
	LicenseNumber string     `json:"licenseNumber,omitempty"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession()
			if err != nil {
				return err
			}
			if err := sess.requireLogin(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if offline {
				printUser(out, sess.provider.Snapshot().User)
				return nil
			}

			var me profile
			if err := sess.client.Get(cmd.Context(), authsvc.MePath, &me); err != nil {
				if api.StatusOf(err) == http.StatusUnauthorized {
					return fmt.Errorf("session expired. Please run 'fleetctl login' again")
				}
				return fmt.Errorf("failed to load profile: %w", err)
			}

			role, err := session.ParseRole(me.Role)
			if err != nil {
				role = session.Role(me.Role)
			}
			printUser(out, session.User{
				ID:        me.ID,
				FirstName: me.FirstName,
				LastName:  me.LastName,
				Email:     me.Email,
				Role:      role,
			})
			if me.LicenseNumber != "" {
				fmt.Fprintf(out, "  License: %s\n", me.LicenseNumber)
			}
			if me.LastLoginAt != nil {
				fmt.Fprintf(out, "  Last login: %s\n", me.LastLoginAt.Local().Format(time.RFC1123))
			}
			fmt.Fprintf(out, "  API: %s\n", sess.apiURL)
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Print the stored session without calling the API")

	return cmd
}
