package user

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/medcenter_backend/internal/service/staff"
)

func NewTokenCommand() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Open a session for a staff user and print its access token",
		Long: `Issue a PASETO access token bound to a fresh Redis session. Login is
handled by the hospital's identity provider; this command is for operators
and local development.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStaff(cmd, func(ctx context.Context, svc staff.Service) error {
				tok, err := svc.IssueToken(ctx, email)
				if err != nil {
					return fmt.Errorf("failed to issue token: %w", err)
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(tok)
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Staff user email")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
