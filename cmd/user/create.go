package user

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/medcenter_backend/internal/service/staff"
)

func NewCreateCommand() *cobra.Command {
	var req staff.CreateRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a staff user and grant its role",
		Example: `  medcenter user create --name "Dr. Mehta" --email mehta@clinic.org --role doctor
  medcenter user create --name "Front Desk" --email desk@clinic.org --role nurse`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStaff(cmd, func(ctx context.Context, svc staff.Service) error {
				u, err := svc.Create(ctx, req)
				if err != nil {
					return fmt.Errorf("failed to create user: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s user %d <%s>.\n", u.Role, u.ID, u.Email)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&req.Email, "email", "", "Login email")
	cmd.Flags().StringVar(&req.Role, "role", "", "One of admin, doctor, nurse, lab, pharmacist")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("role")

	return cmd
}
