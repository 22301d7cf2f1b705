package system

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/medcenter_backend/pkg/database"
)

func NewInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the main and casbin databases if they are missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			names := database.DatabaseNames(cfg)
			fmt.Printf("Initializing databases: %s\n", strings.Join(names, ", "))
			if err := database.InitializeDatabases(cfg); err != nil {
				return fmt.Errorf("failed to initialize databases: %w", err)
			}
			fmt.Println("Databases initialized. Run `system migrate` next.")
			return nil
		},
	}

	return cmd
}
