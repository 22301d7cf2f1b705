package system

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewSeedCommand() *cobra.Command {
	var policiesOnly bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the default catalogs and RBAC policies without migrating",
		Long: `Re-run the idempotent seeds against an already migrated database. Existing
catalog rows and policies are left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cfg)
			defer cancel()

			if !policiesOnly {
				if err := runCatalogSeed(ctx, cfg); err != nil {
					return err
				}
			}
			if err := runPolicySeed(ctx, cfg); err != nil {
				return err
			}
			fmt.Println("Seed complete.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&policiesOnly, "policies-only", false, "Skip the catalog and seed only casbin policies")

	return cmd
}
