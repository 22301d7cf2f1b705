package system

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/medcenter_backend/config"
	"github.com/Alijeyrad/medcenter_backend/internal/store"
	"github.com/Alijeyrad/medcenter_backend/pkg/authorize"
	"github.com/Alijeyrad/medcenter_backend/pkg/database"
)

func NewMigrateCommand() *cobra.Command {
	var seedCatalog bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Apply the schema to the main database and seed the default RBAC policies
into the casbin database. With --seed-catalog (or database.migrations.seed_catalog)
the disease, medicine and lab test catalogs are loaded too.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cfg)
			defer cancel()

			fmt.Println("Running migrations for the main database.")
			if err := database.Migrate(ctx, cfg.Database, store.Tables...); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			if seedCatalog || cfg.Database.Migrations.SeedCatalog {
				if err := runCatalogSeed(ctx, cfg); err != nil {
					return err
				}
			}

			fmt.Println("Seeding RBAC policies into the casbin database.")
			if err := runPolicySeed(ctx, cfg); err != nil {
				return err
			}

			fmt.Println("Migrations executed successfully.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&seedCatalog, "seed-catalog", false, "Load the default disease, medicine and lab test catalogs")

	return cmd
}

func commandContext(cfg *config.Config) (context.Context, context.CancelFunc) {
	timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

func runCatalogSeed(ctx context.Context, cfg *config.Config) error {
	pool, err := database.NewPoolFromCentral(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database pool: %w", err)
	}
	defer pool.Close()

	n, err := store.SeedCatalog(ctx, pool)
	if err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}
	fmt.Printf("Catalog seeded (%d new rows).\n", n)
	return nil
}

func runPolicySeed(ctx context.Context, cfg *config.Config) error {
	acfg := authorize.FromCentralConfig(cfg.Authorization)
	enforcer, cleanup, err := authorize.NewEnforcer(acfg, database.NewDSN(cfg.CasbinDatabase))
	if err != nil {
		return fmt.Errorf("failed to create enforcer: %w", err)
	}
	defer cleanup(context.Background())

	auth, err := authorize.NewAuthorization(enforcer, acfg.SuperadminBypass)
	if err != nil {
		return fmt.Errorf("failed to create authorization: %w", err)
	}

	slog.InfoContext(ctx, "seeding casbin policies", "count", len(authorize.DefaultPolicies))
	if err := authorize.SeedDefaultPolicies(ctx, auth); err != nil {
		return fmt.Errorf("failed to seed policies: %w", err)
	}
	return nil
}
