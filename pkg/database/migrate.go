package database

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"

	"github.com/Alijeyrad/medcenter_backend/config"
)

// Migrate applies tables to the database through ent's migrator. SafeMode
// keeps columns and indexes that are no longer declared.
func Migrate(ctx context.Context, cfg config.DatabaseConfig, tables ...*schema.Table) error {
	return MigrateWithConfig(ctx, FromCentralConfig(cfg), tables...)
}

func MigrateWithConfig(ctx context.Context, cfg Config, tables ...*schema.Table) error {
	db, err := openSQLDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	drv := entsql.OpenDB(dialect.Postgres, db)

	m, err := schema.NewMigrate(drv,
		schema.WithDropColumn(!cfg.SafeMode),
		schema.WithDropIndex(!cfg.SafeMode),
		schema.WithForeignKeys(true),
	)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Create(ctx, tables...); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
