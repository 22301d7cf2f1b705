package user

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/medcenter_backend/config"
	"github.com/Alijeyrad/medcenter_backend/internal/service/staff"
	"github.com/Alijeyrad/medcenter_backend/pkg/authorize"
	"github.com/Alijeyrad/medcenter_backend/pkg/database"
	pasetotoken "github.com/Alijeyrad/medcenter_backend/pkg/paseto"
	redispkg "github.com/Alijeyrad/medcenter_backend/pkg/redis"
)

func NewUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Staff account commands",
	}

	cmd.AddCommand(NewCreateCommand())
	cmd.AddCommand(NewTokenCommand())

	return cmd
}

// withStaff wires a staff service against the configured databases, runs fn
// and releases everything it opened.
func withStaff(cmd *cobra.Command, fn func(ctx context.Context, svc staff.Service) error) error {
	cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	pool, err := database.NewPoolFromCentral(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database pool: %w", err)
	}
	defer pool.Close()

	rdb, err := redispkg.NewRedisFromCentral(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer rdb.Close()

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

	tokens, err := pasetotoken.NewPasetoManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to create token manager: %w", err)
	}

	svc := staff.New(staff.Deps{
		Repo:       staff.NewRepoPG(pool),
		Auth:       auth,
		Tokens:     tokens,
		Sessions:   redispkg.NewSessions(rdb),
		SessionTTL: time.Duration(cfg.Authentication.SessionTTLMinutes) * time.Minute,
	})
	return fn(ctx, svc)
}
