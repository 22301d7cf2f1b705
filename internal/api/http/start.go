package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/Alijeyrad/medcenter_backend/config"
	"github.com/Alijeyrad/medcenter_backend/internal/api/http/router"
	"github.com/Alijeyrad/medcenter_backend/internal/app"
)

func Start(cfg *config.Config, timeout time.Duration) {
	fx.New(
		fx.Supply(cfg),
		app.InfraModule,
		app.ServiceModule,
		app.WorkerModule,
		router.Module,
		Module,

		// NewServer is only built when something depends on *fiber.App
		fx.Invoke(func(*fiber.App) {}),

		fx.StopTimeout(timeout),
		fx.WithLogger(func() fxevent.Logger { return fxLogger(cfg) }),
	).Run()
}

// fxLogger prints the dependency graph events only at debug level.
func fxLogger(cfg *config.Config) fxevent.Logger {
	if cfg.Logging.Level != "debug" {
		return fxevent.NopLogger
	}
	return &fxevent.SlogLogger{Logger: slog.Default()}
}
