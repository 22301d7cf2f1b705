package router

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"github.com/Alijeyrad/medcenter_backend/config"
	"github.com/Alijeyrad/medcenter_backend/internal/api/http/handler"
	"github.com/Alijeyrad/medcenter_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/medcenter_backend/internal/service/clinical"
	"github.com/Alijeyrad/medcenter_backend/internal/service/file"
	"github.com/Alijeyrad/medcenter_backend/internal/service/history"
	"github.com/Alijeyrad/medcenter_backend/internal/service/lab"
	"github.com/Alijeyrad/medcenter_backend/internal/service/patient"
	"github.com/Alijeyrad/medcenter_backend/internal/service/staff"
	"github.com/Alijeyrad/medcenter_backend/pkg/authorize"
	pasetotoken "github.com/Alijeyrad/medcenter_backend/pkg/paseto"
	"github.com/Alijeyrad/medcenter_backend/pkg/redis"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg         *config.Config
	Auth        authorize.IAuthorization
	PasetoMgr   *pasetotoken.Manager
	Sessions    *redis.Sessions
	StaffSvc    staff.Service
	PatientSvc  patient.Service
	ClinicalSvc clinical.Service
	HistorySvc  history.Service
	LabSvc      lab.Service
	FileSvc     file.Service
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

type permFunc func(authorize.Resource, authorize.Action) fiber.Handler

func (r *Router) Register(app *fiber.App) {
	// 1. Health & Metrics
	r.registerSystemRoutes(app)

	// 2. Initialize Middlewares
	authRequired := middleware.AuthRequired(r.p.PasetoMgr, r.p.Sessions, r.p.Auth)
	requirePerm := func(res authorize.Resource, act authorize.Action) fiber.Handler {
		return middleware.RequirePermission(r.p.Auth, res, act)
	}

	// 3. Initialize Handlers
	authH := handler.NewAuthHandler(r.p.StaffSvc)
	patientH := handler.NewPatientHandler(r.p.PatientSvc)
	caseH := handler.NewCaseHandler(r.p.ClinicalSvc)
	historyH := handler.NewHistoryHandler(r.p.HistorySvc)
	labH := handler.NewLabHandler(r.p.LabSvc)
	fileH := handler.NewFileHandler(r.p.FileSvc)

	api := app.Group("/api/v1", authRequired)

	// 4. Delegate to sub-files
	r.registerAuthRoutes(api, authH)
	r.registerPatientRoutes(api, patientH, requirePerm)
	r.registerCaseRoutes(api, caseH, labH, requirePerm)
	r.registerDoctorRoutes(api, caseH, labH, requirePerm)
	r.registerHistoryRoutes(api, historyH, requirePerm)
	r.registerLabRoutes(api, labH, requirePerm)
	r.registerFileRoutes(api, fileH, requirePerm)
	r.registerCatalogRoutes(api, caseH, requirePerm)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get("/health", healthcheck.New())
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool { return authorize.IsPolicyHealthy() },
	}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}
