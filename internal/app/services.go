package app

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/medcenter_backend/config"
	"github.com/Alijeyrad/medcenter_backend/internal/service/clinical"
	svcfile "github.com/Alijeyrad/medcenter_backend/internal/service/file"
	"github.com/Alijeyrad/medcenter_backend/internal/service/history"
	"github.com/Alijeyrad/medcenter_backend/internal/service/lab"
	"github.com/Alijeyrad/medcenter_backend/internal/service/patient"
	"github.com/Alijeyrad/medcenter_backend/internal/service/staff"
	"github.com/Alijeyrad/medcenter_backend/pkg/authorize"
	"github.com/Alijeyrad/medcenter_backend/pkg/email"
	"github.com/Alijeyrad/medcenter_backend/pkg/events"
	"github.com/Alijeyrad/medcenter_backend/pkg/observability"
	pasetotoken "github.com/Alijeyrad/medcenter_backend/pkg/paseto"
	redispkg "github.com/Alijeyrad/medcenter_backend/pkg/redis"
	s3pkg "github.com/Alijeyrad/medcenter_backend/pkg/s3"
	"github.com/Alijeyrad/medcenter_backend/pkg/sms"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvidePasetoManager,
		ProvideStaffService,
		ProvidePatientService,
		ProvideClinicalService,
		ProvideHistoryService,
		ProvideFileStager,
		ProvideFileService,
		ProvideLabService,
	),
)

func ProvidePasetoManager(cfg *config.Config) (*pasetotoken.Manager, error) {
	return pasetotoken.NewPasetoManager(cfg)
}

func ProvideStaffService(
	pool *pgxpool.Pool,
	authz authorize.IAuthorization,
	tokens *pasetotoken.Manager,
	sessions *redispkg.Sessions,
	cfg *config.Config,
) staff.Service {
	return staff.New(staff.Deps{
		Repo:       staff.NewRepoPG(pool),
		Auth:       authz,
		Tokens:     tokens,
		Sessions:   sessions,
		SessionTTL: time.Duration(cfg.Authentication.SessionTTLMinutes) * time.Minute,
	})
}

func ProvidePatientService(pool *pgxpool.Pool, cfg *config.Config) patient.Service {
	return patient.New(patient.FromCentralConfig(cfg), patient.NewRepoPG(pool))
}

func ProvideClinicalService(pool *pgxpool.Pool, rdb *redis.Client, metrics *observability.Domain) clinical.Service {
	repo := clinical.NewRepoPG(pool)
	return clinical.New(clinical.Deps{
		Repo:    repo,
		Tokens:  clinical.NewRedisTokens(rdb, repo),
		Metrics: metrics,
	})
}

func ProvideHistoryService(
	pool *pgxpool.Pool,
	rdb *redis.Client,
	mailer *email.Client,
	smsCli *sms.Client,
	pub events.Publisher,
	metrics *observability.Domain,
	cfg *config.Config,
) history.Service {
	hcfg := history.FromCentralConfig(cfg)
	return history.New(hcfg, history.Deps{
		Repo:     history.NewRepoPG(pool),
		Attempts: history.NewRedisAttempts(rdb, hcfg.AttemptWindow),
		Mailer:   mailer,
		SMS:      smsCli,
		Events:   pub,
		Metrics:  metrics,
	})
}

func ProvideFileStager(s3 *s3pkg.Client, cfg *config.Config) *svcfile.Stager {
	return svcfile.NewStager(svcfile.FromCentralConfig(cfg), s3)
}

func ProvideFileService(pool *pgxpool.Pool, stager *svcfile.Stager, s3 *s3pkg.Client) svcfile.Service {
	return svcfile.New(svcfile.NewRepoPG(pool), stager, s3)
}

func ProvideLabService(
	pool *pgxpool.Pool,
	stager *svcfile.Stager,
	pub events.Publisher,
	metrics *observability.Domain,
) lab.Service {
	return lab.New(lab.Deps{
		Repo:    lab.NewRepoPG(pool),
		Files:   stager,
		Events:  pub,
		Metrics: metrics,
	})
}
