package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"go.uber.org/fx"

	"github.com/Alijeyrad/medcenter_backend/config"
	"github.com/Alijeyrad/medcenter_backend/internal/service/history"
	"github.com/Alijeyrad/medcenter_backend/internal/service/lab"
	"github.com/Alijeyrad/medcenter_backend/internal/service/staff"
	"github.com/Alijeyrad/medcenter_backend/internal/store"
	"github.com/Alijeyrad/medcenter_backend/pkg/constants"
	"github.com/Alijeyrad/medcenter_backend/pkg/email"
	"github.com/Alijeyrad/medcenter_backend/pkg/events"
)

const workerTimeout = 30 * time.Second

// WorkerModule registers all NATS event workers.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc     fx.Lifecycle
	NC     *nats.Conn `optional:"true"`
	Pool   *pgxpool.Pool
	Mailer *email.Client
	Cfg    *config.Config
}

type mailer interface {
	Send(ctx context.Context, m email.Message) error
}

type staffLookup interface {
	Get(ctx context.Context, userID int64) (*store.StaffUser, error)
}

func RegisterWorkers(p WorkerParams) {
	if p.NC == nil {
		slog.Info("workers: NATS disabled, event workers not started")
		return
	}

	var subs []*nats.Subscription
	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if to := p.Cfg.History.ComplianceEmail; to != "" {
				s, err := subscribe(p.NC, constants.SubjectHistoryOverride,
					overrideAuditHandler(p.Mailer, to, p.Cfg.Observability.ServiceName))
				if err != nil {
					return err
				}
				subs = append(subs, s)
			}
			if p.Cfg.Lab.NotifyDoctorOnDone {
				s, err := subscribe(p.NC, constants.SubjectLabDone,
					labDoneHandler(p.Mailer, staff.NewRepoPG(p.Pool), p.Cfg.Observability.ServiceName))
				if err != nil {
					return err
				}
				subs = append(subs, s)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// Drain of the connection itself is handled by ProvideNatsClient
			for _, s := range subs {
				_ = s.Unsubscribe()
			}
			return nil
		},
	})
}

// subscribe decodes every message under base.* into T and hands it to fn.
// Failures are logged; events are not redelivered.
func subscribe[T any](nc *nats.Conn, base string, fn func(ctx context.Context, ev T) error) (*nats.Subscription, error) {
	return nc.Subscribe(events.Wildcard(base), func(msg *nats.Msg) {
		ctx, cancel := context.WithTimeout(events.HandlerContext(context.Background(), msg), workerTimeout)
		defer cancel()

		var ev T
		if err := events.Decode(msg, &ev); err != nil {
			slog.WarnContext(ctx, "worker: bad event", "subject", msg.Subject, "error", err)
			return
		}
		if err := fn(ctx, ev); err != nil {
			slog.ErrorContext(ctx, "worker: handler failed", "subject", msg.Subject, "error", err)
		}
	})
}

// ---------------------------------------------------------------------------
// override audit
// ---------------------------------------------------------------------------

// overrideAuditHandler mails every history override to the compliance
// mailbox.
func overrideAuditHandler(m mailer, to, appName string) func(context.Context, history.OverrideEvent) error {
	return func(ctx context.Context, ev history.OverrideEvent) error {
		msg := email.BuildOverrideAuditEmail(to, email.OverrideAuditData{
			LogID:     ev.LogID,
			DoctorID:  ev.DoctorID,
			PatientID: ev.PatientID,
			CaseID:    ev.CaseID,
			Reason:    ev.Reason,
			At:        ev.At,
			AppName:   appName,
		})
		if err := m.Send(ctx, msg); err != nil {
			if email.IsDisabled(err) {
				return nil
			}
			return err
		}
		slog.InfoContext(ctx, "override_audit: compliance notice sent", "log_id", ev.LogID)
		return nil
	}
}

// ---------------------------------------------------------------------------
// lab results
// ---------------------------------------------------------------------------

// labDoneHandler tells the case's primary doctor that a report is final.
func labDoneHandler(m mailer, staffRepo staffLookup, appName string) func(context.Context, lab.DoneEvent) error {
	return func(ctx context.Context, ev lab.DoneEvent) error {
		if ev.PrimaryDoctorID == 0 {
			return nil
		}
		doc, err := staffRepo.Get(ctx, ev.PrimaryDoctorID)
		if err != nil {
			return err
		}

		msg := email.BuildLabResultsReadyEmail(doc.Email, email.LabResultsReadyData{
			DoctorName: doc.Name,
			ReportID:   ev.ReportID,
			CaseID:     ev.CaseID,
			CaseToken:  ev.CaseToken,
			TestName:   ev.TestName,
			AppName:    appName,
		})
		if err := m.Send(ctx, msg); err != nil {
			if email.IsDisabled(err) {
				return nil
			}
			return err
		}
		slog.InfoContext(ctx, "lab_results: doctor notified", "report_id", ev.ReportID, "doctor_id", doc.ID)
		return nil
	}
}
