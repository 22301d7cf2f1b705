package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/Alijeyrad/medcenter_backend"

// Domain holds the business counters exported next to the HTTP metrics.
// A nil *Domain is valid and records nothing.
type Domain struct {
	otpIssued      metric.Int64Counter
	otpVerify      metric.Int64Counter
	overrides      metric.Int64Counter
	labTransitions metric.Int64Counter
	casesFinalized metric.Int64Counter
}

func NewDomain() *Domain {
	m := otel.Meter(meterName)
	d := &Domain{}
	d.otpIssued, _ = m.Int64Counter("medcenter_history_otp_issued_total",
		metric.WithDescription("Disclosure codes issued"))
	d.otpVerify, _ = m.Int64Counter("medcenter_history_otp_verify_total",
		metric.WithDescription("Disclosure code verifications by result"))
	d.overrides, _ = m.Int64Counter("medcenter_history_override_total",
		metric.WithDescription("Emergency overrides of the disclosure gate"))
	d.labTransitions, _ = m.Int64Counter("medcenter_lab_status_transitions_total",
		metric.WithDescription("Lab report status changes"))
	d.casesFinalized, _ = m.Int64Counter("medcenter_cases_finalized_total",
		metric.WithDescription("Cases finalized by outcome"))
	return d
}

func (d *Domain) OTPIssued(ctx context.Context) {
	if d == nil {
		return
	}
	d.otpIssued.Add(ctx, 1)
}

// OTPVerified records a verification outcome: ok, invalid or throttled.
func (d *Domain) OTPVerified(ctx context.Context, result string) {
	if d == nil {
		return
	}
	d.otpVerify.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (d *Domain) OverrideRecorded(ctx context.Context) {
	if d == nil {
		return
	}
	d.overrides.Add(ctx, 1)
}

func (d *Domain) LabTransition(ctx context.Context, from, to string) {
	if d == nil || from == to {
		return
	}
	d.labTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (d *Domain) CaseFinalized(ctx context.Context, state string) {
	if d == nil {
		return
	}
	d.casesFinalized.Add(ctx, 1, metric.WithAttributes(attribute.String("state", state)))
}
