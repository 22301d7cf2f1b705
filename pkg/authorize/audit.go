package authorize

import (
	"context"
	"log/slog"
	"time"

	casbin "github.com/casbin/casbin/v2"

	"github.com/Alijeyrad/medcenter_backend/pkg/reqctx"
)

// AuditedAuthorization logs every decision and policy change of the wrapped
// IAuthorization. Allows go to debug; denials, errors and changes are
// always visible.
type AuditedAuthorization struct {
	inner  IAuthorization
	logger *slog.Logger
}

func NewAuditedAuthorization(inner IAuthorization, logger *slog.Logger) IAuthorization {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditedAuthorization{inner: inner, logger: logger}
}

// record emits msg, tagged with the request id when the context has one.
func (a *AuditedAuthorization) record(ctx context.Context, msg string, level slog.Level, err error, attrs ...any) {
	if rid := reqctx.RequestIDFromContext(ctx); rid != "" {
		attrs = append(attrs, "request_id", rid)
	}
	if err != nil {
		attrs = append(attrs, "error", err.Error())
		level = slog.LevelError
	}
	a.logger.Log(ctx, level, msg, attrs...)
}

func (a *AuditedAuthorization) Enforce(ctx context.Context, subject GroupSubject, domain Domain, object Resource, action Action) (bool, error) {
	start := time.Now()
	allowed, err := a.inner.Enforce(ctx, subject, domain, object, action)

	attrs := []any{
		"subject", string(subject),
		"resource", string(object),
		"action", string(action),
		"allowed", allowed,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if uid, perr := UserIDFromSubject(subject); perr == nil {
		attrs = append(attrs, "user_id", uid)
	}
	if domain != DomainSys {
		attrs = append(attrs, "domain", string(domain))
	}

	level := slog.LevelDebug
	if !allowed {
		level = slog.LevelWarn
	}
	a.record(ctx, "authz_decision", level, err, attrs...)
	return allowed, err
}

func (a *AuditedAuthorization) MustEnforce(ctx context.Context, subject GroupSubject, domain Domain, object Resource, action Action) error {
	return mustEnforce(a, ctx, subject, domain, object, action)
}

func (a *AuditedAuthorization) AddRoleForUserInDomain(ctx context.Context, subject GroupSubject, role Role, domain Domain) (bool, error) {
	added, err := a.inner.AddRoleForUserInDomain(ctx, subject, role, domain)
	a.record(ctx, "authz_role_change", slog.LevelInfo, err,
		"operation", "grant", "subject", string(subject), "role", string(role), "changed", added)
	return added, err
}

func (a *AuditedAuthorization) RemoveRoleForUserInDomain(ctx context.Context, subject GroupSubject, role Role, domain Domain) (bool, error) {
	removed, err := a.inner.RemoveRoleForUserInDomain(ctx, subject, role, domain)
	a.record(ctx, "authz_role_change", slog.LevelInfo, err,
		"operation", "revoke", "subject", string(subject), "role", string(role), "changed", removed)
	return removed, err
}

func (a *AuditedAuthorization) GetRolesForUserInDomain(ctx context.Context, subject GroupSubject, domain Domain) ([]Role, error) {
	return a.inner.GetRolesForUserInDomain(ctx, subject, domain)
}

func (a *AuditedAuthorization) AddPermission(ctx context.Context, role Role, domain Domain, object Resource, action Action, effect PolicyEffect) (bool, error) {
	added, err := a.inner.AddPermission(ctx, role, domain, object, action, effect)
	a.record(ctx, "authz_permission_change", slog.LevelInfo, err,
		"operation", "add", "role", string(role), "resource", string(object),
		"action", string(action), "effect", string(effect), "changed", added)
	return added, err
}

func (a *AuditedAuthorization) RemovePermission(ctx context.Context, role Role, domain Domain, object Resource, action Action, effect PolicyEffect) (bool, error) {
	removed, err := a.inner.RemovePermission(ctx, role, domain, object, action, effect)
	a.record(ctx, "authz_permission_change", slog.LevelInfo, err,
		"operation", "remove", "role", string(role), "resource", string(object),
		"action", string(action), "effect", string(effect), "changed", removed)
	return removed, err
}

func (a *AuditedAuthorization) Raw() *casbin.DistributedEnforcer {
	return a.inner.Raw()
}
