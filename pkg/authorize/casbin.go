package authorize

import (
	"context"
	"errors"
	"fmt"

	casbin "github.com/casbin/casbin/v2"
)

var (
	ErrForbidden   = errors.New("forbidden")
	ErrInvalidArgs = errors.New("invalid authorization arguments")
)

// IAuthorization is what services and middleware depend on. Staff live in a
// single domain (DomainSys); the domain argument is kept so the casbin model
// and stored policies stay domain-aware.
type IAuthorization interface {
	Enforce(ctx context.Context, subject GroupSubject, domain Domain, object Resource, action Action) (bool, error)
	// MustEnforce returns ErrForbidden on a deny.
	MustEnforce(ctx context.Context, subject GroupSubject, domain Domain, object Resource, action Action) error

	// g, user:<id>, role, domain
	AddRoleForUserInDomain(ctx context.Context, subject GroupSubject, role Role, domain Domain) (bool, error)
	RemoveRoleForUserInDomain(ctx context.Context, subject GroupSubject, role Role, domain Domain) (bool, error)
	GetRolesForUserInDomain(ctx context.Context, subject GroupSubject, domain Domain) ([]Role, error)

	// p, role, domain, resource, action, eft
	AddPermission(ctx context.Context, role Role, domain Domain, object Resource, action Action, effect PolicyEffect) (bool, error)
	RemovePermission(ctx context.Context, role Role, domain Domain, object Resource, action Action, effect PolicyEffect) (bool, error)

	Raw() *casbin.DistributedEnforcer
}

// Authorization is the casbin-backed IAuthorization.
type Authorization struct {
	enforcer *casbin.DistributedEnforcer
	// bypassRole skips policy evaluation for its holders when set.
	bypassRole Role
}

// NewAuthorization wraps an already-configured Enforcer and loads policy.
// When superadminBypass is set, admins are allowed without evaluating the
// matcher, so an accidental deny rule cannot lock them out.
func NewAuthorization(e *casbin.DistributedEnforcer, superadminBypass bool) (IAuthorization, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: enforcer is nil", ErrInvalidArgs)
	}
	if err := e.LoadPolicy(); err != nil {
		return nil, err
	}

	a := &Authorization{enforcer: e}
	if superadminBypass {
		a.bypassRole = RoleAdmin
	}
	return a, nil
}

func (a *Authorization) Raw() *casbin.DistributedEnforcer { return a.enforcer }

func (a *Authorization) Enforce(_ context.Context, subject GroupSubject, domain Domain, object Resource, action Action) (bool, error) {
	if err := firstErr(checkSubject(subject), checkDomain(domain), checkResource(object), checkAction(action)); err != nil {
		return false, err
	}

	if a.bypassRole != "" && a.enforcer.HasGroupingPolicy(string(subject), string(a.bypassRole), string(DomainSys)) {
		return true, nil
	}
	return a.enforcer.Enforce(string(subject), string(domain), string(object), string(action))
}

func (a *Authorization) MustEnforce(ctx context.Context, subject GroupSubject, domain Domain, object Resource, action Action) error {
	return mustEnforce(a, ctx, subject, domain, object, action)
}

func mustEnforce(a IAuthorization, ctx context.Context, subject GroupSubject, domain Domain, object Resource, action Action) error {
	ok, err := a.Enforce(ctx, subject, domain, object, action)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func (a *Authorization) AddRoleForUserInDomain(_ context.Context, subject GroupSubject, role Role, domain Domain) (bool, error) {
	if err := firstErr(checkSubject(subject), checkRole(role), checkDomain(domain)); err != nil {
		return false, err
	}
	return a.enforcer.AddGroupingPolicy(string(subject), string(role), string(domain))
}

func (a *Authorization) RemoveRoleForUserInDomain(_ context.Context, subject GroupSubject, role Role, domain Domain) (bool, error) {
	if err := firstErr(checkSubject(subject), checkNonEmpty("role", string(role)), checkDomain(domain)); err != nil {
		return false, err
	}
	return a.enforcer.RemoveGroupingPolicy(string(subject), string(role), string(domain))
}

func (a *Authorization) GetRolesForUserInDomain(_ context.Context, subject GroupSubject, domain Domain) ([]Role, error) {
	if err := firstErr(checkSubject(subject), checkDomain(domain)); err != nil {
		return nil, err
	}
	names := a.enforcer.GetRolesForUserInDomain(string(subject), string(domain))
	roles := make([]Role, len(names))
	for i, n := range names {
		roles[i] = Role(n)
	}
	return roles, nil
}

func (a *Authorization) AddPermission(_ context.Context, role Role, domain Domain, object Resource, action Action, effect PolicyEffect) (bool, error) {
	if err := firstErr(checkRole(role), checkDomain(domain), checkResource(object), checkAction(action), checkEffect(effect)); err != nil {
		return false, err
	}
	return a.enforcer.AddPolicy(string(role), string(domain), string(object), string(action), string(effect))
}

func (a *Authorization) RemovePermission(_ context.Context, role Role, domain Domain, object Resource, action Action, effect PolicyEffect) (bool, error) {
	if err := firstErr(
		checkNonEmpty("role", string(role)), checkDomain(domain),
		checkNonEmpty("resource", string(object)), checkNonEmpty("action", string(action)), checkEffect(effect),
	); err != nil {
		return false, err
	}
	return a.enforcer.RemovePolicy(string(role), string(domain), string(object), string(action), string(effect))
}

// ---------------------------------------------------------------------------
// argument checks
// ---------------------------------------------------------------------------

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func checkNonEmpty(field, v string) error {
	if v == "" {
		return fmt.Errorf("%w: %s is empty", ErrInvalidArgs, field)
	}
	return nil
}

func checkSubject(s GroupSubject) error { return checkNonEmpty("subject", string(s)) }

func checkDomain(d Domain) error {
	if !IsValidDomain(d) {
		return fmt.Errorf("%w: invalid domain: %q", ErrInvalidArgs, d)
	}
	return nil
}

func checkRole(r Role) error {
	if _, ok := KnownRoles[r]; !ok && r != WildcardRole {
		return fmt.Errorf("%w: unknown role: %q", ErrInvalidArgs, r)
	}
	return nil
}

func checkResource(r Resource) error {
	if _, ok := KnownResources[r]; !ok && r != WildcardResource {
		return fmt.Errorf("%w: unknown resource: %q", ErrInvalidArgs, r)
	}
	return nil
}

func checkAction(a Action) error {
	if _, ok := KnownActions[a]; !ok && a != WildcardAction {
		return fmt.Errorf("%w: unknown action: %q", ErrInvalidArgs, a)
	}
	return nil
}

func checkEffect(e PolicyEffect) error {
	if e != EffectAllow && e != EffectDeny {
		return fmt.Errorf("%w: invalid effect: %q", ErrInvalidArgs, e)
	}
	return nil
}
