package staff

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/medcenter_backend/internal/store"
	"github.com/Alijeyrad/medcenter_backend/pkg/authorize"
	pasetotoken "github.com/Alijeyrad/medcenter_backend/pkg/paseto"
	"github.com/Alijeyrad/medcenter_backend/pkg/redis"
)

const defaultSessionTTL = 12 * time.Hour

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateRequest struct {
	Name  string
	Email string
	// Role is one of the staff role strings (doctor, nurse, lab, ...).
	Role string
}

type AuthToken struct {
	AccessToken string    `json:"access_token"`
	SessionID   uuid.UUID `json:"session_id"`
	ExpiresIn   int64     `json:"expires_in"`
}

type Profile struct {
	store.StaffUser
	Roles []authorize.Role `json:"roles"`
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	// Create inserts a staff user and grants the matching casbin role.
	Create(ctx context.Context, req CreateRequest) (*store.StaffUser, error)
	// IssueToken opens a session for the user with email and mints an
	// access token bound to it.
	IssueToken(ctx context.Context, email string) (*AuthToken, error)
	Logout(ctx context.Context, sessionID uuid.UUID) error
	Me(ctx context.Context, p authorize.Principal) (*Profile, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type Deps struct {
	Repo       Repository
	Auth       authorize.IAuthorization
	Tokens     *pasetotoken.Manager
	Sessions   *redis.Sessions
	SessionTTL time.Duration
}

type staffService struct {
	Deps
}

func New(d Deps) Service {
	if d.SessionTTL <= 0 {
		d.SessionTTL = defaultSessionTTL
	}
	return &staffService{Deps: d}
}

func (s *staffService) Create(ctx context.Context, req CreateRequest) (*store.StaffUser, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidStaff)
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil {
		return nil, fmt.Errorf("%w: email: %v", ErrInvalidStaff, err)
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	rbacRole, ok := authorize.StaffRoleToRBACRole[role]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, req.Role)
	}

	u := &store.StaffUser{Name: req.Name, Email: strings.ToLower(addr.Address), Role: role}
	if err := s.Repo.Insert(ctx, u); err != nil {
		return nil, err
	}

	if _, err := s.Auth.AddRoleForUserInDomain(ctx, authorize.UserSubject(u.ID), rbacRole, authorize.DomainSys); err != nil {
		return nil, fmt.Errorf("grant role: %w", err)
	}

	slog.InfoContext(ctx, "staff: user created", "user_id", u.ID, "role", role)
	return u, nil
}

func (s *staffService) IssueToken(ctx context.Context, email string) (*AuthToken, error) {
	u, err := s.Repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}

	sid := uuid.New()
	if err := s.Sessions.Create(ctx, sid, u.ID, s.SessionTTL); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	tok, err := s.Tokens.IssueAccess(u.ID, sid)
	if err != nil {
		_ = s.Sessions.Revoke(ctx, sid)
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	ttl := min(s.SessionTTL, s.Tokens.AccessTTL())
	return &AuthToken{AccessToken: tok, SessionID: sid, ExpiresIn: int64(ttl.Seconds())}, nil
}

func (s *staffService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	live, err := s.Sessions.Exists(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if !live {
		return ErrSessionNotFound
	}
	return s.Sessions.Revoke(ctx, sessionID)
}

func (s *staffService) Me(ctx context.Context, p authorize.Principal) (*Profile, error) {
	u, err := s.Repo.Get(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	roles := p.Roles
	if roles == nil {
		roles = []authorize.Role{}
	}
	return &Profile{StaffUser: *u, Roles: roles}, nil
}
