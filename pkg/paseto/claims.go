package pasetotoken

import (
	"time"

	"github.com/google/uuid"
)

type TokenType string

const (
	TokenTypeAccess TokenType = "access"
)

// Claims is the app-facing token payload. Roles are not carried in the
// token; they are resolved from casbin on every request.
type Claims struct {
	Type TokenType

	UserID    int64
	SessionID uuid.UUID

	Issuer   string
	Audience string

	IssuedAt  time.Time
	NotBefore time.Time
	ExpiresAt time.Time
	TokenID   string // jti
	Subject   string
}
