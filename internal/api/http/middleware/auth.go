package middleware

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medcenter_backend/pkg/authorize"
	pasetotoken "github.com/Alijeyrad/medcenter_backend/pkg/paseto"
	"github.com/Alijeyrad/medcenter_backend/pkg/redis"
)

const LocalsPrincipal = "auth.principal"

// AuthRequired validates a Bearer PASETO access token and checks the session
// in Redis. On success it stores the claims and the resolved
// authorize.Principal in Locals.
func AuthRequired(mgr *pasetotoken.Manager, sessions *redis.Sessions, auth authorize.IAuthorization) fiber.Handler {
	return func(c fiber.Ctx) error {
		raw, ok := pasetotoken.BearerToken(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		claims, err := mgr.Verify(raw)
		if err != nil {
			return fiber.ErrUnauthorized
		}

		// Only access tokens are accepted on protected routes
		if claims.Type != pasetotoken.TokenTypeAccess {
			return fiber.ErrUnauthorized
		}

		live, err := sessions.Exists(c.Context(), claims.SessionID)
		if err != nil {
			return err
		}
		if !live {
			return fiber.ErrUnauthorized
		}

		roles, err := auth.GetRolesForUserInDomain(c.Context(), authorize.UserSubject(claims.UserID), authorize.DomainSys)
		if err != nil {
			return err
		}

		c.Locals(pasetotoken.CtxKeyClaims, claims)
		c.Locals(LocalsPrincipal, authorize.NewPrincipal(claims.UserID, roles...))
		return c.Next()
	}
}

// PrincipalFromFiber returns the principal stored by AuthRequired.
func PrincipalFromFiber(c fiber.Ctx) (authorize.Principal, bool) {
	p, ok := c.Locals(LocalsPrincipal).(authorize.Principal)
	return p, ok && !p.IsZero()
}
