package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medcenter_backend/internal/service/staff"
	pasetotoken "github.com/Alijeyrad/medcenter_backend/pkg/paseto"
)

type AuthHandler struct {
	svc staff.Service
}

func NewAuthHandler(svc staff.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func mapStaffError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, staff.ErrStaffNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, staff.ErrSessionNotFound):
		return unauthorized(c)
	default:
		return internalError(c, err)
	}
}

// GET /auth/me
func (h *AuthHandler) Me(c fiber.Ctx) error {
	p, authed := principal(c)
	if !authed {
		return unauthorized(c)
	}

	prof, err := h.svc.Me(c.Context(), p)
	if err != nil {
		return mapStaffError(c, err)
	}
	return ok(c, prof)
}

// POST /auth/logout
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	claims, authed := pasetotoken.ClaimsFromFiber(c)
	if !authed {
		return unauthorized(c)
	}

	if err := h.svc.Logout(c.Context(), claims.SessionID); err != nil {
		return mapStaffError(c, err)
	}
	return noContent(c)
}
