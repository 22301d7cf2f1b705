package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medcenter_backend/internal/service/history"
	"github.com/Alijeyrad/medcenter_backend/internal/store"
)

type HistoryHandler struct {
	svc history.Service
}

func NewHistoryHandler(svc history.Service) *HistoryHandler {
	return &HistoryHandler{svc: svc}
}

func mapHistoryError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, history.ErrPatientNotFound),
		errors.Is(err, history.ErrContactNotFound),
		errors.Is(err, history.ErrCaseNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, history.ErrInvalidOtp),
		errors.Is(err, history.ErrReasonTooShort):
		return badRequest(c, err.Error())
	case errors.Is(err, history.ErrTooManyAttempts):
		return tooManyRequests(c, err.Error())
	case errors.Is(err, history.ErrOTPDeliveryFailed):
		return badGateway(c, err.Error())
	case errors.Is(err, history.ErrUnauthenticated):
		return unauthorized(c)
	default:
		return internalError(c, err)
	}
}

// POST /patientHistory/:patientId/send-otp
func (h *HistoryHandler) SendOtp(c fiber.Ctx) error {
	p, authed := principal(c)
	if !authed {
		return unauthorized(c)
	}
	patientID, valid := paramID(c, "patientId")
	if !valid {
		return badRequest(c, "invalid patient id")
	}

	res, err := h.svc.IssueOtp(c.Context(), p, patientID)
	if err != nil {
		return mapHistoryError(c, err)
	}
	return ok(c, res)
}

// POST /patientHistory/:patientId
// Releases the history when the submitted code matches.
func (h *HistoryHandler) Verify(c fiber.Ctx) error {
	p, authed := principal(c)
	if !authed {
		return unauthorized(c)
	}
	patientID, valid := paramID(c, "patientId")
	if !valid {
		return badRequest(c, "invalid patient id")
	}

	var body struct {
		OTP string `json:"otp"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	res, err := h.svc.VerifyOtp(c.Context(), p, patientID, body.OTP)
	if err != nil {
		return mapHistoryError(c, err)
	}
	return ok(c, res)
}

// POST /patientHistory/:patientId/override
func (h *HistoryHandler) Override(c fiber.Ctx) error {
	p, authed := principal(c)
	if !authed {
		return unauthorized(c)
	}
	patientID, valid := paramID(c, "patientId")
	if !valid {
		return badRequest(c, "invalid patient id")
	}

	var body struct {
		CaseID int64  `json:"case_id"`
		Reason string `json:"reason"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.CaseID <= 0 {
		return badRequest(c, "case_id is required")
	}
	if err := h.svc.ValidateReason(body.Reason); err != nil {
		return mapHistoryError(c, err)
	}

	res, err := h.svc.OverrideVerification(c.Context(), p, history.OverrideRequest{
		PatientID: patientID,
		CaseID:    body.CaseID,
		Reason:    body.Reason,
	})
	if err != nil {
		return mapHistoryError(c, err)
	}
	return ok(c, res)
}

// GET /patientHistory/overrides
func (h *HistoryHandler) ListOverrides(c fiber.Ctx) error {
	var q struct {
		Limit     int   `query:"limit"`
		Offset    int   `query:"offset"`
		DoctorID  int64 `query:"doctor_id"`
		PatientID int64 `query:"patient_id"`
	}
	if err := c.Bind().Query(&q); err != nil {
		return badRequest(c, "invalid query")
	}

	page := pageOf(q.Limit, q.Offset)
	logs, total, err := h.svc.ListOverrides(c.Context(), history.OverrideFilter{
		DoctorID:  q.DoctorID,
		PatientID: q.PatientID,
		Page:      page,
	})
	if err != nil {
		return mapHistoryError(c, err)
	}
	return ok(c, list[store.OverrideLog](logs, total, page))
}
