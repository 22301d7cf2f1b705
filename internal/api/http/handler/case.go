package handler

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medcenter_backend/internal/service/clinical"
	"github.com/Alijeyrad/medcenter_backend/internal/store"
)

type CaseHandler struct {
	svc clinical.Service
}

func NewCaseHandler(svc clinical.Service) *CaseHandler {
	return &CaseHandler{svc: svc}
}

func mapClinicalError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, clinical.ErrPatientNotFound),
		errors.Is(err, clinical.ErrDoctorNotFound),
		errors.Is(err, clinical.ErrClinicianNotFound),
		errors.Is(err, clinical.ErrCaseNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, clinical.ErrCaseFinalized),
		errors.Is(err, clinical.ErrCaseAlreadyFinalized):
		return conflict(c, err.Error())
	case errors.Is(err, clinical.ErrInvalidVitals),
		errors.Is(err, clinical.ErrInvalidDiseaseIDs),
		errors.Is(err, clinical.ErrInvalidState),
		errors.Is(err, clinical.ErrInvalidPrescription),
		errors.Is(err, clinical.ErrUnknownMedicine),
		errors.Is(err, clinical.ErrCategoryMismatch):
		return badRequest(c, err.Error())
	case errors.Is(err, clinical.ErrUnauthenticated):
		return unauthorized(c)
	default:
		return internalError(c, err)
	}
}

// POST /cases
func (h *CaseHandler) Intake(c fiber.Ctx) error {
	p, authed := principal(c)
	if !authed {
		return unauthorized(c)
	}

	var body struct {
		PatientID int64 `json:"patient_id"`
		DoctorID  int64 `json:"doctor_id"`
		store.Vitals
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	cs, err := h.svc.IntakeVitals(c.Context(), p, clinical.IntakeRequest{
		PatientID: body.PatientID,
		DoctorID:  body.DoctorID,
		Vitals:    body.Vitals,
	})
	if err != nil {
		return mapClinicalError(c, err)
	}
	return created(c, cs)
}

// GET /cases/:id
func (h *CaseHandler) Get(c fiber.Ctx) error {
	p, authed := principal(c)
	if !authed {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid case id")
	}

	cs, err := h.svc.GetCase(c.Context(), p, id)
	if err != nil {
		return mapClinicalError(c, err)
	}
	return ok(c, cs)
}

// POST /cases/:id/assign
func (h *CaseHandler) Assign(c fiber.Ctx) error {
	p, authed := principal(c)
	if !authed {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid case id")
	}

	var body struct {
		UserID int64 `json:"user_id"`
	}
	if err := c.Bind().JSON(&body); err != nil || body.UserID <= 0 {
		return badRequest(c, "user_id is required")
	}

	cs, err := h.svc.AssignClinician(c.Context(), p, id, body.UserID)
	if err != nil {
		return mapClinicalError(c, err)
	}
	return ok(c, cs)
}

// GET /cases/:id/prescriptions
func (h *CaseHandler) ListPrescriptions(c fiber.Ctx) error {
	p, authed := principal(c)
	if !authed {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid case id")
	}

	rx, err := h.svc.ListPrescriptions(c.Context(), p, id)
	if err != nil {
		return mapClinicalError(c, err)
	}
	if rx == nil {
		rx = []clinical.Prescription{}
	}
	return ok(c, rx)
}

// GET /doctor/queue
func (h *CaseHandler) Queue(c fiber.Ctx) error {
	p, authed := principal(c)
	if !authed {
		return unauthorized(c)
	}

	cases, err := h.svc.Queue(c.Context(), p)
	if err != nil {
		return mapClinicalError(c, err)
	}
	if cases == nil {
		cases = []store.Case{}
	}
	return ok(c, cases)
}

// PATCH /doctor/cases/:id/consultation
func (h *CaseHandler) UpdateConsultation(c fiber.Ctx) error {
	p, authed := principal(c)
	if !authed {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid case id")
	}

	var body struct {
		Notes     *string `json:"consultation_notes"`
		Diagnosis []int64 `json:"diagnosis"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	cs, err := h.svc.UpdateConsultation(c.Context(), p, id, clinical.ConsultationUpdate{
		Notes:        body.Notes,
		DiagnosisIDs: body.Diagnosis,
	})
	if err != nil {
		return mapClinicalError(c, err)
	}
	return ok(c, cs)
}

// POST /doctor/cases/:id/finalize
// A retry after a successful finalize answers 409.
func (h *CaseHandler) Finalize(c fiber.Ctx) error {
	p, authed := principal(c)
	if !authed {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid case id")
	}

	var body struct {
		State         string            `json:"finalized_state"`
		Prescriptions []json.RawMessage `json:"prescriptions"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	rx := make([]clinical.Prescription, len(body.Prescriptions))
	for i, raw := range body.Prescriptions {
		if err := json.Unmarshal(raw, &rx[i]); err != nil {
			return mapClinicalError(c, err)
		}
	}

	res, err := h.svc.FinalizeCase(c.Context(), p, id, clinical.FinalizeRequest{
		State:         store.FinalizedState(body.State),
		Prescriptions: rx,
	})
	if err != nil {
		return mapClinicalError(c, err)
	}
	return ok(c, res)
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

// GET /catalog/diseases
func (h *CaseHandler) ListDiseases(c fiber.Ctx) error {
	ds, err := h.svc.ListDiseases(c.Context())
	if err != nil {
		return internalError(c, err)
	}
	return ok(c, ds)
}

// GET /catalog/medicines
func (h *CaseHandler) ListMedicines(c fiber.Ctx) error {
	ms, err := h.svc.ListMedicines(c.Context())
	if err != nil {
		return internalError(c, err)
	}
	return ok(c, ms)
}
