package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medcenter_backend/internal/service/patient"
	"github.com/Alijeyrad/medcenter_backend/internal/store"
)

type PatientHandler struct {
	svc patient.Service
}

func NewPatientHandler(svc patient.Service) *PatientHandler {
	return &PatientHandler{svc: svc}
}

func mapPatientError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, patient.ErrPatientNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, patient.ErrDuplicatePSRN):
		return conflict(c, err.Error())
	case errors.Is(err, patient.ErrInvalidPatient),
		errors.Is(err, patient.ErrInvalidContact),
		errors.Is(err, patient.ErrInvalidPhone),
		errors.Is(err, patient.ErrUnknownPSRN):
		return badRequest(c, err.Error())
	default:
		return internalError(c, err)
	}
}

// POST /patients
func (h *PatientHandler) Register(c fiber.Ctx) error {
	var body struct {
		Name     string `json:"name"`
		Type     string `json:"type"`
		Age      int    `json:"age"`
		Sex      string `json:"sex"`
		RollNo   string `json:"roll_no"`
		PSRN     string `json:"psrn"`
		Relation string `json:"relation"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	p, err := h.svc.Register(c.Context(), patient.RegisterRequest{
		Name: body.Name,
		Type: store.PatientType(body.Type),
		Age:  body.Age,
		Sex:  store.Sex(body.Sex),
		Contact: store.Contact{
			RollNo:   body.RollNo,
			PSRN:     body.PSRN,
			Relation: body.Relation,
			Email:    body.Email,
			Phone:    body.Phone,
		},
	})
	if err != nil {
		return mapPatientError(c, err)
	}
	return created(c, p)
}

// GET /patients
func (h *PatientHandler) List(c fiber.Ctx) error {
	var q struct {
		Page    int    `query:"page"`
		PerPage int    `query:"per_page"`
		Type    string `query:"type"`
		Query   string `query:"q"`
	}
	if err := c.Bind().Query(&q); err != nil {
		return badRequest(c, "invalid query")
	}

	res, err := h.svc.List(c.Context(), patient.ListPatientsRequest{
		Page:    q.Page,
		PerPage: q.PerPage,
		Type:    store.PatientType(q.Type),
		Query:   q.Query,
	})
	if err != nil {
		return mapPatientError(c, err)
	}
	return ok(c, res)
}

// GET /patients/:id
func (h *PatientHandler) Get(c fiber.Ctx) error {
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid patient id")
	}

	p, err := h.svc.GetByID(c.Context(), id)
	if err != nil {
		return mapPatientError(c, err)
	}
	return ok(c, p)
}
