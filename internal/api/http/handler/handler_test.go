package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/medcenter_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/medcenter_backend/internal/service/clinical"
	"github.com/Alijeyrad/medcenter_backend/internal/service/history"
	"github.com/Alijeyrad/medcenter_backend/internal/store"
	"github.com/Alijeyrad/medcenter_backend/pkg/authorize"
)

// fakeHistory embeds the interface so only the methods under test need bodies.
type fakeHistory struct {
	history.Service
	issueErr  error
	verifyErr error
	gotOtp    string
	gotReq    history.OverrideRequest
}

func (f *fakeHistory) IssueOtp(_ context.Context, _ authorize.Principal, _ int64) (*history.IssueResult, error) {
	if f.issueErr != nil {
		return nil, f.issueErr
	}
	return &history.IssueResult{SentTo: "a***@example.edu"}, nil
}

func (f *fakeHistory) VerifyOtp(_ context.Context, _ authorize.Principal, patientID int64, otp string) (*history.History, error) {
	f.gotOtp = otp
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return &history.History{Patient: store.Patient{ID: patientID}, Cases: []store.Case{}}, nil
}

func (f *fakeHistory) ValidateReason(reason string) error {
	if len(strings.TrimSpace(reason)) < 10 {
		return history.ErrReasonTooShort
	}
	return nil
}

func (f *fakeHistory) OverrideVerification(_ context.Context, _ authorize.Principal, req history.OverrideRequest) (*history.History, error) {
	f.gotReq = req
	return &history.History{Patient: store.Patient{ID: req.PatientID}}, nil
}

type fakeClinical struct {
	clinical.Service
	finalized map[int64]bool
	gotRx     []clinical.Prescription
}

func (f *fakeClinical) FinalizeCase(_ context.Context, _ authorize.Principal, caseID int64, req clinical.FinalizeRequest) (*clinical.FinalizeResult, error) {
	if f.finalized[caseID] {
		return nil, clinical.ErrCaseAlreadyFinalized
	}
	if !req.State.Valid() {
		return nil, clinical.ErrInvalidState
	}
	f.finalized[caseID] = true
	f.gotRx = req.Prescriptions
	state := req.State
	return &clinical.FinalizeResult{
		Case:          store.Case{ID: caseID, FinalizedState: &state},
		Prescriptions: req.Prescriptions,
	}, nil
}

func (f *fakeClinical) GetCase(_ context.Context, _ authorize.Principal, caseID int64) (*store.Case, error) {
	return nil, fmt.Errorf("load case %d: %w", caseID, clinical.ErrCaseNotFound)
}

func newTestApp(p *authorize.Principal) *fiber.App {
	app := fiber.New()
	app.Use(func(c fiber.Ctx) error {
		if p != nil {
			c.Locals(middleware.LocalsPrincipal, *p)
		}
		return c.Next()
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func doctor() *authorize.Principal {
	p := authorize.NewPrincipal(7, authorize.RoleDoctor)
	return &p
}

func TestHistoryHandler_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"patient missing", history.ErrPatientNotFound, http.StatusNotFound},
		{"no contact", history.ErrContactNotFound, http.StatusNotFound},
		{"delivery failed", fmt.Errorf("smtp: %w", history.ErrOTPDeliveryFailed), http.StatusBadGateway},
		{"unexpected", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHistoryHandler(&fakeHistory{issueErr: tt.err})
			app := newTestApp(doctor())
			app.Post("/patientHistory/:patientId/send-otp", h.SendOtp)

			status, body := doJSON(t, app, http.MethodPost, "/patientHistory/3/send-otp", "")
			assert.Equal(t, tt.want, status)
			assert.Contains(t, body, "error")
		})
	}
}

func TestHistoryHandler_Verify(t *testing.T) {
	svc := &fakeHistory{}
	h := NewHistoryHandler(svc)
	app := newTestApp(doctor())
	app.Post("/patientHistory/:patientId", h.Verify)

	status, body := doJSON(t, app, http.MethodPost, "/patientHistory/3", `{"otp":"123456"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "123456", svc.gotOtp)
	data := body["data"].(map[string]any)
	assert.EqualValues(t, 3, data["patient"].(map[string]any)["id"])

	svc.verifyErr = history.ErrInvalidOtp
	status, _ = doJSON(t, app, http.MethodPost, "/patientHistory/3", `{"otp":"000000"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	svc.verifyErr = history.ErrTooManyAttempts
	status, _ = doJSON(t, app, http.MethodPost, "/patientHistory/3", `{"otp":"000000"}`)
	assert.Equal(t, http.StatusTooManyRequests, status)

	status, _ = doJSON(t, app, http.MethodPost, "/patientHistory/abc", `{"otp":"1"}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHistoryHandler_Override(t *testing.T) {
	svc := &fakeHistory{}
	h := NewHistoryHandler(svc)
	app := newTestApp(doctor())
	app.Post("/patientHistory/:patientId/override", h.Override)

	status, _ := doJSON(t, app, http.MethodPost, "/patientHistory/5/override", `{"reason":"unconscious on arrival"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	for _, body := range []string{`{"case_id":3,"reason":""}`, `{"case_id":3,"reason":" x "}`, `{"case_id":3}`} {
		status, env := doJSON(t, app, http.MethodPost, "/patientHistory/5/override", body)
		assert.Equal(t, http.StatusBadRequest, status, body)
		assert.Contains(t, env, "error")
	}
	assert.Zero(t, svc.gotReq)

	status, _ = doJSON(t, app, http.MethodPost, "/patientHistory/5/override",
		`{"case_id":11,"reason":"unconscious on arrival"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, history.OverrideRequest{PatientID: 5, CaseID: 11, Reason: "unconscious on arrival"}, svc.gotReq)
}

func TestHandlers_RequirePrincipal(t *testing.T) {
	h := NewHistoryHandler(&fakeHistory{})
	app := newTestApp(nil)
	app.Post("/patientHistory/:patientId/send-otp", h.SendOtp)

	status, _ := doJSON(t, app, http.MethodPost, "/patientHistory/3/send-otp", "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestCaseHandler_FinalizeIsSetOnce(t *testing.T) {
	svc := &fakeClinical{finalized: map[int64]bool{}}
	h := NewCaseHandler(svc)
	app := newTestApp(doctor())
	app.Post("/doctor/cases/:id/finalize", h.Finalize)

	body := `{
		"finalized_state": "opd",
		"prescriptions": [
			{"medicine_id": 4, "category": "capsule_tablet", "dosage": {"count": 1, "times_per_day": 3, "days": 5, "after_meal": true}},
			{"medicine_id": 9, "category": "liquid_syrup", "dosage": {"dose_ml": 5, "times_per_day": 2, "days": 3}}
		]
	}`

	status, resp := doJSON(t, app, http.MethodPost, "/doctor/cases/21/finalize", body)
	require.Equal(t, http.StatusOK, status, resp)
	require.Len(t, svc.gotRx, 2)
	assert.Equal(t, clinical.CapsuleTablet{Count: 1, TimesPerDay: 3, Days: 5, AfterMeal: true}, svc.gotRx[0].Dosage)
	assert.Equal(t, clinical.LiquidSyrup{DoseML: 5, TimesPerDay: 2, Days: 3}, svc.gotRx[1].Dosage)

	status, resp = doJSON(t, app, http.MethodPost, "/doctor/cases/21/finalize", body)
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, resp, "error")
}

func TestCaseHandler_FinalizeRejectsBadInput(t *testing.T) {
	svc := &fakeClinical{finalized: map[int64]bool{}}
	h := NewCaseHandler(svc)
	app := newTestApp(doctor())
	app.Post("/doctor/cases/:id/finalize", h.Finalize)

	status, _ := doJSON(t, app, http.MethodPost, "/doctor/cases/21/finalize",
		`{"finalized_state":"opd","prescriptions":[{"medicine_id":4,"category":"inhaler","dosage":{}}]}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON(t, app, http.MethodPost, "/doctor/cases/21/finalize", `{"finalized_state":"discharged"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON(t, app, http.MethodPost, "/doctor/cases/21/finalize", `{not json`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, svc.finalized[21])
}

func TestCaseHandler_GetNotFound(t *testing.T) {
	h := NewCaseHandler(&fakeClinical{})
	app := newTestApp(doctor())
	app.Get("/cases/:id", h.Get)

	status, body := doJSON(t, app, http.MethodGet, "/cases/99", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body["error"], "case")
}

func TestList_EmptyItemsEncodeAsArray(t *testing.T) {
	env := list[store.OverrideLog](nil, 0, pageOf(0, 0))
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"items":[]`)
}
