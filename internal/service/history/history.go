package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Alijeyrad/medcenter_backend/internal/store"
	"github.com/Alijeyrad/medcenter_backend/pkg/authorize"
	"github.com/Alijeyrad/medcenter_backend/pkg/constants"
	"github.com/Alijeyrad/medcenter_backend/pkg/email"
	"github.com/Alijeyrad/medcenter_backend/pkg/events"
	"github.com/Alijeyrad/medcenter_backend/pkg/observability"
	"github.com/Alijeyrad/medcenter_backend/pkg/util/otp"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// History is the payload released after a verified or overridden request.
type History struct {
	Patient store.Patient `json:"patient"`
	Cases   []store.Case  `json:"cases"`
}

type IssueResult struct {
	// SentTo is the masked delivery address.
	SentTo    string     `json:"sent_to"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type OverrideRequest struct {
	PatientID int64
	CaseID    int64
	Reason    string
}

type OverrideFilter struct {
	DoctorID  int64
	PatientID int64
	Page      store.Page
}

// OverrideEvent is published on medcenter.history.override.<patientID>.
type OverrideEvent struct {
	LogID     int64     `json:"log_id"`
	DoctorID  int64     `json:"doctor_id"`
	PatientID int64     `json:"patient_id"`
	CaseID    int64     `json:"case_id"`
	Reason    string    `json:"reason"`
	At        time.Time `json:"at"`
}

// ---------------------------------------------------------------------------
// Collaborators
// ---------------------------------------------------------------------------

type Mailer interface {
	Send(ctx context.Context, m email.Message) error
}

type CodeSender interface {
	SendCode(ctx context.Context, phone, code string) error
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	IssueOtp(ctx context.Context, p authorize.Principal, patientID int64) (*IssueResult, error)
	VerifyOtp(ctx context.Context, p authorize.Principal, patientID int64, submitted string) (*History, error)
	OverrideVerification(ctx context.Context, p authorize.Principal, req OverrideRequest) (*History, error)
	ListOverrides(ctx context.Context, f OverrideFilter) ([]store.OverrideLog, int, error)

	// ValidateReason applies the configured justification floor.
	ValidateReason(reason string) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type Deps struct {
	Repo     Repository
	Attempts AttemptCounter
	Mailer   Mailer
	SMS      CodeSender
	Events   events.Publisher
	Metrics  *observability.Domain
	Now      func() time.Time
}

type historyService struct {
	cfg Config
	Deps
}

func New(cfg Config, d Deps) Service {
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &historyService{cfg: cfg, Deps: d}
}

func (s *historyService) IssueOtp(ctx context.Context, p authorize.Principal, patientID int64) (*IssueResult, error) {
	if p.IsZero() {
		return nil, ErrUnauthenticated
	}

	patient, err := s.Repo.GetPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	contact, err := s.Repo.ResolveContact(ctx, patient)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(contact.Email) == "" {
		return nil, ErrContactNotFound
	}

	code, err := otp.Generate(codeLength)
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}
	hash, err := otp.HashWith(s.cfg.HashAlgorithm, code)
	if err != nil {
		return nil, fmt.Errorf("hash otp: %w", err)
	}

	now := s.Now().UTC()
	row := &store.OTP{
		DoctorID:  p.UserID,
		PatientID: patientID,
		Hash:      hash,
		CreatedAt: now,
	}
	if s.cfg.TTL > 0 {
		exp := now.Add(s.cfg.TTL)
		row.ExpiresAt = &exp
	}

	if err := s.Repo.UpsertOTP(ctx, row); err != nil {
		return nil, fmt.Errorf("store otp: %w", err)
	}
	s.Metrics.OTPIssued(ctx)

	if s.Attempts != nil {
		if err := s.Attempts.Reset(ctx, p.UserID, patientID); err != nil {
			slog.WarnContext(ctx, "history: reset verify attempts failed", "patient_id", patientID, "error", err)
		}
	}

	if err := s.deliver(ctx, p.UserID, patient, contact, code); err != nil {
		return nil, err
	}

	return &IssueResult{SentTo: MaskEmail(contact.Email), ExpiresAt: row.ExpiresAt}, nil
}

func (s *historyService) deliver(ctx context.Context, doctorID int64, patient *store.Patient, contact store.Contact, code string) error {
	doctorName, err := s.Repo.GetStaffName(ctx, doctorID)
	if err != nil {
		slog.DebugContext(ctx, "history: doctor name lookup failed", "doctor_id", doctorID, "error", err)
	}

	msg := email.BuildOTPDisclosureEmail(contact.Email, email.OTPDisclosureData{
		PatientName: patient.Name,
		DoctorName:  doctorName,
		Code:        code,
		TTL:         s.cfg.TTL,
	})

	err = s.Mailer.Send(ctx, msg)
	switch {
	case err == nil:
	case email.IsDisabled(err):
		slog.WarnContext(ctx, "history: email disabled, otp not delivered", "patient_id", patient.ID)
	default:
		slog.ErrorContext(ctx, "history: otp email failed", "patient_id", patient.ID, "error", err)
		return fmt.Errorf("%w: %v", ErrOTPDeliveryFailed, err)
	}

	if s.cfg.SMSCopy && s.SMS != nil && contact.Phone != "" {
		if err := s.SMS.SendCode(ctx, contact.Phone, code); err != nil {
			slog.WarnContext(ctx, "history: sms copy failed", "patient_id", patient.ID, "error", err)
		}
	}
	return nil
}

func (s *historyService) VerifyOtp(ctx context.Context, p authorize.Principal, patientID int64, submitted string) (*History, error) {
	if p.IsZero() {
		return nil, ErrUnauthenticated
	}

	submitted = strings.TrimSpace(submitted)
	if submitted == "" {
		s.Metrics.OTPVerified(ctx, "invalid")
		return nil, ErrInvalidOtp
	}

	if s.Attempts != nil && s.cfg.MaxVerifyAttempts > 0 {
		n, err := s.Attempts.Hit(ctx, p.UserID, patientID)
		if err != nil {
			return nil, fmt.Errorf("count verify attempts: %w", err)
		}
		if n > int64(s.cfg.MaxVerifyAttempts) {
			s.Metrics.OTPVerified(ctx, "throttled")
			return nil, ErrTooManyAttempts
		}
	}

	row, err := s.Repo.GetOTP(ctx, p.UserID, patientID)
	if errors.Is(err, errOTPNotFound) {
		s.Metrics.OTPVerified(ctx, "invalid")
		return nil, ErrInvalidOtp
	}
	if err != nil {
		return nil, fmt.Errorf("load otp: %w", err)
	}

	if row.Expired(s.Now()) || otp.Verify(row.Hash, submitted) != nil {
		s.Metrics.OTPVerified(ctx, "invalid")
		return nil, ErrInvalidOtp
	}

	if s.cfg.ConsumeOnVerify {
		// A concurrent re-issue replaces the hash; the stale code loses.
		ok, err := s.Repo.ConsumeOTP(ctx, p.UserID, patientID, row.Hash)
		if err != nil {
			return nil, fmt.Errorf("consume otp: %w", err)
		}
		if !ok {
			s.Metrics.OTPVerified(ctx, "invalid")
			return nil, ErrInvalidOtp
		}
	}

	if s.Attempts != nil {
		if err := s.Attempts.Reset(ctx, p.UserID, patientID); err != nil {
			slog.WarnContext(ctx, "history: reset verify attempts failed", "patient_id", patientID, "error", err)
		}
	}
	s.Metrics.OTPVerified(ctx, "ok")

	return s.loadHistory(ctx, patientID)
}

func (s *historyService) loadHistory(ctx context.Context, patientID int64) (*History, error) {
	patient, err := s.Repo.GetPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	cases, err := s.Repo.ListCases(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	if cases == nil {
		cases = []store.Case{}
	}
	return &History{Patient: *patient, Cases: cases}, nil
}

func (s *historyService) ValidateReason(reason string) error {
	if len([]rune(strings.TrimSpace(reason))) < s.cfg.OverrideMinReason {
		return fmt.Errorf("%w: at least %d characters required", ErrReasonTooShort, s.cfg.OverrideMinReason)
	}
	return nil
}

func (s *historyService) OverrideVerification(ctx context.Context, p authorize.Principal, req OverrideRequest) (*History, error) {
	if p.IsZero() {
		return nil, ErrUnauthenticated
	}
	if err := s.ValidateReason(req.Reason); err != nil {
		return nil, err
	}

	if _, err := s.Repo.GetPatient(ctx, req.PatientID); err != nil {
		return nil, err
	}

	log := &store.OverrideLog{
		DoctorID:  p.UserID,
		PatientID: req.PatientID,
		CaseID:    req.CaseID,
		Reason:    req.Reason,
	}
	h, err := s.Repo.RecordOverride(ctx, log)
	if err != nil {
		return nil, err
	}
	s.Metrics.OverrideRecorded(ctx)

	slog.WarnContext(ctx, "history: verification overridden",
		"override_id", log.ID,
		"doctor_id", log.DoctorID,
		"patient_id", log.PatientID,
		"case_id", log.CaseID,
	)

	evt := OverrideEvent{
		LogID:     log.ID,
		DoctorID:  log.DoctorID,
		PatientID: log.PatientID,
		CaseID:    log.CaseID,
		Reason:    log.Reason,
		At:        log.CreatedAt,
	}
	if err := s.Events.Publish(ctx, events.Subject(constants.SubjectHistoryOverride, req.PatientID), evt); err != nil {
		slog.ErrorContext(ctx, "history: publish override event failed", "override_id", log.ID, "error", err)
	}

	return h, nil
}

func (s *historyService) ListOverrides(ctx context.Context, f OverrideFilter) ([]store.OverrideLog, int, error) {
	f.Page = f.Page.Normalize()
	return s.Repo.ListOverrides(ctx, f)
}

// MaskEmail keeps the first character of the local part and the domain.
func MaskEmail(addr string) string {
	local, domain, ok := strings.Cut(addr, "@")
	if !ok || local == "" {
		return "***"
	}
	first, _ := utf8.DecodeRuneInString(local)
	return string(first) + "***@" + domain
}
