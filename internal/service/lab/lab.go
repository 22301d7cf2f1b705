package lab

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/Alijeyrad/medcenter_backend/internal/service/file"
	"github.com/Alijeyrad/medcenter_backend/internal/store"
	"github.com/Alijeyrad/medcenter_backend/pkg/authorize"
	"github.com/Alijeyrad/medcenter_backend/pkg/constants"
	"github.com/Alijeyrad/medcenter_backend/pkg/events"
	"github.com/Alijeyrad/medcenter_backend/pkg/observability"
	"github.com/Alijeyrad/medcenter_backend/pkg/reqctx"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type UpdateFilesRequest struct {
	// DesiredStatus is only authoritative for a reset to requested and for
	// the sample collected toggle. Otherwise the file diff decides.
	DesiredStatus store.LabStatus
	KeepFileIDs   []int64
	RemoveFileIDs []int64
	AddFiles      []file.Upload
}

type SubmitRequest struct {
	Data   json.RawMessage
	FileID *int64
}

type ReportFilter struct {
	Status store.LabStatus
	CaseID int64
	Page   store.Page
}

// StatusEvent is published on medcenter.lab.status.<reportID>.
type StatusEvent struct {
	ReportID int64           `json:"report_id"`
	CaseID   int64           `json:"case_id"`
	From     store.LabStatus `json:"from"`
	To       store.LabStatus `json:"to"`
	At       time.Time       `json:"at"`
}

// DoneEvent is published on medcenter.lab.done.<reportID>.
type DoneEvent struct {
	ReportID        int64     `json:"report_id"`
	CaseID          int64     `json:"case_id"`
	CaseToken       int64     `json:"case_token"`
	TestName        string    `json:"test_name"`
	PrimaryDoctorID int64     `json:"primary_doctor_id"`
	FileID          *int64    `json:"file_id,omitempty"`
	At              time.Time `json:"at"`
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	ListTests(ctx context.Context) ([]store.LabTest, error)
	RequestTests(ctx context.Context, p authorize.Principal, caseID int64, testIDs []int64) ([]store.LabReport, error)
	GetReport(ctx context.Context, p authorize.Principal, reportID int64) (*store.LabReport, error)
	ListReports(ctx context.Context, p authorize.Principal, f ReportFilter) ([]store.LabReport, int, error)
	UpdateTestFiles(ctx context.Context, p authorize.Principal, reportID int64, req UpdateFilesRequest) (*store.LabReport, error)
	SubmitResults(ctx context.Context, p authorize.Principal, reportID int64, req SubmitRequest) (*store.LabReport, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

// Roles that see every report regardless of case association.
var globalReaders = []authorize.Role{authorize.RoleLab, authorize.RoleAdmin}

type Deps struct {
	Repo    Repository
	Files   *file.Stager
	Events  events.Publisher
	Metrics *observability.Domain
	Now     func() time.Time
}

type labService struct {
	Deps
}

func New(d Deps) Service {
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &labService{Deps: d}
}

func (s *labService) ListTests(ctx context.Context) ([]store.LabTest, error) {
	return s.Repo.ListTests(ctx)
}

// associatedCase loads the case and hides it from principals not attached
// to it.
func (s *labService) associatedCase(ctx context.Context, p authorize.Principal, caseID int64) (*store.Case, error) {
	c, err := s.Repo.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !c.IsAssociated(p.UserID) {
		return nil, ErrCaseNotFound
	}
	return c, nil
}

func (s *labService) RequestTests(ctx context.Context, p authorize.Principal, caseID int64, testIDs []int64) ([]store.LabReport, error) {
	if _, err := s.associatedCase(ctx, p, caseID); err != nil {
		return nil, err
	}

	ids := lo.Uniq(testIDs)
	if len(ids) == 0 || slices.ContainsFunc(ids, func(id int64) bool { return id <= 0 }) {
		return nil, ErrInvalidTestIDs
	}

	tests, err := s.Repo.ActiveTests(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(tests) != len(ids) {
		found := lo.Map(tests, func(t store.LabTest, _ int) int64 { return t.ID })
		_, missing := lo.Difference(found, ids)
		return nil, fmt.Errorf("%w: %v", ErrInvalidTestIDs, missing)
	}

	reports, err := s.Repo.CreateReports(ctx, caseID, tests)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "lab: tests requested", "case_id", caseID, "doctor_id", p.UserID, "count", len(reports))
	return reports, nil
}

func (s *labService) GetReport(ctx context.Context, p authorize.Principal, reportID int64) (*store.LabReport, error) {
	r, err := s.Repo.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if p.HasAnyRole(globalReaders...) {
		return r, nil
	}
	if _, err := s.associatedCase(ctx, p, r.CaseID); err != nil {
		return nil, ErrReportNotFound
	}
	return r, nil
}

func (s *labService) ListReports(ctx context.Context, p authorize.Principal, f ReportFilter) ([]store.LabReport, int, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: %q", ErrInvalidStatus, f.Status)
	}
	if !p.HasAnyRole(globalReaders...) {
		if f.CaseID == 0 {
			return nil, 0, ErrCaseNotFound
		}
		if _, err := s.associatedCase(ctx, p, f.CaseID); err != nil {
			return nil, 0, err
		}
	}
	f.Page = f.Page.Normalize()
	return s.Repo.ListReports(ctx, f)
}

// planFiles turns a save request into a PlanFunc evaluated against the
// locked report.
func planFiles(req UpdateFilesRequest, adds int) PlanFunc {
	return func(current store.LabStatus, linked []int64) (Plan, error) {
		mentioned := lo.Union(req.KeepFileIDs, req.RemoveFileIDs)
		if unknown := lo.Without(mentioned, linked...); len(unknown) > 0 {
			return Plan{}, fmt.Errorf("%w: %v", ErrUnknownFile, unknown)
		}

		var unlink []int64
		remaining := adds
		if req.DesiredStatus == store.LabRequested {
			unlink = slices.Clone(linked)
		} else {
			unlink = lo.Filter(linked, func(id int64, _ int) bool { return slices.Contains(req.RemoveFileIDs, id) })
			remaining += len(linked) - len(unlink)
		}

		status, err := NextStatus(current, req.DesiredStatus, remaining)
		if err != nil {
			return Plan{}, err
		}
		return Plan{Status: status, Unlink: unlink}, nil
	}
}

func (s *labService) UpdateTestFiles(ctx context.Context, p authorize.Principal, reportID int64, req UpdateFilesRequest) (*store.LabReport, error) {
	plan := planFiles(req, len(req.AddFiles))

	// Dry run against the current state so a doomed save never uploads.
	current, err := s.Repo.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if _, err := plan(current.Status, current.FileIDs); err != nil {
		return nil, err
	}

	staged, err := s.Files.StageAll(ctx, p.UserID, req.AddFiles)
	if err != nil {
		return nil, err
	}

	applied, err := s.Repo.ApplyFiles(ctx, reportID, staged, plan)
	if err != nil {
		s.Files.Discard(reqctx.Detach(ctx), staged)
		return nil, err
	}

	if len(applied.OrphanKeys) > 0 {
		s.Files.DiscardKeys(reqctx.Detach(ctx), applied.OrphanKeys)
	}

	report := applied.Report
	if applied.Previous != report.Status {
		s.Metrics.LabTransition(ctx, string(applied.Previous), string(report.Status))
		slog.InfoContext(ctx, "lab: report status changed",
			"report_id", report.ID, "from", applied.Previous, "to", report.Status, "by", p.UserID)
	}

	evt := StatusEvent{ReportID: report.ID, CaseID: report.CaseID, From: applied.Previous, To: report.Status, At: s.Now().UTC()}
	if err := s.Events.Publish(ctx, events.Subject(constants.SubjectLabStatus, report.ID), evt); err != nil {
		slog.ErrorContext(ctx, "lab: publish status event failed", "report_id", report.ID, "error", err)
	}

	return &report, nil
}

// linkableBy lets p attach files already on the report or readable by p.
// Admins attach anything.
func linkableBy(p authorize.Principal) LinkFunc {
	return func(allowed []int64, linked bool) bool {
		return linked || p.HasRole(authorize.RoleAdmin) || slices.Contains(allowed, p.UserID)
	}
}

func (s *labService) SubmitResults(ctx context.Context, p authorize.Principal, reportID int64, req SubmitRequest) (*store.LabReport, error) {
	if !isJSONObject(req.Data) {
		return nil, ErrInvalidResults
	}

	res, err := s.Repo.Submit(ctx, reportID, req.Data, req.FileID, linkableBy(p))
	if err != nil {
		return nil, err
	}
	report := res.Report

	s.Metrics.LabTransition(ctx, string(res.Previous), string(store.LabDone))
	slog.InfoContext(ctx, "lab: results submitted", "report_id", report.ID, "case_id", report.CaseID, "by", p.UserID)

	doctorID, _ := res.Case.PrimaryDoctor()
	evt := DoneEvent{
		ReportID:        report.ID,
		CaseID:          report.CaseID,
		CaseToken:       res.Case.Token,
		TestName:        report.Type,
		PrimaryDoctorID: doctorID,
		FileID:          req.FileID,
		At:              s.Now().UTC(),
	}
	if err := s.Events.Publish(ctx, events.Subject(constants.SubjectLabDone, report.ID), evt); err != nil {
		slog.ErrorContext(ctx, "lab: publish done event failed", "report_id", report.ID, "error", err)
	}

	return &report, nil
}

func isJSONObject(raw json.RawMessage) bool {
	var m map[string]any
	return len(raw) > 0 && json.Unmarshal(raw, &m) == nil && m != nil
}
