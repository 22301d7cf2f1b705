package lab

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/medcenter_backend/internal/service/file"
	"github.com/Alijeyrad/medcenter_backend/internal/store"
	"github.com/Alijeyrad/medcenter_backend/pkg/authorize"
)

// ---------------------------------------------------------------------------
// fakes
// ---------------------------------------------------------------------------

type memRepo struct {
	cases    map[int64]store.Case
	tests    map[int64]store.LabTest
	reports  map[int64]store.LabReport
	files    map[int64]store.File
	links    map[int64][]int64 // report -> file ids
	applyErr error
}

func newMemRepo() *memRepo {
	return &memRepo{
		cases: map[int64]store.Case{
			100: {ID: 100, Token: 17, PatientID: 42, AssociatedUsers: []int64{7, 9}},
		},
		tests: map[int64]store.LabTest{
			1: {ID: 1, Name: "CBC", IsActive: true},
			2: {ID: 2, Name: "Lipid profile", IsActive: true},
			3: {ID: 3, Name: "Retired", IsActive: false},
		},
		reports: map[int64]store.LabReport{},
		files:   map[int64]store.File{},
		links:   map[int64][]int64{},
	}
}

func (r *memRepo) GetCase(_ context.Context, id int64) (*store.Case, error) {
	c, ok := r.cases[id]
	if !ok {
		return nil, ErrCaseNotFound
	}
	return &c, nil
}

func (r *memRepo) ListTests(context.Context) ([]store.LabTest, error) {
	return lo.Filter(lo.Values(r.tests), func(t store.LabTest, _ int) bool { return t.IsActive }), nil
}

func (r *memRepo) ActiveTests(_ context.Context, ids []int64) ([]store.LabTest, error) {
	var out []store.LabTest
	for _, id := range ids {
		if t, ok := r.tests[id]; ok && t.IsActive {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *memRepo) CreateReports(_ context.Context, caseID int64, tests []store.LabTest) ([]store.LabReport, error) {
	var out []store.LabReport
	for _, t := range tests {
		rep := store.LabReport{ID: int64(len(r.reports) + 1), CaseID: caseID, TestID: t.ID, Type: t.Name, Status: store.LabRequested}
		r.reports[rep.ID] = rep
		out = append(out, r.withFiles(rep))
	}
	return out, nil
}

func (r *memRepo) withFiles(rep store.LabReport) store.LabReport {
	rep.FileIDs = slices.Clone(r.links[rep.ID])
	slices.Sort(rep.FileIDs)
	if rep.FileIDs == nil {
		rep.FileIDs = []int64{}
	}
	return rep
}

func (r *memRepo) GetReport(_ context.Context, id int64) (*store.LabReport, error) {
	rep, ok := r.reports[id]
	if !ok {
		return nil, ErrReportNotFound
	}
	rep = r.withFiles(rep)
	return &rep, nil
}

func (r *memRepo) ListReports(_ context.Context, f ReportFilter) ([]store.LabReport, int, error) {
	var out []store.LabReport
	for id := int64(1); id <= int64(len(r.reports)); id++ {
		rep := r.reports[id]
		if (f.Status == "" || rep.Status == f.Status) && (f.CaseID == 0 || rep.CaseID == f.CaseID) {
			out = append(out, r.withFiles(rep))
		}
	}
	return out, len(out), nil
}

func (r *memRepo) ApplyFiles(_ context.Context, reportID int64, uploads []store.File, plan PlanFunc) (*Applied, error) {
	rep, ok := r.reports[reportID]
	if !ok {
		return nil, ErrReportNotFound
	}
	p, err := plan(rep.Status, r.withFiles(rep).FileIDs)
	if err != nil {
		return nil, err
	}
	if r.applyErr != nil {
		return nil, r.applyErr
	}

	out := &Applied{Previous: rep.Status}
	for _, f := range uploads {
		f.ID = int64(len(r.files) + 1)
		r.files[f.ID] = f
		r.links[reportID] = append(r.links[reportID], f.ID)
	}
	r.links[reportID] = lo.Without(r.links[reportID], p.Unlink...)
	for _, id := range p.Unlink {
		out.OrphanKeys = append(out.OrphanKeys, r.files[id].ObjectKey)
		delete(r.files, id)
	}

	rep.Status = p.Status
	r.reports[reportID] = rep
	out.Report = r.withFiles(rep)
	return out, nil
}

func (r *memRepo) Submit(_ context.Context, reportID int64, data json.RawMessage, fileID *int64, mayLink LinkFunc) (*Submitted, error) {
	rep, ok := r.reports[reportID]
	if !ok {
		return nil, ErrReportNotFound
	}
	if rep.Status == store.LabDone {
		return nil, ErrReportFinalized
	}
	c, ok := r.cases[rep.CaseID]
	if !ok {
		return nil, ErrReportNotFound
	}
	if fileID != nil {
		f, ok := r.files[*fileID]
		if !ok {
			return nil, ErrFileNotFound
		}
		if !mayLink(f.Allowed, slices.Contains(r.links[reportID], *fileID)) {
			return nil, ErrFileNotFound
		}
		if !slices.Contains(r.links[reportID], *fileID) {
			r.links[reportID] = append(r.links[reportID], *fileID)
		}
		f.Allowed = lo.Union(f.Allowed, c.AssociatedUsers)
		r.files[*fileID] = f
	}

	out := &Submitted{Previous: rep.Status, Case: c}
	rep.Data = data
	rep.Status = store.LabDone
	r.reports[reportID] = rep
	out.Report = r.withFiles(rep)
	return out, nil
}

type memObjects struct{ objects map[string]bool }

func (m *memObjects) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) error {
	_, _ = io.Copy(io.Discard, body)
	m.objects[key] = true
	return nil
}
func (m *memObjects) ObjectURL(key string) string { return "http://minio.test/lab/" + key }
func (m *memObjects) PresignDownload(context.Context, string) (string, error) {
	return "", errors.New("not used")
}
func (m *memObjects) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

type capturedEvent struct {
	subject string
	payload any
}

type fakePublisher struct{ events []capturedEvent }

func (p *fakePublisher) Publish(_ context.Context, subject string, payload any) error {
	p.events = append(p.events, capturedEvent{subject, payload})
	return nil
}

// ---------------------------------------------------------------------------
// fixtures
// ---------------------------------------------------------------------------

var (
	doctor   = authorize.NewPrincipal(7, authorize.RoleDoctor)
	stranger = authorize.NewPrincipal(8, authorize.RoleDoctor)
	labTech  = authorize.NewPrincipal(5, authorize.RoleLab)
)

type fixture struct {
	svc  Service
	repo *memRepo
	objs *memObjects
	pub  *fakePublisher
}

func newFixture() *fixture {
	f := &fixture{repo: newMemRepo(), objs: &memObjects{objects: map[string]bool{}}, pub: &fakePublisher{}}
	f.svc = New(Deps{
		Repo:   f.repo,
		Files:  file.NewStager(file.DefaultConfig(), f.objs),
		Events: f.pub,
	})
	return f
}

func pdf(name string) file.Upload {
	return file.Upload{Name: name, ContentType: "application/pdf", Size: 3, Body: strings.NewReader("pdf")}
}

// ---------------------------------------------------------------------------
// RequestTests
// ---------------------------------------------------------------------------

func TestRequestTests(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	reports, err := f.svc.RequestTests(ctx, doctor, 100, []int64{1, 2, 1})
	require.NoError(t, err)
	require.Len(t, reports, 2)
	for _, r := range reports {
		assert.Equal(t, store.LabRequested, r.Status)
		assert.EqualValues(t, 100, r.CaseID)
	}
	assert.Equal(t, "CBC", reports[0].Type)
}

func TestRequestTests_Rejections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.RequestTests(ctx, doctor, 404, []int64{1})
	assert.ErrorIs(t, err, ErrCaseNotFound)

	_, err = f.svc.RequestTests(ctx, stranger, 100, []int64{1})
	assert.ErrorIs(t, err, ErrCaseNotFound)

	_, err = f.svc.RequestTests(ctx, doctor, 100, nil)
	assert.ErrorIs(t, err, ErrInvalidTestIDs)

	_, err = f.svc.RequestTests(ctx, doctor, 100, []int64{1, 3})
	assert.ErrorIs(t, err, ErrInvalidTestIDs)

	_, err = f.svc.RequestTests(ctx, doctor, 100, []int64{1, 99})
	assert.ErrorIs(t, err, ErrInvalidTestIDs)

	assert.Empty(t, f.repo.reports)
}

// ---------------------------------------------------------------------------
// UpdateTestFiles
// ---------------------------------------------------------------------------

func TestLifecycle_UploadThenRemoveDemotes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	reports, err := f.svc.RequestTests(ctx, doctor, 100, []int64{1, 2})
	require.NoError(t, err)
	id := reports[0].ID
	assert.Equal(t, store.LabRequested, reports[0].Status)

	rep, err := f.svc.UpdateTestFiles(ctx, labTech, id, UpdateFilesRequest{
		AddFiles: []file.Upload{pdf("cbc.pdf")},
	})
	require.NoError(t, err)
	assert.Equal(t, store.LabComplete, rep.Status)
	require.Len(t, rep.FileIDs, 1)
	assert.Len(t, f.objs.objects, 1)

	stored := f.repo.files[rep.FileIDs[0]]
	assert.Equal(t, []int64{5}, stored.Allowed)

	rep, err = f.svc.UpdateTestFiles(ctx, labTech, id, UpdateFilesRequest{RemoveFileIDs: rep.FileIDs})
	require.NoError(t, err)
	assert.Equal(t, store.LabSampleCollected, rep.Status)
	assert.Empty(t, rep.FileIDs)
	assert.Empty(t, f.objs.objects)

	other, err := f.svc.GetReport(ctx, labTech, reports[1].ID)
	require.NoError(t, err)
	assert.Equal(t, store.LabRequested, other.Status)

	require.Len(t, f.pub.events, 2)
	assert.Equal(t, "medcenter.lab.status.1", f.pub.events[0].subject)
	evt := f.pub.events[1].payload.(StatusEvent)
	assert.Equal(t, store.LabComplete, evt.From)
	assert.Equal(t, store.LabSampleCollected, evt.To)
}

func TestUpdateTestFiles_KeepAndAdd(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	reports, err := f.svc.RequestTests(ctx, doctor, 100, []int64{1})
	require.NoError(t, err)
	id := reports[0].ID

	_, err = f.svc.UpdateTestFiles(ctx, labTech, id, UpdateFilesRequest{DesiredStatus: store.LabSampleCollected})
	require.NoError(t, err)

	rep, err := f.svc.UpdateTestFiles(ctx, labTech, id, UpdateFilesRequest{AddFiles: []file.Upload{pdf("a.pdf"), pdf("b.pdf")}})
	require.NoError(t, err)
	require.Len(t, rep.FileIDs, 2)

	rep, err = f.svc.UpdateTestFiles(ctx, labTech, id, UpdateFilesRequest{
		KeepFileIDs:   rep.FileIDs[:1],
		RemoveFileIDs: rep.FileIDs[1:],
	})
	require.NoError(t, err)
	assert.Equal(t, store.LabComplete, rep.Status)
	assert.Len(t, rep.FileIDs, 1)
}

func TestUpdateTestFiles_ResetClearsAttachments(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	reports, err := f.svc.RequestTests(ctx, doctor, 100, []int64{1})
	require.NoError(t, err)
	id := reports[0].ID

	_, err = f.svc.UpdateTestFiles(ctx, labTech, id, UpdateFilesRequest{
		DesiredStatus: store.LabSampleCollected,
		AddFiles:      []file.Upload{pdf("a.pdf"), pdf("b.pdf")},
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateTestFiles(ctx, labTech, id, UpdateFilesRequest{
		DesiredStatus: store.LabRequested,
		AddFiles:      []file.Upload{pdf("c.pdf")},
	})
	require.ErrorIs(t, err, ErrSampleNotCollected)
	assert.Len(t, f.objs.objects, 2)

	rep, err := f.svc.UpdateTestFiles(ctx, labTech, id, UpdateFilesRequest{DesiredStatus: store.LabRequested})
	require.NoError(t, err)
	assert.Equal(t, store.LabRequested, rep.Status)
	assert.Empty(t, rep.FileIDs)
	assert.Empty(t, f.objs.objects)
}

func TestUpdateTestFiles_Rejections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.UpdateTestFiles(ctx, labTech, 404, UpdateFilesRequest{})
	assert.ErrorIs(t, err, ErrReportNotFound)

	reports, err := f.svc.RequestTests(ctx, doctor, 100, []int64{1})
	require.NoError(t, err)
	id := reports[0].ID

	_, err = f.svc.UpdateTestFiles(ctx, labTech, id, UpdateFilesRequest{RemoveFileIDs: []int64{77}})
	assert.ErrorIs(t, err, ErrUnknownFile)

	_, err = f.svc.UpdateTestFiles(ctx, labTech, id, UpdateFilesRequest{DesiredStatus: "lost", AddFiles: []file.Upload{pdf("a.pdf")}})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	assert.Empty(t, f.objs.objects)
}

func TestUpdateTestFiles_FailedTxDiscardsUploads(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	reports, err := f.svc.RequestTests(ctx, doctor, 100, []int64{1})
	require.NoError(t, err)
	id := reports[0].ID
	_, err = f.svc.UpdateTestFiles(ctx, labTech, id, UpdateFilesRequest{DesiredStatus: store.LabSampleCollected})
	require.NoError(t, err)

	f.repo.applyErr = errors.New("serialization failure")
	_, err = f.svc.UpdateTestFiles(ctx, labTech, id, UpdateFilesRequest{AddFiles: []file.Upload{pdf("a.pdf")}})
	require.Error(t, err)
	assert.Empty(t, f.objs.objects)
}

// ---------------------------------------------------------------------------
// SubmitResults
// ---------------------------------------------------------------------------

func TestSubmitResults_FinalizesAndWidensAccess(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	reports, err := f.svc.RequestTests(ctx, doctor, 100, []int64{1})
	require.NoError(t, err)
	id := reports[0].ID
	rep, err := f.svc.UpdateTestFiles(ctx, labTech, id, UpdateFilesRequest{
		DesiredStatus: store.LabSampleCollected,
		AddFiles:      []file.Upload{pdf("cbc.pdf")},
	})
	require.NoError(t, err)
	fileID := rep.FileIDs[0]

	data := json.RawMessage(`{"hb": 13.2, "wbc": 7100}`)
	done, err := f.svc.SubmitResults(ctx, labTech, id, SubmitRequest{Data: data, FileID: &fileID})
	require.NoError(t, err)
	assert.Equal(t, store.LabDone, done.Status)
	assert.JSONEq(t, string(data), string(done.Data))
	assert.Equal(t, []int64{fileID}, done.FileIDs)
	assert.ElementsMatch(t, []int64{5, 7, 9}, f.repo.files[fileID].Allowed)

	last := f.pub.events[len(f.pub.events)-1]
	assert.Equal(t, "medcenter.lab.done.1", last.subject)
	evt := last.payload.(DoneEvent)
	assert.EqualValues(t, 7, evt.PrimaryDoctorID)
	assert.EqualValues(t, 17, evt.CaseToken)
	assert.Equal(t, "CBC", evt.TestName)

	_, err = f.svc.SubmitResults(ctx, labTech, id, SubmitRequest{Data: data})
	assert.ErrorIs(t, err, ErrReportFinalized)

	_, err = f.svc.UpdateTestFiles(ctx, labTech, id, UpdateFilesRequest{RemoveFileIDs: []int64{fileID}})
	assert.ErrorIs(t, err, ErrReportFinalized)
}

func TestSubmitResults_Rejections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.SubmitResults(ctx, labTech, 1, SubmitRequest{Data: json.RawMessage(`[1,2]`)})
	assert.ErrorIs(t, err, ErrInvalidResults)

	_, err = f.svc.SubmitResults(ctx, labTech, 404, SubmitRequest{Data: json.RawMessage(`{}`)})
	assert.ErrorIs(t, err, ErrReportNotFound)

	reports, err := f.svc.RequestTests(ctx, doctor, 100, []int64{1})
	require.NoError(t, err)
	missing := int64(55)
	_, err = f.svc.SubmitResults(ctx, labTech, reports[0].ID, SubmitRequest{Data: json.RawMessage(`{}`), FileID: &missing})
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.Equal(t, store.LabRequested, f.repo.reports[reports[0].ID].Status)

	delete(f.repo.cases, 100)
	_, err = f.svc.SubmitResults(ctx, labTech, reports[0].ID, SubmitRequest{Data: json.RawMessage(`{}`)})
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestSubmitResults_ForeignFileRefused(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	reports, err := f.svc.RequestTests(ctx, doctor, 100, []int64{1})
	require.NoError(t, err)
	id := reports[0].ID

	f.repo.files[77] = store.File{ID: 77, ObjectKey: "lab/other.pdf", Allowed: []int64{99}}
	foreign := int64(77)

	_, err = f.svc.SubmitResults(ctx, labTech, id, SubmitRequest{Data: json.RawMessage(`{}`), FileID: &foreign})
	require.ErrorIs(t, err, ErrFileNotFound)
	assert.Equal(t, []int64{99}, f.repo.files[77].Allowed)
	assert.Empty(t, f.repo.links[id])
	assert.Equal(t, store.LabRequested, f.repo.reports[id].Status)

	admin := authorize.NewPrincipal(1, authorize.RoleAdmin)
	done, err := f.svc.SubmitResults(ctx, admin, id, SubmitRequest{Data: json.RawMessage(`{}`), FileID: &foreign})
	require.NoError(t, err)
	assert.Equal(t, []int64{77}, done.FileIDs)
	assert.ElementsMatch(t, []int64{99, 7, 9}, f.repo.files[77].Allowed)
}

func TestSubmitResults_LinkedFileFromAnotherTech(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	reports, err := f.svc.RequestTests(ctx, doctor, 100, []int64{1})
	require.NoError(t, err)
	id := reports[0].ID
	rep, err := f.svc.UpdateTestFiles(ctx, labTech, id, UpdateFilesRequest{AddFiles: []file.Upload{pdf("cbc.pdf")}})
	require.NoError(t, err)
	fileID := rep.FileIDs[0]

	otherTech := authorize.NewPrincipal(6, authorize.RoleLab)
	done, err := f.svc.SubmitResults(ctx, otherTech, id, SubmitRequest{Data: json.RawMessage(`{"ok": true}`), FileID: &fileID})
	require.NoError(t, err)
	assert.Equal(t, store.LabDone, done.Status)
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func TestReportVisibility(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	reports, err := f.svc.RequestTests(ctx, doctor, 100, []int64{1, 2})
	require.NoError(t, err)

	_, err = f.svc.GetReport(ctx, doctor, reports[0].ID)
	assert.NoError(t, err)
	_, err = f.svc.GetReport(ctx, stranger, reports[0].ID)
	assert.ErrorIs(t, err, ErrReportNotFound)

	items, total, err := f.svc.ListReports(ctx, labTech, ReportFilter{Status: store.LabRequested})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, items, 2)

	_, _, err = f.svc.ListReports(ctx, doctor, ReportFilter{})
	assert.ErrorIs(t, err, ErrCaseNotFound)
	_, _, err = f.svc.ListReports(ctx, stranger, ReportFilter{CaseID: 100})
	assert.ErrorIs(t, err, ErrCaseNotFound)
	_, total, err = f.svc.ListReports(ctx, doctor, ReportFilter{CaseID: 100})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	_, _, err = f.svc.ListReports(ctx, labTech, ReportFilter{Status: "lost"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	tests, err := f.svc.ListTests(ctx)
	require.NoError(t, err)
	assert.Len(t, tests, 2)
}
