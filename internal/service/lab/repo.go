package lab

import (
	"context"
	"encoding/json"

	"github.com/Alijeyrad/medcenter_backend/internal/store"
)

// Plan is what a file save does to a report once its row is locked.
type Plan struct {
	Status store.LabStatus
	Unlink []int64
}

// PlanFunc decides a Plan from the locked report status and its linked file
// ids.
type PlanFunc func(current store.LabStatus, linked []int64) (Plan, error)

// Applied is the outcome of ApplyFiles.
type Applied struct {
	Report   store.LabReport
	Previous store.LabStatus
	// OrphanKeys are object keys of files that lost their last report link
	// and whose rows were deleted.
	OrphanKeys []string
}

// LinkFunc reports whether the submitter may attach a file whose allowed
// list is allowed. linked is true when the file is already on the report.
type LinkFunc func(allowed []int64, linked bool) bool

// Submitted is the outcome of Submit.
type Submitted struct {
	Report   store.LabReport
	Case     store.Case
	Previous store.LabStatus
}

type Repository interface {
	GetCase(ctx context.Context, caseID int64) (*store.Case, error)
	ListTests(ctx context.Context) ([]store.LabTest, error)
	// ActiveTests returns the active catalog entries among ids.
	ActiveTests(ctx context.Context, ids []int64) ([]store.LabTest, error)
	CreateReports(ctx context.Context, caseID int64, tests []store.LabTest) ([]store.LabReport, error)
	GetReport(ctx context.Context, reportID int64) (*store.LabReport, error)
	ListReports(ctx context.Context, f ReportFilter) ([]store.LabReport, int, error)

	// ApplyFiles locks the report, runs plan, inserts uploads, links them,
	// unlinks plan.Unlink and writes plan.Status in one transaction.
	ApplyFiles(ctx context.Context, reportID int64, uploads []store.File, plan PlanFunc) (*Applied, error)

	// Submit writes data, marks the report done and, when fileID is set,
	// links the file and widens its allowed list with the case's associated
	// users, in one transaction. A file mayLink refuses is ErrFileNotFound.
	Submit(ctx context.Context, reportID int64, data json.RawMessage, fileID *int64, mayLink LinkFunc) (*Submitted, error)
}
