package handler

import (
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medcenter_backend/internal/service/file"
	"github.com/Alijeyrad/medcenter_backend/internal/service/lab"
	"github.com/Alijeyrad/medcenter_backend/internal/store"
)

type LabHandler struct {
	svc lab.Service
}

func NewLabHandler(svc lab.Service) *LabHandler {
	return &LabHandler{svc: svc}
}

func mapLabError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, lab.ErrCaseNotFound),
		errors.Is(err, lab.ErrReportNotFound),
		errors.Is(err, lab.ErrFileNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, lab.ErrReportFinalized),
		errors.Is(err, lab.ErrSampleNotCollected):
		return conflict(c, err.Error())
	case errors.Is(err, lab.ErrInvalidTestIDs),
		errors.Is(err, lab.ErrInvalidStatus),
		errors.Is(err, lab.ErrInvalidResults),
		errors.Is(err, lab.ErrUnknownFile),
		errors.Is(err, file.ErrEmptyFile),
		errors.Is(err, file.ErrFileTooLarge),
		errors.Is(err, file.ErrContentTypeNotAllowed):
		return badRequest(c, err.Error())
	default:
		return internalError(c, err)
	}
}

// GET /lab/tests
func (h *LabHandler) ListTests(c fiber.Ctx) error {
	tests, err := h.svc.ListTests(c.Context())
	if err != nil {
		return mapLabError(c, err)
	}
	return ok(c, tests)
}

// POST /doctor/requestLabTests
func (h *LabHandler) RequestTests(c fiber.Ctx) error {
	p, authed := principal(c)
	if !authed {
		return unauthorized(c)
	}

	var body struct {
		CaseID  int64   `json:"case_id"`
		TestIDs []int64 `json:"test_ids"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.CaseID <= 0 {
		return badRequest(c, "case_id is required")
	}

	reports, err := h.svc.RequestTests(c.Context(), p, body.CaseID, body.TestIDs)
	if err != nil {
		return mapLabError(c, err)
	}
	return created(c, reports)
}

// GET /lab/reports
func (h *LabHandler) ListReports(c fiber.Ctx) error {
	var q struct {
		Status string `query:"status"`
		CaseID int64  `query:"case_id"`
		Limit  int    `query:"limit"`
		Offset int    `query:"offset"`
	}
	if err := c.Bind().Query(&q); err != nil {
		return badRequest(c, "invalid query")
	}
	return h.listReports(c, lab.ReportFilter{
		Status: store.LabStatus(q.Status),
		CaseID: q.CaseID,
		Page:   pageOf(q.Limit, q.Offset),
	})
}

// GET /cases/:id/reports
func (h *LabHandler) ListCaseReports(c fiber.Ctx) error {
	caseID, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid case id")
	}
	var q struct {
		Limit  int `query:"limit"`
		Offset int `query:"offset"`
	}
	if err := c.Bind().Query(&q); err != nil {
		return badRequest(c, "invalid query")
	}
	return h.listReports(c, lab.ReportFilter{CaseID: caseID, Page: pageOf(q.Limit, q.Offset)})
}

func (h *LabHandler) listReports(c fiber.Ctx, f lab.ReportFilter) error {
	p, authed := principal(c)
	if !authed {
		return unauthorized(c)
	}

	reports, total, err := h.svc.ListReports(c.Context(), p, f)
	if err != nil {
		return mapLabError(c, err)
	}
	return ok(c, list(reports, total, f.Page))
}

// GET /lab/reports/:id
func (h *LabHandler) GetReport(c fiber.Ctx) error {
	p, authed := principal(c)
	if !authed {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid report id")
	}

	r, err := h.svc.GetReport(c.Context(), p, id)
	if err != nil {
		return mapLabError(c, err)
	}
	return ok(c, r)
}

// POST /lab/reports/:id/files
// Multipart form: status, keep_file_ids, remove_file_ids and any number of
// "files" parts.
func (h *LabHandler) UpdateFiles(c fiber.Ctx) error {
	p, authed := principal(c)
	if !authed {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid report id")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "multipart form expected")
	}

	req := lab.UpdateFilesRequest{}
	if v := form.Value["status"]; len(v) > 0 {
		req.DesiredStatus = store.LabStatus(strings.TrimSpace(v[0]))
	}
	if req.KeepFileIDs, err = parseIDList(form.Value["keep_file_ids"]); err != nil {
		return badRequest(c, "invalid keep_file_ids")
	}
	if req.RemoveFileIDs, err = parseIDList(form.Value["remove_file_ids"]); err != nil {
		return badRequest(c, "invalid remove_file_ids")
	}

	var closers []io.Closer
	defer func() {
		for _, cl := range closers {
			_ = cl.Close()
		}
	}()
	for _, fh := range form.File["files"] {
		u, cl, err := file.OpenMultipart(fh)
		if err != nil {
			return badRequest(c, "unreadable file part")
		}
		closers = append(closers, cl)
		req.AddFiles = append(req.AddFiles, u)
	}

	r, err := h.svc.UpdateTestFiles(c.Context(), p, id, req)
	if err != nil {
		return mapLabError(c, err)
	}
	return ok(c, r)
}

// POST /lab/submit/:reportId
func (h *LabHandler) Submit(c fiber.Ctx) error {
	p, authed := principal(c)
	if !authed {
		return unauthorized(c)
	}
	id, valid := paramID(c, "reportId")
	if !valid {
		return badRequest(c, "invalid report id")
	}

	var body struct {
		Data   json.RawMessage `json:"data"`
		FileID *int64          `json:"file_id"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	r, err := h.svc.SubmitResults(c.Context(), p, id, lab.SubmitRequest{Data: body.Data, FileID: body.FileID})
	if err != nil {
		return mapLabError(c, err)
	}
	return ok(c, r)
}

// parseIDList accepts repeated fields and comma separated values.
func parseIDList(values []string) ([]int64, error) {
	var out []int64
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				return nil, errors.New("invalid id " + strconv.Quote(part))
			}
			out = append(out, id)
		}
	}
	return out, nil
}
