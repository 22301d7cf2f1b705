package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	svcfile "github.com/Alijeyrad/medcenter_backend/internal/service/file"
)

type FileHandler struct {
	svc svcfile.Service
}

func NewFileHandler(svc svcfile.Service) *FileHandler {
	return &FileHandler{svc: svc}
}

func mapFileError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, svcfile.ErrFileNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, svcfile.ErrEmptyFile),
		errors.Is(err, svcfile.ErrFileTooLarge),
		errors.Is(err, svcfile.ErrContentTypeNotAllowed):
		return badRequest(c, err.Error())
	default:
		return internalError(c, err)
	}
}

// POST /files
func (h *FileHandler) Upload(c fiber.Ctx) error {
	p, authed := principal(c)
	if !authed {
		return unauthorized(c)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file field is required")
	}
	u, closer, err := svcfile.OpenMultipart(fh)
	if err != nil {
		return badRequest(c, "unreadable file part")
	}
	defer closer.Close()

	f, err := h.svc.Upload(c.Context(), p, u)
	if err != nil {
		return mapFileError(c, err)
	}
	return created(c, f)
}

// GET /files/:id
// Redirects to a short-lived presigned URL.
func (h *FileHandler) Download(c fiber.Ctx) error {
	p, authed := principal(c)
	if !authed {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid file id")
	}

	url, err := h.svc.DownloadURL(c.Context(), p, id)
	if err != nil {
		return mapFileError(c, err)
	}
	return c.Redirect().Status(fiber.StatusFound).To(url)
}
