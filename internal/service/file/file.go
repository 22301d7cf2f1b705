package file

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"slices"
	"strings"

	"github.com/Alijeyrad/medcenter_backend/internal/store"
	"github.com/Alijeyrad/medcenter_backend/pkg/authorize"
	s3pkg "github.com/Alijeyrad/medcenter_backend/pkg/s3"
)

const defaultContentType = "application/octet-stream"

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Upload is one incoming file. Body is read once.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// OpenMultipart turns a multipart header into an Upload. The caller closes
// the returned closer once the upload is done.
func OpenMultipart(fh *multipart.FileHeader) (Upload, io.Closer, error) {
	src, err := fh.Open()
	if err != nil {
		return Upload{}, nil, fmt.Errorf("open upload: %w", err)
	}
	ct := fh.Header.Get("Content-Type")
	return Upload{Name: fh.Filename, ContentType: ct, Size: fh.Size, Body: src}, src, nil
}

// ObjectStore is the object storage the files table points into.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	ObjectURL(key string) string
	PresignDownload(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// ---------------------------------------------------------------------------
// Stager
// ---------------------------------------------------------------------------

// Stager puts objects into storage and builds the matching files rows
// without inserting them, so other services can link them inside their own
// transactions.
type Stager struct {
	cfg     Config
	objects ObjectStore
}

func NewStager(cfg Config, objects ObjectStore) *Stager {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaultKeyPrefix
	}
	return &Stager{cfg: cfg, objects: objects}
}

func (s *Stager) validate(u Upload) error {
	if u.Body == nil || u.Size <= 0 {
		return ErrEmptyFile
	}
	if s.cfg.MaxSize > 0 && u.Size > s.cfg.MaxSize {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, u.Size, s.cfg.MaxSize)
	}
	if len(s.cfg.AllowedContentTypes) > 0 && !slices.Contains(s.cfg.AllowedContentTypes, u.ContentType) {
		return fmt.Errorf("%w: %q", ErrContentTypeNotAllowed, u.ContentType)
	}
	return nil
}

// Stage uploads u and returns the unsaved row. The uploader is the only
// principal allowed to read it.
func (s *Stager) Stage(ctx context.Context, uploaderID int64, u Upload) (store.File, error) {
	if strings.TrimSpace(u.ContentType) == "" {
		u.ContentType = defaultContentType
	}
	if err := s.validate(u); err != nil {
		return store.File{}, err
	}

	key := s3pkg.ObjectKey(s.cfg.KeyPrefix, u.Name)
	if err := s.objects.Upload(ctx, key, u.ContentType, u.Body, u.Size); err != nil {
		return store.File{}, fmt.Errorf("s3 upload: %w", err)
	}

	return store.File{
		ObjectKey:   key,
		URL:         s.objects.ObjectURL(key),
		Name:        u.Name,
		ContentType: u.ContentType,
		Size:        u.Size,
		UploadedBy:  uploaderID,
		Allowed:     []int64{uploaderID},
	}, nil
}

// StageAll stages every upload. On failure the objects already stored are
// discarded.
func (s *Stager) StageAll(ctx context.Context, uploaderID int64, uploads []Upload) ([]store.File, error) {
	staged := make([]store.File, 0, len(uploads))
	for _, u := range uploads {
		f, err := s.Stage(ctx, uploaderID, u)
		if err != nil {
			s.Discard(ctx, staged)
			return nil, err
		}
		staged = append(staged, f)
	}
	return staged, nil
}

// Discard deletes the objects behind files. Failures are logged only.
func (s *Stager) Discard(ctx context.Context, files []store.File) {
	for _, f := range files {
		if err := s.objects.Delete(ctx, f.ObjectKey); err != nil {
			slog.WarnContext(ctx, "file: discard object failed", "key", f.ObjectKey, "error", err)
		}
	}
}

// DiscardKeys is Discard for bare object keys.
func (s *Stager) DiscardKeys(ctx context.Context, keys []string) {
	for _, k := range keys {
		if err := s.objects.Delete(ctx, k); err != nil {
			slog.WarnContext(ctx, "file: discard object failed", "key", k, "error", err)
		}
	}
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Upload(ctx context.Context, p authorize.Principal, u Upload) (*store.File, error)
	Get(ctx context.Context, p authorize.Principal, fileID int64) (*store.File, error)
	DownloadURL(ctx context.Context, p authorize.Principal, fileID int64) (string, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type fileService struct {
	repo    Repository
	stager  *Stager
	objects ObjectStore
}

func New(repo Repository, stager *Stager, objects ObjectStore) Service {
	return &fileService{repo: repo, stager: stager, objects: objects}
}

func (s *fileService) Upload(ctx context.Context, p authorize.Principal, u Upload) (*store.File, error) {
	f, err := s.stager.Stage(ctx, p.UserID, u)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, &f); err != nil {
		s.stager.Discard(ctx, []store.File{f})
		return nil, err
	}
	return &f, nil
}

func (s *fileService) Get(ctx context.Context, p authorize.Principal, fileID int64) (*store.File, error) {
	f, err := s.repo.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !f.IsAllowed(p.UserID) && !p.HasRole(authorize.RoleAdmin) {
		return nil, ErrFileNotFound
	}
	return f, nil
}

func (s *fileService) DownloadURL(ctx context.Context, p authorize.Principal, fileID int64) (string, error) {
	f, err := s.Get(ctx, p, fileID)
	if err != nil {
		return "", err
	}
	url, err := s.objects.PresignDownload(ctx, f.ObjectKey)
	if err != nil {
		return "", fmt.Errorf("presign: %w", err)
	}
	return url, nil
}
