package file

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/medcenter_backend/internal/store"
	"github.com/Alijeyrad/medcenter_backend/pkg/authorize"
)

type memObjects struct {
	objects   map[string][]byte
	uploadErr error
}

func newMemObjects() *memObjects { return &memObjects{objects: map[string][]byte{}} }

func (m *memObjects) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[key] = b
	return nil
}

func (m *memObjects) ObjectURL(key string) string { return "http://minio.test/bucket/" + key }

func (m *memObjects) PresignDownload(_ context.Context, key string) (string, error) {
	return "http://minio.test/bucket/" + key + "?X-Amz-Signature=sig", nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

type memRepo struct {
	files     map[int64]store.File
	insertErr error
}

func (r *memRepo) Insert(_ context.Context, f *store.File) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	f.ID = int64(len(r.files) + 1)
	r.files[f.ID] = *f
	return nil
}

func (r *memRepo) Get(_ context.Context, id int64) (*store.File, error) {
	f, ok := r.files[id]
	if !ok {
		return nil, ErrFileNotFound
	}
	return &f, nil
}

func newService(cfg Config) (Service, *memRepo, *memObjects) {
	objs := newMemObjects()
	repo := &memRepo{files: map[int64]store.File{}}
	return New(repo, NewStager(cfg, objs), objs), repo, objs
}

func pdf(body string) Upload {
	return Upload{Name: "CBC.PDF", ContentType: "application/pdf", Size: int64(len(body)), Body: strings.NewReader(body)}
}

var (
	labTech = authorize.NewPrincipal(5, authorize.RoleLab)
	doc     = authorize.NewPrincipal(7, authorize.RoleDoctor)
	admin   = authorize.NewPrincipal(1, authorize.RoleAdmin)
)

func TestUpload_StoresObjectAndRow(t *testing.T) {
	svc, repo, objs := newService(DefaultConfig())

	f, err := svc.Upload(context.Background(), labTech, pdf("%PDF-1.7"))
	require.NoError(t, err)

	assert.Equal(t, []int64{5}, f.Allowed)
	assert.EqualValues(t, 5, f.UploadedBy)
	assert.True(t, strings.HasPrefix(f.ObjectKey, "files/"))
	assert.True(t, strings.HasSuffix(f.ObjectKey, ".pdf"))
	assert.Equal(t, "http://minio.test/bucket/"+f.ObjectKey, f.URL)
	assert.Equal(t, []byte("%PDF-1.7"), objs.objects[f.ObjectKey])
	assert.Len(t, repo.files, 1)
}

func TestUpload_Validation(t *testing.T) {
	svc, _, objs := newService(Config{MaxSize: 4, AllowedContentTypes: []string{"application/pdf"}})
	ctx := context.Background()

	_, err := svc.Upload(ctx, labTech, pdf("too long"))
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = svc.Upload(ctx, labTech, Upload{Name: "x.png", ContentType: "image/png", Size: 1, Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrContentTypeNotAllowed)

	_, err = svc.Upload(ctx, labTech, Upload{Name: "x.pdf", ContentType: "application/pdf"})
	assert.ErrorIs(t, err, ErrEmptyFile)

	assert.Empty(t, objs.objects)
}

func TestUpload_InsertFailureDiscardsObject(t *testing.T) {
	svc, repo, objs := newService(DefaultConfig())
	repo.insertErr = errors.New("db down")

	_, err := svc.Upload(context.Background(), labTech, pdf("x"))
	require.Error(t, err)
	assert.Empty(t, objs.objects)
}

func TestDownloadURL_Access(t *testing.T) {
	svc, _, _ := newService(DefaultConfig())
	ctx := context.Background()

	f, err := svc.Upload(ctx, labTech, pdf("x"))
	require.NoError(t, err)

	url, err := svc.DownloadURL(ctx, labTech, f.ID)
	require.NoError(t, err)
	assert.Contains(t, url, f.ObjectKey)

	_, err = svc.DownloadURL(ctx, doc, f.ID)
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, err = svc.DownloadURL(ctx, admin, f.ID)
	assert.NoError(t, err)

	_, err = svc.DownloadURL(ctx, admin, 404)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestStageAll_DiscardsOnFailure(t *testing.T) {
	objs := newMemObjects()
	st := NewStager(Config{MaxSize: 3}, objs)

	_, err := st.StageAll(context.Background(), 5, []Upload{pdf("ok"), pdf("too big")})
	require.ErrorIs(t, err, ErrFileTooLarge)
	assert.Empty(t, objs.objects)

	files, err := st.StageAll(context.Background(), 5, []Upload{pdf("a"), {Name: "b", Size: 1, Body: strings.NewReader("b")}})
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, defaultContentType, files[1].ContentType)
	assert.Len(t, objs.objects, 2)
}
