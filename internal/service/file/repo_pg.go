package file

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Alijeyrad/medcenter_backend/internal/store"
	"github.com/Alijeyrad/medcenter_backend/pkg/database"
)

type fileRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &fileRepoPG{pool: pool}
}

// Cols lists the files columns in the order ScanFile expects.
const Cols = `id, object_key, url, name, content_type, size, uploaded_by, allowed, created_at`

func ScanFile(row pgx.Row) (store.File, error) {
	var f store.File
	err := row.Scan(&f.ID, &f.ObjectKey, &f.URL, &f.Name, &f.ContentType, &f.Size,
		&f.UploadedBy, &f.Allowed, &f.CreatedAt)
	return f, err
}

// Insert writes f and fills its id and creation time. It accepts any
// Querier so callers can insert inside their own transaction.
func Insert(ctx context.Context, q database.Querier, f *store.File) error {
	if f.Allowed == nil {
		f.Allowed = []int64{}
	}
	err := q.QueryRow(ctx, `
		INSERT INTO files (object_key, url, name, content_type, size, uploaded_by, allowed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING id, created_at`,
		f.ObjectKey, f.URL, f.Name, f.ContentType, f.Size, f.UploadedBy, f.Allowed,
	).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}
	return nil
}

func (r *fileRepoPG) Insert(ctx context.Context, f *store.File) error {
	return Insert(ctx, r.pool, f)
}

func (r *fileRepoPG) Get(ctx context.Context, id int64) (*store.File, error) {
	f, err := ScanFile(r.pool.QueryRow(ctx, `SELECT `+Cols+` FROM files WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	return &f, nil
}
