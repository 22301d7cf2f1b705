package file

import (
	"context"

	"github.com/Alijeyrad/medcenter_backend/internal/store"
)

type Repository interface {
	Insert(ctx context.Context, f *store.File) error
	Get(ctx context.Context, id int64) (*store.File, error)
}
