package staff

import (
	"context"

	"github.com/Alijeyrad/medcenter_backend/internal/store"
)

type Repository interface {
	Insert(ctx context.Context, u *store.StaffUser) error
	Get(ctx context.Context, userID int64) (*store.StaffUser, error)
	GetByEmail(ctx context.Context, email string) (*store.StaffUser, error)
}
