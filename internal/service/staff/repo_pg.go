package staff

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Alijeyrad/medcenter_backend/internal/store"
	"github.com/Alijeyrad/medcenter_backend/pkg/database"
)

const staffCols = `id, name, email, role, created_at`

type staffRepoPG struct{ db database.Querier }

func NewRepoPG(db database.Querier) Repository {
	return &staffRepoPG{db: db}
}

func scanStaff(row pgx.Row) (*store.StaffUser, error) {
	var u store.StaffUser
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("scan staff user: %w", err)
	}
	return &u, nil
}

func (r *staffRepoPG) Insert(ctx context.Context, u *store.StaffUser) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO staff_users (name, email, role, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING id, created_at`,
		u.Name, u.Email, u.Role,
	).Scan(&u.ID, &u.CreatedAt)
	if database.IsUniqueViolation(err) {
		return ErrEmailExists
	}
	if err != nil {
		return fmt.Errorf("insert staff user: %w", err)
	}
	return nil
}

func (r *staffRepoPG) Get(ctx context.Context, userID int64) (*store.StaffUser, error) {
	return scanStaff(r.db.QueryRow(ctx, `SELECT `+staffCols+` FROM staff_users WHERE id = $1`, userID))
}

func (r *staffRepoPG) GetByEmail(ctx context.Context, email string) (*store.StaffUser, error) {
	return scanStaff(r.db.QueryRow(ctx, `SELECT `+staffCols+` FROM staff_users WHERE email = $1`, email))
}
