package clinical

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Alijeyrad/medcenter_backend/internal/store"
	"github.com/Alijeyrad/medcenter_backend/pkg/database"
)

type clinicalRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &clinicalRepoPG{pool: pool}
}

func caseOrNotFound(c store.Case, err error) (*store.Case, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCaseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *clinicalRepoPG) PatientExists(ctx context.Context, patientID int64) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM patients WHERE id = $1)`, patientID).Scan(&ok)
	return ok, err
}

func (r *clinicalRepoPG) GetStaff(ctx context.Context, userID int64) (*store.StaffUser, error) {
	var u store.StaffUser
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, role, created_at FROM staff_users WHERE id = $1`, userID,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrClinicianNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get staff user: %w", err)
	}
	return &u, nil
}

func (r *clinicalRepoPG) MaxToken(ctx context.Context) (int64, error) {
	var top int64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(MAX(token), 0) FROM cases`).Scan(&top)
	return top, err
}

func (r *clinicalRepoPG) CreateCase(ctx context.Context, c *store.Case) error {
	v := c.Vitals
	err := r.pool.QueryRow(ctx, `
		INSERT INTO cases (token, patient_id, temperature, heart_rate, respiratory_rate,
			bp_systolic, bp_diastolic, blood_sugar, spo2, weight,
			diagnosis, associated_users, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())
		RETURNING id, created_at, updated_at`,
		c.Token, c.PatientID, v.Temperature, v.HeartRate, v.RespiratoryRate,
		v.BPSystolic, v.BPDiastolic, v.BloodSugar, v.SpO2, v.Weight,
		c.Diagnosis, c.AssociatedUsers,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	switch {
	case database.IsUniqueViolation(err):
		return errDuplicateToken
	case database.IsForeignKeyViolation(err):
		return ErrPatientNotFound
	case err != nil:
		return fmt.Errorf("insert case: %w", err)
	}
	return nil
}

func (r *clinicalRepoPG) GetCase(ctx context.Context, caseID int64) (*store.Case, error) {
	return caseOrNotFound(store.ScanCase(r.pool.QueryRow(ctx,
		`SELECT `+store.CaseCols+` FROM cases WHERE id = $1`, caseID)))
}

func (r *clinicalRepoPG) Queue(ctx context.Context, doctorID int64) ([]store.Case, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+store.CaseCols+` FROM cases
		WHERE $1 = ANY(associated_users) AND finalized_state IS NULL
		ORDER BY token ASC`, doctorID)
	if err != nil {
		return nil, err
	}
	return store.CollectCases(rows)
}

func (r *clinicalRepoPG) UpdateConsultation(ctx context.Context, caseID int64, notes *string, diagnosis []int64) (*store.Case, error) {
	c, err := caseOrNotFound(store.ScanCase(r.pool.QueryRow(ctx, `
		UPDATE cases
		SET consultation_notes = COALESCE($2, consultation_notes),
		    diagnosis = COALESCE($3, diagnosis),
		    updated_at = now()
		WHERE id = $1 AND finalized_state IS NULL
		RETURNING `+store.CaseCols,
		caseID, notes, diagnosis)))
	if errors.Is(err, ErrCaseNotFound) {
		// Zero rows: either gone or closed in between.
		if _, getErr := r.GetCase(ctx, caseID); getErr == nil {
			return nil, ErrCaseFinalized
		}
	}
	return c, err
}

func (r *clinicalRepoPG) AddClinician(ctx context.Context, caseID, userID int64) (*store.Case, error) {
	return caseOrNotFound(store.ScanCase(r.pool.QueryRow(ctx, `
		UPDATE cases
		SET associated_users = CASE WHEN $2 = ANY(associated_users)
		                            THEN associated_users
		                            ELSE array_append(associated_users, $2) END,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+store.CaseCols,
		caseID, userID)))
}

func (r *clinicalRepoPG) Finalize(ctx context.Context, caseID int64, state store.FinalizedState, rx []store.Prescription) (*store.Case, []store.Prescription, error) {
	var (
		updated *store.Case
		saved   = make([]store.Prescription, 0, len(rx))
	)
	err := database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		c, err := store.ScanCase(tx.QueryRow(ctx, `
			UPDATE cases SET finalized_state = $2, updated_at = now()
			WHERE id = $1 AND finalized_state IS NULL
			RETURNING `+store.CaseCols,
			caseID, state))
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cases WHERE id = $1)`, caseID).Scan(&exists); err != nil {
				return err
			}
			if exists {
				return ErrCaseAlreadyFinalized
			}
			return ErrCaseNotFound
		}
		if err != nil {
			return fmt.Errorf("finalize case: %w", err)
		}
		updated = &c

		for _, p := range rx {
			err := tx.QueryRow(ctx, `
				INSERT INTO prescriptions (case_id, medicine_id, category, dosage, created_at)
				VALUES ($1, $2, $3, $4, now())
				RETURNING id, created_at`,
				caseID, p.MedicineID, p.Category, p.Dosage,
			).Scan(&p.ID, &p.CreatedAt)
			if database.IsForeignKeyViolation(err) {
				return fmt.Errorf("%w: %d", ErrUnknownMedicine, p.MedicineID)
			}
			if err != nil {
				return fmt.Errorf("insert prescription: %w", err)
			}
			saved = append(saved, p)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return updated, saved, nil
}

func (r *clinicalRepoPG) ListPrescriptions(ctx context.Context, caseID int64) ([]store.Prescription, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, case_id, medicine_id, category, dosage, created_at
		FROM prescriptions WHERE case_id = $1 ORDER BY id`, caseID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[store.Prescription])
}

func (r *clinicalRepoPG) CountDiseases(ctx context.Context, ids []int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM diseases WHERE id = ANY($1)`, ids).Scan(&n)
	return n, err
}

const medicineCols = `id, name, category, is_active`

func (r *clinicalRepoPG) GetMedicines(ctx context.Context, ids []int64) ([]store.Medicine, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+medicineCols+` FROM medicines WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[store.Medicine])
}

func (r *clinicalRepoPG) ListDiseases(ctx context.Context) ([]store.Disease, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, COALESCE(code, '') FROM diseases ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[store.Disease])
}

func (r *clinicalRepoPG) ListMedicines(ctx context.Context, activeOnly bool) ([]store.Medicine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+medicineCols+` FROM medicines
		WHERE is_active OR NOT $1
		ORDER BY category, name`, activeOnly)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[store.Medicine])
}
