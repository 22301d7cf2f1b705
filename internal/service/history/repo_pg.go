package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Alijeyrad/medcenter_backend/internal/store"
	"github.com/Alijeyrad/medcenter_backend/pkg/database"
)

type historyRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &historyRepoPG{pool: pool}
}

func (r *historyRepoPG) GetPatient(ctx context.Context, patientID int64) (*store.Patient, error) {
	return getPatient(ctx, r.pool, patientID)
}

func getPatient(ctx context.Context, q database.Querier, patientID int64) (*store.Patient, error) {
	p, err := store.ScanPatient(q.QueryRow(ctx, `SELECT `+store.PatientCols+` FROM patients WHERE id = $1`, patientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return &p, nil
}

func (r *historyRepoPG) ResolveContact(ctx context.Context, p *store.Patient) (store.Contact, error) {
	var (
		c   store.Contact
		err error
	)
	switch p.Type {
	case store.PatientStudent:
		err = r.pool.QueryRow(ctx,
			`SELECT COALESCE(email, ''), COALESCE(phone, '') FROM students WHERE patient_id = $1`, p.ID,
		).Scan(&c.Email, &c.Phone)
	case store.PatientProfessor:
		err = r.pool.QueryRow(ctx,
			`SELECT COALESCE(email, ''), COALESCE(phone, '') FROM professors WHERE patient_id = $1`, p.ID,
		).Scan(&c.Email, &c.Phone)
	case store.PatientVisitor:
		err = r.pool.QueryRow(ctx,
			`SELECT COALESCE(email, ''), COALESCE(phone, '') FROM visitors WHERE patient_id = $1`, p.ID,
		).Scan(&c.Email, &c.Phone)
	case store.PatientDependent:
		// A dependent's codes go to the professor sharing their PSRN.
		err = r.pool.QueryRow(ctx, `
			SELECT COALESCE(pr.email, ''), COALESCE(pr.phone, '')
			FROM dependents d
			JOIN professors pr ON pr.psrn = d.psrn
			WHERE d.patient_id = $1`, p.ID,
		).Scan(&c.Email, &c.Phone)
	default:
		return c, ErrContactNotFound
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return c, ErrContactNotFound
	}
	if err != nil {
		return c, fmt.Errorf("resolve contact: %w", err)
	}
	return c, nil
}

func (r *historyRepoPG) GetStaffName(ctx context.Context, userID int64) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx, `SELECT name FROM staff_users WHERE id = $1`, userID).Scan(&name)
	return name, err
}

func (r *historyRepoPG) UpsertOTP(ctx context.Context, o *store.OTP) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO otps (doctor_id, patient_id, otp_hash, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (doctor_id, patient_id)
		DO UPDATE SET otp_hash = EXCLUDED.otp_hash,
		              created_at = EXCLUDED.created_at,
		              expires_at = EXCLUDED.expires_at
		RETURNING id`,
		o.DoctorID, o.PatientID, o.Hash, o.CreatedAt, o.ExpiresAt,
	).Scan(&o.ID)
}

func (r *historyRepoPG) GetOTP(ctx context.Context, doctorID, patientID int64) (*store.OTP, error) {
	var o store.OTP
	err := r.pool.QueryRow(ctx, `
		SELECT id, doctor_id, patient_id, otp_hash, created_at, expires_at
		FROM otps WHERE doctor_id = $1 AND patient_id = $2`,
		doctorID, patientID,
	).Scan(&o.ID, &o.DoctorID, &o.PatientID, &o.Hash, &o.CreatedAt, &o.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errOTPNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *historyRepoPG) ConsumeOTP(ctx context.Context, doctorID, patientID int64, hash string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM otps WHERE doctor_id = $1 AND patient_id = $2 AND otp_hash = $3`,
		doctorID, patientID, hash)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *historyRepoPG) ListCases(ctx context.Context, patientID int64) ([]store.Case, error) {
	return listCases(ctx, r.pool, patientID)
}

func listCases(ctx context.Context, q database.Querier, patientID int64) ([]store.Case, error) {
	rows, err := q.Query(ctx, `SELECT `+store.CaseCols+` FROM cases WHERE patient_id = $1 ORDER BY id ASC`, patientID)
	if err != nil {
		return nil, err
	}
	return store.CollectCases(rows)
}

func (r *historyRepoPG) RecordOverride(ctx context.Context, log *store.OverrideLog) (*History, error) {
	var h *History
	err := database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		var owner int64
		err := tx.QueryRow(ctx, `SELECT patient_id FROM cases WHERE id = $1`, log.CaseID).Scan(&owner)
		if errors.Is(err, pgx.ErrNoRows) || (err == nil && owner != log.PatientID) {
			return ErrCaseNotFound
		}
		if err != nil {
			return fmt.Errorf("load case: %w", err)
		}

		if err := tx.QueryRow(ctx, `
			INSERT INTO otp_override_logs (doctor_id, patient_id, case_id, reason, created_at)
			VALUES ($1, $2, $3, $4, NOW())
			RETURNING id, created_at`,
			log.DoctorID, log.PatientID, log.CaseID, log.Reason,
		).Scan(&log.ID, &log.CreatedAt); err != nil {
			return fmt.Errorf("insert override log: %w", err)
		}

		patient, err := getPatient(ctx, tx, log.PatientID)
		if err != nil {
			return err
		}
		cases, err := listCases(ctx, tx, log.PatientID)
		if err != nil {
			return fmt.Errorf("list cases: %w", err)
		}
		if cases == nil {
			cases = []store.Case{}
		}
		h = &History{Patient: *patient, Cases: cases}
		return nil
	})
	return h, err
}

func (r *historyRepoPG) ListOverrides(ctx context.Context, f OverrideFilter) ([]store.OverrideLog, int, error) {
	where := ` WHERE ($1::bigint = 0 OR doctor_id = $1) AND ($2::bigint = 0 OR patient_id = $2)`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM otp_override_logs`+where,
		f.DoctorID, f.PatientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, patient_id, case_id, reason, created_at
		FROM otp_override_logs`+where+`
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`,
		f.DoctorID, f.PatientID, f.Page.Limit, f.Page.Offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByPos[store.OverrideLog])
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
