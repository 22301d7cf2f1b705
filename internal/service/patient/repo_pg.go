package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Alijeyrad/medcenter_backend/internal/store"
	"github.com/Alijeyrad/medcenter_backend/pkg/database"
)

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &patientRepoPG{pool: pool}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *patientRepoPG) Create(ctx context.Context, p *store.PatientWithContact) error {
	return database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO patients (name, type, age, sex, created_at)
			VALUES ($1, $2, $3, $4, now())
			RETURNING id, created_at`,
			p.Name, p.Type, p.Age, p.Sex,
		).Scan(&p.ID, &p.CreatedAt); err != nil {
			return fmt.Errorf("insert patient: %w", err)
		}

		c := p.Contact
		var err error
		switch p.Type {
		case store.PatientStudent:
			_, err = tx.Exec(ctx,
				`INSERT INTO students (patient_id, roll_no, email, phone) VALUES ($1, $2, $3, $4)`,
				p.ID, c.RollNo, nullable(c.Email), nullable(c.Phone))
		case store.PatientProfessor:
			_, err = tx.Exec(ctx,
				`INSERT INTO professors (patient_id, psrn, email, phone) VALUES ($1, $2, $3, $4)`,
				p.ID, c.PSRN, nullable(c.Email), nullable(c.Phone))
			if database.IsUniqueViolation(err) {
				return ErrDuplicatePSRN
			}
		case store.PatientDependent:
			var known bool
			if err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM professors WHERE psrn = $1)`, c.PSRN,
			).Scan(&known); err != nil {
				return fmt.Errorf("check psrn: %w", err)
			}
			if !known {
				return ErrUnknownPSRN
			}
			_, err = tx.Exec(ctx,
				`INSERT INTO dependents (patient_id, psrn, relation) VALUES ($1, $2, $3)`,
				p.ID, c.PSRN, c.Relation)
		case store.PatientVisitor:
			_, err = tx.Exec(ctx,
				`INSERT INTO visitors (patient_id, email, phone) VALUES ($1, $2, $3)`,
				p.ID, nullable(c.Email), nullable(c.Phone))
		}
		if err != nil {
			return fmt.Errorf("insert %s contact: %w", p.Type, err)
		}
		return nil
	})
}

func (r *patientRepoPG) Get(ctx context.Context, patientID int64) (*store.PatientWithContact, error) {
	var p store.PatientWithContact
	err := r.pool.QueryRow(ctx, `
		SELECT p.id, p.name, p.type, p.age, p.sex, p.created_at,
		       COALESCE(s.roll_no, ''),
		       COALESCE(pr.psrn, d.psrn, ''),
		       COALESCE(d.relation, ''),
		       COALESCE(s.email, pr.email, v.email, ''),
		       COALESCE(s.phone, pr.phone, v.phone, '')
		FROM patients p
		LEFT JOIN students s    ON s.patient_id = p.id
		LEFT JOIN professors pr ON pr.patient_id = p.id
		LEFT JOIN dependents d  ON d.patient_id = p.id
		LEFT JOIN visitors v    ON v.patient_id = p.id
		WHERE p.id = $1`, patientID,
	).Scan(&p.ID, &p.Name, &p.Type, &p.Age, &p.Sex, &p.CreatedAt,
		&p.Contact.RollNo, &p.Contact.PSRN, &p.Contact.Relation, &p.Contact.Email, &p.Contact.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return &p, nil
}

func (r *patientRepoPG) List(ctx context.Context, req ListPatientsRequest) ([]store.Patient, int, error) {
	where := ` WHERE ($1::text = '' OR type = $1) AND ($2::text = '' OR name ILIKE '%' || $2 || '%')`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patients`+where,
		string(req.Type), req.Query).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+store.PatientCols+` FROM patients`+where+`
		ORDER BY id DESC
		LIMIT $3 OFFSET $4`,
		string(req.Type), req.Query, req.PerPage, req.Offset())
	if err != nil {
		return nil, 0, err
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.Patient, error) {
		return store.ScanPatient(row)
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
