package lab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"

	"github.com/Alijeyrad/medcenter_backend/internal/service/file"
	"github.com/Alijeyrad/medcenter_backend/internal/store"
	"github.com/Alijeyrad/medcenter_backend/pkg/database"
)

type labRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &labRepoPG{pool: pool}
}

func getCase(ctx context.Context, q database.Querier, caseID int64, lock bool) (*store.Case, error) {
	sql := `SELECT ` + store.CaseCols + ` FROM cases WHERE id = $1`
	if lock {
		sql += ` FOR SHARE`
	}
	c, err := store.ScanCase(q.QueryRow(ctx, sql, caseID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}
	return &c, nil
}

func getReport(ctx context.Context, q database.Querier, reportID int64, lock bool) (*store.LabReport, error) {
	if lock {
		var id int64
		err := q.QueryRow(ctx, `SELECT id FROM lab_reports WHERE id = $1 FOR UPDATE`, reportID).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("lock report: %w", err)
		}
	}
	r, err := store.ScanReport(q.QueryRow(ctx,
		`SELECT `+store.ReportCols+` FROM lab_reports r WHERE r.id = $1`, reportID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return &r, nil
}

func (r *labRepoPG) GetCase(ctx context.Context, caseID int64) (*store.Case, error) {
	return getCase(ctx, r.pool, caseID, false)
}

const testCols = `id, name, category, is_active`

func (r *labRepoPG) ListTests(ctx context.Context) ([]store.LabTest, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+testCols+` FROM lab_tests WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[store.LabTest])
}

func (r *labRepoPG) ActiveTests(ctx context.Context, ids []int64) ([]store.LabTest, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+testCols+` FROM lab_tests WHERE is_active AND id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[store.LabTest])
}

func (r *labRepoPG) CreateReports(ctx context.Context, caseID int64, tests []store.LabTest) ([]store.LabReport, error) {
	out := make([]store.LabReport, 0, len(tests))
	err := database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, t := range tests {
			rep := store.LabReport{CaseID: caseID, TestID: t.ID, Type: t.Name, Status: store.LabRequested, FileIDs: []int64{}}
			err := tx.QueryRow(ctx, `
				INSERT INTO lab_reports (case_id, test_id, type, status, created_at, updated_at)
				VALUES ($1, $2, $3, $4, now(), now())
				RETURNING id, created_at, updated_at`,
				rep.CaseID, rep.TestID, rep.Type, rep.Status,
			).Scan(&rep.ID, &rep.CreatedAt, &rep.UpdatedAt)
			if database.IsForeignKeyViolation(err) {
				return ErrCaseNotFound
			}
			if err != nil {
				return fmt.Errorf("insert lab report: %w", err)
			}
			out = append(out, rep)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *labRepoPG) GetReport(ctx context.Context, reportID int64) (*store.LabReport, error) {
	return getReport(ctx, r.pool, reportID, false)
}

func (r *labRepoPG) ListReports(ctx context.Context, f ReportFilter) ([]store.LabReport, int, error) {
	where := ` WHERE ($1::text = '' OR r.status = $1) AND ($2::bigint = 0 OR r.case_id = $2)`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM lab_reports r`+where,
		string(f.Status), f.CaseID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+store.ReportCols+` FROM lab_reports r`+where+`
		ORDER BY r.created_at ASC, r.id ASC
		LIMIT $3 OFFSET $4`,
		string(f.Status), f.CaseID, f.Page.Limit, f.Page.Offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := store.CollectReports(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *labRepoPG) ApplyFiles(ctx context.Context, reportID int64, uploads []store.File, plan PlanFunc) (*Applied, error) {
	var out Applied
	err := database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		rep, err := getReport(ctx, tx, reportID, true)
		if err != nil {
			return err
		}
		out.Previous = rep.Status

		p, err := plan(rep.Status, rep.FileIDs)
		if err != nil {
			return err
		}

		for i := range uploads {
			if err := file.Insert(ctx, tx, &uploads[i]); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO report_files (report_id, file_id) VALUES ($1, $2)`,
				reportID, uploads[i].ID); err != nil {
				return fmt.Errorf("link file: %w", err)
			}
		}

		if len(p.Unlink) > 0 {
			if _, err := tx.Exec(ctx,
				`DELETE FROM report_files WHERE report_id = $1 AND file_id = ANY($2)`,
				reportID, p.Unlink); err != nil {
				return fmt.Errorf("unlink files: %w", err)
			}
			rows, err := tx.Query(ctx, `
				DELETE FROM files f
				WHERE f.id = ANY($1)
				  AND NOT EXISTS (SELECT 1 FROM report_files rf WHERE rf.file_id = f.id)
				RETURNING f.object_key`, p.Unlink)
			if err != nil {
				return fmt.Errorf("delete orphan files: %w", err)
			}
			out.OrphanKeys, err = pgx.CollectRows(rows, pgx.RowTo[string])
			if err != nil {
				return fmt.Errorf("delete orphan files: %w", err)
			}
		}

		if _, err := tx.Exec(ctx,
			`UPDATE lab_reports SET status = $2, updated_at = now() WHERE id = $1`,
			reportID, p.Status); err != nil {
			return fmt.Errorf("update report status: %w", err)
		}

		updated, err := getReport(ctx, tx, reportID, false)
		if err != nil {
			return err
		}
		out.Report = *updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *labRepoPG) Submit(ctx context.Context, reportID int64, data json.RawMessage, fileID *int64, mayLink LinkFunc) (*Submitted, error) {
	var out Submitted
	err := database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		rep, err := getReport(ctx, tx, reportID, true)
		if err != nil {
			return err
		}
		if rep.Status == store.LabDone {
			return ErrReportFinalized
		}
		out.Previous = rep.Status

		c, err := getCase(ctx, tx, rep.CaseID, true)
		if errors.Is(err, ErrCaseNotFound) {
			return ErrReportNotFound
		}
		if err != nil {
			return err
		}
		out.Case = *c

		if _, err := tx.Exec(ctx,
			`UPDATE lab_reports SET data = $2, status = $3, updated_at = now() WHERE id = $1`,
			reportID, data, store.LabDone); err != nil {
			return fmt.Errorf("update report: %w", err)
		}

		if fileID != nil {
			var allowed []int64
			err := tx.QueryRow(ctx, `SELECT allowed FROM files WHERE id = $1 FOR UPDATE`, *fileID).Scan(&allowed)
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrFileNotFound
			}
			if err != nil {
				return fmt.Errorf("load file: %w", err)
			}
			var linked bool
			if err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM report_files WHERE report_id = $1 AND file_id = $2)`,
				reportID, *fileID).Scan(&linked); err != nil {
				return fmt.Errorf("check file link: %w", err)
			}
			if mayLink != nil && !mayLink(allowed, linked) {
				return ErrFileNotFound
			}

			if _, err := tx.Exec(ctx, `
				INSERT INTO report_files (report_id, file_id) VALUES ($1, $2)
				ON CONFLICT (report_id, file_id) DO NOTHING`,
				reportID, *fileID); err != nil {
				return fmt.Errorf("link file: %w", err)
			}

			widened := lo.Union(allowed, c.AssociatedUsers)
			if _, err := tx.Exec(ctx, `UPDATE files SET allowed = $2 WHERE id = $1`, *fileID, widened); err != nil {
				return fmt.Errorf("widen file access: %w", err)
			}
		}

		updated, err := getReport(ctx, tx, reportID, false)
		if err != nil {
			return err
		}
		out.Report = *updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
