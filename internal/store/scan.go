package store

import (
	"github.com/jackc/pgx/v5"
)

// Column lists and scanners shared by the pgx repositories. Each list is in
// the order its scanner reads.

const PatientCols = `id, name, type, age, sex, created_at`

func ScanPatient(row pgx.Row) (Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.Type, &p.Age, &p.Sex, &p.CreatedAt)
	return p, err
}

const CaseCols = `id, token, patient_id, temperature, heart_rate, respiratory_rate,
	bp_systolic, bp_diastolic, blood_sugar, spo2, weight, consultation_notes,
	diagnosis, finalized_state, associated_users, created_at, updated_at`

func ScanCase(row pgx.Row) (Case, error) {
	var c Case
	err := row.Scan(&c.ID, &c.Token, &c.PatientID,
		&c.Vitals.Temperature, &c.Vitals.HeartRate, &c.Vitals.RespiratoryRate,
		&c.Vitals.BPSystolic, &c.Vitals.BPDiastolic, &c.Vitals.BloodSugar, &c.Vitals.SpO2, &c.Vitals.Weight,
		&c.ConsultationNotes, &c.Diagnosis, &c.FinalizedState, &c.AssociatedUsers,
		&c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// CollectCases drains rows selected with CaseCols.
func CollectCases(rows pgx.Rows) ([]Case, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Case, error) {
		return ScanCase(row)
	})
}

// ReportCols selects a lab report aliased r with its linked file ids.
const ReportCols = `r.id, r.case_id, r.test_id, r.type, r.status, r.data,
	COALESCE((SELECT array_agg(rf.file_id ORDER BY rf.file_id) FROM report_files rf WHERE rf.report_id = r.id), '{}'),
	r.created_at, r.updated_at`

func ScanReport(row pgx.Row) (LabReport, error) {
	var r LabReport
	err := row.Scan(&r.ID, &r.CaseID, &r.TestID, &r.Type, &r.Status, &r.Data, &r.FileIDs, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func CollectReports(rows pgx.Rows) ([]LabReport, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (LabReport, error) {
		return ScanReport(row)
	})
}
