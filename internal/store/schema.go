package store

import (
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Column helpers keep the table declarations readable.

func idCol() *schema.Column {
	return &schema.Column{Name: "id", Type: field.TypeInt64, Increment: true}
}

func fkCol(name string, nullable bool) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeInt64, Nullable: nullable}
}

func strCol(name string, nullable bool) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeString, Nullable: nullable}
}

func textCol(name string, nullable bool) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeString, Size: 1 << 20, Nullable: nullable}
}

func enumCol(name string, nullable bool, values ...string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeEnum, Enums: values, Nullable: nullable}
}

func timeCol(name string, nullable bool) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeTime, Nullable: nullable,
		SchemaType: map[string]string{dialect.Postgres: "timestamptz"}}
}

func int64ArrayCol(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeOther,
		SchemaType: map[string]string{dialect.Postgres: "bigint[]"}}
}

func jsonbCol(name string, nullable bool) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeJSON, Nullable: nullable,
		SchemaType: map[string]string{dialect.Postgres: "jsonb"}}
}

func fk(symbol string, col *schema.Column, ref *schema.Table) *schema.ForeignKey {
	return &schema.ForeignKey{
		Symbol:     symbol,
		Columns:    []*schema.Column{col},
		RefTable:   ref,
		RefColumns: []*schema.Column{ref.Columns[0]},
		OnDelete:   schema.NoAction,
	}
}

func table(name string, cols ...*schema.Column) *schema.Table {
	return &schema.Table{Name: name, Columns: cols, PrimaryKey: []*schema.Column{cols[0]}}
}

// ----------------------------------------------------------------------------
// Staff and patients
// ----------------------------------------------------------------------------

var (
	StaffUsersTable = table("staff_users",
		idCol(),
		strCol("name", false),
		&schema.Column{Name: "email", Type: field.TypeString, Unique: true},
		enumCol("role", false, StaffRoles...),
		timeCol("created_at", false),
	)

	PatientsTable = table("patients",
		idCol(),
		strCol("name", false),
		enumCol("type", false, PatientTypes...),
		&schema.Column{Name: "age", Type: field.TypeInt},
		enumCol("sex", false, Sexes...),
		timeCol("created_at", false),
	)

	StudentsTable = table("students",
		idCol(),
		&schema.Column{Name: "patient_id", Type: field.TypeInt64, Unique: true},
		strCol("roll_no", false),
		strCol("email", true),
		strCol("phone", true),
	)

	ProfessorsTable = table("professors",
		idCol(),
		&schema.Column{Name: "patient_id", Type: field.TypeInt64, Unique: true},
		&schema.Column{Name: "psrn", Type: field.TypeString, Unique: true},
		strCol("email", true),
		strCol("phone", true),
	)

	DependentsTable = table("dependents",
		idCol(),
		&schema.Column{Name: "patient_id", Type: field.TypeInt64, Unique: true},
		strCol("psrn", false),
		strCol("relation", false),
	)

	VisitorsTable = table("visitors",
		idCol(),
		&schema.Column{Name: "patient_id", Type: field.TypeInt64, Unique: true},
		strCol("email", true),
		strCol("phone", true),
	)
)

// ----------------------------------------------------------------------------
// Catalogs
// ----------------------------------------------------------------------------

var (
	DiseasesTable = table("diseases",
		idCol(),
		&schema.Column{Name: "name", Type: field.TypeString, Unique: true},
		strCol("code", true),
	)

	LabTestsTable = table("lab_tests",
		idCol(),
		&schema.Column{Name: "name", Type: field.TypeString, Unique: true},
		strCol("category", false),
		&schema.Column{Name: "is_active", Type: field.TypeBool, Default: true},
	)

	MedicinesTable = table("medicines",
		idCol(),
		&schema.Column{Name: "name", Type: field.TypeString, Unique: true},
		enumCol("category", false, MedicineCategories...),
		&schema.Column{Name: "is_active", Type: field.TypeBool, Default: true},
	)
)

// ----------------------------------------------------------------------------
// Cases
// ----------------------------------------------------------------------------

var (
	CasesTable = table("cases",
		idCol(),
		&schema.Column{Name: "token", Type: field.TypeInt64, Unique: true},
		fkCol("patient_id", false),
		&schema.Column{Name: "temperature", Type: field.TypeFloat64, Nullable: true},
		&schema.Column{Name: "heart_rate", Type: field.TypeInt, Nullable: true},
		&schema.Column{Name: "respiratory_rate", Type: field.TypeInt, Nullable: true},
		&schema.Column{Name: "bp_systolic", Type: field.TypeInt, Nullable: true},
		&schema.Column{Name: "bp_diastolic", Type: field.TypeInt, Nullable: true},
		&schema.Column{Name: "blood_sugar", Type: field.TypeFloat64, Nullable: true},
		&schema.Column{Name: "spo2", Type: field.TypeInt, Nullable: true},
		&schema.Column{Name: "weight", Type: field.TypeFloat64, Nullable: true},
		textCol("consultation_notes", true),
		int64ArrayCol("diagnosis"),
		enumCol("finalized_state", true, FinalizedStates...),
		int64ArrayCol("associated_users"),
		timeCol("created_at", false),
		timeCol("updated_at", false),
	)

	PrescriptionsTable = table("prescriptions",
		idCol(),
		fkCol("case_id", false),
		fkCol("medicine_id", false),
		enumCol("category", false, MedicineCategories...),
		jsonbCol("dosage", false),
		timeCol("created_at", false),
	)
)

// ----------------------------------------------------------------------------
// Disclosure gate
// ----------------------------------------------------------------------------

var (
	OTPsTable = table("otps",
		idCol(),
		fkCol("doctor_id", false),
		fkCol("patient_id", false),
		strCol("otp_hash", false),
		timeCol("created_at", false),
		timeCol("expires_at", true),
	)

	OTPOverrideLogsTable = table("otp_override_logs",
		idCol(),
		fkCol("doctor_id", false),
		fkCol("patient_id", false),
		fkCol("case_id", false),
		textCol("reason", false),
		timeCol("created_at", false),
	)
)

// ----------------------------------------------------------------------------
// Lab and files
// ----------------------------------------------------------------------------

var (
	LabReportsTable = table("lab_reports",
		idCol(),
		fkCol("case_id", false),
		fkCol("test_id", false),
		strCol("type", false),
		enumCol("status", false, LabStatuses...),
		jsonbCol("data", true),
		timeCol("created_at", false),
		timeCol("updated_at", false),
	)

	FilesTable = table("files",
		idCol(),
		&schema.Column{Name: "object_key", Type: field.TypeString, Unique: true},
		textCol("url", false),
		strCol("name", false),
		strCol("content_type", false),
		&schema.Column{Name: "size", Type: field.TypeInt64},
		fkCol("uploaded_by", false),
		int64ArrayCol("allowed"),
		timeCol("created_at", false),
	)

	ReportFilesTable = &schema.Table{
		Name: "report_files",
		Columns: []*schema.Column{
			fkCol("report_id", false),
			fkCol("file_id", false),
		},
	}
)

// Tables lists every table in dependency order.
var Tables = []*schema.Table{
	StaffUsersTable,
	PatientsTable,
	StudentsTable,
	ProfessorsTable,
	DependentsTable,
	VisitorsTable,
	DiseasesTable,
	LabTestsTable,
	MedicinesTable,
	CasesTable,
	PrescriptionsTable,
	OTPsTable,
	OTPOverrideLogsTable,
	LabReportsTable,
	FilesTable,
	ReportFilesTable,
}

func col(t *schema.Table, name string) *schema.Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	panic("store: unknown column " + t.Name + "." + name)
}

func init() {
	ReportFilesTable.PrimaryKey = ReportFilesTable.Columns

	StudentsTable.ForeignKeys = []*schema.ForeignKey{fk("students_patient", col(StudentsTable, "patient_id"), PatientsTable)}
	ProfessorsTable.ForeignKeys = []*schema.ForeignKey{fk("professors_patient", col(ProfessorsTable, "patient_id"), PatientsTable)}
	DependentsTable.ForeignKeys = []*schema.ForeignKey{fk("dependents_patient", col(DependentsTable, "patient_id"), PatientsTable)}
	VisitorsTable.ForeignKeys = []*schema.ForeignKey{fk("visitors_patient", col(VisitorsTable, "patient_id"), PatientsTable)}

	DependentsTable.Indexes = []*schema.Index{
		{Name: "dependents_psrn", Columns: []*schema.Column{col(DependentsTable, "psrn")}},
	}

	CasesTable.ForeignKeys = []*schema.ForeignKey{fk("cases_patient", col(CasesTable, "patient_id"), PatientsTable)}
	CasesTable.Indexes = []*schema.Index{
		{Name: "cases_patient_id", Columns: []*schema.Column{col(CasesTable, "patient_id")}},
	}

	PrescriptionsTable.ForeignKeys = []*schema.ForeignKey{
		fk("prescriptions_case", col(PrescriptionsTable, "case_id"), CasesTable),
		fk("prescriptions_medicine", col(PrescriptionsTable, "medicine_id"), MedicinesTable),
	}

	// One live code per doctor/patient pair; issue upserts against it.
	OTPsTable.Indexes = []*schema.Index{
		{Name: "otps_doctor_id_patient_id", Unique: true, Columns: []*schema.Column{
			col(OTPsTable, "doctor_id"), col(OTPsTable, "patient_id"),
		}},
	}
	OTPsTable.ForeignKeys = []*schema.ForeignKey{
		fk("otps_doctor", col(OTPsTable, "doctor_id"), StaffUsersTable),
		fk("otps_patient", col(OTPsTable, "patient_id"), PatientsTable),
	}

	OTPOverrideLogsTable.ForeignKeys = []*schema.ForeignKey{
		fk("otp_override_logs_doctor", col(OTPOverrideLogsTable, "doctor_id"), StaffUsersTable),
		fk("otp_override_logs_patient", col(OTPOverrideLogsTable, "patient_id"), PatientsTable),
		fk("otp_override_logs_case", col(OTPOverrideLogsTable, "case_id"), CasesTable),
	}
	OTPOverrideLogsTable.Indexes = []*schema.Index{
		{Name: "otp_override_logs_created_at", Columns: []*schema.Column{col(OTPOverrideLogsTable, "created_at")}},
	}

	LabReportsTable.ForeignKeys = []*schema.ForeignKey{
		fk("lab_reports_case", col(LabReportsTable, "case_id"), CasesTable),
		fk("lab_reports_test", col(LabReportsTable, "test_id"), LabTestsTable),
	}
	LabReportsTable.Indexes = []*schema.Index{
		{Name: "lab_reports_status", Columns: []*schema.Column{col(LabReportsTable, "status")}},
		{Name: "lab_reports_case_id", Columns: []*schema.Column{col(LabReportsTable, "case_id")}},
	}

	FilesTable.ForeignKeys = []*schema.ForeignKey{fk("files_uploader", col(FilesTable, "uploaded_by"), StaffUsersTable)}

	ReportFilesTable.ForeignKeys = []*schema.ForeignKey{
		fk("report_files_report", col(ReportFilesTable, "report_id"), LabReportsTable),
		fk("report_files_file", col(ReportFilesTable, "file_id"), FilesTable),
	}
}
