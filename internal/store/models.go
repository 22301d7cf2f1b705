package store

import (
	"encoding/json"
	"slices"
	"time"
)

// ----------------------------------------------------------------------------
// Enumerations
// ----------------------------------------------------------------------------

type PatientType string

const (
	PatientStudent   PatientType = "student"
	PatientProfessor PatientType = "professor"
	PatientDependent PatientType = "dependent"
	PatientVisitor   PatientType = "visitor"
)

var PatientTypes = []string{
	string(PatientStudent), string(PatientProfessor), string(PatientDependent), string(PatientVisitor),
}

func (t PatientType) Valid() bool { return slices.Contains(PatientTypes, string(t)) }

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

var Sexes = []string{string(SexMale), string(SexFemale), string(SexOther)}

func (s Sex) Valid() bool { return slices.Contains(Sexes, string(s)) }

var StaffRoles = []string{"admin", "doctor", "nurse", "lab", "pharmacist"}

type FinalizedState string

const (
	FinalizedOPD      FinalizedState = "opd"
	FinalizedAdmitted FinalizedState = "admitted"
	FinalizedReferred FinalizedState = "referred"
)

var FinalizedStates = []string{string(FinalizedOPD), string(FinalizedAdmitted), string(FinalizedReferred)}

func (s FinalizedState) Valid() bool { return slices.Contains(FinalizedStates, string(s)) }

type LabStatus string

const (
	LabRequested       LabStatus = "requested"
	LabSampleCollected LabStatus = "sample_collected"
	LabComplete        LabStatus = "complete"
	LabDone            LabStatus = "done"
)

var LabStatuses = []string{
	string(LabRequested), string(LabSampleCollected), string(LabComplete), string(LabDone),
}

func (s LabStatus) Valid() bool { return slices.Contains(LabStatuses, string(s)) }

type MedicineCategory string

const (
	CategoryCapsuleTablet       MedicineCategory = "capsule_tablet"
	CategoryExternalApplication MedicineCategory = "external_application"
	CategoryInjection           MedicineCategory = "injection"
	CategoryLiquidSyrup         MedicineCategory = "liquid_syrup"
)

var MedicineCategories = []string{
	string(CategoryCapsuleTablet), string(CategoryExternalApplication),
	string(CategoryInjection), string(CategoryLiquidSyrup),
}

func (c MedicineCategory) Valid() bool { return slices.Contains(MedicineCategories, string(c)) }

// ----------------------------------------------------------------------------
// Rows
// ----------------------------------------------------------------------------

type StaffUser struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Patient struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Type      PatientType `json:"type"`
	Age       int         `json:"age"`
	Sex       Sex         `json:"sex"`
	CreatedAt time.Time   `json:"created_at"`
}

// Contact is the type-specific record attached to a patient. Only the fields
// relevant to the patient type are set.
type Contact struct {
	RollNo   string `json:"roll_no,omitempty"`
	PSRN     string `json:"psrn,omitempty"`
	Relation string `json:"relation,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

type PatientWithContact struct {
	Patient
	Contact Contact `json:"contact"`
}

type Vitals struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	HeartRate       *int     `json:"heart_rate,omitempty"`
	RespiratoryRate *int     `json:"respiratory_rate,omitempty"`
	BPSystolic      *int     `json:"bp_systolic,omitempty"`
	BPDiastolic     *int     `json:"bp_diastolic,omitempty"`
	BloodSugar      *float64 `json:"blood_sugar,omitempty"`
	SpO2            *int     `json:"spo2,omitempty"`
	Weight          *float64 `json:"weight,omitempty"`
}

type Case struct {
	ID                int64           `json:"id"`
	Token             int64           `json:"token"`
	PatientID         int64           `json:"patient_id"`
	Vitals            Vitals          `json:"vitals"`
	ConsultationNotes *string         `json:"consultation_notes,omitempty"`
	Diagnosis         []int64         `json:"diagnosis"`
	FinalizedState    *FinalizedState `json:"finalized_state,omitempty"`
	AssociatedUsers   []int64         `json:"associated_users"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (c *Case) IsFinalized() bool { return c.FinalizedState != nil }

func (c *Case) IsAssociated(userID int64) bool { return slices.Contains(c.AssociatedUsers, userID) }

// PrimaryDoctor is the first associated user, the doctor the case was
// opened for.
func (c *Case) PrimaryDoctor() (int64, bool) {
	if len(c.AssociatedUsers) == 0 {
		return 0, false
	}
	return c.AssociatedUsers[0], true
}

type Disease struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

type LabTest struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	IsActive bool   `json:"is_active"`
}

type Medicine struct {
	ID       int64            `json:"id"`
	Name     string           `json:"name"`
	Category MedicineCategory `json:"category"`
	IsActive bool             `json:"is_active"`
}

type OTP struct {
	ID        int64
	DoctorID  int64
	PatientID int64
	Hash      string
	CreatedAt time.Time
	ExpiresAt *time.Time
}

// Expired reports whether the code is past its expiry at now. Codes without
// an expiry never expire.
func (o *OTP) Expired(now time.Time) bool {
	return o.ExpiresAt != nil && !now.Before(*o.ExpiresAt)
}

type OverrideLog struct {
	ID        int64     `json:"id"`
	DoctorID  int64     `json:"doctor_id"`
	PatientID int64     `json:"patient_id"`
	CaseID    int64     `json:"case_id"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

type LabReport struct {
	ID        int64           `json:"id"`
	CaseID    int64           `json:"case_id"`
	TestID    int64           `json:"test_id"`
	Type      string          `json:"type"`
	Status    LabStatus       `json:"status"`
	Data      json.RawMessage `json:"data,omitempty"`
	FileIDs   []int64         `json:"file_ids"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type File struct {
	ID          int64     `json:"id"`
	ObjectKey   string    `json:"-"`
	URL         string    `json:"-"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedBy  int64     `json:"uploaded_by"`
	Allowed     []int64   `json:"allowed"`
	CreatedAt   time.Time `json:"created_at"`
}

func (f *File) IsAllowed(userID int64) bool { return slices.Contains(f.Allowed, userID) }

type Prescription struct {
	ID         int64            `json:"id"`
	CaseID     int64            `json:"case_id"`
	MedicineID int64            `json:"medicine_id"`
	Category   MedicineCategory `json:"category"`
	Dosage     json.RawMessage  `json:"dosage"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Page is an offset page request.
type Page struct {
	Limit  int
	Offset int
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
