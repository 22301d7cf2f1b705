package clinical

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Alijeyrad/medcenter_backend/internal/store"
)

// Dosage is one of CapsuleTablet, ExternalApplication, Injection or
// LiquidSyrup.
type Dosage interface {
	Category() store.MedicineCategory
	sealed()
}

type CapsuleTablet struct {
	Count       int  `json:"count"`
	TimesPerDay int  `json:"times_per_day"`
	Days        int  `json:"days"`
	AfterMeal   bool `json:"after_meal"`
}

type ExternalApplication struct {
	Area        string `json:"area"`
	TimesPerDay int    `json:"times_per_day"`
	Days        int    `json:"days"`
}

type InjectionRoute string

const (
	RouteIV InjectionRoute = "iv"
	RouteIM InjectionRoute = "im"
	RouteSC InjectionRoute = "sc"
)

type Injection struct {
	DoseML      float64        `json:"dose_ml"`
	Route       InjectionRoute `json:"route"`
	TimesPerDay int            `json:"times_per_day"`
	Days        int            `json:"days"`
}

type LiquidSyrup struct {
	DoseML      float64 `json:"dose_ml"`
	TimesPerDay int     `json:"times_per_day"`
	Days        int     `json:"days"`
}

func (CapsuleTablet) Category() store.MedicineCategory { return store.CategoryCapsuleTablet }
func (ExternalApplication) Category() store.MedicineCategory {
	return store.CategoryExternalApplication
}
func (Injection) Category() store.MedicineCategory   { return store.CategoryInjection }
func (LiquidSyrup) Category() store.MedicineCategory { return store.CategoryLiquidSyrup }

func (CapsuleTablet) sealed()       {}
func (ExternalApplication) sealed() {}
func (Injection) sealed()           {}
func (LiquidSyrup) sealed()         {}

// DecodeDosage picks the variant from category and decodes raw into it.
// Unknown fields are rejected.
func DecodeDosage(category store.MedicineCategory, raw json.RawMessage) (Dosage, error) {
	var (
		d   Dosage
		err error
	)
	switch category {
	case store.CategoryCapsuleTablet:
		var v CapsuleTablet
		err = strictDecode(raw, &v)
		d = v
	case store.CategoryExternalApplication:
		var v ExternalApplication
		err = strictDecode(raw, &v)
		d = v
	case store.CategoryInjection:
		var v Injection
		err = strictDecode(raw, &v)
		d = v
	case store.CategoryLiquidSyrup:
		var v LiquidSyrup
		err = strictDecode(raw, &v)
		d = v
	default:
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidPrescription, category)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s dosage: %v", ErrInvalidPrescription, category, err)
	}
	return d, nil
}

func strictDecode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("dosage is required")
	}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func positive(name string, v int) error {
	if v <= 0 {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidPrescription, name)
	}
	return nil
}

// ValidateDosage checks the per-variant field rules.
func ValidateDosage(d Dosage) error {
	switch v := d.(type) {
	case CapsuleTablet:
		return firstErr(positive("count", v.Count), positive("times_per_day", v.TimesPerDay), positive("days", v.Days))
	case ExternalApplication:
		if strings.TrimSpace(v.Area) == "" {
			return fmt.Errorf("%w: area is required", ErrInvalidPrescription)
		}
		return firstErr(positive("times_per_day", v.TimesPerDay), positive("days", v.Days))
	case Injection:
		if v.DoseML <= 0 {
			return fmt.Errorf("%w: dose_ml must be positive", ErrInvalidPrescription)
		}
		switch v.Route {
		case RouteIV, RouteIM, RouteSC:
		default:
			return fmt.Errorf("%w: route must be iv, im or sc", ErrInvalidPrescription)
		}
		return firstErr(positive("times_per_day", v.TimesPerDay), positive("days", v.Days))
	case LiquidSyrup:
		if v.DoseML <= 0 {
			return fmt.Errorf("%w: dose_ml must be positive", ErrInvalidPrescription)
		}
		return firstErr(positive("times_per_day", v.TimesPerDay), positive("days", v.Days))
	case nil:
		return fmt.Errorf("%w: dosage is required", ErrInvalidPrescription)
	default:
		return fmt.Errorf("%w: unsupported dosage %T", ErrInvalidPrescription, d)
	}
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Prescription
// ---------------------------------------------------------------------------

type Prescription struct {
	ID         int64
	CaseID     int64
	MedicineID int64
	Dosage     Dosage
	CreatedAt  time.Time
}

type prescriptionJSON struct {
	ID         int64                  `json:"id,omitempty"`
	CaseID     int64                  `json:"case_id,omitempty"`
	MedicineID int64                  `json:"medicine_id"`
	Category   store.MedicineCategory `json:"category"`
	Dosage     json.RawMessage        `json:"dosage"`
	CreatedAt  *time.Time             `json:"created_at,omitempty"`
}

func (p Prescription) MarshalJSON() ([]byte, error) {
	if p.Dosage == nil {
		return nil, fmt.Errorf("%w: dosage is required", ErrInvalidPrescription)
	}
	dosage, err := json.Marshal(p.Dosage)
	if err != nil {
		return nil, err
	}
	out := prescriptionJSON{
		ID:         p.ID,
		CaseID:     p.CaseID,
		MedicineID: p.MedicineID,
		Category:   p.Dosage.Category(),
		Dosage:     dosage,
	}
	if !p.CreatedAt.IsZero() {
		out.CreatedAt = &p.CreatedAt
	}
	return json.Marshal(out)
}

func (p *Prescription) UnmarshalJSON(b []byte) error {
	var in prescriptionJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	d, err := DecodeDosage(in.Category, in.Dosage)
	if err != nil {
		return err
	}
	*p = Prescription{ID: in.ID, CaseID: in.CaseID, MedicineID: in.MedicineID, Dosage: d}
	if in.CreatedAt != nil {
		p.CreatedAt = *in.CreatedAt
	}
	return nil
}

// toRow encodes p for the prescriptions table.
func (p Prescription) toRow(caseID int64) (store.Prescription, error) {
	dosage, err := json.Marshal(p.Dosage)
	if err != nil {
		return store.Prescription{}, fmt.Errorf("encode dosage: %w", err)
	}
	return store.Prescription{
		CaseID:     caseID,
		MedicineID: p.MedicineID,
		Category:   p.Dosage.Category(),
		Dosage:     dosage,
	}, nil
}

// fromRow decodes a prescriptions row.
func fromRow(r store.Prescription) (Prescription, error) {
	d, err := DecodeDosage(r.Category, r.Dosage)
	if err != nil {
		return Prescription{}, err
	}
	return Prescription{ID: r.ID, CaseID: r.CaseID, MedicineID: r.MedicineID, Dosage: d, CreatedAt: r.CreatedAt}, nil
}
