package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Alijeyrad/medcenter_backend/pkg/database"
)

// Default catalog rows loaded by `system migrate` when seeding is enabled.
var (
	DefaultDiseases = []Disease{
		{Name: "Acute upper respiratory infection", Code: "J06.9"},
		{Name: "Essential hypertension", Code: "I10"},
		{Name: "Type 2 diabetes mellitus", Code: "E11.9"},
		{Name: "Gastroenteritis", Code: "A09"},
		{Name: "Migraine", Code: "G43.9"},
		{Name: "Viral fever", Code: "A99"},
		{Name: "Allergic rhinitis", Code: "J30.4"},
		{Name: "Low back pain", Code: "M54.5"},
	}

	DefaultLabTests = []LabTest{
		{Name: "Complete blood count", Category: "haematology", IsActive: true},
		{Name: "Fasting blood sugar", Category: "biochemistry", IsActive: true},
		{Name: "Lipid profile", Category: "biochemistry", IsActive: true},
		{Name: "Liver function test", Category: "biochemistry", IsActive: true},
		{Name: "Urine routine", Category: "pathology", IsActive: true},
		{Name: "Chest X-ray", Category: "radiology", IsActive: true},
	}

	DefaultMedicines = []Medicine{
		{Name: "Paracetamol 500mg", Category: CategoryCapsuleTablet, IsActive: true},
		{Name: "Amoxicillin 500mg", Category: CategoryCapsuleTablet, IsActive: true},
		{Name: "Cetirizine 10mg", Category: CategoryCapsuleTablet, IsActive: true},
		{Name: "Povidone iodine ointment", Category: CategoryExternalApplication, IsActive: true},
		{Name: "Diclofenac gel", Category: CategoryExternalApplication, IsActive: true},
		{Name: "Ondansetron 4mg/2ml", Category: CategoryInjection, IsActive: true},
		{Name: "Ceftriaxone 1g", Category: CategoryInjection, IsActive: true},
		{Name: "Dextromethorphan syrup", Category: CategoryLiquidSyrup, IsActive: true},
		{Name: "ORS solution", Category: CategoryLiquidSyrup, IsActive: true},
	}
)

// SeedCatalog inserts the default catalogs, leaving existing names alone.
// It returns the number of rows inserted.
func SeedCatalog(ctx context.Context, db database.TxBeginner) (int, error) {
	inserted := 0
	err := database.InTx(ctx, db, func(tx pgx.Tx) error {
		b := &pgx.Batch{}
		for _, d := range DefaultDiseases {
			b.Queue(`INSERT INTO diseases (name, code) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`, d.Name, d.Code)
		}
		for _, t := range DefaultLabTests {
			b.Queue(`INSERT INTO lab_tests (name, category, is_active) VALUES ($1, $2, $3) ON CONFLICT (name) DO NOTHING`,
				t.Name, t.Category, t.IsActive)
		}
		for _, m := range DefaultMedicines {
			b.Queue(`INSERT INTO medicines (name, category, is_active) VALUES ($1, $2, $3) ON CONFLICT (name) DO NOTHING`,
				m.Name, string(m.Category), m.IsActive)
		}

		br := tx.SendBatch(ctx, b)
		for range b.Len() {
			tag, err := br.Exec()
			if err != nil {
				_ = br.Close()
				return fmt.Errorf("seed catalog: %w", err)
			}
			inserted += int(tag.RowsAffected())
		}
		return br.Close()
	})
	return inserted, err
}
