package clinical

import (
	"fmt"

	"github.com/Alijeyrad/medcenter_backend/internal/store"
)

// Accepted vitals ranges. Temperature is in Fahrenheit, blood sugar in
// mg/dL and weight in kg.
var (
	temperatureRange     = [2]float64{90, 110}
	bloodSugarRange      = [2]float64{20, 600}
	weightRange          = [2]float64{0.5, 350}
	heartRateRange       = [2]int{20, 250}
	respiratoryRateRange = [2]int{4, 60}
	systolicRange        = [2]int{50, 260}
	diastolicRange       = [2]int{30, 160}
	spo2Range            = [2]int{50, 100}
)

func inRange[T int | float64](name string, v *T, r [2]T) error {
	if v == nil {
		return nil
	}
	if *v < r[0] || *v > r[1] {
		return fmt.Errorf("%w: %s %v outside [%v, %v]", ErrInvalidVitals, name, *v, r[0], r[1])
	}
	return nil
}

// ValidateVitals checks every recorded reading. Missing readings are allowed.
func ValidateVitals(v store.Vitals) error {
	if err := firstErr(
		inRange("temperature", v.Temperature, temperatureRange),
		inRange("heart_rate", v.HeartRate, heartRateRange),
		inRange("respiratory_rate", v.RespiratoryRate, respiratoryRateRange),
		inRange("bp_systolic", v.BPSystolic, systolicRange),
		inRange("bp_diastolic", v.BPDiastolic, diastolicRange),
		inRange("blood_sugar", v.BloodSugar, bloodSugarRange),
		inRange("spo2", v.SpO2, spo2Range),
		inRange("weight", v.Weight, weightRange),
	); err != nil {
		return err
	}
	if (v.BPSystolic == nil) != (v.BPDiastolic == nil) {
		return fmt.Errorf("%w: blood pressure needs both systolic and diastolic", ErrInvalidVitals)
	}
	if v.BPSystolic != nil && *v.BPDiastolic >= *v.BPSystolic {
		return fmt.Errorf("%w: diastolic must be below systolic", ErrInvalidVitals)
	}
	return nil
}
