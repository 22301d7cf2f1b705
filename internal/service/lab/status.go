package lab

import (
	"fmt"

	"github.com/Alijeyrad/medcenter_backend/internal/store"
)

// NextStatus returns the status a report moves to when a save leaves it with
// remaining attached files and the lab asked for desired.
//
//	done                          terminal
//	desired requested             reset; every attachment goes, adds are refused
//	remaining > 0                 complete, from requested too
//	requested, no files           stays requested unless the sample is collected
//	remaining = 0                 sample_collected
//
// An empty desired lets the attachment count decide.
func NextStatus(current, desired store.LabStatus, remaining int) (store.LabStatus, error) {
	if current == store.LabDone {
		return "", ErrReportFinalized
	}
	if desired != "" && (!desired.Valid() || desired == store.LabDone) {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, desired)
	}

	switch {
	case desired == store.LabRequested:
		if remaining > 0 {
			return "", ErrSampleNotCollected
		}
		return store.LabRequested, nil
	case remaining > 0:
		return store.LabComplete, nil
	case current == store.LabRequested && desired != store.LabSampleCollected:
		return store.LabRequested, nil
	default:
		return store.LabSampleCollected, nil
	}
}
