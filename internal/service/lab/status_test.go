package lab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/medcenter_backend/internal/store"
)

func TestNextStatus(t *testing.T) {
	cases := []struct {
		name      string
		current   store.LabStatus
		desired   store.LabStatus
		remaining int
		want      store.LabStatus
		err       error
	}{
		{"collect sample", store.LabRequested, store.LabSampleCollected, 0, store.LabSampleCollected, nil},
		{"collect and attach", store.LabRequested, store.LabSampleCollected, 1, store.LabComplete, nil},
		{"attach on requested completes", store.LabRequested, "", 1, store.LabComplete, nil},
		{"attach asking complete on requested", store.LabRequested, store.LabComplete, 2, store.LabComplete, nil},
		{"no-op on requested", store.LabRequested, "", 0, store.LabRequested, nil},
		{"complete without files on requested", store.LabRequested, store.LabComplete, 0, store.LabRequested, nil},
		{"first file completes", store.LabSampleCollected, "", 1, store.LabComplete, nil},
		{"keep files stays complete", store.LabComplete, store.LabComplete, 3, store.LabComplete, nil},
		{"remove all demotes", store.LabComplete, "", 0, store.LabSampleCollected, nil},
		{"remove all never requested", store.LabComplete, store.LabComplete, 0, store.LabSampleCollected, nil},
		{"reset from complete", store.LabComplete, store.LabRequested, 0, store.LabRequested, nil},
		{"reset refuses adds", store.LabSampleCollected, store.LabRequested, 1, "", ErrSampleNotCollected},
		{"done is terminal", store.LabDone, store.LabRequested, 0, "", ErrReportFinalized},
		{"done not reachable here", store.LabComplete, store.LabDone, 1, "", ErrInvalidStatus},
		{"unknown status", store.LabComplete, "lost", 1, "", ErrInvalidStatus},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NextStatus(tc.current, tc.desired, tc.remaining)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
