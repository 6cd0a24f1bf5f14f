package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cryptbill/cryptbill/internal/application/invoice/usecases"
)

func TestRenderSweepReport(t *testing.T) {
	out := RenderSweepReport(&usecases.SweepReport{
		Checked:      3,
		Confirmed:    1,
		StillPending: 1,
		Failed:       1,
		Duration:     1234 * time.Microsecond,
		Failures: []usecases.SweepFailure{
			{InvoiceID: "inv_timeout", Error: "oracle unavailable", Retryable: true},
		},
	})

	assert.Contains(t, out, "Payment sweep")
	assert.Contains(t, out, "confirmed")
	assert.Contains(t, out, "inv_timeout")
	assert.Contains(t, out, "retry")
	assert.Contains(t, out, "1ms")
}

func TestRenderSpawnReport(t *testing.T) {
	out := RenderSpawnReport(&usecases.SpawnReport{
		Scanned:    2,
		Spawned:    1,
		NotDue:     1,
		SpawnedIDs: []string{"inv_next"},
		Failures:   []usecases.SpawnFailure{{SeriesID: "inv_head", Error: "no address configured"}},
	})

	assert.Contains(t, out, "Invoice recurrence")
	assert.Contains(t, out, "inv_next")
	assert.Contains(t, out, "inv_head")
	assert.Contains(t, out, "no address configured")
}
