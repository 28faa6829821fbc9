package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-system/internal/parking"
)

func TestLotCollector(t *testing.T) {
	ts := newTestServer(t, parking.SlotsCompact)
	collector := NewLotCollector(ts.session)

	assert.Equal(t, 0, testutil.CollectAndCount(collector), "nothing before a lot exists")

	ctx := context.Background()
	require.NoError(t, ts.session.Create(ctx, 3))
	require.NoError(t, ts.session.Update(func(lot *parking.InstrumentedParkingLot) error {
		if _, err := lot.Park(ctx, "KA-01-AA-1111", "Swift", "white"); err != nil {
			return err
		}
		_, err := lot.Park(ctx, "KA-01-BB-2222", "swift", "black")
		return err
	}))

	expected := `
# HELP parking_lot_capacity Total number of slots in the active parking lot.
# TYPE parking_lot_capacity gauge
parking_lot_capacity 3
# HELP parking_lot_occupied_slots Number of occupied slots in the active parking lot.
# TYPE parking_lot_occupied_slots gauge
parking_lot_occupied_slots 2
# HELP parking_lot_vehicles Parked vehicles by lower-cased type.
# TYPE parking_lot_vehicles gauge
parking_lot_vehicles{type="swift"} 2
`
	require.NoError(t, testutil.CollectAndCompare(collector, strings.NewReader(expected)))
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, parking.SlotsCompact)
	ts.do(t, http.MethodPost, "/api/parking-lot", `{"capacity":2}`)
	ts.do(t, http.MethodGet, "/api/parking-lot/find/KA-01-HH-1234", "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Contains(t, text, "parking_lot_capacity 2")
	assert.Contains(t, text, `http_requests_total{method="POST",route="/api/parking-lot`)
	assert.Contains(t, text, `http_requests_total{method="GET",route="/api/parking-lot/find/{registration}",status="404"} 1`)
}
