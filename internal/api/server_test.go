package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fedreg/ecfr-tracker/internal/scheduler"
	"github.com/fedreg/ecfr-tracker/internal/storage/memory"
	"github.com/fedreg/ecfr-tracker/internal/tracker"
)

type fakeClock struct {
	now time.Time
}

func (c fakeClock) Now() time.Time {
	return c.now
}

type fakeRefresh struct {
	triggered int
	status    scheduler.Status
}

func (f *fakeRefresh) Trigger() {
	f.triggered++
}

func (f *fakeRefresh) Status() scheduler.Status {
	return f.status
}

func testSnapshot() tracker.Snapshot {
	return tracker.Snapshot{
		Agencies: []tracker.AgencyRecord{
			{
				Name:             "Public Health",
				Code:             "HHS",
				RegulationSizeMB: 120.5,
				LastUpdated:      "2026-03-01T02:10:00Z",
				Titles: []tracker.TitleRollup{
					{TitleNumber: 42, TitleName: "Public Health", SizeMB: 80.5},
					{TitleNumber: 45, TitleName: "Public Welfare", SizeMB: 40.0},
				},
			},
			{
				Name:             "Protection of Environment",
				Code:             "EPA",
				RegulationSizeMB: 45.0,
				LastUpdated:      "2026-03-01T02:10:00Z",
				Titles: []tracker.TitleRollup{
					{TitleNumber: 40, TitleName: "Protection of Environment", SizeMB: 45.0},
				},
			},
		},
		TotalAgencies:        2,
		TotalSizeMB:          165.5,
		LastSync:             "2026-03-01T02:10:00Z",
		FetchDurationSeconds: 42.1,
	}
}

func newTestServer(t *testing.T, snap *tracker.Snapshot) (*Server, *fakeRefresh) {
	t.Helper()
	store := memory.NewStore()
	if snap != nil {
		require.NoError(t, store.Publish(context.Background(), *snap))
	}
	refresh := &fakeRefresh{
		status: scheduler.Status{
			Running: false,
			Jobs: []scheduler.JobInfo{
				{ID: "daily_data_update", Name: "Daily eCFR data update", NextRunTime: "2026-03-02T02:00:00Z"},
			},
		},
	}
	clock := fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewServer(store, refresh, clock, zap.NewNop()), refresh
}

func doRequest(srv *Server, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth_HealthyWithSnapshot(t *testing.T) {
	t.Parallel()

	snap := testSnapshot()
	srv, _ := newTestServer(t, &snap)
	rec := doRequest(srv, http.MethodGet, "/health")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "healthy", body["status"])
	require.Equal(t, Version, body["version"])
	require.Equal(t, "2026-03-01T02:10:00Z", body["last_data_update"])
	require.Equal(t, "2026-03-01T12:00:00Z", body["timestamp"])
}

func TestHealth_DegradedWithoutSnapshot(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, nil)
	rec := doRequest(srv, http.MethodGet, "/health")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "degraded", body["status"])
	require.Nil(t, body["last_data_update"])
}

func TestGetAgencies_ReturnsFullSnapshot(t *testing.T) {
	t.Parallel()

	snap := testSnapshot()
	srv, _ := newTestServer(t, &snap)
	rec := doRequest(srv, http.MethodGet, "/api/agencies")

	require.Equal(t, http.StatusOK, rec.Code)
	var got tracker.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, snap, got)
}

func TestGetAgencies_UnavailableWithoutSnapshot(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, nil)
	rec := doRequest(srv, http.MethodGet, "/api/agencies")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "Data not available")
}

func TestGetAgency_CaseInsensitiveLookup(t *testing.T) {
	t.Parallel()

	snap := testSnapshot()
	srv, _ := newTestServer(t, &snap)

	for _, code := range []string{"EPA", "epa", "Epa"} {
		rec := doRequest(srv, http.MethodGet, "/api/agencies/"+code)
		require.Equal(t, http.StatusOK, rec.Code, "code %q", code)

		var got tracker.AgencyRecord
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Equal(t, "EPA", got.Code)
		require.InDelta(t, 45.0, got.RegulationSizeMB, 0.001)
	}
}

func TestGetAgency_NotFound(t *testing.T) {
	t.Parallel()

	snap := testSnapshot()
	srv, _ := newTestServer(t, &snap)
	rec := doRequest(srv, http.MethodGet, "/api/agencies/NOPE")

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "NOPE")
}

func TestGetStats(t *testing.T) {
	t.Parallel()

	snap := testSnapshot()
	srv, _ := newTestServer(t, &snap)
	rec := doRequest(srv, http.MethodGet, "/api/stats")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		TotalAgencies int                   `json:"total_agencies"`
		TotalSizeMB   float64               `json:"total_size_mb"`
		Largest       *tracker.AgencyRecord `json:"largest_agency"`
		Smallest      *tracker.AgencyRecord `json:"smallest_agency"`
		AverageSizeMB float64               `json:"average_size_mb"`
		LastSync      string                `json:"last_sync"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 2, body.TotalAgencies)
	require.InDelta(t, 165.5, body.TotalSizeMB, 0.001)
	require.Equal(t, "HHS", body.Largest.Code)
	require.Equal(t, "EPA", body.Smallest.Code)
	require.InDelta(t, 82.75, body.AverageSizeMB, 0.001)
	require.Equal(t, snap.LastSync, body.LastSync)
}

func TestTriggerRefresh_FireAndForget(t *testing.T) {
	t.Parallel()

	srv, refresh := newTestServer(t, nil)
	rec := doRequest(srv, http.MethodPost, "/api/refresh")

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, 1, refresh.triggered)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "processing", body["status"])
	require.Equal(t, "Data refresh triggered", body["message"])
	require.NotEmpty(t, body["timestamp"])
}

func TestSchedulerStatus(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, nil)
	rec := doRequest(srv, http.MethodGet, "/api/scheduler/status")

	require.Equal(t, http.StatusOK, rec.Code)
	var st scheduler.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	require.False(t, st.Running)
	require.Len(t, st.Jobs, 1)
	require.Equal(t, "daily_data_update", st.Jobs[0].ID)
}

func TestDashboard(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, nil)
	rec := doRequest(srv, http.MethodGet, "/")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	require.Contains(t, rec.Body.String(), "eCFR Regulations API")
}

func TestRequestIDHeaderSet(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, nil)
	rec := doRequest(srv, http.MethodGet, "/health")

	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
