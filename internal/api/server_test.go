package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/groundview/internal/observability"
	"github.com/signalsfoundry/groundview/model"
	"github.com/signalsfoundry/groundview/scene"
)

func newTestServer(t *testing.T) (*Server, *scene.Store) {
	t.Helper()

	store := scene.NewStore(model.PanelConfig{RadiusPx: 140, SatellitePeriodS: 20, CloudPeriodS: 120})
	store.SetMetrics([]model.MetricEntry{
		{Label: "Uplink Integrity", Value: "99.97%"},
		{Label: "Open Alerts", Value: "3"},
	})
	store.SetLogs([]model.LogEntry{{Time: "04:12:09", Text: "Link budget nominal"}})
	if err := store.AddToggle(model.Toggle{ID: "redaction", Label: "Redaction", Default: true}); err != nil {
		t.Fatalf("AddToggle: %v", err)
	}
	if err := store.AddToggle(model.Toggle{ID: "geo-fence", Label: "Geo-Fence", Default: false}); err != nil {
		t.Fatalf("AddToggle: %v", err)
	}

	collector, err := observability.NewConsoleCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewConsoleCollector: %v", err)
	}
	srv, err := NewServer(Config{}, store, nil, collector, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv, store
}

func do(t *testing.T, srv *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	srv.HTTPServer().Handler.ServeHTTP(rec, req)
	return rec
}

func TestDashboardRendersScene(t *testing.T) {
	srv, store := newTestServer(t)
	store.PublishFrame(model.SatelliteState{AngleDeg: 90, X: 0, Y: 140}, 0)

	rec := do(t, srv, http.MethodGet, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{"Uplink Integrity", "Link budget nominal", "Redaction", `translate(0 -140)`} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestSceneSnapshotEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/v1/scene")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var snap model.SceneSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Panel.RadiusPx != 140 || snap.Panel.SatellitePeriodS != 20 {
		t.Fatalf("panel = %+v", snap.Panel)
	}
	if len(snap.Metrics) != 2 || len(snap.Logs) != 1 || len(snap.Toggles) != 2 {
		t.Fatalf("snapshot counts = %d/%d/%d", len(snap.Metrics), len(snap.Logs), len(snap.Toggles))
	}
}

func TestToggleFlipEndpoint(t *testing.T) {
	srv, store := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/v1/toggles/redaction")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		ID string `json:"id"`
		On bool   `json:"on"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != "redaction" || resp.On != false {
		t.Fatalf("resp = %+v, want redaction flipped off", resp)
	}

	tog, err := store.Toggle("redaction")
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if tog.On {
		t.Fatal("store toggle should be off after one flip")
	}

	other, _ := store.Toggle("geo-fence")
	if other.On {
		t.Fatal("flipping one toggle must not affect another")
	}
}

func TestToggleFlipUnknownID(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/v1/toggles/nonsense")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestTogglesListEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/v1/toggles")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Toggles []model.Toggle `json:"toggles"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Toggles) != 2 || resp.Toggles[0].ID != "redaction" {
		t.Fatalf("toggles = %+v", resp.Toggles)
	}
}

func TestHealthAndReadiness(t *testing.T) {
	srv, _ := newTestServer(t)

	if rec := do(t, srv, http.MethodGet, "/healthz"); rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d, want 200", rec.Code)
	}
	if rec := do(t, srv, http.MethodGet, "/readyz"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz before SetReady = %d, want 503", rec.Code)
	}
	srv.SetReady(true)
	if rec := do(t, srv, http.MethodGet, "/readyz"); rec.Code != http.StatusOK {
		t.Fatalf("readyz after SetReady = %d, want 200", rec.Code)
	}
}

func TestStaticAssets(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/static/app.js")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "EventSource") {
		t.Fatal("app.js content not served")
	}
	// The client must apply both streamed message kinds, not just frames.
	for _, want := range []string{`msg.type === "frame"`, `msg.type === "toggle"`} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("app.js missing handler branch %s", want)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	// Exercise a route first so the request counter has a sample.
	do(t, srv, http.MethodGet, "/healthz")

	rec := do(t, srv, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "console_http_requests_total") {
		t.Fatal("metrics output missing console_http_requests_total")
	}
}
