package view

import (
	"bytes"
	"strings"
	"testing"

	"github.com/signalsfoundry/groundview/model"
)

func testSnapshot() model.SceneSnapshot {
	return model.SceneSnapshot{
		Panel:     model.PanelConfig{RadiusPx: 140, SatellitePeriodS: 20, CloudPeriodS: 120},
		Satellite: model.SatelliteState{AngleDeg: 90, X: 0, Y: 140},
		CloudDeg:  15,
		Metrics: []model.MetricEntry{
			{Label: "Uplink Integrity", Value: "99.97%"},
			{Label: "Active Policies", Value: "12"},
			{Label: "Data Streams", Value: "48"},
			{Label: "Open Alerts", Value: "3"},
		},
		Logs: []model.LogEntry{
			{Time: "04:12:09", Text: "Pass scheduled over ground station 7"},
			{Time: "04:13:44", Text: "Telemetry frame checksum verified"},
			{Time: "04:15:02", Text: "Policy snapshot exported to archive"},
			{Time: "04:17:31", Text: "Ground antenna slew complete"},
			{Time: "04:19:58", Text: "Next downlink window opens in 00:41"},
		},
		Toggles: []model.Toggle{
			{ID: "redaction", Label: "Redaction", On: true},
			{ID: "geo-fence", Label: "Geo-Fence", On: false},
		},
	}
}

func render(t *testing.T, snap model.SceneSnapshot) string {
	t.Helper()
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	var buf bytes.Buffer
	if err := r.RenderDashboard(&buf, snap); err != nil {
		t.Fatalf("RenderDashboard: %v", err)
	}
	return buf.String()
}

func TestRenderMetricsCountAndOrder(t *testing.T) {
	out := render(t, testSnapshot())

	if got := strings.Count(out, `class="metric-cell"`); got != 4 {
		t.Fatalf("rendered %d metric cells, want 4", got)
	}

	// Literal insertion order: each label appears after the previous one.
	labels := []string{"Uplink Integrity", "Active Policies", "Data Streams", "Open Alerts"}
	last := -1
	for _, label := range labels {
		idx := strings.Index(out, label)
		if idx < 0 {
			t.Fatalf("metric %q missing from output", label)
		}
		if idx < last {
			t.Fatalf("metric %q rendered out of order", label)
		}
		last = idx
	}
}

func TestRenderLogsCountAndOrder(t *testing.T) {
	out := render(t, testSnapshot())

	if got := strings.Count(out, `class="log-entry"`); got != 5 {
		t.Fatalf("rendered %d log entries, want 5", got)
	}

	times := []string{"04:12:09", "04:13:44", "04:15:02", "04:17:31", "04:19:58"}
	last := -1
	for _, ts := range times {
		idx := strings.Index(out, ts)
		if idx < 0 {
			t.Fatalf("log time %q missing from output", ts)
		}
		if idx < last {
			t.Fatalf("log %q rendered out of order", ts)
		}
		last = idx
	}
}

func TestRenderToggles(t *testing.T) {
	out := render(t, testSnapshot())

	if got := strings.Count(out, `data-toggle-id=`); got != 2 {
		t.Fatalf("rendered %d toggles, want 2", got)
	}
	if !strings.Contains(out, `data-toggle-id="redaction"`) {
		t.Error("redaction toggle missing")
	}
	// The on toggle carries the on class and ON text; the off one does not.
	if !strings.Contains(out, "policy-toggle policy-toggle-on") {
		t.Error("on toggle missing its on state class")
	}
	if got := strings.Count(out, ">ON<"); got != 1 {
		t.Errorf("rendered %d ON states, want 1", got)
	}
	if got := strings.Count(out, ">OFF<"); got != 1 {
		t.Errorf("rendered %d OFF states, want 1", got)
	}
}

func TestRenderSatellitePlacement(t *testing.T) {
	out := render(t, testSnapshot())

	// At 90° the marker sits at (0, 140) in panel coordinates, which is
	// (0, -140) on screen.
	if !strings.Contains(out, `transform="translate(0 -140)"`) {
		t.Fatal("satellite marker not placed at the mapped position")
	}
	if !strings.Contains(out, `rotate(15)`) {
		t.Fatal("cloud band rotation missing")
	}
}

func TestRenderFixedRegions(t *testing.T) {
	out := render(t, testSnapshot())

	for _, want := range []string{
		"Apply Changes",
		"Simulate",
		"Pause Orbit",
		"Emergency Halt",
		`class="overlay-ring"`,
		`class="overlay-radial"`,
		`class="orbit-ring"`,
		`id="cloud-band"`,
		`class="console-footer"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered page missing %q", want)
		}
	}

	if got := strings.Count(out, `class="overlay-ring"`); got != 3 {
		t.Errorf("rendered %d overlay rings, want 3", got)
	}
	if got := strings.Count(out, `class="overlay-radial"`); got != 6 {
		t.Errorf("rendered %d radial lines, want 6", got)
	}
}

func TestRenderEmptyArrays(t *testing.T) {
	snap := testSnapshot()
	snap.Metrics = nil
	snap.Logs = nil
	snap.Toggles = nil

	out := render(t, snap)
	if strings.Count(out, `class="metric-cell"`) != 0 {
		t.Error("expected no metric cells")
	}
	if strings.Count(out, `class="log-entry"`) != 0 {
		t.Error("expected no log entries")
	}
}
