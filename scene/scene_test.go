package scene

import (
	"sync"
	"testing"

	"github.com/signalsfoundry/groundview/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(model.PanelConfig{RadiusPx: 140, SatellitePeriodS: 20, CloudPeriodS: 120})
	for _, tg := range []model.Toggle{
		{ID: "redaction", Label: "Redaction", Default: true},
		{ID: "geo-fence", Label: "Geo-Fence", Default: false},
	} {
		if err := s.AddToggle(tg); err != nil {
			t.Fatalf("AddToggle(%s): %v", tg.ID, err)
		}
	}
	return s
}

func TestToggleDefaultsOnCreation(t *testing.T) {
	s := newTestStore(t)

	red, err := s.Toggle("redaction")
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if !red.On {
		t.Error("redaction should start at its default (on)")
	}
	geo, err := s.Toggle("geo-fence")
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if geo.On {
		t.Error("geo-fence should start at its default (off)")
	}
}

func TestToggleSingleFlipInverts(t *testing.T) {
	s := newTestStore(t)

	on, err := s.FlipToggle("redaction")
	if err != nil {
		t.Fatalf("FlipToggle: %v", err)
	}
	if on {
		t.Error("one flip of an on toggle should yield off")
	}

	// The other toggle is untouched: no cross-toggle interaction.
	geo, _ := s.Toggle("geo-fence")
	if geo.On {
		t.Error("flipping redaction must not affect geo-fence")
	}

	on, err = s.FlipToggle("redaction")
	if err != nil {
		t.Fatalf("FlipToggle: %v", err)
	}
	if !on {
		t.Error("second flip should restore the original state")
	}
}

func TestToggleIdempotentUnderZeroActivations(t *testing.T) {
	s := newTestStore(t)

	before := s.Toggles()
	after := s.Toggles()
	if len(before) != len(after) {
		t.Fatalf("toggle count changed: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("toggle %q changed without activation: %+v -> %+v", before[i].ID, before[i], after[i])
		}
	}
}

func TestFlipUnknownToggle(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.FlipToggle("emergency-halt"); err == nil {
		t.Fatal("expected error flipping unknown toggle")
	}
}

func TestAddToggleDuplicate(t *testing.T) {
	s := newTestStore(t)
	if err := s.AddToggle(model.Toggle{ID: "redaction"}); err == nil {
		t.Fatal("expected duplicate AddToggle error")
	}
}

func TestTogglesPreserveRegistrationOrder(t *testing.T) {
	s := NewStore(model.PanelConfig{})
	ids := []string{"zeta", "alpha", "mid", "omega"}
	for _, id := range ids {
		if err := s.AddToggle(model.Toggle{ID: id}); err != nil {
			t.Fatalf("AddToggle: %v", err)
		}
	}
	got := s.Toggles()
	if len(got) != len(ids) {
		t.Fatalf("got %d toggles, want %d", len(got), len(ids))
	}
	for i, id := range ids {
		if got[i].ID != id {
			t.Errorf("toggle %d = %q, want %q", i, got[i].ID, id)
		}
	}
}

func TestMetricsAndLogsKeepOrder(t *testing.T) {
	s := newTestStore(t)

	metrics := []model.MetricEntry{
		{Label: "Uplink Integrity", Value: "99.97%"},
		{Label: "Active Policies", Value: "12"},
		{Label: "Data Streams", Value: "48"},
		{Label: "Open Alerts", Value: "3"},
	}
	logs := []model.LogEntry{
		{Time: "04:12:09", Text: "pass scheduled over station 7"},
		{Time: "04:13:44", Text: "telemetry frame checksum verified"},
		{Time: "04:15:02", Text: "policy snapshot exported"},
		{Time: "04:17:31", Text: "ground antenna slew complete"},
		{Time: "04:19:58", Text: "next downlink window in 00:41"},
	}
	s.SetMetrics(metrics)
	s.SetLogs(logs)

	snap := s.Snapshot()
	if len(snap.Metrics) != 4 {
		t.Fatalf("got %d metrics, want 4", len(snap.Metrics))
	}
	if len(snap.Logs) != 5 {
		t.Fatalf("got %d logs, want 5", len(snap.Logs))
	}
	for i := range metrics {
		if snap.Metrics[i] != metrics[i] {
			t.Errorf("metric %d = %+v, want %+v", i, snap.Metrics[i], metrics[i])
		}
	}
	for i := range logs {
		if snap.Logs[i] != logs[i] {
			t.Errorf("log %d = %+v, want %+v", i, snap.Logs[i], logs[i])
		}
	}
}

func TestPublishFrameNotifiesSubscribers(t *testing.T) {
	s := newTestStore(t)

	var mu sync.Mutex
	var events []Event
	unsub := s.Subscribe(func(e Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})

	sat := model.SatelliteState{AngleDeg: 90, X: 0, Y: 140}
	s.PublishFrame(sat, 15)

	mu.Lock()
	if len(events) != 1 {
		mu.Unlock()
		t.Fatalf("got %d events, want 1", len(events))
	}
	e := events[0]
	mu.Unlock()

	if e.Type != EventFramePublished {
		t.Fatalf("event type = %v, want EventFramePublished", e.Type)
	}
	if e.Satellite != sat || e.CloudDeg != 15 {
		t.Fatalf("event payload = %+v cloud=%v", e.Satellite, e.CloudDeg)
	}
	if got := s.Satellite(); got != sat {
		t.Fatalf("Satellite() = %+v, want %+v", got, sat)
	}

	unsub()
	s.PublishFrame(model.SatelliteState{AngleDeg: 180}, 30)
	mu.Lock()
	defer mu.Unlock()
	if len(events) != 1 {
		t.Fatalf("unsubscribed listener still received events (%d total)", len(events))
	}
}

func TestUnsubscribeInterleavedSubscribers(t *testing.T) {
	s := newTestStore(t)

	counts := map[string]*int{"a": new(int), "b": new(int), "c": new(int)}
	subscribe := func(name string) func() {
		n := counts[name]
		return s.Subscribe(func(Event) { *n++ })
	}

	// Clients come and go in arbitrary order; removing one must neither
	// detach a live subscriber nor revive a removed one.
	unsubA := subscribe("a")
	unsubB := subscribe("b")
	unsubA()
	unsubC := subscribe("c")
	unsubB()

	s.PublishFrame(model.SatelliteState{AngleDeg: 45}, 5)

	if *counts["a"] != 0 {
		t.Errorf("a unsubscribed but received %d events", *counts["a"])
	}
	if *counts["b"] != 0 {
		t.Errorf("b unsubscribed but received %d events", *counts["b"])
	}
	if *counts["c"] != 1 {
		t.Errorf("c is still subscribed but received %d events, want 1", *counts["c"])
	}

	// Unsubscribing twice is harmless.
	unsubB()
	unsubC()
	unsubC()
	s.PublishFrame(model.SatelliteState{AngleDeg: 90}, 10)
	if *counts["c"] != 1 {
		t.Errorf("c received %d events after unsubscribe, want 1", *counts["c"])
	}
}

func TestFlipToggleEmitsEvent(t *testing.T) {
	s := newTestStore(t)

	var got []Event
	s.Subscribe(func(e Event) { got = append(got, e) })

	if _, err := s.FlipToggle("geo-fence"); err != nil {
		t.Fatalf("FlipToggle: %v", err)
	}
	if len(got) != 1 || got[0].Type != EventToggleFlipped {
		t.Fatalf("expected one EventToggleFlipped, got %+v", got)
	}
	if got[0].Toggle.ID != "geo-fence" || !got[0].Toggle.On {
		t.Fatalf("event toggle = %+v", got[0].Toggle)
	}
}

func TestStoreRecreationResetsState(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.FlipToggle("redaction"); err != nil {
		t.Fatalf("FlipToggle: %v", err)
	}

	// A fresh store knows nothing of the old one's flips.
	fresh := newTestStore(t)
	red, _ := fresh.Toggle("redaction")
	if !red.On {
		t.Fatal("recreated store should reset toggles to their defaults")
	}
}
