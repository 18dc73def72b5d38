package core

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/signalsfoundry/groundview/model"
	"github.com/signalsfoundry/groundview/scene"
)

// SceneSummary is a small summary of what was loaded from JSON. It's mainly
// useful for logging from main().
type SceneSummary struct {
	MetricCount int
	LogCount    int
	ToggleIDs   []string
}

// internal JSON shapes – keep them unexported so we're free to evolve them.
type sceneJSON struct {
	Panel   *panelJSON   `json:"panel"`
	Metrics []metricJSON `json:"metrics"`
	Logs    []logJSON    `json:"logs"`
	Toggles []toggleJSON `json:"toggles"`
}

type panelJSON struct {
	RadiusPx         float64 `json:"radius_px"`
	SatellitePeriodS float64 `json:"satellite_period_s"`
	CloudPeriodS     float64 `json:"cloud_period_s"`
	Motion           string  `json:"motion"` // "circular" | "ground_track"
	TLELine1         string  `json:"tle_line1"`
	TLELine2         string  `json:"tle_line2"`
}

type metricJSON struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type logJSON struct {
	Time string `json:"time"`
	Text string `json:"text"`
}

type toggleJSON struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Default bool   `json:"default"`
}

// PanelFromScene decodes only the panel section of a scene document so the
// caller can size animators and motion models before building the store.
// Missing fields fall back to the defaults.
func PanelFromScene(r io.Reader) (model.PanelConfig, error) {
	var payload sceneJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return model.PanelConfig{}, fmt.Errorf("PanelFromScene: decode failed: %w", err)
	}
	return panelConfig(payload.Panel), nil
}

// LoadScene reads a JSON scene from r, populates the store with metrics,
// logs, and toggles, and returns a summary of what was loaded.
//
// It deliberately fails only on JSON / structural errors. Duplicate toggle
// IDs are reported the same way direct AddToggle calls behave.
func LoadScene(store *scene.Store, r io.Reader) (*SceneSummary, error) {
	if store == nil {
		return nil, fmt.Errorf("LoadScene: store is nil")
	}

	var payload sceneJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadScene: decode failed: %w", err)
	}

	metrics := make([]model.MetricEntry, 0, len(payload.Metrics))
	for _, m := range payload.Metrics {
		metrics = append(metrics, model.MetricEntry{Label: m.Label, Value: m.Value})
	}
	store.SetMetrics(metrics)

	logs := make([]model.LogEntry, 0, len(payload.Logs))
	for _, l := range payload.Logs {
		logs = append(logs, model.LogEntry{Time: l.Time, Text: l.Text})
	}
	store.SetLogs(logs)

	summary := &SceneSummary{
		MetricCount: len(metrics),
		LogCount:    len(logs),
		ToggleIDs:   make([]string, 0, len(payload.Toggles)),
	}

	for _, tg := range payload.Toggles {
		if err := store.AddToggle(model.Toggle{ID: tg.ID, Label: tg.Label, Default: tg.Default}); err != nil {
			return nil, fmt.Errorf("LoadScene: %w", err)
		}
		summary.ToggleIDs = append(summary.ToggleIDs, tg.ID)
	}

	return summary, nil
}

func panelConfig(p *panelJSON) model.PanelConfig {
	cfg := model.PanelConfig{
		RadiusPx:         DefaultOrbitRadiusPx,
		SatellitePeriodS: 20,
		CloudPeriodS:     120,
	}
	if p == nil {
		return cfg
	}
	if p.RadiusPx > 0 {
		cfg.RadiusPx = p.RadiusPx
	}
	if p.SatellitePeriodS > 0 {
		cfg.SatellitePeriodS = p.SatellitePeriodS
	}
	if p.CloudPeriodS > 0 {
		cfg.CloudPeriodS = p.CloudPeriodS
	}
	if strings.EqualFold(p.Motion, "ground_track") {
		cfg.MotionKind = model.MotionKindGroundTrack
		cfg.TLELine1 = p.TLELine1
		cfg.TLELine2 = p.TLELine2
	}
	return cfg
}

// DefaultPanel returns the compiled-in globe panel configuration: a 140px
// orbit ring, a 20s satellite period, and a 120s cloud-band period.
func DefaultPanel() model.PanelConfig {
	return panelConfig(nil)
}

// DefaultScene populates the store with the compiled-in mock data used when
// no scene file is supplied: four metric cells, five log lines, and six
// inert policy toggles.
func DefaultScene(store *scene.Store) (*SceneSummary, error) {
	return LoadScene(store, strings.NewReader(defaultSceneJSON))
}

const defaultSceneJSON = `{
  "metrics": [
    {"label": "Uplink Integrity", "value": "99.97%"},
    {"label": "Active Policies", "value": "12"},
    {"label": "Data Streams", "value": "48"},
    {"label": "Open Alerts", "value": "3"}
  ],
  "logs": [
    {"time": "04:12:09", "text": "Pass scheduled over ground station 7"},
    {"time": "04:13:44", "text": "Telemetry frame checksum verified"},
    {"time": "04:15:02", "text": "Policy snapshot exported to archive"},
    {"time": "04:17:31", "text": "Ground antenna slew complete"},
    {"time": "04:19:58", "text": "Next downlink window opens in 00:41"}
  ],
  "toggles": [
    {"id": "redaction", "label": "Redaction", "default": true},
    {"id": "geo-fence", "label": "Geo-Fence", "default": true},
    {"id": "telemetry-masking", "label": "Telemetry Masking", "default": false},
    {"id": "downlink-encryption", "label": "Downlink Encryption", "default": true},
    {"id": "anomaly-alerts", "label": "Anomaly Alerts", "default": false},
    {"id": "debris-watch", "label": "Debris Watch", "default": false}
  ]
}`
