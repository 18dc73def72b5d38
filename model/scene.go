package model

// MotionKind indicates how the satellite marker's position is determined.
type MotionKind int

const (
	MotionKindCircular    MotionKind = iota // fixed-radius circular path
	MotionKindGroundTrack                   // TLE-based ground track projection
)

// MetricEntry is one cell of the metrics grid. Values are display strings;
// nothing downstream ever interprets them.
type MetricEntry struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// LogEntry is one line of the event log list.
type LogEntry struct {
	Time string `json:"time"`
	Text string `json:"text"`
}

// Toggle is a two-state policy control. Flipping it has no effect outside
// the scene store; the labels ("Redaction", "Geo-Fence", ...) are cosmetic.
type Toggle struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Default bool   `json:"default"`
	On      bool   `json:"on"`
}

// SatelliteState is the satellite marker's current placement on the globe
// panel: the driving angle in degrees and the derived Cartesian offsets in
// pixels from the panel centre.
type SatelliteState struct {
	AngleDeg float64 `json:"angle_deg"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// PanelConfig describes the globe panel's animation parameters.
type PanelConfig struct {
	RadiusPx         float64 `json:"radius_px"`
	SatellitePeriodS float64 `json:"satellite_period_s"`
	CloudPeriodS     float64 `json:"cloud_period_s"`

	MotionKind MotionKind `json:"motion_kind"`
	// TLE lines, used only when MotionKind is MotionKindGroundTrack.
	TLELine1 string `json:"tle_line1,omitempty"`
	TLELine2 string `json:"tle_line2,omitempty"`
}

// SceneSnapshot is a consistent copy of the whole screen state, safe to
// render without further synchronisation.
type SceneSnapshot struct {
	Panel     PanelConfig    `json:"panel"`
	Satellite SatelliteState `json:"satellite"`
	CloudDeg  float64        `json:"cloud_deg"`
	Metrics   []MetricEntry  `json:"metrics"`
	Logs      []LogEntry     `json:"logs"`
	Toggles   []Toggle       `json:"toggles"`
}
