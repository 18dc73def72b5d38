package core

import (
	"math"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/groundview/anim"
	"github.com/signalsfoundry/groundview/model"
)

// MotionModel places the satellite marker for a given animation frame.
type MotionModel interface {
	UpdatePosition(frame anim.Frame, s *model.SatelliteState)
}

// CircularMotionModel moves the marker along a fixed-radius circular path
// driven directly by the frame's angle.
type CircularMotionModel struct {
	RadiusPx float64
}

// UpdatePosition reprojects the frame angle onto the orbit ring.
func (m *CircularMotionModel) UpdatePosition(frame anim.Frame, s *model.SatelliteState) {
	radius := m.RadiusPx
	if radius <= 0 {
		radius = DefaultOrbitRadiusPx
	}
	p := PointOnCircle(frame.Degrees, radius)
	s.AngleDeg = frame.Degrees
	s.X = p.X
	s.Y = p.Y
}

// GroundTrackMotionModel drives the marker from a real ephemeris: it
// propagates a TLE with SGP4 at the frame's wall-clock time and projects the
// sub-satellite point's equatorial bearing onto the orbit ring.
type GroundTrackMotionModel struct {
	RadiusPx float64

	sat satellite.Satellite
}

// NewGroundTrackModelFromTLE constructs a ground-track model from TLE lines.
func NewGroundTrackModelFromTLE(line1, line2 string, radiusPx float64) *GroundTrackMotionModel {
	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS72)
	return &GroundTrackMotionModel{RadiusPx: radiusPx, sat: sat}
}

// UpdatePosition propagates the satellite to the frame time and places the
// marker at the corresponding bearing on the ring.
func (m *GroundTrackMotionModel) UpdatePosition(frame anim.Frame, s *model.SatelliteState) {
	year, month, day := frame.At.Date()
	hour, min, sec := frame.At.Clock()

	posECI, _ := satellite.Propagate(m.sat, year, int(month), day, hour, min, sec)
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(jd)
	posECEF := satellite.ECIToECEF(posECI, gmst)

	deg := math.Atan2(posECEF.Y, posECEF.X) * 180.0 / math.Pi
	if deg < 0 {
		deg += 360.0
	}

	radius := m.RadiusPx
	if radius <= 0 {
		radius = DefaultOrbitRadiusPx
	}
	p := PointOnCircle(deg, radius)
	s.AngleDeg = deg
	s.X = p.X
	s.Y = p.Y
}

// NewMotionModel chooses an appropriate MotionModel for the panel
// configuration. Ground track requires both TLE lines; anything else falls
// back to the circular path.
func NewMotionModel(panel model.PanelConfig) MotionModel {
	if panel.MotionKind == model.MotionKindGroundTrack && panel.TLELine1 != "" && panel.TLELine2 != "" {
		return NewGroundTrackModelFromTLE(panel.TLELine1, panel.TLELine2, panel.RadiusPx)
	}
	return &CircularMotionModel{RadiusPx: panel.RadiusPx}
}
