// Package view renders the console screen. The page layout is fixed: the
// only dynamic inputs are the scene snapshot's arrays and the satellite
// marker's current placement. The client-side script then keeps the marker
// moving from the frame stream.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/signalsfoundry/groundview/core"
	"github.com/signalsfoundry/groundview/model"
)

//go:embed dashboard.html.tmpl
var content embed.FS

// Renderer renders the dashboard page from scene snapshots.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded dashboard template.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(content, "dashboard.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse dashboard template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// radialLine is one decorative spoke of the globe overlay.
type radialLine struct {
	X1, Y1, X2, Y2 float64
}

// dashboardData is the template's view model. All geometry is precomputed
// here; the template just places what it is given. Screen Y grows downward,
// so the satellite's Y offset is flipped for SVG.
type dashboardData struct {
	Snapshot model.SceneSnapshot

	ViewBox string // SVG viewBox attribute, a square centred on the origin
	SatX    float64
	SatY    float64
	Rings   []float64
	Radials []radialLine
}

func buildDashboardData(snap model.SceneSnapshot) dashboardData {
	radius := snap.Panel.RadiusPx
	if radius <= 0 {
		radius = core.DefaultOrbitRadiusPx
	}

	// Concentric overlay circles at fixed fractions of the orbit radius.
	rings := []float64{radius * 0.35, radius * 0.6, radius * 0.85}

	// Six full-diameter spokes across the globe disc.
	disc := radius * 0.85
	radials := make([]radialLine, 0, 6)
	for deg := 0.0; deg < 180.0; deg += 30.0 {
		a := core.PointOnCircle(deg, disc)
		b := core.PointOnCircle(deg+180, disc)
		radials = append(radials, radialLine{X1: a.X, Y1: -a.Y, X2: b.X, Y2: -b.Y})
	}

	half := radius + 24
	return dashboardData{
		Snapshot: snap,
		ViewBox:  fmt.Sprintf("%g %g %g %g", -half, -half, 2*half, 2*half),
		SatX:     snap.Satellite.X,
		SatY:     -snap.Satellite.Y,
		Rings:    rings,
		Radials:  radials,
	}
}

// RenderDashboard writes the full console page for the given snapshot.
func (r *Renderer) RenderDashboard(w io.Writer, snap model.SceneSnapshot) error {
	if err := r.tmpl.Execute(w, buildDashboardData(snap)); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	return nil
}
