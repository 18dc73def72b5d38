package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/signalsfoundry/groundview/anim"
	"github.com/signalsfoundry/groundview/core"
	"github.com/signalsfoundry/groundview/model"
)

// orbitsim steps the globe panel's animation offline and prints the layer
// state per tick. Useful for eyeballing the motion maths without a browser.
func main() {
	duration := flag.Duration("duration", 20*time.Second, "total simulated duration")
	tick := flag.Duration("tick", 1*time.Second, "simulated tick interval")
	satPeriod := flag.Duration("sat-period", 20*time.Second, "satellite orbit period")
	cloudPeriod := flag.Duration("cloud-period", 120*time.Second, "cloud band rotation period")
	radius := flag.Float64("radius", core.DefaultOrbitRadiusPx, "orbit ring radius in pixels")
	tle1 := flag.String("tle1", "", "TLE line 1 (enables ground-track motion)")
	tle2 := flag.String("tle2", "", "TLE line 2 (enables ground-track motion)")
	flag.Parse()

	if *tick <= 0 || *duration <= 0 {
		fmt.Fprintln(os.Stderr, "orbitsim: duration and tick must be positive")
		os.Exit(2)
	}

	panel := model.PanelConfig{
		RadiusPx:         *radius,
		SatellitePeriodS: satPeriod.Seconds(),
		CloudPeriodS:     cloudPeriod.Seconds(),
	}
	if *tle1 != "" && *tle2 != "" {
		panel.MotionKind = model.MotionKindGroundTrack
		panel.TLELine1 = *tle1
		panel.TLELine2 = *tle2
	}
	motion := core.NewMotionModel(panel)

	start := time.Now()
	fmt.Printf("orbitsim: radius=%.0fpx sat-period=%s cloud-period=%s\n", *radius, *satPeriod, *cloudPeriod)

	for elapsed := time.Duration(0); elapsed <= *duration; elapsed += *tick {
		frame := anim.Frame{
			At:      start.Add(elapsed),
			Elapsed: elapsed,
			Degrees: anim.Angle(elapsed, *satPeriod),
		}

		var sat model.SatelliteState
		motion.UpdatePosition(frame, &sat)
		cloudDeg := anim.Angle(elapsed, *cloudPeriod)

		fmt.Printf("t=%-8s sat: deg=%7.2f x=%8.3f y=%8.3f  clouds: deg=%6.2f\n",
			elapsed, sat.AngleDeg, sat.X, sat.Y, cloudDeg)
	}
}
