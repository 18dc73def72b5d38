package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ConsoleCollector bundles Prometheus metrics for the console surface and
// provides helpers to wire them into the HTTP server and the animation loop.
type ConsoleCollector struct {
	gatherer prometheus.Gatherer

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec

	FramesTotal prometheus.Counter
	LayerAngle  *prometheus.GaugeVec
	ToggleFlips *prometheus.CounterVec

	StreamsActive     prometheus.Gauge
	StreamConnections *prometheus.CounterVec

	SceneMetrics prometheus.Gauge
	SceneLogs    prometheus.Gauge
	SceneToggles prometheus.Gauge
}

// NewConsoleCollector registers console Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry when nil.
func NewConsoleCollector(reg prometheus.Registerer) (*ConsoleCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_http_requests_total",
		Help: "Total number of handled HTTP requests, labeled by path, method, and status code.",
	}, []string{"path", "method", "code"})
	requests, err := registerCounterVec(reg, requests, "console_http_requests_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "console_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"path", "method"})
	durations, err = registerHistogramVec(reg, durations, "console_http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	frames, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "console_frames_total",
		Help: "Total number of animation layer updates observed.",
	}), "console_frames_total")
	if err != nil {
		return nil, err
	}

	angle := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "console_layer_angle_degrees",
		Help: "Current angle of each animated layer, in degrees.",
	}, []string{"layer"})
	angle, err = registerGaugeVec(reg, angle, "console_layer_angle_degrees")
	if err != nil {
		return nil, err
	}

	flips := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_toggle_flips_total",
		Help: "Total number of policy toggle activations, labeled by toggle ID.",
	}, []string{"toggle"})
	flips, err = registerCounterVec(reg, flips, "console_toggle_flips_total")
	if err != nil {
		return nil, err
	}

	streamsActive, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "console_streams_active",
		Help: "Number of currently connected frame stream clients.",
	}), "console_streams_active")
	if err != nil {
		return nil, err
	}

	streamConns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_stream_connections_total",
		Help: "Frame stream connection events, labeled by kind (connect/disconnect/rejected).",
	}, []string{"kind"})
	streamConns, err = registerCounterVec(reg, streamConns, "console_stream_connections_total")
	if err != nil {
		return nil, err
	}

	sceneMetrics, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scene_metric_entries",
		Help: "Current number of metric cells in the scene store.",
	}), "scene_metric_entries")
	if err != nil {
		return nil, err
	}
	sceneLogs, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scene_log_entries",
		Help: "Current number of event log lines in the scene store.",
	}), "scene_log_entries")
	if err != nil {
		return nil, err
	}
	sceneToggles, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scene_toggles",
		Help: "Current number of policy toggles in the scene store.",
	}), "scene_toggles")
	if err != nil {
		return nil, err
	}

	return &ConsoleCollector{
		gatherer:          gatherer,
		HTTPRequests:      requests,
		HTTPDurations:     durations,
		FramesTotal:       frames,
		LayerAngle:        angle,
		ToggleFlips:       flips,
		StreamsActive:     streamsActive,
		StreamConnections: streamConns,
		SceneMetrics:      sceneMetrics,
		SceneLogs:         sceneLogs,
		SceneToggles:      sceneToggles,
	}, nil
}

// Middleware records request counts and durations for every HTTP request.
func (c *ConsoleCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(sr, r)

		if c == nil {
			return
		}
		code := strconv.Itoa(sr.statusCode)
		if c.HTTPRequests != nil {
			c.HTTPRequests.WithLabelValues(r.URL.Path, r.Method, code).Inc()
		}
		if c.HTTPDurations != nil {
			c.HTTPDurations.WithLabelValues(r.URL.Path, r.Method).Observe(time.Since(start).Seconds())
		}
	})
}

// Handler exposes a ready-to-use /metrics handler.
func (c *ConsoleCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveFrame records one published animation frame and the current angle
// of the named layer.
func (c *ConsoleCollector) ObserveFrame(layer string, degrees float64) {
	if c == nil {
		return
	}
	if c.FramesTotal != nil {
		c.FramesTotal.Inc()
	}
	if c.LayerAngle != nil {
		c.LayerAngle.WithLabelValues(layer).Set(degrees)
	}
}

// ObserveToggleFlip records one toggle activation.
func (c *ConsoleCollector) ObserveToggleFlip(toggleID string) {
	if c == nil || c.ToggleFlips == nil {
		return
	}
	c.ToggleFlips.WithLabelValues(toggleID).Inc()
}

// SetSceneCounts drives the scene gauges directly from the loader.
func (c *ConsoleCollector) SetSceneCounts(metrics, logs, toggles int) {
	if c == nil {
		return
	}
	if c.SceneMetrics != nil {
		c.SceneMetrics.Set(float64(metrics))
	}
	if c.SceneLogs != nil {
		c.SceneLogs.Set(float64(logs))
	}
	if c.SceneToggles != nil {
		c.SceneToggles.Set(float64(toggles))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

// Flush forwards to the underlying writer so SSE responses keep streaming
// through the metrics middleware.
func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
