// Package stream implements Server-Sent Events streaming of animation
// frames. Clients connect via GET /api/v1/stream/frames and receive a
// continuous stream of satellite placements and cloud-band angles.
//
// SSE message format:
//
//	data: {"type":"frame","t":"...","sat":{"deg":90,"x":0,"y":140},"cloud":{"deg":15}}\n\n
//
// The first message is always metadata carrying the panel configuration and
// a server-assigned client ID. Toggle flips are forwarded as
// {"type":"toggle",...} so every connected console shows the same state.
// Keep-alive comments (:\n\n) are sent every KeepaliveInterval.
package stream

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/signalsfoundry/groundview/internal/logging"
	"github.com/signalsfoundry/groundview/internal/observability"
	"github.com/signalsfoundry/groundview/scene"
)

// Config holds streaming configuration.
type Config struct {
	MaxConcurrentPerIP int           // Max concurrent streams per IP (default: 10).
	KeepaliveInterval  time.Duration // Keep-alive ping interval (default: 30s).
}

// Handler manages SSE streaming connections.
type Handler struct {
	store     *scene.Store
	collector *observability.ConsoleCollector
	config    Config
	limiter   *streamLimiter
	logger    logging.Logger
}

// NewHandler creates a new streaming handler.
func NewHandler(store *scene.Store, collector *observability.ConsoleCollector, config Config, logger logging.Logger) *Handler {
	if config.MaxConcurrentPerIP <= 0 {
		config.MaxConcurrentPerIP = 10
	}
	if config.KeepaliveInterval <= 0 {
		config.KeepaliveInterval = 30 * time.Second
	}
	if logger == nil {
		logger = logging.Noop()
	}
	return &Handler{
		store:     store,
		collector: collector,
		config:    config,
		limiter:   newStreamLimiter(config.MaxConcurrentPerIP),
		logger:    logger,
	}
}

// HandleFrames serves the SSE frame stream.
// GET /api/v1/stream/frames
func (h *Handler) HandleFrames(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ip := clientIP(r)

	if !h.limiter.acquire(ip) {
		if h.collector != nil {
			h.collector.StreamConnections.WithLabelValues("rejected").Inc()
		}
		h.logger.Warn(ctx, "stream limit exceeded", logging.String("remote_ip", ip))
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"error": "too many concurrent streams"})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.limiter.release(ip)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "streaming not supported"})
		return
	}

	clientID := uuid.NewString()
	start := time.Now()

	if h.collector != nil {
		h.collector.StreamConnections.WithLabelValues("connect").Inc()
		h.collector.StreamsActive.Inc()
	}
	h.logger.Info(ctx, "stream connected",
		logging.String("client_id", clientID),
		logging.String("remote_ip", ip),
	)

	defer func() {
		h.limiter.release(ip)
		if h.collector != nil {
			h.collector.StreamConnections.WithLabelValues("disconnect").Inc()
			h.collector.StreamsActive.Dec()
		}
		h.logger.Info(ctx, "stream disconnected",
			logging.String("client_id", clientID),
			logging.Int("duration_seconds", int(time.Since(start).Seconds())),
		)
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering.
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Long-lived response: clear the server's default write deadline.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug(ctx, "could not clear write deadline", logging.String("error", err.Error()))
	}

	// Jittered retry interval (3-7s) to avoid reconnection storms when the
	// server restarts.
	retryMs := 3000 + rand.Intn(4000)
	fmt.Fprintf(w, "retry: %d\n\n", retryMs)
	flusher.Flush()

	panel := h.store.Panel()
	meta := metadataMessage{
		Type:     "metadata",
		ClientID: clientID,
		Panel: panelPayload{
			RadiusPx:         panel.RadiusPx,
			SatellitePeriodS: panel.SatellitePeriodS,
			CloudPeriodS:     panel.CloudPeriodS,
		},
	}
	if err := sendJSON(w, flusher, meta); err != nil {
		h.logger.Warn(ctx, "stream send error (metadata)", logging.String("client_id", clientID), logging.String("error", err.Error()))
		return
	}

	// Scene events arrive on a buffered channel; if this client can't keep
	// up we drop frames rather than stall the animator.
	events := make(chan scene.Event, 64)
	unsubscribe := h.store.Subscribe(func(e scene.Event) {
		select {
		case events <- e:
		default:
		}
	})
	defer unsubscribe()

	keepalive := time.NewTicker(h.config.KeepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case e := <-events:
			msg, ok := messageForEvent(e)
			if !ok {
				continue
			}
			if err := sendJSON(w, flusher, msg); err != nil {
				h.logger.Warn(ctx, "stream send error", logging.String("client_id", clientID), logging.String("error", err.Error()))
				return
			}
			keepalive.Reset(h.config.KeepaliveInterval)

		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ":\n\n"); err != nil {
				h.logger.Warn(ctx, "stream keepalive error", logging.String("client_id", clientID), logging.String("error", err.Error()))
				return
			}
			flusher.Flush()
		}
	}
}

func messageForEvent(e scene.Event) (any, bool) {
	switch e.Type {
	case scene.EventFramePublished:
		return frameMessage{
			Type: "frame",
			T:    time.Now().UTC().Format(time.RFC3339Nano),
			Sat: satPayload{
				Deg: e.Satellite.AngleDeg,
				X:   e.Satellite.X,
				Y:   e.Satellite.Y,
			},
			Cloud: cloudPayload{Deg: e.CloudDeg},
		}, true
	case scene.EventToggleFlipped:
		return toggleMessage{
			Type: "toggle",
			ID:   e.Toggle.ID,
			On:   e.Toggle.On,
		}, true
	default:
		return nil, false
	}
}

func sendJSON(w http.ResponseWriter, flusher http.Flusher, msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// clientIP extracts the originating client address, honouring the first
// X-Forwarded-For hop when present.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first, _, ok := strings.Cut(xff, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// SSE message payload types.

type metadataMessage struct {
	Type     string       `json:"type"`
	ClientID string       `json:"client_id"`
	Panel    panelPayload `json:"panel"`
}

type panelPayload struct {
	RadiusPx         float64 `json:"radius_px"`
	SatellitePeriodS float64 `json:"satellite_period_s"`
	CloudPeriodS     float64 `json:"cloud_period_s"`
}

type frameMessage struct {
	Type  string       `json:"type"`
	T     string       `json:"t"`
	Sat   satPayload   `json:"sat"`
	Cloud cloudPayload `json:"cloud"`
}

type satPayload struct {
	Deg float64 `json:"deg"`
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
}

type cloudPayload struct {
	Deg float64 `json:"deg"`
}

type toggleMessage struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	On   bool   `json:"on"`
}
