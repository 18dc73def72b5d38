// Package scene holds the console's in-memory screen state: the globe
// panel's animation state, the policy toggles, and the static metric and log
// arrays. Nothing here persists; a new Store starts from the configured
// defaults.
package scene

import (
	"fmt"
	"sync"

	"github.com/signalsfoundry/groundview/model"
)

// EventType indicates what kind of change happened in the store.
type EventType int

const (
	EventFramePublished EventType = iota
	EventToggleFlipped
)

// Event is emitted to subscribers when the scene changes.
type Event struct {
	Type      EventType
	Satellite model.SatelliteState
	CloudDeg  float64
	Toggle    model.Toggle
}

// Store is an in-memory, thread-safe holder of the dashboard scene.
type Store struct {
	mu sync.RWMutex

	panel     model.PanelConfig
	satellite model.SatelliteState
	cloudDeg  float64

	metrics []model.MetricEntry
	logs    []model.LogEntry

	toggles     map[string]*model.Toggle
	toggleOrder []string

	subs    map[int]func(Event)
	nextSub int
}

// NewStore constructs an empty scene store with the given panel config.
func NewStore(panel model.PanelConfig) *Store {
	return &Store{
		panel:   panel,
		toggles: make(map[string]*model.Toggle),
		subs:    make(map[int]func(Event)),
	}
}

// Panel returns the panel configuration.
func (s *Store) Panel() model.PanelConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.panel
}

// SetMetrics replaces the metrics grid. Entries render in the order given.
func (s *Store) SetMetrics(entries []model.MetricEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = append([]model.MetricEntry{}, entries...)
}

// SetLogs replaces the event log list. Entries render in the order given.
func (s *Store) SetLogs(entries []model.LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append([]model.LogEntry{}, entries...)
}

// Metrics returns a snapshot of the metrics grid in insertion order.
func (s *Store) Metrics() []model.MetricEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.MetricEntry{}, s.metrics...)
}

// Logs returns a snapshot of the event log in insertion order.
func (s *Store) Logs() []model.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.LogEntry{}, s.logs...)
}

// AddToggle registers a toggle with its compile-time default state.
// It returns an error if the ID already exists.
func (s *Store) AddToggle(t model.Toggle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.toggles[t.ID]; exists {
		return fmt.Errorf("toggle with ID %q already exists", t.ID)
	}
	t.On = t.Default
	s.toggles[t.ID] = &t
	s.toggleOrder = append(s.toggleOrder, t.ID)
	return nil
}

// FlipToggle inverts the toggle's boolean and returns the new state. The
// flip affects nothing but the one toggle: no propagation, no persistence.
func (s *Store) FlipToggle(id string) (bool, error) {
	s.mu.Lock()
	t, ok := s.toggles[id]
	if !ok {
		s.mu.Unlock()
		return false, fmt.Errorf("toggle with ID %q not found", id)
	}
	t.On = !t.On
	event := Event{
		Type:   EventToggleFlipped,
		Toggle: *t, // copy for safety
	}
	subs := s.subscribersLocked()
	s.mu.Unlock()

	// Notify subscribers outside the lock to avoid deadlocks.
	for _, sub := range subs {
		sub(event)
	}
	return event.Toggle.On, nil
}

// Toggle returns a copy of the toggle with the given ID.
func (s *Store) Toggle(id string) (model.Toggle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.toggles[id]
	if !ok {
		return model.Toggle{}, fmt.Errorf("toggle with ID %q not found", id)
	}
	return *t, nil
}

// Toggles returns copies of all toggles in registration order.
func (s *Store) Toggles() []model.Toggle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]model.Toggle, 0, len(s.toggleOrder))
	for _, id := range s.toggleOrder {
		res = append(res, *s.toggles[id])
	}
	return res
}

// PublishFrame stores the satellite state and cloud angle for the current
// animation frame and notifies subscribers.
func (s *Store) PublishFrame(sat model.SatelliteState, cloudDeg float64) {
	s.mu.Lock()
	s.satellite = sat
	s.cloudDeg = cloudDeg
	event := Event{
		Type:      EventFramePublished,
		Satellite: sat,
		CloudDeg:  cloudDeg,
	}
	subs := s.subscribersLocked()
	s.mu.Unlock()

	for _, sub := range subs {
		sub(event)
	}
}

// Satellite returns the satellite marker's current state.
func (s *Store) Satellite() model.SatelliteState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.satellite
}

// Snapshot returns a consistent copy of the whole scene.
func (s *Store) Snapshot() model.SceneSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	toggles := make([]model.Toggle, 0, len(s.toggleOrder))
	for _, id := range s.toggleOrder {
		toggles = append(toggles, *s.toggles[id])
	}
	return model.SceneSnapshot{
		Panel:     s.panel,
		Satellite: s.satellite,
		CloudDeg:  s.cloudDeg,
		Metrics:   append([]model.MetricEntry{}, s.metrics...),
		Logs:      append([]model.LogEntry{}, s.logs...),
		Toggles:   toggles,
	}
}

// Subscribe registers a callback for scene events. It returns an
// unsubscribe function, safe to call more than once. Subscribers come and
// go with every streaming client, so each one is keyed by its own id;
// removing one never disturbs another.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// subscribersLocked copies the current subscriber set. Callers must hold
// the lock; the copy is invoked after releasing it.
func (s *Store) subscribersLocked() []func(Event) {
	subs := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}
