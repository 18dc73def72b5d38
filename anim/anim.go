// Package anim drives the console's angular values. An Animator owns one
// angle in degrees that advances linearly with wall-clock time and wraps at
// 360, repeating forever until stopped.
package anim

import (
	"context"
	"math"
	"sync"
	"time"
)

// DefaultTick is the animator's update interval when none is configured.
// 50ms keeps the server-side angle smooth at common display refresh rates
// without burning CPU on a purely decorative loop.
const DefaultTick = 50 * time.Millisecond

// Angle returns the angular value in degrees for the given elapsed time and
// period. The value is linear in elapsed, lies in [0, 360), and wraps exactly
// at period boundaries: Angle(period, period) == Angle(0, period) == 0.
func Angle(elapsed, period time.Duration) float64 {
	if period <= 0 {
		return 0
	}
	turns := elapsed.Seconds() / period.Seconds()
	deg := math.Mod(turns*360.0, 360.0)
	if deg < 0 {
		deg += 360.0
	}
	return deg
}

// Frame is delivered to listeners on every tick.
type Frame struct {
	At      time.Time
	Elapsed time.Duration
	Degrees float64
}

// Animator advances a single angular value on a wall-clock ticker and
// notifies registered listeners. It is the only continuously-running
// activity in the console; everything else derives from its frames.
type Animator struct {
	mu sync.RWMutex

	Period time.Duration
	Tick   time.Duration

	elapsed   time.Duration
	degrees   float64
	stopped   bool
	cancel    context.CancelFunc
	listeners []func(Frame)
}

// NewAnimator constructs an animator with the given period. A non-positive
// tick falls back to DefaultTick.
func NewAnimator(period, tick time.Duration) *Animator {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Animator{
		Period: period,
		Tick:   tick,
	}
}

// AddListener registers a callback invoked on every tick. Listeners must be
// registered before Start; they are invoked from the animator goroutine.
func (a *Animator) AddListener(fn func(Frame)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// Value returns the current angle in degrees. After Stop it never changes.
func (a *Animator) Value() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.degrees
}

// Elapsed returns how much animated time has accumulated.
func (a *Animator) Elapsed() time.Duration {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.elapsed
}

// Start runs the animator until the context is cancelled or Stop is called.
// It returns a channel that is closed when the loop has fully wound down,
// so callers can confirm no further updates will land after teardown.
func (a *Animator) Start(ctx context.Context) <-chan struct{} {
	ctx, cancel := context.WithCancel(ctx)

	a.mu.Lock()
	a.stopped = false
	a.cancel = cancel
	listeners := append([]func(Frame){}, a.listeners...)
	tick := a.Tick
	base := a.elapsed
	a.mu.Unlock()

	start := time.Now()

	done := make(chan struct{})
	go func() {
		defer close(done)

		ticker := time.NewTicker(tick)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				a.mu.Lock()
				if a.stopped {
					a.mu.Unlock()
					return
				}
				// Elapsed derives from the ticker's delivered time, not a
				// per-tick increment, so dropped ticks (slow listeners, CPU
				// stalls) never let the angle drift behind the wall clock.
				a.elapsed = base + now.Sub(start)
				a.degrees = Angle(a.elapsed, a.Period)
				frame := Frame{At: now, Elapsed: a.elapsed, Degrees: a.degrees}
				a.mu.Unlock()

				for _, fn := range listeners {
					fn(frame)
				}
			}
		}
	}()
	return done
}

// Stop halts the animator. It is safe to call more than once and safe to
// call on an animator that was never started; the angle is frozen at its
// last published value either way.
func (a *Animator) Stop() {
	a.mu.Lock()
	a.stopped = true
	cancel := a.cancel
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}
