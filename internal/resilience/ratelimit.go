package resilience

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// WindowConfig controls the sliding-window rate limiter.
type WindowConfig struct {
	// Window is the trailing duration over which requests are counted. Default: 60s.
	Window time.Duration

	// MaxRequests is the most requests allowed inside any window.
	// Zero or negative disables the window check.
	MaxRequests int

	// MinInterval is the minimum gap between two request starts.
	// Zero disables the gap check.
	MinInterval time.Duration
}

// DefaultWindowConfig returns the limits used for the Georef API.
func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		Window:      time.Minute,
		MaxRequests: 60,
		MinInterval: 100 * time.Millisecond,
	}
}

// WindowLimiter enforces a maximum request count within a sliding window
// plus a minimum interval between request starts. Callers reserve a start
// time under the lock and then sleep outside it, so start moments are
// serialized while waiting callers stay independent.
type WindowLimiter struct {
	cfg WindowConfig
	gap *rate.Limiter

	mu     sync.Mutex
	stamps []time.Time // reserved start times, ascending

	nowFunc func() time.Time
}

// NewWindowLimiter creates a limiter with the given config.
func NewWindowLimiter(cfg WindowConfig) *WindowLimiter {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}
	return &WindowLimiter{
		cfg:     cfg,
		gap:     rate.NewLimiter(limit, 1),
		nowFunc: time.Now,
	}
}

// Wait blocks until the caller may issue a request and returns how long it
// waited. If ctx ends first the reservation is released and ctx's error is
// returned.
func (l *WindowLimiter) Wait(ctx context.Context) (time.Duration, error) {
	now := l.nowFunc()
	at, res := l.reserve(now)

	delay := at.Sub(now)
	if delay <= 0 {
		return 0, nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		l.release(at, res)
		return 0, ctx.Err()
	case <-timer.C:
		return delay, nil
	}
}

// InWindow returns the number of requests started or reserved inside the
// current window.
func (l *WindowLimiter) InWindow() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.nowFunc())
	return len(l.stamps)
}

func (l *WindowLimiter) reserve(now time.Time) (time.Time, *rate.Reservation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(now)

	at := now
	if l.cfg.MaxRequests > 0 && len(l.stamps) >= l.cfg.MaxRequests {
		// The new request may start once the oldest of the last MaxRequests
		// starts has left the window.
		oldest := l.stamps[len(l.stamps)-l.cfg.MaxRequests]
		if exit := oldest.Add(l.cfg.Window); exit.After(at) {
			at = exit
		}
	}

	res := l.gap.ReserveN(at, 1)
	at = at.Add(res.DelayFrom(at))

	l.stamps = append(l.stamps, at)
	return at, res
}

func (l *WindowLimiter) release(at time.Time, res *rate.Reservation) {
	res.Cancel()

	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.stamps) - 1; i >= 0; i-- {
		if l.stamps[i].Equal(at) {
			l.stamps = append(l.stamps[:i], l.stamps[i+1:]...)
			return
		}
	}
}

// prune drops starts that are no longer inside the window ending at now.
func (l *WindowLimiter) prune(now time.Time) {
	cutoff := now.Add(-l.cfg.Window)
	i := 0
	for i < len(l.stamps) && !l.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[i:]...)
	}
}
