package wilderblog

import (
	"context"
	"sync"
	"time"
)

// LoginLimiter counts failed authentications per client within a sliding window.
type LoginLimiter struct {
	mu       sync.Mutex
	failures map[string][]time.Time
	max      int
	window   time.Duration

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewLoginLimiter creates a LoginLimiter that tolerates max failures per window.
func NewLoginLimiter(max int, window time.Duration) *LoginLimiter {
	l := &LoginLimiter{
		failures: make(map[string][]time.Time),
		max:      max,
		window:   window,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go l.cleanup()
	return l
}

// Stop ends the background sweep and waits for it to exit. It is safe to
// call more than once.
func (l *LoginLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
	<-l.done
}

func (l *LoginLimiter) cleanup() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	defer close(l.done)
	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-l.window)
			l.mu.Lock()
			for key := range l.failures {
				l.prune(key, cutoff)
			}
			l.mu.Unlock()
		case <-l.stop:
			return
		}
	}
}

// prune drops failures older than cutoff. Caller holds l.mu.
func (l *LoginLimiter) prune(key string, cutoff time.Time) []time.Time {
	hits := l.failures[key]
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(l.failures, key)
		return nil
	}
	l.failures[key] = kept
	return kept
}

// Check returns true if key has not exhausted its failures in the current window.
func (l *LoginLimiter) Check(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prune(key, time.Now().Add(-l.window))) < l.max
}

// Record registers a failed authentication for key.
func (l *LoginLimiter) Record(key string) {
	l.mu.Lock()
	l.failures[key] = append(l.failures[key], time.Now())
	l.mu.Unlock()
}

// Reset forgets all failures for key.
func (l *LoginLimiter) Reset(key string) {
	l.mu.Lock()
	delete(l.failures, key)
	l.mu.Unlock()
}

type clientIPKey struct{}

// WithClientIP returns a context carrying the caller's address for throttling.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

func clientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}
