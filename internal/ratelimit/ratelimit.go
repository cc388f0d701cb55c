// Package ratelimit implements fixed-window request limiting keyed by
// scope and client address.
package ratelimit

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var rejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pgrep_rate_limit_rejected_total",
	Help: "Requests rejected by the rate limiter",
}, []string{"scope"})

// Result is the outcome of one Allow call.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter decides whether a request may proceed.
type Limiter interface {
	Allow(ctx context.Context, scope, client string) (Result, error)
}

// Store counts hits in a window. Incr returns the count after the increment
// and the time the window expires.
type Store interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Time, error)
}

// FixedWindow allows Limit hits per Window for each key.
type FixedWindow struct {
	store  Store
	limit  int
	window time.Duration
}

// NewFixedWindow creates a fixed-window limiter over store.
func NewFixedWindow(store Store, limit int, window time.Duration) *FixedWindow {
	if limit <= 0 {
		limit = 30
	}
	if window <= 0 {
		window = time.Minute
	}
	return &FixedWindow{store: store, limit: limit, window: window}
}

// Key builds the counter key for a scope and client.
func Key(scope, client string) string {
	return scope + ":" + client
}

// Allow counts a hit for scope and client.
func (l *FixedWindow) Allow(ctx context.Context, scope, client string) (Result, error) {
	count, resetAt, err := l.store.Incr(ctx, Key(scope, client), l.window)
	if err != nil {
		return Result{Allowed: true, Limit: l.limit, Remaining: l.limit}, err
	}

	res := Result{
		Allowed:   count <= int64(l.limit),
		Limit:     l.limit,
		Remaining: max(l.limit-int(count), 0),
		ResetAt:   resetAt,
	}
	if !res.Allowed {
		rejected.WithLabelValues(scope).Inc()
	}
	return res, nil
}
