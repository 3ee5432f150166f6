// Package ratelimit counts requests per scope and subject in fixed windows.
// Counters live in a Store so several API nodes can share them through Redis.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Milbo-LLC/waybook-sub000/middleware"
)

type Store interface {
	// Consume increments the counter at key and returns the new count along
	// with the seconds left in its window.
	Consume(ctx context.Context, key string, window time.Duration) (count int, retryAfter int, err error)
}

type Decision struct {
	Allowed    bool
	Count      int
	Limit      int
	RetryAfter int
}

type Limiter struct {
	store  Store
	limit  int
	window time.Duration
}

// NewLimiter allows limit requests per window. A non-positive limit disables
// limiting.
func NewLimiter(store Store, limit int, window time.Duration) *Limiter {
	return &Limiter{store: store, limit: limit, window: window}
}

func (l *Limiter) Allow(ctx context.Context, scope, subject string) (Decision, error) {
	scope, subject = strings.TrimSpace(scope), strings.TrimSpace(subject)
	if l == nil || l.limit <= 0 || l.window <= 0 || scope == "" || subject == "" {
		return Decision{Allowed: true}, nil
	}

	count, retryAfter, err := l.store.Consume(ctx, scope+":"+subject, l.window)
	if err != nil {
		return Decision{}, fmt.Errorf("consuming rate limit %s: %w", scope, err)
	}

	return Decision{
		Allowed:    count <= l.limit,
		Count:      count,
		Limit:      l.limit,
		RetryAfter: retryAfter,
	}, nil
}

// Middleware limits a route per subject, where subject extracts the caller's
// identity from the request. Store failures let the request through.
func (l *Limiter) Middleware(scope string, subject func(r *http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision, err := l.Allow(r.Context(), scope, subject(r))
			if err != nil {
				slog.Error("rate limiter unavailable", "error", err, "scope", scope)
				next.ServeHTTP(w, r)
				return
			}
			if !decision.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(decision.RetryAfter))
				middleware.WriteError(w, http.StatusTooManyRequests, "rate_limited",
					fmt.Sprintf("too many requests, retry in %d seconds", decision.RetryAfter))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
