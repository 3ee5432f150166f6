package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func TestMemoryStoreWindows(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	for i := 1; i <= 3; i++ {
		count, retryAfter, err := store.Consume(context.Background(), "regen:alice", time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != i {
			t.Fatalf("expected count %d, got %d", i, count)
		}
		if retryAfter != 60 {
			t.Fatalf("expected retry after 60s, got %d", retryAfter)
		}
	}

	now = now.Add(45 * time.Second)
	count, retryAfter, _ := store.Consume(context.Background(), "regen:alice", time.Minute)
	if count != 4 || retryAfter != 15 {
		t.Fatalf("expected count 4 with 15s left, got %d with %ds", count, retryAfter)
	}

	if count, _, _ := store.Consume(context.Background(), "regen:bob", time.Minute); count != 1 {
		t.Fatalf("expected separate counter per key, got %d", count)
	}

	now = now.Add(16 * time.Second)
	if count, _, _ := store.Consume(context.Background(), "regen:alice", time.Minute); count != 1 {
		t.Fatalf("expected a fresh window, got count %d", count)
	}
}

func TestLimiterAllow(t *testing.T) {
	limiter := NewLimiter(NewMemoryStore(), 2, time.Minute)

	for i, want := range []bool{true, true, false} {
		d, err := limiter.Allow(context.Background(), "regenerate", "alice")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.Allowed != want {
			t.Fatalf("request %d: expected allowed=%v, got %v", i+1, want, d.Allowed)
		}
	}

	if d, _ := limiter.Allow(context.Background(), "regenerate", " "); !d.Allowed {
		t.Fatal("expected an empty subject to bypass the limiter")
	}
	if d, _ := NewLimiter(NewMemoryStore(), 0, time.Minute).Allow(context.Background(), "regenerate", "alice"); !d.Allowed {
		t.Fatal("expected a zero limit to disable limiting")
	}
}

type brokenStore struct{}

func (brokenStore) Consume(context.Context, string, time.Duration) (int, int, error) {
	return 0, 0, errors.New("redis: connection refused")
}

func TestMiddleware(t *testing.T) {
	limiter := NewLimiter(NewMemoryStore(), 1, time.Minute)
	handler := limiter.Middleware("regenerate", func(r *http.Request) string {
		return r.Header.Get("X-User")
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("X-User", "alice")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := send(); rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	rec := send()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Fatalf("expected Retry-After 60, got %q", rec.Header().Get("Retry-After"))
	}
}

func TestMiddlewareFailsOpen(t *testing.T) {
	limiter := NewLimiter(brokenStore{}, 1, time.Minute)
	handler := limiter.Middleware("regenerate", func(*http.Request) string { return "alice" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected the request through on store failure, got %d", rec.Code)
	}
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("parsing REDIS_URL: %v", err)
	}
	client := redis.NewClient(opts)
	t.Cleanup(func() { client.Close() })

	store := NewRedisStore(client, "waybook:test:")
	key := "regen:" + uuid.NewString()
	t.Cleanup(func() { client.Del(context.Background(), "waybook:test:"+key) })

	for i := 1; i <= 2; i++ {
		count, retryAfter, err := store.Consume(context.Background(), key, time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != i {
			t.Fatalf("expected count %d, got %d", i, count)
		}
		if retryAfter < 1 || retryAfter > 60 {
			t.Fatalf("expected retry after within the window, got %d", retryAfter)
		}
	}
}
