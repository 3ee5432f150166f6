package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type fakePurger struct {
	calls atomic.Int32
	n     int64
	err   error
}

func (f *fakePurger) DeleteExpired(context.Context) (int64, error) {
	f.calls.Add(1)
	return f.n, f.err
}

func TestPurgeExpiredSessionsLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	NewJobs(&fakePurger{n: 4}, logger).PurgeExpiredSessions()
	if !strings.Contains(buf.String(), "deleted=4") {
		t.Fatalf("expected deleted count in log, got %q", buf.String())
	}

	buf.Reset()
	NewJobs(&fakePurger{err: errors.New("connection refused")}, logger).PurgeExpiredSessions()
	if !strings.Contains(buf.String(), "level=ERROR") {
		t.Fatalf("expected an error log, got %q", buf.String())
	}
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	s := New(NewJobs(&fakePurger{}, logger), logger)

	if err := s.Start("every now and then"); err == nil {
		t.Fatal("expected an invalid schedule to fail")
	}
}

func TestSchedulerRunsPurge(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	purger := &fakePurger{}
	s := New(NewJobs(purger, logger), logger)

	if err := s.Start("@every 1s"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { <-s.Stop().Done() }()

	deadline := time.Now().Add(5 * time.Second)
	for purger.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected the purge job to run")
		}
		time.Sleep(50 * time.Millisecond)
	}
}
