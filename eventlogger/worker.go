package eventlogger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Worker persists events on a background goroutine so request handlers never
// wait on the events table.
type Worker struct {
	eventCh chan Event
	logger  EventLogger
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	dropped atomic.Int64
	closed  atomic.Bool
}

func NewWorker(logger EventLogger, bufferSize int) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		eventCh: make(chan Event, bufferSize),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (w *Worker) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-w.ctx.Done():
				w.drain()
				return
			case event := <-w.eventCh:
				w.save(w.ctx, event)
			}
		}
	}()
}

func (w *Worker) drain() {
	slog.Info("draining events before shutdown", "remaining_events", len(w.eventCh))
	for {
		select {
		case event := <-w.eventCh:
			w.save(context.Background(), event)
		default:
			return
		}
	}
}

func (w *Worker) save(ctx context.Context, event Event) {
	if err := w.logger.Save(ctx, event); err != nil {
		slog.Error("failed to save event", "error", err, "event_type", event.Type)
	}
}

// Log queues event, dropping it when the buffer is full or the worker has
// shut down.
func (w *Worker) Log(event Event) {
	if w.closed.Load() {
		w.dropped.Add(1)
		return
	}
	select {
	case w.eventCh <- event:
	default:
		w.dropped.Add(1)
		slog.Warn("event channel full, dropping event", "event_type", event.Type)
	}
}

func (w *Worker) Dropped() int64 {
	return w.dropped.Load()
}

func (w *Worker) Shutdown() {
	w.closed.Store(true)
	w.cancel()
	w.wg.Wait()
}
