package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/use-agent/sectionscope/models"
)

const (
	defaultQueueSize = 256
	saveTimeout      = 5 * time.Second
)

// retryDelays are the waits before each retry of a failed save.
var retryDelays = []time.Duration{500 * time.Millisecond, 2 * time.Second}

// Recorder hands summaries to a Store on a background worker. Record never
// blocks; when the queue is full the summary is dropped and logged.
type Recorder struct {
	store  Store
	queue  chan models.Summary
	delays []time.Duration

	closeOnce sync.Once
	done      chan struct{}
}

// NewRecorder starts the worker. queueSize <= 0 selects the default.
func NewRecorder(s Store, queueSize int) *Recorder {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	r := &Recorder{
		store:  s,
		queue:  make(chan models.Summary, queueSize),
		delays: retryDelays,
		done:   make(chan struct{}),
	}
	go r.run()
	return r
}

// Record enqueues s for persistence.
func (r *Recorder) Record(s models.Summary) {
	defer func() {
		// Record after Close must not panic the caller.
		if rec := recover(); rec != nil {
			slog.Warn("store: recorder closed, summary dropped", "url", s.URL)
		}
	}()

	select {
	case r.queue <- s:
	default:
		slog.Warn("store: queue full, summary dropped",
			"url", s.URL,
			"backend", r.store.Name(),
		)
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for s := range r.queue {
		r.save(s)
	}
}

func (r *Recorder) save(s models.Summary) {
	for attempt := 0; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		err := r.store.SaveSummary(ctx, s)
		cancel()
		if err == nil {
			return
		}
		if attempt >= len(r.delays) {
			slog.Error("store: summary not persisted",
				"url", s.URL,
				"backend", r.store.Name(),
				"attempts", attempt+1,
				"error", err,
			)
			return
		}
		slog.Warn("store: save failed, retrying",
			"url", s.URL,
			"attempt", attempt+1,
			"error", err,
		)
		time.Sleep(r.delays[attempt])
	}
}

// Close stops accepting summaries and waits for the queue to drain or ctx
// to end.
func (r *Recorder) Close(ctx context.Context) error {
	r.closeOnce.Do(func() { close(r.queue) })
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
