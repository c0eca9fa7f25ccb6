package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/use-agent/sectionscope/models"
)

type fakeStore struct {
	mu       sync.Mutex
	saved    []models.Summary
	failures int
	attempts int

	started chan struct{}
	release chan struct{}
}

func (f *fakeStore) Name() string { return "fake" }

func (f *fakeStore) SaveSummary(ctx context.Context, s models.Summary) error {
	if f.started != nil {
		f.started <- struct{}{}
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.failures > 0 {
		f.failures--
		return errors.New("connection refused")
	}
	f.saved = append(f.saved, s)
	return nil
}

func (f *fakeStore) Recent(context.Context, string, int) ([]models.Summary, error) {
	return nil, nil
}
func (f *fakeStore) Ping(context.Context) error { return nil }
func (f *fakeStore) Close() error               { return nil }

func (f *fakeStore) snapshot() ([]models.Summary, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Summary(nil), f.saved...), f.attempts
}

func closeRecorder(t *testing.T, r *Recorder) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestRecorder_PersistsInOrder(t *testing.T) {
	fs := &fakeStore{}
	r := NewRecorder(fs, 8)

	for i := 1; i <= 3; i++ {
		r.Record(summaryAt("https://a.example", i))
	}
	closeRecorder(t, r)

	saved, _ := fs.snapshot()
	if len(saved) != 3 {
		t.Fatalf("saved %d summaries, want 3", len(saved))
	}
	for i, s := range saved {
		if s.SectionsCount != i+1 {
			t.Errorf("saved[%d].SectionsCount = %d, want %d", i, s.SectionsCount, i+1)
		}
	}
}

func TestRecorder_Retries(t *testing.T) {
	tests := []struct {
		name         string
		failures     int
		wantSaved    int
		wantAttempts int
	}{
		{"recovers", 2, 1, 3},
		{"gives up", 5, 0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &fakeStore{failures: tt.failures}
			r := NewRecorder(fs, 1)
			r.delays = []time.Duration{time.Millisecond, time.Millisecond}

			r.Record(summaryAt("https://a.example", 1))
			closeRecorder(t, r)

			saved, attempts := fs.snapshot()
			if len(saved) != tt.wantSaved {
				t.Errorf("saved %d, want %d", len(saved), tt.wantSaved)
			}
			if attempts != tt.wantAttempts {
				t.Errorf("attempts = %d, want %d", attempts, tt.wantAttempts)
			}
		})
	}
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	fs := &fakeStore{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	r := NewRecorder(fs, 1)

	r.Record(summaryAt("https://a.example", 1))
	<-fs.started // worker holds the first summary

	r.Record(summaryAt("https://a.example", 2)) // fills the queue
	r.Record(summaryAt("https://a.example", 3)) // dropped

	go func() {
		for range fs.started {
			fs.release <- struct{}{}
		}
	}()
	fs.release <- struct{}{}
	closeRecorder(t, r)
	close(fs.started)

	saved, _ := fs.snapshot()
	if len(saved) != 2 {
		t.Fatalf("saved %d summaries, want 2", len(saved))
	}
	if saved[1].SectionsCount != 2 {
		t.Errorf("second saved summary = %d, want 2", saved[1].SectionsCount)
	}
}

func TestRecorder_RecordAfterClose(t *testing.T) {
	r := NewRecorder(&fakeStore{}, 1)
	closeRecorder(t, r)

	// Must not panic.
	r.Record(summaryAt("https://a.example", 1))
}
