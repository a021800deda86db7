package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jengzang/pathtrack-backend-go/internal/models"
)

// Sink durably stores a completed path and returns its assigned identifier.
type Sink interface {
	SavePath(ctx context.Context, path models.Path) (string, error)
}

// RetryPolicy controls how many times a failed save is attempted
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration // multiplied by the attempt number
}

// DefaultRetryPolicy provides default save retries
var DefaultRetryPolicy = RetryPolicy{
	Attempts: 3,
	Backoff:  200 * time.Millisecond,
}

const flushQueueSize = 64

// Flusher writes flushed paths to a Sink on a background goroutine so that fix
// processing never waits for storage. Paths that still fail after all attempts
// are kept as pending and retried by Retry or Close; they are never dropped.
type Flusher struct {
	sink   Sink
	policy RetryPolicy

	queue  chan models.Path
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	closed  bool
	pending []models.Path
	saved   []string
}

// NewFlusher creates a flusher and starts its writer goroutine.
func NewFlusher(sink Sink, policy RetryPolicy) *Flusher {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	f := &Flusher{
		sink:   sink,
		policy: policy,
		queue:  make(chan models.Path, flushQueueSize),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
	go f.run()
	return f
}

// Enqueue hands a path to the writer without blocking.
func (f *Flusher) Enqueue(path models.Path) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		f.pending = append(f.pending, path)
		return
	}
	select {
	case f.queue <- path:
	default:
		log.Printf("[Flusher] Queue full, deferring path for session %s", path.SessionID)
		f.pending = append(f.pending, path)
	}
}

// Pending returns the number of paths waiting for a retry.
func (f *Flusher) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// Saved returns the identifiers of paths written so far.
func (f *Flusher) Saved() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.saved))
	copy(out, f.saved)
	return out
}

// Retry attempts every pending path again, synchronously.
func (f *Flusher) Retry(ctx context.Context) error {
	f.mu.Lock()
	batch := f.pending
	f.pending = nil
	f.mu.Unlock()

	var errs []error
	for _, path := range batch {
		if err := f.save(ctx, path); err != nil {
			errs = append(errs, err)
			f.mu.Lock()
			f.pending = append(f.pending, path)
			f.mu.Unlock()
		}
	}
	return errors.Join(errs...)
}

// Close drains the queue, retries pending paths once more and stops the writer.
// If ctx expires first, the remaining paths stay pending and an error is returned.
func (f *Flusher) Close(ctx context.Context) error {
	f.mu.Lock()
	if !f.closed {
		f.closed = true
		close(f.queue)
	}
	f.mu.Unlock()

	select {
	case <-f.done:
	case <-ctx.Done():
		f.cancel()
		<-f.done
	}
	f.cancel()

	if err := f.Retry(ctx); err != nil {
		return fmt.Errorf("%d paths still pending: %w", f.Pending(), err)
	}
	return nil
}

func (f *Flusher) run() {
	defer close(f.done)
	for path := range f.queue {
		if err := f.save(f.ctx, path); err != nil {
			f.mu.Lock()
			f.pending = append(f.pending, path)
			f.mu.Unlock()
		}
	}
}

func (f *Flusher) save(ctx context.Context, path models.Path) error {
	var lastErr error
	for attempt := 1; attempt <= f.policy.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		id, err := f.sink.SavePath(ctx, path)
		if err == nil {
			f.mu.Lock()
			f.saved = append(f.saved, id)
			f.mu.Unlock()
			log.Printf("[Flusher] Saved path %s (%d points, reason=%s)", id, path.PointCount, path.FlushReason)
			return nil
		}

		lastErr = err
		log.Printf("[Flusher] Save attempt %d/%d failed for session %s: %v", attempt, f.policy.Attempts, path.SessionID, err)

		if attempt < f.policy.Attempts && f.policy.Backoff > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(f.policy.Backoff * time.Duration(attempt)):
			}
		}
	}
	return fmt.Errorf("failed to save path: %w", lastErr)
}
