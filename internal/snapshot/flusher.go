package snapshot

import (
	"context"
	"sync"
	"time"

	"github.com/tillworks/tillpoint-backend/internal/pos"
	"github.com/tillworks/tillpoint-backend/pkg/logger"
)

// saver is the persistence surface the flusher needs.
type saver interface {
	Save(ctx context.Context, namespace string, payload []byte, lastUpdatedAt time.Time) error
}

// Flusher serializes snapshot writes onto one background worker so
// persisted state always reflects mutation order. Enqueue never blocks
// the mutation path: when the queue is full the oldest queued snapshot
// is dropped, since only the newest state matters.
type Flusher struct {
	repo      saver
	namespace string
	log       *logger.Logger
	timeout   time.Duration

	queue chan pos.Snapshot
	once  sync.Once
	done  chan struct{}
}

// NewFlusher starts the background worker. Close releases it.
func NewFlusher(repo saver, namespace string, timeout time.Duration, log *logger.Logger) *Flusher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	f := &Flusher{
		repo:      repo,
		namespace: namespace,
		log:       log,
		timeout:   timeout,
		queue:     make(chan pos.Snapshot, 64),
		done:      make(chan struct{}),
	}
	go f.run()
	return f
}

// Enqueue hands a snapshot to the worker. Safe to pass to
// pos.NewStore as the flush listener.
func (f *Flusher) Enqueue(snap pos.Snapshot) {
	for {
		select {
		case f.queue <- snap:
			return
		default:
		}
		select {
		case <-f.queue:
			// Dropped a stale snapshot to make room.
		default:
		}
	}
}

func (f *Flusher) run() {
	defer close(f.done)
	for snap := range f.queue {
		f.persist(snap)
	}
}

func (f *Flusher) persist(snap pos.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()
	ctx = f.log.WithField(ctx, "namespace", f.namespace)

	payload, err := pos.EncodeSnapshot(snap)
	if err != nil {
		f.log.Error(ctx, "encode tab snapshot", err)
		return
	}
	if err := f.repo.Save(ctx, f.namespace, payload, snap.LastUpdatedAt); err != nil {
		f.log.Error(ctx, "persist tab snapshot", err)
	}
}

// Close waits for queued snapshots to drain. Callers must stop
// mutating the store first; Enqueue after Close panics.
func (f *Flusher) Close() {
	f.once.Do(func() {
		close(f.queue)
	})
	<-f.done
}
