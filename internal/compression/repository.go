package compression

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"png_compression/entity"
	"png_compression/pkg/logger"
)

const DefaultSweepInterval = 30 * time.Second

// ObjectRepository holds compressed results in memory until they expire.
// Lookups never return an expired object, whether or not the sweeper has
// removed it yet.
type ObjectRepository struct {
	mu      sync.RWMutex
	objects map[string]entity.StoredObject
	l       logger.Interface

	now   func() time.Time
	newID func() string

	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
	once     sync.Once
}

// RepositoryOption -.
type RepositoryOption func(*ObjectRepository)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) RepositoryOption {
	return func(r *ObjectRepository) {
		r.now = now
	}
}

// WithIDGenerator replaces the uuid generator, mainly for tests.
func WithIDGenerator(gen func() string) RepositoryOption {
	return func(r *ObjectRepository) {
		r.newID = gen
	}
}

// NewObjectRepository creates the store and starts its sweeper. A non-positive
// interval falls back to DefaultSweepInterval. Call Close to stop the sweeper.
func NewObjectRepository(l logger.Interface, interval time.Duration, opts ...RepositoryOption) *ObjectRepository {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	repo := &ObjectRepository{
		objects:  make(map[string]entity.StoredObject),
		l:        l,
		now:      time.Now,
		newID:    uuid.NewString,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(repo)
	}

	go repo.sweepWorker()
	return repo
}

// Insert stores buf under a fresh id and returns the stored object.
func (r *ObjectRepository) Insert(_ context.Context, buf []byte, mimeType string, ttl time.Duration) entity.StoredObject {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.newID()
	for {
		if _, taken := r.objects[id]; !taken {
			break
		}
		id = r.newID()
	}

	obj := entity.StoredObject{
		ID:       id,
		Buffer:   buf,
		MimeType: mimeType,
		Expiry:   r.now().Add(ttl),
	}
	r.objects[id] = obj

	return obj
}

// Lookup returns the object for id, or entity.ErrNotFound when it is absent or expired.
func (r *ObjectRepository) Lookup(_ context.Context, id string) (entity.StoredObject, error) {
	r.mu.RLock()
	obj, ok := r.objects[id]
	r.mu.RUnlock()

	if !ok || !obj.ValidAt(r.now()) {
		return entity.StoredObject{}, entity.ErrNotFound
	}

	return obj, nil
}

// Sweep removes every object whose expiry is at or before now and returns how many were removed.
func (r *ObjectRepository) Sweep() int {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, obj := range r.objects {
		if !obj.ValidAt(now) {
			delete(r.objects, id)
			removed++
		}
	}

	return removed
}

// Len returns the number of objects held, expired-but-unswept ones included.
func (r *ObjectRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.objects)
}

// Close stops the sweeper and waits for it to exit. Safe to call more than once.
func (r *ObjectRepository) Close() {
	r.once.Do(func() {
		close(r.stop)
	})
	<-r.done
}

func (r *ObjectRepository) sweepWorker() {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.l.Debug("Removed %d expired objects", n)
			}
		case <-r.stop:
			return
		}
	}
}
