package compression

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"png_compression/entity"
	"png_compression/pkg/logger"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testLogger() logger.Interface {
	return logger.NewWithWriter("error", io.Discard)
}

// Helper function to create a test repository with proper cleanup
func createTestRepository(t *testing.T, clock *fakeClock, opts ...RepositoryOption) *ObjectRepository {
	t.Helper()

	if clock != nil {
		opts = append(opts, WithClock(clock.Now))
	}
	r := NewObjectRepository(testLogger(), time.Hour, opts...)
	t.Cleanup(r.Close)
	return r
}

func TestInsertLookup(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	r := createTestRepository(t, clock)
	ctx := context.Background()

	payload := []byte("\x89PNG\r\n\x1a\ncompressed")
	obj := r.Insert(ctx, payload, entity.MimeTypePNG, 10*time.Minute)

	assert.NotEmpty(t, obj.ID)
	assert.Equal(t, clock.Now().Add(10*time.Minute), obj.Expiry)

	got, err := r.Lookup(ctx, obj.ID)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(payload, got.Buffer))
	assert.Equal(t, entity.MimeTypePNG, got.MimeType)
}

func TestLookupUnknownID(t *testing.T) {
	t.Parallel()
	r := createTestRepository(t, nil)

	_, err := r.Lookup(context.Background(), "never-issued")
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestLookupJustBeforeAndAfterExpiry(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	r := createTestRepository(t, clock)
	ctx := context.Background()

	ttl := 10 * time.Minute
	obj := r.Insert(ctx, []byte("abc"), entity.MimeTypePNG, ttl)

	clock.Advance(ttl - time.Millisecond)
	got, err := r.Lookup(ctx, obj.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got.Buffer)

	// Not swept yet, but expired entries must not be served.
	clock.Advance(time.Millisecond)
	_, err = r.Lookup(ctx, obj.ID)
	assert.ErrorIs(t, err, entity.ErrNotFound)
	assert.Equal(t, 1, r.Len())
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	r := createTestRepository(t, clock)
	ctx := context.Background()

	short := r.Insert(ctx, []byte("short"), entity.MimeTypePNG, time.Minute)
	long := r.Insert(ctx, []byte("long"), entity.MimeTypePNG, time.Hour)

	assert.Equal(t, 0, r.Sweep())

	clock.Advance(time.Minute)
	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 1, r.Len())

	_, err := r.Lookup(ctx, short.ID)
	assert.ErrorIs(t, err, entity.ErrNotFound)
	_, err = r.Lookup(ctx, long.ID)
	assert.NoError(t, err)
}

func TestBackgroundSweeper(t *testing.T) {
	t.Parallel()
	r := NewObjectRepository(testLogger(), 10*time.Millisecond)
	t.Cleanup(r.Close)

	r.Insert(context.Background(), []byte("x"), entity.MimeTypePNG, 20*time.Millisecond)
	require.Equal(t, 1, r.Len())

	assert.Eventually(t, func() bool { return r.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestInsertRegeneratesCollidingID(t *testing.T) {
	t.Parallel()
	var calls int32
	ids := []string{"dup", "dup", "fresh"}
	gen := func() string {
		i := atomic.AddInt32(&calls, 1) - 1
		return ids[i]
	}
	r := createTestRepository(t, nil, WithIDGenerator(gen))
	ctx := context.Background()

	first := r.Insert(ctx, []byte("1"), entity.MimeTypePNG, time.Hour)
	second := r.Insert(ctx, []byte("2"), entity.MimeTypePNG, time.Hour)

	assert.Equal(t, "dup", first.ID)
	assert.Equal(t, "fresh", second.ID)

	got, err := r.Lookup(ctx, "dup")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got.Buffer)
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()
	r := NewObjectRepository(testLogger(), time.Millisecond)
	r.Close()
	r.Close()
}

func TestConcurrentInsertLookupSweep(t *testing.T) {
	t.Parallel()
	r := createTestRepository(t, nil)
	ctx := context.Background()

	const workers = 10
	const perWorker = 200

	var wg sync.WaitGroup
	ids := make([][]string, workers)

	wg.Add(workers + 1)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				payload := []byte(fmt.Sprintf("w%d-%d", w, i))
				obj := r.Insert(ctx, payload, entity.MimeTypePNG, time.Hour)
				ids[w] = append(ids[w], obj.ID)

				got, err := r.Lookup(ctx, obj.ID)
				if assert.NoError(t, err) {
					assert.Equal(t, payload, got.Buffer)
				}
			}
		}(w)
	}
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			r.Sweep()
		}
	}()
	wg.Wait()

	seen := make(map[string]struct{}, workers*perWorker)
	for _, list := range ids {
		for _, id := range list {
			_, dup := seen[id]
			assert.False(t, dup, "id %s issued twice", id)
			seen[id] = struct{}{}
		}
	}
	assert.Equal(t, workers*perWorker, r.Len())
}
