// Package cache keeps the most recently loaded raw table set in memory and
// reloads it after a fixed time-to-live.
package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/revops-assistant/internal/table"
)

// Loader reads the full raw table set from storage.
type Loader interface {
	Load(ctx context.Context) (*table.Set, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) (*table.Set, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context) (*table.Set, error) { return f(ctx) }

type entry struct {
	set      *table.Set
	loadedAt time.Time
}

// Tables is a TTL cache over a Loader. Readers never block each other;
// concurrent reloads are coalesced into one Load call and the new set is
// published with a single pointer swap.
type Tables struct {
	loader Loader
	ttl    time.Duration

	current     atomic.Pointer[entry]
	group       singleflight.Group
	loadTimeout time.Duration

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// Option configures a Tables cache.
type Option func(*Tables)

// WithClock overrides the clock used for expiry.
func WithClock(now func() time.Time) Option {
	return func(t *Tables) { t.nowFunc = now }
}

// WithLoadTimeout bounds a single reload. Zero means no bound.
func WithLoadTimeout(d time.Duration) Option {
	return func(t *Tables) { t.loadTimeout = d }
}

// DefaultLoadTimeout bounds a reload unless WithLoadTimeout says otherwise.
const DefaultLoadTimeout = 5 * time.Minute

// New creates a cache over loader. A ttl of zero or less never expires.
func New(loader Loader, ttl time.Duration, opts ...Option) *Tables {
	t := &Tables{loader: loader, ttl: ttl, nowFunc: time.Now, loadTimeout: DefaultLoadTimeout}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Get returns the cached table set, loading it when absent or older than the
// TTL. A failed load returns the error and leaves the previous set in place
// for the next caller to retry against.
func (t *Tables) Get(ctx context.Context) (*table.Set, error) {
	if e := t.current.Load(); e != nil && t.fresh(e) {
		return e.set, nil
	}

	// The shared reload outlives any single caller; each caller stops
	// waiting when its own context ends.
	ch := t.group.DoChan("tables", func() (any, error) {
		// Another caller may have finished a reload while we waited.
		if e := t.current.Load(); e != nil && t.fresh(e) {
			return e.set, nil
		}
		return t.reload(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, eris.Wrap(ctx.Err(), "cache: wait for tables")
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		if r.Shared {
			zap.L().Debug("cache: shared reload")
		}
		return r.Val.(*table.Set), nil
	}
}

func (t *Tables) reload(ctx context.Context) (*table.Set, error) {
	if t.loadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.loadTimeout)
		defer cancel()
	}
	start := t.nowFunc()
	set, err := t.loader.Load(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "cache: load tables")
	}
	t.current.Store(&entry{set: set, loadedAt: t.nowFunc()})
	zap.L().Debug("cache: tables loaded",
		zap.Any("counts", set.Counts()),
		zap.Duration("duration", t.nowFunc().Sub(start)),
	)
	return set, nil
}

// Invalidate drops the cached set so the next Get reloads.
func (t *Tables) Invalidate() {
	t.current.Store(nil)
}

// LoadedAt reports when the current set was loaded, or the zero time.
func (t *Tables) LoadedAt() time.Time {
	if e := t.current.Load(); e != nil {
		return e.loadedAt
	}
	return time.Time{}
}

func (t *Tables) fresh(e *entry) bool {
	if t.ttl <= 0 {
		return true
	}
	return t.nowFunc().Sub(e.loadedAt) < t.ttl
}
