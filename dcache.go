package dcache

import (
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/karlseguin/dcache/internal/singleflight"
	"github.com/karlseguin/dcache/internal/util"
)

var (
	// ErrDestroyed is the panic value of every operation on a destroyed
	// cache. Destroy is final; there is no resurrect.
	ErrDestroyed = errors.New("dcache: cache used after destroy")

	// ErrUnknownCache is the panic value of a Registry operation naming a
	// cache that was never set up or has been destroyed.
	ErrUnknownCache = errors.New("dcache: unknown cache name")
)

// Cache is a sharded, size-bounded key/value cache with per-entry TTL.
// All methods are safe for concurrent use by multiple goroutines.
//
// Every operation hashes the key once, routes to one of the segments
// fixed at construction, and performs a point operation there; no
// cross-segment coordination happens on the hot path. Write paths that
// grow a segment past its bound trigger the configured Purger.
type Cache[K comparable, V any] struct {
	name      string
	segments  []*Segment[K, V]
	purger    Purger[K, V]
	metrics   Metrics
	clock     Clock
	destroyed atomic.Bool

	// sf coalesces concurrent Fetch misses; nil unless Options.SingleFlight.
	sf *singleflight.Group[K, V]
}

// New constructs a cache with the provided Options. The segment count,
// per-segment bound, and purger are baked into the returned handle, so
// each call performs exactly one routing hash and one segment operation.
func New[K comparable, V any](name string, opt Options[K, V]) *Cache[K, V] {
	if opt.MaxSize <= 0 {
		panic("dcache: MaxSize must be > 0")
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.Clock == nil {
		opt.Clock = monotonicClock{}
	}

	n := opt.Segments
	if n <= 0 {
		n = DefaultSegments(opt.MaxSize)
	}
	limit := opt.MaxSize / n
	if limit < 1 {
		limit = 1
	}

	segments := make([]*Segment[K, V], n)
	for i := range segments {
		segments[i] = newSegment[K, V](name+strconv.Itoa(i), limit)
	}

	c := &Cache[K, V]{
		name:     name,
		segments: segments,
		purger:   opt.Purger,
		metrics:  opt.Metrics,
		clock:    opt.Clock,
	}
	if opt.SingleFlight {
		c.sf = &singleflight.Group[K, V]{}
	}
	return c
}

// Name returns the cache name given to New.
func (c *Cache[K, V]) Name() string { return c.name }

// Get returns the live value for key. An entry past its deadline is
// deleted on the way out and reported as a miss; this lazy read-side
// expiry is the only mechanism that evicts a specific expired key
// without a capacity-triggered purge.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.check()
	v, ok := c.segment(key).get(key, c.clock.Now())
	if ok {
		c.metrics.Hit()
	} else {
		c.metrics.Miss()
	}
	return v, ok
}

// EntryOf returns the raw entry for key regardless of expiry, nil if
// absent. Nothing is deleted.
func (c *Cache[K, V]) EntryOf(key K) *Entry[K, V] {
	c.check()
	return c.segment(key).entry(key)
}

// TTL returns the remaining lifetime of key in seconds. The result is
// negative for an entry already past its deadline; expired entries are
// not deleted. The second return is false when key is absent.
func (c *Cache[K, V]) TTL(key K) (int64, bool) {
	c.check()
	e := c.segment(key).entry(key)
	if e == nil {
		return 0, false
	}
	return e.TTL(c.clock.Now()), true
}

// Put stores value under key with the given TTL, truncated to whole
// seconds. A negative TTL produces an already-expired entry. Replacing
// an existing key never triggers a purge; a new key that pushes its
// segment past the bound does.
func (c *Cache[K, V]) Put(key K, value V, ttl time.Duration) {
	c.check()
	s := c.segment(key)
	e := &Entry[K, V]{key: key, value: value, expiry: c.clock.Now() + int64(ttl/time.Second)}

	over, cleared := s.put(key, e, c.purger.strategy == purgeBlocking)
	if cleared > 0 {
		s.purged.Add(int64(cleared))
		c.metrics.Purge(PurgedBlocking, cleared)
		c.metrics.Size(s.name, s.Len())
	}
	if over {
		c.purge(s)
	}
}

// Del removes key if present. Deleting an absent key is a no-op.
func (c *Cache[K, V]) Del(key K) {
	c.check()
	c.segment(key).Delete(key)
}

// Take atomically removes and returns the entry for key, expired or not.
// It returns nil when key is absent.
func (c *Cache[K, V]) Take(key K) *Entry[K, V] {
	c.check()
	return c.segment(key).take(key)
}

// Fetch returns the live value for key, invoking producer on a miss.
// The producer decides the cache effect through its Result: Ok and OkFor
// store the value (OkFor with its own TTL), Skip returns it uncached,
// Fail propagates the error. Concurrent misses on the same key each run
// the producer and the last Put wins, unless Options.SingleFlight
// coalesces them.
func (c *Cache[K, V]) Fetch(key K, producer func(K) Result[V], ttl time.Duration) (V, error) {
	c.check()
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	if c.sf != nil {
		return c.sf.Do(key, func() (V, error) {
			// Double-check after flight join: the leader may have cached it.
			if v, ok := c.Get(key); ok {
				return v, nil
			}
			return c.produce(key, producer, ttl)
		})
	}
	return c.produce(key, producer, ttl)
}

// MustFetch is Fetch with the error unwrapped into a panic carrying the
// producer's error.
func (c *Cache[K, V]) MustFetch(key K, producer func(K) Result[V], ttl time.Duration) V {
	v, err := c.Fetch(key, producer, ttl)
	if err != nil {
		panic(err)
	}
	return v
}

func (c *Cache[K, V]) produce(key K, producer func(K) Result[V], ttl time.Duration) (V, error) {
	res := producer(key)
	switch res.kind {
	case resultError:
		var zero V
		return zero, res.err
	case resultSkip:
		return res.value, nil
	case resultOkTTL:
		ttl = res.ttl
	}
	c.Put(key, res.value, ttl)
	return res.value, nil
}

// Size returns the sum of per-segment counts, expired entries included.
// The sum is a snapshot with no cross-segment atomicity.
func (c *Cache[K, V]) Size() int {
	c.check()
	total := 0
	for _, s := range c.segments {
		total += s.Len()
	}
	return total
}

// Clear empties every segment in turn. Operations on segments not yet
// reached, or already cleared, interleave freely.
func (c *Cache[K, V]) Clear() {
	c.check()
	for _, s := range c.segments {
		s.clear()
		c.metrics.Size(s.name, 0)
	}
}

// Destroy releases the cache's storage. Any subsequent operation on the
// handle panics with ErrDestroyed.
func (c *Cache[K, V]) Destroy() {
	c.check()
	c.destroyed.Store(true)
	for _, s := range c.segments {
		s.clear()
	}
}

// Segments returns the segment handles in routing order. This is an
// escape hatch for administrative code that knows the raw storage
// contract; see Segment for what it may do with them.
func (c *Cache[K, V]) Segments() []*Segment[K, V] {
	c.check()
	out := make([]*Segment[K, V], len(c.segments))
	copy(out, c.segments)
	return out
}

// ForEachSegment invokes fn with each segment handle in routing order.
func (c *Cache[K, V]) ForEachSegment(fn func(s *Segment[K, V])) {
	c.check()
	for _, s := range c.segments {
		fn(s)
	}
}

// Stats aggregates the per-segment hot counters.
type Stats struct {
	Hits   int64
	Misses int64
	Purged int64 // entries removed by capacity-triggered purges
}

// Stats returns a snapshot of the cache's counters summed across
// segments.
func (c *Cache[K, V]) Stats() Stats {
	c.check()
	var st Stats
	for _, s := range c.segments {
		st.Hits += s.hits.Load()
		st.Misses += s.misses.Load()
		st.Purged += s.purged.Load()
	}
	return st
}

// -------------------- internals --------------------

// segment routes key to its segment: hash mod segment count, stable for
// the cache lifetime. Pure and allocation-free for the supported key
// types.
func (c *Cache[K, V]) segment(key K) *Segment[K, V] {
	return c.segments[util.SegmentIndex(util.Sum64(key), len(c.segments))]
}

func (c *Cache[K, V]) check() {
	if c.destroyed.Load() {
		panic(ErrDestroyed)
	}
}

// purge dispatches the configured strategy against an over-bound
// segment. Blocking was already handled under the segment lock in Put;
// None does nothing; Custom runs the caller's function in-line with no
// purge flag taken. Fast and Expired first win the segment's purge flag
// — if another purge is in flight the trigger returns immediately — and
// then run either on a detached goroutine or in-line.
func (c *Cache[K, V]) purge(s *Segment[K, V]) {
	switch c.purger.strategy {
	case purgeNone, purgeBlocking:
		return
	case purgeCustom:
		c.purger.custom(s)
		return
	}
	if !s.beginPurge() {
		return
	}
	if c.purger.inline {
		c.runPurge(s)
		return
	}
	go c.runPurge(s)
}

// runPurge executes fast or expired-first purge work with the purge flag
// held. The flag is released on every exit path, panics included.
func (c *Cache[K, V]) runPurge(s *Segment[K, V]) {
	defer s.endPurge()
	defer func() { c.metrics.Size(s.name, s.Len()) }()

	if c.purger.strategy == purgeExpired {
		if s.limit < tinySegmentLimit {
			// The scan is not worth its overhead on a tiny table.
			n := s.clear()
			s.purged.Add(int64(n))
			c.metrics.Purge(PurgedClear, n)
			return
		}
		if removed := s.purgeExpired(c.clock.Now()); removed > 0 {
			c.metrics.Purge(PurgedExpired, removed)
			return
		}
		// Nothing had expired; fall through to the fast scan.
	}
	c.metrics.Purge(PurgedFast, s.purgeFast(fastScanTarget(s.limit)))
}
