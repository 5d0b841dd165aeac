package dcache

import (
	"sync"
	"sync/atomic"

	"github.com/karlseguin/dcache/internal/util"
)

// Segment is one independent partition of a cache: an RWMutex-guarded
// table plus the per-segment purge flag. Keys are routed to a segment by
// hash and never move. The exported surface is what custom purgers and
// the iteration escape hatches operate on; everything else is driven by
// the owning Cache.
type Segment[K comparable, V any] struct {
	name  string
	limit int

	// ---- guarded by mu ----
	mu sync.RWMutex
	m  map[K]*Entry[K, V]

	// purging is the purge flag: a successful CompareAndSwap(false, true)
	// grants the exclusive right to run purge work on this segment.
	purging atomic.Bool

	// ---- hot counters (separate cache lines to avoid false sharing) ----
	_      util.CacheLinePad
	hits   util.PaddedAtomicInt64
	misses util.PaddedAtomicInt64
	purged util.PaddedAtomicInt64
}

func newSegment[K comparable, V any](name string, limit int) *Segment[K, V] {
	return &Segment[K, V]{
		name:  name,
		limit: limit,
		m:     make(map[K]*Entry[K, V], limit),
	}
}

// Name returns the segment's derived name: the cache name followed by the
// segment index, e.g. "users3".
func (s *Segment[K, V]) Name() string { return s.name }

// Limit returns the per-segment entry bound.
func (s *Segment[K, V]) Limit() int { return s.limit }

// Len returns the number of resident entries, expired ones included.
func (s *Segment[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

// Delete removes key if present.
func (s *Segment[K, V]) Delete(key K) {
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
}

// Clear discards every entry in the segment.
func (s *Segment[K, V]) Clear() {
	s.clear()
}

// ForEach visits every entry under the segment read lock until fn returns
// false. fn must not call mutating Segment methods — collect keys and
// mutate after ForEach returns.
func (s *Segment[K, V]) ForEach(fn func(e *Entry[K, V]) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.m {
		if !fn(e) {
			return
		}
	}
}

// -------------------- cache-driven operations --------------------

// get returns the live value for key. An entry past its deadline is
// deleted before the miss is reported, so expired values are never
// observable through get.
func (s *Segment[K, V]) get(key K, now int64) (V, bool) {
	s.mu.RLock()
	e, ok := s.m[key]
	s.mu.RUnlock()

	if ok && !e.expired(now) {
		s.hits.Add(1)
		return e.value, true
	}
	if ok {
		// Lazy expiry: delete only if the table still holds the same
		// entry — a concurrent Put may have refreshed the key.
		s.mu.Lock()
		if cur, still := s.m[key]; still && cur == e {
			delete(s.m, key)
		}
		s.mu.Unlock()
	}
	s.misses.Add(1)
	var zero V
	return zero, false
}

// entry returns the raw entry regardless of expiry, nil if absent.
func (s *Segment[K, V]) entry(key K) *Entry[K, V] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m[key]
}

// put stores e under key. Replacing an existing key never trips the
// capacity check (the table did not grow). For a new key, over reports
// whether the table now exceeds its bound; with blocking set the segment
// is instead cleared and e reinserted under the same lock, and cleared
// carries the number of discarded entries.
func (s *Segment[K, V]) put(key K, e *Entry[K, V], blocking bool) (over bool, cleared int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.m[key]; exists {
		s.m[key] = e
		return false, 0
	}
	s.m[key] = e
	if len(s.m) <= s.limit {
		return false, 0
	}
	if blocking {
		cleared = len(s.m) - 1
		s.m = make(map[K]*Entry[K, V], s.limit)
		s.m[key] = e
		return false, cleared
	}
	return true, 0
}

// take atomically removes and returns the entry for key, nil if absent.
// Expiry is not consulted.
func (s *Segment[K, V]) take(key K) *Entry[K, V] {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.m[key]
	if e != nil {
		delete(s.m, key)
	}
	return e
}

func (s *Segment[K, V]) clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.m)
	s.m = make(map[K]*Entry[K, V], s.limit)
	return n
}

// -------------------- purge machinery --------------------

// beginPurge tries to win the segment's purge flag. Exactly one caller
// succeeds until endPurge runs.
func (s *Segment[K, V]) beginPurge() bool {
	return s.purging.CompareAndSwap(false, true)
}

func (s *Segment[K, V]) endPurge() {
	s.purging.Store(false)
}

// purgeFast deletes up to target keys in table order, ignoring expiry.
// The scan runs in two passes — collect under the read lock, delete under
// the write lock — so reads stay permitted while candidates are gathered;
// writes to the segment wait for the collection pass.
func (s *Segment[K, V]) purgeFast(target int) int {
	victims := make([]K, 0, target)
	s.mu.RLock()
	for k := range s.m {
		victims = append(victims, k)
		if len(victims) == target {
			break
		}
	}
	s.mu.RUnlock()

	removed := 0
	s.mu.Lock()
	for _, k := range victims {
		if _, ok := s.m[k]; ok {
			delete(s.m, k)
			removed++
		}
	}
	s.mu.Unlock()

	s.purged.Add(int64(removed))
	return removed
}

// purgeExpired deletes every entry whose expiry is strictly before now;
// an entry expiring exactly at now is kept, although Get already treats
// it as expired. Same
// two-pass shape as purgeFast; the second pass rechecks expiry so a key
// refreshed between the passes survives.
func (s *Segment[K, V]) purgeExpired(now int64) int {
	var victims []K
	s.mu.RLock()
	for k, e := range s.m {
		if e.expiry < now {
			victims = append(victims, k)
		}
	}
	s.mu.RUnlock()

	removed := 0
	s.mu.Lock()
	for _, k := range victims {
		if e, ok := s.m[k]; ok && e.expiry < now {
			delete(s.m, k)
			removed++
		}
	}
	s.mu.Unlock()

	s.purged.Add(int64(removed))
	return removed
}
