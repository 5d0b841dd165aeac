package dcache

// Options configures a cache. Zero values are safe; defaults are applied
// in New:
//   - Segments <= 0 => tiered by MaxSize (see DefaultSegments)
//   - zero Purger   => Fast (asynchronous fast-scan)
//   - nil Metrics   => NoopMetrics
//   - nil Clock     => monotonic seconds since process start
type Options[K comparable, V any] struct {
	// MaxSize is the total entry bound across all segments (required, > 0).
	// Each segment enforces MaxSize / Segments independently; there is no
	// global accounting on the write path, so the bound is approximate.
	MaxSize int

	// Segments is the number of independent shards. Routing is
	// hash(key) mod Segments, stable for the cache lifetime.
	Segments int

	// Purger selects the eviction strategy run when a segment exceeds its
	// bound. The zero value is Fast.
	Purger Purger[K, V]

	// Metrics receives hit/miss/purge/size signals. Nil => NoopMetrics.
	// Plug metrics/prom.Adapter to export Prometheus metrics.
	Metrics Metrics

	// Clock overrides the time source (tests). Nil => monotonic seconds.
	Clock Clock

	// SingleFlight coalesces concurrent Fetch misses for the same key so
	// the producer runs at most once per key at a time. Off by default:
	// the base contract lets producers race, last Put wins.
	SingleFlight bool
}

// DefaultSegments picks a segment count for a cache bounded at max
// entries. Small caches get few segments so per-segment limits stay
// meaningful; large caches get many to spread lock contention.
func DefaultSegments(max int) int {
	switch {
	case max >= 10_000:
		return 100
	case max >= 100:
		return 10
	case max >= 10:
		return 3
	default:
		return 1
	}
}
