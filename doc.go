// Package dcache provides a sharded, size-bounded, in-process key/value
// cache with per-entry TTL and pluggable purge strategies. It is meant
// for embedding into a host application that needs a fast local cache
// with a hard upper bound on total entries, no background supervisor,
// and tolerance for approximate eviction.
//
// Design
//
//   - Sharding: a cache is split into N segments, each an RWMutex-guarded
//     table. Every operation hashes the key once (xxhash for string keys)
//     and routes mod N; routing is stable for the cache lifetime and
//     segments never coordinate on the hot path.
//
//   - Bound: each segment independently enforces MaxSize / N. A Put that
//     grows a segment past its bound triggers the configured Purger; the
//     count may transiently sit one above the bound between the insert
//     and the purge.
//
//   - Purgers: Fast drops entries in table order ignoring expiry;
//     Expired deletes everything past its deadline and falls back to
//     Fast when nothing had expired; Blocking rebuilds the segment
//     in-line with the triggering Put; None lets segments grow without
//     limit; Custom hands the segment to caller code. Fast and Expired
//     run detached by default, with *NoSpawn variants that run in-line.
//     A per-segment flag won by compare-and-swap keeps purge work
//     single-file per segment without blocking unrelated operations.
//     The flag lives outside the table, so Size never counts it and
//     segment iteration sees only stored entries.
//
//   - TTL: expiries are whole monotonic seconds. Expiry on read is lazy:
//     Get deletes an expired entry before reporting the miss, and
//     nothing else evicts a specific expired key until capacity pressure
//     runs a purge on its segment. TTL and EntryOf observe entries
//     without deleting them; TTLs may be negative.
//
//   - Fetch: the read-through path. The producer's Result selects the
//     cache effect — Ok/OkFor store, Skip bypasses, Fail propagates.
//     Concurrent misses race by default (last Put wins);
//     Options.SingleFlight coalesces them.
//
//   - Binding: New bakes the configuration into a typed handle (static
//     form). Registry resolves a cache by name on every call (dynamic
//     form) at the cost of one extra lookup.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Purge/Size signals;
//     NoopMetrics is the default and metrics/prom exports Prometheus
//     collectors.
//
// Basic usage
//
//	c := dcache.New[string, string]("users", dcache.Options[string, string]{MaxSize: 10_000})
//	c.Put("goku", "9001", 5*time.Minute)
//	if v, ok := c.Get("goku"); ok {
//	    _ = v
//	}
//
// Read-through
//
//	v, err := c.Fetch("goku", func(key string) dcache.Result[string] {
//	    row, err := db.Load(key)
//	    if err != nil {
//	        return dcache.Fail[string](err)
//	    }
//	    return dcache.Ok(row)
//	}, time.Minute)
//
// Choosing a purger
//
//	c := dcache.New[string, int]("scores", dcache.Options[string, int]{
//	    MaxSize: 100_000,
//	    Purger:  dcache.Expired[string, int](),
//	})
//
// Misuse is loud: every operation on a destroyed cache panics with
// ErrDestroyed, and a Registry operation naming an unknown cache panics
// with ErrUnknownCache.
package dcache
