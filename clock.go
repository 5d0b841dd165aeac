package dcache

import "time"

// Clock provides the current time in whole seconds on a monotonic scale.
// All expiry arithmetic runs against this clock, so expiries are
// meaningless across process restarts; the cache is purely in-memory.
// Supplying a fake Clock makes TTL behavior deterministic in tests.
type Clock interface {
	Now() int64
}

// monotonicBase anchors the default clock. Every cache in the process
// shares it so expiries observed through different caches are comparable.
var monotonicBase = time.Now()

// monotonicClock counts seconds since process start using the runtime's
// monotonic reading; wall-clock adjustments never move it backward.
type monotonicClock struct{}

func (monotonicClock) Now() int64 {
	return int64(time.Since(monotonicBase) / time.Second)
}
