package util

import (
	"fmt"
	"testing"
)

// Routing correctness rests on two properties: determinism within a
// process, and a spread good enough that small segment counts stay
// balanced.
func TestSum64_Deterministic(t *testing.T) {
	t.Parallel()

	keys := []string{"", "a", "hello", "αβγ", "k:12345"}
	for _, k := range keys {
		if Sum64(k) != Sum64(k) {
			t.Fatalf("Sum64(%q) not stable", k)
		}
	}
	if Sum64("a") == Sum64("b") {
		t.Fatal("distinct short keys collided")
	}

	for _, k := range []int{0, 1, -1, 1 << 40} {
		if Sum64(k) != Sum64(k) {
			t.Fatalf("Sum64(%d) not stable", k)
		}
	}
	if Sum64(1) == Sum64(2) {
		t.Fatal("distinct int keys collided")
	}
}

type stringerKey struct{ id int }

func (s stringerKey) String() string { return fmt.Sprintf("sk-%d", s.id) }

func TestSum64_StringerAndArrays(t *testing.T) {
	t.Parallel()

	if Sum64(stringerKey{1}) != Sum64("sk-1") {
		t.Fatal("Stringer keys must hash their String()")
	}
	var a, b [16]byte
	b[0] = 1
	if Sum64(a) == Sum64(b) {
		t.Fatal("distinct byte-array keys collided")
	}
}

func TestSum64_UnsupportedPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("unsupported key type must panic")
		}
	}()
	type odd struct{ a, b int }
	Sum64(odd{1, 2})
}

func TestSegmentIndex_Range(t *testing.T) {
	t.Parallel()

	for _, segments := range []int{1, 2, 3, 10, 16, 100} {
		for i := 0; i < 1_000; i++ {
			idx := SegmentIndex(Sum64(fmt.Sprintf("key-%d", i)), segments)
			if idx < 0 || idx >= segments {
				t.Fatalf("index %d out of range for %d segments", idx, segments)
			}
		}
	}
}

// With 10k keys over the default 100 segments, no segment should end up
// empty; that would mean the hash clumps badly at small moduli.
func TestSegmentIndex_Spread(t *testing.T) {
	t.Parallel()

	const segments = 100
	counts := make([]int, segments)
	for i := 0; i < 10_000; i++ {
		counts[SegmentIndex(Sum64(fmt.Sprintf("user:%d", i)), segments)]++
	}
	for idx, n := range counts {
		if n == 0 {
			t.Fatalf("segment %d received no keys", idx)
		}
	}
}
