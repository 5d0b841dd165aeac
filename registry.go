package dcache

import (
	"sync"
	"time"
)

// Registry is the dynamic binding surface: caches are set up under a
// name and every operation resolves that name to a handle before
// routing. The name table is read-mostly — written only by Setup and
// Destroy — so lookups take a shared lock.
//
// Both binding forms present the same observable semantics; the dynamic
// form just pays one extra lookup per call.
type Registry[K comparable, V any] struct {
	mu     sync.RWMutex
	caches map[string]*Cache[K, V]
}

// NewRegistry constructs an empty registry. Treat it as scoped
// process-wide state with explicit setup and teardown.
func NewRegistry[K comparable, V any]() *Registry[K, V] {
	return &Registry[K, V]{caches: make(map[string]*Cache[K, V])}
}

// Setup constructs a cache under name and registers it. Setting up a
// name that is already registered replaces the old handle; the old cache
// is not destroyed.
func (r *Registry[K, V]) Setup(name string, opt Options[K, V]) *Cache[K, V] {
	c := New(name, opt)
	r.mu.Lock()
	r.caches[name] = c
	r.mu.Unlock()
	return c
}

// Cache resolves name to its handle, panicking with ErrUnknownCache for
// a name that was never set up or has been destroyed.
func (r *Registry[K, V]) Cache(name string) *Cache[K, V] {
	r.mu.RLock()
	c := r.caches[name]
	r.mu.RUnlock()
	if c == nil {
		panic(ErrUnknownCache)
	}
	return c
}

// Destroy removes name from the registry and destroys its cache.
func (r *Registry[K, V]) Destroy(name string) {
	r.mu.Lock()
	c := r.caches[name]
	delete(r.caches, name)
	r.mu.Unlock()
	if c == nil {
		panic(ErrUnknownCache)
	}
	c.Destroy()
}

// The operations below mirror the Cache methods of the same name with the
// cache picked by name at call time. Segments, ForEachSegment and Stats
// have no Registry form; call them on the handle returned by Cache.

func (r *Registry[K, V]) Get(name string, key K) (V, bool) {
	return r.Cache(name).Get(key)
}

func (r *Registry[K, V]) EntryOf(name string, key K) *Entry[K, V] {
	return r.Cache(name).EntryOf(key)
}

func (r *Registry[K, V]) TTL(name string, key K) (int64, bool) {
	return r.Cache(name).TTL(key)
}

func (r *Registry[K, V]) Put(name string, key K, value V, ttl time.Duration) {
	r.Cache(name).Put(key, value, ttl)
}

func (r *Registry[K, V]) Del(name string, key K) {
	r.Cache(name).Del(key)
}

func (r *Registry[K, V]) Take(name string, key K) *Entry[K, V] {
	return r.Cache(name).Take(key)
}

func (r *Registry[K, V]) Fetch(name string, key K, producer func(K) Result[V], ttl time.Duration) (V, error) {
	return r.Cache(name).Fetch(key, producer, ttl)
}

func (r *Registry[K, V]) MustFetch(name string, key K, producer func(K) Result[V], ttl time.Duration) V {
	return r.Cache(name).MustFetch(key, producer, ttl)
}

func (r *Registry[K, V]) Size(name string) int {
	return r.Cache(name).Size()
}

func (r *Registry[K, V]) Clear(name string) {
	r.Cache(name).Clear()
}
