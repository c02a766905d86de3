package workbench

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Default registry limits.
const (
	DefaultMaxSessions = 64
	DefaultSessionTTL  = 2 * time.Hour
)

// Factory builds the workbench for a new session id.
type Factory func(id string) *Workbench

// Registry maps session ids to workbenches.
//
// It is bounded and entries expire after ttl without use. A workbench that
// leaves the registry, by eviction, expiry or Close, is closed.
type Registry struct {
	factory Factory

	mu    sync.Mutex
	cache *expirable.LRU[string, *Workbench]
}

// NewRegistry creates a registry. Non-positive limits select the defaults.
func NewRegistry(maxSessions int, ttl time.Duration, factory Factory) *Registry {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	onEvict := func(_ string, w *Workbench) {
		// Close waits for in-flight requests; keep it off the cache lock.
		go w.Close()
	}
	return &Registry{
		factory: factory,
		cache:   expirable.NewLRU[string, *Workbench](maxSessions, onEvict, ttl),
	}
}

// Get returns the workbench for id, creating it on first use.
// Every Get restarts the entry's expiry.
func (r *Registry) Get(id string) *Workbench {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.cache.Get(id)
	if !ok {
		// An expired entry may linger until the next sweep; evict it so its
		// workbench is closed before the id is reused.
		r.cache.Remove(id)
		w = r.factory(id)
	}
	r.cache.Add(id, w)
	return w
}

// Lookup returns the workbench for id without creating one.
func (r *Registry) Lookup(id string) (*Workbench, bool) {
	return r.cache.Peek(id)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	return r.cache.Len()
}

// Close closes every workbench and empties the registry.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.cache.Keys() {
		w, live := r.cache.Peek(id)
		r.cache.Remove(id)
		if live {
			w.Close()
		}
	}
}
