package store

import (
	"sort"
	"sync"
)

// Registry fans committed snapshots out to subscribers by document key.
// Callbacks run on the publishing goroutine and must not block.
type Registry struct {
	mu   sync.RWMutex
	subs map[string]map[uint64]func(Snapshot)
	next uint64
}

func NewRegistry() *Registry {
	return &Registry{subs: make(map[string]map[uint64]func(Snapshot))}
}

// Add registers fn for key and returns its cancel func.
func (r *Registry) Add(key string, fn func(Snapshot)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	id := r.next
	if r.subs[key] == nil {
		r.subs[key] = make(map[uint64]func(Snapshot))
	}
	r.subs[key][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.subs[key], id)
			if len(r.subs[key]) == 0 {
				delete(r.subs, key)
			}
		})
	}
}

func (r *Registry) Publish(snap Snapshot) {
	r.mu.RLock()
	fns := make([]func(Snapshot), 0, len(r.subs[snap.Key]))
	for _, fn := range r.subs[snap.Key] {
		fns = append(fns, fn)
	}
	r.mu.RUnlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// Has reports whether anyone listens on key.
func (r *Registry) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs[key]) > 0
}

// Keys returns the subscribed keys, sorted.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.subs))
	for k := range r.subs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
