// Package registry implements the UUID-keyed connection registry (§4.4): a
// mapping from a v4 UUID to a live connection, safe for concurrent use by
// every accepted socket's goroutine.
package registry

import (
	"sync"

	"github.com/google/uuid"
)

// Entry is the minimal surface the registry needs from a registered
// connection; internal/guacd.Client satisfies it. Keeping the registry
// generic over an interface rather than importing internal/guacd avoids an
// import cycle (guacd.Client itself is registered into and looked up from
// the registry it lives in).
type Entry interface {
	ID() uuid.UUID
}

// Registry maps connection UUIDs to live connections. All operations are
// serialized under a single mutex (§4.4: "a single mutual-exclusion
// primitive covering insert/lookup/remove is required to prevent torn reads
// across the key path"), matching the functional contract of the original
// 256-way uuidtree (original_source/guacamole/libguac/include/uuidtree.h)
// without the trie shape — Design Notes §9 explicitly permits substituting
// an equivalent hashed map.
type Registry struct {
	mu      sync.Mutex
	clients map[uuid.UUID]Entry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{clients: make(map[uuid.UUID]Entry)}
}

// Register inserts client under its UUID. Insert of an already-present UUID
// overwrites, matching §4.4's idempotence contract.
func (r *Registry) Register(client Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[client.ID()] = client
}

// Find looks up the connection registered under id. The returned value is
// borrowed: callers must not retain it beyond the lifetime guarantee the
// handoff protocol provides (§4.4).
func (r *Registry) Find(id uuid.UUID) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	return c, ok
}

// Remove deletes the entry for id. Double-remove is a no-op.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, id)
}

// Len reports the number of live registrations, used by tests.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Cleanup drops the entire structure (§4.4).
func (r *Registry) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients = make(map[uuid.UUID]Entry)
}
