package guacd

import (
	"fmt"
	"sync"
)

// BackendDriver is the plugin boundary the daemon uses to drive any
// backend (§6 "Backend driver plugin boundary"; RFB is an example consumer,
// not part of the core). Init receives the connection and the residual CLI
// arguments passed after `-p <protocol>`; a non-nil error aborts the
// connection before the event loop starts. The driver sets whichever of
// Client's five handler slots it needs, may allocate arbitrary backend
// state, must store it in Client.Data, and must release it from
// FreeHandler.
//
// Dynamic loading of a shared library per protocol (the C original's
// libguac_client_<protocol>.so convention) is out of scope for the core
// (§1) and is replaced, per Design Notes §9, with the static, name-keyed
// DriverRegistry below — a compile-time analogue of dlopen.
type BackendDriver interface {
	Init(conn *Client, args []string) error
}

// DriverRegistry is a name-keyed, concurrency-safe set of backend drivers
// registered at process startup.
type DriverRegistry struct {
	mu      sync.RWMutex
	drivers map[string]BackendDriver
}

// NewDriverRegistry creates an empty driver registry.
func NewDriverRegistry() *DriverRegistry {
	return &DriverRegistry{drivers: make(map[string]BackendDriver)}
}

// Register associates name with driver. Re-registering a name overwrites
// the previous entry.
func (r *DriverRegistry) Register(name string, drv BackendDriver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drivers[name] = drv
}

// Lookup resolves a driver by the `-p <protocol>` name (§6).
func (r *DriverRegistry) Lookup(name string) (BackendDriver, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.drivers[name]
	return d, ok
}

// MustLookup is Lookup with an unknown driver name reported as an error
// instead of a false ok flag.
func (r *DriverRegistry) MustLookup(name string) (BackendDriver, error) {
	d, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("guacd: no backend registered as %q", name)
	}
	return d, nil
}
