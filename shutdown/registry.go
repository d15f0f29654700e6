package shutdown

import (
	"context"
	"sort"
	"sync"
)

// Func is a cleanup function executed during shutdown. The context carries
// the remaining shutdown deadline.
type Func func(ctx context.Context) error

// registryEntry holds a registered shutdown function with metadata.
type registryEntry struct {
	name     string
	fn       Func
	priority int // lower = earlier execution
}

// Registry maintains an ordered collection of shutdown functions.
//
// Usage:
//
//	registry := NewRegistry()
//
//	registry.Register("http-server", 10, func(ctx context.Context) error {
//	    return server.Shutdown(ctx)
//	})
//	registry.Register("database", 30, func(ctx context.Context) error {
//	    return database.Close()
//	})
//
//	errs := registry.Shutdown(ctx)
type Registry struct {
	mu      sync.Mutex
	entries []registryEntry
	closed  bool
}

// NewRegistry creates a Registry ready to accept registrations.
func NewRegistry() *Registry {
	return &Registry{
		entries: make([]registryEntry, 0),
	}
}

// Register adds a shutdown function with a name and priority.
// Lower priority values execute earlier during shutdown.
// Registration after Shutdown has been called is a no-op.
//
// Typical priority ranges:
//   - 0-9: flush logs
//   - 10-19: stop accepting requests (HTTP server, websocket hub)
//   - 20-29: stop background workers (async writer, cleanup scheduler)
//   - 30-39: close resources (database)
func (r *Registry) Register(name string, priority int, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	r.entries = append(r.entries, registryEntry{
		name:     name,
		fn:       fn,
		priority: priority,
	})
}

// Shutdown executes all registered shutdown functions in priority order.
// All functions are called even if some fail; errors are collected and
// returned. After Shutdown completes, the registry is marked closed.
func (r *Registry) Shutdown(ctx context.Context) []error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true

	sorted := make([]registryEntry, len(r.entries))
	copy(sorted, r.entries)
	r.mu.Unlock()

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].priority < sorted[j].priority
	})

	var errs []error
	for _, entry := range sorted {
		if err := entry.fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

// Names returns the names of all registered shutdown functions in priority order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	sorted := make([]registryEntry, len(r.entries))
	copy(sorted, r.entries)

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].priority < sorted[j].priority
	})

	names := make([]string, len(sorted))
	for i, entry := range sorted {
		names[i] = entry.name
	}
	return names
}

// Count returns the number of registered shutdown functions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// IsClosed returns true if Shutdown has been called.
func (r *Registry) IsClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
