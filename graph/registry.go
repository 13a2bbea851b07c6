package graph

import "sync"

// Registry is a process-wide mapping from node-type tag to the constructor
// that builds instances of that type, plus the set of tags whose outputs
// are collected into a graph's FinalOutputs.
//
// No concurrency contract beyond: all registrations complete before the
// first graph is validated. Register/MarkTerminal are still mutex-guarded
// so tests that build isolated registries per-case don't need their own
// external locking.
type Registry struct {
	mu         sync.RWMutex
	ctors      map[NodeType]Constructor
	terminal   map[NodeType]bool
}

// NewRegistry returns an empty Registry. Most production code shares one
// process-wide Registry (see DefaultRegistry); tests construct their own
// to stay isolated from whatever other tests have registered.
func NewRegistry() *Registry {
	return &Registry{
		ctors:    make(map[NodeType]Constructor),
		terminal: make(map[NodeType]bool),
	}
}

// DefaultRegistry is the process-wide registry used when callers don't
// build their own. Packages under nodes/ register their built-in types
// here from an init func, so importing a node package for side effects
// is enough to make its types available.
var DefaultRegistry = NewRegistry()

// Register binds tag to ctor, replacing any prior binding for tag.
func (r *Registry) Register(tag NodeType, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[tag] = ctor
}

// MarkTerminal declares that nodes of tag are "output" nodes: their
// outputs are merged into a graph's FinalOutputs after a successful run.
func (r *Registry) MarkTerminal(tag NodeType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.terminal[tag] = true
}

// Lookup returns the constructor registered for tag, if any.
func (r *Registry) Lookup(tag NodeType) (Constructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctor, ok := r.ctors[tag]
	return ctor, ok
}

// IsTerminal reports whether tag was marked via MarkTerminal.
func (r *Registry) IsTerminal(tag NodeType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.terminal[tag]
}
