// Package toolsets holds the process-wide registry of named tool factories
// that the keys of a WorkerDefinition's Toolsets map refer to (spec §9's
// "global mutable state... treat it as an injected registry, with a shared
// default instance for convenience").
package toolsets

import (
	"fmt"
	"sort"
	"sync"

	"github.com/zby/golem-forge-sub002/worker"
	"github.com/zby/golem-forge-sub002/worker/sandbox"
	"github.com/zby/golem-forge-sub002/worker/tools"
)

// Factory builds the tools contributed by one named toolset for a given
// worker, given its sandbox (nil if the worker declares none) and the raw
// per-toolset config (the ToolsetConfig value under its name in
// WorkerDefinition.Toolsets).
type Factory func(sb sandbox.FileOperations, config map[string]any) ([]*tools.Tool, error)

// Registry maps toolset names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns the factory registered for name.
func (r *Registry) Get(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// Names returns every registered toolset name in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build resolves each named toolset against the registry and concatenates
// the tools they contribute. An unknown toolset name is an InvalidConfigError,
// since a worker file referencing a nonexistent toolset is a configuration
// mistake, not a runtime condition.
func (r *Registry) Build(names []string, sb sandbox.FileOperations, config map[string]any) ([]*tools.Tool, error) {
	var out []*tools.Tool
	for _, name := range names {
		factory, ok := r.Get(name)
		if !ok {
			return nil, &worker.InvalidConfigError{Reason: fmt.Sprintf("unknown toolset %q", name)}
		}
		ts, err := factory(sb, config)
		if err != nil {
			return nil, fmt.Errorf("toolsets: building %q: %w", name, err)
		}
		out = append(out, ts...)
	}
	return out, nil
}

// Default is the shared registry convenience instance; built-in toolsets
// register themselves here on package init.
var Default = NewRegistry()

func init() {
	Default.Register("filesystem", NewFilesystemToolset)
}
