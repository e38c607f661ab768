// Package registry resolves worker names to parsed WorkerDefinitions by
// searching an ordered list of directories for "<name>.worker.md" files,
// the on-disk counterpart to the process-wide toolset registry (spec §9).
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/zby/golem-forge-sub002/worker"
	"github.com/zby/golem-forge-sub002/worker/parse"
)

// Registry resolves worker names to definitions, caching parsed results and
// falling back to a set of search paths checked in order.
type Registry struct {
	mu          sync.RWMutex
	searchPaths []string
	cache       map[string]*worker.WorkerDefinition
}

// New constructs a Registry that searches searchPaths in order for
// "<name>.worker.md" files. Later paths are consulted only if earlier ones
// do not contain the requested worker, so a project-local directory can be
// listed before a shared one to override it.
func New(searchPaths ...string) *Registry {
	return &Registry{
		searchPaths: append([]string{}, searchPaths...),
		cache:       make(map[string]*worker.WorkerDefinition),
	}
}

// Resolve returns the parsed definition for name, consulting the cache
// first, then each search path in order.
func (r *Registry) Resolve(name string) (*worker.WorkerDefinition, error) {
	r.mu.RLock()
	if def, ok := r.cache[name]; ok {
		r.mu.RUnlock()
		return def, nil
	}
	r.mu.RUnlock()

	for _, dir := range r.searchPaths {
		path := filepath.Join(dir, name+".worker.md")
		if _, err := os.Stat(path); err != nil {
			continue
		}
		def, err := parse.ParseFile(path)
		if err != nil {
			return nil, fmt.Errorf("registry: parsing %s: %w", path, err)
		}
		r.mu.Lock()
		r.cache[name] = def
		r.mu.Unlock()
		return def, nil
	}
	return nil, fmt.Errorf("registry: worker %q not found in any search path", name)
}

// Register installs def under name directly, bypassing the filesystem.
// This is the escape hatch spec §9 reserves for programmatic or
// test-constructed workers.
func (r *Registry) Register(name string, def *worker.WorkerDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[name] = def
}

// Names returns every currently cached worker name. It does not scan the
// search paths for definitions that have not yet been resolved.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.cache))
	for name := range r.cache {
		names = append(names, name)
	}
	return names
}
