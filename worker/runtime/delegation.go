package runtime

import (
	"context"
	"fmt"

	"github.com/zby/golem-forge-sub002/worker"
	"github.com/zby/golem-forge-sub002/worker/hooks"
	"github.com/zby/golem-forge-sub002/worker/tools"
)

// delegationToolset builds the "workers" toolset inline, per spec §4.7:
// it lives in package runtime, not in package toolsets, because each
// delegated tool must close over a constructor for a child *Runner — a
// dependency the generic toolsets.Registry deliberately does not carry, to
// avoid a toolsets<->runtime import cycle.
func delegationToolset(def *worker.WorkerDefinition, resolver WorkerResolver, parent *Runner) ([]*tools.Tool, bool) {
	cfg, ok := def.Toolsets["workers"]
	if !ok {
		return nil, false
	}
	raw, ok := cfg["allowed_workers"]
	if !ok {
		return nil, false
	}
	names, ok := toStringSlice(raw)
	if !ok || len(names) == 0 {
		return nil, false
	}

	out := make([]*tools.Tool, 0, len(names))
	for _, name := range names {
		name := name
		out = append(out, &tools.Tool{
			Name:        "worker_" + name,
			Description: fmt.Sprintf("Delegate a task to the %q worker.", name),
			InputSchema: map[string]any{
				"type":     "object",
				"required": []any{"input"},
				"properties": map[string]any{
					"input": map[string]any{"type": "string", "description": "the task to hand to the child worker"},
				},
			},
			Execute: func(ctx context.Context, args map[string]any) (worker.ToolResultValue, error) {
				input, _ := args["input"].(string)
				return runDelegatedWorker(ctx, name, input, resolver, parent)
			},
		})
	}
	return out, true
}

func runDelegatedWorker(ctx context.Context, name, input string, resolver WorkerResolver, parent *Runner) (worker.ToolResultValue, error) {
	childDef, err := resolver.Resolve(name)
	if err != nil {
		return nil, fmt.Errorf("runtime: resolving delegated worker %q: %w", name, err)
	}

	childPath := append(append([]string{}, parent.opts.WorkerPath...), name)
	child, err := New(Options{
		Definition:    childDef,
		Model:         parent.opts.Model,
		Sandbox:       parent.opts.Sandbox,
		Approval:      parent.opts.Approval, // shared controller: spec §4.7
		Bus:           parent.opts.Bus,      // shared bus
		Signal:        parent.opts.Signal,   // shared interrupt: Ctrl-C cancels the whole tree
		Depth:         parent.opts.Depth + 1,
		WorkerPath:    childPath,
		MaxIterations: parent.opts.MaxIterations,
		Resolver:      resolver,
		Logger:        parent.opts.Logger,
		Metrics:       parent.opts.Metrics,
		Tracer:        parent.opts.Tracer,
	})
	if err != nil {
		return nil, fmt.Errorf("runtime: constructing child worker %q: %w", name, err)
	}

	// Share the parent's sandbox-backed tools (their closures only capture
	// the sandbox, a value every runtime in the tree already shares), but
	// never the parent's own delegation tools: those closures capture the
	// parent Runner itself, and handing them to the child would delegate
	// back into the parent's depth and worker path instead of the
	// child's.
	var childTools []*tools.Tool
	for name, t := range parent.tools {
		if len(name) >= 7 && name[:7] == "worker_" {
			continue
		}
		childTools = append(childTools, t)
	}
	child.opts.Tools = childTools

	if err := child.Initialize(); err != nil {
		return nil, fmt.Errorf("runtime: initializing child worker %q: %w", name, err)
	}

	if parent.opts.Bus != nil {
		_ = parent.opts.Bus.Publish(ctx, hooks.WorkerUpdateEvent{
			hooks.NewBaseEvent(hooks.WorkerUpdate, child.workerID, child.opts.Depth),
			name,
			"started",
		})
	}

	result := child.Run(ctx, input, nil)
	_ = child.Dispose()

	if result.Err != nil {
		return nil, result.Err
	}
	return worker.NewTextResult(result.Response, fmt.Sprintf("delegated to %s", name)), nil
}

func toStringSlice(raw any) ([]string, bool) {
	switch v := raw.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}
