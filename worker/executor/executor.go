// Package executor runs a batch of model-requested tool calls concurrently
// while preserving input order in the output, gating each call through an
// approval controller first (spec §4.5).
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/zby/golem-forge-sub002/worker"
	"github.com/zby/golem-forge-sub002/worker/approval"
	"github.com/zby/golem-forge-sub002/worker/hooks"
	"github.com/zby/golem-forge-sub002/worker/interrupt"
	"github.com/zby/golem-forge-sub002/worker/telemetry"
	"github.com/zby/golem-forge-sub002/worker/toolerrors"
	"github.com/zby/golem-forge-sub002/worker/tools"
)

// ToolExecutor dispatches a tool-call batch for a single WorkerRunner.
type ToolExecutor struct {
	Tools      map[string]*tools.Tool
	Approval   *approval.Controller
	Bus        hooks.Bus
	Signal     *interrupt.Signal
	WorkerID   string
	Depth      int
	WorkerPath []string

	// Metrics and Tracer are optional; a nil value is equivalent to the
	// telemetry package's Noop implementations.
	Metrics telemetry.Metrics
	Tracer  telemetry.Tracer
}

// Execute runs calls concurrently and returns results in the same order as
// calls, regardless of completion order (spec §4.5 ordering guarantee). If
// the interrupt signal fires before every call has resolved, Execute waits
// a brief grace period for in-flight calls and then fills any still-
// unresolved slots with an interrupted result, returning the partial set.
func (e *ToolExecutor) Execute(ctx context.Context, calls []worker.ToolCall) ([]worker.ToolResult, error) {
	results := make([]worker.ToolResult, len(calls))
	resolved := make([]bool, len(calls))
	var mu sync.Mutex

	var wg sync.WaitGroup
	wg.Add(len(calls))
	for i := range calls {
		i := i
		go func() {
			defer wg.Done()
			r := e.executeOne(ctx, calls[i])
			mu.Lock()
			results[i] = r
			resolved[i] = true
			mu.Unlock()
		}()
	}

	joined := make(chan struct{})
	go func() {
		wg.Wait()
		close(joined)
	}()

	select {
	case <-joined:
	case <-e.signalDone():
		select {
		case <-joined:
		case <-time.After(50 * time.Millisecond):
			// Tool goroutines that are still running past the grace
			// window are abandoned; their eventual write to results is a
			// best-effort courtesy to the underlying tool call, not
			// something the caller waits on.
		}
	case <-ctx.Done():
		return results, ctx.Err()
	}

	mu.Lock()
	defer mu.Unlock()
	for i, call := range calls {
		if !resolved[i] {
			results[i] = interruptedResult(call)
		}
	}
	return results, nil
}

func (e *ToolExecutor) tracer() telemetry.Tracer {
	if e.Tracer == nil {
		return telemetry.NewNoopTracer()
	}
	return e.Tracer
}

func (e *ToolExecutor) metrics() telemetry.Metrics {
	if e.Metrics == nil {
		return telemetry.NewNoopMetrics()
	}
	return e.Metrics
}

func (e *ToolExecutor) signalDone() <-chan struct{} {
	if e.Signal == nil {
		return nil
	}
	return e.Signal.Done()
}

func (e *ToolExecutor) executeOne(ctx context.Context, call worker.ToolCall) worker.ToolResult {
	start := time.Now()

	tool, ok := e.Tools[call.ToolName]
	if !ok {
		return e.finish(ctx, call, start, hooks.StatusError, worker.ToolResult{
			ToolCallID: call.ToolCallID,
			ToolName:   call.ToolName,
			IsError:    true,
			Error:      fmt.Sprintf("unknown tool %q", call.ToolName),
		})
	}

	if e.Signal != nil && e.Signal.Interrupted() {
		return e.finish(ctx, call, start, hooks.StatusInterrupted, interruptedResult(call))
	}

	var args map[string]any
	if len(call.ToolArgs) > 0 {
		if err := json.Unmarshal(call.ToolArgs, &args); err != nil {
			return e.finish(ctx, call, start, hooks.StatusError, worker.ToolResult{
				ToolCallID: call.ToolCallID,
				ToolName:   call.ToolName,
				IsError:    true,
				Error:      fmt.Sprintf("decoding arguments: %v", err),
			})
		}
	}
	if args == nil {
		args = map[string]any{}
	}

	if err := tool.Validate(args); err != nil {
		return e.finish(ctx, call, start, hooks.StatusError, worker.ToolResult{
			ToolCallID: call.ToolCallID,
			ToolName:   call.ToolName,
			IsError:    true,
			Error:      err.Error(),
		})
	}

	if tool.NeedsApproval != nil {
		needs, err := tool.NeedsApproval(ctx, args)
		if err != nil {
			return e.finish(ctx, call, start, hooks.StatusError, worker.ToolResult{
				ToolCallID: call.ToolCallID,
				ToolName:   call.ToolName,
				IsError:    true,
				Error:      fmt.Sprintf("evaluating approval: %v", err),
			})
		}
		if needs {
			approved, reason, err := e.Approval.Evaluate(ctx, e.WorkerPath, call.ToolName, args, tool.Description, "")
			if err != nil {
				return e.finish(ctx, call, start, hooks.StatusError, worker.ToolResult{
					ToolCallID: call.ToolCallID,
					ToolName:   call.ToolName,
					IsError:    true,
					Error:      fmt.Sprintf("approval: %v", err),
				})
			}
			if !approved {
				status := hooks.StatusError
				if reason == "interrupted" {
					status = hooks.StatusInterrupted
				}
				return e.finish(ctx, call, start, status, worker.ToolResult{
					ToolCallID: call.ToolCallID,
					ToolName:   call.ToolName,
					IsError:    true,
					Error:      reason,
				})
			}
		}
	}

	e.emitStarted(ctx, call, tools.MarshalArgsPreview(args))

	spanCtx, span := e.tracer().Start(ctx, "tool.execute")
	span.AddEvent("invoke", "tool", call.ToolName)
	value, err := tool.Execute(spanCtx, args)
	if err != nil {
		te := toolerrors.FromError(err)
		span.RecordError(te)
		span.End()
		return e.finish(ctx, call, start, hooks.StatusError, worker.ToolResult{
			ToolCallID: call.ToolCallID,
			ToolName:   call.ToolName,
			IsError:    true,
			Error:      te.Error(),
		})
	}
	span.End()

	return e.finish(ctx, call, start, hooks.StatusSuccess, worker.ToolResult{
		ToolCallID: call.ToolCallID,
		ToolName:   call.ToolName,
		Output:     value,
	})
}

func (e *ToolExecutor) emitStarted(ctx context.Context, call worker.ToolCall, argsPreview string) {
	if e.Bus == nil {
		return
	}
	_ = e.Bus.Publish(ctx, hooks.ToolStartedEvent{
		hooks.NewBaseEvent(hooks.ToolStarted, e.WorkerID, e.Depth),
		call.ToolCallID,
		call.ToolName,
		argsPreview,
	})
}

func (e *ToolExecutor) finish(ctx context.Context, call worker.ToolCall, start time.Time, status hooks.ToolResultStatus, result worker.ToolResult) worker.ToolResult {
	duration := time.Since(start)
	e.metrics().RecordTimer("tool.duration", duration, call.ToolName, string(status))
	e.metrics().IncCounter("tool.calls", 1, call.ToolName, string(status))

	if e.Bus != nil {
		summary := ""
		if result.Output != nil {
			summary = result.Output.Summary()
		}
		_ = e.Bus.Publish(ctx, hooks.ToolResultEvent{
			hooks.NewBaseEvent(hooks.ToolResult, e.WorkerID, e.Depth),
			call.ToolCallID,
			call.ToolName,
			status,
			summary,
			result.Error,
			duration.Milliseconds(),
			telemetry.ToolTelemetry{DurationMs: duration.Milliseconds()},
		})
	}
	return result
}

func interruptedResult(call worker.ToolCall) worker.ToolResult {
	return worker.ToolResult{
		ToolCallID: call.ToolCallID,
		ToolName:   call.ToolName,
		IsError:    true,
		Error:      "interrupted",
	}
}
