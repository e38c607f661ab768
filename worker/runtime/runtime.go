// Package runtime implements the reason/act loop that drives a worker
// through its conversation with a language model, dispatching tool calls
// through a ToolExecutor and emitting the lifecycle events of spec §4.6 and
// §4.8.
package runtime

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/zby/golem-forge-sub002/worker"
	"github.com/zby/golem-forge-sub002/worker/approval"
	"github.com/zby/golem-forge-sub002/worker/executor"
	"github.com/zby/golem-forge-sub002/worker/hooks"
	"github.com/zby/golem-forge-sub002/worker/interrupt"
	"github.com/zby/golem-forge-sub002/worker/modelcompat"
	"github.com/zby/golem-forge-sub002/worker/sandbox"
	"github.com/zby/golem-forge-sub002/worker/telemetry"
	"github.com/zby/golem-forge-sub002/worker/tools"
)

// DefaultMaxIterations bounds a run when Options.MaxIterations is zero.
const DefaultMaxIterations = 25

// WorkerResolver looks up a worker definition by name, the way the worker
// registry does for the delegation toolset (spec §4.7). It is declared here
// so that runtime does not import package registry; *registry.Registry
// satisfies it.
type WorkerResolver interface {
	Resolve(name string) (*worker.WorkerDefinition, error)
}

// Options configures a Runner. When Signal is nil New creates a fresh one,
// and when Approval is nil New creates an interactive approval Controller
// that prompts on Bus. New never creates a Bus, so leaving both Approval
// and Bus nil makes New fail. A delegated child Runner is constructed by
// sharing the parent's instances (spec §4.7).
type Options struct {
	Definition    *worker.WorkerDefinition
	Model         worker.LanguageModel
	Sandbox       sandbox.FileOperations
	Tools         []*tools.Tool
	Approval      *approval.Controller
	Bus           hooks.Bus
	Signal        *interrupt.Signal
	Depth         int
	WorkerPath    []string
	MaxIterations int
	Resolver      WorkerResolver

	// Logger, Metrics, and Tracer are optional observability seams; a nil
	// value in any of them is equivalent to the telemetry package's Noop
	// implementation for that seam.
	Logger  telemetry.Logger
	Metrics telemetry.Metrics
	Tracer  telemetry.Tracer
}

// RunResult is the outcome of Runner.Run, per spec §4.6.
type RunResult struct {
	Success         bool
	Response        string
	Err             error
	Interrupted     bool
	ToolCallCount   int
	TotalIterations int
	Tokens          worker.Usage
}

// Runner is the transient per-run state described by spec §3's
// "WorkerRunner" glossary entry.
type Runner struct {
	opts         Options
	workerID     string
	tools        map[string]*tools.Tool
	llmVisible   []worker.ToolDescriptor
	executor     *executor.ToolExecutor
	initialized  bool
	ownsApproval bool
}

// New validates opts and returns an uninitialized Runner. Call Initialize
// before Run.
func New(opts Options) (*Runner, error) {
	if opts.Definition == nil {
		return nil, &worker.InvalidConfigError{Reason: "runtime: worker definition is required"}
	}
	if opts.Model == nil {
		return nil, &worker.InvalidConfigError{Reason: "runtime: language model is required"}
	}
	if opts.Depth < 0 {
		return nil, &worker.InvalidConfigError{Reason: "runtime: depth must be non-negative"}
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}

	r := &Runner{opts: opts, workerID: uuid.NewString()}

	if r.opts.Signal == nil {
		r.opts.Signal = interrupt.New()
	}
	if r.opts.Approval == nil {
		mem := approval.NewMemory()
		ctrl, err := approval.NewController(approval.ModeInteractive, mem, r.opts.Bus, r.opts.Signal)
		if err != nil {
			return nil, fmt.Errorf("runtime: constructing default approval controller: %w", err)
		}
		r.opts.Approval = ctrl
		r.ownsApproval = true
	}
	if len(r.opts.WorkerPath) == 0 {
		r.opts.WorkerPath = []string{opts.Definition.Name}
	}
	if r.opts.Logger == nil {
		r.opts.Logger = telemetry.NewNoopLogger()
	}
	if r.opts.Metrics == nil {
		r.opts.Metrics = telemetry.NewNoopMetrics()
	}
	if r.opts.Tracer == nil {
		r.opts.Tracer = telemetry.NewNoopTracer()
	}

	return r, nil
}

// WorkerID returns the freshly generated unique identifier for this run.
func (r *Runner) WorkerID() string { return r.workerID }

// Depth returns this Runner's delegation depth (0 for a root worker).
func (r *Runner) Depth() int { return r.opts.Depth }

// Initialize resolves the worker's model compatibility, assembles the tool
// map, and derives the LLM-visible subset. Run fails if called before
// Initialize.
func (r *Runner) Initialize() error {
	def := r.opts.Definition
	if def.CompatibleModels != nil && len(def.CompatibleModels) == 0 {
		return &worker.InvalidConfigError{Reason: "runtime: compatible_models is declared but empty"}
	}
	if def.Model != "" {
		if _, err := modelcompat.Parse(def.Model); err != nil {
			return &worker.InvalidConfigError{Reason: err.Error()}
		}
		if err := modelcompat.Validate(def.Model, def.CompatibleModels); err != nil {
			return &worker.ModelIncompatibleError{Model: def.Model, CompatibleModels: def.CompatibleModels}
		}
	} else if def.CompatibleModels != nil {
		return &worker.InvalidConfigError{Reason: "runtime: compatible_models declared without a resolved model"}
	}

	toolMap := make(map[string]*tools.Tool, len(r.opts.Tools))
	for _, t := range r.opts.Tools {
		toolMap[t.Name] = t
	}
	if resolver := r.opts.Resolver; resolver != nil {
		if delegated, ok := delegationToolset(def, resolver, r); ok {
			for _, t := range delegated {
				toolMap[t.Name] = t
			}
		}
	}
	r.tools = toolMap

	var visible []worker.ToolDescriptor
	for _, t := range toolMap {
		if t.LLMVisible() {
			visible = append(visible, t.Descriptor())
		}
	}
	r.llmVisible = visible

	r.executor = &executor.ToolExecutor{
		Tools:      toolMap,
		Approval:   r.opts.Approval,
		Bus:        r.opts.Bus,
		Signal:     r.opts.Signal,
		WorkerID:   r.workerID,
		Depth:      r.opts.Depth,
		WorkerPath: r.opts.WorkerPath,
		Metrics:    r.opts.Metrics,
		Tracer:     r.opts.Tracer,
	}
	r.initialized = true
	return nil
}

// Dispose releases resources a root Runner owns. Calling Dispose on a
// delegated child Runner (which shares its parent's approval controller
// and signal) is a no-op for those shared objects; only resources this
// Runner itself constructed are released.
func (r *Runner) Dispose() error {
	if r.ownsApproval {
		return r.opts.Approval.Close()
	}
	return nil
}

// Run executes the reason/act loop against input, per spec §4.6.
func (r *Runner) Run(ctx context.Context, input string, attachments []worker.Attachment) RunResult {
	if !r.initialized {
		return RunResult{Err: fmt.Errorf("runtime: Initialize must be called before Run")}
	}
	def := r.opts.Definition

	if input == "" && !def.AllowEmptyInput {
		return RunResult{Err: &worker.InvalidConfigError{Reason: "runtime: empty input is not allowed by this worker"}}
	}
	if err := def.AttachmentPolicy.Validate(attachments); err != nil {
		return RunResult{Err: err}
	}

	ctx, runSpan := r.opts.Tracer.Start(ctx, "worker.run")
	defer runSpan.End()
	r.opts.Logger.Info(ctx, "worker run starting", "worker", def.Name, "depth", r.opts.Depth)

	r.emit(ctx, hooks.ExecutionStartEvent{hooks.NewBaseEvent(hooks.ExecutionStart, r.workerID, r.opts.Depth), input})

	messages := []worker.Message{
		worker.SystemMessage{Text: def.Instructions},
		assembleUserMessage(input, attachments),
	}

	var toolCallCount, totalIn, totalOut, iteration int

	for {
		if iteration >= r.opts.MaxIterations {
			err := &worker.IterationLimitExceededError{MaxIterations: r.opts.MaxIterations}
			r.emit(ctx, hooks.ExecutionErrorEvent{hooks.NewBaseEvent(hooks.ExecutionError, r.workerID, r.opts.Depth), err})
			r.emitSessionEnd(ctx, "error")
			return RunResult{
				Err:             err,
				ToolCallCount:   toolCallCount,
				TotalIterations: iteration,
				Tokens:          worker.Usage{InputTokens: totalIn, OutputTokens: totalOut},
			}
		}
		if r.opts.Signal.Interrupted() {
			r.emit(ctx, hooks.ExecutionEndEvent{
				hooks.NewBaseEvent(hooks.ExecutionEnd, r.workerID, r.opts.Depth),
				true, "[Interrupted]", iteration, toolCallCount, totalIn, totalOut,
			})
			r.emitSessionEnd(ctx, "interrupted")
			return RunResult{
				Success:         true,
				Response:        "[Interrupted]",
				Interrupted:     true,
				ToolCallCount:   toolCallCount,
				TotalIterations: iteration,
				Tokens:          worker.Usage{InputTokens: totalIn, OutputTokens: totalOut},
			}
		}
		iteration++

		r.emit(ctx, hooks.MessageSendEvent{hooks.NewBaseEvent(hooks.MessageSend, r.workerID, r.opts.Depth), iteration, toolCallCount})

		genCtx, genSpan := r.opts.Tracer.Start(ctx, "model.generate")
		resp, err := r.opts.Model.Generate(genCtx, messages, r.llmVisible)
		if err != nil {
			genSpan.RecordError(err)
			genSpan.End()
			r.emit(ctx, hooks.ExecutionErrorEvent{hooks.NewBaseEvent(hooks.ExecutionError, r.workerID, r.opts.Depth), err})
			r.emitSessionEnd(ctx, "error")
			return RunResult{
				Err:             fmt.Errorf("runtime: model generate: %w", err),
				ToolCallCount:   toolCallCount,
				TotalIterations: iteration,
				Tokens:          worker.Usage{InputTokens: totalIn, OutputTokens: totalOut},
			}
		}
		genSpan.End()
		totalIn += resp.Usage.InputTokens
		totalOut += resp.Usage.OutputTokens
		r.opts.Metrics.IncCounter("model.tokens_in", float64(resp.Usage.InputTokens), def.Name)
		r.opts.Metrics.IncCounter("model.tokens_out", float64(resp.Usage.OutputTokens), def.Name)

		r.emit(ctx, hooks.ResponseReceiveEvent{hooks.NewBaseEvent(hooks.ResponseReceive, r.workerID, r.opts.Depth), iteration, resp.Text, len(resp.ToolCalls)})

		if len(resp.ToolCalls) == 0 {
			r.emit(ctx, hooks.ExecutionEndEvent{
				hooks.NewBaseEvent(hooks.ExecutionEnd, r.workerID, r.opts.Depth),
				true, resp.Text, iteration, toolCallCount, totalIn, totalOut,
			})
			r.emitSessionEnd(ctx, "success")
			return RunResult{
				Success:         true,
				Response:        resp.Text,
				ToolCallCount:   toolCallCount,
				TotalIterations: iteration,
				Tokens:          worker.Usage{InputTokens: totalIn, OutputTokens: totalOut},
			}
		}

		assistantParts := make([]worker.AssistantPart, 0, len(resp.ToolCalls)+1)
		if resp.Text != "" {
			assistantParts = append(assistantParts, worker.TextPart{Text: resp.Text})
		}
		for _, call := range resp.ToolCalls {
			assistantParts = append(assistantParts, worker.ToolCallPart{Call: call})
		}
		messages = append(messages, worker.AssistantMessage{Parts: assistantParts})

		// toolCallCount is incremented before execution completes so a
		// crashing tool cannot underreport (spec §4.6 key decision).
		toolCallCount += len(resp.ToolCalls)

		results, err := r.executor.Execute(ctx, resp.ToolCalls)
		if err != nil {
			r.emit(ctx, hooks.ExecutionErrorEvent{hooks.NewBaseEvent(hooks.ExecutionError, r.workerID, r.opts.Depth), err})
			r.emitSessionEnd(ctx, "error")
			return RunResult{
				Err:             fmt.Errorf("runtime: executing tool batch: %w", err),
				ToolCallCount:   toolCallCount,
				TotalIterations: iteration,
				Tokens:          worker.Usage{InputTokens: totalIn, OutputTokens: totalOut},
			}
		}
		messages = append(messages, worker.ToolMessage{Results: results})
	}
}

func assembleUserMessage(input string, attachments []worker.Attachment) worker.UserMessage {
	parts := make([]worker.UserPart, 0, len(attachments)+1)
	if input != "" {
		parts = append(parts, worker.TextPart{Text: input})
	}
	for _, a := range attachments {
		parts = append(parts, worker.FilePart{Bytes: a.Bytes, MimeType: a.MimeType})
	}
	return worker.UserMessage{Parts: parts}
}

func (r *Runner) emit(ctx context.Context, event hooks.Event) {
	if r.opts.Bus == nil {
		return
	}
	_ = r.opts.Bus.Publish(ctx, event)
}

func (r *Runner) emitSessionEnd(ctx context.Context, reason string) {
	r.opts.Logger.Info(ctx, "worker run finished", "worker", r.opts.Definition.Name, "reason", reason)
	if r.opts.Depth != 0 {
		return
	}
	r.emit(ctx, hooks.SessionEndEvent{hooks.NewBaseEvent(hooks.SessionEnd, r.workerID, r.opts.Depth), reason})
}
