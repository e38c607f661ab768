// Package tools defines the polymorphic Tool contract (spec §4.3): a single
// struct with optional fields rather than a hierarchy of tool subtypes, the
// way the teacher's runtime/agent/tools package models tool metadata as
// plain data.
package tools

import (
	"context"
	"encoding/json"

	"github.com/zby/golem-forge-sub002/worker"
)

// ManualExecutionMode controls which surface may invoke a tool.
type ManualExecutionMode string

const (
	// ModeLLM exposes the tool only to the model (the default when
	// ManualExecution is nil).
	ModeLLM ManualExecutionMode = "llm"
	// ModeManual excludes the tool from the LLM-visible set; only the UI
	// may invoke it directly.
	ModeManual ManualExecutionMode = "manual"
	// ModeBoth exposes the tool to both surfaces.
	ModeBoth ManualExecutionMode = "both"
)

type (
	// ManualExecutionSpec configures a tool's availability to the UI versus
	// the model.
	ManualExecutionSpec struct {
		Mode     ManualExecutionMode
		Label    string
		Category string
	}

	// NeedsApprovalFunc decides, per invocation, whether a call needs
	// approval. It receives the raw decoded argument map so it can make
	// per-argument decisions (e.g. "deploying to production needs
	// approval").
	NeedsApprovalFunc func(ctx context.Context, args map[string]any) (bool, error)

	// Tool is the single struct modeling every tool exposed to a
	// WorkerRunner, following spec §4.3: a polymorphic record rather than a
	// hierarchy of subtypes.
	Tool struct {
		// Name is unique within a runtime.
		Name string
		// Description is shown to the model.
		Description string
		// InputSchema is a JSON Schema document (as a map, and also
		// pre-compiled lazily by Validate) describing the argument object.
		InputSchema map[string]any
		// NeedsApproval is either a literal bool (wrap with AlwaysApproval/
		// NeverApproval) or a NeedsApprovalFunc for per-argument decisions.
		// Nil means the tool never needs approval.
		NeedsApproval NeedsApprovalFunc
		// Execute runs the tool against decoded arguments.
		Execute func(ctx context.Context, args map[string]any) (worker.ToolResultValue, error)
		// ManualExecution optionally restricts which surface may invoke this
		// tool. Nil means LLM-visible only (ModeLLM).
		ManualExecution *ManualExecutionSpec

		schema compiledSchema
	}
)

// AlwaysApproval returns a NeedsApprovalFunc that always requires approval.
func AlwaysApproval() NeedsApprovalFunc {
	return func(context.Context, map[string]any) (bool, error) { return true, nil }
}

// NeverApproval returns a NeedsApprovalFunc that never requires approval.
// This is equivalent to leaving Tool.NeedsApproval nil; it exists for
// readability at call sites that build tool tables from config.
func NeverApproval() NeedsApprovalFunc {
	return func(context.Context, map[string]any) (bool, error) { return false, nil }
}

// LLMVisible reports whether this tool should be exposed to the model: every
// tool is LLM-visible except those explicitly marked ModeManual.
func (t *Tool) LLMVisible() bool {
	return t.ManualExecution == nil || t.ManualExecution.Mode != ModeManual
}

// ManuallyInvokable reports whether the UI may invoke this tool directly.
func (t *Tool) ManuallyInvokable() bool {
	return t.ManualExecution != nil && (t.ManualExecution.Mode == ModeManual || t.ManualExecution.Mode == ModeBoth)
}

// Descriptor converts the tool to the provider-facing view sent to
// LanguageModel.Generate.
func (t *Tool) Descriptor() worker.ToolDescriptor {
	return worker.ToolDescriptor{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: t.InputSchema,
	}
}

// MarshalArgsPreview renders args as compact JSON for logging/events,
// swallowing marshal errors into a placeholder rather than failing.
func MarshalArgsPreview(args map[string]any) string {
	b, err := json.Marshal(args)
	if err != nil {
		return "<unencodable args>"
	}
	return string(b)
}
