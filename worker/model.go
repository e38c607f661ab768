package worker

import "context"

type (
	// ToolDescriptor is the minimal, provider-facing view of a tool: enough
	// for a LanguageModel to decide when and how to call it. It deliberately
	// excludes execution details (approval policy, the execute function)
	// which live in package tools and never cross the provider boundary.
	ToolDescriptor struct {
		Name        string
		Description string
		// InputSchema is a declarative JSON Schema document constraining the
		// tool's argument object.
		InputSchema map[string]any
	}

	// Usage reports token accounting for one model call.
	Usage struct {
		InputTokens  int
		OutputTokens int
	}

	// ModelResponse is what LanguageModel.Generate returns for one turn.
	ModelResponse struct {
		// Text is the model's narration, if any.
		Text string
		// ToolCalls are the tool invocations the model requested this turn.
		ToolCalls []ToolCall
		// Usage reports token counts for this call. Implementations that do
		// not report usage should return the zero value; the runtime treats
		// missing usage as zero per spec §8 invariant 4.
		Usage Usage
		// FinishReason is an opaque, provider-specific completion reason.
		FinishReason string
	}

	// LanguageModel is the out-of-scope collaborator the runtime calls once
	// per iteration. Concrete implementations (see modelprovider/anthropic)
	// wrap a real provider SDK; the core never depends on one directly.
	LanguageModel interface {
		// Generate asks the model to continue the conversation in messages,
		// optionally constrained to the supplied tool set. Implementations
		// must respect ctx cancellation.
		Generate(ctx context.Context, messages []Message, tools []ToolDescriptor) (*ModelResponse, error)
	}
)
