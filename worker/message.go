package worker

import "encoding/json"

type (
	// Message is the tagged-union conversation element threaded through a
	// run: exactly one of SystemMessage, UserMessage, AssistantMessage, or
	// ToolMessage. The marker method keeps the set closed to this package's
	// concrete types, the way model.Part closes the part union in the
	// teacher's agent/model package.
	Message interface {
		isMessage()
	}

	// SystemMessage carries the worker's instructions as the first message
	// of every run.
	SystemMessage struct {
		Text string
	}

	// UserMessage carries caller input, either as plain text or as a
	// sequence of typed parts (text interleaved with file attachments).
	UserMessage struct {
		Parts []UserPart
	}

	// AssistantMessage carries a model turn: narration text and/or tool
	// calls the model requested.
	AssistantMessage struct {
		Parts []AssistantPart
	}

	// ToolMessage carries the results of one tool-call batch, in the same
	// order as the tool calls that produced them.
	ToolMessage struct {
		Results []ToolResult
	}

	// UserPart is either TextPart or FilePart.
	UserPart interface {
		isUserPart()
	}

	// AssistantPart is either TextPart or ToolCallPart.
	AssistantPart interface {
		isAssistantPart()
	}

	// TextPart is plain text content usable in both user and assistant
	// messages.
	TextPart struct {
		Text string
	}

	// FilePart attaches file bytes to a user message.
	FilePart struct {
		Bytes    []byte
		MimeType string
	}

	// ToolCallPart records one tool invocation requested by the model.
	ToolCallPart struct {
		Call ToolCall
	}

	// ToolCall identifies a single tool invocation within one model
	// response. ToolCallID is unique within one run.
	ToolCall struct {
		ToolCallID string
		ToolName   string
		// ToolArgs is the raw JSON object the model supplied as arguments.
		ToolArgs json.RawMessage
	}

	// ToolResult is the outcome of executing one ToolCall.
	ToolResult struct {
		ToolCallID string
		ToolName   string
		// Output is nil when IsError is true and Error describes the failure;
		// otherwise it holds the tool's ToolResultValue.
		Output ToolResultValue
		// IsError marks this result as a structured failure visible to the
		// model, not a runtime fault.
		IsError bool
		// Error is the human-readable failure reason when IsError is true.
		Error string
	}
)

func (SystemMessage) isMessage()    {}
func (UserMessage) isMessage()      {}
func (AssistantMessage) isMessage() {}
func (ToolMessage) isMessage()      {}

func (TextPart) isUserPart() {}
func (FilePart) isUserPart() {}

func (TextPart) isAssistantPart()     {}
func (ToolCallPart) isAssistantPart() {}

// NewTextUserMessage builds a single-part UserMessage from plain text. This
// is the common case used by WorkerRunner.Run when the caller passes a bare
// string input.
func NewTextUserMessage(text string) UserMessage {
	return UserMessage{Parts: []UserPart{TextPart{Text: text}}}
}

// InputOrArgs decodes c.ToolArgs into v. Older callers may have populated a
// legacy "args" wrapper object instead of a bare arguments object; this
// helper falls back to that shape so provider adapters that still emit
// {"args": {...}} keep working, matching the model provider contract in
// spec §6.
func (c ToolCall) InputOrArgs(v any) error {
	if len(c.ToolArgs) == 0 {
		return nil
	}
	var wrapper struct {
		Args json.RawMessage `json:"args"`
	}
	if err := json.Unmarshal(c.ToolArgs, &wrapper); err == nil && len(wrapper.Args) > 0 {
		return json.Unmarshal(wrapper.Args, v)
	}
	return json.Unmarshal(c.ToolArgs, v)
}
