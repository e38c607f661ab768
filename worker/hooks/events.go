package hooks

import "github.com/zby/golem-forge-sub002/worker/telemetry"

type (
	// EventType names one member of the display or action event catalog.
	EventType string

	// Event is the interface all hook events implement. Subscribers type
	// switch on the concrete type to read event-specific fields.
	Event interface {
		// Type returns the event's catalog member.
		Type() EventType
		// WorkerID identifies the WorkerRunner that produced or is the
		// target of this event.
		WorkerID() string
		// Depth is the delegation depth of the worker that produced this
		// event (0 for a root worker).
		Depth() int
	}

	baseEvent struct {
		EventType EventType
		RunnerID  string
		RunDepth  int
	}
)

func (e baseEvent) Type() EventType  { return e.EventType }
func (e baseEvent) WorkerID() string { return e.RunnerID }
func (e baseEvent) Depth() int       { return e.RunDepth }

// Display event catalog: emitted by the runtime/executor, observed by a UI.
const (
	ExecutionStart        EventType = "executionStart"
	ExecutionEnd          EventType = "executionEnd"
	ExecutionError        EventType = "executionError"
	MessageSend           EventType = "messageSend"
	ResponseReceive       EventType = "responseReceive"
	ToolStarted           EventType = "toolStarted"
	ToolResult            EventType = "toolResult"
	Streaming             EventType = "streaming"
	WorkerUpdate          EventType = "workerUpdate"
	ApprovalRequired      EventType = "approvalRequired"
	ManualToolsAvailable  EventType = "manualToolsAvailable"
	DiffSummary           EventType = "diffSummary"
	DiffContent           EventType = "diffContent"
	InputPrompt           EventType = "inputPrompt"
	SessionEnd            EventType = "sessionEnd"
	Status                EventType = "status"
	Message               EventType = "message"
)

// Action event catalog: emitted by a UI, observed by the runtime.
const (
	ApprovalResponse EventType = "approvalResponse"
	ManualToolInvoke EventType = "manualToolInvoke"
	GetDiff          EventType = "getDiff"
	UserInput        EventType = "userInput"
	Interrupt        EventType = "interrupt"
)

type (
	// ExecutionStartEvent fires once at the top of WorkerRunner.Run.
	ExecutionStartEvent struct {
		baseEvent
		Input string
	}

	// ExecutionEndEvent fires when a run completes, successfully or not.
	ExecutionEndEvent struct {
		baseEvent
		Success         bool
		Response        string
		TotalIterations int
		ToolCallCount   int
		TokensIn        int
		TokensOut       int
	}

	// ExecutionErrorEvent fires when a run terminates on an uncaught model
	// or runtime-invariant error.
	ExecutionErrorEvent struct {
		baseEvent
		Err error
	}

	// MessageSendEvent fires immediately before each call to
	// LanguageModel.Generate.
	MessageSendEvent struct {
		baseEvent
		Iteration int
		ToolCount int
	}

	// ResponseReceiveEvent fires after each LanguageModel.Generate call
	// returns successfully.
	ResponseReceiveEvent struct {
		baseEvent
		Iteration int
		Text      string
		ToolCalls int
	}

	// ToolStartedEvent fires before a tool's Execute is invoked.
	ToolStartedEvent struct {
		baseEvent
		ToolCallID string
		ToolName   string
		ArgsPreview string
	}

	// ToolResultStatus classifies how a tool call resolved.
	ToolResultStatus string

	// ToolResultEvent fires after a tool call resolves, whichever way.
	ToolResultEvent struct {
		baseEvent
		ToolCallID string
		ToolName   string
		Status     ToolResultStatus
		Summary    string
		Err        string
		DurationMs int64
		Telemetry  telemetry.ToolTelemetry
	}

	// StreamingEvent carries incremental model output, for providers that
	// support it. Non-streaming providers never emit this.
	StreamingEvent struct {
		baseEvent
		Delta string
	}

	// WorkerUpdateEvent reports a change in worker lifecycle state not
	// covered by the execution events, for example a delegated child's
	// start.
	WorkerUpdateEvent struct {
		baseEvent
		WorkerName string
		State      string
	}

	// ApprovalRequiredEvent fires when interactive approval mode needs a
	// decision from the UI.
	ApprovalRequiredEvent struct {
		baseEvent
		RequestID   string
		Description string
		Risk        string
		WorkerPath  []string
	}

	// ManualToolsAvailableEvent announces the set of tools a UI may invoke
	// directly (ModeManual/ModeBoth), typically emitted once at startup.
	ManualToolsAvailableEvent struct {
		baseEvent
		ToolNames []string
	}

	// DiffSummaryEvent and DiffContentEvent report filesystem changes for
	// UIs that render diffs of sandboxed writes.
	DiffSummaryEvent struct {
		baseEvent
		Path         string
		LinesAdded   int
		LinesRemoved int
	}

	DiffContentEvent struct {
		baseEvent
		Path string
		Diff string
	}

	// InputPromptEvent asks the UI to collect free-form text from the
	// operator, answered by a UserInputEvent.
	InputPromptEvent struct {
		baseEvent
		Prompt string
	}

	// SessionEndEvent fires once, for root workers only, after the final
	// ExecutionEndEvent or ExecutionErrorEvent.
	SessionEndEvent struct {
		baseEvent
		Reason string
	}

	// StatusEvent and MessageEvent are free-form, low-frequency
	// announcements a UI may render as a status line or toast.
	StatusEvent struct {
		baseEvent
		Text string
	}

	MessageEvent struct {
		baseEvent
		Text string
	}

	// ApprovalResponseEvent answers a prior ApprovalRequiredEvent.
	ApprovalResponseEvent struct {
		baseEvent
		RequestID string
		Approved  any // bool, or "session" / "always"
		Reason    string
	}

	// ManualToolInvokeEvent asks the runtime to run a ModeManual/ModeBoth
	// tool outside the reason/act loop.
	ManualToolInvokeEvent struct {
		baseEvent
		ToolName string
		Args     map[string]any
	}

	// GetDiffEvent asks the runtime to compute a diff for a sandboxed path.
	GetDiffEvent struct {
		baseEvent
		Path string
	}

	// UserInputEvent answers a prior InputPromptEvent or injects new input
	// into a paused run.
	UserInputEvent struct {
		baseEvent
		Text string
	}

	// InterruptEvent asks the runtime to trip the run's interrupt.Signal.
	InterruptEvent struct {
		baseEvent
	}
)

const (
	StatusSuccess     ToolResultStatus = "success"
	StatusError       ToolResultStatus = "error"
	StatusInterrupted ToolResultStatus = "interrupted"
)

// NewBaseEvent constructs the embeddable baseEvent shared by every concrete
// event type.
func NewBaseEvent(eventType EventType, workerID string, depth int) baseEvent {
	return baseEvent{EventType: eventType, RunnerID: workerID, RunDepth: depth}
}
