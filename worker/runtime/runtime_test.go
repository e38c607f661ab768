package runtime_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zby/golem-forge-sub002/worker"
	"github.com/zby/golem-forge-sub002/worker/approval"
	"github.com/zby/golem-forge-sub002/worker/hooks"
	"github.com/zby/golem-forge-sub002/worker/interrupt"
	"github.com/zby/golem-forge-sub002/worker/runtime"
	"github.com/zby/golem-forge-sub002/worker/tools"
)

// scriptedModel returns one ModelResponse per call to Generate, in order.
type scriptedModel struct {
	responses []*worker.ModelResponse
	calls     int
}

func (m *scriptedModel) Generate(ctx context.Context, messages []worker.Message, toolList []worker.ToolDescriptor) (*worker.ModelResponse, error) {
	r := m.responses[m.calls]
	m.calls++
	return r, nil
}

func newRunner(t *testing.T, def *worker.WorkerDefinition, model worker.LanguageModel, toolList []*tools.Tool) (*runtime.Runner, hooks.Bus) {
	t.Helper()
	bus := hooks.NewBus()
	ctrl, err := approval.NewController(approval.ModeApproveAll, nil, bus, interrupt.New())
	require.NoError(t, err)
	r, err := runtime.New(runtime.Options{
		Definition: def,
		Model:      model,
		Tools:      toolList,
		Approval:   ctrl,
		Bus:        bus,
	})
	require.NoError(t, err)
	require.NoError(t, r.Initialize())
	return r, bus
}

func TestRunNoToolCallsReturnsSuccess(t *testing.T) {
	def := &worker.WorkerDefinition{Name: "echo", Instructions: "Reply 'ok'."}
	model := &scriptedModel{responses: []*worker.ModelResponse{
		{Text: "ok"},
	}}
	r, _ := newRunner(t, def, model, nil)

	result := r.Run(context.Background(), "hi", nil)
	assert.True(t, result.Success)
	assert.Equal(t, "ok", result.Response)
	assert.Equal(t, 0, result.ToolCallCount)
	assert.Equal(t, 1, result.TotalIterations)
}

func TestRunSingleToolCallAccumulatesCount(t *testing.T) {
	def := &worker.WorkerDefinition{Name: "calc", Instructions: "Use the calculator."}
	calcTool := &tools.Tool{
		Name: "calculator",
		Execute: func(ctx context.Context, args map[string]any) (worker.ToolResultValue, error) {
			return worker.NewTextResult("8", ""), nil
		},
	}
	args, _ := json.Marshal(map[string]any{"a": 5, "b": 3})
	model := &scriptedModel{responses: []*worker.ModelResponse{
		{ToolCalls: []worker.ToolCall{{ToolCallID: "tc1", ToolName: "calculator", ToolArgs: args}}},
		{Text: "The result of 5 + 3 is 8."},
	}}
	r, _ := newRunner(t, def, model, []*tools.Tool{calcTool})

	result := r.Run(context.Background(), "What is 5 + 3?", nil)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.ToolCallCount)
	assert.Contains(t, result.Response, "8")
}

func TestRunInterruptBeforeNextIterationReturnsInterrupted(t *testing.T) {
	def := &worker.WorkerDefinition{Name: "slow", Instructions: "Keep going."}
	sig := interrupt.New()
	bus := hooks.NewBus()
	ctrl, err := approval.NewController(approval.ModeApproveAll, nil, bus, sig)
	require.NoError(t, err)

	model := &interruptingModel{sig: sig}
	r, err := runtime.New(runtime.Options{
		Definition: def,
		Model:      model,
		Approval:   ctrl,
		Bus:        bus,
		Signal:     sig,
	})
	require.NoError(t, err)
	require.NoError(t, r.Initialize())

	var events []hooks.Event
	_, err = bus.Register(hooks.SubscriberFunc(func(_ context.Context, e hooks.Event) error {
		events = append(events, e)
		return nil
	}))
	require.NoError(t, err)

	result := r.Run(context.Background(), "go", nil)
	assert.True(t, result.Success)
	assert.Equal(t, "[Interrupted]", result.Response)
	assert.True(t, result.Interrupted)

	// spec §7: every terminal path emits executionEnd or executionError
	// before sessionEnd, including interrupt.
	var sawExecutionEnd bool
	for _, e := range events {
		if end, ok := e.(hooks.ExecutionEndEvent); ok {
			sawExecutionEnd = true
			assert.True(t, end.Success)
			assert.Equal(t, "[Interrupted]", end.Response)
		}
	}
	assert.True(t, sawExecutionEnd, "expected an ExecutionEndEvent on the interrupt path")
	assert.Equal(t, hooks.SessionEnd, events[len(events)-1].Type())
}

// interruptingModel trips the shared signal after its first call, so the
// runtime observes it at the top of the second iteration.
type interruptingModel struct {
	sig   *interrupt.Signal
	calls int
}

func (m *interruptingModel) Generate(ctx context.Context, messages []worker.Message, toolList []worker.ToolDescriptor) (*worker.ModelResponse, error) {
	m.calls++
	if m.calls == 1 {
		m.sig.Interrupt()
		return &worker.ModelResponse{ToolCalls: []worker.ToolCall{{ToolCallID: "x", ToolName: "noop"}}}, nil
	}
	return &worker.ModelResponse{Text: "should not reach"}, nil
}

func TestRunRejectsEmptyInputUnlessAllowed(t *testing.T) {
	def := &worker.WorkerDefinition{Name: "strict", Instructions: "x"}
	model := &scriptedModel{responses: []*worker.ModelResponse{{Text: "ok"}}}
	r, _ := newRunner(t, def, model, nil)

	result := r.Run(context.Background(), "", nil)
	require.Error(t, result.Err)
}

func TestInitializeRejectsUnknownProvider(t *testing.T) {
	def := &worker.WorkerDefinition{Name: "bad-model", Instructions: "x", Model: "madeup:model-9"}
	model := &scriptedModel{responses: []*worker.ModelResponse{{Text: "ok"}}}
	bus := hooks.NewBus()
	ctrl, err := approval.NewController(approval.ModeApproveAll, nil, bus, interrupt.New())
	require.NoError(t, err)

	r, err := runtime.New(runtime.Options{Definition: def, Model: model, Approval: ctrl, Bus: bus})
	require.NoError(t, err)

	err = r.Initialize()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}
