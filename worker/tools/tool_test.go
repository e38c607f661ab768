package tools_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zby/golem-forge-sub002/worker"
	"github.com/zby/golem-forge-sub002/worker/tools"
)

func calculatorTool() *tools.Tool {
	return &tools.Tool{
		Name:        "calculator",
		Description: "adds two numbers",
		InputSchema: map[string]any{
			"type":     "object",
			"required": []any{"a", "b"},
			"properties": map[string]any{
				"a": map[string]any{"type": "number"},
				"b": map[string]any{"type": "number"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (worker.ToolResultValue, error) {
			a, _ := args["a"].(float64)
			b, _ := args["b"].(float64)
			return worker.NewTextResult(fmt.Sprintf("%v", a+b), ""), nil
		},
	}
}

func TestValidateAcceptsWellFormedArgs(t *testing.T) {
	tool := calculatorTool()
	err := tool.Validate(map[string]any{"a": 5.0, "b": 3.0})
	require.NoError(t, err)
}

func TestValidateRejectsMissingField(t *testing.T) {
	tool := calculatorTool()
	err := tool.Validate(map[string]any{"a": 5.0})
	require.Error(t, err)
	var verr *tools.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Issues)
}

func TestLLMVisibility(t *testing.T) {
	tool := calculatorTool()
	assert.True(t, tool.LLMVisible())
	assert.False(t, tool.ManuallyInvokable())

	tool.ManualExecution = &tools.ManualExecutionSpec{Mode: tools.ModeManual}
	assert.False(t, tool.LLMVisible())
	assert.True(t, tool.ManuallyInvokable())

	tool.ManualExecution = &tools.ManualExecutionSpec{Mode: tools.ModeBoth}
	assert.True(t, tool.LLMVisible())
	assert.True(t, tool.ManuallyInvokable())
}

func TestValidateCachesCompiledSchemaAcrossCalls(t *testing.T) {
	tool := calculatorTool()
	for i := 0; i < 5; i++ {
		require.NoError(t, tool.Validate(map[string]any{"a": 1.0, "b": 2.0}))
	}
}
