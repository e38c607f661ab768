package anthropic

import (
	"context"
	"encoding/json"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zby/golem-forge-sub002/worker"
)

type stubMessagesClient struct {
	lastParams sdk.MessageNewParams
	resp       *sdk.Message
	err        error
}

func (s *stubMessagesClient) New(_ context.Context, body sdk.MessageNewParams, _ ...option.RequestOption) (*sdk.Message, error) {
	s.lastParams = body
	return s.resp, s.err
}

func TestGenerateTextOnly(t *testing.T) {
	stub := &stubMessagesClient{
		resp: &sdk.Message{
			Content:    []sdk.ContentBlockUnion{{Type: "text", Text: "world"}},
			StopReason: sdk.StopReasonEndTurn,
			Usage:      sdk.Usage{InputTokens: 10, OutputTokens: 5},
		},
	}
	cl, err := New(stub, Options{Model: "claude-3.5-sonnet", MaxTokens: 128})
	require.NoError(t, err)

	messages := []worker.Message{
		worker.SystemMessage{Text: "be terse"},
		worker.NewTextUserMessage("hello"),
	}
	resp, err := cl.Generate(context.Background(), messages, nil)
	require.NoError(t, err)
	assert.Equal(t, "world", resp.Text)
	assert.Equal(t, string(sdk.StopReasonEndTurn), resp.FinishReason)
	assert.Equal(t, 10, resp.Usage.InputTokens)
	assert.Equal(t, 5, resp.Usage.OutputTokens)
	assert.Equal(t, "be terse", stub.lastParams.System[0].Text)
}

func TestGenerateToolUse(t *testing.T) {
	stub := &stubMessagesClient{
		resp: &sdk.Message{
			Content: []sdk.ContentBlockUnion{
				{Type: "tool_use", ID: "call_1", Name: "calculator", Input: json.RawMessage(`{"a":1,"b":2}`)},
			},
			StopReason: sdk.StopReasonToolUse,
		},
	}
	cl, err := New(stub, Options{Model: "claude-3.5-sonnet", MaxTokens: 128})
	require.NoError(t, err)

	descs := []worker.ToolDescriptor{
		{Name: "calculator", Description: "adds two numbers", InputSchema: map[string]any{"type": "object"}},
	}
	resp, err := cl.Generate(context.Background(), []worker.Message{worker.NewTextUserMessage("2+2")}, descs)
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "calculator", resp.ToolCalls[0].ToolName)
	assert.Equal(t, "call_1", resp.ToolCalls[0].ToolCallID)
	require.Len(t, stub.lastParams.Tools, 1)
}

func TestGenerateRejectsEmptyConversation(t *testing.T) {
	stub := &stubMessagesClient{}
	cl, err := New(stub, Options{Model: "claude-3.5-sonnet", MaxTokens: 128})
	require.NoError(t, err)

	_, err = cl.Generate(context.Background(), []worker.Message{worker.SystemMessage{Text: "x"}}, nil)
	assert.Error(t, err)
}

func TestNewRejectsMissingModel(t *testing.T) {
	_, err := New(&stubMessagesClient{}, Options{MaxTokens: 128})
	assert.Error(t, err)
}
