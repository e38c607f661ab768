package ratelimit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zby/golem-forge-sub002/worker"
)

type stubModel struct {
	resp *worker.ModelResponse
	err  error
}

func (s *stubModel) Generate(context.Context, []worker.Message, []worker.ToolDescriptor) (*worker.ModelResponse, error) {
	return s.resp, s.err
}

func TestWrapDelegatesToNext(t *testing.T) {
	stub := &stubModel{resp: &worker.ModelResponse{Text: "hi"}}
	wrapped := New(600000, 600000).Wrap(stub)

	resp, err := wrapped.Generate(context.Background(), []worker.Message{worker.NewTextUserMessage("hello")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "hi", resp.Text)
}

func TestObserveBacksOffOnRateLimitError(t *testing.T) {
	l := New(1000, 1000)
	before := l.currentTPM
	l.observe(errors.New("429 too many requests"))
	assert.Less(t, l.currentTPM, before)
}

func TestObserveIgnoresOtherErrors(t *testing.T) {
	l := New(1000, 1000)
	before := l.currentTPM
	l.observe(errors.New("boom"))
	assert.Equal(t, before, l.currentTPM)
}

func TestObserveProbesUpOnSuccess(t *testing.T) {
	l := New(1000, 2000)
	l.currentTPM = 500
	l.observe(nil)
	assert.Greater(t, l.currentTPM, 500.0)
}

func TestWrapNilNextReturnsNil(t *testing.T) {
	assert.Nil(t, New(100, 100).Wrap(nil))
}
