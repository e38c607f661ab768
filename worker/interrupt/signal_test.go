package interrupt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zby/golem-forge-sub002/worker/interrupt"
)

func TestInterruptedReflectsState(t *testing.T) {
	s := interrupt.New()
	assert.False(t, s.Interrupted())

	s.Interrupt()
	assert.True(t, s.Interrupted())

	select {
	case <-s.Done():
	default:
		t.Fatal("Done channel should be closed after Interrupt")
	}
}

func TestResetRearms(t *testing.T) {
	s := interrupt.New()
	s.Interrupt()
	require := assert.New(t)
	require.True(s.Interrupted())

	s.Reset()
	require.False(s.Interrupted())

	select {
	case <-s.Done():
		t.Fatal("Done channel must not be closed after Reset")
	default:
	}
}

func TestDoubleInterruptDoesNotPanic(t *testing.T) {
	s := interrupt.New()
	s.Interrupt()
	s.Interrupt()
	assert.True(t, s.Interrupted())
}
