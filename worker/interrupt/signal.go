// Package interrupt provides the cancellation primitive WorkerRunner polls
// between reason/act iterations and mid tool-batch execution (spec §5).
// Unlike the teacher's Temporal workflow signal channel, this Signal is a
// plain, non-durable concurrency primitive: interrupting a worker run never
// survives a process restart.
package interrupt

import "sync"

// Signal is a one-shot, re-armable cancellation flag. It is safe for
// concurrent use: Interrupt may be called from a UI goroutine while Run
// polls Interrupted or selects on Done from the runtime goroutine.
type Signal struct {
	mu   sync.Mutex
	done chan struct{}
}

// New returns a ready-to-use Signal in the non-interrupted state.
func New() *Signal {
	return &Signal{done: make(chan struct{})}
}

// Interrupt marks the signal as tripped. Calling Interrupt more than once
// before Reset is a no-op.
func (s *Signal) Interrupt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

// Reset re-arms the signal for reuse, for example before a delegated child
// run or a subsequent turn in the same session.
func (s *Signal) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		s.done = make(chan struct{})
	default:
	}
}

// Interrupted reports whether Interrupt has been called since the last
// Reset.
func (s *Signal) Interrupted() bool {
	s.mu.Lock()
	ch := s.done
	s.mu.Unlock()
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// Done returns a channel that is closed when Interrupt is called, suitable
// for use in a select alongside tool execution goroutines.
func (s *Signal) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}
