// Package inmem provides an in-memory implementation of transcript.Store,
// intended for tests and local development. It is not durable.
package inmem

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/zby/golem-forge-sub002/worker/transcript"
)

// Store implements transcript.Store in memory, keyed by worker ID.
type Store struct {
	mu      sync.Mutex
	nextSeq map[string]int64
	events  map[string][]*transcript.Event
}

// New returns a new in-memory transcript store.
func New() *Store {
	return &Store{
		nextSeq: make(map[string]int64),
		events:  make(map[string][]*transcript.Event),
	}
}

// Append implements transcript.Store.
func (s *Store) Append(_ context.Context, e *transcript.Event) error {
	if e == nil {
		return fmt.Errorf("transcript: event is required")
	}
	if e.WorkerID == "" {
		return fmt.Errorf("transcript: worker_id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.nextSeq[e.WorkerID] + 1
	s.nextSeq[e.WorkerID] = seq

	e.ID = strconv.FormatInt(seq, 10)
	ev := *e
	s.events[e.WorkerID] = append(s.events[e.WorkerID], &ev)
	return nil
}

// List implements transcript.Store.
func (s *Store) List(_ context.Context, workerID string, cursor string, limit int) (transcript.Page, error) {
	if workerID == "" {
		return transcript.Page{}, fmt.Errorf("transcript: worker_id is required")
	}
	if limit <= 0 {
		return transcript.Page{}, fmt.Errorf("transcript: limit must be > 0")
	}

	var after int64
	if cursor != "" {
		id, err := strconv.ParseInt(cursor, 10, 64)
		if err != nil {
			return transcript.Page{}, fmt.Errorf("transcript: invalid cursor %q: %w", cursor, err)
		}
		after = id
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.events[workerID]
	if len(all) == 0 {
		return transcript.Page{}, nil
	}

	start := 0
	if after > 0 {
		start = int(after)
		if start >= len(all) {
			return transcript.Page{}, nil
		}
	}

	end := start + limit
	if end > len(all) {
		end = len(all)
	}

	events := append([]*transcript.Event(nil), all[start:end]...)
	var next string
	if end < len(all) {
		next = events[len(events)-1].ID
	}

	return transcript.Page{Events: events, NextCursor: next}, nil
}
