package transcript_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zby/golem-forge-sub002/worker/hooks"
	"github.com/zby/golem-forge-sub002/worker/transcript"
)

type fakeStore struct {
	appended []*transcript.Event
}

func (s *fakeStore) Append(_ context.Context, e *transcript.Event) error {
	e.ID = "1"
	s.appended = append(s.appended, e)
	return nil
}

func (s *fakeStore) List(context.Context, string, string, int) (transcript.Page, error) {
	return transcript.Page{}, nil
}

func TestRecorderAppendsEncodedEvent(t *testing.T) {
	store := &fakeStore{}
	rec := transcript.NewRecorder(store, "session-1")

	err := rec.HandleEvent(context.Background(), hooks.StatusEvent{hooks.NewBaseEvent(hooks.Status, "w1", 0), "hi"})
	require.NoError(t, err)
	require.Len(t, store.appended, 1)

	got := store.appended[0]
	assert.Equal(t, "w1", got.WorkerID)
	assert.Equal(t, "session-1", got.SessionID)
	assert.Equal(t, hooks.Status, got.Type)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(got.Payload, &decoded))
	assert.Equal(t, "hi", decoded["Text"])
}
