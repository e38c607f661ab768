package inmem_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zby/golem-forge-sub002/worker/transcript"
	"github.com/zby/golem-forge-sub002/worker/transcript/inmem"
)

func TestAppendAssignsSequentialIDs(t *testing.T) {
	store := inmem.New()
	ctx := context.Background()

	e1 := &transcript.Event{WorkerID: "w1", Type: "status"}
	e2 := &transcript.Event{WorkerID: "w1", Type: "status"}
	require.NoError(t, store.Append(ctx, e1))
	require.NoError(t, store.Append(ctx, e2))

	assert.Equal(t, "1", e1.ID)
	assert.Equal(t, "2", e2.ID)
}

func TestListPaginatesWithCursor(t *testing.T) {
	store := inmem.New()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, &transcript.Event{WorkerID: "w1", Type: "status"}))
	}

	page, err := store.List(ctx, "w1", "", 2)
	require.NoError(t, err)
	assert.Len(t, page.Events, 2)
	assert.Equal(t, "2", page.NextCursor)

	next, err := store.List(ctx, "w1", page.NextCursor, 2)
	require.NoError(t, err)
	assert.Len(t, next.Events, 2)
	assert.Equal(t, "4", next.NextCursor)

	last, err := store.List(ctx, "w1", next.NextCursor, 2)
	require.NoError(t, err)
	assert.Len(t, last.Events, 1)
	assert.Empty(t, last.NextCursor)
}

func TestListUnknownWorkerReturnsEmptyPage(t *testing.T) {
	store := inmem.New()
	page, err := store.List(context.Background(), "missing", "", 10)
	require.NoError(t, err)
	assert.Empty(t, page.Events)
}

func TestAppendRejectsMissingWorkerID(t *testing.T) {
	store := inmem.New()
	err := store.Append(context.Background(), &transcript.Event{Type: "status"})
	assert.Error(t, err)
}
