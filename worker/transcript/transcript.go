// Package transcript provides an append-only record of a worker
// run's hooks.Events, independent of the in-process hooks.Bus the runtime
// emits them on. A Store lets a host reconstruct what happened in a run
// after the fact — for audit, debugging, or resuming a conversation — which
// the hooks bus itself cannot do since it has no memory of past events.
package transcript

import (
	"context"
	"encoding/json"
	"time"

	"github.com/zby/golem-forge-sub002/worker/hooks"
)

type (
	// Event is a single immutable entry appended to a worker run's
	// transcript. Store implementations assign ID when persisting.
	Event struct {
		// ID is the store-assigned opaque identifier for this event.
		ID string
		// WorkerID is the run that emitted the event (Runner.WorkerID).
		WorkerID string
		// SessionID groups related runs into a conversation thread, when
		// the host tracks sessions above the worker runtime.
		SessionID string
		// Depth is the delegation depth the event was emitted at.
		Depth int
		// Type is the hooks event type.
		Type hooks.EventType
		// Payload is the canonical JSON encoding of the hooks.Event.
		Payload json.RawMessage
		// Timestamp is the event time.
		Timestamp time.Time
	}

	// Page is a forward page of transcript events, oldest first.
	Page struct {
		Events []*Event
		// NextCursor is the cursor for the next page, empty when exhausted.
		NextCursor string
	}

	// Store is an append-only event store for transcript introspection.
	// Implementations must provide stable ordering within a run; cursor
	// values are store-owned and opaque to callers.
	Store interface {
		// Append persists e, assigning its ID.
		Append(ctx context.Context, e *Event) error
		// List returns the next forward page of events for workerID.
		List(ctx context.Context, workerID string, cursor string, limit int) (Page, error)
	}
)

// Recorder subscribes to a hooks.Bus and appends every event it observes to
// a Store, encoding each as JSON. Subscribe errors (e.g. an unmarshalable
// event) are returned to the bus per its documented fan-out contract; they
// do not stop the Recorder from handling subsequent events.
type Recorder struct {
	store     Store
	sessionID string
}

// NewRecorder constructs a Recorder writing to store. sessionID is attached
// to every recorded event and may be empty if the host does not track
// sessions above individual runs.
func NewRecorder(store Store, sessionID string) *Recorder {
	return &Recorder{store: store, sessionID: sessionID}
}

// HandleEvent implements hooks.Subscriber.
func (r *Recorder) HandleEvent(ctx context.Context, event hooks.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return r.store.Append(ctx, &Event{
		WorkerID:  event.WorkerID(),
		SessionID: r.sessionID,
		Depth:     event.Depth(),
		Type:      event.Type(),
		Payload:   payload,
		Timestamp: timeNow(),
	})
}

// timeNow is a var so tests can override it; production code always uses
// time.Now.
var timeNow = time.Now
