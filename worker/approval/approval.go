// Package approval implements the controller that decides whether a tool
// invocation may run (spec §4.4): by mode rule, by memory of a prior
// decision, or by prompting a UI over the hooks bus and awaiting exactly
// one response.
package approval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/zby/golem-forge-sub002/worker"
	"github.com/zby/golem-forge-sub002/worker/hooks"
	"github.com/zby/golem-forge-sub002/worker/interrupt"
)

type (
	// Mode selects how the controller resolves requests that are not
	// already resolved by memory.
	Mode string

	// Decision is a remembered approval-memory value.
	Decision string
)

const (
	ModeInteractive Mode = "interactive"
	ModeApproveAll  Mode = "approve_all"
	ModeStrict      Mode = "strict"
)

const (
	DecisionAllowAlways  Decision = "allowAlways"
	DecisionAllowSession Decision = "allowSession"
	DecisionDeny         Decision = "deny"
)

// HistoryEntry records one resolved request for audit purposes
// (Controller.History).
type HistoryEntry struct {
	Fingerprint string
	ToolName    string
	Approved    bool
	Reason      string
	Decision    Decision // zero value if the decision was not memorized
}

// Controller answers "may this tool call run?" per spec §4.4. It is shared
// by reference across an entire delegation tree: a parent and every
// descendant worker hold the same *Controller, so a session approval
// granted in a child is visible to the parent and its siblings.
type Controller struct {
	mode   Mode
	memory Memory
	bus    hooks.Bus
	signal *interrupt.Signal

	// promptMu serializes interactive prompts so the UI only ever sees one
	// outstanding request at a time, per spec §4.4 and §6.
	promptMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan approvalResponse

	historyMu sync.Mutex
	history   []HistoryEntry

	sub hooks.Subscription
}

type approvalResponse struct {
	approved any // bool, "session", or "always"
	reason   string
}

// NewController constructs a Controller and subscribes it to bus for
// ApprovalResponseEvent delivery. Callers should Close the returned
// subscription (via Controller.Close) when the root worker's run ends.
// Interactive mode prompts over bus, so ModeInteractive with a nil bus is
// an InvalidConfigError.
func NewController(mode Mode, memory Memory, bus hooks.Bus, signal *interrupt.Signal) (*Controller, error) {
	if memory == nil {
		memory = NewMemory()
	}
	if mode == ModeInteractive && bus == nil {
		return nil, &worker.InvalidConfigError{Reason: "approval: interactive mode requires a bus to prompt on"}
	}
	c := &Controller{
		mode:    mode,
		memory:  memory,
		bus:     bus,
		signal:  signal,
		pending: make(map[string]chan approvalResponse),
	}
	if bus != nil {
		sub, err := bus.Register(hooks.SubscriberFunc(c.handleEvent))
		if err != nil {
			return nil, fmt.Errorf("approval: registering with bus: %w", err)
		}
		c.sub = sub
	}
	return c, nil
}

// Close unregisters the controller from its bus.
func (c *Controller) Close() error {
	if c.sub == nil {
		return nil
	}
	return c.sub.Close()
}

func (c *Controller) handleEvent(ctx context.Context, event hooks.Event) error {
	resp, ok := event.(hooks.ApprovalResponseEvent)
	if !ok {
		return nil
	}
	c.pendingMu.Lock()
	ch, ok := c.pending[resp.RequestID]
	if ok {
		delete(c.pending, resp.RequestID)
	}
	c.pendingMu.Unlock()
	if !ok {
		return nil
	}
	ch <- approvalResponse{approved: resp.Approved, reason: resp.Reason}
	return nil
}

// Evaluate resolves whether toolName may run with args, per the mode and
// memory rules of spec §4.4, blocking on a UI round-trip when mode is
// interactive and no memory entry already covers this call.
func (c *Controller) Evaluate(ctx context.Context, workerPath []string, toolName string, args map[string]any, description, risk string) (bool, string, error) {
	fp, err := Fingerprint(toolName, args)
	if err != nil {
		return false, "", fmt.Errorf("approval: fingerprinting call: %w", err)
	}

	if d, ok := c.memory.Lookup(fp); ok {
		if d == DecisionDeny {
			reason := "denied by remembered decision"
			c.record(fp, toolName, false, reason, d)
			return false, reason, nil
		}
		c.record(fp, toolName, true, "", d)
		return true, "", nil
	}

	switch c.mode {
	case ModeApproveAll:
		c.record(fp, toolName, true, "", "")
		return true, "", nil
	case ModeStrict:
		c.record(fp, toolName, false, "strict mode", "")
		return false, "strict mode", nil
	default:
		return c.promptInteractive(ctx, fp, toolName, workerPath, description, risk)
	}
}

func (c *Controller) promptInteractive(ctx context.Context, fp, toolName string, workerPath []string, description, risk string) (bool, string, error) {
	c.promptMu.Lock()
	defer c.promptMu.Unlock()

	if c.signal != nil && c.signal.Interrupted() {
		c.record(fp, toolName, false, "interrupted", "")
		return false, "interrupted", nil
	}

	requestID := uuid.NewString()
	ch := make(chan approvalResponse, 1)
	c.pendingMu.Lock()
	c.pending[requestID] = ch
	c.pendingMu.Unlock()

	if c.bus != nil {
		workerID := ""
		if len(workerPath) > 0 {
			workerID = workerPath[len(workerPath)-1]
		}
		evt := hooks.ApprovalRequiredEvent{
			hooks.NewBaseEvent(hooks.ApprovalRequired, workerID, len(workerPath)-1),
			requestID,
			description,
			risk,
			workerPath,
		}
		if err := c.bus.Publish(ctx, evt); err != nil {
			c.pendingMu.Lock()
			delete(c.pending, requestID)
			c.pendingMu.Unlock()
			return false, "", fmt.Errorf("approval: publishing approvalRequired: %w", err)
		}
	}

	var done <-chan struct{}
	if c.signal != nil {
		done = c.signal.Done()
	}

	select {
	case resp := <-ch:
		approved, decision := classify(resp.approved)
		if decision != "" {
			c.memory.Remember(fp, decision)
		}
		c.record(fp, toolName, approved, resp.reason, decision)
		return approved, resp.reason, nil
	case <-done:
		c.pendingMu.Lock()
		delete(c.pending, requestID)
		c.pendingMu.Unlock()
		c.record(fp, toolName, false, "interrupted", "")
		return false, "interrupted", nil
	case <-ctx.Done():
		c.pendingMu.Lock()
		delete(c.pending, requestID)
		c.pendingMu.Unlock()
		return false, "", ctx.Err()
	}
}

// classify maps the wire-shaped approved value (true|false|"session"|
// "always") to an approved bool plus the Decision to memorize, if any.
func classify(approved any) (bool, Decision) {
	switch v := approved.(type) {
	case bool:
		return v, ""
	case string:
		switch v {
		case "always":
			return true, DecisionAllowAlways
		case "session":
			return true, DecisionAllowSession
		}
	}
	return false, ""
}

func (c *Controller) record(fingerprint, toolName string, approved bool, reason string, decision Decision) {
	c.historyMu.Lock()
	defer c.historyMu.Unlock()
	c.history = append(c.history, HistoryEntry{
		Fingerprint: fingerprint,
		ToolName:    toolName,
		Approved:    approved,
		Reason:      reason,
		Decision:    decision,
	})
}

// History returns every resolved request in resolution order, for audit
// logging and tests.
func (c *Controller) History() []HistoryEntry {
	c.historyMu.Lock()
	defer c.historyMu.Unlock()
	out := make([]HistoryEntry, len(c.history))
	copy(out, c.history)
	return out
}

// Fingerprint canonicalizes (toolName, args) into a stable string suitable
// as an ApprovalMemory key. encoding/json already serializes map keys in
// sorted order, so two calls with the same arguments in different
// insertion order produce the same fingerprint.
func Fingerprint(toolName string, args map[string]any) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(toolName)
	buf.WriteByte('\x00')
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(args); err != nil {
		return "", err
	}
	return buf.String(), nil
}
