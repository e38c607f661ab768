// Package hooks decouples the worker runtime from whatever is driving it —
// a terminal UI, a test harness, a remote session bridge — behind a typed
// publish/subscribe event bus, the way the teacher's runtime/agent/hooks
// package decouples its workflow from UI and persistence concerns.
package hooks

import (
	"context"
	"errors"
	"sync"
)

type (
	// Bus publishes runtime events to registered subscribers in a fan-out
	// pattern. Events are delivered synchronously in the publisher's
	// goroutine, in registration order. Unlike a strict pipeline bus, a
	// failing subscriber never blocks delivery to the rest: per spec
	// §4.8, "exceptions in handlers are logged but do not affect other
	// subscribers". Publish still returns a joined error so the caller can
	// log it, but every subscriber has already been invoked by the time it
	// does.
	Bus interface {
		// Publish delivers event to every currently registered subscriber,
		// in registration order, continuing past any subscriber error.
		Publish(ctx context.Context, event Event) error
		// Register adds sub to the bus and returns a Subscription that can
		// be closed to unregister it. Returns an error if sub is nil.
		Register(sub Subscriber) (Subscription, error)
	}

	// Subscriber reacts to published events.
	Subscriber interface {
		HandleEvent(ctx context.Context, event Event) error
	}

	// SubscriberFunc adapts a plain function to the Subscriber interface.
	SubscriberFunc func(ctx context.Context, event Event) error

	// Subscription represents an active registration on a Bus. Close is
	// idempotent and thread-safe.
	Subscription interface {
		Close() error
	}

	bus struct {
		mu          sync.RWMutex
		subscribers []*subscription
	}

	subscription struct {
		bus  *bus
		sub  Subscriber
		once sync.Once
	}
)

// HandleEvent calls f.
func (f SubscriberFunc) HandleEvent(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// NewBus constructs a ready-to-use, thread-safe in-memory event bus.
func NewBus() Bus {
	return &bus{}
}

func (b *bus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	subs := make([]Subscriber, 0, len(b.subscribers))
	for _, s := range b.subscribers {
		subs = append(subs, s.sub)
	}
	b.mu.RUnlock()
	var errs []error
	for _, sub := range subs {
		if err := sub.HandleEvent(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *bus) Register(sub Subscriber) (Subscription, error) {
	if sub == nil {
		return nil, errors.New("hooks: subscriber is required")
	}
	s := &subscription{bus: b, sub: sub}
	b.mu.Lock()
	b.subscribers = append(b.subscribers, s)
	b.mu.Unlock()
	return s, nil
}

func (s *subscription) Close() error {
	s.once.Do(func() {
		s.bus.mu.Lock()
		for i, other := range s.bus.subscribers {
			if other == s {
				s.bus.subscribers = append(s.bus.subscribers[:i:i], s.bus.subscribers[i+1:]...)
				break
			}
		}
		s.bus.mu.Unlock()
	})
	return nil
}
