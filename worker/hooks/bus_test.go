package hooks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zby/golem-forge-sub002/worker/hooks"
)

func TestPublishFansOutInRegistrationOrder(t *testing.T) {
	bus := hooks.NewBus()
	var order []string

	for _, name := range []string{"a", "b", "c"} {
		name := name
		_, err := bus.Register(hooks.SubscriberFunc(func(ctx context.Context, e hooks.Event) error {
			order = append(order, name)
			return nil
		}))
		require.NoError(t, err)
	}

	evt := hooks.StatusEvent{hooks.NewBaseEvent(hooks.Status, "w1", 0), "hello"}
	require.NoError(t, bus.Publish(context.Background(), evt))
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestPublishContinuesPastSubscriberError(t *testing.T) {
	bus := hooks.NewBus()
	var calledSecond bool

	_, err := bus.Register(hooks.SubscriberFunc(func(ctx context.Context, e hooks.Event) error {
		return errors.New("boom")
	}))
	require.NoError(t, err)
	_, err = bus.Register(hooks.SubscriberFunc(func(ctx context.Context, e hooks.Event) error {
		calledSecond = true
		return nil
	}))
	require.NoError(t, err)

	err = bus.Publish(context.Background(), hooks.StatusEvent{hooks.NewBaseEvent(hooks.Status, "w1", 0), "x"})
	require.Error(t, err)
	assert.True(t, calledSecond, "a failing subscriber must not block delivery to the rest")
}

func TestSubscriptionCloseIsIdempotentAndStopsDelivery(t *testing.T) {
	bus := hooks.NewBus()
	var count int
	sub, err := bus.Register(hooks.SubscriberFunc(func(ctx context.Context, e hooks.Event) error {
		count++
		return nil
	}))
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), hooks.StatusEvent{hooks.NewBaseEvent(hooks.Status, "w1", 0), "x"}))
	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
	require.NoError(t, bus.Publish(context.Background(), hooks.StatusEvent{hooks.NewBaseEvent(hooks.Status, "w1", 0), "x"}))

	assert.Equal(t, 1, count)
}

func TestRegisterRejectsNilSubscriber(t *testing.T) {
	bus := hooks.NewBus()
	_, err := bus.Register(nil)
	require.Error(t, err)
}
