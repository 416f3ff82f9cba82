package outbox

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/outbox"
	"github.com/stretchr/testify/require"
)

type testEvent string

func (e testEvent) EventName() string { return string(e) }

func TestBusDeliversToEverySubscriber(t *testing.T) {
	ctx := context.Background()
	bus := NewBus(nil)

	var mu sync.Mutex
	got := map[string]int{}
	record := func(tag string) domoutbox.Handler {
		return func(_ context.Context, e domoutbox.Event) error {
			mu.Lock()
			defer mu.Unlock()
			got[tag+":"+e.EventName()]++
			return nil
		}
	}
	bus.Subscribe("order.created", record("a"))
	bus.Subscribe("order.created", record("b"))
	bus.Subscribe("order.shipped", record("a"))

	bus.Start(ctx)
	require.NoError(t, bus.Publish(ctx, testEvent("order.created")))
	require.NoError(t, bus.Publish(ctx, testEvent("order.shipped")))
	require.NoError(t, bus.Publish(ctx, testEvent("listing.created")))

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	bus.Stop(stopCtx)

	require.Equal(t, map[string]int{
		"a:order.created": 1,
		"b:order.created": 1,
		"a:order.shipped": 1,
	}, got)
}

func TestBusSurvivesFailingHandlers(t *testing.T) {
	ctx := context.Background()
	bus := NewBus(nil)

	var calls atomic.Int32
	bus.Subscribe("x", func(context.Context, domoutbox.Event) error { panic("boom") })
	bus.Subscribe("x", func(context.Context, domoutbox.Event) error { return errors.New("nope") })
	bus.Subscribe("x", func(context.Context, domoutbox.Event) error {
		calls.Add(1)
		return nil
	})

	bus.Start(ctx)
	require.NoError(t, bus.Publish(ctx, testEvent("x")))
	require.NoError(t, bus.Publish(ctx, testEvent("x")))
	bus.Stop(ctx)

	require.EqualValues(t, 2, calls.Load())
}

func TestBusRejectsAfterStop(t *testing.T) {
	ctx := context.Background()
	bus := NewBus(nil)
	bus.Start(ctx)
	bus.Stop(ctx)

	require.ErrorIs(t, bus.Publish(ctx, testEvent("x")), ErrBusStopped)
	require.NoError(t, bus.Publish(ctx, nil))
}

func TestBusStopWithoutStart(t *testing.T) {
	bus := NewBus(nil)
	bus.Stop(context.Background())
	require.ErrorIs(t, bus.Publish(context.Background(), testEvent("x")), ErrBusStopped)
}
