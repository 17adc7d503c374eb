package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestInMemoryDispatcherContinuesAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var calls []string
	d.Subscribe(EventGrievanceRegistered, func(_ context.Context, e Event) error {
		calls = append(calls, "first:"+e.ReferenceNo)
		return errors.New("boom")
	})
	d.Subscribe(EventGrievanceRegistered, func(_ context.Context, e Event) error {
		calls = append(calls, "second:"+e.ReferenceNo)
		return nil
	})
	d.Subscribe(EventGrievanceResolved, func(context.Context, Event) error {
		calls = append(calls, "resolved")
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventGrievanceRegistered, ReferenceNo: "R1"}))
	assert.Equal(t, []string{"first:R1", "second:R1"}, calls)
}

func TestQueuedDispatcherDeliversAndDrainsOnClose(t *testing.T) {
	d := NewQueuedDispatcher(4, nil)
	var mu sync.Mutex
	var got []string
	d.Subscribe(EventGrievanceAssigned, func(_ context.Context, e Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e.ReferenceNo)
		return nil
	})
	d.Run(context.Background())

	for _, ref := range []string{"A", "B", "C"} {
		require.NoError(t, d.Publish(context.Background(), Event{Type: EventGrievanceAssigned, ReferenceNo: ref}))
	}
	d.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"A", "B", "C"}, got)
}

func TestQueuedDispatcherRejectsAfterClose(t *testing.T) {
	d := NewQueuedDispatcher(1, nil)
	d.Run(context.Background())
	d.Close()
	d.Close()

	err := d.Publish(context.Background(), Event{Type: EventGrievanceResolved})
	assert.ErrorIs(t, err, ErrDispatcherClosed)
}

func TestQueuedDispatcherPublishHonoursContext(t *testing.T) {
	d := NewQueuedDispatcher(1, nil)
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventGrievanceResolved}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := d.Publish(ctx, Event{Type: EventGrievanceResolved})
	assert.ErrorIs(t, err, context.Canceled)

	d.Run(context.Background())
	d.Close()
}
