package worker

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/amv-gms/grievance-service/internal/config"
	"github.com/amv-gms/grievance-service/internal/events"
	"github.com/amv-gms/grievance-service/internal/service"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWorkerDeliversWebhooksBeforeStop(t *testing.T) {
	dispatcher := events.NewQueuedDispatcher(8, nil)
	var mu sync.Mutex
	var delivered []string
	notifications := service.NewNotificationService(dispatcher, nil, config.NotificationConfig{WebhookURL: "http://hooks.local/grievance"}).
		WithSender(func(_ context.Context, url string, event events.Event) error {
			mu.Lock()
			defer mu.Unlock()
			delivered = append(delivered, string(event.Type)+":"+event.ReferenceNo)
			return nil
		})

	w := StartNotificationWorker(context.Background(), dispatcher, notifications, nil)
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventGrievanceRegistered, ReferenceNo: "20240115ABCDEF001"}))
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventGrievanceResolved, ReferenceNo: "20240115ABCDEF001"}))
	w.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"grievance_registered:20240115ABCDEF001",
		"grievance_resolved:20240115ABCDEF001",
	}, delivered)
}

func TestWorkerWithoutDispatcherIsNoop(t *testing.T) {
	w := StartNotificationWorker(context.Background(), nil, nil, nil)
	w.Stop()
}
