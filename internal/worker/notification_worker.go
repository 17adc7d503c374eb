package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/amv-gms/grievance-service/internal/events"
	"github.com/amv-gms/grievance-service/internal/service"
)

// NotificationWorker delivers grievance events off the request path.
type NotificationWorker struct {
	dispatcher *events.QueuedDispatcher
	logger     *zap.Logger
}

// StartNotificationWorker registers notification handlers on the queued
// dispatcher and starts delivering. Stop drains pending events.
func StartNotificationWorker(ctx context.Context, dispatcher *events.QueuedDispatcher, notificationService *service.NotificationService, logger *zap.Logger) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &NotificationWorker{dispatcher: dispatcher, logger: logger}
	if dispatcher == nil {
		return w
	}
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	dispatcher.Run(ctx)
	logger.Info("notification worker started")
	return w
}

// Stop closes the dispatcher and waits for queued events to be delivered.
func (w *NotificationWorker) Stop() {
	if w.dispatcher == nil {
		return
	}
	w.dispatcher.Close()
	w.logger.Info("notification worker stopped")
}
