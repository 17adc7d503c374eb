package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/amv-gms/grievance-service/internal/config"
	"github.com/amv-gms/grievance-service/internal/events"
)

const webhookTimeout = 5 * time.Second

// WebhookSender posts an event body to url.
type WebhookSender func(ctx context.Context, url string, event events.Event) error

// NotificationService handles emitting notifications for grievance events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	send       WebhookSender
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		send:       postWebhook,
	}
}

// WithSender replaces the webhook transport.
func (n *NotificationService) WithSender(send WebhookSender) *NotificationService {
	if send != nil {
		n.send = send
	}
	return n
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventGrievanceRegistered, n.handleGrievanceRegistered)
	n.dispatcher.Subscribe(events.EventGrievanceAssigned, n.handleGrievanceAssigned)
	n.dispatcher.Subscribe(events.EventGrievanceResolved, n.handleGrievanceResolved)
}

func (n *NotificationService) handleGrievanceRegistered(ctx context.Context, event events.Event) error {
	n.logger.Info("GrievanceRegistered", zap.String("reference_no", event.ReferenceNo), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return n.sendWebhook(ctx, event)
}

func (n *NotificationService) handleGrievanceAssigned(ctx context.Context, event events.Event) error {
	n.logger.Info("GrievanceAssigned", zap.String("reference_no", event.ReferenceNo), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return n.sendWebhook(ctx, event)
}

func (n *NotificationService) handleGrievanceResolved(ctx context.Context, event events.Event) error {
	n.logger.Info("GrievanceResolved", zap.String("reference_no", event.ReferenceNo), zap.Any("payload", event.Payload))
	return n.sendWebhook(ctx, event)
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("reference_no", event.ReferenceNo),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhook(ctx context.Context, event events.Event) error {
	url := strings.TrimSpace(n.cfg.WebhookURL)
	if url == "" {
		return nil
	}
	if err := n.send(ctx, url, event); err != nil {
		return fmt.Errorf("webhook %s: %w", event.Type, err)
	}
	n.logger.Debug("webhook delivered",
		zap.String("reference_no", event.ReferenceNo),
		zap.String("event_type", string(event.Type)))
	return nil
}

func postWebhook(ctx context.Context, url string, event events.Event) error {
	timeout := webhookTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	agent := fiber.Post(url).JSON(event).Timeout(timeout)
	status, _, errs := agent.Bytes()
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if status >= fiber.StatusBadRequest {
		return fmt.Errorf("unexpected status %d", status)
	}
	return nil
}
