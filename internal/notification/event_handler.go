package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BollineniRohith123/nibog-platform/internal/core/events"
	"github.com/BollineniRohith123/nibog-platform/internal/registration"
)

// RegistrationLookup resolves the parent's contact details for an email.
type RegistrationLookup interface {
	GetRegistration(id int64) (*registration.RegistrationDTO, error)
}

// EventHandler turns payment lifecycle events into parent emails. Email
// failures are logged and swallowed: notifications never affect the payment
// flow that published the event.
type EventHandler struct {
	mailer        *Mailer
	registrations RegistrationLookup
	logger        *slog.Logger
}

func NewEventHandler(mailer *Mailer, registrations RegistrationLookup, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		mailer:        mailer,
		registrations: registrations,
		logger:        logger,
	}
}

func (h *EventHandler) HandlePaymentCompleted(ctx context.Context, event events.Event) error {
	completed, ok := event.(*events.PaymentCompletedEvent)
	if !ok {
		h.logger.Error("invalid event type for payment completed handler", "event_type", event.EventType())
		return fmt.Errorf("expected PaymentCompletedEvent, got %T", event)
	}

	reg, err := h.registrations.GetRegistration(completed.RegistrationID)
	if err != nil {
		h.logger.Error("cannot email confirmation, registration lookup failed",
			"registration_id", completed.RegistrationID,
			"error", err)
		return nil
	}

	if err := h.mailer.SendPaymentConfirmation(reg.ParentEmail, reg.ParentName, reg.ID, completed.AmountPaise); err != nil {
		h.logger.Error("failed to send confirmation email",
			"registration_id", reg.ID,
			"error", err)
	}
	return nil
}

func (h *EventHandler) HandlePaymentFailed(ctx context.Context, event events.Event) error {
	failed, ok := event.(*events.PaymentFailedEvent)
	if !ok {
		h.logger.Error("invalid event type for payment failed handler", "event_type", event.EventType())
		return fmt.Errorf("expected PaymentFailedEvent, got %T", event)
	}

	reg, err := h.registrations.GetRegistration(failed.RegistrationID)
	if err != nil {
		h.logger.Error("cannot email failure notice, registration lookup failed",
			"registration_id", failed.RegistrationID,
			"error", err)
		return nil
	}

	if err := h.mailer.SendPaymentFailed(reg.ParentEmail, reg.ParentName, reg.ID); err != nil {
		h.logger.Error("failed to send failure email",
			"registration_id", reg.ID,
			"error", err)
	}
	return nil
}

func (h *EventHandler) HandlePaymentRefunded(ctx context.Context, event events.Event) error {
	refunded, ok := event.(*events.PaymentRefundedEvent)
	if !ok {
		h.logger.Error("invalid event type for payment refunded handler", "event_type", event.EventType())
		return fmt.Errorf("expected PaymentRefundedEvent, got %T", event)
	}

	reg, err := h.registrations.GetRegistration(refunded.RegistrationID)
	if err != nil {
		h.logger.Error("cannot email refund notice, registration lookup failed",
			"registration_id", refunded.RegistrationID,
			"error", err)
		return nil
	}

	if err := h.mailer.SendRefundNotice(reg.ParentEmail, reg.ParentName, reg.ID, refunded.AmountPaise); err != nil {
		h.logger.Error("failed to send refund email",
			"registration_id", reg.ID,
			"error", err)
	}
	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypePaymentCompleted, h.HandlePaymentCompleted)
	eventBus.Subscribe(events.EventTypePaymentFailed, h.HandlePaymentFailed)
	eventBus.Subscribe(events.EventTypePaymentRefunded, h.HandlePaymentRefunded)

	h.logger.Info("notification event handlers registered",
		"handlers", []string{
			events.EventTypePaymentCompleted,
			events.EventTypePaymentFailed,
			events.EventTypePaymentRefunded,
		})
}
