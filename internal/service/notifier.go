package service

import (
	"context"

	"beauty-booking-api/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Notifier delivers booking lifecycle messages to clients and providers.
// Delivery is best-effort: callers log failures and continue, a lost
// notification never rolls back a booking transition.
type Notifier interface {
	BookingCreated(ctx context.Context, booking *entity.Booking) error
	BookingConfirmed(ctx context.Context, booking *entity.Booking) error
	BookingCancelled(ctx context.Context, booking *entity.Booking, by string) error
	BookingRescheduled(ctx context.Context, old, new *entity.Booking) error
	PaymentReminder(ctx context.Context, booking *entity.Booking) error
	AppointmentReminder(ctx context.Context, booking *entity.Booking) error
	ReviewRequest(ctx context.Context, booking *entity.Booking) error
	RescheduleProposed(ctx context.Context, booking *entity.Booking, req *entity.RescheduleRequest) error
	NoShowRecorded(ctx context.Context, booking *entity.Booking) error
}

// RealtimeEmitter pushes an event to a connected user, if any. Satisfied by
// the websocket hub; a nil-safe no-op keeps tests simple.
type RealtimeEmitter interface {
	Emit(userID uuid.UUID, event string, payload any)
}

// logNotifier writes every notification to the structured log and mirrors it
// onto the realtime channel. Stands in for the email/SMS integration, which
// plugs in behind the same interface.
type logNotifier struct {
	log      *logrus.Logger
	realtime RealtimeEmitter
}

func NewLogNotifier(log *logrus.Logger, realtime RealtimeEmitter) Notifier {
	return &logNotifier{log: log, realtime: realtime}
}

func (n *logNotifier) BookingCreated(ctx context.Context, booking *entity.Booking) error {
	n.send(booking.ClientID, "booking.created", booking)
	n.send(booking.ProviderID, "booking.created", booking)
	return nil
}

func (n *logNotifier) BookingConfirmed(ctx context.Context, booking *entity.Booking) error {
	n.send(booking.ClientID, "booking.confirmed", booking)
	n.send(booking.ProviderID, "booking.confirmed", booking)
	return nil
}

func (n *logNotifier) BookingCancelled(ctx context.Context, booking *entity.Booking, by string) error {
	n.log.WithFields(logrus.Fields{
		"booking_id":   booking.ID,
		"cancelled_by": by,
	}).Info("notify: booking cancelled")
	n.send(booking.ClientID, "booking.cancelled", booking)
	n.send(booking.ProviderID, "booking.cancelled", booking)
	return nil
}

func (n *logNotifier) BookingRescheduled(ctx context.Context, old, new *entity.Booking) error {
	payload := map[string]any{"from": old, "to": new}
	n.send(new.ClientID, "booking.rescheduled", payload)
	n.send(new.ProviderID, "booking.rescheduled", payload)
	return nil
}

func (n *logNotifier) PaymentReminder(ctx context.Context, booking *entity.Booking) error {
	n.send(booking.ClientID, "payment.reminder", booking)
	return nil
}

func (n *logNotifier) AppointmentReminder(ctx context.Context, booking *entity.Booking) error {
	n.send(booking.ClientID, "booking.reminder", booking)
	n.send(booking.ProviderID, "booking.reminder", booking)
	return nil
}

func (n *logNotifier) ReviewRequest(ctx context.Context, booking *entity.Booking) error {
	n.send(booking.ClientID, "booking.review_request", booking)
	return nil
}

func (n *logNotifier) RescheduleProposed(ctx context.Context, booking *entity.Booking, req *entity.RescheduleRequest) error {
	// The side that did NOT propose gets asked to respond.
	target := booking.ProviderID
	if req.RequestedBy == "provider" {
		target = booking.ClientID
	}
	n.send(target, "booking.reschedule_proposed", req)
	return nil
}

func (n *logNotifier) NoShowRecorded(ctx context.Context, booking *entity.Booking) error {
	n.send(booking.ClientID, "booking.no_show", booking)
	n.send(booking.ProviderID, "booking.no_show", booking)
	return nil
}

func (n *logNotifier) send(userID uuid.UUID, event string, payload any) {
	n.log.WithFields(logrus.Fields{
		"user_id": userID,
		"event":   event,
	}).Info("notification sent")

	if n.realtime != nil {
		n.realtime.Emit(userID, event, payload)
	}
}
