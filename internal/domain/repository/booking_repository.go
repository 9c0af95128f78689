package repository

import (
	"context"
	"time"

	"beauty-booking-api/internal/domain/entity"

	"github.com/google/uuid"
)

// ReminderFlag names a one-shot notification flag on a booking.
type ReminderFlag string

const (
	ReminderFlagPayment     ReminderFlag = "payment_reminder_sent"
	ReminderFlagAppointment ReminderFlag = "reminder_sent"
	ReminderFlagReview      ReminderFlag = "review_reminder_sent"
)

type BookingRepository interface {
	// CreateIfFree runs the conflict check and the insert as one atomic unit:
	// inside a transaction it takes the provider's row lock, re-applies the
	// shared overlap predicate against the candidate's service interval
	// [StartAt, ServiceEnd), and inserts only if no collision remains.
	// Existing bookings carry their buffer inside the stored interval, the
	// candidate does not. Returns entity.ErrSlotUnavailable when a
	// concurrent writer won.
	CreateIfFree(ctx context.Context, booking *entity.Booking) error

	// RescheduleSwap atomically verifies the successor's slot (ignoring the
	// original booking), inserts the successor and marks the original row
	// rescheduled. Returns entity.ErrSlotUnavailable on collision, leaving
	// both rows untouched.
	RescheduleSwap(ctx context.Context, original, successor *entity.Booking) error

	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByTransactionRef(ctx context.Context, ref string) (*entity.Booking, error)
	FindByClientID(ctx context.Context, clientID uuid.UUID, filter *entity.BookingFilter) ([]entity.Booking, error)
	FindByProviderID(ctx context.Context, providerID uuid.UUID, filter *entity.BookingFilter) ([]entity.Booking, error)

	// ListOccupyingForDay returns the provider's pending/confirmed bookings
	// whose stored interval intersects [dayStart, dayEnd). The optional
	// exclude id lets a reschedule ignore the booking being moved.
	ListOccupyingForDay(ctx context.Context, providerID uuid.UUID, dayStart, dayEnd time.Time, excludeBookingID *uuid.UUID) ([]entity.Booking, error)

	Update(ctx context.Context, booking *entity.Booking) error

	// SaveIfStatus persists the booking only if the stored row still carries
	// the expected statuses. Returns false when a concurrent writer moved the
	// row first (caller treats this as a lost race, not corruption).
	SaveIfStatus(ctx context.Context, booking *entity.Booking, expectStatus entity.BookingStatus, expectPayment entity.PaymentStatus) (bool, error)

	// MarkReminderSent flips a one-shot flag false -> true. Returns false if
	// the flag was already set, so overlapping job runs cannot double-send.
	MarkReminderSent(ctx context.Context, id uuid.UUID, flag ReminderFlag) (bool, error)

	// Batch selections for the reconciliation jobs.
	FindAwaitingDepositCreatedBetween(ctx context.Context, from, to time.Time, reminderSent bool) ([]entity.Booking, error)
	FindUnpaidCreatedBefore(ctx context.Context, cutoff time.Time) ([]entity.Booking, error)
	FindUpcomingStartingBetween(ctx context.Context, from, to time.Time, reminderSent bool) ([]entity.Booking, error)
	FindNoShowCandidates(ctx context.Context, now time.Time) ([]entity.Booking, error)
	FindCompletedBetween(ctx context.Context, from, to time.Time, reviewSent bool) ([]entity.Booking, error)
}
