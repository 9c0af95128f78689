package jobs

import (
	"context"
	"time"

	"beauty-booking-api/internal/domain/entity"
	"beauty-booking-api/internal/domain/repository"
	"beauty-booking-api/internal/service"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

const autoCancelReason = "Deposit payment not received within 24 hours"

// AutoCancelUnpaidJob reaps pending bookings whose deposit never arrived
// within 24 hours, freeing their slots. The status-guarded save makes the job
// idempotent: a booking another run (or a webhook) already moved never matches
// again.
type AutoCancelUnpaidJob struct {
	log          *logrus.Logger
	bookingRepo  repository.BookingRepository
	notifier     service.Notifier
	auditService service.AuditService
	interval     time.Duration

	now func() time.Time
}

func NewAutoCancelUnpaidJob(log *logrus.Logger, bookingRepo repository.BookingRepository, notifier service.Notifier, auditService service.AuditService, interval time.Duration) *AutoCancelUnpaidJob {
	return &AutoCancelUnpaidJob{
		log:          log,
		bookingRepo:  bookingRepo,
		notifier:     notifier,
		auditService: auditService,
		interval:     interval,
		now:          time.Now,
	}
}

func (j *AutoCancelUnpaidJob) Name() string            { return "auto_cancel_unpaid" }
func (j *AutoCancelUnpaidJob) Interval() time.Duration { return j.interval }

func (j *AutoCancelUnpaidJob) Run(ctx context.Context) error {
	now := j.now()
	bookings, err := j.bookingRepo.FindUnpaidCreatedBefore(ctx, now.Add(-24*time.Hour))
	if err != nil {
		return err
	}

	var errs *multierror.Error
	cancelled, failed := 0, 0
	for i := range bookings {
		booking := &bookings[i]

		prevStatus, prevPayment := booking.Status, booking.PaymentStatus
		if err := booking.TransitionStatus(entity.BookingStatusCancelledByClient); err != nil {
			// Query raced with another transition; nothing to do.
			continue
		}
		cancelledAt := now
		booking.CancelledAt = &cancelledAt
		booking.CancellationReason = autoCancelReason

		applied, err := j.bookingRepo.SaveIfStatus(ctx, booking, prevStatus, prevPayment)
		if err != nil {
			errs = multierror.Append(errs, err)
			failed++
			continue
		}
		if !applied {
			continue
		}
		cancelled++

		if err := j.notifier.BookingCancelled(ctx, booking, "system"); err != nil {
			j.log.Warnf("Cancellation notification failed for booking %s: %+v", booking.ID, err)
			errs = multierror.Append(errs, err)
			failed++
		}
		if err := j.auditService.LogUpdate(ctx, nil, entity.AuditActionBookingCancel, "booking", booking.ID.String(), prevStatus, booking.Status); err != nil {
			j.log.Warnf("Failed to audit auto-cancel of booking %s: %+v", booking.ID, err)
		}
	}

	if cancelled > 0 {
		j.log.Infof("Unpaid bookings auto-cancelled: %d", cancelled)
	}
	reportFailures(j.log, j.Name(), len(bookings), failed)
	return errs.ErrorOrNil()
}
