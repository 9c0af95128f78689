package jobs

import (
	"context"
	"time"

	"beauty-booking-api/internal/domain/repository"
	"beauty-booking-api/internal/service"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// PaymentReminderJob nudges clients whose deposit is still outstanding.
// Eligible bookings are awaiting deposit, between 2 and 24 hours old and not
// yet reminded. The one-shot flag flip is the send guard: a booking whose
// flag was already flipped by a concurrent run is skipped.
type PaymentReminderJob struct {
	log         *logrus.Logger
	bookingRepo repository.BookingRepository
	notifier    service.Notifier
	interval    time.Duration

	now func() time.Time
}

func NewPaymentReminderJob(log *logrus.Logger, bookingRepo repository.BookingRepository, notifier service.Notifier, interval time.Duration) *PaymentReminderJob {
	return &PaymentReminderJob{
		log:         log,
		bookingRepo: bookingRepo,
		notifier:    notifier,
		interval:    interval,
		now:         time.Now,
	}
}

func (j *PaymentReminderJob) Name() string            { return "payment_reminder" }
func (j *PaymentReminderJob) Interval() time.Duration { return j.interval }

func (j *PaymentReminderJob) Run(ctx context.Context) error {
	now := j.now()
	bookings, err := j.bookingRepo.FindAwaitingDepositCreatedBetween(ctx, now.Add(-24*time.Hour), now.Add(-2*time.Hour), false)
	if err != nil {
		return err
	}

	var errs *multierror.Error
	sent, failed := 0, 0
	for i := range bookings {
		booking := &bookings[i]

		flipped, err := j.bookingRepo.MarkReminderSent(ctx, booking.ID, repository.ReminderFlagPayment)
		if err != nil {
			errs = multierror.Append(errs, err)
			failed++
			continue
		}
		if !flipped {
			continue
		}
		if err := j.notifier.PaymentReminder(ctx, booking); err != nil {
			j.log.Warnf("Payment reminder failed for booking %s: %+v", booking.ID, err)
			errs = multierror.Append(errs, err)
			failed++
			continue
		}
		sent++
	}

	if sent > 0 {
		j.log.Infof("Payment reminders sent: %d", sent)
	}
	reportFailures(j.log, j.Name(), len(bookings), failed)
	return errs.ErrorOrNil()
}
