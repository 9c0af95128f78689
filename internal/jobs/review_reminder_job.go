package jobs

import (
	"context"
	"time"

	"beauty-booking-api/internal/domain/repository"
	"beauty-booking-api/internal/service"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// ReviewReminderJob asks clients of recently completed appointments for a
// review, once, between one and two days after completion.
type ReviewReminderJob struct {
	log         *logrus.Logger
	bookingRepo repository.BookingRepository
	notifier    service.Notifier
	interval    time.Duration

	now func() time.Time
}

func NewReviewReminderJob(log *logrus.Logger, bookingRepo repository.BookingRepository, notifier service.Notifier, interval time.Duration) *ReviewReminderJob {
	return &ReviewReminderJob{
		log:         log,
		bookingRepo: bookingRepo,
		notifier:    notifier,
		interval:    interval,
		now:         time.Now,
	}
}

func (j *ReviewReminderJob) Name() string            { return "review_reminder" }
func (j *ReviewReminderJob) Interval() time.Duration { return j.interval }

func (j *ReviewReminderJob) Run(ctx context.Context) error {
	now := j.now()
	bookings, err := j.bookingRepo.FindCompletedBetween(ctx, now.Add(-48*time.Hour), now.Add(-24*time.Hour), false)
	if err != nil {
		return err
	}

	var errs *multierror.Error
	sent, failed := 0, 0
	for i := range bookings {
		booking := &bookings[i]

		flipped, err := j.bookingRepo.MarkReminderSent(ctx, booking.ID, repository.ReminderFlagReview)
		if err != nil {
			errs = multierror.Append(errs, err)
			failed++
			continue
		}
		if !flipped {
			continue
		}
		if err := j.notifier.ReviewRequest(ctx, booking); err != nil {
			j.log.Warnf("Review reminder failed for booking %s: %+v", booking.ID, err)
			errs = multierror.Append(errs, err)
			failed++
			continue
		}
		sent++
	}

	if sent > 0 {
		j.log.Infof("Review reminders sent: %d", sent)
	}
	reportFailures(j.log, j.Name(), len(bookings), failed)
	return errs.ErrorOrNil()
}
