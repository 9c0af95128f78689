package jobs

import (
	"context"
	"time"

	"beauty-booking-api/internal/domain/repository"
	"beauty-booking-api/internal/service"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// AppointmentReminderJob sends the single 24-hour reminder for upcoming
// appointments. It selects bookings starting 23 to 24 hours out so an hourly
// cadence covers every booking exactly once; the flag flip dedupes overlap.
type AppointmentReminderJob struct {
	log         *logrus.Logger
	bookingRepo repository.BookingRepository
	notifier    service.Notifier
	interval    time.Duration

	now func() time.Time
}

func NewAppointmentReminderJob(log *logrus.Logger, bookingRepo repository.BookingRepository, notifier service.Notifier, interval time.Duration) *AppointmentReminderJob {
	return &AppointmentReminderJob{
		log:         log,
		bookingRepo: bookingRepo,
		notifier:    notifier,
		interval:    interval,
		now:         time.Now,
	}
}

func (j *AppointmentReminderJob) Name() string            { return "appointment_reminder" }
func (j *AppointmentReminderJob) Interval() time.Duration { return j.interval }

func (j *AppointmentReminderJob) Run(ctx context.Context) error {
	now := j.now()
	bookings, err := j.bookingRepo.FindUpcomingStartingBetween(ctx, now.Add(23*time.Hour), now.Add(24*time.Hour), false)
	if err != nil {
		return err
	}

	var errs *multierror.Error
	sent, failed := 0, 0
	for i := range bookings {
		booking := &bookings[i]

		flipped, err := j.bookingRepo.MarkReminderSent(ctx, booking.ID, repository.ReminderFlagAppointment)
		if err != nil {
			errs = multierror.Append(errs, err)
			failed++
			continue
		}
		if !flipped {
			continue
		}
		if err := j.notifier.AppointmentReminder(ctx, booking); err != nil {
			j.log.Warnf("Appointment reminder failed for booking %s: %+v", booking.ID, err)
			errs = multierror.Append(errs, err)
			failed++
			continue
		}
		sent++
	}

	if sent > 0 {
		j.log.Infof("Appointment reminders sent: %d", sent)
	}
	reportFailures(j.log, j.Name(), len(bookings), failed)
	return errs.ErrorOrNil()
}
