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

// NoShowDetectionJob sweeps confirmed bookings whose start plus the
// provider's grace period has elapsed without completion and marks them
// no-show. The deposit is forfeited, so the payment status is left alone.
type NoShowDetectionJob struct {
	log          *logrus.Logger
	bookingRepo  repository.BookingRepository
	providerRepo repository.ProviderRepository
	notifier     service.Notifier
	auditService service.AuditService
	interval     time.Duration

	now func() time.Time
}

func NewNoShowDetectionJob(log *logrus.Logger, bookingRepo repository.BookingRepository, providerRepo repository.ProviderRepository, notifier service.Notifier, auditService service.AuditService, interval time.Duration) *NoShowDetectionJob {
	return &NoShowDetectionJob{
		log:          log,
		bookingRepo:  bookingRepo,
		providerRepo: providerRepo,
		notifier:     notifier,
		auditService: auditService,
		interval:     interval,
		now:          time.Now,
	}
}

func (j *NoShowDetectionJob) Name() string            { return "no_show_detection" }
func (j *NoShowDetectionJob) Interval() time.Duration { return j.interval }

func (j *NoShowDetectionJob) Run(ctx context.Context) error {
	bookings, err := j.bookingRepo.FindNoShowCandidates(ctx, j.now())
	if err != nil {
		return err
	}

	var errs *multierror.Error
	marked, failed := 0, 0
	for i := range bookings {
		booking := &bookings[i]

		prevStatus, prevPayment := booking.Status, booking.PaymentStatus
		if err := booking.TransitionStatus(entity.BookingStatusNoShow); err != nil {
			continue
		}

		applied, err := j.bookingRepo.SaveIfStatus(ctx, booking, prevStatus, prevPayment)
		if err != nil {
			errs = multierror.Append(errs, err)
			failed++
			continue
		}
		if !applied {
			continue
		}
		marked++

		itemFailed := false
		if err := j.providerRepo.IncrementNoShowCount(ctx, booking.ProviderID); err != nil {
			j.log.Warnf("Failed to bump no-show count for provider %s: %+v", booking.ProviderID, err)
			errs = multierror.Append(errs, err)
			itemFailed = true
		}
		if err := j.notifier.NoShowRecorded(ctx, booking); err != nil {
			j.log.Warnf("No-show notification failed for booking %s: %+v", booking.ID, err)
			errs = multierror.Append(errs, err)
			itemFailed = true
		}
		if itemFailed {
			failed++
		}
		if err := j.auditService.LogUpdate(ctx, nil, entity.AuditActionBookingNoShow, "booking", booking.ID.String(), prevStatus, booking.Status); err != nil {
			j.log.Warnf("Failed to audit no-show for booking %s: %+v", booking.ID, err)
		}
	}

	if marked > 0 {
		j.log.Infof("Bookings marked no-show: %d", marked)
	}
	reportFailures(j.log, j.Name(), len(bookings), failed)
	return errs.ErrorOrNil()
}
