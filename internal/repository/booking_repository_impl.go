package repository

import (
	"context"
	"errors"
	"time"

	"beauty-booking-api/internal/domain/entity"
	domainRepo "beauty-booking-api/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) domainRepo.BookingRepository {
	return &bookingRepository{db: db}
}

// CreateIfFree serializes writers per provider by locking the provider row,
// then re-checks the shared overlap predicate against committed data before
// inserting. Two concurrent creates for overlapping slots cannot both pass:
// the second writer blocks on the provider lock and sees the first insert.
// A DB exclusion constraint on (provider_id, service time range) is the
// backstop.
func (r *bookingRepository) CreateIfFree(ctx context.Context, booking *entity.Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockProvider(tx, booking.ProviderID); err != nil {
			return err
		}

		occupying, err := occupyingInRange(tx, booking.ProviderID, booking.StartAt, booking.ServiceEnd, nil)
		if err != nil {
			return err
		}
		for i := range occupying {
			if occupying[i].ConflictsWith(booking.StartAt, booking.ServiceEnd) {
				return entity.ErrSlotUnavailable
			}
		}

		return tx.Create(booking).Error
	})
}

func (r *bookingRepository) RescheduleSwap(ctx context.Context, original, successor *entity.Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockProvider(tx, successor.ProviderID); err != nil {
			return err
		}

		occupying, err := occupyingInRange(tx, successor.ProviderID, successor.StartAt, successor.ServiceEnd, &original.ID)
		if err != nil {
			return err
		}
		for i := range occupying {
			if occupying[i].ConflictsWith(successor.StartAt, successor.ServiceEnd) {
				return entity.ErrSlotUnavailable
			}
		}

		// Guarded status flip: if a concurrent writer already moved the
		// original out of confirmed, the whole swap is abandoned.
		res := tx.Model(&entity.Booking{}).
			Where("id = ? AND status = ?", original.ID, entity.BookingStatusConfirmed).
			Update("status", entity.BookingStatusRescheduled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &entity.InvalidTransitionError{
				Entity: "booking",
				From:   string(original.Status),
				To:     string(entity.BookingStatusRescheduled),
			}
		}
		original.Status = entity.BookingStatusRescheduled

		return tx.Create(successor).Error
	})
}

// lockProvider takes the provider row lock, the per-provider mutex for all
// slot-mutating writes.
func lockProvider(tx *gorm.DB, providerID uuid.UUID) error {
	var provider entity.Provider
	return tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", providerID).
		First(&provider).Error
}

// occupyingInRange loads pending/confirmed bookings whose stored interval
// intersects [start, end), optionally excluding one booking id.
func occupyingInRange(tx *gorm.DB, providerID uuid.UUID, start, end time.Time, exclude *uuid.UUID) ([]entity.Booking, error) {
	q := tx.
		Where("provider_id = ? AND status IN ?", providerID,
			[]entity.BookingStatus{entity.BookingStatusPending, entity.BookingStatusConfirmed}).
		Where("start_at < ? AND end_at > ?", end, start)
	if exclude != nil {
		q = q.Where("id != ?", *exclude)
	}

	var bookings []entity.Booking
	if err := q.Order("start_at ASC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	var booking entity.Booking
	err := r.db.WithContext(ctx).
		Preload("Service").Preload("Provider").Preload("Client").
		Where("id = ?", id).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByTransactionRef(ctx context.Context, ref string) (*entity.Booking, error) {
	var booking entity.Booking
	err := r.db.WithContext(ctx).
		Preload("Service").Preload("Provider").
		Where("transaction_ref = ?", ref).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByClientID(ctx context.Context, clientID uuid.UUID, filter *entity.BookingFilter) ([]entity.Booking, error) {
	q := r.db.WithContext(ctx).Where("client_id = ?", clientID)
	q = applyBookingFilter(q, filter)

	var bookings []entity.Booking
	err := q.Preload("Service").Preload("Provider").
		Order("start_at DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) FindByProviderID(ctx context.Context, providerID uuid.UUID, filter *entity.BookingFilter) ([]entity.Booking, error) {
	q := r.db.WithContext(ctx).Where("provider_id = ?", providerID)
	q = applyBookingFilter(q, filter)

	var bookings []entity.Booking
	err := q.Preload("Service").Preload("Client").
		Order("start_at ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func applyBookingFilter(q *gorm.DB, filter *entity.BookingFilter) *gorm.DB {
	if filter == nil {
		return q
	}
	if filter.FromDate != "" {
		q = q.Where("date >= ?", filter.FromDate)
	}
	if filter.ToDate != "" {
		q = q.Where("date <= ?", filter.ToDate)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Upcoming {
		q = q.Where("start_at > NOW()")
	}
	return q
}

func (r *bookingRepository) ListOccupyingForDay(ctx context.Context, providerID uuid.UUID, dayStart, dayEnd time.Time, excludeBookingID *uuid.UUID) ([]entity.Booking, error) {
	return occupyingInRange(r.db.WithContext(ctx), providerID, dayStart, dayEnd, excludeBookingID)
}

func (r *bookingRepository) Update(ctx context.Context, booking *entity.Booking) error {
	return r.db.WithContext(ctx).
		Omit("Client", "Provider", "Service").
		Save(booking).Error
}

func (r *bookingRepository) SaveIfStatus(ctx context.Context, booking *entity.Booking, expectStatus entity.BookingStatus, expectPayment entity.PaymentStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&entity.Booking{}).
		Where("id = ? AND status = ? AND payment_status = ?", booking.ID, expectStatus, expectPayment).
		Omit("Client", "Provider", "Service").
		Select("*").
		Updates(booking)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkReminderSent flips a one-shot flag atomically. RowsAffected 0 means the
// flag was already set, so the caller must not send again.
func (r *bookingRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, flag domainRepo.ReminderFlag) (bool, error) {
	res := r.db.WithContext(ctx).Model(&entity.Booking{}).
		Where("id = ? AND "+string(flag)+" = ?", id, false).
		Update(string(flag), true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *bookingRepository) FindAwaitingDepositCreatedBetween(ctx context.Context, from, to time.Time, reminderSent bool) ([]entity.Booking, error) {
	var bookings []entity.Booking
	err := r.db.WithContext(ctx).
		Where("payment_status = ? AND status = ?", entity.PaymentStatusAwaitingDeposit, entity.BookingStatusPending).
		Where("created_at >= ? AND created_at <= ?", from, to).
		Where("payment_reminder_sent = ?", reminderSent).
		Preload("Service").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) FindUnpaidCreatedBefore(ctx context.Context, cutoff time.Time) ([]entity.Booking, error) {
	var bookings []entity.Booking
	err := r.db.WithContext(ctx).
		Where("payment_status = ? AND status = ?", entity.PaymentStatusAwaitingDeposit, entity.BookingStatusPending).
		Where("created_at <= ?", cutoff).
		Preload("Service").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) FindUpcomingStartingBetween(ctx context.Context, from, to time.Time, reminderSent bool) ([]entity.Booking, error) {
	var bookings []entity.Booking
	err := r.db.WithContext(ctx).
		Where("status IN ?", []entity.BookingStatus{entity.BookingStatusPending, entity.BookingStatusConfirmed}).
		Where("start_at >= ? AND start_at <= ?", from, to).
		Where("reminder_sent = ?", reminderSent).
		Preload("Service").Preload("Provider").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// FindNoShowCandidates selects confirmed bookings whose start plus the
// provider's grace period has elapsed. The grace period lives on the provider
// row, so the cutoff is computed in SQL.
func (r *bookingRepository) FindNoShowCandidates(ctx context.Context, now time.Time) ([]entity.Booking, error) {
	var bookings []entity.Booking
	err := r.db.WithContext(ctx).
		Joins("JOIN providers ON providers.user_id = bookings.provider_id").
		Where("bookings.status = ?", entity.BookingStatusConfirmed).
		Where("bookings.start_at + (providers.no_show_grace_minutes * INTERVAL '1 minute') <= ?", now).
		Preload("Provider").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) FindCompletedBetween(ctx context.Context, from, to time.Time, reviewSent bool) ([]entity.Booking, error) {
	var bookings []entity.Booking
	err := r.db.WithContext(ctx).
		Where("status = ?", entity.BookingStatusCompleted).
		Where("completed_at >= ? AND completed_at <= ?", from, to).
		Where("review_reminder_sent = ?", reviewSent).
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}
