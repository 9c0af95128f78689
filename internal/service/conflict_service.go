package service

import (
	"context"
	"time"

	"beauty-booking-api/internal/domain/entity"
	"beauty-booking-api/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ConflictService is the single authority on whether a candidate interval
// collides with a provider's schedule. The availability calculator and every
// booking write path go through the same predicate, so a slot the calculator
// offers is exactly a slot the detector accepts.
type ConflictService struct {
	bookingRepo repository.BookingRepository
	timeOffRepo repository.TimeOffRepository
	log         *logrus.Logger
}

func NewConflictService(bookingRepo repository.BookingRepository, timeOffRepo repository.TimeOffRepository, log *logrus.Logger) *ConflictService {
	return &ConflictService{
		bookingRepo: bookingRepo,
		timeOffRepo: timeOffRepo,
		log:         log,
	}
}

// DayChecker loads the provider's occupying bookings and time-off entries for
// the candidate's day once and returns the shared predicate over them. The
// availability calculator calls the returned func per candidate slot without
// re-querying. Existing bookings carry their buffer inside the stored
// interval; candidates are service time only. excludeBookingID lets a
// reschedule ignore the booking being moved.
func (s *ConflictService) DayChecker(ctx context.Context, providerID uuid.UUID, day time.Time, loc *time.Location, excludeBookingID *uuid.UUID) (func(start, end time.Time) bool, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)

	occupying, err := s.bookingRepo.ListOccupyingForDay(ctx, providerID, dayStart, dayStart.Add(24*time.Hour), excludeBookingID)
	if err != nil {
		return nil, err
	}
	entries, err := s.timeOffRepo.FindCoveringDate(ctx, providerID, dayStart)
	if err != nil {
		return nil, err
	}

	return func(start, end time.Time) bool {
		for i := range occupying {
			if occupying[i].ConflictsWith(start, end) {
				return true
			}
		}
		for i := range entries {
			blockStart, blockEnd, ok := entries[i].BlockedRangeOn(dayStart, loc)
			if !ok {
				continue
			}
			if entity.RangesOverlap(start, end, blockStart, blockEnd) {
				return true
			}
		}
		return false
	}, nil
}

// HasConflict reports whether the candidate service interval [start, end)
// collides with any occupying booking or time-off block of the provider.
func (s *ConflictService) HasConflict(ctx context.Context, providerID uuid.UUID, start, end time.Time, loc *time.Location, excludeBookingID *uuid.UUID) (bool, error) {
	check, err := s.DayChecker(ctx, providerID, start, loc, excludeBookingID)
	if err != nil {
		return false, err
	}
	return check(start, end), nil
}

// BlockedByTimeOff reports whether [start, end) intersects a time-off entry.
// Schedule policy validation uses this alone: booking conflicts are
// re-checked atomically inside the insert transaction.
func (s *ConflictService) BlockedByTimeOff(ctx context.Context, providerID uuid.UUID, start, end time.Time, loc *time.Location) (bool, error) {
	entries, err := s.timeOffRepo.FindCoveringDate(ctx, providerID, start)
	if err != nil {
		return false, err
	}
	for i := range entries {
		blockStart, blockEnd, ok := entries[i].BlockedRangeOn(start, loc)
		if !ok {
			continue
		}
		if entity.RangesOverlap(start, end, blockStart, blockEnd) {
			return true, nil
		}
	}
	return false, nil
}
