package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"beauty-booking-api/internal/converter"
	"beauty-booking-api/internal/delivery/dto"
	"beauty-booking-api/internal/delivery/http/middleware"
	"beauty-booking-api/internal/domain/entity"
	"beauty-booking-api/internal/domain/repository"
	"beauty-booking-api/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrProviderNotFound = errors.New("provider not found")
	ErrServiceNotFound  = errors.New("service not found")
	ErrServiceInactive  = errors.New("service is not active")
)

// slotGranularity is the step between candidate slot starts.
const slotGranularity = 15 * time.Minute

type AvailabilityUsecase interface {
	// ComputeAvailableSlots returns the bookable slots for one provider,
	// service and date, ascending by start, empty when the provider is
	// closed or fully booked that day.
	ComputeAvailableSlots(ctx context.Context, providerID, serviceID uuid.UUID, date string) (*dto.AvailableSlotsResponse, error)
}

type availabilityUsecase struct {
	log              *logrus.Logger
	providerRepo     repository.ProviderRepository
	serviceRepo      repository.ServiceRepository
	availabilityRepo repository.AvailabilityRepository
	conflictService  *service.ConflictService
	slotHoldService  *service.SlotHoldService

	// now is swappable so slot generation is testable against a fixed clock.
	now func() time.Time
}

func NewAvailabilityUsecase(
	log *logrus.Logger,
	providerRepo repository.ProviderRepository,
	serviceRepo repository.ServiceRepository,
	availabilityRepo repository.AvailabilityRepository,
	conflictService *service.ConflictService,
	slotHoldService *service.SlotHoldService,
) AvailabilityUsecase {
	return &availabilityUsecase{
		log:              log,
		providerRepo:     providerRepo,
		serviceRepo:      serviceRepo,
		availabilityRepo: availabilityRepo,
		conflictService:  conflictService,
		slotHoldService:  slotHoldService,
		now:              time.Now,
	}
}

func (u *availabilityUsecase) ComputeAvailableSlots(ctx context.Context, providerID, serviceID uuid.UUID, date string) (*dto.AvailableSlotsResponse, error) {
	provider, err := u.providerRepo.FindByUserID(ctx, providerID)
	if err != nil {
		u.log.Warnf("Failed to find provider %s: %+v", providerID, err)
		return nil, err
	}
	if provider == nil {
		return nil, ErrProviderNotFound
	}

	svc, err := u.serviceRepo.FindByID(ctx, serviceID)
	if err != nil {
		u.log.Warnf("Failed to find service %s: %+v", serviceID, err)
		return nil, err
	}
	if svc == nil || svc.ProviderID != providerID {
		return nil, ErrServiceNotFound
	}
	if svc.IsActive != nil && !*svc.IsActive {
		return nil, ErrServiceInactive
	}
	if svc.DurationMinutes <= 0 {
		return nil, &entity.PolicyViolationError{Reason: "service has no duration"}
	}

	loc, err := time.LoadLocation(provider.Timezone)
	if err != nil {
		return nil, ErrInvalidTimezone
	}

	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}

	now := u.now().In(loc)

	// Dates beyond the provider's advance window are rejected outright, not
	// just returned empty, so the client sees why.
	maxDate := now.AddDate(0, 0, provider.AdvanceBookingDays)
	if day.After(maxDate) {
		return nil, &entity.PolicyViolationError{
			Reason: fmt.Sprintf("date is beyond the %d-day booking window", provider.AdvanceBookingDays),
		}
	}

	slots, err := u.slotsForDay(ctx, provider, svc, day, now, loc)
	if err != nil {
		return nil, err
	}

	return &dto.AvailableSlotsResponse{
		ProviderID: providerID,
		ServiceID:  serviceID,
		Date:       date,
		Timezone:   provider.Timezone,
		Slots:      converter.SlotsToResponses(slots),
	}, nil
}

// slotsForDay walks the weekly template windows for the date and keeps every
// candidate start that clears the advance policy, the shared conflict
// predicate (bookings plus time-off) and other clients' checkout holds.
func (u *availabilityUsecase) slotsForDay(ctx context.Context, provider *entity.Provider, svc *entity.Service, day, now time.Time, loc *time.Location) ([]entity.TimeSlot, error) {
	windows, err := u.availabilityRepo.FindForWeekday(ctx, provider.UserID, int(day.Weekday()))
	if err != nil {
		u.log.Warnf("Failed to load availability for provider %s: %+v", provider.UserID, err)
		return nil, err
	}
	if len(windows) == 0 {
		return []entity.TimeSlot{}, nil
	}

	// One conflict checker per request: the day's bookings and time-off are
	// loaded once, then the same predicate creation uses runs per candidate.
	hasConflict, err := u.conflictService.DayChecker(ctx, provider.UserID, day, loc, nil)
	if err != nil {
		return nil, err
	}

	// Slots another client is mid-checkout on are hidden. When the request
	// is unauthenticated the zero client id hides every held slot.
	clientID, _ := middleware.GetUserIDFromContext(ctx)

	earliest := now.Add(time.Duration(provider.MinAdvanceHours) * time.Hour)
	footprint := svc.SlotLength()

	slots := []entity.TimeSlot{}
	for i := range windows {
		winStart, winEnd, err := windows[i].WindowOn(day, loc)
		if err != nil {
			u.log.Warnf("Skipping malformed availability row %d: %+v", windows[i].ID, err)
			continue
		}

		for start := winStart; !start.Add(footprint).After(winEnd); start = start.Add(slotGranularity) {
			if start.Before(earliest) {
				continue
			}

			serviceEnd := start.Add(svc.Duration())
			if hasConflict(start, serviceEnd) {
				continue
			}
			if u.heldByOther(ctx, provider.UserID, start, clientID) {
				continue
			}

			slots = append(slots, entity.TimeSlot{Start: start, End: serviceEnd})
		}
	}

	return slots, nil
}

// heldByOther hides a slot under another client's checkout hold. Holds are
// advisory, so a Redis outage shows the slot rather than blanking the
// calendar.
func (u *availabilityUsecase) heldByOther(ctx context.Context, providerID uuid.UUID, start time.Time, clientID uuid.UUID) bool {
	held, err := u.slotHoldService.HeldByOther(ctx, providerID, start, clientID)
	if err != nil {
		u.log.Warnf("Slot hold lookup failed for %s at %s: %+v", providerID, start, err)
		return false
	}
	return held
}
