package usecase

import (
	"context"
	"errors"
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
	ErrRescheduleNotFound = errors.New("reschedule request not found")
	ErrRescheduleClosed   = errors.New("reschedule request is no longer open")
	ErrRescheduleExpired  = errors.New("reschedule request has expired")
)

// rescheduleResponseTTL is how long the counterparty has to answer a
// proposal before it lapses. The expiry is capped at the appointment start.
const rescheduleResponseTTL = 24 * time.Hour

type RescheduleUsecase interface {
	ProposeReschedule(ctx context.Context, bookingID uuid.UUID, req *dto.ProposeRescheduleRequest) (*dto.RescheduleResponse, error)
	RespondReschedule(ctx context.Context, requestID uuid.UUID, req *dto.RespondRescheduleRequest) (*dto.RescheduleResponse, error)
}

type rescheduleUsecase struct {
	log              *logrus.Logger
	bookingRepo      repository.BookingRepository
	rescheduleRepo   repository.RescheduleRepository
	availabilityRepo repository.AvailabilityRepository
	conflictService  *service.ConflictService
	notifier         service.Notifier
	auditService     service.AuditService

	now func() time.Time
}

func NewRescheduleUsecase(
	log *logrus.Logger,
	bookingRepo repository.BookingRepository,
	rescheduleRepo repository.RescheduleRepository,
	availabilityRepo repository.AvailabilityRepository,
	conflictService *service.ConflictService,
	notifier service.Notifier,
	auditService service.AuditService,
) RescheduleUsecase {
	return &rescheduleUsecase{
		log:              log,
		bookingRepo:      bookingRepo,
		rescheduleRepo:   rescheduleRepo,
		availabilityRepo: availabilityRepo,
		conflictService:  conflictService,
		notifier:         notifier,
		auditService:     auditService,
		now:              time.Now,
	}
}

// ProposeReschedule opens a reschedule proposal for a confirmed booking.
// A new proposal supersedes any still-open one, so at most one request per
// booking awaits an answer.
func (u *rescheduleUsecase) ProposeReschedule(ctx context.Context, bookingID uuid.UUID, req *dto.ProposeRescheduleRequest) (*dto.RescheduleResponse, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	booking, err := u.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}

	var requestedBy string
	switch userID {
	case booking.ClientID:
		requestedBy = "client"
	case booking.ProviderID:
		requestedBy = "provider"
	default:
		return nil, ErrBookingNotOwned
	}

	if !booking.IsConfirmed() {
		return nil, &entity.InvalidTransitionError{Entity: "booking", From: string(booking.Status), To: string(entity.BookingStatusRescheduled)}
	}
	if booking.RescheduleCount >= booking.Provider.MaxReschedules {
		return nil, &entity.PolicyViolationError{Reason: "maximum number of reschedules reached"}
	}

	loc, err := time.LoadLocation(booking.Provider.Timezone)
	if err != nil {
		return nil, ErrInvalidTimezone
	}
	day, err := time.ParseInLocation("2006-01-02", req.Date, loc)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}
	start, err := entity.AtTimeOfDay(day, req.StartTime, loc)
	if err != nil {
		return nil, ErrInvalidTimeFormat
	}

	// Full schedule validation runs again at approval time; checking here
	// keeps obviously unworkable proposals from reaching the counterparty.
	if err := validateSchedulePolicy(ctx, u.availabilityRepo, u.conflictService, &booking.Provider, &booking.Service, day, start, loc, u.now()); err != nil {
		return nil, err
	}
	serviceEnd := start.Add(booking.Service.Duration())
	conflicted, err := u.conflictService.HasConflict(ctx, booking.ProviderID, start, serviceEnd, loc, &booking.ID)
	if err != nil {
		return nil, err
	}
	if conflicted {
		return nil, entity.ErrSlotUnavailable
	}

	if closed, err := u.rescheduleRepo.SupersedeOpen(ctx, bookingID); err != nil {
		return nil, err
	} else if closed > 0 {
		u.log.Infof("Superseded %d open reschedule request(s) for booking %s", closed, bookingID)
	}

	expiresAt := u.now().Add(rescheduleResponseTTL)
	if expiresAt.After(booking.StartAt) {
		expiresAt = booking.StartAt
	}

	request := &entity.RescheduleRequest{
		BookingID:     bookingID,
		ProposedDate:  day,
		ProposedStart: start,
		RequestedBy:   requestedBy,
		Status:        entity.RescheduleStatusPending,
		ExpiresAt:     expiresAt,
	}
	if err := u.rescheduleRepo.Create(ctx, request); err != nil {
		u.log.Warnf("Failed to create reschedule request: %+v", err)
		return nil, err
	}

	if err := u.notifier.RescheduleProposed(ctx, booking, request); err != nil {
		u.log.Warnf("Failed to send reschedule notification: %+v", err)
	}
	if err := u.auditService.LogCreate(ctx, &userID, entity.AuditActionBookingReschedule, "reschedule_request", request.ID.String(), request); err != nil {
		u.log.Warnf("Failed to audit reschedule proposal: %+v", err)
	}

	u.log.WithFields(logrus.Fields{
		"booking_id":   bookingID,
		"request_id":   request.ID,
		"requested_by": requestedBy,
		"proposed":     start,
	}).Info("reschedule proposed")

	return converter.RescheduleToResponse(request), nil
}

// RespondReschedule lets the counterparty approve or deny an open proposal.
// Approval moves the booking with the successor-record pattern: the original
// flips to rescheduled and a new booking carries the money and payment state
// forward. A slot conflict at approval time fails the request and leaves the
// original booking untouched.
func (u *rescheduleUsecase) RespondReschedule(ctx context.Context, requestID uuid.UUID, req *dto.RespondRescheduleRequest) (*dto.RescheduleResponse, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	request, err := u.rescheduleRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, ErrRescheduleNotFound
	}

	booking, err := u.bookingRepo.FindByID(ctx, request.BookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}

	// Only the side that did not propose may answer.
	switch request.RequestedBy {
	case "client":
		if userID != booking.ProviderID {
			return nil, ErrBookingNotOwned
		}
	case "provider":
		if userID != booking.ClientID {
			return nil, ErrBookingNotOwned
		}
	default:
		return nil, ErrBookingNotOwned
	}

	if !request.Open() {
		return nil, ErrRescheduleClosed
	}
	if request.ExpiredAt(u.now()) {
		request.Status = entity.RescheduleStatusExpired
		if err := u.rescheduleRepo.Update(ctx, request); err != nil {
			u.log.Warnf("Failed to expire reschedule request %s: %+v", request.ID, err)
		}
		return nil, ErrRescheduleExpired
	}

	if !req.Approve {
		request.Status = entity.RescheduleStatusDenied
		if err := u.rescheduleRepo.Update(ctx, request); err != nil {
			return nil, err
		}
		u.log.Infof("Reschedule denied: request=%s booking=%s", request.ID, booking.ID)
		return converter.RescheduleToResponse(request), nil
	}

	return u.approve(ctx, userID, request, booking)
}

func (u *rescheduleUsecase) approve(ctx context.Context, userID uuid.UUID, request *entity.RescheduleRequest, booking *entity.Booking) (*dto.RescheduleResponse, error) {
	if !booking.IsConfirmed() {
		u.markFailed(ctx, request)
		return nil, &entity.InvalidTransitionError{Entity: "booking", From: string(booking.Status), To: string(entity.BookingStatusRescheduled)}
	}

	provider := &booking.Provider
	svc := &booking.Service
	loc, err := time.LoadLocation(provider.Timezone)
	if err != nil {
		return nil, ErrInvalidTimezone
	}

	day := request.ProposedDate
	start := request.ProposedStart
	if err := validateSchedulePolicy(ctx, u.availabilityRepo, u.conflictService, provider, svc, day, start, loc, u.now()); err != nil {
		u.markFailed(ctx, request)
		return nil, err
	}

	successor := &entity.Booking{
		ClientID:          booking.ClientID,
		ProviderID:        booking.ProviderID,
		ServiceID:         booking.ServiceID,
		RescheduledFromID: &booking.ID,
		Date:              day,
		StartAt:           start,
		EndAt:             start.Add(svc.SlotLength()),
		ServiceEnd:        start.Add(svc.Duration()),
		ServicePrice:      booking.ServicePrice,
		DepositAmount:     booking.DepositAmount,
		ServiceFee:        booking.ServiceFee,
		TipAmount:         booking.TipAmount,
		TotalAmount:       booking.TotalAmount,
		Currency:          booking.Currency,
		Status:            entity.BookingStatusConfirmed,
		PaymentStatus:     booking.PaymentStatus,
		TransactionRef:    booking.TransactionRef,
		RescheduleCount:   booking.RescheduleCount + 1,
	}

	oldStart := booking.StartAt
	if err := u.bookingRepo.RescheduleSwap(ctx, booking, successor); err != nil {
		if errors.Is(err, entity.ErrSlotUnavailable) {
			u.markFailed(ctx, request)
			return nil, entity.ErrSlotUnavailable
		}
		u.log.Warnf("Failed reschedule swap for booking %s: %+v", booking.ID, err)
		return nil, err
	}

	request.Status = entity.RescheduleStatusApproved
	if err := u.rescheduleRepo.Update(ctx, request); err != nil {
		u.log.Errorf("Reschedule swap committed but request %s not marked approved: %+v", request.ID, err)
	}

	if err := u.notifier.BookingRescheduled(ctx, booking, successor); err != nil {
		u.log.Warnf("Failed to send reschedule notification: %+v", err)
	}
	if err := u.auditService.LogUpdate(ctx, &userID, entity.AuditActionBookingReschedule, "booking", booking.ID.String(), oldStart, successor.StartAt); err != nil {
		u.log.Warnf("Failed to audit reschedule approval: %+v", err)
	}

	u.log.WithFields(logrus.Fields{
		"request_id":  request.ID,
		"old_booking": booking.ID,
		"new_booking": successor.ID,
		"new_start":   successor.StartAt,
	}).Info("reschedule approved")

	resp := converter.RescheduleToResponse(request)
	resp.NewBooking = converter.BookingToResponse(successor)
	return resp, nil
}

func (u *rescheduleUsecase) markFailed(ctx context.Context, request *entity.RescheduleRequest) {
	request.Status = entity.RescheduleStatusFailed
	if err := u.rescheduleRepo.Update(ctx, request); err != nil {
		u.log.Warnf("Failed to mark reschedule request %s failed: %+v", request.ID, err)
	}
}
