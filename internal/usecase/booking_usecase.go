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
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrBookingNotFound  = errors.New("booking not found")
	ErrBookingNotOwned  = errors.New("booking does not belong to you")
	ErrBookingModified  = errors.New("booking was modified concurrently, reload and retry")
	ErrNotAuthenticated = errors.New("user not found in context")
)

type BookingUsecase interface {
	CreateBooking(ctx context.Context, req *dto.CreateBookingRequest) (*dto.CreateBookingResponse, error)
	GetBooking(ctx context.Context, bookingID uuid.UUID) (*dto.BookingResponse, error)
	GetMyBookings(ctx context.Context, filter *entity.BookingFilter) (*dto.BookingListResponse, error)
	GetProviderBookings(ctx context.Context, filter *entity.BookingFilter) (*dto.BookingListResponse, error)
	ConfirmBooking(ctx context.Context, bookingID uuid.UUID) (*dto.BookingResponse, error)
	CancelBooking(ctx context.Context, bookingID uuid.UUID, req *dto.CancelBookingRequest) (*dto.CancelBookingResponse, error)
	CompleteBooking(ctx context.Context, bookingID uuid.UUID) (*dto.BookingResponse, error)
	MarkNoShow(ctx context.Context, bookingID uuid.UUID) (*dto.BookingResponse, error)
	ReportProviderNoShow(ctx context.Context, bookingID uuid.UUID) (*dto.BookingResponse, error)
}

type bookingUsecase struct {
	log               *logrus.Logger
	bookingRepo       repository.BookingRepository
	providerRepo      repository.ProviderRepository
	serviceRepo       repository.ServiceRepository
	availabilityRepo  repository.AvailabilityRepository
	conflictService   *service.ConflictService
	slotHoldService   *service.SlotHoldService
	paymentGateway    service.PaymentGateway
	notifier          service.Notifier
	auditService      service.AuditService
	serviceFeePercent decimal.Decimal

	now func() time.Time
}

func NewBookingUsecase(
	log *logrus.Logger,
	bookingRepo repository.BookingRepository,
	providerRepo repository.ProviderRepository,
	serviceRepo repository.ServiceRepository,
	availabilityRepo repository.AvailabilityRepository,
	conflictService *service.ConflictService,
	slotHoldService *service.SlotHoldService,
	paymentGateway service.PaymentGateway,
	notifier service.Notifier,
	auditService service.AuditService,
	serviceFeePercent decimal.Decimal,
) BookingUsecase {
	return &bookingUsecase{
		log:               log,
		bookingRepo:       bookingRepo,
		providerRepo:      providerRepo,
		serviceRepo:       serviceRepo,
		availabilityRepo:  availabilityRepo,
		conflictService:   conflictService,
		slotHoldService:   slotHoldService,
		paymentGateway:    paymentGateway,
		notifier:          notifier,
		auditService:      auditService,
		serviceFeePercent: serviceFeePercent,
		now:               time.Now,
	}
}

// CreateBooking reserves a slot for the logged-in client.
//
// Flow:
// 1. Validate service, provider and the advance-window policy
// 2. Validate the slot lies inside the weekly template and outside time-off
// 3. Take a short Redis hold on the slot for the checkout window
// 4. Atomic conflict-check-and-insert (DB is authoritative)
// 5. Open the deposit charge with the payment gateway
func (u *bookingUsecase) CreateBooking(ctx context.Context, req *dto.CreateBookingRequest) (*dto.CreateBookingResponse, error) {
	clientID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	provider, err := u.providerRepo.FindByUserID(ctx, req.ProviderID)
	if err != nil {
		u.log.Warnf("Failed to find provider %s: %+v", req.ProviderID, err)
		return nil, err
	}
	if provider == nil {
		return nil, ErrProviderNotFound
	}

	svc, err := u.serviceRepo.FindByID(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if svc == nil || svc.ProviderID != req.ProviderID {
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

	day, err := time.ParseInLocation("2006-01-02", req.Date, loc)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}
	start, err := entity.AtTimeOfDay(day, req.StartTime, loc)
	if err != nil {
		return nil, ErrInvalidTimeFormat
	}

	serviceEnd := start.Add(svc.Duration())
	endAt := start.Add(svc.SlotLength())

	if err := validateSchedulePolicy(ctx, u.availabilityRepo, u.conflictService, provider, svc, day, start, loc, u.now()); err != nil {
		return nil, err
	}

	// Checkout hold: fail fast when another client is mid-checkout on the
	// same slot. Redis being down only widens the race window the DB check
	// closes, so infra errors are logged and ignored.
	if err := u.slotHoldService.AcquireHold(ctx, provider.UserID, start, clientID); err != nil {
		if errors.Is(err, service.ErrSlotHeld) {
			return nil, entity.ErrSlotUnavailable
		}
		u.log.Warnf("Slot hold unavailable, relying on DB conflict check: %+v", err)
	}

	serviceFee := svc.Price.Mul(u.serviceFeePercent).Div(decimal.NewFromInt(100)).Round(2)

	booking := &entity.Booking{
		ClientID:      clientID,
		ProviderID:    provider.UserID,
		ServiceID:     svc.ID,
		Date:          day,
		StartAt:       start,
		EndAt:         endAt,
		ServiceEnd:    serviceEnd,
		ServicePrice:  svc.Price,
		DepositAmount: svc.Deposit(),
		ServiceFee:    serviceFee,
		TipAmount:     decimal.Zero,
		TotalAmount:   svc.Price.Add(serviceFee),
		Currency:      provider.Currency,
		Status:        entity.BookingStatusPending,
		PaymentStatus: entity.PaymentStatusAwaitingDeposit,
	}

	if err := u.bookingRepo.CreateIfFree(ctx, booking); err != nil {
		u.releaseHold(provider.UserID, start, clientID)
		if errors.Is(err, entity.ErrSlotUnavailable) {
			return nil, entity.ErrSlotUnavailable
		}
		u.log.Warnf("Failed to create booking: %+v", err)
		return nil, err
	}
	u.releaseHold(provider.UserID, start, clientID)

	// Best-effort charge: a gateway outage leaves the booking awaiting
	// deposit with no transaction ref; InitializePayment retries, and the
	// auto-cancel job reaps it if the client never pays.
	checkoutURL := ""
	charge, err := u.paymentGateway.CreateCharge(ctx, service.ChargeRequest{
		BookingID: booking.ID,
		Amount:    booking.DepositAmount,
		Currency:  booking.Currency,
	})
	if err != nil {
		u.log.Errorf("Failed to open deposit charge for booking %s: %+v", booking.ID, err)
	} else {
		booking.TransactionRef = charge.TransactionRef
		checkoutURL = charge.CheckoutURL
		if err := u.bookingRepo.Update(ctx, booking); err != nil {
			u.log.Errorf("Failed to store transaction ref for booking %s: %+v", booking.ID, err)
		}
	}

	if err := u.notifier.BookingCreated(ctx, booking); err != nil {
		u.log.Warnf("Failed to send booking-created notification: %+v", err)
	}
	if err := u.auditService.LogCreate(ctx, &clientID, entity.AuditActionBookingCreate, "booking", booking.ID.String(), booking); err != nil {
		u.log.Warnf("Failed to audit booking creation: %+v", err)
	}

	u.log.WithFields(logrus.Fields{
		"booking_id":  booking.ID,
		"provider_id": provider.UserID,
		"start_at":    start,
	}).Info("booking created")

	full, err := u.bookingRepo.FindByID(ctx, booking.ID)
	if err != nil || full == nil {
		full = booking
	}
	return &dto.CreateBookingResponse{
		Booking:     *converter.BookingToResponse(full),
		CheckoutURL: checkoutURL,
	}, nil
}

// validateSchedulePolicy enforces the advance windows and verifies the slot
// sits inside an active template window and outside time-off. Booking
// conflicts are checked separately inside the atomic insert. Shared by
// booking creation and reschedule approval.
func validateSchedulePolicy(ctx context.Context, availabilityRepo repository.AvailabilityRepository, conflictService *service.ConflictService, provider *entity.Provider, svc *entity.Service, day, start time.Time, loc *time.Location, at time.Time) error {
	now := at.In(loc)

	if start.Before(now.Add(time.Duration(provider.MinAdvanceHours) * time.Hour)) {
		return &entity.PolicyViolationError{Reason: "slot starts inside the minimum advance window"}
	}
	if day.After(now.AddDate(0, 0, provider.AdvanceBookingDays)) {
		return &entity.PolicyViolationError{Reason: "date is beyond the advance booking window"}
	}

	windows, err := availabilityRepo.FindForWeekday(ctx, provider.UserID, int(day.Weekday()))
	if err != nil {
		return err
	}
	inside := false
	for i := range windows {
		winStart, winEnd, err := windows[i].WindowOn(day, loc)
		if err != nil {
			continue
		}
		if !start.Before(winStart) && !start.Add(svc.SlotLength()).After(winEnd) {
			inside = true
			break
		}
	}
	if !inside {
		return &entity.PolicyViolationError{Reason: "slot is outside the provider's working hours"}
	}

	blocked, err := conflictService.BlockedByTimeOff(ctx, provider.UserID, start, start.Add(svc.Duration()), loc)
	if err != nil {
		return err
	}
	if blocked {
		return entity.ErrSlotUnavailable
	}
	return nil
}

func (u *bookingUsecase) releaseHold(providerID uuid.UUID, start time.Time, clientID uuid.UUID) {
	holdCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := u.slotHoldService.ReleaseHold(holdCtx, providerID, start, clientID); err != nil {
		u.log.Warnf("Failed to release slot hold (non-fatal): %+v", err)
	}
}

func (u *bookingUsecase) GetBooking(ctx context.Context, bookingID uuid.UUID) (*dto.BookingResponse, error) {
	booking, err := u.loadVisibleBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return converter.BookingToResponse(booking), nil
}

func (u *bookingUsecase) GetMyBookings(ctx context.Context, filter *entity.BookingFilter) (*dto.BookingListResponse, error) {
	clientID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	bookings, err := u.bookingRepo.FindByClientID(ctx, clientID, filter)
	if err != nil {
		u.log.Warnf("Failed to list bookings for client %s: %+v", clientID, err)
		return nil, err
	}
	return &dto.BookingListResponse{
		Bookings: converter.BookingsToResponses(bookings),
		Total:    len(bookings),
	}, nil
}

func (u *bookingUsecase) GetProviderBookings(ctx context.Context, filter *entity.BookingFilter) (*dto.BookingListResponse, error) {
	providerID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	bookings, err := u.bookingRepo.FindByProviderID(ctx, providerID, filter)
	if err != nil {
		u.log.Warnf("Failed to list bookings for provider %s: %+v", providerID, err)
		return nil, err
	}
	return &dto.BookingListResponse{
		Bookings: converter.BookingsToResponses(bookings),
		Total:    len(bookings),
	}, nil
}

// ConfirmBooking is the provider's manual acceptance of a pending booking.
// Requires at least the deposit to be paid.
func (u *bookingUsecase) ConfirmBooking(ctx context.Context, bookingID uuid.UUID) (*dto.BookingResponse, error) {
	providerID, ok := middleware.GetUserIDFromContext(ctx)
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
	if booking.ProviderID != providerID {
		return nil, ErrBookingNotOwned
	}

	if booking.PaymentStatus != entity.PaymentStatusDepositPaid && booking.PaymentStatus != entity.PaymentStatusFullyPaid {
		return nil, entity.ErrPaymentRequired
	}

	prevStatus, prevPayment := booking.Status, booking.PaymentStatus
	if err := booking.TransitionStatus(entity.BookingStatusConfirmed); err != nil {
		return nil, err
	}

	applied, err := u.bookingRepo.SaveIfStatus(ctx, booking, prevStatus, prevPayment)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrBookingModified
	}

	if err := u.notifier.BookingConfirmed(ctx, booking); err != nil {
		u.log.Warnf("Failed to send confirmation notification: %+v", err)
	}
	if err := u.auditService.LogUpdate(ctx, &providerID, entity.AuditActionBookingConfirm, "booking", booking.ID.String(), prevStatus, booking.Status); err != nil {
		u.log.Warnf("Failed to audit booking confirmation: %+v", err)
	}

	u.log.Infof("Booking confirmed: id=%s", booking.ID)
	return converter.BookingToResponse(booking), nil
}

// CancelBooking cancels from either side. Client cancellations inside the
// provider's window pay the policy fee; provider cancellations always refund
// in full, whatever the timing.
func (u *bookingUsecase) CancelBooking(ctx context.Context, bookingID uuid.UUID, req *dto.CancelBookingRequest) (*dto.CancelBookingResponse, error) {
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

	var toStatus entity.BookingStatus
	byClient := false
	switch userID {
	case booking.ClientID:
		toStatus = entity.BookingStatusCancelledByClient
		byClient = true
	case booking.ProviderID:
		toStatus = entity.BookingStatusCancelledByProvider
	default:
		return nil, ErrBookingNotOwned
	}

	paid := booking.AmountPaid()
	fee := decimal.Zero
	if byClient && paid.IsPositive() {
		windowStart := booking.StartAt.Add(-time.Duration(booking.Provider.CancellationWindowHours) * time.Hour)
		if u.now().After(windowStart) {
			fee = paid.Mul(booking.Provider.CancellationFeePercent).Div(decimal.NewFromInt(100)).Round(2)
		}
	}
	refund := paid.Sub(fee)

	prevStatus, prevPayment := booking.Status, booking.PaymentStatus
	if err := booking.TransitionStatus(toStatus); err != nil {
		return nil, err
	}
	if refund.IsPositive() {
		target := entity.PaymentStatusRefunded
		if fee.IsPositive() {
			target = entity.PaymentStatusPartiallyRefunded
		}
		if err := booking.TransitionPaymentStatus(target); err != nil {
			return nil, err
		}
	}

	now := u.now()
	booking.CancelledAt = &now
	booking.CancellationReason = req.Reason
	booking.CancellationFee = &fee

	applied, err := u.bookingRepo.SaveIfStatus(ctx, booking, prevStatus, prevPayment)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrBookingModified
	}

	if refund.IsPositive() && booking.TransactionRef != "" {
		if _, err := u.paymentGateway.Refund(ctx, service.RefundRequest{
			TransactionRef: booking.TransactionRef,
			Amount:         refund,
			Currency:       booking.Currency,
			Reason:         req.Reason,
		}); err != nil {
			// Booking state is already committed; the refund has to be
			// replayed by support from the audit trail.
			u.log.Errorf("CRITICAL: refund failed for booking %s (amount %s): %+v", booking.ID, refund, err)
		}
		if err := u.auditService.LogUpdate(ctx, &userID, entity.AuditActionRefundRequested, "booking", booking.ID.String(), prevPayment, booking.PaymentStatus); err != nil {
			u.log.Warnf("Failed to audit refund request: %+v", err)
		}
	}

	by := "provider"
	if byClient {
		by = "client"
	}
	if err := u.notifier.BookingCancelled(ctx, booking, by); err != nil {
		u.log.Warnf("Failed to send cancellation notification: %+v", err)
	}
	if err := u.auditService.LogUpdate(ctx, &userID, entity.AuditActionBookingCancel, "booking", booking.ID.String(), prevStatus, booking.Status); err != nil {
		u.log.Warnf("Failed to audit cancellation: %+v", err)
	}

	u.log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"by":         by,
		"fee":        fee.StringFixed(2),
		"refund":     refund.StringFixed(2),
	}).Info("booking cancelled")

	return &dto.CancelBookingResponse{
		Booking:         *converter.BookingToResponse(booking),
		RefundAmount:    refund,
		CancellationFee: fee,
	}, nil
}

// CompleteBooking closes out an appointment once it has finished.
func (u *bookingUsecase) CompleteBooking(ctx context.Context, bookingID uuid.UUID) (*dto.BookingResponse, error) {
	providerID, ok := middleware.GetUserIDFromContext(ctx)
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
	if booking.ProviderID != providerID {
		return nil, ErrBookingNotOwned
	}

	if u.now().Before(booking.ServiceEnd) {
		return nil, &entity.PolicyViolationError{Reason: "appointment has not ended yet"}
	}

	prevStatus, prevPayment := booking.Status, booking.PaymentStatus
	if err := booking.TransitionStatus(entity.BookingStatusCompleted); err != nil {
		return nil, err
	}
	now := u.now()
	booking.CompletedAt = &now

	applied, err := u.bookingRepo.SaveIfStatus(ctx, booking, prevStatus, prevPayment)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrBookingModified
	}

	if err := u.auditService.LogUpdate(ctx, &providerID, entity.AuditActionBookingComplete, "booking", booking.ID.String(), prevStatus, booking.Status); err != nil {
		u.log.Warnf("Failed to audit completion: %+v", err)
	}

	u.log.Infof("Booking completed: id=%s", booking.ID)
	return converter.BookingToResponse(booking), nil
}

// MarkNoShow records a client no-show after the grace period. The deposit is
// forfeited: no refund, payment status untouched.
func (u *bookingUsecase) MarkNoShow(ctx context.Context, bookingID uuid.UUID) (*dto.BookingResponse, error) {
	providerID, ok := middleware.GetUserIDFromContext(ctx)
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
	if booking.ProviderID != providerID {
		return nil, ErrBookingNotOwned
	}

	grace := time.Duration(booking.Provider.NoShowGraceMinutes) * time.Minute
	if u.now().Before(booking.StartAt.Add(grace)) {
		return nil, &entity.PolicyViolationError{Reason: "no-show grace period has not elapsed"}
	}

	prevStatus, prevPayment := booking.Status, booking.PaymentStatus
	if err := booking.TransitionStatus(entity.BookingStatusNoShow); err != nil {
		return nil, err
	}

	applied, err := u.bookingRepo.SaveIfStatus(ctx, booking, prevStatus, prevPayment)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrBookingModified
	}

	if err := u.providerRepo.IncrementNoShowCount(ctx, booking.ProviderID); err != nil {
		u.log.Warnf("Failed to bump no-show count for provider %s: %+v", booking.ProviderID, err)
	}
	if err := u.notifier.NoShowRecorded(ctx, booking); err != nil {
		u.log.Warnf("Failed to send no-show notification: %+v", err)
	}
	if err := u.auditService.LogUpdate(ctx, &providerID, entity.AuditActionBookingNoShow, "booking", booking.ID.String(), prevStatus, booking.Status); err != nil {
		u.log.Warnf("Failed to audit no-show: %+v", err)
	}

	u.log.Infof("Booking marked no-show: id=%s", booking.ID)
	return converter.BookingToResponse(booking), nil
}

// ReportProviderNoShow is the client-side no-show path: the provider did not
// turn up, so everything paid comes back in full.
func (u *bookingUsecase) ReportProviderNoShow(ctx context.Context, bookingID uuid.UUID) (*dto.BookingResponse, error) {
	clientID, ok := middleware.GetUserIDFromContext(ctx)
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
	if booking.ClientID != clientID {
		return nil, ErrBookingNotOwned
	}

	grace := time.Duration(booking.Provider.NoShowGraceMinutes) * time.Minute
	if u.now().Before(booking.StartAt.Add(grace)) {
		return nil, &entity.PolicyViolationError{Reason: "no-show grace period has not elapsed"}
	}

	paid := booking.AmountPaid()
	prevStatus, prevPayment := booking.Status, booking.PaymentStatus
	if err := booking.TransitionStatus(entity.BookingStatusNoShow); err != nil {
		return nil, err
	}
	if paid.IsPositive() {
		if err := booking.TransitionPaymentStatus(entity.PaymentStatusRefunded); err != nil {
			return nil, err
		}
	}

	applied, err := u.bookingRepo.SaveIfStatus(ctx, booking, prevStatus, prevPayment)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrBookingModified
	}

	if paid.IsPositive() && booking.TransactionRef != "" {
		if _, err := u.paymentGateway.Refund(ctx, service.RefundRequest{
			TransactionRef: booking.TransactionRef,
			Amount:         paid,
			Currency:       booking.Currency,
			Reason:         "provider no-show",
		}); err != nil {
			u.log.Errorf("CRITICAL: refund failed for booking %s (amount %s): %+v", booking.ID, paid, err)
		}
	}

	if err := u.notifier.NoShowRecorded(ctx, booking); err != nil {
		u.log.Warnf("Failed to send no-show notification: %+v", err)
	}
	if err := u.auditService.LogUpdate(ctx, &clientID, entity.AuditActionBookingNoShow, "booking", booking.ID.String(), prevStatus, booking.Status); err != nil {
		u.log.Warnf("Failed to audit provider no-show: %+v", err)
	}

	u.log.Infof("Provider no-show reported: booking=%s", booking.ID)
	return converter.BookingToResponse(booking), nil
}

// loadVisibleBooking enforces that only the booking's client, its provider or
// an admin can read it.
func (u *bookingUsecase) loadVisibleBooking(ctx context.Context, bookingID uuid.UUID) (*entity.Booking, error) {
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

	roleID, _ := middleware.GetRoleIDFromContext(ctx)
	if userID != booking.ClientID && userID != booking.ProviderID && roleID != entity.RoleIDAdmin {
		return nil, ErrBookingNotOwned
	}
	return booking, nil
}
