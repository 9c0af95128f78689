package usecase

import (
	"context"
	"errors"
	"time"

	"beauty-booking-api/internal/delivery/dto"
	"beauty-booking-api/internal/delivery/http/middleware"
	"beauty-booking-api/internal/domain/entity"
	"beauty-booking-api/internal/domain/repository"
	"beauty-booking-api/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrPaymentNotDue = errors.New("booking has no outstanding payment")

const (
	webhookStatusApplied      = "applied"
	webhookStatusDuplicate    = "duplicate"
	webhookStatusUnmatched    = "unmatched"
	webhookStatusAcknowledged = "acknowledged"
)

type PaymentUsecase interface {
	InitializePayment(ctx context.Context, bookingID uuid.UUID) (*dto.InitializePaymentResponse, error)
	HandlePaymentEvent(ctx context.Context, req *dto.PaymentWebhookRequest) (*dto.PaymentWebhookResponse, error)
}

type paymentUsecase struct {
	log             *logrus.Logger
	bookingRepo     repository.BookingRepository
	slotHoldService *service.SlotHoldService
	paymentGateway  service.PaymentGateway
	notifier        service.Notifier
	auditService    service.AuditService

	now func() time.Time
}

func NewPaymentUsecase(
	log *logrus.Logger,
	bookingRepo repository.BookingRepository,
	slotHoldService *service.SlotHoldService,
	paymentGateway service.PaymentGateway,
	notifier service.Notifier,
	auditService service.AuditService,
) PaymentUsecase {
	return &paymentUsecase{
		log:             log,
		bookingRepo:     bookingRepo,
		slotHoldService: slotHoldService,
		paymentGateway:  paymentGateway,
		notifier:        notifier,
		auditService:    auditService,
		now:             time.Now,
	}
}

// InitializePayment returns the checkout link for a booking's deposit,
// opening the charge with the gateway if the creation-time attempt failed.
func (u *paymentUsecase) InitializePayment(ctx context.Context, bookingID uuid.UUID) (*dto.InitializePaymentResponse, error) {
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
	if booking.PaymentStatus != entity.PaymentStatusAwaitingDeposit || booking.Status != entity.BookingStatusPending {
		return nil, ErrPaymentNotDue
	}

	charge, err := u.paymentGateway.CreateCharge(ctx, service.ChargeRequest{
		BookingID: booking.ID,
		Amount:    booking.DepositAmount,
		Currency:  booking.Currency,
	})
	if err != nil {
		u.log.Warnf("Failed to open deposit charge for booking %s: %+v", booking.ID, err)
		return nil, err
	}

	if booking.TransactionRef != charge.TransactionRef {
		booking.TransactionRef = charge.TransactionRef
		if err := u.bookingRepo.Update(ctx, booking); err != nil {
			u.log.Errorf("Failed to store transaction ref for booking %s: %+v", booking.ID, err)
			return nil, err
		}
	}

	return &dto.InitializePaymentResponse{
		BookingID:      booking.ID.String(),
		TransactionRef: charge.TransactionRef,
		Amount:         booking.DepositAmount,
		Currency:       booking.Currency,
		CheckoutURL:    charge.CheckoutURL,
	}, nil
}

// HandlePaymentEvent applies an asynchronous gateway event to the matching
// booking. Events are deduplicated by event ID, so gateway redeliveries are
// acknowledged without touching state. The marker is claimed only after the
// event has been applied: a run that fails partway leaves the event
// unclaimed, so the gateway's redelivery gets a clean retry instead of being
// swallowed as a duplicate.
func (u *paymentUsecase) HandlePaymentEvent(ctx context.Context, req *dto.PaymentWebhookRequest) (*dto.PaymentWebhookResponse, error) {
	seen, err := u.slotHoldService.EventProcessed(ctx, req.EventID)
	if err != nil {
		// The DB status guard still blocks a double-apply, but without the
		// marker check a replay would churn; let the gateway retry once
		// Redis is back.
		u.log.Errorf("Failed to check payment event %s: %+v", req.EventID, err)
		return nil, &entity.ExternalDependencyError{Dependency: "redis", Err: err}
	}
	if seen {
		u.log.Infof("Duplicate payment event ignored: id=%s", req.EventID)
		return &dto.PaymentWebhookResponse{Processed: false, Status: webhookStatusDuplicate}, nil
	}

	booking, err := u.bookingRepo.FindByTransactionRef(ctx, req.TransactionRef)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		// Possibly a race with the transaction ref still being stored;
		// leave the event unclaimed so a redelivery can match.
		u.log.Warnf("Payment event %s references unknown transaction %s", req.EventID, req.TransactionRef)
		return &dto.PaymentWebhookResponse{Processed: false, Status: webhookStatusUnmatched}, nil
	}

	var resp *dto.PaymentWebhookResponse
	switch req.EventType {
	case "payment.succeeded":
		resp, err = u.onPaymentSucceeded(ctx, booking, req)
	case "payment.failed":
		resp, err = u.onPaymentFailed(ctx, booking, req)
	case "refund.completed":
		// Payment status already moved when the refund was requested.
		u.log.Infof("Refund completed: booking=%s ref=%s", booking.ID, req.TransactionRef)
		resp = &dto.PaymentWebhookResponse{Processed: true, Status: webhookStatusAcknowledged}
	default:
		u.log.Warnf("Unhandled payment event type %q (id=%s)", req.EventType, req.EventID)
		resp = &dto.PaymentWebhookResponse{Processed: false, Status: webhookStatusAcknowledged}
	}
	if err != nil {
		return nil, err
	}

	if resp.Processed {
		if _, err := u.slotHoldService.MarkEventProcessed(ctx, req.EventID); err != nil {
			// The SaveIfStatus guard blocks a second apply either way.
			u.log.Warnf("Failed to mark payment event %s processed: %+v", req.EventID, err)
		}
	}
	return resp, nil
}

// onPaymentSucceeded records the captured money and, for instant-booking
// providers, confirms the booking without waiting for manual acceptance.
func (u *paymentUsecase) onPaymentSucceeded(ctx context.Context, booking *entity.Booking, req *dto.PaymentWebhookRequest) (*dto.PaymentWebhookResponse, error) {
	prevStatus, prevPayment := booking.Status, booking.PaymentStatus

	switch booking.PaymentStatus {
	case entity.PaymentStatusAwaitingDeposit:
		if err := booking.TransitionPaymentStatus(entity.PaymentStatusDepositPaid); err != nil {
			return nil, err
		}
		if req.Amount.GreaterThanOrEqual(booking.TotalAmount) {
			if err := booking.TransitionPaymentStatus(entity.PaymentStatusFullyPaid); err != nil {
				return nil, err
			}
		}
	case entity.PaymentStatusDepositPaid:
		if err := booking.TransitionPaymentStatus(entity.PaymentStatusFullyPaid); err != nil {
			return nil, err
		}
	default:
		u.log.Warnf("Payment succeeded for booking %s in payment status %s, ignoring", booking.ID, booking.PaymentStatus)
		return &dto.PaymentWebhookResponse{Processed: false, Status: webhookStatusAcknowledged}, nil
	}

	confirmed := false
	if booking.Status == entity.BookingStatusPending && booking.Provider.InstantBooking {
		if err := booking.TransitionStatus(entity.BookingStatusConfirmed); err != nil {
			return nil, err
		}
		confirmed = true
	}

	applied, err := u.bookingRepo.SaveIfStatus(ctx, booking, prevStatus, prevPayment)
	if err != nil {
		return nil, err
	}
	if !applied {
		u.log.Warnf("Payment event lost the race on booking %s, leaving state as-is", booking.ID)
		return &dto.PaymentWebhookResponse{Processed: false, Status: webhookStatusAcknowledged}, nil
	}

	if confirmed {
		if err := u.notifier.BookingConfirmed(ctx, booking); err != nil {
			u.log.Warnf("Failed to send confirmation notification: %+v", err)
		}
	}
	if err := u.auditService.LogUpdate(ctx, nil, entity.AuditActionPaymentReceived, "booking", booking.ID.String(), prevPayment, booking.PaymentStatus); err != nil {
		u.log.Warnf("Failed to audit payment: %+v", err)
	}

	u.log.WithFields(logrus.Fields{
		"booking_id":     booking.ID,
		"payment_status": booking.PaymentStatus,
		"confirmed":      confirmed,
	}).Info("payment applied")

	return &dto.PaymentWebhookResponse{Processed: true, Status: webhookStatusApplied}, nil
}

// onPaymentFailed cancels a pending booking whose deposit charge failed,
// releasing the slot back to the calendar.
func (u *paymentUsecase) onPaymentFailed(ctx context.Context, booking *entity.Booking, req *dto.PaymentWebhookRequest) (*dto.PaymentWebhookResponse, error) {
	if booking.Status != entity.BookingStatusPending || booking.PaymentStatus != entity.PaymentStatusAwaitingDeposit {
		u.log.Infof("Payment failed event for booking %s in status %s/%s, ignoring", booking.ID, booking.Status, booking.PaymentStatus)
		return &dto.PaymentWebhookResponse{Processed: false, Status: webhookStatusAcknowledged}, nil
	}

	prevStatus, prevPayment := booking.Status, booking.PaymentStatus
	if err := booking.TransitionStatus(entity.BookingStatusCancelledByClient); err != nil {
		return nil, err
	}
	now := u.now()
	booking.CancelledAt = &now
	booking.CancellationReason = "Payment failed"

	applied, err := u.bookingRepo.SaveIfStatus(ctx, booking, prevStatus, prevPayment)
	if err != nil {
		return nil, err
	}
	if !applied {
		return &dto.PaymentWebhookResponse{Processed: false, Status: webhookStatusAcknowledged}, nil
	}

	if err := u.notifier.BookingCancelled(ctx, booking, "system"); err != nil {
		u.log.Warnf("Failed to send cancellation notification: %+v", err)
	}
	if err := u.auditService.LogUpdate(ctx, nil, entity.AuditActionPaymentFailed, "booking", booking.ID.String(), prevStatus, booking.Status); err != nil {
		u.log.Warnf("Failed to audit payment failure: %+v", err)
	}

	u.log.Infof("Booking cancelled after failed payment: id=%s", booking.ID)
	return &dto.PaymentWebhookResponse{Processed: true, Status: webhookStatusApplied}, nil
}
