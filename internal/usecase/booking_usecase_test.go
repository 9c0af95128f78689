package usecase

import (
	"context"
	"testing"
	"time"

	"beauty-booking-api/internal/delivery/dto"
	"beauty-booking-api/internal/domain/entity"
	"beauty-booking-api/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookingFixture struct {
	uc          *bookingUsecase
	clientID    uuid.UUID
	provider    *entity.Provider
	svc         *entity.Service
	bookingRepo *fakeBookingRepo
	provRepo    *fakeProviderRepo
	timeOffRepo *fakeTimeOffRepo
	gateway     *fakeGateway
	notifier    *fakeNotifier
	audit       *fakeAuditService
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()

	provider := &entity.Provider{
		UserID:                  uuid.New(),
		BusinessName:            "Glow Studio",
		Timezone:                "UTC",
		Currency:                "USD",
		InstantBooking:          true,
		MinAdvanceHours:         2,
		AdvanceBookingDays:      60,
		CancellationWindowHours: 24,
		CancellationFeePercent:  decimal.NewFromInt(50),
		MaxReschedules:          2,
		NoShowGraceMinutes:      30,
	}
	svc := &entity.Service{
		ID:              uuid.New(),
		ProviderID:      provider.UserID,
		Name:            "Balayage",
		DurationMinutes: 60,
		BufferMinutes:   15,
		Price:           decimal.NewFromInt(120),
		DepositType:     entity.DepositTypePercent,
		DepositValue:    decimal.NewFromInt(25),
	}

	bookingRepo := newFakeBookingRepo()
	timeOffRepo := &fakeTimeOffRepo{}
	provRepo := newFakeProviderRepo(provider)
	availabilityRepo := &fakeAvailabilityRepo{rows: []entity.ProviderAvailability{
		{ID: 1, ProviderID: provider.UserID, Weekday: 1, StartTime: "09:00", EndTime: "17:00"},
	}}
	gateway := &fakeGateway{}
	notifier := &fakeNotifier{}
	audit := &fakeAuditService{}

	uc := NewBookingUsecase(
		testLogger(),
		bookingRepo,
		provRepo,
		newFakeServiceRepo(svc),
		availabilityRepo,
		service.NewConflictService(bookingRepo, timeOffRepo, testLogger()),
		newTestHoldService(t),
		gateway,
		notifier,
		audit,
		decimal.NewFromInt(5),
	).(*bookingUsecase)
	uc.now = func() time.Time {
		return time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	}

	return &bookingFixture{
		uc:          uc,
		clientID:    uuid.New(),
		provider:    provider,
		svc:         svc,
		bookingRepo: bookingRepo,
		provRepo:    provRepo,
		timeOffRepo: timeOffRepo,
		gateway:     gateway,
		notifier:    notifier,
		audit:       audit,
	}
}

func (fx *bookingFixture) createRequest() *dto.CreateBookingRequest {
	return &dto.CreateBookingRequest{
		ProviderID: fx.provider.UserID,
		ServiceID:  fx.svc.ID,
		Date:       testMonday,
		StartTime:  "10:00",
	}
}

func TestCreateBooking(t *testing.T) {
	fx := newBookingFixture(t)
	ctx := authedContext(fx.clientID)

	resp, err := fx.uc.CreateBooking(ctx, fx.createRequest())
	require.NoError(t, err)

	require.Len(t, fx.bookingRepo.created, 1)
	booking := fx.bookingRepo.created[0]

	assert.Equal(t, fx.clientID, booking.ClientID)
	assert.Equal(t, entity.BookingStatusPending, booking.Status)
	assert.Equal(t, entity.PaymentStatusAwaitingDeposit, booking.PaymentStatus)
	assert.Equal(t, time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC), booking.StartAt)
	// Stored end carries the trailing buffer; the service itself ends at 11:00.
	assert.Equal(t, time.Date(2026, 1, 5, 11, 15, 0, 0, time.UTC), booking.EndAt)
	assert.Equal(t, time.Date(2026, 1, 5, 11, 0, 0, 0, time.UTC), booking.ServiceEnd)

	// Money: price 120, 25% deposit, 5% marketplace fee.
	assert.True(t, booking.DepositAmount.Equal(decimal.NewFromInt(30)), "deposit %s", booking.DepositAmount)
	assert.True(t, booking.ServiceFee.Equal(decimal.NewFromInt(6)), "fee %s", booking.ServiceFee)
	assert.True(t, booking.TotalAmount.Equal(decimal.NewFromInt(126)), "total %s", booking.TotalAmount)

	require.Len(t, fx.gateway.charges, 1)
	assert.True(t, fx.gateway.charges[0].Amount.Equal(decimal.NewFromInt(30)))
	assert.NotEmpty(t, resp.CheckoutURL)
	assert.Contains(t, fx.notifier.events, "created")
}

func TestCreateBookingSlotTaken(t *testing.T) {
	fx := newBookingFixture(t)
	fx.bookingRepo.occupying = []entity.Booking{{
		ID:         uuid.New(),
		ProviderID: fx.provider.UserID,
		Status:     entity.BookingStatusConfirmed,
		StartAt:    time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2026, 1, 5, 11, 15, 0, 0, time.UTC),
	}}

	_, err := fx.uc.CreateBooking(authedContext(fx.clientID), fx.createRequest())
	assert.ErrorIs(t, err, entity.ErrSlotUnavailable)
	assert.Empty(t, fx.gateway.charges, "no charge may be opened for a rejected slot")
}

func TestCreateBookingOutsideWorkingHours(t *testing.T) {
	fx := newBookingFixture(t)
	req := fx.createRequest()
	req.StartTime = "16:30" // 75 min footprint runs past 17:00

	_, err := fx.uc.CreateBooking(authedContext(fx.clientID), req)
	var policyErr *entity.PolicyViolationError
	require.ErrorAs(t, err, &policyErr)
}

func TestCreateBookingInsideMinimumAdvance(t *testing.T) {
	fx := newBookingFixture(t)
	fx.uc.now = func() time.Time {
		return time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	}

	_, err := fx.uc.CreateBooking(authedContext(fx.clientID), fx.createRequest())
	var policyErr *entity.PolicyViolationError
	require.ErrorAs(t, err, &policyErr)
}

func TestCreateBookingGatewayDown(t *testing.T) {
	fx := newBookingFixture(t)
	fx.gateway.chargeErr = &entity.ExternalDependencyError{Dependency: "payment_gateway"}

	resp, err := fx.uc.CreateBooking(authedContext(fx.clientID), fx.createRequest())
	require.NoError(t, err, "a gateway outage must not lose the booking")
	assert.Empty(t, resp.CheckoutURL)
	require.Len(t, fx.bookingRepo.created, 1)
	assert.Empty(t, fx.bookingRepo.created[0].TransactionRef)
}

func TestCreateBookingSecondClientBlockedByHold(t *testing.T) {
	fx := newBookingFixture(t)

	// First client acquires the checkout hold out-of-band.
	otherClient := uuid.New()
	start := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	require.NoError(t, fx.uc.slotHoldService.AcquireHold(context.Background(), fx.provider.UserID, start, otherClient))

	_, err := fx.uc.CreateBooking(authedContext(fx.clientID), fx.createRequest())
	assert.ErrorIs(t, err, entity.ErrSlotUnavailable)
	assert.Empty(t, fx.bookingRepo.created)
}

func cancellableBooking(fx *bookingFixture, payment entity.PaymentStatus) *entity.Booking {
	return fx.bookingRepo.add(&entity.Booking{
		ClientID:       fx.clientID,
		ProviderID:     fx.provider.UserID,
		ServiceID:      fx.svc.ID,
		StartAt:        time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC),
		ServiceEnd:     time.Date(2026, 1, 5, 11, 0, 0, 0, time.UTC),
		EndAt:          time.Date(2026, 1, 5, 11, 15, 0, 0, time.UTC),
		ServicePrice:   decimal.NewFromInt(120),
		DepositAmount:  decimal.NewFromInt(30),
		ServiceFee:     decimal.NewFromInt(6),
		TotalAmount:    decimal.NewFromInt(126),
		Currency:       "USD",
		Status:         entity.BookingStatusConfirmed,
		PaymentStatus:  payment,
		TransactionRef: "txn-1",
		Provider:       *fx.provider,
	})
}

func TestCancelBookingByClientInsideWindow(t *testing.T) {
	fx := newBookingFixture(t)
	booking := cancellableBooking(fx, entity.PaymentStatusDepositPaid)

	// 12 hours before start, inside the 24 hour window: 50% fee on the paid
	// deposit.
	fx.uc.now = func() time.Time {
		return time.Date(2026, 1, 4, 22, 0, 0, 0, time.UTC)
	}

	resp, err := fx.uc.CancelBooking(authedContext(fx.clientID), booking.ID, &dto.CancelBookingRequest{Reason: "cannot make it"})
	require.NoError(t, err)

	assert.True(t, resp.CancellationFee.Equal(decimal.NewFromInt(15)), "fee %s", resp.CancellationFee)
	assert.True(t, resp.RefundAmount.Equal(decimal.NewFromInt(15)), "refund %s", resp.RefundAmount)
	assert.Equal(t, entity.BookingStatusCancelledByClient, booking.Status)
	assert.Equal(t, entity.PaymentStatusPartiallyRefunded, booking.PaymentStatus)

	require.Len(t, fx.gateway.refunds, 1)
	assert.True(t, fx.gateway.refunds[0].Amount.Equal(decimal.NewFromInt(15)))
	assert.Contains(t, fx.notifier.events, "cancelled:client")
}

func TestCancelBookingByClientOutsideWindow(t *testing.T) {
	fx := newBookingFixture(t)
	booking := cancellableBooking(fx, entity.PaymentStatusDepositPaid)

	// Three days ahead: no fee, full refund of the deposit.
	resp, err := fx.uc.CancelBooking(authedContext(fx.clientID), booking.ID, &dto.CancelBookingRequest{})
	require.NoError(t, err)

	assert.True(t, resp.CancellationFee.IsZero())
	assert.True(t, resp.RefundAmount.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, entity.PaymentStatusRefunded, booking.PaymentStatus)
}

func TestCancelBookingByProviderAlwaysFullRefund(t *testing.T) {
	fx := newBookingFixture(t)
	booking := cancellableBooking(fx, entity.PaymentStatusFullyPaid)

	// One hour before start. A client would pay the fee; the provider's own
	// cancellation never does.
	fx.uc.now = func() time.Time {
		return time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	}

	resp, err := fx.uc.CancelBooking(authedContext(fx.provider.UserID), booking.ID, &dto.CancelBookingRequest{Reason: "sick"})
	require.NoError(t, err)

	assert.True(t, resp.CancellationFee.IsZero())
	assert.True(t, resp.RefundAmount.Equal(decimal.NewFromInt(126)))
	assert.Equal(t, entity.BookingStatusCancelledByProvider, booking.Status)
	assert.Equal(t, entity.PaymentStatusRefunded, booking.PaymentStatus)
	assert.Contains(t, fx.notifier.events, "cancelled:provider")
}

func TestCancelBookingUnpaidNoRefund(t *testing.T) {
	fx := newBookingFixture(t)
	booking := cancellableBooking(fx, entity.PaymentStatusAwaitingDeposit)
	booking.Status = entity.BookingStatusPending

	resp, err := fx.uc.CancelBooking(authedContext(fx.clientID), booking.ID, &dto.CancelBookingRequest{})
	require.NoError(t, err)

	assert.True(t, resp.RefundAmount.IsZero())
	assert.Empty(t, fx.gateway.refunds)
	assert.Equal(t, entity.PaymentStatusAwaitingDeposit, booking.PaymentStatus)
}

func TestCancelBookingByStranger(t *testing.T) {
	fx := newBookingFixture(t)
	booking := cancellableBooking(fx, entity.PaymentStatusDepositPaid)

	_, err := fx.uc.CancelBooking(authedContext(uuid.New()), booking.ID, &dto.CancelBookingRequest{})
	assert.ErrorIs(t, err, ErrBookingNotOwned)
}

func TestCancelBookingTerminalStatus(t *testing.T) {
	fx := newBookingFixture(t)
	booking := cancellableBooking(fx, entity.PaymentStatusDepositPaid)
	booking.Status = entity.BookingStatusCompleted

	_, err := fx.uc.CancelBooking(authedContext(fx.clientID), booking.ID, &dto.CancelBookingRequest{})
	var invalid *entity.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
}

func TestConfirmBookingRequiresDeposit(t *testing.T) {
	fx := newBookingFixture(t)
	booking := cancellableBooking(fx, entity.PaymentStatusAwaitingDeposit)
	booking.Status = entity.BookingStatusPending

	_, err := fx.uc.ConfirmBooking(authedContext(fx.provider.UserID), booking.ID)
	assert.ErrorIs(t, err, entity.ErrPaymentRequired)

	booking.PaymentStatus = entity.PaymentStatusDepositPaid
	resp, err := fx.uc.ConfirmBooking(authedContext(fx.provider.UserID), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.BookingStatusConfirmed), resp.Status)
	assert.Contains(t, fx.notifier.events, "confirmed")
}

func TestConfirmBookingLostRace(t *testing.T) {
	fx := newBookingFixture(t)
	booking := cancellableBooking(fx, entity.PaymentStatusDepositPaid)
	booking.Status = entity.BookingStatusPending
	fx.bookingRepo.saveDenied = true

	_, err := fx.uc.ConfirmBooking(authedContext(fx.provider.UserID), booking.ID)
	assert.ErrorIs(t, err, ErrBookingModified)
}

func TestCompleteBookingOnlyAfterServiceEnds(t *testing.T) {
	fx := newBookingFixture(t)
	booking := cancellableBooking(fx, entity.PaymentStatusFullyPaid)
	var policyErr *entity.PolicyViolationError

	// Days before the appointment.
	_, err := fx.uc.CompleteBooking(authedContext(fx.provider.UserID), booking.ID)
	require.ErrorAs(t, err, &policyErr)

	// Mid-appointment: started but the service hour is still running.
	fx.uc.now = func() time.Time {
		return time.Date(2026, 1, 5, 10, 30, 0, 0, time.UTC)
	}
	_, err = fx.uc.CompleteBooking(authedContext(fx.provider.UserID), booking.ID)
	require.ErrorAs(t, err, &policyErr)

	// From the service end onward completion is allowed; the trailing buffer
	// does not gate it.
	fx.uc.now = func() time.Time {
		return time.Date(2026, 1, 5, 11, 0, 0, 0, time.UTC)
	}
	resp, err := fx.uc.CompleteBooking(authedContext(fx.provider.UserID), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.BookingStatusCompleted), resp.Status)
	assert.NotNil(t, booking.CompletedAt)
}

func TestMarkNoShowForfeitsDeposit(t *testing.T) {
	fx := newBookingFixture(t)
	booking := cancellableBooking(fx, entity.PaymentStatusDepositPaid)

	// Ten minutes after start: still inside the 30 min grace.
	fx.uc.now = func() time.Time {
		return time.Date(2026, 1, 5, 10, 10, 0, 0, time.UTC)
	}
	_, err := fx.uc.MarkNoShow(authedContext(fx.provider.UserID), booking.ID)
	var policyErr *entity.PolicyViolationError
	require.ErrorAs(t, err, &policyErr)

	fx.uc.now = func() time.Time {
		return time.Date(2026, 1, 5, 10, 45, 0, 0, time.UTC)
	}
	_, err = fx.uc.MarkNoShow(authedContext(fx.provider.UserID), booking.ID)
	require.NoError(t, err)

	assert.Equal(t, entity.BookingStatusNoShow, booking.Status)
	// Deposit is forfeited: payment status untouched, no refund issued.
	assert.Equal(t, entity.PaymentStatusDepositPaid, booking.PaymentStatus)
	assert.Empty(t, fx.gateway.refunds)
	assert.Equal(t, 1, fx.provRepo.noShowBumps)
}

func TestReportProviderNoShowRefundsInFull(t *testing.T) {
	fx := newBookingFixture(t)
	booking := cancellableBooking(fx, entity.PaymentStatusFullyPaid)

	fx.uc.now = func() time.Time {
		return time.Date(2026, 1, 5, 10, 45, 0, 0, time.UTC)
	}
	_, err := fx.uc.ReportProviderNoShow(authedContext(fx.clientID), booking.ID)
	require.NoError(t, err)

	assert.Equal(t, entity.BookingStatusNoShow, booking.Status)
	assert.Equal(t, entity.PaymentStatusRefunded, booking.PaymentStatus)
	require.Len(t, fx.gateway.refunds, 1)
	assert.True(t, fx.gateway.refunds[0].Amount.Equal(decimal.NewFromInt(126)))
	// The provider's own absence never counts against the client tally.
	assert.Equal(t, 0, fx.provRepo.noShowBumps)
}
