package usecase

import (
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

type rescheduleFixture struct {
	uc             *rescheduleUsecase
	clientID       uuid.UUID
	provider       *entity.Provider
	svc            *entity.Service
	booking        *entity.Booking
	bookingRepo    *fakeBookingRepo
	rescheduleRepo *fakeRescheduleRepo
	notifier       *fakeNotifier
}

func newRescheduleFixture(t *testing.T) *rescheduleFixture {
	t.Helper()

	provider := &entity.Provider{
		UserID:                  uuid.New(),
		Timezone:                "UTC",
		Currency:                "USD",
		MinAdvanceHours:         2,
		AdvanceBookingDays:      60,
		CancellationWindowHours: 24,
		CancellationFeePercent:  decimal.NewFromInt(50),
		MaxReschedules:          2,
	}
	svc := &entity.Service{
		ID:              uuid.New(),
		ProviderID:      provider.UserID,
		DurationMinutes: 60,
		BufferMinutes:   15,
		Price:           decimal.NewFromInt(120),
	}

	bookingRepo := newFakeBookingRepo()
	rescheduleRepo := newFakeRescheduleRepo()
	timeOffRepo := &fakeTimeOffRepo{}
	availabilityRepo := &fakeAvailabilityRepo{rows: []entity.ProviderAvailability{
		{ID: 1, ProviderID: provider.UserID, Weekday: 1, StartTime: "09:00", EndTime: "17:00"},
		{ID: 2, ProviderID: provider.UserID, Weekday: 2, StartTime: "09:00", EndTime: "17:00"},
	}}
	notifier := &fakeNotifier{}

	uc := NewRescheduleUsecase(
		testLogger(),
		bookingRepo,
		rescheduleRepo,
		availabilityRepo,
		service.NewConflictService(bookingRepo, timeOffRepo, testLogger()),
		notifier,
		&fakeAuditService{},
	).(*rescheduleUsecase)
	uc.now = func() time.Time {
		return time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	}

	clientID := uuid.New()
	booking := bookingRepo.add(&entity.Booking{
		ClientID:       clientID,
		ProviderID:     provider.UserID,
		ServiceID:      svc.ID,
		Date:           time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		StartAt:        time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC),
		ServiceEnd:     time.Date(2026, 1, 5, 11, 0, 0, 0, time.UTC),
		EndAt:          time.Date(2026, 1, 5, 11, 15, 0, 0, time.UTC),
		ServicePrice:   decimal.NewFromInt(120),
		DepositAmount:  decimal.NewFromInt(30),
		TotalAmount:    decimal.NewFromInt(126),
		Currency:       "USD",
		Status:         entity.BookingStatusConfirmed,
		PaymentStatus:  entity.PaymentStatusDepositPaid,
		TransactionRef: "txn-1",
		Provider:       *provider,
		Service:        *svc,
	})

	return &rescheduleFixture{
		uc:             uc,
		clientID:       clientID,
		provider:       provider,
		svc:            svc,
		booking:        booking,
		bookingRepo:    bookingRepo,
		rescheduleRepo: rescheduleRepo,
		notifier:       notifier,
	}
}

func (fx *rescheduleFixture) propose(t *testing.T) *dto.RescheduleResponse {
	t.Helper()
	resp, err := fx.uc.ProposeReschedule(authedContext(fx.clientID), fx.booking.ID, &dto.ProposeRescheduleRequest{
		Date:      "2026-01-06",
		StartTime: "14:00",
	})
	require.NoError(t, err)
	return resp
}

func TestProposeReschedule(t *testing.T) {
	fx := newRescheduleFixture(t)

	resp := fx.propose(t)

	assert.Equal(t, "client", resp.RequestedBy)
	assert.Equal(t, string(entity.RescheduleStatusPending), resp.Status)
	assert.Equal(t, time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC), resp.ExpiresAt)
	assert.True(t, !resp.ExpiresAt.After(fx.booking.StartAt))
	assert.Contains(t, fx.notifier.events, "reschedule_proposed")
}

func TestProposeRescheduleSupersedesOpenRequest(t *testing.T) {
	fx := newRescheduleFixture(t)

	first := fx.propose(t)
	second := fx.propose(t)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, entity.RescheduleStatusSuperseded, fx.rescheduleRepo.requests[first.ID].Status)
	assert.Equal(t, entity.RescheduleStatusPending, fx.rescheduleRepo.requests[second.ID].Status)
}

func TestProposeRescheduleExpiryCappedAtStart(t *testing.T) {
	fx := newRescheduleFixture(t)
	// Proposing within 24h of the appointment: the answer window cannot
	// outlive the booking it moves.
	fx.uc.now = func() time.Time {
		return time.Date(2026, 1, 4, 20, 0, 0, 0, time.UTC)
	}

	resp := fx.propose(t)
	assert.Equal(t, fx.booking.StartAt, resp.ExpiresAt)
}

func TestProposeRescheduleIntoOccupiedSlot(t *testing.T) {
	fx := newRescheduleFixture(t)
	fx.bookingRepo.occupying = []entity.Booking{{
		ID:         uuid.New(),
		ProviderID: fx.provider.UserID,
		Status:     entity.BookingStatusConfirmed,
		StartAt:    time.Date(2026, 1, 6, 14, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2026, 1, 6, 15, 15, 0, 0, time.UTC),
	}}

	_, err := fx.uc.ProposeReschedule(authedContext(fx.clientID), fx.booking.ID, &dto.ProposeRescheduleRequest{
		Date:      "2026-01-06",
		StartTime: "14:00",
	})
	assert.ErrorIs(t, err, entity.ErrSlotUnavailable)
	assert.Empty(t, fx.rescheduleRepo.requests, "a proposal for a taken slot is rejected up front")
}

func TestProposeRescheduleCapReached(t *testing.T) {
	fx := newRescheduleFixture(t)
	fx.booking.RescheduleCount = 2

	_, err := fx.uc.ProposeReschedule(authedContext(fx.clientID), fx.booking.ID, &dto.ProposeRescheduleRequest{
		Date:      "2026-01-06",
		StartTime: "14:00",
	})
	var policyErr *entity.PolicyViolationError
	require.ErrorAs(t, err, &policyErr)
}

func TestProposeRescheduleRequiresConfirmedBooking(t *testing.T) {
	fx := newRescheduleFixture(t)
	fx.booking.Status = entity.BookingStatusPending

	_, err := fx.uc.ProposeReschedule(authedContext(fx.clientID), fx.booking.ID, &dto.ProposeRescheduleRequest{
		Date:      "2026-01-06",
		StartTime: "14:00",
	})
	var invalid *entity.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
}

func TestRespondRescheduleApprove(t *testing.T) {
	fx := newRescheduleFixture(t)
	proposed := fx.propose(t)

	// The provider answers a client proposal.
	resp, err := fx.uc.RespondReschedule(authedContext(fx.provider.UserID), proposed.ID, &dto.RespondRescheduleRequest{Approve: true})
	require.NoError(t, err)

	assert.Equal(t, string(entity.RescheduleStatusApproved), resp.Status)
	require.NotNil(t, resp.NewBooking)

	successor := fx.bookingRepo.byID[resp.NewBooking.ID]
	require.NotNil(t, successor)
	assert.Equal(t, entity.BookingStatusConfirmed, successor.Status)
	assert.Equal(t, time.Date(2026, 1, 6, 14, 0, 0, 0, time.UTC), successor.StartAt)
	assert.Equal(t, time.Date(2026, 1, 6, 15, 0, 0, 0, time.UTC), successor.ServiceEnd)
	assert.Equal(t, time.Date(2026, 1, 6, 15, 15, 0, 0, time.UTC), successor.EndAt)
	require.NotNil(t, successor.RescheduledFromID)
	assert.Equal(t, fx.booking.ID, *successor.RescheduledFromID)
	assert.Equal(t, 1, successor.RescheduleCount)

	// Money and payment state carry over unchanged.
	assert.Equal(t, entity.PaymentStatusDepositPaid, successor.PaymentStatus)
	assert.Equal(t, "txn-1", successor.TransactionRef)
	assert.True(t, successor.TotalAmount.Equal(fx.booking.TotalAmount))

	assert.Equal(t, entity.BookingStatusRescheduled, fx.booking.Status)
	assert.Contains(t, fx.notifier.events, "rescheduled")
}

func TestRespondRescheduleApproveConflictFailsRequest(t *testing.T) {
	fx := newRescheduleFixture(t)
	proposed := fx.propose(t)

	// Another booking takes the proposed slot before the provider answers.
	fx.bookingRepo.occupying = []entity.Booking{{
		ID:         uuid.New(),
		ProviderID: fx.provider.UserID,
		Status:     entity.BookingStatusConfirmed,
		StartAt:    time.Date(2026, 1, 6, 14, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2026, 1, 6, 15, 15, 0, 0, time.UTC),
	}}

	_, err := fx.uc.RespondReschedule(authedContext(fx.provider.UserID), proposed.ID, &dto.RespondRescheduleRequest{Approve: true})
	assert.ErrorIs(t, err, entity.ErrSlotUnavailable)

	// The request fails; the original booking is untouched.
	assert.Equal(t, entity.RescheduleStatusFailed, fx.rescheduleRepo.requests[proposed.ID].Status)
	assert.Equal(t, entity.BookingStatusConfirmed, fx.booking.Status)
}

func TestRespondRescheduleDeny(t *testing.T) {
	fx := newRescheduleFixture(t)
	proposed := fx.propose(t)

	resp, err := fx.uc.RespondReschedule(authedContext(fx.provider.UserID), proposed.ID, &dto.RespondRescheduleRequest{Approve: false})
	require.NoError(t, err)

	assert.Equal(t, string(entity.RescheduleStatusDenied), resp.Status)
	assert.Equal(t, entity.BookingStatusConfirmed, fx.booking.Status)
	assert.Empty(t, fx.bookingRepo.swapped)
}

func TestRespondRescheduleProposerCannotAnswer(t *testing.T) {
	fx := newRescheduleFixture(t)
	proposed := fx.propose(t)

	_, err := fx.uc.RespondReschedule(authedContext(fx.clientID), proposed.ID, &dto.RespondRescheduleRequest{Approve: true})
	assert.ErrorIs(t, err, ErrBookingNotOwned)
}

func TestRespondRescheduleExpired(t *testing.T) {
	fx := newRescheduleFixture(t)
	proposed := fx.propose(t)

	fx.uc.now = func() time.Time {
		return fx.booking.StartAt.Add(time.Minute)
	}

	_, err := fx.uc.RespondReschedule(authedContext(fx.provider.UserID), proposed.ID, &dto.RespondRescheduleRequest{Approve: true})
	assert.ErrorIs(t, err, ErrRescheduleExpired)
	assert.Equal(t, entity.RescheduleStatusExpired, fx.rescheduleRepo.requests[proposed.ID].Status)
}
