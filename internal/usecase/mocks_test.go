package usecase

import (
	"context"
	"testing"
	"time"

	"beauty-booking-api/internal/delivery/http/middleware"
	"beauty-booking-api/internal/domain/entity"
	"beauty-booking-api/internal/domain/repository"
	"beauty-booking-api/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// In-memory fakes for the repository and service collaborators. Zero values
// behave like an empty database.

type fakeBookingRepo struct {
	byID  map[uuid.UUID]*entity.Booking
	byRef map[string]*entity.Booking

	occupying []entity.Booking

	createErr   error
	created     []*entity.Booking
	swapErr     error
	swapped     [][2]*entity.Booking
	updated     []*entity.Booking
	saveDenied  bool
	saveErrOnce error
	saveCalls   int
	flags       map[string]bool
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{
		byID:  map[uuid.UUID]*entity.Booking{},
		byRef: map[string]*entity.Booking{},
		flags: map[string]bool{},
	}
}

func (f *fakeBookingRepo) add(b *entity.Booking) *entity.Booking {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	f.byID[b.ID] = b
	if b.TransactionRef != "" {
		f.byRef[b.TransactionRef] = b
	}
	return b
}

func (f *fakeBookingRepo) CreateIfFree(ctx context.Context, booking *entity.Booking) error {
	if f.createErr != nil {
		return f.createErr
	}
	for i := range f.occupying {
		if f.occupying[i].ConflictsWith(booking.StartAt, booking.ServiceEnd) {
			return entity.ErrSlotUnavailable
		}
	}
	f.add(booking)
	f.created = append(f.created, booking)
	return nil
}

func (f *fakeBookingRepo) RescheduleSwap(ctx context.Context, original, successor *entity.Booking) error {
	if f.swapErr != nil {
		return f.swapErr
	}
	for i := range f.occupying {
		if f.occupying[i].ID == original.ID {
			continue
		}
		if f.occupying[i].ConflictsWith(successor.StartAt, successor.ServiceEnd) {
			return entity.ErrSlotUnavailable
		}
	}
	original.Status = entity.BookingStatusRescheduled
	f.add(successor)
	f.swapped = append(f.swapped, [2]*entity.Booking{original, successor})
	return nil
}

func (f *fakeBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return f.byID[id], nil
}

func (f *fakeBookingRepo) FindByTransactionRef(ctx context.Context, ref string) (*entity.Booking, error) {
	return f.byRef[ref], nil
}

func (f *fakeBookingRepo) FindByClientID(ctx context.Context, clientID uuid.UUID, filter *entity.BookingFilter) ([]entity.Booking, error) {
	var out []entity.Booking
	for _, b := range f.byID {
		if b.ClientID == clientID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) FindByProviderID(ctx context.Context, providerID uuid.UUID, filter *entity.BookingFilter) ([]entity.Booking, error) {
	var out []entity.Booking
	for _, b := range f.byID {
		if b.ProviderID == providerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) ListOccupyingForDay(ctx context.Context, providerID uuid.UUID, dayStart, dayEnd time.Time, excludeBookingID *uuid.UUID) ([]entity.Booking, error) {
	var out []entity.Booking
	for i := range f.occupying {
		b := f.occupying[i]
		if excludeBookingID != nil && b.ID == *excludeBookingID {
			continue
		}
		if b.Occupies() && entity.RangesOverlap(b.StartAt, b.EndAt, dayStart, dayEnd) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) Update(ctx context.Context, booking *entity.Booking) error {
	f.updated = append(f.updated, booking)
	f.add(booking)
	return nil
}

func (f *fakeBookingRepo) SaveIfStatus(ctx context.Context, booking *entity.Booking, expectStatus entity.BookingStatus, expectPayment entity.PaymentStatus) (bool, error) {
	f.saveCalls++
	if f.saveErrOnce != nil {
		err := f.saveErrOnce
		f.saveErrOnce = nil
		return false, err
	}
	if f.saveDenied {
		return false, nil
	}
	f.add(booking)
	return true, nil
}

func (f *fakeBookingRepo) MarkReminderSent(ctx context.Context, id uuid.UUID, flag repository.ReminderFlag) (bool, error) {
	key := id.String() + ":" + string(flag)
	if f.flags[key] {
		return false, nil
	}
	f.flags[key] = true
	return true, nil
}

func (f *fakeBookingRepo) FindAwaitingDepositCreatedBetween(ctx context.Context, from, to time.Time, reminderSent bool) ([]entity.Booking, error) {
	return nil, nil
}

func (f *fakeBookingRepo) FindUnpaidCreatedBefore(ctx context.Context, cutoff time.Time) ([]entity.Booking, error) {
	return nil, nil
}

func (f *fakeBookingRepo) FindUpcomingStartingBetween(ctx context.Context, from, to time.Time, reminderSent bool) ([]entity.Booking, error) {
	return nil, nil
}

func (f *fakeBookingRepo) FindNoShowCandidates(ctx context.Context, now time.Time) ([]entity.Booking, error) {
	return nil, nil
}

func (f *fakeBookingRepo) FindCompletedBetween(ctx context.Context, from, to time.Time, reviewSent bool) ([]entity.Booking, error) {
	return nil, nil
}

type fakeProviderRepo struct {
	providers   map[uuid.UUID]*entity.Provider
	noShowBumps int
}

func newFakeProviderRepo(providers ...*entity.Provider) *fakeProviderRepo {
	f := &fakeProviderRepo{providers: map[uuid.UUID]*entity.Provider{}}
	for _, p := range providers {
		f.providers[p.UserID] = p
	}
	return f
}

func (f *fakeProviderRepo) Create(ctx context.Context, provider *entity.Provider) error {
	f.providers[provider.UserID] = provider
	return nil
}

func (f *fakeProviderRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Provider, error) {
	return f.providers[userID], nil
}

func (f *fakeProviderRepo) Update(ctx context.Context, provider *entity.Provider) error {
	f.providers[provider.UserID] = provider
	return nil
}

func (f *fakeProviderRepo) IncrementNoShowCount(ctx context.Context, userID uuid.UUID) error {
	f.noShowBumps++
	if p, ok := f.providers[userID]; ok {
		p.NoShowCount++
	}
	return nil
}

type fakeServiceRepo struct {
	services map[uuid.UUID]*entity.Service
}

func newFakeServiceRepo(services ...*entity.Service) *fakeServiceRepo {
	f := &fakeServiceRepo{services: map[uuid.UUID]*entity.Service{}}
	for _, s := range services {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		f.services[s.ID] = s
	}
	return f
}

func (f *fakeServiceRepo) Create(ctx context.Context, svc *entity.Service) error {
	if svc.ID == uuid.Nil {
		svc.ID = uuid.New()
	}
	f.services[svc.ID] = svc
	return nil
}

func (f *fakeServiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Service, error) {
	return f.services[id], nil
}

func (f *fakeServiceRepo) FindByProviderID(ctx context.Context, providerID uuid.UUID, activeOnly bool) ([]entity.Service, error) {
	var out []entity.Service
	for _, s := range f.services {
		if s.ProviderID != providerID {
			continue
		}
		if activeOnly && s.IsActive != nil && !*s.IsActive {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeServiceRepo) Update(ctx context.Context, svc *entity.Service) error {
	f.services[svc.ID] = svc
	return nil
}

func (f *fakeServiceRepo) Deactivate(ctx context.Context, id uuid.UUID) (int64, error) {
	s, ok := f.services[id]
	if !ok {
		return 0, nil
	}
	inactive := false
	s.IsActive = &inactive
	return 1, nil
}

type fakeAvailabilityRepo struct {
	rows []entity.ProviderAvailability
}

func (f *fakeAvailabilityRepo) Create(ctx context.Context, row *entity.ProviderAvailability) error {
	f.rows = append(f.rows, *row)
	return nil
}

func (f *fakeAvailabilityRepo) ReplaceForProvider(ctx context.Context, providerID uuid.UUID, rows []entity.ProviderAvailability) error {
	kept := f.rows[:0]
	for _, r := range f.rows {
		if r.ProviderID != providerID {
			kept = append(kept, r)
		}
	}
	f.rows = append(kept, rows...)
	return nil
}

func (f *fakeAvailabilityRepo) FindByProviderID(ctx context.Context, providerID uuid.UUID) ([]entity.ProviderAvailability, error) {
	var out []entity.ProviderAvailability
	for _, r := range f.rows {
		if r.ProviderID == providerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeAvailabilityRepo) FindForWeekday(ctx context.Context, providerID uuid.UUID, weekday int) ([]entity.ProviderAvailability, error) {
	var out []entity.ProviderAvailability
	for _, r := range f.rows {
		if r.ProviderID == providerID && r.Weekday == weekday && r.Active() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeAvailabilityRepo) Update(ctx context.Context, row *entity.ProviderAvailability) error {
	return nil
}

func (f *fakeAvailabilityRepo) Delete(ctx context.Context, id int) (int64, error) {
	return 0, nil
}

type fakeTimeOffRepo struct {
	entries []entity.ProviderTimeOff
}

func (f *fakeTimeOffRepo) Create(ctx context.Context, row *entity.ProviderTimeOff) error {
	f.entries = append(f.entries, *row)
	return nil
}

func (f *fakeTimeOffRepo) FindByProviderID(ctx context.Context, providerID uuid.UUID) ([]entity.ProviderTimeOff, error) {
	var out []entity.ProviderTimeOff
	for _, e := range f.entries {
		if e.ProviderID == providerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeTimeOffRepo) FindCoveringDate(ctx context.Context, providerID uuid.UUID, date time.Time) ([]entity.ProviderTimeOff, error) {
	var out []entity.ProviderTimeOff
	for _, e := range f.entries {
		if e.ProviderID == providerID && e.CoversDate(date) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeTimeOffRepo) Delete(ctx context.Context, id int) (int64, error) {
	return 0, nil
}

type fakeRescheduleRepo struct {
	requests   map[uuid.UUID]*entity.RescheduleRequest
	superseded int64
}

func newFakeRescheduleRepo() *fakeRescheduleRepo {
	return &fakeRescheduleRepo{requests: map[uuid.UUID]*entity.RescheduleRequest{}}
}

func (f *fakeRescheduleRepo) Create(ctx context.Context, req *entity.RescheduleRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	f.requests[req.ID] = req
	return nil
}

func (f *fakeRescheduleRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.RescheduleRequest, error) {
	return f.requests[id], nil
}

func (f *fakeRescheduleRepo) FindOpenByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.RescheduleRequest, error) {
	for _, r := range f.requests {
		if r.BookingID == bookingID && r.Open() {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeRescheduleRepo) SupersedeOpen(ctx context.Context, bookingID uuid.UUID) (int64, error) {
	var n int64
	for _, r := range f.requests {
		if r.BookingID == bookingID && r.Open() {
			r.Status = entity.RescheduleStatusSuperseded
			n++
		}
	}
	f.superseded += n
	return n, nil
}

func (f *fakeRescheduleRepo) Update(ctx context.Context, req *entity.RescheduleRequest) error {
	f.requests[req.ID] = req
	return nil
}

// fakeNotifier records every delivered event by name.
type fakeNotifier struct {
	events []string
}

func (f *fakeNotifier) record(event string) {
	f.events = append(f.events, event)
}

func (f *fakeNotifier) BookingCreated(ctx context.Context, b *entity.Booking) error {
	f.record("created")
	return nil
}

func (f *fakeNotifier) BookingConfirmed(ctx context.Context, b *entity.Booking) error {
	f.record("confirmed")
	return nil
}

func (f *fakeNotifier) BookingCancelled(ctx context.Context, b *entity.Booking, by string) error {
	f.record("cancelled:" + by)
	return nil
}

func (f *fakeNotifier) BookingRescheduled(ctx context.Context, old, new *entity.Booking) error {
	f.record("rescheduled")
	return nil
}

func (f *fakeNotifier) PaymentReminder(ctx context.Context, b *entity.Booking) error {
	f.record("payment_reminder")
	return nil
}

func (f *fakeNotifier) AppointmentReminder(ctx context.Context, b *entity.Booking) error {
	f.record("appointment_reminder")
	return nil
}

func (f *fakeNotifier) ReviewRequest(ctx context.Context, b *entity.Booking) error {
	f.record("review_request")
	return nil
}

func (f *fakeNotifier) RescheduleProposed(ctx context.Context, b *entity.Booking, req *entity.RescheduleRequest) error {
	f.record("reschedule_proposed")
	return nil
}

func (f *fakeNotifier) NoShowRecorded(ctx context.Context, b *entity.Booking) error {
	f.record("no_show")
	return nil
}

type fakeAuditService struct {
	actions []string
}

func (f *fakeAuditService) LogCreate(ctx context.Context, userID *uuid.UUID, action, entityName, entityID string, newValue interface{}) error {
	f.actions = append(f.actions, action)
	return nil
}

func (f *fakeAuditService) LogUpdate(ctx context.Context, userID *uuid.UUID, action, entityName, entityID string, oldValue, newValue interface{}) error {
	f.actions = append(f.actions, action)
	return nil
}

func (f *fakeAuditService) LogDelete(ctx context.Context, userID *uuid.UUID, action, entityName, entityID string, oldValue interface{}) error {
	f.actions = append(f.actions, action)
	return nil
}

type fakeGateway struct {
	chargeResp *service.ChargeResponse
	chargeErr  error
	charges    []service.ChargeRequest
	refunds    []service.RefundRequest
	refundErr  error
}

func (f *fakeGateway) CreateCharge(ctx context.Context, req service.ChargeRequest) (*service.ChargeResponse, error) {
	f.charges = append(f.charges, req)
	if f.chargeErr != nil {
		return nil, f.chargeErr
	}
	if f.chargeResp != nil {
		return f.chargeResp, nil
	}
	return &service.ChargeResponse{
		TransactionRef: "txn-" + req.BookingID.String()[:8],
		CheckoutURL:    "https://pay.example.com/" + req.BookingID.String(),
	}, nil
}

func (f *fakeGateway) Refund(ctx context.Context, req service.RefundRequest) (*service.RefundResponse, error) {
	f.refunds = append(f.refunds, req)
	if f.refundErr != nil {
		return nil, f.refundErr
	}
	return &service.RefundResponse{RefundID: "rf-1", Status: "COMPLETED"}, nil
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// newTestHoldService backs a SlotHoldService with an in-process Redis.
func newTestHoldService(t *testing.T) *service.SlotHoldService {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { require.NoError(t, client.Close()) })

	holds := service.NewSlotHoldService(client, testLogger(), time.Minute)
	t.Cleanup(holds.Stop)
	return holds
}

func authedContext(userID uuid.UUID) context.Context {
	return context.WithValue(context.Background(), middleware.UserIDKey, userID)
}
