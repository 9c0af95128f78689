package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"beauty-booking-api/internal/domain/entity"
	"beauty-booking-api/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Fakes used by the job tests. They implement only the batch selections and
// writes the jobs touch; everything else returns empty results.

type stubBookingRepo struct {
	awaitingDeposit []entity.Booking
	unpaid          []entity.Booking
	upcoming        []entity.Booking
	noShow          []entity.Booking
	completed       []entity.Booking
	selectErr       error

	saveDenied bool
	saved      []*entity.Booking
	flags      map[string]bool
}

func newStubBookingRepo() *stubBookingRepo {
	return &stubBookingRepo{flags: map[string]bool{}}
}

func (f *stubBookingRepo) CreateIfFree(ctx context.Context, booking *entity.Booking) error {
	return nil
}

func (f *stubBookingRepo) RescheduleSwap(ctx context.Context, original, successor *entity.Booking) error {
	return nil
}

func (f *stubBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return nil, nil
}

func (f *stubBookingRepo) FindByTransactionRef(ctx context.Context, ref string) (*entity.Booking, error) {
	return nil, nil
}

func (f *stubBookingRepo) FindByClientID(ctx context.Context, clientID uuid.UUID, filter *entity.BookingFilter) ([]entity.Booking, error) {
	return nil, nil
}

func (f *stubBookingRepo) FindByProviderID(ctx context.Context, providerID uuid.UUID, filter *entity.BookingFilter) ([]entity.Booking, error) {
	return nil, nil
}

func (f *stubBookingRepo) ListOccupyingForDay(ctx context.Context, providerID uuid.UUID, dayStart, dayEnd time.Time, excludeBookingID *uuid.UUID) ([]entity.Booking, error) {
	return nil, nil
}

func (f *stubBookingRepo) Update(ctx context.Context, booking *entity.Booking) error {
	return nil
}

func (f *stubBookingRepo) SaveIfStatus(ctx context.Context, booking *entity.Booking, expectStatus entity.BookingStatus, expectPayment entity.PaymentStatus) (bool, error) {
	if f.saveDenied {
		return false, nil
	}
	f.saved = append(f.saved, booking)
	return true, nil
}

func (f *stubBookingRepo) MarkReminderSent(ctx context.Context, id uuid.UUID, flag repository.ReminderFlag) (bool, error) {
	key := id.String() + ":" + string(flag)
	if f.flags[key] {
		return false, nil
	}
	f.flags[key] = true
	return true, nil
}

func (f *stubBookingRepo) FindAwaitingDepositCreatedBetween(ctx context.Context, from, to time.Time, reminderSent bool) ([]entity.Booking, error) {
	return f.awaitingDeposit, f.selectErr
}

func (f *stubBookingRepo) FindUnpaidCreatedBefore(ctx context.Context, cutoff time.Time) ([]entity.Booking, error) {
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	var out []entity.Booking
	for _, b := range f.unpaid {
		if !b.CreatedAt.After(cutoff) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *stubBookingRepo) FindUpcomingStartingBetween(ctx context.Context, from, to time.Time, reminderSent bool) ([]entity.Booking, error) {
	return f.upcoming, f.selectErr
}

func (f *stubBookingRepo) FindNoShowCandidates(ctx context.Context, now time.Time) ([]entity.Booking, error) {
	return f.noShow, f.selectErr
}

func (f *stubBookingRepo) FindCompletedBetween(ctx context.Context, from, to time.Time, reviewSent bool) ([]entity.Booking, error) {
	return f.completed, f.selectErr
}

type stubProviderRepo struct {
	noShowBumps int
}

func (f *stubProviderRepo) Create(ctx context.Context, provider *entity.Provider) error { return nil }

func (f *stubProviderRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Provider, error) {
	return nil, nil
}

func (f *stubProviderRepo) Update(ctx context.Context, provider *entity.Provider) error { return nil }

func (f *stubProviderRepo) IncrementNoShowCount(ctx context.Context, userID uuid.UUID) error {
	f.noShowBumps++
	return nil
}

type stubNotifier struct {
	events   []string
	failAll  bool
	failNext int
}

func (f *stubNotifier) note(event string) error {
	if f.failAll {
		return errors.New("delivery down")
	}
	if f.failNext > 0 {
		f.failNext--
		return errors.New("delivery down")
	}
	f.events = append(f.events, event)
	return nil
}

func (f *stubNotifier) BookingCreated(ctx context.Context, b *entity.Booking) error {
	return f.note("created")
}

func (f *stubNotifier) BookingConfirmed(ctx context.Context, b *entity.Booking) error {
	return f.note("confirmed")
}

func (f *stubNotifier) BookingCancelled(ctx context.Context, b *entity.Booking, by string) error {
	return f.note("cancelled:" + by)
}

func (f *stubNotifier) BookingRescheduled(ctx context.Context, old, new *entity.Booking) error {
	return f.note("rescheduled")
}

func (f *stubNotifier) PaymentReminder(ctx context.Context, b *entity.Booking) error {
	return f.note("payment_reminder")
}

func (f *stubNotifier) AppointmentReminder(ctx context.Context, b *entity.Booking) error {
	return f.note("appointment_reminder")
}

func (f *stubNotifier) ReviewRequest(ctx context.Context, b *entity.Booking) error {
	return f.note("review_request")
}

func (f *stubNotifier) RescheduleProposed(ctx context.Context, b *entity.Booking, req *entity.RescheduleRequest) error {
	return f.note("reschedule_proposed")
}

func (f *stubNotifier) NoShowRecorded(ctx context.Context, b *entity.Booking) error {
	return f.note("no_show")
}

type stubAudit struct {
	actions []string
}

func (f *stubAudit) LogCreate(ctx context.Context, userID *uuid.UUID, action, entityName, entityID string, newValue interface{}) error {
	f.actions = append(f.actions, action)
	return nil
}

func (f *stubAudit) LogUpdate(ctx context.Context, userID *uuid.UUID, action, entityName, entityID string, oldValue, newValue interface{}) error {
	f.actions = append(f.actions, action)
	return nil
}

func (f *stubAudit) LogDelete(ctx context.Context, userID *uuid.UUID, action, entityName, entityID string, oldValue interface{}) error {
	f.actions = append(f.actions, action)
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func pendingUnpaid(id uuid.UUID) entity.Booking {
	return entity.Booking{
		ID:            id,
		ClientID:      uuid.New(),
		ProviderID:    uuid.New(),
		Status:        entity.BookingStatusPending,
		PaymentStatus: entity.PaymentStatusAwaitingDeposit,
	}
}

func TestAutoCancelUnpaidJob(t *testing.T) {
	repo := newStubBookingRepo()
	notifier := &stubNotifier{}
	audit := &stubAudit{}

	raced := pendingUnpaid(uuid.New())
	raced.Status = entity.BookingStatusCompleted
	raced.PaymentStatus = entity.PaymentStatusFullyPaid
	repo.unpaid = []entity.Booking{pendingUnpaid(uuid.New()), raced}

	job := NewAutoCancelUnpaidJob(quietLogger(), repo, notifier, audit, time.Hour)
	job.now = func() time.Time { return time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, job.Run(context.Background()))

	// Only the pending booking matches; the one whose status moved between
	// the query and the sweep is skipped without error.
	require.Len(t, repo.saved, 1)
	cancelled := repo.saved[0]
	assert.Equal(t, entity.BookingStatusCancelledByClient, cancelled.Status)
	assert.Equal(t, "Deposit payment not received within 24 hours", cancelled.CancellationReason)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, []string{"cancelled:system"}, notifier.events)
	assert.Equal(t, []string{entity.AuditActionBookingCancel}, audit.actions)
}

func TestAutoCancelUnpaidJobHonorsPaymentWindow(t *testing.T) {
	repo := newStubBookingRepo()
	notifier := &stubNotifier{}
	createdAt := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)

	booking := pendingUnpaid(uuid.New())
	booking.CreatedAt = createdAt
	repo.unpaid = []entity.Booking{booking}

	job := NewAutoCancelUnpaidJob(quietLogger(), repo, notifier, &stubAudit{}, time.Hour)

	// One minute short of 24h: the client can still pay.
	job.now = func() time.Time { return createdAt.Add(24*time.Hour - time.Minute) }
	require.NoError(t, job.Run(context.Background()))
	assert.Empty(t, repo.saved)
	assert.Empty(t, notifier.events)

	// One minute past 24h: the deposit window has lapsed.
	job.now = func() time.Time { return createdAt.Add(24*time.Hour + time.Minute) }
	require.NoError(t, job.Run(context.Background()))
	require.Len(t, repo.saved, 1)
	assert.Equal(t, entity.BookingStatusCancelledByClient, repo.saved[0].Status)
}

func TestAutoCancelUnpaidJobLostRace(t *testing.T) {
	repo := newStubBookingRepo()
	repo.unpaid = []entity.Booking{pendingUnpaid(uuid.New())}
	repo.saveDenied = true
	notifier := &stubNotifier{}

	job := NewAutoCancelUnpaidJob(quietLogger(), repo, notifier, &stubAudit{}, time.Hour)
	require.NoError(t, job.Run(context.Background()))

	assert.Empty(t, notifier.events, "a lost save race must not notify")
}

func TestPaymentReminderJobSendsOnce(t *testing.T) {
	repo := newStubBookingRepo()
	notifier := &stubNotifier{}
	repo.awaitingDeposit = []entity.Booking{pendingUnpaid(uuid.New())}

	job := NewPaymentReminderJob(quietLogger(), repo, notifier, time.Hour)

	require.NoError(t, job.Run(context.Background()))
	require.NoError(t, job.Run(context.Background()))

	// The one-shot flag absorbs the second run.
	assert.Equal(t, []string{"payment_reminder"}, notifier.events)
}

func TestPaymentReminderJobNotifierFailure(t *testing.T) {
	repo := newStubBookingRepo()
	notifier := &stubNotifier{failAll: true}
	repo.awaitingDeposit = []entity.Booking{pendingUnpaid(uuid.New())}

	job := NewPaymentReminderJob(quietLogger(), repo, notifier, time.Hour)
	assert.Error(t, job.Run(context.Background()))
}

func TestPaymentReminderJobEscalatesOnSystemicFailure(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	repo := newStubBookingRepo()
	notifier := &stubNotifier{failAll: true}
	repo.awaitingDeposit = []entity.Booking{pendingUnpaid(uuid.New()), pendingUnpaid(uuid.New())}

	job := NewPaymentReminderJob(log, repo, notifier, time.Hour)
	require.Error(t, job.Run(context.Background()))

	// Every item failed: that is an outage, not bad data.
	var escalated bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel {
			escalated = true
		}
	}
	assert.True(t, escalated, "a run where every delivery fails must log at error level")
}

func TestPaymentReminderJobIsolatedFailureStaysAtWarn(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	repo := newStubBookingRepo()
	notifier := &stubNotifier{failNext: 1}
	repo.awaitingDeposit = []entity.Booking{
		pendingUnpaid(uuid.New()), pendingUnpaid(uuid.New()), pendingUnpaid(uuid.New()),
	}

	job := NewPaymentReminderJob(log, repo, notifier, time.Hour)
	require.Error(t, job.Run(context.Background()))

	for _, e := range hook.AllEntries() {
		assert.NotEqual(t, logrus.ErrorLevel, e.Level, "one bad item out of three must not escalate: %s", e.Message)
	}
	assert.Len(t, notifier.events, 2, "the remaining items still go out")
}

func TestAppointmentReminderJob(t *testing.T) {
	repo := newStubBookingRepo()
	notifier := &stubNotifier{}
	b := pendingUnpaid(uuid.New())
	b.Status = entity.BookingStatusConfirmed
	repo.upcoming = []entity.Booking{b}

	job := NewAppointmentReminderJob(quietLogger(), repo, notifier, time.Hour)

	require.NoError(t, job.Run(context.Background()))
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, []string{"appointment_reminder"}, notifier.events)
}

func TestNoShowDetectionJob(t *testing.T) {
	repo := newStubBookingRepo()
	providers := &stubProviderRepo{}
	notifier := &stubNotifier{}

	candidate := pendingUnpaid(uuid.New())
	candidate.Status = entity.BookingStatusConfirmed
	candidate.PaymentStatus = entity.PaymentStatusDepositPaid
	stale := pendingUnpaid(uuid.New())
	stale.Status = entity.BookingStatusCompleted
	repo.noShow = []entity.Booking{candidate, stale}

	job := NewNoShowDetectionJob(quietLogger(), repo, providers, notifier, &stubAudit{}, time.Hour)
	require.NoError(t, job.Run(context.Background()))

	require.Len(t, repo.saved, 1)
	assert.Equal(t, entity.BookingStatusNoShow, repo.saved[0].Status)
	// Deposit stays captured.
	assert.Equal(t, entity.PaymentStatusDepositPaid, repo.saved[0].PaymentStatus)
	assert.Equal(t, 1, providers.noShowBumps)
	assert.Equal(t, []string{"no_show"}, notifier.events)
}

func TestReviewReminderJob(t *testing.T) {
	repo := newStubBookingRepo()
	notifier := &stubNotifier{}
	done := pendingUnpaid(uuid.New())
	done.Status = entity.BookingStatusCompleted
	repo.completed = []entity.Booking{done}

	job := NewReviewReminderJob(quietLogger(), repo, notifier, time.Hour)

	require.NoError(t, job.Run(context.Background()))
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, []string{"review_request"}, notifier.events)
}

// tickJob counts runs and can block to force tick skipping.
type tickJob struct {
	runs  atomic.Int32
	block chan struct{}
}

func (j *tickJob) Name() string            { return "tick" }
func (j *tickJob) Interval() time.Duration { return 5 * time.Millisecond }

func (j *tickJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.block != nil {
		<-j.block
	}
	return nil
}

func TestRunnerRunsAndStops(t *testing.T) {
	job := &tickJob{}
	runner := NewRunner(quietLogger(), job)

	runner.Start()
	assert.Eventually(t, func() bool { return job.runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
	runner.Stop()

	after := job.runs.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, job.runs.Load(), "no runs may happen after Stop")
}

func TestRunnerSkipsTicksWhileRunning(t *testing.T) {
	job := &tickJob{block: make(chan struct{})}
	runner := NewRunner(quietLogger(), job)

	runner.Start()
	assert.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, time.Millisecond)

	// Several intervals pass while the first run is still in flight.
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), job.runs.Load())

	close(job.block)
	runner.Stop()
}
