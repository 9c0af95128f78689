package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookingStatus is the lifecycle axis of a booking. It is independent of
// PaymentStatus; the two must never be conflated in checks.
type BookingStatus string

const (
	BookingStatusPending             BookingStatus = "pending"
	BookingStatusConfirmed           BookingStatus = "confirmed"
	BookingStatusCompleted           BookingStatus = "completed"
	BookingStatusCancelledByClient   BookingStatus = "cancelled_by_client"
	BookingStatusCancelledByProvider BookingStatus = "cancelled_by_provider"
	BookingStatusNoShow              BookingStatus = "no_show"
	BookingStatusRescheduled         BookingStatus = "rescheduled"
)

// PaymentStatus tracks money independently of the booking lifecycle.
type PaymentStatus string

const (
	PaymentStatusAwaitingDeposit   PaymentStatus = "awaiting_deposit"
	PaymentStatusDepositPaid       PaymentStatus = "deposit_paid"
	PaymentStatusFullyPaid         PaymentStatus = "fully_paid"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

// bookingTransitions is the only source of truth for legal status changes.
// Anything not listed here is rejected with InvalidTransitionError.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending: {
		BookingStatusConfirmed,
		BookingStatusCancelledByClient,
		BookingStatusCancelledByProvider,
	},
	BookingStatusConfirmed: {
		BookingStatusCompleted,
		BookingStatusCancelledByClient,
		BookingStatusCancelledByProvider,
		BookingStatusNoShow,
		BookingStatusRescheduled,
	},
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusAwaitingDeposit: {PaymentStatusDepositPaid},
	PaymentStatusDepositPaid: {
		PaymentStatusFullyPaid,
		PaymentStatusRefunded,
		PaymentStatusPartiallyRefunded,
	},
	PaymentStatusFullyPaid: {
		PaymentStatusRefunded,
		PaymentStatusPartiallyRefunded,
	},
}

// Booking represents a single appointment between a client and a provider.
// Rows are never deleted; cancellation and no-show are terminal statuses.
type Booking struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ClientID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"client_id"`
	ProviderID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"provider_id"`
	ServiceID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"service_id"`
	TeamMemberID      *uuid.UUID `gorm:"type:uuid;index" json:"team_member_id,omitempty"`
	RescheduledFromID *uuid.UUID `gorm:"type:uuid;index" json:"rescheduled_from_id,omitempty"`

	// Date is the appointment day; StartAt/EndAt are absolute instants.
	// EndAt already includes the service's trailing buffer time.
	Date    time.Time `gorm:"type:date;not null;index:idx_bookings_provider_date" json:"date"`
	StartAt time.Time `gorm:"not null" json:"start_at"`
	EndAt   time.Time `gorm:"not null" json:"end_at"`

	// ServiceEnd is where the service proper ends, before the trailing
	// buffer. The storage-level exclusion constraint ranges over
	// [StartAt, ServiceEnd): service intervals of two bookings that pass
	// the overlap predicate are always disjoint, while their buffered
	// intervals need not be, so excluding on EndAt would reject bookings
	// the predicate allows.
	ServiceEnd time.Time `gorm:"not null" json:"service_end"`

	ServicePrice  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"service_price"`
	DepositAmount decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"deposit_amount"`
	ServiceFee    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"service_fee"`
	TipAmount     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"tip_amount"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	Currency      string          `gorm:"type:char(3);not null" json:"currency"`

	Status        BookingStatus `gorm:"type:varchar(30);not null;default:'pending';index:idx_bookings_provider_date" json:"status"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(30);not null;default:'awaiting_deposit';index" json:"payment_status"`

	// TransactionRef correlates asynchronous gateway events back to this row.
	TransactionRef string `gorm:"type:varchar(100);index" json:"transaction_ref,omitempty"`

	// One-shot notification flags. Each transitions false -> true exactly once
	// and is the sole guard against duplicate sends.
	PaymentReminderSent bool `gorm:"not null;default:false" json:"payment_reminder_sent"`
	ReminderSent        bool `gorm:"not null;default:false" json:"reminder_sent"`
	ReviewReminderSent  bool `gorm:"not null;default:false" json:"review_reminder_sent"`

	RescheduleCount    int              `gorm:"not null;default:0" json:"reschedule_count"`
	CancelledAt        *time.Time       `json:"cancelled_at,omitempty"`
	CancellationReason string           `gorm:"type:text" json:"cancellation_reason,omitempty"`
	CancellationFee    *decimal.Decimal `gorm:"type:decimal(10,2)" json:"cancellation_fee,omitempty"`
	CompletedAt        *time.Time       `json:"completed_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Client   User     `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Provider Provider `gorm:"foreignKey:ProviderID;references:UserID" json:"provider,omitempty"`
	Service  Service  `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
}

func (Booking) TableName() string {
	return "bookings"
}

// RangesOverlap reports whether two half-open intervals [s1,e1) and [s2,e2)
// overlap. This is the single predicate shared by the availability calculator
// and the conflict detector.
func RangesOverlap(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// Occupies reports whether this booking blocks its time range. Cancelled,
// no-show, rescheduled and completed bookings do not occupy time.
func (b *Booking) Occupies() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}

// ConflictsWith reports whether a candidate service interval [start,end)
// collides with this booking's stored interval. EndAt already carries the
// trailing buffer, so back-to-back bookings keep one buffer between them.
func (b *Booking) ConflictsWith(start, end time.Time) bool {
	if !b.Occupies() {
		return false
	}
	return RangesOverlap(start, end, b.StartAt, b.EndAt)
}

// CanTransitionTo reports whether the booking-status change is legal.
func (s BookingStatus) CanTransitionTo(to BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the payment-status change is legal.
func (s PaymentStatus) CanTransitionTo(to PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// TransitionStatus applies a booking-status change, rejecting anything not in
// the transition table.
func (b *Booking) TransitionStatus(to BookingStatus) error {
	if !b.Status.CanTransitionTo(to) {
		return &InvalidTransitionError{Entity: "booking", From: string(b.Status), To: string(to)}
	}
	b.Status = to
	return nil
}

// TransitionPaymentStatus applies a payment-status change, rejecting anything
// not in the transition table.
func (b *Booking) TransitionPaymentStatus(to PaymentStatus) error {
	if !b.PaymentStatus.CanTransitionTo(to) {
		return &InvalidTransitionError{Entity: "payment", From: string(b.PaymentStatus), To: string(to)}
	}
	b.PaymentStatus = to
	return nil
}

// AmountPaid returns how much money has actually been captured for this
// booking, derived from the payment status.
func (b *Booking) AmountPaid() decimal.Decimal {
	switch b.PaymentStatus {
	case PaymentStatusDepositPaid:
		return b.DepositAmount
	case PaymentStatusFullyPaid, PaymentStatusRefunded, PaymentStatusPartiallyRefunded:
		return b.TotalAmount
	default:
		return decimal.Zero
	}
}

// IsTerminal reports whether no further booking-status transitions are legal.
func (b *Booking) IsTerminal() bool {
	return len(bookingTransitions[b.Status]) == 0
}

func (b *Booking) IsPending() bool {
	return b.Status == BookingStatusPending
}

func (b *Booking) IsConfirmed() bool {
	return b.Status == BookingStatusConfirmed
}

func (b *Booking) IsCancelled() bool {
	return b.Status == BookingStatusCancelledByClient || b.Status == BookingStatusCancelledByProvider
}
