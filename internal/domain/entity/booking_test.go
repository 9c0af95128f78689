package entity

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingStatusTransitions(t *testing.T) {
	tests := []struct {
		from    BookingStatus
		to      BookingStatus
		allowed bool
	}{
		{BookingStatusPending, BookingStatusConfirmed, true},
		{BookingStatusPending, BookingStatusCancelledByClient, true},
		{BookingStatusPending, BookingStatusCancelledByProvider, true},
		{BookingStatusPending, BookingStatusCompleted, false},
		{BookingStatusPending, BookingStatusNoShow, false},
		{BookingStatusPending, BookingStatusRescheduled, false},
		{BookingStatusConfirmed, BookingStatusCompleted, true},
		{BookingStatusConfirmed, BookingStatusNoShow, true},
		{BookingStatusConfirmed, BookingStatusRescheduled, true},
		{BookingStatusConfirmed, BookingStatusCancelledByClient, true},
		{BookingStatusConfirmed, BookingStatusPending, false},
		{BookingStatusCompleted, BookingStatusConfirmed, false},
		{BookingStatusCancelledByClient, BookingStatusConfirmed, false},
		{BookingStatusNoShow, BookingStatusCompleted, false},
		{BookingStatusRescheduled, BookingStatusConfirmed, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			b := &Booking{Status: tt.from}
			err := b.TransitionStatus(tt.to)
			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, tt.to, b.Status)
			} else {
				var invalid *InvalidTransitionError
				require.ErrorAs(t, err, &invalid)
				assert.Equal(t, tt.from, b.Status, "status must not change on rejected transition")
			}
		})
	}
}

func TestPaymentStatusTransitions(t *testing.T) {
	tests := []struct {
		from    PaymentStatus
		to      PaymentStatus
		allowed bool
	}{
		{PaymentStatusAwaitingDeposit, PaymentStatusDepositPaid, true},
		{PaymentStatusAwaitingDeposit, PaymentStatusFullyPaid, false},
		{PaymentStatusAwaitingDeposit, PaymentStatusRefunded, false},
		{PaymentStatusDepositPaid, PaymentStatusFullyPaid, true},
		{PaymentStatusDepositPaid, PaymentStatusRefunded, true},
		{PaymentStatusDepositPaid, PaymentStatusPartiallyRefunded, true},
		{PaymentStatusFullyPaid, PaymentStatusRefunded, true},
		{PaymentStatusFullyPaid, PaymentStatusPartiallyRefunded, true},
		{PaymentStatusFullyPaid, PaymentStatusDepositPaid, false},
		{PaymentStatusRefunded, PaymentStatusDepositPaid, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			b := &Booking{PaymentStatus: tt.from}
			err := b.TransitionPaymentStatus(tt.to)
			if tt.allowed {
				require.NoError(t, err)
			} else {
				var invalid *InvalidTransitionError
				require.ErrorAs(t, err, &invalid)
			}
		})
	}
}

func TestRangesOverlap(t *testing.T) {
	base := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	at := func(m int) time.Time { return base.Add(time.Duration(m) * time.Minute) }

	tests := []struct {
		name string
		s1   time.Time
		e1   time.Time
		s2   time.Time
		e2   time.Time
		want bool
	}{
		{"disjoint before", at(0), at(30), at(60), at(90), false},
		{"disjoint after", at(60), at(90), at(0), at(30), false},
		{"touching end to start", at(0), at(60), at(60), at(120), false},
		{"touching start to end", at(60), at(120), at(0), at(60), false},
		{"partial overlap", at(0), at(60), at(30), at(90), true},
		{"contained", at(0), at(120), at(30), at(60), true},
		{"containing", at(30), at(60), at(0), at(120), true},
		{"identical", at(0), at(60), at(0), at(60), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RangesOverlap(tt.s1, tt.e1, tt.s2, tt.e2))
		})
	}
}

func TestBookingConflictsWith(t *testing.T) {
	// Stored interval carries the trailing buffer: 10:00-11:15 for a 60 min
	// service with a 15 min buffer.
	start := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	booking := &Booking{
		Status:  BookingStatusConfirmed,
		StartAt: start,
		EndAt:   start.Add(75 * time.Minute),
	}

	// A candidate ending exactly at the stored start does not conflict.
	assert.False(t, booking.ConflictsWith(start.Add(-60*time.Minute), start))
	// A candidate starting inside the buffer tail still conflicts.
	assert.True(t, booking.ConflictsWith(start.Add(70*time.Minute), start.Add(130*time.Minute)))
	// A candidate starting exactly at the buffered end is free.
	assert.False(t, booking.ConflictsWith(start.Add(75*time.Minute), start.Add(135*time.Minute)))
	assert.True(t, booking.ConflictsWith(start.Add(30*time.Minute), start.Add(90*time.Minute)))
}

func TestBookingConflictsWithIgnoresNonOccupying(t *testing.T) {
	start := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	for _, status := range []BookingStatus{
		BookingStatusCancelledByClient,
		BookingStatusCancelledByProvider,
		BookingStatusCompleted,
		BookingStatusNoShow,
		BookingStatusRescheduled,
	} {
		b := &Booking{Status: status, StartAt: start, EndAt: start.Add(time.Hour)}
		assert.False(t, b.ConflictsWith(start, start.Add(time.Hour)), "status %s must not occupy time", status)
	}
}

func TestBookingAmountPaid(t *testing.T) {
	b := &Booking{
		DepositAmount: decimal.NewFromInt(30),
		TotalAmount:   decimal.NewFromInt(110),
	}

	b.PaymentStatus = PaymentStatusAwaitingDeposit
	assert.True(t, b.AmountPaid().IsZero())

	b.PaymentStatus = PaymentStatusDepositPaid
	assert.True(t, b.AmountPaid().Equal(decimal.NewFromInt(30)))

	b.PaymentStatus = PaymentStatusFullyPaid
	assert.True(t, b.AmountPaid().Equal(decimal.NewFromInt(110)))
}

func TestBookingIsTerminal(t *testing.T) {
	for status, terminal := range map[BookingStatus]bool{
		BookingStatusPending:             false,
		BookingStatusConfirmed:           false,
		BookingStatusCompleted:           true,
		BookingStatusCancelledByClient:   true,
		BookingStatusCancelledByProvider: true,
		BookingStatusNoShow:              true,
		BookingStatusRescheduled:         true,
	} {
		b := &Booking{Status: status}
		assert.Equal(t, terminal, b.IsTerminal(), "status %s", status)
	}
}
