package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type CreateBookingRequest struct {
	ProviderID uuid.UUID `json:"provider_id" validate:"required"`
	ServiceID  uuid.UUID `json:"service_id" validate:"required"`
	Date       string    `json:"date" validate:"required,dateymd"`
	StartTime  string    `json:"start_time" validate:"required,hhmm"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type ProposeRescheduleRequest struct {
	Date      string `json:"date" validate:"required,dateymd"`
	StartTime string `json:"start_time" validate:"required,hhmm"`
}

type RespondRescheduleRequest struct {
	Approve bool `json:"approve"`
}

type ListBookingsRequest struct {
	FromDate string `json:"from_date" validate:"omitempty"`
	ToDate   string `json:"to_date" validate:"omitempty"`
	Status   string `json:"status" validate:"omitempty"`
	Upcoming bool   `json:"upcoming"`
}

// Response DTOs

type BookingResponse struct {
	ID                uuid.UUID  `json:"id"`
	ClientID          uuid.UUID  `json:"client_id"`
	ProviderID        uuid.UUID  `json:"provider_id"`
	ServiceID         uuid.UUID  `json:"service_id"`
	RescheduledFromID *uuid.UUID `json:"rescheduled_from_id,omitempty"`

	Date       string    `json:"date"`
	StartAt    time.Time `json:"start_at"`
	ServiceEnd time.Time `json:"service_end"`
	EndAt      time.Time `json:"end_at"`

	ServicePrice    decimal.Decimal  `json:"service_price"`
	DepositAmount   decimal.Decimal  `json:"deposit_amount"`
	ServiceFee      decimal.Decimal  `json:"service_fee"`
	TipAmount       decimal.Decimal  `json:"tip_amount"`
	TotalAmount     decimal.Decimal  `json:"total_amount"`
	Currency        string           `json:"currency"`
	CancellationFee *decimal.Decimal `json:"cancellation_fee,omitempty"`

	Status          string `json:"status"`
	PaymentStatus   string `json:"payment_status"`
	RescheduleCount int    `json:"reschedule_count"`

	Service  *ServiceResponse  `json:"service,omitempty"`
	Provider *ProviderResponse `json:"provider,omitempty"`

	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
	Total    int               `json:"total"`
}

// CreateBookingResponse carries the new booking plus the payment checkout the
// client must complete before the slot is confirmed.
type CreateBookingResponse struct {
	Booking     BookingResponse `json:"booking"`
	CheckoutURL string          `json:"checkout_url,omitempty"`
}

// CancelBookingResponse reports the money outcome of a cancellation.
type CancelBookingResponse struct {
	Booking         BookingResponse `json:"booking"`
	RefundAmount    decimal.Decimal `json:"refund_amount"`
	CancellationFee decimal.Decimal `json:"cancellation_fee"`
}

type RescheduleResponse struct {
	ID            uuid.UUID `json:"id"`
	BookingID     uuid.UUID `json:"booking_id"`
	ProposedDate  string    `json:"proposed_date"`
	ProposedStart time.Time `json:"proposed_start"`
	RequestedBy   string    `json:"requested_by"`
	Status        string    `json:"status"`
	ExpiresAt     time.Time `json:"expires_at"`
	CreatedAt     time.Time `json:"created_at"`

	// NewBooking is set when an approval produced a successor booking.
	NewBooking *BookingResponse `json:"new_booking,omitempty"`
}
