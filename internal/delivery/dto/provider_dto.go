package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type UpdateProviderProfileRequest struct {
	BusinessName string `json:"business_name" validate:"omitempty,min=2"`
	Bio          string `json:"bio" validate:"omitempty"`
	Timezone     string `json:"timezone" validate:"omitempty"`
}

// UpdateProviderPolicyRequest edits the booking policy knobs. Pointer fields
// distinguish "leave unchanged" from an explicit zero.
type UpdateProviderPolicyRequest struct {
	InstantBooking          *bool            `json:"instant_booking" validate:"omitempty"`
	MinAdvanceHours         *int             `json:"min_advance_hours" validate:"omitempty,gte=0"`
	AdvanceBookingDays      *int             `json:"advance_booking_days" validate:"omitempty,min=1,max=365"`
	CancellationWindowHours *int             `json:"cancellation_window_hours" validate:"omitempty,gte=0"`
	CancellationFeePercent  *decimal.Decimal `json:"cancellation_fee_percent" validate:"omitempty"`
	MaxReschedules          *int             `json:"max_reschedules" validate:"omitempty,gte=0"`
	NoShowGraceMinutes      *int             `json:"no_show_grace_minutes" validate:"omitempty,min=1"`
}

// Response DTOs

type ProviderResponse struct {
	UserID                  uuid.UUID       `json:"user_id"`
	BusinessName            string          `json:"business_name"`
	Bio                     string          `json:"bio,omitempty"`
	Timezone                string          `json:"timezone"`
	Currency                string          `json:"currency"`
	InstantBooking          bool            `json:"instant_booking"`
	MinAdvanceHours         int             `json:"min_advance_hours"`
	AdvanceBookingDays      int             `json:"advance_booking_days"`
	CancellationWindowHours int             `json:"cancellation_window_hours"`
	CancellationFeePercent  decimal.Decimal `json:"cancellation_fee_percent"`
	MaxReschedules          int             `json:"max_reschedules"`
	NoShowGraceMinutes      int             `json:"no_show_grace_minutes"`
	NoShowCount             int             `json:"no_show_count"`
}
