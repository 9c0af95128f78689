package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Provider represents provider-specific profile data plus the booking policy
// knobs the scheduling core reads. Policy fields are only ever mutated through
// explicit provider edits, never by booking logic.
type Provider struct {
	UserID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	BusinessName string    `gorm:"type:varchar(255);not null" json:"business_name"`
	Bio          string    `gorm:"type:text" json:"bio,omitempty"`
	Timezone     string    `gorm:"type:varchar(64);not null;default:'UTC'" json:"timezone"`
	Currency     string    `gorm:"type:char(3);not null;default:'USD'" json:"currency"`

	// InstantBooking decides whether a paid deposit confirms the booking
	// immediately or leaves it pending manual provider confirmation.
	InstantBooking bool `gorm:"not null;default:true" json:"instant_booking"`

	// Advance window policy: bookings must start at least MinAdvanceHours from
	// now and at most AdvanceBookingDays ahead.
	MinAdvanceHours    int `gorm:"not null;default:2" json:"min_advance_hours"`
	AdvanceBookingDays int `gorm:"not null;default:60" json:"advance_booking_days"`

	// Client cancellations inside CancellationWindowHours of the appointment
	// are charged CancellationFeePercent of the amount paid. Provider-side
	// cancellations always refund in full.
	CancellationWindowHours int             `gorm:"not null;default:24" json:"cancellation_window_hours"`
	CancellationFeePercent  decimal.Decimal `gorm:"type:decimal(5,2);not null;default:50" json:"cancellation_fee_percent"`

	MaxReschedules     int `gorm:"not null;default:2" json:"max_reschedules"`
	NoShowGraceMinutes int `gorm:"not null;default:30" json:"no_show_grace_minutes"`

	// Aggregate stats maintained by the no-show detection job.
	NoShowCount int `gorm:"not null;default:0" json:"no_show_count"`

	// Relationships
	User         User                   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Services     []Service              `gorm:"foreignKey:ProviderID;references:UserID" json:"services,omitempty"`
	Availability []ProviderAvailability `gorm:"foreignKey:ProviderID;references:UserID" json:"availability,omitempty"`
	Bookings     []Booking              `gorm:"foreignKey:ProviderID;references:UserID" json:"bookings,omitempty"`
}

func (Provider) TableName() string {
	return "providers"
}
