package entity

import (
	"time"

	"github.com/google/uuid"
)

// RescheduleStatus is the lifecycle of a reschedule proposal.
type RescheduleStatus string

const (
	RescheduleStatusPending  RescheduleStatus = "pending"
	RescheduleStatusApproved RescheduleStatus = "approved"
	RescheduleStatusDenied   RescheduleStatus = "denied"
	// RescheduleStatusFailed marks a request whose approval hit a slot
	// conflict; the original booking is left untouched.
	RescheduleStatusFailed     RescheduleStatus = "failed"
	RescheduleStatusSuperseded RescheduleStatus = "superseded"
	RescheduleStatusExpired    RescheduleStatus = "expired"
)

// RescheduleRequest is a proposal to move a booking to a new date/time.
// At most one request per booking is pending at any moment; creating a new
// one supersedes the prior open request.
type RescheduleRequest struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	BookingID uuid.UUID `gorm:"type:uuid;not null;index" json:"booking_id"`

	ProposedDate  time.Time `gorm:"type:date;not null" json:"proposed_date"`
	ProposedStart time.Time `gorm:"not null" json:"proposed_start"`

	// RequestedBy records which side proposed the move.
	RequestedBy string           `gorm:"type:varchar(20);not null" json:"requested_by"`
	Status      RescheduleStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ExpiresAt   time.Time        `gorm:"not null" json:"expires_at"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Booking Booking `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
}

func (RescheduleRequest) TableName() string {
	return "reschedule_requests"
}

// Open reports whether the request is still awaiting a response.
func (r *RescheduleRequest) Open() bool {
	return r.Status == RescheduleStatusPending
}

// ExpiredAt reports whether the request has passed its expiry at the given
// instant.
func (r *RescheduleRequest) ExpiredAt(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
