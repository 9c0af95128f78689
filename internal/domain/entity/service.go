package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DepositType selects how a service's deposit is computed.
type DepositType string

const (
	DepositTypeFixed   DepositType = "fixed"
	DepositTypePercent DepositType = "percent"
)

// Service is an offering a provider can be booked for. Read-only input to
// booking creation; booking logic never mutates it.
type Service struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProviderID  uuid.UUID `gorm:"type:uuid;not null;index" json:"provider_id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`

	// DurationMinutes must be positive; zero-duration services are rejected
	// before reaching the availability calculator.
	DurationMinutes int `gorm:"not null" json:"duration_minutes"`
	BufferMinutes   int `gorm:"not null;default:0" json:"buffer_minutes"`

	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	DepositType  DepositType     `gorm:"type:varchar(10);not null;default:'percent'" json:"deposit_type"`
	DepositValue decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"deposit_value"`

	IsActive  *bool     `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Provider Provider `gorm:"foreignKey:ProviderID;references:UserID" json:"provider,omitempty"`
}

func (Service) TableName() string {
	return "services"
}

// Duration returns the service time as a duration.
func (s *Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

// Buffer returns the post-appointment buffer as a duration.
func (s *Service) Buffer() time.Duration {
	return time.Duration(s.BufferMinutes) * time.Minute
}

// SlotLength is the full footprint a booking of this service occupies:
// service time plus trailing buffer.
func (s *Service) SlotLength() time.Duration {
	return s.Duration() + s.Buffer()
}

// Deposit computes the deposit owed for this service, rounded to cents.
// A percent policy is applied against the price; a fixed policy is capped at
// the price so the deposit can never exceed the service amount.
func (s *Service) Deposit() decimal.Decimal {
	switch s.DepositType {
	case DepositTypeFixed:
		if s.DepositValue.GreaterThan(s.Price) {
			return s.Price
		}
		return s.DepositValue
	case DepositTypePercent:
		return s.Price.Mul(s.DepositValue).Div(decimal.NewFromInt(100)).Round(2)
	default:
		return decimal.Zero
	}
}
