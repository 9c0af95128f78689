package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type CreateServiceRequest struct {
	Name            string          `json:"name" validate:"required,min=2"`
	Description     string          `json:"description"`
	DurationMinutes int             `json:"duration_minutes" validate:"required,min=1"`
	BufferMinutes   int             `json:"buffer_minutes" validate:"gte=0"`
	Price           decimal.Decimal `json:"price" validate:"required"`
	DepositType     string          `json:"deposit_type" validate:"required,oneof=fixed percent"`
	DepositValue    decimal.Decimal `json:"deposit_value" validate:"required"`
}

type UpdateServiceRequest struct {
	Name            string          `json:"name" validate:"required,min=2"`
	Description     string          `json:"description"`
	DurationMinutes int             `json:"duration_minutes" validate:"required,min=1"`
	BufferMinutes   int             `json:"buffer_minutes" validate:"gte=0"`
	Price           decimal.Decimal `json:"price" validate:"required"`
	DepositType     string          `json:"deposit_type" validate:"required,oneof=fixed percent"`
	DepositValue    decimal.Decimal `json:"deposit_value" validate:"required"`
}

// Response DTOs

type ServiceResponse struct {
	ID              uuid.UUID       `json:"id"`
	ProviderID      uuid.UUID       `json:"provider_id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	DurationMinutes int             `json:"duration_minutes"`
	BufferMinutes   int             `json:"buffer_minutes"`
	Price           decimal.Decimal `json:"price"`
	DepositType     string          `json:"deposit_type"`
	DepositValue    decimal.Decimal `json:"deposit_value"`
	DepositAmount   decimal.Decimal `json:"deposit_amount"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type ServiceListResponse struct {
	Services []ServiceResponse `json:"services"`
	Total    int               `json:"total"`
}
