package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RegisterClientRequest registers a booking client.
type RegisterClientRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	FullName    string `json:"full_name" validate:"required,min=2"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,min=10,max=20"`
}

// RegisterProviderRequest registers a provider with their business profile.
type RegisterProviderRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=6"`
	FullName     string `json:"full_name" validate:"required,min=2"`
	PhoneNumber  string `json:"phone_number" validate:"omitempty,min=10,max=20"`
	BusinessName string `json:"business_name" validate:"required,min=2"`
	Bio          string `json:"bio" validate:"omitempty"`
	Timezone     string `json:"timezone" validate:"omitempty"`
	Currency     string `json:"currency" validate:"omitempty,len=3"`
}

// Response DTOs

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type UserResponse struct {
	ID              uuid.UUID         `json:"id"`
	Email           string            `json:"email"`
	FullName        string            `json:"full_name"`
	PhoneNumber     string            `json:"phone_number,omitempty"`
	Role            string            `json:"role"`
	ProviderProfile *ProviderResponse `json:"provider_profile,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}
