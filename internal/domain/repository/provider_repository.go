package repository

import (
	"context"

	"beauty-booking-api/internal/domain/entity"

	"github.com/google/uuid"
)

type ProviderRepository interface {
	Create(ctx context.Context, provider *entity.Provider) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Provider, error)
	Update(ctx context.Context, provider *entity.Provider) error

	// IncrementNoShowCount bumps the provider's aggregate no-show counter.
	IncrementNoShowCount(ctx context.Context, userID uuid.UUID) error
}
