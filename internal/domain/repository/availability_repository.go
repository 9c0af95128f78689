package repository

import (
	"context"

	"beauty-booking-api/internal/domain/entity"

	"github.com/google/uuid"
)

type AvailabilityRepository interface {
	Create(ctx context.Context, row *entity.ProviderAvailability) error

	// ReplaceForProvider swaps the provider's whole weekly template in one
	// transaction so readers never see a half-applied template.
	ReplaceForProvider(ctx context.Context, providerID uuid.UUID, rows []entity.ProviderAvailability) error

	FindByProviderID(ctx context.Context, providerID uuid.UUID) ([]entity.ProviderAvailability, error)
	FindForWeekday(ctx context.Context, providerID uuid.UUID, weekday int) ([]entity.ProviderAvailability, error)
	Update(ctx context.Context, row *entity.ProviderAvailability) error
	Delete(ctx context.Context, id int) (int64, error)
}
