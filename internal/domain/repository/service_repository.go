package repository

import (
	"context"

	"beauty-booking-api/internal/domain/entity"

	"github.com/google/uuid"
)

type ServiceRepository interface {
	Create(ctx context.Context, service *entity.Service) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Service, error)
	FindByProviderID(ctx context.Context, providerID uuid.UUID, activeOnly bool) ([]entity.Service, error)
	Update(ctx context.Context, service *entity.Service) error
	Deactivate(ctx context.Context, id uuid.UUID) (int64, error)
}
