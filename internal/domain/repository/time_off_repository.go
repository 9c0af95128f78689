package repository

import (
	"context"
	"time"

	"beauty-booking-api/internal/domain/entity"

	"github.com/google/uuid"
)

type TimeOffRepository interface {
	Create(ctx context.Context, row *entity.ProviderTimeOff) error
	FindByProviderID(ctx context.Context, providerID uuid.UUID) ([]entity.ProviderTimeOff, error)

	// FindCoveringDate returns time-off entries whose date range includes the
	// given day, both full-day and partial.
	FindCoveringDate(ctx context.Context, providerID uuid.UUID, date time.Time) ([]entity.ProviderTimeOff, error)

	Delete(ctx context.Context, id int) (int64, error)
}
