package repository

import (
	"context"

	"beauty-booking-api/internal/domain/entity"

	"github.com/google/uuid"
)

type RescheduleRepository interface {
	Create(ctx context.Context, req *entity.RescheduleRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.RescheduleRequest, error)
	FindOpenByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.RescheduleRequest, error)

	// SupersedeOpen closes any pending request for the booking so a new one
	// can be the single open proposal. Returns how many were closed.
	SupersedeOpen(ctx context.Context, bookingID uuid.UUID) (int64, error)

	Update(ctx context.Context, req *entity.RescheduleRequest) error
}
