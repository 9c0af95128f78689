package repository

import (
	"context"
	"errors"

	"beauty-booking-api/internal/domain/entity"
	domainRepo "beauty-booking-api/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type rescheduleRepository struct {
	db *gorm.DB
}

func NewRescheduleRepository(db *gorm.DB) domainRepo.RescheduleRepository {
	return &rescheduleRepository{db: db}
}

func (r *rescheduleRepository) Create(ctx context.Context, req *entity.RescheduleRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *rescheduleRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.RescheduleRequest, error) {
	var req entity.RescheduleRequest
	err := r.db.WithContext(ctx).
		Preload("Booking").
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

func (r *rescheduleRepository) FindOpenByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.RescheduleRequest, error) {
	var req entity.RescheduleRequest
	err := r.db.WithContext(ctx).
		Where("booking_id = ? AND status = ?", bookingID, entity.RescheduleStatusPending).
		Order("created_at DESC").
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

func (r *rescheduleRepository) SupersedeOpen(ctx context.Context, bookingID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&entity.RescheduleRequest{}).
		Where("booking_id = ? AND status = ?", bookingID, entity.RescheduleStatusPending).
		Update("status", entity.RescheduleStatusSuperseded)
	return res.RowsAffected, res.Error
}

func (r *rescheduleRepository) Update(ctx context.Context, req *entity.RescheduleRequest) error {
	return r.db.WithContext(ctx).Omit("Booking").Save(req).Error
}
