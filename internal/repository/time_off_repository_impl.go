package repository

import (
	"context"
	"time"

	"beauty-booking-api/internal/domain/entity"
	domainRepo "beauty-booking-api/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type timeOffRepository struct {
	db *gorm.DB
}

func NewTimeOffRepository(db *gorm.DB) domainRepo.TimeOffRepository {
	return &timeOffRepository{db: db}
}

func (r *timeOffRepository) Create(ctx context.Context, row *entity.ProviderTimeOff) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *timeOffRepository) FindByProviderID(ctx context.Context, providerID uuid.UUID) ([]entity.ProviderTimeOff, error) {
	var rows []entity.ProviderTimeOff
	err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("start_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *timeOffRepository) FindCoveringDate(ctx context.Context, providerID uuid.UUID, date time.Time) ([]entity.ProviderTimeOff, error) {
	day := date.Format("2006-01-02")

	var rows []entity.ProviderTimeOff
	err := r.db.WithContext(ctx).
		Where("provider_id = ? AND start_date <= ? AND end_date >= ?", providerID, day, day).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *timeOffRepository) Delete(ctx context.Context, id int) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&entity.ProviderTimeOff{}, "id = ?", id)
	return res.RowsAffected, res.Error
}
