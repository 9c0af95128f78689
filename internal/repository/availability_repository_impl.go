package repository

import (
	"context"

	"beauty-booking-api/internal/domain/entity"
	domainRepo "beauty-booking-api/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type availabilityRepository struct {
	db *gorm.DB
}

func NewAvailabilityRepository(db *gorm.DB) domainRepo.AvailabilityRepository {
	return &availabilityRepository{db: db}
}

func (r *availabilityRepository) Create(ctx context.Context, row *entity.ProviderAvailability) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *availabilityRepository) ReplaceForProvider(ctx context.Context, providerID uuid.UUID, rows []entity.ProviderAvailability) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("provider_id = ?", providerID).Delete(&entity.ProviderAvailability{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

func (r *availabilityRepository) FindByProviderID(ctx context.Context, providerID uuid.UUID) ([]entity.ProviderAvailability, error) {
	var rows []entity.ProviderAvailability
	err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("weekday ASC, start_time ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *availabilityRepository) FindForWeekday(ctx context.Context, providerID uuid.UUID, weekday int) ([]entity.ProviderAvailability, error) {
	var rows []entity.ProviderAvailability
	err := r.db.WithContext(ctx).
		Where("provider_id = ? AND weekday = ? AND is_active = ?", providerID, weekday, true).
		Order("start_time ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *availabilityRepository) Update(ctx context.Context, row *entity.ProviderAvailability) error {
	return r.db.WithContext(ctx).Omit("Provider").Save(row).Error
}

func (r *availabilityRepository) Delete(ctx context.Context, id int) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&entity.ProviderAvailability{}, "id = ?", id)
	return res.RowsAffected, res.Error
}
