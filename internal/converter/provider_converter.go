package converter

import (
	"beauty-booking-api/internal/delivery/dto"
	"beauty-booking-api/internal/domain/entity"
)

// ProviderToResponse converts a Provider entity to ProviderResponse DTO
func ProviderToResponse(provider *entity.Provider) *dto.ProviderResponse {
	if provider == nil {
		return nil
	}

	return &dto.ProviderResponse{
		UserID:                  provider.UserID,
		BusinessName:            provider.BusinessName,
		Bio:                     provider.Bio,
		Timezone:                provider.Timezone,
		Currency:                provider.Currency,
		InstantBooking:          provider.InstantBooking,
		MinAdvanceHours:         provider.MinAdvanceHours,
		AdvanceBookingDays:      provider.AdvanceBookingDays,
		CancellationWindowHours: provider.CancellationWindowHours,
		CancellationFeePercent:  provider.CancellationFeePercent,
		MaxReschedules:          provider.MaxReschedules,
		NoShowGraceMinutes:      provider.NoShowGraceMinutes,
		NoShowCount:             provider.NoShowCount,
	}
}
