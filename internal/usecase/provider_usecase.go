package usecase

import (
	"context"
	"time"

	"beauty-booking-api/internal/converter"
	"beauty-booking-api/internal/delivery/dto"
	"beauty-booking-api/internal/delivery/http/middleware"
	"beauty-booking-api/internal/domain/entity"
	"beauty-booking-api/internal/domain/repository"
	"beauty-booking-api/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type ProviderUsecase interface {
	GetProfile(ctx context.Context, providerID uuid.UUID) (*dto.ProviderResponse, error)
	UpdateProfile(ctx context.Context, req *dto.UpdateProviderProfileRequest) (*dto.ProviderResponse, error)
	UpdatePolicy(ctx context.Context, req *dto.UpdateProviderPolicyRequest) (*dto.ProviderResponse, error)
}

type providerUsecase struct {
	log          *logrus.Logger
	providerRepo repository.ProviderRepository
	auditService service.AuditService
}

func NewProviderUsecase(
	log *logrus.Logger,
	providerRepo repository.ProviderRepository,
	auditService service.AuditService,
) ProviderUsecase {
	return &providerUsecase{
		log:          log,
		providerRepo: providerRepo,
		auditService: auditService,
	}
}

func (u *providerUsecase) GetProfile(ctx context.Context, providerID uuid.UUID) (*dto.ProviderResponse, error) {
	provider, err := u.providerRepo.FindByUserID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, ErrProviderNotFound
	}
	return converter.ProviderToResponse(provider), nil
}

func (u *providerUsecase) UpdateProfile(ctx context.Context, req *dto.UpdateProviderProfileRequest) (*dto.ProviderResponse, error) {
	provider, err := u.loadOwnProfile(ctx)
	if err != nil {
		return nil, err
	}

	old := *provider
	if req.BusinessName != "" {
		provider.BusinessName = req.BusinessName
	}
	if req.Bio != "" {
		provider.Bio = req.Bio
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			return nil, ErrInvalidTimezone
		}
		provider.Timezone = req.Timezone
	}

	if err := u.providerRepo.Update(ctx, provider); err != nil {
		u.log.Warnf("Failed to update provider profile %s: %+v", provider.UserID, err)
		return nil, err
	}

	if err := u.auditService.LogUpdate(ctx, &provider.UserID, entity.AuditActionProfileUpdate, "provider", provider.UserID.String(), old, provider); err != nil {
		u.log.Warnf("Failed to audit profile update: %+v", err)
	}

	return converter.ProviderToResponse(provider), nil
}

// UpdatePolicy edits the booking policy knobs. Changes only affect future
// bookings; bookings already on the calendar keep the policy they were made
// under for cancellation-fee purposes read at cancel time.
func (u *providerUsecase) UpdatePolicy(ctx context.Context, req *dto.UpdateProviderPolicyRequest) (*dto.ProviderResponse, error) {
	provider, err := u.loadOwnProfile(ctx)
	if err != nil {
		return nil, err
	}

	old := *provider
	if req.InstantBooking != nil {
		provider.InstantBooking = *req.InstantBooking
	}
	if req.MinAdvanceHours != nil {
		provider.MinAdvanceHours = *req.MinAdvanceHours
	}
	if req.AdvanceBookingDays != nil {
		provider.AdvanceBookingDays = *req.AdvanceBookingDays
	}
	if req.CancellationWindowHours != nil {
		provider.CancellationWindowHours = *req.CancellationWindowHours
	}
	if req.CancellationFeePercent != nil {
		pct := *req.CancellationFeePercent
		if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
			return nil, &entity.PolicyViolationError{Reason: "cancellation fee percent must be between 0 and 100"}
		}
		provider.CancellationFeePercent = pct
	}
	if req.MaxReschedules != nil {
		provider.MaxReschedules = *req.MaxReschedules
	}
	if req.NoShowGraceMinutes != nil {
		provider.NoShowGraceMinutes = *req.NoShowGraceMinutes
	}

	if err := u.providerRepo.Update(ctx, provider); err != nil {
		u.log.Warnf("Failed to update provider policy %s: %+v", provider.UserID, err)
		return nil, err
	}

	if err := u.auditService.LogUpdate(ctx, &provider.UserID, entity.AuditActionProfileUpdate, "provider_policy", provider.UserID.String(), old, provider); err != nil {
		u.log.Warnf("Failed to audit policy update: %+v", err)
	}

	u.log.Infof("Provider policy updated: id=%s", provider.UserID)
	return converter.ProviderToResponse(provider), nil
}

func (u *providerUsecase) loadOwnProfile(ctx context.Context) (*entity.Provider, error) {
	providerID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	provider, err := u.providerRepo.FindByUserID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, ErrProviderNotFound
	}
	return provider, nil
}
