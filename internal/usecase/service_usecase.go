package usecase

import (
	"context"
	"errors"

	"beauty-booking-api/internal/converter"
	"beauty-booking-api/internal/delivery/dto"
	"beauty-booking-api/internal/delivery/http/middleware"
	"beauty-booking-api/internal/domain/entity"
	"beauty-booking-api/internal/domain/repository"
	"beauty-booking-api/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrServiceNotOwned = errors.New("service does not belong to you")
)

type ServiceUsecase interface {
	Create(ctx context.Context, req *dto.CreateServiceRequest) (*dto.ServiceResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*dto.ServiceResponse, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID, activeOnly bool) (*dto.ServiceListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req *dto.UpdateServiceRequest) (*dto.ServiceResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type serviceUsecase struct {
	log          *logrus.Logger
	serviceRepo  repository.ServiceRepository
	providerRepo repository.ProviderRepository
	auditService service.AuditService
}

func NewServiceUsecase(
	log *logrus.Logger,
	serviceRepo repository.ServiceRepository,
	providerRepo repository.ProviderRepository,
	auditService service.AuditService,
) ServiceUsecase {
	return &serviceUsecase{
		log:          log,
		serviceRepo:  serviceRepo,
		providerRepo: providerRepo,
		auditService: auditService,
	}
}

func (u *serviceUsecase) Create(ctx context.Context, req *dto.CreateServiceRequest) (*dto.ServiceResponse, error) {
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

	active := true
	svc := &entity.Service{
		ProviderID:      providerID,
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		BufferMinutes:   req.BufferMinutes,
		Price:           req.Price,
		DepositType:     entity.DepositType(req.DepositType),
		DepositValue:    req.DepositValue,
		IsActive:        &active,
	}

	if err := u.serviceRepo.Create(ctx, svc); err != nil {
		u.log.Warnf("Failed to create service: %+v", err)
		return nil, err
	}

	if err := u.auditService.LogCreate(ctx, &providerID, entity.AuditActionServiceCreate, "service", svc.ID.String(), svc); err != nil {
		u.log.Warnf("Failed to audit service creation: %+v", err)
	}

	u.log.Infof("Service created: id=%s provider=%s", svc.ID, providerID)
	return converter.ServiceToResponse(svc), nil
}

func (u *serviceUsecase) GetByID(ctx context.Context, id uuid.UUID) (*dto.ServiceResponse, error) {
	svc, err := u.serviceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, ErrServiceNotFound
	}
	return converter.ServiceToResponse(svc), nil
}

func (u *serviceUsecase) ListByProvider(ctx context.Context, providerID uuid.UUID, activeOnly bool) (*dto.ServiceListResponse, error) {
	services, err := u.serviceRepo.FindByProviderID(ctx, providerID, activeOnly)
	if err != nil {
		return nil, err
	}
	return &dto.ServiceListResponse{
		Services: converter.ServicesToResponses(services),
		Total:    len(services),
	}, nil
}

func (u *serviceUsecase) Update(ctx context.Context, id uuid.UUID, req *dto.UpdateServiceRequest) (*dto.ServiceResponse, error) {
	svc, err := u.loadOwnedService(ctx, id)
	if err != nil {
		return nil, err
	}

	old := *svc
	svc.Name = req.Name
	svc.Description = req.Description
	svc.DurationMinutes = req.DurationMinutes
	svc.BufferMinutes = req.BufferMinutes
	svc.Price = req.Price
	svc.DepositType = entity.DepositType(req.DepositType)
	svc.DepositValue = req.DepositValue

	// Existing bookings keep the duration, buffer and prices they were made
	// with; edits only affect bookings created from here on.
	if err := u.serviceRepo.Update(ctx, svc); err != nil {
		u.log.Warnf("Failed to update service %s: %+v", id, err)
		return nil, err
	}

	if err := u.auditService.LogUpdate(ctx, &svc.ProviderID, entity.AuditActionServiceUpdate, "service", svc.ID.String(), old, svc); err != nil {
		u.log.Warnf("Failed to audit service update: %+v", err)
	}

	return converter.ServiceToResponse(svc), nil
}

// Deactivate soft-deletes a service: it disappears from the catalog and the
// availability calculator but existing bookings stay intact.
func (u *serviceUsecase) Deactivate(ctx context.Context, id uuid.UUID) error {
	svc, err := u.loadOwnedService(ctx, id)
	if err != nil {
		return err
	}

	affected, err := u.serviceRepo.Deactivate(ctx, id)
	if err != nil {
		u.log.Warnf("Failed to deactivate service %s: %+v", id, err)
		return err
	}
	if affected == 0 {
		return ErrServiceNotFound
	}

	if err := u.auditService.LogDelete(ctx, &svc.ProviderID, entity.AuditActionServiceDelete, "service", svc.ID.String(), svc); err != nil {
		u.log.Warnf("Failed to audit service deactivation: %+v", err)
	}

	u.log.Infof("Service deactivated: id=%s", id)
	return nil
}

func (u *serviceUsecase) loadOwnedService(ctx context.Context, id uuid.UUID) (*entity.Service, error) {
	providerID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	svc, err := u.serviceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, ErrServiceNotFound
	}
	if svc.ProviderID != providerID {
		return nil, ErrServiceNotOwned
	}
	return svc, nil
}
