package usecase

import (
	"context"
	"errors"
	"time"

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
	ErrTimeOffNotFound     = errors.New("time-off entry not found")
	ErrInvalidTemplateRow  = errors.New("template row has an invalid time range")
	ErrInvalidTimeOffRange = errors.New("time-off end date is before its start date")
)

type ScheduleUsecase interface {
	SetAvailability(ctx context.Context, req *dto.SetAvailabilityRequest) (*dto.AvailabilityListResponse, error)
	GetAvailability(ctx context.Context, providerID uuid.UUID) (*dto.AvailabilityListResponse, error)
	CreateTimeOff(ctx context.Context, req *dto.CreateTimeOffRequest) (*dto.TimeOffResponse, error)
	ListTimeOff(ctx context.Context) (*dto.TimeOffListResponse, error)
	DeleteTimeOff(ctx context.Context, id int) error
}

type scheduleUsecase struct {
	log              *logrus.Logger
	availabilityRepo repository.AvailabilityRepository
	timeOffRepo      repository.TimeOffRepository
	providerRepo     repository.ProviderRepository
	auditService     service.AuditService
}

func NewScheduleUsecase(
	log *logrus.Logger,
	availabilityRepo repository.AvailabilityRepository,
	timeOffRepo repository.TimeOffRepository,
	providerRepo repository.ProviderRepository,
	auditService service.AuditService,
) ScheduleUsecase {
	return &scheduleUsecase{
		log:              log,
		availabilityRepo: availabilityRepo,
		timeOffRepo:      timeOffRepo,
		providerRepo:     providerRepo,
		auditService:     auditService,
	}
}

// SetAvailability replaces the provider's whole weekly template. Existing
// bookings are untouched; shrinking the template only affects new slots.
func (u *scheduleUsecase) SetAvailability(ctx context.Context, req *dto.SetAvailabilityRequest) (*dto.AvailabilityListResponse, error) {
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
	rows := make([]entity.ProviderAvailability, 0, len(req.Rows))
	for _, r := range req.Rows {
		start, err := time.Parse("15:04", r.StartTime)
		if err != nil {
			return nil, ErrInvalidTimeFormat
		}
		end, err := time.Parse("15:04", r.EndTime)
		if err != nil {
			return nil, ErrInvalidTimeFormat
		}
		if !start.Before(end) {
			return nil, ErrInvalidTemplateRow
		}
		rows = append(rows, entity.ProviderAvailability{
			ProviderID: providerID,
			Weekday:    r.Weekday,
			StartTime:  r.StartTime,
			EndTime:    r.EndTime,
			IsActive:   &active,
		})
	}

	if err := u.availabilityRepo.ReplaceForProvider(ctx, providerID, rows); err != nil {
		u.log.Warnf("Failed to replace availability template for provider %s: %+v", providerID, err)
		return nil, err
	}

	if err := u.auditService.LogUpdate(ctx, &providerID, entity.AuditActionScheduleUpdate, "availability", providerID.String(), nil, rows); err != nil {
		u.log.Warnf("Failed to audit template change: %+v", err)
	}

	u.log.Infof("Availability template replaced: provider=%s rows=%d", providerID, len(rows))
	return &dto.AvailabilityListResponse{
		ProviderID: providerID,
		Rows:       converter.AvailabilitiesToResponses(rows),
	}, nil
}

func (u *scheduleUsecase) GetAvailability(ctx context.Context, providerID uuid.UUID) (*dto.AvailabilityListResponse, error) {
	rows, err := u.availabilityRepo.FindByProviderID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	return &dto.AvailabilityListResponse{
		ProviderID: providerID,
		Rows:       converter.AvailabilitiesToResponses(rows),
	}, nil
}

func (u *scheduleUsecase) CreateTimeOff(ctx context.Context, req *dto.CreateTimeOffRequest) (*dto.TimeOffResponse, error) {
	providerID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}
	if endDate.Before(startDate) {
		return nil, ErrInvalidTimeOffRange
	}

	// Partial-day entries need both boundaries.
	if (req.StartTime == "") != (req.EndTime == "") {
		return nil, ErrInvalidTimeFormat
	}
	if req.StartTime != "" {
		s, err := time.Parse("15:04", req.StartTime)
		if err != nil {
			return nil, ErrInvalidTimeFormat
		}
		e, err := time.Parse("15:04", req.EndTime)
		if err != nil {
			return nil, ErrInvalidTimeFormat
		}
		if !s.Before(e) {
			return nil, ErrInvalidTemplateRow
		}
	}

	row := &entity.ProviderTimeOff{
		ProviderID: providerID,
		StartDate:  startDate,
		EndDate:    endDate,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Reason:     req.Reason,
	}
	if err := u.timeOffRepo.Create(ctx, row); err != nil {
		u.log.Warnf("Failed to create time-off entry: %+v", err)
		return nil, err
	}

	if err := u.auditService.LogCreate(ctx, &providerID, entity.AuditActionTimeOffCreate, "time_off", row.StartDate.Format("2006-01-02"), row); err != nil {
		u.log.Warnf("Failed to audit time-off creation: %+v", err)
	}

	u.log.WithFields(logrus.Fields{
		"provider_id": providerID,
		"start_date":  req.StartDate,
		"end_date":    req.EndDate,
	}).Info("time off created")

	return converter.TimeOffToResponse(row), nil
}

func (u *scheduleUsecase) ListTimeOff(ctx context.Context) (*dto.TimeOffListResponse, error) {
	providerID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	rows, err := u.timeOffRepo.FindByProviderID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	return &dto.TimeOffListResponse{
		Entries: converter.TimeOffsToResponses(rows),
		Total:   len(rows),
	}, nil
}

func (u *scheduleUsecase) DeleteTimeOff(ctx context.Context, id int) error {
	providerID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return ErrNotAuthenticated
	}

	// Ownership check before delete: the row must belong to the caller.
	rows, err := u.timeOffRepo.FindByProviderID(ctx, providerID)
	if err != nil {
		return err
	}
	var target *entity.ProviderTimeOff
	for i := range rows {
		if rows[i].ID == id {
			target = &rows[i]
			break
		}
	}
	if target == nil {
		return ErrTimeOffNotFound
	}

	affected, err := u.timeOffRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTimeOffNotFound
	}

	if err := u.auditService.LogDelete(ctx, &providerID, entity.AuditActionTimeOffDelete, "time_off", target.StartDate.Format("2006-01-02"), target); err != nil {
		u.log.Warnf("Failed to audit time-off deletion: %+v", err)
	}

	u.log.Infof("Time off deleted: id=%d provider=%s", id, providerID)
	return nil
}
