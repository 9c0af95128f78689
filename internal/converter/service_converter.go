package converter

import (
	"beauty-booking-api/internal/delivery/dto"
	"beauty-booking-api/internal/domain/entity"
)

// ServiceToResponse converts a Service entity to ServiceResponse DTO
func ServiceToResponse(service *entity.Service) *dto.ServiceResponse {
	if service == nil {
		return nil
	}

	return &dto.ServiceResponse{
		ID:              service.ID,
		ProviderID:      service.ProviderID,
		Name:            service.Name,
		Description:     service.Description,
		DurationMinutes: service.DurationMinutes,
		BufferMinutes:   service.BufferMinutes,
		Price:           service.Price,
		DepositType:     string(service.DepositType),
		DepositValue:    service.DepositValue,
		DepositAmount:   service.Deposit(),
		IsActive:        service.IsActive == nil || *service.IsActive,
		CreatedAt:       service.CreatedAt,
		UpdatedAt:       service.UpdatedAt,
	}
}

// ServicesToResponses converts a slice of Service entities to slice of ServiceResponse DTOs
func ServicesToResponses(services []entity.Service) []dto.ServiceResponse {
	responses := make([]dto.ServiceResponse, len(services))
	for i := range services {
		responses[i] = *ServiceToResponse(&services[i])
	}
	return responses
}
