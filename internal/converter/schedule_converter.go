package converter

import (
	"beauty-booking-api/internal/delivery/dto"
	"beauty-booking-api/internal/domain/entity"
)

// AvailabilityToResponse converts a weekly-template row to its DTO
func AvailabilityToResponse(row *entity.ProviderAvailability) *dto.AvailabilityRowResponse {
	if row == nil {
		return nil
	}

	return &dto.AvailabilityRowResponse{
		ID:        row.ID,
		Weekday:   row.Weekday,
		StartTime: row.StartTime,
		EndTime:   row.EndTime,
		IsActive:  row.Active(),
	}
}

// AvailabilitiesToResponses converts a slice of template rows to DTOs
func AvailabilitiesToResponses(rows []entity.ProviderAvailability) []dto.AvailabilityRowResponse {
	responses := make([]dto.AvailabilityRowResponse, len(rows))
	for i := range rows {
		responses[i] = *AvailabilityToResponse(&rows[i])
	}
	return responses
}

// TimeOffToResponse converts a ProviderTimeOff entity to its DTO
func TimeOffToResponse(row *entity.ProviderTimeOff) *dto.TimeOffResponse {
	if row == nil {
		return nil
	}

	return &dto.TimeOffResponse{
		ID:        row.ID,
		StartDate: row.StartDate.Format("2006-01-02"),
		EndDate:   row.EndDate.Format("2006-01-02"),
		StartTime: row.StartTime,
		EndTime:   row.EndTime,
		Reason:    row.Reason,
	}
}

// TimeOffsToResponses converts a slice of ProviderTimeOff entities to DTOs
func TimeOffsToResponses(rows []entity.ProviderTimeOff) []dto.TimeOffResponse {
	responses := make([]dto.TimeOffResponse, len(rows))
	for i := range rows {
		responses[i] = *TimeOffToResponse(&rows[i])
	}
	return responses
}

// SlotsToResponses converts computed time slots to DTOs
func SlotsToResponses(slots []entity.TimeSlot) []dto.SlotResponse {
	responses := make([]dto.SlotResponse, len(slots))
	for i, slot := range slots {
		responses[i] = dto.SlotResponse{Start: slot.Start, End: slot.End}
	}
	return responses
}
