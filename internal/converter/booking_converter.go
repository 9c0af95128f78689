package converter

import (
	"beauty-booking-api/internal/delivery/dto"
	"beauty-booking-api/internal/domain/entity"

	"github.com/google/uuid"
)

// BookingToResponse converts a Booking entity to BookingResponse DTO
func BookingToResponse(booking *entity.Booking) *dto.BookingResponse {
	if booking == nil {
		return nil
	}

	response := &dto.BookingResponse{
		ID:                 booking.ID,
		ClientID:           booking.ClientID,
		ProviderID:         booking.ProviderID,
		ServiceID:          booking.ServiceID,
		RescheduledFromID:  booking.RescheduledFromID,
		Date:               booking.Date.Format("2006-01-02"),
		StartAt:            booking.StartAt,
		ServiceEnd:         booking.ServiceEnd,
		EndAt:              booking.EndAt,
		ServicePrice:       booking.ServicePrice,
		DepositAmount:      booking.DepositAmount,
		ServiceFee:         booking.ServiceFee,
		TipAmount:          booking.TipAmount,
		TotalAmount:        booking.TotalAmount,
		Currency:           booking.Currency,
		CancellationFee:    booking.CancellationFee,
		Status:             string(booking.Status),
		PaymentStatus:      string(booking.PaymentStatus),
		RescheduleCount:    booking.RescheduleCount,
		CancellationReason: booking.CancellationReason,
		CancelledAt:        booking.CancelledAt,
		CompletedAt:        booking.CompletedAt,
		CreatedAt:          booking.CreatedAt,
		UpdatedAt:          booking.UpdatedAt,
	}

	// Include related entities when preloaded
	if booking.Service.ID != uuid.Nil {
		response.Service = ServiceToResponse(&booking.Service)
	}
	if booking.Provider.UserID != uuid.Nil {
		response.Provider = ProviderToResponse(&booking.Provider)
	}

	return response
}

// BookingsToResponses converts a slice of Booking entities to slice of BookingResponse DTOs
func BookingsToResponses(bookings []entity.Booking) []dto.BookingResponse {
	responses := make([]dto.BookingResponse, len(bookings))
	for i := range bookings {
		responses[i] = *BookingToResponse(&bookings[i])
	}
	return responses
}

// RescheduleToResponse converts a RescheduleRequest entity to its DTO
func RescheduleToResponse(req *entity.RescheduleRequest) *dto.RescheduleResponse {
	if req == nil {
		return nil
	}

	return &dto.RescheduleResponse{
		ID:            req.ID,
		BookingID:     req.BookingID,
		ProposedDate:  req.ProposedDate.Format("2006-01-02"),
		ProposedStart: req.ProposedStart,
		RequestedBy:   req.RequestedBy,
		Status:        string(req.Status),
		ExpiresAt:     req.ExpiresAt,
		CreatedAt:     req.CreatedAt,
	}
}
