package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"beauty-booking-api/internal/delivery/dto"
	"beauty-booking-api/internal/domain/entity"
	"beauty-booking-api/internal/usecase"
	"beauty-booking-api/pkg/response"
	"beauty-booking-api/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type BookingHandler struct {
	bookingUsecase    usecase.BookingUsecase
	rescheduleUsecase usecase.RescheduleUsecase
	validator         *validator.CustomValidator
}

func NewBookingHandler(bookingUsecase usecase.BookingUsecase, rescheduleUsecase usecase.RescheduleUsecase, validator *validator.CustomValidator) *BookingHandler {
	return &BookingHandler{
		bookingUsecase:    bookingUsecase,
		rescheduleUsecase: rescheduleUsecase,
		validator:         validator,
	}
}

func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	booking, err := h.bookingUsecase.CreateBooking(r.Context(), &req)
	if err != nil {
		writeBookingError(w, err, "Failed to create booking")
		return
	}

	response.Success(w, http.StatusCreated, "Booking created successfully", booking)
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid booking ID", nil)
		return
	}

	booking, err := h.bookingUsecase.GetBooking(r.Context(), bookingID)
	if err != nil {
		writeBookingError(w, err, "Failed to get booking")
		return
	}

	response.Success(w, http.StatusOK, "Booking retrieved successfully", booking)
}

func (h *BookingHandler) GetMyBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookingUsecase.GetMyBookings(r.Context(), bookingFilterFromQuery(r))
	if err != nil {
		response.InternalServerError(w, "Failed to get bookings")
		return
	}

	response.Success(w, http.StatusOK, "Bookings retrieved successfully", bookings)
}

func (h *BookingHandler) GetProviderBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookingUsecase.GetProviderBookings(r.Context(), bookingFilterFromQuery(r))
	if err != nil {
		response.InternalServerError(w, "Failed to get bookings")
		return
	}

	response.Success(w, http.StatusOK, "Bookings retrieved successfully", bookings)
}

func (h *BookingHandler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid booking ID", nil)
		return
	}

	booking, err := h.bookingUsecase.ConfirmBooking(r.Context(), bookingID)
	if err != nil {
		writeBookingError(w, err, "Failed to confirm booking")
		return
	}

	response.Success(w, http.StatusOK, "Booking confirmed successfully", booking)
}

func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid booking ID", nil)
		return
	}

	var req dto.CancelBookingRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	result, err := h.bookingUsecase.CancelBooking(r.Context(), bookingID, &req)
	if err != nil {
		writeBookingError(w, err, "Failed to cancel booking")
		return
	}

	response.Success(w, http.StatusOK, "Booking cancelled successfully", result)
}

func (h *BookingHandler) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid booking ID", nil)
		return
	}

	booking, err := h.bookingUsecase.CompleteBooking(r.Context(), bookingID)
	if err != nil {
		writeBookingError(w, err, "Failed to complete booking")
		return
	}

	response.Success(w, http.StatusOK, "Booking completed successfully", booking)
}

func (h *BookingHandler) MarkNoShow(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid booking ID", nil)
		return
	}

	booking, err := h.bookingUsecase.MarkNoShow(r.Context(), bookingID)
	if err != nil {
		writeBookingError(w, err, "Failed to mark no-show")
		return
	}

	response.Success(w, http.StatusOK, "Booking marked as no-show", booking)
}

func (h *BookingHandler) ReportProviderNoShow(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid booking ID", nil)
		return
	}

	booking, err := h.bookingUsecase.ReportProviderNoShow(r.Context(), bookingID)
	if err != nil {
		writeBookingError(w, err, "Failed to report provider no-show")
		return
	}

	response.Success(w, http.StatusOK, "Provider no-show recorded", booking)
}

func (h *BookingHandler) ProposeReschedule(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid booking ID", nil)
		return
	}

	var req dto.ProposeRescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	result, err := h.rescheduleUsecase.ProposeReschedule(r.Context(), bookingID, &req)
	if err != nil {
		writeBookingError(w, err, "Failed to propose reschedule")
		return
	}

	response.Success(w, http.StatusCreated, "Reschedule proposed successfully", result)
}

func (h *BookingHandler) RespondReschedule(w http.ResponseWriter, r *http.Request) {
	requestID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request ID", nil)
		return
	}

	var req dto.RespondRescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	result, err := h.rescheduleUsecase.RespondReschedule(r.Context(), requestID, &req)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrRescheduleNotFound):
			response.NotFound(w, "Reschedule request not found")
		case errors.Is(err, usecase.ErrRescheduleClosed):
			response.Conflict(w, "Reschedule request is no longer open")
		case errors.Is(err, usecase.ErrRescheduleExpired):
			response.Error(w, http.StatusGone, "Reschedule request has expired", nil)
		default:
			writeBookingError(w, err, "Failed to respond to reschedule")
		}
		return
	}

	response.Success(w, http.StatusOK, "Reschedule response recorded", result)
}

func bookingFilterFromQuery(r *http.Request) *entity.BookingFilter {
	q := r.URL.Query()
	return &entity.BookingFilter{
		FromDate: q.Get("from_date"),
		ToDate:   q.Get("to_date"),
		Status:   q.Get("status"),
		Upcoming: q.Get("upcoming") == "true",
	}
}

// writeBookingError maps the common booking-domain failures to HTTP statuses.
func writeBookingError(w http.ResponseWriter, err error, fallback string) {
	var policyErr *entity.PolicyViolationError
	var transitionErr *entity.InvalidTransitionError

	switch {
	case errors.Is(err, usecase.ErrBookingNotFound):
		response.NotFound(w, "Booking not found")
	case errors.Is(err, usecase.ErrProviderNotFound):
		response.NotFound(w, "Provider not found")
	case errors.Is(err, usecase.ErrServiceNotFound):
		response.NotFound(w, "Service not found")
	case errors.Is(err, usecase.ErrServiceInactive):
		response.Conflict(w, "Service is no longer offered")
	case errors.Is(err, usecase.ErrBookingNotOwned):
		response.Forbidden(w, "Booking does not belong to you")
	case errors.Is(err, usecase.ErrBookingModified):
		response.Conflict(w, "Booking was modified, please retry")
	case errors.Is(err, entity.ErrSlotUnavailable):
		response.Conflict(w, "The requested slot is not available")
	case errors.Is(err, entity.ErrPaymentRequired):
		response.PaymentRequired(w, "Deposit has not been paid")
	case errors.Is(err, usecase.ErrInvalidDateFormat), errors.Is(err, usecase.ErrInvalidTimeFormat):
		response.Error(w, http.StatusBadRequest, "Invalid date or time format", nil)
	case errors.As(err, &policyErr):
		response.UnprocessableEntity(w, policyErr.Error())
	case errors.As(err, &transitionErr):
		response.Conflict(w, transitionErr.Error())
	default:
		response.InternalServerError(w, fallback)
	}
}
