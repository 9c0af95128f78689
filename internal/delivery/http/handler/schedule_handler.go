package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"beauty-booking-api/internal/delivery/dto"
	"beauty-booking-api/internal/domain/entity"
	"beauty-booking-api/internal/usecase"
	"beauty-booking-api/pkg/response"
	"beauty-booking-api/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type ScheduleHandler struct {
	scheduleUsecase     usecase.ScheduleUsecase
	availabilityUsecase usecase.AvailabilityUsecase
	validator           *validator.CustomValidator
}

func NewScheduleHandler(scheduleUsecase usecase.ScheduleUsecase, availabilityUsecase usecase.AvailabilityUsecase, validator *validator.CustomValidator) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleUsecase:     scheduleUsecase,
		availabilityUsecase: availabilityUsecase,
		validator:           validator,
	}
}

// GetAvailableSlots is the public slot calculator: everything a client can
// still book for a provider, service and day.
// @Summary Get available slots
// @Description Compute the bookable slots for a provider's service on a date
// @Tags Schedule
// @Produce json
// @Param providerId path string true "Provider ID"
// @Param service_id query string true "Service ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Response
// @Router /providers/{providerId}/slots [get]
func (h *ScheduleHandler) GetAvailableSlots(w http.ResponseWriter, r *http.Request) {
	providerID, err := uuid.Parse(mux.Vars(r)["providerId"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid provider ID", nil)
		return
	}

	serviceID, err := uuid.Parse(r.URL.Query().Get("service_id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid or missing service_id", nil)
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		response.Error(w, http.StatusBadRequest, "Missing date", nil)
		return
	}

	slots, err := h.availabilityUsecase.ComputeAvailableSlots(r.Context(), providerID, serviceID, date)
	if err != nil {
		var policyErr *entity.PolicyViolationError
		switch {
		case errors.Is(err, usecase.ErrProviderNotFound):
			response.NotFound(w, "Provider not found")
		case errors.Is(err, usecase.ErrServiceNotFound):
			response.NotFound(w, "Service not found")
		case errors.Is(err, usecase.ErrServiceInactive):
			response.Conflict(w, "Service is no longer offered")
		case errors.Is(err, usecase.ErrInvalidDateFormat):
			response.Error(w, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD", nil)
		case errors.As(err, &policyErr):
			response.Error(w, http.StatusUnprocessableEntity, policyErr.Error(), nil)
		default:
			response.InternalServerError(w, "Failed to compute available slots")
		}
		return
	}

	response.Success(w, http.StatusOK, "Available slots retrieved successfully", slots)
}

func (h *ScheduleHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	var req dto.SetAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	result, err := h.scheduleUsecase.SetAvailability(r.Context(), &req)
	if err != nil {
		writeScheduleError(w, err, "Failed to set availability")
		return
	}

	response.Success(w, http.StatusOK, "Availability updated successfully", result)
}

func (h *ScheduleHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	providerID, err := uuid.Parse(mux.Vars(r)["providerId"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid provider ID", nil)
		return
	}

	result, err := h.scheduleUsecase.GetAvailability(r.Context(), providerID)
	if err != nil {
		response.InternalServerError(w, "Failed to get availability")
		return
	}

	response.Success(w, http.StatusOK, "Availability retrieved successfully", result)
}

func (h *ScheduleHandler) CreateTimeOff(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTimeOffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	result, err := h.scheduleUsecase.CreateTimeOff(r.Context(), &req)
	if err != nil {
		writeScheduleError(w, err, "Failed to create time off")
		return
	}

	response.Success(w, http.StatusCreated, "Time off created successfully", result)
}

func (h *ScheduleHandler) ListTimeOff(w http.ResponseWriter, r *http.Request) {
	result, err := h.scheduleUsecase.ListTimeOff(r.Context())
	if err != nil {
		response.InternalServerError(w, "Failed to list time off")
		return
	}

	response.Success(w, http.StatusOK, "Time off retrieved successfully", result)
}

func (h *ScheduleHandler) DeleteTimeOff(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid time-off ID", nil)
		return
	}

	if err := h.scheduleUsecase.DeleteTimeOff(r.Context(), id); err != nil {
		if errors.Is(err, usecase.ErrTimeOffNotFound) {
			response.NotFound(w, "Time-off entry not found")
			return
		}
		response.InternalServerError(w, "Failed to delete time off")
		return
	}

	response.Success(w, http.StatusOK, "Time off deleted successfully", nil)
}

func writeScheduleError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, usecase.ErrProviderNotFound):
		response.NotFound(w, "Provider not found")
	case errors.Is(err, usecase.ErrInvalidTimeFormat), errors.Is(err, usecase.ErrInvalidDateFormat):
		response.Error(w, http.StatusBadRequest, "Invalid date or time format", nil)
	case errors.Is(err, usecase.ErrInvalidTemplateRow), errors.Is(err, usecase.ErrInvalidTimeOffRange):
		response.Error(w, http.StatusBadRequest, err.Error(), nil)
	default:
		response.InternalServerError(w, fallback)
	}
}
