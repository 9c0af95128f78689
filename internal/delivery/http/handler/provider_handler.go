package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"beauty-booking-api/internal/delivery/dto"
	"beauty-booking-api/internal/usecase"
	"beauty-booking-api/pkg/response"
	"beauty-booking-api/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type ProviderHandler struct {
	providerUsecase usecase.ProviderUsecase
	validator       *validator.CustomValidator
}

func NewProviderHandler(providerUsecase usecase.ProviderUsecase, validator *validator.CustomValidator) *ProviderHandler {
	return &ProviderHandler{
		providerUsecase: providerUsecase,
		validator:       validator,
	}
}

func (h *ProviderHandler) GetProvider(w http.ResponseWriter, r *http.Request) {
	providerID, err := uuid.Parse(mux.Vars(r)["providerId"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid provider ID", nil)
		return
	}

	provider, err := h.providerUsecase.GetProfile(r.Context(), providerID)
	if err != nil {
		if errors.Is(err, usecase.ErrProviderNotFound) {
			response.NotFound(w, "Provider not found")
			return
		}
		response.InternalServerError(w, "Failed to get provider")
		return
	}

	response.Success(w, http.StatusOK, "Provider retrieved successfully", provider)
}

func (h *ProviderHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateProviderProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	provider, err := h.providerUsecase.UpdateProfile(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrProviderNotFound):
			response.NotFound(w, "Provider not found")
		case errors.Is(err, usecase.ErrInvalidTimezone):
			response.Error(w, http.StatusBadRequest, "Invalid timezone", nil)
		default:
			response.InternalServerError(w, "Failed to update profile")
		}
		return
	}

	response.Success(w, http.StatusOK, "Profile updated successfully", provider)
}

func (h *ProviderHandler) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateProviderPolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	provider, err := h.providerUsecase.UpdatePolicy(r.Context(), &req)
	if err != nil {
		writeBookingError(w, err, "Failed to update policy")
		return
	}

	response.Success(w, http.StatusOK, "Policy updated successfully", provider)
}
