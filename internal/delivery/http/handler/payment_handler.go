package handler

import (
	"crypto/subtle"
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

type PaymentHandler struct {
	paymentUsecase usecase.PaymentUsecase
	validator      *validator.CustomValidator
	webhookSecret  string
}

func NewPaymentHandler(paymentUsecase usecase.PaymentUsecase, validator *validator.CustomValidator, webhookSecret string) *PaymentHandler {
	return &PaymentHandler{
		paymentUsecase: paymentUsecase,
		validator:      validator,
		webhookSecret:  webhookSecret,
	}
}

// InitializePayment returns the checkout link for a booking's deposit.
func (h *PaymentHandler) InitializePayment(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid booking ID", nil)
		return
	}

	result, err := h.paymentUsecase.InitializePayment(r.Context(), bookingID)
	if err != nil {
		if errors.Is(err, usecase.ErrPaymentNotDue) {
			response.Conflict(w, "Booking has no outstanding payment")
			return
		}
		writeBookingError(w, err, "Failed to initialize payment")
		return
	}

	response.Success(w, http.StatusOK, "Payment initialized successfully", result)
}

// HandleWebhook receives gateway events. The shared-secret header gates the
// endpoint; a bad or missing secret is answered 401 without touching state.
func (h *PaymentHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	secret := r.Header.Get("X-Webhook-Secret")
	if subtle.ConstantTimeCompare([]byte(secret), []byte(h.webhookSecret)) != 1 {
		response.Unauthorized(w, "Invalid webhook secret")
		return
	}

	var req dto.PaymentWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	result, err := h.paymentUsecase.HandlePaymentEvent(r.Context(), &req)
	if err != nil {
		var depErr *entity.ExternalDependencyError
		if errors.As(err, &depErr) {
			// 503 tells the gateway to redeliver later.
			response.Error(w, http.StatusServiceUnavailable, "Event could not be recorded, retry later", nil)
			return
		}
		response.InternalServerError(w, "Failed to process payment event")
		return
	}

	response.Success(w, http.StatusOK, "Event processed", result)
}
