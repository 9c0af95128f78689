package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"beauty-booking-api/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatewayLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestCreateCharge(t *testing.T) {
	bookingID := uuid.New()
	var received map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/charges", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"charge": map[string]any{
				"id":           "ch_abc123",
				"checkout_url": "https://pay.example.com/ch_abc123",
				"expires_at":   "2026-01-05T10:30:00Z",
			},
		})
	}))
	defer server.Close()

	gw := NewPaymentGateway(server.URL, "test-key", gatewayLogger())

	resp, err := gw.CreateCharge(context.Background(), ChargeRequest{
		BookingID: bookingID,
		Amount:    decimal.NewFromInt(30),
		Currency:  "USD",
	})
	require.NoError(t, err)

	assert.Equal(t, "ch_abc123", resp.TransactionRef)
	assert.Equal(t, "https://pay.example.com/ch_abc123", resp.CheckoutURL)
	assert.Equal(t, 2026, resp.ExpiresAt.Year())

	assert.Equal(t, "charge-"+bookingID.String(), received["idempotency_key"])
	assert.Equal(t, bookingID.String(), received["reference"])
	amount := received["amount"].(map[string]any)
	assert.Equal(t, "30.00", amount["value"])
	assert.Equal(t, "USD", amount["currency"])
}

func TestCreateChargeAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"insufficient balance"}`, http.StatusBadGateway)
	}))
	defer server.Close()

	gw := NewPaymentGateway(server.URL, "test-key", gatewayLogger())

	_, err := gw.CreateCharge(context.Background(), ChargeRequest{
		BookingID: uuid.New(),
		Amount:    decimal.NewFromInt(30),
		Currency:  "USD",
	})
	var depErr *entity.ExternalDependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, "payment_gateway", depErr.Dependency)
}

func TestCreateChargeConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	gw := NewPaymentGateway(server.URL, "test-key", gatewayLogger())

	_, err := gw.CreateCharge(context.Background(), ChargeRequest{
		BookingID: uuid.New(),
		Amount:    decimal.NewFromInt(30),
		Currency:  "USD",
	})
	var depErr *entity.ExternalDependencyError
	require.ErrorAs(t, err, &depErr)
}

func TestRefund(t *testing.T) {
	var received map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/refunds", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"refund": map[string]any{
				"id":         "rf_xyz789",
				"status":     "COMPLETED",
				"created_at": "2026-01-04T22:05:00Z",
			},
		})
	}))
	defer server.Close()

	gw := NewPaymentGateway(server.URL, "test-key", gatewayLogger())

	resp, err := gw.Refund(context.Background(), RefundRequest{
		TransactionRef: "ch_abc123",
		Amount:         decimal.RequireFromString("15.00"),
		Currency:       "USD",
		Reason:         "Cancelled by client",
	})
	require.NoError(t, err)

	assert.Equal(t, "rf_xyz789", resp.RefundID)
	assert.Equal(t, "COMPLETED", resp.Status)

	assert.Equal(t, "ch_abc123", received["transaction_ref"])
	assert.Equal(t, "Cancelled by client", received["reason"])
	amount := received["amount"].(map[string]any)
	assert.Equal(t, "15.00", amount["value"])
}
