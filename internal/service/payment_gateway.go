package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"beauty-booking-api/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// PaymentGateway abstracts the external payment provider. The booking core
// never talks HTTP directly; usecases depend on this interface so tests can
// substitute a fake.
type PaymentGateway interface {
	// CreateCharge opens a payment intent for the booking's deposit and
	// returns the provider's reference plus the checkout URL the client is
	// redirected to.
	CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResponse, error)

	// Refund returns money to the client. amount may be less than the
	// original charge (partial refund after a cancellation fee).
	Refund(ctx context.Context, req RefundRequest) (*RefundResponse, error)
}

// ChargeRequest contains the details for a deposit charge.
type ChargeRequest struct {
	BookingID uuid.UUID
	Amount    decimal.Decimal
	Currency  string
	ClientRef string // provider-side customer reference, optional
}

// ChargeResponse contains the provider's handle on the charge.
type ChargeResponse struct {
	TransactionRef string
	CheckoutURL    string
	ExpiresAt      time.Time
}

// RefundRequest contains the details for a refund.
type RefundRequest struct {
	TransactionRef string
	Amount         decimal.Decimal
	Currency       string
	Reason         string
}

// RefundResponse contains the result of a refund.
type RefundResponse struct {
	RefundID  string
	Status    string // PENDING, COMPLETED, FAILED
	CreatedAt time.Time
}

// httpPaymentGateway talks to the payment provider's REST API.
type httpPaymentGateway struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *logrus.Logger
}

func NewPaymentGateway(baseURL, apiKey string, log *logrus.Logger) PaymentGateway {
	return &httpPaymentGateway{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        log,
	}
}

func (g *httpPaymentGateway) CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResponse, error) {
	// Idempotency key derived from the booking so a retried call cannot open
	// a second charge for the same booking.
	body := map[string]any{
		"idempotency_key": fmt.Sprintf("charge-%s", req.BookingID),
		"reference":       req.BookingID.String(),
		"amount": map[string]any{
			"value":    req.Amount.StringFixed(2),
			"currency": req.Currency,
		},
	}
	if req.ClientRef != "" {
		body["customer_ref"] = req.ClientRef
	}

	var parsed struct {
		Charge struct {
			ID          string `json:"id"`
			CheckoutURL string `json:"checkout_url"`
			ExpiresAt   string `json:"expires_at"`
		} `json:"charge"`
	}
	if err := g.post(ctx, "/v1/charges", body, &parsed); err != nil {
		return nil, err
	}

	expiresAt, _ := time.Parse(time.RFC3339, parsed.Charge.ExpiresAt)

	g.log.WithFields(logrus.Fields{
		"booking_id":      req.BookingID,
		"transaction_ref": parsed.Charge.ID,
		"amount":          req.Amount.StringFixed(2),
	}).Info("payment charge created")

	return &ChargeResponse{
		TransactionRef: parsed.Charge.ID,
		CheckoutURL:    parsed.Charge.CheckoutURL,
		ExpiresAt:      expiresAt,
	}, nil
}

func (g *httpPaymentGateway) Refund(ctx context.Context, req RefundRequest) (*RefundResponse, error) {
	body := map[string]any{
		"idempotency_key": fmt.Sprintf("refund-%s-%d", req.TransactionRef, time.Now().Unix()),
		"transaction_ref": req.TransactionRef,
		"amount": map[string]any{
			"value":    req.Amount.StringFixed(2),
			"currency": req.Currency,
		},
	}
	if req.Reason != "" {
		body["reason"] = req.Reason
	}

	var parsed struct {
		Refund struct {
			ID        string `json:"id"`
			Status    string `json:"status"`
			CreatedAt string `json:"created_at"`
		} `json:"refund"`
	}
	if err := g.post(ctx, "/v1/refunds", body, &parsed); err != nil {
		return nil, err
	}

	createdAt, _ := time.Parse(time.RFC3339, parsed.Refund.CreatedAt)

	g.log.WithFields(logrus.Fields{
		"refund_id":       parsed.Refund.ID,
		"transaction_ref": req.TransactionRef,
		"status":          parsed.Refund.Status,
		"amount":          req.Amount.StringFixed(2),
	}).Info("refund processed")

	return &RefundResponse{
		RefundID:  parsed.Refund.ID,
		Status:    parsed.Refund.Status,
		CreatedAt: createdAt,
	}, nil
}

func (g *httpPaymentGateway) post(ctx context.Context, path string, body map[string]any, out any) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("payments: marshal %s: %w", path, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("payments: build request %s: %w", path, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return &entity.ExternalDependencyError{Dependency: "payment_gateway", Err: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		g.log.WithFields(logrus.Fields{
			"path":   path,
			"status": resp.StatusCode,
			"body":   string(respBody),
		}).Error("payment gateway call failed")
		return &entity.ExternalDependencyError{
			Dependency: "payment_gateway",
			Err:        fmt.Errorf("api status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("payments: decode %s: %w", path, err)
	}
	return nil
}
