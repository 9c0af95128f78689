package dto

import (
	"github.com/shopspring/decimal"
)

// PaymentWebhookRequest is the gateway's asynchronous event envelope.
// EventID deduplicates redeliveries; TransactionRef correlates the event to
// a booking.
type PaymentWebhookRequest struct {
	EventID        string          `json:"event_id" validate:"required"`
	EventType      string          `json:"event_type" validate:"required,oneof=payment.succeeded payment.failed refund.completed"`
	TransactionRef string          `json:"transaction_ref" validate:"required"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency" validate:"omitempty,len=3"`
	Reason         string          `json:"reason,omitempty"`
}

type PaymentWebhookResponse struct {
	Processed bool   `json:"processed"`
	Status    string `json:"status,omitempty"`
}

// InitializePaymentResponse carries the hosted checkout link for a booking's
// outstanding deposit charge.
type InitializePaymentResponse struct {
	BookingID      string          `json:"booking_id"`
	TransactionRef string          `json:"transaction_ref"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	CheckoutURL    string          `json:"checkout_url"`
}
