package payment

import (
	"context"
	"errors"
	"net/http"
)

var ErrInvalidSignature = errors.New("payment: invalid webhook signature")

// CheckoutRequest describes the one-time premium purchase for a pending request.
type CheckoutRequest struct {
	UserID        string
	RequestID     string
	CustomerEmail string
	CustomerName  string
}

// Checkout is a hosted payment page.
type Checkout struct {
	ID  string
	URL string
}

// Event is a completed payment reported by a provider webhook.
// RequestID may be empty when the provider did not echo our metadata; the
// checkout ID in ProviderRef is then the only link back.
type Event struct {
	RequestID   string
	UserID      string
	ProviderRef string
}

// Provider defines the interface that all payment providers must implement
type Provider interface {
	// CreateCheckout creates a hosted checkout for the premium upgrade
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)

	// ParseWebhook verifies the signature and returns the completed payment,
	// or nil for events that do not complete a payment
	ParseWebhook(payload []byte, headers http.Header) (*Event, error)

	// Name returns the provider name (e.g., "polar", "stripe")
	Name() string
}

const (
	metadataUserID    = "user_id"
	metadataRequestID = "premium_request_id"
)
