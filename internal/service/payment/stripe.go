package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/stripe/stripe-go/v81"
	checkoutsession "github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/webhook"
	"github.com/templui/taskpilot/internal/config"
	"github.com/templui/taskpilot/internal/model"
)

type StripeProvider struct {
	cfg *config.Config
}

func NewStripeProvider(cfg *config.Config) *StripeProvider {
	// Set Stripe API key
	stripe.Key = cfg.StripeSecretKey

	slog.Info("stripe provider initialized", "app_env", cfg.AppEnv)

	return &StripeProvider{cfg: cfg}
}

func (s *StripeProvider) Name() string {
	return model.ProviderStripe
}

func (s *StripeProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	successURL := fmt.Sprintf("%s/premium?checkout=success&session_id={CHECKOUT_SESSION_ID}", s.cfg.ClientURL)
	cancelURL := fmt.Sprintf("%s/premium?checkout=cancelled", s.cfg.ClientURL)

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(successURL),
		CancelURL:         stripe.String(cancelURL),
		ClientReferenceID: stripe.String(req.RequestID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.cfg.StripePriceIDPremium),
				Quantity: stripe.Int64(1),
			},
		},
		CustomerEmail: stripe.String(req.CustomerEmail),
		Metadata: map[string]string{
			metadataUserID:    req.UserID,
			metadataRequestID: req.RequestID,
		},
		AllowPromotionCodes: stripe.Bool(true),
	}
	params.Context = ctx

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	slog.Info("stripe checkout created", "user_id", req.UserID, "premium_request_id", req.RequestID, "session_id", sess.ID)
	return &Checkout{ID: sess.ID, URL: sess.URL}, nil
}

func (s *StripeProvider) ParseWebhook(payload []byte, headers http.Header) (*Event, error) {
	signature := headers.Get("Stripe-Signature")

	// Use ConstructEventWithOptions to ignore API version mismatch
	// Stripe's API versions are backwards compatible, so this is safe
	event, err := webhook.ConstructEventWithOptions(
		payload,
		signature,
		s.cfg.StripeWebhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	slog.Info("stripe webhook received", "event_type", event.Type)

	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		return s.parseCheckoutSession(event.Data.Raw)
	default:
		slog.Debug("stripe webhook event ignored", "event_type", event.Type)
		return nil, nil
	}
}

func (s *StripeProvider) parseCheckoutSession(data json.RawMessage) (*Event, error) {
	var checkoutSession struct {
		ID                string            `json:"id"`
		ClientReferenceID string            `json:"client_reference_id"`
		PaymentStatus     string            `json:"payment_status"`
		Metadata          map[string]string `json:"metadata"`
	}

	err := json.Unmarshal(data, &checkoutSession)
	if err != nil {
		return nil, fmt.Errorf("failed to parse checkout session: %w", err)
	}

	// Delayed payment methods complete the session before the money arrives
	if checkoutSession.PaymentStatus != string(stripe.CheckoutSessionPaymentStatusPaid) {
		slog.Info("stripe checkout completed without payment yet", "session_id", checkoutSession.ID, "payment_status", checkoutSession.PaymentStatus)
		return nil, nil
	}

	requestID := checkoutSession.Metadata[metadataRequestID]
	if requestID == "" {
		requestID = checkoutSession.ClientReferenceID
	}

	return &Event{
		RequestID:   requestID,
		UserID:      checkoutSession.Metadata[metadataUserID],
		ProviderRef: checkoutSession.ID,
	}, nil
}
