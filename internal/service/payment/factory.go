package payment

import (
	"fmt"
	"log/slog"

	"github.com/templui/taskpilot/internal/config"
	"github.com/templui/taskpilot/internal/model"
)

// NewProvider creates a payment provider based on configuration.
// It returns nil, nil when card payments are disabled.
func NewProvider(cfg *config.Config) (Provider, error) {
	provider := cfg.PaymentProvider
	if provider == "" {
		slog.Info("card payments disabled (PAYMENT_PROVIDER not set)")
		return nil, nil
	}

	slog.Info("initializing payment provider", "provider", provider)

	switch provider {
	case model.ProviderPolar:
		if cfg.PolarAPIKey == "" {
			return nil, fmt.Errorf("POLAR_API_KEY is required when using Polar provider")
		}
		if cfg.PolarWebhookSecret == "" {
			return nil, fmt.Errorf("POLAR_WEBHOOK_SECRET is required when using Polar provider")
		}
		if cfg.PolarProductIDPremium == "" {
			return nil, fmt.Errorf("POLAR_PRODUCT_ID_PREMIUM is required when using Polar provider")
		}
		return NewPolarProvider(cfg), nil

	case model.ProviderStripe:
		if cfg.StripeSecretKey == "" {
			return nil, fmt.Errorf("STRIPE_SECRET_KEY is required when using Stripe provider")
		}
		if cfg.StripeWebhookSecret == "" {
			return nil, fmt.Errorf("STRIPE_WEBHOOK_SECRET is required when using Stripe provider")
		}
		if cfg.StripePriceIDPremium == "" {
			return nil, fmt.Errorf("STRIPE_PRICE_ID_PREMIUM is required when using Stripe provider")
		}
		return NewStripeProvider(cfg), nil

	default:
		return nil, fmt.Errorf("unknown payment provider: %s (supported: polar, stripe)", provider)
	}
}
