package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	polargo "github.com/polarsource/polar-go"
	"github.com/polarsource/polar-go/models/components"
	standardwebhooks "github.com/standard-webhooks/standard-webhooks/libraries/go"
	"github.com/templui/taskpilot/internal/config"
	"github.com/templui/taskpilot/internal/model"
)

type PolarProvider struct {
	cfg    *config.Config
	client *polargo.Polar
}

func NewPolarProvider(cfg *config.Config) *PolarProvider {
	var serverOption polargo.SDKOption
	if cfg.PolarSandboxMode {
		serverOption = polargo.WithServer(polargo.ServerSandbox)
		slog.Info("polar using sandbox mode", "app_env", cfg.AppEnv)
	} else {
		serverOption = polargo.WithServer(polargo.ServerProduction)
		slog.Info("polar using production mode", "app_env", cfg.AppEnv)
	}

	client := polargo.New(
		polargo.WithSecurity(cfg.PolarAPIKey),
		serverOption,
	)

	return &PolarProvider{
		cfg:    cfg,
		client: client,
	}
}

func (p *PolarProvider) Name() string {
	return model.ProviderPolar
}

func (p *PolarProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	successURL := fmt.Sprintf("%s/premium?checkout=success", p.cfg.ClientURL)
	returnURL := fmt.Sprintf("%s/premium", p.cfg.ClientURL)

	metadata := map[string]components.CheckoutCreateMetadata{
		metadataUserID:    components.CreateCheckoutCreateMetadataStr(req.UserID),
		metadataRequestID: components.CreateCheckoutCreateMetadataStr(req.RequestID),
	}

	res, err := p.client.Checkouts.Create(ctx, components.CheckoutCreate{
		Products:           []string{p.cfg.PolarProductIDPremium},
		SuccessURL:         polargo.String(successURL),
		ReturnURL:          polargo.String(returnURL),
		CustomerEmail:      polargo.String(req.CustomerEmail),
		CustomerName:       polargo.String(req.CustomerName),
		AllowDiscountCodes: polargo.Bool(true),
		Metadata:           metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout: %w", err)
	}

	if res == nil || res.Checkout == nil {
		return nil, fmt.Errorf("checkout response is nil")
	}

	slog.Info("polar checkout created", "user_id", req.UserID, "premium_request_id", req.RequestID, "checkout_id", res.Checkout.ID)
	return &Checkout{ID: res.Checkout.ID, URL: res.Checkout.URL}, nil
}

func (p *PolarProvider) ParseWebhook(payload []byte, headers http.Header) (*Event, error) {
	wh, err := standardwebhooks.NewWebhookRaw([]byte(p.cfg.PolarWebhookSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook verifier: %w", err)
	}

	httpHeaders := http.Header{}
	httpHeaders.Set("webhook-id", headers.Get("webhook-id"))
	httpHeaders.Set("webhook-timestamp", headers.Get("webhook-timestamp"))
	httpHeaders.Set("webhook-signature", headers.Get("webhook-signature"))

	err = wh.Verify(payload, httpHeaders)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	var event struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}

	err = json.Unmarshal(payload, &event)
	if err != nil {
		return nil, fmt.Errorf("failed to parse webhook: %w", err)
	}

	slog.Info("polar webhook received", "event_type", event.Type)

	switch event.Type {
	case "order.paid":
		return p.parseOrder(event.Data)
	default:
		slog.Debug("polar webhook event ignored", "event_type", event.Type)
		return nil, nil
	}
}

func (p *PolarProvider) parseOrder(data json.RawMessage) (*Event, error) {
	var order struct {
		ID         string         `json:"id"`
		CheckoutID *string        `json:"checkout_id"`
		Metadata   map[string]any `json:"metadata"`
	}

	err := json.Unmarshal(data, &order)
	if err != nil {
		return nil, fmt.Errorf("failed to parse order data: %w", err)
	}

	event := &Event{}
	if order.CheckoutID != nil {
		event.ProviderRef = *order.CheckoutID
	}
	if v, ok := order.Metadata[metadataRequestID].(string); ok {
		event.RequestID = v
	}
	if v, ok := order.Metadata[metadataUserID].(string); ok {
		event.UserID = v
	}

	if event.RequestID == "" && event.ProviderRef == "" {
		slog.Warn("polar order has no checkout or request reference, skipping", "order_id", order.ID)
		return nil, nil
	}

	return event, nil
}
