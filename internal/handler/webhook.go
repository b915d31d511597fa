package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/templui/taskpilot/internal/service"
)

type WebhookHandler struct {
	premiumService *service.PremiumService
}

func NewWebhookHandler(premiumService *service.PremiumService) *WebhookHandler {
	return &WebhookHandler{premiumService: premiumService}
}

// Payment verifies and applies a payment provider event. The raw body is
// needed for signature verification, so it is not decoded here.
func (h *WebhookHandler) Payment(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		slog.Warn("failed to read webhook body", "error", err)
		writeError(w, r, service.ErrInvalidWebhook)
		return
	}

	err = h.premiumService.HandleWebhook(payload, r.Header)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, map[string]any{"received": true})
}
