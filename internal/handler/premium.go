package handler

import (
	"net/http"

	"github.com/templui/taskpilot/internal/ctxkeys"
	"github.com/templui/taskpilot/internal/model"
	"github.com/templui/taskpilot/internal/service"
)

type PremiumHandler struct {
	premiumService *service.PremiumService
}

func NewPremiumHandler(premiumService *service.PremiumService) *PremiumHandler {
	return &PremiumHandler{premiumService: premiumService}
}

func (h *PremiumHandler) Request(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req struct {
		TransactionRef  string `json:"transactionRef"`
		TransactionHash string `json:"transactionHash"`
	}
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ref := req.TransactionRef
	if ref == "" {
		ref = req.TransactionHash
	}

	premiumRequest, err := h.premiumService.Request(user.ID, ref)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, map[string]any{"premiumRequest": premiumRequest})
}

func (h *PremiumHandler) Requests(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	requests, err := h.premiumService.Requests(user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if requests == nil {
		requests = []*model.PremiumRequest{}
	}

	writeJSON(w, map[string]any{"premiumRequests": requests})
}

func (h *PremiumHandler) Activate(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	updated, err := h.premiumService.Activate(user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, map[string]any{"user": updated})
}

func (h *PremiumHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	premiumRequest, url, err := h.premiumService.Checkout(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, map[string]any{"url": url, "premiumRequest": premiumRequest})
}
