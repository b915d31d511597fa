package handler

import (
	"net/http"
	"strings"

	"github.com/templui/taskpilot/internal/ctxkeys"
	"github.com/templui/taskpilot/internal/service"
)

type SuggestionHandler struct {
	suggestionService *service.SuggestionService
}

func NewSuggestionHandler(suggestionService *service.SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{suggestionService: suggestionService}
}

func (h *SuggestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req struct {
		TaskID string `json:"taskId"`
	}
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	taskID := strings.TrimSpace(req.TaskID)
	if taskID == "" {
		writeError(w, r, service.ValidationError("taskId is required"))
		return
	}

	task, err := h.suggestionService.Suggest(r.Context(), user, taskID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, map[string]any{"task": task})
}

// Quota reports how many free suggestions the caller has left. Premium users
// get -1.
func (h *SuggestionHandler) Quota(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	remaining, err := h.suggestionService.Remaining(user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, map[string]any{"remaining": remaining, "unlimited": user.IsPremium})
}
