package routes

import (
	"net/http"

	"github.com/templui/taskpilot/internal/app"
	"github.com/templui/taskpilot/internal/handler"
	"github.com/templui/taskpilot/internal/metrics"
	"github.com/templui/taskpilot/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.AuthService, app.Cfg)
	task := handler.NewTaskHandler(app.TaskService)
	suggestion := handler.NewSuggestionHandler(app.SuggestionService)
	premium := handler.NewPremiumHandler(app.PremiumService)
	webhook := handler.NewWebhookHandler(app.PremiumService)
	export := handler.NewExportHandler(app.ExportService)
	health := handler.NewHealthHandler(app.DB)

	requireAuth := middleware.RequireAuth(app.AuthService)

	protected := func(h http.HandlerFunc, extra ...func(http.Handler) http.Handler) http.Handler {
		return middleware.Chain(h, append([]func(http.Handler) http.Handler{requireAuth}, extra...)...)
	}

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Check)
	mux.Handle("GET /metrics", metrics.Handler(app.Registry))

	// Auth (rate limited)
	mux.Handle("POST /api/auth/signup", app.AuthLimiter.Limit(http.HandlerFunc(auth.Signup)))
	mux.Handle("POST /api/auth/login", app.AuthLimiter.Limit(http.HandlerFunc(auth.Login)))

	// OAuth
	mux.Handle("GET /api/auth/google", app.AuthLimiter.Limit(http.HandlerFunc(auth.GoogleAuth)))
	mux.Handle("GET /api/auth/google/callback", app.AuthLimiter.Limit(http.HandlerFunc(auth.GoogleCallback)))

	// Payment provider webhooks (signature verified)
	mux.HandleFunc("POST /api/webhooks/payment", webhook.Payment)

	// ============================================================================
	// PROTECTED ROUTES
	// ============================================================================

	mux.Handle("GET /api/auth/me", protected(auth.Me))

	// Tasks
	mux.Handle("GET /api/tasks", protected(task.List))
	mux.Handle("GET /api/tasks/stats", protected(task.Stats))
	mux.Handle("POST /api/tasks", protected(task.Create))
	mux.Handle("PUT /api/tasks/{id}", protected(task.Update))
	mux.Handle("DELETE /api/tasks/{id}", protected(task.Delete))

	// AI suggestions
	mux.Handle("POST /api/tasks/suggestions", protected(suggestion.Create, app.SuggestLimiter.Limit))
	mux.Handle("GET /api/tasks/suggestions/quota", protected(suggestion.Quota))

	// Export
	mux.Handle("POST /api/tasks/export", protected(export.Create))

	// Premium
	mux.Handle("POST /api/premium/request", protected(premium.Request))
	mux.Handle("GET /api/premium/requests", protected(premium.Requests))
	mux.Handle("POST /api/premium/activate", protected(premium.Activate))
	mux.Handle("POST /api/premium/checkout", protected(premium.Checkout))

	// Unknown API paths answer in JSON rather than the mux's plain text 404
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusNotFound, middleware.ErrorResponseBody{Error: "Not found", Code: "not_found"})
	})

	// Global middleware
	return middleware.Chain(mux,
		middleware.Recovery,
		middleware.RequestLogging(app.Metrics),
		middleware.SecurityHeaders,
		middleware.CORS(app.Cfg.ClientURL),
	)
}
