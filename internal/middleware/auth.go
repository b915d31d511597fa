package middleware

import (
	"net/http"
	"strings"

	"github.com/templui/taskpilot/internal/ctxkeys"
	"github.com/templui/taskpilot/internal/service"
)

// RequireAuth resolves the bearer token to a user and stores it in the request
// context. A missing token is 401, any other failure 403.
func RequireAuth(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := authService.Authenticate(bearerToken(r))
			if err != nil {
				WriteError(w, r, err)
				return
			}

			ctx := ctxkeys.WithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
