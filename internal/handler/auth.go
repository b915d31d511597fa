package handler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/templui/taskpilot/internal/config"
	"github.com/templui/taskpilot/internal/ctxkeys"
	"github.com/templui/taskpilot/internal/model"
	"github.com/templui/taskpilot/internal/service"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type authHandler struct {
	authService       *service.AuthService
	googleOAuthConfig *oauth2.Config
	userInfoURL       string
	clientURL         string
	isProduction      bool
}

func NewAuthHandler(authService *service.AuthService, cfg *config.Config) *authHandler {
	h := &authHandler{
		authService:  authService,
		userInfoURL:  googleUserInfoURL,
		clientURL:    cfg.ClientURL,
		isProduction: cfg.IsProduction(),
	}

	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		h.googleOAuthConfig = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.AppURL + "/api/auth/google/callback",
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		}
	}

	return h
}

type authResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (h *authHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, token, err := h.authService.Signup(req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, authResponse{User: user, Token: token})
}

func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, token, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, authResponse{User: user, Token: token})
}

func (h *authHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"user": ctxkeys.User(r.Context())})
}

// GoogleAuth redirects user to Google OAuth consent screen
func (h *authHandler) GoogleAuth(w http.ResponseWriter, r *http.Request) {
	if h.googleOAuthConfig == nil {
		writeError(w, r, service.ErrOAuthUnavailable)
		return
	}

	// Generate secure state token for CSRF protection
	state := generateOAuthState()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/api/auth/google",
		HttpOnly: true,
		Secure:   h.isProduction, // Secure flag based on APP_ENV (safer than r.TLS behind load balancers)
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes
	})

	http.Redirect(w, r, h.googleOAuthConfig.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallback finishes the OAuth dance and hands the token to the SPA in
// the URL fragment, so it never reaches server logs.
func (h *authHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.googleOAuthConfig == nil {
		writeError(w, r, service.ErrOAuthUnavailable)
		return
	}

	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie("oauth_state")
	if err != nil || cookie.Value != state || state == "" {
		slog.Warn("google oauth state validation failed", "error", err)
		h.redirectWithError(w, r, "oauth_state")
		return
	}

	// Clear state cookie
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/api/auth/google",
		MaxAge: -1,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		slog.Warn("google oauth callback missing code")
		h.redirectWithError(w, r, "oauth_denied")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	token, err := h.googleOAuthConfig.Exchange(ctx, code)
	if err != nil {
		slog.Error("google oauth token exchange failed", "error", err)
		h.redirectWithError(w, r, "oauth_failed")
		return
	}

	userInfo, err := h.fetchGoogleUser(ctx, token)
	if err != nil {
		slog.Error("failed to get google user info", "error", err)
		h.redirectWithError(w, r, "oauth_failed")
		return
	}

	if !userInfo.VerifiedEmail {
		slog.Warn("google account email not verified", "email", userInfo.Email)
		h.redirectWithError(w, r, "email_unverified")
		return
	}

	user, jwtToken, err := h.authService.AuthenticateGoogle(userInfo.ID, userInfo.Email, userInfo.Name)
	if err != nil {
		slog.Error("oauth authentication failed", "error", err, "email", userInfo.Email)
		h.redirectWithError(w, r, "oauth_failed")
		return
	}

	slog.Info("user logged in with google oauth", "user_id", user.ID)

	fragment := url.Values{"token": {jwtToken}}.Encode()
	http.Redirect(w, r, h.clientURL+"/auth/callback#"+fragment, http.StatusSeeOther)
}

type googleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func (h *authHandler) fetchGoogleUser(ctx context.Context, token *oauth2.Token) (*googleUser, error) {
	client := h.googleOAuthConfig.Client(ctx, token)
	resp, err := client.Get(h.userInfoURL)
	if err != nil {
		return nil, err
	}
	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned %d", resp.StatusCode)
	}

	var info googleUser
	err = json.NewDecoder(resp.Body).Decode(&info)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (h *authHandler) redirectWithError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, h.clientURL+"/auth/callback?error="+url.QueryEscape(code), http.StatusSeeOther)
}

// generateOAuthState creates cryptographically secure random state token for OAuth CSRF protection
func generateOAuthState() string {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		panic("failed to generate oauth state: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
