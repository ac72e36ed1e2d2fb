package server

import (
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/classify/internal/models"
	"github.com/desertthunder/classify/internal/services"
)

// refreshCookieMaxAge keeps the refresh token around for 30 days.
const refreshCookieMaxAge = 30 * 24 * time.Hour

// AuthHandler serves the OAuth callback, token refresh and logout endpoints.
type AuthHandler struct {
	tokens        services.TokenExchanger
	frontendURL   string
	secureCookies bool
	logger        *log.Logger
}

// NewAuthHandler creates an AuthHandler. An empty frontendURL makes the callback answer with JSON instead of redirecting.
func NewAuthHandler(tokens services.TokenExchanger, frontendURL string, secureCookies bool, logger *log.Logger) *AuthHandler {
	return &AuthHandler{
		tokens:        tokens,
		frontendURL:   frontendURL,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

func (h *AuthHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Path: "/auth/callback", Summary: "exchange authorization code, set cookies, redirect to frontend", Handler: http.HandlerFunc(h.Callback)},
		{Method: http.MethodGet, Path: "/auth/refresh_token", Summary: "refresh the access token", Handler: http.HandlerFunc(h.Refresh)},
		{Method: http.MethodGet, Path: "/auth/logout", Summary: "clear session cookies", Handler: http.HandlerFunc(h.Logout)},
	}
}

// Callback exchanges the authorization code for tokens.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if reason := q.Get("error"); reason != "" {
		h.logger.Warn("authorization denied", "reason", reason)
		writeError(w, http.StatusBadRequest, "Authorization failed: "+reason)
		return
	}

	code := q.Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "Authorization code is missing")
		return
	}

	tok, err := h.tokens.Exchange(r.Context(), code, "")
	if err != nil {
		h.logger.Error("token exchange failed", "error", err)
		writeText(w, http.StatusInternalServerError, "Authentication failed!")
		return
	}

	h.setTokenCookies(w, tok)

	if h.frontendURL == "" {
		writeJSON(w, http.StatusOK, tok)
		return
	}

	target, err := url.Parse(h.frontendURL)
	if err != nil {
		h.logger.Error("invalid frontend url", "url", h.frontendURL, "error", err)
		writeText(w, http.StatusInternalServerError, "Authentication failed!")
		return
	}
	params := target.Query()
	params.Set("access_token", tok.AccessToken)
	target.RawQuery = params.Encode()

	http.Redirect(w, r, target.String(), http.StatusSeeOther)
}

// Refresh trades a refresh token (query parameter or cookie) for a new access token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := r.URL.Query().Get("refresh_token")
	if refreshToken == "" {
		if c, err := r.Cookie(refreshTokenCookie); err == nil {
			refreshToken = c.Value
		}
	}
	if refreshToken == "" {
		writeError(w, http.StatusBadRequest, "Refresh token is missing")
		return
	}

	tok, err := h.tokens.Exchange(r.Context(), "", refreshToken)
	if err != nil {
		h.logger.Error("token refresh failed", "error", err)
		writeText(w, http.StatusInternalServerError, "Failed to refresh token")
		return
	}

	h.setTokenCookies(w, tok)
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": tok.AccessToken,
		"token_type":   tok.TokenType,
		"expires_in":   tok.ExpiresIn,
		"scope":        tok.Scope,
	})
}

// Logout clears both token cookies.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, h.cookie(name, "", -1))
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Successfully logged out."})
}

func (h *AuthHandler) setTokenCookies(w http.ResponseWriter, tok *models.TokenResponse) {
	http.SetCookie(w, h.cookie(accessTokenCookie, tok.AccessToken, int(tok.ExpiresIn)))
	if tok.RefreshToken != "" {
		http.SetCookie(w, h.cookie(refreshTokenCookie, tok.RefreshToken, int(refreshCookieMaxAge.Seconds())))
	}
}

// cookie builds a session cookie; maxAge < 0 deletes it, 0 leaves it session-scoped.
func (h *AuthHandler) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}
