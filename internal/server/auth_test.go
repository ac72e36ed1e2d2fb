package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/desertthunder/classify/internal/models"
	tu "github.com/desertthunder/classify/internal/testing"
)

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthHandler(t *testing.T) {
	token := &models.TokenResponse{AccessToken: "at", TokenType: "Bearer", ExpiresIn: 3600, RefreshToken: "rt", Scope: "playlist-read-private"}

	t.Run("Callback Redirects To Frontend", func(t *testing.T) {
		tokens := &tu.MockTokenExchanger{Response: token}
		h := NewAuthHandler(tokens, "http://localhost:3000/", true, discardLogger())

		rec := httptest.NewRecorder()
		h.Callback(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?code=the-code", nil))

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", rec.Code)
		}
		if tokens.Code != "the-code" || tokens.RefreshToken != "" {
			t.Errorf("expected code exchange, got code=%q refresh=%q", tokens.Code, tokens.RefreshToken)
		}

		loc, err := url.Parse(rec.Header().Get("Location"))
		if err != nil {
			t.Fatalf("invalid location: %v", err)
		}
		if loc.Host != "localhost:3000" || loc.Query().Get("access_token") != "at" {
			t.Errorf("unexpected redirect %s", loc)
		}

		access := cookieByName(rec, accessTokenCookie)
		if access == nil || access.Value != "at" {
			t.Fatalf("expected access_token cookie, got %+v", access)
		}
		if !access.HttpOnly || !access.Secure || access.SameSite != http.SameSiteLaxMode || access.MaxAge != 3600 {
			t.Errorf("unexpected cookie attributes: %+v", access)
		}
		if refresh := cookieByName(rec, refreshTokenCookie); refresh == nil || refresh.Value != "rt" {
			t.Errorf("expected refresh_token cookie, got %+v", refresh)
		}
	})

	t.Run("Callback Without Frontend Returns JSON", func(t *testing.T) {
		h := NewAuthHandler(&tu.MockTokenExchanger{Response: token}, "", false, discardLogger())

		rec := httptest.NewRecorder()
		h.Callback(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?code=c", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var got models.TokenResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if got.AccessToken != "at" || got.RefreshToken != "rt" {
			t.Errorf("unexpected token body: %+v", got)
		}
		if c := cookieByName(rec, accessTokenCookie); c == nil || c.Secure {
			t.Errorf("expected non-secure cookie, got %+v", c)
		}
	})

	t.Run("Callback Provider Error", func(t *testing.T) {
		tokens := &tu.MockTokenExchanger{Response: token}
		h := NewAuthHandler(tokens, "", false, discardLogger())

		rec := httptest.NewRecorder()
		h.Callback(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?error=access_denied", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if tokens.Code != "" {
			t.Error("expected no exchange on provider error")
		}
	})

	t.Run("Callback Missing Code", func(t *testing.T) {
		h := NewAuthHandler(&tu.MockTokenExchanger{}, "", false, discardLogger())

		rec := httptest.NewRecorder()
		h.Callback(rec, httptest.NewRequest(http.MethodGet, "/auth/callback", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("Callback Exchange Failure", func(t *testing.T) {
		h := NewAuthHandler(&tu.MockTokenExchanger{Err: errors.New("invalid_grant")}, "http://localhost:3000", false, discardLogger())

		rec := httptest.NewRecorder()
		h.Callback(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?code=bad", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if rec.Body.String() != "Authentication failed!" {
			t.Errorf("unexpected body %q", rec.Body.String())
		}
	})

	t.Run("Refresh From Query", func(t *testing.T) {
		tokens := &tu.MockTokenExchanger{Response: &models.TokenResponse{AccessToken: "new", TokenType: "Bearer", ExpiresIn: 3600, RefreshToken: "rt"}}
		h := NewAuthHandler(tokens, "", false, discardLogger())

		rec := httptest.NewRecorder()
		h.Refresh(rec, httptest.NewRequest(http.MethodGet, "/auth/refresh_token?refresh_token=rt", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if tokens.RefreshToken != "rt" || tokens.Code != "" {
			t.Errorf("expected refresh exchange, got code=%q refresh=%q", tokens.Code, tokens.RefreshToken)
		}

		var got map[string]any
		json.Unmarshal(rec.Body.Bytes(), &got)
		if got["access_token"] != "new" || got["expires_in"] != float64(3600) {
			t.Errorf("unexpected body: %v", got)
		}
		if _, leaked := got["refresh_token"]; leaked {
			t.Error("refresh token must not be echoed in the body")
		}
		if c := cookieByName(rec, accessTokenCookie); c == nil || c.Value != "new" {
			t.Errorf("expected refreshed access cookie, got %+v", c)
		}
	})

	t.Run("Refresh From Cookie", func(t *testing.T) {
		tokens := &tu.MockTokenExchanger{Response: token}
		h := NewAuthHandler(tokens, "", false, discardLogger())

		req := httptest.NewRequest(http.MethodGet, "/auth/refresh_token", nil)
		req.AddCookie(&http.Cookie{Name: refreshTokenCookie, Value: "cookie-rt"})

		rec := httptest.NewRecorder()
		h.Refresh(rec, req)

		if tokens.RefreshToken != "cookie-rt" {
			t.Errorf("expected cookie refresh token, got %q", tokens.RefreshToken)
		}
	})

	t.Run("Refresh Missing", func(t *testing.T) {
		h := NewAuthHandler(&tu.MockTokenExchanger{}, "", false, discardLogger())

		rec := httptest.NewRecorder()
		h.Refresh(rec, httptest.NewRequest(http.MethodGet, "/auth/refresh_token", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("Refresh Failure", func(t *testing.T) {
		h := NewAuthHandler(&tu.MockTokenExchanger{Err: errors.New("revoked")}, "", false, discardLogger())

		rec := httptest.NewRecorder()
		h.Refresh(rec, httptest.NewRequest(http.MethodGet, "/auth/refresh_token?refresh_token=x", nil))

		if rec.Code != http.StatusInternalServerError || rec.Body.String() != "Failed to refresh token" {
			t.Errorf("expected 500 'Failed to refresh token', got %d %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("Logout", func(t *testing.T) {
		h := NewAuthHandler(&tu.MockTokenExchanger{}, "", false, discardLogger())

		rec := httptest.NewRecorder()
		h.Logout(rec, httptest.NewRequest(http.MethodGet, "/auth/logout", nil))

		var got map[string]any
		json.Unmarshal(rec.Body.Bytes(), &got)
		if got["success"] != true || got["message"] != "Successfully logged out." {
			t.Errorf("unexpected body: %v", got)
		}

		for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
			c := cookieByName(rec, name)
			if c == nil || c.MaxAge >= 0 || c.Value != "" {
				t.Errorf("expected %s to be cleared, got %+v", name, c)
			}
		}
	})
}
