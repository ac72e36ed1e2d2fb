package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/classify/internal/models"
	"github.com/desertthunder/classify/internal/shared"
	"golang.org/x/oauth2"
)

const spotifyTokenURL = "https://accounts.spotify.com/api/token"

// TokenService implements [TokenExchanger] against the Spotify accounts service.
type TokenService struct {
	config     *oauth2.Config
	httpClient *http.Client
}

// NewTokenService creates a token exchanger from client credentials.
//
// An empty tokenURL falls back to the Spotify accounts endpoint. A nil client uses [http.DefaultClient].
func NewTokenService(creds shared.SpotifyConfig, client *http.Client) (*TokenService, error) {
	if creds.ClientID == "" {
		return nil, fmt.Errorf("%w: client_id", shared.ErrMissingCredentials)
	}
	if creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client_secret", shared.ErrMissingCredentials)
	}

	tokenURL := creds.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyTokenURL
	}

	return &TokenService{
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURI,
			Endpoint: oauth2.Endpoint{
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		httpClient: client,
	}, nil
}

// Exchange trades an authorization code (grant_type=authorization_code) or a refresh
// token (grant_type=refresh_token) for provider tokens. Exactly one must be given.
func (s *TokenService) Exchange(ctx context.Context, code, refreshToken string) (*models.TokenResponse, error) {
	switch {
	case code != "" && refreshToken != "":
		return nil, shared.WrapErr(shared.ErrInvalidInput, "provide either a code or a refresh token, not both")
	case code == "" && refreshToken == "":
		return nil, shared.WrapErr(shared.ErrInvalidInput, "a code or a refresh token is required")
	}

	if s.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}

	var (
		token *oauth2.Token
		err   error
	)
	if code != "" {
		token, err = s.config.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, tokenError(err))
		}
	} else {
		token, err = s.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, tokenError(err))
		}
	}

	return toTokenResponse(token, refreshToken), nil
}

// toTokenResponse keeps the original refresh token when the provider does not rotate it.
func toTokenResponse(token *oauth2.Token, previousRefresh string) *models.TokenResponse {
	resp := &models.TokenResponse{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    token.ExpiresIn,
	}

	if scope, ok := token.Extra("scope").(string); ok {
		resp.Scope = scope
	}
	if resp.ExpiresIn == 0 && !token.Expiry.IsZero() {
		resp.ExpiresIn = int64(math.Round(time.Until(token.Expiry).Seconds()))
	}
	if resp.RefreshToken == "" {
		resp.RefreshToken = previousRefresh
	}
	if resp.TokenType == "" {
		resp.TokenType = "Bearer"
	}

	return resp
}

// tokenError converts an oauth2 retrieval failure into an [*APIError] when the provider answered.
func tokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return &APIError{
			Service:    "spotify accounts",
			StatusCode: re.Response.StatusCode,
			Body:       strings.TrimSpace(string(re.Body)),
		}
	}
	return err
}
