package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/coursefinder/internal/models"
	"github.com/desertthunder/coursefinder/internal/shared"
	"golang.org/x/oauth2"
)

const defaultAuthURL = "https://dummyjson.com"

// tokenLifetime is requested on login, in minutes.
const tokenLifetime = 60 * 24

// AuthClient talks to the DummyJSON auth API.
type AuthClient struct {
	api    apiClient
	bearer apiClient
}

// AuthOptions configures an [AuthClient].
type AuthOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	// Tokens supplies the bearer token for [AuthClient.Me]. Without it Me fails with [shared.ErrNotAuthenticated].
	Tokens oauth2.TokenSource
	Logger *log.Logger
}

func NewAuthClient(opts AuthOptions) *AuthClient {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultAuthURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	logger := opts.Logger
	if logger != nil {
		logger = shared.WithLogger(logger, "service", "auth")
	}

	c := &AuthClient{api: newAPIClient(opts.BaseURL, "", opts.HTTPClient, logger)}
	if opts.Tokens != nil {
		base := opts.HTTPClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		authed := &http.Client{
			Transport: &oauth2.Transport{Source: opts.Tokens, Base: base},
			Timeout:   opts.HTTPClient.Timeout,
		}
		c.bearer = newAPIClient(opts.BaseURL, "", authed, logger)
	}
	return c
}

func (c *AuthClient) Name() string { return "DummyJSON" }

type authResponse struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	AccessToken  string `json:"accessToken"`
	Token        string `json:"token"` // older API versions
	RefreshToken string `json:"refreshToken"`
}

func (r authResponse) authToken() *models.AuthToken {
	access := r.AccessToken
	if access == "" {
		access = r.Token
	}
	return &models.AuthToken{AccessToken: access, RefreshToken: r.RefreshToken, Username: r.Username}
}

// Login exchanges a username and password for a token.
//
// Calls POST /auth/login.
func (c *AuthClient) Login(ctx context.Context, creds models.Credentials) (*models.AuthToken, error) {
	body := struct {
		models.Credentials
		ExpiresInMins int `json:"expiresInMins"`
	}{creds, tokenLifetime}

	var resp authResponse
	if err := c.api.doRequest(ctx, http.MethodPost, "/auth/login", nil, body, &resp); err != nil {
		if s := statusOf(err); s == http.StatusBadRequest || s == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidCredentials, err)
		}
		return nil, fmt.Errorf("%w: login: %w", shared.ErrAuthFailed, err)
	}

	tok := resp.authToken()
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: login response carried no token", shared.ErrAuthFailed)
	}
	if tok.Username == "" {
		tok.Username = creds.Username
	}
	return tok, nil
}

// Register creates an account with POST /users/add and returns its token.
//
// The add endpoint does not issue tokens, so unless the response carries one the new
// credentials are exchanged through [AuthClient.Login].
func (c *AuthClient) Register(ctx context.Context, reg models.Registration) (*models.AuthToken, error) {
	var resp authResponse
	if err := c.api.doRequest(ctx, http.MethodPost, "/users/add", nil, reg, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrRegistration, err)
	}

	if tok := resp.authToken(); tok.AccessToken != "" {
		if tok.Username == "" {
			tok.Username = reg.Username
		}
		return tok, nil
	}

	tok, err := c.Login(ctx, reg.Credentials())
	if err != nil {
		return nil, fmt.Errorf("%w: account %d created but sign-in failed: %w", shared.ErrRegistration, resp.ID, err)
	}
	return tok, nil
}

// Me returns the profile for the current bearer token.
//
// Calls GET /auth/me.
func (c *AuthClient) Me(ctx context.Context) (*models.Profile, error) {
	if c.bearer.httpClient == nil {
		return nil, shared.ErrNotAuthenticated
	}

	var profile models.Profile
	if err := c.bearer.doRequest(ctx, http.MethodGet, "/auth/me", nil, nil, &profile); err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) || statusOf(err) == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
		}
		return nil, err
	}
	return &profile, nil
}
