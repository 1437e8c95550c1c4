package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/coursefinder/internal/models"
	"github.com/desertthunder/coursefinder/internal/shared"
	"golang.org/x/time/rate"
)

// AuthService issues and inspects credential tokens.
type AuthService interface {
	Login(ctx context.Context, creds models.Credentials) (*models.AuthToken, error)
	Register(ctx context.Context, reg models.Registration) (*models.AuthToken, error)
	// Me returns the profile of the user owning the current token.
	Me(ctx context.Context) (*models.Profile, error)
}

// CatalogService browses the course catalog.
type CatalogService interface {
	Search(ctx context.Context, query string, limit int) ([]models.Course, error)
	Details(ctx context.Context, key string) (*models.CourseDetails, error)
}

// statusError is a non-2xx response.
type statusError struct {
	Status  int
	Message string
}

func (e *statusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("status %d", e.Status)
}

func (e *statusError) Unwrap() error { return shared.ErrAPIRequest }

// apiClient holds what both remote clients share: base URL, identification and pacing.
type apiClient struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

func newAPIClient(baseURL, userAgent string, client *http.Client, logger *log.Logger) apiClient {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return apiClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: client,
		logger:     logger,
	}
}

// doRequest sends body (if any) as JSON and decodes a 2xx response into result (if non-nil).
func (a *apiClient) doRequest(ctx context.Context, method, path string, query url.Values, body, result any) error {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	apiURL := a.baseURL + path
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := shared.GenerateID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	a.logger.Debug("request", "method", method, "path", path, "request_id", requestID)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			return shared.ErrNotAuthenticated
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &statusError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
		}
	}
	return nil
}

// errorMessage extracts {"message": ...} (DummyJSON) or {"error": ...} (Open Library).
func errorMessage(r io.Reader) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 64<<10)).Decode(&body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

func statusOf(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}
