// HTTP client for the favorites REST API
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

	"github.com/desertthunder/faves/internal/models"
	"github.com/desertthunder/faves/internal/shared"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "http://127.0.0.1:3000"

// AuthHeader is sent with the raw token value on authenticated requests.
const AuthHeader = "authorization"

// APIService provides typed access to the favorites REST API.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures an [APIService].
type Option func(*APIService)

// WithRateLimit paces outgoing requests to rps per second. Values <= 0 disable pacing.
func WithRateLimit(rps float64) Option {
	return func(a *APIService) {
		if rps > 0 {
			a.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// NewAPIService creates a new API service instance.
func NewAPIService(baseURL string, client *http.Client, opts ...Option) *APIService {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	a := &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BaseURL returns the API root the service talks to.
func (a *APIService) BaseURL() string { return a.baseURL }

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports whether the status code is 2xx.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return shared.ErrAPIRequest
}

// IsAPIError reports whether err carries a server response, as opposed to a transport failure.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// Do performs a request against path. A non-empty token is sent in the [AuthHeader]; a non-nil body is sent as JSON.
func (a *APIService) Do(ctx context.Context, method, path, token string, body any) (*APIResponse, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		// non-canonical key: the header goes out lowercase, value untouched
		req.Header[AuthHeader] = []string{token}
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}

	var jsonData any
	if err := json.Unmarshal(data, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path, token string) (*APIResponse, error) {
	return a.Do(ctx, http.MethodGet, path, token, nil)
}

// call performs a request and decodes a 2xx body into out (when out is non-nil).
func (a *APIService) call(ctx context.Context, method, path, token string, body, out any) error {
	resp, err := a.Do(ctx, method, path, token, body)
	if err != nil {
		return err
	}

	if !resp.OK() {
		return newAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
	}
	return nil
}

// newAPIError extracts the server's {"error": ...} text, falling back to the status text.
func newAPIError(resp *APIResponse) *APIError {
	var envelope models.ErrorResponse
	if err := json.Unmarshal(resp.Body, &envelope); err == nil && envelope.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: envelope.Error}
	}

	msg := http.StatusText(resp.StatusCode)
	if msg == "" {
		msg = fmt.Sprintf("status %d", resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: strings.ToLower(msg)}
}

// Me resolves the identity that owns token.
func (a *APIService) Me(ctx context.Context, token string) (*models.Identity, error) {
	var identity models.Identity
	if err := a.call(ctx, http.MethodGet, "/api/auth/me", token, nil, &identity); err != nil {
		return nil, err
	}
	if identity.ID.IsZero() {
		return nil, fmt.Errorf("%w: identity without id", shared.ErrAPIRequest)
	}
	return &identity, nil
}

// Login exchanges credentials for a token.
func (a *APIService) Login(ctx context.Context, creds models.Credentials) (string, error) {
	return a.authenticate(ctx, "/api/auth/login", creds)
}

// Register creates an account and returns its token.
func (a *APIService) Register(ctx context.Context, creds models.Credentials) (string, error) {
	return a.authenticate(ctx, "/api/auth/register", creds)
}

func (a *APIService) authenticate(ctx context.Context, path string, creds models.Credentials) (string, error) {
	var out models.AuthResponse
	if err := a.call(ctx, http.MethodPost, path, "", creds, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("%w: response did not include a token", shared.ErrAuthFailed)
	}
	return out.Token, nil
}

// Products returns the full catalogue in server order.
func (a *APIService) Products(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := a.call(ctx, http.MethodGet, "/api/products", "", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Favorites returns the favorites of userID.
func (a *APIService) Favorites(ctx context.Context, token string, userID models.ID) ([]models.Favorite, error) {
	var favorites []models.Favorite
	if err := a.call(ctx, http.MethodGet, favoritesPath(userID), token, nil, &favorites); err != nil {
		return nil, err
	}
	return favorites, nil
}

// AddFavorite marks productID as a favorite of userID and returns the created record.
func (a *APIService) AddFavorite(ctx context.Context, token string, userID, productID models.ID) (*models.Favorite, error) {
	var favorite models.Favorite
	body := models.FavoriteRequest{ProductID: productID}
	if err := a.call(ctx, http.MethodPost, favoritesPath(userID), token, body, &favorite); err != nil {
		return nil, err
	}
	return &favorite, nil
}

// RemoveFavorite deletes favoriteID. Any 2xx response counts as success, whatever its body.
func (a *APIService) RemoveFavorite(ctx context.Context, token string, userID, favoriteID models.ID) error {
	path := favoritesPath(userID) + "/" + url.PathEscape(favoriteID.String())
	return a.call(ctx, http.MethodDelete, path, token, nil, nil)
}

func favoritesPath(userID models.ID) string {
	return "/api/users/" + url.PathEscape(userID.String()) + "/favorites"
}
