package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenProvider yields the current bearer token, if one is stored.
type TokenProvider interface {
	Token() (string, bool)
}

// Client represents the bookstore API client
type Client struct {
	baseURL    string
	tokens     TokenProvider
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new bookstore API client
func NewClient(baseURL string, tokens TokenProvider, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// BaseURL returns the API base URL the client was configured with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login exchanges credentials for a token pair
func (c *Client) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	var pair TokenPair
	err := c.postJSON(ctx, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &pair, nil)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Login succeeded",
		zap.String("email", email))
	return &pair, nil
}

// Register creates a new account
func (c *Client) Register(ctx context.Context, email, password, fullName string) error {
	body := map[string]string{
		"email":    email,
		"password": password,
	}
	if fullName != "" {
		body["fullName"] = fullName
	}
	return c.postJSON(ctx, "/api/auth/register", body, nil, nil)
}

// Refresh exchanges a refresh token for a fresh token pair
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var pair TokenPair
	err := c.postJSON(ctx, "/api/auth/refresh", map[string]string{
		"refreshToken": refreshToken,
	}, &pair, nil)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// ListBooks retrieves the purchasable catalog, optionally filtered by a
// search query and genre
func (c *Client) ListBooks(ctx context.Context, query, genreID string) (*BookPage, error) {
	params := url.Values{}
	if query != "" {
		params.Set("q", query)
	}
	if genreID != "" {
		params.Set("genreId", genreID)
	}

	endpoint := "/api/books"
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var page BookPage
	if err := c.getJSON(ctx, endpoint, &page); err != nil {
		return nil, err
	}

	c.logger.Info("Catalog listed",
		zap.String("query", query),
		zap.Int("total", page.Total))
	return &page, nil
}

// GetBook retrieves the full record for one book
func (c *Client) GetBook(ctx context.Context, bookID string) (*BookDetails, error) {
	var details BookDetails
	if err := c.getJSON(ctx, "/api/books/"+url.PathEscape(bookID), &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// GetLibrary retrieves the signed-in user's owned books
func (c *Client) GetLibrary(ctx context.Context) ([]LibraryItem, error) {
	var items []LibraryItem
	if err := c.getJSON(ctx, "/api/me/library", &items); err != nil {
		return nil, err
	}

	c.logger.Info("Library fetched",
		zap.Int("items", len(items)))
	return items, nil
}

// GetAccess retrieves the server-computed entitlement for one book
func (c *Client) GetAccess(ctx context.Context, bookID string) (*AccessDecision, error) {
	var decision AccessDecision
	if err := c.getJSON(ctx, "/api/books/"+url.PathEscape(bookID)+"/access", &decision); err != nil {
		return nil, err
	}
	return &decision, nil
}

// CreateOrder places an online order for a book. amountTiyn is the amount
// in tiyn (the backend expects tiyn, not tenge). An idempotency key guards
// against duplicate submission on retry.
func (c *Client) CreateOrder(ctx context.Context, bookID string, amountTiyn int64) (*Order, error) {
	var order Order
	headers := map[string]string{
		"Idempotency-Key": uuid.NewString(),
	}
	err := c.postJSON(ctx, "/api/orders", map[string]any{
		"bookId":     bookID,
		"amountTiyn": amountTiyn,
	}, &order, headers)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Order placed",
		zap.String("book_id", bookID),
		zap.Int64("amount_tiyn", amountTiyn))
	return &order, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.setAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return NewNetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.handleAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, endpoint string, body, out any, headers map[string]string) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	c.setAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return NewNetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return c.handleAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// setAuthHeader sets the authorization header for API requests when a
// session token is present. Auth endpoints work without one.
func (c *Client) setAuthHeader(req *http.Request) {
	if token, ok := c.tokens.Token(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// handleAPIError processes API error responses
func (c *Client) handleAPIError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return NewAPIError(ErrNetworkError, "Failed to read error response", resp.StatusCode)
	}

	message := fmt.Sprintf("API request failed with status %d: %s", resp.StatusCode, string(body))
	var apiErr errorResponse
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
		message = apiErr.Message
	}

	var kind ErrorType
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		kind = ErrUnauthorized
	case http.StatusForbidden:
		kind = ErrForbidden
	case http.StatusNotFound:
		kind = ErrNotFound
	case http.StatusInternalServerError:
		kind = ErrInternalServer
	case http.StatusServiceUnavailable:
		kind = ErrServiceUnavailable
	default:
		kind = ErrBadRequest
	}
	return NewAPIError(kind, message, resp.StatusCode)
}
