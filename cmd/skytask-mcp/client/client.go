package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"

	"github.com/skytask-mcp/skytask/cmd/skytask-mcp/config"
	"github.com/skytask-mcp/skytask/cmd/skytask-mcp/errors"
	"github.com/skytask-mcp/skytask/cmd/skytask-mcp/retry"
	"github.com/skytask-mcp/skytask/pkg/types"
)

// APIKeyHeader is the request header carrying the vendor API key. The key is
// never sent as a query parameter.
const APIKeyHeader = "X-Skytask-Api-Key"

// Client performs logical vendor-API operations with uniform error
// classification and retry. It holds no per-call state beyond its
// configuration and a request counter used only for log correlation, so a
// single instance is safe to reuse across sequential calls.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
	requests   atomic.Int64

	// sleep is the context-aware wait used by the polling loops; tests
	// substitute a recording no-op.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a client, filling unset configuration with defaults.
func New(cfg config.Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultBaseURL
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = config.DefaultHTTPTimeout
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = config.DefaultRetryAttempts
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = config.DefaultRetryBaseDelay
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		sleep:      sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ready reports whether the client is configured to reach the vendor at all.
// A missing API key is a caller-side configuration defect, reported before
// any network I/O.
func (c *Client) Ready() error {
	if c.cfg.APIKey == "" {
		return errors.New(errors.CodeConfiguration, "vendor API key is not configured")
	}
	return nil
}

// errorEnvelope is the vendor's error body shape.
type errorEnvelope struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// call runs one logical operation through the retry executor. Request
// defects (missing key) are rejected up front and never reach the network.
func call[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) (T, error) {
	var zero T
	if err := c.Ready(); err != nil {
		return zero, err
	}
	return retry.Do(ctx, func() (T, error) {
		return do[T](ctx, c, method, path, query, body)
	}, retry.Config{
		MaxAttempts: c.cfg.RetryAttempts,
		Strategy:    &retry.ExponentialBackoff{BaseDelay: c.cfg.RetryBaseDelay},
		OnRetry: func(attempt int, err error) {
			log.Printf("[client] %s %s attempt %d failed, retrying: %v", method, path, attempt, err)
		},
	})
}

// do performs a single HTTP round-trip and classifies any failure.
func do[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) (T, error) {
	var zero T

	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return zero, errors.Wrap(err, errors.CodeInvalidRequest)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return zero, errors.Wrap(err, errors.CodeInvalidRequest)
	}
	req.Header.Set(APIKeyHeader, c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	seq := c.requests.Add(1)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[client] req %d: %s %s transport failure: %v", seq, method, path, err)
		return zero, errors.Network(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, errors.Network(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return zero, classify(resp.StatusCode, data)
	}

	var out T
	if len(data) > 0 {
		if err := json.Unmarshal(data, &out); err != nil {
			return zero, errors.NewHTTP(errors.CodeInternal,
				fmt.Sprintf("decoding vendor response: %v", err), resp.StatusCode)
		}
	}
	return out, nil
}

// classify maps a non-2xx vendor response into an APIError, preferring the
// vendor's own error envelope.
func classify(status int, body []byte) *errors.APIError {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Code != "" {
		apiErr := errors.NewHTTP(envelope.Code, envelope.Message, status)
		apiErr.Details = envelope.Details
		return apiErr
	}
	code := errors.CodeForStatus(status)
	message := envelope.Message
	if message == "" {
		message = fmt.Sprintf("vendor API returned status %d", status)
	}
	return errors.NewHTTP(code, message, status)
}

// SearchArchives searches the imagery catalog for an area and window.
func (c *Client) SearchArchives(ctx context.Context, req *types.ArchiveSearchRequest) (*types.ArchiveSearchResponse, error) {
	return call[*types.ArchiveSearchResponse](ctx, c, http.MethodPost, "/archives", nil, req)
}

// ListArchives fetches the next page of a previous catalog search.
func (c *Client) ListArchives(ctx context.Context, pageToken string) (*types.ArchiveSearchResponse, error) {
	query := url.Values{}
	if pageToken != "" {
		query.Set("page", pageToken)
	}
	return call[*types.ArchiveSearchResponse](ctx, c, http.MethodGet, "/archives", query, nil)
}

// GetArchive fetches a single catalog entry.
func (c *Client) GetArchive(ctx context.Context, id string) (*types.Archive, error) {
	return call[*types.Archive](ctx, c, http.MethodGet, "/archives/"+url.PathEscape(id), nil, nil)
}

// GetPricing returns the price options covering an area of interest.
func (c *Client) GetPricing(ctx context.Context, req *types.PricingRequest) ([]types.PriceOption, error) {
	return call[[]types.PriceOption](ctx, c, http.MethodPost, "/pricing", nil, req)
}

// CheckFeasibility submits a feasibility check and returns the initial,
// possibly still-pending result. Use CheckFeasibilityAndWait to block until
// the check carries usable signal.
func (c *Client) CheckFeasibility(ctx context.Context, req *types.FeasibilityRequest) (*types.FeasibilityResult, error) {
	return call[*types.FeasibilityResult](ctx, c, http.MethodPost, "/feasibility", nil, req)
}

// GetFeasibilityStatus fetches the current state of a feasibility check.
func (c *Client) GetFeasibilityStatus(ctx context.Context, id string) (*types.FeasibilityResult, error) {
	return call[*types.FeasibilityResult](ctx, c, http.MethodGet, "/feasibility/"+url.PathEscape(id), nil, nil)
}

// PlaceArchiveOrder orders delivery of already-captured imagery.
func (c *Client) PlaceArchiveOrder(ctx context.Context, req *types.ArchiveOrderRequest) (*types.Order, error) {
	return call[*types.Order](ctx, c, http.MethodPost, "/order-archive", nil, req)
}

// PlaceTaskingOrder schedules a new capture.
func (c *Client) PlaceTaskingOrder(ctx context.Context, req *types.TaskingOrderRequest) (*types.Order, error) {
	return call[*types.Order](ctx, c, http.MethodPost, "/order-tasking", nil, req)
}

// GetOrder fetches a single order.
func (c *Client) GetOrder(ctx context.Context, id string) (*types.Order, error) {
	return call[*types.Order](ctx, c, http.MethodGet, "/orders/"+url.PathEscape(id), nil, nil)
}

// ListOrders fetches a page of orders.
func (c *Client) ListOrders(ctx context.Context, pageToken string) (*types.OrderList, error) {
	query := url.Values{}
	if pageToken != "" {
		query.Set("page", pageToken)
	}
	return call[*types.OrderList](ctx, c, http.MethodGet, "/orders", query, nil)
}

// CreateMonitor creates a standing imagery subscription.
func (c *Client) CreateMonitor(ctx context.Context, req *types.MonitorRequest) (*types.Monitor, error) {
	return call[*types.Monitor](ctx, c, http.MethodPost, "/notifications", nil, req)
}

// ListMonitors lists active subscriptions.
func (c *Client) ListMonitors(ctx context.Context) ([]types.Monitor, error) {
	return call[[]types.Monitor](ctx, c, http.MethodGet, "/notifications", nil, nil)
}

// GetMonitor fetches a single subscription.
func (c *Client) GetMonitor(ctx context.Context, id string) (*types.Monitor, error) {
	return call[*types.Monitor](ctx, c, http.MethodGet, "/notifications/"+url.PathEscape(id), nil, nil)
}

// DeleteMonitor removes a subscription.
func (c *Client) DeleteMonitor(ctx context.Context, id string) error {
	_, err := call[struct{}](ctx, c, http.MethodDelete, "/notifications/"+url.PathEscape(id), nil, nil)
	return err
}
