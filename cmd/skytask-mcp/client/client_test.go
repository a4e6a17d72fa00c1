package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/skytask-mcp/skytask/cmd/skytask-mcp/config"
	"github.com/skytask-mcp/skytask/cmd/skytask-mcp/errors"
	"github.com/skytask-mcp/skytask/pkg/types"
)

func newTestClient(baseURL string) *Client {
	return New(config.Config{
		APIKey:         "test-key",
		BaseURL:        baseURL,
		HTTPTimeout:    5 * time.Second,
		RetryAttempts:  3,
		RetryBaseDelay: time.Millisecond,
	})
}

func TestMissingAPIKeyRejectedBeforeNetwork(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := New(config.Config{BaseURL: srv.URL})
	_, err := c.SearchArchives(context.Background(), &types.ArchiveSearchRequest{AOI: "POINT(0 0)"})

	apiErr, ok := errors.As(err)
	if !ok || apiErr.Code != errors.CodeConfiguration {
		t.Fatalf("want CONFIGURATION_ERROR, got %v", err)
	}
	if hits.Load() != 0 {
		t.Errorf("server was hit %d times, want 0", hits.Load())
	}
}

func TestAPIKeySentAsHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get(APIKeyHeader); got != "test-key" {
			t.Errorf("API key header = %q, want test-key", got)
		}
		if r.URL.Query().Get("apiKey") != "" || r.URL.Query().Get("key") != "" {
			t.Error("API key must never appear in the query string")
		}
		w.Write([]byte(`{"archives":[]}`))
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).SearchArchives(context.Background(), &types.ArchiveSearchRequest{AOI: "POINT(0 0)"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestServerErrorsRetriedToExhaustion(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"code":"UPSTREAM_DOWN","message":"provider gateway unavailable"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetOrder(context.Background(), "ord-1")

	apiErr, ok := errors.As(err)
	if !ok {
		t.Fatalf("want classified error, got %v", err)
	}
	if apiErr.Code != "UPSTREAM_DOWN" || apiErr.HTTPStatus != http.StatusBadGateway {
		t.Errorf("classification = %s/%d, want UPSTREAM_DOWN/502", apiErr.Code, apiErr.HTTPStatus)
	}
	if hits.Load() != 3 {
		t.Errorf("attempts = %d, want 3", hits.Load())
	}
}

func TestClientErrorsNeverRetried(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"code":"VALIDATION_ERROR","message":"AOI is not a valid polygon","details":{"field":"aoi"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).CheckFeasibility(context.Background(), &types.FeasibilityRequest{AOI: "bogus"})

	apiErr, ok := errors.As(err)
	if !ok {
		t.Fatalf("want classified error, got %v", err)
	}
	if apiErr.Code != errors.CodeValidation {
		t.Errorf("code = %s, want VALIDATION_ERROR", apiErr.Code)
	}
	if apiErr.Details["field"] != "aoi" {
		t.Errorf("details not mapped from the vendor envelope: %v", apiErr.Details)
	}
	if hits.Load() != 1 {
		t.Errorf("attempts = %d, want exactly 1 for a 4xx", hits.Load())
	}
}

func TestStatusWithoutEnvelopeSynthesizesCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`payment required`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).PlaceTaskingOrder(context.Background(), &types.TaskingOrderRequest{AOI: "POINT(0 0)"})

	apiErr, ok := errors.As(err)
	if !ok || apiErr.Code != errors.CodeInsufficientFunds {
		t.Fatalf("want INSUFFICIENT_FUNDS, got %v", err)
	}
}

func TestTransportFailureClassifiedAsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse all connections

	_, err := newTestClient(srv.URL).ListOrders(context.Background(), "")

	apiErr, ok := errors.As(err)
	if !ok || apiErr.Code != errors.CodeNetwork {
		t.Fatalf("want NETWORK_ERROR, got %v", err)
	}
	if apiErr.HTTPStatus != 0 {
		t.Errorf("HTTPStatus = %d, want 0 for transport failures", apiErr.HTTPStatus)
	}
}

func TestDeleteMonitorAcceptsEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := newTestClient(srv.URL).DeleteMonitor(context.Background(), "mon-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPaginationTokenForwarded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("page"); got != "tok-2" {
			t.Errorf("page token = %q, want tok-2", got)
		}
		w.Write([]byte(`{"orders":[]}`))
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).ListOrders(context.Background(), "tok-2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
