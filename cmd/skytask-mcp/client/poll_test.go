package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/skytask-mcp/skytask/cmd/skytask-mcp/errors"
	"github.com/skytask-mcp/skytask/pkg/types"
)

// orderServer returns each status in turn, repeating the last one.
func orderServer(statuses ...types.OrderStatus) (*httptest.Server, *atomic.Int64) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		idx := int(n) - 1
		if idx >= len(statuses) {
			idx = len(statuses) - 1
		}
		fmt.Fprintf(w, `{"id":"ord-1","status":"%s","progressPct":%d}`, statuses[idx], idx*50)
	}))
	return srv, &hits
}

func TestPollOrderStatusRejectsOutOfRangeInputs(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()
	c := newTestClient(srv.URL)

	tests := []struct {
		name string
		opts OrderPollOptions
	}{
		{"zero attempts", OrderPollOptions{MaxAttempts: 0, Interval: 10 * time.Second}},
		{"too many attempts", OrderPollOptions{MaxAttempts: 101, Interval: 10 * time.Second}},
		{"interval too short", OrderPollOptions{MaxAttempts: 3, Interval: time.Second}},
		{"interval too long", OrderPollOptions{MaxAttempts: 3, Interval: 301 * time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.PollOrderStatus(context.Background(), "ord-1", tt.opts)
			apiErr, ok := errors.As(err)
			if !ok || apiErr.Code != errors.CodeInvalidRequest {
				t.Fatalf("want INVALID_REQUEST, got %v", err)
			}
		})
	}

	if hits.Load() != 0 {
		t.Errorf("server hit %d times, want 0 for rejected inputs", hits.Load())
	}
}

func TestPollOrderStatusReachesTerminalState(t *testing.T) {
	srv, hits := orderServer(types.OrderPending, types.OrderProcessing, types.OrderCompleted)
	defer srv.Close()

	c, _ := pollingClient(srv.URL)
	result, err := c.PollOrderStatus(context.Background(), "ord-1",
		OrderPollOptions{MaxAttempts: 3, Interval: 10 * time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Completed {
		t.Error("Completed = false, want true")
	}
	if result.FinalStatus != types.OrderCompleted {
		t.Errorf("FinalStatus = %s, want COMPLETED", result.FinalStatus)
	}
	if len(result.History) != 3 {
		t.Fatalf("history length = %d, want 3", len(result.History))
	}
	wantStatuses := []types.OrderStatus{types.OrderPending, types.OrderProcessing, types.OrderCompleted}
	for i, rec := range result.History {
		if rec.Status != wantStatuses[i] {
			t.Errorf("history[%d] = %s, want %s", i, rec.Status, wantStatuses[i])
		}
	}
	if hits.Load() != 3 {
		t.Errorf("fetches = %d, want 3", hits.Load())
	}
}

func TestPollOrderStatusExhaustionIsNormalOutcome(t *testing.T) {
	srv, _ := orderServer(types.OrderProcessing)
	defer srv.Close()

	c, sleeps := pollingClient(srv.URL)
	result, err := c.PollOrderStatus(context.Background(), "ord-1",
		OrderPollOptions{MaxAttempts: 2, Interval: 10 * time.Second})
	if err != nil {
		t.Fatalf("exhaustion must not be an error, got %v", err)
	}

	if result.Completed {
		t.Error("Completed = true, want false after exhaustion")
	}
	if len(result.History) != 2 {
		t.Errorf("history length = %d, want 2", len(result.History))
	}
	if result.Suggestion == "" {
		t.Error("exhausted poll should suggest raising the bounds")
	}
	// No sleep after the final attempt.
	if sleeps.Load() != 1 {
		t.Errorf("sleeps = %d, want 1", sleeps.Load())
	}
}

func TestPollOrderStatusErrorCarriesPartialHistory(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			fmt.Fprint(w, `{"id":"ord-1","status":"PENDING"}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"code":"NOT_FOUND","message":"order purged"}`))
	}))
	defer srv.Close()

	c, _ := pollingClient(srv.URL)
	result, err := c.PollOrderStatus(context.Background(), "ord-1",
		OrderPollOptions{MaxAttempts: 5, Interval: 10 * time.Second})

	apiErr, ok := errors.As(err)
	if !ok || apiErr.Code != errors.CodeNotFound {
		t.Fatalf("want classified NOT_FOUND, got %v", err)
	}
	if result == nil || len(result.History) != 1 {
		t.Fatalf("partial history not returned: %+v", result)
	}
	if result.History[0].Status != types.OrderPending {
		t.Errorf("history[0] = %s, want PENDING", result.History[0].Status)
	}
}
