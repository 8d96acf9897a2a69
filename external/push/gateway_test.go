package push

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/cricket-battle/internal/domain/notification"
	"github.com/riskibarqy/cricket-battle/internal/platform/logging"
	"github.com/riskibarqy/cricket-battle/internal/platform/resilience"
	"github.com/riskibarqy/cricket-battle/internal/usecase"
)

var crownMessage = notification.Message{
	Title:   "Crown earned",
	Body:    "You won a crown",
	Type:    notification.TypeCrownEarned,
	MatchID: "m1",
}

func TestHTTPGateway_Send_PostsPayload(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "key=server-key" {
			t.Errorf("unexpected auth header: %q", r.Header.Get("Authorization"))
		}
		body, _ := io.ReadAll(r.Body)
		for _, want := range []string{`"to":"device-1"`, `"title":"Crown earned"`, `"type":"CROWN_EARNED"`, `"matchId":"m1"`} {
			if !strings.Contains(string(body), want) {
				t.Errorf("payload missing %s: %s", want, body)
			}
		}
		_, _ = w.Write([]byte(`{"success":1,"failure":0}`))
	}))
	defer server.Close()

	gateway := NewHTTPGateway(Config{Endpoint: server.URL, ServerKey: "server-key"}, logging.NewNop())
	if err := gateway.Send(context.Background(), "device-1", crownMessage); err != nil {
		t.Fatalf("Send error: %v", err)
	}
}

func TestHTTPGateway_Send_ReportsRejectedToken(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":0,"failure":1,"results":[{"error":"NotRegistered"}]}`))
	}))
	defer server.Close()

	err := NewHTTPGateway(Config{Endpoint: server.URL}, logging.NewNop()).Send(context.Background(), "stale", crownMessage)
	if err == nil || !strings.Contains(err.Error(), "NotRegistered") {
		t.Fatalf("expected rejection, got %v", err)
	}
}

func TestHTTPGateway_Send_OpensCircuit(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	gateway := NewHTTPGateway(Config{
		Endpoint: server.URL,
		Timeout:  time.Second,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	}, logging.NewNop())

	for i := 0; i < 2; i++ {
		if err := gateway.Send(context.Background(), "device-1", crownMessage); err == nil {
			t.Fatalf("expected failure on attempt %d", i+1)
		}
	}
	if err := gateway.Send(context.Background(), "device-1", crownMessage); !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("calls mismatch: got=%d want=2", got)
	}
}

func TestHTTPGateway_Send_RequiresToken(t *testing.T) {
	t.Parallel()

	if err := NewHTTPGateway(Config{Endpoint: "http://127.0.0.1:1"}, logging.NewNop()).Send(context.Background(), " ", crownMessage); err == nil {
		t.Fatalf("expected missing token error")
	}
}

func TestLogGateway_Send(t *testing.T) {
	t.Parallel()

	if err := NewLogGateway(logging.NewNop()).Send(context.Background(), "device-1", crownMessage); err != nil {
		t.Fatalf("LogGateway must never fail: %v", err)
	}
}
