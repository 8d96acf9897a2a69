package jobqueue

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

	"github.com/riskibarqy/cricket-battle/internal/platform/logging"
	"github.com/riskibarqy/cricket-battle/internal/platform/resilience"
	"github.com/riskibarqy/cricket-battle/internal/usecase"
)

func TestQStashPublisher_Enqueue_SendsHeaders(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wantPath := "/v2/publish/https://api.example.com/v1/internal/jobs/rank-leaderboards"
		if r.URL.Path != wantPath {
			t.Errorf("publish path mismatch: got=%s want=%s", r.URL.Path, wantPath)
		}
		checks := map[string]string{
			"Authorization":                       "Bearer qstash-token",
			"Upstash-Retries":                     "3",
			"Upstash-Delay":                       "5s",
			"Upstash-Deduplication-Id":            "rank-m1",
			"Upstash-Forward-X-Internal-Job-Token": "job-token",
		}
		for header, want := range checks {
			if got := r.Header.Get(header); got != want {
				t.Errorf("%s mismatch: got=%q want=%q", header, got, want)
			}
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"match_id":"m1"}` {
			t.Errorf("unexpected body: %s", body)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	publisher := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:          server.URL,
		Token:            "qstash-token",
		TargetBaseURL:    "https://api.example.com/",
		Retries:          3,
		InternalJobToken: "job-token",
	}, logging.NewNop())

	payload := map[string]string{"match_id": "m1"}
	if err := publisher.Enqueue(context.Background(), "v1/internal/jobs/rank-leaderboards", payload, 4600*time.Millisecond, " rank-m1 "); err != nil {
		t.Fatalf("Enqueue error: %v", err)
	}
}

func TestQStashPublisher_Enqueue_OpensCircuitOnTransientFailure(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	publisher := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:       server.URL,
		TargetBaseURL: "https://api.example.com",
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	}, logging.NewNop())

	if err := publisher.Enqueue(context.Background(), "/v1/internal/jobs/sync-matches", nil, 0, ""); err == nil {
		t.Fatalf("expected publish failure")
	}
	err := publisher.Enqueue(context.Background(), "/v1/internal/jobs/sync-matches", nil, 0, "")
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls mismatch: got=%d want=1", got)
	}
}

func TestQStashPublisher_Enqueue_ValidatesConfig(t *testing.T) {
	t.Parallel()

	publisher := NewQStashPublisher(QStashPublisherConfig{BaseURL: "ftp://qstash", TargetBaseURL: "https://api"}, logging.NewNop())
	err := publisher.Enqueue(context.Background(), "/v1/internal/jobs/sync-matches", nil, 0, "")
	if err == nil || !strings.Contains(err.Error(), "QSTASH_BASE_URL") {
		t.Fatalf("expected base url validation error, got %v", err)
	}

	publisher = NewQStashPublisher(QStashPublisherConfig{BaseURL: "https://qstash", TargetBaseURL: "https://"}, logging.NewNop())
	err = publisher.Enqueue(context.Background(), "/v1/internal/jobs/sync-matches", nil, 0, "")
	if err == nil || !strings.Contains(err.Error(), "QSTASH_TARGET_BASE_URL") {
		t.Fatalf("expected target url validation error, got %v", err)
	}
	if err := publisher.Enqueue(context.Background(), " / ", nil, 0, ""); err == nil {
		t.Fatalf("expected empty path error")
	}
}

func TestPublishRequest_CurlMasksSecrets(t *testing.T) {
	t.Parallel()

	publisher := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:          "https://qstash.example.com",
		Token:            "qstash-token",
		TargetBaseURL:    "https://api.example.com",
		InternalJobToken: "job-token",
	}, logging.NewNop())

	req, err := publisher.newPublishRequest("/x", map[string]string{"a": "it's"}, 0, "")
	if err != nil {
		t.Fatalf("newPublishRequest error: %v", err)
	}
	preview := req.curl()
	if strings.Contains(preview, "qstash-token") || strings.Contains(preview, "job-token") {
		t.Fatalf("secrets leaked into preview: %s", preview)
	}
	if strings.Contains(preview, "Upstash-Delay") || !strings.Contains(preview, "X-Internal-Job-Token: ***") {
		t.Fatalf("unexpected preview: %s", preview)
	}
	if !strings.Contains(preview, `'{"a":"it'"'"'s"}'`) {
		t.Fatalf("body must be shell quoted: %s", preview)
	}
}
