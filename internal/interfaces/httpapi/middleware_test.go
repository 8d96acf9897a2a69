package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/cricket-battle/internal/platform/logging"
	"github.com/riskibarqy/cricket-battle/internal/usecase"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer  abc ", "abc", true},
		{"", "", false},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer   ", "", false},
	}
	for _, tc := range tests {
		got, err := bearerToken(tc.header)
		if tc.ok != (err == nil) || got != tc.want {
			t.Fatalf("bearerToken(%q): got=%q err=%v", tc.header, got, err)
		}
		if err != nil && !errors.Is(err, usecase.ErrUnauthorized) {
			t.Fatalf("bearerToken(%q) error must be unauthorized: %v", tc.header, err)
		}
	}
}

func TestRequireInternalJobToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		configured string
		sent       string
		want       int
	}{
		{"secret", "secret", http.StatusOK},
		{"secret", " secret ", http.StatusOK},
		{"secret", "nope", http.StatusUnauthorized},
		{"secret", "", http.StatusUnauthorized},
		{"", "anything", http.StatusServiceUnavailable},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodPost, jobPathRankLeaderboards, nil)
		if tc.sent != "" {
			req.Header.Set(internalJobTokenHeader, tc.sent)
		}
		rec := httptest.NewRecorder()
		RequireInternalJobToken(tc.configured, okHandler()).ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("configured=%q sent=%q: got=%d want=%d", tc.configured, tc.sent, rec.Code, tc.want)
		}
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		allowed    []string
		method     string
		origin     string
		wantCode   int
		wantOrigin string
	}{
		{"configured origin", []string{"https://cricket-battle.app"}, http.MethodGet, "https://cricket-battle.app", http.StatusOK, "https://cricket-battle.app"},
		{"wildcard preflight", []string{"*"}, http.MethodOptions, "https://cricket-battle.app", http.StatusNoContent, "*"},
		{"unknown origin", []string{"https://allowed.example.com"}, http.MethodGet, "https://other.example.com", http.StatusOK, ""},
		{"no origin header", []string{"*"}, http.MethodGet, "", http.StatusOK, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/v1/matches/m1/leaderboard", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			rec := httptest.NewRecorder()
			CORS(tc.allowed, okHandler()).ServeHTTP(rec, req)

			if rec.Code != tc.wantCode {
				t.Fatalf("status: got=%d want=%d", rec.Code, tc.wantCode)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tc.wantOrigin {
				t.Fatalf("allow origin: got=%q want=%q", got, tc.wantOrigin)
			}
		})
	}
}

func TestShouldTraceRequest(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"/healthz", "/readyz", " /HEALTHZ "} {
		if shouldTraceRequest(path) {
			t.Fatalf("expected no tracing for %q", path)
		}
	}
	for _, path := range []string{"/v1/matches/m1/leaderboard", "/v1/battles/change", "/"} {
		if !shouldTraceRequest(path) {
			t.Fatalf("expected tracing for %q", path)
		}
	}
}

func TestStartSpan_WithoutParentIsNoop(t *testing.T) {
	t.Parallel()

	ctx, span := startSpan(context.Background(), "GetLeaderboard")
	defer span.End()
	if span.SpanContext().IsValid() || ctx != context.Background() {
		t.Fatalf("expected a no-op span for an untraced request")
	}
}

func TestRecoverPanic_WritesInternalEnvelope(t *testing.T) {
	t.Parallel()

	boom := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("over overflow") })
	rec := httptest.NewRecorder()
	recoverPanic(logging.NewNop(), boom).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got=%d want=%d", rec.Code, http.StatusInternalServerError)
	}
	var body envelope
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.APIVersion != apiVersion || body.Error == nil || body.Error.Status != "INTERNAL" || body.Error.Message != "internal server error" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestWriteError_ClassifiesSentinels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err    error
		code   int
		status string
	}{
		{fmt.Errorf("%w: bad payload", usecase.ErrInvalidInput), http.StatusBadRequest, "INVALID_ARGUMENT"},
		{fmt.Errorf("%w: locked", usecase.ErrRuleViolation), http.StatusConflict, "FAILED_PRECONDITION"},
		{fmt.Errorf("%w: missing", usecase.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("%w: token", usecase.ErrUnauthorized), http.StatusUnauthorized, "UNAUTHENTICATED"},
		{fmt.Errorf("%w: provider", usecase.ErrDependencyUnavailable), http.StatusServiceUnavailable, "UNAVAILABLE"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range tests {
		rec := httptest.NewRecorder()
		writeError(rec, tc.err)
		if rec.Code != tc.code {
			t.Fatalf("writeError(%v): got=%d want=%d", tc.err, rec.Code, tc.code)
		}
		var body envelope
		if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if body.Error == nil || body.Error.Status != tc.status || body.Error.Code != tc.code || len(body.Error.Errors) != 1 {
			t.Fatalf("writeError(%v) body: %+v", tc.err, body.Error)
		}
		if body.Data != nil {
			t.Fatalf("error envelope must not carry data")
		}
	}
}
