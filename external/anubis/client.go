package anubis

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/cricket-battle/internal/domain/user"
	"github.com/riskibarqy/cricket-battle/internal/platform/logging"
	"github.com/riskibarqy/cricket-battle/internal/platform/resilience"
	"github.com/riskibarqy/cricket-battle/internal/usecase"
	"golang.org/x/sync/singleflight"
)

var errTransient = crerr.New("anubis transient failure")

const (
	defaultTimeout          = 3 * time.Second
	defaultPrincipalEntries = 10000
	maxIntrospectBody       = 1 << 20
)

type ClientConfig struct {
	BaseURL          string
	IntrospectPath   string
	AdminKey         string
	Timeout          time.Duration
	PrincipalTTL     time.Duration
	PrincipalEntries int
	CircuitBreaker   resilience.CircuitBreakerConfig
}

// Client resolves bearer tokens to principals through the anubis token
// introspection endpoint. Concurrent checks of one token share a call.
type Client struct {
	http     *http.Client
	endpoint string
	adminKey string
	logger   *logging.Logger
	cache    *principalCache
	breaker  *resilience.CircuitBreaker
	flight   singleflight.Group
}

func NewClient(httpClient *http.Client, cfg ClientConfig, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	entries := cfg.PrincipalEntries
	if entries <= 0 {
		entries = defaultPrincipalEntries
	}
	return &Client{
		http:     httpClient,
		endpoint: buildURL(cfg.BaseURL, cfg.IntrospectPath),
		adminKey: strings.TrimSpace(cfg.AdminKey),
		logger:   logger,
		cache:    newPrincipalCache(cfg.PrincipalTTL, entries),
		breaker:  resilience.NewCircuitBreaker("anubis", cfg.CircuitBreaker),
	}
}

func (c *Client) VerifyAccessToken(ctx context.Context, token string) (user.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.Principal{}, fmt.Errorf("%w: token is required", usecase.ErrUnauthorized)
	}

	// Raw tokens are never stored; the cache and flight keys are hashes.
	sum := sha256.Sum256([]byte(token))
	key := hex.EncodeToString(sum[:])
	if p, ok := c.cache.get(key); ok {
		return p, nil
	}

	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "anubis circuit breaker rejected request", "state", c.breaker.State())
		return user.Principal{}, fmt.Errorf("%w: anubis is temporarily unavailable", usecase.ErrDependencyUnavailable)
	}

	v, err, _ := c.flight.Do(key, func() (any, error) {
		p, err := c.introspect(ctx, token)
		c.breaker.Record(err != nil && stderrors.Is(err, errTransient))
		if err == nil {
			c.cache.put(key, p)
		}
		return p, err
	})
	if err != nil {
		return user.Principal{}, err
	}
	return v.(user.Principal), nil
}

type introspectRequest struct {
	Token string `json:"token"`
}

type introspectResponse struct {
	Active bool   `json:"active"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func (c *Client) introspect(ctx context.Context, token string) (user.Principal, error) {
	payload, err := sonic.Marshal(introspectRequest{Token: token})
	if err != nil {
		return user.Principal{}, crerr.Wrap(err, "marshal introspect request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return user.Principal{}, crerr.Wrap(err, "create introspect request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.adminKey != "" {
		req.Header.Set("X-Admin-Key", c.adminKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return user.Principal{}, fmt.Errorf("%w: introspect: %v", errTransient, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch code := resp.StatusCode; {
	case code == http.StatusOK:
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return user.Principal{}, fmt.Errorf("%w: introspection denied", usecase.ErrUnauthorized)
	case code == http.StatusTooManyRequests, code >= http.StatusInternalServerError:
		c.logger.WarnContext(ctx, "anubis introspection unavailable", "status_code", code)
		return user.Principal{}, fmt.Errorf("%w: %w: introspection status %d", usecase.ErrDependencyUnavailable, errTransient, code)
	default:
		c.logger.WarnContext(ctx, "anubis introspection rejected", "status_code", code)
		return user.Principal{}, crerr.Newf("anubis introspection failed with status %d", code)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxIntrospectBody))
	if err != nil {
		return user.Principal{}, fmt.Errorf("%w: read introspect response: %v", errTransient, err)
	}
	var out introspectResponse
	if err := sonic.Unmarshal(body, &out); err != nil {
		return user.Principal{}, crerr.Wrap(err, "decode introspect response")
	}
	switch {
	case !out.Active:
		return user.Principal{}, fmt.Errorf("%w: inactive token", usecase.ErrUnauthorized)
	case strings.TrimSpace(out.UserID) == "":
		return user.Principal{}, crerr.New("introspect response has no user_id")
	}
	return user.Principal{UserID: out.UserID, Email: out.Email}, nil
}

// buildURL joins base and path; an absolute path wins over the base.
func buildURL(base, path string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	path = strings.TrimSpace(path)
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if path == "" {
		return base
	}
	return base + "/" + strings.TrimLeft(path, "/")
}
