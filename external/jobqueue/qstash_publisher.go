package jobqueue

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/cricket-battle/internal/platform/logging"
	"github.com/riskibarqy/cricket-battle/internal/platform/resilience"
	"github.com/riskibarqy/cricket-battle/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var errTransient = crerr.New("qstash transient failure")

const (
	internalJobTokenHeader = "X-Internal-Job-Token"
	maxLoggedBody          = 4096
)

type QStashPublisherConfig struct {
	BaseURL          string
	Token            string
	TargetBaseURL    string
	Retries          int
	InternalJobToken string
	Timeout          time.Duration
	CircuitBreaker   resilience.CircuitBreakerConfig
	HTTPClient       *http.Client
}

// QStashPublisher schedules calls to this service's own internal job routes
// through QStash. The internal job token is forwarded so the route accepts
// the delivery.
type QStashPublisher struct {
	client   *http.Client
	token    string
	jobToken string
	retries  int
	logger   *logging.Logger
	breaker  *resilience.CircuitBreaker

	publishBase string
	targetBase  string
	// configErr is reported by every Enqueue when a base URL is unusable.
	configErr error
}

var _ usecase.JobQueue = (*QStashPublisher)(nil)

func NewQStashPublisher(cfg QStashPublisherConfig, logger *logging.Logger) *QStashPublisher {
	if logger == nil {
		logger = logging.Default()
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	p := &QStashPublisher{
		client:   client,
		token:    strings.TrimSpace(cfg.Token),
		jobToken: strings.TrimSpace(cfg.InternalJobToken),
		retries:  cfg.Retries,
		logger:   logger,
		breaker:  resilience.NewCircuitBreaker("qstash", cfg.CircuitBreaker),
	}
	var err error
	if p.publishBase, err = httpBaseURL(cfg.BaseURL); err != nil {
		p.configErr = crerr.Wrap(err, "invalid QSTASH_BASE_URL")
	} else if p.targetBase, err = httpBaseURL(cfg.TargetBaseURL); err != nil {
		p.configErr = crerr.Wrap(err, "invalid QSTASH_TARGET_BASE_URL")
	}
	return p
}

type header struct {
	name   string
	value  string
	secret bool
}

// publishRequest is one QStash publish call. Headers are shared by the real
// request and its masked curl rendering.
type publishRequest struct {
	url       string
	targetURL string
	headers   []header
	body      []byte
}

func (p *QStashPublisher) Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error {
	path = "/" + strings.TrimLeft(strings.TrimSpace(path), "/")
	if path == "/" {
		return crerr.New("job path is required")
	}
	if p.configErr != nil {
		return p.configErr
	}
	if err := p.breaker.Allow(); err != nil {
		p.logger.WarnContext(ctx, "qstash circuit breaker rejected request", "state", p.breaker.State(), "path", path)
		return fmt.Errorf("%w: qstash is temporarily unavailable", usecase.ErrDependencyUnavailable)
	}

	req, err := p.newPublishRequest(path, payload, delay, strings.TrimSpace(deduplicationID))
	if err != nil {
		return err
	}
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.String("qstash.target_url", req.targetURL),
			attribute.String("qstash.deduplication_id", deduplicationID),
			attribute.String("qstash.request_curl_preview", req.curl()),
		)
	}

	err = p.send(ctx, req)
	p.breaker.Record(err != nil && stderrors.Is(err, errTransient))
	if err != nil {
		return err
	}
	p.logger.InfoContext(ctx, "qstash job published", "path", path, "delay", delay, "deduplication_id", deduplicationID)
	return nil
}

func (p *QStashPublisher) newPublishRequest(path string, payload any, delay time.Duration, dedupID string) (publishRequest, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	body, err := sonic.Marshal(payload)
	if err != nil {
		return publishRequest{}, crerr.Wrap(err, "marshal job payload")
	}

	target := p.targetBase + path
	headers := []header{
		{name: "Authorization", value: "Bearer " + p.token, secret: true},
		{name: "Content-Type", value: "application/json"},
		{name: "Upstash-Method", value: http.MethodPost},
	}
	if p.retries > 0 {
		headers = append(headers, header{name: "Upstash-Retries", value: strconv.Itoa(p.retries)})
	}
	if secs := int(delay.Round(time.Second) / time.Second); secs > 0 {
		headers = append(headers, header{name: "Upstash-Delay", value: strconv.Itoa(secs) + "s"})
	}
	if dedupID != "" {
		headers = append(headers, header{name: "Upstash-Deduplication-Id", value: dedupID})
	}
	if p.jobToken != "" {
		headers = append(headers, header{name: "Upstash-Forward-" + internalJobTokenHeader, value: p.jobToken, secret: true})
	}

	return publishRequest{
		url:       p.publishBase + "/v2/publish/" + target,
		targetURL: target,
		headers:   headers,
		body:      body,
	}, nil
}

func (p *QStashPublisher) send(ctx context.Context, pr publishRequest) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pr.url, bytes.NewReader(pr.body))
	if err != nil {
		return crerr.Wrap(err, "create qstash request")
	}
	for _, h := range pr.headers {
		req.Header.Set(h.name, h.value)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: publish to %s: %v", errTransient, pr.targetURL, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode/100 == 2 {
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBody))
	msg := fmt.Sprintf("publish to %s: status=%d body=%s", pr.targetURL, resp.StatusCode, strings.TrimSpace(string(raw)))
	switch {
	case resp.StatusCode == http.StatusRequestTimeout, resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s", errTransient, msg)
	default:
		return crerr.New(msg)
	}
}

func httpBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", crerr.New("value is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", crerr.Newf("%q must use http or https", raw)
	}
	if u.Host == "" {
		return "", crerr.Newf("%q has no host", raw)
	}
	return strings.TrimRight(raw, "/"), nil
}

// curl renders the publish call for debugging with secret headers masked.
func (pr publishRequest) curl() string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("curl -X POST " + shellQuote(pr.url))
	for _, h := range pr.headers {
		value := h.value
		if h.secret {
			value = "***"
		}
		_, _ = buf.WriteString(" -H " + shellQuote(h.name+": "+value))
	}
	body := string(pr.body)
	if len(body) > maxLoggedBody {
		body = body[:maxLoggedBody] + "...(truncated)"
	}
	_, _ = buf.WriteString(" -d " + shellQuote(body))
	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'"'"'`) + "'"
}
