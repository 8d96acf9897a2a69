package push

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/cricket-battle/internal/domain/notification"
	"github.com/riskibarqy/cricket-battle/internal/platform/logging"
	"github.com/riskibarqy/cricket-battle/internal/platform/resilience"
	"github.com/riskibarqy/cricket-battle/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
)

var errPushTransient = crerr.New("push gateway transient failure")

type Config struct {
	Endpoint       string
	ServerKey      string
	Timeout        time.Duration
	MaxConns       int
	CircuitBreaker resilience.CircuitBreakerConfig
}

// HTTPGateway posts messages to an FCM-style HTTP push endpoint.
type HTTPGateway struct {
	client         *fasthttp.Client
	endpoint       string
	serverKey      string
	timeout        time.Duration
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
}

var _ notification.PushGateway = (*HTTPGateway)(nil)

func NewHTTPGateway(cfg Config, logger *logging.Logger) *HTTPGateway {
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 64
	}
	return &HTTPGateway{
		client: &fasthttp.Client{
			Name:            "cricket-battle-push",
			ReadTimeout:     timeout,
			WriteTimeout:    timeout,
			MaxConnsPerHost: maxConns,
		},
		endpoint:       strings.TrimSpace(cfg.Endpoint),
		serverKey:      strings.TrimSpace(cfg.ServerKey),
		timeout:        timeout,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker("push", cfg.CircuitBreaker),
	}
}

type pushPayload struct {
	To           string            `json:"to"`
	Notification pushNotification  `json:"notification"`
	Data         map[string]string `json:"data"`
}

type pushNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type pushResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		Error string `json:"error"`
	} `json:"results"`
}

func (g *HTTPGateway) Send(ctx context.Context, deviceToken string, msg notification.Message) error {
	deviceToken = strings.TrimSpace(deviceToken)
	if deviceToken == "" {
		return crerr.New("device token is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := g.breaker.Allow(); err != nil {
		return fmt.Errorf("%w: push gateway is temporarily unavailable", usecase.ErrDependencyUnavailable)
	}

	err := g.send(ctx, deviceToken, msg)
	g.breaker.Record(err != nil && stderrors.Is(err, errPushTransient))
	return err
}

func (g *HTTPGateway) send(ctx context.Context, deviceToken string, msg notification.Message) error {
	body, err := sonic.Marshal(pushPayload{
		To:           deviceToken,
		Notification: pushNotification{Title: msg.Title, Body: msg.Body},
		Data:         msg.Data(),
	})
	if err != nil {
		return crerr.Wrap(err, "marshal push payload")
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(g.endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "key="+g.serverKey)
	req.SetBodyRaw(body)

	timeout := g.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if err := g.client.DoTimeout(req, resp, timeout); err != nil {
		return fmt.Errorf("%w: send push: %v", errPushTransient, err)
	}

	status := resp.StatusCode()
	if status == fasthttp.StatusTooManyRequests || status >= fasthttp.StatusInternalServerError {
		return fmt.Errorf("%w: push status=%d body=%s", errPushTransient, status, previewBody(resp.Body()))
	}
	if status/100 != 2 {
		return crerr.Newf("push status=%d body=%s", status, previewBody(resp.Body()))
	}

	var decoded pushResponse
	if err := sonic.Unmarshal(resp.Body(), &decoded); err != nil {
		// Some gateways answer 200 with an empty body.
		return nil
	}
	if decoded.Failure > 0 {
		reason := "unknown"
		if len(decoded.Results) > 0 && decoded.Results[0].Error != "" {
			reason = decoded.Results[0].Error
		}
		g.logger.DebugContext(ctx, "push rejected by gateway", "type", msg.Type, "reason", reason)
		return crerr.Newf("push rejected: %s", reason)
	}
	return nil
}

func previewBody(raw []byte) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	const limit = 256
	if len(raw) > limit {
		_, _ = buf.Write(raw[:limit])
		_, _ = buf.WriteString("...")
	} else {
		_, _ = buf.Write(raw)
	}
	return strings.TrimSpace(buf.String())
}

// LogGateway only logs messages. It backs PUSH_ENABLED=false.
type LogGateway struct {
	logger *logging.Logger
}

func NewLogGateway(logger *logging.Logger) *LogGateway {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogGateway{logger: logger}
}

func (g *LogGateway) Send(ctx context.Context, _ string, msg notification.Message) error {
	g.logger.InfoContext(ctx, "push suppressed", "type", msg.Type, "match_id", msg.MatchID, "title", msg.Title)
	return nil
}
