package novacom

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/CrestNiraj12/novaterm/domain"
)

// HTTPCaller posts actions to the NovaCom bridge.
type HTTPCaller struct {
	url     string
	timeout time.Duration
	client  *fasthttp.Client
	log     *zap.Logger
}

// NewHTTPCaller creates a bridge caller. timeout bounds each request when
// the context carries no earlier deadline.
func NewHTTPCaller(url string, timeout time.Duration, log *zap.Logger) *HTTPCaller {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPCaller{
		url:     url,
		timeout: timeout,
		client: &fasthttp.Client{
			Name:                "novaterm",
			MaxConnsPerHost:     16,
			MaxIdleConnDuration: 30 * time.Second,
		},
		log: log,
	}
}

func (c *HTTPCaller) Call(ctx context.Context, action string, params ...string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrNetwork, action, err)
	}
	if params == nil {
		params = []string{}
	}
	body, err := json.Marshal(request{Action: action, Params: params})
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", action, err)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBodyRaw(body)

	start := time.Now()
	if err := c.client.DoTimeout(req, resp, c.requestTimeout(ctx)); err != nil {
		c.log.Debug("bridge call failed", zap.String("action", action), zap.Error(err))
		return nil, fmt.Errorf("%w: request %s: %v", domain.ErrNetwork, action, err)
	}
	data := append([]byte(nil), resp.Body()...)
	code := resp.StatusCode()
	c.log.Debug("bridge call",
		zap.String("action", action),
		zap.Int("status", code),
		zap.Duration("took", time.Since(start)),
	)

	if code < 200 || code >= 300 {
		return nil, fmt.Errorf("%w: bridge %s returned %d: %s", domain.ErrNetwork, action, code, errorText(data))
	}
	if err := checkEnvelope(action, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (c *HTTPCaller) requestTimeout(ctx context.Context) time.Duration {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); timeout <= 0 || left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		timeout = time.Millisecond
	}
	return timeout
}
