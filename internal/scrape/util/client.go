package util

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"jobfinder-engine/internal/domain"
	"jobfinder-engine/internal/errors"
)

const (
	// BrowserUserAgent is sent to sources that reject obvious bots.
	BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	// BotUserAgent identifies the engine to APIs that ask for it.
	BotUserAgent = "JobFinderBot/1.0"

	maxBodyBytes = 8 << 20
)

// Client is the shared HTTP plumbing for every adapter: per-host rate
// limiting, a per-call timeout and a bounded body read.
type Client struct {
	hc      *http.Client
	limiter *HostLimiter
}

func NewClient(hc *http.Client, limiter *HostLimiter) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	if limiter == nil {
		limiter = NewHostLimiter(2, 2)
	}
	return &Client{hc: hc, limiter: limiter}
}

// Response is a fully read HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Get fetches rawURL. Transport failures and timeouts come back as
// Unavailable errors; any HTTP status is returned as a Response.
func (c *Client) Get(ctx context.Context, rawURL string, timeout time.Duration, headers map[string]string) (*Response, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := c.limiter.WaitURL(ctx, rawURL); err != nil {
		return nil, errors.Unavailable("rate limiter wait", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Internal("build request", err)
	}
	req.Header.Set("User-Agent", BotUserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, errors.Unavailable("get "+req.URL.Host, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Unavailable("read body", err)
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// CheckStatus classifies non-2xx responses.
func CheckStatus(res *Response) error {
	switch {
	case res.Status == http.StatusTooManyRequests:
		return errors.RateLimit("status 429", nil)
	case res.Status < 200 || res.Status >= 300:
		return errors.Unavailable(fmt.Sprintf("status %d", res.Status), nil)
	}
	return nil
}

// DecodeJSON decodes body with numbers kept as json.Number.
func DecodeJSON(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return errors.Malformed("decode json", err)
	}
	return nil
}

// Settle converts an adapter's internal outcome into the Adapter
// contract: expected faults are logged and flattened to an empty
// result, anything else propagates.
func Settle(logger *zap.Logger, source string, jobs []domain.Job, err error) ([]domain.Job, error) {
	if err == nil {
		return jobs, nil
	}
	if errors.Expected(err) {
		logger.Warn("source degraded",
			zap.String("source", source),
			zap.String("kind", string(errors.TypeOf(err))),
			zap.Error(err),
		)
		return []domain.Job{}, nil
	}
	return nil, err
}

// Keep appends job to out when it is displayable and out is below limit.
func Keep(out []domain.Job, job domain.Job, limit int) []domain.Job {
	if len(out) >= limit || !job.Valid() {
		return out
	}
	return append(out, job)
}
