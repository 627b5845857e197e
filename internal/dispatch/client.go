// Package dispatch is the client of the remote dispatch REST API. Every
// call carries the request context and is never retried.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/access"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/metrics"
)

const maxErrorBody = 64 << 10

type Client struct {
	baseURL     string
	dispatchKey string
	http        *http.Client
	logger      *zap.Logger
}

func New(baseURL, dispatchKey string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:     baseURL,
		dispatchKey: dispatchKey,
		http:        &http.Client{Timeout: timeout},
		logger:      logger.With(zap.String("component", "dispatch")),
	}
}

type call struct {
	op     string
	method string
	path   string
	query  url.Values
	body   interface{}
	out    interface{}
}

// do performs one call. The bearer token comes from the session in ctx.
func (c *Client) do(ctx context.Context, cl call) (http.Header, error) {
	start := time.Now()
	header, err := c.roundTrip(ctx, cl)
	metrics.UpstreamRequestDuration.WithLabelValues(cl.op).Observe(time.Since(start).Seconds())

	outcome := "ok"
	var apiErr *APIError
	switch {
	case err == nil:
	case errors.As(err, &apiErr):
		outcome = strconv.Itoa(apiErr.Status)
	default:
		outcome = "transport"
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(cl.op, outcome).Inc()

	if err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Warn("Dispatch API call failed",
			zap.String("operation", cl.op),
			zap.String("method", cl.method),
			zap.String("path", cl.path),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
	}
	return header, err
}

func (c *Client) roundTrip(ctx context.Context, cl call) (http.Header, error) {
	u := c.baseURL + cl.path
	if len(cl.query) > 0 {
		u += "?" + cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		buf, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("%w: encode %s request: %v", ErrMalformedData, cl.op, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.dispatchKey != "" {
		req.Header.Set("X-Dispatch-key", c.dispatchKey)
	}
	if s, ok := access.FromContext(ctx); ok && s.UpstreamToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.UpstreamToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.Header, &APIError{Status: resp.StatusCode, Detail: parseDetail(raw)}
	}

	if cl.out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.Header, nil
	}
	if raw, ok := cl.out.(*json.RawMessage); ok {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s response: %v", ErrTransport, cl.op, err)
		}
		if len(bytes.TrimSpace(data)) == 0 {
			data = []byte("null")
		}
		*raw = data
		return resp.Header, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(cl.out); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: decode %s response: %v", ErrTransport, cl.op, err)
	}
	return resp.Header, nil
}

// totalCount reads X-Total-Count; a missing or garbled header is 0.
func totalCount(h http.Header) int {
	n, err := strconv.Atoi(h.Get("X-Total-Count"))
	if err != nil {
		return 0
	}
	return n
}

func pathID(prefix, id string) string {
	return prefix + url.PathEscape(id)
}

// Ping reports whether the API answers at all; any HTTP status counts.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, call{op: "ping", method: http.MethodGet, path: "/"})
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return nil
	}
	return err
}
