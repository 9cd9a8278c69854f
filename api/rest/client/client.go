// Package client calls a running rpncalc REST server.
package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/valyala/fasthttp"

	"github.com/tariel36/rpncalc/api/rest"
)

// Config holds the configuration for the HTTP client.
type Config struct {
	// BaseURL is the server root, e.g. "http://localhost:8080".
	BaseURL string

	// Timeout bounds each request.
	Timeout time.Duration
}

// DefaultConfig returns a default client configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL: "http://localhost:8080",
		Timeout: 10 * time.Second,
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Response   rest.ErrorResponse
}

func (e *APIError) Error() string {
	if e.Response.Position != nil {
		return fmt.Sprintf("%s (HTTP %d, position %d): %s", e.Response.Error, e.StatusCode, *e.Response.Position, e.Response.Message)
	}
	return fmt.Sprintf("%s (HTTP %d): %s", e.Response.Error, e.StatusCode, e.Response.Message)
}

// Client talks to the REST API over fasthttp.
type Client struct {
	config *Config
	http   *fasthttp.Client
}

// New creates a client.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg
	if c.Timeout <= 0 {
		c.Timeout = DefaultConfig().Timeout
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return nil, fmt.Errorf("base URL %q must start with http:// or https://", cfg.BaseURL)
	}

	return &Client{
		config: &c,
		http: &fasthttp.Client{
			Name:                "rpncalc",
			MaxIdleConnDuration: 90 * time.Second,
			ReadTimeout:         c.Timeout,
			WriteTimeout:        c.Timeout,
		},
	}, nil
}

// Evaluate evaluates expr on the server.
func (c *Client) Evaluate(ctx context.Context, expr string) (*rest.EvaluateResponse, error) {
	var out rest.EvaluateResponse
	if err := c.post(ctx, "/api/v1/evaluate", rest.ExpressionRequest{Expression: expr}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Tokenize tokenizes expr on the server.
func (c *Client) Tokenize(ctx context.Context, expr string) (*rest.TokenizeResponse, error) {
	var out rest.TokenizeResponse
	if err := c.post(ctx, "/api/v1/tokenize", rest.ExpressionRequest{Expression: expr}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ToRPN converts expr on the server.
func (c *Client) ToRPN(ctx context.Context, expr string) (*rest.RPNResponse, error) {
	var out rest.RPNResponse
	if err := c.post(ctx, "/api/v1/rpn", rest.ExpressionRequest{Expression: expr}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Validate checks expr on the server.
func (c *Client) Validate(ctx context.Context, expr string) (*rest.ValidateResponse, error) {
	var out rest.ValidateResponse
	if err := c.post(ctx, "/api/v1/validate", rest.ExpressionRequest{Expression: expr}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Functions lists the server's functions.
func (c *Client) Functions(ctx context.Context) (*rest.FunctionListResponse, error) {
	var out rest.FunctionListResponse
	if err := c.do(ctx, fasthttp.MethodGet, "/api/v1/functions", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health checks the server.
func (c *Client) Health(ctx context.Context) error {
	var out rest.HealthResponse
	return c.do(ctx, fasthttp.MethodGet, "/health", nil, &out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := sonic.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return c.do(ctx, fasthttp.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.config.BaseURL + path)
	req.Header.SetMethod(method)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	deadline := time.Now().Add(c.config.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		if errors.Is(err, fasthttp.ErrTimeout) {
			return fmt.Errorf("%s %s: request timed out: %w", method, path, err)
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		apiErr := &APIError{StatusCode: status}
		if err := sonic.Unmarshal(resp.Body(), &apiErr.Response); err != nil || apiErr.Response.Error == "" {
			apiErr.Response.Error = "HTTPError"
			apiErr.Response.Message = strings.TrimSpace(string(resp.Body()))
		}
		return apiErr
	}

	if err := sonic.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
