package client

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tariel36/rpncalc/api/rest"
	"github.com/tariel36/rpncalc/internal/expression"
)

func startServer(t *testing.T) string {
	t.Helper()
	registry := expression.NewRegistry()
	require.NoError(t, expression.RegisterBuiltins(registry))
	calc := expression.NewCalculator(nil, expression.NewEvaluator(expression.WithRegistry(registry)))
	server := rest.NewServer(calc, rest.DefaultConfig())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		_ = server.App().Listener(ln)
	}()
	t.Cleanup(func() {
		_ = server.ShutdownWithTimeout(time.Second)
	})
	return "http://" + ln.Addr().String()
}

func TestNew(t *testing.T) {
	c, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", c.config.BaseURL)

	c, err = New(&Config{BaseURL: "http://example.com/"})
	require.NoError(t, err)
	assert.Equal(t, "http://example.com", c.config.BaseURL)
	assert.Equal(t, 10*time.Second, c.config.Timeout)

	_, err = New(&Config{BaseURL: "example.com"})
	assert.Error(t, err)
}

func TestClient_RoundTrip(t *testing.T) {
	c, err := New(&Config{BaseURL: startServer(t), Timeout: 5 * time.Second})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Health(ctx))

	result, err := c.Evaluate(ctx, "max(2, 3) * 4")
	require.NoError(t, err)
	assert.Equal(t, "12", result.Result)
	assert.NotEmpty(t, result.ID)

	tokens, err := c.Tokenize(ctx, "1 + 2")
	require.NoError(t, err)
	assert.Len(t, tokens.Tokens, 5)

	rpn, err := c.ToRPN(ctx, "1 + 2 * 3")
	require.NoError(t, err)
	assert.Equal(t, "1 2 3 * +", rpn.RPN)

	valid, err := c.Validate(ctx, "1 +")
	require.NoError(t, err)
	assert.False(t, valid.Valid)

	fns, err := c.Functions(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(expression.Builtins()), fns.Total)
}

func TestClient_ExpressionError(t *testing.T) {
	c, err := New(&Config{BaseURL: startServer(t), Timeout: 5 * time.Second})
	require.NoError(t, err)

	_, err = c.Evaluate(context.Background(), "(1 + 2")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 422, apiErr.StatusCode)
	assert.Equal(t, "MismatchedParentheses", apiErr.Response.Error)
	require.NotNil(t, apiErr.Response.Position)
	assert.Equal(t, 0, *apiErr.Response.Position)
	assert.Contains(t, err.Error(), "position 0")
}

func TestClient_Cancelled(t *testing.T) {
	c, err := New(&Config{BaseURL: startServer(t)})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Evaluate(ctx, "1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	c, err := New(&Config{BaseURL: "http://" + addr, Timeout: time.Second})
	require.NoError(t, err)
	_, err = c.Evaluate(context.Background(), "1")
	assert.Error(t, err)
}
