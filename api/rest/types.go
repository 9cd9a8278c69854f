package rest

import (
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/tariel36/rpncalc/internal/expression"
	"github.com/tariel36/rpncalc/internal/metrics"
	"github.com/tariel36/rpncalc/internal/rpncache"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error    string `json:"error"`
	Message  string `json:"message"`
	Position *int   `json:"position,omitempty"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ExpressionRequest is the body of every expression endpoint.
type ExpressionRequest struct {
	Expression string `json:"expression"`
}

// EvaluateResponse represents an evaluation result.
type EvaluateResponse struct {
	ID            string  `json:"id"`
	Expression    string  `json:"expression"`
	Result        string  `json:"result"`
	Value         float64 `json:"value"`
	LatencyMicros int64   `json:"latency_us"`
}

// NewEvaluateResponse builds an EvaluateResponse. Value stays zero for
// results JSON cannot carry (NaN and infinities); Result always has them.
func NewEvaluateResponse(id, expr, result string, latency time.Duration) EvaluateResponse {
	resp := EvaluateResponse{
		ID:            id,
		Expression:    expr,
		Result:        result,
		LatencyMicros: latency.Microseconds(),
	}
	if v, err := strconv.ParseFloat(result, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		resp.Value = v
	}
	return resp
}

// TokenizeResponse lists the tokens of an expression.
type TokenizeResponse struct {
	ID         string             `json:"id"`
	Expression string             `json:"expression"`
	Tokens     []expression.Token `json:"tokens"`
}

// RPNResponse holds an expression in reverse Polish notation.
type RPNResponse struct {
	ID         string             `json:"id"`
	Expression string             `json:"expression"`
	RPN        string             `json:"rpn"`
	Tokens     []expression.Token `json:"tokens"`
}

// ValidateResponse reports whether an expression evaluates.
type ValidateResponse struct {
	ID         string         `json:"id"`
	Expression string         `json:"expression"`
	Valid      bool           `json:"valid"`
	Error      *ErrorResponse `json:"error,omitempty"`
}

// FunctionResponse describes one registered function.
type FunctionResponse struct {
	Name        string                `json:"name"`
	Signature   string                `json:"signature"`
	Description string                `json:"description,omitempty"`
	Arguments   []expression.Argument `json:"arguments"`
}

// FunctionListResponse lists registered functions.
type FunctionListResponse struct {
	Functions []FunctionResponse `json:"functions"`
	Total     int                `json:"total"`
}

// StatsResponse holds server-side evaluation statistics.
type StatsResponse struct {
	Evaluations metrics.Snapshot `json:"evaluations"`
	Cache       *rpncache.Stats  `json:"cache,omitempty"`
}

// StreamMessage is one reply on the evaluation stream.
type StreamMessage struct {
	Type       string         `json:"type"`
	ID         string         `json:"id,omitempty"`
	Expression string         `json:"expression,omitempty"`
	Result     string         `json:"result,omitempty"`
	Error      *ErrorResponse `json:"error,omitempty"`
	Timestamp  string         `json:"timestamp"`
}

// ToFunctionResponse converts a function definition.
func ToFunctionResponse(def *expression.FunctionDefinition) FunctionResponse {
	args := def.Arguments
	if args == nil {
		args = []expression.Argument{}
	}
	return FunctionResponse{
		Name:        def.Name,
		Signature:   def.Signature(),
		Description: def.Description,
		Arguments:   args,
	}
}

// ToErrorResponse converts an evaluation error. Expression errors carry
// their kind and position; anything else is reported as "Other".
func ToErrorResponse(err error) *ErrorResponse {
	var exprErr *expression.ExpressionError
	if !errors.As(err, &exprErr) {
		return &ErrorResponse{Error: metrics.ErrorKind(err), Message: err.Error()}
	}
	resp := &ErrorResponse{
		Error:   exprErr.Kind.String(),
		Message: err.Error(),
	}
	if exprErr.Position >= 0 {
		pos := exprErr.Position
		resp.Position = &pos
	}
	return resp
}
