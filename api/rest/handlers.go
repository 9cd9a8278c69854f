package rest

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/tariel36/rpncalc/internal/expression"
)

// healthCheck handles GET /health
func (s *Server) healthCheck(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// parseExpression reads the request body. It writes the 400 response itself
// and returns ok=false when the body is unusable.
func parseExpression(c *fiber.Ctx) (string, bool, error) {
	var req ExpressionRequest
	if err := c.BodyParser(&req); err != nil {
		return "", false, c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   ErrInvalidRequest,
			Message: "Failed to parse request body: " + err.Error(),
		})
	}
	if strings.TrimSpace(req.Expression) == "" {
		return "", false, c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   ErrInvalidRequest,
			Message: "expression is required",
		})
	}
	return req.Expression, true, nil
}

func expressionError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(ToErrorResponse(err))
}

// evaluate handles POST /api/v1/evaluate
func (s *Server) evaluate(c *fiber.Ctx) error {
	expr, ok, err := parseExpression(c)
	if !ok {
		return err
	}

	start := time.Now()
	result, err := s.compiler.Evaluate(expr)
	latency := time.Since(start)
	s.recorder.Observe(latency, err)
	if err != nil {
		s.log.Debug("evaluation failed", zap.String("expression", expr), zap.Error(err))
		return expressionError(c, err)
	}

	return c.JSON(NewEvaluateResponse(requestID(c), expr, result, latency))
}

// tokenize handles POST /api/v1/tokenize
func (s *Server) tokenize(c *fiber.Ctx) error {
	expr, ok, err := parseExpression(c)
	if !ok {
		return err
	}

	tokens, err := s.calc.Tokenize(expr)
	if err != nil {
		return expressionError(c, err)
	}
	return c.JSON(TokenizeResponse{
		ID:         requestID(c),
		Expression: expr,
		Tokens:     tokens,
	})
}

// toRPN handles POST /api/v1/rpn
func (s *Server) toRPN(c *fiber.Ctx) error {
	expr, ok, err := parseExpression(c)
	if !ok {
		return err
	}

	rpn, err := s.compiler.ToRPN(expr)
	if err != nil {
		return expressionError(c, err)
	}
	return c.JSON(RPNResponse{
		ID:         requestID(c),
		Expression: expr,
		RPN:        expression.Join(rpn, " "),
		Tokens:     rpn,
	})
}

// validate handles POST /api/v1/validate. An invalid expression is a
// successful request with valid=false.
func (s *Server) validate(c *fiber.Ctx) error {
	expr, ok, err := parseExpression(c)
	if !ok {
		return err
	}

	resp := ValidateResponse{
		ID:         requestID(c),
		Expression: expr,
		Valid:      true,
	}
	if _, err := s.compiler.Evaluate(expr); err != nil {
		resp.Valid = false
		resp.Error = ToErrorResponse(err)
	}
	return c.JSON(resp)
}

// listFunctions handles GET /api/v1/functions
func (s *Server) listFunctions(c *fiber.Ctx) error {
	defs := s.calc.Functions().List()
	resp := FunctionListResponse{
		Functions: make([]FunctionResponse, len(defs)),
		Total:     len(defs),
	}
	for i, def := range defs {
		resp.Functions[i] = ToFunctionResponse(def)
	}
	return c.JSON(resp)
}

// stats handles GET /api/v1/stats
func (s *Server) stats(c *fiber.Ctx) error {
	resp := StatsResponse{Evaluations: s.recorder.Snapshot()}
	if s.cache != nil {
		cs := s.cache.Stats()
		resp.Cache = &cs
	}
	return c.JSON(resp)
}
