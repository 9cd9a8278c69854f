package rest

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Error codes that are not expression error kinds.
const (
	ErrInvalidRequest = "InvalidRequest"
	ErrRateLimited    = "RateLimited"
)

// unlimited paths skip the rate limiter.
var unlimited = map[string]bool{
	"/health":        true,
	"/api/v1/health": true,
	"/metrics":       true,
}

// rateLimit rejects requests once the token bucket is empty.
func (s *Server) rateLimit() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if unlimited[c.Path()] || s.limiter.Allow() {
			return c.Next()
		}
		s.log.Warn("rate limited", zap.String("path", c.Path()), zap.String("ip", c.IP()))
		return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{
			Error:   ErrRateLimited,
			Message: "too many requests",
		})
	}
}

func (s *Server) requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		s.log.Debug("request",
			zap.String("id", requestID(c)),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
		)
		return err
	}
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}
