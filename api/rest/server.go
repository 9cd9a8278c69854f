// Package rest provides the HTTP API for evaluating expressions.
package rest

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tariel36/rpncalc/internal/config"
	"github.com/tariel36/rpncalc/internal/expression"
	"github.com/tariel36/rpncalc/internal/metrics"
	"github.com/tariel36/rpncalc/internal/rpncache"
	"github.com/tariel36/rpncalc/pkg/logger"
)

// Compiler turns expressions into RPN and evaluates them. Both
// *expression.Calculator and *rpncache.Cache satisfy it.
type Compiler interface {
	ToRPN(expr string) ([]expression.Token, error)
	Evaluate(expr string) (string, error)
}

// Server represents the REST API server.
type Server struct {
	app      *fiber.App
	calc     *expression.Calculator
	compiler Compiler
	cache    *rpncache.Cache
	recorder *metrics.Recorder
	limiter  *rate.Limiter
	config   *config.ServerConfig
	log      *zap.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithCache evaluates through cache instead of the bare calculator.
func WithCache(cache *rpncache.Cache) Option {
	return func(s *Server) {
		s.cache = cache
	}
}

// WithRecorder sets the recorder behind /api/v1/stats and /metrics.
func WithRecorder(rec *metrics.Recorder) Option {
	return func(s *Server) {
		if rec != nil {
			s.recorder = rec
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// DefaultConfig returns the server section of the default configuration.
func DefaultConfig() *config.ServerConfig {
	cfg := config.DefaultConfig().Server
	return &cfg
}

// NewServer creates a new REST API server.
func NewServer(calc *expression.Calculator, cfg *config.ServerConfig, opts ...Option) *Server {
	if calc == nil {
		calc = expression.NewCalculator(nil, nil)
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	s := &Server{
		calc:   calc,
		config: cfg,
		log:    logger.Named("rest"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.recorder == nil {
		s.recorder = metrics.NewRecorder()
	}
	s.compiler = calc
	if s.cache != nil {
		s.compiler = s.cache
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	fiberCfg := fiber.Config{
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		ErrorHandler:          customErrorHandler,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		AppName:               "rpncalc",
		DisableStartupMessage: true,
	}
	if cfg.BodyLimit > 0 {
		fiberCfg.BodyLimit = cfg.BodyLimit
	}
	s.app = fiber.New(fiberCfg)

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures middleware for the server.
func (s *Server) setupMiddleware() {
	s.app.Use(fiberrecover.New(fiberrecover.Config{
		EnableStackTrace: true,
	}))

	s.app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))

	s.app.Use(s.requestLogger())

	if s.config.EnableCORS {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins: "*",
			AllowMethods: "GET,POST,OPTIONS",
			AllowHeaders: "Origin,Content-Type,Accept,X-Request-ID",
			MaxAge:       86400,
		}))
	}

	if s.limiter != nil {
		s.app.Use(s.rateLimit())
	}
}

// setupRoutes configures the API routes.
func (s *Server) setupRoutes() {
	s.app.Get("/health", s.healthCheck)

	if s.config.EnableMetrics {
		s.app.Get("/metrics", adaptor.HTTPHandler(
			promhttp.HandlerFor(s.recorder.Registry(), promhttp.HandlerOpts{}),
		))
	}

	api := s.app.Group("/api/v1")
	api.Get("/health", s.healthCheck)
	api.Post("/evaluate", s.evaluate)
	api.Post("/tokenize", s.tokenize)
	api.Post("/rpn", s.toRPN)
	api.Post("/validate", s.validate)
	api.Get("/functions", s.listFunctions)
	api.Get("/stats", s.stats)

	s.setupWebSocketRoutes()
}

// Start starts the REST API server.
func (s *Server) Start() error {
	s.log.Info("listening", zap.String("address", s.config.Address))
	return s.app.Listen(s.config.Address)
}

// StartWithContext starts the server and shuts it down when ctx ends.
func (s *Server) StartWithContext(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		errCh <- s.Start()
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// ShutdownWithTimeout gracefully shuts down the server with a timeout.
func (s *Server) ShutdownWithTimeout(timeout time.Duration) error {
	return s.app.ShutdownWithTimeout(timeout)
}

// App returns the underlying Fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Recorder returns the server's metrics recorder.
func (s *Server) Recorder() *metrics.Recorder {
	return s.recorder
}

// customErrorHandler handles errors returned by handlers.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   errorCode(code),
		Message: message,
	})
}

func errorCode(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return ErrInvalidRequest
	case fiber.StatusNotFound:
		return "NotFound"
	case fiber.StatusMethodNotAllowed:
		return "MethodNotAllowed"
	case fiber.StatusRequestEntityTooLarge:
		return "RequestTooLarge"
	case fiber.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return "InternalError"
	}
}
