package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tariel36/rpncalc/api/mcpserver"
	"github.com/tariel36/rpncalc/api/rest"
	"github.com/tariel36/rpncalc/internal/config"
	"github.com/tariel36/rpncalc/pkg/logger"
)

var (
	serveAddress   string
	serveRateLimit float64
	serveNoCache   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API server.

Endpoints:
  GET  /health
  GET  /metrics                     Prometheus metrics
  POST /api/v1/evaluate             {"expression": "2d6+1"}
  POST /api/v1/tokenize
  POST /api/v1/rpn
  POST /api/v1/validate
  GET  /api/v1/functions
  GET  /api/v1/stats
  GET  /api/v1/evaluate/stream      websocket, one expression per message`,
	Example: `  rpncalc serve
  rpncalc serve --address :9090
  rpncalc serve --rate-limit 50 --set server.enable_cors=true`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the calculator as MCP tools on stdio",
	Long: `Run a Model Context Protocol server on stdin and stdout exposing the
evaluate, tokenize, to_rpn and functions tools.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(nil)
		if err != nil {
			return err
		}
		logger.Info("serving MCP on stdio", zap.String("version", Version))
		return mcpserver.New(a.Calculator, Version, a.Recorder).ServeStdio()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, mcpCmd)

	serveCmd.Flags().StringVar(&serveAddress, "address", ":8080", "HTTP listen address")
	serveCmd.Flags().Float64Var(&serveRateLimit, "rate-limit", 0, "requests per second, 0 disables")
	serveCmd.Flags().BoolVar(&serveNoCache, "no-cache", false, "disable the compiled expression cache")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(func(cfg *config.Config) {
		if cmd.Flags().Changed("address") {
			cfg.Server.Address = serveAddress
		}
		if cmd.Flags().Changed("rate-limit") {
			cfg.Server.RateLimit = serveRateLimit
		}
		if serveNoCache {
			cfg.Cache.Enabled = false
		}
	})
	if err != nil {
		return err
	}
	cfg := a.Config.Server

	server := rest.NewServer(a.Calculator, &cfg,
		rest.WithCache(a.Cache),
		rest.WithRecorder(a.Recorder),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "rpncalc %s listening on %s\n", Version, cfg.Address)
	}
	logger.Info("server starting",
		zap.String("address", cfg.Address),
		zap.Bool("cache", a.Cache != nil),
		zap.Float64("rate_limit", cfg.RateLimit),
	)

	if err := server.StartWithContext(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
