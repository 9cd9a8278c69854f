// Package mcpserver exposes the calculator as Model Context Protocol tools
// over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/tariel36/rpncalc/api/rest"
	"github.com/tariel36/rpncalc/internal/expression"
	"github.com/tariel36/rpncalc/internal/metrics"
	"github.com/tariel36/rpncalc/pkg/logger"
)

// Name is the server name announced to clients.
const Name = "rpncalc"

// Server wraps an MCP server bound to a calculator.
type Server struct {
	mcp      *server.MCPServer
	calc     *expression.Calculator
	recorder *metrics.Recorder
	log      *zap.Logger
}

// New creates the MCP server and registers its tools.
func New(calc *expression.Calculator, version string, rec *metrics.Recorder) *Server {
	if calc == nil {
		calc = expression.NewCalculator(nil, nil)
	}
	if rec == nil {
		rec = metrics.NewRecorder()
	}
	s := &Server{
		mcp:      server.NewMCPServer(Name, version, server.WithToolCapabilities(false)),
		calc:     calc,
		recorder: rec,
		log:      logger.Named("mcp"),
	}

	expressionArg := mcp.WithString("expression",
		mcp.Required(),
		mcp.Description("Arithmetic or dice expression, e.g. 2*(2d6+1) or max(3, 4)"),
	)

	s.mcp.AddTool(mcp.NewTool("evaluate",
		mcp.WithDescription("Evaluate an expression and return the number it produces. Dice are rolled."),
		expressionArg,
	), s.evaluate)

	s.mcp.AddTool(mcp.NewTool("tokenize",
		mcp.WithDescription("Split an expression into tokens and return them as JSON."),
		expressionArg,
	), s.tokenize)

	s.mcp.AddTool(mcp.NewTool("to_rpn",
		mcp.WithDescription("Convert an expression to reverse Polish notation."),
		expressionArg,
	), s.toRPN)

	s.mcp.AddTool(mcp.NewTool("functions",
		mcp.WithDescription("List the functions that expressions may call."),
	), s.functions)

	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves requests on stdin and stdout until the input closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) evaluate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	expr, err := req.RequireString("expression")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	start := time.Now()
	result, err := s.calc.Evaluate(expr)
	s.recorder.Observe(time.Since(start), err)
	if err != nil {
		s.log.Debug("evaluate failed", zap.String("expression", expr), zap.Error(err))
		return toolError(err), nil
	}
	return mcp.NewToolResultText(result), nil
}

func (s *Server) tokenize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	expr, err := req.RequireString("expression")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	tokens, err := s.calc.Tokenize(expr)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(tokens)
}

func (s *Server) toRPN(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	expr, err := req.RequireString("expression")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rpn, err := s.calc.ToRPN(expr)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(expression.Join(rpn, " ")), nil
}

func (s *Server) functions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	defs := s.calc.Functions().List()
	out := make([]rest.FunctionResponse, len(defs))
	for i, def := range defs {
		out[i] = rest.ToFunctionResponse(def)
	}
	return jsonResult(out)
}

// toolError reports an expression failure as a tool result with IsError set.
func toolError(err error) *mcp.CallToolResult {
	resp := rest.ToErrorResponse(err)
	return mcp.NewToolResultError(fmt.Sprintf("%s: %s", resp.Error, resp.Message))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
