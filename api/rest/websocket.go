package rest

import (
	"errors"
	"io"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/websocket"
)

// setupWebSocketRoutes sets up WebSocket routes.
func (s *Server) setupWebSocketRoutes() {
	if !s.config.EnableWebSocket {
		return
	}

	s.app.Get("/api/v1/evaluate/stream", adaptor.HTTPHandler(
		websocket.Handler(s.handleStream),
	))
}

// handleStream evaluates one expression per received message and replies
// with one StreamMessage each. A message is either the bare expression or
// a JSON ExpressionRequest.
func (s *Server) handleStream(ws *websocket.Conn) {
	defer ws.Close()

	for {
		var text string
		if err := websocket.Message.Receive(ws, &text); err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.Debug("stream receive failed", zap.Error(err))
			}
			return
		}

		reply := s.streamReply(text)
		if err := websocket.JSON.Send(ws, reply); err != nil {
			s.log.Debug("stream send failed", zap.Error(err))
			return
		}
	}
}

func (s *Server) streamReply(text string) StreamMessage {
	msg := StreamMessage{
		ID:        uuid.NewString(),
		Timestamp: time.Now().Format(time.RFC3339),
	}

	expr := strings.TrimSpace(text)
	if strings.HasPrefix(expr, "{") {
		var req ExpressionRequest
		if err := sonic.UnmarshalString(expr, &req); err != nil {
			msg.Type = "error"
			msg.Error = &ErrorResponse{Error: ErrInvalidRequest, Message: err.Error()}
			return msg
		}
		expr = req.Expression
	}
	msg.Expression = expr

	if strings.TrimSpace(expr) == "" {
		msg.Type = "error"
		msg.Error = &ErrorResponse{Error: ErrInvalidRequest, Message: "expression is required"}
		return msg
	}

	start := time.Now()
	result, err := s.compiler.Evaluate(expr)
	s.recorder.Observe(time.Since(start), err)
	if err != nil {
		msg.Type = "error"
		msg.Error = ToErrorResponse(err)
		return msg
	}

	msg.Type = "result"
	msg.Result = result
	return msg
}
