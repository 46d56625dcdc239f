package handler

import (
	"context"
	"encoding/json"

	"github.com/labstack/echo/v4"
	"github.com/zizouhuweidi/quizflow/internal/domain"
	"github.com/zizouhuweidi/quizflow/internal/service"
	ws "github.com/zizouhuweidi/quizflow/internal/websocket"
)

// Inbound websocket message types
const (
	MessageStart  = "start"
	MessageAnswer = "answer"
	MessageError  = "error"
)

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub         *ws.Hub
	quizService domain.QuizService
	validator   *Validator
}

// NewWebSocketHandler creates a new WebSocket handler. Inbound actions are
// checked with the same validator as the HTTP routes.
func NewWebSocketHandler(hub *ws.Hub, quizService domain.QuizService, v *Validator) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		quizService: quizService,
		validator:   v,
	}
}

// HandleWebSocket upgrades the connection, sends the current state and then
// serves the client until it disconnects
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	client, err := h.hub.Accept(c.Response(), c.Request())
	if err != nil {
		c.Logger().Errorf("websocket: %v", err)
		return nil
	}

	client.Send(service.StateMessage, h.quizService.View())
	client.Serve(c.Request().Context(), h)
	return nil
}

// Dispatch turns a client message into a quiz action. The resulting state
// reaches every client through the hub; only errors are answered directly.
func (h *WebSocketHandler) Dispatch(ctx context.Context, client *ws.Client, msg ws.Message) {
	var err error

	switch msg.Type {
	case MessageStart:
		_, err = h.quizService.Start(ctx)

	case MessageAnswer:
		var req AnswerRequest
		if len(msg.Payload) > 0 {
			if jsonErr := json.Unmarshal(msg.Payload, &req); jsonErr != nil {
				client.Send(MessageError, ErrorResponse{Error: "invalid answer payload"})
				return
			}
		}
		if err = h.validator.Validate(&req); err == nil {
			_, err = h.quizService.SubmitAnswer(ctx, req.Question, req.Answer)
		}

	default:
		client.Send(MessageError, ErrorResponse{Error: "unknown message type " + msg.Type})
		return
	}

	if err != nil {
		client.Send(MessageError, ErrorResponse{Error: err.Error()})
	}
}
