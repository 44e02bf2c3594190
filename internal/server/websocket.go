package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	dserror "github.com/msto63/descent/foundation/core/error"
	dslog "github.com/msto63/descent/foundation/core/log"
	"github.com/msto63/descent/internal/frontend"
)

const (
	wsReadTimeout = 120 * time.Second
	wsReadLimit   = maxBodyBytes
)

// WebSocket upgrader with permissive settings for local development
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSMessage represents a WebSocket request
type WSMessage struct {
	Type    string          `json:"type"`         // "ping", "tokenize", "parse"
	ID      string          `json:"id,omitempty"` // echoed in the response
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WSResponse represents a WebSocket response
type WSResponse struct {
	Type    string      `json:"type"` // "pong", "tokens", "ast", "error"
	ID      string      `json:"id,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// WebSocketHandler serves tokenize and parse requests over a WebSocket
type WebSocketHandler struct {
	service *frontend.Service
	logger  *dslog.Logger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(service *frontend.Service, logger *dslog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		service: service,
		logger:  logger.WithName("websocket"),
	}
}

// ServeHTTP handles WebSocket upgrade and connections
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnWithErr("WebSocket upgrade failed", err)
		return
	}
	h.handleConnection(r.Context(), conn)
}

// handleConnection answers requests in arrival order until the peer closes
func (h *WebSocketHandler) handleConnection(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	logger := h.logger.WithField("remote", conn.RemoteAddr().String())
	logger.Debug("WebSocket connection established")

	conn.SetReadLimit(wsReadLimit)
	conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WarnWithErr("WebSocket read error", err)
			} else {
				logger.Debug("WebSocket connection closed")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		if err := conn.WriteJSON(h.handleMessage(ctx, msg)); err != nil {
			logger.WarnWithErr("WebSocket write error", err)
			return
		}
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, msg WSMessage) WSResponse {
	switch msg.Type {
	case "ping":
		return WSResponse{Type: "pong", ID: msg.ID}

	case "tokenize":
		var req SourceRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return invalidPayload(msg, err)
		}
		tokens, err := h.service.Tokenize(ctx, req.Source)
		if err != nil {
			return WSResponse{Type: "error", ID: msg.ID, Payload: frontend.Describe(err)}
		}
		return WSResponse{Type: "tokens", ID: msg.ID, Payload: TokensResponse{Tokens: tokensJSON(tokens)}}

	case "parse":
		var req SourceRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return invalidPayload(msg, err)
		}
		result := h.service.Analyze(ctx, req.Source)
		if !result.OK() {
			return WSResponse{Type: "error", ID: msg.ID, Payload: frontend.Describe(result.Err)}
		}
		return WSResponse{Type: "ast", ID: msg.ID, Payload: parseResponse(result, &req)}
	}

	return WSResponse{Type: "error", ID: msg.ID, Payload: &frontend.Failure{
		Code:    string(dserror.CodeInvalidInput),
		Message: "unknown message type: " + msg.Type,
	}}
}

func invalidPayload(msg WSMessage, err error) WSResponse {
	return WSResponse{Type: "error", ID: msg.ID, Payload: &frontend.Failure{
		Code:    string(dserror.CodeInvalidInput),
		Message: "invalid " + msg.Type + " payload: " + err.Error(),
	}}
}
