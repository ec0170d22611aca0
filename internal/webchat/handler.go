package webchat

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wolfman30/clinic-scheduling-agent/internal/conversation"
	"github.com/wolfman30/clinic-scheduling-agent/pkg/logging"
	"golang.org/x/net/websocket"
)

const (
	frameMessage  = "message"
	framePing     = "ping"
	framePong     = "pong"
	frameSession  = "session"
	frameResponse = "response"
	frameError    = "error"
)

// InboundMessage is what the widget sends. An empty Type is treated as a message.
type InboundMessage struct {
	Type      string `json:"type,omitempty"`
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// OutboundMessage is what the widget receives.
type OutboundMessage struct {
	Type      string                `json:"type"`
	SessionID string                `json:"session_id,omitempty"`
	Response  conversation.Response `json:"response,omitempty"`
	Text      string                `json:"text,omitempty"`
	Timestamp string                `json:"timestamp,omitempty"`
}

// Handler drives the conversation service over WebSocket connections.
type Handler struct {
	service conversation.Service
	origins map[string]struct{}
	logger  *logging.Logger
	now     func() time.Time
}

// NewHandler creates a web chat handler. An empty allowedOrigins accepts any origin.
func NewHandler(service conversation.Service, allowedOrigins []string, logger *logging.Logger) *Handler {
	if service == nil {
		panic("webchat: service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins[o] = struct{}{}
		}
	}
	return &Handler{service: service, origins: origins, logger: logger, now: time.Now}
}

// generateSessionID creates a random session identifier.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(b)
}

// HandleWebSocket upgrades to WebSocket and handles real-time messaging.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	srv := websocket.Server{
		Handshake: h.handshake,
		Handler: func(conn *websocket.Conn) {
			h.serveWS(conn, r)
		},
	}
	srv.ServeHTTP(w, r)
}

func (h *Handler) handshake(cfg *websocket.Config, r *http.Request) error {
	origin, err := websocket.Origin(cfg, r)
	if err != nil {
		return err
	}
	if origin == nil {
		return fmt.Errorf("webchat: null origin")
	}
	cfg.Origin = origin
	if len(h.origins) == 0 {
		return nil
	}
	if _, ok := h.origins[origin.Scheme+"://"+origin.Host]; !ok {
		h.logger.Warn("webchat: origin rejected", "origin", origin.String())
		return fmt.Errorf("webchat: origin %s not allowed", origin.String())
	}
	return nil
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	ctx := r.Context()
	sessionID := strings.TrimSpace(r.URL.Query().Get("session"))
	if sessionID == "" {
		sessionID = generateSessionID()
	}
	_ = websocket.JSON.Send(conn, OutboundMessage{Type: frameSession, SessionID: sessionID})
	h.logger.Info("webchat: connection opened", "session_id", sessionID)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("webchat: connection closed", "session_id", sessionID, "error", err)
			return
		}

		switch msg.Type {
		case framePing:
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: framePong})
			continue
		case "", frameMessage:
		default:
			continue
		}
		if strings.TrimSpace(msg.Text) == "" {
			continue
		}

		turnSession := strings.TrimSpace(msg.SessionID)
		if turnSession == "" {
			turnSession = sessionID
		}
		resp, err := h.service.Handle(ctx, turnSession, msg.Text)
		if err != nil {
			h.logger.Error("webchat: failed to handle message", "session_id", turnSession, "error", err)
			_ = websocket.JSON.Send(conn, OutboundMessage{
				Type:      frameError,
				SessionID: turnSession,
				Text:      "Sorry, something went wrong. Please try again.",
			})
			continue
		}
		out := OutboundMessage{
			Type:      frameResponse,
			SessionID: turnSession,
			Response:  resp,
			Timestamp: h.now().UTC().Format(time.RFC3339),
		}
		if err := websocket.JSON.Send(conn, out); err != nil {
			h.logger.Debug("webchat: send failed", "session_id", turnSession, "error", err)
			return
		}
	}
}
