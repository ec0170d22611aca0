package conversation

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/wolfman30/clinic-scheduling-agent/pkg/logging"
)

// DefaultSessionID is used when a chat request names no session.
const DefaultSessionID = "default-session"

// Service handles one chat turn. *Engine implements it.
type Service interface {
	Handle(ctx context.Context, sessionID, message string) (Response, error)
}

// ChatRequest is the body of POST /api/chat/.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse wraps the tagged turn response.
type ChatResponse struct {
	Response  Response `json:"response"`
	SessionID string   `json:"session_id"`
}

// Handler wires HTTP requests to the conversation service.
type Handler struct {
	service          Service
	defaultSessionID string
	logger           *logging.Logger
}

// NewHandler creates a chat handler. An empty defaultSessionID selects DefaultSessionID.
func NewHandler(service Service, defaultSessionID string, logger *logging.Logger) *Handler {
	if service == nil {
		panic("conversation: service cannot be nil")
	}
	if strings.TrimSpace(defaultSessionID) == "" {
		defaultSessionID = DefaultSessionID
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, defaultSessionID: defaultSessionID, logger: logger}
}

// Chat handles POST /api/chat/.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode chat request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = h.defaultSessionID
	}

	resp, err := h.service.Handle(r.Context(), sessionID, req.Message)
	if err != nil {
		h.logger.Error("failed to handle chat turn", "session_id", sessionID, "error", err)
		http.Error(w, "Failed to process message", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, ChatResponse{Response: resp, SessionID: sessionID})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
