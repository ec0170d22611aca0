package conversation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wolfman30/clinic-scheduling-agent/pkg/logging"
)

type stubService struct {
	sessionID string
	message   string
	resp      Response
	err       error
}

func (s *stubService) Handle(_ context.Context, sessionID, message string) (Response, error) {
	s.sessionID, s.message = sessionID, message
	return s.resp, s.err
}

func postChat(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat/", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	h.Chat(w, req)
	return w
}

func TestHandler_Chat_ReturnsTaggedResponse(t *testing.T) {
	svc := &stubService{resp: Reply{Message: "Hello 👋"}}
	h := NewHandler(svc, "", logging.Default())

	w := postChat(t, h, `{"message":"hi","session_id":"abc"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Response  map[string]any `json:"response"`
		SessionID string         `json:"session_id"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SessionID != "abc" || resp.Response["action"] != "reply" || resp.Response["message"] != "Hello 👋" {
		t.Fatalf("unexpected body %#v", resp)
	}
	if svc.sessionID != "abc" || svc.message != "hi" {
		t.Fatalf("service got %q %q", svc.sessionID, svc.message)
	}
}

func TestHandler_Chat_DefaultsSessionID(t *testing.T) {
	svc := &stubService{resp: Reply{Message: "ok"}}
	h := NewHandler(svc, "", nil)

	postChat(t, h, `{"message":"hello"}`)
	if svc.sessionID != DefaultSessionID {
		t.Fatalf("expected %s, got %q", DefaultSessionID, svc.sessionID)
	}

	custom := NewHandler(svc, "kiosk", nil)
	postChat(t, custom, `{"message":"hello","session_id":"  "}`)
	if svc.sessionID != "kiosk" {
		t.Fatalf("expected kiosk, got %q", svc.sessionID)
	}
}

func TestHandler_Chat_RejectsBadRequests(t *testing.T) {
	h := NewHandler(&stubService{resp: Reply{}}, "", nil)
	for _, body := range []string{"not json", `{"message":"   "}`, `{}`} {
		if w := postChat(t, h, body); w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, w.Code)
		}
	}
}

func TestHandler_Chat_ServiceFailure(t *testing.T) {
	h := NewHandler(&stubService{err: errors.New("redis down")}, "", nil)
	w := postChat(t, h, `{"message":"hello"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "redis") {
		t.Fatalf("internal error leaked: %s", w.Body.String())
	}
}
