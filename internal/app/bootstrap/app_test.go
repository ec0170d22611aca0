package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"

	appconfig "github.com/wolfman30/clinic-scheduling-agent/internal/config"
	"github.com/wolfman30/clinic-scheduling-agent/internal/conversation"
	"github.com/wolfman30/clinic-scheduling-agent/pkg/logging"
)

func baseConfig(t *testing.T) *appconfig.Config {
	t.Helper()
	return &appconfig.Config{
		Env:              "test",
		ClinicTimezone:   "UTC",
		DefaultSessionID: "default-session",
		LedgerBackend:    "file",
		LedgerFile:       filepath.Join(t.TempDir(), "bookings.json"),
		SessionBackend:   "memory",
		LLMProvider:      "none",
		EmailProvider:    "none",
		LLMMaxAttempts:   3,
		RateLimitRPS:     100,
		RateLimitBurst:   100,
	}
}

func noAWS(context.Context) (aws.Config, error) {
	return aws.Config{}, errors.New("aws not available in tests")
}

func TestBuildRequiresConfig(t *testing.T) {
	if _, err := Build(context.Background(), nil, noAWS, logging.New("error")); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := baseConfig(t)
	cfg.LedgerBackend = "postgres"
	if _, err := Build(context.Background(), cfg, noAWS, logging.New("error")); err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBuildFileLedgerServesChat(t *testing.T) {
	app, err := Build(context.Background(), baseConfig(t), noAWS, logging.New("error"))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer app.Close()

	resp, err := app.Engine.Handle(context.Background(), "s1", "hello")
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if resp.Action() != conversation.ActionReply || resp.Text() == "" {
		t.Fatalf("unexpected greeting response: %#v", resp)
	}

	answer, err := app.FAQ.Answer(context.Background(), "Do you accept insurance?")
	if err != nil || answer == "" {
		t.Fatalf("expected faq answer, got %q (%v)", answer, err)
	}
	if len(app.Directory.All()) == 0 {
		t.Fatalf("expected embedded doctor directory")
	}
}

func TestBuildHandlerRoutes(t *testing.T) {
	app, err := Build(context.Background(), baseConfig(t), noAWS, logging.New("error"))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer app.Close()
	handler := app.Handler()

	for _, path := range []string{"/", "/health", "/metrics"} {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", path, rr.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/chat/", strings.NewReader(`{"message":"hi"}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"session_id":"default-session"`) {
		t.Fatalf("unexpected chat response %d: %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rr.Body.String(), "clinic_conversation_turns_total") {
		t.Fatalf("expected turn counter to be exported")
	}
}

func TestBuildRedisSessions(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := baseConfig(t)
	cfg.LedgerBackend = "memory"
	cfg.SessionBackend = "redis"
	cfg.RedisAddr = mr.Addr()

	app, err := Build(context.Background(), cfg, noAWS, logging.New("error"))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer app.Close()

	if _, err := app.Engine.Handle(context.Background(), "redis-session", "hello"); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if len(mr.Keys()) == 0 {
		t.Fatalf("expected session state persisted to redis")
	}

	rr := httptest.NewRecorder()
	app.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"sessions":"ok"`) {
		t.Fatalf("unexpected health response %d: %s", rr.Code, rr.Body.String())
	}
}

func TestBuildRedisUnavailable(t *testing.T) {
	cfg := baseConfig(t)
	cfg.SessionBackend = "redis"
	cfg.RedisAddr = "127.0.0.1:1"
	if _, err := Build(context.Background(), cfg, noAWS, logging.New("error")); err == nil {
		t.Fatalf("expected error when redis is unreachable")
	}
}

func TestBuildAWSBackendsNeedLoader(t *testing.T) {
	cfg := baseConfig(t)
	cfg.SessionBackend = "dynamodb"
	_, err := Build(context.Background(), cfg, nil, logging.New("error"))
	if err == nil || !strings.Contains(err.Error(), "aws configuration is required") {
		t.Fatalf("expected aws requirement error, got %v", err)
	}

	cfg = baseConfig(t)
	cfg.EmailProvider = "ses"
	cfg.EmailFromAddress = "desk@clinic.test"
	_, err = Build(context.Background(), cfg, noAWS, logging.New("error"))
	if err == nil || !strings.Contains(err.Error(), "aws not available") {
		t.Fatalf("expected loader error, got %v", err)
	}
}

func TestBuildDynamoSessionsWithStaticConfig(t *testing.T) {
	cfg := baseConfig(t)
	cfg.SessionBackend = "dynamodb"
	cfg.SessionsTable = "chat_sessions"
	loader := func(context.Context) (aws.Config, error) {
		return aws.Config{Region: "us-east-1"}, nil
	}
	app, err := Build(context.Background(), cfg, loader, logging.New("error"))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	app.Close()
}

func TestBuildRedisClientDisabled(t *testing.T) {
	if client := BuildRedisClient(context.Background(), &appconfig.Config{}, nil, true); client != nil {
		t.Fatalf("expected nil client without address")
	}
}

func TestBuildPostgresPoolRequiresURL(t *testing.T) {
	if _, err := BuildPostgresPool(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty url")
	}
}

func TestAppCloseIsIdempotent(t *testing.T) {
	app, err := Build(context.Background(), baseConfig(t), noAWS, logging.New("error"))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	_ = app.Handler()
	app.Close()
	app.Close()
}
